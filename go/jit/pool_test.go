// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package jit

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

func TestPool_AcceptedRequestsAreProcessed(t *testing.T) {
	var processed atomic.Int32
	pool := NewPool(2, 16, func(CompilationRequest) {
		processed.Add(1)
	})
	for i := byte(0); i < 8; i++ {
		if !pool.Request(CompilationRequest{Key: testKey(i, vm.R13_Cancun)}) {
			t.Fatalf("request %d rejected", i)
		}
	}
	pool.Close()
	if got := processed.Load(); got != 8 {
		t.Errorf("expected 8 processed requests, got %d", got)
	}
}

func TestPool_DuplicateKeysAreRejectedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	pool := NewPool(1, 16, func(CompilationRequest) {
		close(started)
		<-release
	})
	key := testKey(1, vm.R13_Cancun)
	if !pool.Request(CompilationRequest{Key: key}) {
		t.Fatalf("first request rejected")
	}
	<-started
	if pool.Request(CompilationRequest{Key: key}) {
		t.Errorf("duplicate of an in-flight key should be rejected")
	}
	close(release)
	pool.Close()
}

func TestPool_FullQueueDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool(1, 1, func(CompilationRequest) {
		<-release
	})
	defer func() {
		close(release)
		pool.Close()
	}()

	// One request occupies the worker, one fills the queue; the keys after
	// that must be rejected without blocking.
	accepted := 0
	for i := byte(0); i < 8; i++ {
		if pool.Request(CompilationRequest{Key: testKey(i, vm.R13_Cancun)}) {
			accepted++
		}
	}
	if accepted > 2 {
		t.Errorf("at most worker+queue requests can be accepted, got %d", accepted)
	}
	if accepted == 0 {
		t.Errorf("at least one request should have been accepted")
	}
}

func TestPool_CloseDrainsAndIsIdempotent(t *testing.T) {
	var processed atomic.Int32
	var wg sync.WaitGroup
	pool := NewPool(4, 64, func(CompilationRequest) {
		processed.Add(1)
	})
	for i := 0; i < 32; i++ {
		pool.Request(CompilationRequest{Key: CacheKey{CodeHash: vm.Hash{byte(i)}}})
	}
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			pool.Close()
		}()
	}
	wg.Wait()
	if got := processed.Load(); got != 32 {
		t.Errorf("close should drain the queue, processed %d of 32", got)
	}
	if pool.Request(CompilationRequest{Key: testKey(99, vm.R13_Cancun)}) {
		t.Errorf("a closed pool must reject requests")
	}
}
