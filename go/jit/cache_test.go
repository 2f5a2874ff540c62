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
	"fmt"
	"testing"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

func testKey(i byte, revision vm.Revision) CacheKey {
	return CacheKey{CodeHash: vm.Hash{i}, Revision: revision}
}

func TestCache_InsertAndGet(t *testing.T) {
	cache, err := NewCache(4, &Metrics{})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	key := testKey(1, vm.R13_Cancun)
	program := &fakeProgram{}
	cache.Insert(key, program)

	entry := cache.Get(key)
	if entry == nil {
		t.Fatalf("inserted entry not found")
	}
	if entry.Program != program {
		t.Errorf("wrong program returned")
	}
}

func TestCache_KeysAreRevisionSpecific(t *testing.T) {
	cache, err := NewCache(4, &Metrics{})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	cache.Insert(testKey(1, vm.R09_Berlin), &fakeProgram{})
	if cache.Get(testKey(1, vm.R10_London)) != nil {
		t.Errorf("a compiled program must never satisfy a lookup for another revision")
	}
}

func TestCache_InsertBeyondCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewCache(2, &Metrics{})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	a := &fakeProgram{}
	cache.Insert(testKey(1, vm.R13_Cancun), a)
	cache.Insert(testKey(2, vm.R13_Cancun), &fakeProgram{})

	// Touch key 1 so key 2 is the eviction candidate.
	if cache.Get(testKey(1, vm.R13_Cancun)) == nil {
		t.Fatalf("entry missing")
	}
	cache.Insert(testKey(3, vm.R13_Cancun), &fakeProgram{})

	if cache.Get(testKey(2, vm.R13_Cancun)) != nil {
		t.Errorf("least recently used entry should have been evicted")
	}
	if cache.Get(testKey(1, vm.R13_Cancun)) == nil {
		t.Errorf("recently used entry should have survived")
	}
	if a.disposed.Load() {
		t.Errorf("resident program must not be disposed")
	}
}

func TestCache_EvictionWaitsForInFlightReferences(t *testing.T) {
	cache, err := NewCache(1, &Metrics{})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	program := &fakeProgram{}
	entry := cache.Insert(testKey(1, vm.R13_Cancun), program)
	if !entry.Acquire() {
		t.Fatalf("a resident entry must be acquirable")
	}

	// Displacing the entry evicts it while it is still referenced.
	cache.Insert(testKey(2, vm.R13_Cancun), &fakeProgram{})
	if program.disposed.Load() {
		t.Fatalf("a referenced program must not be disposed on eviction")
	}

	entry.Release()
	if !program.disposed.Load() {
		t.Errorf("the last release of an evicted entry should dispose it")
	}
}

func TestCache_AcquireIsAtomicWithTheLookup(t *testing.T) {
	cache, err := NewCache(1, &Metrics{})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	program := &fakeProgram{}
	cache.Insert(testKey(1, vm.R13_Cancun), program)

	// A plain lookup takes no reference. Displacing the entry afterwards
	// reclaims it, and a late reference attempt on the stale entry must
	// fail rather than hand out the disposed program.
	stale := cache.Get(testKey(1, vm.R13_Cancun))
	if stale == nil {
		t.Fatalf("entry missing")
	}
	second := &fakeProgram{}
	cache.Insert(testKey(2, vm.R13_Cancun), second)
	if !program.disposed.Load() {
		t.Fatalf("the unreferenced evicted program should have been reclaimed")
	}
	if stale.Acquire() {
		t.Errorf("a reclaimed entry must not be acquirable")
	}

	// A referenced lookup keeps the program alive across the eviction.
	held := cache.Acquire(testKey(2, vm.R13_Cancun))
	if held == nil {
		t.Fatalf("entry missing")
	}
	cache.Insert(testKey(3, vm.R13_Cancun), &fakeProgram{})
	if second.disposed.Load() {
		t.Errorf("a referenced program must not be disposed on eviction")
	}
	held.Release()
	if !second.disposed.Load() {
		t.Errorf("the last release of an evicted entry should dispose it")
	}
}

func TestCache_InvalidateReleasesTheSlot(t *testing.T) {
	cache, err := NewCache(4, &Metrics{})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	program := &fakeProgram{}
	key := testKey(1, vm.R13_Cancun)
	cache.Insert(key, program)
	cache.Invalidate(key)

	if cache.Get(key) != nil {
		t.Errorf("invalidated entry should miss")
	}
	if !program.disposed.Load() {
		t.Errorf("invalidated unreferenced program should be disposed")
	}
}

func TestCache_ArenasAreReclaimedOnceDrained(t *testing.T) {
	metrics := &Metrics{}
	cache, err := NewCache(slotsPerArena, metrics)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	// Fill one arena completely, then displace every entry.
	for i := 0; i < 2*slotsPerArena; i++ {
		key := CacheKey{CodeHash: testHash([]byte(fmt.Sprintf("code-%d", i)))}
		cache.Insert(key, &fakeProgram{})
	}
	if created := metrics.ArenasCreated.Load(); created < 2 {
		t.Fatalf("expected at least two arenas, got %d", created)
	}
	if freed := metrics.ArenasFreed.Load(); freed < 1 {
		t.Errorf("the drained arena should have been reclaimed, freed %d", freed)
	}
}

func TestCache_LastUsedStampIncreasesOnHits(t *testing.T) {
	cache, err := NewCache(4, &Metrics{})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	key := testKey(1, vm.R13_Cancun)
	entry := cache.Insert(key, &fakeProgram{})
	first := entry.LastUsed()
	cache.Get(key)
	if entry.LastUsed() <= first {
		t.Errorf("hit should refresh the use stamp")
	}
}
