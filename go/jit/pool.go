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

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// CompilationRequest is a unit of background compilation work.
type CompilationRequest struct {
	Key  CacheKey
	Code vm.Code
}

// Pool is the background compiler: a bounded work queue serviced by a fixed
// set of workers. Requests never block the execution path; a full queue or
// a duplicate key is reported to the caller, which stays on the interpreter.
type Pool struct {
	mu       sync.RWMutex
	queue    chan CompilationRequest
	inFlight sync.Map // CacheKey -> struct{}
	workers  sync.WaitGroup
	closed   bool
}

// NewPool starts the given number of workers. Each accepted request is
// handed to work exactly once; the in-flight mark of its key is cleared
// afterwards.
func NewPool(workers, queueSize int, work func(CompilationRequest)) *Pool {
	p := &Pool{queue: make(chan CompilationRequest, queueSize)}
	for i := 0; i < workers; i++ {
		p.workers.Add(1)
		go func() {
			defer p.workers.Done()
			for request := range p.queue {
				work(request)
				p.inFlight.Delete(request.Key)
			}
		}()
	}
	return p
}

// Request submits a compilation request. It reports false without blocking
// when the pool is closed, the key is already in flight, or the queue is
// full.
func (p *Pool) Request(request CompilationRequest) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	if _, duplicate := p.inFlight.LoadOrStore(request.Key, struct{}{}); duplicate {
		return false
	}
	select {
	case p.queue <- request:
		return true
	default:
		p.inFlight.Delete(request.Key)
		return false
	}
}

// Close drains the queue and joins all workers. Idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.workers.Wait()
}
