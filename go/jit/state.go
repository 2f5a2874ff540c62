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

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// CompileFunc lowers analyzed and optimized code into a compiled program.
// The backend package provides the implementation; injecting it here keeps
// this package free of a backend dependency.
type CompileFunc func(analyzed *AnalyzedCode, optimized vm.Code) (CompiledProgram, error)

// State is the process-scoped root of the tiered execution subsystem. It
// owns the code cache, the execution counter, the background compiler, the
// analyzer with its negative cache, and the metrics. Constructed once and
// shared by reference; torn down with Close.
type State struct {
	config   Config
	metrics  *Metrics
	analyzer *Analyzer
	cache    *Cache
	counter  *Counter
	pool     *Pool
	compile  CompileFunc

	validationRuns sync.Map // vm.Hash -> *atomic.Uint64
}

func NewState(config Config, compile CompileFunc) (*State, error) {
	config = config.withDefaults()
	metrics := &Metrics{}
	analyzer, err := NewAnalyzer(config.MaxBytecodeSize, metrics)
	if err != nil {
		return nil, err
	}
	cache, err := NewCache(config.MaxCacheEntries, metrics)
	if err != nil {
		return nil, err
	}
	s := &State{
		config:   config,
		metrics:  metrics,
		analyzer: analyzer,
		cache:    cache,
		counter:  NewCounter(),
		compile:  compile,
	}
	if config.BackgroundWorkerCount > 0 {
		s.pool = NewPool(config.BackgroundWorkerCount, defaultQueueSize, s.processRequest)
	}
	return s, nil
}

func (s *State) Config() Config {
	return s.config
}

func (s *State) Metrics() *Metrics {
	return s.metrics
}

// RecordInterpretedExecution counts an interpreted run of the given code.
// The first time the count reaches the compile threshold, exactly one
// compilation is triggered: in the background when possible, synchronously
// when configured as fallback, not at all otherwise.
func (s *State) RecordInterpretedExecution(hash vm.Hash, revision vm.Revision, code vm.Code) {
	if s.analyzer.IsKnownOversized(hash) {
		return
	}
	key := CacheKey{CodeHash: hash, Revision: revision}
	if s.counter.Record(key) < s.config.CompileThreshold {
		return
	}
	if !s.counter.MarkCrossed(key) {
		return
	}
	request := CompilationRequest{Key: key, Code: code}
	if s.pool != nil && s.pool.Request(request) {
		s.metrics.BackgroundDispatches.Add(1)
		return
	}
	if s.config.SyncCompileFallback {
		s.metrics.SynchronousCompiles.Add(1)
		s.processRequest(request)
	}
}

// TryDispatch probes the cache for a compiled program. A returned entry
// carries a reference for the caller, which must Release it when the
// execution is done. The reference is taken as part of the lookup, so a
// concurrent eviction either misses or defers reclamation to that Release.
func (s *State) TryDispatch(hash vm.Hash, revision vm.Revision) *Entry {
	return s.cache.Acquire(CacheKey{CodeHash: hash, Revision: revision})
}

// Invalidate removes a compiled program proven incorrect. Subsequent
// lookups miss and fall back to interpretation or recompilation.
func (s *State) Invalidate(key CacheKey) {
	s.cache.Invalidate(key)
}

// ShouldValidate reports whether the upcoming compiled execution of the
// code should be validated against the interpreter, bounded per code hash
// by MaxValidationRuns.
func (s *State) ShouldValidate(hash vm.Hash) bool {
	if s.config.MaxValidationRuns <= 0 {
		return false
	}
	value, _ := s.validationRuns.LoadOrStore(hash, &atomic.Uint64{})
	count := value.(*atomic.Uint64)
	for {
		current := count.Load()
		if current >= uint64(s.config.MaxValidationRuns) {
			return false
		}
		if count.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Close drains the background compiler and releases the cache.
func (s *State) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	s.cache.Purge()
}

func (s *State) processRequest(request CompilationRequest) {
	analyzed, err := s.analyzer.Analyze(request.Code, request.Key.CodeHash, request.Key.Revision)
	if err != nil {
		return // oversized, already counted by the analyzer
	}
	optimized := Optimize(analyzed)
	program, err := s.compile(analyzed, optimized)
	if err != nil {
		s.metrics.CompileFailures.Add(1)
		return
	}
	s.metrics.Compiles.Add(1)
	s.cache.Insert(request.Key, program)
}
