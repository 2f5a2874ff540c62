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

import "sync/atomic"

// Metrics is the process-wide counter set of the tiered execution subsystem.
// Counters are incremented throughout the process lifetime; Reset exists for
// test harnesses only.
type Metrics struct {
	Compiles        atomic.Uint64
	CompileFailures atomic.Uint64

	CacheHits   atomic.Uint64
	CacheMisses atomic.Uint64

	InterpreterFallbacks atomic.Uint64

	ValidationRuns         atomic.Uint64
	ValidationSuccesses    atomic.Uint64
	ValidationMismatches   atomic.Uint64
	ValidationInconclusive atomic.Uint64

	BackgroundDispatches atomic.Uint64
	SynchronousCompiles  atomic.Uint64

	PrecompileFastDispatches atomic.Uint64
	OversizedRejections      atomic.Uint64

	ArenasCreated atomic.Uint64
	ArenasFreed   atomic.Uint64
}

// MetricsSnapshot is a plain-value copy of all counters for reporting.
type MetricsSnapshot struct {
	Compiles        uint64
	CompileFailures uint64

	CacheHits   uint64
	CacheMisses uint64

	InterpreterFallbacks uint64

	ValidationRuns         uint64
	ValidationSuccesses    uint64
	ValidationMismatches   uint64
	ValidationInconclusive uint64

	BackgroundDispatches uint64
	SynchronousCompiles  uint64

	PrecompileFastDispatches uint64
	OversizedRejections      uint64

	ArenasCreated uint64
	ArenasFreed   uint64
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Compiles:                 m.Compiles.Load(),
		CompileFailures:          m.CompileFailures.Load(),
		CacheHits:                m.CacheHits.Load(),
		CacheMisses:              m.CacheMisses.Load(),
		InterpreterFallbacks:     m.InterpreterFallbacks.Load(),
		ValidationRuns:           m.ValidationRuns.Load(),
		ValidationSuccesses:      m.ValidationSuccesses.Load(),
		ValidationMismatches:     m.ValidationMismatches.Load(),
		ValidationInconclusive:   m.ValidationInconclusive.Load(),
		BackgroundDispatches:     m.BackgroundDispatches.Load(),
		SynchronousCompiles:      m.SynchronousCompiles.Load(),
		PrecompileFastDispatches: m.PrecompileFastDispatches.Load(),
		OversizedRejections:      m.OversizedRejections.Load(),
		ArenasCreated:            m.ArenasCreated.Load(),
		ArenasFreed:              m.ArenasFreed.Load(),
	}
}

func (m *Metrics) Reset() {
	m.Compiles.Store(0)
	m.CompileFailures.Store(0)
	m.CacheHits.Store(0)
	m.CacheMisses.Store(0)
	m.InterpreterFallbacks.Store(0)
	m.ValidationRuns.Store(0)
	m.ValidationSuccesses.Store(0)
	m.ValidationMismatches.Store(0)
	m.ValidationInconclusive.Store(0)
	m.BackgroundDispatches.Store(0)
	m.SynchronousCompiles.Store(0)
	m.PrecompileFastDispatches.Store(0)
	m.OversizedRejections.Store(0)
	m.ArenasCreated.Store(0)
	m.ArenasFreed.Store(0)
}
