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

import "runtime"

const (
	defaultMaxBytecodeSize   = 24576
	defaultMaxCacheEntries   = 1024
	defaultCompileThreshold  = 100
	defaultMaxValidationRuns = 10
	defaultQueueSize         = 256
)

// Config are the tuning parameters of the tiered execution subsystem. The
// zero value selects defaults for every knob.
type Config struct {
	// MaxBytecodeSize is the largest code size accepted for compilation.
	// Larger code is rejected by the analyzer and stays interpreted.
	MaxBytecodeSize int

	// MaxCacheEntries bounds the number of compiled programs retained.
	MaxCacheEntries int

	// CompileThreshold is the number of interpreted executions of a code
	// after which its compilation is requested.
	CompileThreshold uint64

	// MaxValidationRuns caps how often a compiled program is re-executed
	// through the interpreter for comparison. A negative value disables
	// validation entirely.
	MaxValidationRuns int

	// EnableJitToJitDispatch lets a compiled caller dispatch directly to a
	// compiled callee instead of resuming through the interpreter.
	EnableJitToJitDispatch bool

	// EnablePrecompileFastDispatch routes calls to precompile addresses
	// through the dedicated precompile path with its own metric.
	EnablePrecompileFastDispatch bool

	// BackgroundWorkerCount is the number of compiler workers. A negative
	// value disables background compilation.
	BackgroundWorkerCount int

	// SyncCompileFallback compiles on the calling thread when a background
	// request cannot be accepted.
	SyncCompileFallback bool
}

func (c Config) withDefaults() Config {
	if c.MaxBytecodeSize == 0 {
		c.MaxBytecodeSize = defaultMaxBytecodeSize
	}
	if c.MaxCacheEntries == 0 {
		c.MaxCacheEntries = defaultMaxCacheEntries
	}
	if c.CompileThreshold == 0 {
		c.CompileThreshold = defaultCompileThreshold
	}
	if c.MaxValidationRuns == 0 {
		c.MaxValidationRuns = defaultMaxValidationRuns
	}
	if c.BackgroundWorkerCount == 0 {
		c.BackgroundWorkerCount = runtime.NumCPU()
	}
	return c
}
