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
)

// Counter tracks interpreted executions per (code hash, revision). The hot
// path takes a shared lock and bumps an atomic; only the first execution of
// a key takes the exclusive lock to install its entry.
type Counter struct {
	mu      sync.RWMutex
	entries map[CacheKey]*counterEntry
}

type counterEntry struct {
	count   atomic.Uint64
	crossed atomic.Bool
}

func NewCounter() *Counter {
	return &Counter{entries: map[CacheKey]*counterEntry{}}
}

// Record increments the execution count of the key and returns the new
// count.
func (c *Counter) Record(key CacheKey) uint64 {
	return c.getEntry(key).count.Add(1)
}

// Count returns the current execution count of the key.
func (c *Counter) Count(key CacheKey) uint64 {
	c.mu.RLock()
	entry := c.entries[key]
	c.mu.RUnlock()
	if entry == nil {
		return 0
	}
	return entry.count.Load()
}

// MarkCrossed latches the threshold crossing of the key. Only the first
// caller observes true, so concurrent crossers trigger at most one
// compilation request.
func (c *Counter) MarkCrossed(key CacheKey) bool {
	return c.getEntry(key).crossed.CompareAndSwap(false, true)
}

// Reset drops all counts. Test harnesses only.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.entries = map[CacheKey]*counterEntry{}
	c.mu.Unlock()
}

func (c *Counter) getEntry(key CacheKey) *counterEntry {
	c.mu.RLock()
	entry := c.entries[key]
	c.mu.RUnlock()
	if entry != nil {
		return entry
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry = c.entries[key]
	if entry == nil {
		entry = &counterEntry{}
		c.entries[key] = entry
	}
	return entry
}
