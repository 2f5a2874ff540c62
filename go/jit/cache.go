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
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// reclaimedRefs marks an entry whose arena slot has been returned. The
// sentinel makes reclamation a state transition of the reference counter
// itself, so taking a reference and freeing the slot cannot interleave.
const reclaimedRefs = math.MinInt32

// Entry is a cached compiled program. Executions bracket their use with
// Acquire/Release so that an eviction never reclaims a program that is
// still running; an evicted entry stays callable until its last Release.
type Entry struct {
	Key     CacheKey
	Program CompiledProgram

	// lastUsed is a monotonic use stamp, refreshed on every hit without an
	// exclusive section.
	lastUsed atomic.Uint64

	refs    atomic.Int32
	evicted atomic.Bool
	slot    *arenaSlot
}

// Acquire takes a reference on the entry. It fails once the entry's program
// has been reclaimed; dispatch must go through Cache.Acquire, which takes
// the reference as part of the lookup.
func (e *Entry) Acquire() bool {
	for {
		refs := e.refs.Load()
		if refs == reclaimedRefs {
			return false
		}
		if e.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

func (e *Entry) Release() {
	if e.refs.Add(-1) == 0 && e.evicted.Load() {
		e.reclaim()
	}
}

// LastUsed returns the entry's use stamp. Stamps are comparable amongst each
// other only.
func (e *Entry) LastUsed() uint64 {
	return e.lastUsed.Load()
}

func (e *Entry) markEvicted() {
	e.evicted.Store(true)
	e.reclaim()
}

// reclaim frees the arena slot when no reference is held. The transition to
// the sentinel can only be won once, and it loses against any concurrent
// Acquire, which defers reclamation to that reference's Release.
func (e *Entry) reclaim() {
	if e.refs.CompareAndSwap(0, reclaimedRefs) {
		e.slot.free()
	}
}

// Cache is the bounded store of compiled programs. Insertion beyond the
// capacity evicts in least-recently-used order; evicted slots return to the
// arena manager for reclamation.
type Cache struct {
	entries *lru.Cache[CacheKey, *Entry]
	arenas  *arenaManager
	metrics *Metrics
	stamp   atomic.Uint64
}

func NewCache(capacity int, metrics *Metrics) (*Cache, error) {
	c := &Cache{
		arenas:  newArenaManager(metrics),
		metrics: metrics,
	}
	entries, err := lru.NewWithEvict[CacheKey, *Entry](capacity,
		func(_ CacheKey, entry *Entry) { entry.markEvicted() })
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

// Get returns the entry for the key, or nil. A hit refreshes both the LRU
// order and the entry's use stamp. No reference is taken; callers intending
// to execute the program must use Acquire instead.
func (c *Cache) Get(key CacheKey) *Entry {
	entry, found := c.entries.Get(key)
	if !found {
		c.metrics.CacheMisses.Add(1)
		return nil
	}
	entry.lastUsed.Store(c.stamp.Add(1))
	c.metrics.CacheHits.Add(1)
	return entry
}

// Acquire returns the entry for the key with a reference already taken, or
// nil. Taking the reference as part of the lookup leaves no window in which
// a concurrent eviction could reclaim the program before the caller
// registers its use; an entry reclaimed in between counts as a miss.
func (c *Cache) Acquire(key CacheKey) *Entry {
	entry, found := c.entries.Get(key)
	if !found || !entry.Acquire() {
		c.metrics.CacheMisses.Add(1)
		return nil
	}
	entry.lastUsed.Store(c.stamp.Add(1))
	c.metrics.CacheHits.Add(1)
	return entry
}

// Insert publishes a compiled program under the key. The cache's internal
// lock is the publish barrier: once an entry is visible through Get, the
// writes constructing its program are visible too.
func (c *Cache) Insert(key CacheKey, program CompiledProgram) *Entry {
	entry := &Entry{
		Key:     key,
		Program: program,
		slot:    c.arenas.allocate(program),
	}
	entry.lastUsed.Store(c.stamp.Add(1))
	c.entries.Add(key, entry)
	return entry
}

// Invalidate removes the key; its arena slot is released once no execution
// references it anymore. Subsequent lookups miss.
func (c *Cache) Invalidate(key CacheKey) {
	c.entries.Remove(key)
}

// Len reports the number of cached programs.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge evicts everything and seals the arenas. Used on teardown.
func (c *Cache) Purge() {
	c.entries.Purge()
	c.arenas.close()
}
