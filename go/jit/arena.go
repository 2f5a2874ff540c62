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

import "sync"

// CompiledProgram is the opaque compiled artifact managed by the cache and
// the arena. The backend package provides the implementation.
type CompiledProgram interface {
	// Dispose releases the resources of the program once it is evicted and
	// no execution references it anymore. It is called at most once.
	Dispose()
}

// slotsPerArena is the number of compiled programs grouped into one arena,
// amortizing allocation bookkeeping over many small programs.
const slotsPerArena = 64

type slotState byte

const (
	slotAllocated slotState = iota
	slotFreed
)

// arena groups compiled programs. It is fully reclaimed once every slot in
// it has been evicted from the cache and released by all in-flight
// executions.
type arena struct {
	slots  int
	freed  int
	sealed bool // no further slots are added
}

// arenaSlot is the residence of one compiled program within an arena.
type arenaSlot struct {
	manager *arenaManager
	arena   *arena
	program CompiledProgram
	state   slotState
}

// arenaManager owns all arenas. It is the only component mutating slot and
// arena lifecycle state, always under its mutex.
type arenaManager struct {
	mu      sync.Mutex
	current *arena
	metrics *Metrics
}

func newArenaManager(metrics *Metrics) *arenaManager {
	return &arenaManager{metrics: metrics}
}

func (m *arenaManager) allocate(program CompiledProgram) *arenaSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.slots >= slotsPerArena {
		if m.current != nil {
			m.sealLocked(m.current)
		}
		m.current = &arena{}
		m.metrics.ArenasCreated.Add(1)
	}
	m.current.slots++
	return &arenaSlot{
		manager: m,
		arena:   m.current,
		program: program,
	}
}

// free releases the slot's program. Idempotent; called once the slot is
// evicted and its last in-flight reference is gone.
func (s *arenaSlot) free() {
	m := s.manager
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.state == slotFreed {
		return
	}
	s.state = slotFreed
	s.program.Dispose()
	s.arena.freed++
	m.maybeReclaimLocked(s.arena)
}

func (m *arenaManager) sealLocked(a *arena) {
	a.sealed = true
	m.maybeReclaimLocked(a)
}

func (m *arenaManager) maybeReclaimLocked(a *arena) {
	if a.sealed && a.freed == a.slots {
		m.metrics.ArenasFreed.Add(1)
	}
}

// close seals the open arena so it can be reclaimed once drained.
func (m *arenaManager) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.sealLocked(m.current)
		m.current = nil
	}
}
