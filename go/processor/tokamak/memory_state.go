// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tokamak

import (
	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// MemoryState is a self-contained vm.TransactionContext holding the world
// state in memory: accounts, storage with committed-vs-current tracking,
// transient storage, access lists, logs, and a snapshot journal. It backs
// integration tests and the driver, where no real chain state is available.
type MemoryState struct {
	balances       map[vm.Address]vm.Value
	nonces         map[vm.Address]uint64
	codes          map[vm.Address]vm.Code
	storage        map[storageSlot]vm.Word
	committed      map[storageSlot]vm.Word
	transient      map[storageSlot]vm.Word
	warmAccounts   map[vm.Address]struct{}
	warmSlots      map[storageSlot]struct{}
	selfDestructed map[vm.Address]struct{}
	logs           []vm.Log
	blockHashes    map[int64]vm.Hash

	undoStack []memoryCheckpoint
}

type memoryCheckpoint struct {
	balances       map[vm.Address]vm.Value
	nonces         map[vm.Address]uint64
	codes          map[vm.Address]vm.Code
	storage        map[storageSlot]vm.Word
	transient      map[storageSlot]vm.Word
	selfDestructed map[vm.Address]struct{}
	numLogs        int
}

func NewMemoryState() *MemoryState {
	return &MemoryState{
		balances:       map[vm.Address]vm.Value{},
		nonces:         map[vm.Address]uint64{},
		codes:          map[vm.Address]vm.Code{},
		storage:        map[storageSlot]vm.Word{},
		committed:      map[storageSlot]vm.Word{},
		transient:      map[storageSlot]vm.Word{},
		warmAccounts:   map[vm.Address]struct{}{},
		warmSlots:      map[storageSlot]struct{}{},
		selfDestructed: map[vm.Address]struct{}{},
		blockHashes:    map[int64]vm.Hash{},
	}
}

// SettleStorage marks a transaction boundary: the current storage becomes
// the committed storage SSTORE pricing is computed against, and transient
// storage, access lists, logs, and self-destruct marks are cleared.
func (s *MemoryState) SettleStorage() {
	s.committed = cloneMap(s.storage)
	s.transient = map[storageSlot]vm.Word{}
	s.warmAccounts = map[vm.Address]struct{}{}
	s.warmSlots = map[storageSlot]struct{}{}
	s.selfDestructed = map[vm.Address]struct{}{}
	s.logs = nil
	s.undoStack = nil
}

// SetBlockHash registers the hash BLOCKHASH reports for the given number.
func (s *MemoryState) SetBlockHash(number int64, hash vm.Hash) {
	s.blockHashes[number] = hash
}

func (s *MemoryState) AccountExists(addr vm.Address) bool {
	if _, exists := s.balances[addr]; exists {
		return true
	}
	if _, exists := s.nonces[addr]; exists {
		return true
	}
	_, exists := s.codes[addr]
	return exists
}

func (s *MemoryState) GetBalance(addr vm.Address) vm.Value {
	return s.balances[addr]
}

func (s *MemoryState) SetBalance(addr vm.Address, value vm.Value) {
	s.balances[addr] = value
}

func (s *MemoryState) GetNonce(addr vm.Address) uint64 {
	return s.nonces[addr]
}

func (s *MemoryState) SetNonce(addr vm.Address, nonce uint64) {
	s.nonces[addr] = nonce
}

func (s *MemoryState) GetCode(addr vm.Address) vm.Code {
	return s.codes[addr]
}

func (s *MemoryState) GetCodeHash(addr vm.Address) vm.Hash {
	code := s.codes[addr]
	if len(code) == 0 {
		return vm.Hash{}
	}
	return hashCode(code)
}

func (s *MemoryState) GetCodeSize(addr vm.Address) int {
	return len(s.codes[addr])
}

func (s *MemoryState) SetCode(addr vm.Address, code vm.Code) {
	s.codes[addr] = code
}

func (s *MemoryState) GetStorage(addr vm.Address, key vm.Key) vm.Word {
	return s.storage[storageSlot{addr, key}]
}

func (s *MemoryState) SetStorage(addr vm.Address, key vm.Key, value vm.Word) vm.StorageStatus {
	id := storageSlot{addr, key}
	status := vm.GetStorageStatus(s.committed[id], s.storage[id], value)
	if value == (vm.Word{}) {
		delete(s.storage, id)
	} else {
		s.storage[id] = value
	}
	return status
}

func (s *MemoryState) GetCommittedStorage(addr vm.Address, key vm.Key) vm.Word {
	return s.committed[storageSlot{addr, key}]
}

func (s *MemoryState) GetTransientStorage(addr vm.Address, key vm.Key) vm.Word {
	return s.transient[storageSlot{addr, key}]
}

func (s *MemoryState) SetTransientStorage(addr vm.Address, key vm.Key, value vm.Word) {
	s.transient[storageSlot{addr, key}] = value
}

func (s *MemoryState) SelfDestruct(addr vm.Address, beneficiary vm.Address) bool {
	if _, destructed := s.selfDestructed[addr]; destructed {
		return false
	}
	s.selfDestructed[addr] = struct{}{}
	if addr != beneficiary {
		s.SetBalance(beneficiary, vm.Add(s.GetBalance(beneficiary), s.GetBalance(addr)))
	}
	s.SetBalance(addr, vm.Value{})
	return true
}

func (s *MemoryState) CreateSnapshot() vm.Snapshot {
	s.undoStack = append(s.undoStack, memoryCheckpoint{
		balances:       cloneMap(s.balances),
		nonces:         cloneMap(s.nonces),
		codes:          cloneMap(s.codes),
		storage:        cloneMap(s.storage),
		transient:      cloneMap(s.transient),
		selfDestructed: cloneMap(s.selfDestructed),
		numLogs:        len(s.logs),
	})
	return vm.Snapshot(len(s.undoStack) - 1)
}

func (s *MemoryState) RestoreSnapshot(snapshot vm.Snapshot) {
	if int(snapshot) < 0 || int(snapshot) >= len(s.undoStack) {
		return
	}
	checkpoint := s.undoStack[snapshot]
	s.balances = checkpoint.balances
	s.nonces = checkpoint.nonces
	s.codes = checkpoint.codes
	s.storage = checkpoint.storage
	s.transient = checkpoint.transient
	s.selfDestructed = checkpoint.selfDestructed
	s.logs = s.logs[:checkpoint.numLogs]
	s.undoStack = s.undoStack[:snapshot]
}

func (s *MemoryState) AccessAccount(addr vm.Address) vm.AccessStatus {
	_, warm := s.warmAccounts[addr]
	s.warmAccounts[addr] = struct{}{}
	if warm {
		return vm.WarmAccess
	}
	return vm.ColdAccess
}

func (s *MemoryState) AccessStorage(addr vm.Address, key vm.Key) vm.AccessStatus {
	id := storageSlot{addr, key}
	_, warm := s.warmSlots[id]
	s.warmSlots[id] = struct{}{}
	if warm {
		return vm.WarmAccess
	}
	return vm.ColdAccess
}

func (s *MemoryState) EmitLog(log vm.Log) {
	s.logs = append(s.logs, log)
}

func (s *MemoryState) GetLogs() []vm.Log {
	return s.logs
}

func (s *MemoryState) GetBlockHash(number int64) vm.Hash {
	return s.blockHashes[number]
}

func (s *MemoryState) IsAddressInAccessList(addr vm.Address) bool {
	_, warm := s.warmAccounts[addr]
	return warm
}

func (s *MemoryState) IsSlotInAccessList(addr vm.Address, key vm.Key) (addressPresent, slotPresent bool) {
	_, addressPresent = s.warmAccounts[addr]
	_, slotPresent = s.warmSlots[storageSlot{addr, key}]
	return addressPresent, slotPresent
}

func (s *MemoryState) HasSelfDestructed(addr vm.Address) bool {
	_, destructed := s.selfDestructed[addr]
	return destructed
}
