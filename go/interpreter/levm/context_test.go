// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package levm

import (
	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// slot identifies a storage location of an account.
type slot struct {
	addr vm.Address
	key  vm.Key
}

// testContext is an in-memory vm.RunContext for tests. Nested calls are
// routed to the configurable callHandler.
type testContext struct {
	balances       map[vm.Address]vm.Value
	nonces         map[vm.Address]uint64
	code           map[vm.Address][]byte
	storage        map[slot]vm.Word
	committed      map[slot]vm.Word
	transient      map[slot]vm.Word
	warmAccounts   map[vm.Address]bool
	warmSlots      map[slot]bool
	logs           []vm.Log
	selfDestructed map[vm.Address]bool
	snapshots      int
	restored       []vm.Snapshot
	blockHashes    map[int64]vm.Hash
	callHandler    func(vm.CallKind, vm.CallParameters) (vm.CallResult, error)
}

func newTestContext() *testContext {
	return &testContext{
		balances:       map[vm.Address]vm.Value{},
		nonces:         map[vm.Address]uint64{},
		code:           map[vm.Address][]byte{},
		storage:        map[slot]vm.Word{},
		committed:      map[slot]vm.Word{},
		transient:      map[slot]vm.Word{},
		warmAccounts:   map[vm.Address]bool{},
		warmSlots:      map[slot]bool{},
		selfDestructed: map[vm.Address]bool{},
		blockHashes:    map[int64]vm.Hash{},
	}
}

func (c *testContext) AccountExists(addr vm.Address) bool {
	_, exists := c.balances[addr]
	return exists
}

func (c *testContext) GetBalance(addr vm.Address) vm.Value {
	return c.balances[addr]
}

func (c *testContext) SetBalance(addr vm.Address, balance vm.Value) {
	c.balances[addr] = balance
}

func (c *testContext) GetNonce(addr vm.Address) uint64 {
	return c.nonces[addr]
}

func (c *testContext) SetNonce(addr vm.Address, nonce uint64) {
	c.nonces[addr] = nonce
}

func (c *testContext) GetCode(addr vm.Address) vm.Code {
	return c.code[addr]
}

func (c *testContext) GetCodeHash(addr vm.Address) vm.Hash {
	return Keccak256(c.code[addr])
}

func (c *testContext) GetCodeSize(addr vm.Address) int {
	return len(c.code[addr])
}

func (c *testContext) SetCode(addr vm.Address, code vm.Code) {
	c.code[addr] = code
}

func (c *testContext) GetStorage(addr vm.Address, key vm.Key) vm.Word {
	return c.storage[slot{addr, key}]
}

func (c *testContext) SetStorage(addr vm.Address, key vm.Key, value vm.Word) vm.StorageStatus {
	s := slot{addr, key}
	status := vm.GetStorageStatus(c.committed[s], c.storage[s], value)
	c.storage[s] = value
	return status
}

func (c *testContext) SelfDestruct(addr vm.Address, beneficiary vm.Address) bool {
	if c.selfDestructed[addr] {
		return false
	}
	c.selfDestructed[addr] = true
	return true
}

func (c *testContext) CreateSnapshot() vm.Snapshot {
	c.snapshots++
	return vm.Snapshot(c.snapshots)
}

func (c *testContext) RestoreSnapshot(s vm.Snapshot) {
	c.restored = append(c.restored, s)
}

func (c *testContext) GetTransientStorage(addr vm.Address, key vm.Key) vm.Word {
	return c.transient[slot{addr, key}]
}

func (c *testContext) SetTransientStorage(addr vm.Address, key vm.Key, value vm.Word) {
	c.transient[slot{addr, key}] = value
}

func (c *testContext) AccessAccount(addr vm.Address) vm.AccessStatus {
	if c.warmAccounts[addr] {
		return vm.WarmAccess
	}
	c.warmAccounts[addr] = true
	return vm.ColdAccess
}

func (c *testContext) AccessStorage(addr vm.Address, key vm.Key) vm.AccessStatus {
	s := slot{addr, key}
	if c.warmSlots[s] {
		return vm.WarmAccess
	}
	c.warmSlots[s] = true
	c.warmAccounts[addr] = true
	return vm.ColdAccess
}

func (c *testContext) EmitLog(log vm.Log) {
	c.logs = append(c.logs, log)
}

func (c *testContext) GetLogs() []vm.Log {
	return c.logs
}

func (c *testContext) GetBlockHash(number int64) vm.Hash {
	return c.blockHashes[number]
}

func (c *testContext) GetCommittedStorage(addr vm.Address, key vm.Key) vm.Word {
	return c.committed[slot{addr, key}]
}

func (c *testContext) IsAddressInAccessList(addr vm.Address) bool {
	return c.warmAccounts[addr]
}

func (c *testContext) IsSlotInAccessList(addr vm.Address, key vm.Key) (bool, bool) {
	return c.warmAccounts[addr], c.warmSlots[slot{addr, key}]
}

func (c *testContext) HasSelfDestructed(addr vm.Address) bool {
	return c.selfDestructed[addr]
}

func (c *testContext) Call(kind vm.CallKind, parameters vm.CallParameters) (vm.CallResult, error) {
	if c.callHandler == nil {
		return vm.CallResult{Success: true}, nil
	}
	return c.callHandler(kind, parameters)
}
