// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package native

import (
	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// Host is the capability surface compiled code uses to observe and mutate
// the world state. It narrows a vm.RunContext to the operations a single
// frame may perform: every mutating capability verifies the static-call
// write protection before touching the context, so compiled code cannot
// escape the frame's restrictions regardless of what it computes.
type Host struct {
	context vm.RunContext
	static  bool
}

// NewHost wraps the given run context for an execution frame. The static
// flag permanently disables all mutating capabilities of this host.
func NewHost(context vm.RunContext, static bool) *Host {
	return &Host{context: context, static: static}
}

func (h *Host) getStorage(addr vm.Address, key vm.Key) vm.Word {
	return h.context.GetStorage(addr, key)
}

func (h *Host) getCommittedStorage(addr vm.Address, key vm.Key) vm.Word {
	return h.context.GetCommittedStorage(addr, key)
}

func (h *Host) setStorage(addr vm.Address, key vm.Key, value vm.Word) error {
	if h.static {
		return errWriteProtection
	}
	h.context.SetStorage(addr, key, value)
	return nil
}

func (h *Host) getTransientStorage(addr vm.Address, key vm.Key) vm.Word {
	return h.context.GetTransientStorage(addr, key)
}

func (h *Host) setTransientStorage(addr vm.Address, key vm.Key, value vm.Word) error {
	if h.static {
		return errWriteProtection
	}
	h.context.SetTransientStorage(addr, key, value)
	return nil
}

func (h *Host) getBalance(addr vm.Address) vm.Value {
	return h.context.GetBalance(addr)
}

func (h *Host) getCode(addr vm.Address) vm.Code {
	return h.context.GetCode(addr)
}

func (h *Host) getCodeHash(addr vm.Address) vm.Hash {
	return h.context.GetCodeHash(addr)
}

func (h *Host) getCodeSize(addr vm.Address) int {
	return h.context.GetCodeSize(addr)
}

func (h *Host) getBlockHash(number int64) vm.Hash {
	return h.context.GetBlockHash(number)
}

func (h *Host) accountExists(addr vm.Address) bool {
	return h.context.AccountExists(addr)
}

func (h *Host) hasSelfDestructed(addr vm.Address) bool {
	return h.context.HasSelfDestructed(addr)
}

func (h *Host) isAddressWarm(addr vm.Address) bool {
	return h.context.IsAddressInAccessList(addr)
}

func (h *Host) isSlotWarm(addr vm.Address, key vm.Key) (addressPresent, slotPresent bool) {
	return h.context.IsSlotInAccessList(addr, key)
}

func (h *Host) warmUpAccount(addr vm.Address) {
	h.context.AccessAccount(addr)
}

func (h *Host) warmUpSlot(addr vm.Address, key vm.Key) {
	h.context.AccessStorage(addr, key)
}

// accessStorage marks the slot warm and reports whether it already was.
func (h *Host) accessStorage(addr vm.Address, key vm.Key) vm.AccessStatus {
	return h.context.AccessStorage(addr, key)
}

func (h *Host) emitLog(log vm.Log) error {
	if h.static {
		return errWriteProtection
	}
	h.context.EmitLog(log)
	return nil
}

func (h *Host) selfDestruct(addr vm.Address, beneficiary vm.Address) error {
	if h.static {
		return errWriteProtection
	}
	h.context.SelfDestruct(addr, beneficiary)
	return nil
}
