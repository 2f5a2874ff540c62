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
	"github.com/holiman/uint256"

	"github.com/tokamak-network/ethrex-sub001/go/jit"
	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

// The gas schedule below must price every instruction exactly like the
// baseline interpreter does; compiled and interpreted executions of the same
// code are required to consume identical gas.
const (
	callNewAccountGas    vm.Gas = 25000
	callValueTransferGas vm.Gas = 9000
	callStipend          vm.Gas = 2300

	coldSloadCost         vm.Gas = 2100
	coldAccountAccessCost vm.Gas = 2600
	warmStorageReadCost   vm.Gas = 100

	createBySelfdestructGas vm.Gas = 25000
	selfdestructGas         vm.Gas = 5000
	selfdestructRefundGas   vm.Gas = 24000

	sloadGasIstanbul   vm.Gas = 800
	sstoreSentryGas    vm.Gas = 2300
	sstoreSetGas       vm.Gas = 20000
	sstoreResetGas     vm.Gas = 5000
	sstoreClearsRefund vm.Gas = 15000
	// EIP-3529 (London) reduced the clearing refund.
	sstoreClearsRefundLondon vm.Gas = 4800

	initCodeWordGas    vm.Gas = 2
	create2HashWordGas vm.Gas = 6
	expByteGas         vm.Gas = 50
	sha3WordGas        vm.Gas = 6
	copyWordGas        vm.Gas = 3
	logDataGas         vm.Gas = 8

	maxInitCodeSize = 2 * 24576
)

var staticGasIstanbul = [256]vm.Gas{}
var staticGasBerlin = [256]vm.Gas{}

func init() {
	for i := 0; i < 256; i++ {
		staticGasIstanbul[i] = staticGasOf(op.OpCode(i))
	}
	staticGasBerlin = staticGasIstanbul
	// EIP-2929 replaces the flat state-access charges by warm base costs;
	// the cold surcharge is applied dynamically.
	staticGasBerlin[op.SLOAD] = 0
	for _, o := range []op.OpCode{
		op.BALANCE, op.EXTCODESIZE, op.EXTCODECOPY, op.EXTCODEHASH,
		op.CALL, op.CALLCODE, op.STATICCALL, op.DELEGATECALL,
	} {
		staticGasBerlin[o] = warmStorageReadCost
	}
}

func getStaticGasPrices(revision vm.Revision) []vm.Gas {
	if revision >= vm.R09_Berlin {
		return staticGasBerlin[:]
	}
	return staticGasIstanbul[:]
}

func staticGasOf(opcode op.OpCode) vm.Gas {
	switch {
	case opcode.IsPush(),
		op.DUP1 <= opcode && opcode <= op.DUP16,
		op.SWAP1 <= opcode && opcode <= op.SWAP16,
		op.LT <= opcode && opcode <= op.SAR:
		return 3
	case op.LOG0 <= opcode && opcode <= op.LOG4:
		return 375 + 375*vm.Gas(opcode-op.LOG0)
	}
	switch opcode {
	case op.ADD, op.SUB, op.CALLDATALOAD, op.CALLDATACOPY, op.CODECOPY,
		op.RETURNDATACOPY, op.MLOAD, op.MSTORE, op.MSTORE8, op.MCOPY,
		op.BLOBHASH:
		return 3
	case op.MUL, op.DIV, op.SDIV, op.MOD, op.SMOD, op.SIGNEXTEND,
		op.SELFBALANCE:
		return 5
	case op.ADDMOD, op.MULMOD, op.JUMP:
		return 8
	case op.EXP, op.JUMPI:
		return 10
	case op.SHA3:
		return 30
	case op.ADDRESS, op.ORIGIN, op.CALLER, op.CALLVALUE, op.CALLDATASIZE,
		op.CODESIZE, op.GASPRICE, op.RETURNDATASIZE, op.COINBASE,
		op.TIMESTAMP, op.NUMBER, op.PREVRANDAO, op.GASLIMIT, op.CHAINID,
		op.BASEFEE, op.BLOBBASEFEE, op.POP, op.PC, op.MSIZE, op.GAS,
		op.PUSH0:
		return 2
	case op.BALANCE, op.EXTCODESIZE, op.EXTCODECOPY, op.EXTCODEHASH,
		op.CALL, op.CALLCODE, op.STATICCALL, op.DELEGATECALL:
		return 700
	case op.BLOCKHASH:
		return 20
	case op.SLOAD:
		return sloadGasIstanbul
	case op.JUMPDEST:
		return 1
	case op.TLOAD, op.TSTORE:
		return 100
	case op.CREATE, op.CREATE2:
		return 32000
	}
	// SSTORE and SELFDESTRUCT are fully dynamically priced; terminators and
	// unknown instructions are free.
	return 0
}

// forwardedCallGas is the EIP-150 rule: all but 1/64th of the remaining gas,
// capped by the requested amount.
func forwardedCallGas(available vm.Gas, requested *uint256.Int) vm.Gas {
	if available < 0 {
		return 0
	}
	gas := available - available/64
	if !requested.IsUint64() || gas < vm.Gas(requested.Uint64()) {
		return gas
	}
	return vm.Gas(requested.Uint64())
}

// chargeColdAccount applies the EIP-2929 cold surcharge for the given address
// and marks it warm. Warm base costs are part of the static schedule.
func (f *frame) chargeColdAccount(address vm.Address) error {
	if f.program.revision >= vm.R09_Berlin {
		if !f.host.isAddressWarm(address) {
			if err := f.useGas(coldAccountAccessCost - warmStorageReadCost); err != nil {
				return err
			}
			f.host.warmUpAccount(address)
		}
	}
	return nil
}

// sstoreGas prices an SSTORE of value into the recipient's slot under the
// active revision, including the access surcharge and all refund movements.
// The caller still holds the operands on the stack; this only inspects state.
func (f *frame) sstoreGas(key vm.Key, value vm.Word) (vm.Gas, error) {
	if f.gas <= sstoreSentryGas {
		return 0, errOutOfGas
	}

	cost := vm.Gas(0)
	sloadGas := sloadGasIstanbul
	resetAdjustment := vm.Gas(0)
	clearingRefund := sstoreClearsRefund

	if f.program.revision >= vm.R09_Berlin {
		sloadGas = warmStorageReadCost
		resetAdjustment = coldSloadCost
		if addrPresent, slotPresent := f.host.isSlotWarm(f.recipient(), key); !slotPresent {
			if !addrPresent {
				return 0, jit.ErrExecutionFault
			}
			cost = coldSloadCost
			f.host.warmUpSlot(f.recipient(), key)
		}
	}
	if f.program.revision >= vm.R10_London {
		clearingRefund = sstoreClearsRefundLondon
	}

	zero := vm.Word{}
	current := f.host.getStorage(f.recipient(), key)
	if current == value { // noop
		return cost + sloadGas, nil
	}
	original := f.host.getCommittedStorage(f.recipient(), key)
	if original == current {
		if original == zero { // create slot
			return cost + sstoreSetGas, nil
		}
		if value == zero { // delete slot
			f.refund += clearingRefund
		}
		return cost + sstoreResetGas - resetAdjustment, nil
	}
	if original != zero {
		if current == zero { // recreate previously deleted slot
			f.refund -= clearingRefund
		} else if value == zero { // delete slot
			f.refund += clearingRefund
		}
	}
	if original == value {
		if original == zero { // restored to non-existent
			f.refund += sstoreSetGas - sloadGas
		} else { // restored to original value
			f.refund += (sstoreResetGas - resetAdjustment) - sloadGas
		}
	}
	return cost + sloadGas, nil // dirty update
}

// selfdestructGasCost prices a SELFDESTRUCT with the given beneficiary,
// including the pre-London refund.
func (f *frame) selfdestructGasCost(beneficiary vm.Address) vm.Gas {
	gas := selfdestructGas
	if f.program.revision >= vm.R09_Berlin {
		gas = 0
		if !f.host.isAddressWarm(beneficiary) {
			f.host.warmUpAccount(beneficiary)
			gas = coldAccountAccessCost
		}
		gas += selfdestructGas
	}
	if !f.host.accountExists(beneficiary) && f.host.getBalance(f.recipient()) != (vm.Value{}) {
		gas += createBySelfdestructGas
	}
	if f.program.revision < vm.R10_London {
		if !f.host.hasSelfDestructed(f.recipient()) {
			f.refund += selfdestructRefundGas
		}
	}
	return gas
}
