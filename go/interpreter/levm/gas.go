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
	"github.com/holiman/uint256"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

const (
	CallNewAccountGas    vm.Gas = 25000 // Paid for CALL when the destination address did not exist before.
	CallValueTransferGas vm.Gas = 9000  // Paid for CALL when the value transfer is non-zero.
	CallStipend          vm.Gas = 2300  // Free gas given at the beginning of a value-transferring call.

	ColdSloadCostEIP2929         vm.Gas = 2100 // Cost of a cold SLOAD after EIP-2929.
	ColdAccountAccessCostEIP2929 vm.Gas = 2600 // Cost of a cold account access after EIP-2929.
	WarmStorageReadCostEIP2929   vm.Gas = 100  // Cost of reading warm storage after EIP-2929.

	CreateBySelfdestructGas vm.Gas = 25000 // Charged when a selfdestruct beneficiary must be created.
	SelfdestructGasEIP150   vm.Gas = 5000  // Gas cost of SELFDESTRUCT post EIP-150.
	SelfdestructRefundGas   vm.Gas = 24000 // Refunded following a selfdestruct operation, removed in London.

	SloadGasEIP2200               vm.Gas = 800   // Cost of SLOAD after EIP-2200 (part of Istanbul).
	SstoreSentryGasEIP2200        vm.Gas = 2300  // Minimum gas required to be present for an SSTORE, not consumed.
	SstoreSetGasEIP2200           vm.Gas = 20000 // Once per SSTORE from clean zero to non-zero.
	SstoreResetGasEIP2200         vm.Gas = 5000  // Once per SSTORE from clean non-zero to something else.
	SstoreClearsRefundEIP2200     vm.Gas = 15000 // Refund for clearing an originally existing slot, pre-London.
	SstoreClearsRefundEIP3529     vm.Gas = 4800  // Refund for clearing a slot after EIP-3529 (London).
	InitCodeWordGasEIP3860        vm.Gas = 2     // Per-word charge for init code after EIP-3860 (Shanghai).
	MaxInitCodeSizeEIP3860               = 2 * MaxCodeSize
	Create2HashWordGas            vm.Gas = 6 // Per-word charge for hashing CREATE2 init code.
	CreateGasCostPerDeployedByte  vm.Gas = 200
	MaxCodeSize                          = 24576
)

const (
	errNotEnoughGasSentry      = vm.ConstError("not enough gas for sstore sentry")
	errAddressNotFoundInSstore = vm.ConstError("address was not present in access list during sstore op")
)

var staticGasPricesIstanbul = [256]vm.Gas{}
var staticGasPricesBerlin = [256]vm.Gas{}

func init() {
	for i := 0; i < 256; i++ {
		gp := getStaticGasPriceInternal(op.OpCode(i))
		staticGasPricesIstanbul[i] = gp
		staticGasPricesBerlin[i] = gp
	}
	// Static prices changed by EIP-2929: the dynamic cold/warm accounting
	// replaces the flat Istanbul charges.
	staticGasPricesBerlin[op.SLOAD] = 0
	staticGasPricesBerlin[op.BALANCE] = 100
	staticGasPricesBerlin[op.EXTCODESIZE] = 100
	staticGasPricesBerlin[op.EXTCODECOPY] = 100
	staticGasPricesBerlin[op.EXTCODEHASH] = 100
	staticGasPricesBerlin[op.CALL] = 100
	staticGasPricesBerlin[op.CALLCODE] = 100
	staticGasPricesBerlin[op.STATICCALL] = 100
	staticGasPricesBerlin[op.DELEGATECALL] = 100
}

func getStaticGasPrices(revision vm.Revision) []vm.Gas {
	if revision >= vm.R09_Berlin {
		return staticGasPricesBerlin[:]
	}
	return staticGasPricesIstanbul[:]
}

func getStaticGasPriceInternal(opcode op.OpCode) vm.Gas {
	if op.PUSH1 <= opcode && opcode <= op.PUSH32 {
		return 3
	}
	if op.DUP1 <= opcode && opcode <= op.DUP16 {
		return 3
	}
	if op.SWAP1 <= opcode && opcode <= op.SWAP16 {
		return 3
	}
	if op.LT <= opcode && opcode <= op.SAR {
		return 3
	}
	if op.LOG0 <= opcode && opcode <= op.LOG4 {
		return 375 + 375*vm.Gas(opcode-op.LOG0)
	}
	switch opcode {
	case op.ADD, op.SUB:
		return 3
	case op.MUL, op.DIV, op.SDIV, op.MOD, op.SMOD, op.SIGNEXTEND:
		return 5
	case op.ADDMOD, op.MULMOD:
		return 8
	case op.EXP:
		return 10
	case op.SHA3:
		return 30
	case op.ADDRESS, op.ORIGIN, op.CALLER, op.CALLVALUE, op.CALLDATASIZE,
		op.CODESIZE, op.GASPRICE, op.RETURNDATASIZE, op.COINBASE,
		op.TIMESTAMP, op.NUMBER, op.PREVRANDAO, op.GASLIMIT, op.CHAINID,
		op.BASEFEE, op.BLOBBASEFEE, op.POP, op.PC, op.MSIZE, op.GAS,
		op.PUSH0:
		return 2
	case op.CALLDATALOAD, op.CALLDATACOPY, op.CODECOPY, op.RETURNDATACOPY,
		op.MLOAD, op.MSTORE, op.MSTORE8, op.MCOPY, op.BLOBHASH:
		return 3
	case op.BALANCE, op.EXTCODESIZE, op.EXTCODECOPY, op.EXTCODEHASH,
		op.CALL, op.CALLCODE, op.STATICCALL, op.DELEGATECALL:
		return 700 // replaced by access-based pricing from Berlin on
	case op.SELFBALANCE:
		return 5
	case op.BLOCKHASH:
		return 20
	case op.SLOAD:
		return 800 // replaced by access-based pricing from Berlin on
	case op.SSTORE:
		return 0 // priced by gasSStore below
	case op.JUMP:
		return 8
	case op.JUMPI:
		return 10
	case op.JUMPDEST:
		return 1
	case op.TLOAD, op.TSTORE:
		return 100
	case op.CREATE, op.CREATE2:
		return 32000
	case op.SELFDESTRUCT:
		return 0 // priced by gasSelfdestruct below
	case op.STOP, op.RETURN, op.REVERT:
		return 0
	}
	return 0
}

// callGas computes the gas forwarded to a nested call: all but 1/64th of the
// remaining gas after the base costs, capped by the requested amount
// (EIP-150).
func callGas(availableGas, base vm.Gas, callCost *uint256.Int) vm.Gas {
	availableGas = availableGas - base
	if availableGas < 0 {
		return base
	}
	gas := availableGas - availableGas/64
	if !callCost.IsUint64() || (gas < vm.Gas(callCost.Uint64())) {
		return gas
	}
	return vm.Gas(callCost.Uint64())
}

func gasSStore(c *context) (vm.Gas, error) {
	if c.isAtLeast(vm.R09_Berlin) {
		return gasSStoreEIP2929(c)
	}
	return gasSStoreEIP2200(c)
}

// gasSStoreEIP2200 implements the Istanbul SSTORE pricing:
//  0. If gas left is less than or equal to the 2300 sentry, fail.
//  1. No-op writes cost SLOAD_GAS.
//  2. Clean slots cost SSTORE_SET_GAS (from zero) or SSTORE_RESET_GAS,
//     with a clearing refund when deleting.
//  3. Dirty slots cost SLOAD_GAS, with refunds adjusted for re-creation,
//     deletion, and restoration of the original value.
func gasSStoreEIP2200(c *context) (vm.Gas, error) {
	if c.gas <= SstoreSentryGasEIP2200 {
		return 0, errNotEnoughGasSentry
	}
	var (
		zero    = vm.Word{}
		key     = vm.Key(c.stack.peek().Bytes32())
		value   = vm.Word(c.stack.peekN(1).Bytes32())
		current = c.context.GetStorage(c.params.Recipient, key)
	)

	if current == value { // noop (1)
		return SloadGasEIP2200, nil
	}
	original := c.context.GetCommittedStorage(c.params.Recipient, key)
	if original == current {
		if original == zero { // create slot (2.1.1)
			return SstoreSetGasEIP2200, nil
		}
		if value == zero { // delete slot (2.1.2b)
			c.refund += SstoreClearsRefundEIP2200
		}
		return SstoreResetGasEIP2200, nil // write existing slot (2.1.2)
	}
	if original != zero {
		if current == zero { // recreate slot (2.2.1.1)
			c.refund -= SstoreClearsRefundEIP2200
		} else if value == zero { // delete slot (2.2.1.2)
			c.refund += SstoreClearsRefundEIP2200
		}
	}
	if original == value {
		if original == zero { // reset to original non-existent slot (2.2.2.1)
			c.refund += SstoreSetGasEIP2200 - SloadGasEIP2200
		} else { // reset to original existing slot (2.2.2.2)
			c.refund += SstoreResetGasEIP2200 - SloadGasEIP2200
		}
	}
	return SloadGasEIP2200, nil // dirty update (2.2)
}

// gasSStoreEIP2929 implements the Berlin and later SSTORE pricing, with the
// London clearing-refund reduction of EIP-3529.
func gasSStoreEIP2929(c *context) (vm.Gas, error) {
	clearingRefund := SstoreClearsRefundEIP2200
	if c.isAtLeast(vm.R10_London) {
		clearingRefund = SstoreClearsRefundEIP3529
	}

	if c.gas <= SstoreSentryGasEIP2200 {
		return 0, errNotEnoughGasSentry
	}
	var (
		zero    = vm.Word{}
		key     = vm.Key(c.stack.peek().Bytes32())
		value   = vm.Word(c.stack.peekN(1).Bytes32())
		current = c.context.GetStorage(c.params.Recipient, key)
		cost    = vm.Gas(0)
	)
	if addrPresent, slotPresent := c.context.IsSlotInAccessList(c.params.Recipient, key); !slotPresent {
		if !addrPresent {
			return 0, errAddressNotFoundInSstore
		}
		cost = ColdSloadCostEIP2929
		// If the caller cannot afford the cost, this change is rolled back
		// with the rest of the frame.
		c.context.AccessStorage(c.params.Recipient, key)
	}

	if current == value { // noop (1)
		return cost + WarmStorageReadCostEIP2929, nil
	}
	original := c.context.GetCommittedStorage(c.params.Recipient, key)
	if original == current {
		if original == zero { // create slot (2.1.1)
			return cost + SstoreSetGasEIP2200, nil
		}
		if value == zero { // delete slot (2.1.2b)
			c.refund += clearingRefund
		}
		return cost + SstoreResetGasEIP2200 - ColdSloadCostEIP2929, nil // write existing slot (2.1.2)
	}
	if original != zero {
		if current == zero { // recreate slot (2.2.1.1)
			c.refund -= clearingRefund
		} else if value == zero { // delete slot (2.2.1.2)
			c.refund += clearingRefund
		}
	}
	if original == value {
		if original == zero { // reset to original non-existent slot (2.2.2.1)
			c.refund += SstoreSetGasEIP2200 - WarmStorageReadCostEIP2929
		} else { // reset to original existing slot (2.2.2.2)
			c.refund += (SstoreResetGasEIP2200 - ColdSloadCostEIP2929) - WarmStorageReadCostEIP2929
		}
	}
	return cost + WarmStorageReadCostEIP2929, nil // dirty update (2.2)
}

// gasEip2929AccountCheck charges the extra cold-access cost for the given
// address and marks it warm. The warm cost is part of the static price.
func gasEip2929AccountCheck(c *context, address vm.Address) error {
	if c.isAtLeast(vm.R09_Berlin) {
		if !c.context.IsAddressInAccessList(address) {
			if err := c.useGas(ColdAccountAccessCostEIP2929 - WarmStorageReadCostEIP2929); err != nil {
				return err
			}
			c.context.AccessAccount(address)
		}
	}
	return nil
}

// addressInAccessList charges for a cold access of the call target sitting
// at stack position 1 and reports whether the access was warm and what the
// cold surcharge was.
func addressInAccessList(c *context) (warmAccess bool, coldCost vm.Gas, err error) {
	warmAccess = true
	if c.isAtLeast(vm.R09_Berlin) {
		addr := vm.Address(c.stack.peekN(1).Bytes20())
		warmAccess = c.context.IsAddressInAccessList(addr)
		// The warm cost of 100 is already charged as the static price, so
		// only the difference to the cold cost remains.
		coldCost = ColdAccountAccessCostEIP2929 - WarmStorageReadCostEIP2929
		if !warmAccess {
			c.context.AccessAccount(addr)
			// Charge the difference here already to correctly compute the
			// available gas for the nested call.
			if err := c.useGas(coldCost); err != nil {
				return false, 0, err
			}
		}
	}
	return warmAccess, coldCost, nil
}

func gasSelfdestruct(c *context) vm.Gas {
	gas := SelfdestructGasEIP150
	address := vm.Address(c.stack.peek().Bytes20())

	if c.isAtLeast(vm.R09_Berlin) {
		gas = 0
		if !c.context.IsAddressInAccessList(address) {
			// If the caller cannot afford the cost, this change is rolled
			// back with the rest of the frame.
			c.context.AccessAccount(address)
			gas = ColdAccountAccessCostEIP2929
		}
		gas += SelfdestructGasEIP150
	}

	// The beneficiary account must be created if it does not exist and a
	// balance is transferred to it.
	if !c.context.AccountExists(address) && c.context.GetBalance(c.params.Recipient) != (vm.Value{}) {
		gas += CreateBySelfdestructGas
	}

	// The refund was removed in London by EIP-3529.
	if !c.isAtLeast(vm.R10_London) {
		if !c.context.HasSelfDestructed(c.params.Recipient) {
			c.refund += SelfdestructRefundGas
		}
	}
	return gas
}
