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

import "github.com/tokamak-network/ethrex-sub001/go/vm"

const (
	errGasUintOverflow       = vm.ConstError("gas uint64 overflow")
	errInvalidJump           = vm.ConstError("invalid jump destination")
	errInvalidOpCode         = vm.ConstError("invalid instruction")
	errOutOfGas              = vm.ConstError("out of gas")
	errReturnDataOutOfBounds = vm.ConstError("return data out of bounds")
	errStackOverflow         = vm.ConstError("stack overflow")
	errStackUnderflow        = vm.ConstError("stack underflow")
	errWriteProtection       = vm.ConstError("write protection")
	errInitCodeTooLarge      = vm.ConstError("init code larger than allowed")
)
