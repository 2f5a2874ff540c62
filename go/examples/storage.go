// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package examples

import (
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

// GetStorageExample returns a storage-heavy contract: it writes the slots
// 1..n with their own index and returns n. Useful to exercise the host
// bridge and SSTORE pricing under both execution tiers.
func GetStorageExample() Example {
	code := []byte{
		byte(op.PUSH1), 0x00,
		byte(op.CALLDATALOAD), // n
		byte(op.DUP1),         // i = n

		byte(op.JUMPDEST), // loop, offset 0x04
		byte(op.DUP1),
		byte(op.ISZERO),
		byte(op.PUSH1), 0x14, // end
		byte(op.JUMPI),

		byte(op.DUP1), // storage[i] = i
		byte(op.DUP1),
		byte(op.SSTORE),

		byte(op.PUSH1), 0x01, // i -> i-1
		byte(op.SWAP1),
		byte(op.SUB),

		byte(op.PUSH1), 0x04, // loop
		byte(op.JUMP),

		byte(op.JUMPDEST), // end, offset 0x14
		byte(op.POP),
		byte(op.PUSH1), 0x00,
		byte(op.MSTORE), // output = n
		byte(op.PUSH1), 0x20,
		byte(op.PUSH1), 0x00,
		byte(op.RETURN),
	}

	return exampleSpec{
		Name:      "storage",
		code:      code,
		reference: func(n int) int { return n },
	}.build()
}
