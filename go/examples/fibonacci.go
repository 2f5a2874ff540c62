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

// GetFibExample returns an iterative Fibonacci contract. The argument is the
// sequence index, read as a raw 32-byte word from the call data. The tight
// loop of cheap arithmetic makes it the canonical hot-code workload.
func GetFibExample() Example {
	// stack discipline: [n, a, b] with fib pairs (a, b) advancing per round
	code := []byte{
		byte(op.PUSH1), 0x00,
		byte(op.CALLDATALOAD), // n
		byte(op.PUSH1), 0x00,  // a = 0
		byte(op.PUSH1), 0x01, // b = 1

		byte(op.JUMPDEST), // loop, offset 0x07
		byte(op.DUP3),
		byte(op.ISZERO),
		byte(op.PUSH1), 0x1c, // end
		byte(op.JUMPI),

		byte(op.DUP1), // (a, b) -> (b, a+b)
		byte(op.DUP3),
		byte(op.ADD),
		byte(op.SWAP2),
		byte(op.POP),
		byte(op.SWAP1),

		byte(op.SWAP2), // n -> n-1
		byte(op.PUSH1), 0x01,
		byte(op.SWAP1),
		byte(op.SUB),
		byte(op.SWAP2),

		byte(op.PUSH1), 0x07, // loop
		byte(op.JUMP),

		byte(op.JUMPDEST), // end, offset 0x1c
		byte(op.POP),
		byte(op.PUSH1), 0x00,
		byte(op.MSTORE), // output = a
		byte(op.PUSH1), 0x20,
		byte(op.PUSH1), 0x00,
		byte(op.RETURN),
	}

	return exampleSpec{
		Name:      "fibonacci",
		code:      code,
		reference: fibonacci,
	}.build()
}

func fibonacci(n int) int {
	a, b := 0, 1
	for ; n > 0; n-- {
		a, b = b, a+b
	}
	return a
}
