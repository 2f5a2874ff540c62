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
	"sync"

	"github.com/holiman/uint256"

	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

const maxStackSize = 1024

// stack is the fixed-size 256-bit word stack of one execution frame. The
// per-instruction bounds are verified by the executor before any operation
// touches the stack, so the accessors themselves are unchecked.
//
// Instances are pooled; a frame obtains one with newStack and hands it back
// with release once the frame is done or captured state is discarded.
type stack struct {
	data [maxStackSize]uint256.Int
	top  int
}

func (s *stack) push(v *uint256.Int) {
	s.data[s.top] = *v
	s.top++
}

// pushEmpty grows the stack by one and returns the new top slot for in-place
// initialization.
func (s *stack) pushEmpty() *uint256.Int {
	s.top++
	return &s.data[s.top-1]
}

func (s *stack) pop() *uint256.Int {
	s.top--
	return &s.data[s.top]
}

func (s *stack) peek() *uint256.Int {
	return &s.data[s.top-1]
}

func (s *stack) peekN(n int) *uint256.Int {
	return &s.data[s.top-n-1]
}

func (s *stack) len() int {
	return s.top
}

func (s *stack) swap(n int) {
	s.data[s.top-n-1], s.data[s.top-1] = s.data[s.top-1], s.data[s.top-n-1]
}

func (s *stack) dup(n int) {
	s.data[s.top] = s.data[s.top-n-1]
	s.top++
}

var stackPool = sync.Pool{
	New: func() any {
		return &stack{}
	},
}

func newStack() *stack {
	return stackPool.Get().(*stack)
}

func (s *stack) release() {
	s.top = 0
	stackPool.Put(s)
}

// stackBounds are the minimum stack height an instruction requires and the
// maximum height at which it can still execute without overflowing.
type stackBounds struct {
	min int
	max int
}

var stackBoundsTable = func() [256]stackBounds {
	var table [256]stackBounds
	for i := 0; i < 256; i++ {
		pops, pushes := stackEffect(op.OpCode(i))
		table[i] = stackBounds{
			min: pops,
			max: maxStackSize - pushes + pops,
		}
	}
	return table
}()

// stackEffect reports how many elements an instruction pops and pushes.
func stackEffect(opcode op.OpCode) (pops, pushes int) {
	switch {
	case opcode.IsPush() || opcode == op.PUSH0:
		return 0, 1
	case op.DUP1 <= opcode && opcode <= op.DUP16:
		return int(opcode-op.DUP1) + 1, int(opcode-op.DUP1) + 2
	case op.SWAP1 <= opcode && opcode <= op.SWAP16:
		return int(opcode-op.SWAP1) + 2, int(opcode-op.SWAP1) + 2
	case op.LOG0 <= opcode && opcode <= op.LOG4:
		return int(opcode-op.LOG0) + 2, 0
	}
	switch opcode {
	case op.STOP, op.JUMPDEST, op.INVALID:
		return 0, 0
	case op.ADD, op.MUL, op.SUB, op.DIV, op.SDIV, op.MOD, op.SMOD, op.EXP,
		op.SIGNEXTEND, op.LT, op.GT, op.SLT, op.SGT, op.EQ, op.AND, op.OR,
		op.XOR, op.BYTE, op.SHL, op.SHR, op.SAR, op.SHA3:
		return 2, 1
	case op.ADDMOD, op.MULMOD:
		return 3, 1
	case op.ISZERO, op.NOT, op.BALANCE, op.CALLDATALOAD, op.EXTCODESIZE,
		op.EXTCODEHASH, op.BLOCKHASH, op.BLOBHASH, op.MLOAD, op.SLOAD,
		op.TLOAD:
		return 1, 1
	case op.ADDRESS, op.ORIGIN, op.CALLER, op.CALLVALUE, op.CALLDATASIZE,
		op.CODESIZE, op.GASPRICE, op.RETURNDATASIZE, op.COINBASE,
		op.TIMESTAMP, op.NUMBER, op.PREVRANDAO, op.GASLIMIT, op.CHAINID,
		op.SELFBALANCE, op.BASEFEE, op.BLOBBASEFEE, op.PC, op.MSIZE, op.GAS:
		return 0, 1
	case op.POP, op.JUMP, op.SELFDESTRUCT:
		return 1, 0
	case op.MSTORE, op.MSTORE8, op.SSTORE, op.JUMPI, op.TSTORE, op.RETURN,
		op.REVERT:
		return 2, 0
	case op.CALLDATACOPY, op.CODECOPY, op.RETURNDATACOPY, op.MCOPY:
		return 3, 0
	case op.EXTCODECOPY:
		return 4, 0
	case op.CREATE:
		return 3, 1
	case op.CREATE2:
		return 4, 1
	case op.CALL, op.CALLCODE:
		return 7, 1
	case op.DELEGATECALL, op.STATICCALL:
		return 6, 1
	}
	return 0, 0
}
