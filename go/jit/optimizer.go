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

import (
	"bytes"

	"github.com/holiman/uint256"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

// Optimize rewrites the analyzed code into an equally long code with
// constant push sequences folded. Folding happens inside basic blocks only,
// so no jump target ever moves:
//
//	PUSHa x; PUSHb y; OP  ->  PUSHn (x OP y)
//	PUSHa x; UNARY        ->  PUSHn (UNARY x)
//
// The replacement push spans exactly the bytes of the replaced sequence,
// with the constant right-aligned in its data and leading zeros as padding.
// A fold is skipped when the span cannot encode the constant. The input is
// never mutated.
func Optimize(analyzed *AnalyzedCode) vm.Code {
	out := vm.Code(bytes.Clone(analyzed.Code))
	for _, block := range analyzed.Blocks {
		optimizeBlock(out, block)
	}
	return out
}

func optimizeBlock(code vm.Code, block BasicBlock) {
	for i := block.Start; i < block.End; {
		cur := op.OpCode(code[i])
		if !cur.IsPush() || i+cur.Width() > block.End {
			i += cur.Width()
			continue
		}
		if tryFold(code, i, block.End) {
			// The folded constant may combine with the next operation,
			// so the same position is inspected again.
			continue
		}
		i += cur.Width()
	}
}

// tryFold attempts a constant fold for the push instruction at position i,
// reporting whether the code was rewritten.
func tryFold(code vm.Code, i, end int) bool {
	first := op.OpCode(code[i])
	x := readPushData(code, i)
	j := i + first.Width()
	if j >= end {
		return false
	}

	next := op.OpCode(code[j])
	if result, ok := foldUnary(next, x); ok {
		return writeFoldedPush(code, i, j+1, result)
	}

	if !next.IsPush() || j+next.Width() >= end {
		return false
	}
	y := readPushData(code, j)
	k := j + next.Width()
	if result, ok := foldBinary(op.OpCode(code[k]), x, y); ok {
		return writeFoldedPush(code, i, k+1, result)
	}
	return false
}

func readPushData(code vm.Code, pos int) *uint256.Int {
	size := op.OpCode(code[pos]).PushDataSize()
	return new(uint256.Int).SetBytes(code[pos+1 : pos+1+size])
}

// writeFoldedPush replaces the bytes [start, end) with a single push of the
// given value sized to fill the span exactly, reporting whether the span can
// encode it.
func writeFoldedPush(code vm.Code, start, end int, value *uint256.Int) bool {
	dataSize := end - start - 1
	if dataSize < 1 || dataSize > 32 {
		return false
	}
	if (value.BitLen()+7)/8 > dataSize {
		return false
	}
	code[start] = byte(op.PushFor(dataSize))
	data := value.Bytes32()
	copy(code[start+1:end], data[32-dataSize:])
	return true
}

// foldUnary evaluates a unary operation on a constant. The supported set is
// restricted to operations with static gas costs.
func foldUnary(opcode op.OpCode, x *uint256.Int) (*uint256.Int, bool) {
	z := new(uint256.Int)
	switch opcode {
	case op.ISZERO:
		setBoolWord(z, x.IsZero())
	case op.NOT:
		z.Not(x)
	default:
		return nil, false
	}
	return z, true
}

// foldBinary evaluates a binary operation on two constants, x pushed first
// (the deeper operand) and y pushed second (the stack top). EXP is excluded
// since its gas cost depends on the operand bytes.
func foldBinary(opcode op.OpCode, x, y *uint256.Int) (*uint256.Int, bool) {
	z := new(uint256.Int)
	switch opcode {
	case op.ADD:
		z.Add(y, x)
	case op.SUB:
		z.Sub(y, x)
	case op.MUL:
		z.Mul(y, x)
	case op.DIV:
		z.Div(y, x)
	case op.SDIV:
		z.SDiv(y, x)
	case op.MOD:
		z.Mod(y, x)
	case op.SMOD:
		z.SMod(y, x)
	case op.SIGNEXTEND:
		z.ExtendSign(x, y)
	case op.LT:
		setBoolWord(z, y.Lt(x))
	case op.GT:
		setBoolWord(z, y.Gt(x))
	case op.SLT:
		setBoolWord(z, y.Slt(x))
	case op.SGT:
		setBoolWord(z, y.Sgt(x))
	case op.EQ:
		setBoolWord(z, y.Eq(x))
	case op.AND:
		z.And(y, x)
	case op.OR:
		z.Or(y, x)
	case op.XOR:
		z.Xor(y, x)
	case op.BYTE:
		z.Set(x)
		z.Byte(y)
	case op.SHL:
		if y.GtUint64(255) {
			z.Clear()
		} else {
			z.Lsh(x, uint(y.Uint64()))
		}
	case op.SHR:
		if y.GtUint64(255) {
			z.Clear()
		} else {
			z.Rsh(x, uint(y.Uint64()))
		}
	case op.SAR:
		if y.GtUint64(255) {
			if x.Sign() >= 0 {
				z.Clear()
			} else {
				z.SetAllOne()
			}
		} else {
			z.SRsh(x, uint(y.Uint64()))
		}
	default:
		return nil, false
	}
	return z, true
}

func setBoolWord(z *uint256.Int, value bool) {
	if value {
		z.SetOne()
	} else {
		z.Clear()
	}
}
