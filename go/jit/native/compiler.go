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
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tokamak-network/ethrex-sub001/go/jit"
	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

// maxCompilableCodeSize is the hard upper bound on compilable code,
// independent of the configured analyzer gate: twice the EIP-170 deployed
// code limit, the largest code any frame can run.
const maxCompilableCodeSize = 2 * 24576

// Compile lowers analyzed and optimized code into an executable Program.
// Instructions are emitted from the optimized byte stream while the gas of
// every emitted instruction is derived from the original byte stream, so a
// constant-folded span still charges the gas of the instruction sequence it
// replaced and observable gas is identical to an interpreted run.
//
// Compile never panics; any lowering fault is reported as an error wrapping
// jit.ErrCompilationFailed.
func Compile(analyzed *jit.AnalyzedCode, optimized vm.Code) (program *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			program = nil
			err = fmt.Errorf("%w: %v", jit.ErrCompilationFailed, r)
		}
	}()

	if analyzed == nil {
		return nil, fmt.Errorf("%w: missing analysis", jit.ErrCompilationFailed)
	}
	if len(analyzed.Code) > maxCompilableCodeSize {
		return nil, jit.ErrBytecodeTooLarge
	}
	if len(optimized) != len(analyzed.Code) {
		return nil, fmt.Errorf("%w: optimized code length %d does not match original length %d",
			jit.ErrCompilationFailed, len(optimized), len(analyzed.Code))
	}

	revision := analyzed.Revision
	prices := getStaticGasPrices(revision)

	instructions := make([]instruction, 0, len(optimized))
	offsets := make([]int32, 0, len(optimized))
	jumpTable := make(map[int32]int32)

	for i := 0; i < len(optimized); {
		cur := op.OpCode(optimized[i])
		width := cur.Width()

		instr := instruction{
			opcode: cur,
			gas:    originalSpanGas(analyzed.Code, i, width, prices),
		}
		if cur.IsPush() {
			decodeImmediate(optimized, i+1, cur.PushDataSize(), &instr.arg)
		}
		if cur == op.JUMPDEST {
			jumpTable[int32(i)] = int32(len(instructions))
		}
		// Unknown or not-yet-active instructions trap at runtime; they never
		// fail the compilation itself.
		if !isExecutable(cur, revision) {
			instr.opcode = op.INVALID
		}

		instructions = append(instructions, instr)
		offsets = append(offsets, int32(i))
		i += width
	}

	return &Program{
		instructions:     instructions,
		offsets:          offsets,
		jumpTable:        jumpTable,
		code:             analyzed.Code,
		hash:             analyzed.Hash,
		revision:         revision,
		blockCount:       len(analyzed.Blocks),
		hasExternalCalls: analyzed.HasExternalCalls,
	}, nil
}

// originalSpanGas sums the static gas of the original instructions occupying
// the byte range [start, start+width). For unmodified code this is a single
// instruction; for a folded span it is the replaced sequence.
func originalSpanGas(original vm.Code, start, width int, prices []vm.Gas) vm.Gas {
	gas := vm.Gas(0)
	for i := start; i < start+width && i < len(original); {
		cur := op.OpCode(original[i])
		gas += prices[cur]
		i += cur.Width()
	}
	return gas
}

// decodeImmediate reads the immediate data of a push instruction into target.
// Data truncated by the end of the code counts as zero bytes, matching the
// zero padding the interpreter applies.
func decodeImmediate(code vm.Code, start, size int, target *uint256.Int) {
	end := start + size
	if end > len(code) {
		end = len(code)
	}
	target.SetBytes(code[start:end])
	if missing := size - (end - start); missing > 0 {
		target.Lsh(target, uint(8*missing))
	}
}

// isExecutable reports whether the instruction is defined under the given
// revision. Anything else is compiled as an invalid-instruction trap.
func isExecutable(opcode op.OpCode, revision vm.Revision) bool {
	switch opcode {
	case op.PUSH0:
		return revision >= vm.R12_Shanghai
	case op.BASEFEE:
		return revision >= vm.R10_London
	case op.BLOBHASH, op.BLOBBASEFEE, op.TLOAD, op.TSTORE, op.MCOPY:
		return revision >= vm.R13_Cancun
	}
	return op.IsValid(opcode)
}
