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

	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

// Invocable is the capability to execute a compiled program. Only Compile
// produces values of this type and only the executor in this package can
// consume them; the unexported accessor keeps any other representation of
// compiled code from entering the execution path.
type Invocable interface {
	program() *Program
}

// instruction is one pre-decoded element of a compiled program. Push
// immediates are materialized as 256-bit constants at compile time, and the
// static gas of the instruction is resolved against the revision the program
// was compiled for. Instructions emitted for a folded constant span carry
// the summed static gas of the instructions they replaced.
type instruction struct {
	opcode op.OpCode
	arg    uint256.Int
	gas    vm.Gas
}

// Program is a compiled contract. It is immutable after compilation and may
// be executed by any number of frames concurrently.
type Program struct {
	instructions []instruction

	// offsets maps instruction indices back to byte offsets in the code,
	// needed by the PC instruction.
	offsets []int32

	// jumpTable resolves valid jump destinations, keyed by byte offset.
	jumpTable map[int32]int32

	// code is the original, pre-optimization byte code. CODESIZE and
	// CODECOPY observe this code, never the optimized form.
	code vm.Code

	hash             vm.Hash
	revision         vm.Revision
	blockCount       int
	hasExternalCalls bool
}

func (p *Program) program() *Program { return p }

// Dispose releases the program. The instruction stream is garbage collected;
// disposal only exists to satisfy the cache's slot lifecycle.
func (p *Program) Dispose() {}

func (p *Program) CodeHash() vm.Hash      { return p.hash }
func (p *Program) Revision() vm.Revision  { return p.revision }
func (p *Program) BlockCount() int        { return p.blockCount }
func (p *Program) HasExternalCalls() bool { return p.hasExternalCalls }
