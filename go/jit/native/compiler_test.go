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
	"errors"
	"testing"

	"github.com/tokamak-network/ethrex-sub001/go/jit"
	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

func analyzeForTest(t *testing.T, code []byte, revision vm.Revision) *jit.AnalyzedCode {
	t.Helper()
	analyzer, err := jit.NewAnalyzer(24576, &jit.Metrics{})
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	analyzed, err := analyzer.Analyze(code, keccak256(code), revision)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	return analyzed
}

func compileForTest(t *testing.T, code []byte, revision vm.Revision) *Program {
	t.Helper()
	analyzed := analyzeForTest(t, code, revision)
	program, err := Compile(analyzed, jit.Optimize(analyzed))
	if err != nil {
		t.Fatalf("compilation failed: %v", err)
	}
	return program
}

func TestCompiler_FoldedSpanChargesTheReplacedSequence(t *testing.T) {
	code := []byte{
		byte(op.PUSH1), 0x02,
		byte(op.PUSH1), 0x03,
		byte(op.ADD),
		byte(op.STOP),
	}
	program := compileForTest(t, code, vm.R13_Cancun)

	if got := len(program.instructions); got != 2 {
		t.Fatalf("expected 2 instructions after folding, got %d", got)
	}
	first := &program.instructions[0]
	if first.opcode != op.PUSH4 {
		t.Errorf("expected a folded PUSH4, got %v", first.opcode)
	}
	if !first.arg.Eq(first.arg.Clone().SetUint64(5)) {
		t.Errorf("wrong folded constant: %v", first.arg.Uint64())
	}
	// PUSH + PUSH + ADD of the original sequence
	if first.gas != 9 {
		t.Errorf("folded instruction should charge 9 gas, charges %d", first.gas)
	}
	if program.instructions[1].opcode != op.STOP {
		t.Errorf("unexpected trailing instruction %v", program.instructions[1].opcode)
	}
}

func TestCompiler_JumpTableResolvesDestinations(t *testing.T) {
	code := []byte{
		byte(op.PUSH1), 0x04,
		byte(op.JUMP),
		byte(op.INVALID),
		byte(op.JUMPDEST),
		byte(op.STOP),
	}
	program := compileForTest(t, code, vm.R13_Cancun)

	index, found := program.jumpTable[4]
	if !found {
		t.Fatalf("JUMPDEST at offset 4 missing from the jump table")
	}
	if program.instructions[index].opcode != op.JUMPDEST {
		t.Errorf("jump table points at %v", program.instructions[index].opcode)
	}
	if _, found := program.jumpTable[0]; found {
		t.Errorf("non-JUMPDEST offsets must not resolve")
	}
}

func TestCompiler_OriginalCodeIsRetained(t *testing.T) {
	code := []byte{
		byte(op.PUSH1), 0x02,
		byte(op.PUSH1), 0x03,
		byte(op.ADD),
		byte(op.STOP),
	}
	program := compileForTest(t, code, vm.R13_Cancun)
	if string(program.code) != string(code) {
		t.Errorf("CODECOPY must observe the pre-optimization code")
	}
}

func TestCompiler_FutureInstructionsTrapBelowTheirRevision(t *testing.T) {
	tests := map[string]struct {
		opcode   op.OpCode
		revision vm.Revision
		valid    bool
	}{
		"push0 before shanghai":  {op.PUSH0, vm.R10_London, false},
		"push0 since shanghai":   {op.PUSH0, vm.R12_Shanghai, true},
		"basefee before london":  {op.BASEFEE, vm.R09_Berlin, false},
		"tload before cancun":    {op.TLOAD, vm.R12_Shanghai, false},
		"mcopy since cancun":     {op.MCOPY, vm.R13_Cancun, true},
		"undefined instruction":  {op.OpCode(0x0C), vm.R13_Cancun, false},
		"invalid stays a trap":   {op.INVALID, vm.R13_Cancun, false},
		"selfdestruct is always": {op.SELFDESTRUCT, vm.R07_Istanbul, true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			program := compileForTest(t, []byte{byte(test.opcode)}, test.revision)
			got := program.instructions[0].opcode
			if test.valid && got == op.INVALID {
				t.Errorf("%v must be executable under %v", test.opcode, test.revision)
			}
			if !test.valid && got != op.INVALID {
				t.Errorf("%v must trap under %v, compiled to %v", test.opcode, test.revision, got)
			}
		})
	}
}

func TestCompiler_TruncatedPushImmediatesAreZeroPaddedLow(t *testing.T) {
	// PUSH4 with only two immediate bytes present: the missing low bytes
	// count as zero, so the constant is 0x01020000.
	code := []byte{byte(op.PUSH4), 0x01, 0x02}
	program := compileForTest(t, code, vm.R13_Cancun)
	want := program.instructions[0].arg.Clone().SetUint64(0x01020000)
	if !program.instructions[0].arg.Eq(want) {
		t.Errorf("wrong immediate, wanted 0x01020000, got %v", program.instructions[0].arg.Hex())
	}
}

func TestCompiler_RejectsMismatchedInputs(t *testing.T) {
	analyzed := analyzeForTest(t, []byte{byte(op.STOP)}, vm.R13_Cancun)

	if _, err := Compile(nil, nil); !errors.Is(err, jit.ErrCompilationFailed) {
		t.Errorf("missing analysis must fail compilation, got %v", err)
	}
	if _, err := Compile(analyzed, make(vm.Code, 2)); !errors.Is(err, jit.ErrCompilationFailed) {
		t.Errorf("a length mismatch must fail compilation, got %v", err)
	}
}

func TestCompiler_RejectsOversizedCode(t *testing.T) {
	analyzed := &jit.AnalyzedCode{
		Code:     make(vm.Code, maxCompilableCodeSize+1),
		Revision: vm.R13_Cancun,
	}
	optimized := make(vm.Code, maxCompilableCodeSize+1)
	if _, err := Compile(analyzed, optimized); !errors.Is(err, jit.ErrBytecodeTooLarge) {
		t.Errorf("oversized code must be rejected, got %v", err)
	}
}

func TestCompiler_ProgramReportsAnalysisFacts(t *testing.T) {
	code := []byte{
		byte(op.PUSH1), 0x00,
		byte(op.PUSH1), 0x00,
		byte(op.PUSH1), 0x00,
		byte(op.PUSH1), 0x00,
		byte(op.PUSH1), 0x00,
		byte(op.PUSH1), 0x00,
		byte(op.GAS),
		byte(op.CALL),
		byte(op.STOP),
	}
	program := compileForTest(t, code, vm.R13_Cancun)
	if !program.HasExternalCalls() {
		t.Errorf("program should report its external call")
	}
	if program.BlockCount() != 1 {
		t.Errorf("expected one basic block, got %d", program.BlockCount())
	}
	if program.Revision() != vm.R13_Cancun {
		t.Errorf("wrong revision: %v", program.Revision())
	}
	if program.CodeHash() != keccak256(code) {
		t.Errorf("wrong code hash")
	}
}
