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
	"testing"

	"pgregory.net/rand"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

func optimizeForTest(t *testing.T, code []byte) vm.Code {
	t.Helper()
	a := newTestAnalyzer(t, defaultMaxBytecodeSize)
	analyzed, err := a.Analyze(code, testHash(code), vm.R13_Cancun)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	return Optimize(analyzed)
}

func TestOptimizer_FoldsConstantSequences(t *testing.T) {
	tests := map[string]struct {
		code []byte
		want []byte
	}{
		"add": {
			[]byte{byte(op.PUSH1), 0x02, byte(op.PUSH1), 0x03, byte(op.ADD), byte(op.STOP)},
			[]byte{byte(op.PUSH4), 0x00, 0x00, 0x00, 0x05, byte(op.STOP)},
		},
		"sub takes top minus next": {
			[]byte{byte(op.PUSH1), 0x03, byte(op.PUSH1), 0x0A, byte(op.SUB), byte(op.STOP)},
			[]byte{byte(op.PUSH4), 0x00, 0x00, 0x00, 0x07, byte(op.STOP)},
		},
		"division by zero yields zero": {
			[]byte{byte(op.PUSH1), 0x00, byte(op.PUSH1), 0x0A, byte(op.DIV), byte(op.STOP)},
			[]byte{byte(op.PUSH4), 0x00, 0x00, 0x00, 0x00, byte(op.STOP)},
		},
		"iszero of zero": {
			[]byte{byte(op.PUSH4), 0x00, 0x00, 0x00, 0x00, byte(op.ISZERO), byte(op.STOP)},
			[]byte{byte(op.PUSH5), 0x00, 0x00, 0x00, 0x00, 0x01, byte(op.STOP)},
		},
		"chained folds": {
			[]byte{
				byte(op.PUSH1), 0x01, byte(op.PUSH1), 0x02, byte(op.ADD),
				byte(op.PUSH1), 0x03, byte(op.ADD), byte(op.STOP),
			},
			[]byte{
				byte(op.PUSH7), 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x06,
				byte(op.STOP),
			},
		},
		"eq of equal values": {
			[]byte{byte(op.PUSH1), 0x2A, byte(op.PUSH1), 0x2A, byte(op.EQ), byte(op.STOP)},
			[]byte{byte(op.PUSH4), 0x00, 0x00, 0x00, 0x01, byte(op.STOP)},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := optimizeForTest(t, test.code)
			if !bytes.Equal(got, test.want) {
				t.Errorf("wrong result\nwanted %x\ngot    %x", test.want, got)
			}
		})
	}
}

func TestOptimizer_SkipsUnfoldableSequences(t *testing.T) {
	tests := map[string][]byte{
		"constant larger than span": {
			byte(op.PUSH1), 0x01, byte(op.PUSH1), 0xFF, byte(op.SHL), byte(op.STOP),
		},
		"exp has operand dependent gas": {
			byte(op.PUSH1), 0x02, byte(op.PUSH1), 0x03, byte(op.EXP), byte(op.STOP),
		},
		"jumpdest splits the pattern": {
			byte(op.PUSH1), 0x02, byte(op.JUMPDEST), byte(op.PUSH1), 0x03, byte(op.ADD), byte(op.STOP),
		},
		"not of small push needs 32 bytes": {
			byte(op.PUSH1), 0x01, byte(op.NOT), byte(op.STOP),
		},
		"truncated trailing push": {
			byte(op.PUSH1), 0x01, byte(op.PUSH4), 0x01, 0x02,
		},
		"single push": {
			byte(op.PUSH1), 0x01, byte(op.STOP),
		},
	}
	for name, code := range tests {
		t.Run(name, func(t *testing.T) {
			got := optimizeForTest(t, code)
			if !bytes.Equal(got, code) {
				t.Errorf("code should be unchanged\nwanted %x\ngot    %x", code, got)
			}
		})
	}
}

func TestOptimizer_PreservesLengthOnRandomCode(t *testing.T) {
	rnd := rand.New(12345)
	a := newTestAnalyzer(t, defaultMaxBytecodeSize)
	for i := 0; i < 200; i++ {
		code := make([]byte, rnd.Intn(200))
		rnd.Read(code)
		analyzed, err := a.Analyze(code, testHash(code), vm.R13_Cancun)
		if err != nil {
			t.Fatalf("analysis failed: %v", err)
		}
		optimized := Optimize(analyzed)
		if len(optimized) != len(code) {
			t.Fatalf("length changed from %d to %d for %x", len(code), len(optimized), code)
		}
		if !bytes.Equal(analyzed.Code, code) {
			t.Fatalf("optimizer mutated its input")
		}
	}
}

func TestOptimizer_NeverTouchesControlFlowTargets(t *testing.T) {
	// The folded span sits before a jump; the jump target byte and the
	// destination must be untouched.
	code := []byte{
		byte(op.PUSH1), 0x02,
		byte(op.PUSH1), 0x03,
		byte(op.ADD),
		byte(op.PUSH1), 0x08,
		byte(op.JUMP),
		byte(op.JUMPDEST),
		byte(op.STOP),
	}
	got := optimizeForTest(t, code)
	if len(got) != len(code) {
		t.Fatalf("length changed")
	}
	if got[6] != 0x08 || got[8] != byte(op.JUMPDEST) {
		t.Errorf("control flow bytes were modified: %x", got)
	}
}
