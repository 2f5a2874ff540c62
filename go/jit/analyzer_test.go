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
	"errors"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

func newTestAnalyzer(t *testing.T, maxCodeSize int) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(maxCodeSize, &Metrics{})
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	return a
}

func TestAnalyzer_BasicBlockBoundaries(t *testing.T) {
	tests := map[string]struct {
		code   []byte
		blocks []BasicBlock
	}{
		"single block": {
			[]byte{byte(op.PUSH1), 0x00, byte(op.STOP)},
			[]BasicBlock{{0, 3}},
		},
		"blocks open at jumpdest": {
			[]byte{byte(op.JUMPDEST), byte(op.STOP), byte(op.JUMPDEST), byte(op.STOP)},
			[]BasicBlock{{0, 2}, {2, 4}},
		},
		"jumpdest splits running block": {
			[]byte{byte(op.ADD), byte(op.JUMPDEST), byte(op.ADD), byte(op.STOP)},
			[]BasicBlock{{0, 1}, {1, 4}},
		},
		"terminator bytes in push data are skipped": {
			[]byte{byte(op.PUSH2), byte(op.STOP), byte(op.JUMPDEST), byte(op.STOP)},
			[]BasicBlock{{0, 4}},
		},
		"unreachable tail is no block": {
			[]byte{byte(op.STOP), byte(op.ADD), byte(op.ADD)},
			[]BasicBlock{{0, 1}},
		},
		"code without terminator": {
			[]byte{byte(op.PUSH1), 0x01, byte(op.ADD)},
			[]BasicBlock{{0, 3}},
		},
		"all terminators close": {
			[]byte{
				byte(op.JUMP),
				byte(op.JUMPDEST), byte(op.JUMPI),
				byte(op.JUMPDEST), byte(op.RETURN),
				byte(op.JUMPDEST), byte(op.REVERT),
				byte(op.JUMPDEST), byte(op.SELFDESTRUCT),
				byte(op.JUMPDEST), byte(op.INVALID),
			},
			[]BasicBlock{{0, 1}, {1, 3}, {3, 5}, {5, 7}, {7, 9}, {9, 11}},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			a := newTestAnalyzer(t, defaultMaxBytecodeSize)
			analyzed, err := a.Analyze(test.code, testHash(test.code), vm.R13_Cancun)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(analyzed.Blocks, test.blocks) {
				t.Errorf("wrong blocks, wanted %v, got %v", test.blocks, analyzed.Blocks)
			}
		})
	}
}

func TestAnalyzer_DetectsExternalCalls(t *testing.T) {
	calls := []op.OpCode{op.CALL, op.CALLCODE, op.DELEGATECALL, op.STATICCALL, op.CREATE, op.CREATE2}
	for _, callOp := range calls {
		t.Run(callOp.String(), func(t *testing.T) {
			a := newTestAnalyzer(t, defaultMaxBytecodeSize)
			code := []byte{byte(callOp), byte(op.STOP)}
			analyzed, err := a.Analyze(code, testHash(code), vm.R13_Cancun)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !analyzed.HasExternalCalls {
				t.Errorf("%v should be detected as external call", callOp)
			}
		})
	}

	a := newTestAnalyzer(t, defaultMaxBytecodeSize)
	code := []byte{byte(op.PUSH1), byte(op.CALL), byte(op.STOP)}
	analyzed, err := a.Analyze(code, testHash(code), vm.R13_Cancun)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analyzed.HasExternalCalls {
		t.Errorf("a CALL byte in push data is not an external call")
	}
}

func TestAnalyzer_OversizedCodeIsRejectedAndRemembered(t *testing.T) {
	metrics := &Metrics{}
	a, err := NewAnalyzer(16, metrics)
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	code := make([]byte, 17)
	hash := testHash(code)

	if _, err := a.Analyze(code, hash, vm.R13_Cancun); !errors.Is(err, ErrBytecodeTooLarge) {
		t.Fatalf("expected size rejection, got %v", err)
	}
	if !a.IsKnownOversized(hash) {
		t.Errorf("oversized hash should be remembered")
	}

	// The negative cache short-circuits by hash, without rescanning.
	if _, err := a.Analyze(nil, hash, vm.R13_Cancun); !errors.Is(err, ErrBytecodeTooLarge) {
		t.Fatalf("expected negative cache hit, got %v", err)
	}
	if got := metrics.OversizedRejections.Load(); got != 2 {
		t.Errorf("expected 2 rejections recorded, got %d", got)
	}
}
