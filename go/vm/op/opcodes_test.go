// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package op

import "testing"

func TestOpCode_WidthAndPushClassification(t *testing.T) {
	for i := 0; i < 32; i++ {
		push := PUSH1 + OpCode(i)
		if !push.IsPush() {
			t.Errorf("%v should be classified as push", push)
		}
		if got, want := push.PushDataSize(), i+1; got != want {
			t.Errorf("%v: wanted data size %d, got %d", push, want, got)
		}
		if got, want := push.Width(), i+2; got != want {
			t.Errorf("%v: wanted width %d, got %d", push, want, got)
		}
		if got := PushFor(i + 1); got != push {
			t.Errorf("PushFor(%d): wanted %v, got %v", i+1, push, got)
		}
	}
	if PUSH0.IsPush() {
		t.Errorf("PUSH0 carries no immediate data and is not a data push")
	}
	if ADD.Width() != 1 || ADD.PushDataSize() != 0 {
		t.Errorf("non-push instructions have width 1 and no data")
	}
}

func TestOpCode_BlockTerminators(t *testing.T) {
	terminators := []OpCode{STOP, JUMP, JUMPI, RETURN, REVERT, INVALID, SELFDESTRUCT}
	for _, op := range terminators {
		if !op.TerminatesBlock() {
			t.Errorf("%v should terminate a basic block", op)
		}
	}
	for _, op := range []OpCode{ADD, JUMPDEST, PUSH1, CALL, SSTORE} {
		if op.TerminatesBlock() {
			t.Errorf("%v should not terminate a basic block", op)
		}
	}
}

func TestOpCode_ExternalCalls(t *testing.T) {
	external := []OpCode{CALL, CALLCODE, DELEGATECALL, STATICCALL, CREATE, CREATE2}
	for _, op := range external {
		if !op.IsExternalCall() {
			t.Errorf("%v should be classified as external call", op)
		}
	}
	for _, op := range []OpCode{SELFDESTRUCT, SLOAD, RETURN, BALANCE} {
		if op.IsExternalCall() {
			t.Errorf("%v should not be classified as external call", op)
		}
	}
}

func TestOpCode_NamesAreUniqueForValidOps(t *testing.T) {
	seen := map[string]OpCode{}
	for i := 0; i < 256; i++ {
		op := OpCode(i)
		if !IsValid(op) {
			continue
		}
		name := op.String()
		if prev, found := seen[name]; found {
			t.Errorf("duplicate name %q for %d and %d", name, prev, op)
		}
		seen[name] = op
	}
	if IsValid(INVALID) {
		t.Errorf("INVALID must not be classified as valid")
	}
	if got := OpCode(0x0C).String(); got != "OpCode(0x0C)" {
		t.Errorf("unexpected name for undefined opcode: %s", got)
	}
}

func TestValidOpCodesNoPush_ExcludesPushFamily(t *testing.T) {
	for _, op := range ValidOpCodesNoPush() {
		if PUSH0 <= op && op <= PUSH32 {
			t.Errorf("push instruction %v must be excluded", op)
		}
	}
}
