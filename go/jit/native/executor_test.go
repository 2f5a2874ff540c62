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
	"bytes"
	"errors"
	"reflect"
	"testing"

	"pgregory.net/rand"

	"github.com/tokamak-network/ethrex-sub001/go/interpreter/levm"
	"github.com/tokamak-network/ethrex-sub001/go/jit"
	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

var (
	testRecipient = vm.Address{0x42}
	testSender    = vm.Address{0x41}
)

func testParams(ctx *testContext, code []byte, gas vm.Gas, revision vm.Revision) vm.Parameters {
	return vm.Parameters{
		BlockParameters: vm.BlockParameters{
			BlockNumber: 1000,
			Timestamp:   1234567,
			GasLimit:    30_000_000,
			Revision:    revision,
		},
		Context:   ctx,
		Gas:       gas,
		Recipient: testRecipient,
		Sender:    testSender,
		Code:      code,
	}
}

// runCompiled drives a compiled program to completion, routing suspensions
// through the context's Call implementation the way the dispatcher does.
func runCompiled(t *testing.T, program *Program, params vm.Parameters) Outcome {
	t.Helper()
	host := NewHost(params.Context, params.Static)
	outcome, err := Run(program, params, host)
	if err != nil {
		t.Fatalf("execution fault: %v", err)
	}
	for outcome.Status == Suspended {
		kind, callParams := outcome.Token.PendingCall()
		result, err := params.Context.Call(kind, callParams)
		if err != nil {
			t.Fatalf("sub-call failed: %v", err)
		}
		outcome, err = Resume(outcome.Token, result)
		if err != nil {
			t.Fatalf("resume fault: %v", err)
		}
	}
	return outcome
}

// asResult maps an outcome to the result shape the interpreter reports, for
// direct comparison between the tiers.
func asResult(outcome Outcome) vm.Result {
	switch outcome.Status {
	case Success:
		return vm.Result{
			Success:   true,
			Output:    outcome.Output,
			GasLeft:   outcome.GasLeft,
			GasRefund: outcome.Refund,
		}
	case Revert:
		return vm.Result{Output: outcome.Output, GasLeft: outcome.GasLeft}
	}
	return vm.Result{}
}

func TestExecutor_ProducesInterpreterIdenticalResults(t *testing.T) {
	subOutput := []byte{0x01, 0x02, 0x03}
	subCall := func(kind vm.CallKind, params vm.CallParameters) (vm.CallResult, error) {
		return vm.CallResult{
			Output:  subOutput,
			GasLeft: params.Gas / 2,
			Success: true,
		}, nil
	}

	tests := map[string]struct {
		code      []byte
		gas       vm.Gas
		revisions []vm.Revision
		setup     func(*testContext)
	}{
		"arithmetic with folded constants": {
			code: []byte{
				byte(op.PUSH1), 0x02, byte(op.PUSH1), 0x03, byte(op.ADD),
				byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       100,
			revisions: []vm.Revision{vm.R07_Istanbul, vm.R13_Cancun},
		},
		"gas introspection after a folded span": {
			code: []byte{
				byte(op.PUSH1), 0x02, byte(op.PUSH1), 0x03, byte(op.ADD),
				byte(op.POP), byte(op.GAS),
				byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       200,
			revisions: []vm.Revision{vm.R09_Berlin, vm.R13_Cancun},
		},
		"program counter offsets survive folding": {
			code: []byte{
				byte(op.PUSH1), 0x01, byte(op.PUSH1), 0x02, byte(op.ADD),
				byte(op.POP), byte(op.PC),
				byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       200,
			revisions: []vm.Revision{vm.R13_Cancun},
		},
		"counting loop": {
			code: []byte{
				byte(op.PUSH1), 0x00,
				byte(op.JUMPDEST), // offset 2
				byte(op.PUSH1), 0x01, byte(op.ADD),
				byte(op.DUP1), byte(op.PUSH1), 0x0A, byte(op.GT),
				byte(op.PUSH1), 0x02, byte(op.JUMPI),
				byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       10_000,
			revisions: []vm.Revision{vm.R07_Istanbul, vm.R10_London, vm.R13_Cancun},
		},
		"storage round trip": {
			code: []byte{
				byte(op.PUSH1), 0x01, byte(op.PUSH1), 0x00, byte(op.SSTORE),
				byte(op.PUSH1), 0x00, byte(op.SLOAD),
				byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       100_000,
			revisions: []vm.Revision{vm.R07_Istanbul, vm.R09_Berlin, vm.R10_London},
		},
		"storage delete refunds": {
			code: []byte{
				byte(op.PUSH1), 0x00, byte(op.PUSH1), 0x00, byte(op.SSTORE),
				byte(op.STOP),
			},
			gas:       100_000,
			revisions: []vm.Revision{vm.R09_Berlin, vm.R10_London},
			setup: func(ctx *testContext) {
				id := slot{testRecipient, vm.Key{}}
				ctx.committed[id] = vm.Word{31: 7}
				ctx.storage[id] = vm.Word{31: 7}
			},
		},
		"hashing": {
			code: []byte{
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.SHA3),
				byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       10_000,
			revisions: []vm.Revision{vm.R13_Cancun},
		},
		"exponentiation": {
			code: []byte{
				byte(op.PUSH1), 0x03, byte(op.PUSH1), 0x02, byte(op.EXP),
				byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       10_000,
			revisions: []vm.Revision{vm.R07_Istanbul, vm.R13_Cancun},
		},
		"log emission": {
			code: []byte{
				byte(op.PUSH1), 0x2A, byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0xAA, // topic
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.LOG1),
				byte(op.STOP),
			},
			gas:       10_000,
			revisions: []vm.Revision{vm.R10_London},
		},
		"revert forwards output": {
			code: []byte{
				byte(op.PUSH1), 0x2A, byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.REVERT),
			},
			gas:       10_000,
			revisions: []vm.Revision{vm.R13_Cancun},
		},
		"cold and warm account access": {
			code: []byte{
				byte(op.PUSH1), 0x99, byte(op.BALANCE), byte(op.POP),
				byte(op.PUSH1), 0x99, byte(op.BALANCE), byte(op.POP),
				byte(op.STOP),
			},
			gas:       10_000,
			revisions: []vm.Revision{vm.R07_Istanbul, vm.R09_Berlin},
		},
		"block hash window": {
			code: []byte{
				byte(op.PUSH2), 0x03, 0xE7, byte(op.BLOCKHASH),
				byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       10_000,
			revisions: []vm.Revision{vm.R13_Cancun},
			setup: func(ctx *testContext) {
				ctx.blockHashes[999] = vm.Hash{0xBB}
			},
		},
		"nested call": {
			code: []byte{
				byte(op.PUSH1), 0x20, // out size
				byte(op.PUSH1), 0x00, // out offset
				byte(op.PUSH1), 0x00, // in size
				byte(op.PUSH1), 0x00, // in offset
				byte(op.PUSH1), 0x00, // value
				byte(op.PUSH1), 0x77, // address
				byte(op.GAS),
				byte(op.CALL),
				byte(op.PUSH1), 0x00, byte(op.MSTORE8),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       100_000,
			revisions: []vm.Revision{vm.R09_Berlin, vm.R13_Cancun},
			setup: func(ctx *testContext) {
				ctx.callHandler = subCall
			},
		},
		"transient storage": {
			code: []byte{
				byte(op.PUSH1), 0x2A, byte(op.PUSH1), 0x01, byte(op.TSTORE),
				byte(op.PUSH1), 0x01, byte(op.TLOAD),
				byte(op.PUSH1), 0x00, byte(op.MSTORE),
				byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
			},
			gas:       10_000,
			revisions: []vm.Revision{vm.R13_Cancun},
		},
		"out of gas": {
			code: []byte{
				byte(op.PUSH1), 0x00,
				byte(op.PUSH4), 0xFF, 0xFF, 0xFF, 0xFF,
				byte(op.MSTORE),
				byte(op.STOP),
			},
			gas:       1_000,
			revisions: []vm.Revision{vm.R13_Cancun},
		},
		"invalid jump": {
			code: []byte{
				byte(op.PUSH1), 0x03, byte(op.JUMP), byte(op.STOP),
			},
			gas:       1_000,
			revisions: []vm.Revision{vm.R13_Cancun},
		},
	}

	interpreter, err := levm.NewInterpreter(levm.Config{})
	if err != nil {
		t.Fatalf("failed to create interpreter: %v", err)
	}

	for name, test := range tests {
		for _, revision := range test.revisions {
			t.Run(name+"/"+revision.String(), func(t *testing.T) {
				prepare := func() *testContext {
					ctx := newTestContext()
					ctx.warmAccounts[testRecipient] = true
					ctx.balances[testRecipient] = vm.Value{31: 100}
					if test.setup != nil {
						test.setup(ctx)
					}
					return ctx
				}

				interpreted := prepare()
				want, err := interpreter.Run(testParams(interpreted, test.code, test.gas, revision))
				if err != nil {
					t.Fatalf("interpreter failed: %v", err)
				}

				compiled := prepare()
				program := compileForTest(t, test.code, revision)
				got := asResult(runCompiled(t, program, testParams(compiled, test.code, test.gas, revision)))

				if want.Success != got.Success {
					t.Errorf("success mismatch: interpreter %t, compiled %t", want.Success, got.Success)
				}
				if want.GasLeft != got.GasLeft {
					t.Errorf("gas mismatch: interpreter %d, compiled %d", want.GasLeft, got.GasLeft)
				}
				if want.GasRefund != got.GasRefund {
					t.Errorf("refund mismatch: interpreter %d, compiled %d", want.GasRefund, got.GasRefund)
				}
				if !bytes.Equal(want.Output, got.Output) {
					t.Errorf("output mismatch: interpreter %x, compiled %x", want.Output, got.Output)
				}
				if !reflect.DeepEqual(interpreted.storage, compiled.storage) {
					t.Errorf("storage mismatch: interpreter %v, compiled %v", interpreted.storage, compiled.storage)
				}
				if !reflect.DeepEqual(interpreted.logs, compiled.logs) {
					t.Errorf("log mismatch: interpreter %v, compiled %v", interpreted.logs, compiled.logs)
				}
			})
		}
	}
}

// callingCode performs one CALL to address 0x77 forwarding all gas, then
// returns the first 32 bytes of memory.
var callingCode = []byte{
	byte(op.PUSH1), 0x20, // out size
	byte(op.PUSH1), 0x00, // out offset
	byte(op.PUSH1), 0x00, // in size
	byte(op.PUSH1), 0x00, // in offset
	byte(op.PUSH1), 0x00, // value
	byte(op.PUSH1), 0x77, // address
	byte(op.GAS),
	byte(op.CALL),
	byte(op.POP),
	byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
}

func TestExecutor_SuspendsOnCallAndResumesWithResult(t *testing.T) {
	ctx := newTestContext()
	ctx.warmAccounts[testRecipient] = true
	params := testParams(ctx, callingCode, 100_000, vm.R13_Cancun)
	program := compileForTest(t, callingCode, vm.R13_Cancun)

	outcome, err := Run(program, params, NewHost(ctx, false))
	if err != nil {
		t.Fatalf("execution fault: %v", err)
	}
	if outcome.Status != Suspended {
		t.Fatalf("expected a suspension, got status %d", outcome.Status)
	}

	kind, callParams := outcome.Token.PendingCall()
	if kind != vm.Call {
		t.Errorf("wrong call kind: %v", kind)
	}
	if callParams.Recipient != (vm.Address{19: 0x77}) {
		t.Errorf("wrong call target: %x", callParams.Recipient)
	}
	if callParams.Sender != testRecipient {
		t.Errorf("wrong call sender: %x", callParams.Sender)
	}
	if callParams.Gas <= 0 {
		t.Errorf("no gas forwarded")
	}

	output := []byte{0xAB, 0xCD}
	outcome, err = Resume(outcome.Token, vm.CallResult{
		Output:    output,
		GasLeft:   callParams.Gas - 42,
		GasRefund: 7,
		Success:   true,
	})
	if err != nil {
		t.Fatalf("resume fault: %v", err)
	}
	if outcome.Status != Success {
		t.Fatalf("expected success, got status %d", outcome.Status)
	}
	if outcome.Refund != 7 {
		t.Errorf("sub-call refund not credited, got %d", outcome.Refund)
	}
	if !bytes.Equal(outcome.Output[:2], output) {
		t.Errorf("returned data not written to the designated span: %x", outcome.Output)
	}
}

func TestExecutor_ResumeTokenIsSingleUse(t *testing.T) {
	ctx := newTestContext()
	params := testParams(ctx, callingCode, 100_000, vm.R13_Cancun)
	program := compileForTest(t, callingCode, vm.R13_Cancun)

	outcome, err := Run(program, params, NewHost(ctx, false))
	if err != nil || outcome.Status != Suspended {
		t.Fatalf("expected a suspension, got status %d, err %v", outcome.Status, err)
	}
	token := outcome.Token
	_, callParams := token.PendingCall()
	if _, err := Resume(token, vm.CallResult{GasLeft: callParams.Gas, Success: true}); err != nil {
		t.Fatalf("first resume failed: %v", err)
	}
	if _, err := Resume(token, vm.CallResult{}); !errors.Is(err, jit.ErrResumeProtocolViolation) {
		t.Errorf("a consumed token must be rejected, got %v", err)
	}
}

func TestExecutor_ResumeWithoutTokenIsAViolation(t *testing.T) {
	if _, err := Resume(nil, vm.CallResult{}); !errors.Is(err, jit.ErrResumeProtocolViolation) {
		t.Errorf("nil token must be rejected, got %v", err)
	}
}

func TestExecutor_DepthLimitFailsTheCallLocally(t *testing.T) {
	ctx := newTestContext()
	params := testParams(ctx, callingCode, 100_000, vm.R13_Cancun)
	params.Depth = maxCallDepth

	program := compileForTest(t, callingCode, vm.R13_Cancun)
	outcome, err := Run(program, params, NewHost(ctx, false))
	if err != nil {
		t.Fatalf("execution fault: %v", err)
	}
	// No suspension: the failed call is reported on the stack and the gas
	// reserved for the callee is returned.
	if outcome.Status != Success {
		t.Fatalf("expected local completion, got status %d", outcome.Status)
	}
	if !bytes.Equal(outcome.Output, make([]byte, 32)) {
		t.Errorf("call at depth limit must push zero, got %x", outcome.Output)
	}
}

func TestExecutor_StaticContextConvertsCallToStaticCall(t *testing.T) {
	ctx := newTestContext()
	params := testParams(ctx, callingCode, 100_000, vm.R13_Cancun)
	params.Static = true

	program := compileForTest(t, callingCode, vm.R13_Cancun)
	outcome, err := Run(program, params, NewHost(ctx, true))
	if err != nil || outcome.Status != Suspended {
		t.Fatalf("expected a suspension, got status %d, err %v", outcome.Status, err)
	}
	kind, _ := outcome.Token.PendingCall()
	if kind != vm.StaticCall {
		t.Errorf("expected StaticCall, got %v", kind)
	}
}

func TestExecutor_ValueBearingCallReceivesTheStipend(t *testing.T) {
	code := []byte{
		byte(op.PUSH1), 0x00, // out size
		byte(op.PUSH1), 0x00, // out offset
		byte(op.PUSH1), 0x00, // in size
		byte(op.PUSH1), 0x00, // in offset
		byte(op.PUSH1), 0x01, // value
		byte(op.PUSH1), 0x77, // address
		byte(op.PUSH1), 0x00, // requested gas
		byte(op.CALL),
		byte(op.STOP),
	}
	ctx := newTestContext()
	ctx.balances[testRecipient] = vm.Value{31: 5}
	params := testParams(ctx, code, 100_000, vm.R13_Cancun)

	program := compileForTest(t, code, vm.R13_Cancun)
	outcome, err := Run(program, params, NewHost(ctx, false))
	if err != nil || outcome.Status != Suspended {
		t.Fatalf("expected a suspension, got status %d, err %v", outcome.Status, err)
	}
	_, callParams := outcome.Token.PendingCall()
	if callParams.Gas != callStipend {
		t.Errorf("zero requested gas plus value must forward exactly the stipend, got %d", callParams.Gas)
	}
	if callParams.Value != (vm.Value{31: 1}) {
		t.Errorf("wrong value: %x", callParams.Value)
	}
}

func TestExecutor_StaticWriteProtectionFailsTheFrame(t *testing.T) {
	code := []byte{
		byte(op.PUSH1), 0x01, byte(op.PUSH1), 0x00, byte(op.SSTORE),
		byte(op.STOP),
	}
	ctx := newTestContext()
	ctx.warmAccounts[testRecipient] = true
	params := testParams(ctx, code, 100_000, vm.R13_Cancun)
	params.Static = true

	program := compileForTest(t, code, vm.R13_Cancun)
	outcome, err := Run(program, params, NewHost(ctx, true))
	if err != nil {
		t.Fatalf("execution fault: %v", err)
	}
	if outcome.Status != Failed || outcome.GasLeft != 0 {
		t.Errorf("a write in a static context must fail the frame, got status %d with %d gas",
			outcome.Status, outcome.GasLeft)
	}
	if len(ctx.storage) != 0 {
		t.Errorf("storage must stay untouched")
	}
}

func TestExecutor_CreateSuspendsAndPushesTheAddress(t *testing.T) {
	code := []byte{
		byte(op.PUSH1), 0x00, // size
		byte(op.PUSH1), 0x00, // offset
		byte(op.PUSH1), 0x00, // value
		byte(op.CREATE),
		byte(op.PUSH1), 0x00, byte(op.MSTORE),
		byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
	}
	ctx := newTestContext()
	params := testParams(ctx, code, 100_000, vm.R13_Cancun)

	program := compileForTest(t, code, vm.R13_Cancun)
	outcome, err := Run(program, params, NewHost(ctx, false))
	if err != nil || outcome.Status != Suspended {
		t.Fatalf("expected a suspension, got status %d, err %v", outcome.Status, err)
	}
	kind, callParams := outcome.Token.PendingCall()
	if kind != vm.Create {
		t.Fatalf("wrong call kind: %v", kind)
	}

	created := vm.Address{0xC0, 0xFF, 0xEE}
	outcome, err = Resume(outcome.Token, vm.CallResult{
		GasLeft:        callParams.Gas,
		CreatedAddress: created,
		Success:        true,
	})
	if err != nil || outcome.Status != Success {
		t.Fatalf("expected success, got status %d, err %v", outcome.Status, err)
	}
	if !bytes.Equal(outcome.Output[12:], created[:]) {
		t.Errorf("created address not pushed, output %x", outcome.Output)
	}
}

func TestExecutor_RevisionMismatchIsAFault(t *testing.T) {
	code := []byte{byte(op.STOP)}
	ctx := newTestContext()
	params := testParams(ctx, code, 100, vm.R10_London)

	program := compileForTest(t, code, vm.R13_Cancun)
	if _, err := Run(program, params, NewHost(ctx, false)); !errors.Is(err, jit.ErrExecutionFault) {
		t.Errorf("a program must not run under a foreign revision, got %v", err)
	}
}

func TestExecutor_EmptyProgramSucceedsWithFullGas(t *testing.T) {
	ctx := newTestContext()
	params := testParams(ctx, nil, 100, vm.R13_Cancun)
	program := compileForTest(t, nil, vm.R13_Cancun)

	outcome, err := Run(program, params, NewHost(ctx, false))
	if err != nil {
		t.Fatalf("execution fault: %v", err)
	}
	if outcome.Status != Success || outcome.GasLeft != 100 {
		t.Errorf("empty code must succeed without consuming gas, got status %d, gas %d",
			outcome.Status, outcome.GasLeft)
	}
}

// randomStraightLineCode generates well-formed branch-free bytecode: pushes
// of random widths mixed with stack operations and the full arithmetic,
// comparison, bitwise, and shift instruction set, tracked against the stack
// depth so the program neither underflows nor overflows. The result is
// returned as a 32-byte word.
func randomStraightLineCode(rnd *rand.Rand) []byte {
	binary := []op.OpCode{
		op.ADD, op.SUB, op.MUL, op.DIV, op.SDIV, op.MOD, op.SMOD,
		op.AND, op.OR, op.XOR, op.EQ, op.LT, op.GT, op.SLT, op.SGT,
		op.BYTE, op.SHL, op.SHR, op.SAR, op.EXP,
	}
	ternary := []op.OpCode{op.ADDMOD, op.MULMOD}

	var code []byte
	depth := 0
	push := func() {
		width := 1 << rnd.Intn(6) // 1, 2, 4, 8, 16, or 32 bytes
		code = append(code, byte(op.PUSH1)+byte(width-1))
		for i := 0; i < width; i++ {
			code = append(code, byte(rnd.Uint32()))
		}
		depth++
	}

	for steps := 20 + rnd.Intn(60); steps > 0; steps-- {
		choice := rnd.Intn(10)
		switch {
		case depth < 2 || choice < 3:
			push()
		case choice == 3:
			code = append(code, byte(op.ISZERO))
		case choice == 4:
			code = append(code, byte(op.NOT))
		case choice == 5 && depth >= 3:
			code = append(code, byte(ternary[rnd.Intn(len(ternary))]))
			depth -= 2
		case choice == 6 && depth < 100:
			code = append(code, byte(op.DUP1)+byte(rnd.Intn(min(depth, 16))))
			depth++
		case choice == 7:
			code = append(code, byte(op.SWAP1)+byte(rnd.Intn(min(depth-1, 16))))
		default:
			code = append(code, byte(binary[rnd.Intn(len(binary))]))
			depth--
		}
	}

	return append(code,
		byte(op.PUSH1), 0x00, byte(op.MSTORE),
		byte(op.PUSH1), 0x20, byte(op.PUSH1), 0x00, byte(op.RETURN),
	)
}

func TestExecutor_RandomizedProgramsMatchTheInterpreter(t *testing.T) {
	interpreter, err := levm.NewInterpreter(levm.Config{})
	if err != nil {
		t.Fatalf("failed to create interpreter: %v", err)
	}

	rnd := rand.New(54321)
	for i := 0; i < 200; i++ {
		code := randomStraightLineCode(rnd)
		const gas = 1_000_000

		interpreted := newTestContext()
		want, err := interpreter.Run(testParams(interpreted, code, gas, vm.R13_Cancun))
		if err != nil {
			t.Fatalf("interpreter failed on %x: %v", code, err)
		}

		compiled := newTestContext()
		program := compileForTest(t, code, vm.R13_Cancun)
		got := asResult(runCompiled(t, program, testParams(compiled, code, gas, vm.R13_Cancun)))

		if want.Success != got.Success {
			t.Fatalf("success mismatch on %x: interpreter %t, compiled %t",
				code, want.Success, got.Success)
		}
		if want.GasLeft != got.GasLeft {
			t.Fatalf("gas mismatch on %x: interpreter %d, compiled %d",
				code, want.GasLeft, got.GasLeft)
		}
		if want.GasRefund != got.GasRefund {
			t.Fatalf("refund mismatch on %x: interpreter %d, compiled %d",
				code, want.GasRefund, got.GasRefund)
		}
		if !bytes.Equal(want.Output, got.Output) {
			t.Fatalf("output mismatch on %x: interpreter %x, compiled %x",
				code, want.Output, got.Output)
		}
	}
}
