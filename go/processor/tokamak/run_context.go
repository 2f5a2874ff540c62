// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tokamak

import (
	"fmt"

	"github.com/tokamak-network/ethrex-sub001/go/jit"
	"github.com/tokamak-network/ethrex-sub001/go/jit/native"
	"github.com/tokamak-network/ethrex-sub001/go/vm"

	// geth dependencies
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var emptyCodeHash = vm.Hash(crypto.Keccak256(nil))

// runContext handles the recursive calls of a transaction. Every nested call
// passes through its Call method, which applies the tier dispatch policy:
// precompiles run on their dedicated path, contract creations always run on
// the interpreter, and plain calls run compiled when a compiled program is
// cached for their code.
type runContext struct {
	vm.TransactionContext
	interpreter           vm.Interpreter
	state                 *jit.State
	blockParameters       vm.BlockParameters
	transactionParameters vm.TransactionParameters
	depth                 int
	static                bool
	fromCompiled          bool
}

func (r runContext) Call(kind vm.CallKind, parameters vm.CallParameters) (vm.CallResult, error) {
	if kind == vm.Create || kind == vm.Create2 {
		return r.executeCreate(kind, parameters)
	}
	return r.executeCall(kind, parameters)
}

func (r runContext) executeCall(kind vm.CallKind, parameters vm.CallParameters) (vm.CallResult, error) {
	errResult := vm.CallResult{
		Success: false,
		GasLeft: parameters.Gas,
	}
	if r.depth > maxRecursiveDepth {
		return errResult, nil
	}
	r.depth++

	if kind == vm.Call || kind == vm.CallCode {
		if !canTransferValue(r, parameters.Value, parameters.Sender, &parameters.Recipient) {
			return errResult, nil
		}
	}
	snapshot := r.CreateSnapshot()
	recipient := parameters.Recipient

	if kind == vm.StaticCall {
		r.static = true
	}

	if kind == vm.Call || kind == vm.CallCode {
		transferValue(r, parameters.Value, parameters.Sender, recipient)
	}

	result, isPrecompiled := r.handlePrecompiled(parameters.Input, recipient, parameters.Gas)
	if isPrecompiled {
		if !result.Success {
			r.RestoreSnapshot(snapshot)
			result.GasLeft = 0
		}
		return result, nil
	}

	var codeHash vm.Hash
	var code vm.Code
	if kind == vm.Call || kind == vm.StaticCall {
		codeHash = r.GetCodeHash(recipient)
		code = r.GetCode(recipient)
	} else {
		code = r.GetCode(parameters.CodeAddress)
		codeHash = r.GetCodeHash(parameters.CodeAddress)
	}

	if len(code) == 0 {
		return vm.CallResult{Success: true, GasLeft: parameters.Gas}, nil
	}

	params := vm.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               r,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth - 1, // depth has already been incremented
		Gas:                   parameters.Gas,
		Recipient:             recipient,
		Sender:                parameters.Sender,
		Input:                 parameters.Input,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
	}

	callResult, err := r.runCode(params)
	if err != nil || !callResult.Success {
		r.RestoreSnapshot(snapshot)

		if !isRevert(callResult, err) {
			// only an explicit revert keeps its remaining gas
			callResult.GasLeft = 0
		}
	}

	return vm.CallResult{
		Output:    callResult.Output,
		GasLeft:   callResult.GasLeft,
		GasRefund: callResult.GasRefund,
		Success:   callResult.Success,
	}, err
}

// executeCreate runs contract creations. Init code always executes on the
// interpreter; deployment validation (code size limit, the 0xEF prefix ban,
// deposit charging) happens here after the init code returned.
func (r runContext) executeCreate(kind vm.CallKind, parameters vm.CallParameters) (vm.CallResult, error) {
	errResult := vm.CallResult{
		Success: false,
		GasLeft: parameters.Gas,
	}
	if r.depth > maxRecursiveDepth {
		return errResult, nil
	}
	r.depth++

	if r.static {
		return errResult, nil
	}
	if !canTransferValue(r, parameters.Value, parameters.Sender, &parameters.Recipient) {
		return errResult, nil
	}
	if err := incrementNonce(r, parameters.Sender); err != nil {
		return errResult, nil
	}

	code := vm.Code(parameters.Input)
	codeHash := hashCode(code)

	createdAddress := createAddress(kind, parameters.Sender,
		r.GetNonce(parameters.Sender)-1, parameters.Salt, codeHash)

	if r.blockParameters.Revision >= vm.R09_Berlin {
		r.AccessAccount(createdAddress)
	}

	// A colliding account fails the creation and consumes all gas; the
	// existing account, including its storage, stays untouched.
	if r.GetNonce(createdAddress) != 0 ||
		(r.GetCodeHash(createdAddress) != (vm.Hash{}) &&
			r.GetCodeHash(createdAddress) != emptyCodeHash) {
		return vm.CallResult{}, nil
	}
	snapshot := r.CreateSnapshot()
	r.SetNonce(createdAddress, 1)

	transferValue(r, parameters.Value, parameters.Sender, createdAddress)

	params := vm.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               r,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth - 1, // depth has already been incremented
		Gas:                   parameters.Gas,
		Recipient:             createdAddress,
		Sender:                parameters.Sender,
		Input:                 nil,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
	}

	result, err := r.interpreter.Run(params)
	if err != nil || !result.Success {
		r.RestoreSnapshot(snapshot)

		if !isRevert(result, err) {
			return vm.CallResult{}, err
		}
		return vm.CallResult{
			Output:         result.Output,
			GasLeft:        result.GasLeft,
			CreatedAddress: createdAddress,
		}, nil
	}

	outCode := result.Output
	if len(outCode) > maxCodeSize {
		result.Success = false
	}
	if r.blockParameters.Revision >= vm.R10_London && len(outCode) > 0 && outCode[0] == 0xEF {
		result.Success = false
	}
	depositGas := vm.Gas(len(outCode) * createGasCostPerByte)
	if result.GasLeft < depositGas {
		result.Success = false
	}
	result.GasLeft -= depositGas

	if result.Success {
		r.SetCode(createdAddress, vm.Code(outCode))
	} else {
		r.RestoreSnapshot(snapshot)
		result.GasLeft = 0
		result.Output = nil
	}

	return vm.CallResult{
		Output:         result.Output,
		GasLeft:        result.GasLeft,
		GasRefund:      result.GasRefund,
		Success:        result.Success,
		CreatedAddress: createdAddress,
	}, nil
}

// runCode selects the execution tier for a single code run. Compiled
// programs are used when cached; every interpreted run is counted towards
// the compile threshold. Any fault of the compiled tier falls back to a
// fresh interpreted run of the same frame, so callers never observe a
// difference.
func (r runContext) runCode(params vm.Parameters) (vm.Result, error) {
	if r.state == nil || params.TracerActive {
		return r.interpreter.Run(params)
	}
	hash := *params.CodeHash
	revision := params.Revision

	if r.fromCompiled && !r.state.Config().EnableJitToJitDispatch {
		return r.interpret(params)
	}

	entry := r.state.TryDispatch(hash, revision)
	if entry == nil {
		return r.interpret(params)
	}
	defer entry.Release()

	program, ok := entry.Program.(native.Invocable)
	if !ok {
		return r.interpret(params)
	}

	if r.state.ShouldValidate(hash) {
		return r.runValidated(program, entry.Key, params)
	}

	checkpoint := r.CreateSnapshot()
	result, err := r.runCompiled(program, params)
	if err != nil {
		// faults of the compiled tier are not observable: roll back any
		// partial effects and charge a correct interpreted execution
		r.RestoreSnapshot(checkpoint)
		r.state.Metrics().InterpreterFallbacks.Add(1)
		return r.interpreter.Run(params)
	}
	return result, nil
}

func (r runContext) interpret(params vm.Parameters) (vm.Result, error) {
	r.state.RecordInterpretedExecution(*params.CodeHash, params.Revision, params.Code)
	return r.interpreter.Run(params)
}

// runCompiled drives a compiled program to completion, serving its suspension
// points by dispatching the pending sub-calls recursively.
func (r runContext) runCompiled(program native.Invocable, params vm.Parameters) (vm.Result, error) {
	caller := r
	caller.fromCompiled = true

	host := native.NewHost(caller, params.Static)
	outcome, err := native.Run(program, params, host)
	for err == nil && outcome.Status == native.Suspended {
		kind, pending := outcome.Token.PendingCall()
		var sub vm.CallResult
		sub, err = caller.Call(kind, pending)
		if err != nil {
			return vm.Result{}, err
		}
		outcome, err = native.Resume(outcome.Token, sub)
	}
	if err != nil {
		return vm.Result{}, err
	}

	switch outcome.Status {
	case native.Success:
		return vm.Result{
			Success:   true,
			Output:    outcome.Output,
			GasLeft:   outcome.GasLeft,
			GasRefund: outcome.Refund,
		}, nil
	case native.Revert:
		return vm.Result{
			Success: false,
			Output:  outcome.Output,
			GasLeft: outcome.GasLeft,
		}, nil
	default:
		return vm.Result{Success: false}, nil
	}
}

func isRevert(result vm.Result, err error) bool {
	return err == nil && !result.Success && (result.GasLeft > 0 || len(result.Output) > 0)
}

func hashCode(code vm.Code) vm.Hash {
	return vm.Hash(crypto.Keccak256(code))
}

func createAddress(
	kind vm.CallKind,
	sender vm.Address,
	nonce uint64,
	salt vm.Hash,
	initHash vm.Hash,
) vm.Address {
	if kind == vm.Create {
		return vm.Address(crypto.CreateAddress(common.Address(sender), nonce))
	}
	return vm.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:]))
}

func canTransferValue(
	context vm.TransactionContext,
	value vm.Value,
	sender vm.Address,
	recipient *vm.Address,
) bool {
	if value == (vm.Value{}) {
		return true
	}

	senderBalance := context.GetBalance(sender)
	if senderBalance.Cmp(value) < 0 {
		return false
	}

	if recipient == nil || sender == *recipient {
		return true
	}

	receiverBalance := context.GetBalance(*recipient)
	updatedBalance := vm.Add(receiverBalance, value)
	if updatedBalance.Cmp(receiverBalance) < 0 || updatedBalance.Cmp(value) < 0 {
		return false
	}

	return true
}

func incrementNonce(context vm.TransactionContext, address vm.Address) error {
	nonce := context.GetNonce(address)
	if nonce+1 < nonce {
		return fmt.Errorf("nonce overflow")
	}
	context.SetNonce(address, nonce+1)
	return nil
}

// Only to be called after canTransferValue
func transferValue(
	context vm.TransactionContext,
	value vm.Value,
	sender vm.Address,
	recipient vm.Address,
) {
	if value == (vm.Value{}) {
		return
	}
	if sender == recipient {
		return
	}

	senderBalance := context.GetBalance(sender)
	receiverBalance := context.GetBalance(recipient)

	context.SetBalance(sender, vm.Sub(senderBalance, value))
	context.SetBalance(recipient, vm.Add(receiverBalance, value))
}
