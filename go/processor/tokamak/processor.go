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
)

const (
	TxGas                     = 21_000
	TxGasContractCreation     = 53_000
	TxDataNonZeroGasEIP2028   = 16
	TxDataZeroGasEIP2028      = 4
	TxAccessListAddressGas    = 2400
	TxAccessListStorageKeyGas = 1900
	TxInitCodeWordGas         = 2

	maxCodeSize          = 24576
	maxInitCodeSize      = 2 * maxCodeSize
	createGasCostPerByte = 200
	maxRecursiveDepth    = 1024
)

func init() {
	vm.RegisterProcessorFactory("tokamak", newProcessor)
}

func newProcessor(interpreter vm.Interpreter) vm.Processor {
	state, err := jit.NewState(jit.Config{}, CompileBackend)
	if err != nil {
		panic(fmt.Sprintf("invalid initialization: %v", err))
	}
	return NewProcessor(interpreter, state)
}

// CompileBackend adapts the native compiler to the shape the tier manager
// expects for its injected compile function.
func CompileBackend(analyzed *jit.AnalyzedCode, optimized vm.Code) (jit.CompiledProgram, error) {
	return native.Compile(analyzed, optimized)
}

// Processor executes transactions with tiered code execution: contracts that
// crossed the compile threshold run as compiled programs, everything else on
// the baseline interpreter. Both tiers produce identical observable results.
type Processor struct {
	interpreter vm.Interpreter
	state       *jit.State
}

// NewProcessor combines an interpreter with a tier-management state. The
// state may be shared between processors; the caller retains ownership and
// is responsible for closing it.
func NewProcessor(interpreter vm.Interpreter, state *jit.State) *Processor {
	return &Processor{
		interpreter: interpreter,
		state:       state,
	}
}

// State grants access to the tier management owned by this processor,
// mainly for metrics inspection.
func (p *Processor) State() *jit.State {
	return p.state
}

// Close tears down the tier management, joining its background compiler.
func (p *Processor) Close() {
	if p.state != nil {
		p.state.Close()
	}
}

func (p *Processor) Run(
	blockParams vm.BlockParameters,
	transaction vm.Transaction,
	context vm.TransactionContext,
) (vm.Receipt, error) {
	errorReceipt := vm.Receipt{
		Success: false,
		GasUsed: transaction.GasLimit,
	}
	gas := transaction.GasLimit

	if err := buyGas(transaction, context); err != nil {
		return errorReceipt, nil
	}

	intrinsic := intrinsicGas(transaction, blockParams.Revision)
	if gas < intrinsic {
		return errorReceipt, nil
	}
	gas -= intrinsic

	if err := handleNonce(transaction, context); err != nil {
		return errorReceipt, nil
	}

	isCreate := transaction.Recipient == nil
	if isCreate && blockParams.Revision >= vm.R12_Shanghai &&
		len(transaction.Input) > maxInitCodeSize {
		return errorReceipt, nil
	}

	warmUpTransaction(context, transaction, blockParams.Revision)

	execution := runContext{
		TransactionContext: context,
		interpreter:        p.interpreter,
		state:              p.state,
		blockParameters:    blockParams,
		transactionParameters: vm.TransactionParameters{
			Origin:   transaction.Sender,
			GasPrice: transaction.GasPrice,
		},
	}

	callParameters := vm.CallParameters{
		Sender: transaction.Sender,
		Value:  transaction.Value,
		Input:  transaction.Input,
		Gas:    gas,
	}
	kind := vm.Call
	if isCreate {
		kind = vm.Create
	} else {
		callParameters.Recipient = *transaction.Recipient
	}

	result, err := execution.Call(kind, callParameters)
	if err != nil {
		return errorReceipt, err
	}

	gasLeft := result.GasLeft
	gasLeft += refundGas(transaction.GasLimit-gasLeft, result.GasRefund, blockParams.Revision)
	repayGas(transaction, context, gasLeft)

	var createdAddress *vm.Address
	if isCreate && result.Success {
		created := result.CreatedAddress
		createdAddress = &created
	}

	var logs []vm.Log
	if result.Success {
		logs = context.GetLogs()
	}

	return vm.Receipt{
		Success:         result.Success,
		GasUsed:         transaction.GasLimit - gasLeft,
		ContractAddress: createdAddress,
		Output:          result.Output,
		Logs:            logs,
	}, nil
}

func intrinsicGas(transaction vm.Transaction, revision vm.Revision) vm.Gas {
	var gas vm.Gas
	if transaction.Recipient == nil {
		gas = TxGasContractCreation
	} else {
		gas = TxGas
	}

	if len(transaction.Input) > 0 {
		nonZeroBytes := vm.Gas(0)
		for _, inputByte := range transaction.Input {
			if inputByte != 0 {
				nonZeroBytes++
			}
		}
		zeroBytes := vm.Gas(len(transaction.Input)) - nonZeroBytes
		gas += zeroBytes * TxDataZeroGasEIP2028
		gas += nonZeroBytes * TxDataNonZeroGasEIP2028
	}

	if transaction.Recipient == nil && revision >= vm.R12_Shanghai {
		words := vm.Gas(vm.SizeInWords(uint64(len(transaction.Input))))
		gas += words * TxInitCodeWordGas
	}

	// No overflow check is required: triggering one would take an input
	// larger than 2^64/16 bytes, beyond any real transaction.
	if transaction.AccessList != nil {
		gas += vm.Gas(len(transaction.AccessList)) * TxAccessListAddressGas
		for _, accessTuple := range transaction.AccessList {
			gas += vm.Gas(len(accessTuple.Keys)) * TxAccessListStorageKeyGas
		}
	}

	return gas
}

func handleNonce(transaction vm.Transaction, context vm.TransactionContext) error {
	stateNonce := context.GetNonce(transaction.Sender)
	messageNonce := transaction.Nonce
	if messageNonce != stateNonce {
		return fmt.Errorf("nonce mismatch: %v != %v", messageNonce, stateNonce)
	}
	context.SetNonce(transaction.Sender, stateNonce+1)
	return nil
}

func buyGas(transaction vm.Transaction, context vm.TransactionContext) error {
	cost := transaction.GasPrice.Scale(uint64(transaction.GasLimit))

	senderBalance := context.GetBalance(transaction.Sender)
	if senderBalance.Cmp(cost) < 0 {
		return fmt.Errorf("insufficient balance: %v < %v", senderBalance, cost)
	}

	context.SetBalance(transaction.Sender, vm.Sub(senderBalance, cost))
	return nil
}

func repayGas(transaction vm.Transaction, context vm.TransactionContext, gasLeft vm.Gas) {
	if gasLeft <= 0 {
		return
	}
	repayment := transaction.GasPrice.Scale(uint64(gasLeft))
	senderBalance := context.GetBalance(transaction.Sender)
	context.SetBalance(transaction.Sender, vm.Add(senderBalance, repayment))
}

// refundGas caps the accumulated refund at the EIP-3529 quotient of the gas
// actually used, a fifth since London and half before.
func refundGas(gasUsed vm.Gas, refund vm.Gas, revision vm.Revision) vm.Gas {
	quotient := vm.Gas(2)
	if revision >= vm.R10_London {
		quotient = 5
	}
	if max := gasUsed / quotient; refund > max {
		refund = max
	}
	if refund < 0 {
		refund = 0
	}
	return refund
}

// warmUpTransaction seeds the transaction's access lists: the sender, the
// recipient, and everything the transaction's access list announces start
// out warm under EIP-2929 rules.
func warmUpTransaction(context vm.TransactionContext, transaction vm.Transaction, revision vm.Revision) {
	if revision < vm.R09_Berlin {
		return
	}
	context.AccessAccount(transaction.Sender)
	if transaction.Recipient != nil {
		context.AccessAccount(*transaction.Recipient)
	}
	for _, tuple := range transaction.AccessList {
		context.AccessAccount(tuple.Address)
		for _, key := range tuple.Keys {
			context.AccessStorage(tuple.Address, key)
		}
	}
}
