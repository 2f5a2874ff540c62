// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vm

//go:generate mockgen -source processor.go -destination processor_mock.go -package vm

// Processor is a component capable of executing transactions. Implementations
// progress the world state of a chain by executing individual transactions,
// handling gas fees, nonce checks, recursive contract calls, precompiled
// contracts, and contract creation.
type Processor interface {
	// Run executes the transaction provided by the parameters in the
	// specified context.
	Run(BlockParameters, Transaction, TransactionContext) (Receipt, error)
}

// Transaction summarizes the parameters of a transaction to be executed.
type Transaction struct {
	Sender     Address       // the sender of the transaction, paying for its execution
	Recipient  *Address      // the receiver of the transaction, nil if a contract is to be created
	Nonce      uint64        // the nonce of the sender account
	Input      Data          // the input data for the transaction
	Value      Value         // the amount of network currency to transfer
	GasLimit   Gas           // the maximum amount of gas usable by the transaction
	GasPrice   Value         // the effective price of a unit of gas
	AccessList []AccessTuple // accounts and slots expected to be accessed
}

// AccessTuple lists accounts and storage slots expected to be accessed by a
// transaction. These are hints; neither completeness nor correctness can be
// assumed.
type AccessTuple struct {
	Address Address
	Keys    []Key
}

// Receipt summarizes the result of the execution of a transaction.
type Receipt struct {
	Success         bool     // false if the execution ended in a revert, true otherwise
	Output          Data     // the output produced by the transaction
	ContractAddress *Address // filled if a contract was created
	GasUsed         Gas      // gas used by contract calls
	Logs            []Log    // logs produced by the transaction
}
