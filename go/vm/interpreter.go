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

//go:generate mockgen -source interpreter.go -destination interpreter_mock.go -package vm

// Interpreter is a component capable of executing EVM byte-code. A full EVM
// additionally handles recursive contract calls and transaction processing;
// an Interpreter only runs a single code in a given context. Instances are
// obtained through NewInterpreter provided by the registry in this package.
type Interpreter interface {
	// Run executes the code provided by the parameters in the given context
	// and returns the outcome. The returned error is nil whenever the code
	// was processed correctly, even if the execution itself failed or
	// reverted. A non-nil error indicates an internal problem of the
	// interpreter; in that case the result is undefined. Implementations
	// must be thread-safe, multiple runs may be conducted in parallel.
	Run(Parameters) (Result, error)
}

// Parameters summarizes the inputs required for executing code.
type Parameters struct {
	BlockParameters
	TransactionParameters
	Context   RunContext
	Kind      CallKind
	Static    bool
	Depth     int
	Gas       Gas
	Recipient Address
	Sender    Address
	Input     Data
	Value     Value
	CodeHash  *Hash
	Code      Code

	// TracerActive signals that an execution trace is being recorded for
	// this call. Tier selection must be bypassed while set, so that traces
	// stay byte-for-byte faithful to the baseline execution path.
	TracerActive bool
}

// BlockParameters contains information about the current block.
type BlockParameters struct {
	ChainID     Word
	BlockNumber int64
	Timestamp   int64
	Coinbase    Address
	GasLimit    Gas
	PrevRandao  Hash
	BaseFee     Value
	BlobBaseFee Value
	Revision    Revision
}

// TransactionParameters contains information about the current transaction.
type TransactionParameters struct {
	Origin     Address
	GasPrice   Value
	BlobHashes []Hash
}

// RunContext provides access to state and transaction properties as needed
// by individual EVM instructions, including the handling of recursive calls.
type RunContext interface {
	TransactionContext

	Call(kind CallKind, parameter CallParameters) (CallResult, error)
}

// TransactionContext buffers all modifications of the world state performed
// within a transaction. Modifications can be snapshot and rolled back.
// Beyond the world state, it tracks transient storage, access lists, and
// emitted logs.
type TransactionContext interface {
	WorldState

	CreateSnapshot() Snapshot
	RestoreSnapshot(Snapshot)

	GetTransientStorage(Address, Key) Word
	SetTransientStorage(Address, Key, Word)

	AccessAccount(Address) AccessStatus
	AccessStorage(Address, Key) AccessStatus

	EmitLog(Log)
	GetLogs() []Log

	// GetBlockHash returns the hash of the block with the given number.
	GetBlockHash(number int64) Hash

	// GetCommittedStorage returns the value of the slot as of the start of
	// the transaction, required for SSTORE gas computations.
	GetCommittedStorage(addr Address, key Key) Word

	IsAddressInAccessList(addr Address) bool
	IsSlotInAccessList(addr Address, key Key) (addressPresent, slotPresent bool)
	HasSelfDestructed(addr Address) bool
}

// AccessStatus distinguishes cold and warm account or storage slot accesses.
type AccessStatus bool

const (
	ColdAccess AccessStatus = false
	WarmAccess AccessStatus = true
)

// Result summarizes the result of an EVM code computation.
type Result struct {
	Success   bool // false if the execution ended in a revert, true otherwise
	Output    Data
	GasLeft   Gas
	GasRefund Gas
}

// Data represents the input or output of contract invocations.
type Data []byte

// Gas represents an amount of computation gas.
type Gas int64

// Snapshot identifies a recoverable point in the modification history of a
// transaction context.
type Snapshot int

// Log is a log message emitted as a side effect of contract execution.
type Log struct {
	Address Address
	Topics  []Hash
	Data    Data
}

// CallKind distinguishes the kinds of recursive contract calls of the EVM.
type CallKind int

const (
	Call CallKind = iota
	DelegateCall
	StaticCall
	CallCode
	Create
	Create2
)

type CallParameters struct {
	Sender      Address
	Recipient   Address // < not relevant for CREATE and CREATE2
	Value       Value   // < ignored by static calls, considered to be 0
	Input       Data
	Gas         Gas
	Salt        Hash    // < only relevant for CREATE2 calls
	CodeAddress Address // < only relevant for DELEGATECALL and CALLCODE
}

type CallResult struct {
	Output         Data
	GasLeft        Gas
	GasRefund      Gas
	CreatedAddress Address // < only meaningful for CREATE and CREATE2
	Success        bool    // false if the execution ended in a revert, true otherwise
}

// Revision is an enumeration of EVM specification revisions (aka hard forks).
// Compiled code, gas schedules, and caches are always revision specific.
type Revision int

const (
	R07_Istanbul Revision = iota
	R09_Berlin
	R10_London
	R11_Paris
	R12_Shanghai
	R13_Cancun
	R99_UnknownNextRevision
	numRevisions int = iota
)
