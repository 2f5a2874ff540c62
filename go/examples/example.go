// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package examples

import (
	"fmt"
	"math"

	"golang.org/x/crypto/sha3"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// Example is an executable description of a contract with a (int)->int entry
// point. Examples drive scenario tests and the benchmark driver; their
// reference function computes the expected result in plain Go.
type Example struct {
	exampleSpec
	codeHash vm.Hash
}

// exampleSpec specifies a contract and its entry point. A zero function
// selector means the code reads its argument as a raw 32-byte word from the
// start of the call data instead of a Solidity-style call.
type exampleSpec struct {
	Name      string
	code      []byte
	function  uint32
	reference func(int) int
}

func (s exampleSpec) build() Example {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(s.code)
	var hash vm.Hash
	hasher.Sum(hash[0:0])
	return Example{
		exampleSpec: s,
		codeHash:    hash,
	}
}

func (e *Example) Code() vm.Code {
	return e.code
}

func (e *Example) CodeHash() vm.Hash {
	return e.codeHash
}

// Input encodes the argument for a call to this example's entry point.
func (e *Example) Input(argument int) vm.Data {
	if e.function == 0 {
		data := make([]byte, 32)
		putBigEndian(data[0:32], argument)
		return data
	}
	// function selector followed by the argument padded to 32 bytes
	data := make([]byte, 4+32)
	data[0] = byte(e.function >> 24)
	data[1] = byte(e.function >> 16)
	data[2] = byte(e.function >> 8)
	data[3] = byte(e.function)
	putBigEndian(data[4:36], argument)
	return data
}

// DecodeOutput interprets the 32-byte output of a run as an int result.
func (e *Example) DecodeOutput(output vm.Data) (int, error) {
	if len(output) != 32 {
		return 0, fmt.Errorf("unexpected length of output; wanted 32, got %d", len(output))
	}
	return (int(output[28]) << 24) | (int(output[29]) << 16) |
		(int(output[30]) << 8) | int(output[31]), nil
}

// RunReference computes the expected result in plain Go.
func (e *Example) RunReference(argument int) int {
	return e.reference(argument)
}

type Result struct {
	Result  int
	UsedGas int64
}

// RunOn executes this example on the given interpreter with the given
// argument, against a state-less context.
func (e *Example) RunOn(interpreter vm.Interpreter, argument int) (Result, error) {
	const initialGas = math.MaxInt64
	params := vm.Parameters{
		Context:  &noOpRunContext{},
		Code:     e.code,
		CodeHash: &e.codeHash,
		Input:    e.Input(argument),
		Gas:      initialGas,
	}

	res, err := interpreter.Run(params)
	if err != nil {
		return Result{}, err
	}
	if !res.Success {
		return Result{}, fmt.Errorf("execution of %s failed", e.Name)
	}

	result, err := e.DecodeOutput(res.Output)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Result:  result,
		UsedGas: initialGas - int64(res.GasLeft),
	}, nil
}

func putBigEndian(trg []byte, value int) {
	n := len(trg)
	trg[n-4] = byte(value >> 24)
	trg[n-3] = byte(value >> 16)
	trg[n-2] = byte(value >> 8)
	trg[n-1] = byte(value)
}

// noOpRunContext is a vm.RunContext for example codes not depending on any
// chain state. No operation has any effect.
type noOpRunContext struct{}

func (c *noOpRunContext) AccountExists(vm.Address) bool { return false }

func (c *noOpRunContext) GetBalance(vm.Address) vm.Value { return vm.Value{} }

func (c *noOpRunContext) SetBalance(vm.Address, vm.Value) {}

func (c *noOpRunContext) GetNonce(vm.Address) uint64 { return 0 }

func (c *noOpRunContext) SetNonce(vm.Address, uint64) {}

func (c *noOpRunContext) GetCode(vm.Address) vm.Code { return nil }

func (c *noOpRunContext) GetCodeHash(vm.Address) vm.Hash { return vm.Hash{} }

func (c *noOpRunContext) GetCodeSize(vm.Address) int { return 0 }

func (c *noOpRunContext) SetCode(vm.Address, vm.Code) {}

func (c *noOpRunContext) GetStorage(vm.Address, vm.Key) vm.Word { return vm.Word{} }

func (c *noOpRunContext) SetStorage(vm.Address, vm.Key, vm.Word) vm.StorageStatus {
	return vm.StorageAdded
}

func (c *noOpRunContext) GetCommittedStorage(vm.Address, vm.Key) vm.Word { return vm.Word{} }

func (c *noOpRunContext) GetTransientStorage(vm.Address, vm.Key) vm.Word { return vm.Word{} }

func (c *noOpRunContext) SetTransientStorage(vm.Address, vm.Key, vm.Word) {}

func (c *noOpRunContext) SelfDestruct(vm.Address, vm.Address) bool { return false }

func (c *noOpRunContext) CreateSnapshot() vm.Snapshot { return 0 }

func (c *noOpRunContext) RestoreSnapshot(vm.Snapshot) {}

func (c *noOpRunContext) AccessAccount(vm.Address) vm.AccessStatus { return vm.ColdAccess }

func (c *noOpRunContext) AccessStorage(vm.Address, vm.Key) vm.AccessStatus { return vm.ColdAccess }

func (c *noOpRunContext) EmitLog(vm.Log) {}

func (c *noOpRunContext) GetLogs() []vm.Log { return nil }

func (c *noOpRunContext) GetBlockHash(int64) vm.Hash { return vm.Hash{} }

func (c *noOpRunContext) IsAddressInAccessList(vm.Address) bool { return false }

func (c *noOpRunContext) IsSlotInAccessList(vm.Address, vm.Key) (bool, bool) { return false, false }

func (c *noOpRunContext) HasSelfDestructed(vm.Address) bool { return false }

func (c *noOpRunContext) Call(vm.CallKind, vm.CallParameters) (vm.CallResult, error) {
	return vm.CallResult{}, nil
}
