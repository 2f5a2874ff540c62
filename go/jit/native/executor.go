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
	"math"
	"sync/atomic"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/tokamak-network/ethrex-sub001/go/jit"
	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

const maxCallDepth = 1024

// Status classifies the outcome of running a compiled frame.
type Status byte

const (
	// Success covers regular halts: STOP, RETURN, and SELFDESTRUCT.
	Success Status = iota
	// Revert is an explicit REVERT; remaining gas is returned, refunds are
	// discarded.
	Revert
	// Failed is any frame failure: out of gas, bad jump, invalid
	// instruction, stack violation, write protection. All gas is consumed.
	Failed
	// Suspended means the frame reached a sub-call or contract creation and
	// handed control back; it continues through Resume with the sub-call's
	// result.
	Suspended
)

// Outcome is the result of Run or Resume. For a Suspended outcome only the
// Token is meaningful; the frame's gas travels inside the token.
type Outcome struct {
	Status  Status
	GasLeft vm.Gas
	Refund  vm.Gas
	Output  vm.Data
	Token   *ResumeToken
}

// ResumeToken is the explicit continuation of a suspended frame. It may be
// consumed exactly once, by Resume, with the result of the pending call;
// any other use is a protocol violation that fails the enclosing
// transaction, never the process.
type ResumeToken struct {
	frame    *frame
	consumed atomic.Bool
}

// PendingCall exposes the sub-call the suspended frame is waiting for.
func (t *ResumeToken) PendingCall() (vm.CallKind, vm.CallParameters) {
	return t.frame.pendingKind, t.frame.pendingParams
}

// frame is the mutable execution state of one compiled-program invocation.
type frame struct {
	program *Program
	params  vm.Parameters
	host    *Host

	ip     int
	stack  *stack
	memory *memory
	gas    vm.Gas
	refund vm.Gas

	returnData []byte
	output     []byte

	pendingKind      vm.CallKind
	pendingParams    vm.CallParameters
	pendingRetOffset uint64
	pendingRetSize   uint64
	hasPending       bool
}

func (f *frame) useGas(amount vm.Gas) error {
	if f.gas < 0 || amount < 0 || f.gas < amount {
		f.gas = 0
		return errOutOfGas
	}
	f.gas -= amount
	return nil
}

func (f *frame) recipient() vm.Address {
	return f.params.Recipient
}

func (f *frame) isAtLeast(revision vm.Revision) bool {
	return f.program.revision >= revision
}

// Run executes a compiled program in the given frame context. Frame-level
// failures are reported through the outcome; a non-nil error indicates a
// fault of the execution engine itself and the dispatcher must fall back to
// the interpreter.
func Run(code Invocable, params vm.Parameters, host *Host) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Status: Failed}
			err = jit.ErrExecutionFault
		}
	}()

	program := code.program()
	if program == nil || host == nil {
		return Outcome{Status: Failed}, jit.ErrExecutionFault
	}
	if program.revision != params.Revision {
		return Outcome{Status: Failed}, jit.ErrExecutionFault
	}
	f := &frame{
		program: program,
		params:  params,
		host:    host,
		stack:   newStack(),
		memory:  &memory{},
		gas:     params.Gas,
	}
	return f.execute()
}

// Resume continues a suspended frame with the result of its pending
// sub-call: unused gas and refunds are credited, returned data lands in the
// caller-designated memory span, and the success word (or created address)
// is pushed before the instruction loop continues.
func Resume(token *ResumeToken, sub vm.CallResult) (outcome Outcome, err error) {
	if token == nil || token.frame == nil {
		return Outcome{Status: Failed}, jit.ErrResumeProtocolViolation
	}
	if !token.consumed.CompareAndSwap(false, true) {
		return Outcome{Status: Failed}, jit.ErrResumeProtocolViolation
	}
	f := token.frame
	if !f.hasPending {
		return Outcome{Status: Failed}, jit.ErrResumeProtocolViolation
	}
	f.hasPending = false

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Status: Failed}
			err = jit.ErrExecutionFault
		}
	}()

	f.gas += sub.GasLeft
	f.refund += sub.GasRefund

	switch f.pendingKind {
	case vm.Create, vm.Create2:
		if sub.Success {
			// Only a reverting creation exposes return data to the caller.
			f.returnData = nil
			f.stack.pushEmpty().SetBytes20(sub.CreatedAddress[:])
		} else {
			f.returnData = sub.Output
			f.stack.pushEmpty().Clear()
		}
	default:
		f.returnData = sub.Output
		if len(sub.Output) > 0 {
			n := f.pendingRetSize
			if l := uint64(len(sub.Output)); l < n {
				n = l
			}
			f.memory.write(f.pendingRetOffset, n, sub.Output)
		}
		setBool(f.stack.pushEmpty(), sub.Success)
	}
	return f.execute()
}

type stepResult byte

const (
	stepNext stepResult = iota
	stepStop
	stepReturn
	stepRevert
	stepSelfDestruct
	stepSuspend
)

func (f *frame) execute() (Outcome, error) {
	instructions := f.program.instructions
	for {
		if f.ip >= len(instructions) {
			return f.halt(stepStop)
		}
		idx := f.ip
		instr := &instructions[idx]

		bounds := stackBoundsTable[instr.opcode]
		if height := f.stack.len(); height < bounds.min {
			return f.fail(errStackUnderflow)
		} else if height > bounds.max {
			return f.fail(errStackOverflow)
		}
		if err := f.useGas(instr.gas); err != nil {
			return f.fail(err)
		}

		f.ip = idx + 1
		result, err := f.step(idx, instr)
		if err != nil {
			return f.fail(err)
		}
		if result == stepSuspend {
			return Outcome{Status: Suspended, Token: &ResumeToken{frame: f}}, nil
		}
		if result != stepNext {
			return f.halt(result)
		}
	}
}

func (f *frame) fail(err error) (Outcome, error) {
	f.stack.release()
	return Outcome{Status: Failed}, nil
}

func (f *frame) halt(result stepResult) (Outcome, error) {
	outcome := Outcome{GasLeft: f.gas}
	switch result {
	case stepStop, stepSelfDestruct:
		outcome.Status = Success
		outcome.Refund = f.refund
	case stepReturn:
		outcome.Status = Success
		outcome.Refund = f.refund
		outcome.Output = f.output
	case stepRevert:
		outcome.Status = Revert
		outcome.Output = f.output
	}
	f.stack.release()
	return outcome, nil
}

func (f *frame) step(idx int, instr *instruction) (stepResult, error) {
	stack := f.stack
	opcode := instr.opcode

	switch {
	case opcode.IsPush():
		stack.push(&instr.arg)
		return stepNext, nil
	case op.DUP1 <= opcode && opcode <= op.DUP16:
		stack.dup(int(opcode - op.DUP1))
		return stepNext, nil
	case op.SWAP1 <= opcode && opcode <= op.SWAP16:
		stack.swap(int(opcode-op.SWAP1) + 1)
		return stepNext, nil
	case op.LOG0 <= opcode && opcode <= op.LOG4:
		return stepNext, f.opLog(int(opcode - op.LOG0))
	}

	switch opcode {
	case op.STOP:
		return stepStop, nil
	case op.POP:
		stack.pop()
	case op.PUSH0:
		stack.pushEmpty().Clear()
	case op.JUMPDEST:
		// charged, nothing to do

	// arithmetic
	case op.ADD:
		a := stack.pop()
		b := stack.peek()
		b.Add(a, b)
	case op.MUL:
		a := stack.pop()
		b := stack.peek()
		b.Mul(a, b)
	case op.SUB:
		a := stack.pop()
		b := stack.peek()
		b.Sub(a, b)
	case op.DIV:
		a := stack.pop()
		b := stack.peek()
		b.Div(a, b)
	case op.SDIV:
		a := stack.pop()
		b := stack.peek()
		b.SDiv(a, b)
	case op.MOD:
		a := stack.pop()
		b := stack.peek()
		b.Mod(a, b)
	case op.SMOD:
		a := stack.pop()
		b := stack.peek()
		b.SMod(a, b)
	case op.ADDMOD:
		a := stack.pop()
		b := stack.pop()
		m := stack.peek()
		m.AddMod(a, b, m)
	case op.MULMOD:
		a := stack.pop()
		b := stack.pop()
		m := stack.peek()
		m.MulMod(a, b, m)
	case op.EXP:
		base := stack.pop()
		exponent := stack.peek()
		if err := f.useGas(expByteGas * vm.Gas((exponent.BitLen()+7)/8)); err != nil {
			return stepNext, err
		}
		exponent.Exp(base, exponent)
	case op.SIGNEXTEND:
		b := stack.pop()
		x := stack.peek()
		x.ExtendSign(x, b)

	// comparison and bit operations
	case op.LT:
		a := stack.pop()
		b := stack.peek()
		setBool(b, a.Lt(b))
	case op.GT:
		a := stack.pop()
		b := stack.peek()
		setBool(b, a.Gt(b))
	case op.SLT:
		a := stack.pop()
		b := stack.peek()
		setBool(b, a.Slt(b))
	case op.SGT:
		a := stack.pop()
		b := stack.peek()
		setBool(b, a.Sgt(b))
	case op.EQ:
		a := stack.pop()
		b := stack.peek()
		setBool(b, a.Eq(b))
	case op.ISZERO:
		top := stack.peek()
		setBool(top, top.IsZero())
	case op.AND:
		a := stack.pop()
		b := stack.peek()
		b.And(a, b)
	case op.OR:
		a := stack.pop()
		b := stack.peek()
		b.Or(a, b)
	case op.XOR:
		a := stack.pop()
		b := stack.peek()
		b.Xor(a, b)
	case op.NOT:
		top := stack.peek()
		top.Not(top)
	case op.BYTE:
		i := stack.pop()
		w := stack.peek()
		w.Byte(i)
	case op.SHL:
		shift := stack.pop()
		value := stack.peek()
		if shift.GtUint64(255) {
			value.Clear()
		} else {
			value.Lsh(value, uint(shift.Uint64()))
		}
	case op.SHR:
		shift := stack.pop()
		value := stack.peek()
		if shift.GtUint64(255) {
			value.Clear()
		} else {
			value.Rsh(value, uint(shift.Uint64()))
		}
	case op.SAR:
		shift := stack.pop()
		value := stack.peek()
		if shift.GtUint64(255) {
			if value.Sign() >= 0 {
				value.Clear()
			} else {
				value.SetAllOne()
			}
		} else {
			value.SRsh(value, uint(shift.Uint64()))
		}

	case op.SHA3:
		return stepNext, f.opSha3()

	// environment
	case op.ADDRESS:
		stack.pushEmpty().SetBytes20(f.params.Recipient[:])
	case op.BALANCE:
		top := stack.peek()
		address := vm.Address(top.Bytes20())
		if err := f.chargeColdAccount(address); err != nil {
			return stepNext, err
		}
		balance := f.host.getBalance(address)
		top.SetBytes32(balance[:])
	case op.ORIGIN:
		stack.pushEmpty().SetBytes20(f.params.Origin[:])
	case op.CALLER:
		stack.pushEmpty().SetBytes20(f.params.Sender[:])
	case op.CALLVALUE:
		stack.pushEmpty().SetBytes32(f.params.Value[:])
	case op.CALLDATALOAD:
		top := stack.peek()
		var data [32]byte
		if top.IsUint64() {
			offset := top.Uint64()
			if offset < uint64(len(f.params.Input)) {
				copy(data[:], f.params.Input[offset:])
			}
		}
		top.SetBytes32(data[:])
	case op.CALLDATASIZE:
		stack.pushEmpty().SetUint64(uint64(len(f.params.Input)))
	case op.CALLDATACOPY:
		return stepNext, f.dataCopy(f.params.Input)
	case op.CODESIZE:
		stack.pushEmpty().SetUint64(uint64(len(f.program.code)))
	case op.CODECOPY:
		return stepNext, f.dataCopy(f.program.code)
	case op.GASPRICE:
		stack.pushEmpty().SetBytes32(f.params.GasPrice[:])
	case op.EXTCODESIZE:
		top := stack.peek()
		address := vm.Address(top.Bytes20())
		if err := f.chargeColdAccount(address); err != nil {
			return stepNext, err
		}
		top.SetUint64(uint64(f.host.getCodeSize(address)))
	case op.EXTCODECOPY:
		return stepNext, f.opExtCodeCopy()
	case op.EXTCODEHASH:
		top := stack.peek()
		address := vm.Address(top.Bytes20())
		if err := f.chargeColdAccount(address); err != nil {
			return stepNext, err
		}
		hash := f.host.getCodeHash(address)
		top.SetBytes32(hash[:])
	case op.RETURNDATASIZE:
		stack.pushEmpty().SetUint64(uint64(len(f.returnData)))
	case op.RETURNDATACOPY:
		return stepNext, f.opReturnDataCopy()
	case op.BLOCKHASH:
		f.opBlockhash()
	case op.COINBASE:
		stack.pushEmpty().SetBytes20(f.params.Coinbase[:])
	case op.TIMESTAMP:
		stack.pushEmpty().SetUint64(uint64(f.params.Timestamp))
	case op.NUMBER:
		stack.pushEmpty().SetUint64(uint64(f.params.BlockNumber))
	case op.PREVRANDAO:
		stack.pushEmpty().SetBytes32(f.params.PrevRandao[:])
	case op.GASLIMIT:
		stack.pushEmpty().SetUint64(uint64(f.params.GasLimit))
	case op.CHAINID:
		stack.pushEmpty().SetBytes32(f.params.ChainID[:])
	case op.SELFBALANCE:
		balance := f.host.getBalance(f.params.Recipient)
		stack.pushEmpty().SetBytes32(balance[:])
	case op.BASEFEE:
		stack.pushEmpty().SetBytes32(f.params.BaseFee[:])
	case op.BLOBHASH:
		top := stack.peek()
		if top.IsUint64() && top.Uint64() < uint64(len(f.params.BlobHashes)) {
			top.SetBytes32(f.params.BlobHashes[top.Uint64()][:])
		} else {
			top.Clear()
		}
	case op.BLOBBASEFEE:
		stack.pushEmpty().SetBytes32(f.params.BlobBaseFee[:])

	// memory
	case op.MLOAD:
		top := stack.peek()
		if !top.IsUint64() {
			return stepNext, errGasUintOverflow
		}
		return stepNext, f.memory.readWord(top.Uint64(), top, f)
	case op.MSTORE:
		offset := stack.pop()
		value := stack.pop()
		if !offset.IsUint64() {
			return stepNext, errGasUintOverflow
		}
		return stepNext, f.memory.writeWord(offset.Uint64(), value, f)
	case op.MSTORE8:
		offset := stack.pop()
		value := stack.pop()
		if !offset.IsUint64() {
			return stepNext, errGasUintOverflow
		}
		return stepNext, f.memory.writeByte(offset.Uint64(), byte(value.Uint64()), f)
	case op.MSIZE:
		stack.pushEmpty().SetUint64(uint64(len(f.memory.store)))
	case op.MCOPY:
		return stepNext, f.opMcopy()

	// storage
	case op.SLOAD:
		return stepNext, f.opSload()
	case op.SSTORE:
		return stepNext, f.opSstore()
	case op.TLOAD:
		top := stack.peek()
		value := f.host.getTransientStorage(f.params.Recipient, vm.Key(top.Bytes32()))
		top.SetBytes32(value[:])
	case op.TSTORE:
		key := vm.Key(stack.pop().Bytes32())
		value := vm.Word(stack.pop().Bytes32())
		return stepNext, f.host.setTransientStorage(f.params.Recipient, key, value)

	// control flow
	case op.JUMP:
		return stepNext, f.jumpTo(stack.pop())
	case op.JUMPI:
		dest := stack.pop()
		condition := stack.pop()
		if condition.IsZero() {
			return stepNext, nil
		}
		return stepNext, f.jumpTo(dest)
	case op.PC:
		stack.pushEmpty().SetUint64(uint64(f.program.offsets[idx]))
	case op.GAS:
		stack.pushEmpty().SetUint64(uint64(f.gas))

	// calls and creation
	case op.CALL:
		return f.setupCall(vm.Call)
	case op.CALLCODE:
		return f.setupCall(vm.CallCode)
	case op.DELEGATECALL:
		return f.setupCall(vm.DelegateCall)
	case op.STATICCALL:
		return f.setupCall(vm.StaticCall)
	case op.CREATE:
		return f.setupCreate(vm.Create)
	case op.CREATE2:
		return f.setupCreate(vm.Create2)

	// termination
	case op.RETURN:
		return stepReturn, f.captureOutput()
	case op.REVERT:
		return stepRevert, f.captureOutput()
	case op.SELFDESTRUCT:
		return f.opSelfdestruct()

	default:
		return stepNext, errInvalidInstruction
	}
	return stepNext, nil
}

func setBool(target *uint256.Int, value bool) {
	if value {
		target.SetOne()
	} else {
		target.Clear()
	}
}

func keccak256(data []byte) vm.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var hash vm.Hash
	hasher.Sum(hash[0:0])
	return hash
}

// checkSizeOffset verifies that a memory region given by two stack values is
// addressable. Empty regions always are.
func checkSizeOffset(offset, size *uint256.Int) error {
	if size.IsZero() {
		return nil
	}
	if !size.IsUint64() || !offset.IsUint64() {
		return errGasUintOverflow
	}
	return nil
}

func (f *frame) opSha3() error {
	offset := f.stack.pop()
	size := f.stack.peek()
	if err := checkSizeOffset(offset, size); err != nil {
		return err
	}
	if err := f.useGas(sha3WordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	data, err := f.memory.slice(offset.Uint64(), size.Uint64(), f)
	if err != nil {
		return err
	}
	hash := keccak256(data)
	size.SetBytes32(hash[:])
	return nil
}

func (f *frame) opBlockhash() {
	top := f.stack.peek()
	current := f.params.BlockNumber
	if !top.IsUint64() || current <= 0 {
		top.Clear()
		return
	}
	number := top.Uint64()
	// Only the 256 most recent blocks, excluding the current one, are
	// addressable.
	if number >= uint64(current) || number+256 < uint64(current) {
		top.Clear()
		return
	}
	hash := f.host.getBlockHash(int64(number))
	top.SetBytes32(hash[:])
}

// dataCopy copies a section of the given data, zero padded past its end,
// into memory. It covers CALLDATACOPY and CODECOPY.
func (f *frame) dataCopy(data []byte) error {
	dest := f.stack.pop()
	offset := f.stack.pop()
	size := f.stack.pop()
	if err := checkSizeOffset(dest, size); err != nil {
		return err
	}
	if err := f.useGas(copyWordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	target, err := f.memory.slice(dest.Uint64(), size.Uint64(), f)
	if err != nil {
		return err
	}
	start := uint64(math.MaxUint64)
	if offset.IsUint64() {
		start = offset.Uint64()
	}
	copyWithPadding(target, data, start)
	return nil
}

func copyWithPadding(target, data []byte, offset uint64) {
	covered := 0
	if offset < uint64(len(data)) {
		covered = copy(target, data[offset:])
	}
	clear(target[covered:])
}

func (f *frame) opExtCodeCopy() error {
	address := vm.Address(f.stack.pop().Bytes20())
	dest := f.stack.pop()
	offset := f.stack.pop()
	size := f.stack.pop()
	if err := checkSizeOffset(dest, size); err != nil {
		return err
	}
	if err := f.useGas(copyWordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	if err := f.chargeColdAccount(address); err != nil {
		return err
	}
	target, err := f.memory.slice(dest.Uint64(), size.Uint64(), f)
	if err != nil {
		return err
	}
	start := uint64(math.MaxUint64)
	if offset.IsUint64() {
		start = offset.Uint64()
	}
	copyWithPadding(target, f.host.getCode(address), start)
	return nil
}

func (f *frame) opReturnDataCopy() error {
	dest := f.stack.pop()
	offset := f.stack.pop()
	size := f.stack.pop()

	// Reading past the end of the return data is a hard error, not zero
	// padding.
	if !offset.IsUint64() || !size.IsUint64() {
		return errReturnDataOutOfBounds
	}
	end := offset.Uint64() + size.Uint64()
	if end < offset.Uint64() || end > uint64(len(f.returnData)) {
		return errReturnDataOutOfBounds
	}

	if err := checkSizeOffset(dest, size); err != nil {
		return err
	}
	if err := f.useGas(copyWordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	target, err := f.memory.slice(dest.Uint64(), size.Uint64(), f)
	if err != nil {
		return err
	}
	copy(target, f.returnData[offset.Uint64():end])
	return nil
}

func (f *frame) opMcopy() error {
	dest := f.stack.pop()
	src := f.stack.pop()
	size := f.stack.pop()
	if size.IsZero() {
		return nil
	}
	if !dest.IsUint64() || !src.IsUint64() || !size.IsUint64() {
		return errGasUintOverflow
	}
	if err := f.useGas(copyWordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	if err := f.memory.expand(dest.Uint64(), size.Uint64(), f); err != nil {
		return err
	}
	if err := f.memory.expand(src.Uint64(), size.Uint64(), f); err != nil {
		return err
	}
	// The builtin copy handles overlapping regions.
	copy(f.memory.store[dest.Uint64():dest.Uint64()+size.Uint64()],
		f.memory.store[src.Uint64():src.Uint64()+size.Uint64()])
	return nil
}

func (f *frame) opSload() error {
	top := f.stack.peek()
	key := vm.Key(top.Bytes32())
	if f.isAtLeast(vm.R09_Berlin) {
		cost := warmStorageReadCost
		if f.host.accessStorage(f.params.Recipient, key) == vm.ColdAccess {
			cost = coldSloadCost
		}
		if err := f.useGas(cost); err != nil {
			return err
		}
	}
	value := f.host.getStorage(f.params.Recipient, key)
	top.SetBytes32(value[:])
	return nil
}

func (f *frame) opSstore() error {
	if f.params.Static {
		return errWriteProtection
	}
	key := vm.Key(f.stack.peek().Bytes32())
	value := vm.Word(f.stack.peekN(1).Bytes32())
	cost, err := f.sstoreGas(key, value)
	if err != nil {
		return err
	}
	if err := f.useGas(cost); err != nil {
		return err
	}
	f.stack.pop()
	f.stack.pop()
	return f.host.setStorage(f.params.Recipient, key, value)
}

func (f *frame) jumpTo(dest *uint256.Int) error {
	if !dest.IsUint64() {
		return errInvalidJump
	}
	target, found := f.program.jumpTable[int32(dest.Uint64())]
	if !found || dest.Uint64() > uint64(math.MaxInt32) {
		return errInvalidJump
	}
	f.ip = int(target)
	return nil
}

func (f *frame) opLog(n int) error {
	if f.params.Static {
		return errWriteProtection
	}
	offset := f.stack.pop()
	size := f.stack.pop()
	topics := make([]vm.Hash, n)
	for i := 0; i < n; i++ {
		topics[i] = vm.Hash(f.stack.pop().Bytes32())
	}
	if err := checkSizeOffset(offset, size); err != nil {
		return err
	}
	if err := f.useGas(logDataGas * vm.Gas(size.Uint64())); err != nil {
		return err
	}
	data, err := f.memory.slice(offset.Uint64(), size.Uint64(), f)
	if err != nil {
		return err
	}
	return f.host.emitLog(vm.Log{
		Address: f.params.Recipient,
		Topics:  topics,
		Data:    bytes.Clone(data),
	})
}

func (f *frame) captureOutput() error {
	offset := f.stack.pop()
	size := f.stack.pop()
	if err := checkSizeOffset(offset, size); err != nil {
		return err
	}
	data, err := f.memory.slice(offset.Uint64(), size.Uint64(), f)
	if err != nil {
		return err
	}
	f.output = data
	return nil
}

func (f *frame) opSelfdestruct() (stepResult, error) {
	if f.params.Static {
		return stepNext, errWriteProtection
	}
	beneficiary := vm.Address(f.stack.peek().Bytes20())
	if err := f.useGas(f.selfdestructGasCost(beneficiary)); err != nil {
		return stepNext, err
	}
	f.stack.pop()
	return stepSelfDestruct, f.host.selfDestruct(f.params.Recipient, beneficiary)
}

// chargeColdCallTarget charges for a cold access of the call target sitting
// at stack position 1, before the call operands are popped.
func (f *frame) chargeColdCallTarget() error {
	if f.isAtLeast(vm.R09_Berlin) {
		address := vm.Address(f.stack.peekN(1).Bytes20())
		if !f.host.isAddressWarm(address) {
			f.host.warmUpAccount(address)
			// The warm cost is part of the static schedule; only the cold
			// difference remains, charged before the forwarded gas is
			// computed.
			if err := f.useGas(coldAccountAccessCost - warmStorageReadCost); err != nil {
				return err
			}
		}
	}
	return nil
}

// setupCall performs everything a call instruction does up to the point
// where control would transfer, then suspends the frame with the pending
// sub-call recorded in the resume token.
func (f *frame) setupCall(kind vm.CallKind) (stepResult, error) {
	if err := f.chargeColdCallTarget(); err != nil {
		return stepNext, err
	}

	stack := f.stack
	var value uint256.Int
	requested := stack.pop()
	address := vm.Address(stack.pop().Bytes20())
	if kind == vm.Call || kind == vm.CallCode {
		value = *stack.pop()
	}
	inOffset := stack.pop()
	inSize := stack.pop()
	outOffset := stack.pop()
	outSize := stack.pop()

	if f.params.Static && kind == vm.Call && !value.IsZero() {
		return stepNext, errWriteProtection
	}

	if err := checkSizeOffset(inOffset, inSize); err != nil {
		return stepNext, err
	}
	if err := checkSizeOffset(outOffset, outSize); err != nil {
		return stepNext, err
	}
	if err := f.memory.expand(inOffset.Uint64(), inSize.Uint64(), f); err != nil {
		return stepNext, err
	}
	if err := f.memory.expand(outOffset.Uint64(), outSize.Uint64(), f); err != nil {
		return stepNext, err
	}

	if !value.IsZero() {
		if err := f.useGas(callValueTransferGas); err != nil {
			return stepNext, err
		}
		if kind == vm.Call && !f.host.accountExists(address) {
			if err := f.useGas(callNewAccountGas); err != nil {
				return stepNext, err
			}
		}
	}

	// All but 1/64th of the remaining gas, capped by the requested amount,
	// is forwarded; value bearing calls add the stipend on top.
	limit := forwardedCallGas(f.gas, requested)
	if err := f.useGas(limit); err != nil {
		return stepNext, err
	}
	endowment := limit
	if !value.IsZero() {
		endowment += callStipend
	}

	transferValue := vm.ValueFromUint256(&value)

	// A failed depth or balance check is not an error; the forwarded gas is
	// returned and the call reports a failure on the stack.
	balance := f.host.getBalance(f.params.Recipient)
	if f.params.Depth >= maxCallDepth || balance.Cmp(transferValue) < 0 {
		f.gas += endowment
		f.returnData = nil
		stack.pushEmpty().Clear()
		return stepNext, nil
	}

	input, err := f.memory.slice(inOffset.Uint64(), inSize.Uint64(), f)
	if err != nil {
		return stepNext, err
	}

	callParams := vm.CallParameters{
		Value: transferValue,
		Input: input,
		Gas:   endowment,
	}
	switch kind {
	case vm.Call, vm.StaticCall:
		callParams.Sender = f.params.Recipient
		callParams.Recipient = address
	case vm.CallCode:
		callParams.Sender = f.params.Recipient
		callParams.Recipient = f.params.Recipient
		callParams.CodeAddress = address
	case vm.DelegateCall:
		callParams.Sender = f.params.Sender
		callParams.Recipient = f.params.Recipient
		callParams.Value = f.params.Value
		callParams.CodeAddress = address
	}

	// Within a static context every plain call is a static call.
	if f.params.Static && kind == vm.Call {
		kind = vm.StaticCall
	}

	f.pendingKind = kind
	f.pendingParams = callParams
	f.pendingRetOffset = outOffset.Uint64()
	f.pendingRetSize = outSize.Uint64()
	f.hasPending = true
	return stepSuspend, nil
}

// setupCreate mirrors setupCall for CREATE and CREATE2. The init code itself
// always runs through the dispatcher, which routes it to the interpreter.
func (f *frame) setupCreate(kind vm.CallKind) (stepResult, error) {
	if f.params.Static {
		return stepNext, errWriteProtection
	}

	stack := f.stack
	value := *stack.pop()
	offset := stack.pop()
	size := stack.pop()
	salt := vm.Hash{}
	if kind == vm.Create2 {
		salt = vm.Hash(stack.pop().Bytes32())
	}

	if err := checkSizeOffset(offset, size); err != nil {
		return stepNext, err
	}

	if f.isAtLeast(vm.R12_Shanghai) {
		if size.Uint64() > maxInitCodeSize {
			return stepNext, errInitCodeTooLarge
		}
		words := vm.Gas(vm.SizeInWords(size.Uint64()))
		if err := f.useGas(initCodeWordGas * words); err != nil {
			return stepNext, err
		}
	}
	if kind == vm.Create2 {
		// The init code is hashed for the address derivation.
		words := vm.Gas(vm.SizeInWords(size.Uint64()))
		if err := f.useGas(create2HashWordGas * words); err != nil {
			return stepNext, err
		}
	}

	input, err := f.memory.slice(offset.Uint64(), size.Uint64(), f)
	if err != nil {
		return stepNext, err
	}

	limit := f.gas - f.gas/64
	if err := f.useGas(limit); err != nil {
		return stepNext, err
	}

	transferValue := vm.ValueFromUint256(&value)
	balance := f.host.getBalance(f.params.Recipient)
	if f.params.Depth >= maxCallDepth || balance.Cmp(transferValue) < 0 {
		f.gas += limit
		f.returnData = nil
		stack.pushEmpty().Clear()
		return stepNext, nil
	}

	f.pendingKind = kind
	f.pendingParams = vm.CallParameters{
		Sender: f.params.Recipient,
		Value:  transferValue,
		Input:  input,
		Gas:    limit,
	}
	f.pendingParams.Salt = salt
	f.pendingRetOffset = 0
	f.pendingRetSize = 0
	f.hasPending = true
	return stepSuspend, nil
}
