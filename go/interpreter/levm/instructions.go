// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package levm

import (
	"bytes"
	"math"

	"github.com/holiman/uint256"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

const (
	maxCallDepth = 1024 // Maximum nesting depth of contract calls.

	expByteGas  vm.Gas = 50 // Per byte of the exponent of an EXP operation.
	sha3WordGas vm.Gas = 6  // Per word hashed by a SHA3 operation.
	copyWordGas vm.Gas = 3  // Per word moved by the *COPY operations.
	logDataGas  vm.Gas = 8  // Per byte of data of a LOG operation.
)

// checkSizeOffsetUint64 checks that a memory region described by a pair of
// 256-bit stack values can be addressed. An empty region is always fine.
func checkSizeOffsetUint64(offset, size *uint256.Int) error {
	if size.IsZero() {
		return nil
	}
	if !size.IsUint64() || !offset.IsUint64() {
		return errGasUintOverflow
	}
	return nil
}

// --- stack and push operations ---

func opPush(c *context, n int) {
	z := c.stack.pushUndefined()
	start := c.pc + 1
	end := start + n
	if end <= len(c.code) {
		z.SetBytes(c.code[start:end])
		return
	}
	// Push data truncated by the end of the code is zero padded.
	data := make([]byte, n)
	copy(data, c.code[min(start, len(c.code)):])
	z.SetBytes(data)
}

func opPush0(c *context) error {
	if !c.isAtLeast(vm.R12_Shanghai) {
		return errInvalidOpCode
	}
	c.stack.pushUndefined().Clear()
	return nil
}

// --- arithmetic operations ---

func opAdd(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Add(a, b)
}

func opMul(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mul(a, b)
}

func opSub(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Sub(a, b)
}

func opDiv(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Div(a, b)
}

func opSDiv(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.SDiv(a, b)
}

func opMod(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mod(a, b)
}

func opSMod(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.SMod(a, b)
}

func opAddMod(c *context) {
	a := c.stack.pop()
	b := c.stack.pop()
	m := c.stack.peek()
	m.AddMod(a, b, m)
}

func opMulMod(c *context) {
	a := c.stack.pop()
	b := c.stack.pop()
	m := c.stack.peek()
	m.MulMod(a, b, m)
}

func opExp(c *context) error {
	base := c.stack.pop()
	exponent := c.stack.peek()
	if err := c.useGas(expByteGas * vm.Gas((exponent.BitLen()+7)/8)); err != nil {
		return err
	}
	exponent.Exp(base, exponent)
	return nil
}

func opSignExtend(c *context) {
	b := c.stack.pop()
	x := c.stack.peek()
	x.ExtendSign(x, b)
}

// --- comparison and bitwise operations ---

func opLt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Lt(b))
}

func opGt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Gt(b))
}

func opSlt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Slt(b))
}

func opSgt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Sgt(b))
}

func opEq(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	setBool(b, a.Eq(b))
}

func opIszero(c *context) {
	top := c.stack.peek()
	setBool(top, top.IsZero())
}

func setBool(trg *uint256.Int, value bool) {
	if value {
		trg.SetOne()
	} else {
		trg.Clear()
	}
}

func opAnd(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.And(a, b)
}

func opOr(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Or(a, b)
}

func opXor(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Xor(a, b)
}

func opNot(c *context) {
	top := c.stack.peek()
	top.Not(top)
}

func opByte(c *context) {
	i := c.stack.pop()
	w := c.stack.peek()
	w.Byte(i)
}

func opShl(c *context) {
	shift := c.stack.pop()
	value := c.stack.peek()
	if shift.GtUint64(255) {
		value.Clear()
		return
	}
	value.Lsh(value, uint(shift.Uint64()))
}

func opShr(c *context) {
	shift := c.stack.pop()
	value := c.stack.peek()
	if shift.GtUint64(255) {
		value.Clear()
		return
	}
	value.Rsh(value, uint(shift.Uint64()))
}

func opSar(c *context) {
	shift := c.stack.pop()
	value := c.stack.peek()
	if shift.GtUint64(255) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return
	}
	value.SRsh(value, uint(shift.Uint64()))
}

func opSha3(c *context) error {
	offset := c.stack.pop()
	size := c.stack.peek()
	if err := checkSizeOffsetUint64(offset, size); err != nil {
		return err
	}
	if err := c.useGas(sha3WordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	data, err := c.memory.getSlice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}
	var hash vm.Hash
	if c.shaCache != nil {
		hash = c.shaCache.hash(data)
	} else {
		hash = Keccak256(data)
	}
	size.SetBytes32(hash[:])
	return nil
}

// --- environment operations ---

func opAddress(c *context) {
	c.stack.pushUndefined().SetBytes20(c.params.Recipient[:])
}

func opBalance(c *context) error {
	top := c.stack.peek()
	address := vm.Address(top.Bytes20())
	if err := gasEip2929AccountCheck(c, address); err != nil {
		return err
	}
	balance := c.context.GetBalance(address)
	top.SetBytes32(balance[:])
	return nil
}

func opOrigin(c *context) {
	c.stack.pushUndefined().SetBytes20(c.params.Origin[:])
}

func opCaller(c *context) {
	c.stack.pushUndefined().SetBytes20(c.params.Sender[:])
}

func opCallvalue(c *context) {
	c.stack.pushUndefined().SetBytes32(c.params.Value[:])
}

func opCallDataload(c *context) {
	top := c.stack.peek()
	var data [32]byte
	if top.IsUint64() {
		offset := top.Uint64()
		if offset < uint64(len(c.params.Input)) {
			copy(data[:], c.params.Input[offset:])
		}
	}
	top.SetBytes32(data[:])
}

func opCallDatasize(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(len(c.params.Input)))
}

func opCodeSize(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(len(c.code)))
}

func opGasPrice(c *context) {
	c.stack.pushUndefined().SetBytes32(c.params.GasPrice[:])
}

func opExtcodesize(c *context) error {
	top := c.stack.peek()
	address := vm.Address(top.Bytes20())
	if err := gasEip2929AccountCheck(c, address); err != nil {
		return err
	}
	top.SetUint64(uint64(c.context.GetCodeSize(address)))
	return nil
}

func opExtcodehash(c *context) error {
	top := c.stack.peek()
	address := vm.Address(top.Bytes20())
	if err := gasEip2929AccountCheck(c, address); err != nil {
		return err
	}
	hash := c.context.GetCodeHash(address)
	top.SetBytes32(hash[:])
	return nil
}

func opReturnDataSize(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(len(c.returnData)))
}

func opBlockhash(c *context) {
	top := c.stack.peek()
	current := c.params.BlockNumber
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
	hash := c.context.GetBlockHash(int64(number))
	top.SetBytes32(hash[:])
}

func opCoinbase(c *context) {
	c.stack.pushUndefined().SetBytes20(c.params.Coinbase[:])
}

func opTimestamp(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.params.Timestamp))
}

func opNumber(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.params.BlockNumber))
}

func opPrevRandao(c *context) {
	c.stack.pushUndefined().SetBytes32(c.params.PrevRandao[:])
}

func opGasLimit(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.params.GasLimit))
}

func opChainId(c *context) {
	c.stack.pushUndefined().SetBytes32(c.params.ChainID[:])
}

func opSelfbalance(c *context) {
	balance := c.context.GetBalance(c.params.Recipient)
	c.stack.pushUndefined().SetBytes32(balance[:])
}

func opBaseFee(c *context) error {
	if !c.isAtLeast(vm.R10_London) {
		return errInvalidOpCode
	}
	c.stack.pushUndefined().SetBytes32(c.params.BaseFee[:])
	return nil
}

func opBlobHash(c *context) error {
	if !c.isAtLeast(vm.R13_Cancun) {
		return errInvalidOpCode
	}
	top := c.stack.peek()
	if top.IsUint64() && top.Uint64() < uint64(len(c.params.BlobHashes)) {
		top.SetBytes32(c.params.BlobHashes[top.Uint64()][:])
	} else {
		top.Clear()
	}
	return nil
}

func opBlobBaseFee(c *context) error {
	if !c.isAtLeast(vm.R13_Cancun) {
		return errInvalidOpCode
	}
	c.stack.pushUndefined().SetBytes32(c.params.BlobBaseFee[:])
	return nil
}

// --- memory operations ---

func opMload(c *context) error {
	top := c.stack.peek()
	if !top.IsUint64() {
		return errGasUintOverflow
	}
	return c.memory.readWord(top.Uint64(), top, c)
}

func opMstore(c *context) error {
	offset := c.stack.pop()
	value := c.stack.pop()
	if !offset.IsUint64() {
		return errGasUintOverflow
	}
	return c.memory.setWord(offset.Uint64(), value, c)
}

func opMstore8(c *context) error {
	offset := c.stack.pop()
	value := c.stack.pop()
	if !offset.IsUint64() {
		return errGasUintOverflow
	}
	return c.memory.setByte(offset.Uint64(), byte(value.Uint64()), c)
}

func opMsize(c *context) {
	c.stack.pushUndefined().SetUint64(c.memory.length())
}

func opMcopy(c *context) error {
	if !c.isAtLeast(vm.R13_Cancun) {
		return errInvalidOpCode
	}
	dest := c.stack.pop()
	src := c.stack.pop()
	size := c.stack.pop()
	if size.IsZero() {
		return nil
	}
	if !dest.IsUint64() || !src.IsUint64() || !size.IsUint64() {
		return errGasUintOverflow
	}
	if err := c.useGas(copyWordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	if err := c.memory.expandMemory(dest.Uint64(), size.Uint64(), c); err != nil {
		return err
	}
	if err := c.memory.expandMemory(src.Uint64(), size.Uint64(), c); err != nil {
		return err
	}
	// The builtin copy handles overlapping regions.
	copy(c.memory.store[dest.Uint64():dest.Uint64()+size.Uint64()],
		c.memory.store[src.Uint64():src.Uint64()+size.Uint64()])
	return nil
}

// --- data copy operations ---

// genericDataCopy copies a section of the given data, zero padded past its
// end, into memory. It covers CALLDATACOPY and CODECOPY.
func genericDataCopy(c *context, data []byte) error {
	dest := c.stack.pop()
	offset := c.stack.pop()
	size := c.stack.pop()
	if err := checkSizeOffsetUint64(dest, size); err != nil {
		return err
	}
	if err := c.useGas(copyWordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	target, err := c.memory.getSlice(dest.Uint64(), size.Uint64(), c)
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
	clearSlice(target[covered:])
}

func opExtCodeCopy(c *context) error {
	address := vm.Address(c.stack.pop().Bytes20())
	dest := c.stack.pop()
	offset := c.stack.pop()
	size := c.stack.pop()
	if err := checkSizeOffsetUint64(dest, size); err != nil {
		return err
	}
	if err := c.useGas(copyWordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	if err := gasEip2929AccountCheck(c, address); err != nil {
		return err
	}
	target, err := c.memory.getSlice(dest.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}
	start := uint64(math.MaxUint64)
	if offset.IsUint64() {
		start = offset.Uint64()
	}
	copyWithPadding(target, c.context.GetCode(address), start)
	return nil
}

func opReturnDataCopy(c *context) error {
	dest := c.stack.pop()
	offset := c.stack.pop()
	size := c.stack.pop()

	// Unlike the other copy operations, reading past the end of the return
	// data is a hard error, not zero padding.
	if !offset.IsUint64() || !size.IsUint64() {
		return errReturnDataOutOfBounds
	}
	end := offset.Uint64() + size.Uint64()
	if end < offset.Uint64() || end > uint64(len(c.returnData)) {
		return errReturnDataOutOfBounds
	}

	if err := checkSizeOffsetUint64(dest, size); err != nil {
		return err
	}
	if err := c.useGas(copyWordGas * vm.Gas(vm.SizeInWords(size.Uint64()))); err != nil {
		return err
	}
	target, err := c.memory.getSlice(dest.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}
	copy(target, c.returnData[offset.Uint64():end])
	return nil
}

// --- storage operations ---

func opSload(c *context) error {
	top := c.stack.peek()
	key := vm.Key(top.Bytes32())
	if c.isAtLeast(vm.R09_Berlin) {
		cost := WarmStorageReadCostEIP2929
		if c.context.AccessStorage(c.params.Recipient, key) == vm.ColdAccess {
			cost = ColdSloadCostEIP2929
		}
		if err := c.useGas(cost); err != nil {
			return err
		}
	}
	value := c.context.GetStorage(c.params.Recipient, key)
	top.SetBytes32(value[:])
	return nil
}

func opSstore(c *context) error {
	if c.params.Static {
		return errWriteProtection
	}
	cost, err := gasSStore(c)
	if err != nil {
		return err
	}
	if err := c.useGas(cost); err != nil {
		return err
	}
	key := vm.Key(c.stack.pop().Bytes32())
	value := vm.Word(c.stack.pop().Bytes32())
	c.context.SetStorage(c.params.Recipient, key, value)
	return nil
}

func opTload(c *context) error {
	if !c.isAtLeast(vm.R13_Cancun) {
		return errInvalidOpCode
	}
	top := c.stack.peek()
	value := c.context.GetTransientStorage(c.params.Recipient, vm.Key(top.Bytes32()))
	top.SetBytes32(value[:])
	return nil
}

func opTstore(c *context) error {
	if !c.isAtLeast(vm.R13_Cancun) {
		return errInvalidOpCode
	}
	if c.params.Static {
		return errWriteProtection
	}
	key := vm.Key(c.stack.pop().Bytes32())
	value := vm.Word(c.stack.pop().Bytes32())
	c.context.SetTransientStorage(c.params.Recipient, key, value)
	return nil
}

// --- control flow operations ---

func opJump(c *context) error {
	dest := c.stack.pop()
	return jumpTo(c, dest)
}

func opJumpi(c *context) error {
	dest := c.stack.pop()
	condition := c.stack.pop()
	if condition.IsZero() {
		return nil
	}
	return jumpTo(c, dest)
}

func jumpTo(c *context, dest *uint256.Int) error {
	if !dest.IsUint64() || dest.Uint64() >= uint64(len(c.code)) {
		return errInvalidJump
	}
	target := int(dest.Uint64())
	if !c.meta.jumpDests.isSet(target) {
		return errInvalidJump
	}
	c.pc = target
	c.jumped = true
	return nil
}

func opPc(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.pc))
}

func opGas(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.gas))
}

// --- logging ---

func opLog(c *context, n int) error {
	if c.params.Static {
		return errWriteProtection
	}
	offset := c.stack.pop()
	size := c.stack.pop()
	topics := make([]vm.Hash, n)
	for i := 0; i < n; i++ {
		topics[i] = vm.Hash(c.stack.pop().Bytes32())
	}
	if err := checkSizeOffsetUint64(offset, size); err != nil {
		return err
	}
	if err := c.useGas(logDataGas * vm.Gas(size.Uint64())); err != nil {
		return err
	}
	data, err := c.memory.getSlice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}
	c.context.EmitLog(vm.Log{
		Address: c.params.Recipient,
		Topics:  topics,
		Data:    bytes.Clone(data),
	})
	return nil
}

// --- calls and contract creation ---

func genericCall(c *context, kind vm.CallKind) error {
	if _, _, err := addressInAccessList(c); err != nil {
		return err
	}

	stack := c.stack
	var value uint256.Int
	gasU := stack.pop()
	address := vm.Address(stack.pop().Bytes20())
	if kind == vm.Call || kind == vm.CallCode {
		value = *stack.pop()
	}
	inOffset := stack.pop()
	inSize := stack.pop()
	outOffset := stack.pop()
	outSize := stack.pop()

	if c.params.Static && kind == vm.Call && !value.IsZero() {
		return errWriteProtection
	}

	// Expand the memory to cover the argument and result areas, charging the
	// expansion fees.
	if err := checkSizeOffsetUint64(inOffset, inSize); err != nil {
		return err
	}
	if err := checkSizeOffsetUint64(outOffset, outSize); err != nil {
		return err
	}
	if err := c.memory.expandMemory(inOffset.Uint64(), inSize.Uint64(), c); err != nil {
		return err
	}
	if err := c.memory.expandMemory(outOffset.Uint64(), outSize.Uint64(), c); err != nil {
		return err
	}

	// Charge the value transfer costs.
	if !value.IsZero() {
		if err := c.useGas(CallValueTransferGas); err != nil {
			return err
		}
		if kind == vm.Call && !c.context.AccountExists(address) {
			if err := c.useGas(CallNewAccountGas); err != nil {
				return err
			}
		}
	}

	// All but 1/64th of the remaining gas, capped by the requested amount,
	// is forwarded to the nested call. A value bearing call additionally
	// receives the call stipend on top.
	limit := callGas(c.gas, 0, gasU)
	if err := c.useGas(limit); err != nil {
		return err
	}
	endowment := limit
	if !value.IsZero() {
		endowment += CallStipend
	}

	transferValue := vm.ValueFromUint256(&value)

	// A failed depth or balance check is not an error; the forwarded gas is
	// returned and the call reports a failure on the stack.
	balance := c.context.GetBalance(c.params.Recipient)
	if c.params.Depth >= maxCallDepth || balance.Cmp(transferValue) < 0 {
		c.gas += endowment
		c.returnData = nil
		stack.pushUndefined().Clear()
		return nil
	}

	input, err := c.memory.getSlice(inOffset.Uint64(), inSize.Uint64(), c)
	if err != nil {
		return err
	}

	callParams := vm.CallParameters{
		Value: transferValue,
		Input: input,
		Gas:   endowment,
	}
	switch kind {
	case vm.Call, vm.StaticCall:
		callParams.Sender = c.params.Recipient
		callParams.Recipient = address
	case vm.CallCode:
		callParams.Sender = c.params.Recipient
		callParams.Recipient = c.params.Recipient
		callParams.CodeAddress = address
	case vm.DelegateCall:
		callParams.Sender = c.params.Sender
		callParams.Recipient = c.params.Recipient
		callParams.Value = c.params.Value
		callParams.CodeAddress = address
	}

	// Within a static context every plain call is a static call.
	if c.params.Static && kind == vm.Call {
		kind = vm.StaticCall
	}

	result, err := c.context.Call(kind, callParams)
	if err != nil {
		return err
	}

	c.returnData = result.Output
	c.gas += result.GasLeft
	c.refund += result.GasRefund

	if len(result.Output) > 0 {
		n := outSize.Uint64()
		if l := uint64(len(result.Output)); l < n {
			n = l
		}
		c.memory.set(outOffset.Uint64(), n, result.Output)
	}

	setBool(stack.pushUndefined(), result.Success)
	return nil
}

func genericCreate(c *context, kind vm.CallKind) error {
	if c.params.Static {
		return errWriteProtection
	}

	stack := c.stack
	value := *stack.pop()
	offset := stack.pop()
	size := stack.pop()
	salt := vm.Hash{}
	if kind == vm.Create2 {
		salt = vm.Hash(stack.pop().Bytes32())
	}

	if err := checkSizeOffsetUint64(offset, size); err != nil {
		return err
	}

	if c.isAtLeast(vm.R12_Shanghai) {
		if size.Uint64() > MaxInitCodeSizeEIP3860 {
			return errInitCodeTooLarge
		}
		words := vm.Gas(vm.SizeInWords(size.Uint64()))
		if err := c.useGas(InitCodeWordGasEIP3860 * words); err != nil {
			return err
		}
	}
	if kind == vm.Create2 {
		// The init code is hashed for the address derivation.
		words := vm.Gas(vm.SizeInWords(size.Uint64()))
		if err := c.useGas(Create2HashWordGas * words); err != nil {
			return err
		}
	}

	input, err := c.memory.getSlice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}

	// All but 1/64th of the remaining gas is forwarded to the init code.
	limit := c.gas - c.gas/64
	if err := c.useGas(limit); err != nil {
		return err
	}

	transferValue := vm.ValueFromUint256(&value)
	balance := c.context.GetBalance(c.params.Recipient)
	if c.params.Depth >= maxCallDepth || balance.Cmp(transferValue) < 0 {
		c.gas += limit
		c.returnData = nil
		stack.pushUndefined().Clear()
		return nil
	}

	result, err := c.context.Call(kind, vm.CallParameters{
		Sender: c.params.Recipient,
		Value:  transferValue,
		Input:  input,
		Gas:    limit,
		Salt:   salt,
	})
	if err != nil {
		return err
	}

	c.gas += result.GasLeft
	c.refund += result.GasRefund

	if result.Success {
		// Only a reverting creation exposes return data to the caller.
		c.returnData = nil
		stack.pushUndefined().SetBytes20(result.CreatedAddress[:])
	} else {
		c.returnData = result.Output
		stack.pushUndefined().Clear()
	}
	return nil
}

// --- termination ---

// opEndWithResult captures the memory section referenced by the two top
// stack values as the result of the frame. It covers RETURN and REVERT.
func opEndWithResult(c *context) error {
	offset := c.stack.pop()
	size := c.stack.pop()
	if err := checkSizeOffsetUint64(offset, size); err != nil {
		return err
	}
	data, err := c.memory.getSlice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}
	c.returnData = data
	return nil
}

func opSelfdestruct(c *context) (status, error) {
	if c.params.Static {
		return statusRunning, errWriteProtection
	}
	if err := c.useGas(gasSelfdestruct(c)); err != nil {
		return statusRunning, err
	}
	beneficiary := vm.Address(c.stack.pop().Bytes20())
	c.context.SelfDestruct(c.params.Recipient, beneficiary)
	return statusSelfDestructed, nil
}
