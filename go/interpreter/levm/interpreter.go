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
	"fmt"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

// status is the execution state of an interpreter run.
type status byte

const (
	statusRunning        status = iota // < all fine, ops are processed
	statusStopped                      // < execution stopped with a STOP
	statusReverted                     // < execution stopped with a REVERT
	statusReturned                     // < execution stopped with a RETURN
	statusSelfDestructed               // < execution stopped with a SELFDESTRUCT
	statusFailed                       // < execution stopped with a logic error
)

// context is the execution environment of a single interpreter run. It
// carries the input parameters, the contract code with its metadata, and
// the mutable execution state. A fresh context is created per execution.
type context struct {
	// Inputs
	params  vm.Parameters
	context vm.RunContext
	code    []byte
	meta    *codeMetadata

	// Execution state
	pc     int
	gas    vm.Gas
	refund vm.Gas
	stack  *stack
	memory *Memory
	jumped bool

	// Intermediate data
	returnData []byte // < the result of the last nested contract call

	shaCache *sha3HashCache
}

// useGas reduces the gas level by the given amount, reporting an error when
// the budget is exhausted. On error the caller must end the execution with a
// failure status.
func (c *context) useGas(amount vm.Gas) error {
	if c.gas < 0 || amount < 0 || c.gas < amount {
		return errOutOfGas
	}
	c.gas -= amount
	return nil
}

// isAtLeast returns true if the run executes under the given revision or a
// newer one.
func (c *context) isAtLeast(revision vm.Revision) bool {
	return c.params.Revision >= revision
}

func run(params vm.Parameters, meta *codeMetadata, shaCache *sha3HashCache) (vm.Result, error) {
	ctxt := context{
		params:   params,
		context:  params.Context,
		gas:      params.Gas,
		stack:    NewStack(),
		memory:   NewMemory(),
		code:     params.Code,
		meta:     meta,
		shaCache: shaCache,
	}
	defer ReturnStack(ctxt.stack)

	status, err := steps(&ctxt)
	if err != nil {
		// Logical execution violations consume all gas and fail the frame;
		// they are not interpreter-internal problems.
		status = statusFailed
	}
	return generateResult(status, &ctxt)
}

func generateResult(status status, ctxt *context) (vm.Result, error) {
	switch status {
	case statusStopped, statusSelfDestructed:
		return vm.Result{
			Success:   true,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}, nil
	case statusReturned:
		return vm.Result{
			Success:   true,
			Output:    ctxt.returnData,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}, nil
	case statusReverted:
		return vm.Result{
			Success: false,
			Output:  ctxt.returnData,
			GasLeft: ctxt.gas,
		}, nil
	case statusFailed:
		return vm.Result{
			Success: false,
		}, nil
	default:
		return vm.Result{}, fmt.Errorf("unexpected interpreter status: %v", status)
	}
}

// steps executes the contract code in the given context until it halts.
// Logical execution violations (out of gas, stack underflow, invalid jumps)
// are reported as errors and translated into a failed status by the caller.
func steps(c *context) (status, error) {
	staticGasPrices := getStaticGasPrices(c.params.Revision)

	status := statusRunning
	for status == statusRunning {
		if c.pc >= len(c.code) {
			return statusStopped, nil
		}

		opcode := op.OpCode(c.code[c.pc])

		if err := checkStackLimits(c.stack.len(), opcode); err != nil {
			return status, err
		}

		// Consume the static gas price before executing the instruction.
		if err := c.useGas(staticGasPrices[opcode]); err != nil {
			return status, err
		}

		var err error
		switch {
		case opcode.IsPush():
			opPush(c, opcode.PushDataSize())
		case op.DUP1 <= opcode && opcode <= op.DUP16:
			c.stack.dup(int(opcode - op.DUP1))
		case op.SWAP1 <= opcode && opcode <= op.SWAP16:
			c.stack.swap(int(opcode-op.SWAP1) + 1)
		case op.LOG0 <= opcode && opcode <= op.LOG4:
			err = opLog(c, int(opcode-op.LOG0))
		default:
			status, err = executeInstruction(c, opcode)
		}

		if err != nil {
			return status, err
		}

		if c.jumped {
			c.jumped = false
		} else {
			c.pc += opcode.Width()
		}
	}
	return status, nil
}

func executeInstruction(c *context, opcode op.OpCode) (status, error) {
	var err error
	status := statusRunning
	switch opcode {
	case op.STOP:
		status = statusStopped
	case op.ADD:
		opAdd(c)
	case op.MUL:
		opMul(c)
	case op.SUB:
		opSub(c)
	case op.DIV:
		opDiv(c)
	case op.SDIV:
		opSDiv(c)
	case op.MOD:
		opMod(c)
	case op.SMOD:
		opSMod(c)
	case op.ADDMOD:
		opAddMod(c)
	case op.MULMOD:
		opMulMod(c)
	case op.EXP:
		err = opExp(c)
	case op.SIGNEXTEND:
		opSignExtend(c)
	case op.LT:
		opLt(c)
	case op.GT:
		opGt(c)
	case op.SLT:
		opSlt(c)
	case op.SGT:
		opSgt(c)
	case op.EQ:
		opEq(c)
	case op.ISZERO:
		opIszero(c)
	case op.AND:
		opAnd(c)
	case op.OR:
		opOr(c)
	case op.XOR:
		opXor(c)
	case op.NOT:
		opNot(c)
	case op.BYTE:
		opByte(c)
	case op.SHL:
		opShl(c)
	case op.SHR:
		opShr(c)
	case op.SAR:
		opSar(c)
	case op.SHA3:
		err = opSha3(c)
	case op.ADDRESS:
		opAddress(c)
	case op.BALANCE:
		err = opBalance(c)
	case op.ORIGIN:
		opOrigin(c)
	case op.CALLER:
		opCaller(c)
	case op.CALLVALUE:
		opCallvalue(c)
	case op.CALLDATALOAD:
		opCallDataload(c)
	case op.CALLDATASIZE:
		opCallDatasize(c)
	case op.CALLDATACOPY:
		err = genericDataCopy(c, c.params.Input)
	case op.CODESIZE:
		opCodeSize(c)
	case op.CODECOPY:
		err = genericDataCopy(c, c.params.Code)
	case op.GASPRICE:
		opGasPrice(c)
	case op.EXTCODESIZE:
		err = opExtcodesize(c)
	case op.EXTCODECOPY:
		err = opExtCodeCopy(c)
	case op.RETURNDATASIZE:
		opReturnDataSize(c)
	case op.RETURNDATACOPY:
		err = opReturnDataCopy(c)
	case op.EXTCODEHASH:
		err = opExtcodehash(c)
	case op.BLOCKHASH:
		opBlockhash(c)
	case op.COINBASE:
		opCoinbase(c)
	case op.TIMESTAMP:
		opTimestamp(c)
	case op.NUMBER:
		opNumber(c)
	case op.PREVRANDAO:
		opPrevRandao(c)
	case op.GASLIMIT:
		opGasLimit(c)
	case op.CHAINID:
		opChainId(c)
	case op.SELFBALANCE:
		opSelfbalance(c)
	case op.BASEFEE:
		err = opBaseFee(c)
	case op.BLOBHASH:
		err = opBlobHash(c)
	case op.BLOBBASEFEE:
		err = opBlobBaseFee(c)
	case op.POP:
		c.stack.pop()
	case op.MLOAD:
		err = opMload(c)
	case op.MSTORE:
		err = opMstore(c)
	case op.MSTORE8:
		err = opMstore8(c)
	case op.SLOAD:
		err = opSload(c)
	case op.SSTORE:
		err = opSstore(c)
	case op.JUMP:
		err = opJump(c)
	case op.JUMPI:
		err = opJumpi(c)
	case op.PC:
		opPc(c)
	case op.MSIZE:
		opMsize(c)
	case op.GAS:
		opGas(c)
	case op.JUMPDEST:
		// nothing
	case op.TLOAD:
		err = opTload(c)
	case op.TSTORE:
		err = opTstore(c)
	case op.MCOPY:
		err = opMcopy(c)
	case op.PUSH0:
		err = opPush0(c)
	case op.CREATE:
		err = genericCreate(c, vm.Create)
	case op.CREATE2:
		err = genericCreate(c, vm.Create2)
	case op.CALL:
		err = genericCall(c, vm.Call)
	case op.CALLCODE:
		err = genericCall(c, vm.CallCode)
	case op.RETURN:
		err = opEndWithResult(c)
		status = statusReturned
	case op.DELEGATECALL:
		err = genericCall(c, vm.DelegateCall)
	case op.STATICCALL:
		err = genericCall(c, vm.StaticCall)
	case op.REVERT:
		err = opEndWithResult(c)
		status = statusReverted
	case op.SELFDESTRUCT:
		status, err = opSelfdestruct(c)
	default:
		err = errInvalidOpCode
	}
	return status, err
}

// checkStackLimits checks that the instruction will not make an
// out-of-bounds access with the current stack size.
func checkStackLimits(stackLen int, opcode op.OpCode) error {
	limits := precomputedStackLimits[opcode]
	if stackLen < limits.min {
		return errStackUnderflow
	}
	if stackLen > limits.max {
		return errStackOverflow
	}
	return nil
}

// stackLimits defines the stack boundaries of a single instruction.
type stackLimits struct {
	min int // the minimum stack size required
	max int // the maximum stack size allowed before execution
}

var precomputedStackLimits = func() (res [256]stackLimits) {
	for i := 0; i < 256; i++ {
		pops, pushes := stackUsage(op.OpCode(i))
		grow := pushes - pops
		if grow < 0 {
			grow = 0
		}
		res[i] = stackLimits{min: pops, max: maxStackSize - grow}
	}
	return res
}()

func stackUsage(opcode op.OpCode) (pops, pushes int) {
	if opcode.IsPush() || opcode == op.PUSH0 {
		return 0, 1
	}
	if op.DUP1 <= opcode && opcode <= op.DUP16 {
		return int(opcode-op.DUP1) + 1, int(opcode-op.DUP1) + 2
	}
	if op.SWAP1 <= opcode && opcode <= op.SWAP16 {
		n := int(opcode-op.SWAP1) + 2
		return n, n
	}
	if op.LOG0 <= opcode && opcode <= op.LOG4 {
		return int(opcode-op.LOG0) + 2, 0
	}
	switch opcode {
	case op.ADD, op.MUL, op.SUB, op.DIV, op.SDIV, op.MOD, op.SMOD,
		op.EXP, op.SIGNEXTEND, op.LT, op.GT, op.SLT, op.SGT, op.EQ,
		op.AND, op.OR, op.XOR, op.BYTE, op.SHL, op.SHR, op.SAR, op.SHA3:
		return 2, 1
	case op.ADDMOD, op.MULMOD:
		return 3, 1
	case op.ISZERO, op.NOT, op.BALANCE, op.CALLDATALOAD, op.EXTCODESIZE,
		op.EXTCODEHASH, op.BLOCKHASH, op.MLOAD, op.SLOAD, op.TLOAD,
		op.BLOBHASH:
		return 1, 1
	case op.ADDRESS, op.ORIGIN, op.CALLER, op.CALLVALUE, op.CALLDATASIZE,
		op.CODESIZE, op.GASPRICE, op.RETURNDATASIZE, op.COINBASE,
		op.TIMESTAMP, op.NUMBER, op.PREVRANDAO, op.GASLIMIT, op.CHAINID,
		op.SELFBALANCE, op.BASEFEE, op.BLOBBASEFEE, op.PC, op.MSIZE,
		op.GAS:
		return 0, 1
	case op.POP, op.JUMP, op.SELFDESTRUCT:
		return 1, 0
	case op.MSTORE, op.MSTORE8, op.SSTORE, op.TSTORE, op.JUMPI,
		op.RETURN, op.REVERT:
		return 2, 0
	case op.CALLDATACOPY, op.CODECOPY, op.RETURNDATACOPY, op.MCOPY:
		return 3, 0
	case op.EXTCODECOPY:
		return 4, 0
	case op.CREATE:
		return 3, 1
	case op.CREATE2:
		return 4, 1
	case op.CALL, op.CALLCODE:
		return 7, 1
	case op.DELEGATECALL, op.STATICCALL:
		return 6, 1
	}
	return 0, 0
}
