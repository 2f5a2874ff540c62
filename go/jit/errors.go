// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package jit

import "github.com/tokamak-network/ethrex-sub001/go/vm"

const (
	// ErrBytecodeTooLarge is reported for code exceeding the compilable size
	// limit. Such code is only ever interpreted.
	ErrBytecodeTooLarge = vm.ConstError("bytecode exceeds compilable size limit")

	// ErrCompilationFailed wraps any fault of the compiler backend. The code
	// remains executable through the interpreter.
	ErrCompilationFailed = vm.ConstError("compilation failed")

	// ErrExecutionFault is reported when a compiled execution detects an
	// inconsistency in its host environment. It is mapped to a revert at the
	// dispatch boundary.
	ErrExecutionFault = vm.ConstError("inconsistent host state during compiled execution")

	// ErrValidationMismatch is reported when a validated compiled execution
	// diverged from the interpreter.
	ErrValidationMismatch = vm.ConstError("compiled execution diverged from interpreter")

	// ErrResumeProtocolViolation is reported when a resume token is used
	// twice or against the wrong execution frame.
	ErrResumeProtocolViolation = vm.ConstError("resume token misuse")
)
