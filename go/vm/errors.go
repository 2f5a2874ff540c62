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

import "fmt"

// ConstError is an error type for constant error values. Unlike errors
// created by errors.New, ConstError values can be declared as constants,
// compared for equality, and never allocate.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

// ErrUnsupportedRevision is returned by engines for runs targeting a
// revision they do not implement.
type ErrUnsupportedRevision struct {
	Revision Revision
}

func (e *ErrUnsupportedRevision) Error() string {
	return fmt.Sprintf("unsupported revision %d", e.Revision)
}
