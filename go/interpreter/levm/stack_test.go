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
	"testing"

	"github.com/holiman/uint256"
)

func TestStack_PushPopRoundTrip(t *testing.T) {
	s := NewStack()
	defer ReturnStack(s)

	for i := uint64(1); i <= 10; i++ {
		s.push(uint256.NewInt(i))
	}
	if s.len() != 10 {
		t.Fatalf("wrong stack size: %d", s.len())
	}
	for i := uint64(10); i >= 1; i-- {
		if got := s.pop(); !got.Eq(uint256.NewInt(i)) {
			t.Fatalf("wrong value popped, wanted %d, got %v", i, got)
		}
	}
}

func TestStack_DupAndSwap(t *testing.T) {
	s := NewStack()
	defer ReturnStack(s)

	s.push(uint256.NewInt(1))
	s.push(uint256.NewInt(2))

	s.dup(1) // duplicates the 1
	if got := s.peek(); !got.Eq(uint256.NewInt(1)) {
		t.Fatalf("dup produced %v", got)
	}
	s.push(uint256.NewInt(3))

	s.swap(3) // swaps the top with the bottom
	if got := s.peek(); !got.Eq(uint256.NewInt(1)) {
		t.Errorf("wrong top after swap, got %v", got)
	}
	if got := s.peekN(3); !got.Eq(uint256.NewInt(3)) {
		t.Errorf("swap did not move the top value down, got %v", got)
	}
}

func TestStack_ReturnedStacksAreEmpty(t *testing.T) {
	s := NewStack()
	s.push(uint256.NewInt(42))
	ReturnStack(s)

	s = NewStack()
	defer ReturnStack(s)
	if s.len() != 0 {
		t.Errorf("reused stack is not empty, has %d elements", s.len())
	}
}
