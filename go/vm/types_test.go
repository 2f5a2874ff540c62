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

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
)

func TestNewValue_OrdersArgumentsMostSignificantFirst(t *testing.T) {
	tests := []struct {
		args []uint64
		want *uint256.Int
	}{
		{nil, uint256.NewInt(0)},
		{[]uint64{1}, uint256.NewInt(1)},
		{[]uint64{1, 0}, new(uint256.Int).Lsh(uint256.NewInt(1), 64)},
		{[]uint64{0, 0, 0, 42}, uint256.NewInt(42)},
	}
	for _, test := range tests {
		got := NewValue(test.args...).ToUint256()
		if got.Cmp(test.want) != 0 {
			t.Errorf("NewValue(%v): wanted %v, got %v", test.args, test.want, got)
		}
	}
}

func TestValue_AddAndSubWrapAround(t *testing.T) {
	max := Value{}
	for i := range max {
		max[i] = 0xFF
	}
	one := NewValue(1)

	if got := Add(max, one); got != NewValue() {
		t.Errorf("max+1 should wrap to zero, got %v", got)
	}
	if got := Sub(NewValue(), one); got != max {
		t.Errorf("0-1 should wrap to max, got %v", got)
	}
	if got := Add(NewValue(math.MaxUint64), one); got != NewValue(1, 0) {
		t.Errorf("carry was not propagated, got %v", got)
	}
}

func TestValue_TextMarshalingRoundTrips(t *testing.T) {
	value := NewValue(12345)
	text, err := value.MarshalText()
	if err != nil {
		t.Fatalf("failed to marshal value: %v", err)
	}
	var restored Value
	if err := restored.UnmarshalText(text); err != nil {
		t.Fatalf("failed to unmarshal value: %v", err)
	}
	if value != restored {
		t.Errorf("round trip changed value: %v != %v", value, restored)
	}
}

func TestAddress_UnmarshalTextRejectsInvalidInput(t *testing.T) {
	var addr Address
	if err := addr.UnmarshalText([]byte("not-hex")); err == nil {
		t.Errorf("missing 0x prefix should be rejected")
	}
	if err := addr.UnmarshalText([]byte("0x0102")); err == nil {
		t.Errorf("wrong length should be rejected")
	}
}

func TestCallKind_HasDistinctNames(t *testing.T) {
	kinds := []CallKind{Call, DelegateCall, StaticCall, CallCode, Create, Create2}
	seen := map[string]bool{}
	for _, kind := range kinds {
		name := kind.String()
		if name == "unknown" || seen[name] {
			t.Errorf("call kind %d has invalid or duplicate name %q", kind, name)
		}
		seen[name] = true
	}
}
