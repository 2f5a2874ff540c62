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
	"testing"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// fixedGasMeter is a gasMeter with a plain budget for memory tests.
type fixedGasMeter struct {
	gas vm.Gas
}

func (m *fixedGasMeter) useGas(amount vm.Gas) error {
	if m.gas < amount {
		return errOutOfGas
	}
	m.gas -= amount
	return nil
}

func TestMemory_ExpansionCostsGrowQuadratically(t *testing.T) {
	tests := []struct {
		size uint64
		cost vm.Gas
	}{
		{0, 0},
		{1, 3},
		{32, 3},
		{33, 6},
		{64, 6},
		{1024, 98},
		{32 * 1024, 5120},
	}
	for _, test := range tests {
		m := NewMemory()
		if got := m.getExpansionCosts(test.size); got != test.cost {
			t.Errorf("expansion to %d bytes: wanted cost %d, got %d", test.size, test.cost, got)
		}
	}
}

func TestMemory_ExpansionChargesOnlyTheDelta(t *testing.T) {
	m := NewMemory()
	meter := &fixedGasMeter{gas: 1000}
	if err := m.expandMemory(0, 32, meter); err != nil {
		t.Fatalf("expansion failed: %v", err)
	}
	if meter.gas != 1000-3 {
		t.Fatalf("wrong gas after first expansion: %d", meter.gas)
	}
	if err := m.expandMemory(32, 32, meter); err != nil {
		t.Fatalf("expansion failed: %v", err)
	}
	if meter.gas != 1000-6 {
		t.Errorf("wrong gas after second expansion: %d", meter.gas)
	}
	if m.length() != 64 {
		t.Errorf("wrong memory size: %d", m.length())
	}
}

func TestMemory_ExpansionFailsOnOffsetOverflow(t *testing.T) {
	m := NewMemory()
	meter := &fixedGasMeter{gas: 1000}
	maxUint64 := ^uint64(0)
	if err := m.expandMemory(maxUint64, 2, meter); err != errGasUintOverflow {
		t.Errorf("expected overflow error, got %v", err)
	}
}

func TestMemory_ZeroSizeAccessDoesNotExpand(t *testing.T) {
	m := NewMemory()
	meter := &fixedGasMeter{gas: 0}
	if err := m.expandMemory(1000, 0, meter); err != nil {
		t.Errorf("zero sized access should be free, got %v", err)
	}
	if m.length() != 0 {
		t.Errorf("memory should not have grown, has %d bytes", m.length())
	}
}

func TestMemory_CopyDataZeroPadsPastTheEnd(t *testing.T) {
	m := NewMemory()
	meter := &fixedGasMeter{gas: 1000}
	if err := m.expandMemory(0, 4, meter); err != nil {
		t.Fatalf("expansion failed: %v", err)
	}
	m.set(0, 4, []byte{1, 2, 3, 4})

	target := make([]byte, 8)
	m.copyData(2, target)
	want := []byte{3, 4, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(target[:2], want[:2]) || !bytes.Equal(target[2:], want[2:]) {
		t.Errorf("wrong copy result, wanted %x, got %x", want, target)
	}

	m.copyData(100, target)
	if !bytes.Equal(target, make([]byte, 8)) {
		t.Errorf("reading past the end should yield zeros, got %x", target)
	}
}
