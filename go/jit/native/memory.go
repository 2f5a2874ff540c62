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
	"math"

	"github.com/holiman/uint256"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// memory is the byte-addressable scratch memory of one execution frame. It
// grows in 32-byte words; expansion is charged quadratically against the
// frame's gas before any growth happens.
type memory struct {
	store        []byte
	expansionFee vm.Gas
}

// largest memory size whose expansion cost still fits the gas computation
const maxMemoryExpansionSize = 0x1FFFFFFFE0

func toWordAlignedSize(size uint64) uint64 {
	aligned := vm.SizeInWords(size) * 32
	if size != 0 && aligned < size {
		return math.MaxUint64
	}
	return aligned
}

func (m *memory) expansionCost(size uint64) vm.Gas {
	if uint64(len(m.store)) >= size {
		return 0
	}
	size = toWordAlignedSize(size)
	if size > maxMemoryExpansionSize {
		return vm.Gas(math.MaxInt64)
	}
	words := vm.SizeInWords(size)
	return vm.Gas((words*words)/512+3*words) - m.expansionFee
}

// expand grows the memory to cover [offset, offset+size), charging the frame
// for the growth. Zero sizes never expand.
func (m *memory) expand(offset, size uint64, f *frame) error {
	if size == 0 {
		return nil
	}
	needed := offset + size
	if needed < offset { // overflow
		return errGasUintOverflow
	}
	if uint64(len(m.store)) < needed {
		if err := f.useGas(m.expansionCost(needed)); err != nil {
			return err
		}
		needed = toWordAlignedSize(needed)
		m.expansionFee += m.expansionCost(needed)
		m.store = append(m.store, make([]byte, needed-uint64(len(m.store)))...)
	}
	return nil
}

// slice returns size bytes at offset, expanding and charging as needed. The
// result aliases the internal store and is invalidated by further expansion.
func (m *memory) slice(offset, size uint64, f *frame) ([]byte, error) {
	if err := m.expand(offset, size, f); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	return m.store[offset : offset+size], nil
}

func (m *memory) readWord(offset uint64, target *uint256.Int, f *frame) error {
	data, err := m.slice(offset, 32, f)
	if err != nil {
		return err
	}
	target.SetBytes32(data)
	return nil
}

func (m *memory) writeWord(offset uint64, value *uint256.Int, f *frame) error {
	if err := m.expand(offset, 32, f); err != nil {
		return err
	}
	b := value.Bytes32()
	copy(m.store[offset:offset+32], b[:])
	return nil
}

func (m *memory) writeByte(offset uint64, value byte, f *frame) error {
	if err := m.expand(offset, 1, f); err != nil {
		return err
	}
	m.store[offset] = value
	return nil
}

// write copies data into pre-expanded memory.
func (m *memory) write(offset, size uint64, data []byte) {
	if size > 0 {
		copy(m.store[offset:offset+size], data)
	}
}

// copyTo copies memory content at offset into target, zero-padding reads
// past the end of the memory.
func (m *memory) copyTo(offset uint64, target []byte) {
	if uint64(len(m.store)) < offset {
		clear(target)
		return
	}
	covered := copy(target, m.store[offset:])
	clear(target[covered:])
}
