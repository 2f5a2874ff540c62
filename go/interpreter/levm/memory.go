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
	"math"

	"github.com/holiman/uint256"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

// Memory is the byte-addressable scratch memory of a single execution frame.
// It grows in 32-byte words and charges quadratic expansion costs against
// the gas budget of the provided gas meter.
type Memory struct {
	store             []byte
	currentMemoryCost vm.Gas
}

func NewMemory() *Memory {
	return &Memory{}
}

// gasMeter is the slice of an execution context the memory needs to charge
// expansion costs.
type gasMeter interface {
	useGas(amount vm.Gas) error
}

// maxMemoryExpansionSize is the largest memory size for which expansion
// costs do not overflow the gas computation.
const maxMemoryExpansionSize = 0x1FFFFFFFE0

func toValidMemorySize(size uint64) uint64 {
	fullWordsSize := vm.SizeInWords(size) * 32
	if size != 0 && fullWordsSize < size {
		return math.MaxUint64
	}
	return fullWordsSize
}

func (m *Memory) getExpansionCosts(size uint64) vm.Gas {
	if m.length() >= size {
		return 0
	}
	size = toValidMemorySize(size)

	if size > maxMemoryExpansionSize {
		return vm.Gas(math.MaxInt64)
	}

	words := vm.SizeInWords(size)
	newCosts := vm.Gas((words*words)/512 + (3 * words))
	return newCosts - m.currentMemoryCost
}

// expandMemory grows the memory to cover [offset, offset+size), charging the
// expansion fee against the given meter. A zero size never expands. An
// overflow of offset+size or an insufficient gas budget is reported as an
// error to be handled by the caller.
func (m *Memory) expandMemory(offset, size uint64, meter gasMeter) error {
	if size == 0 {
		return nil
	}
	needed := offset + size
	if needed < offset { // overflow
		return errGasUintOverflow
	}
	if m.length() < needed {
		fee := m.getExpansionCosts(needed)
		if err := meter.useGas(fee); err != nil {
			return err
		}
		needed = toValidMemorySize(needed)
		m.currentMemoryCost += m.getExpansionCosts(needed)
		m.store = append(m.store, make([]byte, needed-m.length())...)
	}
	return nil
}

func (m *Memory) length() uint64 {
	return uint64(len(m.store))
}

func (m *Memory) setByte(offset uint64, value byte, meter gasMeter) error {
	if err := m.expandMemory(offset, 1, meter); err != nil {
		return err
	}
	m.store[offset] = value
	return nil
}

func (m *Memory) setWord(offset uint64, value *uint256.Int, meter gasMeter) error {
	if err := m.expandMemory(offset, 32, meter); err != nil {
		return err
	}
	b := value.Bytes32()
	copy(m.store[offset:offset+32], b[:])
	return nil
}

// set writes the given data into pre-expanded memory.
func (m *Memory) set(offset, size uint64, value []byte) {
	if size > 0 {
		copy(m.store[offset:offset+size], value)
	}
}

// getSlice obtains a slice of size bytes from the memory at the given
// offset, expanding (and charging) as needed. The returned slice aliases the
// memory's internal store; it is invalidated by any subsequent operation
// that may resize the memory.
func (m *Memory) getSlice(offset, size uint64, meter gasMeter) ([]byte, error) {
	if err := m.expandMemory(offset, size, meter); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	return m.store[offset : offset+size], nil
}

// readWord reads a 32-byte word at the given offset into the target,
// expanding and charging as needed.
func (m *Memory) readWord(offset uint64, target *uint256.Int, meter gasMeter) error {
	data, err := m.getSlice(offset, 32, meter)
	if err != nil {
		return err
	}
	target.SetBytes32(data)
	return nil
}

// copyData copies memory content starting at the given offset into the
// target, zero-padding past the end of the memory.
func (m *Memory) copyData(offset uint64, target []byte) {
	if m.length() < offset {
		clearSlice(target)
		return
	}
	covered := copy(target, m.store[offset:])
	clearSlice(target[covered:])
}

func clearSlice(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
