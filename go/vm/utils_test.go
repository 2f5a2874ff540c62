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
)

func TestGetStorageStatus_CoversAllTransitions(t *testing.T) {
	x := Word{1}
	y := Word{2}
	z := Word{3}
	o := Word{}

	tests := []struct {
		original, current, new Word
		want                   StorageStatus
	}{
		{o, o, o, StorageAssigned},
		{x, x, x, StorageAssigned},
		{o, o, z, StorageAdded},
		{x, x, o, StorageDeleted},
		{x, x, z, StorageModified},
		{x, o, z, StorageDeletedAdded},
		{x, y, o, StorageModifiedDeleted},
		{x, o, x, StorageDeletedRestored},
		{o, y, o, StorageAddedDeleted},
		{x, y, x, StorageModifiedRestored},
		{o, y, z, StorageAssigned},
		{x, y, z, StorageAssigned},
	}

	for _, test := range tests {
		got := GetStorageStatus(test.original, test.current, test.new)
		if got != test.want {
			t.Errorf("%v -> %v -> %v: wanted %v, got %v",
				test.original, test.current, test.new, test.want, got)
		}
	}
}

func TestSizeInWords_RoundsUpAndSaturates(t *testing.T) {
	tests := []struct {
		size, want uint64
	}{
		{0, 0},
		{1, 1},
		{32, 1},
		{33, 2},
		{64, 2},
		{math.MaxUint64, math.MaxUint64/32 + 1},
		{math.MaxUint64 - 30, math.MaxUint64/32 + 1},
	}
	for _, test := range tests {
		if got := SizeInWords(test.size); got != test.want {
			t.Errorf("SizeInWords(%d): wanted %d, got %d", test.size, test.want, got)
		}
	}
}
