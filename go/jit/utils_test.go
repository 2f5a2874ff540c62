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

import (
	"sync/atomic"

	"golang.org/x/crypto/sha3"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

func testHash(code []byte) vm.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(code)
	var res vm.Hash
	copy(res[:], hasher.Sum(nil))
	return res
}

// fakeProgram is a CompiledProgram stand-in tracking its disposal.
type fakeProgram struct {
	disposed atomic.Bool
}

func (p *fakeProgram) Dispose() {
	p.disposed.Store(true)
}
