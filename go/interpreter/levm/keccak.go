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
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/sha3"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

// Keccak256 computes the keccak-256 hash of the given data.
func Keccak256(data []byte) vm.Hash {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res vm.Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

// sha3HashCache is an LRU governed fixed-capacity cache for SHA3 hashes.
// It maintains hashes for input data of size 32 and 64, which are the vast
// majority of values hashed when running EVM instructions. Inputs of other
// sizes are hashed on demand without caching.
type sha3HashCache struct {
	cache32 *lru.Cache[[32]byte, vm.Hash]
	cache64 *lru.Cache[[64]byte, vm.Hash]
}

func newSha3HashCache(capacity32 int, capacity64 int) *sha3HashCache {
	cache32, err := lru.New[[32]byte, vm.Hash](capacity32)
	if err != nil {
		panic(err) // only reachable with a non-positive capacity
	}
	cache64, err := lru.New[[64]byte, vm.Hash](capacity64)
	if err != nil {
		panic(err)
	}
	return &sha3HashCache{cache32: cache32, cache64: cache64}
}

// hash fetches a cached hash or computes the hash for the provided data.
func (h *sha3HashCache) hash(data []byte) vm.Hash {
	if len(data) == 32 {
		var key [32]byte
		copy(key[:], data)
		if res, found := h.cache32.Get(key); found {
			return res
		}
		res := Keccak256(data)
		h.cache32.Add(key, res)
		return res
	}
	if len(data) == 64 {
		var key [64]byte
		copy(key[:], data)
		if res, found := h.cache64.Get(key); found {
			return res
		}
		res := Keccak256(data)
		h.cache64.Add(key, res)
		return res
	}
	return Keccak256(data)
}
