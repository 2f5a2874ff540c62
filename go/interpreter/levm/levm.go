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
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

// levm is a straightforward EVM byte-code interpreter. It serves as the
// baseline execution tier and as the ground truth other engines are
// validated against.

func init() {
	vm.RegisterInterpreterFactory("levm", newInterpreterFactory)
}

func newInterpreterFactory(config any) (vm.Interpreter, error) {
	if config == nil {
		return NewInterpreter(Config{})
	}
	cfg, ok := config.(Config)
	if !ok {
		return nil, fmt.Errorf("unexpected configuration type, got %T", config)
	}
	return NewInterpreter(cfg)
}

// Config contains configuration options for an interpreter instance.
type Config struct {
	// MetadataCacheCapacity is the maximum number of per-code jump-target
	// analyses retained between runs. A zero value selects a default, a
	// negative value disables the cache.
	MetadataCacheCapacity int
	// WithShaCache enables caching of SHA3 hashes across runs.
	WithShaCache bool
}

const defaultMetadataCacheCapacity = 4096

type interpreter struct {
	config   Config
	metadata *lru.Cache[vm.Hash, *codeMetadata]
	shaCache *sha3HashCache
}

// NewInterpreter creates an interpreter instance with the given
// configuration.
func NewInterpreter(config Config) (*interpreter, error) {
	if config.MetadataCacheCapacity == 0 {
		config.MetadataCacheCapacity = defaultMetadataCacheCapacity
	}
	var metadata *lru.Cache[vm.Hash, *codeMetadata]
	if config.MetadataCacheCapacity > 0 {
		var err error
		metadata, err = lru.New[vm.Hash, *codeMetadata](config.MetadataCacheCapacity)
		if err != nil {
			return nil, err
		}
	}
	var shaCache *sha3HashCache
	if config.WithShaCache {
		shaCache = newSha3HashCache(1<<16, 1<<10)
	}
	return &interpreter{
		config:   config,
		metadata: metadata,
		shaCache: shaCache,
	}, nil
}

const newestSupportedRevision = vm.R13_Cancun

func (i *interpreter) Run(params vm.Parameters) (vm.Result, error) {
	if params.Revision > newestSupportedRevision {
		return vm.Result{}, &vm.ErrUnsupportedRevision{Revision: params.Revision}
	}

	// Executions of empty code succeed without any effects.
	if len(params.Code) == 0 {
		return vm.Result{
			Output:  nil,
			GasLeft: params.Gas,
			Success: true,
		}, nil
	}

	meta := i.getCodeMetadata(params.Code, params.CodeHash)
	return run(params, meta, i.shaCache)
}

func (i *interpreter) getCodeMetadata(code vm.Code, codeHash *vm.Hash) *codeMetadata {
	if i.metadata == nil || codeHash == nil {
		return analyzeCode(code)
	}
	if meta, found := i.metadata.Get(*codeHash); found {
		return meta
	}
	meta := analyzeCode(code)
	i.metadata.Add(*codeHash, meta)
	return meta
}

// codeMetadata is the per-code analysis result required for executing it:
// the set of valid jump destinations, excluding positions covered by push
// immediates.
type codeMetadata struct {
	jumpDests bitset
}

func analyzeCode(code vm.Code) *codeMetadata {
	dests := newBitset(len(code))
	for i := 0; i < len(code); {
		cur := op.OpCode(code[i])
		if cur == op.JUMPDEST {
			dests.set(i)
		}
		i += cur.Width()
	}
	return &codeMetadata{jumpDests: dests}
}

// bitset is a plain bit vector indexed by code position.
type bitset []uint64

func newBitset(size int) bitset {
	return make(bitset, (size+63)/64)
}

func (b bitset) set(i int) {
	b[i/64] |= 1 << (i % 64)
}

func (b bitset) isSet(i int) bool {
	return b[i/64]&(1<<(i%64)) != 0
}
