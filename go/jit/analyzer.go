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
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tokamak-network/ethrex-sub001/go/vm"
	"github.com/tokamak-network/ethrex-sub001/go/vm/op"
)

// CacheKey identifies a compiled program. Compiled code is never reused
// across revisions since gas costs and semantics differ.
type CacheKey struct {
	CodeHash vm.Hash
	Revision vm.Revision
}

// BasicBlock is a maximal straight-line instruction sequence with a single
// entry and single exit. Start is the offset of its first instruction, End
// the offset past its last byte.
type BasicBlock struct {
	Start int
	End   int
}

// AnalyzedCode is the immutable per-code analysis artifact consumed by the
// optimizer and the compiler backend.
type AnalyzedCode struct {
	Code             vm.Code
	Hash             vm.Hash
	Revision         vm.Revision
	Blocks           []BasicBlock
	HasExternalCalls bool
}

// negativeCacheCapacity bounds the set of remembered oversized code hashes.
const negativeCacheCapacity = 1024

// Analyzer scans bytecode into basic blocks and gates the compilable size.
// Oversized code hashes are remembered so repeated attempts short-circuit
// without another scan.
type Analyzer struct {
	maxCodeSize int
	oversized   *lru.Cache[vm.Hash, struct{}]
	metrics     *Metrics
}

func NewAnalyzer(maxCodeSize int, metrics *Metrics) (*Analyzer, error) {
	oversized, err := lru.New[vm.Hash, struct{}](negativeCacheCapacity)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		maxCodeSize: maxCodeSize,
		oversized:   oversized,
		metrics:     metrics,
	}, nil
}

// IsKnownOversized reports whether the hash was rejected before. It lets the
// dispatch path skip code that can never be compiled.
func (a *Analyzer) IsKnownOversized(hash vm.Hash) bool {
	return a.oversized.Contains(hash)
}

// Analyze performs a single linear scan over the code. Push immediates are
// skipped, never decoded as opcodes. Basic blocks open at position 0 and at
// every JUMPDEST, and close after a terminating instruction.
func (a *Analyzer) Analyze(code vm.Code, hash vm.Hash, revision vm.Revision) (*AnalyzedCode, error) {
	if a.oversized.Contains(hash) {
		a.metrics.OversizedRejections.Add(1)
		return nil, ErrBytecodeTooLarge
	}
	if len(code) > a.maxCodeSize {
		a.oversized.Add(hash, struct{}{})
		a.metrics.OversizedRejections.Add(1)
		return nil, ErrBytecodeTooLarge
	}

	var blocks []BasicBlock
	hasExternalCalls := false
	start := 0
	open := len(code) > 0
	for i := 0; i < len(code); {
		cur := op.OpCode(code[i])
		if cur == op.JUMPDEST {
			if open && i > start {
				blocks = append(blocks, BasicBlock{Start: start, End: i})
			}
			start = i
			open = true
		}
		if cur.IsExternalCall() {
			hasExternalCalls = true
		}
		i += cur.Width()
		if open && cur.TerminatesBlock() {
			end := i
			if end > len(code) {
				end = len(code)
			}
			blocks = append(blocks, BasicBlock{Start: start, End: end})
			open = false
		}
	}
	if open && start < len(code) {
		blocks = append(blocks, BasicBlock{Start: start, End: len(code)})
	}

	return &AnalyzedCode{
		Code:             code,
		Hash:             hash,
		Revision:         revision,
		Blocks:           blocks,
		HasExternalCalls: hasExternalCalls,
	}, nil
}
