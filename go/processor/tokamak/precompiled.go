// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tokamak

import (
	"github.com/tokamak-network/ethrex-sub001/go/vm"

	"github.com/ethereum/go-ethereum/common"
	geth "github.com/ethereum/go-ethereum/core/vm"
)

// handlePrecompiled runs the recipient as a precompiled contract if it is
// one under the active revision. Precompiles never enter the tiered
// dispatch; their executions are metered on the fast path when enabled.
func (r runContext) handlePrecompiled(input vm.Data, address vm.Address, gas vm.Gas) (vm.CallResult, bool) {
	contract, ok := precompiledContract(address, r.blockParameters.Revision)
	if !ok {
		return vm.CallResult{}, false
	}
	if r.state != nil && r.state.Config().EnablePrecompileFastDispatch {
		r.state.Metrics().PrecompileFastDispatches.Add(1)
	}
	gasCost := contract.RequiredGas(input)
	if gas < vm.Gas(gasCost) {
		return vm.CallResult{}, true
	}
	gas -= vm.Gas(gasCost)
	output, err := contract.Run(input)

	return vm.CallResult{
		Success: err == nil, // precompiled contracts only fail on invalid input
		Output:  output,
		GasLeft: gas,
	}, true
}

func precompiledContract(address vm.Address, revision vm.Revision) (geth.PrecompiledContract, bool) {
	var precompiles map[common.Address]geth.PrecompiledContract
	switch revision {
	case vm.R13_Cancun, vm.R99_UnknownNextRevision:
		precompiles = geth.PrecompiledContractsCancun
	case vm.R12_Shanghai, vm.R11_Paris, vm.R10_London, vm.R09_Berlin:
		precompiles = geth.PrecompiledContractsBerlin
	default: // Istanbul is the oldest supported revision
		precompiles = geth.PrecompiledContractsIstanbul
	}
	contract, ok := precompiles[common.Address(address)]
	return contract, ok
}
