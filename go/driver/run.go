// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"

	"github.com/tokamak-network/ethrex-sub001/go/examples"
	"github.com/tokamak-network/ethrex-sub001/go/interpreter/levm"
	"github.com/tokamak-network/ethrex-sub001/go/jit"
	"github.com/tokamak-network/ethrex-sub001/go/processor/tokamak"
	"github.com/tokamak-network/ethrex-sub001/go/vm"
)

var RunCmd = cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "Run an example contract through the transaction processor",
	ArgsUsage: "<contract>",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "arg",
			Usage: "argument passed to the contract",
			Value: 10,
		},
		&cli.IntFlag{
			Name:  "runs",
			Usage: "number of transactions to execute",
			Value: 1,
		},
		&cli.Uint64Flag{
			Name:  "compile-threshold",
			Usage: "number of interpreted runs before a contract is compiled",
		},
	},
}

var contracts = map[string]func() examples.Example{
	"fib":        examples.GetFibExample,
	"storage":    examples.GetStorageExample,
	"arithmetic": examples.GetArithmeticExample,
}

var (
	driverSender   = vm.Address{0x41}
	driverContract = vm.Address{0x42}
)

func doRun(context *cli.Context) error {
	var name string
	if context.Args().Len() >= 1 {
		name = context.Args().Get(0)
	}
	getExample, ok := contracts[name]
	if !ok {
		return fmt.Errorf("invalid contract, use one of: %v", maps.Keys(contracts))
	}
	example := getExample()

	processor, err := newDriverProcessor(jit.Config{
		CompileThreshold: context.Uint64("compile-threshold"),
	})
	if err != nil {
		return err
	}
	defer processor.Close()

	state := newDriverState(example.Code())
	arg := context.Int("arg")
	runs := context.Int("runs")
	for i := 0; i < runs; i++ {
		receipt, err := runExample(processor, state, &example, uint64(i), arg)
		if err != nil {
			return err
		}
		result, err := example.DecodeOutput(receipt.Output)
		if err != nil {
			return err
		}
		fmt.Printf("%s(%d) = %d, using %d gas\n", example.Name, arg, result, receipt.GasUsed)
	}
	return nil
}

func newDriverProcessor(config jit.Config) (*tokamak.Processor, error) {
	interpreter, err := levm.NewInterpreter(levm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}
	state, err := jit.NewState(config, tokamak.CompileBackend)
	if err != nil {
		return nil, fmt.Errorf("failed to create tier state: %w", err)
	}
	return tokamak.NewProcessor(interpreter, state), nil
}

func newDriverState(code vm.Code) *tokamak.MemoryState {
	state := tokamak.NewMemoryState()
	state.SetBalance(driverSender, vm.NewValue(1_000_000_000))
	state.SetCode(driverContract, code)
	state.SettleStorage()
	return state
}

func runExample(
	processor *tokamak.Processor,
	state *tokamak.MemoryState,
	example *examples.Example,
	nonce uint64,
	arg int,
) (vm.Receipt, error) {
	recipient := driverContract
	transaction := vm.Transaction{
		Sender:    driverSender,
		Recipient: &recipient,
		Nonce:     nonce,
		Input:     example.Input(arg),
		GasLimit:  10_000_000,
	}
	block := vm.BlockParameters{
		BlockNumber: 1,
		GasLimit:    30_000_000,
		Revision:    vm.R13_Cancun,
	}
	receipt, err := processor.Run(block, transaction, state)
	if err != nil {
		return vm.Receipt{}, err
	}
	if !receipt.Success {
		return vm.Receipt{}, fmt.Errorf("execution of %s failed", example.Name)
	}
	state.SettleStorage()
	return receipt, nil
}
