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
	"time"

	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"

	"github.com/tokamak-network/ethrex-sub001/go/jit"
)

var BenchCmd = cli.Command{
	Action:    doBench,
	Name:      "bench",
	Usage:     "Drive an example contract past the compile threshold and report tier metrics",
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
			Value: 1000,
		},
		&cli.Uint64Flag{
			Name:  "compile-threshold",
			Usage: "number of interpreted runs before a contract is compiled",
			Value: 10,
		},
		&cli.IntFlag{
			Name:  "validation-runs",
			Usage: "number of compiled runs validated against the interpreter, negative disables",
			Value: -1,
		},
	},
}

func doBench(context *cli.Context) error {
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
		CompileThreshold:    context.Uint64("compile-threshold"),
		MaxValidationRuns:   context.Int("validation-runs"),
		SyncCompileFallback: true,
	})
	if err != nil {
		return err
	}
	defer processor.Close()

	state := newDriverState(example.Code())
	arg := context.Int("arg")
	runs := context.Int("runs")

	start := time.Now()
	var gasUsed int64
	for i := 0; i < runs; i++ {
		receipt, err := runExample(processor, state, &example, uint64(i), arg)
		if err != nil {
			return err
		}
		gasUsed += int64(receipt.GasUsed)
	}
	duration := time.Since(start)

	rate := float64(runs) / duration.Seconds()
	gasRate := float64(gasUsed) / duration.Seconds()
	fmt.Printf("%s(%d): %d transactions in %v\n", example.Name, arg, runs, duration)
	fmt.Printf("  ~%s transactions per second, ~%s gas per second\n",
		unitconv.FormatPrefix(rate, unitconv.SI, 1),
		unitconv.FormatPrefix(gasRate, unitconv.SI, 1),
	)

	printMetrics(processor.State().Metrics().Snapshot())
	return nil
}

func printMetrics(snapshot jit.MetricsSnapshot) {
	format := func(value uint64) string {
		return unitconv.FormatPrefix(float64(value), unitconv.SI, 1)
	}
	fmt.Printf("tier metrics:\n")
	fmt.Printf("  compiles:               %s\n", format(snapshot.Compiles))
	fmt.Printf("  compile failures:       %s\n", format(snapshot.CompileFailures))
	fmt.Printf("  cache hits:             %s\n", format(snapshot.CacheHits))
	fmt.Printf("  cache misses:           %s\n", format(snapshot.CacheMisses))
	fmt.Printf("  interpreter fallbacks:  %s\n", format(snapshot.InterpreterFallbacks))
	fmt.Printf("  background dispatches:  %s\n", format(snapshot.BackgroundDispatches))
	fmt.Printf("  synchronous compiles:   %s\n", format(snapshot.SynchronousCompiles))
	fmt.Printf("  validation runs:        %s\n", format(snapshot.ValidationRuns))
	fmt.Printf("  validation successes:   %s\n", format(snapshot.ValidationSuccesses))
	fmt.Printf("  validation mismatches:  %s\n", format(snapshot.ValidationMismatches))
	fmt.Printf("  validation inconclusive:%s\n", format(snapshot.ValidationInconclusive))
	fmt.Printf("  precompile dispatches:  %s\n", format(snapshot.PrecompileFastDispatches))
	fmt.Printf("  oversized rejections:   %s\n", format(snapshot.OversizedRejections))
	fmt.Printf("  arenas created:         %s\n", format(snapshot.ArenasCreated))
	fmt.Printf("  arenas freed:           %s\n", format(snapshot.ArenasFreed))
}
