// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/urfave/cli.v1"

	detervm "github.com/probechain/detervm"
	"github.com/probechain/detervm/dispatch"
	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/gas"
	"github.com/probechain/detervm/manifest"
	"github.com/probechain/detervm/result"
)

// manifestHashOf hashes the manifest file's bytes directly. The CLI is
// its own caller: it reads the same bytes it hashes, so the mismatch
// check InitDeterministic performs is trivially satisfied here. A
// caller embedding this engine in a setting where the manifest and its
// pinned hash come from different trust domains would supply its own
// hash instead of calling this helper.
func manifestHashOf(b []byte) string {
	return manifest.Hash(b)
}

var (
	programFlag  = cli.StringFlag{Name: "program", Usage: "path to a JavaScript source file to evaluate"}
	manifestFlag = cli.StringFlag{Name: "manifest", Usage: "path to a canonical DV-encoded ABI manifest"}
	eventFlag    = cli.StringFlag{Name: "event", Usage: "hex-encoded DV value bound to the `event` global (default: null)"}
	stepsFlag    = cli.Int64Flag{Name: "steps", Usage: "integer value bound to the `steps` global"}
	gasFlag      = cli.StringFlag{Name: "gas", Value: "unlimited", Usage: "gas limit, or \"unlimited\""}
	traceFlag        = cli.BoolFlag{Name: "trace", Usage: "retain and print the per-category gas trace"}
	tapeFlag         = cli.BoolFlag{Name: "tape", Usage: "retain and print the host-call audit tape"}
	tapeCapacityFlag = cli.IntFlag{Name: "tape-capacity", Usage: "bound on retained host-call audit tape entries (0: engine default)"}

	evaluateCommand = cli.Command{
		Name:      "evaluate",
		Usage:     "evaluate a JS program against a pinned manifest and print the raw status line",
		ArgsUsage: " ",
		Action:    runEvaluateCommand,
		Flags:     []cli.Flag{programFlag, manifestFlag, eventFlag, stepsFlag, gasFlag, traceFlag, tapeFlag, tapeCapacityFlag},
	}
)

func runEvaluateCommand(ctx *cli.Context) error {
	res, err := evaluateFromFlags(ctx)
	if err != nil {
		return err
	}
	fmt.Println(res.Raw)
	if !res.IsOk {
		djsvmLog.Warn("evaluation failed", "kind", res.Error.Kind, "message", res.Message)
	}
	return nil
}

// evaluateFromFlags reads the --program/--manifest/--event/--steps/--gas
// flags shared by the evaluate and inspect commands and runs one
// detervm.Evaluate call.
func evaluateFromFlags(ctx *cli.Context) (result.EvaluateResult, error) {
	programPath := ctx.String(programFlag.Name)
	manifestPath := ctx.String(manifestFlag.Name)
	if programPath == "" || manifestPath == "" {
		return result.EvaluateResult{}, fmt.Errorf("djsvm: --program and --manifest are required")
	}

	source, err := os.ReadFile(programPath)
	if err != nil {
		return result.EvaluateResult{}, fmt.Errorf("djsvm: reading program: %w", err)
	}
	manifestBytes, err := os.ReadFile(manifestPath)
	if err != nil {
		return result.EvaluateResult{}, fmt.Errorf("djsvm: reading manifest: %w", err)
	}
	manifestHash := manifestHashOf(manifestBytes)

	event := dv.Null()
	if raw := ctx.String(eventFlag.Name); raw != "" {
		decoded, err := hex.DecodeString(raw)
		if err != nil {
			return result.EvaluateResult{}, fmt.Errorf("djsvm: --event is not valid hex: %w", err)
		}
		event, err = dv.Decode(decoded, dv.DefaultLimits())
		if err != nil {
			return result.EvaluateResult{}, fmt.Errorf("djsvm: --event is not a valid DV encoding: %w", err)
		}
	}

	limit, err := parseGasLimit(ctx.String(gasFlag.Name))
	if err != nil {
		return result.EvaluateResult{}, err
	}

	in := detervm.Input{
		Event:          event,
		Steps:          dv.Int(ctx.Int64(stepsFlag.Name)),
		EventCanonical: event,
	}

	res := detervm.Evaluate(manifestBytes, manifestHash, in, detervm.Program{Source: string(source)},
		detervm.WithGasLimit(limit),
		detervm.WithGasTrace(ctx.Bool(traceFlag.Name)),
		detervm.WithHostTape(ctx.Bool(tapeFlag.Name)),
		detervm.WithHostTapeCapacity(ctx.Int(tapeCapacityFlag.Name)),
		detervm.WithHandlers(dispatch.Router{}),
	)
	return res, nil
}

func parseGasLimit(raw string) (uint64, error) {
	if raw == "" || raw == "unlimited" {
		return gas.Unlimited, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("djsvm: --gas must be a non-negative integer or \"unlimited\": %w", err)
	}
	return n, nil
}
