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

// Command djsvm is the standalone CLI driver for the deterministic JS
// evaluation shell, in the small single-binary-per-command style common
// to chain-tooling CLIs: flags in, one deterministic outcome on stdout,
// non-zero exit on any failure that isn't itself an evaluation result.
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/detervm/log"
)

var djsvmLog = log.Root().New("component", "djsvm")

func main() {
	app := cli.NewApp()
	app.Name = "djsvm"
	app.Usage = "deterministic JavaScript evaluation shell"
	app.Version = "0.1.0"
	app.Commands = []cli.Command{
		evaluateCommand,
		inspectCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
