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

package harness

import (
	"fmt"
	"strings"

	"github.com/probechain/detervm/result"
)

// Snapshot renders an EvaluateResult as a reviewable, deterministic
// multi-line string: the raw status line, then one line per tape
// record's JSON shape, then the gas trace's metered/host split. Two
// runs of the same program against the same manifest/input/gas limit
// must produce byte-identical snapshots — that equality is the harness
// package's primary correctness check, since the static per-statement
// gas model does not reproduce a per-instruction bytecode VM's worked
// gas numbers literally (see the package doc comment in
// harness_test.go).
func Snapshot(r result.EvaluateResult) string {
	var b strings.Builder
	fmt.Fprintln(&b, r.Raw)
	for _, rec := range r.Tape {
		fmt.Fprintln(&b, rec.JSON())
	}
	if r.Trace != nil {
		fmt.Fprintf(&b, "metered=%d host=%d\n", r.Trace.MeteredGas(), r.Trace.HostGas(r.GasUsed))
	}
	return b.String()
}
