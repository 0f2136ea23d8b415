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

// Package harness builds scenario fixtures and reviewable snapshots of
// Evaluate outcomes the way a bytecode VM's own test suite typically
// builds programs out of small instr/instrWide/program helpers: small
// composable builder functions instead of hand-typed byte/string
// literals scattered across test bodies.
package harness

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsedLine is a decoded raw status line: either RESULT or ERROR,
// always carrying the trailing "GAS remaining=<n> used=<n>" suffix.
type ParsedLine struct {
	IsResult  bool
	Payload   string // hex-encoded DV (RESULT) or message (ERROR)
	Remaining uint64
	Used      uint64
}

// ParseRawLine parses one raw status-line:
//
//	RESULT <hex> GAS remaining=<n> used=<n>
//	ERROR <msg> GAS remaining=<n> used=<n>
func ParseRawLine(raw string) (ParsedLine, error) {
	var isResult bool
	var rest string
	switch {
	case strings.HasPrefix(raw, "RESULT "):
		isResult = true
		rest = strings.TrimPrefix(raw, "RESULT ")
	case strings.HasPrefix(raw, "ERROR "):
		isResult = false
		rest = strings.TrimPrefix(raw, "ERROR ")
	default:
		return ParsedLine{}, fmt.Errorf("harness: raw line has no RESULT/ERROR prefix: %q", raw)
	}

	gasIdx := strings.Index(rest, " GAS remaining=")
	if gasIdx < 0 {
		return ParsedLine{}, fmt.Errorf("harness: raw line missing GAS suffix: %q", raw)
	}
	payload := rest[:gasIdx]
	gasSuffix := rest[gasIdx+len(" GAS remaining="):]

	usedIdx := strings.Index(gasSuffix, " used=")
	if usedIdx < 0 {
		return ParsedLine{}, fmt.Errorf("harness: raw line missing used= field: %q", raw)
	}
	remainingStr := gasSuffix[:usedIdx]
	usedStr := gasSuffix[usedIdx+len(" used="):]

	remaining, err := strconv.ParseUint(remainingStr, 10, 64)
	if err != nil {
		return ParsedLine{}, fmt.Errorf("harness: bad remaining= field in %q: %w", raw, err)
	}
	used, err := strconv.ParseUint(usedStr, 10, 64)
	if err != nil {
		return ParsedLine{}, fmt.Errorf("harness: bad used= field in %q: %w", raw, err)
	}

	return ParsedLine{IsResult: isResult, Payload: payload, Remaining: remaining, Used: used}, nil
}
