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

// Package result surfaces a single evaluation's outcome as a tagged
// union and formats the stable raw status line golden fixtures compare
// against. Grounded on a chain-execution shell's ExecutionResult (the
// Success/GasUsed/Logs shape) and CallResult (the Success/Error-string
// RPC-facing variant), generalized from a fixed chain-call result into
// the Ok/Err union this shell's completion contract requires.
package result

import (
	"encoding/hex"
	"fmt"

	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/dispatch"
	"github.com/probechain/detervm/gas"
)

// Kind is the stable discriminant for an evaluation failure.
type Kind string

const (
	KindOutOfGas      Kind = "OutOfGas"
	KindHostError     Kind = "HostError"
	KindManifestError Kind = "ManifestError"
	KindJsError       Kind = "JsError"
	KindDecodeError   Kind = "DecodeError"
	KindEnvelopeError Kind = "EnvelopeError"
	KindInternal      Kind = "Internal"
)

// ErrorInfo is the structured error payload attached to every Err result.
type ErrorInfo struct {
	Kind Kind
	Code string
	Tag  string
}

// EvaluateResult is the tagged union returned by Evaluate: exactly one of
// Ok or Err is populated, distinguished by IsOk.
type EvaluateResult struct {
	IsOk bool

	// Ok fields.
	Value dv.Value

	// Err fields.
	Error   ErrorInfo
	Message string

	// Common to both branches.
	Raw          string
	GasUsed      uint64
	GasRemaining uint64
	Tape         []dispatch.TapeRecord
	Trace        *gas.Trace
}

// Ok builds a successful EvaluateResult and its raw status line.
func Ok(value dv.Value, gasUsed, gasRemaining uint64, tape []dispatch.TapeRecord, trace *gas.Trace) (EvaluateResult, error) {
	encoded, err := dv.Encode(value, dv.DefaultLimits())
	if err != nil {
		return EvaluateResult{}, fmt.Errorf("result: completion value not DV-encodable: %w", err)
	}
	raw := fmt.Sprintf("RESULT %s GAS remaining=%d used=%d", hex.EncodeToString(encoded), gasRemaining, gasUsed)
	return EvaluateResult{
		IsOk:         true,
		Value:        value,
		Raw:          raw,
		GasUsed:      gasUsed,
		GasRemaining: gasRemaining,
		Tape:         tape,
		Trace:        trace,
	}, nil
}

// Err builds a failed EvaluateResult and its raw status line.
func Err(kind Kind, code, tag, message string, gasUsed, gasRemaining uint64, tape []dispatch.TapeRecord, trace *gas.Trace) EvaluateResult {
	raw := fmt.Sprintf("ERROR %s GAS remaining=%d used=%d", message, gasRemaining, gasUsed)
	return EvaluateResult{
		IsOk:         false,
		Error:        ErrorInfo{Kind: kind, Code: code, Tag: tag},
		Message:      message,
		Raw:          raw,
		GasUsed:      gasUsed,
		GasRemaining: gasRemaining,
		Tape:         tape,
		Trace:        trace,
	}
}

// OutOfGas builds the fixed-message uncatchable-termination result.
func OutOfGas(gasUsed, gasRemaining uint64, tape []dispatch.TapeRecord, trace *gas.Trace) EvaluateResult {
	return Err(KindOutOfGas, "", "", "OutOfGas: out of gas", gasUsed, gasRemaining, tape, trace)
}
