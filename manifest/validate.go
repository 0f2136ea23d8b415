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

package manifest

import "strings"

// Validate enforces every manifest invariant (duplicate/ordering checks
// on fnId and JS path, schema/limit consistency, gas-overflow bounds),
// ending with the gas-overflow check as the final step. It returns the
// first violation found — callers that want every violation at once
// should call ValidateAll.
func Validate(m *Manifest) error {
	errs := ValidateAll(m)
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// ValidateAll runs every validation rule and accumulates all violations,
// in the error-accumulation style a bytecode verifier uses when checking
// a whole program (collect every problem, not just the first).
func ValidateAll(m *Manifest) []*ValidationError {
	var errs []*ValidationError

	var prevFnID uint32
	seenFnID := make(map[uint32]bool)
	var allPaths [][]string

	for i := range m.Functions {
		f := &m.Functions[i]

		if f.FnID == 0 {
			errs = append(errs, newValidationError(ErrZeroFnID, f.FnID, "fn_id must be > 0"))
		}
		if seenFnID[f.FnID] {
			errs = append(errs, newValidationError(ErrDuplicateFnID, f.FnID, "duplicate fn_id"))
		}
		seenFnID[f.FnID] = true
		if i > 0 && f.FnID <= prevFnID {
			errs = append(errs, newValidationError(ErrFunctionsNotSorted, f.FnID, "functions must be sorted by fn_id"))
		}
		prevFnID = f.FnID

		if len(f.JSPath) == 0 {
			errs = append(errs, newValidationError(ErrEmptyJSPath, f.FnID, "js_path must be non-empty"))
		}
		for _, seg := range f.JSPath {
			if forbiddenSegments[seg] {
				errs = append(errs, newValidationError(ErrForbiddenSegment, f.FnID, "js_path segment %q is forbidden", seg))
			}
		}
		allPaths = append(allPaths, f.JSPath)

		if err := validateArgUTF8Max(f); err != nil {
			errs = append(errs, err)
		}
		if err := validateErrorCodes(f); err != nil {
			errs = append(errs, err...)
		}
		if err := validateNumericFields(f); err != nil {
			errs = append(errs, err...)
		}
	}

	errs = append(errs, detectPrefixCollisions(m.Functions, allPaths)...)

	// The gas-overflow check is the final validation step.
	for i := range m.Functions {
		if err := validateGasOverflow(&m.Functions[i]); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func validateArgUTF8Max(f *FunctionEntry) *ValidationError {
	hasString := false
	for _, a := range f.ArgSchema {
		if a == ArgString {
			hasString = true
			break
		}
	}
	if !hasString {
		if f.Limits.ArgUTF8Max != nil {
			return newValidationError(ErrArgUTF8MaxMismatch, f.FnID, "arg_utf8_max must be omitted when no argument is a string")
		}
		return nil
	}
	if f.Limits.ArgUTF8Max == nil {
		return newValidationError(ErrArgUTF8MaxMismatch, f.FnID, "arg_utf8_max must be present when an argument is a string")
	}
	if len(f.Limits.ArgUTF8Max) != len(f.ArgSchema) {
		return newValidationError(ErrArgUTF8MaxMismatch, f.FnID, "arg_utf8_max length must match arg_schema length")
	}
	for i, a := range f.ArgSchema {
		present := f.Limits.ArgUTF8Max[i] != utf8MaxAbsent
		if a == ArgString && !present {
			return newValidationError(ErrArgUTF8MaxMismatch, f.FnID, "arg_utf8_max[%d] must be defined for string argument", i)
		}
		if a != ArgString && present {
			return newValidationError(ErrArgUTF8MaxMismatch, f.FnID, "arg_utf8_max[%d] must be omitted for non-string argument", i)
		}
	}
	return nil
}

// utf8MaxAbsent marks a sparse-array slot as "omitted" when a caller
// builds Limits.ArgUTF8Max in Go rather than decoding it from the wire
// (where omission is represented structurally, see encode.go).
const utf8MaxAbsent = ^uint32(0)

func validateErrorCodes(f *FunctionEntry) []*ValidationError {
	var errs []*ValidationError
	seen := make(map[string]bool)
	prev := ""
	for i, ec := range f.ErrorCodes {
		if ec.Code == ReservedHostTransport || ec.Code == ReservedHostEnvelopeInvalid {
			errs = append(errs, newValidationError(ErrReservedErrorCode, f.FnID, "error code %q is reserved", ec.Code))
		}
		if seen[ec.Code] {
			errs = append(errs, newValidationError(ErrDuplicateErrorCode, f.FnID, "duplicate error code %q", ec.Code))
		}
		seen[ec.Code] = true
		if i > 0 && strings.Compare(ec.Code, prev) <= 0 {
			errs = append(errs, newValidationError(ErrErrorCodesNotSorted, f.FnID, "error_codes must be sorted and unique"))
		}
		prev = ec.Code
	}
	return errs
}

func validateNumericFields(f *FunctionEntry) []*ValidationError {
	var errs []*ValidationError
	// Go's uint32/uint64 types cannot themselves represent -0 or negative
	// values, so "reject -0, negative, fractional" only has teeth for a
	// wire-decoded manifest (see decode.go); here we only check range
	// relationships that are expressible at this layer.
	if f.Arity != uint32(len(f.ArgSchema)) {
		errs = append(errs, newValidationError(ErrNumericOutOfRange, f.FnID, "arity %d does not match arg_schema length %d", f.Arity, len(f.ArgSchema)))
	}
	return errs
}

func validateGasOverflow(f *FunctionEntry) *ValidationError {
	g := f.Gas
	l := f.Limits
	// Overflow-checked: base + kArg*maxReq + kRet*maxResp + kUnits*maxUnits <= 2^64-1.
	sum := uint64(g.Base)
	term, ok := mulOverflows(uint64(g.KArgBytes), uint64(l.MaxRequestBytes))
	if ok {
		return newValidationError(ErrGasOverflow, f.FnID, "k_arg_bytes * max_request_bytes overflows")
	}
	sum, ok = addOverflows(sum, term)
	if ok {
		return newValidationError(ErrGasOverflow, f.FnID, "gas parameter sum overflows")
	}
	term, ok = mulOverflows(uint64(g.KRetBytes), uint64(l.MaxResponseBytes))
	if ok {
		return newValidationError(ErrGasOverflow, f.FnID, "k_ret_bytes * max_response_bytes overflows")
	}
	sum, ok = addOverflows(sum, term)
	if ok {
		return newValidationError(ErrGasOverflow, f.FnID, "gas parameter sum overflows")
	}
	term, ok = mulOverflows(uint64(g.KUnits), uint64(l.MaxUnits))
	if ok {
		return newValidationError(ErrGasOverflow, f.FnID, "k_units * max_units overflows")
	}
	_, ok = addOverflows(sum, term)
	if ok {
		return newValidationError(ErrGasOverflow, f.FnID, "gas parameter sum overflows")
	}
	return nil
}

func mulOverflows(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	r := a * b
	if r/a != b {
		return 0, true
	}
	return r, false
}

func addOverflows(a, b uint64) (uint64, bool) {
	r := a + b
	return r, r < a
}

// detectPrefixCollisions enforces "no two js_path are prefixes of each
// other" across the whole function list.
func detectPrefixCollisions(funcs []FunctionEntry, paths [][]string) []*ValidationError {
	var errs []*ValidationError
	for i := range paths {
		for j := range paths {
			if i == j {
				continue
			}
			if isPrefixOf(paths[i], paths[j]) {
				errs = append(errs, newValidationError(ErrPrefixCollision, funcs[i].FnID,
					"js_path %v is a prefix of js_path %v (fn_id=%d)", paths[i], paths[j], funcs[j].FnID))
			}
		}
	}
	return errs
}

func isPrefixOf(short, long []string) bool {
	if len(short) >= len(long) {
		return false
	}
	for i, seg := range short {
		if long[i] != seg {
			return false
		}
	}
	return true
}
