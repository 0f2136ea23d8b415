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

import "fmt"

// ValidationKind discriminates the stable ManifestError discriminants
// enforced before encoding.
type ValidationKind uint8

const (
	ErrUnknownField ValidationKind = iota
	ErrFunctionsNotSorted
	ErrDuplicateFnID
	ErrZeroFnID
	ErrEmptyJSPath
	ErrForbiddenSegment
	ErrPrefixCollision
	ErrArgUTF8MaxMismatch
	ErrErrorCodesNotSorted
	ErrDuplicateErrorCode
	ErrReservedErrorCode
	ErrNegativeOrFractional
	ErrNumericOutOfRange
	ErrHashMismatch
	ErrGasOverflow
)

func (k ValidationKind) String() string {
	switch k {
	case ErrUnknownField:
		return "UnknownField"
	case ErrFunctionsNotSorted:
		return "FunctionsNotSorted"
	case ErrDuplicateFnID:
		return "DuplicateFnID"
	case ErrZeroFnID:
		return "ZeroFnID"
	case ErrEmptyJSPath:
		return "EmptyJSPath"
	case ErrForbiddenSegment:
		return "ForbiddenSegment"
	case ErrPrefixCollision:
		return "PrefixCollision"
	case ErrArgUTF8MaxMismatch:
		return "ArgUTF8MaxMismatch"
	case ErrErrorCodesNotSorted:
		return "ErrorCodesNotSorted"
	case ErrDuplicateErrorCode:
		return "DuplicateErrorCode"
	case ErrReservedErrorCode:
		return "ReservedErrorCode"
	case ErrNegativeOrFractional:
		return "NegativeOrFractional"
	case ErrNumericOutOfRange:
		return "NumericOutOfRange"
	case ErrHashMismatch:
		return "HashMismatch"
	case ErrGasOverflow:
		return "GasOverflow"
	default:
		return "Unknown"
	}
}

// ValidationError is a single manifest validation failure.
type ValidationError struct {
	Kind    ValidationKind
	FnID    uint32
	Message string
}

func (e *ValidationError) Error() string {
	if e.FnID != 0 {
		return fmt.Sprintf("manifest: %s (fn_id=%d): %s", e.Kind, e.FnID, e.Message)
	}
	return fmt.Sprintf("manifest: %s: %s", e.Kind, e.Message)
}

// Error is the top-level ManifestError surfaced to a caller: init-time
// failure that leaves the runtime unusable.
type Error struct {
	Cause *ValidationError
}

func (e *Error) Error() string { return "ManifestError: " + e.Cause.Error() }

func (e *Error) Unwrap() error { return e.Cause }

func newValidationError(kind ValidationKind, fnID uint32, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, FnID: fnID, Message: fmt.Sprintf(format, args...)}
}
