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

package dv

import "fmt"

// ErrorKind discriminates DV codec failures. These are kinds, not opaque
// identifiers: callers are expected to switch on them.
type ErrorKind uint8

const (
	ErrUnsupportedType ErrorKind = iota
	ErrNanOrInf
	ErrIntegerOutOfRange
	ErrDepthExceeded
	ErrStringTooLong
	ErrEncodedTooLarge
	ErrInvalidString
	ErrTruncated
	ErrInvalidUtf8
	ErrNonCanonicalLength
	ErrNonCanonicalFloat
	ErrUnsupportedCbor
	ErrKeyOrder
	ErrDuplicateKey
	ErrArrayTooLong
	ErrMapTooLong
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupportedType:
		return "UnsupportedType"
	case ErrNanOrInf:
		return "NanOrInf"
	case ErrIntegerOutOfRange:
		return "IntegerOutOfRange"
	case ErrDepthExceeded:
		return "DepthExceeded"
	case ErrStringTooLong:
		return "StringTooLong"
	case ErrEncodedTooLarge:
		return "EncodedTooLarge"
	case ErrInvalidString:
		return "InvalidString"
	case ErrTruncated:
		return "Truncated"
	case ErrInvalidUtf8:
		return "InvalidUtf8"
	case ErrNonCanonicalLength:
		return "NonCanonicalLength"
	case ErrNonCanonicalFloat:
		return "NonCanonicalFloat"
	case ErrUnsupportedCbor:
		return "UnsupportedCbor"
	case ErrKeyOrder:
		return "KeyOrder"
	case ErrDuplicateKey:
		return "DuplicateKey"
	case ErrArrayTooLong:
		return "ArrayTooLong"
	case ErrMapTooLong:
		return "MapTooLong"
	default:
		return "Unknown"
	}
}

// CodecError is the error type returned by Encode/Decode. It carries the
// byte offset at which the failure was detected, when feasible.
type CodecError struct {
	Kind    ErrorKind
	Offset  int
	Message string
}

func (e *CodecError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("dv: %s at offset %d: %s", e.Kind, e.Offset, e.Message)
	}
	return fmt.Sprintf("dv: %s at offset %d", e.Kind, e.Offset)
}

func newErr(kind ErrorKind, offset int, format string, args ...interface{}) *CodecError {
	return &CodecError{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}
