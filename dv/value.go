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

// Package dv implements the Deterministic Value codec: a canonical,
// self-describing binary format used for every value crossing the
// engine/host boundary.
//
// A Value is a closed sum type over eight variants (null, bool, int, float,
// string, bytes, array, map). It is intentionally not a dynamic "any"
// container: callers switch on Kind and read only the field that kind
// defines, the same way a bytecode interpreter's opcode table is a
// closed enumeration rather than an open-ended dispatch map.
package dv

import "fmt"

// Kind discriminates the eight DV variants.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// MinInt and MaxInt are the inclusive bounds of the DV int variant: the
// safe-integer range shared with IEEE-754 doubles, [-(2^53-1), 2^53-1].
const (
	MaxInt int64 = 1<<53 - 1
	MinInt int64 = -(1<<53 - 1)
)

// Value is a single Deterministic Value. The zero Value is KindNull.
//
// Only the field(s) matching Kind are meaningful; constructors below are
// the supported way to build one. Array and Map entries are themselves
// Values, making this a recursive closed sum type (a tree), never an
// interface{}-typed node.
type Value struct {
	kind Kind

	boolVal   bool
	intVal    int64
	floatVal  float64
	stringVal string
	bytesVal  []byte
	arrayVal  []Value
	mapVal    map[string]Value
}

// Kind returns the variant tag of v.
func (v Value) Kind() Kind { return v.kind }

// Null returns the DV null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps b as a DV bool.
func Bool(b bool) Value { return Value{kind: KindBool, boolVal: b} }

// Int wraps n as a DV int. n must be within [MinInt, MaxInt]; callers that
// cannot guarantee this should go through Encode, which validates and
// reports ErrIntegerOutOfRange.
func Int(n int64) Value { return Value{kind: KindInt, intVal: n} }

// Float wraps f as a DV float. f must be finite, non-integer-valued, and
// not negative zero; Encode enforces this at the wire boundary.
func Float(f float64) Value { return Value{kind: KindFloat, floatVal: f} }

// String wraps s as a DV string.
func String(s string) Value { return Value{kind: KindString, stringVal: s} }

// Bytes wraps b as a DV bytes value. The slice is not copied; callers must
// not mutate it after handing it to Bytes.
func Bytes(b []byte) Value { return Value{kind: KindBytes, bytesVal: b} }

// Array wraps elems as a DV array. The slice is not copied.
func Array(elems []Value) Value { return Value{kind: KindArray, arrayVal: elems} }

// Map wraps m as a DV map. The map is not copied. Key order is not
// observable; canonical key order is imposed only at encode time.
func Map(m map[string]Value) Value { return Value{kind: KindMap, mapVal: m} }

// AsBool returns the wrapped bool and whether v is KindBool.
func (v Value) AsBool() (bool, bool) { return v.boolVal, v.kind == KindBool }

// AsInt returns the wrapped int and whether v is KindInt.
func (v Value) AsInt() (int64, bool) { return v.intVal, v.kind == KindInt }

// AsFloat returns the wrapped float and whether v is KindFloat.
func (v Value) AsFloat() (float64, bool) { return v.floatVal, v.kind == KindFloat }

// AsString returns the wrapped string and whether v is KindString.
func (v Value) AsString() (string, bool) { return v.stringVal, v.kind == KindString }

// AsBytes returns the wrapped byte slice and whether v is KindBytes.
func (v Value) AsBytes() ([]byte, bool) { return v.bytesVal, v.kind == KindBytes }

// AsArray returns the wrapped element slice and whether v is KindArray.
func (v Value) AsArray() ([]Value, bool) { return v.arrayVal, v.kind == KindArray }

// AsMap returns the wrapped map and whether v is KindMap.
func (v Value) AsMap() (map[string]Value, bool) { return v.mapVal, v.kind == KindMap }

// Equal reports whether v and other are the same DV value. Maps compare by
// key/value equality, not insertion order (DV maps carry no observable
// order). NaN/Inf floats never occur in a valid Value, so float comparison
// is ordinary equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolVal == other.boolVal
	case KindInt:
		return v.intVal == other.intVal
	case KindFloat:
		return v.floatVal == other.floatVal
	case KindString:
		return v.stringVal == other.stringVal
	case KindBytes:
		if len(v.bytesVal) != len(other.bytesVal) {
			return false
		}
		for i := range v.bytesVal {
			if v.bytesVal[i] != other.bytesVal[i] {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.arrayVal) != len(other.arrayVal) {
			return false
		}
		for i := range v.arrayVal {
			if !v.arrayVal[i].Equal(other.arrayVal[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.mapVal) != len(other.mapVal) {
			return false
		}
		for k, mv := range v.mapVal {
			ov, ok := other.mapVal[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.boolVal)
	case KindInt:
		return fmt.Sprintf("%d", v.intVal)
	case KindFloat:
		return fmt.Sprintf("%g", v.floatVal)
	case KindString:
		return fmt.Sprintf("%q", v.stringVal)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.bytesVal))
	case KindArray:
		return fmt.Sprintf("array(%d)", len(v.arrayVal))
	case KindMap:
		return fmt.Sprintf("map(%d)", len(v.mapVal))
	default:
		return "invalid"
	}
}
