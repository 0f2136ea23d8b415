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

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
	"unicode/utf8"
)

// CBOR major types used by the deterministic subset.
const (
	majorUint    = 0
	majorNegInt  = 1
	majorBytes   = 2
	majorText    = 3
	majorArray   = 4
	majorMap     = 5
	majorSimple7 = 7
)

const (
	simpleFalse   = 20
	simpleTrue    = 21
	simpleNull    = 22
	floatAddlInfo = 27 // 8-byte IEEE-754 double
)

// Encode produces the canonical byte encoding of v, enforcing lim. It is
// the only way to produce wire bytes; there is no "fast path" that skips
// validation, since encode must remain the exact inverse of decode.
func Encode(v Value, lim Limits) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, lim, 0); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if lim.MaxEncodedBytes > 0 && len(out) > lim.MaxEncodedBytes {
		return nil, newErr(ErrEncodedTooLarge, 0, "encoded size %d exceeds limit %d", len(out), lim.MaxEncodedBytes)
	}
	return out, nil
}

func encodeValue(buf *bytes.Buffer, v Value, lim Limits, depth int) error {
	if lim.MaxDepth > 0 && depth > lim.MaxDepth {
		return newErr(ErrDepthExceeded, buf.Len(), "depth %d exceeds limit %d", depth, lim.MaxDepth)
	}
	switch v.kind {
	case KindNull:
		buf.WriteByte(majorSimple7<<5 | simpleNull)
		return nil
	case KindBool:
		if v.boolVal {
			buf.WriteByte(majorSimple7<<5 | simpleTrue)
		} else {
			buf.WriteByte(majorSimple7<<5 | simpleFalse)
		}
		return nil
	case KindInt:
		return encodeInt(buf, v.intVal)
	case KindFloat:
		return encodeFloat(buf, v.floatVal)
	case KindString:
		return encodeString(buf, v.stringVal, lim)
	case KindBytes:
		return encodeBytes(buf, v.bytesVal)
	case KindArray:
		return encodeArray(buf, v.arrayVal, lim, depth)
	case KindMap:
		return encodeMap(buf, v.mapVal, lim, depth)
	default:
		return newErr(ErrUnsupportedType, buf.Len(), "unknown DV kind %d", v.kind)
	}
}

// encodeUint writes the smallest-form CBOR head for (major, n).
func encodeUint(buf *bytes.Buffer, major byte, n uint64) {
	switch {
	case n < 24:
		buf.WriteByte(major<<5 | byte(n))
	case n <= 0xff:
		buf.WriteByte(major<<5 | 24)
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		buf.WriteByte(major<<5 | 25)
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(n))
		buf.Write(b[:])
	case n <= 0xffffffff:
		buf.WriteByte(major<<5 | 26)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		buf.Write(b[:])
	default:
		buf.WriteByte(major<<5 | 27)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], n)
		buf.Write(b[:])
	}
}

func encodeInt(buf *bytes.Buffer, n int64) error {
	if n > MaxInt || n < MinInt {
		return newErr(ErrIntegerOutOfRange, buf.Len(), "int %d out of range [%d, %d]", n, MinInt, MaxInt)
	}
	if n >= 0 {
		encodeUint(buf, majorUint, uint64(n))
	} else {
		encodeUint(buf, majorNegInt, uint64(-n-1))
	}
	return nil
}

// encodeFloat canonicalizes integer-valued floats to integer encoding and
// rejects NaN/Inf. This is the one place encode is not a pure function
// of the Go float64 bit pattern: an integer-valued float input produces
// int-tagged wire bytes, not float-tagged ones.
func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return newErr(ErrNanOrInf, buf.Len(), "float is NaN or Inf")
	}
	if f == math.Trunc(f) && f >= float64(MinInt) && f <= float64(MaxInt) {
		// Integer-valued (including -0, which trunc-equals 0): canonicalize
		// to the integer encoding. -0 becomes +0.
		return encodeInt(buf, int64(f))
	}
	buf.WriteByte(majorSimple7<<5 | floatAddlInfo)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	buf.Write(b[:])
	return nil
}

func encodeString(buf *bytes.Buffer, s string, lim Limits) error {
	if !utf8.ValidString(s) {
		return newErr(ErrInvalidUtf8, buf.Len(), "string is not valid UTF-8")
	}
	if lim.MaxStringBytes > 0 && len(s) > lim.MaxStringBytes {
		return newErr(ErrStringTooLong, buf.Len(), "string length %d exceeds limit %d", len(s), lim.MaxStringBytes)
	}
	encodeUint(buf, majorText, uint64(len(s)))
	buf.WriteString(s)
	return nil
}

func encodeBytes(buf *bytes.Buffer, b []byte) error {
	encodeUint(buf, majorBytes, uint64(len(b)))
	buf.Write(b)
	return nil
}

func encodeArray(buf *bytes.Buffer, elems []Value, lim Limits, depth int) error {
	if lim.MaxArrayLen > 0 && len(elems) > lim.MaxArrayLen {
		return newErr(ErrArrayTooLong, buf.Len(), "array length %d exceeds limit %d", len(elems), lim.MaxArrayLen)
	}
	encodeUint(buf, majorArray, uint64(len(elems)))
	for _, e := range elems {
		if err := encodeValue(buf, e, lim, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// encodeMap sorts keys by the byte-lexicographic order of their own
// canonical encoding before writing entries, so two encoders never
// produce different byte orderings for the same map.
func encodeMap(buf *bytes.Buffer, m map[string]Value, lim Limits, depth int) error {
	if lim.MaxMapLen > 0 && len(m) > lim.MaxMapLen {
		return newErr(ErrMapTooLong, buf.Len(), "map length %d exceeds limit %d", len(m), lim.MaxMapLen)
	}
	type entry struct {
		keyBytes []byte
		val      Value
	}
	entries := make([]entry, 0, len(m))
	for k, v := range m {
		var kb bytes.Buffer
		if err := encodeString(&kb, k, lim); err != nil {
			return err
		}
		entries = append(entries, entry{keyBytes: kb.Bytes(), val: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].keyBytes, entries[j].keyBytes) < 0
	})
	encodeUint(buf, majorMap, uint64(len(entries)))
	for _, e := range entries {
		buf.Write(e.keyBytes)
		if err := encodeValue(buf, e.val, lim, depth+1); err != nil {
			return err
		}
	}
	return nil
}
