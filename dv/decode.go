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
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Decode parses b as a single canonical DV value, enforcing lim. Decode is
// strict: any feature of general CBOR this format does not use (tags,
// indefinite length, non-canonical integer widths, simple values other
// than true/false/null) is rejected rather than tolerated.
func Decode(b []byte, lim Limits) (Value, error) {
	if lim.MaxEncodedBytes > 0 && len(b) > lim.MaxEncodedBytes {
		return Value{}, newErr(ErrEncodedTooLarge, 0, "encoded size %d exceeds limit %d", len(b), lim.MaxEncodedBytes)
	}
	d := &decoder{buf: b, lim: lim}
	v, err := d.decodeValue(0)
	if err != nil {
		return Value{}, err
	}
	if d.pos != len(b) {
		return Value{}, newErr(ErrTruncated, d.pos, "trailing bytes after top-level value")
	}
	return v, nil
}

type decoder struct {
	buf []byte
	pos int
	lim Limits
}

// head is a decoded CBOR initial-byte + argument.
type head struct {
	major byte
	info  byte
	arg   uint64
}

// readHead parses the initial byte (and any following argument bytes),
// rejecting any encoding wider than the minimal canonical form for arg.
func (d *decoder) readHead() (head, error) {
	start := d.pos
	if d.pos >= len(d.buf) {
		return head{}, newErr(ErrTruncated, start, "unexpected end of input")
	}
	ib := d.buf[d.pos]
	d.pos++
	major := ib >> 5
	info := ib & 0x1f

	switch {
	case info < 24:
		return head{major: major, info: info, arg: uint64(info)}, nil
	case info == 24:
		if d.pos+1 > len(d.buf) {
			return head{}, newErr(ErrTruncated, start, "truncated 1-byte argument")
		}
		n := uint64(d.buf[d.pos])
		d.pos++
		if n < 24 {
			return head{}, newErr(ErrNonCanonicalLength, start, "1-byte argument %d should be inline", n)
		}
		return head{major: major, info: info, arg: n}, nil
	case info == 25:
		if d.pos+2 > len(d.buf) {
			return head{}, newErr(ErrTruncated, start, "truncated 2-byte argument")
		}
		n := uint64(binary.BigEndian.Uint16(d.buf[d.pos:]))
		d.pos += 2
		if n <= 0xff {
			return head{}, newErr(ErrNonCanonicalLength, start, "2-byte argument %d should use a shorter form", n)
		}
		return head{major: major, info: info, arg: n}, nil
	case info == 26:
		if d.pos+4 > len(d.buf) {
			return head{}, newErr(ErrTruncated, start, "truncated 4-byte argument")
		}
		n := uint64(binary.BigEndian.Uint32(d.buf[d.pos:]))
		d.pos += 4
		if n <= 0xffff {
			return head{}, newErr(ErrNonCanonicalLength, start, "4-byte argument %d should use a shorter form", n)
		}
		return head{major: major, info: info, arg: n}, nil
	case info == 27:
		if d.pos+8 > len(d.buf) {
			return head{}, newErr(ErrTruncated, start, "truncated 8-byte argument")
		}
		n := binary.BigEndian.Uint64(d.buf[d.pos:])
		d.pos += 8
		if major != majorSimple7 && n <= 0xffffffff {
			return head{}, newErr(ErrNonCanonicalLength, start, "8-byte argument %d should use a shorter form", n)
		}
		return head{major: major, info: info, arg: n}, nil
	default:
		// info 28-30 reserved, 31 is indefinite-length: both unsupported.
		return head{}, newErr(ErrUnsupportedCbor, start, "unsupported additional info %d", info)
	}
}

func (d *decoder) decodeValue(depth int) (Value, error) {
	if d.lim.MaxDepth > 0 && depth > d.lim.MaxDepth {
		return Value{}, newErr(ErrDepthExceeded, d.pos, "depth %d exceeds limit %d", depth, d.lim.MaxDepth)
	}
	start := d.pos
	h, err := d.readHead()
	if err != nil {
		return Value{}, err
	}
	switch h.major {
	case majorUint:
		if h.arg > uint64(MaxInt) {
			return Value{}, newErr(ErrIntegerOutOfRange, start, "uint %d exceeds max safe integer", h.arg)
		}
		return Int(int64(h.arg)), nil
	case majorNegInt:
		if h.arg > uint64(MaxInt)-1 {
			return Value{}, newErr(ErrIntegerOutOfRange, start, "negative int exceeds min safe integer")
		}
		return Int(-int64(h.arg) - 1), nil
	case majorBytes:
		return d.decodeBytes(h, start)
	case majorText:
		return d.decodeString(h, start)
	case majorArray:
		return d.decodeArray(h, start, depth)
	case majorMap:
		return d.decodeMap(h, start, depth)
	case majorSimple7:
		return d.decodeSimpleOrFloat(h, start)
	default:
		return Value{}, newErr(ErrUnsupportedCbor, start, "unsupported major type %d", h.major)
	}
}

func (d *decoder) decodeBytes(h head, start int) (Value, error) {
	n := int(h.arg)
	if d.pos+n > len(d.buf) {
		return Value{}, newErr(ErrTruncated, start, "truncated byte string of length %d", n)
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+n])
	d.pos += n
	return Bytes(out), nil
}

func (d *decoder) decodeString(h head, start int) (Value, error) {
	n := int(h.arg)
	if d.lim.MaxStringBytes > 0 && n > d.lim.MaxStringBytes {
		return Value{}, newErr(ErrStringTooLong, start, "string length %d exceeds limit %d", n, d.lim.MaxStringBytes)
	}
	if d.pos+n > len(d.buf) {
		return Value{}, newErr(ErrTruncated, start, "truncated text string of length %d", n)
	}
	raw := d.buf[d.pos : d.pos+n]
	d.pos += n
	if !utf8.Valid(raw) {
		return Value{}, newErr(ErrInvalidUtf8, start, "text string is not valid UTF-8")
	}
	return String(string(raw)), nil
}

func (d *decoder) decodeArray(h head, start, depth int) (Value, error) {
	n := int(h.arg)
	if d.lim.MaxArrayLen > 0 && n > d.lim.MaxArrayLen {
		return Value{}, newErr(ErrArrayTooLong, start, "array length %d exceeds limit %d", n, d.lim.MaxArrayLen)
	}
	elems := make([]Value, n)
	for i := 0; i < n; i++ {
		v, err := d.decodeValue(depth + 1)
		if err != nil {
			return Value{}, err
		}
		elems[i] = v
	}
	return Array(elems), nil
}

func (d *decoder) decodeMap(h head, start, depth int) (Value, error) {
	n := int(h.arg)
	if d.lim.MaxMapLen > 0 && n > d.lim.MaxMapLen {
		return Value{}, newErr(ErrMapTooLong, start, "map length %d exceeds limit %d", n, d.lim.MaxMapLen)
	}
	m := make(map[string]Value, n)
	var prevKeyBytes []byte
	for i := 0; i < n; i++ {
		keyStart := d.pos
		kh, err := d.readHead()
		if err != nil {
			return Value{}, err
		}
		if kh.major != majorText {
			return Value{}, newErr(ErrUnsupportedType, keyStart, "map key is not a text string")
		}
		keyVal, err := d.decodeString(kh, keyStart)
		if err != nil {
			return Value{}, err
		}
		keyBytes := d.buf[keyStart:d.pos]
		if prevKeyBytes != nil {
			cmp := compareBytes(prevKeyBytes, keyBytes)
			if cmp == 0 {
				return Value{}, newErr(ErrDuplicateKey, keyStart, "duplicate map key %q", keyVal.stringVal)
			}
			if cmp > 0 {
				return Value{}, newErr(ErrKeyOrder, keyStart, "map key %q is out of canonical order", keyVal.stringVal)
			}
		}
		prevKeyBytes = keyBytes

		v, err := d.decodeValue(depth + 1)
		if err != nil {
			return Value{}, err
		}
		m[keyVal.stringVal] = v
	}
	return Map(m), nil
}

func (d *decoder) decodeSimpleOrFloat(h head, start int) (Value, error) {
	switch h.info {
	case simpleFalse:
		return Bool(false), nil
	case simpleTrue:
		return Bool(true), nil
	case simpleNull:
		return Null(), nil
	case floatAddlInfo:
		bits := h.arg
		f := math.Float64frombits(bits)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, newErr(ErrNanOrInf, start, "float is NaN or Inf")
		}
		if f == math.Trunc(f) && f >= float64(MinInt) && f <= float64(MaxInt) {
			return Value{}, newErr(ErrNonCanonicalFloat, start, "integer-valued float must use integer encoding")
		}
		return Float(f), nil
	default:
		return Value{}, newErr(ErrUnsupportedCbor, start, "unsupported simple value %d", h.info)
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
