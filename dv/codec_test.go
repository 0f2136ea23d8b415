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
	"math"
	"testing"
	"testing/quick"
)

func mustEncode(t *testing.T, v Value) []byte {
	t.Helper()
	b, err := Encode(v, DefaultLimits())
	if err != nil {
		t.Fatalf("Encode(%v) returned unexpected error: %v", v, err)
	}
	return b
}

func TestRoundTripScalars(t *testing.T) {
	cases := []Value{
		Null(),
		Bool(true),
		Bool(false),
		Int(0),
		Int(42),
		Int(-42),
		Int(MaxInt),
		Int(MinInt),
		Float(1.5),
		Float(-1.5),
		String(""),
		String("hello, world"),
		Bytes([]byte{0x01, 0x02, 0x03}),
	}
	for _, v := range cases {
		b := mustEncode(t, v)
		got, err := Decode(b, DefaultLimits())
		if err != nil {
			t.Fatalf("Decode(Encode(%v)) returned error: %v", v, err)
		}
		if !got.Equal(v) {
			t.Errorf("round-trip mismatch: got %v, want %v", got, v)
		}
	}
}

func TestRoundTripContainers(t *testing.T) {
	arr := Array([]Value{Int(1), String("x"), Bool(true), Null()})
	m := Map(map[string]Value{
		"a": Int(1),
		"b": String("two"),
		"c": Array([]Value{Int(1), Int(2)}),
	})
	for _, v := range []Value{arr, m} {
		b := mustEncode(t, v)
		got, err := Decode(b, DefaultLimits())
		if err != nil {
			t.Fatalf("Decode error: %v", err)
		}
		if !got.Equal(v) {
			t.Errorf("round-trip mismatch: got %v, want %v", got, v)
		}
	}
}

func TestEncodeCanonicalBytesAreStable(t *testing.T) {
	v := Map(map[string]Value{"zz": Int(1), "aa": Int(2), "mm": Int(3)})
	b1 := mustEncode(t, v)
	b2 := mustEncode(t, v)
	if string(b1) != string(b2) {
		t.Fatalf("encode is not stable across calls")
	}
	got, err := Decode(b1, DefaultLimits())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b3 := mustEncode(t, got)
	if string(b1) != string(b3) {
		t.Fatalf("encode(decode(encode(v))) != encode(v)")
	}
}

func TestEncodeRejectsNanInf(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Encode(Float(f), DefaultLimits()); err == nil {
			t.Errorf("Encode(%v) should have failed", f)
		} else if ce, ok := err.(*CodecError); !ok || ce.Kind != ErrNanOrInf {
			t.Errorf("Encode(%v) error = %v, want ErrNanOrInf", f, err)
		}
	}
}

func TestEncodeCanonicalizesIntegerValuedFloat(t *testing.T) {
	b, err := Encode(Float(3.0), DefaultLimits())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b, DefaultLimits())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kind := got.Kind(); kind != KindInt {
		t.Errorf("integer-valued float encoded as %v, want int", kind)
	}
	n, _ := got.AsInt()
	if n != 3 {
		t.Errorf("got %d, want 3", n)
	}
}

func TestEncodeCanonicalizesNegativeZero(t *testing.T) {
	b, err := Encode(Float(math.Copysign(0, -1)), DefaultLimits())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b, DefaultLimits())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind() != KindInt {
		t.Fatalf("got kind %v, want int", got.Kind())
	}
	n, _ := got.AsInt()
	if n != 0 {
		t.Errorf("got %d, want 0", n)
	}
}

func TestDecodeRejectsNonCanonicalLength(t *testing.T) {
	// CBOR integer 1 encoded with a 1-byte following argument (0x18 0x01)
	// instead of the inline form.
	b := []byte{0x18, 0x01}
	_, err := Decode(b, DefaultLimits())
	if err == nil {
		t.Fatal("expected decode failure for non-canonical length")
	}
	ce, ok := err.(*CodecError)
	if !ok || ce.Kind != ErrNonCanonicalLength {
		t.Fatalf("got error %v, want ErrNonCanonicalLength", err)
	}
}

func TestDecodeRejectsUnorderedKeys(t *testing.T) {
	// map{"b":1,"a":2}: two entries, key order b before a (wrong order).
	b := []byte{
		0xa2,                   // map(2)
		0x61, 'b', 0x01,        // "b": 1
		0x61, 'a', 0x02,        // "a": 2
	}
	_, err := Decode(b, DefaultLimits())
	if err == nil {
		t.Fatal("expected decode failure for out-of-order keys")
	}
	ce, ok := err.(*CodecError)
	if !ok || ce.Kind != ErrKeyOrder {
		t.Fatalf("got error %v, want ErrKeyOrder", err)
	}
}

func TestDecodeRejectsDuplicateKey(t *testing.T) {
	b := []byte{
		0xa2,            // map(2)
		0x61, 'a', 0x01, // "a": 1
		0x61, 'a', 0x02, // "a": 2 (duplicate)
	}
	_, err := Decode(b, DefaultLimits())
	ce, ok := err.(*CodecError)
	if !ok || ce.Kind != ErrDuplicateKey {
		t.Fatalf("got error %v, want ErrDuplicateKey", err)
	}
}

func TestDecodeRejectsIndefiniteLength(t *testing.T) {
	// Text string with indefinite length (major 3, additional info 31).
	b := []byte{0x7f, 0xff}
	_, err := Decode(b, DefaultLimits())
	ce, ok := err.(*CodecError)
	if !ok || ce.Kind != ErrUnsupportedCbor {
		t.Fatalf("got error %v, want ErrUnsupportedCbor", err)
	}
}

func TestDecodeRejectsTag(t *testing.T) {
	// Major type 6 (tag) is never valid in this subset.
	b := []byte{0xc0, 0x00}
	_, err := Decode(b, DefaultLimits())
	if err == nil {
		t.Fatal("expected decode failure for CBOR tag")
	}
}

func TestLimitsRejectOversizedString(t *testing.T) {
	lim := DefaultLimits()
	lim.MaxStringBytes = 4
	_, err := Encode(String("hello"), lim)
	ce, ok := err.(*CodecError)
	if !ok || ce.Kind != ErrStringTooLong {
		t.Fatalf("got error %v, want ErrStringTooLong", err)
	}
}

func TestLimitsRejectExcessiveDepth(t *testing.T) {
	lim := DefaultLimits()
	lim.MaxDepth = 1
	nested := Array([]Value{Array([]Value{Int(1)})})
	_, err := Encode(nested, lim)
	ce, ok := err.(*CodecError)
	if !ok || ce.Kind != ErrDepthExceeded {
		t.Fatalf("got error %v, want ErrDepthExceeded", err)
	}
}

// TestRoundTripProperty exercises the encode/decode round-trip law
// against randomly generated shallow DV trees: Decode(Encode(v)) == v.
func TestRoundTripProperty(t *testing.T) {
	f := func(seed int64) bool {
		v := randValue(seed, 0)
		b, err := Encode(v, DefaultLimits())
		if err != nil {
			return true // generator may produce out-of-range values; skip
		}
		got, err := Decode(b, DefaultLimits())
		if err != nil {
			return false
		}
		if !got.Equal(v) {
			return false
		}
		b2, err := Encode(got, DefaultLimits())
		if err != nil || string(b2) != string(b) {
			return false
		}
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

func randValue(seed int64, depth int) Value {
	r := seed*2654435761 + 1
	kind := r % 8
	if kind < 0 {
		kind = -kind
	}
	if depth >= 4 {
		kind = kind % 6 // force a scalar past max test depth
	}
	switch kind {
	case 0:
		return Null()
	case 1:
		return Bool(r%2 == 0)
	case 2:
		return Int(r % (MaxInt / 2))
	case 3:
		return String("s")
	case 4:
		return Bytes([]byte{byte(r), byte(r >> 8)})
	case 5:
		return Float(float64(r%1000) + 0.5)
	case 6:
		return Array([]Value{randValue(r+1, depth+1), randValue(r+2, depth+1)})
	default:
		return Map(map[string]Value{
			"k1": randValue(r+1, depth+1),
			"k2": randValue(r+2, depth+1),
		})
	}
}
