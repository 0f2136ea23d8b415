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

package result

import (
	"strings"
	"testing"

	"github.com/probechain/detervm/dv"
)

func TestOkFormatsRawLine(t *testing.T) {
	r, err := Ok(dv.Int(3), 132, 22, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.IsOk {
		t.Fatalf("expected IsOk")
	}
	if !strings.HasPrefix(r.Raw, "RESULT ") {
		t.Fatalf("raw = %q, want RESULT prefix", r.Raw)
	}
	if !strings.HasSuffix(r.Raw, "GAS remaining=22 used=132") {
		t.Fatalf("raw = %q, want GAS suffix", r.Raw)
	}
}

func TestOutOfGasRawLineMatchesSpec(t *testing.T) {
	r := OutOfGas(0, 0, nil, nil)
	want := "ERROR OutOfGas: out of gas GAS remaining=0 used=0"
	if r.Raw != want {
		t.Fatalf("raw = %q, want %q", r.Raw, want)
	}
	if r.Error.Kind != KindOutOfGas {
		t.Fatalf("kind = %v, want KindOutOfGas", r.Error.Kind)
	}
}

func TestErrFormatsRawLine(t *testing.T) {
	r := Err(KindHostError, "HOST_TRANSPORT", "host/transport", "HostError: transport failure", 10, 5, nil, nil)
	want := "ERROR HostError: transport failure GAS remaining=5 used=10"
	if r.Raw != want {
		t.Fatalf("raw = %q, want %q", r.Raw, want)
	}
	if r.IsOk {
		t.Fatalf("expected IsOk == false")
	}
}
