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

package detervm

import (
	"testing"

	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/manifest"
)

func emptyManifest(t *testing.T) ([]byte, string) {
	t.Helper()
	m := &manifest.Manifest{ABIID: "test.v1", ABIVersion: 1}
	canonical, err := manifest.Canonicalize(m)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	return canonical, manifest.Hash(canonical)
}

func TestEvaluateSimpleProgram(t *testing.T) {
	canonical, hash := emptyManifest(t)
	in := Input{Event: dv.Null(), Steps: dv.Int(0), EventCanonical: dv.Null()}
	res := Evaluate(canonical, hash, in, Program{Source: "40 + 2;"})
	if !res.IsOk {
		t.Fatalf("expected ok, got error: %s", res.Message)
	}
	n, ok := res.Value.AsInt()
	if !ok || n != 42 {
		t.Fatalf("value = %v, want 42", res.Value)
	}
}

func TestEvaluateManifestMismatchRejected(t *testing.T) {
	canonical, _ := emptyManifest(t)
	in := Input{Event: dv.Null(), Steps: dv.Int(0), EventCanonical: dv.Null()}
	res := Evaluate(canonical, "0000000000000000000000000000000000000000000000000000000000000000", in, Program{Source: "1;"})
	if res.IsOk {
		t.Fatalf("expected manifest mismatch error")
	}
	if res.Error.Kind != "ManifestError" {
		t.Fatalf("kind = %v, want ManifestError", res.Error.Kind)
	}
}

func TestEvaluateWithGasLimitExhausts(t *testing.T) {
	canonical, hash := emptyManifest(t)
	in := Input{Event: dv.Null(), Steps: dv.Int(0), EventCanonical: dv.Null()}
	res := Evaluate(canonical, hash, in, Program{Source: "1;"}, WithGasLimit(0))
	if res.IsOk {
		t.Fatalf("expected OutOfGas")
	}
	if res.Error.Kind != "OutOfGas" {
		t.Fatalf("kind = %v, want OutOfGas", res.Error.Kind)
	}
}
