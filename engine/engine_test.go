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

package engine

import (
	"context"
	"testing"

	"github.com/probechain/detervm/dispatch"
	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/gas"
	"github.com/probechain/detervm/manifest"
)

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{
		ABIID:      "test.v1",
		ABIVersion: 1,
		Functions: []manifest.FunctionEntry{
			{
				FnID:         1,
				JSPath:       []string{"document", "get"},
				Effect:       manifest.EffectRead,
				Arity:        1,
				ArgSchema:    []manifest.ArgType{manifest.ArgString},
				ReturnSchema: manifest.ArgDV,
				Gas:          manifest.GasParams{ScheduleID: 1, Base: 10, KArgBytes: 1, KRetBytes: 1, KUnits: 1},
				Limits: manifest.Limits{
					MaxRequestBytes:  4096,
					MaxResponseBytes: 4096,
					MaxUnits:         1000,
					ArgUTF8Max:       []uint32{2048},
				},
				ErrorCodes: []manifest.ErrorCode{{Code: "LIMIT_EXCEEDED", Tag: "document/limit"}},
			},
		},
	}
}

func newTestRuntime(t *testing.T, gasLimit uint64, handlers dispatch.HostHandlers) *Runtime {
	t.Helper()
	m := testManifest()
	canonical, err := manifest.Canonicalize(m)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	hash := manifest.Hash(canonical)

	r := NewRuntime()
	r.SetGasLimit(gasLimit)
	in := Input{Event: dv.Null(), Steps: dv.Int(0), EventCanonical: dv.Null()}
	if err := r.InitDeterministic(canonical, hash, in, handlers); err != nil {
		t.Fatalf("InitDeterministic: %v", err)
	}
	return r
}

func TestEvalSimpleExpression(t *testing.T) {
	r := newTestRuntime(t, gas.Unlimited, dispatch.Router{})
	res := r.Eval("1 + 2;")
	if !res.IsOk {
		t.Fatalf("expected ok result, got error: %s", res.Message)
	}
	n, ok := res.Value.AsInt()
	if !ok || n != 3 {
		t.Fatalf("value = %v, want 3", res.Value)
	}
}

func TestEvalOutOfGas(t *testing.T) {
	r := newTestRuntime(t, 0, dispatch.Router{})
	res := r.Eval("1;")
	if res.IsOk {
		t.Fatalf("expected OutOfGas, got ok")
	}
	if res.Error.Kind != "OutOfGas" {
		t.Fatalf("kind = %v, want OutOfGas", res.Error.Kind)
	}
}

func TestEvalRemovedGlobalsAreUndefined(t *testing.T) {
	r := newTestRuntime(t, gas.Unlimited, dispatch.Router{})
	res := r.Eval("typeof Date;")
	if !res.IsOk {
		t.Fatalf("expected ok (typeof never throws), got error: %s", res.Message)
	}
	s, ok := res.Value.AsString()
	if !ok || s != "undefined" {
		t.Fatalf("typeof Date = %v, want undefined", res.Value)
	}
}

func TestEvalHostCallRoundTrip(t *testing.T) {
	handlers := dispatch.Router{
		1: func(ctx context.Context, args []dv.Value) (dispatch.Envelope, error) {
			s, _ := args[0].AsString()
			ret := dv.String("got:" + s)
			return dispatch.Envelope{Ok: &ret, Units: 1}, nil
		},
	}
	r := newTestRuntime(t, gas.Unlimited, handlers)
	res := r.Eval(`Host.v1.document.get("x");`)
	if !res.IsOk {
		t.Fatalf("expected ok, got error: %s", res.Message)
	}
	s, ok := res.Value.AsString()
	if !ok || s != "got:x" {
		t.Fatalf("value = %v, want got:x", res.Value)
	}
}

func TestEvalArrayCallbackMetered(t *testing.T) {
	r := newTestRuntime(t, gas.Unlimited, dispatch.Router{})
	r.EnableGasTrace(true)
	res := r.Eval("[1,2,3].map(function(x){ return x * 2; }).reduce(function(a,b){ return a+b; }, 0);")
	if !res.IsOk {
		t.Fatalf("expected ok, got error: %s", res.Message)
	}
	n, ok := res.Value.AsInt()
	if !ok || n != 12 {
		t.Fatalf("value = %v, want 12", res.Value)
	}
	if res.Trace == nil || res.Trace.ArrayCbBaseCount == 0 {
		t.Fatalf("expected array callback trace entries, got %+v", res.Trace)
	}
}

func TestEvalFrozenGlobalCannotBeReassigned(t *testing.T) {
	r := newTestRuntime(t, gas.Unlimited, dispatch.Router{})
	res := r.Eval(`
(function(){
  try {
    Host.v1.document = {};
    return "mutated";
  } catch (e) {
    return "frozen";
  }
})();
`)
	if !res.IsOk {
		t.Fatalf("expected ok, got error: %s", res.Message)
	}
	s, _ := res.Value.AsString()
	if s != "frozen" {
		t.Fatalf("value = %v, want frozen", res.Value)
	}
}

func TestEvalUnboundedLoopRunsOutOfGasInsteadOfHanging(t *testing.T) {
	r := newTestRuntime(t, 10, dispatch.Router{})
	res := r.Eval("while (true) { }")
	if res.IsOk {
		t.Fatalf("expected OutOfGas, got ok")
	}
	if res.Error.Kind != "OutOfGas" {
		t.Fatalf("kind = %v, want OutOfGas", res.Error.Kind)
	}
}

func TestEvalUnboundedForLoopRunsOutOfGas(t *testing.T) {
	r := newTestRuntime(t, 10, dispatch.Router{})
	res := r.Eval("for (;;) { }")
	if res.IsOk {
		t.Fatalf("expected OutOfGas, got ok")
	}
	if res.Error.Kind != "OutOfGas" {
		t.Fatalf("kind = %v, want OutOfGas", res.Error.Kind)
	}
}

func TestEvalUnboundedDoWhileLoopRunsOutOfGas(t *testing.T) {
	r := newTestRuntime(t, 10, dispatch.Router{})
	res := r.Eval("do { } while (true);")
	if res.IsOk {
		t.Fatalf("expected OutOfGas, got ok")
	}
	if res.Error.Kind != "OutOfGas" {
		t.Fatalf("kind = %v, want OutOfGas", res.Error.Kind)
	}
}

func TestEvalSingleStatementLoopBodyIsInstrumented(t *testing.T) {
	r := newTestRuntime(t, 10, dispatch.Router{})
	res := r.Eval("var i = 0; while (true) i++;")
	if res.IsOk {
		t.Fatalf("expected OutOfGas, got ok")
	}
	if res.Error.Kind != "OutOfGas" {
		t.Fatalf("kind = %v, want OutOfGas", res.Error.Kind)
	}
}

func TestEvalBoundedLoopCompletes(t *testing.T) {
	r := newTestRuntime(t, gas.Unlimited, dispatch.Router{})
	res := r.Eval("var sum = 0; for (var i = 0; i < 5; i++) { sum += i; } sum;")
	if !res.IsOk {
		t.Fatalf("expected ok, got error: %s", res.Message)
	}
	n, ok := res.Value.AsInt()
	if !ok || n != 10 {
		t.Fatalf("value = %v, want 10", res.Value)
	}
}

func TestEvalNestedLoopBodyIsInstrumented(t *testing.T) {
	r := newTestRuntime(t, 200, dispatch.Router{})
	res := r.Eval(`
var outerCount = 0;
for (var i = 0; i < 1000; i++) {
  outerCount++;
  while (true) { }
}
`)
	if res.IsOk {
		t.Fatalf("expected OutOfGas, got ok")
	}
	if res.Error.Kind != "OutOfGas" {
		t.Fatalf("kind = %v, want OutOfGas", res.Error.Kind)
	}
}

func TestInitDeterministicCachesValidatedManifest(t *testing.T) {
	m := testManifest()
	canonical, err := manifest.Canonicalize(m)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	hash := manifest.Hash(canonical)
	in := Input{Event: dv.Null(), Steps: dv.Int(0), EventCanonical: dv.Null()}

	r1 := NewRuntime()
	if err := r1.InitDeterministic(canonical, hash, in, dispatch.Router{}); err != nil {
		t.Fatalf("first InitDeterministic: %v", err)
	}
	r1.Free()

	cached, ok := manifestCache.GetValidated(hash)
	if !ok {
		t.Fatalf("expected manifest to be cached under its hash after first init")
	}
	if cached.ABIID != m.ABIID || cached.ABIVersion != m.ABIVersion {
		t.Fatalf("cached manifest = %+v, want matching abi id/version", cached)
	}

	if _, ok := manifestCache.GetCanonicalBytes(m.ABIID, m.ABIVersion); !ok {
		t.Fatalf("expected canonical bytes to be cached for abi id/version")
	}

	r2 := NewRuntime()
	if err := r2.InitDeterministic(canonical, hash, in, dispatch.Router{}); err != nil {
		t.Fatalf("second InitDeterministic (cache hit path): %v", err)
	}
	defer r2.Free()
	res := r2.Eval("1 + 1;")
	if !res.IsOk {
		t.Fatalf("expected ok result after cache-hit init, got error: %s", res.Message)
	}
}

func TestEvalBeforeInitReturnsInternalError(t *testing.T) {
	r := NewRuntime()
	res := r.Eval("1;")
	if res.IsOk {
		t.Fatalf("expected error before init")
	}
	if res.Error.Kind != "Internal" {
		t.Fatalf("kind = %v, want Internal", res.Error.Kind)
	}
}
