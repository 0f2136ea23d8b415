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

package harness

import (
	"context"
	"strings"

	"github.com/probechain/detervm/dispatch"
	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/engine"
	"github.com/probechain/detervm/manifest"
)

// program joins source lines the way a bytecode VM test suite's own
// program() helper joins instr() results into one instruction stream —
// a small builder so scenario bodies read as a list of statements, not
// one hand-escaped string literal.
func program(lines ...string) string {
	return strings.Join(lines, "\n")
}

// EmptyManifest returns a manifest declaring no host functions, for
// scenarios that only exercise pure JS evaluation and gas accounting.
func EmptyManifest() *manifest.Manifest {
	return &manifest.Manifest{ABIID: "harness.empty.v1", ABIVersion: 1}
}

// EchoManifest returns a manifest with one read-effect host function,
// document.get(path: string) -> DV, that echoes "echo:<path>" back.
// fnID 1 matches testManifest's convention in engine/engine_test.go.
func EchoManifest() *manifest.Manifest {
	return &manifest.Manifest{
		ABIID:      "harness.echo.v1",
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
				ErrorCodes: []manifest.ErrorCode{{Code: "NOT_FOUND", Tag: "document/not_found"}},
			},
		},
	}
}

// TightLimitManifest is EchoManifest with a response byte limit small
// enough that a long echoed path overflows it, for exercising the
// dispatcher's post-charge limit-violation path.
func TightLimitManifest() *manifest.Manifest {
	m := EchoManifest()
	m.ABIID = "harness.tight.v1"
	m.Functions[0].Limits.MaxResponseBytes = 8
	return m
}

// EchoHandlers answers EchoManifest/TightLimitManifest's fnID 1 by
// prefixing the requested path with "echo:".
func EchoHandlers() dispatch.Router {
	return dispatch.Router{
		1: func(ctx context.Context, args []dv.Value) (dispatch.Envelope, error) {
			path, _ := args[0].AsString()
			ret := dv.String("echo:" + path)
			return dispatch.Envelope{Ok: &ret, Units: 1}, nil
		},
	}
}

// NotFoundHandlers answers fnID 1 with the manifest-declared NOT_FOUND
// error envelope, for exercising the catchable HostError path.
func NotFoundHandlers() dispatch.Router {
	return dispatch.Router{
		1: func(ctx context.Context, args []dv.Value) (dispatch.Envelope, error) {
			return dispatch.Envelope{Err: &dispatch.EnvelopeError{Code: "NOT_FOUND", Tag: "document/not_found"}}, nil
		},
	}
}

// ReentrantHandlers answers fnID 1 by calling back into the dispatcher
// returned by getDispatcher before returning, for exercising the
// reentrancy guard: the outer Call sets the reentrant flag
// before invoking this handler, so the nested Call must observe it set
// and reject with the reserved host/transport error. getDispatcher is a
// function rather than a *Dispatcher directly because the dispatcher
// does not exist yet at the point its own handler table must be built —
// the caller assigns the real dispatcher to whatever getDispatcher reads
// from immediately after constructing it.
func ReentrantHandlers(getDispatcher func() *dispatch.Dispatcher) dispatch.Router {
	return dispatch.Router{
		1: func(ctx context.Context, args []dv.Value) (dispatch.Envelope, error) {
			_, err := getDispatcher().Call(ctx, 1, args)
			if err != nil {
				return dispatch.Envelope{}, err
			}
			ret := dv.String("unreachable")
			return dispatch.Envelope{Ok: &ret}, nil
		},
	}
}

// ManifestFixture is a manifest paired with its pinned canonical bytes
// and hash, ready to pass to detervm.Evaluate.
type ManifestFixture struct {
	Manifest  *manifest.Manifest
	Canonical []byte
	Hash      string
}

// Pin canonicalizes and hashes m, the same pin-then-verify step
// engine.InitDeterministic performs internally during manifest
// pinning.
func Pin(m *manifest.Manifest) (ManifestFixture, error) {
	canonical, err := manifest.Canonicalize(m)
	if err != nil {
		return ManifestFixture{}, err
	}
	return ManifestFixture{Manifest: m, Canonical: canonical, Hash: manifest.Hash(canonical)}, nil
}

// ZeroInput is the engine.Input used by scenarios that don't reference
// event/steps/document.canonical: all three ergonomic globals read as
// JS null/0.
func ZeroInput() engine.Input {
	return engine.Input{Event: dv.Null(), Steps: dv.Int(0), EventCanonical: dv.Null()}
}
