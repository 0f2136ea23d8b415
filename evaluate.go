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

// Package detervm is the deterministic JavaScript evaluation shell: a
// sandboxed goja runtime that removes nondeterministic globals, meters
// execution and host calls in gas, and surfaces every outcome as a
// stable, hashable result.
//
// Evaluate is the single entry point most callers need; the harness
// package's scenario tests and the cmd/djsvm command both call it.
package detervm

import (
	"github.com/probechain/detervm/dispatch"
	"github.com/probechain/detervm/engine"
	"github.com/probechain/detervm/gas"
	"github.com/probechain/detervm/manifest"
	"github.com/probechain/detervm/result"
)

// Input is the per-evaluation data injected as the read-only event,
// steps, and document.canonical globals.
type Input = engine.Input

// Program is one source text to evaluate.
type Program struct {
	Source string
}

// Option configures an Evaluate call. Options are applied in order, so
// a later option overrides an earlier one that touches the same field.
type Option func(*options)

type options struct {
	gasLimit         uint64
	traceGas         bool
	hostTape         bool
	hostTapeCapacity int
	handlers         dispatch.HostHandlers
}

// WithGasLimit bounds the evaluation's gas budget. The default,
// gas.Unlimited, disables charging entirely.
func WithGasLimit(limit uint64) Option {
	return func(o *options) { o.gasLimit = limit }
}

// WithGasTrace enables per-category gas trace accumulation, returned on
// the result's Trace field.
func WithGasTrace(on bool) Option {
	return func(o *options) { o.traceGas = on }
}

// WithHostTape enables host-call audit tape retention, returned on the
// result's Tape field.
func WithHostTape(on bool) Option {
	return func(o *options) { o.hostTape = on }
}

// WithHostTapeCapacity bounds the retained host-call audit tape to
// capacity entries (drop-newest once full). Only meaningful alongside
// WithHostTape(true); the default, 0, leaves the engine's own default
// capacity in place.
func WithHostTapeCapacity(capacity int) Option {
	return func(o *options) { o.hostTapeCapacity = capacity }
}

// WithHandlers supplies the embedder's host-call implementations.
// Required whenever the manifest declares at least one function.
func WithHandlers(h dispatch.HostHandlers) Option {
	return func(o *options) { o.handlers = h }
}

// Evaluate parses manifestBytes, validates it, pins it against
// manifestHashHex, installs the determinism profile, and runs prog's
// source to completion under the configured gas budget: the full
// new_runtime -> init_deterministic -> eval -> free lifecycle,
// collapsed into a single call for one-shot callers.
func Evaluate(manifestBytes []byte, manifestHashHex string, in Input, prog Program, opts ...Option) result.EvaluateResult {
	cfg := options{gasLimit: gas.Unlimited}
	for _, opt := range opts {
		opt(&cfg)
	}

	handlers := cfg.handlers
	if handlers == nil {
		handlers = dispatch.Router{}
	}

	rt := engine.NewRuntime()
	defer rt.Free()
	rt.SetGasLimit(cfg.gasLimit)
	rt.EnableGasTrace(cfg.traceGas)
	rt.EnableHostTape(cfg.hostTape, cfg.hostTapeCapacity)

	if err := rt.InitDeterministic(manifestBytes, manifestHashHex, in, handlers); err != nil {
		return manifestErrResult(err)
	}
	return rt.Eval(prog.Source)
}

func manifestErrResult(err error) result.EvaluateResult {
	if err == engine.ErrManifestMismatch {
		return result.Err(result.KindManifestError, "", "", err.Error(), 0, 0, nil, nil)
	}
	if _, ok := err.(*manifest.ValidationError); ok {
		return result.Err(result.KindManifestError, "", "", err.Error(), 0, 0, nil, nil)
	}
	if _, ok := err.(*manifest.Error); ok {
		return result.Err(result.KindManifestError, "", "", err.Error(), 0, 0, nil, nil)
	}
	return result.Err(result.KindDecodeError, "", "", err.Error(), 0, 0, nil, nil)
}
