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
	"github.com/dop251/goja"

	"github.com/probechain/detervm/dispatch"
	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/gas"
	"github.com/probechain/detervm/manifest"
)

// defaultTapeCapacity bounds the host-call audit tape retained per
// Runtime when EnableHostTape is given no positive capacity: bounded,
// drop-newest once full.
const defaultTapeCapacity = 4096

// Input carries the per-evaluation values injected as the read-only
// event/steps/document.canonical ergonomic globals.
type Input struct {
	Event          dv.Value
	Steps          dv.Value
	EventCanonical dv.Value
}

// Runtime is one sandboxed goja.Runtime plus the accounting and
// dispatch state bound to it. It mirrors a register-VM's explicit
// lifecycle (new -> configure -> run -> free) adapted to goja's
// embeddable-runtime model.
type Runtime struct {
	vm           *goja.Runtime
	manifest     *manifest.Manifest
	acct         *gas.Accountant
	dispatcher   *dispatch.Dispatcher
	gasLimit     uint64
	traceOn      bool
	tapeOn       bool
	tapeCapacity int
	initialized  bool
}

// NewRuntime constructs an uninitialized Runtime.
// SetGasLimit/EnableGasTrace/EnableHostTape may be called before
// InitDeterministic; Eval requires InitDeterministic to have succeeded
// first.
func NewRuntime() *Runtime {
	return &Runtime{gasLimit: gas.Unlimited}
}

// SetGasLimit sets the gas budget used by the next InitDeterministic
// call. gas.Unlimited disables charging entirely.
func (r *Runtime) SetGasLimit(limit uint64) {
	r.gasLimit = limit
}

// EnableGasTrace turns per-category gas trace accumulation on or off
// for the next InitDeterministic call.
func (r *Runtime) EnableGasTrace(on bool) {
	r.traceOn = on
	if r.acct != nil {
		r.acct.EnableTrace(on)
	}
}

// ReadGasTrace returns the accumulated gas trace, or nil if tracing was
// never enabled or the runtime is uninitialized.
func (r *Runtime) ReadGasTrace() *gas.Trace {
	if r.acct == nil || !r.traceOn {
		return nil
	}
	t := r.acct.Trace()
	return &t
}

// EnableHostTape turns host-call audit tape retention on or off for the
// next InitDeterministic call. capacity bounds the retained tape;
// passing 0 falls back to defaultTapeCapacity.
func (r *Runtime) EnableHostTape(on bool, capacity int) {
	r.tapeOn = on
	r.tapeCapacity = capacity
}

// ReadHostTape returns the host-call audit tape records recorded so
// far, or nil if tape retention was never enabled or the runtime is
// uninitialized.
func (r *Runtime) ReadHostTape() []dispatch.TapeRecord {
	if r.dispatcher == nil || !r.tapeOn {
		return nil
	}
	return r.dispatcher.Tape().Records()
}

// Free releases the underlying goja runtime and dispatch state. Go's
// garbage collector reclaims everything once the Runtime is
// unreferenced; Free exists to make that intent explicit at the call
// site and to match a register-VM's explicit-lifecycle idiom.
func (r *Runtime) Free() {
	if r.initialized {
		engineLog.Debug("runtime freed", "abiId", r.manifest.ABIID)
	}
	r.vm = nil
	r.manifest = nil
	r.acct = nil
	r.dispatcher = nil
	r.initialized = false
}
