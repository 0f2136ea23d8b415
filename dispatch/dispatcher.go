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

// Package dispatch implements the host-call dispatcher: the single point
// through which JS-originated calls reach embedder-supplied handlers,
// performing manifest-backed routing, two-phase gas accounting, envelope
// validation, reentrancy/overlap guarding, and bounded audit-tape
// recording. Grounded on a register-VM's OpCall pre/post call-frame
// bookkeeping, generalized from a call-stack push/pop into a full
// charge/invoke/charge/record cycle, and on a chain-execution shell's
// ExecutionContext threading.
package dispatch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/gas"
	"github.com/probechain/detervm/log"
	"github.com/probechain/detervm/manifest"
)

// TransportErrorSentinel is host_call's u32 return value on transport
// failure: HOST_CALL_TRANSPORT_ERROR.
const TransportErrorSentinel = 0xFFFFFFFF

// HostHandlers answers host calls for an entire manifest, resolved by
// fnID. Embedders typically satisfy this with a Router.
type HostHandlers interface {
	Handle(ctx context.Context, fnID uint32, args []dv.Value) (Envelope, error)
}

// HandlerFunc answers a single declared function entry.
type HandlerFunc func(ctx context.Context, args []dv.Value) (Envelope, error)

// Router dispatches to per-fnID HandlerFuncs and implements HostHandlers.
type Router map[uint32]HandlerFunc

// Handle implements HostHandlers.
func (r Router) Handle(ctx context.Context, fnID uint32, args []dv.Value) (Envelope, error) {
	h, ok := r[fnID]
	if !ok {
		return Envelope{}, ErrUnknownFnID
	}
	return h(ctx, args)
}

// ErrUnknownFnID is returned by Router.Handle for an fnID with no
// registered handler. The Dispatcher maps any such failure the same way
// it maps a transport failure.
var ErrUnknownFnID = errors.New("dispatch: unknown fnId")

// CallError is Dispatcher.Call's catchable-failure return type. Kind is
// either "HostError" or "EnvelopeError"; the engine package maps both
// to catchable JS errors with this shape. cause, when set, is
// the low-level error (a DV encode/decode failure) this CallError was
// wrapped around; Code/Tag remain the stable discriminant the engine
// and result packages switch on, never the wrapped cause's message.
type CallError struct {
	Kind  string
	Code  string
	Tag   string
	cause error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Tag, e.Code)
}

// Cause implements github.com/pkg/errors's Causer interface, so
// pkgerrors.Cause(err) recovers the original DV encode/decode failure a
// CallError was wrapped around.
func (e *CallError) Cause() error { return e.cause }

// Unwrap gives the same access through the standard library's
// errors.Is/errors.As chain.
func (e *CallError) Unwrap() error { return e.cause }

// hostError / envelopeError build the two catchable CallError shapes
// with no underlying cause (the failure originates at the dispatcher
// itself, not from wrapping a lower-level error).
func hostError(code, tag string) error     { return &CallError{Kind: "HostError", Code: code, Tag: tag} }
func envelopeError(code, tag string) error { return &CallError{Kind: "EnvelopeError", Code: code, Tag: tag} }

// envelopeErrorFrom builds an EnvelopeError CallError that wraps a
// lower-level DV encode/decode failure with github.com/pkg/errors,
// preserving Code/Tag as the stable discriminant while still letting a
// caller recover the original cause via pkgerrors.Cause or errors.Unwrap.
func envelopeErrorFrom(code, tag string, cause error) error {
	return &CallError{Kind: "EnvelopeError", Code: code, Tag: tag, cause: pkgerrors.Wrap(cause, tag)}
}

// Dispatcher is the single point through which JS-originated calls reach
// host handlers. One Dispatcher belongs to exactly one runtime's
// evaluation, sharing that evaluation's gas.Accountant.
type Dispatcher struct {
	manifest  *manifest.Manifest
	handlers  HostHandlers
	acct      *gas.Accountant
	tape      *Tape
	reentrant bool
	log       log.Logger
}

// New creates a Dispatcher bound to one manifest, one handler set, and
// the evaluation's shared gas accountant. tapeCapacity bounds the audit
// tape (0 disables recording).
func New(m *manifest.Manifest, handlers HostHandlers, acct *gas.Accountant, tapeCapacity int) *Dispatcher {
	return &Dispatcher{manifest: m, handlers: handlers, acct: acct, tape: NewTape(tapeCapacity), log: log.Root().New("component", "dispatch")}
}

// Tape returns the dispatcher's recorded audit entries.
func (d *Dispatcher) Tape() *Tape { return d.tape }

// Call performs one host_call cycle for fnID. args are already
// positionally coerced to the function's declared arg_schema by the
// engine's Host.v1 installation layer (JS value → dv.Value happens
// there, where the goja.Value is still in hand); arity mismatch is still
// rechecked here as a defense against a caller bypassing that layer.
//
// There is no shared linear-memory buffer in this engine (goja values
// are not addressed by pointer/length pairs the way a WASM guest's are),
// so the overlap guard a linear-memory host ABI would need has no
// observable condition to guard here — the JS-facing arity/coercion/
// limit checks are the equivalent boundary this shell actually exposes.
// Reentrancy is still real and is guarded below: a handler that somehow
// re-enters Call (e.g. by driving the embedding program recursively) is
// rejected for as long as a host_call is already in flight.
func (d *Dispatcher) Call(ctx context.Context, fnID uint32, args []dv.Value) (dv.Value, error) {
	entry, ok := d.manifest.ByFnID(fnID)
	if !ok {
		return dv.Value{}, hostError(ReservedHostTransport, "host/transport")
	}
	if d.reentrant {
		d.log.Debug("rejected reentrant host_call", "fnId", fnID)
		return dv.Value{}, hostError(ReservedHostTransport, "host/transport")
	}
	if len(args) != int(entry.Arity) {
		return dv.Value{}, envelopeError(ReservedHostEnvelopeInvalid, "host/envelope_invalid")
	}

	for i, a := range entry.ArgSchema {
		if a != manifest.ArgString {
			continue
		}
		s, ok := args[i].AsString()
		if !ok {
			continue
		}
		if i < len(entry.Limits.ArgUTF8Max) && uint32(len(s)) > entry.Limits.ArgUTF8Max[i] {
			d.tape.Append(TapeRecord{FnID: fnID, Units: 0, ChargeFailed: true, IsError: true})
			return dv.Value{}, hostError("LIMIT_EXCEEDED", "host/limit_exceeded")
		}
	}

	reqBytes, err := dv.Encode(dv.Array(args), dv.DefaultLimits())
	if err != nil {
		return dv.Value{}, envelopeErrorFrom(ReservedHostEnvelopeInvalid, "host/envelope_invalid", err)
	}
	if uint32(len(reqBytes)) > entry.Limits.MaxRequestBytes {
		d.tape.Append(TapeRecord{
			FnID: fnID, ReqLen: uint32(len(reqBytes)), Units: 0, ChargeFailed: true, IsError: true,
			ReqHash: sha256.Sum256(reqBytes),
		})
		return dv.Value{}, hostError("LIMIT_EXCEEDED", "host/limit_exceeded")
	}

	gasPre, chargeErr := d.acct.PreCharge(entry.Gas.Base, entry.Gas.KArgBytes, uint64(len(reqBytes)))
	if chargeErr != nil {
		return dv.Value{}, chargeErr // gas.ErrOutOfGas (uncatchable) or gas.ErrOverflow (catchable TypeError)
	}

	d.reentrant = true
	env, handlerErr := d.invokeHandler(ctx, fnID, args)
	d.reentrant = false

	if handlerErr != nil {
		d.tape.Append(TapeRecord{
			FnID: fnID, ReqLen: uint32(len(reqBytes)), GasPre: gasPre,
			IsError: true, ChargeFailed: true, ReqHash: sha256.Sum256(reqBytes),
		})
		return dv.Value{}, hostError(ReservedHostTransport, "host/transport")
	}

	declared := make(map[string]bool, len(entry.ErrorCodes))
	for _, ec := range entry.ErrorCodes {
		declared[ec.Code] = true
	}
	if verr := Validate(env, entry.Limits.MaxUnits, declared, entry.ReturnSchema); verr != nil {
		d.log.Debug("rejected host envelope", "fnId", fnID, "reason", verr.Error())
		respBytes, _ := encodeEnvelope(env)
		gasPost, _ := d.acct.PostCharge(entry.Gas.KRetBytes, entry.Gas.KUnits, uint64(len(respBytes)), uint64(env.Units))
		d.tape.Append(TapeRecord{
			FnID: fnID, ReqLen: uint32(len(reqBytes)), RespLen: uint32(len(respBytes)), Units: env.Units,
			GasPre: gasPre, GasPost: gasPost, IsError: true, ChargeFailed: true,
			ReqHash: sha256.Sum256(reqBytes), RespHash: sha256.Sum256(respBytes),
		})
		return dv.Value{}, envelopeError(ReservedHostEnvelopeInvalid, "host/envelope_invalid")
	}

	respBytes, encErr := encodeEnvelope(env)
	if encErr != nil {
		return dv.Value{}, envelopeErrorFrom(ReservedHostEnvelopeInvalid, "host/envelope_invalid", encErr)
	}
	if uint32(len(respBytes)) > entry.Limits.MaxResponseBytes {
		d.log.Debug("rejected host envelope", "fnId", fnID, "reason", "response exceeds max_response_bytes")
		gasPost, _ := d.acct.PostCharge(entry.Gas.KRetBytes, entry.Gas.KUnits, uint64(len(respBytes)), uint64(env.Units))
		d.tape.Append(TapeRecord{
			FnID: fnID, ReqLen: uint32(len(reqBytes)), RespLen: uint32(len(respBytes)), Units: env.Units,
			GasPre: gasPre, GasPost: gasPost, IsError: true, ChargeFailed: true,
			ReqHash: sha256.Sum256(reqBytes), RespHash: sha256.Sum256(respBytes),
		})
		return dv.Value{}, envelopeError(ReservedHostEnvelopeInvalid, "host/envelope_invalid")
	}

	gasPost, pcErr := d.acct.PostCharge(entry.Gas.KRetBytes, entry.Gas.KUnits, uint64(len(respBytes)), uint64(env.Units))
	d.tape.Append(TapeRecord{
		FnID: fnID, ReqLen: uint32(len(reqBytes)), RespLen: uint32(len(respBytes)), Units: env.Units,
		GasPre: gasPre, GasPost: gasPost, IsError: env.Err != nil, ChargeFailed: pcErr != nil,
		ReqHash: sha256.Sum256(reqBytes), RespHash: sha256.Sum256(respBytes),
	})

	if pcErr != nil {
		// The host effect already occurred; the error still propagates
		// (uncatchable OOG, or catchable overflow).
		return dv.Value{}, pcErr
	}
	if env.Err != nil {
		return dv.Value{}, hostError(env.Err.Code, env.Err.Tag)
	}
	return *env.Ok, nil
}

// invokeHandler calls the embedder's handler, converting any panic into
// a transport-shaped failure so a misbehaving handler can never crash
// the evaluation.
func (d *Dispatcher) invokeHandler(ctx context.Context, fnID uint32, args []dv.Value) (env Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: host handler panicked: %v", r)
		}
	}()
	return d.handlers.Handle(ctx, fnID, args)
}

func encodeEnvelope(env Envelope) ([]byte, error) {
	fields := map[string]dv.Value{
		"units": dv.Int(int64(env.Units)),
	}
	if env.Ok != nil {
		fields["ok"] = *env.Ok
	}
	if env.Err != nil {
		errFields := map[string]dv.Value{
			"code": dv.String(env.Err.Code),
			"tag":  dv.String(env.Err.Tag),
		}
		if env.Err.Details != nil {
			errFields["details"] = *env.Err.Details
		}
		fields["err"] = dv.Map(errFields)
	}
	return dv.Encode(dv.Map(fields), dv.DefaultLimits())
}
