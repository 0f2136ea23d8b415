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

package dispatch

import (
	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/manifest"
)

// Envelope is a host handler's structured response to one call: exactly
// one of Ok or Err may be set, and Validate rejects anything else.
type Envelope struct {
	Ok    *dv.Value
	Err   *EnvelopeError
	Units uint32
}

// EnvelopeError is the err branch of an Envelope.
type EnvelopeError struct {
	Code    string
	Tag     string
	Details *dv.Value
}

// Reserved error codes no function-declared error_codes list may use.
// They repeat manifest.ReservedHostTransport and
// manifest.ReservedHostEnvelopeInvalid under this package's own names;
// both declarations hold the same two strings.
const (
	ReservedHostTransport       = "HOST_TRANSPORT"
	ReservedHostEnvelopeInvalid = "HOST_ENVELOPE_INVALID"
)

// shapeOK reports whether the envelope has exactly one of Ok/Err set.
func (e Envelope) shapeOK() bool {
	if e.Ok != nil && e.Err != nil {
		return false
	}
	return e.Ok != nil || e.Err != nil
}

// Validate checks the envelope against the declared function entry:
// exactly one of ok/err, units within bound, (for err) that the code is
// either reserved or declared by the function, and (for ok) that a
// function declared return_schema: null is not answered with a non-null
// ok value.
func Validate(e Envelope, maxUnits uint32, declaredCodes map[string]bool, returnSchema manifest.ArgType) error {
	if !e.shapeOK() {
		return errEnvelopeShape
	}
	if e.Units > maxUnits {
		return errEnvelopeUnits
	}
	if e.Ok != nil && returnSchema == manifest.ArgNull && e.Ok.Kind() != dv.KindNull {
		return errEnvelopeReturnSchema
	}
	if e.Err != nil {
		code := e.Err.Code
		if code != ReservedHostTransport && code != ReservedHostEnvelopeInvalid && !declaredCodes[code] {
			return errEnvelopeUnknownCode
		}
	}
	return nil
}

var (
	errEnvelopeShape        = envelopeShapeError("envelope must have exactly one of ok/err")
	errEnvelopeUnits        = envelopeShapeError("units exceeds max_units")
	errEnvelopeUnknownCode  = envelopeShapeError("err.code is not declared for this function")
	errEnvelopeReturnSchema = envelopeShapeError("ok is non-null but return_schema is null")
)

type envelopeShapeError string

func (e envelopeShapeError) Error() string { return string(e) }
