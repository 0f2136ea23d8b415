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

package manifest

import "github.com/probechain/detervm/dv"

// Canonicalize validates m and returns its canonical DV encoding.
// Validation runs first because an invalid manifest has no
// well-defined canonical form.
func Canonicalize(m *Manifest) ([]byte, error) {
	if errs := ValidateAll(m); len(errs) > 0 {
		return nil, &Error{Cause: errs[0]}
	}
	return dv.Encode(toDV(m), dv.DefaultLimits())
}

func toDV(m *Manifest) dv.Value {
	functions := make([]dv.Value, len(m.Functions))
	for i, f := range m.Functions {
		functions[i] = functionToDV(f)
	}
	return dv.Map(map[string]dv.Value{
		"abi_id":      dv.String(m.ABIID),
		"abi_version": dv.Int(int64(m.ABIVersion)),
		"functions":   dv.Array(functions),
	})
}

func functionToDV(f FunctionEntry) dv.Value {
	jsPath := make([]dv.Value, len(f.JSPath))
	for i, s := range f.JSPath {
		jsPath[i] = dv.String(s)
	}
	argSchema := make([]dv.Value, len(f.ArgSchema))
	for i, a := range f.ArgSchema {
		argSchema[i] = dv.String(a.String())
	}
	errorCodes := make([]dv.Value, len(f.ErrorCodes))
	for i, ec := range f.ErrorCodes {
		entry := map[string]dv.Value{"code": dv.String(ec.Code)}
		if ec.Tag != "" {
			entry["tag"] = dv.String(ec.Tag)
		}
		errorCodes[i] = dv.Map(entry)
	}

	fields := map[string]dv.Value{
		"fn_id":         dv.Int(int64(f.FnID)),
		"js_path":       dv.Array(jsPath),
		"effect":        dv.String(f.Effect.String()),
		"arity":         dv.Int(int64(f.Arity)),
		"arg_schema":    dv.Array(argSchema),
		"return_schema": dv.String(f.ReturnSchema.String()),
		"gas":           gasParamsToDV(f.Gas),
		"limits":        limitsToDV(f.Limits, f.ArgSchema),
		"error_codes":   dv.Array(errorCodes),
	}
	return dv.Map(fields)
}

func gasParamsToDV(g GasParams) dv.Value {
	return dv.Map(map[string]dv.Value{
		"schedule_id":  dv.Int(int64(g.ScheduleID)),
		"base":         dv.Int(int64(g.Base)),
		"k_arg_bytes":  dv.Int(int64(g.KArgBytes)),
		"k_ret_bytes":  dv.Int(int64(g.KRetBytes)),
		"k_units":      dv.Int(int64(g.KUnits)),
	})
}

// limitsToDV omits arg_utf8_max entirely when no argument is a string,
// and otherwise encodes a sparse array whose non-string slots are simply
// absent from the wire by encoding them as null — the decoder in turn
// rejects a present (non-null) entry at a non-string slot.
func limitsToDV(l Limits, argSchema []ArgType) dv.Value {
	fields := map[string]dv.Value{
		"max_request_bytes":  dv.Int(int64(l.MaxRequestBytes)),
		"max_response_bytes": dv.Int(int64(l.MaxResponseBytes)),
		"max_units":          dv.Int(int64(l.MaxUnits)),
	}
	hasString := false
	for _, a := range argSchema {
		if a == ArgString {
			hasString = true
			break
		}
	}
	if hasString {
		slots := make([]dv.Value, len(argSchema))
		for i, a := range argSchema {
			if a == ArgString && l.ArgUTF8Max != nil && i < len(l.ArgUTF8Max) && l.ArgUTF8Max[i] != utf8MaxAbsent {
				slots[i] = dv.Int(int64(l.ArgUTF8Max[i]))
			} else {
				slots[i] = dv.Null()
			}
		}
		fields["arg_utf8_max"] = dv.Array(slots)
	}
	return dv.Map(fields)
}
