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

import (
	"fmt"

	"github.com/probechain/detervm/dv"
)

// Parse decodes canonical manifest bytes into a Manifest and validates it.
// This is the entry point used by engine.InitDeterministic: raw bytes in,
// a validated Manifest (or a ManifestError) out.
func Parse(b []byte) (*Manifest, error) {
	v, err := dv.Decode(b, dv.DefaultLimits())
	if err != nil {
		return nil, &Error{Cause: newValidationError(ErrUnknownField, 0, "manifest is not valid DV: %v", err)}
	}
	m, err := fromDV(v)
	if err != nil {
		return nil, err
	}
	if errs := ValidateAll(m); len(errs) > 0 {
		return nil, &Error{Cause: errs[0]}
	}
	return m, nil
}

func fromDV(v dv.Value) (*Manifest, error) {
	fields, ok := v.AsMap()
	if !ok {
		return nil, shapeErr("manifest root is not a map")
	}
	abiID, ok := stringField(fields, "abi_id")
	if !ok {
		return nil, shapeErr("abi_id missing or not a string")
	}
	abiVersion, ok := uintField(fields, "abi_version")
	if !ok {
		return nil, shapeErr("abi_version missing or invalid")
	}
	functionsVal, ok := fields["functions"]
	if !ok {
		return nil, shapeErr("functions missing")
	}
	functionsArr, ok := functionsVal.AsArray()
	if !ok {
		return nil, shapeErr("functions is not an array")
	}

	allowed := map[string]bool{"abi_id": true, "abi_version": true, "functions": true}
	if err := rejectUnknown(fields, allowed); err != nil {
		return nil, err
	}

	functions := make([]FunctionEntry, len(functionsArr))
	for i, fv := range functionsArr {
		f, err := functionFromDV(fv)
		if err != nil {
			return nil, err
		}
		functions[i] = f
	}

	return &Manifest{ABIID: abiID, ABIVersion: uint32(abiVersion), Functions: functions}, nil
}

func functionFromDV(v dv.Value) (FunctionEntry, error) {
	fields, ok := v.AsMap()
	if !ok {
		return FunctionEntry{}, shapeErr("function entry is not a map")
	}
	allowed := map[string]bool{
		"fn_id": true, "js_path": true, "effect": true, "arity": true,
		"arg_schema": true, "return_schema": true, "gas": true, "limits": true,
		"error_codes": true,
	}
	if err := rejectUnknown(fields, allowed); err != nil {
		return FunctionEntry{}, err
	}

	fnID, ok := uintField(fields, "fn_id")
	if !ok {
		return FunctionEntry{}, shapeErr("fn_id missing or invalid")
	}
	jsPathArr, ok := arrayField(fields, "js_path")
	if !ok {
		return FunctionEntry{}, shapeErr("js_path missing or not an array")
	}
	jsPath := make([]string, len(jsPathArr))
	for i, s := range jsPathArr {
		str, ok := s.AsString()
		if !ok {
			return FunctionEntry{}, shapeErr("js_path entry is not a string")
		}
		jsPath[i] = str
	}
	effectStr, ok := stringField(fields, "effect")
	if !ok {
		return FunctionEntry{}, shapeErr("effect missing or not a string")
	}
	effect, ok := ParseEffect(effectStr)
	if !ok {
		return FunctionEntry{}, shapeErr(fmt.Sprintf("unknown effect %q", effectStr))
	}
	arity, ok := uintField(fields, "arity")
	if !ok {
		return FunctionEntry{}, shapeErr("arity missing or invalid")
	}
	argSchemaArr, ok := arrayField(fields, "arg_schema")
	if !ok {
		return FunctionEntry{}, shapeErr("arg_schema missing or not an array")
	}
	argSchema := make([]ArgType, len(argSchemaArr))
	for i, s := range argSchemaArr {
		str, ok := s.AsString()
		if !ok {
			return FunctionEntry{}, shapeErr("arg_schema entry is not a string")
		}
		at, ok := ParseArgType(str)
		if !ok {
			return FunctionEntry{}, shapeErr(fmt.Sprintf("unknown arg type %q", str))
		}
		argSchema[i] = at
	}
	returnStr, ok := stringField(fields, "return_schema")
	if !ok {
		return FunctionEntry{}, shapeErr("return_schema missing or not a string")
	}
	returnSchema, ok := ParseArgType(returnStr)
	if !ok {
		return FunctionEntry{}, shapeErr(fmt.Sprintf("unknown return type %q", returnStr))
	}

	gasVal, ok := fields["gas"]
	if !ok {
		return FunctionEntry{}, shapeErr("gas missing")
	}
	gasParams, err := gasParamsFromDV(gasVal)
	if err != nil {
		return FunctionEntry{}, err
	}

	limitsVal, ok := fields["limits"]
	if !ok {
		return FunctionEntry{}, shapeErr("limits missing")
	}
	limits, err := limitsFromDV(limitsVal, argSchema)
	if err != nil {
		return FunctionEntry{}, err
	}

	errCodesArr, ok := arrayField(fields, "error_codes")
	if !ok {
		return FunctionEntry{}, shapeErr("error_codes missing or not an array")
	}
	errorCodes := make([]ErrorCode, len(errCodesArr))
	for i, ev := range errCodesArr {
		ecFields, ok := ev.AsMap()
		if !ok {
			return FunctionEntry{}, shapeErr("error_codes entry is not a map")
		}
		code, ok := stringField(ecFields, "code")
		if !ok {
			return FunctionEntry{}, shapeErr("error_codes entry missing code")
		}
		tag, _ := stringField(ecFields, "tag")
		errorCodes[i] = ErrorCode{Code: code, Tag: tag}
	}

	return FunctionEntry{
		FnID:         uint32(fnID),
		JSPath:       jsPath,
		Effect:       effect,
		Arity:        uint32(arity),
		ArgSchema:    argSchema,
		ReturnSchema: returnSchema,
		Gas:          gasParams,
		Limits:       limits,
		ErrorCodes:   errorCodes,
	}, nil
}

func gasParamsFromDV(v dv.Value) (GasParams, error) {
	fields, ok := v.AsMap()
	if !ok {
		return GasParams{}, shapeErr("gas is not a map")
	}
	allowed := map[string]bool{"schedule_id": true, "base": true, "k_arg_bytes": true, "k_ret_bytes": true, "k_units": true}
	if err := rejectUnknown(fields, allowed); err != nil {
		return GasParams{}, err
	}
	scheduleID, ok1 := uintField(fields, "schedule_id")
	base, ok2 := uintField(fields, "base")
	kArg, ok3 := uintField(fields, "k_arg_bytes")
	kRet, ok4 := uintField(fields, "k_ret_bytes")
	kUnits, ok5 := uintField(fields, "k_units")
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return GasParams{}, shapeErr("gas fields missing or invalid")
	}
	return GasParams{
		ScheduleID: uint32(scheduleID),
		Base:       uint32(base),
		KArgBytes:  uint32(kArg),
		KRetBytes:  uint32(kRet),
		KUnits:     uint32(kUnits),
	}, nil
}

func limitsFromDV(v dv.Value, argSchema []ArgType) (Limits, error) {
	fields, ok := v.AsMap()
	if !ok {
		return Limits{}, shapeErr("limits is not a map")
	}
	allowed := map[string]bool{"max_request_bytes": true, "max_response_bytes": true, "max_units": true, "arg_utf8_max": true}
	if err := rejectUnknown(fields, allowed); err != nil {
		return Limits{}, err
	}
	maxReq, ok1 := uintField(fields, "max_request_bytes")
	maxResp, ok2 := uintField(fields, "max_response_bytes")
	maxUnits, ok3 := uintField(fields, "max_units")
	if !(ok1 && ok2 && ok3) {
		return Limits{}, shapeErr("limits fields missing or invalid")
	}
	l := Limits{MaxRequestBytes: uint32(maxReq), MaxResponseBytes: uint32(maxResp), MaxUnits: uint32(maxUnits)}

	if av, present := fields["arg_utf8_max"]; present {
		arr, ok := av.AsArray()
		if !ok {
			return Limits{}, shapeErr("arg_utf8_max is not an array")
		}
		if len(arr) != len(argSchema) {
			return Limits{}, shapeErr("arg_utf8_max length does not match arg_schema")
		}
		slots := make([]uint32, len(arr))
		for i, sv := range arr {
			if sv.Kind() == dv.KindNull {
				if argSchema[i] == ArgString {
					return Limits{}, shapeErr(fmt.Sprintf("arg_utf8_max[%d] must be defined for string argument", i))
				}
				slots[i] = utf8MaxAbsent
				continue
			}
			if argSchema[i] != ArgString {
				return Limits{}, shapeErr(fmt.Sprintf("arg_utf8_max[%d] must be omitted for non-string argument", i))
			}
			n, ok := sv.AsInt()
			if !ok {
				return Limits{}, shapeErr(fmt.Sprintf("arg_utf8_max[%d] is not an int", i))
			}
			slots[i] = uint32(n)
		}
		l.ArgUTF8Max = slots
	}
	return l, nil
}

func shapeErr(msg string) error {
	return &Error{Cause: newValidationError(ErrUnknownField, 0, "%s", msg)}
}

func rejectUnknown(fields map[string]dv.Value, allowed map[string]bool) error {
	for k := range fields {
		if !allowed[k] {
			return shapeErr(fmt.Sprintf("unknown field %q", k))
		}
	}
	return nil
}

func stringField(fields map[string]dv.Value, name string) (string, bool) {
	v, ok := fields[name]
	if !ok {
		return "", false
	}
	return v.AsString()
}

func uintField(fields map[string]dv.Value, name string) (int64, bool) {
	v, ok := fields[name]
	if !ok {
		return 0, false
	}
	n, ok := v.AsInt()
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

func arrayField(fields map[string]dv.Value, name string) ([]dv.Value, bool) {
	v, ok := fields[name]
	if !ok {
		return nil, false
	}
	return v.AsArray()
}
