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
	"fmt"
	"math"

	"github.com/dop251/goja"

	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/manifest"
)

// dvToJS converts a DV value into a goja value for injection into the
// runtime (ergonomic globals, host-call return values). bytes DV values
// become a plain JS Array of 0-255 integers: typed-array constructors
// are removed by the determinism profile, and a plain Array needs no
// special-cased prototype to stay deterministic.
func dvToJS(vm *goja.Runtime, v dv.Value) goja.Value {
	switch v.Kind() {
	case dv.KindNull:
		return goja.Null()
	case dv.KindBool:
		b, _ := v.AsBool()
		return vm.ToValue(b)
	case dv.KindInt:
		n, _ := v.AsInt()
		return vm.ToValue(n)
	case dv.KindFloat:
		f, _ := v.AsFloat()
		return vm.ToValue(f)
	case dv.KindString:
		s, _ := v.AsString()
		return vm.ToValue(s)
	case dv.KindBytes:
		b, _ := v.AsBytes()
		arr := make([]interface{}, len(b))
		for i, c := range b {
			arr[i] = int64(c)
		}
		return vm.ToValue(arr)
	case dv.KindArray:
		elems, _ := v.AsArray()
		arr := make([]interface{}, len(elems))
		for i, e := range elems {
			arr[i] = dvToJS(vm, e)
		}
		return vm.ToValue(arr)
	case dv.KindMap:
		fields, _ := v.AsMap()
		obj := vm.NewObject()
		for k, val := range fields {
			obj.Set(k, dvToJS(vm, val))
		}
		return obj
	default:
		return goja.Undefined()
	}
}

// jsToDV converts a goja value to its DV representation for encoding a
// completion value or a generic (non arg-schema-directed) value. It
// fails with a descriptive error for anything that cannot be
// DV-encoded (functions, symbols, NaN/Inf numbers, cyclic structures).
func jsToDV(vm *goja.Runtime, val goja.Value) (dv.Value, error) {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return dv.Null(), nil
	}
	switch {
	case isBoolean(val):
		return dv.Bool(val.ToBoolean()), nil
	case isNumber(val):
		f := val.ToFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return dv.Value{}, fmt.Errorf("result not DV-encodable: NaN/Inf")
		}
		if f == math.Trunc(f) && f >= dv.MinInt && f <= dv.MaxInt {
			return dv.Int(int64(f)), nil
		}
		return dv.Float(f), nil
	case isString(val):
		return dv.String(val.String()), nil
	}

	obj := val.ToObject(vm)
	if obj == nil {
		return dv.Value{}, fmt.Errorf("result not DV-encodable: %v", val)
	}
	if isArray(vm, obj) {
		length := int64(obj.Get("length").ToInteger())
		elems := make([]dv.Value, length)
		for i := int64(0); i < length; i++ {
			ev, err := jsToDV(vm, obj.Get(fmt.Sprintf("%d", i)))
			if err != nil {
				return dv.Value{}, err
			}
			elems[i] = ev
		}
		return dv.Array(elems), nil
	}

	fields := map[string]dv.Value{}
	for _, key := range obj.Keys() {
		fv, err := jsToDV(vm, obj.Get(key))
		if err != nil {
			return dv.Value{}, err
		}
		fields[key] = fv
	}
	return dv.Map(fields), nil
}

func isBoolean(v goja.Value) bool { return v.ExportType() != nil && v.ExportType().Kind().String() == "bool" }
func isNumber(v goja.Value) bool {
	t := v.ExportType()
	if t == nil {
		return false
	}
	switch t.Kind().String() {
	case "int64", "float64", "int", "int32":
		return true
	default:
		return false
	}
}
func isString(v goja.Value) bool { return v.ExportType() != nil && v.ExportType().Kind().String() == "string" }

func isArray(vm *goja.Runtime, obj *goja.Object) bool {
	return obj.ClassName() == "Array"
}

// coerceArg converts a goja argument value to a dv.Value according to a
// declared ArgType, rejecting a type mismatch with an error.
func coerceArg(vm *goja.Runtime, val goja.Value, want manifest.ArgType) (dv.Value, error) {
	switch want {
	case manifest.ArgNull:
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			return dv.Null(), nil
		}
		return dv.Value{}, fmt.Errorf("TypeError: expected null")
	case manifest.ArgBool:
		if !isBoolean(val) {
			return dv.Value{}, fmt.Errorf("TypeError: expected boolean")
		}
		return dv.Bool(val.ToBoolean()), nil
	case manifest.ArgInt:
		if !isNumber(val) {
			return dv.Value{}, fmt.Errorf("TypeError: expected integer")
		}
		f := val.ToFloat()
		if f != math.Trunc(f) {
			return dv.Value{}, fmt.Errorf("TypeError: expected integer")
		}
		return dv.Int(int64(f)), nil
	case manifest.ArgFloat:
		if !isNumber(val) {
			return dv.Value{}, fmt.Errorf("TypeError: expected number")
		}
		return dv.Float(val.ToFloat()), nil
	case manifest.ArgString:
		if !isString(val) {
			return dv.Value{}, fmt.Errorf("TypeError: expected string")
		}
		return dv.String(val.String()), nil
	case manifest.ArgBytes, manifest.ArgDV:
		return jsToDV(vm, val)
	default:
		return dv.Value{}, fmt.Errorf("TypeError: unknown arg type")
	}
}
