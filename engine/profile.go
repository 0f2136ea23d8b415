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
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/probechain/detervm/dispatch"
	"github.com/probechain/detervm/dv"
	"github.com/probechain/detervm/gas"
	"github.com/probechain/detervm/manifest"
)

// removedGlobals lists every global binding the determinism profile
// strips before user code runs. Deleting the property from globalThis
// is sufficient: goja's own native ReferenceError on access to an
// undeclared/deleted identifier already matches the required message
// shape, so the shell never needs to re-synthesize it.
var removedGlobals = []string{
	"Date", "Promise", "eval", "Function", "Proxy", "RegExp", "WeakRef",
	"WebAssembly", "SharedArrayBuffer", "ArrayBuffer", "DataView",
	"Int8Array", "Uint8Array", "Uint8ClampedArray", "Int16Array",
	"Uint16Array", "Int32Array", "Uint32Array", "Float32Array",
	"Float64Array", "BigInt64Array", "BigUint64Array",
}

// oogMarker is the value passed to Runtime.Interrupt when a charge fails
// under the budget. goja surfaces this as a *goja.InterruptedError that
// JS try/catch cannot observe — exactly the uncatchable OutOfGas
// semantics required here.
const oogMarker = "out of gas"

// installDeterminismProfile removes nondeterministic globals, installs
// the read-only Host.v1 namespace, injects the ergonomic event/steps/
// document.canonical globals, installs gas-metered Array iteration
// builtins, and finally deep-freezes the global object.
func installDeterminismProfile(vm *goja.Runtime, m *manifest.Manifest, d *dispatch.Dispatcher, acct *gas.Accountant, in Input) error {
	global := vm.GlobalObject()
	for _, name := range removedGlobals {
		global.Delete(name)
	}
	if mv := vm.Get("Math"); mv != nil && !goja.IsUndefined(mv) {
		if mo := mv.ToObject(vm); mo != nil {
			mo.Delete("random")
		}
	}

	if err := installHostNamespace(vm, m, d); err != nil {
		return err
	}
	installErgonomicGlobals(vm, in)
	if err := installMeteredArrayCallbacks(vm, acct); err != nil {
		return err
	}
	installGasStepHook(vm, acct)

	_, err := vm.RunString(`
(function(root){
  var seen = new Set();
  function deepFreeze(o) {
    if (o === null || typeof o !== "object" || seen.has(o)) { return; }
    seen.add(o);
    Object.freeze(o);
    var names = Object.getOwnPropertyNames(o);
    for (var i = 0; i < names.length; i++) { deepFreeze(o[names[i]]); }
  }
  deepFreeze(root);
})(this);
`)
	return err
}

// installHostNamespace builds Host.v1.<js_path...> as frozen functions
// each closing over one FunctionEntry's fn_id.
func installHostNamespace(vm *goja.Runtime, m *manifest.Manifest, d *dispatch.Dispatcher) error {
	host := vm.NewObject()
	v1 := vm.NewObject()
	if err := host.Set("v1", v1); err != nil {
		return err
	}
	for _, entry := range m.Functions {
		if err := installHostFunction(vm, v1, entry, d); err != nil {
			return err
		}
	}
	return vm.Set("Host", host)
}

func installHostFunction(vm *goja.Runtime, root *goja.Object, entry manifest.FunctionEntry, d *dispatch.Dispatcher) error {
	cur := root
	for _, seg := range entry.JSPath[:len(entry.JSPath)-1] {
		child := cur.Get(seg)
		var childObj *goja.Object
		if child == nil || goja.IsUndefined(child) {
			childObj = vm.NewObject()
			if err := cur.Set(seg, childObj); err != nil {
				return err
			}
		} else {
			childObj = child.ToObject(vm)
		}
		cur = childObj
	}

	leaf := entry.JSPath[len(entry.JSPath)-1]
	fnID := entry.FnID
	argSchema := entry.ArgSchema
	fullPath := strings.Join(entry.JSPath, ".")

	return cur.Set(leaf, func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) != len(argSchema) {
			panic(vm.NewTypeError(fmt.Sprintf("Host.v1.%s: arity mismatch", fullPath)))
		}
		args := make([]dv.Value, len(argSchema))
		for i, want := range argSchema {
			v, err := coerceArg(vm, call.Argument(i), want)
			if err != nil {
				panic(vm.NewTypeError(err.Error()))
			}
			args[i] = v
		}

		res, err := d.Call(context.Background(), fnID, args)
		if err == nil {
			return dvToJS(vm, res)
		}
		switch {
		case err == gas.ErrOutOfGas:
			vm.Interrupt(oogMarker)
			return goja.Undefined()
		case err == gas.ErrOverflow:
			panic(vm.NewTypeError("host_call gas overflow"))
		default:
			if ce, ok := err.(*dispatch.CallError); ok {
				errObj := vm.NewObject()
				errObj.Set("name", "HostError")
				errObj.Set("code", ce.Code)
				errObj.Set("tag", ce.Tag)
				panic(errObj)
			}
			panic(vm.NewGoError(err))
		}
	})
}

// installErgonomicGlobals injects the read-only `event`, `steps`, and
// `document.canonical` globals populated from the evaluation's Input.
func installErgonomicGlobals(vm *goja.Runtime, in Input) {
	vm.Set("event", dvToJS(vm, in.Event))
	vm.Set("steps", dvToJS(vm, in.Steps))
	document := vm.NewObject()
	document.Set("canonical", dvToJS(vm, in.EventCanonical))
	vm.Set("document", document)
}

// installMeteredArrayCallbacks replaces the seven gas-metered
// Array.prototype iteration builtins with implementations that charge
// ArrayCallbackBase on entry and ArrayCallbackStep per
// iteration (including hole-skip and early return) before delegating to
// the user callback. A charge that exhausts the budget interrupts the
// runtime the same way a Host.v1 call's exhaustion does.
func installMeteredArrayCallbacks(vm *goja.Runtime, acct *gas.Accountant) error {
	meter := vm.NewObject()
	meter.Set("enter", func(call goja.FunctionCall) goja.Value {
		if err := acct.UseArrayCallbackEntry(); err != nil {
			vm.Interrupt(oogMarker)
		}
		return goja.Undefined()
	})
	meter.Set("step", func(call goja.FunctionCall) goja.Value {
		if err := acct.UseArrayCallbackStep(); err != nil {
			vm.Interrupt(oogMarker)
		}
		return goja.Undefined()
	})

	install, err := vm.RunString(arrayCallbackPrelude)
	if err != nil {
		return err
	}
	fn, ok := goja.AssertFunction(install)
	if !ok {
		return fmt.Errorf("engine: array callback prelude did not produce a function")
	}
	_, err = fn(goja.Undefined(), meter)
	return err
}

// installGasStepHook installs the __gasStep global called once per loop
// entry by instrument.go's body-rewriting pass: every instrumented for/
// while/do-while body calls it as its first statement. This is the
// dynamic half of opcode-dispatch metering — countTopLevelStatements
// charges a static lump for the program's top-level shape once per
// eval, which does nothing to bound a loop whose body never makes a
// host call; __gasStep charges one opcode-dispatch unit per loop-body
// entry so such a loop still runs out of gas. __gasStep is installed as
// an ordinary global and is frozen along with everything else by the
// deep-freeze pass below, the same way Host is; a user program that
// declares its own `__gasStep` cannot shadow it once frozen.
func installGasStepHook(vm *goja.Runtime, acct *gas.Accountant) {
	vm.Set("__gasStep", func(call goja.FunctionCall) goja.Value {
		if err := acct.UseOpcode(1); err != nil {
			vm.Interrupt(oogMarker)
		}
		return goja.Undefined()
	})
}

// arrayCallbackPrelude takes the metering object as its sole argument so
// it never needs to be exposed as a global (and therefore never needs
// removing before the deep-freeze pass).
const arrayCallbackPrelude = `
(function(__meter){
  Array.prototype.forEach = function(cb, thisArg) {
    __meter.enter();
    for (var i = 0; i < this.length; i++) {
      __meter.step();
      if (!(i in this)) continue;
      cb.call(thisArg, this[i], i, this);
    }
  };
  Array.prototype.map = function(cb, thisArg) {
    __meter.enter();
    var out = new Array(this.length);
    for (var i = 0; i < this.length; i++) {
      __meter.step();
      if (!(i in this)) continue;
      out[i] = cb.call(thisArg, this[i], i, this);
    }
    return out;
  };
  Array.prototype.filter = function(cb, thisArg) {
    __meter.enter();
    var out = [];
    for (var i = 0; i < this.length; i++) {
      __meter.step();
      if (!(i in this)) continue;
      if (cb.call(thisArg, this[i], i, this)) out.push(this[i]);
    }
    return out;
  };
  Array.prototype.every = function(cb, thisArg) {
    __meter.enter();
    for (var i = 0; i < this.length; i++) {
      __meter.step();
      if (!(i in this)) continue;
      if (!cb.call(thisArg, this[i], i, this)) return false;
    }
    return true;
  };
  Array.prototype.some = function(cb, thisArg) {
    __meter.enter();
    for (var i = 0; i < this.length; i++) {
      __meter.step();
      if (!(i in this)) continue;
      if (cb.call(thisArg, this[i], i, this)) return true;
    }
    return false;
  };
  Array.prototype.reduce = function(cb, initial) {
    __meter.enter();
    var i = 0, acc, len = this.length;
    if (arguments.length >= 2) {
      acc = initial;
    } else {
      while (i < len && !(i in this)) i++;
      acc = this[i]; i++;
    }
    for (; i < len; i++) {
      __meter.step();
      if (!(i in this)) continue;
      acc = cb(acc, this[i], i, this);
    }
    return acc;
  };
  Array.prototype.reduceRight = function(cb, initial) {
    __meter.enter();
    var i = this.length - 1, acc;
    if (arguments.length >= 2) {
      acc = initial;
    } else {
      while (i >= 0 && !(i in this)) i--;
      acc = this[i]; i--;
    }
    for (; i >= 0; i--) {
      __meter.step();
      if (!(i in this)) continue;
      acc = cb(acc, this[i], i, this);
    }
    return acc;
  };
})
`
