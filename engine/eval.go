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
	"errors"

	"github.com/dop251/goja"

	"github.com/probechain/detervm/dispatch"
	"github.com/probechain/detervm/gas"
	"github.com/probechain/detervm/result"
)

// Eval runs source as a script, the same way goja.RunString does: the
// completion value is the value of the last expression statement
// executed, or undefined -> DV null if none ran. Source is a plain
// script, not a function body — the program examples this shell is
// meant to handle ("1", "1+2", "Host.v1.document.get(\"a/b\")") are
// bare expressions with no wrapping function or explicit return, and
// goja's Program/RunProgram already implements standard ECMAScript
// Script completion-value semantics, so this shell does not need to
// reconstruct that behavior with an IIFE wrapper.
//
// Charging order per statement count follows gas/accountant.go's
// documented static-lump simplification: the opcode-dispatch charge for
// the whole program is applied once, up front, from the top-level
// statement count of the source text as given, before that text is
// instrumented, compiled and run. That lump is necessary but not sufficient — it says
// nothing about a loop body that never returns control to the top
// level — so the source actually compiled and run is first passed
// through instrument.go's instrumentLoops, which injects a per-entry
// __gasStep() charge into every loop body; the lump and the dynamic
// charge are additive, not alternatives. A GC checkpoint heuristic is
// requested once per eval after the run completes, mirroring the
// single natural checkpoint site this synchronous, non-yielding shell
// has.
func (r *Runtime) Eval(source string) result.EvaluateResult {
	if !r.initialized {
		return result.Err(result.KindInternal, "", "", ErrNotInitialized.Error(), 0, 0, nil, nil)
	}

	stmtCount, err := countTopLevelStatements(source)
	if err != nil {
		return r.errResult(result.KindJsError, "", "", "SyntaxError: "+err.Error())
	}
	if err := r.acct.UseOpcode(uint64(stmtCount)); err != nil {
		return r.oogResult()
	}

	instrumented := instrumentLoops(source)
	prog, err := goja.Compile("<eval>", instrumented, true)
	if err != nil {
		return r.errResult(result.KindJsError, "", "", "SyntaxError: "+err.Error())
	}

	completion, runErr := r.vm.RunProgram(prog)
	if runErr != nil {
		return r.translateRunError(runErr)
	}

	r.acct.CheckpointGC()

	dvValue, convErr := jsToDV(r.vm, completion)
	if convErr != nil {
		return r.errResult(result.KindJsError, "", "", ErrResultNotEncodable.Error())
	}

	r.vm.ClearInterrupt()
	ok2, err2 := result.Ok(dvValue, r.acct.Used(), r.acct.Remaining(), r.readTape(), r.readTraceForResult())
	if err2 != nil {
		return r.errResult(result.KindInternal, "", "", err2.Error())
	}
	return ok2
}

// translateRunError maps a goja run/call error to the error kind
// taxonomy. An *goja.InterruptedError carrying oogMarker is the
// uncatchable OutOfGas signal this shell raises itself (via
// Runtime.Interrupt in profile.go); any other interrupt or a thrown JS
// value/exception becomes JsError — ordinary JS exceptions (TypeError,
// RangeError, a thrown HostError-shaped object, ...) all surface as
// kind=JsError.
func (r *Runtime) translateRunError(runErr error) result.EvaluateResult {
	var interrupted *goja.InterruptedError
	if errors.As(runErr, &interrupted) {
		if v, ok := interrupted.Value().(string); ok && v == oogMarker {
			return r.oogResult()
		}
	}

	var jsErr *goja.Exception
	if errors.As(runErr, &jsErr) {
		return r.errResult(result.KindJsError, "", "", jsErr.Value().String())
	}
	return r.errResult(result.KindJsError, "", "", runErr.Error())
}

func (r *Runtime) oogResult() result.EvaluateResult {
	return result.OutOfGas(r.acct.Used(), r.acct.Remaining(), r.readTape(), r.readTraceForResult())
}

func (r *Runtime) errResult(kind result.Kind, code, tag, message string) result.EvaluateResult {
	return result.Err(kind, code, tag, message, r.acct.Used(), r.acct.Remaining(), r.readTape(), r.readTraceForResult())
}

func (r *Runtime) readTape() []dispatch.TapeRecord {
	if !r.tapeOn {
		return nil
	}
	return r.dispatcher.Tape().Records()
}

func (r *Runtime) readTraceForResult() *gas.Trace {
	if !r.traceOn {
		return nil
	}
	t := r.acct.Trace()
	return &t
}
