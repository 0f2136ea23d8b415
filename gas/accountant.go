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

// Package gas implements the charge schedule that meters a single
// evaluation: opcode dispatch, allocation, array-callback iteration, and
// the two-phase host-call charge, plus the GC checkpoint heuristic that
// rides on the allocation byte counter.
//
// The charge constants and formulas mirror the register-VM's
// useGas/gas-constant-table pattern, generalized from a fixed per-opcode
// table to the event sites an embedded JS engine actually exposes: there
// is no opcode-level hook into goja's bytecode, so "opcode dispatch" is
// billed once per top-level statement at compile time rather than per
// VM instruction. See ErrOutOfGas and ErrOverflow below for the two ways a
// charge can fail.
package gas

import "errors"

// ErrOutOfGas is the uncatchable termination signal returned by the
// charge methods (UseOpcode and the others) when a charge exceeds the
// remaining budget. The engine package maps this to a
// goja.Interrupt so that JS try/catch cannot observe it.
var ErrOutOfGas = errors.New("out of gas")

// ErrOverflow signals a u64 wrap while computing a host-call pre- or
// post-charge. Unlike ErrOutOfGas this is catchable: the engine package
// maps it to a JS TypeError.
var ErrOverflow = errors.New("host_call gas overflow")

// Unlimited is the sentinel gas budget meaning "do not meter". Passing it
// as a budget disables charging entirely; reported gasUsed is always 0.
const Unlimited uint64 = ^uint64(0)

// Normative per-event charges.
const (
	OpcodeDispatch   uint64 = 1 // each bytecode step / top-level statement
	ArrayCallbackBase uint64 = 5
	ArrayCallbackStep uint64 = 2
	allocBase        uint64 = 3
	allocPerChunk    uint64 = 16
)

// gcCheckpointThreshold is the allocation-byte-counter threshold (512 KiB)
// at which a pending GC checkpoint flag is set.
const gcCheckpointThreshold uint64 = 512 * 1024

// AllocCost returns the gas cost of allocating n bytes: 3 + ceil(n/16).
func AllocCost(n uint64) uint64 {
	return allocBase + ceilDiv(n, allocPerChunk)
}

func ceilDiv(n, d uint64) uint64 {
	return (n + d - 1) / d
}

// Accountant tracks a single evaluation's gas budget, aggregate trace
// counters, and the GC checkpoint heuristic. It is not safe for
// concurrent use; one Accountant belongs to exactly one in-flight eval.
type Accountant struct {
	limit     uint64
	used      uint64
	unlimited bool

	traceEnabled bool
	trace        Trace

	gcPendingBytes uint64
	gcPending      bool
}

// New creates an Accountant for the given gas budget. Passing Unlimited
// disables metering: no charge ever fails and gasUsed is reported as 0.
func New(limit uint64) *Accountant {
	return &Accountant{limit: limit, unlimited: limit == Unlimited}
}

// EnableTrace turns aggregate gas-trace counting on or off.
func (a *Accountant) EnableTrace(on bool) { a.traceEnabled = on }

// Trace returns a snapshot of the aggregate counters accumulated so far.
func (a *Accountant) Trace() Trace { return a.trace }

// Remaining returns the unspent gas budget, or Unlimited if unmetered.
func (a *Accountant) Remaining() uint64 {
	if a.unlimited {
		return Unlimited
	}
	return a.limit - a.used
}

// Used returns total gas consumed so far. Always 0 under Unlimited.
func (a *Accountant) Used() uint64 {
	if a.unlimited {
		return 0
	}
	return a.used
}

// use is the single charge primitive: on exhaustion it pins remaining at
// 0 and returns ErrOutOfGas, mirroring vm.useGas's halt-then-return shape.
func (a *Accountant) use(n uint64) error {
	if a.unlimited {
		return nil
	}
	if n > a.limit-a.used {
		a.used = a.limit
		return ErrOutOfGas
	}
	a.used += n
	return nil
}

// UseOpcode charges one opcode-dispatch unit per top-level statement,
// in this engine's static metering scheme — see the package doc.
func (a *Accountant) UseOpcode(count uint64) error {
	if err := a.use(OpcodeDispatch * count); err != nil {
		return err
	}
	if a.traceEnabled {
		a.trace.OpcodeCount += count
		a.trace.OpcodeGas += OpcodeDispatch * count
	}
	return nil
}

// UseAlloc charges an allocation of n bytes and advances the GC
// checkpoint byte counter.
func (a *Accountant) UseAlloc(n uint64) error {
	cost := AllocCost(n)
	if err := a.use(cost); err != nil {
		return err
	}
	if a.traceEnabled {
		a.trace.AllocationCount++
		a.trace.AllocationBytes += n
		a.trace.AllocationGas += cost
	}
	a.gcPendingBytes += n
	if a.gcPendingBytes >= gcCheckpointThreshold {
		a.gcPending = true
	}
	return nil
}

// UseArrayCallbackEntry charges the base cost of entering a metered
// array-builtin callback (every/some/forEach/map/filter/reduce/
// reduceRight, including typed-array variants).
func (a *Accountant) UseArrayCallbackEntry() error {
	if err := a.use(ArrayCallbackBase); err != nil {
		return err
	}
	if a.traceEnabled {
		a.trace.ArrayCbBaseCount++
		a.trace.ArrayCbBaseGas += ArrayCallbackBase
	}
	return nil
}

// UseArrayCallbackStep charges one iteration step (including hole-skip
// and early return) of a metered array-builtin callback.
func (a *Accountant) UseArrayCallbackStep() error {
	if err := a.use(ArrayCallbackStep); err != nil {
		return err
	}
	if a.traceEnabled {
		a.trace.ArrayCbPerElementCount++
		a.trace.ArrayCbPerElementGas += ArrayCallbackStep
	}
	return nil
}

// PreCharge computes and applies the host-call pre-charge:
// base + k_arg_bytes·requestBytes. A u64 overflow in the computation
// returns ErrOverflow without mutating the budget; exhaustion of the
// (valid) computed charge returns ErrOutOfGas.
func (a *Accountant) PreCharge(base, kArgBytes uint32, requestBytes uint64) (uint64, error) {
	term, err := mulOverflows(uint64(kArgBytes), requestBytes)
	if err != nil {
		return 0, ErrOverflow
	}
	total, err := addOverflows(uint64(base), term)
	if err != nil {
		return 0, ErrOverflow
	}
	if err := a.use(total); err != nil {
		return 0, err
	}
	return total, nil
}

// PostCharge computes and applies the host-call post-charge:
// k_ret_bytes·responseBytes + k_units·units.
func (a *Accountant) PostCharge(kRetBytes, kUnits uint32, responseBytes, units uint64) (uint64, error) {
	respTerm, err := mulOverflows(uint64(kRetBytes), responseBytes)
	if err != nil {
		return 0, ErrOverflow
	}
	unitTerm, err := mulOverflows(uint64(kUnits), units)
	if err != nil {
		return 0, ErrOverflow
	}
	total, err := addOverflows(respTerm, unitTerm)
	if err != nil {
		return 0, ErrOverflow
	}
	if err := a.use(total); err != nil {
		return 0, err
	}
	return total, nil
}

// CheckpointGC reports whether a GC checkpoint should run its actual
// collection this call, and clears the pending flag/counter either way
// (checkpoints run at every mandated site; only the heuristic flag
// decides whether collection is actually invoked).
func (a *Accountant) CheckpointGC() bool {
	pending := a.gcPending
	a.gcPending = false
	a.gcPendingBytes = 0
	return pending
}

// mulOverflows returns a*b and an error if the u64 multiplication wraps.
func mulOverflows(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	r := a * b
	if r/a != b {
		return 0, errors.New("multiplication overflow")
	}
	return r, nil
}

// addOverflows returns a+b and an error if the u64 addition wraps.
func addOverflows(a, b uint64) (uint64, error) {
	r := a + b
	if r < a {
		return 0, errors.New("addition overflow")
	}
	return r, nil
}
