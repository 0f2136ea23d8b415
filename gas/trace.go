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

package gas

// Trace holds the aggregate gas-trace counters for one evaluation.
// Host-call gas is billed but deliberately not attributed here;
// callers recover it as gasUsed minus the sum of these counters.
type Trace struct {
	OpcodeCount uint64
	OpcodeGas   uint64

	ArrayCbBaseCount uint64
	ArrayCbBaseGas   uint64

	ArrayCbPerElementCount uint64
	ArrayCbPerElementGas   uint64

	AllocationCount uint64
	AllocationBytes uint64
	AllocationGas   uint64
}

// MeteredGas returns the sum of all counters this Trace attributes
// directly, excluding host-call gas.
func (t Trace) MeteredGas() uint64 {
	return t.OpcodeGas + t.ArrayCbBaseGas + t.ArrayCbPerElementGas + t.AllocationGas
}

// HostGas derives the host-call gas billed during an evaluation as the
// difference between total gas used and this trace's metered total:
// gasUsed − (opcode + arrayCb + allocation).
func (t Trace) HostGas(gasUsed uint64) uint64 {
	metered := t.MeteredGas()
	if metered > gasUsed {
		return 0
	}
	return gasUsed - metered
}
