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

package dv

// Limits bounds the shape and size of a DV tree during encode/decode. The
// defaults are generous but finite; every evaluate() call may override
// them per the manifest/runtime configuration.
//
// The bounds-checked-allocation idiom here (reject before you grow, report
// the exact limit that was crossed) follows a register-VM memory
// manager's pattern of tracking a used/limit pair rather than growing
// unbounded and checking after the fact.
type Limits struct {
	MaxDepth        int
	MaxArrayLen     int
	MaxMapLen       int
	MaxStringBytes  int
	MaxEncodedBytes int
}

// DefaultLimits returns the implementation's stock limits. These are
// generous enough not to reject any well-formed program in ordinary
// use while still bounding pathological input.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:        32,
		MaxArrayLen:     1 << 20,
		MaxMapLen:       1 << 16,
		MaxStringBytes:  1 << 22,
		MaxEncodedBytes: 1 << 24,
	}
}
