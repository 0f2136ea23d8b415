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

// Package manifest implements the ABI manifest: canonical encoding,
// hashing, and schema validation of the host-capability surface a program
// may call into via Host.v1.
//
// The binary shape here generalizes a magic-prefixed, length-prefixed
// contract-container layout (a constant pool followed by bytecode) from
// a fixed 2-field layout into the full manifest schema, encoded through
// the DV codec instead of a bespoke little-endian format.
package manifest

// Effect classifies the side-effect visibility of a host function.
type Effect uint8

const (
	EffectRead Effect = iota
	EffectWrite
	EffectEmit
)

func (e Effect) String() string {
	switch e {
	case EffectRead:
		return "READ"
	case EffectWrite:
		return "WRITE"
	case EffectEmit:
		return "EMIT"
	default:
		return "UNKNOWN"
	}
}

func ParseEffect(s string) (Effect, bool) {
	switch s {
	case "READ":
		return EffectRead, true
	case "WRITE":
		return EffectWrite, true
	case "EMIT":
		return EffectEmit, true
	default:
		return 0, false
	}
}

// ArgType enumerates the DV-adjacent schema types a host function
// argument or return value may declare.
type ArgType uint8

const (
	ArgNull ArgType = iota
	ArgBool
	ArgInt
	ArgFloat
	ArgString
	ArgBytes
	ArgDV
)

func (t ArgType) String() string {
	switch t {
	case ArgNull:
		return "null"
	case ArgBool:
		return "bool"
	case ArgInt:
		return "int"
	case ArgFloat:
		return "float"
	case ArgString:
		return "string"
	case ArgBytes:
		return "bytes"
	case ArgDV:
		return "dv"
	default:
		return "unknown"
	}
}

func ParseArgType(s string) (ArgType, bool) {
	switch s {
	case "null":
		return ArgNull, true
	case "bool":
		return ArgBool, true
	case "int":
		return ArgInt, true
	case "float":
		return ArgFloat, true
	case "string":
		return ArgString, true
	case "bytes":
		return ArgBytes, true
	case "dv":
		return ArgDV, true
	default:
		return 0, false
	}
}

// GasParams parametrizes the two-phase host-call charge.
type GasParams struct {
	ScheduleID uint32
	Base       uint32
	KArgBytes  uint32
	KRetBytes  uint32
	KUnits     uint32
}

// Limits bounds a single host function's request/response/units envelope.
type Limits struct {
	MaxRequestBytes  uint32
	MaxResponseBytes uint32
	MaxUnits         uint32
	// ArgUTF8Max holds a per-argument byte cap for string arguments. An
	// entry is present iff the corresponding ArgSchema slot is ArgString;
	// it is nil when the function has no string argument.
	ArgUTF8Max []uint32
}

// ErrorCode is a single declared (code, tag) pair a host function may
// return in its envelope's err.code.
type ErrorCode struct {
	Code string
	Tag  string
}

// FunctionEntry describes one host function reachable from JS as
// Host.v1.<JSPath...>.
type FunctionEntry struct {
	FnID         uint32
	JSPath       []string
	Effect       Effect
	Arity        uint32
	ArgSchema    []ArgType
	ReturnSchema ArgType
	Gas          GasParams
	Limits       Limits
	ErrorCodes   []ErrorCode
}

// Manifest is the full ABI-capability surface declared for a runtime.
type Manifest struct {
	ABIID      string
	ABIVersion uint32
	Functions  []FunctionEntry
}

// Reserved host error codes; manifests may not declare these as their
// own error_codes entries.
const (
	ReservedHostTransport      = "HOST_TRANSPORT"
	ReservedHostEnvelopeInvalid = "HOST_ENVELOPE_INVALID"
)

// Forbidden path segments: a js_path may never name these, to avoid
// prototype-pollution-shaped collisions in the determinism profile.
var forbiddenSegments = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// ByFnID returns the FunctionEntry with the given fn_id, or false if none
// matches. Functions are sorted by FnID (validated at load time), so this
// could binary-search; a linear scan is fine at manifest sizes this
// runtime ever sees.
func (m *Manifest) ByFnID(id uint32) (FunctionEntry, bool) {
	for _, f := range m.Functions {
		if f.FnID == id {
			return f, true
		}
	}
	return FunctionEntry{}, false
}
