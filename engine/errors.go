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

import "errors"

// ErrManifestMismatch is returned by InitDeterministic when the supplied
// manifest bytes do not hash to the caller-declared manifest_hash_hex.
var ErrManifestMismatch = errors.New("engine: manifest hash mismatch")

// ErrNotInitialized is returned by Eval if called before InitDeterministic.
var ErrNotInitialized = errors.New("engine: runtime not initialized")

// ErrResultNotEncodable is returned when eval's completion value cannot
// be represented as a DV: the completion value must be DV-encodable.
var ErrResultNotEncodable = errors.New("TypeError: result not DV-encodable")
