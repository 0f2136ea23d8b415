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
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the lowercase hex SHA-256 digest of canonical manifest
// bytes. crypto/sha256 is the standard library primitive for this; see
// DESIGN.md for why no third-party hash package replaces it here.
func Hash(canonicalBytes []byte) string {
	sum := sha256.Sum256(canonicalBytes)
	return hex.EncodeToString(sum[:])
}

// HashAndEncode validates m, canonically encodes it, and returns both the
// bytes and their hash in one call — the common path for a runtime that
// is about to pin a manifest.
func HashAndEncode(m *Manifest) (bytes []byte, hash string, err error) {
	b, err := Canonicalize(m)
	if err != nil {
		return nil, "", err
	}
	return b, Hash(b), nil
}
