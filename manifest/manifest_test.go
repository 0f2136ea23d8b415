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
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleManifest() *Manifest {
	return &Manifest{
		ABIID:      "test.v1",
		ABIVersion: 1,
		Functions: []FunctionEntry{
			{
				FnID:         1,
				JSPath:       []string{"document", "get"},
				Effect:       EffectRead,
				Arity:        1,
				ArgSchema:    []ArgType{ArgString},
				ReturnSchema: ArgDV,
				Gas:          GasParams{ScheduleID: 1, Base: 10, KArgBytes: 1, KRetBytes: 1, KUnits: 1},
				Limits: Limits{
					MaxRequestBytes:  4096,
					MaxResponseBytes: 4096,
					MaxUnits:         1000,
					ArgUTF8Max:       []uint32{2048},
				},
				ErrorCodes: []ErrorCode{{Code: "LIMIT_EXCEEDED", Tag: "document/limit"}},
			},
		},
	}
}

func TestValidateAcceptsSampleManifest(t *testing.T) {
	require.NoError(t, Validate(sampleManifest()))
}

func TestValidateRejectsUnsortedFnID(t *testing.T) {
	m := sampleManifest()
	m.Functions = append(m.Functions, FunctionEntry{
		FnID: 1, JSPath: []string{"other"}, ReturnSchema: ArgNull,
	})
	err := Validate(m)
	require.Error(t, err)
}

func TestValidateRejectsZeroFnID(t *testing.T) {
	m := sampleManifest()
	m.Functions[0].FnID = 0
	require.Error(t, Validate(m))
}

func TestValidateRejectsForbiddenSegment(t *testing.T) {
	m := sampleManifest()
	m.Functions[0].JSPath = []string{"__proto__", "get"}
	require.Error(t, Validate(m))
}

func TestValidateRejectsPrefixCollision(t *testing.T) {
	m := sampleManifest()
	m.Functions = append(m.Functions, FunctionEntry{
		FnID:         2,
		JSPath:       []string{"document", "get", "nested"},
		ReturnSchema: ArgNull,
		ErrorCodes:   nil,
	})
	require.Error(t, Validate(m))
}

func TestValidateRejectsArgUTF8MaxOnNonString(t *testing.T) {
	m := sampleManifest()
	m.Functions[0].ArgSchema = []ArgType{ArgInt}
	m.Functions[0].Arity = 1
	// ArgUTF8Max still set, but arg is now int: invalid.
	require.Error(t, Validate(m))
}

func TestValidateRejectsReservedErrorCode(t *testing.T) {
	m := sampleManifest()
	m.Functions[0].ErrorCodes = []ErrorCode{{Code: ReservedHostTransport}}
	require.Error(t, Validate(m))
}

func TestValidateRejectsGasOverflow(t *testing.T) {
	m := sampleManifest()
	m.Functions[0].Gas.KArgBytes = ^uint32(0)
	m.Functions[0].Limits.MaxRequestBytes = ^uint32(0)
	require.Error(t, Validate(m))
}

func TestCanonicalizeRoundTrip(t *testing.T) {
	m := sampleManifest()
	b, err := Canonicalize(m)
	require.NoError(t, err)

	got, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, m.ABIID, got.ABIID)
	require.Equal(t, m.ABIVersion, got.ABIVersion)
	require.Len(t, got.Functions, 1)
	require.Equal(t, m.Functions[0].JSPath, got.Functions[0].JSPath)
	require.Equal(t, m.Functions[0].Limits.ArgUTF8Max, got.Functions[0].Limits.ArgUTF8Max)

	b2, err := Canonicalize(got)
	require.NoError(t, err)
	require.Equal(t, b, b2, "re-encoding a decoded manifest must reproduce identical bytes")
}

func TestHashStability(t *testing.T) {
	m := sampleManifest()
	b1, h1, err := HashAndEncode(m)
	require.NoError(t, err)
	b2, h2, err := HashAndEncode(m)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := NewCache(4, 1024*1024)
	require.NoError(t, err)

	m := sampleManifest()
	b, hash, err := HashAndEncode(m)
	require.NoError(t, err)

	_, ok := c.GetValidated(hash)
	require.False(t, ok)
	c.PutValidated(hash, m)
	got, ok := c.GetValidated(hash)
	require.True(t, ok)
	require.Equal(t, m, got)

	_, ok = c.GetCanonicalBytes(m.ABIID, m.ABIVersion)
	require.False(t, ok)
	c.PutCanonicalBytes(m.ABIID, m.ABIVersion, b)
	gotBytes, ok := c.GetCanonicalBytes(m.ABIID, m.ABIVersion)
	require.True(t, ok)
	require.Equal(t, b, gotBytes)
}
