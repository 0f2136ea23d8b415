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
	"github.com/dop251/goja"

	"github.com/probechain/detervm/dispatch"
	"github.com/probechain/detervm/gas"
	"github.com/probechain/detervm/log"
	"github.com/probechain/detervm/manifest"
)

var engineLog = log.Root().New("component", "engine")

// manifestCache memoizes validated manifests and their canonical bytes
// across InitDeterministic calls within this process, keyed by the
// manifest's pinned hash and by (abi_id, abi_version) respectively. A
// long-lived embedder that repeatedly inits against the same handful of
// manifests skips re-parsing/re-validating/re-encoding bytes it has
// already proven good.
var manifestCache = mustManifestCache()

func mustManifestCache() *manifest.Cache {
	c, err := manifest.NewCache(256, 8*1024*1024)
	if err != nil {
		panic(err)
	}
	return c
}

// InitDeterministic parses and validates manifestBytes, pins it against
// manifestHashHex, and installs the full determinism profile:
// nondeterministic-global removal, the Host.v1 namespace bound to
// handlers, the ergonomic event/steps/document.canonical globals from
// in, gas-metered array callbacks, and a final deep freeze.
//
// manifestHashHex must equal manifest.Hash(manifestBytes), and
// manifestBytes must be the canonical encoding of the manifest they
// decode to, or ErrManifestMismatch is returned — this is the "manifest
// pinning" requirement that stops a caller from silently running a
// different ABI than the one it believes it declared. The supplied bytes
// are hashed before manifestCache is consulted, so a manifest previously
// seen under this same hash is read back from the cache, instead of
// being re-parsed and re-validated, only for bytes that hash to it.
func (r *Runtime) InitDeterministic(manifestBytes []byte, manifestHashHex string, in Input, handlers dispatch.HostHandlers) error {
	if manifest.Hash(manifestBytes) != manifestHashHex {
		engineLog.Warn("manifest hash mismatch", "expected", manifestHashHex)
		return ErrManifestMismatch
	}
	m, ok := manifestCache.GetValidated(manifestHashHex)
	if !ok {
		var err error
		m, err = manifest.Parse(manifestBytes)
		if err != nil {
			return err
		}
		if err := manifest.Validate(m); err != nil {
			return err
		}

		canonical, ok := manifestCache.GetCanonicalBytes(m.ABIID, m.ABIVersion)
		if !ok || manifest.Hash(canonical) != manifestHashHex {
			canonical, err = manifest.Canonicalize(m)
			if err != nil {
				return err
			}
			manifestCache.PutCanonicalBytes(m.ABIID, m.ABIVersion, canonical)
		}
		if manifest.Hash(canonical) != manifestHashHex {
			engineLog.Warn("manifest hash mismatch", "abiId", m.ABIID, "abiVersion", m.ABIVersion)
			return ErrManifestMismatch
		}
		manifestCache.PutValidated(manifestHashHex, m)
	}

	acct := gas.New(r.gasLimit)
	acct.EnableTrace(r.traceOn)

	tapeCapacity := 0
	if r.tapeOn {
		tapeCapacity = defaultTapeCapacity
		if r.tapeCapacity > 0 {
			tapeCapacity = r.tapeCapacity
		}
	}
	d := dispatch.New(m, handlers, acct, tapeCapacity)

	vm := goja.New()
	if err := installDeterminismProfile(vm, m, d, acct, in); err != nil {
		return err
	}

	r.vm = vm
	r.manifest = m
	r.acct = acct
	r.dispatcher = d
	r.initialized = true
	engineLog.Debug("runtime initialized", "abiId", m.ABIID, "abiVersion", m.ABIVersion, "functions", len(m.Functions))
	return nil
}
