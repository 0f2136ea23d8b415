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
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	lru "github.com/hashicorp/golang-lru"
)

// Cache holds two distinct caching tiers for manifest processing in a
// long-lived embedder that re-inits contexts with manifests it has
// already seen:
//
//   - objects: an LRU of validated *Manifest values keyed by hash, so a
//     repeated init_deterministic with a known-good manifest hash skips
//     re-validation (the validation pass is pure given the bytes, so
//     caching it is observably transparent).
//   - bytes: a fastcache byte-cache of canonical-encoded bytes keyed by
//     abi_id+abi_version, so re-encoding an unchanged manifest for
//     hashing is skipped.
//
// Neither tier changes the result of Validate/Canonicalize/Hash for any
// input; both are pure memoization.
type Cache struct {
	mu      sync.Mutex
	objects *lru.Cache
	bytes   *fastcache.Cache
}

// NewCache creates a Cache with objectCapacity validated manifests held in
// the LRU tier and byteCacheBytes bytes of backing memory for the
// fastcache tier.
func NewCache(objectCapacity int, byteCacheBytes int) (*Cache, error) {
	if objectCapacity <= 0 {
		objectCapacity = 64
	}
	if byteCacheBytes <= 0 {
		byteCacheBytes = 4 * 1024 * 1024
	}
	objects, err := lru.New(objectCapacity)
	if err != nil {
		return nil, err
	}
	return &Cache{
		objects: objects,
		bytes:   fastcache.New(byteCacheBytes),
	}, nil
}

// GetValidated returns a previously validated manifest for hash, if any.
func (c *Cache) GetValidated(hash string) (*Manifest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.objects.Get(hash)
	if !ok {
		return nil, false
	}
	return v.(*Manifest), true
}

// PutValidated records that m (already validated) hashes to hash.
func (c *Cache) PutValidated(hash string, m *Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects.Add(hash, m)
}

// byteCacheKey is the fastcache key for the canonical-bytes tier.
func byteCacheKey(abiID string, abiVersion uint32) []byte {
	key := make([]byte, 0, len(abiID)+5)
	key = append(key, abiID...)
	key = append(key, byte(abiVersion), byte(abiVersion>>8), byte(abiVersion>>16), byte(abiVersion>>24))
	return key
}

// GetCanonicalBytes returns previously canonicalized bytes for (abiID,
// abiVersion), if present. Callers must still treat a cache miss as the
// normal path: re-encode and populate via PutCanonicalBytes.
func (c *Cache) GetCanonicalBytes(abiID string, abiVersion uint32) ([]byte, bool) {
	key := byteCacheKey(abiID, abiVersion)
	dst := c.bytes.Get(nil, key)
	if dst == nil {
		return nil, false
	}
	return dst, true
}

// PutCanonicalBytes stores canonical-encoded bytes for (abiID, abiVersion).
func (c *Cache) PutCanonicalBytes(abiID string, abiVersion uint32, b []byte) {
	key := byteCacheKey(abiID, abiVersion)
	c.bytes.Set(key, b)
}
