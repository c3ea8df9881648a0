// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package ledgercache holds the two caches the storage adapter consults:
// an in-process LRU of compressed block blobs keyed by slot, and a wrapper
// around an external memcached tx cache (spec.md §3 "the in-memory block
// cache holds already-compressed cell blobs ... LRU over a fixed
// capacity"; "the tx cache is shared across processes (memcached)").
package ledgercache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// BlockCache is a concurrent, fixed-capacity LRU keyed by slot. It stores
// whatever still-compressed blob the caller puts (the storage adapter
// prefixes the backend cell with a one-byte codec tag) -- the caller
// decompresses and decodes on every hit, same as a cold read.
type BlockCache struct {
	cache *lru.Cache[ledgertypes.Slot, []byte]
}

// NewBlockCache builds a BlockCache with room for capacity entries. A
// non-positive capacity disables caching: Get always misses and Put is a
// no-op, so callers don't need a separate "cache enabled" branch.
func NewBlockCache(capacity int) (*BlockCache, error) {
	if capacity <= 0 {
		return &BlockCache{}, nil
	}
	cache, err := lru.New[ledgertypes.Slot, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &BlockCache{cache: cache}, nil
}

// Get returns the cached compressed blob for slot, if present.
func (c *BlockCache) Get(slot ledgertypes.Slot) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(slot)
}

// Put stores blob (the raw compressed bytes, unowned by the caller after
// this call) under slot, possibly evicting the least-recently-used entry.
func (c *BlockCache) Put(slot ledgertypes.Slot, blob []byte) {
	if c.cache == nil {
		return
	}
	c.cache.Add(slot, blob)
}

// Len reports the number of cached entries, mainly for tests/metrics.
func (c *BlockCache) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}
