// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgercache

import (
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/dexterlaboss/ingestor-sdk/internal/compression"
	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// TxCache wraps a memcached client for the full-transaction write-through
// cache (spec.md §6 "Cache protocol: key = signature base58 string; value
// = compressed protobuf of the full transaction record"). It owns only
// write timing and TTL -- the cache itself is a shared, external process
// (spec.md §3 "Ownership").
type TxCache struct {
	client         *memcache.Client
	enabled        bool
	expirationSecs int32
}

// NewTxCache dials cfg.Address. A nil *TxCache is never returned; callers
// check Enabled() rather than nil-checking, matching the Rust
// `enable_full_tx_cache` boolean gate.
func NewTxCache(cfg Config) *TxCache {
	client := memcache.New(cfg.Address)
	client.Timeout = cfg.Timeout
	days := clampExpirationDays(cfg.ExpirationDays)
	return &TxCache{
		client:         client,
		enabled:        cfg.EnableFullTxCache,
		expirationSecs: int32(days * 24 * 60 * 60),
	}
}

// Enabled reports whether the write-through path should run.
func (c *TxCache) Enabled() bool {
	return c.enabled
}

// Get fetches and decompresses the cached protobuf bytes for signature, if
// present. A cache miss returns ok false with a nil error; any other cache
// fault returns ok false and an error wrapping ErrCache. Neither is fatal
// -- callers log and fall through to the next read tier.
func (c *TxCache) Get(sig ledgertypes.Signature) (data []byte, ok bool, err error) {
	item, err := c.client.Get(sig.String())
	if err == memcache.ErrCacheMiss {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ledgercache: %w: %v", ledgertypes.ErrCache, err)
	}

	payload, err := compression.Decode(item.Value)
	if err != nil {
		return nil, false, fmt.Errorf("ledgercache: decompress %s: %w: %v", sig, ledgertypes.ErrCache, err)
	}
	return payload, true, nil
}

// Put compresses data (an encoded protobuf ConfirmedTransactionWithStatusMeta)
// and stores it under signature with the configured TTL.
func (c *TxCache) Put(sig ledgertypes.Signature, data []byte) error {
	blob, err := compression.EncodeBest(data, true)
	if err != nil {
		return fmt.Errorf("ledgercache: compress %s: %w: %v", sig, ledgertypes.ErrCache, err)
	}
	item := &memcache.Item{
		Key:        sig.String(),
		Value:      blob,
		Expiration: c.expirationSecs,
	}
	if err := c.client.Set(item); err != nil {
		return fmt.Errorf("ledgercache: set %s: %w: %v", sig, ledgertypes.ErrCache, err)
	}
	return nil
}
