// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgercache

import "time"

const defaultMemcacheAddress = "127.0.0.1:11211"

// maxTxCacheExpirationDays is the CLI-enforced ceiling on
// --tx-cache-expiration (spec.md §6, "0-30"): the full-tx cache is meant
// for short-lived write-through, not archival storage.
const maxTxCacheExpirationDays = 30

// Config configures the full-transaction cache (spec.md §6 "Cache
// protocol"), grounded on hbase-writer's LedgerCacheConfig.
type Config struct {
	// EnableFullTxCache toggles the write-through path in the writer; the
	// reader always attempts a read if the client is non-nil.
	EnableFullTxCache bool
	Address           string
	Timeout           time.Duration
	// ExpirationDays is clamped to [0, 30] by NewTxCache.
	ExpirationDays int
}

// DefaultConfig matches hbase-writer/src/cache_config.rs's defaults.
func DefaultConfig() Config {
	return Config{
		Address:        defaultMemcacheAddress,
		Timeout:        time.Second,
		ExpirationDays: 14,
	}
}

func clampExpirationDays(days int) int {
	if days < 0 {
		return 0
	}
	if days > maxTxCacheExpirationDays {
		return maxTxCacheExpirationDays
	}
	return days
}
