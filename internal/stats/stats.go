// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package stats implements the storage adapter's query counter: a single
// atomic integer with a time-throttled reporter, grounded on
// original_source/bigtable-reader/src/storage_stats.rs.
package stats

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const reportInterval = 10 * time.Second

// LedgerStorageStats counts read-path queries and logs a throttled
// summary at most once per reportInterval, the Go equivalent of the
// upstream's AtomicInterval-gated datapoint emission.
type LedgerStorageStats struct {
	numQueries int64
	lastReport atomic.Int64 // unix nanos of the last emitted report
	logger     *zap.Logger
}

// New builds a LedgerStorageStats that logs through logger.
func New(logger *zap.Logger) *LedgerStorageStats {
	s := &LedgerStorageStats{logger: logger}
	s.lastReport.Store(time.Now().UnixNano()) // the first window starts now
	return s
}

// IncrementNumQueries records one query and, if the reporting interval has
// elapsed, emits and resets the running total.
func (s *LedgerStorageStats) IncrementNumQueries() {
	atomic.AddInt64(&s.numQueries, 1)
	s.maybeReport()
}

func (s *LedgerStorageStats) maybeReport() {
	now := time.Now().UnixNano()
	last := s.lastReport.Load()
	if time.Duration(now-last) < reportInterval {
		return
	}
	if !s.lastReport.CompareAndSwap(last, now) {
		return // another goroutine is reporting this interval
	}

	count := atomic.SwapInt64(&s.numQueries, 0)
	if s.logger != nil {
		s.logger.Debug("storage-bigtable-query", zap.Int64("num_queries", count))
	}
}
