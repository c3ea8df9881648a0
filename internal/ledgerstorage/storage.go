// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgerstorage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dexterlaboss/ingestor-sdk/internal/compression"
	"github.com/dexterlaboss/ingestor-sdk/internal/key"
	"github.com/dexterlaboss/ingestor-sdk/internal/ledgercache"
	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
	"github.com/dexterlaboss/ingestor-sdk/internal/legacybincode"
	"github.com/dexterlaboss/ingestor-sdk/internal/stats"
	"github.com/dexterlaboss/ingestor-sdk/internal/storagepb"
)

// Storage is the storage adapter: reader (C6) and writer (C7) operations
// over a single configured Backend. Exactly one Backend is wired in at
// construction time -- there is no federated, multi-backend view
// (spec.md §9).
type Storage struct {
	backend    Backend
	blockCache *ledgercache.BlockCache
	txCache    *ledgercache.TxCache
	stats      *stats.LedgerStorageStats
	cfg        Config
	logger     *zap.Logger
}

// New builds a Storage. A nil logger is replaced with zap.NewNop(), and a
// nil stats collector is replaced with one that logs through logger, so
// callers in tests don't need to wire every dependency.
func New(backend Backend, blockCache *ledgercache.BlockCache, txCache *ledgercache.TxCache, st *stats.LedgerStorageStats, cfg Config, logger *zap.Logger) *Storage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if st == nil {
		st = stats.New(logger)
	}
	return &Storage{backend: backend, blockCache: blockCache, txCache: txCache, stats: st, cfg: cfg, logger: logger}
}

// blockCacheTagProto and blockCacheTagBin prefix a cached block blob to
// record which codec produced it, so a cache hit can be decoded without
// re-deriving that from the cell that is no longer at hand.
const (
	blockCacheTagProto byte = 0
	blockCacheTagBin    byte = 1
)

func (s *Storage) blocksRowKey(slot ledgertypes.Slot) string {
	return key.BlocksKey(slot, s.cfg.UseMD5RowKeySalt)
}

func (s *Storage) decompress(raw []byte) ([]byte, error) {
	return compression.Decode(raw)
}

func (s *Storage) decodeTxInfo(payload []byte) (ledgertypes.TxInfo, error) {
	return legacybincode.DecodeTxInfo(payload)
}

// decodeBlockRow decodes a blocks-table row into a VersionedConfirmedBlock,
// preferring the x:proto cell over the legacy x:bin one (spec.md §4.6 step
// 3), and returns the tagged, still-compressed blob suitable for caching.
func (s *Storage) decodeBlockRow(row RowData, slot ledgertypes.Slot) (ledgertypes.VersionedConfirmedBlock, []byte, error) {
	rowKey := s.blocksRowKey(slot)

	if raw, ok := findCell(row, "proto"); ok {
		payload, err := compression.Decode(raw)
		if err != nil {
			return ledgertypes.VersionedConfirmedBlock{}, nil, ledgertypes.NewObjectCorrupt("blocks", rowKey)
		}
		blk, err := storagepb.DecodeConfirmedBlock(payload)
		if err != nil {
			return ledgertypes.VersionedConfirmedBlock{}, nil, ledgertypes.NewObjectCorrupt("blocks", rowKey)
		}
		return blk, append([]byte{blockCacheTagProto}, raw...), nil
	}

	if raw, ok := findCell(row, "bin"); ok {
		payload, err := compression.Decode(raw)
		if err != nil {
			return ledgertypes.VersionedConfirmedBlock{}, nil, ledgertypes.NewObjectCorrupt("blocks", rowKey)
		}
		cb, err := legacybincode.DecodeStoredConfirmedBlock(payload)
		if err != nil {
			return ledgertypes.VersionedConfirmedBlock{}, nil, ledgertypes.NewObjectCorrupt("blocks", rowKey)
		}
		blk, err := ledgertypes.ToVersionedConfirmedBlock(cb, s.cfg.AddEmptyTxMetadataIfMissing)
		if err != nil {
			return ledgertypes.VersionedConfirmedBlock{}, nil, err
		}
		return blk, append([]byte{blockCacheTagBin}, raw...), nil
	}

	return ledgertypes.VersionedConfirmedBlock{}, nil, ledgertypes.NewObjectNotFound(fmt.Sprintf("blocks/%s", rowKey))
}

// decodeCachedBlock is the inverse of the tagging decodeBlockRow applies
// before a cache Put.
func (s *Storage) decodeCachedBlock(blob []byte, slot ledgertypes.Slot) (ledgertypes.VersionedConfirmedBlock, error) {
	rowKey := s.blocksRowKey(slot)
	if len(blob) == 0 {
		return ledgertypes.VersionedConfirmedBlock{}, ledgertypes.NewObjectCorrupt("blocks", rowKey)
	}
	tag, raw := blob[0], blob[1:]
	payload, err := compression.Decode(raw)
	if err != nil {
		return ledgertypes.VersionedConfirmedBlock{}, ledgertypes.NewObjectCorrupt("blocks", rowKey)
	}
	switch tag {
	case blockCacheTagProto:
		blk, err := storagepb.DecodeConfirmedBlock(payload)
		if err != nil {
			return ledgertypes.VersionedConfirmedBlock{}, ledgertypes.NewObjectCorrupt("blocks", rowKey)
		}
		return blk, nil
	case blockCacheTagBin:
		cb, err := legacybincode.DecodeStoredConfirmedBlock(payload)
		if err != nil {
			return ledgertypes.VersionedConfirmedBlock{}, ledgertypes.NewObjectCorrupt("blocks", rowKey)
		}
		return ledgertypes.ToVersionedConfirmedBlock(cb, s.cfg.AddEmptyTxMetadataIfMissing)
	default:
		return ledgertypes.VersionedConfirmedBlock{}, ledgertypes.NewObjectCorrupt("blocks", rowKey)
	}
}

// decodeTxByAddrCell decodes a tx-by-addr bucket cell, preferring x:proto
// over the legacy x:bin list encoding (spec.md §4.1).
func decodeTxByAddrCell(row RowData) ([]ledgertypes.TxByAddrInfo, error) {
	if raw, ok := findCell(row, "proto"); ok {
		payload, err := compression.Decode(raw)
		if err != nil {
			return nil, err
		}
		return storagepb.DecodeTransactionByAddr(payload)
	}
	if raw, ok := findCell(row, "bin"); ok {
		payload, err := compression.Decode(raw)
		if err != nil {
			return nil, err
		}
		return legacybincode.DecodeLegacyTxByAddrList(payload)
	}
	return nil, ledgertypes.NewObjectNotFound("tx-by-addr")
}
