// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgerstorage

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/dexterlaboss/ingestor-sdk/internal/key"
	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
	"github.com/dexterlaboss/ingestor-sdk/internal/storagepb"
)

// GetFirstAvailableBlock returns the lowest slot present in the blocks
// table (spec.md §4.6). A salted row-key layout destroys the lexical
// slot ordering a key-only scan relies on, so it always reports absent
// in that mode rather than returning a misleading answer.
func (s *Storage) GetFirstAvailableBlock(ctx context.Context) (ledgertypes.Slot, bool, error) {
	s.stats.IncrementNumQueries()
	if s.cfg.UseMD5RowKeySalt {
		return 0, false, nil
	}
	keys, err := s.backend.GetRowKeys(ctx, "blocks", "", "", 1, false)
	if err != nil {
		return 0, false, err
	}
	if len(keys) == 0 {
		return 0, false, nil
	}
	slot, ok := key.KeyToSlot(keys[0])
	if !ok {
		s.logger.Warn("malformed blocks row key", zap.String("key", keys[0]))
		return 0, false, nil
	}
	return slot, true, nil
}

// GetConfirmedBlocks lists up to limit confirmed slots starting at start,
// ascending, via a key-only scan (spec.md §4.6). Unparseable keys are
// dropped rather than aborting the whole scan.
func (s *Storage) GetConfirmedBlocks(ctx context.Context, start ledgertypes.Slot, limit uint) ([]ledgertypes.Slot, error) {
	s.stats.IncrementNumQueries()
	if s.cfg.UseMD5RowKeySalt || limit == 0 {
		return nil, nil
	}
	endSlot := start + ledgertypes.Slot(limit) - 1
	startKey := key.BlocksKey(start, false)
	endKey := key.BlocksKey(endSlot, false)

	rowKeys, err := s.backend.GetRowKeys(ctx, "blocks", startKey, endKey, int64(limit), false)
	if err != nil {
		return nil, err
	}
	slots := make([]ledgertypes.Slot, 0, len(rowKeys))
	for _, k := range rowKeys {
		slot, ok := key.KeyToSlot(k)
		if !ok {
			s.logger.Warn("malformed blocks row key", zap.String("key", k))
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// GetLatestStoredSlot returns the highest slot present in the blocks
// table, or 0 if the table is empty (spec.md §4.6).
func (s *Storage) GetLatestStoredSlot(ctx context.Context) (ledgertypes.Slot, error) {
	s.stats.IncrementNumQueries()
	keys, err := s.backend.GetRowKeys(ctx, "blocks", "", "", 1, true)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	slot, ok := key.KeyToSlot(keys[0])
	if !ok {
		return 0, ledgertypes.NewObjectCorrupt("blocks", keys[0])
	}
	return slot, nil
}

// GetConfirmedBlock fetches one confirmed block, consulting the block
// cache first when useCache is set and populating it on a cold-path miss
// (spec.md §4.6).
func (s *Storage) GetConfirmedBlock(ctx context.Context, slot ledgertypes.Slot, useCache bool) (ledgertypes.VersionedConfirmedBlock, error) {
	s.stats.IncrementNumQueries()

	if useCache {
		if blob, ok := s.blockCache.Get(slot); ok {
			blk, err := s.decodeCachedBlock(blob, slot)
			if err != nil {
				return ledgertypes.VersionedConfirmedBlock{}, err
			}
			return blk, nil
		}
	}

	row, err := s.backend.GetSingleRowData(ctx, "blocks", s.blocksRowKey(slot))
	if errors.Is(err, ledgertypes.ErrRowNotFound) {
		return ledgertypes.VersionedConfirmedBlock{}, ledgertypes.NewBlockNotFound(slot)
	}
	if err != nil {
		return ledgertypes.VersionedConfirmedBlock{}, err
	}

	blk, cacheable, err := s.decodeBlockRow(row, slot)
	if err != nil {
		return ledgertypes.VersionedConfirmedBlock{}, err
	}
	if useCache {
		s.blockCache.Put(slot, cacheable)
	}
	return blk, nil
}

// GetSignatureStatus reads the compact tx pointer (slot, index, error)
// for a signature from the tx table (spec.md §4.6).
func (s *Storage) GetSignatureStatus(ctx context.Context, sig ledgertypes.Signature) (ledgertypes.TxInfo, bool, error) {
	s.stats.IncrementNumQueries()
	row, err := s.backend.GetSingleRowData(ctx, "tx", sig.String())
	if errors.Is(err, ledgertypes.ErrRowNotFound) {
		return ledgertypes.TxInfo{}, false, nil
	}
	if err != nil {
		return ledgertypes.TxInfo{}, false, err
	}
	raw, ok := findCell(row, "bin")
	if !ok {
		return ledgertypes.TxInfo{}, false, ledgertypes.NewObjectNotFound("tx/" + sig.String())
	}
	payload, err := s.decompress(raw)
	if err != nil {
		return ledgertypes.TxInfo{}, false, ledgertypes.NewObjectCorrupt("tx", sig.String())
	}
	info, err := s.decodeTxInfo(payload)
	if err != nil {
		return ledgertypes.TxInfo{}, false, ledgertypes.NewObjectCorrupt("tx", sig.String())
	}
	return info, true, nil
}

// GetFullTransaction reads a transaction's full record from tx_full
// (spec.md §4.6).
func (s *Storage) GetFullTransaction(ctx context.Context, sig ledgertypes.Signature) (ledgertypes.ConfirmedTransactionWithStatusMeta, bool, error) {
	s.stats.IncrementNumQueries()
	row, err := s.backend.GetSingleRowData(ctx, "tx_full", sig.String())
	if errors.Is(err, ledgertypes.ErrRowNotFound) {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, nil
	}
	if err != nil {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, err
	}
	raw, ok := findCell(row, "proto")
	if !ok {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, ledgertypes.NewObjectNotFound("tx_full/" + sig.String())
	}
	payload, err := s.decompress(raw)
	if err != nil {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, ledgertypes.NewObjectCorrupt("tx_full", sig.String())
	}
	tx, err := storagepb.DecodeConfirmedTransactionWithStatusMeta(payload)
	if err != nil {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, ledgertypes.NewObjectCorrupt("tx_full", sig.String())
	}
	return tx, true, nil
}

// GetConfirmedTransaction resolves a signature to its full transaction
// record through the full fallback chain of spec.md §4.6 step 3: tx
// cache, tx_full table, then (unless disabled) the tx pointer table
// followed by a re-read of the containing block.
func (s *Storage) GetConfirmedTransaction(ctx context.Context, sig ledgertypes.Signature) (ledgertypes.ConfirmedTransactionWithStatusMeta, bool, error) {
	s.stats.IncrementNumQueries()

	if s.txCache.Enabled() {
		data, ok, err := s.txCache.Get(sig)
		if err != nil {
			s.logger.Warn("tx cache read failed, falling back", zap.String("sig", sig.String()), zap.Error(err))
		} else if ok {
			tx, err := storagepb.DecodeConfirmedTransactionWithStatusMeta(data)
			if err == nil {
				return tx, true, nil
			}
			s.logger.Warn("corrupt tx cache entry, falling back", zap.String("sig", sig.String()), zap.Error(err))
		}
	}

	tx, ok, err := s.GetFullTransaction(ctx, sig)
	if err != nil {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, err
	}
	if ok {
		return tx, true, nil
	}
	if s.cfg.DisableTxFallback {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, nil
	}

	info, ok, err := s.GetSignatureStatus(ctx, sig)
	if err != nil {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, err
	}
	if !ok {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, fmt.Errorf("signature %s: %w", sig.String(), ledgertypes.ErrSignatureNotFound)
	}

	blk, err := s.GetConfirmedBlock(ctx, info.Slot, true)
	if err != nil {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, err
	}
	if int(info.Index) >= len(blk.Transactions) {
		s.logger.Warn("tx pointer index out of range", zap.String("sig", sig.String()), zap.Uint64("slot", uint64(info.Slot)), zap.Uint32("index", info.Index))
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, nil
	}
	twm := blk.Transactions[info.Index]
	if twm.Tx.Signatures[0] != sig {
		s.logger.Warn("tx pointer signature mismatch", zap.String("expected", sig.String()), zap.String("actual", twm.Tx.Signatures[0].String()))
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, false, nil
	}
	return ledgertypes.ConfirmedTransactionWithStatusMeta{
		Slot:      info.Slot,
		Tx:        twm.Tx,
		Meta:      twm.Meta,
		BlockTime: blk.BlockTime,
	}, true, nil
}

// addrCursor is a resolved (before|until) endpoint for an address history
// scan: the slot and in-slot index it points at, plus whether it was
// resolved through the tx_full fallback (in which case per-slot index
// filtering at that endpoint is skipped -- spec.md §4.6 step 4).
type addrCursor struct {
	slot     ledgertypes.Slot
	index    uint32
	fellBack bool
}

func (s *Storage) resolveAddrCursor(ctx context.Context, sig ledgertypes.Signature) (addrCursor, bool, error) {
	info, ok, err := s.GetSignatureStatus(ctx, sig)
	if err != nil {
		return addrCursor{}, false, err
	}
	if ok {
		return addrCursor{slot: info.Slot, index: info.Index}, true, nil
	}
	full, ok, err := s.GetFullTransaction(ctx, sig)
	if err != nil {
		return addrCursor{}, false, err
	}
	if ok {
		return addrCursor{slot: full.Slot, fellBack: true}, true, nil
	}
	return addrCursor{}, false, nil
}

func (s *Storage) getTxByAddrBucket(ctx context.Context, addr string, slot ledgertypes.Slot) ([]ledgertypes.TxByAddrInfo, error) {
	row, err := s.backend.GetSingleRowData(ctx, "tx-by-addr", addr+"/"+key.TxByAddrKey(slot))
	if errors.Is(err, ledgertypes.ErrRowNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return decodeTxByAddrCell(row)
}

// GetConfirmedSignaturesForAddress scans the tx-by-addr secondary index
// for addr, newest-first, per spec.md §4.6 step 4: before/until cursors
// are resolved to (slot, index), the bucket range is over-fetched by the
// before-cursor's own bucket length to compensate for same-slot entries
// that sit before it, and within each slot bucket entries come back in
// reverse (newest-first) order.
func (s *Storage) GetConfirmedSignaturesForAddress(ctx context.Context, addr string, before, until *ledgertypes.Signature, limit int) ([]ledgertypes.ConfirmedTransactionStatusWithSignature, error) {
	s.stats.IncrementNumQueries()
	if limit <= 0 {
		return nil, nil
	}

	var beforeCur, untilCur addrCursor
	haveBefore, haveUntil := false, false
	if before != nil {
		c, found, err := s.resolveAddrCursor(ctx, *before)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		beforeCur, haveBefore = c, true
	}
	if until != nil {
		c, found, err := s.resolveAddrCursor(ctx, *until)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		untilCur, haveUntil = c, true
	}

	firstSlot := ledgertypes.Slot(math.MaxUint64)
	if haveBefore {
		firstSlot = beforeCur.slot
	}
	var lastSlot ledgertypes.Slot
	if haveUntil {
		lastSlot = untilCur.slot
	}

	startingSlotTxLen := 0
	if haveBefore {
		bucket, err := s.getTxByAddrBucket(ctx, addr, firstSlot)
		if err != nil && !errors.Is(err, ledgertypes.ErrRowNotFound) {
			return nil, err
		}
		startingSlotTxLen = len(bucket)
	}

	// lastSlot-1 saturates at 0 instead of wrapping around (Slot is a
	// uint64): lastSlot==0, the default when until is nil, must still
	// produce a wide-open lower bound rather than collapsing the scan
	// range onto slot 0's own key (original_source/hbase-reader/src/
	// ledger_storage.rs:578's last_slot.saturating_sub(1)).
	endSlot := lastSlot
	if endSlot > 0 {
		endSlot--
	}
	startKey := addr + "/" + key.TxByAddrKey(firstSlot)
	endKey := addr + "/" + key.TxByAddrKey(endSlot)
	rowsLimit := int64(limit) + int64(startingSlotTxLen)

	rows, err := s.backend.GetRowData(ctx, "tx-by-addr", startKey, endKey, rowsLimit)
	if err != nil {
		return nil, err
	}

	prefixLen := len(addr) + 1
	out := make([]ledgertypes.ConfirmedTransactionStatusWithSignature, 0, limit)
	for _, row := range rows {
		if len(row.Key) <= prefixLen {
			continue
		}
		slot, ok := key.ReverseSlotFromTxByAddrKey(row.Key[prefixLen:])
		if !ok {
			s.logger.Warn("malformed tx-by-addr row key", zap.String("key", row.Key))
			continue
		}
		infos, err := decodeTxByAddrCell(row.Data)
		if err != nil {
			s.logger.Warn("corrupt tx-by-addr cell", zap.String("key", row.Key), zap.Error(err))
			continue
		}
		for i, j := 0, len(infos)-1; i < j; i, j = i+1, j-1 {
			infos[i], infos[j] = infos[j], infos[i]
		}
		for _, info := range infos {
			if haveBefore && !beforeCur.fellBack && slot == firstSlot && info.Index >= beforeCur.index {
				continue
			}
			if haveUntil && !untilCur.fellBack && slot == lastSlot && info.Index <= untilCur.index {
				continue
			}
			out = append(out, ledgertypes.ConfirmedTransactionStatusWithSignature{
				Signature: info.Signature,
				Slot:      slot,
				Err:       info.Err,
				Memo:      info.Memo,
				BlockTime: info.BlockTime,
			})
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}
