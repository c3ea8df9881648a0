// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgerstorage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dexterlaboss/ingestor-sdk/internal/compression"
	"github.com/dexterlaboss/ingestor-sdk/internal/key"
	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
	"github.com/dexterlaboss/ingestor-sdk/internal/legacybincode"
	"github.com/dexterlaboss/ingestor-sdk/internal/storagepb"
	"github.com/dexterlaboss/ingestor-sdk/pkg/memolookup"
)

// UploadConfirmedBlock derives and writes all secondary indexes for slot's
// block, then -- only once every secondary write has succeeded -- writes
// the primary blocks cell (spec.md §4.7). block may still carry
// MissingMetadata entries; it is converted first, honoring
// Config.AddEmptyTxMetadataIfMissing the same way a direct read would.
func (s *Storage) UploadConfirmedBlock(ctx context.Context, slot ledgertypes.Slot, block ledgertypes.ConfirmedBlock) error {
	runID := uuid.NewString()
	log := s.logger.With(zap.String("upload_id", runID), zap.Uint64("slot", uint64(slot)))

	vb, err := ledgertypes.ToVersionedConfirmedBlock(block, s.cfg.AddEmptyTxMetadataIfMissing)
	if err != nil {
		return fmt.Errorf("upload %d: %w", slot, err)
	}

	txFullCells := make([]KeyedRowData, 0, len(vb.Transactions))
	type cacheEntry struct {
		sig     ledgertypes.Signature
		payload []byte
	}
	var fullTxCache []cacheEntry
	txCells := make([]KeyedRowData, 0, len(vb.Transactions))
	addrBuckets := make(map[string][]ledgertypes.TxByAddrInfo)

	for index, twm := range vb.Transactions {
		if len(twm.Tx.Signatures) == 0 {
			log.Warn("transaction with no signatures, skipping", zap.Int("index", index))
			continue
		}
		sig := twm.Tx.Signatures[0]
		allKeys := twm.Tx.AllAccountKeys(twm.Meta.LoadedAddresses)
		memo := memolookup.Extract(twm.Tx.Message, allKeys)
		isVoting := ledgertypes.IsVoting(allKeys)
		isError := twm.Meta.IsError()

		// txFullAllowed tracks whether every non-program-filtered account
		// key in this transaction passes TxFullFilter; a single
		// disallowed address excludes the whole transaction from tx_full,
		// mirroring should_include_in_tx_full's per-address evaluation in
		// the same loop that builds the tx-by-addr buckets.
		txFullAllowed := true

		if !s.cfg.DisableTxByAddr {
			programIDs := ledgertypes.ProgramIDsUsed(twm.Tx, twm.Meta, allKeys)
			for _, acct := range allKeys {
				addr := acct.String()
				if s.cfg.FilterTxByAddrPrograms {
					if _, used := programIDs[acct]; used {
						continue
					}
				}
				if !s.cfg.TxFullFilter.Allows(addr) {
					txFullAllowed = false
				}
				if ledgertypes.IsSysvar(addr) {
					continue
				}
				if !s.cfg.TxByAddrFilter.Allows(addr) {
					continue
				}
				addrBuckets[addr] = append(addrBuckets[addr], ledgertypes.TxByAddrInfo{
					Signature: sig,
					Err:       twm.Meta.Err,
					Index:     uint32(index),
					Memo:      memo,
					BlockTime: vb.BlockTime,
				})
			}
		}

		survivesFilter := !(s.cfg.FilterVotingTx && isVoting) && !(s.cfg.FilterErrorTx && isError) && txFullAllowed

		if s.cfg.EnableFullTx && survivesFilter {
			full := ledgertypes.ConfirmedTransactionWithStatusMeta{
				Slot:      slot,
				Tx:        twm.Tx,
				Meta:      twm.Meta,
				BlockTime: vb.BlockTime,
			}
			payload, err := storagepb.EncodeConfirmedTransactionWithStatusMeta(full)
			if err != nil {
				return fmt.Errorf("upload %d: encode tx_full %s: %w", slot, sig, err)
			}
			blob, err := compression.EncodeBest(payload, !s.cfg.DisableTxFullCompression)
			if err != nil {
				return fmt.Errorf("upload %d: compress tx_full %s: %w", slot, sig, err)
			}
			txFullCells = append(txFullCells, KeyedRowData{Key: sig.String(), Data: RowData{{Name: "proto", Value: blob}}})

			if s.cfg.EnableFullTxCache && !isVoting && !isError {
				fullTxCache = append(fullTxCache, cacheEntry{sig: sig, payload: payload})
			}
		}

		if !s.cfg.DisableTx {
			info := ledgertypes.TxInfo{Slot: slot, Index: uint32(index), Err: twm.Meta.Err}
			payload := legacybincode.EncodeTxInfo(info)
			blob, err := compression.EncodeBest(payload, !s.cfg.DisableTxCompression)
			if err != nil {
				return fmt.Errorf("upload %d: compress tx %s: %w", slot, sig, err)
			}
			txCells = append(txCells, KeyedRowData{Key: sig.String(), Data: RowData{{Name: "bin", Value: blob}}})
		}
	}

	txByAddrCells := make([]KeyedRowData, 0, len(addrBuckets))
	bucketKey := key.TxByAddrKey(slot)
	for addr, infos := range addrBuckets {
		payload, err := storagepb.EncodeTransactionByAddr(infos)
		if err != nil {
			return fmt.Errorf("upload %d: encode tx-by-addr %s: %w", slot, addr, err)
		}
		blob, err := compression.EncodeBest(payload, !s.cfg.DisableTxByAddrCompression)
		if err != nil {
			return fmt.Errorf("upload %d: compress tx-by-addr %s: %w", slot, addr, err)
		}
		txByAddrCells = append(txByAddrCells, KeyedRowData{Key: addr + "/" + bucketKey, Data: RowData{{Name: "proto", Value: blob}}})
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if len(txFullCells) == 0 {
			return
		}
		errs[0] = s.retryingPut(ctx, "tx_full", txFullCells)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if !s.txCache.Enabled() {
			return
		}
		for _, e := range fullTxCache {
			if err := s.txCache.Put(e.sig, e.payload); err != nil {
				log.Warn("tx_full cache write failed", zap.String("sig", e.sig.String()), zap.Error(err))
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if len(txCells) == 0 {
			return
		}
		errs[2] = s.retryingPut(ctx, "tx", txCells)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if len(txByAddrCells) == 0 {
			return
		}
		errs[3] = s.retryingPut(ctx, "tx-by-addr", txByAddrCells)
	}()

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("upload %d: %w", slot, err)
		}
	}

	if s.cfg.DisableBlocks {
		return nil
	}

	blockPayload, err := storagepb.EncodeConfirmedBlock(vb)
	if err != nil {
		return fmt.Errorf("upload %d: encode block: %w", slot, err)
	}
	blockBlob, err := compression.EncodeBest(blockPayload, !s.cfg.DisableBlocksCompression)
	if err != nil {
		return fmt.Errorf("upload %d: compress block: %w", slot, err)
	}
	row := KeyedRowData{Key: s.blocksRowKey(slot), Data: RowData{{Name: "proto", Value: blockBlob}}}
	if err := s.retryingPut(ctx, "blocks", []KeyedRowData{row}); err != nil {
		return fmt.Errorf("upload %d: %w", slot, err)
	}

	log.Debug("uploaded block", zap.Int("transactions", len(vb.Transactions)), zap.Int("addresses", len(addrBuckets)))
	return nil
}

// retryingPut is the sole retry point for secondary and primary writes
// (spec.md §5 "put_bincode_cells / put_protobuf_cells are the only retry
// points"), wrapping the backend write in exponential backoff.
func (s *Storage) retryingPut(ctx context.Context, table string, rows []KeyedRowData) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.backend.PutRowData(ctx, table, rows, !s.cfg.HBaseSkipWAL)
	}, backoff.WithContext(bo, ctx))
}
