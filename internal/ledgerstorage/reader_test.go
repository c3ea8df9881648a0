// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgerstorage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

func uploadTestBlocks(t *testing.T, s *Storage, addr ledgertypes.PublicKey, other ledgertypes.PublicKey, slots ...ledgertypes.Slot) {
	t.Helper()
	for i, slot := range slots {
		block := ledgertypes.ConfirmedBlock{
			Transactions: []ledgertypes.TxWithMeta{
				twoAccountTx(byte(10+i), addr, other, false),
			},
		}
		require.NoError(t, s.UploadConfirmedBlock(context.Background(), slot, block))
	}
}

func TestGetFirstAvailableBlockAndLatestStoredSlot(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{EnableFullTx: true})

	_, ok, err := s.GetFirstAvailableBlock(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	uploadTestBlocks(t, s, pubkey(1), pubkey(2), 5, 10, 20)

	first, ok, err := s.GetFirstAvailableBlock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ledgertypes.Slot(5), first)

	last, err := s.GetLatestStoredSlot(context.Background())
	require.NoError(t, err)
	require.Equal(t, ledgertypes.Slot(20), last)
}

func TestGetFirstAvailableBlockSaltedAlwaysAbsent(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{EnableFullTx: true, UseMD5RowKeySalt: true})
	uploadTestBlocks(t, s, pubkey(1), pubkey(2), 5)

	_, ok, err := s.GetFirstAvailableBlock(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetConfirmedBlocksRange(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{EnableFullTx: true})
	uploadTestBlocks(t, s, pubkey(1), pubkey(2), 5, 6, 7, 100)

	slots, err := s.GetConfirmedBlocks(context.Background(), 5, 3)
	require.NoError(t, err)
	require.Equal(t, []ledgertypes.Slot{5, 6, 7}, slots)

	slots, err = s.GetConfirmedBlocks(context.Background(), 5, 0)
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestGetConfirmedBlockCachePopulatesOnMiss(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{EnableFullTx: true})
	uploadTestBlocks(t, s, pubkey(1), pubkey(2), 42)

	require.Equal(t, 0, s.blockCache.Len())
	blk, err := s.GetConfirmedBlock(context.Background(), 42, true)
	require.NoError(t, err)
	require.Len(t, blk.Transactions, 1)
	require.Equal(t, 1, s.blockCache.Len())

	blk2, err := s.GetConfirmedBlock(context.Background(), 42, true)
	require.NoError(t, err)
	require.Equal(t, blk.Transactions[0].Tx.Signatures[0], blk2.Transactions[0].Tx.Signatures[0])
}

func TestGetConfirmedBlockNotFound(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{})
	_, err := s.GetConfirmedBlock(context.Background(), 1, false)
	require.True(t, errors.Is(err, ledgertypes.ErrBlockNotFound))
}

func TestGetConfirmedTransactionFallsBackThroughBlock(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{})
	addr, other := pubkey(1), pubkey(2)
	uploadTestBlocks(t, s, addr, other, 77)

	tx, ok, err := s.GetConfirmedTransaction(context.Background(), sig(10))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ledgertypes.Slot(77), tx.Slot)
	require.Equal(t, sig(10), tx.Tx.Signatures[0])
}

func TestGetConfirmedTransactionDisabledFallback(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{DisableTxFallback: true})
	addr, other := pubkey(1), pubkey(2)
	uploadTestBlocks(t, s, addr, other, 77)

	_, ok, err := s.GetConfirmedTransaction(context.Background(), sig(10))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetConfirmedSignaturesForAddressNewestFirst(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{})
	addr, other := pubkey(1), pubkey(2)
	uploadTestBlocks(t, s, addr, other, 1, 2, 3)

	out, err := s.GetConfirmedSignaturesForAddress(context.Background(), addr.String(), nil, nil, 10)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, ledgertypes.Slot(3), out[0].Slot)
	require.Equal(t, ledgertypes.Slot(2), out[1].Slot)
	require.Equal(t, ledgertypes.Slot(1), out[2].Slot)
}

func TestGetConfirmedSignaturesForAddressLimitZero(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{})
	addr, other := pubkey(1), pubkey(2)
	uploadTestBlocks(t, s, addr, other, 1, 2)

	out, err := s.GetConfirmedSignaturesForAddress(context.Background(), addr.String(), nil, nil, 0)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestGetConfirmedSignaturesForAddressBeforeEqualsUntilIsEmpty(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{})
	addr, other := pubkey(1), pubkey(2)
	// Non-adjacent slots so the scan's one-slot-further endKey doesn't
	// accidentally sweep in a neighboring bucket for this address.
	uploadTestBlocks(t, s, addr, other, 10, 50)

	cursor := sig(11) // the tx minted at slot 50 (second upload, sigByte 10+1)
	out, err := s.GetConfirmedSignaturesForAddress(context.Background(), addr.String(), &cursor, &cursor, 10)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestGetConfirmedSignaturesForAddressUnknownCursorIsEmpty(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStorage(backend, Config{})
	addr, other := pubkey(1), pubkey(2)
	uploadTestBlocks(t, s, addr, other, 1)

	unknown := sig(250)
	out, err := s.GetConfirmedSignaturesForAddress(context.Background(), addr.String(), &unknown, nil, 10)
	require.NoError(t, err)
	require.Empty(t, out)
}
