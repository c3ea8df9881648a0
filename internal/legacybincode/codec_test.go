// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package legacybincode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

func TestTxInfoRoundTrip(t *testing.T) {
	info := ledgertypes.TxInfo{Slot: 100, Index: 3, Err: &ledgertypes.TransactionError{Message: "failed"}}
	data := EncodeTxInfo(info)
	out, err := DecodeTxInfo(data)
	require.NoError(t, err)
	require.Equal(t, info.Slot, out.Slot)
	require.Equal(t, info.Index, out.Index)
	require.Equal(t, info.Err.Message, out.Err.Message)
}

func TestTxInfoRoundTripNoErr(t *testing.T) {
	info := ledgertypes.TxInfo{Slot: 5, Index: 0}
	data := EncodeTxInfo(info)
	out, err := DecodeTxInfo(data)
	require.NoError(t, err)
	require.Nil(t, out.Err)
}

func TestLegacyTxByAddrInfoRoundTrip(t *testing.T) {
	memo := "note"
	var sig ledgertypes.Signature
	sig[0] = 1
	blockTime := int64(999)
	info := ledgertypes.TxByAddrInfo{Signature: sig, Index: 7, Memo: &memo, BlockTime: &blockTime}
	data := EncodeLegacyTxByAddrInfo(info)
	out, err := DecodeLegacyTxByAddrInfo(data)
	require.NoError(t, err)
	require.Equal(t, sig, out.Signature)
	require.Equal(t, uint32(7), out.Index)
	require.Equal(t, memo, *out.Memo)
	require.Nil(t, out.BlockTime, "legacy rows never carry a block time")
}

func TestLegacyTxByAddrListRoundTrip(t *testing.T) {
	var sig1, sig2 ledgertypes.Signature
	sig1[0], sig2[0] = 1, 2
	memo := "m"
	infos := []ledgertypes.TxByAddrInfo{
		{Signature: sig1, Index: 0, Memo: &memo},
		{Signature: sig2, Index: 1, Err: &ledgertypes.TransactionError{Message: "boom"}},
	}
	data := EncodeLegacyTxByAddrList(infos)
	out, err := DecodeLegacyTxByAddrList(data)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, sig1, out[0].Signature)
	require.Equal(t, memo, *out[0].Memo)
	require.Equal(t, "boom", out[1].Err.Message)
}

func TestLegacyTxByAddrListRoundTripEmpty(t *testing.T) {
	data := EncodeLegacyTxByAddrList(nil)
	out, err := DecodeLegacyTxByAddrList(data)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestStoredConfirmedBlockRoundTrip(t *testing.T) {
	var pk ledgertypes.PublicKey
	pk[0] = 9
	var sig ledgertypes.Signature
	sig[0] = 1
	legacyMsg := ledgertypes.Message{
		Header:          ledgertypes.MessageHeader{NumRequiredSignatures: 1},
		AccountKeys:     []ledgertypes.PublicKey{pk},
		RecentBlockhash: ledgertypes.Hash{1, 2, 3},
		Instructions: []ledgertypes.CompiledInstruction{
			{ProgramIDIndex: 0, Accounts: []uint8{0}, Data: []byte{1, 2}},
		},
	}
	blockTime := int64(-5)
	blk := ledgertypes.ConfirmedBlock{
		PreviousBlockhash: "prev",
		Blockhash:         "cur",
		ParentSlot:        ledgertypes.Slot(41),
		Transactions: []ledgertypes.TxWithMeta{
			{Legacy: &ledgertypes.LegacyTransaction{Signatures: []ledgertypes.Signature{sig}, Message: legacyMsg}},
			{
				Tx: &ledgertypes.VersionedTx{
					Signatures: []ledgertypes.Signature{sig},
					Message:    ledgertypes.VersionedMessage{Version: ledgertypes.MessageVersionLegacy, Legacy: &legacyMsg},
				},
				Meta: &ledgertypes.TxStatusMeta{
					Fee:          5000,
					PreBalances:  []uint64{1, 2},
					PostBalances: []uint64{0, 3},
					HasLogMessages: true,
					LogMessages:    []string{"log line"},
				},
			},
		},
		Rewards:   []ledgertypes.Reward{{Pubkey: "validator", Lamports: 10, PostBalance: 20, RewardType: "staking"}},
		BlockTime: &blockTime,
	}

	data, err := EncodeStoredConfirmedBlock(blk)
	require.NoError(t, err)
	out, err := DecodeStoredConfirmedBlock(data)
	require.NoError(t, err)

	require.Equal(t, blk.PreviousBlockhash, out.PreviousBlockhash)
	require.Equal(t, blk.ParentSlot, out.ParentSlot)
	require.Len(t, out.Transactions, 2)
	require.True(t, out.Transactions[0].IsMissingMetadata())
	require.False(t, out.Transactions[1].IsMissingMetadata())
	require.Equal(t, uint64(5000), out.Transactions[1].Meta.Fee)
	require.Equal(t, []string{"log line"}, out.Transactions[1].Meta.LogMessages)
	require.Equal(t, *blk.BlockTime, *out.BlockTime)
}

func TestStoredConfirmedBlockRejectsVersionedMessage(t *testing.T) {
	blk := ledgertypes.ConfirmedBlock{
		Transactions: []ledgertypes.TxWithMeta{
			{
				Tx: &ledgertypes.VersionedTx{
					Message: ledgertypes.VersionedMessage{
						Version: ledgertypes.MessageVersionV0,
						V0:      &ledgertypes.MessageV0{},
					},
				},
				Meta: &ledgertypes.TxStatusMeta{},
			},
		},
	}
	_, err := EncodeStoredConfirmedBlock(blk)
	require.Error(t, err)
}
