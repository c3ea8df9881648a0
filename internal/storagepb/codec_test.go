// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package storagepb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

func samplePublicKey(b byte) ledgertypes.PublicKey {
	var k ledgertypes.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func sampleSignature(b byte) ledgertypes.Signature {
	var s ledgertypes.Signature
	for i := range s {
		s[i] = b
	}
	return s
}

func sampleLegacyTx() ledgertypes.VersionedTx {
	return ledgertypes.VersionedTx{
		Signatures: []ledgertypes.Signature{sampleSignature(1)},
		Message: ledgertypes.VersionedMessage{
			Version: ledgertypes.MessageVersionLegacy,
			Legacy: &ledgertypes.Message{
				Header: ledgertypes.MessageHeader{
					NumRequiredSignatures:     1,
					NumReadonlySignedAccounts: 0,
					NumReadonlyUnsignedAccounts: 1,
				},
				AccountKeys:     []ledgertypes.PublicKey{samplePublicKey(2), samplePublicKey(3)},
				RecentBlockhash: ledgertypes.Hash{9, 9, 9},
				Instructions: []ledgertypes.CompiledInstruction{
					{ProgramIDIndex: 1, Accounts: []uint8{0}, Data: []byte{1, 2, 3}},
				},
			},
		},
	}
}

func sampleV0Tx() ledgertypes.VersionedTx {
	tx := sampleLegacyTx()
	tx.Message = ledgertypes.VersionedMessage{
		Version: ledgertypes.MessageVersionV0,
		V0: &ledgertypes.MessageV0{
			Header:          tx.Message.Legacy.Header,
			AccountKeys:     tx.Message.Legacy.AccountKeys,
			RecentBlockhash: tx.Message.Legacy.RecentBlockhash,
			Instructions:    tx.Message.Legacy.Instructions,
			AddressTableLookups: []ledgertypes.MessageAddressTableLookup{
				{AccountKey: samplePublicKey(4), WritableIndexes: []uint8{0}, ReadonlyIndexes: []uint8{1, 2}},
			},
		},
	}
	return tx
}

func sampleMeta() ledgertypes.TxStatusMeta {
	commission := uint8(5)
	cu := uint64(1200)
	return ledgertypes.TxStatusMeta{
		Err:          nil,
		Fee:          5000,
		PreBalances:  []uint64{100, 200},
		PostBalances: []uint64{95, 205},
		HasInnerInstructions: true,
		InnerInstructions: []ledgertypes.InnerInstruction{
			{Index: 0, Instructions: []ledgertypes.CompiledInstruction{{ProgramIDIndex: 1, Accounts: []uint8{0}, Data: []byte{9}}}},
		},
		HasLogMessages: true,
		LogMessages:    []string{"Program log: ok"},
		HasTokenBalances: true,
		PreTokenBalances: []ledgertypes.TokenBalance{
			{AccountIndex: 0, Mint: "mint1", Owner: "owner1", UITokenAmount: "1.5", Decimals: 6},
		},
		HasRewards: true,
		Rewards: []ledgertypes.Reward{
			{Pubkey: "pk1", Lamports: -42, PostBalance: 1000, RewardType: "fee", Commission: &commission},
		},
		LoadedAddresses: ledgertypes.LoadedAddresses{
			Writable: []ledgertypes.PublicKey{samplePublicKey(7)},
			Readonly: []ledgertypes.PublicKey{samplePublicKey(8)},
		},
		ReturnData:           &ledgertypes.ReturnData{ProgramID: samplePublicKey(6), Data: []byte{1, 2}},
		ComputeUnitsConsumed: &cu,
	}
}

func TestConfirmedBlockRoundTrip(t *testing.T) {
	blockTime := int64(-100)
	blockHeight := uint64(42)
	blk := ledgertypes.VersionedConfirmedBlock{
		PreviousBlockhash: "prevhash",
		Blockhash:         "hash",
		ParentSlot:        ledgertypes.Slot(9),
		Transactions: []ledgertypes.VersionedTxWithMeta{
			{Tx: sampleLegacyTx(), Meta: sampleMeta()},
			{Tx: sampleV0Tx(), Meta: ledgertypes.TxStatusMeta{Fee: 1, Err: &ledgertypes.TransactionError{Message: "insufficient funds"}}},
		},
		Rewards:     []ledgertypes.Reward{{Pubkey: "validator", Lamports: 123, PostBalance: 456, RewardType: "staking"}},
		BlockTime:   &blockTime,
		BlockHeight: &blockHeight,
	}

	data, err := EncodeConfirmedBlock(blk)
	require.NoError(t, err)

	out, err := DecodeConfirmedBlock(data)
	require.NoError(t, err)
	require.Equal(t, blk.PreviousBlockhash, out.PreviousBlockhash)
	require.Equal(t, blk.Blockhash, out.Blockhash)
	require.Equal(t, blk.ParentSlot, out.ParentSlot)
	require.Len(t, out.Transactions, 2)
	require.Equal(t, blk.Transactions[0].Tx.Signatures, out.Transactions[0].Tx.Signatures)
	require.True(t, out.Transactions[1].Meta.IsError())
	require.Equal(t, "insufficient funds", out.Transactions[1].Meta.Err.Message)
	require.Equal(t, *blk.BlockTime, *out.BlockTime)
	require.Equal(t, *blk.BlockHeight, *out.BlockHeight)
	require.True(t, out.Transactions[0].Tx.Message.IsLegacy())
	require.False(t, out.Transactions[1].Tx.Message.IsLegacy())
	require.Len(t, out.Transactions[1].Tx.Message.V0.AddressTableLookups, 1)
}

func TestTransactionByAddrRoundTrip(t *testing.T) {
	memo := "hello"
	blockTime := int64(555)
	infos := []ledgertypes.TxByAddrInfo{
		{Signature: sampleSignature(1), Index: 0, Memo: &memo, BlockTime: &blockTime},
		{Signature: sampleSignature(2), Err: &ledgertypes.TransactionError{Message: "boom"}, Index: 1},
	}
	data, err := EncodeTransactionByAddr(infos)
	require.NoError(t, err)
	out, err := DecodeTransactionByAddr(data)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, memo, *out[0].Memo)
	require.Equal(t, blockTime, *out[0].BlockTime)
	require.Nil(t, out[0].Err)
	require.Equal(t, "boom", out[1].Err.Message)
}

func TestConfirmedTransactionWithStatusMetaRoundTrip(t *testing.T) {
	blockTime := int64(777)
	tx := ledgertypes.ConfirmedTransactionWithStatusMeta{
		Slot:      ledgertypes.Slot(123),
		Tx:        sampleLegacyTx(),
		Meta:      sampleMeta(),
		BlockTime: &blockTime,
	}
	data, err := EncodeConfirmedTransactionWithStatusMeta(tx)
	require.NoError(t, err)
	out, err := DecodeConfirmedTransactionWithStatusMeta(data)
	require.NoError(t, err)
	require.Equal(t, tx.Slot, out.Slot)
	require.Equal(t, tx.Meta.Fee, out.Meta.Fee)
	require.Equal(t, tx.Meta.PreTokenBalances, out.Meta.PreTokenBalances)
	require.Equal(t, *tx.Meta.ComputeUnitsConsumed, *out.Meta.ComputeUnitsConsumed)
	require.Equal(t, tx.Meta.ReturnData.Data, out.Meta.ReturnData.Data)
	require.Equal(t, blockTime, *out.BlockTime)
}

func TestEmptyMetaRoundTrip(t *testing.T) {
	tx := ledgertypes.ConfirmedTransactionWithStatusMeta{
		Slot: ledgertypes.Slot(1),
		Tx:   sampleLegacyTx(),
		Meta: ledgertypes.TxStatusMeta{Fee: 10},
	}
	data, err := EncodeConfirmedTransactionWithStatusMeta(tx)
	require.NoError(t, err)
	out, err := DecodeConfirmedTransactionWithStatusMeta(data)
	require.NoError(t, err)
	require.False(t, out.Meta.IsError())
	require.Nil(t, out.Meta.LogMessages)
	require.Nil(t, out.BlockTime)
}
