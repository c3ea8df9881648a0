// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package storagepb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// Field numbers for VersionedTxWithMeta.
const (
	fTxWithMetaTx   protowire.Number = 1
	fTxWithMetaMeta protowire.Number = 2
)

func encodeTxWithMeta(t ledgertypes.VersionedTxWithMeta) []byte {
	var b []byte
	b = protowire.AppendTag(b, fTxWithMetaTx, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeVersionedTx(t.Tx))
	b = protowire.AppendTag(b, fTxWithMetaMeta, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeTxStatusMeta(t.Meta))
	return b
}

func decodeTxWithMeta(b []byte) (ledgertypes.VersionedTxWithMeta, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.VersionedTxWithMeta{}, fmt.Errorf("storagepb: tx with meta: %w", err)
	}
	txBuf, _ := bytesOf(fs[fTxWithMetaTx])
	tx, err := decodeVersionedTx(txBuf)
	if err != nil {
		return ledgertypes.VersionedTxWithMeta{}, err
	}
	metaBuf, _ := bytesOf(fs[fTxWithMetaMeta])
	meta, err := decodeTxStatusMeta(metaBuf)
	if err != nil {
		return ledgertypes.VersionedTxWithMeta{}, err
	}
	return ledgertypes.VersionedTxWithMeta{Tx: tx, Meta: meta}, nil
}

// Field numbers for ConfirmedBlock.
const (
	fBlockPreviousBlockhash protowire.Number = 1
	fBlockBlockhash         protowire.Number = 2
	fBlockParentSlot        protowire.Number = 3
	fBlockTransactions      protowire.Number = 4
	fBlockRewards           protowire.Number = 5
	fBlockHasNumPartitions  protowire.Number = 6
	fBlockNumPartitions     protowire.Number = 7
	fBlockHasBlockTime      protowire.Number = 8
	fBlockBlockTime         protowire.Number = 9
	fBlockHasBlockHeight    protowire.Number = 10
	fBlockBlockHeight       protowire.Number = 11
)

// EncodeConfirmedBlock marshals a VersionedConfirmedBlock to its protobuf
// wire form, the shape stored in the blocks cell (spec.md §4.1).
func EncodeConfirmedBlock(blk ledgertypes.VersionedConfirmedBlock) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fBlockPreviousBlockhash, protowire.BytesType)
	b = protowire.AppendString(b, blk.PreviousBlockhash)
	b = protowire.AppendTag(b, fBlockBlockhash, protowire.BytesType)
	b = protowire.AppendString(b, blk.Blockhash)
	b = protowire.AppendTag(b, fBlockParentSlot, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(blk.ParentSlot))
	for _, tx := range blk.Transactions {
		b = protowire.AppendTag(b, fBlockTransactions, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeTxWithMeta(tx))
	}
	for _, r := range blk.Rewards {
		b = protowire.AppendTag(b, fBlockRewards, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeReward(r))
	}
	if blk.NumPartitions != nil {
		b = protowire.AppendTag(b, fBlockHasNumPartitions, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fBlockNumPartitions, protowire.VarintType)
		b = protowire.AppendVarint(b, *blk.NumPartitions)
	}
	if blk.BlockTime != nil {
		b = protowire.AppendTag(b, fBlockHasBlockTime, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fBlockBlockTime, protowire.VarintType)
		b = protowire.AppendVarint(b, zigzagEncode(*blk.BlockTime))
	}
	if blk.BlockHeight != nil {
		b = protowire.AppendTag(b, fBlockHasBlockHeight, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fBlockBlockHeight, protowire.VarintType)
		b = protowire.AppendVarint(b, *blk.BlockHeight)
	}
	return b, nil
}

// DecodeConfirmedBlock is the inverse of EncodeConfirmedBlock.
func DecodeConfirmedBlock(data []byte) (ledgertypes.VersionedConfirmedBlock, error) {
	fs, err := consumeFields(data)
	if err != nil {
		return ledgertypes.VersionedConfirmedBlock{}, fmt.Errorf("storagepb: block: %w", err)
	}
	prev, _ := bytesOf(fs[fBlockPreviousBlockhash])
	hash, _ := bytesOf(fs[fBlockBlockhash])
	parentSlot, _ := varintOf(fs[fBlockParentSlot])

	blk := ledgertypes.VersionedConfirmedBlock{
		PreviousBlockhash: string(prev),
		Blockhash:         string(hash),
		ParentSlot:        ledgertypes.Slot(parentSlot),
	}
	for _, f := range fs[fBlockTransactions] {
		tx, err := decodeTxWithMeta(f.buf)
		if err != nil {
			return ledgertypes.VersionedConfirmedBlock{}, err
		}
		blk.Transactions = append(blk.Transactions, tx)
	}
	for _, f := range fs[fBlockRewards] {
		r, err := decodeReward(f.buf)
		if err != nil {
			return ledgertypes.VersionedConfirmedBlock{}, err
		}
		blk.Rewards = append(blk.Rewards, r)
	}
	if boolOf(fs[fBlockHasNumPartitions]) {
		v, _ := varintOf(fs[fBlockNumPartitions])
		blk.NumPartitions = &v
	}
	if boolOf(fs[fBlockHasBlockTime]) {
		v, _ := varintOf(fs[fBlockBlockTime])
		t := zigzagDecode(v)
		blk.BlockTime = &t
	}
	if boolOf(fs[fBlockHasBlockHeight]) {
		v, _ := varintOf(fs[fBlockBlockHeight])
		blk.BlockHeight = &v
	}
	return blk, nil
}

// Field numbers for TxByAddrInfo.
const (
	fAddrInfoSignature protowire.Number = 1
	fAddrInfoHasErr    protowire.Number = 2
	fAddrInfoErr       protowire.Number = 3
	fAddrInfoIndex     protowire.Number = 4
	fAddrInfoHasMemo   protowire.Number = 5
	fAddrInfoMemo      protowire.Number = 6
	fAddrInfoHasBlockTime protowire.Number = 7
	fAddrInfoBlockTime protowire.Number = 8
)

func encodeTxByAddrInfo(i ledgertypes.TxByAddrInfo) []byte {
	var b []byte
	b = protowire.AppendTag(b, fAddrInfoSignature, protowire.BytesType)
	b = protowire.AppendBytes(b, i.Signature[:])
	if i.Err != nil {
		b = protowire.AppendTag(b, fAddrInfoHasErr, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fAddrInfoErr, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeTxError(i.Err))
	}
	b = protowire.AppendTag(b, fAddrInfoIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(i.Index))
	if i.Memo != nil {
		b = protowire.AppendTag(b, fAddrInfoHasMemo, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fAddrInfoMemo, protowire.BytesType)
		b = protowire.AppendString(b, *i.Memo)
	}
	if i.BlockTime != nil {
		b = protowire.AppendTag(b, fAddrInfoHasBlockTime, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fAddrInfoBlockTime, protowire.VarintType)
		b = protowire.AppendVarint(b, zigzagEncode(*i.BlockTime))
	}
	return b
}

func decodeTxByAddrInfo(b []byte) (ledgertypes.TxByAddrInfo, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.TxByAddrInfo{}, fmt.Errorf("storagepb: tx by addr info: %w", err)
	}
	var info ledgertypes.TxByAddrInfo
	if sig, ok := bytesOf(fs[fAddrInfoSignature]); ok {
		copy(info.Signature[:], sig)
	}
	if boolOf(fs[fAddrInfoHasErr]) {
		errBuf, _ := bytesOf(fs[fAddrInfoErr])
		e, err := decodeTxError(errBuf)
		if err != nil {
			return ledgertypes.TxByAddrInfo{}, err
		}
		info.Err = e
	}
	idx, _ := varintOf(fs[fAddrInfoIndex])
	info.Index = uint32(idx)
	if boolOf(fs[fAddrInfoHasMemo]) {
		memo, _ := bytesOf(fs[fAddrInfoMemo])
		s := string(memo)
		info.Memo = &s
	}
	if boolOf(fs[fAddrInfoHasBlockTime]) {
		v, _ := varintOf(fs[fAddrInfoBlockTime])
		t := zigzagDecode(v)
		info.BlockTime = &t
	}
	return info, nil
}

// Field number for the TransactionByAddr container's repeated entries.
const fAddrListInfos protowire.Number = 1

// EncodeTransactionByAddr marshals a per-address index bucket (spec.md §4.1,
// tx-by-addr table cell).
func EncodeTransactionByAddr(infos []ledgertypes.TxByAddrInfo) ([]byte, error) {
	var b []byte
	for _, i := range infos {
		b = protowire.AppendTag(b, fAddrListInfos, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeTxByAddrInfo(i))
	}
	return b, nil
}

// DecodeTransactionByAddr is the inverse of EncodeTransactionByAddr.
func DecodeTransactionByAddr(data []byte) ([]ledgertypes.TxByAddrInfo, error) {
	fs, err := consumeFields(data)
	if err != nil {
		return nil, fmt.Errorf("storagepb: tx by addr: %w", err)
	}
	var out []ledgertypes.TxByAddrInfo
	for _, f := range fs[fAddrListInfos] {
		i, err := decodeTxByAddrInfo(f.buf)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

// Field numbers for ConfirmedTransactionWithStatusMeta (the tx_full cell).
const (
	fFullSlot          protowire.Number = 1
	fFullTx            protowire.Number = 2
	fFullMeta          protowire.Number = 3
	fFullHasBlockTime  protowire.Number = 4
	fFullBlockTime     protowire.Number = 5
)

// EncodeConfirmedTransactionWithStatusMeta marshals a full transaction record
// (spec.md §4.1, tx_full table cell).
func EncodeConfirmedTransactionWithStatusMeta(tx ledgertypes.ConfirmedTransactionWithStatusMeta) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fFullSlot, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(tx.Slot))
	b = protowire.AppendTag(b, fFullTx, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeVersionedTx(tx.Tx))
	b = protowire.AppendTag(b, fFullMeta, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeTxStatusMeta(tx.Meta))
	if tx.BlockTime != nil {
		b = protowire.AppendTag(b, fFullHasBlockTime, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fFullBlockTime, protowire.VarintType)
		b = protowire.AppendVarint(b, zigzagEncode(*tx.BlockTime))
	}
	return b, nil
}

// DecodeConfirmedTransactionWithStatusMeta is the inverse of
// EncodeConfirmedTransactionWithStatusMeta.
func DecodeConfirmedTransactionWithStatusMeta(data []byte) (ledgertypes.ConfirmedTransactionWithStatusMeta, error) {
	fs, err := consumeFields(data)
	if err != nil {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, fmt.Errorf("storagepb: full tx: %w", err)
	}
	slot, _ := varintOf(fs[fFullSlot])
	txBuf, _ := bytesOf(fs[fFullTx])
	tx, err := decodeVersionedTx(txBuf)
	if err != nil {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, err
	}
	metaBuf, _ := bytesOf(fs[fFullMeta])
	meta, err := decodeTxStatusMeta(metaBuf)
	if err != nil {
		return ledgertypes.ConfirmedTransactionWithStatusMeta{}, err
	}
	out := ledgertypes.ConfirmedTransactionWithStatusMeta{
		Slot: ledgertypes.Slot(slot),
		Tx:   tx,
		Meta: meta,
	}
	if boolOf(fs[fFullHasBlockTime]) {
		v, _ := varintOf(fs[fFullBlockTime])
		t := zigzagDecode(v)
		out.BlockTime = &t
	}
	return out, nil
}
