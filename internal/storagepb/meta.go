// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package storagepb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// Field numbers for TransactionError.
const fErrMessage protowire.Number = 1

func encodeTxError(e *ledgertypes.TransactionError) []byte {
	if e == nil {
		return nil
	}
	var b []byte
	b = protowire.AppendTag(b, fErrMessage, protowire.BytesType)
	b = protowire.AppendString(b, e.Message)
	return b
}

func decodeTxError(b []byte) (*ledgertypes.TransactionError, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return nil, fmt.Errorf("storagepb: tx error: %w", err)
	}
	msg, _ := bytesOf(fs[fErrMessage])
	return &ledgertypes.TransactionError{Message: string(msg)}, nil
}

// Field numbers for Reward.
const (
	fRewardPubkey      protowire.Number = 1
	fRewardLamports    protowire.Number = 2
	fRewardPostBalance protowire.Number = 3
	fRewardType        protowire.Number = 4
	fRewardCommission  protowire.Number = 5
	fRewardHasCommission protowire.Number = 6
)

func encodeReward(r ledgertypes.Reward) []byte {
	var b []byte
	b = protowire.AppendTag(b, fRewardPubkey, protowire.BytesType)
	b = protowire.AppendString(b, r.Pubkey)
	b = protowire.AppendTag(b, fRewardLamports, protowire.VarintType)
	b = protowire.AppendVarint(b, zigzagEncode(r.Lamports))
	b = protowire.AppendTag(b, fRewardPostBalance, protowire.VarintType)
	b = protowire.AppendVarint(b, r.PostBalance)
	b = protowire.AppendTag(b, fRewardType, protowire.BytesType)
	b = protowire.AppendString(b, r.RewardType)
	if r.Commission != nil {
		b = protowire.AppendTag(b, fRewardHasCommission, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fRewardCommission, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*r.Commission))
	}
	return b
}

func decodeReward(b []byte) (ledgertypes.Reward, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.Reward{}, fmt.Errorf("storagepb: reward: %w", err)
	}
	pubkey, _ := bytesOf(fs[fRewardPubkey])
	lamports, _ := varintOf(fs[fRewardLamports])
	postBalance, _ := varintOf(fs[fRewardPostBalance])
	rewardType, _ := bytesOf(fs[fRewardType])
	r := ledgertypes.Reward{
		Pubkey:      string(pubkey),
		Lamports:    zigzagDecode(lamports),
		PostBalance: postBalance,
		RewardType:  string(rewardType),
	}
	if boolOf(fs[fRewardHasCommission]) {
		c, _ := varintOf(fs[fRewardCommission])
		v := uint8(c)
		r.Commission = &v
	}
	return r, nil
}

// Field numbers for TokenBalance.
const (
	fTokBalAccountIndex protowire.Number = 1
	fTokBalMint         protowire.Number = 2
	fTokBalOwner        protowire.Number = 3
	fTokBalUIAmount     protowire.Number = 4
	fTokBalDecimals     protowire.Number = 5
)

func encodeTokenBalance(t ledgertypes.TokenBalance) []byte {
	var b []byte
	b = protowire.AppendTag(b, fTokBalAccountIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.AccountIndex))
	b = protowire.AppendTag(b, fTokBalMint, protowire.BytesType)
	b = protowire.AppendString(b, t.Mint)
	b = protowire.AppendTag(b, fTokBalOwner, protowire.BytesType)
	b = protowire.AppendString(b, t.Owner)
	b = protowire.AppendTag(b, fTokBalUIAmount, protowire.BytesType)
	b = protowire.AppendString(b, t.UITokenAmount)
	b = protowire.AppendTag(b, fTokBalDecimals, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.Decimals))
	return b
}

func decodeTokenBalance(b []byte) (ledgertypes.TokenBalance, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.TokenBalance{}, fmt.Errorf("storagepb: token balance: %w", err)
	}
	idx, _ := varintOf(fs[fTokBalAccountIndex])
	mint, _ := bytesOf(fs[fTokBalMint])
	owner, _ := bytesOf(fs[fTokBalOwner])
	amount, _ := bytesOf(fs[fTokBalUIAmount])
	decimals, _ := varintOf(fs[fTokBalDecimals])
	return ledgertypes.TokenBalance{
		AccountIndex:  uint8(idx),
		Mint:          string(mint),
		Owner:         string(owner),
		UITokenAmount: string(amount),
		Decimals:      uint8(decimals),
	}, nil
}

// Field numbers for InnerInstruction.
const (
	fInnerIndex        protowire.Number = 1
	fInnerInstructions protowire.Number = 2
)

func encodeInnerInstruction(i ledgertypes.InnerInstruction) []byte {
	var b []byte
	b = protowire.AppendTag(b, fInnerIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(i.Index))
	for _, ins := range i.Instructions {
		b = protowire.AppendTag(b, fInnerInstructions, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeInstruction(ins))
	}
	return b
}

func decodeInnerInstruction(b []byte) (ledgertypes.InnerInstruction, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.InnerInstruction{}, fmt.Errorf("storagepb: inner instruction: %w", err)
	}
	idx, _ := varintOf(fs[fInnerIndex])
	var instructions []ledgertypes.CompiledInstruction
	for _, f := range fs[fInnerInstructions] {
		ins, err := decodeInstruction(f.buf)
		if err != nil {
			return ledgertypes.InnerInstruction{}, err
		}
		instructions = append(instructions, ins)
	}
	return ledgertypes.InnerInstruction{Index: uint8(idx), Instructions: instructions}, nil
}

// Field numbers for TxStatusMeta.
const (
	fMetaHasErr              protowire.Number = 1
	fMetaErr                 protowire.Number = 2
	fMetaFee                 protowire.Number = 3
	fMetaPreBalances         protowire.Number = 4
	fMetaPostBalances        protowire.Number = 5
	fMetaHasInner            protowire.Number = 6
	fMetaInner               protowire.Number = 7
	fMetaHasLogMessages      protowire.Number = 8
	fMetaLogMessages         protowire.Number = 9
	fMetaHasTokenBalances    protowire.Number = 10
	fMetaPreTokenBalances    protowire.Number = 11
	fMetaPostTokenBalances   protowire.Number = 12
	fMetaHasRewards          protowire.Number = 13
	fMetaRewards             protowire.Number = 14
	fMetaLoadedWritable      protowire.Number = 15
	fMetaLoadedReadonly      protowire.Number = 16
	fMetaHasReturnData       protowire.Number = 17
	fMetaReturnDataProgramID protowire.Number = 18
	fMetaReturnDataData      protowire.Number = 19
	fMetaHasComputeUnits     protowire.Number = 20
	fMetaComputeUnits        protowire.Number = 21
)

func encodeTxStatusMeta(m ledgertypes.TxStatusMeta) []byte {
	var b []byte
	if m.Err != nil {
		b = protowire.AppendTag(b, fMetaHasErr, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fMetaErr, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeTxError(m.Err))
	}
	b = protowire.AppendTag(b, fMetaFee, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Fee)
	for _, v := range m.PreBalances {
		b = protowire.AppendTag(b, fMetaPreBalances, protowire.VarintType)
		b = protowire.AppendVarint(b, v)
	}
	for _, v := range m.PostBalances {
		b = protowire.AppendTag(b, fMetaPostBalances, protowire.VarintType)
		b = protowire.AppendVarint(b, v)
	}
	if m.HasInnerInstructions {
		b = protowire.AppendTag(b, fMetaHasInner, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		for _, i := range m.InnerInstructions {
			b = protowire.AppendTag(b, fMetaInner, protowire.BytesType)
			b = protowire.AppendBytes(b, encodeInnerInstruction(i))
		}
	}
	if m.HasLogMessages {
		b = protowire.AppendTag(b, fMetaHasLogMessages, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		for _, s := range m.LogMessages {
			b = protowire.AppendTag(b, fMetaLogMessages, protowire.BytesType)
			b = protowire.AppendString(b, s)
		}
	}
	if m.HasTokenBalances {
		b = protowire.AppendTag(b, fMetaHasTokenBalances, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		for _, t := range m.PreTokenBalances {
			b = protowire.AppendTag(b, fMetaPreTokenBalances, protowire.BytesType)
			b = protowire.AppendBytes(b, encodeTokenBalance(t))
		}
		for _, t := range m.PostTokenBalances {
			b = protowire.AppendTag(b, fMetaPostTokenBalances, protowire.BytesType)
			b = protowire.AppendBytes(b, encodeTokenBalance(t))
		}
	}
	if m.HasRewards {
		b = protowire.AppendTag(b, fMetaHasRewards, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		for _, r := range m.Rewards {
			b = protowire.AppendTag(b, fMetaRewards, protowire.BytesType)
			b = protowire.AppendBytes(b, encodeReward(r))
		}
	}
	for _, k := range m.LoadedAddresses.Writable {
		b = protowire.AppendTag(b, fMetaLoadedWritable, protowire.BytesType)
		b = protowire.AppendBytes(b, k[:])
	}
	for _, k := range m.LoadedAddresses.Readonly {
		b = protowire.AppendTag(b, fMetaLoadedReadonly, protowire.BytesType)
		b = protowire.AppendBytes(b, k[:])
	}
	if m.ReturnData != nil {
		b = protowire.AppendTag(b, fMetaHasReturnData, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fMetaReturnDataProgramID, protowire.BytesType)
		b = protowire.AppendBytes(b, m.ReturnData.ProgramID[:])
		b = protowire.AppendTag(b, fMetaReturnDataData, protowire.BytesType)
		b = protowire.AppendBytes(b, m.ReturnData.Data)
	}
	if m.ComputeUnitsConsumed != nil {
		b = protowire.AppendTag(b, fMetaHasComputeUnits, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
		b = protowire.AppendTag(b, fMetaComputeUnits, protowire.VarintType)
		b = protowire.AppendVarint(b, *m.ComputeUnitsConsumed)
	}
	return b
}

func decodeTxStatusMeta(b []byte) (ledgertypes.TxStatusMeta, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.TxStatusMeta{}, fmt.Errorf("storagepb: meta: %w", err)
	}
	var m ledgertypes.TxStatusMeta

	if boolOf(fs[fMetaHasErr]) {
		errBuf, _ := bytesOf(fs[fMetaErr])
		e, err := decodeTxError(errBuf)
		if err != nil {
			return ledgertypes.TxStatusMeta{}, err
		}
		m.Err = e
	}
	m.Fee, _ = varintOf(fs[fMetaFee])
	m.PreBalances = u64SliceOf(fs[fMetaPreBalances])
	m.PostBalances = u64SliceOf(fs[fMetaPostBalances])

	if boolOf(fs[fMetaHasInner]) {
		m.HasInnerInstructions = true
		for _, f := range fs[fMetaInner] {
			i, err := decodeInnerInstruction(f.buf)
			if err != nil {
				return ledgertypes.TxStatusMeta{}, err
			}
			m.InnerInstructions = append(m.InnerInstructions, i)
		}
	}
	if boolOf(fs[fMetaHasLogMessages]) {
		m.HasLogMessages = true
		m.LogMessages = stringsOf(fs[fMetaLogMessages])
	}
	if boolOf(fs[fMetaHasTokenBalances]) {
		m.HasTokenBalances = true
		for _, f := range fs[fMetaPreTokenBalances] {
			t, err := decodeTokenBalance(f.buf)
			if err != nil {
				return ledgertypes.TxStatusMeta{}, err
			}
			m.PreTokenBalances = append(m.PreTokenBalances, t)
		}
		for _, f := range fs[fMetaPostTokenBalances] {
			t, err := decodeTokenBalance(f.buf)
			if err != nil {
				return ledgertypes.TxStatusMeta{}, err
			}
			m.PostTokenBalances = append(m.PostTokenBalances, t)
		}
	}
	if boolOf(fs[fMetaHasRewards]) {
		m.HasRewards = true
		for _, f := range fs[fMetaRewards] {
			r, err := decodeReward(f.buf)
			if err != nil {
				return ledgertypes.TxStatusMeta{}, err
			}
			m.Rewards = append(m.Rewards, r)
		}
	}
	for _, f := range fs[fMetaLoadedWritable] {
		var pk ledgertypes.PublicKey
		copy(pk[:], f.buf)
		m.LoadedAddresses.Writable = append(m.LoadedAddresses.Writable, pk)
	}
	for _, f := range fs[fMetaLoadedReadonly] {
		var pk ledgertypes.PublicKey
		copy(pk[:], f.buf)
		m.LoadedAddresses.Readonly = append(m.LoadedAddresses.Readonly, pk)
	}
	if boolOf(fs[fMetaHasReturnData]) {
		var pk ledgertypes.PublicKey
		if v, ok := bytesOf(fs[fMetaReturnDataProgramID]); ok {
			copy(pk[:], v)
		}
		data, _ := bytesOf(fs[fMetaReturnDataData])
		m.ReturnData = &ledgertypes.ReturnData{ProgramID: pk, Data: data}
	}
	if boolOf(fs[fMetaHasComputeUnits]) {
		v, _ := varintOf(fs[fMetaComputeUnits])
		m.ComputeUnitsConsumed = &v
	}
	return m, nil
}
