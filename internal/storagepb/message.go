// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package storagepb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// Field numbers for MessageHeader.
const (
	fHeaderNumRequiredSignatures       protowire.Number = 1
	fHeaderNumReadonlySigned           protowire.Number = 2
	fHeaderNumReadonlyUnsigned         protowire.Number = 3
)

func encodeHeader(h ledgertypes.MessageHeader) []byte {
	var b []byte
	b = protowire.AppendTag(b, fHeaderNumRequiredSignatures, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.NumRequiredSignatures))
	b = protowire.AppendTag(b, fHeaderNumReadonlySigned, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.NumReadonlySignedAccounts))
	b = protowire.AppendTag(b, fHeaderNumReadonlyUnsigned, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.NumReadonlyUnsignedAccounts))
	return b
}

func decodeHeader(b []byte) (ledgertypes.MessageHeader, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.MessageHeader{}, fmt.Errorf("storagepb: header: %w", err)
	}
	req, _ := varintOf(fs[fHeaderNumRequiredSignatures])
	rs, _ := varintOf(fs[fHeaderNumReadonlySigned])
	ru, _ := varintOf(fs[fHeaderNumReadonlyUnsigned])
	return ledgertypes.MessageHeader{
		NumRequiredSignatures:       uint8(req),
		NumReadonlySignedAccounts:   uint8(rs),
		NumReadonlyUnsignedAccounts: uint8(ru),
	}, nil
}

// Field numbers for CompiledInstruction.
const (
	fInstrProgramIDIndex protowire.Number = 1
	fInstrAccounts       protowire.Number = 2
	fInstrData           protowire.Number = 3
)

func encodeInstruction(ins ledgertypes.CompiledInstruction) []byte {
	var b []byte
	b = protowire.AppendTag(b, fInstrProgramIDIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ins.ProgramIDIndex))
	b = protowire.AppendTag(b, fInstrAccounts, protowire.BytesType)
	b = protowire.AppendBytes(b, ins.Accounts)
	b = protowire.AppendTag(b, fInstrData, protowire.BytesType)
	b = protowire.AppendBytes(b, ins.Data)
	return b
}

func decodeInstruction(b []byte) (ledgertypes.CompiledInstruction, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.CompiledInstruction{}, fmt.Errorf("storagepb: instruction: %w", err)
	}
	idx, _ := varintOf(fs[fInstrProgramIDIndex])
	accounts, _ := bytesOf(fs[fInstrAccounts])
	data, _ := bytesOf(fs[fInstrData])
	return ledgertypes.CompiledInstruction{
		ProgramIDIndex: uint8(idx),
		Accounts:       append([]uint8{}, accounts...),
		Data:           data,
	}, nil
}

// Field numbers for MessageAddressTableLookup.
const (
	fLookupAccountKey      protowire.Number = 1
	fLookupWritableIndexes protowire.Number = 2
	fLookupReadonlyIndexes protowire.Number = 3
)

func encodeLookup(l ledgertypes.MessageAddressTableLookup) []byte {
	var b []byte
	b = protowire.AppendTag(b, fLookupAccountKey, protowire.BytesType)
	b = protowire.AppendBytes(b, l.AccountKey[:])
	b = protowire.AppendTag(b, fLookupWritableIndexes, protowire.BytesType)
	b = protowire.AppendBytes(b, l.WritableIndexes)
	b = protowire.AppendTag(b, fLookupReadonlyIndexes, protowire.BytesType)
	b = protowire.AppendBytes(b, l.ReadonlyIndexes)
	return b
}

func decodeLookup(b []byte) (ledgertypes.MessageAddressTableLookup, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.MessageAddressTableLookup{}, fmt.Errorf("storagepb: lookup: %w", err)
	}
	key, _ := bytesOf(fs[fLookupAccountKey])
	var pk ledgertypes.PublicKey
	copy(pk[:], key)
	w, _ := bytesOf(fs[fLookupWritableIndexes])
	r, _ := bytesOf(fs[fLookupReadonlyIndexes])
	return ledgertypes.MessageAddressTableLookup{
		AccountKey:      pk,
		WritableIndexes: append([]uint8{}, w...),
		ReadonlyIndexes: append([]uint8{}, r...),
	}, nil
}

// Field numbers for VersionedMessage.
const (
	fMsgIsV0             protowire.Number = 1
	fMsgHeader           protowire.Number = 2
	fMsgAccountKeys      protowire.Number = 3
	fMsgRecentBlockhash  protowire.Number = 4
	fMsgInstructions     protowire.Number = 5
	fMsgAddressLookups   protowire.Number = 6
)

func encodeVersionedMessage(m ledgertypes.VersionedMessage) []byte {
	var b []byte
	b = protowire.AppendTag(b, fMsgIsV0, protowire.VarintType)
	isV0 := uint64(0)
	if !m.IsLegacy() {
		isV0 = 1
	}
	b = protowire.AppendVarint(b, isV0)

	b = protowire.AppendTag(b, fMsgHeader, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeHeader(m.Header()))

	for _, k := range m.StaticAccountKeys() {
		b = protowire.AppendTag(b, fMsgAccountKeys, protowire.BytesType)
		b = protowire.AppendBytes(b, k[:])
	}

	rb := m.RecentBlockhash()
	b = protowire.AppendTag(b, fMsgRecentBlockhash, protowire.BytesType)
	b = protowire.AppendBytes(b, rb[:])

	for _, ins := range m.Instructions() {
		b = protowire.AppendTag(b, fMsgInstructions, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeInstruction(ins))
	}

	for _, l := range m.AddressTableLookups() {
		b = protowire.AppendTag(b, fMsgAddressLookups, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeLookup(l))
	}

	return b
}

func decodeVersionedMessage(b []byte) (ledgertypes.VersionedMessage, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.VersionedMessage{}, fmt.Errorf("storagepb: message: %w", err)
	}

	headerBuf, _ := bytesOf(fs[fMsgHeader])
	header, err := decodeHeader(headerBuf)
	if err != nil {
		return ledgertypes.VersionedMessage{}, err
	}

	var keys []ledgertypes.PublicKey
	for _, f := range fs[fMsgAccountKeys] {
		var pk ledgertypes.PublicKey
		copy(pk[:], f.buf)
		keys = append(keys, pk)
	}

	var recentBlockhash ledgertypes.Hash
	if rb, ok := bytesOf(fs[fMsgRecentBlockhash]); ok {
		copy(recentBlockhash[:], rb)
	}

	var instructions []ledgertypes.CompiledInstruction
	for _, f := range fs[fMsgInstructions] {
		ins, err := decodeInstruction(f.buf)
		if err != nil {
			return ledgertypes.VersionedMessage{}, err
		}
		instructions = append(instructions, ins)
	}

	isV0 := boolOf(fs[fMsgIsV0])
	if !isV0 {
		return ledgertypes.VersionedMessage{
			Version: ledgertypes.MessageVersionLegacy,
			Legacy: &ledgertypes.Message{
				Header:          header,
				AccountKeys:     keys,
				RecentBlockhash: recentBlockhash,
				Instructions:    instructions,
			},
		}, nil
	}

	var lookups []ledgertypes.MessageAddressTableLookup
	for _, f := range fs[fMsgAddressLookups] {
		l, err := decodeLookup(f.buf)
		if err != nil {
			return ledgertypes.VersionedMessage{}, err
		}
		lookups = append(lookups, l)
	}

	return ledgertypes.VersionedMessage{
		Version: ledgertypes.MessageVersionV0,
		V0: &ledgertypes.MessageV0{
			Header:              header,
			AccountKeys:          keys,
			RecentBlockhash:      recentBlockhash,
			Instructions:         instructions,
			AddressTableLookups:  lookups,
		},
	}, nil
}

// Field numbers for VersionedTx.
const (
	fTxSignatures protowire.Number = 1
	fTxMessage    protowire.Number = 2
)

func encodeVersionedTx(tx ledgertypes.VersionedTx) []byte {
	var b []byte
	for _, sig := range tx.Signatures {
		b = protowire.AppendTag(b, fTxSignatures, protowire.BytesType)
		b = protowire.AppendBytes(b, sig[:])
	}
	b = protowire.AppendTag(b, fTxMessage, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeVersionedMessage(tx.Message))
	return b
}

func decodeVersionedTx(b []byte) (ledgertypes.VersionedTx, error) {
	fs, err := consumeFields(b)
	if err != nil {
		return ledgertypes.VersionedTx{}, fmt.Errorf("storagepb: tx: %w", err)
	}
	var sigs []ledgertypes.Signature
	for _, f := range fs[fTxSignatures] {
		var sig ledgertypes.Signature
		copy(sig[:], f.buf)
		sigs = append(sigs, sig)
	}
	msgBuf, _ := bytesOf(fs[fTxMessage])
	msg, err := decodeVersionedMessage(msgBuf)
	if err != nil {
		return ledgertypes.VersionedTx{}, err
	}
	return ledgertypes.VersionedTx{Signatures: sigs, Message: msg}, nil
}
