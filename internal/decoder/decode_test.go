// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package decoder

import (
	"encoding/base64"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

func sampleWireTx(t *testing.T, versioned bool) ([]byte, ledgertypes.VersionedTx) {
	t.Helper()
	var pk ledgertypes.PublicKey
	pk[0] = 7
	var sig ledgertypes.Signature
	sig[0] = 1

	msg := ledgertypes.VersionedMessage{Version: ledgertypes.MessageVersionLegacy}
	legacy := &ledgertypes.Message{
		Header:          ledgertypes.MessageHeader{NumRequiredSignatures: 1},
		AccountKeys:     []ledgertypes.PublicKey{pk},
		RecentBlockhash: ledgertypes.Hash{1, 2, 3},
		Instructions: []ledgertypes.CompiledInstruction{
			{ProgramIDIndex: 0, Accounts: []uint8{0}, Data: []byte{9, 9}},
		},
	}
	msg.Legacy = legacy

	if versioned {
		msg = ledgertypes.VersionedMessage{
			Version: ledgertypes.MessageVersionV0,
			V0: &ledgertypes.MessageV0{
				Header:          legacy.Header,
				AccountKeys:     legacy.AccountKeys,
				RecentBlockhash: legacy.RecentBlockhash,
				Instructions:    legacy.Instructions,
				AddressTableLookups: []ledgertypes.MessageAddressTableLookup{
					{AccountKey: pk, WritableIndexes: []uint8{0}, ReadonlyIndexes: []uint8{}},
				},
			},
		}
	}

	tx := ledgertypes.VersionedTx{Signatures: []ledgertypes.Signature{sig}, Message: msg}
	wire, err := EncodeVersionedTransactionWire(tx)
	require.NoError(t, err)
	return wire, tx
}

func TestLegacyBinaryRoundTrip(t *testing.T) {
	wire, want := sampleWireTx(t, false)
	enc := ledgertypes.EncodedTransaction{Encoding: ledgertypes.EncodingLegacyBinary, Binary: base58.Encode(wire)}
	got, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.Equal(t, want.Signatures, got.Signatures)
	require.True(t, got.Message.IsLegacy())
}

func TestBinaryBase64RoundTrip(t *testing.T) {
	wire, _ := sampleWireTx(t, true)
	enc := ledgertypes.EncodedTransaction{
		Encoding:       ledgertypes.EncodingBinary,
		BinaryEncoding: ledgertypes.Base64,
		Binary:         base64.StdEncoding.EncodeToString(wire),
	}
	got, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.False(t, got.Message.IsLegacy())
	require.Len(t, got.Message.V0.AddressTableLookups, 1)
}

func TestJSONParsedRejected(t *testing.T) {
	enc := ledgertypes.EncodedTransaction{Encoding: ledgertypes.EncodingJSONParsed}
	_, err := DecodeTransaction(enc)
	require.ErrorIs(t, err, ledgertypes.ErrUnsupportedEncoding)
}

func TestAccountsFormRejected(t *testing.T) {
	enc := ledgertypes.EncodedTransaction{Encoding: ledgertypes.EncodingAccounts}
	_, err := DecodeTransaction(enc)
	require.ErrorIs(t, err, ledgertypes.ErrUnsupportedEncoding)
}

func TestJSONLegacyMessage(t *testing.T) {
	var pk ledgertypes.PublicKey
	pk[1] = 5
	var sig ledgertypes.Signature
	sig[2] = 9

	ui := ledgertypes.UiTransaction{
		Signatures: []string{sig.String()},
		Message: ledgertypes.UiMessage{
			Header:          ledgertypes.MessageHeader{NumRequiredSignatures: 1},
			AccountKeys:     []string{pk.String()},
			RecentBlockhash: ledgertypes.Hash{4, 5, 6}.String(),
			Instructions: []ledgertypes.UiCompiledInstruction{
				{ProgramIDIndex: 0, Accounts: []uint8{0}, Data: base58.Encode([]byte{1, 2})},
			},
		},
	}
	enc := ledgertypes.EncodedTransaction{Encoding: ledgertypes.EncodingJSON, JSON: &ui}
	got, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.True(t, got.Message.IsLegacy())
	require.Equal(t, sig, got.Signatures[0])
	require.Equal(t, pk, got.Message.Legacy.AccountKeys[0])
}

func TestJSONUnsupportedVersionRejected(t *testing.T) {
	v := 5
	ui := ledgertypes.UiTransaction{Message: ledgertypes.UiMessage{Version: &v}}
	enc := ledgertypes.EncodedTransaction{Encoding: ledgertypes.EncodingJSON, JSON: &ui}
	_, err := DecodeTransaction(enc)
	require.ErrorIs(t, err, ledgertypes.ErrUnsupportedVersion)
}

func TestDecodeBlockMissingMetadataBecomesLegacyVariant(t *testing.T) {
	wire, _ := sampleWireTx(t, false)
	enc := ledgertypes.EncodedConfirmedBlock{
		PreviousBlockhash: "prev",
		Blockhash:         "cur",
		ParentSlot:        10,
		Transactions: []ledgertypes.EncodedTransactionWithStatusMeta{
			{Transaction: ledgertypes.EncodedTransaction{Encoding: ledgertypes.EncodingLegacyBinary, Binary: base58.Encode(wire)}},
		},
	}
	blk, err := DecodeBlock(enc)
	require.NoError(t, err)
	require.Len(t, blk.Transactions, 1)
	require.True(t, blk.Transactions[0].IsMissingMetadata())
}

func TestDecodeBlockWithMeta(t *testing.T) {
	wire, _ := sampleWireTx(t, false)
	meta := ledgertypes.TxStatusMeta{Fee: 10}
	enc := ledgertypes.EncodedConfirmedBlock{
		Transactions: []ledgertypes.EncodedTransactionWithStatusMeta{
			{Transaction: ledgertypes.EncodedTransaction{Encoding: ledgertypes.EncodingLegacyBinary, Binary: base58.Encode(wire)}, Meta: &meta},
		},
	}
	blk, err := DecodeBlock(enc)
	require.NoError(t, err)
	require.False(t, blk.Transactions[0].IsMissingMetadata())
	require.Equal(t, uint64(10), blk.Transactions[0].Meta.Fee)
}

func TestVersionedMessageRejectsOffchainVersion(t *testing.T) {
	_, _, err := ledgertypes.DetectMessageVersion(0xFF)
	require.ErrorIs(t, err, ledgertypes.ErrUnsupportedVersion)
}
