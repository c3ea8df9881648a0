// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package decoder

import (
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// DecodeTransaction converts one externally encoded transaction into the
// canonical VersionedTx (spec.md §4.3, "Transaction decoding").
func DecodeTransaction(enc ledgertypes.EncodedTransaction) (ledgertypes.VersionedTx, error) {
	switch enc.Encoding {
	case ledgertypes.EncodingLegacyBinary:
		raw, err := base58.Decode(enc.Binary)
		if err != nil {
			return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: legacy-binary base58: %w", err)
		}
		return DecodeVersionedTransactionWire(raw)

	case ledgertypes.EncodingBinary:
		var raw []byte
		var err error
		switch enc.BinaryEncoding {
		case ledgertypes.Base58:
			raw, err = base58.Decode(enc.Binary)
		case ledgertypes.Base64:
			raw, err = base64.StdEncoding.DecodeString(enc.Binary)
		default:
			return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: unknown binary encoding %d: %w", enc.BinaryEncoding, ledgertypes.ErrUnsupportedEncoding)
		}
		if err != nil {
			return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: binary decode: %w", err)
		}
		return DecodeVersionedTransactionWire(raw)

	case ledgertypes.EncodingJSON:
		if enc.JSON == nil {
			return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: json encoding with no payload")
		}
		return decodeUiTransaction(*enc.JSON)

	case ledgertypes.EncodingJSONParsed:
		return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: parsed-form transactions are lossy: %w", ledgertypes.ErrUnsupportedEncoding)

	case ledgertypes.EncodingAccounts:
		return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: accounts-form transactions: %w", ledgertypes.ErrUnsupportedEncoding)

	default:
		return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: unknown transaction encoding %d: %w", enc.Encoding, ledgertypes.ErrUnsupportedEncoding)
	}
}

func decodeUiTransaction(ui ledgertypes.UiTransaction) (ledgertypes.VersionedTx, error) {
	var sigs []ledgertypes.Signature
	for _, s := range ui.Signatures {
		sig, err := ledgertypes.ParseSignature(s)
		if err != nil {
			return ledgertypes.VersionedTx{}, err
		}
		sigs = append(sigs, sig)
	}

	msg, err := decodeUiMessage(ui.Message)
	if err != nil {
		return ledgertypes.VersionedTx{}, err
	}
	return ledgertypes.VersionedTx{Signatures: sigs, Message: msg}, nil
}

func decodeUiMessage(ui ledgertypes.UiMessage) (ledgertypes.VersionedMessage, error) {
	if ui.Version != nil && *ui.Version != 0 {
		return ledgertypes.VersionedMessage{}, fmt.Errorf("unsupported message version %d: %w", *ui.Version, ledgertypes.ErrUnsupportedVersion)
	}

	keys := make([]ledgertypes.PublicKey, 0, len(ui.AccountKeys))
	for _, s := range ui.AccountKeys {
		k, err := ledgertypes.ParsePublicKey(s)
		if err != nil {
			return ledgertypes.VersionedMessage{}, err
		}
		keys = append(keys, k)
	}

	blockhash, err := ledgertypes.ParseHash(ui.RecentBlockhash)
	if err != nil {
		return ledgertypes.VersionedMessage{}, err
	}

	instructions := make([]ledgertypes.CompiledInstruction, 0, len(ui.Instructions))
	for _, i := range ui.Instructions {
		data, err := base58.Decode(i.Data)
		if err != nil {
			return ledgertypes.VersionedMessage{}, fmt.Errorf("decoder: instruction data base58: %w", err)
		}
		instructions = append(instructions, ledgertypes.CompiledInstruction{
			ProgramIDIndex: i.ProgramIDIndex,
			Accounts:       i.Accounts,
			Data:           data,
		})
	}

	if ui.Version == nil {
		return ledgertypes.VersionedMessage{
			Version: ledgertypes.MessageVersionLegacy,
			Legacy: &ledgertypes.Message{
				Header:          ui.Header,
				AccountKeys:     keys,
				RecentBlockhash: blockhash,
				Instructions:    instructions,
			},
		}, nil
	}

	lookups := make([]ledgertypes.MessageAddressTableLookup, 0, len(ui.AddressTableLookups))
	for _, l := range ui.AddressTableLookups {
		k, err := ledgertypes.ParsePublicKey(l.AccountKey)
		if err != nil {
			return ledgertypes.VersionedMessage{}, err
		}
		lookups = append(lookups, ledgertypes.MessageAddressTableLookup{
			AccountKey:      k,
			WritableIndexes: l.WritableIndexes,
			ReadonlyIndexes: l.ReadonlyIndexes,
		})
	}

	return ledgertypes.VersionedMessage{
		Version: ledgertypes.MessageVersionV0,
		V0: &ledgertypes.MessageV0{
			Header:              ui.Header,
			AccountKeys:         keys,
			RecentBlockhash:     blockhash,
			Instructions:        instructions,
			AddressTableLookups: lookups,
		},
	}, nil
}

// DecodeBlock converts an EncodedConfirmedBlock into the canonical
// ConfirmedBlock: each transaction is mapped through DecodeTransaction, and
// entries with no metadata become the MissingMetadata variant holding only
// the legacy transaction (spec.md §4.3, "Block decoding").
func DecodeBlock(enc ledgertypes.EncodedConfirmedBlock) (ledgertypes.ConfirmedBlock, error) {
	blk := ledgertypes.ConfirmedBlock{
		PreviousBlockhash: enc.PreviousBlockhash,
		Blockhash:         enc.Blockhash,
		ParentSlot:        enc.ParentSlot,
		Rewards:           enc.Rewards,
		NumPartitions:     enc.NumPartitions,
		BlockTime:         enc.BlockTime,
		BlockHeight:       enc.BlockHeight,
	}

	for i, entry := range enc.Transactions {
		tx, err := DecodeTransaction(entry.Transaction)
		if err != nil {
			return ledgertypes.ConfirmedBlock{}, fmt.Errorf("decoder: block: transaction %d: %w", i, err)
		}

		if entry.Meta == nil {
			if !tx.Message.IsLegacy() {
				return ledgertypes.ConfirmedBlock{}, fmt.Errorf("decoder: block: transaction %d is missing metadata but carries a versioned message: %w", i, ledgertypes.ErrUnsupportedEncoding)
			}
			blk.Transactions = append(blk.Transactions, ledgertypes.TxWithMeta{
				Legacy: &ledgertypes.LegacyTransaction{
					Signatures: tx.Signatures,
					Message:    *tx.Message.Legacy,
				},
			})
			continue
		}

		meta := *entry.Meta
		blk.Transactions = append(blk.Transactions, ledgertypes.TxWithMeta{
			Tx:   &tx,
			Meta: &meta,
		})
	}

	return blk, nil
}
