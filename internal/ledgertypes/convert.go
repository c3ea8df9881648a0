// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgertypes

// ToVersionedConfirmedBlock converts a ConfirmedBlock (which may still carry
// MissingMetadata entries) to the upload-ready VersionedConfirmedBlock.
//
// The transaction count must be preserved (spec.md §3): if any entry is
// MissingMetadata, the conversion either synthesizes a default-filled
// TxStatusMeta for it (when synthesizeMissingMeta is true, mirroring the
// ADD_EMPTY_TX_METADATA_IF_MISSING runtime toggle) or fails with
// ErrTransactionsMissing.
func ToVersionedConfirmedBlock(b ConfirmedBlock, synthesizeMissingMeta bool) (VersionedConfirmedBlock, error) {
	out := VersionedConfirmedBlock{
		PreviousBlockhash: b.PreviousBlockhash,
		Blockhash:         b.Blockhash,
		ParentSlot:        b.ParentSlot,
		Rewards:           b.Rewards,
		NumPartitions:     b.NumPartitions,
		BlockTime:         b.BlockTime,
		BlockHeight:       b.BlockHeight,
	}

	before := len(b.Transactions)
	txs := make([]VersionedTxWithMeta, 0, before)
	missing := 0
	for _, twm := range b.Transactions {
		if !twm.IsMissingMetadata() {
			txs = append(txs, VersionedTxWithMeta{Tx: *twm.Tx, Meta: *twm.Meta})
			continue
		}
		missing++
		if !synthesizeMissingMeta {
			continue
		}
		txs = append(txs, VersionedTxWithMeta{
			Tx: VersionedTx{
				Signatures: twm.Legacy.Signatures,
				Message:    VersionedMessage{Version: MessageVersionLegacy, Legacy: &twm.Legacy.Message},
			},
			Meta: defaultTxStatusMeta(),
		})
	}

	if missing > 0 && !synthesizeMissingMeta {
		return VersionedConfirmedBlock{}, NewTransactionsMissing(before, before-missing)
	}
	if len(txs) != before {
		return VersionedConfirmedBlock{}, NewTransactionsMissing(before, len(txs))
	}

	out.Transactions = txs
	return out, nil
}

// defaultTxStatusMeta is the empty-but-present metadata synthesized for
// MissingMetadata entries when ADD_EMPTY_TX_METADATA_IF_MISSING is set.
func defaultTxStatusMeta() TxStatusMeta {
	return TxStatusMeta{
		Err:          nil,
		Fee:          0,
		PreBalances:  nil,
		PostBalances: nil,
	}
}
