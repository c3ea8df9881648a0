// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package legacybincode

import (
	"fmt"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// EncodeTxInfo bincode-encodes the compact signature->(slot,index,err)
// pointer row (spec.md §4.1 tx table, legacy rows), grounded on
// original_source/storage-utils/src/tx_info.rs.
func EncodeTxInfo(info ledgertypes.TxInfo) []byte {
	w := &writer{}
	w.u64(uint64(info.Slot))
	w.u32(info.Index)
	w.optionPresent(info.Err != nil)
	if info.Err != nil {
		w.str(info.Err.Message)
	}
	return w.bytes()
}

// DecodeTxInfo is the inverse of EncodeTxInfo.
func DecodeTxInfo(b []byte) (ledgertypes.TxInfo, error) {
	r := newReader(b)
	slot, err := r.u64()
	if err != nil {
		return ledgertypes.TxInfo{}, fmt.Errorf("legacybincode: tx info: %w", err)
	}
	idx, err := r.u32()
	if err != nil {
		return ledgertypes.TxInfo{}, fmt.Errorf("legacybincode: tx info: %w", err)
	}
	hasErr, err := r.optionPresent()
	if err != nil {
		return ledgertypes.TxInfo{}, fmt.Errorf("legacybincode: tx info: %w", err)
	}
	info := ledgertypes.TxInfo{Slot: ledgertypes.Slot(slot), Index: idx}
	if hasErr {
		msg, err := r.str()
		if err != nil {
			return ledgertypes.TxInfo{}, fmt.Errorf("legacybincode: tx info: %w", err)
		}
		info.Err = &ledgertypes.TransactionError{Message: msg}
	}
	return info, nil
}

// EncodeLegacyTxByAddrInfo bincode-encodes one tx-by-addr bucket entry.
// Legacy rows carry no block_time field at all (it did not exist yet):
// grounded on original_source/storage-reader/src/tx_by_addr_info.rs, whose
// From<LegacyTransactionByAddrInfo> impl always sets block_time to None.
func EncodeLegacyTxByAddrInfo(info ledgertypes.TxByAddrInfo) []byte {
	w := &writer{}
	w.bytesWithLen(info.Signature[:])
	w.optionPresent(info.Err != nil)
	if info.Err != nil {
		w.str(info.Err.Message)
	}
	w.u32(info.Index)
	w.optionPresent(info.Memo != nil)
	if info.Memo != nil {
		w.str(*info.Memo)
	}
	return w.bytes()
}

// DecodeLegacyTxByAddrInfo is the inverse of EncodeLegacyTxByAddrInfo.
// BlockTime is always nil on the decoded value: legacy rows never carried it.
func DecodeLegacyTxByAddrInfo(b []byte) (ledgertypes.TxByAddrInfo, error) {
	r := newReader(b)
	sigBytes, err := r.bytesWithLen()
	if err != nil {
		return ledgertypes.TxByAddrInfo{}, fmt.Errorf("legacybincode: tx by addr: %w", err)
	}
	var info ledgertypes.TxByAddrInfo
	copy(info.Signature[:], sigBytes)

	hasErr, err := r.optionPresent()
	if err != nil {
		return ledgertypes.TxByAddrInfo{}, fmt.Errorf("legacybincode: tx by addr: %w", err)
	}
	if hasErr {
		msg, err := r.str()
		if err != nil {
			return ledgertypes.TxByAddrInfo{}, fmt.Errorf("legacybincode: tx by addr: %w", err)
		}
		info.Err = &ledgertypes.TransactionError{Message: msg}
	}

	idx, err := r.u32()
	if err != nil {
		return ledgertypes.TxByAddrInfo{}, fmt.Errorf("legacybincode: tx by addr: %w", err)
	}
	info.Index = idx

	hasMemo, err := r.optionPresent()
	if err != nil {
		return ledgertypes.TxByAddrInfo{}, fmt.Errorf("legacybincode: tx by addr: %w", err)
	}
	if hasMemo {
		memo, err := r.str()
		if err != nil {
			return ledgertypes.TxByAddrInfo{}, fmt.Errorf("legacybincode: tx by addr: %w", err)
		}
		info.Memo = &memo
	}
	return info, nil
}

// EncodeLegacyTxByAddrList bincode-encodes a tx-by-addr bucket row (a
// length-prefixed Vec<LegacyTransactionByAddrInfo>), the legacy x:bin cell
// format tolerated alongside x:proto (spec.md §4.1 "Mixed rows ... reader
// prefers x:proto").
func EncodeLegacyTxByAddrList(infos []ledgertypes.TxByAddrInfo) []byte {
	w := &writer{}
	w.u64(uint64(len(infos)))
	for _, info := range infos {
		w.buf.Write(EncodeLegacyTxByAddrInfo(info))
	}
	return w.bytes()
}

// DecodeLegacyTxByAddrList is the inverse of EncodeLegacyTxByAddrList.
func DecodeLegacyTxByAddrList(b []byte) ([]ledgertypes.TxByAddrInfo, error) {
	r := newReader(b)
	n, err := r.u64()
	if err != nil {
		return nil, fmt.Errorf("legacybincode: tx by addr list: %w", err)
	}
	out := make([]ledgertypes.TxByAddrInfo, 0, n)
	for i := uint64(0); i < n; i++ {
		sigBytes, err := r.bytesWithLen()
		if err != nil {
			return nil, fmt.Errorf("legacybincode: tx by addr list: entry %d: %w", i, err)
		}
		var info ledgertypes.TxByAddrInfo
		copy(info.Signature[:], sigBytes)

		hasErr, err := r.optionPresent()
		if err != nil {
			return nil, fmt.Errorf("legacybincode: tx by addr list: entry %d: %w", i, err)
		}
		if hasErr {
			msg, err := r.str()
			if err != nil {
				return nil, fmt.Errorf("legacybincode: tx by addr list: entry %d: %w", i, err)
			}
			info.Err = &ledgertypes.TransactionError{Message: msg}
		}
		idx, err := r.u32()
		if err != nil {
			return nil, fmt.Errorf("legacybincode: tx by addr list: entry %d: %w", i, err)
		}
		info.Index = idx
		hasMemo, err := r.optionPresent()
		if err != nil {
			return nil, fmt.Errorf("legacybincode: tx by addr list: entry %d: %w", i, err)
		}
		if hasMemo {
			memo, err := r.str()
			if err != nil {
				return nil, fmt.Errorf("legacybincode: tx by addr list: entry %d: %w", i, err)
			}
			info.Memo = &memo
		}
		out = append(out, info)
	}
	return out, nil
}

func encodeMessage(w *writer, m ledgertypes.Message) {
	w.u8(m.Header.NumRequiredSignatures)
	w.u8(m.Header.NumReadonlySignedAccounts)
	w.u8(m.Header.NumReadonlyUnsignedAccounts)
	w.u64(uint64(len(m.AccountKeys)))
	for _, k := range m.AccountKeys {
		w.buf.Write(k[:])
	}
	w.buf.Write(m.RecentBlockhash[:])
	w.u64(uint64(len(m.Instructions)))
	for _, ins := range m.Instructions {
		w.u8(ins.ProgramIDIndex)
		w.u64(uint64(len(ins.Accounts)))
		w.buf.Write(ins.Accounts)
		w.bytesWithLen(ins.Data)
	}
}

func decodeMessage(r *reader) (ledgertypes.Message, error) {
	var m ledgertypes.Message
	var err error
	if m.Header.NumRequiredSignatures, err = r.u8(); err != nil {
		return m, err
	}
	if m.Header.NumReadonlySignedAccounts, err = r.u8(); err != nil {
		return m, err
	}
	if m.Header.NumReadonlyUnsignedAccounts, err = r.u8(); err != nil {
		return m, err
	}
	nKeys, err := r.u64()
	if err != nil {
		return m, err
	}
	for i := uint64(0); i < nKeys; i++ {
		if err := r.need(ledgertypes.PublicKeySize); err != nil {
			return m, err
		}
		var k ledgertypes.PublicKey
		copy(k[:], r.b[r.pos:r.pos+ledgertypes.PublicKeySize])
		r.pos += ledgertypes.PublicKeySize
		m.AccountKeys = append(m.AccountKeys, k)
	}
	if err := r.need(ledgertypes.HashSize); err != nil {
		return m, err
	}
	copy(m.RecentBlockhash[:], r.b[r.pos:r.pos+ledgertypes.HashSize])
	r.pos += ledgertypes.HashSize

	nInstr, err := r.u64()
	if err != nil {
		return m, err
	}
	for i := uint64(0); i < nInstr; i++ {
		var ins ledgertypes.CompiledInstruction
		if ins.ProgramIDIndex, err = r.u8(); err != nil {
			return m, err
		}
		nAcc, err := r.u64()
		if err != nil {
			return m, err
		}
		if err := r.need(int(nAcc)); err != nil {
			return m, err
		}
		ins.Accounts = append([]uint8{}, r.b[r.pos:r.pos+int(nAcc)]...)
		r.pos += int(nAcc)
		if ins.Data, err = r.bytesWithLen(); err != nil {
			return m, err
		}
		m.Instructions = append(m.Instructions, ins)
	}
	return m, nil
}

// EncodeStoredConfirmedBlock bincode-encodes a block using the pre-protobuf
// legacy row shape: every transaction carries a legacy (unversioned)
// message, and may still be missing metadata entirely (spec.md §3's
// MissingMetadata variant -- this format predates address-table lookups).
func EncodeStoredConfirmedBlock(blk ledgertypes.ConfirmedBlock) ([]byte, error) {
	w := &writer{}
	w.str(blk.PreviousBlockhash)
	w.str(blk.Blockhash)
	w.u64(uint64(blk.ParentSlot))

	w.u64(uint64(len(blk.Transactions)))
	for _, txm := range blk.Transactions {
		if txm.IsMissingMetadata() {
			w.u8(0)
			w.u64(uint64(len(txm.Legacy.Signatures)))
			for _, sig := range txm.Legacy.Signatures {
				w.buf.Write(sig[:])
			}
			encodeMessage(w, txm.Legacy.Message)
			continue
		}
		if !txm.Tx.Message.IsLegacy() {
			return nil, fmt.Errorf("legacybincode: cannot encode a versioned message in the legacy row format")
		}
		w.u8(1)
		w.u64(uint64(len(txm.Tx.Signatures)))
		for _, sig := range txm.Tx.Signatures {
			w.buf.Write(sig[:])
		}
		encodeMessage(w, *txm.Tx.Message.Legacy)
		encodeLegacyMeta(w, *txm.Meta)
	}

	w.u64(uint64(len(blk.Rewards)))
	for _, reward := range blk.Rewards {
		w.str(reward.Pubkey)
		w.i64(reward.Lamports)
		w.u64(reward.PostBalance)
		w.str(reward.RewardType)
		w.optionPresent(reward.Commission != nil)
		if reward.Commission != nil {
			w.u8(*reward.Commission)
		}
	}

	w.optionPresent(blk.BlockTime != nil)
	if blk.BlockTime != nil {
		w.i64(*blk.BlockTime)
	}
	return w.bytes(), nil
}

// DecodeStoredConfirmedBlock is the inverse of EncodeStoredConfirmedBlock.
func DecodeStoredConfirmedBlock(data []byte) (ledgertypes.ConfirmedBlock, error) {
	r := newReader(data)
	var blk ledgertypes.ConfirmedBlock
	var err error

	if blk.PreviousBlockhash, err = r.str(); err != nil {
		return blk, fmt.Errorf("legacybincode: block: %w", err)
	}
	if blk.Blockhash, err = r.str(); err != nil {
		return blk, fmt.Errorf("legacybincode: block: %w", err)
	}
	parentSlot, err := r.u64()
	if err != nil {
		return blk, fmt.Errorf("legacybincode: block: %w", err)
	}
	blk.ParentSlot = ledgertypes.Slot(parentSlot)

	nTx, err := r.u64()
	if err != nil {
		return blk, fmt.Errorf("legacybincode: block: %w", err)
	}
	for i := uint64(0); i < nTx; i++ {
		variant, err := r.u8()
		if err != nil {
			return blk, fmt.Errorf("legacybincode: block: tx %d: %w", i, err)
		}
		nSigs, err := r.u64()
		if err != nil {
			return blk, fmt.Errorf("legacybincode: block: tx %d: %w", i, err)
		}
		sigs := make([]ledgertypes.Signature, 0, nSigs)
		for s := uint64(0); s < nSigs; s++ {
			if err := r.need(ledgertypes.SignatureSize); err != nil {
				return blk, fmt.Errorf("legacybincode: block: tx %d: %w", i, err)
			}
			var sig ledgertypes.Signature
			copy(sig[:], r.b[r.pos:r.pos+ledgertypes.SignatureSize])
			r.pos += ledgertypes.SignatureSize
			sigs = append(sigs, sig)
		}
		msg, err := decodeMessage(r)
		if err != nil {
			return blk, fmt.Errorf("legacybincode: block: tx %d: %w", i, err)
		}

		if variant == 0 {
			blk.Transactions = append(blk.Transactions, ledgertypes.TxWithMeta{
				Legacy: &ledgertypes.LegacyTransaction{Signatures: sigs, Message: msg},
			})
			continue
		}
		meta, err := decodeLegacyMeta(r)
		if err != nil {
			return blk, fmt.Errorf("legacybincode: block: tx %d: %w", i, err)
		}
		blk.Transactions = append(blk.Transactions, ledgertypes.TxWithMeta{
			Tx: &ledgertypes.VersionedTx{
				Signatures: sigs,
				Message: ledgertypes.VersionedMessage{
					Version: ledgertypes.MessageVersionLegacy,
					Legacy:  &msg,
				},
			},
			Meta: &meta,
		})
	}

	nRewards, err := r.u64()
	if err != nil {
		return blk, fmt.Errorf("legacybincode: block: %w", err)
	}
	for i := uint64(0); i < nRewards; i++ {
		var reward ledgertypes.Reward
		if reward.Pubkey, err = r.str(); err != nil {
			return blk, fmt.Errorf("legacybincode: block: reward %d: %w", i, err)
		}
		if reward.Lamports, err = r.i64(); err != nil {
			return blk, fmt.Errorf("legacybincode: block: reward %d: %w", i, err)
		}
		if reward.PostBalance, err = r.u64(); err != nil {
			return blk, fmt.Errorf("legacybincode: block: reward %d: %w", i, err)
		}
		if reward.RewardType, err = r.str(); err != nil {
			return blk, fmt.Errorf("legacybincode: block: reward %d: %w", i, err)
		}
		hasCommission, err := r.optionPresent()
		if err != nil {
			return blk, fmt.Errorf("legacybincode: block: reward %d: %w", i, err)
		}
		if hasCommission {
			c, err := r.u8()
			if err != nil {
				return blk, fmt.Errorf("legacybincode: block: reward %d: %w", i, err)
			}
			reward.Commission = &c
		}
		blk.Rewards = append(blk.Rewards, reward)
	}

	hasBlockTime, err := r.optionPresent()
	if err != nil {
		return blk, fmt.Errorf("legacybincode: block: %w", err)
	}
	if hasBlockTime {
		t, err := r.i64()
		if err != nil {
			return blk, fmt.Errorf("legacybincode: block: %w", err)
		}
		blk.BlockTime = &t
	}
	return blk, nil
}

// encodeLegacyMeta encodes the subset of TxStatusMeta that existed in the
// bincode era: fee, balances, err, optional inner instructions and log
// messages. Token balances, rewards, loaded addresses, return data and
// compute units postdate this format and are never written here.
func encodeLegacyMeta(w *writer, m ledgertypes.TxStatusMeta) {
	w.optionPresent(m.Err != nil)
	if m.Err != nil {
		w.str(m.Err.Message)
	}
	w.u64(m.Fee)
	w.u64(uint64(len(m.PreBalances)))
	for _, v := range m.PreBalances {
		w.u64(v)
	}
	w.u64(uint64(len(m.PostBalances)))
	for _, v := range m.PostBalances {
		w.u64(v)
	}
	w.optionPresent(m.HasInnerInstructions)
	if m.HasInnerInstructions {
		w.u64(uint64(len(m.InnerInstructions)))
		for _, inner := range m.InnerInstructions {
			w.u8(inner.Index)
			w.u64(uint64(len(inner.Instructions)))
			for _, ins := range inner.Instructions {
				w.u8(ins.ProgramIDIndex)
				w.u64(uint64(len(ins.Accounts)))
				w.buf.Write(ins.Accounts)
				w.bytesWithLen(ins.Data)
			}
		}
	}
	w.optionPresent(m.HasLogMessages)
	if m.HasLogMessages {
		w.u64(uint64(len(m.LogMessages)))
		for _, s := range m.LogMessages {
			w.str(s)
		}
	}
}

func decodeLegacyMeta(r *reader) (ledgertypes.TxStatusMeta, error) {
	var m ledgertypes.TxStatusMeta
	hasErr, err := r.optionPresent()
	if err != nil {
		return m, err
	}
	if hasErr {
		msg, err := r.str()
		if err != nil {
			return m, err
		}
		m.Err = &ledgertypes.TransactionError{Message: msg}
	}
	if m.Fee, err = r.u64(); err != nil {
		return m, err
	}
	nPre, err := r.u64()
	if err != nil {
		return m, err
	}
	for i := uint64(0); i < nPre; i++ {
		v, err := r.u64()
		if err != nil {
			return m, err
		}
		m.PreBalances = append(m.PreBalances, v)
	}
	nPost, err := r.u64()
	if err != nil {
		return m, err
	}
	for i := uint64(0); i < nPost; i++ {
		v, err := r.u64()
		if err != nil {
			return m, err
		}
		m.PostBalances = append(m.PostBalances, v)
	}
	hasInner, err := r.optionPresent()
	if err != nil {
		return m, err
	}
	if hasInner {
		m.HasInnerInstructions = true
		nInner, err := r.u64()
		if err != nil {
			return m, err
		}
		for i := uint64(0); i < nInner; i++ {
			var inner ledgertypes.InnerInstruction
			if inner.Index, err = r.u8(); err != nil {
				return m, err
			}
			nIns, err := r.u64()
			if err != nil {
				return m, err
			}
			for j := uint64(0); j < nIns; j++ {
				var ins ledgertypes.CompiledInstruction
				if ins.ProgramIDIndex, err = r.u8(); err != nil {
					return m, err
				}
				nAcc, err := r.u64()
				if err != nil {
					return m, err
				}
				if err := r.need(int(nAcc)); err != nil {
					return m, err
				}
				ins.Accounts = append([]uint8{}, r.b[r.pos:r.pos+int(nAcc)]...)
				r.pos += int(nAcc)
				if ins.Data, err = r.bytesWithLen(); err != nil {
					return m, err
				}
				inner.Instructions = append(inner.Instructions, ins)
			}
			m.InnerInstructions = append(m.InnerInstructions, inner)
		}
	}
	hasLog, err := r.optionPresent()
	if err != nil {
		return m, err
	}
	if hasLog {
		m.HasLogMessages = true
		nLog, err := r.u64()
		if err != nil {
			return m, err
		}
		for i := uint64(0); i < nLog; i++ {
			s, err := r.str()
			if err != nil {
				return m, err
			}
			m.LogMessages = append(m.LogMessages, s)
		}
	}
	return m, nil
}
