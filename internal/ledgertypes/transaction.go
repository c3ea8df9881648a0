// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgertypes

import "encoding/json"

// TransactionError is a serializable stand-in for the on-chain transaction
// error enum: this gateway never executes transactions, so it only needs to
// round-trip an upstream-supplied error description, not interpret it.
type TransactionError struct {
	Message string
}

func (e *TransactionError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// MarshalJSON renders the error as its raw message text, mirroring the
// upstream RPC's opaque TransactionError JSON shape closely enough for
// round-tripping through this gateway.
func (e *TransactionError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Message)
}

// UnmarshalJSON accepts either a bare JSON string or an arbitrary structured
// error object; in the latter case the original JSON text is kept verbatim
// as Message since this gateway never interprets the error, only stores it.
func (e *TransactionError) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Message = s
		return nil
	}
	e.Message = string(data)
	return nil
}

// LoadedAddresses holds the writable/readonly account keys a V0 message
// pulled in through address-table lookups.
type LoadedAddresses struct {
	Writable []PublicKey
	Readonly []PublicKey
}

// VersionedTx is an ordered signature list plus a versioned message.
// Invariant: len(Signatures) == message header's NumRequiredSignatures.
type VersionedTx struct {
	Signatures []Signature
	Message    VersionedMessage
}

// AllAccountKeys returns the concatenation of static keys, writable loaded
// keys and readonly loaded keys, the order instruction account indexes
// assume (spec.md §3 invariant).
func (t VersionedTx) AllAccountKeys(loaded LoadedAddresses) []PublicKey {
	keys := make([]PublicKey, 0, len(t.Message.StaticAccountKeys())+len(loaded.Writable)+len(loaded.Readonly))
	keys = append(keys, t.Message.StaticAccountKeys()...)
	keys = append(keys, loaded.Writable...)
	keys = append(keys, loaded.Readonly...)
	return keys
}

// InnerInstruction is one CPI call recorded during execution.
type InnerInstruction struct {
	Index        uint8                  `json:"index"`
	Instructions []CompiledInstruction  `json:"instructions"`
}

// TokenBalance records an SPL token balance observed pre/post execution.
type TokenBalance struct {
	AccountIndex  uint8  `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount string `json:"uiTokenAmount"`
	Decimals      uint8  `json:"decimals"`
}

// ReturnData is the optional program return-data payload.
type ReturnData struct {
	ProgramID PublicKey `json:"programId"`
	Data      []byte    `json:"data"`
}

// Reward records one lamport reward paid out for a slot.
type Reward struct {
	Pubkey      string  `json:"pubkey"`
	Lamports    int64   `json:"lamports"`
	PostBalance uint64  `json:"postBalance"`
	RewardType  string  `json:"rewardType"`
	Commission  *uint8  `json:"commission"`
}

// TxStatusMeta is everything recorded about a transaction's execution.
type TxStatusMeta struct {
	Err                  *TransactionError  `json:"err"` // nil on success
	Fee                  uint64             `json:"fee"`
	PreBalances          []uint64           `json:"preBalances"`
	PostBalances         []uint64           `json:"postBalances"`
	InnerInstructions    []InnerInstruction `json:"innerInstructions"` // optional: nil means absent, not empty
	HasInnerInstructions bool               `json:"-"`
	LogMessages          []string           `json:"logMessages"`
	HasLogMessages       bool               `json:"-"`
	PreTokenBalances     []TokenBalance     `json:"preTokenBalances"`
	PostTokenBalances    []TokenBalance     `json:"postTokenBalances"`
	HasTokenBalances     bool               `json:"-"`
	Rewards              []Reward           `json:"rewards"`
	HasRewards           bool               `json:"-"`
	LoadedAddresses      LoadedAddresses    `json:"loadedAddresses"`
	ReturnData           *ReturnData        `json:"returnData"`
	ComputeUnitsConsumed *uint64            `json:"computeUnitsConsumed"`
}

// UnmarshalJSON sets the Has* presence flags from whichever optional fields
// the wire payload actually included, since encoding/json gives no way to
// distinguish an absent field from an empty slice through struct tags alone.
func (m *TxStatusMeta) UnmarshalJSON(data []byte) error {
	// alias breaks the recursive UnmarshalJSON call; embedding *alias
	// (rather than a value) lets json.Unmarshal write every non-duplicated
	// field directly into m, so only the presence-tracked fields below need
	// an explicit copy-back.
	type alias TxStatusMeta
	probe := struct {
		*alias
		InnerInstructions *[]InnerInstruction `json:"innerInstructions"`
		LogMessages       *[]string           `json:"logMessages"`
		PreTokenBalances  *[]TokenBalance     `json:"preTokenBalances"`
		PostTokenBalances *[]TokenBalance     `json:"postTokenBalances"`
		Rewards           *[]Reward           `json:"rewards"`
	}{alias: (*alias)(m)}

	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	m.HasInnerInstructions = probe.InnerInstructions != nil
	if probe.InnerInstructions != nil {
		m.InnerInstructions = *probe.InnerInstructions
	}
	m.HasLogMessages = probe.LogMessages != nil
	if probe.LogMessages != nil {
		m.LogMessages = *probe.LogMessages
	}
	m.HasTokenBalances = probe.PreTokenBalances != nil || probe.PostTokenBalances != nil
	if probe.PreTokenBalances != nil {
		m.PreTokenBalances = *probe.PreTokenBalances
	}
	if probe.PostTokenBalances != nil {
		m.PostTokenBalances = *probe.PostTokenBalances
	}
	m.HasRewards = probe.Rewards != nil
	if probe.Rewards != nil {
		m.Rewards = *probe.Rewards
	}
	return nil
}

// IsError reports whether the transaction failed execution.
func (m TxStatusMeta) IsError() bool { return m.Err != nil }

// LegacyTransaction is the old, metadata-less record shape kept only for
// backward compatibility with the oldest rows (spec.md §3).
type LegacyTransaction struct {
	Signatures      []Signature
	Message         Message
}

// TxWithMeta is the tagged union MissingMetadata(LegacyTransaction) |
// Complete(VersionedTx, TxStatusMeta).
type TxWithMeta struct {
	Legacy *LegacyTransaction // set iff MissingMetadata
	Tx     *VersionedTx       // set iff Complete
	Meta   *TxStatusMeta      // set iff Complete
}

// IsMissingMetadata reports whether this is the legacy, metadata-less variant.
func (t TxWithMeta) IsMissingMetadata() bool { return t.Legacy != nil }

// Signature returns the transaction's first (fee-payer) signature regardless
// of variant.
func (t TxWithMeta) Signature() Signature {
	if t.IsMissingMetadata() {
		if len(t.Legacy.Signatures) == 0 {
			return Signature{}
		}
		return t.Legacy.Signatures[0]
	}
	if len(t.Tx.Signatures) == 0 {
		return Signature{}
	}
	return t.Tx.Signatures[0]
}

// TxByAddrInfo is one entry in a per-address tx-by-addr index bucket.
type TxByAddrInfo struct {
	Signature Signature
	Err       *TransactionError // optional
	Index     uint32
	Memo      *string
	BlockTime *int64
}

// TxInfo is the compact fallback pointer from signature to (slot, position).
type TxInfo struct {
	Slot  Slot
	Index uint32
	Err   *TransactionError // optional
}

// ConfirmedTransactionStatusWithSignature is what address-history scans emit.
type ConfirmedTransactionStatusWithSignature struct {
	Signature Signature
	Slot      Slot
	Err       *TransactionError
	Memo      *string
	BlockTime *int64
}

// ConfirmedTransactionWithStatusMeta is the full transaction record held in
// tx_full and returned by get_full_transaction / get_confirmed_transaction.
type ConfirmedTransactionWithStatusMeta struct {
	Slot        Slot
	Tx          VersionedTx
	Meta        TxStatusMeta
	BlockTime   *int64
}
