// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgertypes

// ConfirmedBlock is the canonical in-memory representation of a block.
type ConfirmedBlock struct {
	PreviousBlockhash string
	Blockhash         string
	ParentSlot        Slot
	Transactions      []TxWithMeta
	Rewards           []Reward
	NumPartitions     *uint64
	BlockTime         *int64
	BlockHeight       *uint64
}

// VersionedConfirmedBlock is the upload-ready form: every transaction has
// been resolved to Complete(VersionedTx, TxStatusMeta).
type VersionedConfirmedBlock struct {
	PreviousBlockhash string
	Blockhash         string
	ParentSlot        Slot
	Transactions      []VersionedTxWithMeta
	Rewards           []Reward
	NumPartitions     *uint64
	BlockTime         *int64
	BlockHeight       *uint64
}

// VersionedTxWithMeta is a transaction that definitely carries metadata
// (the MissingMetadata variant has been resolved or rejected by this point).
type VersionedTxWithMeta struct {
	Tx   VersionedTx
	Meta TxStatusMeta
}

// TransactionEncoding selects how an EncodedTransactionWithStatusMeta's
// Transaction field is shaped.
type TransactionEncoding int

const (
	EncodingLegacyBinary TransactionEncoding = iota // bare base58 string, legacy-binary
	EncodingBinary                                  // (string, Base58|Base64)
	EncodingJSON                                     // ui-style parsed-ish, raw message
	EncodingJSONParsed                              // fully parsed -- rejected, lossy
	EncodingAccounts                                // accounts-only form -- rejected
)

// BinaryEncoding selects the string encoding used by EncodingBinary.
type BinaryEncoding int

const (
	Base58 BinaryEncoding = iota
	Base64
)

// EncodedTransaction is the external, wire-shaped representation of a
// transaction prior to decoding (spec.md §4.3).
type EncodedTransaction struct {
	Encoding TransactionEncoding

	// Populated when Encoding == EncodingLegacyBinary or EncodingBinary.
	Binary         string
	BinaryEncoding BinaryEncoding

	// Populated when Encoding == EncodingJSON.
	JSON *UiTransaction
}

// UiTransaction is the "raw" JSON message shape accepted by the decoder.
type UiTransaction struct {
	Signatures []string  `json:"signatures"`
	Message    UiMessage `json:"message"`
}

// UiMessage carries the raw-shape fields needed to reconstruct a legacy or
// V0 message. Version is nil for legacy, or a pointer to 0 for V0; any other
// value must be rejected with ErrUnsupportedVersion.
type UiMessage struct {
	Version             *int                     `json:"version"`
	Header              MessageHeader            `json:"header"`
	AccountKeys         []string                 `json:"accountKeys"`
	RecentBlockhash     string                   `json:"recentBlockhash"`
	Instructions        []UiCompiledInstruction  `json:"instructions"`
	AddressTableLookups []UiAddressTableLookup   `json:"addressTableLookups"`
}

// UiCompiledInstruction mirrors CompiledInstruction in wire-friendly form.
type UiCompiledInstruction struct {
	ProgramIDIndex uint8   `json:"programIdIndex"`
	Accounts       []uint8 `json:"accounts"`
	Data           string  `json:"data"` // base58
}

// UiAddressTableLookup mirrors MessageAddressTableLookup in wire-friendly form.
type UiAddressTableLookup struct {
	AccountKey      string  `json:"accountKey"` // base58
	WritableIndexes []uint8 `json:"writableIndexes"`
	ReadonlyIndexes []uint8 `json:"readonlyIndexes"`
}

// EncodedTransactionWithStatusMeta is one entry of an EncodedConfirmedBlock's
// transaction list; Meta is nil when the upstream source omitted metadata.
type EncodedTransactionWithStatusMeta struct {
	Transaction EncodedTransaction `json:"transaction"`
	Meta        *TxStatusMeta      `json:"meta"`
}

// EncodedConfirmedBlock is the external, JSON-shaped block the decoder (C3)
// converts into a ConfirmedBlock.
type EncodedConfirmedBlock struct {
	PreviousBlockhash string                             `json:"previousBlockhash"`
	Blockhash         string                             `json:"blockhash"`
	ParentSlot        Slot                               `json:"parentSlot"`
	Transactions      []EncodedTransactionWithStatusMeta `json:"transactions"`
	Rewards           []Reward                           `json:"rewards"`
	NumPartitions     *uint64                            `json:"numPartitions"`
	BlockTime         *int64                             `json:"blockTime"`
	BlockHeight       *uint64                            `json:"blockHeight"`
}
