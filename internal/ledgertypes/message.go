// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgertypes

import "fmt"

// MessageHeader carries the three counts that describe which account keys
// in a message require signatures and which are read-only.
type MessageHeader struct {
	NumRequiredSignatures       uint8 `json:"numRequiredSignatures"`
	NumReadonlySignedAccounts   uint8 `json:"numReadonlySignedAccounts"`
	NumReadonlyUnsignedAccounts uint8 `json:"numReadonlyUnsignedAccounts"`
}

// CompiledInstruction references accounts and program by index into the
// message's account-key list.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// MessageAddressTableLookup indirects through an on-chain address-lookup
// table to pull in extra writable/readonly accounts (V0 messages only).
type MessageAddressTableLookup struct {
	AccountKey      PublicKey
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

// Message is the legacy (pre-versioned) transaction message shape.
type Message struct {
	Header          MessageHeader
	AccountKeys     []PublicKey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

// MessageV0 is the versioned message shape: it adds address-table lookups
// so the effective account-key list is the concatenation of static keys,
// writable loaded keys and readonly loaded keys (spec.md §3 invariant).
type MessageV0 struct {
	Header          MessageHeader
	AccountKeys     []PublicKey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

// MessageVersion distinguishes legacy messages from the versioned wire
// format's one-byte version prefix.
type MessageVersion int

const (
	MessageVersionLegacy MessageVersion = -1
	MessageVersionV0     MessageVersion = 0
)

// OffchainMessageVersion is reserved for off-chain messages (wire prefix
// 0xFF) and must always be rejected during deserialization.
const OffchainMessageVersion = 127

// VersionedMessagePrefixMask marks a versioned (non-legacy) message: the
// first byte is 0x80 | version instead of the legacy header byte.
const VersionedMessagePrefixMask = 0x80

// VersionedMessage is the tagged union Legacy(Message) | V0(MessageV0).
type VersionedMessage struct {
	Version MessageVersion
	Legacy  *Message
	V0      *MessageV0
}

// IsLegacy reports whether this message carries no version prefix.
func (m VersionedMessage) IsLegacy() bool { return m.Version == MessageVersionLegacy }

// Header returns the common header regardless of variant.
func (m VersionedMessage) Header() MessageHeader {
	if m.IsLegacy() {
		return m.Legacy.Header
	}
	return m.V0.Header
}

// StaticAccountKeys returns the statically-listed account keys (excludes
// any keys pulled in through address-table lookups for V0 messages).
func (m VersionedMessage) StaticAccountKeys() []PublicKey {
	if m.IsLegacy() {
		return m.Legacy.AccountKeys
	}
	return m.V0.AccountKeys
}

// Instructions returns the compiled instruction list regardless of variant.
func (m VersionedMessage) Instructions() []CompiledInstruction {
	if m.IsLegacy() {
		return m.Legacy.Instructions
	}
	return m.V0.Instructions
}

// RecentBlockhash returns the recent-blockhash field regardless of variant.
func (m VersionedMessage) RecentBlockhash() Hash {
	if m.IsLegacy() {
		return m.Legacy.RecentBlockhash
	}
	return m.V0.RecentBlockhash
}

// AddressTableLookups returns the V0 lookups, or nil for legacy messages.
func (m VersionedMessage) AddressTableLookups() []MessageAddressTableLookup {
	if m.IsLegacy() {
		return nil
	}
	return m.V0.AddressTableLookups
}

// DetectMessageVersion classifies a message's first wire byte under the
// one-byte-prefixed format described in spec.md §4.3: a legacy message has no prefix (first byte is
// header.num_required_signatures, high bit clear); a versioned message is
// prefixed with 0x80|version. Version 127 (prefix 0xFF) is reserved for
// off-chain messages and is always rejected.
func DetectMessageVersion(firstByte byte) (version MessageVersion, prefixed bool, err error) {
	if firstByte&VersionedMessagePrefixMask == 0 {
		return MessageVersionLegacy, false, nil
	}
	v := firstByte &^ VersionedMessagePrefixMask
	if v == OffchainMessageVersion {
		return 0, true, fmt.Errorf("version 127 is reserved for off-chain messages: %w", ErrUnsupportedVersion)
	}
	if v != 0 {
		return 0, true, fmt.Errorf("unsupported message version %d: %w", v, ErrUnsupportedVersion)
	}
	return MessageVersionV0, true, nil
}
