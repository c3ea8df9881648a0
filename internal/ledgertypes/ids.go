// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package ledgertypes holds the canonical in-memory representation of a
// confirmed block: slots, signatures, public keys, transactions and their
// status metadata. Nothing in this package performs I/O.
package ledgertypes

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Slot identifies a point in the ledger.
type Slot uint64

// SignatureSize is the length in bytes of a transaction signature.
const SignatureSize = 64

// PublicKeySize is the length in bytes of a public key.
const PublicKeySize = 32

// HashSize is the length in bytes of a blockhash or similar digest.
const HashSize = 32

// Signature is the canonical identifier of a transaction.
type Signature [SignatureSize]byte

// String renders the signature as base58, its canonical string form.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// ParseSignature decodes a base58 signature string.
func ParseSignature(s string) (Signature, error) {
	var out Signature
	b, err := base58.Decode(s)
	if err != nil {
		return out, fmt.Errorf("parse signature: %w", ErrParseSignatureFailed)
	}
	if len(b) != SignatureSize {
		return out, fmt.Errorf("parse signature: wrong length %d: %w", len(b), ErrParseSignatureFailed)
	}
	copy(out[:], b)
	return out, nil
}

// PublicKey is a 32-byte account address.
type PublicKey [PublicKeySize]byte

func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

// ParsePublicKey decodes a base58 public key string.
func ParsePublicKey(s string) (PublicKey, error) {
	var out PublicKey
	b, err := base58.Decode(s)
	if err != nil {
		return out, fmt.Errorf("parse pubkey: %w", ErrParsePubkeyFailed)
	}
	if len(b) != PublicKeySize {
		return out, fmt.Errorf("parse pubkey: wrong length %d: %w", len(b), ErrParsePubkeyFailed)
	}
	copy(out[:], b)
	return out, nil
}

// Hash is a 32-byte blockhash.
type Hash [HashSize]byte

func (h Hash) String() string {
	return base58.Encode(h[:])
}

// ParseHash decodes a base58 hash string.
func ParseHash(s string) (Hash, error) {
	var out Hash
	b, err := base58.Decode(s)
	if err != nil {
		return out, fmt.Errorf("parse hash: %w", ErrParseHashFailed)
	}
	if len(b) != HashSize {
		return out, fmt.Errorf("parse hash: wrong length %d: %w", len(b), ErrParseHashFailed)
	}
	copy(out[:], b)
	return out, nil
}

// VotingProgramID is the well-known Vote program address used to classify a
// transaction as a consensus vote.
const VotingProgramID = "Vote111111111111111111111111111111111111111"
