// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package decoder

import (
	"fmt"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// DecodeVersionedTransactionWire parses the raw "legacy binary" transaction
// wire format: a short-vec-prefixed signature list followed by a message
// (spec.md §4.3, "legacy-binary-deserialize into a VersionedTransaction").
func DecodeVersionedTransactionWire(b []byte) (ledgertypes.VersionedTx, error) {
	nSigs, pos, err := readShortVecLen(b, 0)
	if err != nil {
		return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: signatures: %w", err)
	}
	var sigs []ledgertypes.Signature
	for i := 0; i < nSigs; i++ {
		if pos+ledgertypes.SignatureSize > len(b) {
			return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: signature %d truncated", i)
		}
		var sig ledgertypes.Signature
		copy(sig[:], b[pos:pos+ledgertypes.SignatureSize])
		sigs = append(sigs, sig)
		pos += ledgertypes.SignatureSize
	}

	msg, _, err := DecodeVersionedMessageWire(b[pos:])
	if err != nil {
		return ledgertypes.VersionedTx{}, fmt.Errorf("decoder: message: %w", err)
	}
	return ledgertypes.VersionedTx{Signatures: sigs, Message: msg}, nil
}

// EncodeVersionedTransactionWire is the inverse of
// DecodeVersionedTransactionWire.
func EncodeVersionedTransactionWire(tx ledgertypes.VersionedTx) ([]byte, error) {
	var b []byte
	b = appendShortVecLen(b, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		b = append(b, sig[:]...)
	}
	msgBytes, err := EncodeVersionedMessageWire(tx.Message)
	if err != nil {
		return nil, err
	}
	return append(b, msgBytes...), nil
}
