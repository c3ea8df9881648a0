// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgertypes

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every layer of the gateway. Backend-specific
// wrapping (e.g. an RPC status code) should use fmt.Errorf("...: %w", Err...)
// so callers can still errors.Is against these.
var (
	ErrTimeout              = errors.New("ledgerstorage: timeout")
	ErrTransport            = errors.New("ledgerstorage: transport error")
	ErrRPC                  = errors.New("ledgerstorage: rpc error")
	ErrThrift               = errors.New("ledgerstorage: thrift error")
	ErrInvalidURI           = errors.New("ledgerstorage: invalid uri")
	ErrAccessToken          = errors.New("ledgerstorage: access token error")
	ErrRowNotFound          = errors.New("ledgerstorage: row not found")
	ErrObjectNotFound       = errors.New("ledgerstorage: object not found")
	ErrObjectCorrupt        = errors.New("ledgerstorage: object corrupt")
	ErrUnsupportedEncoding  = errors.New("ledgerstorage: unsupported encoding")
	ErrUnsupportedVersion   = errors.New("ledgerstorage: unsupported version")
	ErrParseSignatureFailed = errors.New("ledgerstorage: parse signature failed")
	ErrParseHashFailed      = errors.New("ledgerstorage: parse hash failed")
	ErrParsePubkeyFailed    = errors.New("ledgerstorage: parse pubkey failed")
	ErrBlockNotFound        = errors.New("ledgerstorage: block not found")
	ErrSignatureNotFound    = errors.New("ledgerstorage: signature not found")
	ErrCache                = errors.New("ledgerstorage: cache error")
	ErrTransactionsMissing  = errors.New("ledgerstorage: transactions missing")
	ErrRowWriteFailed       = errors.New("ledgerstorage: row write failed")
	ErrRowDeleteFailed      = errors.New("ledgerstorage: row delete failed")
)

// NewBlockNotFound wraps ErrBlockNotFound with the offending slot.
func NewBlockNotFound(slot Slot) error {
	return fmt.Errorf("block not found at slot %d: %w", slot, ErrBlockNotFound)
}

// NewObjectCorrupt wraps ErrObjectCorrupt with the table/key that failed to decode.
func NewObjectCorrupt(table, key string) error {
	return fmt.Errorf("corrupt object %s/%s: %w", table, key, ErrObjectCorrupt)
}

// NewObjectNotFound wraps ErrObjectNotFound with the missing cell id.
func NewObjectNotFound(id string) error {
	return fmt.Errorf("object not found %s: %w", id, ErrObjectNotFound)
}

// NewTransactionsMissing reports a confirmed->versioned conversion that lost
// transactions without the synthesize-default-metadata toggle enabled.
func NewTransactionsMissing(before, after int) error {
	return fmt.Errorf("transactions missing: had %d, have %d: %w", before, after, ErrTransactionsMissing)
}
