// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package memolookup extracts the memo string attached to a transaction, if
// any. spec.md §4.7 step 1 names this as an external collaborator without
// specifying it; the obvious, real-world implementation is scanning the
// transaction's top-level instructions for a call into the SPL Memo
// program and taking its instruction data as UTF-8 text.
package memolookup

import (
	"unicode/utf8"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// MemoV1ProgramID and MemoV2ProgramID are the two SPL Memo program
// deployments seen on mainnet.
const (
	MemoV1ProgramID = "Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo"
	MemoV2ProgramID = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
)

// MemoProgramIDs lists the known SPL Memo program addresses across its two
// deployed versions.
var MemoProgramIDs = map[string]struct{}{
	MemoV1ProgramID: {},
	MemoV2ProgramID: {},
}

// Extract returns the memo text for a transaction whose message is msg,
// given its full (static + address-table-loaded) account key list, if its
// instructions include a call to a known Memo program, else nil. When
// several memo instructions are present, the last one wins.
func Extract(msg ledgertypes.VersionedMessage, allKeys []ledgertypes.PublicKey) *string {
	var memo *string
	for _, ix := range msg.Instructions() {
		if int(ix.ProgramIDIndex) >= len(allKeys) {
			continue
		}
		if _, ok := MemoProgramIDs[allKeys[ix.ProgramIDIndex].String()]; !ok {
			continue
		}
		if !utf8.Valid(ix.Data) {
			continue
		}
		s := string(ix.Data)
		memo = &s
	}
	return memo
}
