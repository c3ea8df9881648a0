// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgertypes

// SysvarAccountIDs lists well-known sysvar addresses that should never be
// indexed by tx-by-addr (spec.md §4.7 step 3). This is a representative,
// non-exhaustive subset matching the commonly-filtered sysvars.
var SysvarAccountIDs = map[string]struct{}{
	"SysvarC1ock11111111111111111111111111111111": {},
	"SysvarRecentB1ockHashes11111111111111111111": {},
	"SysvarRent111111111111111111111111111111111": {},
	"SysvarStakeHistory1111111111111111111111111": {},
	"SysvarEpochSchedu1e111111111111111111111111": {},
	"SysvarInstructions1111111111111111111111111": {},
	"SysvarS1otHashes111111111111111111111111111": {},
	"SysvarFees111111111111111111111111111111111": {},
}

// IsSysvar reports whether addr is a well-known sysvar.
func IsSysvar(addr string) bool {
	_, ok := SysvarAccountIDs[addr]
	return ok
}

// IsVoting reports whether the transaction's account keys include the Vote
// program (spec.md §4.7 step 2).
func IsVoting(keys []PublicKey) bool {
	for _, k := range keys {
		if k.String() == VotingProgramID {
			return true
		}
	}
	return false
}

// ProgramIDsUsed returns the set of account keys used as a program id by
// any outer or inner instruction of tx, given its full (static+loaded)
// account-key list.
func ProgramIDsUsed(tx VersionedTx, meta TxStatusMeta, allKeys []PublicKey) map[PublicKey]struct{} {
	out := make(map[PublicKey]struct{})
	mark := func(idx uint8) {
		if int(idx) < len(allKeys) {
			out[allKeys[idx]] = struct{}{}
		}
	}
	for _, ix := range tx.Message.Instructions() {
		mark(ix.ProgramIDIndex)
	}
	if meta.HasInnerInstructions {
		for _, inner := range meta.InnerInstructions {
			for _, ix := range inner.Instructions {
				mark(ix.ProgramIDIndex)
			}
		}
	}
	return out
}
