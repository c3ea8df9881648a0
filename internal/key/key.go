// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package key implements the row-key scheme (spec.md §3, §4.2): slot<->key
// conversions, the salted blocks-table variant, and the reversed-slot
// variant used to make tx-by-addr scans come back newest-first.
package key

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// slotKeyLen is the fixed width of a slot's hex key: 16 lowercase hex
// digits, zero-padded, so that lexical order matches numeric order.
const slotKeyLen = 16

// SlotToKey renders slot as 16 lowercase zero-padded hex digits.
func SlotToKey(slot ledgertypes.Slot) string {
	s := strconv.FormatUint(uint64(slot), 16)
	if len(s) < slotKeyLen {
		s = zeroPad(s, slotKeyLen)
	}
	return s
}

func zeroPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	pad := make([]byte, n-len(s))
	for i := range pad {
		pad[i] = '0'
	}
	return string(pad) + s
}

// BlocksKey returns the blocks-table row key for slot. When salted is true
// the key is prefixed with the first 10 hex chars of MD5(slot_to_key(slot)),
// which shards hot scans at the cost of breaking lexical order by slot.
func BlocksKey(slot ledgertypes.Slot, salted bool) string {
	k := SlotToKey(slot)
	if !salted {
		return k
	}
	sum := md5.Sum([]byte(k))
	salt := hex.EncodeToString(sum[:])[:10]
	return salt + k
}

// TxByAddrKey returns the descending-by-slot key used under
// tx-by-addr/<addr>/<key>: the bitwise complement of slot, so that a
// forward lexical scan returns newest-first.
func TxByAddrKey(slot ledgertypes.Slot) string {
	return SlotToKey(^slot)
}

// KeyToSlot parses a 16-hex-digit key back into a slot. Malformed keys must
// never halt the caller's enclosing scan (spec.md §4.2): the second return
// value is false, and the caller is expected to log and skip the row.
func KeyToSlot(k string) (ledgertypes.Slot, bool) {
	v, err := strconv.ParseUint(k, 16, 64)
	if err != nil {
		return 0, false
	}
	return ledgertypes.Slot(v), true
}

// ReverseSlotFromTxByAddrKey recovers the original slot from a tx-by-addr
// row key's suffix (the part after the address prefix): the stored key is
// the complement, so the slot is the complement of the parsed value. A
// malformed suffix yields ok=false so the caller can skip the row instead
// of assuming the complement of "absent" is meaningful (see spec.md Open
// Questions).
func ReverseSlotFromTxByAddrKey(suffix string) (ledgertypes.Slot, bool) {
	v, ok := KeyToSlot(suffix)
	if !ok {
		return 0, false
	}
	return ^v, true
}
