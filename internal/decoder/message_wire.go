// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package decoder

import (
	"fmt"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// decodeMessageBody parses a message's wire bytes (the one-byte version
// prefix, if any, has already been consumed by the caller) per spec.md
// §4.3: header, account keys, recent blockhash, instructions, and -- for V0
// only -- address-table lookups.
func decodeMessageBody(b []byte, pos int, versioned bool) (header ledgertypes.MessageHeader, keys []ledgertypes.PublicKey, blockhash ledgertypes.Hash, instructions []ledgertypes.CompiledInstruction, lookups []ledgertypes.MessageAddressTableLookup, newPos int, err error) {
	if pos+3 > len(b) {
		return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: message header truncated")
	}
	header.NumRequiredSignatures = b[pos]
	header.NumReadonlySignedAccounts = b[pos+1]
	header.NumReadonlyUnsignedAccounts = b[pos+2]
	pos += 3

	nKeys, pos2, err := readShortVecLen(b, pos)
	if err != nil {
		return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: account keys: %w", err)
	}
	pos = pos2
	for i := 0; i < nKeys; i++ {
		if pos+ledgertypes.PublicKeySize > len(b) {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: account key %d truncated", i)
		}
		var k ledgertypes.PublicKey
		copy(k[:], b[pos:pos+ledgertypes.PublicKeySize])
		keys = append(keys, k)
		pos += ledgertypes.PublicKeySize
	}

	if pos+ledgertypes.HashSize > len(b) {
		return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: recent blockhash truncated")
	}
	copy(blockhash[:], b[pos:pos+ledgertypes.HashSize])
	pos += ledgertypes.HashSize

	nInstr, pos3, err := readShortVecLen(b, pos)
	if err != nil {
		return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: instructions: %w", err)
	}
	pos = pos3
	for i := 0; i < nInstr; i++ {
		if pos >= len(b) {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: instruction %d truncated", i)
		}
		ins := ledgertypes.CompiledInstruction{ProgramIDIndex: b[pos]}
		pos++
		nAcc, p, err := readShortVecLen(b, pos)
		if err != nil {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: instruction %d accounts: %w", i, err)
		}
		pos = p
		if pos+nAcc > len(b) {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: instruction %d accounts truncated", i)
		}
		ins.Accounts = append([]uint8{}, b[pos:pos+nAcc]...)
		pos += nAcc

		nData, p2, err := readShortVecLen(b, pos)
		if err != nil {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: instruction %d data: %w", i, err)
		}
		pos = p2
		if pos+nData > len(b) {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: instruction %d data truncated", i)
		}
		ins.Data = append([]byte{}, b[pos:pos+nData]...)
		pos += nData
		instructions = append(instructions, ins)
	}

	if !versioned {
		return header, keys, blockhash, instructions, nil, pos, nil
	}

	nLookups, pos4, err := readShortVecLen(b, pos)
	if err != nil {
		return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: address table lookups: %w", err)
	}
	pos = pos4
	for i := 0; i < nLookups; i++ {
		if pos+ledgertypes.PublicKeySize > len(b) {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: lookup %d account key truncated", i)
		}
		var l ledgertypes.MessageAddressTableLookup
		copy(l.AccountKey[:], b[pos:pos+ledgertypes.PublicKeySize])
		pos += ledgertypes.PublicKeySize

		nw, p, err := readShortVecLen(b, pos)
		if err != nil {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: lookup %d writable: %w", i, err)
		}
		pos = p
		if pos+nw > len(b) {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: lookup %d writable truncated", i)
		}
		l.WritableIndexes = append([]uint8{}, b[pos:pos+nw]...)
		pos += nw

		nr, p2, err := readShortVecLen(b, pos)
		if err != nil {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: lookup %d readonly: %w", i, err)
		}
		pos = p2
		if pos+nr > len(b) {
			return header, nil, blockhash, nil, nil, pos, fmt.Errorf("decoder: lookup %d readonly truncated", i)
		}
		l.ReadonlyIndexes = append([]uint8{}, b[pos:pos+nr]...)
		pos += nr

		lookups = append(lookups, l)
	}

	return header, keys, blockhash, instructions, lookups, pos, nil
}

// DecodeVersionedMessageWire parses the one-byte-prefixed message wire
// format (spec.md §4.3): a legacy message carries no prefix (its first byte
// is num_required_signatures, high bit clear); a versioned message is
// prefixed 0x80|version. Returns the number of bytes consumed.
func DecodeVersionedMessageWire(b []byte) (ledgertypes.VersionedMessage, int, error) {
	if len(b) == 0 {
		return ledgertypes.VersionedMessage{}, 0, fmt.Errorf("decoder: empty message")
	}
	version, prefixed, err := ledgertypes.DetectMessageVersion(b[0])
	if err != nil {
		return ledgertypes.VersionedMessage{}, 0, err
	}
	pos := 0
	if prefixed {
		pos = 1
	}

	header, keys, blockhash, instructions, lookups, newPos, err := decodeMessageBody(b, pos, prefixed)
	if err != nil {
		return ledgertypes.VersionedMessage{}, 0, err
	}

	if version == ledgertypes.MessageVersionLegacy {
		return ledgertypes.VersionedMessage{
			Version: ledgertypes.MessageVersionLegacy,
			Legacy: &ledgertypes.Message{
				Header:          header,
				AccountKeys:     keys,
				RecentBlockhash: blockhash,
				Instructions:    instructions,
			},
		}, newPos, nil
	}

	return ledgertypes.VersionedMessage{
		Version: ledgertypes.MessageVersionV0,
		V0: &ledgertypes.MessageV0{
			Header:              header,
			AccountKeys:         keys,
			RecentBlockhash:     blockhash,
			Instructions:        instructions,
			AddressTableLookups: lookups,
		},
	}, newPos, nil
}

// EncodeVersionedMessageWire is the inverse of DecodeVersionedMessageWire.
func EncodeVersionedMessageWire(m ledgertypes.VersionedMessage) ([]byte, error) {
	var b []byte
	if !m.IsLegacy() {
		b = append(b, byte(ledgertypes.VersionedMessagePrefixMask)|byte(m.Version))
	}

	h := m.Header()
	b = append(b, h.NumRequiredSignatures, h.NumReadonlySignedAccounts, h.NumReadonlyUnsignedAccounts)

	keys := m.StaticAccountKeys()
	b = appendShortVecLen(b, len(keys))
	for _, k := range keys {
		b = append(b, k[:]...)
	}

	rb := m.RecentBlockhash()
	b = append(b, rb[:]...)

	instructions := m.Instructions()
	b = appendShortVecLen(b, len(instructions))
	for _, ins := range instructions {
		b = append(b, ins.ProgramIDIndex)
		b = appendShortVecLen(b, len(ins.Accounts))
		b = append(b, ins.Accounts...)
		b = appendShortVecLen(b, len(ins.Data))
		b = append(b, ins.Data...)
	}

	if m.IsLegacy() {
		return b, nil
	}

	lookups := m.AddressTableLookups()
	b = appendShortVecLen(b, len(lookups))
	for _, l := range lookups {
		b = append(b, l.AccountKey[:]...)
		b = appendShortVecLen(b, len(l.WritableIndexes))
		b = append(b, l.WritableIndexes...)
		b = appendShortVecLen(b, len(l.ReadonlyIndexes))
		b = append(b, l.ReadonlyIndexes...)
	}
	return b, nil
}
