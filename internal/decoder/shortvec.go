// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package decoder implements C3: turning an externally encoded block (JSON
// with base58/base64 transactions) into the canonical in-memory
// representation, including the versioned-message wire format with its
// one-byte version prefix (spec.md §4.3).
package decoder

import "fmt"

// readShortVecLen decodes Solana's "compact-u16" variable-length integer:
// each byte contributes 7 bits, with the high bit set on every byte but the
// last. Used ahead of every variable-length array in the transaction wire
// format (account keys, instructions, signatures, ...).
func readShortVecLen(b []byte, pos int) (int, int, error) {
	var out int
	for i := 0; i < 3; i++ {
		if pos+i >= len(b) {
			return 0, 0, fmt.Errorf("decoder: short-vec length truncated")
		}
		byt := b[pos+i]
		out |= int(byt&0x7f) << (7 * i)
		if byt&0x80 == 0 {
			return out, pos + i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("decoder: short-vec length exceeds 3 bytes")
}

// appendShortVecLen appends n's compact-u16 encoding to dst.
func appendShortVecLen(dst []byte, n int) []byte {
	v := uint32(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			return dst
		}
	}
}
