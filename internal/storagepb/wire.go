// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package storagepb is the hand-maintained protobuf wire codec for the
// "modern" cell encodings named by spec.md §4.1: ConfirmedBlock,
// TransactionByAddr, ConfirmedTransactionWithStatusMeta. The protobuf
// schemas themselves are out of scope (spec.md §1): this package plays the
// role that protoc-generated code would, built directly on the low-level
// google.golang.org/protobuf/encoding/protowire primitives rather than a
// fabricated .pb.go file we cannot actually generate here.
package storagepb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// field is one decoded (number, wire-type, raw) triple from consumeFields.
type field struct {
	num protowire.Number
	typ protowire.Type
	buf []byte // varint: the raw bytes preceding consumption; bytes: the payload
}

// consumeFields parses b into a map of field number -> all occurrences
// (protobuf repeated fields, and our optional-via-repeated-presence fields,
// both need every occurrence preserved in order).
func consumeFields(b []byte) (map[protowire.Number][]field, error) {
	out := make(map[protowire.Number][]field)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("storagepb: bad tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("storagepb: bad varint: %w", protowire.ParseError(n))
			}
			buf := protowire.AppendVarint(nil, v)
			out[num] = append(out[num], field{num: num, typ: typ, buf: buf})
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("storagepb: bad bytes: %w", protowire.ParseError(n))
			}
			out[num] = append(out[num], field{num: num, typ: typ, buf: append([]byte{}, v...)})
			b = b[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, fmt.Errorf("storagepb: bad fixed64: %w", protowire.ParseError(n))
			}
			buf := protowire.AppendFixed64(nil, v)
			out[num] = append(out[num], field{num: num, typ: typ, buf: buf})
			b = b[n:]
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, fmt.Errorf("storagepb: bad fixed32: %w", protowire.ParseError(n))
			}
			buf := protowire.AppendFixed32(nil, v)
			out[num] = append(out[num], field{num: num, typ: typ, buf: buf})
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("storagepb: bad field: %w", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return out, nil
}

func varintOf(fs []field) (uint64, bool) {
	if len(fs) == 0 {
		return 0, false
	}
	v, _ := protowire.ConsumeVarint(fs[len(fs)-1].buf)
	return v, true
}

func bytesOf(fs []field) ([]byte, bool) {
	if len(fs) == 0 {
		return nil, false
	}
	return fs[len(fs)-1].buf, true
}

func stringsOf(fs []field) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, string(f.buf))
	}
	return out
}

func u64SliceOf(fs []field) []uint64 {
	out := make([]uint64, 0, len(fs))
	for _, f := range fs {
		v, _ := protowire.ConsumeVarint(f.buf)
		out = append(out, v)
	}
	return out
}

func boolOf(fs []field) bool {
	v, ok := varintOf(fs)
	return ok && v != 0
}

func zigzagEncode(v int64) uint64 { return (uint64(v) << 1) ^ uint64(v>>63) }
func zigzagDecode(v uint64) int64 { return int64(v>>1) ^ -int64(v&1) }
