// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package legacybincode implements the fixed-width little-endian "legacy
// bincode" encoding used by the oldest rows in the blocks/tx/tx-by-addr
// tables, before the storage layer moved to the protobuf cell format
// (spec.md §4.1, §3 "LegacyTransaction ... kept only for backward
// compatibility with the oldest rows"). It mirrors Rust's bincode default
// options as used by the upstream validator: little-endian fixed-size
// integers, a u64 length prefix ahead of every Vec/String, and a one-byte
// discriminant ahead of every Option.
package legacybincode

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// writer accumulates a bincode-encoded byte stream.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) u8(v uint8)   { w.buf.WriteByte(v) }
func (w *writer) u32(v uint32) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *writer) u64(v uint64) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *writer) i64(v int64)  { binary.Write(&w.buf, binary.LittleEndian, v) }

func (w *writer) bytesWithLen(b []byte) {
	w.u64(uint64(len(b)))
	w.buf.Write(b)
}

func (w *writer) str(s string) { w.bytesWithLen([]byte(s)) }

func (w *writer) optionPresent(present bool) {
	if present {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }

// reader consumes a bincode-encoded byte stream.
type reader struct {
	b   []byte
	pos int
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) need(n int) error {
	if r.pos+n > len(r.b) {
		return fmt.Errorf("legacybincode: unexpected end of input (need %d, have %d)", n, len(r.b)-r.pos)
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) i64() (int64, error) {
	v, err := r.u64()
	return int64(v), err
}

func (r *reader) bytesWithLen() ([]byte, error) {
	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := append([]byte{}, r.b[r.pos:r.pos+int(n)]...)
	r.pos += int(n)
	return out, nil
}

func (r *reader) str() (string, error) {
	b, err := r.bytesWithLen()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) optionPresent() (bool, error) {
	tag, err := r.u8()
	if err != nil {
		return false, err
	}
	if tag > 1 {
		return false, fmt.Errorf("legacybincode: bad option discriminant %d", tag)
	}
	return tag == 1, nil
}

func (r *reader) done() bool { return r.pos >= len(r.b) }
