// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package compression implements the cell blob framing described in
// spec.md §4.1: a stored cell is [one-byte method] || [payload].
package compression

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Method identifies the compression algorithm a blob was framed with. The
// ordinal values are part of the wire format and must never change.
type Method byte

const (
	MethodNone  Method = 0
	MethodBzip2 Method = 1
	MethodGzip  Method = 2
	MethodZstd  Method = 3
)

// Decode reads the one-byte method tag from blob and returns the
// decompressed payload.
func Decode(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("compression: empty blob")
	}
	method := Method(blob[0])
	payload := blob[1:]
	switch method {
	case MethodNone:
		return payload, nil
	case MethodBzip2:
		r := bzip2.NewReader(bytes.NewReader(payload))
		return io.ReadAll(r)
	case MethodGzip:
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("compression: gzip: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case MethodZstd:
		dec, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("compression: zstd: %w", err)
		}
		defer dec.Close()
		return io.ReadAll(dec)
	default:
		return nil, fmt.Errorf("compression: unknown method %d", method)
	}
}

// Encode frames payload with the given method, always writing the method
// byte first.
func Encode(method Method, payload []byte) ([]byte, error) {
	switch method {
	case MethodNone:
		return append([]byte{byte(MethodNone)}, payload...), nil
	case MethodZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, fmt.Errorf("compression: zstd writer: %w", err)
		}
		compressed := enc.EncodeAll(payload, make([]byte, 0, len(payload)))
		_ = enc.Close()
		return append([]byte{byte(MethodZstd)}, compressed...), nil
	case MethodGzip:
		var buf bytes.Buffer
		buf.WriteByte(byte(MethodGzip))
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, fmt.Errorf("compression: gzip: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("compression: gzip: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("compression: method %d has no encoder", method)
	}
}

// EncodeBest chooses the compression method for a write: zstd when useCompression
// is set, otherwise the cell is stored uncompressed. Bzip2 has no supported
// Go encoder anywhere in this codebase's dependency set, so "best" never
// selects it (spec.md §4.1).
func EncodeBest(payload []byte, useCompression bool) ([]byte, error) {
	if !useCompression {
		return Encode(MethodNone, payload)
	}
	return Encode(MethodZstd, payload)
}
