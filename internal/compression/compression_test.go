// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package compression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeNoneMethod(t *testing.T) {
	blob := []byte{0x00, 'h', 'e', 'l', 'l', 'o'}
	out, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))
}

func TestZstdRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, repeatedly")
	blob, err := EncodeBest(payload, true)
	require.NoError(t, err)
	require.Equal(t, byte(MethodZstd), blob[0])

	out, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestEncodeBestUncompressed(t *testing.T) {
	payload := []byte("x")
	blob, err := EncodeBest(payload, false)
	require.NoError(t, err)
	require.Equal(t, byte(MethodNone), blob[0])
}

func TestGzipRoundTrip(t *testing.T) {
	payload := []byte("round trip via gzip")
	blob, err := Encode(MethodGzip, payload)
	require.NoError(t, err)
	out, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}
