// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package memolookup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

func memoKey() ledgertypes.PublicKey {
	pk, err := ledgertypes.ParsePublicKey(MemoV1ProgramID)
	if err != nil {
		panic(err)
	}
	return pk
}

func TestExtractFindsMemoInstruction(t *testing.T) {
	var other ledgertypes.PublicKey
	other[0] = 1
	keys := []ledgertypes.PublicKey{other, memoKey()}
	msg := ledgertypes.VersionedMessage{
		Version: ledgertypes.MessageVersionLegacy,
		Legacy: &ledgertypes.Message{
			AccountKeys: keys,
			Instructions: []ledgertypes.CompiledInstruction{
				{ProgramIDIndex: 1, Data: []byte("hello world")},
			},
		},
	}
	memo := Extract(msg, keys)
	require.NotNil(t, memo)
	require.Equal(t, "hello world", *memo)
}

func TestExtractReturnsNilWithoutMemoInstruction(t *testing.T) {
	var other ledgertypes.PublicKey
	other[0] = 1
	keys := []ledgertypes.PublicKey{other}
	msg := ledgertypes.VersionedMessage{
		Version: ledgertypes.MessageVersionLegacy,
		Legacy: &ledgertypes.Message{
			AccountKeys:  keys,
			Instructions: []ledgertypes.CompiledInstruction{{ProgramIDIndex: 0, Data: []byte("x")}},
		},
	}
	require.Nil(t, Extract(msg, keys))
}

func TestExtractTakesLastMemoWhenMultiple(t *testing.T) {
	keys := []ledgertypes.PublicKey{memoKey()}
	msg := ledgertypes.VersionedMessage{
		Version: ledgertypes.MessageVersionLegacy,
		Legacy: &ledgertypes.Message{
			AccountKeys: keys,
			Instructions: []ledgertypes.CompiledInstruction{
				{ProgramIDIndex: 0, Data: []byte("first")},
				{ProgramIDIndex: 0, Data: []byte("second")},
			},
		},
	}
	memo := Extract(msg, keys)
	require.Equal(t, "second", *memo)
}
