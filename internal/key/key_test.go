// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package key

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

func TestSlotToKey(t *testing.T) {
	require.Equal(t, "0000000000000000", SlotToKey(0))
	require.Equal(t, "ffffffffffffffff", SlotToKey(ledgertypes.Slot(^uint64(0))))
}

func TestTxByAddrKey(t *testing.T) {
	require.Equal(t, "ffffffffffffff9b", TxByAddrKey(100))
}

func TestKeyOrdering(t *testing.T) {
	s1, s2 := ledgertypes.Slot(5), ledgertypes.Slot(9)
	require.Less(t, SlotToKey(s1), SlotToKey(s2))
	require.Greater(t, TxByAddrKey(s1), TxByAddrKey(s2))
}

func TestKeyToSlotMalformed(t *testing.T) {
	_, ok := KeyToSlot("not-hex")
	require.False(t, ok)

	slot, ok := KeyToSlot("0000000000000064")
	require.True(t, ok)
	require.Equal(t, ledgertypes.Slot(100), slot)
}

func TestBlocksKeySalted(t *testing.T) {
	plain := BlocksKey(42, false)
	salted := BlocksKey(42, true)
	require.Equal(t, SlotToKey(42), plain)
	require.Len(t, salted, 10+16)
	require.NotEqual(t, plain, salted)
	require.Equal(t, SlotToKey(42), salted[10:])
}

func TestReverseSlotFromTxByAddrKey(t *testing.T) {
	k := TxByAddrKey(100)
	slot, ok := ReverseSlotFromTxByAddrKey(k)
	require.True(t, ok)
	require.Equal(t, ledgertypes.Slot(100), slot)

	_, ok = ReverseSlotFromTxByAddrKey("zz")
	require.False(t, ok)
}
