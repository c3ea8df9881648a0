// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgercache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

func TestBlockCacheGetPut(t *testing.T) {
	c, err := NewBlockCache(2)
	require.NoError(t, err)

	_, ok := c.Get(ledgertypes.Slot(1))
	require.False(t, ok)

	c.Put(ledgertypes.Slot(1), []byte("blob1"))
	blob, ok := c.Get(ledgertypes.Slot(1))
	require.True(t, ok)
	require.Equal(t, []byte("blob1"), blob)
}

func TestBlockCacheEvictsLRU(t *testing.T) {
	c, err := NewBlockCache(1)
	require.NoError(t, err)

	c.Put(ledgertypes.Slot(1), []byte("a"))
	c.Put(ledgertypes.Slot(2), []byte("b"))

	_, ok := c.Get(ledgertypes.Slot(1))
	require.False(t, ok)
	blob, ok := c.Get(ledgertypes.Slot(2))
	require.True(t, ok)
	require.Equal(t, []byte("b"), blob)
}

func TestBlockCacheDisabledWhenZeroCapacity(t *testing.T) {
	c, err := NewBlockCache(0)
	require.NoError(t, err)

	c.Put(ledgertypes.Slot(1), []byte("a"))
	_, ok := c.Get(ledgertypes.Slot(1))
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}
