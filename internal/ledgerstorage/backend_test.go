// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgerstorage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexterlaboss/ingestor-sdk/internal/bigtable"
	"github.com/dexterlaboss/ingestor-sdk/internal/hbase"
)

func TestBigtableCellConversionRoundTrip(t *testing.T) {
	cells := bigtable.RowData{{Name: "proto", Value: []byte("a")}, {Name: "bin", Value: []byte("b")}}
	local := fromBigtableCells(cells)
	require.Equal(t, RowData{{Name: "proto", Value: []byte("a")}, {Name: "bin", Value: []byte("b")}}, local)
	require.Equal(t, cells, toBigtableCells(local))
}

func TestHBaseCellConversionRoundTrip(t *testing.T) {
	cells := hbase.RowData{{Name: "proto", Value: []byte("x")}}
	local := fromHBaseCells(cells)
	require.Equal(t, RowData{{Name: "proto", Value: []byte("x")}}, local)
	require.Equal(t, cells, toHBaseCells(local))
}

func TestFromBigtableRows(t *testing.T) {
	rows := []bigtable.RowKeyedData{{Key: "k1", Data: bigtable.RowData{{Name: "proto", Value: []byte("v")}}}}
	out := fromBigtableRows(rows)
	require.Len(t, out, 1)
	require.Equal(t, "k1", out[0].Key)
	require.Equal(t, []byte("v"), out[0].Data[0].Value)
}

func TestFromHBaseRows(t *testing.T) {
	rows := []hbase.KeyedRowData{{Key: "k2", Data: hbase.RowData{{Name: "bin", Value: []byte("w")}}}}
	out := fromHBaseRows(rows)
	require.Len(t, out, 1)
	require.Equal(t, "k2", out[0].Key)
	require.Equal(t, []byte("w"), out[0].Data[0].Value)
}

func TestFindCell(t *testing.T) {
	row := RowData{{Name: "proto", Value: []byte("p")}, {Name: "bin", Value: []byte("b")}}
	v, ok := findCell(row, "bin")
	require.True(t, ok)
	require.Equal(t, []byte("b"), v)

	_, ok = findCell(row, "missing")
	require.False(t, ok)
}
