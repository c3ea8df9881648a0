// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package hbase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// fakeClient replays canned scanner/get/mutate results without a real
// thrift1 gateway, the same seam internal/bigtable uses for its fake
// btpb.BigtableClient.
type fakeClient struct {
	scannerRows  [][]TRowResult // one slice per ScannerGetList call, in order
	getRowResult []TRowResult
	getRowErr    error
	mutateErr    error
	closed       bool
	mutated      []BatchMutation
}

func (f *fakeClient) ScannerOpenWithScan(ctx context.Context, table []byte, scan *TScan) (int32, error) {
	return 1, nil
}

func (f *fakeClient) ScannerGetList(ctx context.Context, scannerID int32, nbRows int32) ([]TRowResult, error) {
	if len(f.scannerRows) == 0 {
		return nil, nil
	}
	next := f.scannerRows[0]
	f.scannerRows = f.scannerRows[1:]
	return next, nil
}

func (f *fakeClient) ScannerClose(ctx context.Context, scannerID int32) error {
	f.closed = true
	return nil
}

func (f *fakeClient) GetRowWithColumns(ctx context.Context, table, row []byte, columns [][]byte) ([]TRowResult, error) {
	return f.getRowResult, f.getRowErr
}

func (f *fakeClient) MutateRows(ctx context.Context, table []byte, rowBatches []BatchMutation) error {
	f.mutated = rowBatches
	return f.mutateErr
}

func TestGetRowKeysPaginatesUntilLimit(t *testing.T) {
	fc := &fakeClient{
		scannerRows: [][]TRowResult{
			{{Row: []byte("a")}, {Row: []byte("b")}},
			{{Row: []byte("c")}},
		},
	}
	h := &HBase{client: fc}

	keys, err := h.GetRowKeys(context.Background(), "blocks", "", "", 3, false)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, keys)
	require.True(t, fc.closed)
}

func TestGetRowKeysZeroLimitReturnsEmpty(t *testing.T) {
	h := &HBase{client: &fakeClient{}}
	keys, err := h.GetRowKeys(context.Background(), "blocks", "", "", 0, false)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestGetRowDataDecodesColumns(t *testing.T) {
	fc := &fakeClient{
		scannerRows: [][]TRowResult{
			{{Row: []byte("slot1"), Columns: map[string]TCell{"bin": {Value: []byte("payload")}}}},
		},
	}
	h := &HBase{client: fc}

	rows, err := h.GetRowData(context.Background(), "blocks", "", "", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "slot1", rows[0].Key)
	require.Equal(t, RowData{{Name: "bin", Value: []byte("payload")}}, rows[0].Data)
}

func TestGetSingleRowDataNotFound(t *testing.T) {
	h := &HBase{client: &fakeClient{getRowResult: nil}}
	_, err := h.GetSingleRowData(context.Background(), "blocks", "missing")
	require.ErrorIs(t, err, ledgertypes.ErrRowNotFound)
}

func TestGetSingleRowDataFound(t *testing.T) {
	fc := &fakeClient{getRowResult: []TRowResult{
		{Columns: map[string]TCell{"bin": {Value: []byte("x")}}},
	}}
	h := &HBase{client: fc}

	data, err := h.GetSingleRowData(context.Background(), "blocks", "row1")
	require.NoError(t, err)
	require.Equal(t, RowData{{Name: "bin", Value: []byte("x")}}, data)
}

func TestGetLastRowKey(t *testing.T) {
	fc := &fakeClient{scannerRows: [][]TRowResult{{{Row: []byte("zz")}}}}
	h := &HBase{client: fc}

	key, err := h.GetLastRowKey(context.Background(), "blocks")
	require.NoError(t, err)
	require.Equal(t, "zz", key)
}

func TestGetLastRowKeyEmptyTable(t *testing.T) {
	h := &HBase{client: &fakeClient{}}
	_, err := h.GetLastRowKey(context.Background(), "blocks")
	require.ErrorIs(t, err, ledgertypes.ErrRowNotFound)
}

func TestPutRowDataBuildsMutations(t *testing.T) {
	fc := &fakeClient{}
	h := &HBase{client: fc}

	err := h.PutRowData(context.Background(), "blocks", []KeyedRowData{
		{Key: "row1", Data: RowData{{Name: "bin", Value: []byte("v")}}},
	}, false)
	require.NoError(t, err)
	require.Len(t, fc.mutated, 1)
	require.Equal(t, "row1", string(fc.mutated[0].Row))
	require.Equal(t, "x:bin", string(fc.mutated[0].Mutations[0].Column))
	require.False(t, fc.mutated[0].Mutations[0].WriteToWAL)
}

func TestPutRowDataWrapsFailure(t *testing.T) {
	fc := &fakeClient{mutateErr: require.AnError}
	h := &HBase{client: fc}

	err := h.PutRowData(context.Background(), "blocks", []KeyedRowData{{Key: "r", Data: RowData{{Name: "bin"}}}}, true)
	require.ErrorIs(t, err, ledgertypes.ErrRowWriteFailed)
}
