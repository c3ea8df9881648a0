// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package bigtable

import (
	"context"
	"io"
	"testing"
	"time"

	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// fakeReadRowsClient replays a canned sequence of ReadRowsResponse messages.
// Embedding the (nil) interface satisfies btpb.Bigtable_ReadRowsClient
// without implementing every grpc.ClientStream method this package never
// calls.
type fakeReadRowsClient struct {
	btpb.Bigtable_ReadRowsClient
	responses []*btpb.ReadRowsResponse
	idx       int
}

func (f *fakeReadRowsClient) Recv() (*btpb.ReadRowsResponse, error) {
	if f.idx >= len(f.responses) {
		return nil, io.EOF
	}
	r := f.responses[f.idx]
	f.idx++
	return r, nil
}

type fakeBigtableClient struct {
	btpb.BigtableClient
	stream       btpb.Bigtable_ReadRowsClient
	err          error
	mutateStream btpb.Bigtable_MutateRowsClient
	mutateErr    error
	lastReadReq  *btpb.ReadRowsRequest
}

func (f *fakeBigtableClient) ReadRows(ctx context.Context, in *btpb.ReadRowsRequest, opts ...grpc.CallOption) (btpb.Bigtable_ReadRowsClient, error) {
	f.lastReadReq = in
	return f.stream, f.err
}

func (f *fakeBigtableClient) MutateRows(ctx context.Context, in *btpb.MutateRowsRequest, opts ...grpc.CallOption) (btpb.Bigtable_MutateRowsClient, error) {
	return f.mutateStream, f.mutateErr
}

// fakeMutateRowsClient replays a canned sequence of MutateRowsResponse
// messages, the write-path counterpart of fakeReadRowsClient.
type fakeMutateRowsClient struct {
	btpb.Bigtable_MutateRowsClient
	responses []*btpb.MutateRowsResponse
	idx       int
}

func (f *fakeMutateRowsClient) Recv() (*btpb.MutateRowsResponse, error) {
	if f.idx >= len(f.responses) {
		return nil, io.EOF
	}
	r := f.responses[f.idx]
	f.idx++
	return r, nil
}

func qualifier(name string) *wrapperspb.BytesValue {
	return &wrapperspb.BytesValue{Value: []byte(name)}
}

func newTestBigTable(responses []*btpb.ReadRowsResponse) *BigTable {
	return &BigTable{
		client:       &fakeBigtableClient{stream: &fakeReadRowsClient{responses: responses}},
		tablePrefix:  "projects/p/instances/i/tables/",
		appProfileID: "",
	}
}

func TestDecodeReadRowsResponseReassemblesSplitCell(t *testing.T) {
	bt := newTestBigTable([]*btpb.ReadRowsResponse{
		{Chunks: []*btpb.ReadRowsResponse_CellChunk{
			{
				RowKey:          []byte("row1"),
				Qualifier:       qualifier("data"),
				TimestampMicros: 100,
				Value:           []byte("hello "),
			},
			{
				Value:     []byte("world"),
				RowStatus: &btpb.ReadRowsResponse_CellChunk_CommitRow{CommitRow: true},
			},
		}},
	})

	stream, err := bt.client.ReadRows(context.Background(), &btpb.ReadRowsRequest{})
	require.NoError(t, err)
	rows, err := bt.decodeReadRowsResponse(stream)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "row1", rows[0].Key)
	require.Equal(t, RowData{{Name: "data", Value: []byte("hello world")}}, rows[0].Data)
}

func TestDecodeReadRowsResponseDropsStaleVersion(t *testing.T) {
	bt := newTestBigTable([]*btpb.ReadRowsResponse{
		{Chunks: []*btpb.ReadRowsResponse_CellChunk{
			{
				RowKey:          []byte("row1"),
				Qualifier:       qualifier("data"),
				TimestampMicros: 100,
				Value:           []byte("aaa"),
			},
			{
				TimestampMicros: 50, // older version of the same cell
				Value:           []byte("bbb"),
			},
			{
				RowStatus: &btpb.ReadRowsResponse_CellChunk_CommitRow{CommitRow: true},
			},
		}},
	})

	stream, err := bt.client.ReadRows(context.Background(), &btpb.ReadRowsRequest{})
	require.NoError(t, err)
	rows, err := bt.decodeReadRowsResponse(stream)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, []byte("aaa"), rows[0].Data[0].Value)
}

func TestDecodeReadRowsResponseResetRowDiscardsState(t *testing.T) {
	bt := newTestBigTable([]*btpb.ReadRowsResponse{
		{Chunks: []*btpb.ReadRowsResponse_CellChunk{
			{
				RowKey:          []byte("row1"),
				Qualifier:       qualifier("data"),
				TimestampMicros: 1,
				Value:           []byte("partial"),
			},
			{
				RowStatus: &btpb.ReadRowsResponse_CellChunk_ResetRow{ResetRow: true},
			},
			{
				RowKey:          []byte("row2"),
				Qualifier:       qualifier("data"),
				TimestampMicros: 1,
				Value:           []byte("ok"),
			},
			{
				RowStatus: &btpb.ReadRowsResponse_CellChunk_CommitRow{CommitRow: true},
			},
		}},
	})

	stream, err := bt.client.ReadRows(context.Background(), &btpb.ReadRowsRequest{})
	require.NoError(t, err)
	rows, err := bt.decodeReadRowsResponse(stream)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "row2", rows[0].Key)
}

func TestDecodeReadRowsResponseTimeout(t *testing.T) {
	bt := newTestBigTable(nil)
	bt.timeout = time.Nanosecond
	time.Sleep(time.Millisecond)

	stream, err := bt.client.ReadRows(context.Background(), &btpb.ReadRowsRequest{})
	require.NoError(t, err)
	_, err = bt.decodeReadRowsResponse(stream)
	require.ErrorIs(t, err, ledgertypes.ErrTimeout)
}

func TestGetRowKeysZeroLimitReturnsEmpty(t *testing.T) {
	bt := newTestBigTable(nil)
	keys, err := bt.GetRowKeys(context.Background(), "blocks", "", "", 0, false)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestGetRowKeysReversedSetsRequestFlag(t *testing.T) {
	bt := newTestBigTable([]*btpb.ReadRowsResponse{})
	_, err := bt.GetRowKeys(context.Background(), "blocks", "", "", 1, true)
	require.NoError(t, err)
	fake := bt.client.(*fakeBigtableClient)
	require.True(t, fake.lastReadReq.GetReversed())
}

func TestPutRowDataSendsSetCellMutations(t *testing.T) {
	bt := newTestBigTable(nil)
	bt.client = &fakeBigtableClient{mutateStream: &fakeMutateRowsClient{
		responses: []*btpb.MutateRowsResponse{
			{Entries: []*btpb.MutateRowsResponse_Entry{{Index: 0, Status: &status.Status{Code: 0}}}},
		},
	}}

	err := bt.PutRowData(context.Background(), "tx_full", []RowMutation{
		{Key: "sig1", Cells: RowData{{Name: "proto", Value: []byte("payload")}}},
	})
	require.NoError(t, err)
}

func TestPutRowDataSurfacesPerEntryFailure(t *testing.T) {
	bt := newTestBigTable(nil)
	bt.client = &fakeBigtableClient{mutateStream: &fakeMutateRowsClient{
		responses: []*btpb.MutateRowsResponse{
			{Entries: []*btpb.MutateRowsResponse_Entry{{Index: 0, Status: &status.Status{Code: 13, Message: "internal"}}}},
		},
	}}

	err := bt.PutRowData(context.Background(), "tx_full", []RowMutation{
		{Key: "sig1", Cells: RowData{{Name: "proto", Value: []byte("payload")}}},
	})
	require.ErrorIs(t, err, ledgertypes.ErrRowWriteFailed)
}

func TestGetSingleRowDataNotFound(t *testing.T) {
	bt := newTestBigTable([]*btpb.ReadRowsResponse{})
	_, err := bt.GetSingleRowData(context.Background(), "blocks", "missing")
	require.ErrorIs(t, err, ledgertypes.ErrRowNotFound)
}

func TestRowKeyExists(t *testing.T) {
	bt := newTestBigTable([]*btpb.ReadRowsResponse{
		{Chunks: []*btpb.ReadRowsResponse_CellChunk{
			{
				RowKey:    []byte("row1"),
				Qualifier: qualifier("x"),
				RowStatus: &btpb.ReadRowsResponse_CellChunk_CommitRow{CommitRow: true},
			},
		}},
	})
	ok, err := bt.RowKeyExists(context.Background(), "blocks", "row1")
	require.NoError(t, err)
	require.True(t, ok)
}
