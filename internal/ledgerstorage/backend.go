// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgerstorage

import (
	"context"

	"github.com/dexterlaboss/ingestor-sdk/internal/bigtable"
	"github.com/dexterlaboss/ingestor-sdk/internal/hbase"
)

// Cell is one decoded (qualifier, value) pair, independent of which
// backend produced it.
type Cell struct {
	Name  string
	Value []byte
}

// RowData is a row's cells.
type RowData []Cell

// KeyedRowData pairs a row key with its cells, the common shape both
// GetRowData and PutRowData deal in.
type KeyedRowData struct {
	Key  string
	Data RowData
}

// Backend is the narrow surface the reader/writer adapter needs from
// either storage engine (spec.md §9 "Two backends, one adapter. Both
// backends expose point reads, limited range scans with a row cap, and a
// batched write with per-row cell sets. Do not attempt to present a
// federated view: the process is configured with exactly one backend at
// a time."). internal/bigtable.BigTable and internal/hbase.HBase each
// satisfy this through the adapter wrappers below.
type Backend interface {
	// GetRowKeys lists row keys in [startAt, endAt] (empty bound means
	// unbounded), up to rowsLimit (0 returns none), in reverse lexical
	// order when reversed is set.
	GetRowKeys(ctx context.Context, table, startAt, endAt string, rowsLimit int64, reversed bool) ([]string, error)
	// GetRowData reads up to rowsLimit whole rows in [startAt, endAt].
	GetRowData(ctx context.Context, table, startAt, endAt string, rowsLimit int64) ([]KeyedRowData, error)
	// GetSingleRowData reads one row by key, or ledgertypes.ErrRowNotFound.
	GetSingleRowData(ctx context.Context, table, rowKey string) (RowData, error)
	// PutRowData writes rows in one batch. useWAL is honored by the hbase
	// adapter and ignored by the bigtable adapter, which has no WAL.
	PutRowData(ctx context.Context, table string, rows []KeyedRowData, useWAL bool) error
}

// NewBigTableBackend adapts a *bigtable.BigTable to Backend.
func NewBigTableBackend(bt *bigtable.BigTable) Backend { return bigtableBackend{bt} }

// NewHBaseBackend adapts an *hbase.HBase to Backend.
func NewHBaseBackend(h *hbase.HBase) Backend { return hbaseBackend{h} }

type bigtableBackend struct{ bt *bigtable.BigTable }

func (b bigtableBackend) GetRowKeys(ctx context.Context, table, startAt, endAt string, rowsLimit int64, reversed bool) ([]string, error) {
	return b.bt.GetRowKeys(ctx, table, startAt, endAt, rowsLimit, reversed)
}

func (b bigtableBackend) GetRowData(ctx context.Context, table, startAt, endAt string, rowsLimit int64) ([]KeyedRowData, error) {
	rows, err := b.bt.GetRowData(ctx, table, startAt, endAt, rowsLimit)
	if err != nil {
		return nil, err
	}
	return fromBigtableRows(rows), nil
}

func (b bigtableBackend) GetSingleRowData(ctx context.Context, table, rowKey string) (RowData, error) {
	cells, err := b.bt.GetSingleRowData(ctx, table, rowKey)
	if err != nil {
		return nil, err
	}
	return fromBigtableCells(cells), nil
}

func (b bigtableBackend) PutRowData(ctx context.Context, table string, rows []KeyedRowData, _ bool) error {
	muts := make([]bigtable.RowMutation, 0, len(rows))
	for _, r := range rows {
		muts = append(muts, bigtable.RowMutation{Key: r.Key, Cells: toBigtableCells(r.Data)})
	}
	return b.bt.PutRowData(ctx, table, muts)
}

func fromBigtableCells(cells bigtable.RowData) RowData {
	out := make(RowData, len(cells))
	for i, c := range cells {
		out[i] = Cell{Name: c.Name, Value: c.Value}
	}
	return out
}

func toBigtableCells(cells RowData) bigtable.RowData {
	out := make(bigtable.RowData, len(cells))
	for i, c := range cells {
		out[i] = bigtable.Cell{Name: c.Name, Value: c.Value}
	}
	return out
}

func fromBigtableRows(rows []bigtable.RowKeyedData) []KeyedRowData {
	out := make([]KeyedRowData, len(rows))
	for i, r := range rows {
		out[i] = KeyedRowData{Key: r.Key, Data: fromBigtableCells(r.Data)}
	}
	return out
}

type hbaseBackend struct{ h *hbase.HBase }

func (b hbaseBackend) GetRowKeys(ctx context.Context, table, startAt, endAt string, rowsLimit int64, reversed bool) ([]string, error) {
	return b.h.GetRowKeys(ctx, table, startAt, endAt, rowsLimit, reversed)
}

func (b hbaseBackend) GetRowData(ctx context.Context, table, startAt, endAt string, rowsLimit int64) ([]KeyedRowData, error) {
	rows, err := b.h.GetRowData(ctx, table, startAt, endAt, rowsLimit)
	if err != nil {
		return nil, err
	}
	return fromHBaseRows(rows), nil
}

func (b hbaseBackend) GetSingleRowData(ctx context.Context, table, rowKey string) (RowData, error) {
	cells, err := b.h.GetSingleRowData(ctx, table, rowKey)
	if err != nil {
		return nil, err
	}
	return fromHBaseCells(cells), nil
}

func (b hbaseBackend) PutRowData(ctx context.Context, table string, rows []KeyedRowData, useWAL bool) error {
	cells := make([]hbase.KeyedRowData, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, hbase.KeyedRowData{Key: r.Key, Data: toHBaseCells(r.Data)})
	}
	return b.h.PutRowData(ctx, table, cells, useWAL)
}

func fromHBaseCells(cells hbase.RowData) RowData {
	out := make(RowData, len(cells))
	for i, c := range cells {
		out[i] = Cell{Name: c.Name, Value: c.Value}
	}
	return out
}

func toHBaseCells(cells RowData) hbase.RowData {
	out := make(hbase.RowData, len(cells))
	for i, c := range cells {
		out[i] = hbase.Cell{Name: c.Name, Value: c.Value}
	}
	return out
}

func fromHBaseRows(rows []hbase.KeyedRowData) []KeyedRowData {
	out := make([]KeyedRowData, len(rows))
	for i, r := range rows {
		out[i] = KeyedRowData{Key: r.Key, Data: fromHBaseCells(r.Data)}
	}
	return out
}

func findCell(row RowData, name string) ([]byte, bool) {
	for _, c := range row {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}
