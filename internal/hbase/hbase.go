// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package hbase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

const columnFamily = "x"

// RowData is a row's decoded column-qualifier -> value pairs, qualifier
// names already stripped of the "x:" column-family prefix.
type RowData []Cell

// Cell is one decoded (qualifier, value) pair.
type Cell struct {
	Name  string
	Value []byte
}

// KeyedRowData pairs a row key with its cell list, used by both
// GetRowData (read) and PutRowData (write).
type KeyedRowData struct {
	Key  string
	Data RowData
}

// HBase is a handle bound to one Connection, exposing the same row-key/
// row-data read surface as internal/bigtable plus a batched mutate path
// (spec.md §4.5).
type HBase struct {
	client  Client
	timeout time.Duration
}

func int32Ptr(v int32) *int32 { return &v }
func boolPtr(v bool) *bool    { return &v }

// scoped opens a scanner, runs fn, and closes the scanner whether fn
// succeeds or fails -- mirrors the reader's scanner_open/get_list/
// scanner_close sequencing, but guarantees release even on error, which
// the Rust code relied on `?` short-circuiting to approximate.
func (h *HBase) scoped(ctx context.Context, table string, scan *TScan, fn func(scannerID int32) error) error {
	scannerID, err := h.client.ScannerOpenWithScan(ctx, []byte(table), scan)
	if err != nil {
		return fmt.Errorf("hbase: scanner_open_with_scan: %w", err)
	}
	defer func() {
		_ = h.client.ScannerClose(ctx, scannerID)
	}()
	return fn(scannerID)
}

func toRowData(cols map[string]TCell) RowData {
	out := make(RowData, 0, len(cols))
	for name, cell := range cols {
		out = append(out, Cell{Name: strings.TrimPrefix(name, columnFamily+":"), Value: cell.Value})
	}
	return out
}

// GetRowKeys lists table's row keys in [startAt, endAt] (either bound
// empty means unbounded), up to rowsLimit keys (0 returns none), scanning
// in reverse when reversed is set. Grounded on get_row_keys in
// hbase-reader/src/hbase.rs: a "KeyOnlyFilter()" scan returning only row
// keys, batched via repeated scanner_get_list calls.
func (h *HBase) GetRowKeys(ctx context.Context, table, startAt, endAt string, rowsLimit int64, reversed bool) ([]string, error) {
	if rowsLimit == 0 {
		return nil, nil
	}

	scan := &TScan{
		BatchSize:    int32Ptr(int32(rowsLimit)),
		Caching:      int32Ptr(int32(rowsLimit)),
		Reversed:     boolPtr(reversed),
		FilterString: []byte("KeyOnlyFilter()"),
	}
	if startAt != "" {
		scan.StartRow = []byte(startAt)
	}
	if endAt != "" {
		scan.StopRow = []byte(endAt)
	}

	var keys []string
	err := h.scoped(ctx, table, scan, func(scannerID int32) error {
		for int64(len(keys)) < rowsLimit {
			rows, err := h.client.ScannerGetList(ctx, scannerID, int32(rowsLimit))
			if err != nil {
				return fmt.Errorf("hbase: scanner_get_list: %w", err)
			}
			if len(rows) == 0 {
				break
			}
			for _, r := range rows {
				keys = append(keys, string(r.Row))
				if int64(len(keys)) >= rowsLimit {
					break
				}
			}
		}
		return nil
	})
	return keys, err
}

// GetRowData reads the latest version of column family "x" from rows in
// [startAt, endAt], up to rowsLimit rows. Grounded on get_row_data in
// hbase-reader/src/hbase.rs, which scans column "x" with a
// "ColumnPaginationFilter(1,0)" filter to force exactly the latest cell.
func (h *HBase) GetRowData(ctx context.Context, table, startAt, endAt string, rowsLimit int64) ([]KeyedRowData, error) {
	if rowsLimit == 0 {
		return nil, nil
	}

	scan := &TScan{
		Columns:      [][]byte{[]byte(columnFamily)},
		BatchSize:    int32Ptr(int32(rowsLimit)),
		Caching:      int32Ptr(int32(rowsLimit)),
		FilterString: []byte("ColumnPaginationFilter(1,0)"),
	}
	if startAt != "" {
		scan.StartRow = []byte(startAt)
	}
	if endAt != "" {
		scan.StopRow = []byte(endAt)
	}

	var results []KeyedRowData
	err := h.scoped(ctx, table, scan, func(scannerID int32) error {
		for int64(len(results)) < rowsLimit {
			rows, err := h.client.ScannerGetList(ctx, scannerID, int32(rowsLimit))
			if err != nil {
				return fmt.Errorf("hbase: scanner_get_list: %w", err)
			}
			if len(rows) == 0 {
				break
			}
			for _, r := range rows {
				results = append(results, KeyedRowData{
					Key:  string(r.Row),
					Data: toRowData(r.Columns),
				})
				if int64(len(results)) >= rowsLimit {
					break
				}
			}
		}
		return nil
	})
	return results, err
}

// GetSingleRowData reads column family "x" of rowKey, or ErrRowNotFound if
// the row doesn't exist.
func (h *HBase) GetSingleRowData(ctx context.Context, table, rowKey string) (RowData, error) {
	rows, err := h.client.GetRowWithColumns(ctx, []byte(table), []byte(rowKey), [][]byte{[]byte(columnFamily)})
	if err != nil {
		return nil, fmt.Errorf("hbase: get_row_with_columns: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("hbase: row %q: %w", rowKey, ledgertypes.ErrRowNotFound)
	}
	return toRowData(rows[0].Columns), nil
}

// GetLastRowKey returns the lexically-last row key of table, i.e. the
// first key of a reversed, limit-1 scan.
func (h *HBase) GetLastRowKey(ctx context.Context, table string) (string, error) {
	keys, err := h.GetRowKeys(ctx, table, "", "", 1, true)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("hbase: %w", ledgertypes.ErrRowNotFound)
	}
	return keys[0], nil
}

// PutRowData writes cells (row key -> qualifier/value pairs) into column
// family "x" of table in a single mutateRows batch, honoring useWAL the
// way hbase-writer's put_row_data does.
func (h *HBase) PutRowData(ctx context.Context, table string, cells []KeyedRowData, useWAL bool) error {
	batches := make([]BatchMutation, 0, len(cells))
	for _, cell := range cells {
		mutations := make([]Mutation, 0, len(cell.Data))
		for _, kv := range cell.Data {
			mutations = append(mutations, Mutation{
				Column:     []byte(columnFamily + ":" + kv.Name),
				Value:      kv.Value,
				WriteToWAL: useWAL,
			})
		}
		batches = append(batches, BatchMutation{Row: []byte(cell.Key), Mutations: mutations})
	}

	if err := h.client.MutateRows(ctx, []byte(table), batches); err != nil {
		return fmt.Errorf("hbase: mutate_rows: %w: %v", ledgertypes.ErrRowWriteFailed, err)
	}
	return nil
}
