// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package ledgerstorage

import (
	"context"
	"sort"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// fakeBackend is an in-memory Backend used to exercise reader/writer logic
// without a real bigtable/hbase connection.
type fakeBackend struct {
	tables map[string]map[string]RowData
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{tables: make(map[string]map[string]RowData)}
}

func (f *fakeBackend) sortedKeys(table, startAt, endAt string) []string {
	rows := f.tables[table]
	keys := make([]string, 0, len(rows))
	for k := range rows {
		if startAt != "" && k < startAt {
			continue
		}
		if endAt != "" && k > endAt {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeBackend) GetRowKeys(_ context.Context, table, startAt, endAt string, rowsLimit int64, reversed bool) ([]string, error) {
	keys := f.sortedKeys(table, startAt, endAt)
	if reversed {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	if rowsLimit >= 0 && int64(len(keys)) > rowsLimit {
		keys = keys[:rowsLimit]
	}
	return keys, nil
}

func (f *fakeBackend) GetRowData(_ context.Context, table, startAt, endAt string, rowsLimit int64) ([]KeyedRowData, error) {
	keys := f.sortedKeys(table, startAt, endAt)
	if rowsLimit >= 0 && int64(len(keys)) > rowsLimit {
		keys = keys[:rowsLimit]
	}
	out := make([]KeyedRowData, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyedRowData{Key: k, Data: f.tables[table][k]})
	}
	return out, nil
}

func (f *fakeBackend) GetSingleRowData(_ context.Context, table, rowKey string) (RowData, error) {
	rows, ok := f.tables[table]
	if !ok {
		return nil, ledgertypes.ErrRowNotFound
	}
	row, ok := rows[rowKey]
	if !ok {
		return nil, ledgertypes.ErrRowNotFound
	}
	return row, nil
}

func (f *fakeBackend) PutRowData(_ context.Context, table string, rows []KeyedRowData, _ bool) error {
	dst, ok := f.tables[table]
	if !ok {
		dst = make(map[string]RowData)
		f.tables[table] = dst
	}
	for _, r := range rows {
		dst[r.Key] = r.Data
	}
	return nil
}
