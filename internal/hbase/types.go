// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package hbase

import (
	"context"

	"github.com/apache/thrift/lib/go/thrift"
)

// The wire structs below mirror Apache HBase's Hbase.thrift IDL (the
// "Hbase" service used by the legacy thrift1 gateway). There is no
// off-the-shelf Go package generated from that IDL, so these are
// hand-maintained the way thrift codegen would produce them -- one
// Write/Read pair per struct, field numbers matching the IDL exactly.

// TScan mirrors struct TScan.
type TScan struct {
	StartRow     []byte
	StopRow      []byte
	Timestamp    *int64
	Columns      [][]byte
	Caching      *int32
	FilterString []byte
	BatchSize    *int32
	SortColumns  *bool
	Reversed     *bool
	CacheBlocks  *bool
}

func (s *TScan) Write(ctx context.Context, oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin(ctx, "TScan"); err != nil {
		return err
	}
	if s.StartRow != nil {
		if err := writeField(ctx, oprot, "startRow", thrift.STRING, 1, func() error { return oprot.WriteBinary(ctx, s.StartRow) }); err != nil {
			return err
		}
	}
	if s.StopRow != nil {
		if err := writeField(ctx, oprot, "stopRow", thrift.STRING, 2, func() error { return oprot.WriteBinary(ctx, s.StopRow) }); err != nil {
			return err
		}
	}
	if s.Timestamp != nil {
		if err := writeField(ctx, oprot, "timestamp", thrift.I64, 3, func() error { return oprot.WriteI64(ctx, *s.Timestamp) }); err != nil {
			return err
		}
	}
	if s.Columns != nil {
		if err := writeField(ctx, oprot, "columns", thrift.LIST, 4, func() error {
			if err := oprot.WriteListBegin(ctx, thrift.STRING, len(s.Columns)); err != nil {
				return err
			}
			for _, c := range s.Columns {
				if err := oprot.WriteBinary(ctx, c); err != nil {
					return err
				}
			}
			return oprot.WriteListEnd(ctx)
		}); err != nil {
			return err
		}
	}
	if s.Caching != nil {
		if err := writeField(ctx, oprot, "caching", thrift.I32, 5, func() error { return oprot.WriteI32(ctx, *s.Caching) }); err != nil {
			return err
		}
	}
	if s.FilterString != nil {
		if err := writeField(ctx, oprot, "filterString", thrift.STRING, 6, func() error { return oprot.WriteBinary(ctx, s.FilterString) }); err != nil {
			return err
		}
	}
	if s.BatchSize != nil {
		if err := writeField(ctx, oprot, "batchSize", thrift.I32, 7, func() error { return oprot.WriteI32(ctx, *s.BatchSize) }); err != nil {
			return err
		}
	}
	if s.SortColumns != nil {
		if err := writeField(ctx, oprot, "sortColumns", thrift.BOOL, 8, func() error { return oprot.WriteBool(ctx, *s.SortColumns) }); err != nil {
			return err
		}
	}
	if s.Reversed != nil {
		if err := writeField(ctx, oprot, "reversed", thrift.BOOL, 9, func() error { return oprot.WriteBool(ctx, *s.Reversed) }); err != nil {
			return err
		}
	}
	if s.CacheBlocks != nil {
		if err := writeField(ctx, oprot, "cacheBlocks", thrift.BOOL, 10, func() error { return oprot.WriteBool(ctx, *s.CacheBlocks) }); err != nil {
			return err
		}
	}
	if err := oprot.WriteFieldStop(ctx); err != nil {
		return err
	}
	return oprot.WriteStructEnd(ctx)
}

// Mutation mirrors struct Mutation.
type Mutation struct {
	IsDelete   bool
	Column     []byte
	Value      []byte
	WriteToWAL bool
}

func (m Mutation) Write(ctx context.Context, oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin(ctx, "Mutation"); err != nil {
		return err
	}
	if err := writeField(ctx, oprot, "isDelete", thrift.BOOL, 1, func() error { return oprot.WriteBool(ctx, m.IsDelete) }); err != nil {
		return err
	}
	if err := writeField(ctx, oprot, "column", thrift.STRING, 2, func() error { return oprot.WriteBinary(ctx, m.Column) }); err != nil {
		return err
	}
	if err := writeField(ctx, oprot, "value", thrift.STRING, 3, func() error { return oprot.WriteBinary(ctx, m.Value) }); err != nil {
		return err
	}
	if err := writeField(ctx, oprot, "writeToWAL", thrift.BOOL, 4, func() error { return oprot.WriteBool(ctx, m.WriteToWAL) }); err != nil {
		return err
	}
	if err := oprot.WriteFieldStop(ctx); err != nil {
		return err
	}
	return oprot.WriteStructEnd(ctx)
}

// BatchMutation mirrors struct BatchMutation: one row plus the mutations to
// apply to it in a single mutateRows call.
type BatchMutation struct {
	Row       []byte
	Mutations []Mutation
}

func (b BatchMutation) Write(ctx context.Context, oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin(ctx, "BatchMutation"); err != nil {
		return err
	}
	if err := writeField(ctx, oprot, "row", thrift.STRING, 1, func() error { return oprot.WriteBinary(ctx, b.Row) }); err != nil {
		return err
	}
	if err := writeField(ctx, oprot, "mutations", thrift.LIST, 2, func() error {
		if err := oprot.WriteListBegin(ctx, thrift.STRUCT, len(b.Mutations)); err != nil {
			return err
		}
		for _, m := range b.Mutations {
			if err := m.Write(ctx, oprot); err != nil {
				return err
			}
		}
		return oprot.WriteListEnd(ctx)
	}); err != nil {
		return err
	}
	if err := oprot.WriteFieldStop(ctx); err != nil {
		return err
	}
	return oprot.WriteStructEnd(ctx)
}

// TCell mirrors struct TCell: a single column value plus its write
// timestamp.
type TCell struct {
	Value     []byte
	Timestamp int64
}

func readTCell(ctx context.Context, iprot thrift.TProtocol) (TCell, error) {
	var cell TCell
	if _, err := iprot.ReadStructBegin(ctx); err != nil {
		return cell, err
	}
	for {
		_, fieldType, id, err := iprot.ReadFieldBegin(ctx)
		if err != nil {
			return cell, err
		}
		if fieldType == thrift.STOP {
			break
		}
		switch id {
		case 1:
			cell.Value, err = iprot.ReadBinary(ctx)
		case 2:
			cell.Timestamp, err = iprot.ReadI64(ctx)
		default:
			err = iprot.Skip(ctx, fieldType)
		}
		if err != nil {
			return cell, err
		}
		if err := iprot.ReadFieldEnd(ctx); err != nil {
			return cell, err
		}
	}
	return cell, iprot.ReadStructEnd(ctx)
}

// TRowResult mirrors struct TRowResult: a row key plus its column->cell map.
type TRowResult struct {
	Row     []byte
	Columns map[string]TCell
}

func readTRowResult(ctx context.Context, iprot thrift.TProtocol) (TRowResult, error) {
	row := TRowResult{Columns: map[string]TCell{}}
	if _, err := iprot.ReadStructBegin(ctx); err != nil {
		return row, err
	}
	for {
		_, fieldType, id, err := iprot.ReadFieldBegin(ctx)
		if err != nil {
			return row, err
		}
		if fieldType == thrift.STOP {
			break
		}
		switch id {
		case 1:
			row.Row, err = iprot.ReadBinary(ctx)
		case 2:
			err = readColumnsMap(ctx, iprot, row.Columns)
		default:
			err = iprot.Skip(ctx, fieldType)
		}
		if err != nil {
			return row, err
		}
		if err := iprot.ReadFieldEnd(ctx); err != nil {
			return row, err
		}
	}
	return row, iprot.ReadStructEnd(ctx)
}

func readColumnsMap(ctx context.Context, iprot thrift.TProtocol, dst map[string]TCell) error {
	_, _, size, err := iprot.ReadMapBegin(ctx)
	if err != nil {
		return err
	}
	for i := 0; i < size; i++ {
		key, err := iprot.ReadBinary(ctx)
		if err != nil {
			return err
		}
		cell, err := readTCell(ctx, iprot)
		if err != nil {
			return err
		}
		dst[string(key)] = cell
	}
	return iprot.ReadMapEnd(ctx)
}

func writeField(ctx context.Context, oprot thrift.TProtocol, name string, typeID thrift.TType, id int16, write func() error) error {
	if err := oprot.WriteFieldBegin(ctx, name, typeID, id); err != nil {
		return err
	}
	if err := write(); err != nil {
		return err
	}
	return oprot.WriteFieldEnd(ctx)
}
