// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package hbase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// Client is the subset of the generated Hbase.thrift service surface this
// package drives. Splitting it out from thriftClient's concrete wire
// encoding lets tests substitute a fake without a real TCP/thrift server,
// the same seam internal/bigtable uses for btpb.BigtableClient.
type Client interface {
	ScannerOpenWithScan(ctx context.Context, table []byte, scan *TScan) (int32, error)
	ScannerGetList(ctx context.Context, scannerID int32, nbRows int32) ([]TRowResult, error)
	ScannerClose(ctx context.Context, scannerID int32) error
	GetRowWithColumns(ctx context.Context, table, row []byte, columns [][]byte) ([]TRowResult, error)
	MutateRows(ctx context.Context, table []byte, rowBatches []BatchMutation) error
}

// thriftClient drives the Hbase thrift1 service over a caller-supplied
// transport/protocol pair (see connection.go). Each method hand-encodes the
// call the way thrift codegen would: write the implicit "_args" struct,
// flush, then decode the implicit "_result" struct, checking for an
// application exception first.
type thriftClient struct {
	trans thrift.TTransport
	oprot thrift.TProtocol
	iprot thrift.TProtocol
	seqID int32
}

func newThriftClient(trans thrift.TTransport, oprot, iprot thrift.TProtocol) *thriftClient {
	return &thriftClient{trans: trans, oprot: oprot, iprot: iprot}
}

func (c *thriftClient) Close() error {
	return c.trans.Close()
}

func (c *thriftClient) nextSeqID() int32 {
	return int32(atomic.AddInt32(&c.seqID, 1))
}

// call sends method name + args (writeArgs) as a CALL message and reads
// back the result, dispatching successful payloads to readResult. Thrift
// application-level exceptions (TApplicationException) and the
// declared-exception slot (result field 1, always skipped here since this
// package surfaces failures as plain Go errors) are handled uniformly.
func (c *thriftClient) call(ctx context.Context, method string, writeArgs func() error, readResult func(iprot thrift.TProtocol) error) error {
	seqID := c.nextSeqID()
	if err := c.oprot.WriteMessageBegin(ctx, method, thrift.CALL, seqID); err != nil {
		return wrapThrift(err)
	}
	if err := writeArgs(); err != nil {
		return wrapThrift(err)
	}
	if err := c.oprot.WriteMessageEnd(ctx); err != nil {
		return wrapThrift(err)
	}
	if err := c.oprot.Flush(ctx); err != nil {
		return wrapThrift(err)
	}

	_, msgType, _, err := c.iprot.ReadMessageBegin(ctx)
	if err != nil {
		return wrapThrift(err)
	}
	if msgType == thrift.EXCEPTION {
		exc := thrift.NewTApplicationException(thrift.UNKNOWN_APPLICATION_EXCEPTION, "")
		exc, err := exc.Read(ctx, c.iprot)
		if err != nil {
			return wrapThrift(err)
		}
		if err := c.iprot.ReadMessageEnd(ctx); err != nil {
			return wrapThrift(err)
		}
		return fmt.Errorf("hbase: %s: %w: %v", method, ledgertypes.ErrThrift, exc)
	}

	if err := readResult(c.iprot); err != nil {
		return wrapThrift(err)
	}
	return c.iprot.ReadMessageEnd(ctx)
}

func wrapThrift(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("hbase: %w: %v", ledgertypes.ErrThrift, err)
}

// readResultEnvelope walks a "_result" struct, handing field 0 (the RPC's
// success value) to onSuccess and skipping anything else (declared
// exceptions this package doesn't special-case -- their presence alone is
// enough to know the call failed, surfaced generically below).
func readResultEnvelope(ctx context.Context, iprot thrift.TProtocol, onSuccess func() error) error {
	if _, err := iprot.ReadStructBegin(ctx); err != nil {
		return err
	}
	sawSuccess := false
	var declaredErr error
	for {
		_, fieldType, id, err := iprot.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		if id == 0 {
			if err := onSuccess(); err != nil {
				return err
			}
			sawSuccess = true
		} else {
			if fieldType == thrift.STRUCT && declaredErr == nil {
				declaredErr = fmt.Errorf("hbase: rpc returned declared exception field %d", id)
			}
			if err := iprot.Skip(ctx, fieldType); err != nil {
				return err
			}
		}
		if err := iprot.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := iprot.ReadStructEnd(ctx); err != nil {
		return err
	}
	if !sawSuccess && declaredErr != nil {
		return declaredErr
	}
	return nil
}

func (c *thriftClient) ScannerOpenWithScan(ctx context.Context, table []byte, scan *TScan) (int32, error) {
	var scannerID int32
	err := c.call(ctx, "scannerOpenWithScan",
		func() error {
			if err := c.oprot.WriteStructBegin(ctx, "scannerOpenWithScan_args"); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "tableName", thrift.STRING, 1, func() error { return c.oprot.WriteBinary(ctx, table) }); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "scan", thrift.STRUCT, 2, func() error { return scan.Write(ctx, c.oprot) }); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "attributes", thrift.MAP, 3, func() error {
				if err := c.oprot.WriteMapBegin(ctx, thrift.STRING, thrift.STRING, 0); err != nil {
					return err
				}
				return c.oprot.WriteMapEnd(ctx)
			}); err != nil {
				return err
			}
			if err := c.oprot.WriteFieldStop(ctx); err != nil {
				return err
			}
			return c.oprot.WriteStructEnd(ctx)
		},
		func(iprot thrift.TProtocol) error {
			return readResultEnvelope(ctx, iprot, func() error {
				var err error
				scannerID, err = iprot.ReadI32(ctx)
				return err
			})
		},
	)
	return scannerID, err
}

func (c *thriftClient) ScannerGetList(ctx context.Context, scannerID int32, nbRows int32) ([]TRowResult, error) {
	var rows []TRowResult
	err := c.call(ctx, "scannerGetList",
		func() error {
			if err := c.oprot.WriteStructBegin(ctx, "scannerGetList_args"); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "id", thrift.I32, 1, func() error { return c.oprot.WriteI32(ctx, scannerID) }); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "nbRows", thrift.I32, 2, func() error { return c.oprot.WriteI32(ctx, nbRows) }); err != nil {
				return err
			}
			if err := c.oprot.WriteFieldStop(ctx); err != nil {
				return err
			}
			return c.oprot.WriteStructEnd(ctx)
		},
		func(iprot thrift.TProtocol) error {
			return readResultEnvelope(ctx, iprot, func() error {
				_, size, err := iprot.ReadListBegin(ctx)
				if err != nil {
					return err
				}
				for i := 0; i < size; i++ {
					row, err := readTRowResult(ctx, iprot)
					if err != nil {
						return err
					}
					rows = append(rows, row)
				}
				return iprot.ReadListEnd(ctx)
			})
		},
	)
	return rows, err
}

func (c *thriftClient) ScannerClose(ctx context.Context, scannerID int32) error {
	return c.call(ctx, "scannerClose",
		func() error {
			if err := c.oprot.WriteStructBegin(ctx, "scannerClose_args"); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "id", thrift.I32, 1, func() error { return c.oprot.WriteI32(ctx, scannerID) }); err != nil {
				return err
			}
			if err := c.oprot.WriteFieldStop(ctx); err != nil {
				return err
			}
			return c.oprot.WriteStructEnd(ctx)
		},
		func(iprot thrift.TProtocol) error {
			return readResultEnvelope(ctx, iprot, func() error { return nil })
		},
	)
}

func (c *thriftClient) GetRowWithColumns(ctx context.Context, table, row []byte, columns [][]byte) ([]TRowResult, error) {
	var rows []TRowResult
	err := c.call(ctx, "getRowWithColumns",
		func() error {
			if err := c.oprot.WriteStructBegin(ctx, "getRowWithColumns_args"); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "tableName", thrift.STRING, 1, func() error { return c.oprot.WriteBinary(ctx, table) }); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "row", thrift.STRING, 2, func() error { return c.oprot.WriteBinary(ctx, row) }); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "columns", thrift.LIST, 3, func() error {
				if err := c.oprot.WriteListBegin(ctx, thrift.STRING, len(columns)); err != nil {
					return err
				}
				for _, col := range columns {
					if err := c.oprot.WriteBinary(ctx, col); err != nil {
						return err
					}
				}
				return c.oprot.WriteListEnd(ctx)
			}); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "attributes", thrift.MAP, 4, func() error {
				if err := c.oprot.WriteMapBegin(ctx, thrift.STRING, thrift.STRING, 0); err != nil {
					return err
				}
				return c.oprot.WriteMapEnd(ctx)
			}); err != nil {
				return err
			}
			if err := c.oprot.WriteFieldStop(ctx); err != nil {
				return err
			}
			return c.oprot.WriteStructEnd(ctx)
		},
		func(iprot thrift.TProtocol) error {
			return readResultEnvelope(ctx, iprot, func() error {
				_, size, err := iprot.ReadListBegin(ctx)
				if err != nil {
					return err
				}
				for i := 0; i < size; i++ {
					row, err := readTRowResult(ctx, iprot)
					if err != nil {
						return err
					}
					rows = append(rows, row)
				}
				return iprot.ReadListEnd(ctx)
			})
		},
	)
	return rows, err
}

func (c *thriftClient) MutateRows(ctx context.Context, table []byte, rowBatches []BatchMutation) error {
	return c.call(ctx, "mutateRows",
		func() error {
			if err := c.oprot.WriteStructBegin(ctx, "mutateRows_args"); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "tableName", thrift.STRING, 1, func() error { return c.oprot.WriteBinary(ctx, table) }); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "rowBatches", thrift.LIST, 2, func() error {
				if err := c.oprot.WriteListBegin(ctx, thrift.STRUCT, len(rowBatches)); err != nil {
					return err
				}
				for _, b := range rowBatches {
					if err := b.Write(ctx, c.oprot); err != nil {
						return err
					}
				}
				return c.oprot.WriteListEnd(ctx)
			}); err != nil {
				return err
			}
			if err := writeField(ctx, c.oprot, "attributes", thrift.MAP, 3, func() error {
				if err := c.oprot.WriteMapBegin(ctx, thrift.STRING, thrift.STRING, 0); err != nil {
					return err
				}
				return c.oprot.WriteMapEnd(ctx)
			}); err != nil {
				return err
			}
			if err := c.oprot.WriteFieldStop(ctx); err != nil {
				return err
			}
			return c.oprot.WriteStructEnd(ctx)
		},
		func(iprot thrift.TProtocol) error {
			return readResultEnvelope(ctx, iprot, func() error { return nil })
		},
	)
}
