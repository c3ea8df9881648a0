// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package hbase is backend B (C5): a thrift1-gateway client for Apache
// HBase, providing the same row-key/row-data read surface and a batched
// mutate path, scoped-acquisition scanner semantics grounded on
// original_source/hbase-reader/src/hbase.rs and
// original_source/hbase-writer/src/hbase.rs.
package hbase

import (
	"fmt"
	"time"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
)

// Config configures a Connection to an HBase thrift1 gateway.
type Config struct {
	HostPort string
	Timeout  time.Duration
}

// Connection owns one thrift socket/transport pair. Unlike Bigtable's
// streaming ReadRows, the Hbase thrift service is a plain request/response
// RPC, so one Connection is one serially-used client -- concurrent callers
// need one Connection each.
type Connection struct {
	client  *thriftClient
	timeout time.Duration
}

// Dial opens a buffered, binary-protocol thrift connection to cfg.HostPort.
func Dial(cfg Config) (*Connection, error) {
	thriftConf := &thrift.TConfiguration{
		ConnectTimeout: cfg.Timeout,
		SocketTimeout:  cfg.Timeout,
	}
	socket := thrift.NewTSocketConf(cfg.HostPort, thriftConf)
	transport := thrift.NewTBufferedTransport(socket, 8192)
	if err := transport.Open(); err != nil {
		return nil, fmt.Errorf("hbase: dial %s: %w: %v", cfg.HostPort, ledgertypes.ErrTransport, err)
	}

	protoFactory := thrift.NewTBinaryProtocolFactoryConf(thriftConf)
	iprot := protoFactory.GetProtocol(transport)
	oprot := protoFactory.GetProtocol(transport)

	return &Connection{
		client:  newThriftClient(transport, oprot, iprot),
		timeout: cfg.Timeout,
	}, nil
}

// Close releases the underlying socket.
func (c *Connection) Close() error {
	return c.client.Close()
}

// Client returns an HBase handle bound to this connection.
func (c *Connection) Client() *HBase {
	return &HBase{client: c.client, timeout: c.timeout}
}
