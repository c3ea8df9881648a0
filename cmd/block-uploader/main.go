// Copyright 2024 The ingestor-sdk Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Command block-uploader reads one JSON-encoded confirmed block from
// standard input and uploads it to a configured storage backend
// (spec.md §4.8/§6). It is grounded on
// original_source/ingestor-kafka/src/bin/sol-block-uploader.rs and
// original_source/ingestor-kafka/src/cli.rs: unlike the original, stdin is
// read exactly once (the original reads it twice into the same buffer, a
// bug spec.md's Open Questions call out explicitly).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dexterlaboss/ingestor-sdk/internal/bigtable"
	"github.com/dexterlaboss/ingestor-sdk/internal/decoder"
	"github.com/dexterlaboss/ingestor-sdk/internal/hbase"
	"github.com/dexterlaboss/ingestor-sdk/internal/ledgercache"
	"github.com/dexterlaboss/ingestor-sdk/internal/ledgerstorage"
	"github.com/dexterlaboss/ingestor-sdk/internal/ledgertypes"
	"github.com/dexterlaboss/ingestor-sdk/internal/stats"
)

// cliFlags mirrors the spec.md §6 flag list plus the backend-selection
// flags spec.md leaves unspecified (no single backend is named there, but
// a real entry point has to pick one).
type cliFlags struct {
	disableTx               bool
	disableTxByAddr         bool
	disableBlocks           bool
	enableFullTx            bool
	useMD5RowKeySalt        bool
	filterTxByAddrPrograms  bool
	filterVotingTx          bool
	filterErrorTx           bool
	disableBlocksCompress   bool
	disableTxCompress       bool
	disableTxByAddrCompress bool
	disableTxFullCompress   bool
	enableFullTxCache       bool
	hbaseSkipWAL            bool

	txFullIncludeAddr   []string
	txFullExcludeAddr   []string
	txByAddrIncludeAddr []string
	txByAddrExcludeAddr []string

	cacheTimeoutSeconds int
	txCacheExpiryDays   int
	cacheAddress        string

	backend           string
	blockCacheEntries int

	bigtableInstance    string
	bigtableAppProfile  string
	bigtableReadOnly    bool
	bigtableTimeout     time.Duration

	hbaseHostPort string
	hbaseTimeout  time.Duration
}

func main() {
	log := logrus.New()
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "block-uploader",
		Short: "Derives secondary indexes for one confirmed block and uploads it to the ledger store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), log, flags)
		},
	}
	bindFlags(root, flags)

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("block-uploader failed")
		os.Exit(1)
	}
}

func bindFlags(cmd *cobra.Command, f *cliFlags) {
	fs := cmd.Flags()

	fs.BoolVar(&f.disableTx, "disable-tx", false, "skip writing the legacy tx pointer table")
	fs.BoolVar(&f.disableTxByAddr, "disable-tx-by-addr", false, "skip writing the tx-by-addr secondary index")
	fs.BoolVar(&f.disableBlocks, "disable-blocks", false, "skip writing the primary blocks row")
	fs.BoolVar(&f.enableFullTx, "enable-full-tx", false, "write the tx_full table")
	fs.BoolVar(&f.useMD5RowKeySalt, "use-md5-row-key-salt", false, "use the MD5-salted blocks_key form")
	fs.BoolVar(&f.filterTxByAddrPrograms, "filter-tx-by-addr-programs", false, "skip indexing an account key used as a program id")
	fs.BoolVar(&f.filterVotingTx, "filter-voting-tx", false, "exclude voting transactions from full-tx indexing")
	fs.BoolVar(&f.filterErrorTx, "filter-error-tx", false, "exclude erroring transactions from full-tx indexing")
	fs.BoolVar(&f.disableBlocksCompress, "disable-blocks-compression", false, "disable compression for the blocks table")
	fs.BoolVar(&f.disableTxCompress, "disable-tx-compression", false, "disable compression for the tx table")
	fs.BoolVar(&f.disableTxByAddrCompress, "disable-tx-by-addr-compression", false, "disable compression for the tx-by-addr table")
	fs.BoolVar(&f.disableTxFullCompress, "disable-tx-full-compression", false, "disable compression for the tx_full table")
	fs.BoolVar(&f.enableFullTxCache, "enable-full-tx-cache", false, "enable the memcached write-through path")
	fs.BoolVar(&f.hbaseSkipWAL, "hbase-skip-wal", false, "skip the HBase write-ahead log")

	fs.StringArrayVar(&f.txFullIncludeAddr, "filter-tx-full-include-addr", nil, "only index this address into tx_full (repeatable)")
	fs.StringArrayVar(&f.txFullExcludeAddr, "filter-tx-full-exclude-addr", nil, "never index this address into tx_full (repeatable)")
	fs.StringArrayVar(&f.txByAddrIncludeAddr, "filter-tx-by-addr-include-addr", nil, "only index this address into tx-by-addr (repeatable)")
	fs.StringArrayVar(&f.txByAddrExcludeAddr, "filter-tx-by-addr-exclude-addr", nil, "never index this address into tx-by-addr (repeatable)")

	fs.IntVar(&f.cacheTimeoutSeconds, "cache-timeout", 1, "memcached request timeout in seconds")
	fs.IntVar(&f.txCacheExpiryDays, "tx-cache-expiration", 14, "tx_full cache TTL in days (0-30)")
	fs.StringVar(&f.cacheAddress, "cache-address", "127.0.0.1:11211", "memcached address")

	fs.StringVar(&f.backend, "backend", "bigtable", "storage backend: bigtable or hbase")
	fs.IntVar(&f.blockCacheEntries, "block-cache-capacity", 128, "in-process block LRU cache capacity (0 disables)")

	fs.StringVar(&f.bigtableInstance, "bigtable-instance", "", "Bigtable instance name")
	fs.StringVar(&f.bigtableAppProfile, "bigtable-app-profile", "", "Bigtable app profile id")
	fs.BoolVar(&f.bigtableReadOnly, "bigtable-read-only", false, "request the Bigtable read-only OAuth scope")
	fs.DurationVar(&f.bigtableTimeout, "bigtable-timeout", 30*time.Second, "Bigtable per-call timeout")

	fs.StringVar(&f.hbaseHostPort, "hbase-host-port", "127.0.0.1:9090", "HBase thrift gateway host:port")
	fs.DurationVar(&f.hbaseTimeout, "hbase-timeout", 30*time.Second, "HBase connection timeout")
}

// createAddressFilter mirrors the original's create_filter: exclude wins if
// both an include and an exclude set were somehow supplied, otherwise
// include applies, otherwise no filter (spec.md §6).
func createAddressFilter(include, exclude []string) ledgerstorage.AddressFilter {
	if len(exclude) > 0 {
		return ledgerstorage.NewExcludeFilter(exclude)
	}
	if len(include) > 0 {
		return ledgerstorage.NewIncludeFilter(include)
	}
	return ledgerstorage.AddressFilter{}
}

func buildConfig(f *cliFlags) ledgerstorage.Config {
	return ledgerstorage.Config{
		DisableTx:                   f.disableTx,
		DisableTxByAddr:             f.disableTxByAddr,
		DisableBlocks:               f.disableBlocks,
		EnableFullTx:                f.enableFullTx,
		EnableFullTxCache:           f.enableFullTxCache,
		UseMD5RowKeySalt:            f.useMD5RowKeySalt,
		FilterTxByAddrPrograms:      f.filterTxByAddrPrograms,
		FilterVotingTx:              f.filterVotingTx,
		FilterErrorTx:               f.filterErrorTx,
		DisableBlocksCompression:    f.disableBlocksCompress,
		DisableTxCompression:        f.disableTxCompress,
		DisableTxByAddrCompression:  f.disableTxByAddrCompress,
		DisableTxFullCompression:    f.disableTxFullCompress,
		HBaseSkipWAL:                f.hbaseSkipWAL,
		TxFullFilter:                createAddressFilter(f.txFullIncludeAddr, f.txFullExcludeAddr),
		TxByAddrFilter:              createAddressFilter(f.txByAddrIncludeAddr, f.txByAddrExcludeAddr),
		AddEmptyTxMetadataIfMissing: envBool("ADD_EMPTY_TX_METADATA_IF_MISSING"),
	}
}

func envBool(name string) bool {
	v := os.Getenv(name)
	return v == "1" || v == "true"
}

func dialBackend(ctx context.Context, f *cliFlags) (ledgerstorage.Backend, func() error, error) {
	switch f.backend {
	case "bigtable":
		conn, err := bigtable.NewConnection(ctx, bigtable.Config{
			InstanceName: f.bigtableInstance,
			AppProfileID: f.bigtableAppProfile,
			ReadOnly:     f.bigtableReadOnly,
			Timeout:      f.bigtableTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("bigtable connect: %w", err)
		}
		return ledgerstorage.NewBigTableBackend(conn.Client()), conn.Close, nil

	case "hbase":
		conn, err := hbase.Dial(hbase.Config{HostPort: f.hbaseHostPort, Timeout: f.hbaseTimeout})
		if err != nil {
			return nil, nil, fmt.Errorf("hbase connect: %w", err)
		}
		return ledgerstorage.NewHBaseBackend(conn.Client()), conn.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q, want bigtable or hbase", f.backend)
	}
}

// stdinPayload is the stdin document's shape: blockID plus every field of
// ledgertypes.EncodedConfirmedBlock, inlined via the anonymous embed so a
// single json.Unmarshal populates both (spec.md §4.8).
type stdinPayload struct {
	BlockID uint64 `json:"blockID"`
	ledgertypes.EncodedConfirmedBlock
}

func run(ctx context.Context, log *logrus.Logger, f *cliFlags) error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	var payload stdinPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode stdin json: %w", err)
	}
	slot := ledgertypes.Slot(payload.BlockID)

	block, err := decoder.DecodeBlock(payload.EncodedConfirmedBlock)
	if err != nil {
		return fmt.Errorf("decode block for slot %d: %w", slot, err)
	}

	backend, closeBackend, err := dialBackend(ctx, f)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			log.WithError(err).Warn("error closing backend connection")
		}
	}()

	blockCache, err := ledgercache.NewBlockCache(f.blockCacheEntries)
	if err != nil {
		return fmt.Errorf("build block cache: %w", err)
	}
	txCache := ledgercache.NewTxCache(ledgercache.Config{
		EnableFullTxCache: f.enableFullTxCache,
		Address:           f.cacheAddress,
		Timeout:           time.Duration(f.cacheTimeoutSeconds) * time.Second,
		ExpirationDays:    f.txCacheExpiryDays,
	})

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	storage := ledgerstorage.New(backend, blockCache, txCache, stats.New(zapLogger), buildConfig(f), zapLogger)

	if err := storage.UploadConfirmedBlock(ctx, slot, block); err != nil {
		return fmt.Errorf("upload slot %d: %w", slot, err)
	}

	log.WithField("slot", slot).Info("uploaded block")
	return nil
}
