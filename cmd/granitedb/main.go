package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/RedRocks911/granitedb/conf"
	"github.com/RedRocks911/granitedb/logger"
	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/buffer"
	"github.com/RedRocks911/granitedb/storage/disk"
	"github.com/RedRocks911/granitedb/storage/index"
	"github.com/RedRocks911/granitedb/storage/wal"
)

// Smoke entry point: wires disk manager, WAL, buffer pool and one B+ tree
// from an ini config, runs an insert/scan/delete pass and prints pool
// stats.
func main() {
	configPath := flag.String("config", "", "path to granite.ini")
	baseDir := flag.String("dir", ".", "base dir when no config file is given")
	rows := flag.Int64("rows", 1000, "rows to insert in the smoke pass")
	flag.Parse()

	var cfg *conf.Cfg
	var err error
	if *configPath != "" {
		cfg, err = conf.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
			os.Exit(1)
		}
	} else {
		cfg = conf.Default(*baseDir)
	}

	if err := logger.InitLogger(logger.LogConfig{
		ErrorLogPath: cfg.LogError,
		InfoLogPath:  cfg.LogInfos,
		LogLevel:     cfg.LogLevel,
	}); err != nil {
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatalf("%v", err)
	}

	dm, err := disk.NewFileDiskManager(filepath.Join(cfg.DataDir, "granite.db"))
	if err != nil {
		logger.Fatalf("open disk manager: %v", err)
	}
	defer dm.Close()

	logManager, err := wal.NewLogManager(cfg.WalDir, cfg.WalBufferRecords, cfg.WalCodec, cfg.WalFlushInterval)
	if err != nil {
		logger.Fatalf("open wal: %v", err)
	}
	defer logManager.Close()

	bpm := buffer.NewBufferPoolManager(cfg.BufferPoolPages, dm, cfg.ReplacerK, logManager)

	tree, err := index.NewBPlusTree("smoke_pk", bpm, basic.IntegerComparator, cfg.LeafMaxSize, cfg.InternalMaxSize)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}

	logger.Infof("inserting %d rows", *rows)
	for k := int64(1); k <= *rows; k++ {
		if _, err := tree.Insert(k, basic.RID{PageID: basic.PageID(k), SlotNum: uint32(k)}, nil); err != nil {
			logger.Fatalf("insert %d: %v", k, err)
		}
	}

	it, err := tree.Begin()
	if err != nil {
		logger.Fatalf("scan: %v", err)
	}
	count := 0
	for !it.IsEnd() {
		count++
		if err := it.Next(); err != nil {
			logger.Fatalf("scan: %v", err)
		}
	}
	logger.Infof("scanned %d rows in order", count)

	for k := int64(1); k <= *rows; k += 2 {
		if err := tree.Remove(k, nil); err != nil {
			logger.Fatalf("remove %d: %v", k, err)
		}
	}
	var result []basic.RID
	found, err := tree.GetValue(2, &result, nil)
	if err != nil {
		logger.Fatalf("lookup: %v", err)
	}
	logger.Infof("after deleting odd keys, key 2 present: %v", found)

	bpm.FlushAllPages()
	logger.Infof("pool stats: %v (hit ratio %.2f)", bpm.GetStats(), bpm.GetHitRatio())
}
