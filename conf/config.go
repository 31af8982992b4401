package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

// Cfg carries every tunable of the storage engine. Zero values are replaced
// with defaults by ApplyDefaults, so a partially filled ini file is fine.
type Cfg struct {
	Raw *ini.File

	// paths
	BaseDir string
	DataDir string

	// logs
	LogError string
	LogInfos string
	LogLevel string

	// buffer pool
	BufferPoolPages int // pool_size, in pages
	ReplacerK       int // K of the LRU-K replacer
	HashBucketSize  int // read from hash_bucket_size; the buffer pool's page table uses basic.BucketSize and does not consult this field

	// b+ tree
	LeafMaxSize     int
	InternalMaxSize int

	// write-ahead log
	WalDir           string
	WalBufferRecords int
	WalCodec         string // none | snappy | lz4
	WalFlushInterval time.Duration
}

const (
	DefaultBufferPoolPages  = 1024
	DefaultReplacerK        = 2
	DefaultHashBucketSize   = 4
	DefaultLeafMaxSize      = 32
	DefaultInternalMaxSize  = 32
	DefaultWalBufferRecords = 256
	DefaultWalFlushInterval = time.Second
)

// Default returns the baked-in configuration rooted at dir.
func Default(dir string) *Cfg {
	cfg := &Cfg{BaseDir: dir}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads an ini file and overlays it on the defaults.
func Load(path string) (*Cfg, error) {
	raw, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %v", path, err)
	}

	cfg := &Cfg{Raw: raw, BaseDir: filepath.Dir(path)}

	section := raw.Section("granitedb")
	cfg.DataDir = section.Key("data_dir").String()
	cfg.LogError = section.Key("log_error").String()
	cfg.LogInfos = section.Key("log_infos").String()
	cfg.LogLevel = section.Key("log_level").String()
	cfg.BufferPoolPages = section.Key("buffer_pool_pages").MustInt(0)
	cfg.ReplacerK = section.Key("replacer_k").MustInt(0)
	cfg.HashBucketSize = section.Key("hash_bucket_size").MustInt(0)
	cfg.LeafMaxSize = section.Key("leaf_max_size").MustInt(0)
	cfg.InternalMaxSize = section.Key("internal_max_size").MustInt(0)
	cfg.WalDir = section.Key("wal_dir").String()
	cfg.WalBufferRecords = section.Key("wal_buffer_records").MustInt(0)
	cfg.WalCodec = section.Key("wal_codec").String()
	cfg.WalFlushInterval = section.Key("wal_flush_interval").MustDuration(0)

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills every unset field.
func (c *Cfg) ApplyDefaults() {
	if c.BaseDir == "" {
		c.BaseDir = "."
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(c.BaseDir, "data")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.BufferPoolPages <= 0 {
		c.BufferPoolPages = DefaultBufferPoolPages
	}
	if c.ReplacerK <= 0 {
		c.ReplacerK = DefaultReplacerK
	}
	if c.HashBucketSize <= 0 {
		c.HashBucketSize = DefaultHashBucketSize
	}
	if c.LeafMaxSize <= 0 {
		c.LeafMaxSize = DefaultLeafMaxSize
	}
	if c.InternalMaxSize <= 0 {
		c.InternalMaxSize = DefaultInternalMaxSize
	}
	if c.WalDir == "" {
		c.WalDir = filepath.Join(c.DataDir, "wal")
	}
	if c.WalBufferRecords <= 0 {
		c.WalBufferRecords = DefaultWalBufferRecords
	}
	if c.WalCodec == "" {
		c.WalCodec = "none"
	}
	if c.WalFlushInterval <= 0 {
		c.WalFlushInterval = DefaultWalFlushInterval
	}
}

// EnsureDirs creates the data and wal directories.
func (c *Cfg) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.WalDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create dir %s: %v", dir, err)
		}
	}
	return nil
}
