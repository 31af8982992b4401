package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/granite")

	assert.Equal(t, "/tmp/granite/data", cfg.DataDir)
	assert.Equal(t, DefaultBufferPoolPages, cfg.BufferPoolPages)
	assert.Equal(t, DefaultReplacerK, cfg.ReplacerK)
	assert.Equal(t, DefaultLeafMaxSize, cfg.LeafMaxSize)
	assert.Equal(t, "none", cfg.WalCodec)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "granite.ini")
	content := `[granitedb]
buffer_pool_pages = 256
replacer_k = 3
leaf_max_size = 16
wal_codec = snappy
wal_flush_interval = 2s
log_level = debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.BufferPoolPages)
	assert.Equal(t, 3, cfg.ReplacerK)
	assert.Equal(t, 16, cfg.LeafMaxSize)
	assert.Equal(t, "snappy", cfg.WalCodec)
	assert.Equal(t, 2*time.Second, cfg.WalFlushInterval)
	assert.Equal(t, "debug", cfg.LogLevel)

	// unset keys fall back to defaults
	assert.Equal(t, DefaultInternalMaxSize, cfg.InternalMaxSize)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.ini")
	assert.Error(t, err)
}

func TestEnsureDirs(t *testing.T) {
	cfg := Default(t.TempDir())
	require.NoError(t, cfg.EnsureDirs())

	for _, dir := range []string{cfg.DataDir, cfg.WalDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
