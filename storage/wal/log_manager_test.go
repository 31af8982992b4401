package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedRocks911/granitedb/storage/basic"
)

func TestLogManagerAppendFlush(t *testing.T) {
	for _, codec := range []string{CodecNone, CodecSnappy, CodecLZ4} {
		t.Run(codec, func(t *testing.T) {
			dir := t.TempDir()
			m, err := NewLogManager(dir, 16, codec, 0)
			require.NoError(t, err)

			lsn1, err := m.Append([]byte("first record"))
			require.NoError(t, err)
			lsn2, err := m.Append([]byte("second record"))
			require.NoError(t, err)
			assert.Equal(t, lsn1+1, lsn2)

			require.NoError(t, m.Flush())

			info, err := os.Stat(filepath.Join(dir, logFileName))
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))

			require.NoError(t, m.Close())
		})
	}
}

func TestLogManagerBufferFullTriggersFlush(t *testing.T) {
	dir := t.TempDir()
	m, err := NewLogManager(dir, 2, CodecSnappy, 0)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Append([]byte("a"))
	require.NoError(t, err)
	_, err = m.Append([]byte("b"))
	require.NoError(t, err)

	// the second append filled the buffer and forced a flush
	info, err := os.Stat(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLogManagerRejectsUnknownCodec(t *testing.T) {
	_, err := NewLogManager(t.TempDir(), 4, "zstd", 0)
	assert.Error(t, err)
}

func TestLogManagerLSNs(t *testing.T) {
	m, err := NewLogManager(t.TempDir(), 8, CodecNone, 0)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, basic.LSN(1), m.NextLSN())
	lsn, err := m.Append([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, basic.LSN(1), lsn)
	assert.Equal(t, basic.LSN(2), m.NextLSN())
}
