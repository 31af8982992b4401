package page

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/buffer"
	"github.com/RedRocks911/granitedb/storage/disk"
)

func newTestPool(t *testing.T, poolSize int) *buffer.BufferPoolManager {
	t.Helper()
	dm, err := disk.NewFileDiskManager(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	return buffer.NewBufferPoolManager(poolSize, dm, 2, nil)
}

func TestHeaderPageRecords(t *testing.T) {
	bpm := newTestPool(t, 4)

	pg, err := bpm.FetchPage(basic.HeaderPageID)
	require.NoError(t, err)
	header := AsHeaderPage(pg)

	require.Equal(t, 0, header.GetRecordCount())

	t.Run("insert and lookup", func(t *testing.T) {
		require.True(t, header.InsertRecord("users_pk", 7))
		require.True(t, header.InsertRecord("orders_pk", 9))
		assert.Equal(t, 2, header.GetRecordCount())

		root, ok := header.GetRootId("users_pk")
		require.True(t, ok)
		assert.Equal(t, basic.PageID(7), root)

		_, ok = header.GetRootId("missing")
		assert.False(t, ok)
	})

	t.Run("duplicate insert is refused", func(t *testing.T) {
		assert.False(t, header.InsertRecord("users_pk", 11))
	})

	t.Run("update rewrites the root", func(t *testing.T) {
		require.True(t, header.UpdateRecord("users_pk", 21))
		root, ok := header.GetRootId("users_pk")
		require.True(t, ok)
		assert.Equal(t, basic.PageID(21), root)

		assert.False(t, header.UpdateRecord("missing", 1))
	})

	t.Run("delete shifts successors", func(t *testing.T) {
		require.True(t, header.DeleteRecord("users_pk"))
		assert.Equal(t, 1, header.GetRecordCount())

		_, ok := header.GetRootId("users_pk")
		assert.False(t, ok)

		root, ok := header.GetRootId("orders_pk")
		require.True(t, ok)
		assert.Equal(t, basic.PageID(9), root)
	})

	t.Run("overlong name is refused", func(t *testing.T) {
		long := make([]byte, headerNameSize+1)
		for i := range long {
			long[i] = 'x'
		}
		assert.False(t, header.InsertRecord(string(long), 1))
	})

	require.True(t, bpm.UnpinPage(basic.HeaderPageID, true))
}
