package buffer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/disk"
)

func newTestPool(t *testing.T, poolSize, k int) (*BufferPoolManager, *disk.FileDiskManager) {
	t.Helper()
	dm, err := disk.NewFileDiskManager(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	return NewBufferPoolManager(poolSize, dm, k, nil), dm
}

func TestBufferPoolManagerEviction(t *testing.T) {
	bpm, _ := newTestPool(t, 3, 2)

	p0, err := bpm.NewPage()
	require.NoError(t, err)
	p1, err := bpm.NewPage()
	require.NoError(t, err)
	p2, err := bpm.NewPage()
	require.NoError(t, err)

	p0ID, p1ID, p2ID := p0.GetPageID(), p1.GetPageID(), p2.GetPageID()
	assert.Equal(t, 1, p0.GetPinCount())

	// all frames pinned: nothing can give way
	_, err = bpm.NewPage()
	assert.ErrorIs(t, err, ErrBufferPoolFull)

	// write through p1 and release it dirty
	copy(p1.GetData(), "hello granite")
	require.True(t, bpm.UnpinPage(p1ID, true))

	// the new page lands in p1's frame, forcing a writeback
	p3, err := bpm.NewPage()
	require.NoError(t, err)
	p3ID := p3.GetPageID()

	// p1 is gone from the pool; refetching it must read the flushed bytes
	require.True(t, bpm.UnpinPage(p2ID, false))
	refetched, err := bpm.FetchPage(p1ID)
	require.NoError(t, err)
	assert.Equal(t, "hello granite", string(refetched.GetData()[:13]))

	require.True(t, bpm.UnpinPage(p0ID, false))
	require.True(t, bpm.UnpinPage(p1ID, false))
	require.True(t, bpm.UnpinPage(p3ID, false))
}

func TestBufferPoolManagerDeletePage(t *testing.T) {
	bpm, _ := newTestPool(t, 3, 2)

	p0, err := bpm.NewPage()
	require.NoError(t, err)
	p0ID := p0.GetPageID()
	copy(p0.GetData(), "stale bytes")

	t.Run("pinned page refuses deletion", func(t *testing.T) {
		assert.False(t, bpm.DeletePage(p0ID))
	})

	require.True(t, bpm.UnpinPage(p0ID, false))
	assert.True(t, bpm.DeletePage(p0ID))

	t.Run("non-resident page deletes trivially", func(t *testing.T) {
		assert.True(t, bpm.DeletePage(p0ID))
	})

	// a later fetch of the deallocated id observes fresh bytes
	refetched, err := bpm.FetchPage(p0ID)
	require.NoError(t, err)
	for _, b := range refetched.GetData()[:16] {
		assert.Zero(t, b)
	}
	require.True(t, bpm.UnpinPage(p0ID, false))
}

func TestBufferPoolManagerUnpinContract(t *testing.T) {
	bpm, _ := newTestPool(t, 3, 2)

	p0, err := bpm.NewPage()
	require.NoError(t, err)
	p0ID := p0.GetPageID()

	assert.False(t, bpm.UnpinPage(basic.PageID(999), false), "non-resident page")

	require.True(t, bpm.UnpinPage(p0ID, false))
	assert.False(t, bpm.UnpinPage(p0ID, false), "pin count already zero")
}

func TestBufferPoolManagerDirtyIsSticky(t *testing.T) {
	bpm, dm := newTestPool(t, 3, 2)

	p0, err := bpm.NewPage()
	require.NoError(t, err)
	p0ID := p0.GetPageID()
	copy(p0.GetData(), "persist me")
	require.True(t, bpm.UnpinPage(p0ID, true))

	// pin again and unpin clean: the dirty flag must survive
	_, err = bpm.FetchPage(p0ID)
	require.NoError(t, err)
	require.True(t, bpm.UnpinPage(p0ID, false))

	require.True(t, bpm.FlushPage(p0ID))

	buf := make([]byte, basic.PageSize)
	require.NoError(t, dm.ReadPage(p0ID, buf))
	assert.Equal(t, "persist me", string(buf[:10]))
}

func TestBufferPoolManagerFlushAll(t *testing.T) {
	bpm, dm := newTestPool(t, 4, 2)

	ids := make([]basic.PageID, 0, 3)
	for i := 0; i < 3; i++ {
		p, err := bpm.NewPage()
		require.NoError(t, err)
		p.GetData()[0] = byte(i + 1)
		ids = append(ids, p.GetPageID())
		require.True(t, bpm.UnpinPage(p.GetPageID(), true))
	}

	bpm.FlushAllPages()

	buf := make([]byte, basic.PageSize)
	for i, id := range ids {
		require.NoError(t, dm.ReadPage(id, buf))
		assert.Equal(t, byte(i+1), buf[0])
	}
}

func TestBufferPoolManagerPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	dm, err := disk.NewFileDiskManager(dbPath)
	require.NoError(t, err)

	bpm := NewBufferPoolManager(4, dm, 2, nil)
	p, err := bpm.NewPage()
	require.NoError(t, err)
	pid := p.GetPageID()
	copy(p.GetData(), "across restarts")
	require.True(t, bpm.UnpinPage(pid, true))
	bpm.FlushAllPages()
	require.NoError(t, dm.Close())

	dm2, err := disk.NewFileDiskManager(dbPath)
	require.NoError(t, err)
	defer dm2.Close()

	bpm2 := NewBufferPoolManager(4, dm2, 2, nil)
	reread, err := bpm2.FetchPage(pid)
	require.NoError(t, err)
	assert.Equal(t, "across restarts", string(reread.GetData()[:15]))
	require.True(t, bpm2.UnpinPage(pid, false))
}

func TestBufferPoolManagerStats(t *testing.T) {
	bpm, _ := newTestPool(t, 4, 2)

	p, err := bpm.NewPage()
	require.NoError(t, err)
	pid := p.GetPageID()
	require.True(t, bpm.UnpinPage(pid, false))

	_, err = bpm.FetchPage(pid)
	require.NoError(t, err)
	require.True(t, bpm.UnpinPage(pid, false))

	stats := bpm.GetStats()
	assert.Equal(t, uint64(1), stats["hits"])
	assert.Equal(t, uint64(0), stats["misses"])
	assert.Equal(t, 1.0, bpm.GetHitRatio())
}

func TestBufferPoolManagerStress(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	bpm, _ := newTestPool(t, 8, 2)

	// churn far more pages than frames; every page written must read back
	ids := make([]basic.PageID, 0, 64)
	for i := 0; i < 64; i++ {
		p, err := bpm.NewPage()
		require.NoError(t, err)
		p.GetData()[0] = byte(i)
		ids = append(ids, p.GetPageID())
		require.True(t, bpm.UnpinPage(p.GetPageID(), true))
	}

	for i, id := range ids {
		p, err := bpm.FetchPage(id)
		require.NoError(t, err)
		assert.Equal(t, byte(i), p.GetData()[0])
		require.True(t, bpm.UnpinPage(id, false))
	}
}
