package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedRocks911/granitedb/storage/basic"
)

func TestLRUKReplacerScenario(t *testing.T) {
	// 7 frames, K=2. Frames with fewer than K accesses evict first, in
	// access-time order; then frames with >=K accesses, by earliest
	// Kth-latest access.
	replacer := NewLRUKReplacer(7, 2)

	for f := basic.FrameID(1); f <= 6; f++ {
		replacer.RecordAccess(f)
	}
	for f := basic.FrameID(1); f <= 6; f++ {
		replacer.SetEvictable(f, true)
	}
	require.Equal(t, 6, replacer.Size())

	for _, f := range []basic.FrameID{1, 2, 3, 4} {
		replacer.RecordAccess(f)
	}
	for _, f := range []basic.FrameID{5, 6, 1} {
		replacer.RecordAccess(f)
	}
	replacer.RecordAccess(1)

	expect := []basic.FrameID{2, 3, 4, 5, 6, 1}
	for _, want := range expect {
		got, ok := replacer.Evict()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := replacer.Evict()
	assert.False(t, ok)
	assert.Equal(t, 0, replacer.Size())
}

func TestLRUKReplacerHistoryFirst(t *testing.T) {
	replacer := NewLRUKReplacer(4, 2)

	// frame 1 crosses the K threshold, frames 2 and 3 stay below it
	replacer.RecordAccess(1)
	replacer.RecordAccess(1)
	replacer.RecordAccess(2)
	replacer.RecordAccess(3)
	for f := basic.FrameID(1); f <= 3; f++ {
		replacer.SetEvictable(f, true)
	}

	// +inf distance frames go first, earliest overall access first
	got, ok := replacer.Evict()
	require.True(t, ok)
	assert.Equal(t, basic.FrameID(2), got)

	got, ok = replacer.Evict()
	require.True(t, ok)
	assert.Equal(t, basic.FrameID(3), got)

	got, ok = replacer.Evict()
	require.True(t, ok)
	assert.Equal(t, basic.FrameID(1), got)
}

func TestLRUKReplacerSetEvictable(t *testing.T) {
	replacer := NewLRUKReplacer(4, 2)

	replacer.RecordAccess(1)
	replacer.SetEvictable(1, true)
	require.Equal(t, 1, replacer.Size())

	t.Run("same state is a no-op", func(t *testing.T) {
		replacer.SetEvictable(1, true)
		assert.Equal(t, 1, replacer.Size())
	})

	t.Run("pin clears access history", func(t *testing.T) {
		replacer.RecordAccess(1)
		replacer.SetEvictable(1, false)
		assert.Equal(t, 0, replacer.Size())

		// the next access opens a fresh +inf window: one access puts the
		// frame back on the history list
		replacer.RecordAccess(1)
		replacer.RecordAccess(2)
		replacer.RecordAccess(2)
		replacer.RecordAccess(2)
		replacer.SetEvictable(1, true)
		replacer.SetEvictable(2, true)

		got, ok := replacer.Evict()
		require.True(t, ok)
		assert.Equal(t, basic.FrameID(1), got)
	})

	t.Run("unknown frame is ignored", func(t *testing.T) {
		replacer.SetEvictable(42, true)
		assert.Equal(t, 1, replacer.Size())
	})
}

func TestLRUKReplacerCapacityEviction(t *testing.T) {
	// SetEvictable(true) proactively evicts when the replacer is at
	// capacity; the buffer pool depends on this.
	replacer := NewLRUKReplacer(2, 2)

	for f := basic.FrameID(1); f <= 3; f++ {
		replacer.RecordAccess(f)
	}
	replacer.SetEvictable(1, true)
	replacer.SetEvictable(2, true)
	require.Equal(t, 2, replacer.Size())

	replacer.SetEvictable(3, true)
	assert.Equal(t, 2, replacer.Size())

	// frame 1 was the eviction victim, so 2 goes out next
	got, ok := replacer.Evict()
	require.True(t, ok)
	assert.Equal(t, basic.FrameID(2), got)
}

func TestLRUKReplacerRemove(t *testing.T) {
	replacer := NewLRUKReplacer(4, 2)

	replacer.RecordAccess(1)
	replacer.RecordAccess(2)
	replacer.SetEvictable(1, true)
	replacer.SetEvictable(2, true)

	replacer.Remove(1)
	assert.Equal(t, 1, replacer.Size())

	t.Run("unknown frame is a no-op", func(t *testing.T) {
		replacer.Remove(99)
		assert.Equal(t, 1, replacer.Size())
	})

	t.Run("non-evictable frame is refused", func(t *testing.T) {
		replacer.RecordAccess(3)
		replacer.Remove(3)
		replacer.SetEvictable(3, true)
		assert.Equal(t, 2, replacer.Size())
	})

	got, ok := replacer.Evict()
	require.True(t, ok)
	assert.Equal(t, basic.FrameID(2), got)
}
