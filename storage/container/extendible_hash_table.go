package container

import (
	"sync"

	"github.com/RedRocks911/granitedb/logger"
	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/util"
)

// HashFunc maps a key to the 64-bit hash the directory consumes. The low
// global_depth bits select the bucket.
type HashFunc[K comparable] func(K) uint64

// PageIDHasher hashes page ids through xxhash, the same way the rest of the
// engine hashes page addresses.
func PageIDHasher(key basic.PageID) uint64 {
	return util.HashCode(util.ConvertInt4Bytes(int32(key)))
}

// IntHasher hashes plain integer keys.
func IntHasher(key int) uint64 {
	return util.HashCode(util.ConvertLong8Bytes(int64(key)))
}

// StringHasher hashes string keys.
func StringHasher(key string) uint64 {
	return util.HashCode([]byte(key))
}

type pair[K comparable, V any] struct {
	key   K
	value V
}

// bucket holds entries whose low local-depth hash bits all match the
// bucket's directory pattern.
type bucket[K comparable, V any] struct {
	depth int
	size  int
	items []pair[K, V]
}

func newBucket[K comparable, V any](size, depth int) *bucket[K, V] {
	return &bucket[K, V]{depth: depth, size: size}
}

func (b *bucket[K, V]) isFull() bool {
	return len(b.items) >= b.size
}

func (b *bucket[K, V]) find(key K) (V, bool) {
	for i := range b.items {
		if b.items[i].key == key {
			return b.items[i].value, true
		}
	}
	var zero V
	return zero, false
}

func (b *bucket[K, V]) remove(key K) bool {
	for i := range b.items {
		if b.items[i].key == key {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// insert overwrites in place when the key exists, otherwise appends.
// Returns false when the bucket is full and the key is new.
func (b *bucket[K, V]) insert(key K, value V) bool {
	for i := range b.items {
		if b.items[i].key == key {
			b.items[i].value = value
			return true
		}
	}
	if b.isFull() {
		return false
	}
	b.items = append(b.items, pair[K, V]{key: key, value: value})
	return true
}

// ExtendibleHashTable is a concurrent K->V map using extendible hashing.
// Multiple directory slots may share one bucket; a bucket splits when an
// insert overflows it, doubling the directory whenever the overflowing
// bucket's local depth has caught up with the global depth.
//
// A single latch serializes every operation. The buffer pool issues one call
// per operation under its own latch, so finer-grained locking buys nothing
// here.
type ExtendibleHashTable[K comparable, V any] struct {
	mu sync.Mutex

	globalDepth int
	bucketSize  int
	numBuckets  int
	dir         []*bucket[K, V]
	hash        HashFunc[K]
}

// NewExtendibleHashTable builds a directory of one bucket at depth zero.
func NewExtendibleHashTable[K comparable, V any](bucketSize int, hash HashFunc[K]) *ExtendibleHashTable[K, V] {
	t := &ExtendibleHashTable[K, V]{
		globalDepth: 0,
		bucketSize:  bucketSize,
		numBuckets:  1,
		hash:        hash,
	}
	t.dir = append(t.dir, newBucket[K, V](bucketSize, 0))
	return t
}

func (t *ExtendibleHashTable[K, V]) indexOf(key K) int {
	mask := (1 << t.globalDepth) - 1
	return int(t.hash(key)) & mask
}

// GetGlobalDepth returns the number of hash bits the directory consults.
func (t *ExtendibleHashTable[K, V]) GetGlobalDepth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.globalDepth
}

// GetLocalDepth returns the local depth of the bucket behind a directory
// slot.
func (t *ExtendibleHashTable[K, V]) GetLocalDepth(dirIndex int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dir[dirIndex].depth
}

// GetNumBuckets returns the count of live buckets.
func (t *ExtendibleHashTable[K, V]) GetNumBuckets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.numBuckets
}

// Find reports whether key is present and returns its value.
func (t *ExtendibleHashTable[K, V]) Find(key K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dir[t.indexOf(key)].find(key)
}

// Remove deletes the entry for key, reporting whether one existed.
func (t *ExtendibleHashTable[K, V]) Remove(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dir[t.indexOf(key)].remove(key)
}

// Insert sets key to value, splitting the target bucket (and doubling the
// directory as needed) until the insert lands.
func (t *ExtendibleHashTable[K, V]) Insert(key K, value V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.dir[t.indexOf(key)]
	for !b.insert(key, value) {
		// Pull the overflowing bucket's entries out; they are rehashed
		// through the directory after the split.
		items := b.items
		b.items = nil

		if b.depth == t.globalDepth {
			t.globalDepth++
			n := len(t.dir)
			for i := 0; i < n; i++ {
				t.dir = append(t.dir, t.dir[i])
			}
			logger.Debugf("extendible hash: directory doubled, global depth now %d", t.globalDepth)
		}

		// The overflowing bucket's directory pattern under its old depth.
		first := int(t.hash(key)) & ((1 << b.depth) - 1)
		b.depth++

		split := newBucket[K, V](t.bucketSize, b.depth)
		t.numBuckets++
		oldMask := (1 << (b.depth - 1)) - 1
		newMask := (1 << b.depth) - 1
		for i := range t.dir {
			if i&oldMask == first && i&newMask != first {
				t.dir[i] = split
			}
		}

		for _, item := range items {
			t.dir[t.indexOf(item.key)].insert(item.key, item.value)
		}

		b = t.dir[t.indexOf(key)]
	}
}
