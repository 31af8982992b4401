package buffer

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/RedRocks911/granitedb/logger"
	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/container"
	"github.com/RedRocks911/granitedb/util"
)

// BufferPoolManager owns a fixed array of frames backed by a pageable disk
// store. Frame lookup goes through an extendible-hash page table, eviction
// through an LRU-K replacer. One mutex serializes every public operation,
// disk I/O included; the latency cost is accepted for simplicity.
//
// A frame is always in exactly one of three states: on the free list,
// pinned (in neither the free list nor the replacer), or evictable (tracked
// by the replacer with pin count zero).
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize   int
	pages      []*Page
	pageTable  *container.ExtendibleHashTable[basic.PageID, basic.FrameID]
	replacer   *LRUKReplacer
	freeList   *list.List
	nextPageID basic.PageID

	diskManager basic.DiskManager
	logManager  basic.LogManager

	stats struct {
		hits       uint64
		misses     uint64
		evictions  uint64
		flushes    uint64
		pageReads  uint64
		pageWrites uint64
	}
}

// NewBufferPoolManager builds a pool of poolSize frames over the given disk
// manager. logManager may be nil; when present, a page-write record is
// appended before every flush to disk. Page id 0 is reserved for the header
// page and is never handed out by NewPage.
func NewBufferPoolManager(poolSize int, diskManager basic.DiskManager, replacerK int, logManager basic.LogManager) *BufferPoolManager {
	if replacerK <= 0 {
		replacerK = basic.DefaultReplacerK
	}

	bpm := &BufferPoolManager{
		poolSize:    poolSize,
		pages:       make([]*Page, poolSize),
		pageTable:   container.NewExtendibleHashTable[basic.PageID, basic.FrameID](basic.BucketSize, container.PageIDHasher),
		replacer:    NewLRUKReplacer(poolSize, replacerK),
		freeList:    list.New(),
		nextPageID:  basic.HeaderPageID + 1,
		diskManager: diskManager,
		logManager:  logManager,
	}

	for i := 0; i < poolSize; i++ {
		bpm.pages[i] = newPage()
		bpm.freeList.PushBack(basic.FrameID(i))
	}

	// Reopening an existing store must not hand out page ids that already
	// live in the file.
	if sizer, ok := diskManager.(interface{ NumPages() basic.PageID }); ok {
		if n := sizer.NumPages(); n > bpm.nextPageID {
			bpm.nextPageID = n
		}
	}

	return bpm
}

// getAvailableFrame pops a free frame, or evicts one. An evicted dirty
// frame is written back and its page-table binding removed. Caller holds
// the latch.
func (bpm *BufferPoolManager) getAvailableFrame() (basic.FrameID, bool) {
	if bpm.freeList.Len() > 0 {
		front := bpm.freeList.Front()
		bpm.freeList.Remove(front)
		return front.Value.(basic.FrameID), true
	}

	frameID, ok := bpm.replacer.Evict()
	if !ok {
		return 0, false
	}

	page := bpm.pages[frameID]
	if page.isDirty {
		bpm.writeToDisk(page)
		page.isDirty = false
	}
	bpm.pageTable.Remove(page.pageID)
	atomic.AddUint64(&bpm.stats.evictions, 1)
	return frameID, true
}

// writeToDisk persists one frame, appending a WAL record first when a log
// manager is attached. Caller holds the latch.
func (bpm *BufferPoolManager) writeToDisk(page *Page) {
	if bpm.logManager != nil {
		record := util.WriteUB4(make([]byte, 0, 4), uint32(page.pageID))
		if _, err := bpm.logManager.Append(record); err != nil {
			logger.Warnf("buffer pool: wal append for page %d failed: %v", page.pageID, err)
		}
	}
	if err := bpm.diskManager.WritePage(page.pageID, page.data); err != nil {
		logger.Errorf("buffer pool: failed to write page %d to disk: %v", page.pageID, err)
		return
	}
	atomic.AddUint64(&bpm.stats.pageWrites, 1)
}

// NewPage allocates a fresh page id, binds it to an available frame zeroed
// and pinned once, and returns the borrowed handle. Returns
// ErrBufferPoolFull when every frame is pinned.
func (bpm *BufferPoolManager) NewPage() (*Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.getAvailableFrame()
	if !ok {
		return nil, ErrBufferPoolFull
	}

	pageID := bpm.allocatePage()
	page := bpm.pages[frameID]
	page.pageID = pageID
	page.isDirty = false
	page.pinCount = 1
	page.resetMemory()

	bpm.pageTable.Insert(pageID, frameID)
	bpm.replacer.RecordAccess(frameID)
	bpm.replacer.SetEvictable(frameID, false)

	return page, nil
}

// FetchPage pins the page, reading it from disk if it is not resident.
// Returns ErrBufferPoolFull when the page is not resident and every frame
// is pinned.
func (bpm *BufferPoolManager) FetchPage(pageID basic.PageID) (*Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	if frameID, ok := bpm.pageTable.Find(pageID); ok {
		atomic.AddUint64(&bpm.stats.hits, 1)
		page := bpm.pages[frameID]
		page.pinCount++
		bpm.replacer.RecordAccess(frameID)
		bpm.replacer.SetEvictable(frameID, false)
		return page, nil
	}

	atomic.AddUint64(&bpm.stats.misses, 1)
	frameID, ok := bpm.getAvailableFrame()
	if !ok {
		return nil, ErrBufferPoolFull
	}

	page := bpm.pages[frameID]
	page.pageID = pageID
	page.isDirty = false
	page.pinCount = 0
	page.resetMemory()
	if err := bpm.diskManager.ReadPage(pageID, page.data); err != nil {
		page.pageID = basic.InvalidPageID
		bpm.freeList.PushBack(frameID)
		return nil, err
	}
	atomic.AddUint64(&bpm.stats.pageReads, 1)

	bpm.pageTable.Insert(pageID, frameID)
	bpm.replacer.RecordAccess(frameID)
	bpm.replacer.SetEvictable(frameID, false)
	page.pinCount++
	return page, nil
}

// UnpinPage drops one pin, marking the frame evictable when the count hits
// zero. The dirty flag is sticky: once set by any unpinner it stays set
// until a flush. Returns false if the page is not resident or not pinned.
func (bpm *BufferPoolManager) UnpinPage(pageID basic.PageID, isDirty bool) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.pageTable.Find(pageID)
	if !ok {
		logger.Warnf("buffer pool: unpin of non-resident page %d", pageID)
		return false
	}
	page := bpm.pages[frameID]
	if page.pinCount <= 0 {
		logger.Warnf("buffer pool: unpin of page %d with zero pin count", pageID)
		return false
	}

	page.pinCount--
	if page.pinCount == 0 {
		bpm.replacer.SetEvictable(frameID, true)
	}
	if isDirty {
		page.isDirty = true
	}
	return true
}

// FlushPage writes the page to disk regardless of pin state and clears the
// dirty flag. Returns false if the page is not resident.
func (bpm *BufferPoolManager) FlushPage(pageID basic.PageID) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	return bpm.flushPageInternal(pageID)
}

func (bpm *BufferPoolManager) flushPageInternal(pageID basic.PageID) bool {
	frameID, ok := bpm.pageTable.Find(pageID)
	if !ok {
		return false
	}
	page := bpm.pages[frameID]
	bpm.writeToDisk(page)
	page.isDirty = false
	atomic.AddUint64(&bpm.stats.flushes, 1)
	return true
}

// FlushAllPages flushes every resident page.
func (bpm *BufferPoolManager) FlushAllPages() {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	for _, page := range bpm.pages {
		if page.pageID != basic.InvalidPageID {
			bpm.flushPageInternal(page.pageID)
		}
	}
}

// DeletePage evicts the page from the pool and returns its id to the disk
// manager. Deleting a non-resident page succeeds trivially; deleting a
// pinned page fails.
func (bpm *BufferPoolManager) DeletePage(pageID basic.PageID) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.pageTable.Find(pageID)
	if !ok {
		return true
	}
	page := bpm.pages[frameID]
	if page.pinCount > 0 {
		return false
	}

	bpm.pageTable.Remove(pageID)
	bpm.replacer.Remove(frameID)
	bpm.freeList.PushBack(frameID)

	page.pageID = basic.InvalidPageID
	page.resetMemory()
	page.pinCount = 0
	page.isDirty = false

	if err := bpm.diskManager.DeallocatePage(pageID); err != nil {
		logger.Warnf("buffer pool: deallocate of page %d failed: %v", pageID, err)
	}
	return true
}

func (bpm *BufferPoolManager) allocatePage() basic.PageID {
	pageID := bpm.nextPageID
	bpm.nextPageID++
	return pageID
}

// GetPoolSize returns the number of frames.
func (bpm *BufferPoolManager) GetPoolSize() int {
	return bpm.poolSize
}

// GetHitRatio returns the page-table hit ratio.
func (bpm *BufferPoolManager) GetHitRatio() float64 {
	hits := atomic.LoadUint64(&bpm.stats.hits)
	misses := atomic.LoadUint64(&bpm.stats.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// GetStats returns a snapshot of the pool counters.
func (bpm *BufferPoolManager) GetStats() map[string]uint64 {
	return map[string]uint64{
		"hits":        atomic.LoadUint64(&bpm.stats.hits),
		"misses":      atomic.LoadUint64(&bpm.stats.misses),
		"evictions":   atomic.LoadUint64(&bpm.stats.evictions),
		"flushes":     atomic.LoadUint64(&bpm.stats.flushes),
		"page_reads":  atomic.LoadUint64(&bpm.stats.pageReads),
		"page_writes": atomic.LoadUint64(&bpm.stats.pageWrites),
	}
}
