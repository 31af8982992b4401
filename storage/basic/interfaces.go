package basic

// DiskManager abstracts the backing page store. Implementations read and
// write full pages addressed by page id and hand out page ids on request.
type DiskManager interface {
	// ReadPage fills data (PageSize bytes) with the content of the page.
	// Pages that were never written read back as zeroes.
	ReadPage(pageID PageID, data []byte) error

	// WritePage persists PageSize bytes under the given page id.
	WritePage(pageID PageID, data []byte) error

	// AllocatePage reserves a fresh page id on the backing store.
	AllocatePage() (PageID, error)

	// DeallocatePage returns a page id to the store for reuse.
	DeallocatePage(pageID PageID) error

	// Sync forces buffered writes to stable storage.
	Sync() error

	Close() error
}

// LogManager is the optional write-ahead logging hook. The buffer pool
// appends a record before each page write when a log manager is attached.
type LogManager interface {
	// Append buffers a log record and returns its LSN.
	Append(record []byte) (LSN, error)

	// Flush forces the log buffer to disk.
	Flush() error

	Close() error
}
