package buffer

import (
	"github.com/RedRocks911/granitedb/storage/basic"
)

// Page is the in-memory image of an on-disk page, held by exactly one frame
// of the buffer pool. The buffer pool's latch guards every field; callers
// hold a page only between a Fetch/New and the matching Unpin.
type Page struct {
	pageID   basic.PageID
	pinCount int
	isDirty  bool
	data     []byte
}

func newPage() *Page {
	return &Page{
		pageID: basic.InvalidPageID,
		data:   make([]byte, basic.PageSize),
	}
}

// GetPageID returns the page id, InvalidPageID for an empty frame.
func (p *Page) GetPageID() basic.PageID {
	return p.pageID
}

// GetPinCount returns the number of outstanding pins.
func (p *Page) GetPinCount() int {
	return p.pinCount
}

// IsDirty reports whether the frame content has diverged from disk.
func (p *Page) IsDirty() bool {
	return p.isDirty
}

// GetData returns the raw page bytes. The slice aliases the frame; it is
// valid only while the caller holds a pin.
func (p *Page) GetData() []byte {
	return p.data
}

// resetMemory zeroes the frame content.
func (p *Page) resetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}
