package page

import (
	"encoding/binary"

	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/buffer"
)

// Tree pages share a fixed little-endian header; the entry array is packed
// behind it. All accessors read and write the buffered page bytes directly,
// so a mutation is durable as soon as the page is flushed.
//
//	offset 0   page type (1 internal, 2 leaf)
//	offset 4   size (current entry count)
//	offset 8   max size
//	offset 12  parent page id
//	offset 16  page id
//	offset 20  next page id (leaf sibling link; unused by internal nodes)
//	offset 24  entries
const (
	offPageType   = 0
	offSize       = 4
	offMaxSize    = 8
	offParent     = 12
	offPageID     = 16
	offNextPageID = 20

	nodeHeaderSize = 24
)

const (
	typeInternal uint32 = 1
	typeLeaf     uint32 = 2
)

// BPlusTreePage is the header view shared by both node kinds.
type BPlusTreePage struct {
	page *buffer.Page
}

// AsTreePage wraps a buffered page without inspecting it.
func AsTreePage(p *buffer.Page) *BPlusTreePage {
	return &BPlusTreePage{page: p}
}

func (tp *BPlusTreePage) data() []byte {
	return tp.page.GetData()
}

// Page returns the underlying buffered page.
func (tp *BPlusTreePage) Page() *buffer.Page {
	return tp.page
}

// IsLeafPage reports whether the page holds leaf entries.
func (tp *BPlusTreePage) IsLeafPage() bool {
	return binary.LittleEndian.Uint32(tp.data()[offPageType:]) == typeLeaf
}

// GetSize returns the current entry count.
func (tp *BPlusTreePage) GetSize() int {
	return int(int32(binary.LittleEndian.Uint32(tp.data()[offSize:])))
}

// SetSize stores the entry count.
func (tp *BPlusTreePage) SetSize(size int) {
	binary.LittleEndian.PutUint32(tp.data()[offSize:], uint32(int32(size)))
}

// IncreaseSize adds delta (possibly negative) to the entry count.
func (tp *BPlusTreePage) IncreaseSize(delta int) {
	tp.SetSize(tp.GetSize() + delta)
}

// GetMaxSize returns the node capacity.
func (tp *BPlusTreePage) GetMaxSize() int {
	return int(int32(binary.LittleEndian.Uint32(tp.data()[offMaxSize:])))
}

// GetMinSize returns the occupancy floor, ceil(max/2). The root is exempt.
func (tp *BPlusTreePage) GetMinSize() int {
	return (tp.GetMaxSize() + 1) / 2
}

// GetParentPageID returns the parent pointer, InvalidPageID at the root.
func (tp *BPlusTreePage) GetParentPageID() basic.PageID {
	return basic.PageID(int32(binary.LittleEndian.Uint32(tp.data()[offParent:])))
}

// SetParentPageID stores the parent pointer.
func (tp *BPlusTreePage) SetParentPageID(pageID basic.PageID) {
	binary.LittleEndian.PutUint32(tp.data()[offParent:], uint32(int32(pageID)))
}

// GetPageID returns the node's own page id as recorded in the header.
func (tp *BPlusTreePage) GetPageID() basic.PageID {
	return basic.PageID(int32(binary.LittleEndian.Uint32(tp.data()[offPageID:])))
}

func (tp *BPlusTreePage) initHeader(pageType uint32, pageID, parentID basic.PageID, maxSize int) {
	d := tp.data()
	binary.LittleEndian.PutUint32(d[offPageType:], pageType)
	binary.LittleEndian.PutUint32(d[offSize:], 0)
	binary.LittleEndian.PutUint32(d[offMaxSize:], uint32(int32(maxSize)))
	binary.LittleEndian.PutUint32(d[offParent:], uint32(int32(parentID)))
	binary.LittleEndian.PutUint32(d[offPageID:], uint32(int32(pageID)))
	invalidPageID := int32(basic.InvalidPageID)
	binary.LittleEndian.PutUint32(d[offNextPageID:], uint32(invalidPageID))
}
