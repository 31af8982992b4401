package page

import (
	"encoding/binary"

	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/buffer"
)

// Leaf entry: key (8 bytes), rid page id (4), rid slot (4).
const leafEntrySize = 16

// LeafMaxCapacity is the hard bound on leaf_max_size imposed by the page
// size; one overflow slot is reserved because a node splits only after the
// insert that pushes it past max_size.
const LeafMaxCapacity = (basic.PageSize-nodeHeaderSize)/leafEntrySize - 1

// BPlusTreeLeafPage holds sorted (key, RID) pairs plus the forward sibling
// link.
type BPlusTreeLeafPage struct {
	BPlusTreePage
}

// AsLeafPage reinterprets a buffered page as a leaf node.
func AsLeafPage(p *buffer.Page) *BPlusTreeLeafPage {
	return &BPlusTreeLeafPage{BPlusTreePage{page: p}}
}

// Init formats the page as an empty leaf.
func (lp *BPlusTreeLeafPage) Init(pageID, parentID basic.PageID, maxSize int) {
	lp.initHeader(typeLeaf, pageID, parentID, maxSize)
}

// GetNextPageID returns the right sibling, InvalidPageID at the rightmost
// leaf.
func (lp *BPlusTreeLeafPage) GetNextPageID() basic.PageID {
	return basic.PageID(int32(binary.LittleEndian.Uint32(lp.data()[offNextPageID:])))
}

// SetNextPageID stores the right sibling link.
func (lp *BPlusTreeLeafPage) SetNextPageID(pageID basic.PageID) {
	binary.LittleEndian.PutUint32(lp.data()[offNextPageID:], uint32(int32(pageID)))
}

func (lp *BPlusTreeLeafPage) entryOffset(index int) int {
	return nodeHeaderSize + index*leafEntrySize
}

// KeyAt returns the key at index.
func (lp *BPlusTreeLeafPage) KeyAt(index int) int64 {
	off := lp.entryOffset(index)
	return int64(binary.LittleEndian.Uint64(lp.data()[off:]))
}

// ValueAt returns the RID at index.
func (lp *BPlusTreeLeafPage) ValueAt(index int) basic.RID {
	off := lp.entryOffset(index)
	d := lp.data()
	return basic.RID{
		PageID:  basic.PageID(int32(binary.LittleEndian.Uint32(d[off+8:]))),
		SlotNum: binary.LittleEndian.Uint32(d[off+12:]),
	}
}

// SetKeyValueAt stores one entry at index.
func (lp *BPlusTreeLeafPage) SetKeyValueAt(index int, key int64, value basic.RID) {
	off := lp.entryOffset(index)
	d := lp.data()
	binary.LittleEndian.PutUint64(d[off:], uint64(key))
	binary.LittleEndian.PutUint32(d[off+8:], uint32(int32(value.PageID)))
	binary.LittleEndian.PutUint32(d[off+12:], value.SlotNum)
}

// Find binary-searches for an exact key, returning its index or
// InvalidIndexID.
func (lp *BPlusTreeLeafPage) Find(key int64, cmp basic.KeyComparator) int {
	lo, hi := 0, lp.GetSize()-1
	for lo <= hi {
		mid := (lo + hi) / 2
		c := cmp(lp.KeyAt(mid), key)
		switch {
		case c == 0:
			return mid
		case c < 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return basic.InvalidIndexID
}

// FindFirstGE returns the index of the first key >= key; GetSize() when all
// keys are smaller.
func (lp *BPlusTreeLeafPage) FindFirstGE(key int64, cmp basic.KeyComparator) int {
	lo, hi := 0, lp.GetSize()
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(lp.KeyAt(mid), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// InsertDataToPage inserts keeping order. The caller checks for overflow
// afterwards.
func (lp *BPlusTreeLeafPage) InsertDataToPage(key int64, value basic.RID, cmp basic.KeyComparator) {
	pos := lp.FindFirstGE(key, cmp)
	for i := lp.GetSize(); i > pos; i-- {
		lp.SetKeyValueAt(i, lp.KeyAt(i-1), lp.ValueAt(i-1))
	}
	lp.SetKeyValueAt(pos, key, value)
	lp.IncreaseSize(1)
}
