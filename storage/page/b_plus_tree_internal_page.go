package page

import (
	"encoding/binary"

	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/buffer"
)

// Internal entry: key (8 bytes), child page id (4).
const internalEntrySize = 12

// InternalMaxCapacity is the hard bound on internal_max_size imposed by the
// page size, with one overflow slot reserved.
const InternalMaxCapacity = (basic.PageSize-nodeHeaderSize)/internalEntrySize - 1

// BPlusTreeInternalPage routes key ranges to children. Entry 0 carries a
// sentinel key and the leftmost child pointer; for i >= 1, key[i] is the
// least key reachable through value[i]. The sentinel slot's stored key is
// never consulted by searches.
type BPlusTreeInternalPage struct {
	BPlusTreePage
}

// AsInternalPage reinterprets a buffered page as an internal node.
func AsInternalPage(p *buffer.Page) *BPlusTreeInternalPage {
	return &BPlusTreeInternalPage{BPlusTreePage{page: p}}
}

// Init formats the page as an empty internal node.
func (ip *BPlusTreeInternalPage) Init(pageID, parentID basic.PageID, maxSize int) {
	ip.initHeader(typeInternal, pageID, parentID, maxSize)
}

func (ip *BPlusTreeInternalPage) entryOffset(index int) int {
	return nodeHeaderSize + index*internalEntrySize
}

// KeyAt returns the routing key at index. Index 0 holds the sentinel.
func (ip *BPlusTreeInternalPage) KeyAt(index int) int64 {
	off := ip.entryOffset(index)
	return int64(binary.LittleEndian.Uint64(ip.data()[off:]))
}

// ValueAt returns the child page id at index.
func (ip *BPlusTreeInternalPage) ValueAt(index int) basic.PageID {
	off := ip.entryOffset(index)
	return basic.PageID(int32(binary.LittleEndian.Uint32(ip.data()[off+8:])))
}

// SetKeyValueAt stores one routing entry at index.
func (ip *BPlusTreeInternalPage) SetKeyValueAt(index int, key int64, value basic.PageID) {
	off := ip.entryOffset(index)
	d := ip.data()
	binary.LittleEndian.PutUint64(d[off:], uint64(key))
	binary.LittleEndian.PutUint32(d[off+8:], uint32(int32(value)))
}

// Find returns the child slot to descend for key: the greatest index i with
// key[i] <= key, treating key[0] as minus infinity.
func (ip *BPlusTreeInternalPage) Find(key int64, cmp basic.KeyComparator) int {
	lo, hi := 1, ip.GetSize()-1
	result := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if cmp(ip.KeyAt(mid), key) <= 0 {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}

// IndexAtOfValue returns the entry index pointing at the given child, or
// InvalidIndexID.
func (ip *BPlusTreeInternalPage) IndexAtOfValue(value basic.PageID) int {
	for i := 0; i < ip.GetSize(); i++ {
		if ip.ValueAt(i) == value {
			return i
		}
	}
	return basic.InvalidIndexID
}

// InsertDataToPage inserts a routing entry keeping keys 1..size strictly
// increasing. The caller checks for overflow afterwards.
func (ip *BPlusTreeInternalPage) InsertDataToPage(key int64, value basic.PageID, cmp basic.KeyComparator) {
	pos := ip.GetSize()
	for i := 1; i < ip.GetSize(); i++ {
		if cmp(ip.KeyAt(i), key) > 0 {
			pos = i
			break
		}
	}
	for i := ip.GetSize(); i > pos; i-- {
		ip.SetKeyValueAt(i, ip.KeyAt(i-1), ip.ValueAt(i-1))
	}
	ip.SetKeyValueAt(pos, key, value)
	ip.IncreaseSize(1)
}
