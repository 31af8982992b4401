package page

import (
	"bytes"
	"encoding/binary"

	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/buffer"
)

// The header page (page id 0) maps index names to root page ids.
//
//	offset 0  record count
//	offset 4  records: name (32 bytes, zero padded), root page id (4 bytes)
const (
	headerNameSize   = 32
	headerRecordSize = headerNameSize + 4

	// HeaderMaxRecords bounds the number of named indexes.
	HeaderMaxRecords = (basic.PageSize - 4) / headerRecordSize
)

// HeaderPage is the accessor view over the well-known header page.
type HeaderPage struct {
	page *buffer.Page
}

// AsHeaderPage wraps the buffered header page.
func AsHeaderPage(p *buffer.Page) *HeaderPage {
	return &HeaderPage{page: p}
}

func (hp *HeaderPage) data() []byte {
	return hp.page.GetData()
}

// GetRecordCount returns the number of named records.
func (hp *HeaderPage) GetRecordCount() int {
	return int(binary.LittleEndian.Uint32(hp.data()))
}

func (hp *HeaderPage) setRecordCount(count int) {
	binary.LittleEndian.PutUint32(hp.data(), uint32(count))
}

func (hp *HeaderPage) recordOffset(index int) int {
	return 4 + index*headerRecordSize
}

func (hp *HeaderPage) nameAt(index int) string {
	off := hp.recordOffset(index)
	raw := hp.data()[off : off+headerNameSize]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}

func (hp *HeaderPage) findRecord(name string) int {
	for i := 0; i < hp.GetRecordCount(); i++ {
		if hp.nameAt(i) == name {
			return i
		}
	}
	return basic.InvalidIndexID
}

// InsertRecord adds a (name, root) record. Fails when the name exists, is
// too long, or the page is full.
func (hp *HeaderPage) InsertRecord(name string, rootPageID basic.PageID) bool {
	if len(name) >= headerNameSize {
		return false
	}
	if hp.findRecord(name) != basic.InvalidIndexID {
		return false
	}
	count := hp.GetRecordCount()
	if count >= HeaderMaxRecords {
		return false
	}

	off := hp.recordOffset(count)
	d := hp.data()
	for i := 0; i < headerNameSize; i++ {
		d[off+i] = 0
	}
	copy(d[off:], name)
	binary.LittleEndian.PutUint32(d[off+headerNameSize:], uint32(int32(rootPageID)))
	hp.setRecordCount(count + 1)
	return true
}

// UpdateRecord rewrites the root page id of an existing record.
func (hp *HeaderPage) UpdateRecord(name string, rootPageID basic.PageID) bool {
	index := hp.findRecord(name)
	if index == basic.InvalidIndexID {
		return false
	}
	off := hp.recordOffset(index)
	binary.LittleEndian.PutUint32(hp.data()[off+headerNameSize:], uint32(int32(rootPageID)))
	return true
}

// DeleteRecord removes a record by left-shifting its successors.
func (hp *HeaderPage) DeleteRecord(name string) bool {
	index := hp.findRecord(name)
	if index == basic.InvalidIndexID {
		return false
	}
	count := hp.GetRecordCount()
	d := hp.data()
	for i := index + 1; i < count; i++ {
		src := hp.recordOffset(i)
		dst := hp.recordOffset(i - 1)
		copy(d[dst:dst+headerRecordSize], d[src:src+headerRecordSize])
	}
	hp.setRecordCount(count - 1)
	return true
}

// GetRootId looks up the root page id recorded for an index name.
func (hp *HeaderPage) GetRootId(name string) (basic.PageID, bool) {
	index := hp.findRecord(name)
	if index == basic.InvalidIndexID {
		return basic.InvalidPageID, false
	}
	off := hp.recordOffset(index)
	return basic.PageID(int32(binary.LittleEndian.Uint32(hp.data()[off+headerNameSize:]))), true
}
