package index

import (
	"github.com/pkg/errors"

	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/page"
)

// IndexIterator walks leaf entries in comparator order, hopping through the
// sibling chain. It keeps the current leaf pinned; callers that stop before
// the end must Close it.
type IndexIterator struct {
	tree  *BPlusTree
	leaf  *page.BPlusTreeLeafPage // nil once past the last entry
	index int
}

// Begin positions at the leftmost entry.
func (t *BPlusTree) Begin() (*IndexIterator, error) {
	if t.IsEmpty() {
		return &IndexIterator{tree: t}, nil
	}

	pageID := t.rootPageID
	pg, err := t.fetchPage(pageID)
	if err != nil {
		return nil, err
	}
	for !page.AsTreePage(pg).IsLeafPage() {
		internal := page.AsInternalPage(pg)
		childID := internal.ValueAt(0)
		childPg, err := t.fetchPage(childID)
		if err != nil {
			t.bpm.UnpinPage(pageID, false)
			return nil, err
		}
		t.bpm.UnpinPage(pageID, false)
		pageID, pg = childID, childPg
	}

	it := &IndexIterator{tree: t, leaf: page.AsLeafPage(pg)}
	return it, it.normalize()
}

// BeginFrom positions at key, or at the first key greater than it.
func (t *BPlusTree) BeginFrom(key int64) (*IndexIterator, error) {
	if t.IsEmpty() {
		return &IndexIterator{tree: t}, nil
	}
	leaf, err := t.findLeafPage(key)
	if err != nil {
		return nil, err
	}
	it := &IndexIterator{tree: t, leaf: leaf, index: leaf.FindFirstGE(key, t.comparator)}
	return it, it.normalize()
}

// End returns the past-the-last iterator.
func (t *BPlusTree) End() (*IndexIterator, error) {
	return &IndexIterator{tree: t}, nil
}

// normalize hops forward until the iterator rests on an entry or runs off
// the rightmost leaf.
func (it *IndexIterator) normalize() error {
	for it.leaf != nil && it.index >= it.leaf.GetSize() {
		nextID := it.leaf.GetNextPageID()
		it.tree.bpm.UnpinPage(it.leaf.GetPageID(), false)
		it.leaf = nil
		if nextID == basic.InvalidPageID {
			return nil
		}
		pg, err := it.tree.fetchPage(nextID)
		if err != nil {
			return err
		}
		it.leaf = page.AsLeafPage(pg)
		it.index = 0
	}
	return nil
}

// IsEnd reports whether the iterator is past the last entry.
func (it *IndexIterator) IsEnd() bool {
	return it.leaf == nil
}

// Key returns the key under the cursor.
func (it *IndexIterator) Key() int64 {
	if it.leaf == nil {
		panic(errors.New("index iterator: Key past the end"))
	}
	return it.leaf.KeyAt(it.index)
}

// Value returns the RID under the cursor.
func (it *IndexIterator) Value() basic.RID {
	if it.leaf == nil {
		panic(errors.New("index iterator: Value past the end"))
	}
	return it.leaf.ValueAt(it.index)
}

// Next advances one entry, following the sibling link off the end of the
// current leaf.
func (it *IndexIterator) Next() error {
	if it.leaf == nil {
		return errors.New("index iterator: Next past the end")
	}
	it.index++
	return it.normalize()
}

// Close releases the pinned leaf, if any. Safe to call more than once.
func (it *IndexIterator) Close() {
	if it.leaf != nil {
		it.tree.bpm.UnpinPage(it.leaf.GetPageID(), false)
		it.leaf = nil
	}
}
