package index

import (
	"github.com/pkg/errors"

	"github.com/RedRocks911/granitedb/logger"
	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/storage/buffer"
	"github.com/RedRocks911/granitedb/storage/page"
)

// BPlusTree is a persistent ordered index from int64 keys to RIDs. Every
// node lives only as a buffered page: each operation pins the pages it
// touches and unpins them exactly once, dirty iff mutated. The root page id
// is persisted in the header page (page id 0) under the index name.
//
// The tree carries no latch of its own; per-page transitions are serialized
// by the buffer pool and logical isolation is the caller's business.
type BPlusTree struct {
	indexName  string
	rootPageID basic.PageID
	bpm        *buffer.BufferPoolManager
	comparator basic.KeyComparator

	leafMaxSize     int
	internalMaxSize int
}

// NewBPlusTree opens the named index, recovering a persisted root from the
// header page when one exists.
func NewBPlusTree(name string, bpm *buffer.BufferPoolManager, comparator basic.KeyComparator,
	leafMaxSize, internalMaxSize int) (*BPlusTree, error) {

	if leafMaxSize <= 1 || leafMaxSize > page.LeafMaxCapacity {
		return nil, errors.Errorf("leaf max size %d out of range (2..%d)", leafMaxSize, page.LeafMaxCapacity)
	}
	if internalMaxSize <= 2 || internalMaxSize > page.InternalMaxCapacity {
		return nil, errors.Errorf("internal max size %d out of range (3..%d)", internalMaxSize, page.InternalMaxCapacity)
	}

	t := &BPlusTree{
		indexName:       name,
		rootPageID:      basic.InvalidPageID,
		bpm:             bpm,
		comparator:      comparator,
		leafMaxSize:     leafMaxSize,
		internalMaxSize: internalMaxSize,
	}

	headerPg, err := bpm.FetchPage(basic.HeaderPageID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch header page")
	}
	if root, ok := page.AsHeaderPage(headerPg).GetRootId(name); ok {
		t.rootPageID = root
	}
	bpm.UnpinPage(basic.HeaderPageID, false)

	return t, nil
}

// IsEmpty reports whether the tree has no root.
func (t *BPlusTree) IsEmpty() bool {
	return t.rootPageID == basic.InvalidPageID
}

// GetRootPageID returns the current root page id.
func (t *BPlusTree) GetRootPageID() basic.PageID {
	return t.rootPageID
}

// updateRootPageID persists the root in the header page. insertRecord adds
// a fresh (name, root) record; otherwise the existing record is rewritten.
func (t *BPlusTree) updateRootPageID(insertRecord bool) error {
	headerPg, err := t.bpm.FetchPage(basic.HeaderPageID)
	if err != nil {
		return errors.Wrap(err, "failed to fetch header page")
	}
	header := page.AsHeaderPage(headerPg)
	if insertRecord {
		if !header.InsertRecord(t.indexName, t.rootPageID) {
			header.UpdateRecord(t.indexName, t.rootPageID)
		}
	} else {
		if !header.UpdateRecord(t.indexName, t.rootPageID) {
			header.InsertRecord(t.indexName, t.rootPageID)
		}
	}
	t.bpm.UnpinPage(basic.HeaderPageID, true)
	return nil
}

func (t *BPlusTree) fetchPage(pageID basic.PageID) (*buffer.Page, error) {
	pg, err := t.bpm.FetchPage(pageID)
	if err != nil {
		return nil, errors.Wrapf(err, "b+tree %s: failed to fetch page %d", t.indexName, pageID)
	}
	return pg, nil
}

// findLeafPage descends from the root to the leaf owning key, unpinning
// every internal node after following its pointer. The returned leaf is
// pinned.
func (t *BPlusTree) findLeafPage(key int64) (*page.BPlusTreeLeafPage, error) {
	pageID := t.rootPageID
	pg, err := t.fetchPage(pageID)
	if err != nil {
		return nil, err
	}
	for !page.AsTreePage(pg).IsLeafPage() {
		internal := page.AsInternalPage(pg)
		childID := internal.ValueAt(internal.Find(key, t.comparator))
		childPg, err := t.fetchPage(childID)
		if err != nil {
			t.bpm.UnpinPage(pageID, false)
			return nil, err
		}
		t.bpm.UnpinPage(pageID, false)
		pageID, pg = childID, childPg
	}
	return page.AsLeafPage(pg), nil
}

// GetValue appends the value stored under key to result. Returns false when
// the key is absent.
func (t *BPlusTree) GetValue(key int64, result *[]basic.RID, txn *basic.Transaction) (bool, error) {
	if t.IsEmpty() {
		return false, nil
	}
	leaf, err := t.findLeafPage(key)
	if err != nil {
		return false, err
	}
	index := leaf.Find(key, t.comparator)
	if index == basic.InvalidIndexID {
		t.bpm.UnpinPage(leaf.GetPageID(), false)
		return false, nil
	}
	*result = append(*result, leaf.ValueAt(index))
	t.bpm.UnpinPage(leaf.GetPageID(), false)
	return true, nil
}

// Insert stores (key, value), overwriting the value in place when the key
// already exists. Always reports true on success.
func (t *BPlusTree) Insert(key int64, value basic.RID, txn *basic.Transaction) (bool, error) {
	if t.IsEmpty() {
		rootPg, err := t.bpm.NewPage()
		if err != nil {
			return false, errors.Wrap(err, "failed to allocate root leaf")
		}
		leaf := page.AsLeafPage(rootPg)
		leaf.Init(rootPg.GetPageID(), basic.InvalidPageID, t.leafMaxSize)
		t.rootPageID = rootPg.GetPageID()
		if err := t.updateRootPageID(true); err != nil {
			t.bpm.UnpinPage(t.rootPageID, true)
			return false, err
		}
		leaf.InsertDataToPage(key, value, t.comparator)
		t.bpm.UnpinPage(t.rootPageID, true)
		return true, nil
	}
	return true, t.insertIntoLeaf(key, value)
}

func (t *BPlusTree) insertIntoLeaf(key int64, value basic.RID) error {
	leaf, err := t.findLeafPage(key)
	if err != nil {
		return err
	}
	if index := leaf.Find(key, t.comparator); index != basic.InvalidIndexID {
		leaf.SetKeyValueAt(index, key, value)
		t.bpm.UnpinPage(leaf.GetPageID(), true)
		return nil
	}

	leaf.InsertDataToPage(key, value, t.comparator)
	if leaf.GetSize() <= leaf.GetMaxSize() {
		t.bpm.UnpinPage(leaf.GetPageID(), true)
		return nil
	}

	parentID, err := t.splitLeafPage(leaf)
	t.bpm.UnpinPage(leaf.GetPageID(), true)
	if err != nil {
		return err
	}

	// Propagate: keep splitting while the current internal node overflows.
	currentID := parentID
	currentPg, err := t.fetchPage(currentID)
	if err != nil {
		return err
	}
	current := page.AsInternalPage(currentPg)
	for current.GetSize() > current.GetMaxSize() {
		nextID, err := t.splitInternalPage(current)
		t.bpm.UnpinPage(currentID, true)
		if err != nil {
			return err
		}
		currentID = nextID
		currentPg, err = t.fetchPage(currentID)
		if err != nil {
			return err
		}
		current = page.AsInternalPage(currentPg)
	}
	t.bpm.UnpinPage(currentID, false)
	return nil
}

// splitLeafPage moves the upper half of an overflowing leaf into a fresh
// sibling, links the sibling chain, and promotes the sibling's first key
// into the parent (creating a new root when the leaf was the root).
// Returns the parent's page id. The caller keeps ownership of the leaf's
// pin; every page pinned here is unpinned here.
func (t *BPlusTree) splitLeafPage(leaf *page.BPlusTreeLeafPage) (basic.PageID, error) {
	size := leaf.GetSize()
	newPg, err := t.bpm.NewPage()
	if err != nil {
		return basic.InvalidPageID, errors.Wrap(err, "failed to allocate leaf sibling")
	}
	newLeaf := page.AsLeafPage(newPg)
	newLeafID := newPg.GetPageID()
	newLeaf.Init(newLeafID, leaf.GetParentPageID(), t.leafMaxSize)

	splitIndex := size / 2
	for i := splitIndex; i < size; i++ {
		newLeaf.SetKeyValueAt(i-splitIndex, leaf.KeyAt(i), leaf.ValueAt(i))
	}
	newLeaf.SetSize(size - splitIndex)
	leaf.SetSize(splitIndex)

	var parentID basic.PageID
	if leaf.GetPageID() == t.rootPageID {
		rootPg, err := t.bpm.NewPage()
		if err != nil {
			t.bpm.UnpinPage(newLeafID, true)
			return basic.InvalidPageID, errors.Wrap(err, "failed to allocate new root")
		}
		newRoot := page.AsInternalPage(rootPg)
		newRoot.Init(rootPg.GetPageID(), basic.InvalidPageID, t.internalMaxSize)
		newRoot.SetKeyValueAt(0, 0, leaf.GetPageID())
		newRoot.SetKeyValueAt(1, newLeaf.KeyAt(0), newLeafID)
		newRoot.SetSize(2)
		t.rootPageID = rootPg.GetPageID()
		if err := t.updateRootPageID(false); err != nil {
			t.bpm.UnpinPage(newLeafID, true)
			t.bpm.UnpinPage(rootPg.GetPageID(), true)
			return basic.InvalidPageID, err
		}
		leaf.SetParentPageID(t.rootPageID)
		parentID = t.rootPageID
		t.bpm.UnpinPage(parentID, true)
	} else {
		parentID = leaf.GetParentPageID()
		parentPg, err := t.fetchPage(parentID)
		if err != nil {
			t.bpm.UnpinPage(newLeafID, true)
			return basic.InvalidPageID, err
		}
		page.AsInternalPage(parentPg).InsertDataToPage(newLeaf.KeyAt(0), newLeafID, t.comparator)
		t.bpm.UnpinPage(parentID, true)
	}

	newLeaf.SetParentPageID(parentID)
	newLeaf.SetNextPageID(leaf.GetNextPageID())
	leaf.SetNextPageID(newLeafID)
	t.bpm.UnpinPage(newLeafID, true)

	return parentID, nil
}

// splitInternalPage splits an overflowing internal node, promoting the new
// sibling's first key into the grandparent (creating a new root when
// needed). Children moved to the sibling are reparented. Returns the
// parent's page id; the caller keeps ownership of the node's pin.
func (t *BPlusTree) splitInternalPage(node *page.BPlusTreeInternalPage) (basic.PageID, error) {
	size := node.GetSize()
	newPg, err := t.bpm.NewPage()
	if err != nil {
		return basic.InvalidPageID, errors.Wrap(err, "failed to allocate internal sibling")
	}
	newNode := page.AsInternalPage(newPg)
	newNodeID := newPg.GetPageID()
	newNode.Init(newNodeID, node.GetParentPageID(), t.internalMaxSize)

	splitIndex := size / 2
	for i := splitIndex; i < size; i++ {
		newNode.SetKeyValueAt(i-splitIndex, node.KeyAt(i), node.ValueAt(i))
	}
	newNode.SetSize(size - splitIndex)
	node.SetSize(splitIndex)

	// The promoted key is the sibling's first key; its slot then becomes
	// the sibling's sentinel and is never consulted again.
	promotedKey := newNode.KeyAt(0)

	var parentID basic.PageID
	if node.GetPageID() == t.rootPageID {
		rootPg, err := t.bpm.NewPage()
		if err != nil {
			t.bpm.UnpinPage(newNodeID, true)
			return basic.InvalidPageID, errors.Wrap(err, "failed to allocate new root")
		}
		newRoot := page.AsInternalPage(rootPg)
		newRoot.Init(rootPg.GetPageID(), basic.InvalidPageID, t.internalMaxSize)
		newRoot.SetKeyValueAt(0, 0, node.GetPageID())
		newRoot.SetKeyValueAt(1, promotedKey, newNodeID)
		newRoot.SetSize(2)
		t.rootPageID = rootPg.GetPageID()
		if err := t.updateRootPageID(false); err != nil {
			t.bpm.UnpinPage(newNodeID, true)
			t.bpm.UnpinPage(rootPg.GetPageID(), true)
			return basic.InvalidPageID, err
		}
		node.SetParentPageID(t.rootPageID)
		parentID = t.rootPageID
		t.bpm.UnpinPage(parentID, true)
	} else {
		parentID = node.GetParentPageID()
		parentPg, err := t.fetchPage(parentID)
		if err != nil {
			t.bpm.UnpinPage(newNodeID, true)
			return basic.InvalidPageID, err
		}
		page.AsInternalPage(parentPg).InsertDataToPage(promotedKey, newNodeID, t.comparator)
		t.bpm.UnpinPage(parentID, true)
	}

	newNode.SetKeyValueAt(0, 0, newNode.ValueAt(0))
	newNode.SetParentPageID(parentID)

	if err := t.reparentChildren(newNode); err != nil {
		t.bpm.UnpinPage(newNodeID, true)
		return basic.InvalidPageID, err
	}
	t.bpm.UnpinPage(newNodeID, true)

	return parentID, nil
}

// reparentChildren rewrites the parent pointer of every child of node.
func (t *BPlusTree) reparentChildren(node *page.BPlusTreeInternalPage) error {
	for i := 0; i < node.GetSize(); i++ {
		childID := node.ValueAt(i)
		childPg, err := t.fetchPage(childID)
		if err != nil {
			return err
		}
		page.AsTreePage(childPg).SetParentPageID(node.GetPageID())
		t.bpm.UnpinPage(childID, true)
	}
	return nil
}

// Remove deletes the entry under key, rebalancing underflowing nodes by
// borrowing from or merging with a sibling. Missing keys are ignored.
func (t *BPlusTree) Remove(key int64, txn *basic.Transaction) error {
	if t.IsEmpty() {
		return nil
	}
	leaf, err := t.findLeafPage(key)
	if err != nil {
		return err
	}
	leafID := leaf.GetPageID()

	index := leaf.Find(key, t.comparator)
	if index == basic.InvalidIndexID {
		t.bpm.UnpinPage(leafID, false)
		return nil
	}
	for i := index; i < leaf.GetSize()-1; i++ {
		leaf.SetKeyValueAt(i, leaf.KeyAt(i+1), leaf.ValueAt(i+1))
	}
	leaf.IncreaseSize(-1)

	if leafID == t.rootPageID {
		if leaf.GetSize() == 0 {
			t.bpm.UnpinPage(leafID, false)
			t.bpm.DeletePage(leafID)
			t.rootPageID = basic.InvalidPageID
			return t.updateRootPageID(false)
		}
		t.bpm.UnpinPage(leafID, true)
		return nil
	}

	if leaf.GetSize() >= leaf.GetMinSize() {
		t.bpm.UnpinPage(leafID, true)
		return nil
	}

	// The leaf's pin is consumed by solveUnderflow; walk upward while the
	// parent chain keeps underflowing.
	parentID, done, err := t.solveUnderflow(leaf.Page())
	if err != nil {
		return err
	}
	for !done {
		nodePg, err := t.fetchPage(parentID)
		if err != nil {
			return err
		}
		node := page.AsInternalPage(nodePg)
		if parentID == t.rootPageID || node.GetSize() >= node.GetMinSize() {
			t.bpm.UnpinPage(parentID, false)
			break
		}
		parentID, done, err = t.solveUnderflow(nodePg)
		if err != nil {
			return err
		}
	}
	return nil
}

// solveUnderflow rebalances one underflowing node: borrow from the left
// sibling if it exists (else the right), otherwise merge with it. The
// node's pin is consumed. Returns the parent page id and whether the walk
// can stop (redistribution never propagates; neither does root demotion).
func (t *BPlusTree) solveUnderflow(nodePg *buffer.Page) (basic.PageID, bool, error) {
	node := page.AsTreePage(nodePg)
	nodeID := node.GetPageID()
	parentID := node.GetParentPageID()

	parentPg, err := t.fetchPage(parentID)
	if err != nil {
		t.bpm.UnpinPage(nodeID, true)
		return basic.InvalidPageID, true, err
	}
	parent := page.AsInternalPage(parentPg)
	currentIndex := parent.IndexAtOfValue(nodeID)
	if currentIndex == basic.InvalidIndexID {
		t.bpm.UnpinPage(nodeID, true)
		t.bpm.UnpinPage(parentID, true)
		return basic.InvalidPageID, true, errors.Errorf(
			"b+tree %s: node %d not found in parent %d", t.indexName, nodeID, parentID)
	}

	// Prefer the left sibling; fall back to the right one.
	var leftPg, rightPg *buffer.Page
	var separatorIndex int
	if currentIndex-1 >= 0 {
		siblingID := parent.ValueAt(currentIndex - 1)
		siblingPg, err := t.fetchPage(siblingID)
		if err != nil {
			t.bpm.UnpinPage(nodeID, true)
			t.bpm.UnpinPage(parentID, true)
			return basic.InvalidPageID, true, err
		}
		leftPg, rightPg = siblingPg, nodePg
		separatorIndex = currentIndex
	} else {
		siblingID := parent.ValueAt(currentIndex + 1)
		siblingPg, err := t.fetchPage(siblingID)
		if err != nil {
			t.bpm.UnpinPage(nodeID, true)
			t.bpm.UnpinPage(parentID, true)
			return basic.InvalidPageID, true, err
		}
		leftPg, rightPg = nodePg, siblingPg
		separatorIndex = currentIndex + 1
	}

	left := page.AsTreePage(leftPg)
	right := page.AsTreePage(rightPg)
	sibling := page.AsTreePage(siblingOf(nodePg, leftPg, rightPg))

	if sibling.GetSize() > sibling.GetMinSize() {
		if err := t.redistribute(leftPg, rightPg, parent, separatorIndex); err != nil {
			t.bpm.UnpinPage(left.GetPageID(), true)
			t.bpm.UnpinPage(right.GetPageID(), true)
			t.bpm.UnpinPage(parentID, true)
			return basic.InvalidPageID, true, err
		}
		t.bpm.UnpinPage(left.GetPageID(), true)
		t.bpm.UnpinPage(right.GetPageID(), true)
		t.bpm.UnpinPage(parentID, true)
		return parentID, true, nil
	}

	// Merge: the right participant is appended into the left and deleted.
	if err := t.coalesce(leftPg, rightPg, parent, separatorIndex); err != nil {
		t.bpm.UnpinPage(left.GetPageID(), true)
		t.bpm.UnpinPage(right.GetPageID(), true)
		t.bpm.UnpinPage(parentID, true)
		return basic.InvalidPageID, true, err
	}
	survivorID := left.GetPageID()
	rightID := right.GetPageID()
	t.bpm.UnpinPage(survivorID, true)
	t.bpm.UnpinPage(rightID, true)
	t.bpm.DeletePage(rightID)

	// Root demotion: a root holding a single child hands the root role to
	// that child.
	if parentID == t.rootPageID && parent.GetSize() == 1 {
		t.bpm.UnpinPage(parentID, true)
		t.bpm.DeletePage(parentID)
		t.rootPageID = survivorID
		survivorPg, err := t.fetchPage(survivorID)
		if err != nil {
			return basic.InvalidPageID, true, err
		}
		page.AsTreePage(survivorPg).SetParentPageID(basic.InvalidPageID)
		t.bpm.UnpinPage(survivorID, true)
		return basic.InvalidPageID, true, t.updateRootPageID(false)
	}

	t.bpm.UnpinPage(parentID, true)
	return parentID, false, nil
}

func siblingOf(nodePg, leftPg, rightPg *buffer.Page) *buffer.Page {
	if leftPg == nodePg {
		return rightPg
	}
	return leftPg
}

// redistribute moves one entry across the parent separator so both
// participants end within bounds, rewriting the separator key.
func (t *BPlusTree) redistribute(leftPg, rightPg *buffer.Page, parent *page.BPlusTreeInternalPage, separatorIndex int) error {
	if page.AsTreePage(leftPg).IsLeafPage() {
		t.redistributeLeaf(page.AsLeafPage(leftPg), page.AsLeafPage(rightPg), parent, separatorIndex)
		return nil
	}
	return t.redistributeInternal(page.AsInternalPage(leftPg), page.AsInternalPage(rightPg), parent, separatorIndex)
}

func (t *BPlusTree) redistributeLeaf(left, right *page.BPlusTreeLeafPage, parent *page.BPlusTreeInternalPage, separatorIndex int) {
	if left.GetSize() < left.GetMinSize() {
		// Left borrows the right's first entry.
		left.SetKeyValueAt(left.GetSize(), right.KeyAt(0), right.ValueAt(0))
		for i := 1; i < right.GetSize(); i++ {
			right.SetKeyValueAt(i-1, right.KeyAt(i), right.ValueAt(i))
		}
		left.IncreaseSize(1)
		right.IncreaseSize(-1)
		parent.SetKeyValueAt(separatorIndex, right.KeyAt(0), parent.ValueAt(separatorIndex))
		return
	}
	// Right borrows the left's last entry.
	for i := right.GetSize(); i > 0; i-- {
		right.SetKeyValueAt(i, right.KeyAt(i-1), right.ValueAt(i-1))
	}
	moveIndex := left.GetSize() - 1
	right.SetKeyValueAt(0, left.KeyAt(moveIndex), left.ValueAt(moveIndex))
	left.IncreaseSize(-1)
	right.IncreaseSize(1)
	parent.SetKeyValueAt(separatorIndex, right.KeyAt(0), parent.ValueAt(separatorIndex))
}

func (t *BPlusTree) redistributeInternal(left, right *page.BPlusTreeInternalPage, parent *page.BPlusTreeInternalPage, separatorIndex int) error {
	if left.GetSize() < left.GetMinSize() {
		// The separator key comes down onto the right's leftmost child,
		// which moves across; the right's next key goes up.
		movedChild := right.ValueAt(0)
		left.SetKeyValueAt(left.GetSize(), parent.KeyAt(separatorIndex), movedChild)
		parent.SetKeyValueAt(separatorIndex, right.KeyAt(1), parent.ValueAt(separatorIndex))
		for i := 1; i < right.GetSize(); i++ {
			right.SetKeyValueAt(i-1, right.KeyAt(i), right.ValueAt(i))
		}
		right.SetKeyValueAt(0, 0, right.ValueAt(0))
		left.IncreaseSize(1)
		right.IncreaseSize(-1)
		return t.reparentChild(movedChild, left.GetPageID())
	}
	// The separator key comes down onto the right's old leftmost child;
	// the left's last entry moves across, its key going up.
	for i := right.GetSize(); i > 0; i-- {
		right.SetKeyValueAt(i, right.KeyAt(i-1), right.ValueAt(i-1))
	}
	moveIndex := left.GetSize() - 1
	movedChild := left.ValueAt(moveIndex)
	right.SetKeyValueAt(1, parent.KeyAt(separatorIndex), right.ValueAt(1))
	right.SetKeyValueAt(0, 0, movedChild)
	parent.SetKeyValueAt(separatorIndex, left.KeyAt(moveIndex), parent.ValueAt(separatorIndex))
	left.IncreaseSize(-1)
	right.IncreaseSize(1)
	return t.reparentChild(movedChild, right.GetPageID())
}

func (t *BPlusTree) reparentChild(childID, parentID basic.PageID) error {
	childPg, err := t.fetchPage(childID)
	if err != nil {
		return err
	}
	page.AsTreePage(childPg).SetParentPageID(parentID)
	t.bpm.UnpinPage(childID, true)
	return nil
}

// coalesce appends the right participant into the left and removes the
// parent's separator entry. For internals the separator key is pulled down
// into the right's sentinel slot first; for leaves the sibling chain is
// relinked.
func (t *BPlusTree) coalesce(leftPg, rightPg *buffer.Page, parent *page.BPlusTreeInternalPage, separatorIndex int) error {
	if page.AsTreePage(leftPg).IsLeafPage() {
		left := page.AsLeafPage(leftPg)
		right := page.AsLeafPage(rightPg)
		base := left.GetSize()
		for i := 0; i < right.GetSize(); i++ {
			left.SetKeyValueAt(base+i, right.KeyAt(i), right.ValueAt(i))
		}
		left.IncreaseSize(right.GetSize())
		left.SetNextPageID(right.GetNextPageID())
	} else {
		left := page.AsInternalPage(leftPg)
		right := page.AsInternalPage(rightPg)
		right.SetKeyValueAt(0, parent.KeyAt(separatorIndex), right.ValueAt(0))
		base := left.GetSize()
		for i := 0; i < right.GetSize(); i++ {
			left.SetKeyValueAt(base+i, right.KeyAt(i), right.ValueAt(i))
			if err := t.reparentChild(right.ValueAt(i), left.GetPageID()); err != nil {
				return err
			}
		}
		left.IncreaseSize(right.GetSize())
	}

	for i := separatorIndex + 1; i < parent.GetSize(); i++ {
		parent.SetKeyValueAt(i-1, parent.KeyAt(i), parent.ValueAt(i))
	}
	parent.IncreaseSize(-1)
	return nil
}

// Print dumps the tree to the debug log, one node per line.
func (t *BPlusTree) Print() {
	if t.IsEmpty() {
		logger.Debugf("b+tree %s: empty", t.indexName)
		return
	}
	t.printNode(t.rootPageID)
}

func (t *BPlusTree) printNode(pageID basic.PageID) {
	pg, err := t.fetchPage(pageID)
	if err != nil {
		logger.Warnf("b+tree %s: print fetch %d: %v", t.indexName, pageID, err)
		return
	}
	node := page.AsTreePage(pg)
	if node.IsLeafPage() {
		leaf := page.AsLeafPage(pg)
		keys := make([]int64, 0, leaf.GetSize())
		for i := 0; i < leaf.GetSize(); i++ {
			keys = append(keys, leaf.KeyAt(i))
		}
		logger.Debugf("leaf %d parent=%d next=%d keys=%v",
			pageID, leaf.GetParentPageID(), leaf.GetNextPageID(), keys)
		t.bpm.UnpinPage(pageID, false)
		return
	}
	internal := page.AsInternalPage(pg)
	keys := make([]int64, 0, internal.GetSize())
	children := make([]basic.PageID, 0, internal.GetSize())
	for i := 0; i < internal.GetSize(); i++ {
		keys = append(keys, internal.KeyAt(i))
		children = append(children, internal.ValueAt(i))
	}
	logger.Debugf("internal %d parent=%d keys=%v children=%v",
		pageID, internal.GetParentPageID(), keys, children)
	t.bpm.UnpinPage(pageID, false)
	for _, child := range children {
		t.printNode(child)
	}
}
