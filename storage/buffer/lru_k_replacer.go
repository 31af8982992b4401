package buffer

import (
	"container/list"
	"sync"

	"github.com/RedRocks911/granitedb/logger"
	"github.com/RedRocks911/granitedb/storage/basic"
)

// lruKNode tracks one frame's access history. A node is linked into exactly
// one of the replacer's lists while the frame is evictable, and into none
// while it is pinned.
type lruKNode struct {
	frameID   basic.FrameID
	accesses  int
	evictable bool
	elem      *list.Element
	inBuffer  bool
}

// LRUKReplacer picks the evictable frame with the largest backward
// K-distance. Frames with fewer than K recorded accesses all have +inf
// distance and are kept on the history list; frames with K or more accesses
// live on the buffer list. Both lists keep the most recently touched frame
// at the front, so eviction always pops a tail:
// the history tail first (earliest overall access among the +inf frames),
// then the buffer tail (earliest Kth-latest access).
type LRUKReplacer struct {
	mu sync.Mutex

	k        int
	capacity int

	entries map[basic.FrameID]*lruKNode

	historyList *list.List
	bufferList  *list.List

	currHistorySize int
	currBufferSize  int
}

// NewLRUKReplacer builds a replacer for at most numFrames evictable frames.
func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	return &LRUKReplacer{
		k:           k,
		capacity:    numFrames,
		entries:     make(map[basic.FrameID]*lruKNode),
		historyList: list.New(),
		bufferList:  list.New(),
	}
}

// Size returns the count of evictable frames.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sizeInternal()
}

func (r *LRUKReplacer) sizeInternal() int {
	return r.currHistorySize + r.currBufferSize
}

// RecordAccess notes an access to the frame, creating its history on first
// sight. An evictable frame crossing the K threshold migrates from the
// history list to the buffer list; one already past it is promoted to the
// buffer front.
func (r *LRUKReplacer) RecordAccess(frameID basic.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.entries[frameID]
	if !ok {
		r.entries[frameID] = &lruKNode{frameID: frameID, accesses: 1}
		return
	}

	node.accesses++
	if node.evictable && node.accesses >= r.k {
		if node.accesses == r.k {
			r.currHistorySize--
		} else {
			r.currBufferSize--
		}
		r.unlink(node)
		r.pushFrontBuffer(node)
		r.currBufferSize++
	}
}

// SetEvictable toggles whether the frame is an eviction candidate. Turning
// a frame evictable while the replacer is at capacity evicts first; turning
// it unevictable clears its access history, so the next access opens a
// fresh +inf window.
func (r *LRUKReplacer) SetEvictable(frameID basic.FrameID, setEvictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.entries[frameID]
	if !ok {
		return
	}

	if node.evictable && !setEvictable {
		if node.accesses >= r.k {
			r.currBufferSize--
		} else {
			r.currHistorySize--
		}
		r.unlink(node)
		node.evictable = false
		node.accesses = 0
	} else if !node.evictable && setEvictable {
		for r.sizeInternal() >= r.capacity {
			if _, ok := r.evictInternal(); !ok {
				break
			}
		}
		node.evictable = true
		if node.accesses >= r.k {
			r.pushFrontBuffer(node)
			r.currBufferSize++
		} else {
			r.pushFrontHistory(node)
			r.currHistorySize++
		}
	}
}

// Remove drops the frame's access history entirely. Only legal on evictable
// frames; calling it on a pinned frame is a bug in the caller.
func (r *LRUKReplacer) Remove(frameID basic.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.entries[frameID]
	if !ok {
		return
	}
	if !node.evictable {
		logger.Warnf("lru-k: Remove on non-evictable frame %d ignored", frameID)
		return
	}

	if node.accesses >= r.k {
		r.currBufferSize--
	} else {
		r.currHistorySize--
	}
	r.unlink(node)
	delete(r.entries, frameID)
}

// Evict pops the frame with the largest backward K-distance, clearing its
// access history. Returns false iff no frame is evictable.
func (r *LRUKReplacer) Evict() (basic.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictInternal()
}

func (r *LRUKReplacer) evictInternal() (basic.FrameID, bool) {
	if r.sizeInternal() == 0 {
		return 0, false
	}

	var node *lruKNode
	if r.currHistorySize != 0 {
		node = r.historyList.Back().Value.(*lruKNode)
		r.currHistorySize--
	} else {
		node = r.bufferList.Back().Value.(*lruKNode)
		r.currBufferSize--
	}

	r.unlink(node)
	node.evictable = false
	node.accesses = 0
	return node.frameID, true
}

func (r *LRUKReplacer) unlink(node *lruKNode) {
	if node.elem == nil {
		return
	}
	if node.inBuffer {
		r.bufferList.Remove(node.elem)
	} else {
		r.historyList.Remove(node.elem)
	}
	node.elem = nil
}

func (r *LRUKReplacer) pushFrontHistory(node *lruKNode) {
	node.elem = r.historyList.PushFront(node)
	node.inBuffer = false
}

func (r *LRUKReplacer) pushFrontBuffer(node *lruKNode) {
	node.elem = r.bufferList.PushFront(node)
	node.inBuffer = true
}
