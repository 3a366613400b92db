package sched

import (
	"github.com/emirpasic/gods/trees/redblacktree"
)

// WorkQueue holds pending Work items ordered by priority, then by submission.
// The leftmost node is always the item SelectHighestPriority returns, so
// repeated selections without mutation yield the same item.
type WorkQueue struct {
	rbt *redblacktree.Tree
}

// NewWorkQueue creates an empty queue.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{rbt: redblacktree.NewWith(cmp)}
}

// Insert adds w. Inserting the same item twice keeps a single entry.
func (q *WorkQueue) Insert(w *Work) {
	q.rbt.Put(keyOf(w), w)
}

// RemoveCompleted removes w. Removing an absent item is a no-op.
func (q *WorkQueue) RemoveCompleted(w *Work) {
	q.rbt.Remove(keyOf(w))
}

// SelectHighestPriority returns the most urgent pending item; among equal
// priorities the earliest submitted wins.
func (q *WorkQueue) SelectHighestPriority() (*Work, bool) {
	node := q.rbt.Left()
	if node == nil {
		return nil, false
	}
	return node.Value.(*Work), true
}

func (q *WorkQueue) Len() int { return q.rbt.Size() }

// nodeKey is used as a key in the red-black tree.
type nodeKey struct {
	priority Priority
	id       WorkID
}

func keyOf(w *Work) nodeKey {
	return nodeKey{priority: w.priority, id: w.id}
}

// cmp orders higher priority first, then lower id.
func cmp(a, b any) int {
	ka, kb := a.(nodeKey), b.(nodeKey)
	switch {
	case ka.priority.Higher(kb.priority):
		return -1
	case kb.priority.Higher(ka.priority):
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}
