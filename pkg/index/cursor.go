package index

import (
	"github.com/fowlerlee/geeqodb/pkg/btree"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// Cursor is a latch-crabbing iterator over an OrderedTreeIndex: Seek
// acquires a read lock on the leaf it lands on and holds it until the
// cursor moves past that leaf or is closed, giving a stable view of each
// leaf's entries without locking the whole tree for the iteration's
// duration. Prefer Index.Scan for a one-shot walk; Cursor exists for
// callers that need to interleave two positions over the same index, such
// as a future merge join.
type Cursor struct {
	tree    *btree.BPlusTree
	node    *btree.Node
	pos     int
	started bool
}

// NewCursor returns an unpositioned cursor over idx; Next returns false
// until Seek has positioned it.
func (idx *OrderedTreeIndex) NewCursor() *Cursor {
	return &Cursor{tree: idx.tree}
}

// Close releases the read lock the cursor may be holding. Safe to call
// more than once.
func (c *Cursor) Close() {
	if c.node != nil {
		c.node.RUnlock()
		c.node = nil
	}
}

// Seek positions the cursor at key, or at the first key greater than it if
// key is absent.
func (c *Cursor) Seek(key types.IntKey) {
	c.Close()
	c.started = true

	leaf, idx := c.tree.FindLeafLowerBound(key)
	if leaf == nil {
		return
	}
	leaf, idx = skipEmptyLeaves(leaf, idx)
	c.node = leaf
	c.pos = idx
}

// Valid reports whether the cursor is positioned on a real entry.
func (c *Cursor) Valid() bool {
	return c.node != nil && c.pos < c.node.N
}

// Key returns the entry the cursor is positioned on. Only valid when
// Valid() is true.
func (c *Cursor) Key() types.IntKey {
	return c.node.Keys[c.pos].(types.IntKey)
}

// Value returns the row id the cursor is positioned on. Only valid when
// Valid() is true.
func (c *Cursor) Value() int64 {
	return c.node.DataPtrs[c.pos]
}

// Next advances the cursor by one entry, returning false once exhausted.
func (c *Cursor) Next() bool {
	if c.node == nil {
		return false
	}
	if c.pos+1 < c.node.N {
		c.pos++
		return true
	}

	next := c.node.Next
	if next != nil {
		next.RLock()
	}
	c.node.RUnlock()
	c.node, c.pos = skipEmptyLeaves(next, 0)
	return c.node != nil
}

// skipEmptyLeaves advances past any leaf with zero live entries, holding
// the read lock on whichever leaf it finally settles on (or releasing it
// entirely if the chain is exhausted).
func skipEmptyLeaves(leaf *btree.Node, idx int) (*btree.Node, int) {
	for leaf != nil && idx >= leaf.N {
		next := leaf.Next
		if next != nil {
			next.RLock()
		}
		leaf.RUnlock()
		leaf = next
		idx = 0
	}
	return leaf, idx
}
