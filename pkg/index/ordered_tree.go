package index

import (
	"github.com/fowlerlee/geeqodb/pkg/btree"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// treeDegree is the B+Tree minimum degree used for every ordered-tree
// index; fixed rather than user-tunable since no page-size knob is
// exposed.
const treeDegree = 32

// OrderedTreeIndex backs an index with the latch-crabbing B+Tree.
type OrderedTreeIndex struct {
	tree *btree.BPlusTree
}

func NewOrderedTreeIndex(unique bool) *OrderedTreeIndex {
	if unique {
		return &OrderedTreeIndex{tree: btree.NewUniqueTree(treeDegree)}
	}
	return &OrderedTreeIndex{tree: btree.NewTree(treeDegree)}
}

func (idx *OrderedTreeIndex) Kind() Kind { return OrderedTree }

// Insert stores key -> rowID. A unique index rejects an already-present
// key with errors.DuplicateKeyError; a non-unique index overwrites
// last-writer-wins, since the spec does not support multi-valued index
// keys.
func (idx *OrderedTreeIndex) Insert(key types.IntKey, rowID int64) error {
	return idx.tree.Insert(key, rowID)
}

func (idx *OrderedTreeIndex) Get(key types.IntKey) (int64, bool) {
	return idx.tree.Get(key)
}

func (idx *OrderedTreeIndex) Remove(key types.IntKey) bool {
	return idx.tree.Remove(key)
}

func (idx *OrderedTreeIndex) Count() int {
	return idx.tree.Count()
}

func (idx *OrderedTreeIndex) Clear() {
	idx.tree.Clear()
}

func (idx *OrderedTreeIndex) Scan(lowerBound *types.IntKey, fn func(key types.IntKey, rowID int64) bool) {
	var lb types.Comparable
	if lowerBound != nil {
		lb = *lowerBound
	}
	idx.tree.ScanFrom(lb, func(key types.Comparable, dataPtr int64) bool {
		return fn(key.(types.IntKey), dataPtr)
	})
}
