package btree

import "github.com/fowlerlee/geeqodb/pkg/types"

// Remove deletes key from the tree, returning whether it was present.
func (b *BPlusTree) Remove(key types.Comparable) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Root.remove(key)
}

// Count returns the number of keys currently stored, walking the leaf
// linked list left to right.
func (b *BPlusTree) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	curr := b.Root
	for !curr.Leaf {
		curr = curr.Children[0]
	}

	total := 0
	for curr != nil {
		total += curr.N
		curr = curr.Next
	}
	return total
}

// Clear resets the tree to a single empty root, discarding all entries.
func (b *BPlusTree) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Root = NewNode(b.T, true)
}

// ScanFrom walks keys in ascending order starting at lowerBound (or from
// the beginning if lowerBound is nil), invoking fn until it returns false.
func (b *BPlusTree) ScanFrom(lowerBound types.Comparable, fn func(key types.Comparable, dataPtr int64) bool) {
	leaf, idx := b.FindLeafLowerBound(lowerBound)
	defer func() {
		if leaf != nil {
			leaf.RUnlock()
		}
	}()

	for leaf != nil {
		for ; idx < leaf.N; idx++ {
			if !fn(leaf.Keys[idx], leaf.DataPtrs[idx]) {
				return
			}
		}
		next := leaf.Next
		if next != nil {
			next.RLock()
		}
		leaf.RUnlock()
		leaf = next
		idx = 0
	}
}
