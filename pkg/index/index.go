// Package index implements the two secondary index kinds named in the
// spec's catalog: an ordered B+Tree ("ordered-tree") and a skiplist, both
// mapping a signed 64-bit key to a row id.
package index

import (
	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// Kind names which data structure backs an Index.
type Kind int

const (
	OrderedTree Kind = iota
	Skiplist
)

func (k Kind) String() string {
	switch k {
	case OrderedTree:
		return "ordered-tree"
	case Skiplist:
		return "skiplist"
	default:
		return "unknown"
	}
}

// Index is the contract every index kind satisfies: map an integer key to
// a row id, with last-writer-wins semantics on a repeated key (the spec
// does not support multi-valued index keys).
type Index interface {
	Kind() Kind
	Insert(key types.IntKey, rowID int64) error
	Get(key types.IntKey) (int64, bool)
	Remove(key types.IntKey) bool
	Count() int
	Clear()
	// Scan walks entries with key >= lowerBound (or all entries if
	// lowerBound is nil) in ascending key order, calling fn for each until
	// fn returns false or entries are exhausted.
	Scan(lowerBound *types.IntKey, fn func(key types.IntKey, rowID int64) bool)
}

// New builds an Index of the given kind.
func New(kind Kind, unique bool) (Index, error) {
	switch kind {
	case OrderedTree:
		return NewOrderedTreeIndex(unique), nil
	case Skiplist:
		return NewSkiplistIndex(unique), nil
	default:
		return nil, &errors.UnsupportedKeyTypeError{TypeName: kind.String()}
	}
}
