package index

import (
	"encoding/binary"
	"sync"

	"github.com/guycipher/k4/skiplist"

	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// skiplistMaxLevel and skiplistP mirror guycipher/k4's own memtable
// construction (skiplist.NewSkipList(12, 0.25)).
const (
	skiplistMaxLevel = 12
	skiplistP        = 0.25
)

// SkiplistIndex backs an index with a probabilistic skiplist instead of a
// B+Tree. Keys are encoded big-endian so the skiplist's byte-order
// comparison matches signed-integer order for non-negative keys; negative
// keys are folded into the unsigned range by flipping the sign bit.
type SkiplistIndex struct {
	mu     sync.RWMutex
	sl     *skiplist.SkipList
	unique bool
	count  int
}

func NewSkiplistIndex(unique bool) *SkiplistIndex {
	return &SkiplistIndex{
		sl:     skiplist.NewSkipList(skiplistMaxLevel, skiplistP),
		unique: unique,
	}
}

func (idx *SkiplistIndex) Kind() Kind { return Skiplist }

func encodeIntKey(key types.IntKey) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(key)^(1<<63))
	return buf[:]
}

func decodeIntKey(buf []byte) types.IntKey {
	return types.IntKey(binary.BigEndian.Uint64(buf) ^ (1 << 63))
}

func encodeRowID(rowID int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(rowID))
	return buf[:]
}

func decodeRowID(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}

func (idx *SkiplistIndex) Insert(key types.IntKey, rowID int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	encoded := encodeIntKey(key)
	_, found := idx.sl.Search(encoded)
	if found && idx.unique {
		return &errors.DuplicateKeyError{Key: key.String()}
	}
	idx.sl.Insert(encoded, encodeRowID(rowID), nil)
	if !found {
		idx.count++
	}
	return nil
}

func (idx *SkiplistIndex) Get(key types.IntKey) (int64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	v, found := idx.sl.Search(encodeIntKey(key))
	if !found || len(v) == 0 {
		return 0, false
	}
	return decodeRowID(v), true
}

// Remove is a tombstone: the underlying skiplist offers no node removal,
// so a deleted key is marked with a zero-length value and excluded from
// Get and Scan.
func (idx *SkiplistIndex) Remove(key types.IntKey) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	encoded := encodeIntKey(key)
	_, found := idx.sl.Search(encoded)
	if !found {
		return false
	}
	idx.sl.Insert(encoded, []byte{}, nil)
	idx.count--
	return true
}

func (idx *SkiplistIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.count
}

func (idx *SkiplistIndex) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.sl = skiplist.NewSkipList(skiplistMaxLevel, skiplistP)
	idx.count = 0
}

func (idx *SkiplistIndex) Scan(lowerBound *types.IntKey, fn func(key types.IntKey, rowID int64) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	it := skiplist.NewIterator(idx.sl)
	for it.Next() {
		k, v := it.Current()
		if len(v) == 0 {
			continue // tombstone
		}
		key := decodeIntKey(k)
		if lowerBound != nil && key.Compare(*lowerBound) < 0 {
			continue
		}
		if !fn(key, decodeRowID(v)) {
			return
		}
	}
}
