package index

import (
	"testing"

	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

func TestOrderedTreeIndex_InsertGetRemove(t *testing.T) {
	idx := NewOrderedTreeIndex(false)
	if idx.Kind() != OrderedTree {
		t.Fatalf("Kind() = %v, want OrderedTree", idx.Kind())
	}

	if err := idx.Insert(types.IntKey(10), 100); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if got, ok := idx.Get(types.IntKey(10)); !ok || got != 100 {
		t.Fatalf("Get = %d, %v; want 100, true", got, ok)
	}
	if idx.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", idx.Count())
	}
	if !idx.Remove(types.IntKey(10)) {
		t.Fatal("expected Remove to succeed")
	}
	if _, ok := idx.Get(types.IntKey(10)); ok {
		t.Fatal("expected key to be gone after Remove")
	}
}

func TestOrderedTreeIndex_UniqueRejectsDuplicate(t *testing.T) {
	idx := NewOrderedTreeIndex(true)
	if err := idx.Insert(types.IntKey(1), 10); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	err := idx.Insert(types.IntKey(1), 20)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	if _, ok := err.(*errors.DuplicateKeyError); !ok {
		t.Fatalf("expected DuplicateKeyError, got %T", err)
	}
}

func TestOrderedTreeIndex_NonUniqueOverwrites(t *testing.T) {
	idx := NewOrderedTreeIndex(false)
	idx.Insert(types.IntKey(1), 10)
	if err := idx.Insert(types.IntKey(1), 20); err != nil {
		t.Fatalf("expected overwrite to succeed, got %v", err)
	}
	if got, _ := idx.Get(types.IntKey(1)); got != 20 {
		t.Fatalf("Get = %d, want 20 (last-writer-wins)", got)
	}
}

func TestOrderedTreeIndex_Scan(t *testing.T) {
	idx := NewOrderedTreeIndex(false)
	for _, k := range []int64{3, 1, 4, 1, 5, 9} {
		idx.Insert(types.IntKey(k), k)
	}

	var keys []int64
	idx.Scan(nil, func(key types.IntKey, rowID int64) bool {
		keys = append(keys, int64(key))
		return true
	})

	for i := 1; i < len(keys); i++ {
		if keys[i] < keys[i-1] {
			t.Fatalf("Scan returned unsorted keys: %v", keys)
		}
	}
}

func TestSkiplistIndex_InsertGetRemove(t *testing.T) {
	idx := NewSkiplistIndex(false)
	if idx.Kind() != Skiplist {
		t.Fatalf("Kind() = %v, want Skiplist", idx.Kind())
	}

	if err := idx.Insert(types.IntKey(-5), 42); err != nil {
		t.Fatalf("Insert negative key failed: %v", err)
	}
	if got, ok := idx.Get(types.IntKey(-5)); !ok || got != 42 {
		t.Fatalf("Get(-5) = %d, %v; want 42, true", got, ok)
	}
	if idx.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", idx.Count())
	}
	if !idx.Remove(types.IntKey(-5)) {
		t.Fatal("expected Remove to succeed")
	}
	if _, ok := idx.Get(types.IntKey(-5)); ok {
		t.Fatal("expected tombstoned key to be invisible to Get")
	}
	if idx.Count() != 0 {
		t.Fatalf("Count() after remove = %d, want 0", idx.Count())
	}
}

func TestSkiplistIndex_UniqueRejectsDuplicate(t *testing.T) {
	idx := NewSkiplistIndex(true)
	if err := idx.Insert(types.IntKey(7), 1); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	err := idx.Insert(types.IntKey(7), 2)
	if _, ok := err.(*errors.DuplicateKeyError); !ok {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
}

func TestSkiplistIndex_ScanOrderedAndBounded(t *testing.T) {
	idx := NewSkiplistIndex(false)
	for _, k := range []int64{-10, 0, 5, 20, 100} {
		idx.Insert(types.IntKey(k), k)
	}

	lb := types.IntKey(5)
	var got []int64
	idx.Scan(&lb, func(key types.IntKey, rowID int64) bool {
		got = append(got, int64(key))
		return true
	})

	want := []int64{5, 20, 100}
	if len(got) != len(want) {
		t.Fatalf("Scan with lower bound = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Scan with lower bound = %v, want %v", got, want)
		}
	}
}
