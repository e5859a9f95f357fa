package index

import (
	"os"
	"testing"

	"github.com/fowlerlee/geeqodb/pkg/types"
)

func TestCheckpointManager_CreateThenLoadRoundTrips(t *testing.T) {
	idx := NewOrderedTreeIndex(false)
	idx.Insert(types.IntKey(1), 100)
	idx.Insert(types.IntKey(5), 101)
	idx.Insert(types.IntKey(9), 102)

	dir := t.TempDir()
	cm := NewCheckpointManager(dir)
	if err := cm.CreateCheckpoint("users", "idx_id", idx, 42); err != nil {
		t.Fatalf("CreateCheckpoint failed: %v", err)
	}

	loaded, lsn, err := cm.LoadLatestCheckpoint("users", "idx_id")
	if err != nil {
		t.Fatalf("LoadLatestCheckpoint failed: %v", err)
	}
	if lsn != 42 {
		t.Fatalf("lsn = %d, want 42", lsn)
	}
	if loaded.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", loaded.Count())
	}
	for key, want := range map[types.IntKey]int64{1: 100, 5: 101, 9: 102} {
		got, ok := loaded.Get(key)
		if !ok || got != want {
			t.Fatalf("Get(%d) = %d, %v; want %d, true", key, got, ok, want)
		}
	}
}

func TestCheckpointManager_KeepsOnlyLatestLSN(t *testing.T) {
	idx := NewOrderedTreeIndex(false)
	idx.Insert(types.IntKey(1), 100)

	dir := t.TempDir()
	cm := NewCheckpointManager(dir)
	if err := cm.CreateCheckpoint("users", "idx_id", idx, 1); err != nil {
		t.Fatalf("first CreateCheckpoint failed: %v", err)
	}
	idx.Insert(types.IntKey(2), 200)
	if err := cm.CreateCheckpoint("users", "idx_id", idx, 2); err != nil {
		t.Fatalf("second CreateCheckpoint failed: %v", err)
	}

	if _, err := os.Stat(dir + "/checkpoint_users_idx_id_1.chk"); !os.IsNotExist(err) {
		t.Fatalf("expected LSN-1 checkpoint to be cleaned up, stat err=%v", err)
	}

	loaded, lsn, err := cm.LoadLatestCheckpoint("users", "idx_id")
	if err != nil {
		t.Fatalf("LoadLatestCheckpoint failed: %v", err)
	}
	if lsn != 2 || loaded.Count() != 2 {
		t.Fatalf("got lsn=%d count=%d, want lsn=2 count=2", lsn, loaded.Count())
	}
}

func TestCheckpointManager_LoadMissingReturnsNotExist(t *testing.T) {
	cm := NewCheckpointManager(t.TempDir())
	if _, _, err := cm.LoadLatestCheckpoint("ghosts", "idx"); !os.IsNotExist(err) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
