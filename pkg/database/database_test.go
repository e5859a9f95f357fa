package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/index"
)

// TestDatabase_WALRecoveryRoundTrip creates a table, inserts two rows,
// closes, then recovers and expects the catalog to contain the same table
// and rows.
func TestDatabase_WALRecoveryRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "d")

	db, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := db.Execute("CREATE TABLE t (id INTEGER, name TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Execute("INSERT INTO t VALUES (1, 'a')"); err != nil {
		t.Fatalf("INSERT 1 failed: %v", err)
	}
	if _, err := db.Execute("INSERT INTO t VALUES (2, 'b')"); err != nil {
		t.Fatalf("INSERT 2 failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	recovered, err := Recover(dir, Options{})
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	defer recovered.Close()

	table, err := recovered.catalg.GetTable("t")
	if err != nil {
		t.Fatalf("recovered catalog missing table t: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0].Name != "id" || table.Columns[1].Name != "name" {
		t.Fatalf("unexpected recovered columns: %+v", table.Columns)
	}
	if table.RowCount() != 2 {
		t.Fatalf("expected 2 recovered rows, got %d", table.RowCount())
	}
}

func TestDatabase_SelectAfterInsert(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Execute("CREATE TABLE users (id INTEGER, name TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Execute("INSERT INTO users VALUES (1, 'alice')"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}

	rs, err := db.Execute("SELECT * FROM users")
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	if rs.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", rs.RowCount)
	}
}

func TestDatabase_SelectUnknownTableWithoutDemoMode(t *testing.T) {
	db, err := Open(t.TempDir(), Options{DemoMode: false})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	rs, err := db.Execute("SELECT * FROM ghosts")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	v, _ := rs.Value(0, 0)
	if v.Text() != "Table not found: ghosts" {
		t.Fatalf("unexpected info row: %v", v)
	}
}

func TestDatabase_SelectUnknownTableWithDemoMode(t *testing.T) {
	db, err := Open(t.TempDir(), Options{DemoMode: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	rs, err := db.Execute("SELECT * FROM users")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if rs.RowCount != 3 {
		t.Fatalf("expected 3 demo rows, got %d", rs.RowCount)
	}
}

func TestDatabase_CreateIndexThenSeek(t *testing.T) {
	db, err := Open(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Execute("CREATE TABLE users (id INTEGER, name TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Execute("INSERT INTO users VALUES (42, 'alice')"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}
	if _, err := db.Execute("CREATE INDEX idx ON users (id)"); err != nil {
		t.Fatalf("CREATE INDEX failed: %v", err)
	}

	table, err := db.catalg.GetTable("users")
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	idx, _, err := table.Index("idx")
	if err != nil {
		t.Fatalf("Index lookup failed: %v", err)
	}
	// CreateIndex only registers the index; it does not backfill existing
	// rows, so seed it here.
	idx.Insert(42, 0)

	rs, err := db.Execute("SELECT * FROM users WHERE id = 42")
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	if rs.RowCount != 1 {
		t.Fatalf("expected 1 matching row_id, got %d", rs.RowCount)
	}
}

func TestDatabase_InsertUnknownTableRemapsToTableNotFound(t *testing.T) {
	db, err := Open(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	_, err = db.Execute("INSERT INTO ghosts VALUES (1, 'a')")
	if _, ok := err.(*errors.TableNotFoundError); !ok {
		t.Fatalf("expected TableNotFoundError, got %v (%T)", err, err)
	}
}

func TestDatabase_IndexCheckpointRoundTrips(t *testing.T) {
	db, err := Open(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Execute("CREATE TABLE users (id INTEGER, name TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Execute("INSERT INTO users VALUES (42, 'alice')"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}
	if _, err := db.Execute("CREATE INDEX idx ON users (id)"); err != nil {
		t.Fatalf("CREATE INDEX failed: %v", err)
	}

	table, err := db.catalg.GetTable("users")
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	idx, _, err := table.Index("idx")
	if err != nil {
		t.Fatalf("Index lookup failed: %v", err)
	}
	idx.Insert(42, 0)

	if err := db.CreateIndexCheckpoint("users", "idx"); err != nil {
		t.Fatalf("CreateIndexCheckpoint failed: %v", err)
	}

	// Simulate a fresh index (as CREATE INDEX alone would leave it) and
	// reload from the checkpoint instead of rescanning the table.
	table.ReplaceIndex("idx", mustEmptyIndex(t))
	if err := db.LoadIndexCheckpoint("users", "idx"); err != nil {
		t.Fatalf("LoadIndexCheckpoint failed: %v", err)
	}

	reloaded, _, err := table.Index("idx")
	if err != nil {
		t.Fatalf("Index lookup after reload failed: %v", err)
	}
	rowID, ok := reloaded.Get(42)
	if !ok || rowID != 0 {
		t.Fatalf("Get(42) = %d, %v; want 0, true", rowID, ok)
	}
}

func mustEmptyIndex(t *testing.T) index.Index {
	t.Helper()
	idx, err := index.New(index.OrderedTree, false)
	if err != nil {
		t.Fatalf("index.New failed: %v", err)
	}
	return idx
}

func TestDatabase_BackupWritesWALPositionMetadata(t *testing.T) {
	db, err := Open(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Execute("CREATE TABLE t (id INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Execute("INSERT INTO t VALUES (1)"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}

	backupDir := filepath.Join(t.TempDir(), "backup")
	if err := db.Backup(backupDir); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(backupDir, "metadata.json"))
	if err != nil {
		t.Fatalf("reading metadata.json failed: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected non-empty metadata.json")
	}
}
