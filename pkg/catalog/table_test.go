package catalog

import (
	"testing"

	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/index"
	"github.com/fowlerlee/geeqodb/pkg/txn"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

func newUsersTable(t *testing.T) *Table {
	t.Helper()
	table, err := newTable("users", usersColumns(), t.TempDir())
	if err != nil {
		t.Fatalf("newTable failed: %v", err)
	}
	return table
}

func TestAppendRow_AssignsSequentialRowIDs(t *testing.T) {
	table := newUsersTable(t)

	id0, err := table.AppendRow([]types.Value{types.NewInteger(1), types.NewText("alice")}, 1)
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	id1, err := table.AppendRow([]types.Value{types.NewInteger(2), types.NewText("bob")}, 1)
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	if id0 != 0 || id1 != 1 {
		t.Fatalf("expected row ids 0,1; got %d,%d", id0, id1)
	}
	if table.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", table.RowCount())
	}
}

func TestScan_ReadCommittedSeesCommittedRows(t *testing.T) {
	table := newUsersTable(t)
	mgr := txn.NewManager()

	writer := mgr.Begin(txn.ReadCommitted)
	if _, err := table.AppendRow([]types.Value{types.NewInteger(1), types.NewText("alice")}, writer.ID); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	reader := mgr.Begin(txn.ReadCommitted)
	rows, err := table.Scan(mgr, reader)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected 0 visible rows before commit, got %d", len(rows))
	}

	if err := mgr.Commit(writer); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	rows, err = table.Scan(mgr, reader)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 visible row after commit, got %d", len(rows))
	}
	if rows[0].Values[1].Text() != "alice" {
		t.Fatalf("unexpected row content: %v", rows[0].Values)
	}
}

func TestUpdateRow_OldVersionInvisibleNewVersionVisible(t *testing.T) {
	table := newUsersTable(t)
	mgr := txn.NewManager()

	writer := mgr.Begin(txn.ReadCommitted)
	rowID, err := table.AppendRow([]types.Value{types.NewInteger(1), types.NewText("alice")}, writer.ID)
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	mgr.Commit(writer)

	updater := mgr.Begin(txn.ReadCommitted)
	if err := table.UpdateRow(rowID, []types.Value{types.NewInteger(1), types.NewText("alice2")}, updater.ID); err != nil {
		t.Fatalf("UpdateRow failed: %v", err)
	}

	readerDuringUpdate := mgr.Begin(txn.ReadCommitted)
	rows, _ := table.Scan(mgr, readerDuringUpdate)
	if len(rows) != 1 || rows[0].Values[1].Text() != "alice" {
		t.Fatalf("expected to still see pre-update row before commit, got %v", rows)
	}

	mgr.Commit(updater)
	readerAfterUpdate := mgr.Begin(txn.ReadCommitted)
	rows, _ = table.Scan(mgr, readerAfterUpdate)
	if len(rows) != 1 || rows[0].Values[1].Text() != "alice2" {
		t.Fatalf("expected updated row after commit, got %v", rows)
	}
}

func TestDeleteRow_HiddenOnceCommitted(t *testing.T) {
	table := newUsersTable(t)
	mgr := txn.NewManager()

	writer := mgr.Begin(txn.ReadCommitted)
	rowID, _ := table.AppendRow([]types.Value{types.NewInteger(1), types.NewText("alice")}, writer.ID)
	mgr.Commit(writer)

	deleter := mgr.Begin(txn.ReadCommitted)
	if err := table.DeleteRow(rowID, deleter.ID); err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}

	reader := mgr.Begin(txn.ReadCommitted)
	rows, _ := table.Scan(mgr, reader)
	if len(rows) != 1 {
		t.Fatalf("row should still be visible before delete commits, got %d rows", len(rows))
	}

	mgr.Commit(deleter)
	rows, _ = table.Scan(mgr, mgr.Begin(txn.ReadCommitted))
	if len(rows) != 0 {
		t.Fatalf("row should be hidden once delete commits, got %d rows", len(rows))
	}
}

func TestCreateIndex_DuplicateNameRejected(t *testing.T) {
	table := newUsersTable(t)
	if err := table.CreateIndex("by_id", "id", index.OrderedTree, true); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	err := table.CreateIndex("by_id", "id", index.OrderedTree, true)
	if _, ok := err.(*errors.TableAlreadyExistsError); !ok {
		t.Fatalf("expected TableAlreadyExistsError for duplicate index name, got %v", err)
	}
}

func TestIndexLookup_NotFound(t *testing.T) {
	table := newUsersTable(t)
	_, _, err := table.Index("missing")
	if _, ok := err.(*errors.IndexNotFoundError); !ok {
		t.Fatalf("expected IndexNotFoundError, got %v", err)
	}
}

func TestIndex_RegisteredAndUsable(t *testing.T) {
	table := newUsersTable(t)
	if err := table.CreateIndex("by_id", "id", index.Skiplist, false); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	idx, column, err := table.Index("by_id")
	if err != nil {
		t.Fatalf("Index lookup failed: %v", err)
	}
	if column != "id" {
		t.Fatalf("column = %s, want id", column)
	}
	if err := idx.Insert(types.IntKey(1), 0); err != nil {
		t.Fatalf("Insert into registered index failed: %v", err)
	}
	if got, ok := idx.Get(types.IntKey(1)); !ok || got != 0 {
		t.Fatalf("Get = %d,%v; want 0,true", got, ok)
	}
}
