package executor

import (
	"testing"

	"github.com/fowlerlee/geeqodb/pkg/catalog"
	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/index"
	"github.com/fowlerlee/geeqodb/pkg/planner"
	"github.com/fowlerlee/geeqodb/pkg/sqlparser"
	"github.com/fowlerlee/geeqodb/pkg/txn"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

func newTestContext(t *testing.T, demo bool) (*Context, *catalog.Catalog, *txn.Manager) {
	t.Helper()
	c := catalog.New()
	if err := c.CreateTable("users", []catalog.ColumnSchema{
		{Name: "id", Type: types.TagInteger},
		{Name: "name", Type: types.TagText},
	}, t.TempDir()); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	mgr := txn.NewManager()
	return &Context{Catalog: c, Txns: mgr, DemoMode: demo}, c, mgr
}

func TestExecute_TableScanReturnsLiveRows(t *testing.T) {
	ctx, c, mgr := newTestContext(t, false)
	table, _ := c.GetTable("users")
	writer := mgr.Begin(txn.ReadCommitted)
	table.AppendRow([]types.Value{types.NewInteger(1), types.NewText("alice")}, writer.ID)
	mgr.Commit(writer)

	reader := mgr.Begin(txn.ReadCommitted)
	plan := &planner.PhysicalTableScan{Table: "users"}
	rs, err := Execute(plan, ctx, reader)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if rs.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", rs.RowCount)
	}
	v, err := rs.Value(1, 0)
	if err != nil || v.Text() != "alice" {
		t.Fatalf("unexpected value: %v, err=%v", v, err)
	}
}

func TestExecute_TableScanUnknownTableWithoutDemoMode(t *testing.T) {
	ctx, _, mgr := newTestContext(t, false)
	reader := mgr.Begin(txn.ReadCommitted)
	plan := &planner.PhysicalTableScan{Table: "ghosts"}
	rs, err := Execute(plan, ctx, reader)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	v, _ := rs.Value(0, 0)
	if v.Text() != "Table not found: ghosts" {
		t.Fatalf("unexpected info row: %v", v)
	}
}

func TestExecute_TableScanDemoFallback(t *testing.T) {
	ctx, _, mgr := newTestContext(t, true)
	reader := mgr.Begin(txn.ReadCommitted)
	plan := &planner.PhysicalTableScan{Table: "users"}
	// "users" doesn't exist in THIS catalog (different from newTestContext's
	// pre-created one) so rebuild a catalog without it.
	ctx.Catalog = catalog.New()
	rs, err := Execute(plan, ctx, reader)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if rs.RowCount != 3 {
		t.Fatalf("expected 3 demo rows, got %d", rs.RowCount)
	}
	v, _ := rs.Value(1, 0)
	if v.Text() != "Alice" {
		t.Fatalf("unexpected demo row: %v", v)
	}
}

func TestExecute_IndexSeekReturnsRowID(t *testing.T) {
	ctx, c, mgr := newTestContext(t, false)
	table, _ := c.GetTable("users")
	writer := mgr.Begin(txn.ReadCommitted)
	rowID, _ := table.AppendRow([]types.Value{types.NewInteger(42), types.NewText("alice")}, writer.ID)
	mgr.Commit(writer)
	if err := table.CreateIndex("idx", "id", index.OrderedTree, true); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	idx, _, _ := table.Index("idx")
	idx.Insert(types.IntKey(42), rowID)

	plan := &planner.PhysicalIndexSeek{
		Table:     "users",
		Predicate: sqlparser.Predicate{Column: sqlparser.Column{Name: "id"}, Op: sqlparser.OpEq, Values: []types.Value{types.NewInteger(42)}},
	}
	plan.Meta().Index = &planner.IndexInfo{Name: "idx", Table: "users", Column: "id"}

	reader := mgr.Begin(txn.ReadCommitted)
	rs, err := Execute(plan, ctx, reader)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if rs.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", rs.RowCount)
	}
	v, _ := rs.Value(0, 0)
	if v.Integer() != rowID {
		t.Fatalf("got row_id %d, want %d", v.Integer(), rowID)
	}
}

func TestExecute_IndexSeekRejectsNonEquality(t *testing.T) {
	ctx, _, mgr := newTestContext(t, false)
	plan := &planner.PhysicalIndexSeek{
		Table:     "users",
		Predicate: sqlparser.Predicate{Column: sqlparser.Column{Name: "id"}, Op: sqlparser.OpGt, Values: []types.Value{types.NewInteger(1)}},
	}
	plan.Meta().Index = &planner.IndexInfo{Name: "idx", Table: "users", Column: "id"}
	reader := mgr.Begin(txn.ReadCommitted)
	_, err := Execute(plan, ctx, reader)
	if _, ok := err.(*errors.InvalidPlanError); !ok {
		t.Fatalf("expected InvalidPlanError, got %v", err)
	}
}

func TestExecute_MinimalNodesReturnEmptyResultSet(t *testing.T) {
	ctx, _, mgr := newTestContext(t, false)
	reader := mgr.Begin(txn.ReadCommitted)
	rs, err := Execute(&planner.PhysicalSort{}, ctx, reader)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if rs.RowCount != 0 || len(rs.Columns) != 0 {
		t.Fatalf("expected empty result set, got %+v", rs)
	}
}
