package executor

import (
	"testing"

	"github.com/fowlerlee/geeqodb/pkg/index"
	"github.com/fowlerlee/geeqodb/pkg/planner"
	"github.com/fowlerlee/geeqodb/pkg/sqlparser"
	"github.com/fowlerlee/geeqodb/pkg/txn"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

func TestMatchPredicate(t *testing.T) {
	cases := []struct {
		name string
		pred sqlparser.Predicate
		val  types.Value
		want bool
	}{
		{"eq match", sqlparser.Predicate{Op: sqlparser.OpEq, Values: []types.Value{types.NewInteger(5)}}, types.NewInteger(5), true},
		{"eq mismatch", sqlparser.Predicate{Op: sqlparser.OpEq, Values: []types.Value{types.NewInteger(5)}}, types.NewInteger(6), false},
		{"gt", sqlparser.Predicate{Op: sqlparser.OpGt, Values: []types.Value{types.NewInteger(5)}}, types.NewInteger(6), true},
		{"between", sqlparser.Predicate{Op: sqlparser.OpBetween, Values: []types.Value{types.NewInteger(1), types.NewInteger(10)}}, types.NewInteger(7), true},
		{"in hit", sqlparser.Predicate{Op: sqlparser.OpIn, Values: []types.Value{types.NewText("a"), types.NewText("b")}}, types.NewText("b"), true},
		{"in miss", sqlparser.Predicate{Op: sqlparser.OpIn, Values: []types.Value{types.NewText("a")}}, types.NewText("c"), false},
		{"like prefix", sqlparser.Predicate{Op: sqlparser.OpLike, Values: []types.Value{types.NewText("al%")}}, types.NewText("alice"), true},
		{"like single char", sqlparser.Predicate{Op: sqlparser.OpLike, Values: []types.Value{types.NewText("a_ice")}}, types.NewText("alice"), true},
		{"like mismatch", sqlparser.Predicate{Op: sqlparser.OpLike, Values: []types.Value{types.NewText("bob%")}}, types.NewText("alice"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := matchPredicate(c.pred, c.val); got != c.want {
				t.Fatalf("matchPredicate(%+v, %v) = %v, want %v", c.pred, c.val, got, c.want)
			}
		})
	}
}

func TestExecute_FilterKeepsOnlyMatchingRows(t *testing.T) {
	ctx, c, mgr := newTestContext(t, false)
	table, _ := c.GetTable("users")
	writer := mgr.Begin(txn.ReadCommitted)
	table.AppendRow([]types.Value{types.NewInteger(1), types.NewText("alice")}, writer.ID)
	table.AppendRow([]types.Value{types.NewInteger(2), types.NewText("bob")}, writer.ID)
	mgr.Commit(writer)

	scan := &planner.PhysicalTableScan{Table: "users"}
	filter := planner.NewPhysicalFilter(scan, []sqlparser.Predicate{
		{Column: sqlparser.Column{Name: "id"}, Op: sqlparser.OpEq, Values: []types.Value{types.NewInteger(2)}},
	})

	reader := mgr.Begin(txn.ReadCommitted)
	rs, err := Execute(filter, ctx, reader)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if rs.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", rs.RowCount)
	}
	v, _ := rs.Value(1, 0)
	if v.Text() != "bob" {
		t.Fatalf("expected bob, got %v", v)
	}
}

func TestExecute_ProjectNarrowsColumns(t *testing.T) {
	ctx, c, mgr := newTestContext(t, false)
	table, _ := c.GetTable("users")
	writer := mgr.Begin(txn.ReadCommitted)
	table.AppendRow([]types.Value{types.NewInteger(1), types.NewText("alice")}, writer.ID)
	mgr.Commit(writer)

	scan := &planner.PhysicalTableScan{Table: "users"}
	proj := planner.NewPhysicalProject(scan, []sqlparser.Column{{Name: "name"}}, false)

	reader := mgr.Begin(txn.ReadCommitted)
	rs, err := Execute(proj, ctx, reader)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(rs.Columns) != 1 || rs.Columns[0].Name != "name" {
		t.Fatalf("expected a single name column, got %+v", rs.Columns)
	}
	v, _ := rs.Value(0, 0)
	if v.Text() != "alice" {
		t.Fatalf("expected alice, got %v", v)
	}
}

func TestExecute_IndexRangeScanReturnsRowIDsWithinBounds(t *testing.T) {
	ctx, c, mgr := newTestContext(t, false)
	table, _ := c.GetTable("users")
	if err := table.CreateIndex("idx", "id", index.OrderedTree, false); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	idx, _, _ := table.Index("idx")
	idx.Insert(types.IntKey(1), 100)
	idx.Insert(types.IntKey(5), 101)
	idx.Insert(types.IntKey(9), 102)

	plan := &planner.PhysicalIndexRangeScan{
		Table:     "users",
		Predicate: sqlparser.Predicate{Column: sqlparser.Column{Name: "id"}, Op: sqlparser.OpBetween, Values: []types.Value{types.NewInteger(2), types.NewInteger(9)}},
	}
	plan.Meta().Index = &planner.IndexInfo{Name: "idx", Table: "users", Column: "id"}

	reader := mgr.Begin(txn.ReadCommitted)
	rs, err := Execute(plan, ctx, reader)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if rs.RowCount != 2 {
		t.Fatalf("expected 2 row ids in [2,9], got %d", rs.RowCount)
	}
}
