package executor

import (
	"github.com/fowlerlee/geeqodb/pkg/catalog"
	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/planner"
	"github.com/fowlerlee/geeqodb/pkg/query"
	"github.com/fowlerlee/geeqodb/pkg/sqlparser"
	"github.com/fowlerlee/geeqodb/pkg/txn"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// Context is everything Execute needs to resolve a physical plan: the live
// catalog, the transaction manager for visibility checks, and the demo-mode
// flag that gates the canned TableScan fallback for tables that don't
// exist yet, surfaced as an explicit flag rather than a hard-coded table
// list.
type Context struct {
	Catalog  *catalog.Catalog
	Txns     *txn.Manager
	DemoMode bool
}

// Execute dispatches a physical plan by node type, a Put/Get/Scan-style
// dispatch generalized across every physical node kind.
func Execute(plan planner.PhysicalNode, ctx *Context, reader *txn.Transaction) (*ResultSet, error) {
	switch n := plan.(type) {
	case *planner.PhysicalTableScan:
		return executeTableScan(n, ctx, reader)
	case *planner.PhysicalIndexSeek:
		return executeIndexSeek(n, ctx)
	case *planner.PhysicalIndexRangeScan:
		return executeIndexRangeScan(n, ctx)
	case *planner.PhysicalIndexScan:
		return executeIndexScan(n, ctx)
	case *planner.PhysicalFilter:
		return executeFilter(n, ctx, reader)
	case *planner.PhysicalProject:
		return executeProject(n, ctx, reader)
	case *planner.PhysicalNestedLoopJoin, *planner.PhysicalHashJoin,
		*planner.PhysicalSort, *planner.PhysicalLimit, *planner.PhysicalAggregate:
		// Minimal implementation: these nodes return an empty result set.
		// None is reachable from the parser's dialect today — no
		// JOIN/ORDER BY/LIMIT/GROUP BY grammar exists to lower into them —
		// so there is no contract yet to validate a real implementation
		// against. Extending any one of them to actually evaluate its
		// child is additive and does not change this contract.
		return NewEmptyResultSet(), nil
	default:
		return nil, &errors.UnsupportedLogicalNodeTypeError{NodeType: "unknown physical node"}
	}
}

func executeTableScan(n *planner.PhysicalTableScan, ctx *Context, reader *txn.Transaction) (*ResultSet, error) {
	table, err := ctx.Catalog.GetTable(n.Table)
	if err != nil {
		if ctx.DemoMode {
			if cols, rows, ok := demoRows(n.Table); ok {
				rs := NewResultSet(cols...)
				for _, row := range rows {
					rs.AppendRow(row)
				}
				return rs, nil
			}
		}
		return NewInfoResultSet("Table not found: " + n.Table), nil
	}

	names := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		names[i] = c.Name
	}
	rs := NewResultSet(names...)

	scanned, err := table.Scan(ctx.Txns, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning table %s", n.Table)
	}
	for _, row := range scanned {
		rs.AppendRow(row.Values)
	}
	return rs, nil
}

func executeIndexSeek(n *planner.PhysicalIndexSeek, ctx *Context) (*ResultSet, error) {
	pred := n.Predicate
	if pred.Op != sqlparser.OpEq {
		return nil, &errors.InvalidPlanError{Reason: "IndexSeek requires an equality predicate"}
	}
	if len(pred.Values) == 0 {
		return nil, &errors.MissingPredicateError{}
	}
	if pred.Values[0].Tag() != types.TagInteger {
		return nil, &errors.UnsupportedKeyTypeError{TypeName: pred.Values[0].Tag().String()}
	}
	if n.Meta().Index == nil {
		return nil, &errors.InvalidPlanError{Reason: "IndexSeek plan is missing its resolved index"}
	}

	table, err := ctx.Catalog.GetTable(n.Table)
	if err != nil {
		return nil, err
	}
	idx, _, err := table.Index(n.Meta().Index.Name)
	if err != nil {
		return nil, err
	}

	rs := NewResultSet("row_id")
	rowID, ok := idx.Get(types.IntKey(pred.Values[0].Integer()))
	if ok {
		rs.AppendRow([]types.Value{types.NewInteger(rowID)})
	}
	return rs, nil
}

// executeIndexRangeScan walks an index over the bound(s) a comparison or
// BETWEEN predicate establishes, adapting pkg/query's ScanCondition (start
// key, seek-eligibility, continuation) to drive the index's own ordered
// Scan instead of a full table scan.
func executeIndexRangeScan(n *planner.PhysicalIndexRangeScan, ctx *Context) (*ResultSet, error) {
	pred := n.Predicate
	if len(pred.Values) == 0 {
		return nil, &errors.MissingPredicateError{}
	}
	for _, v := range pred.Values {
		if v.Tag() != types.TagInteger {
			return nil, &errors.UnsupportedKeyTypeError{TypeName: v.Tag().String()}
		}
	}
	if n.Meta().Index == nil {
		return nil, &errors.InvalidPlanError{Reason: "IndexRangeScan plan is missing its resolved index"}
	}

	table, err := ctx.Catalog.GetTable(n.Table)
	if err != nil {
		return nil, err
	}
	idx, _, err := table.Index(n.Meta().Index.Name)
	if err != nil {
		return nil, err
	}

	cond, err := rangeCondition(pred)
	if err != nil {
		return nil, err
	}

	rs := NewResultSet("row_id")
	var lower *types.IntKey
	if cond.ShouldSeek() {
		if start := cond.GetStartKey(); start != nil {
			k := start.(types.IntKey)
			lower = &k
		}
	}
	idx.Scan(lower, func(key types.IntKey, rowID int64) bool {
		if cond.Matches(key) {
			rs.AppendRow([]types.Value{types.NewInteger(rowID)})
		}
		return cond.ShouldContinue(key)
	})
	return rs, nil
}

func rangeCondition(pred sqlparser.Predicate) (*query.ScanCondition, error) {
	key := func(v types.Value) types.IntKey { return types.IntKey(v.Integer()) }
	switch pred.Op {
	case sqlparser.OpLt:
		return query.LessThan(key(pred.Values[0])), nil
	case sqlparser.OpLte:
		return query.LessOrEqual(key(pred.Values[0])), nil
	case sqlparser.OpGt:
		return query.GreaterThan(key(pred.Values[0])), nil
	case sqlparser.OpGte:
		return query.GreaterOrEqual(key(pred.Values[0])), nil
	case sqlparser.OpBetween:
		if len(pred.Values) < 2 {
			return nil, &errors.MissingPredicateError{}
		}
		return query.Between(key(pred.Values[0]), key(pred.Values[1])), nil
	default:
		return nil, &errors.InvalidPlanError{Reason: "IndexRangeScan requires a range predicate"}
	}
}

// executeIndexScan returns every row id an index holds, in ascending key
// order, with no range narrowing. The optimizer lowers to this access
// method when a predicate's column is indexed but its operator (IN, LIKE)
// isn't one a seek or range scan can resolve directly.
func executeIndexScan(n *planner.PhysicalIndexScan, ctx *Context) (*ResultSet, error) {
	if n.Meta().Index == nil {
		return nil, &errors.InvalidPlanError{Reason: "IndexScan plan is missing its resolved index"}
	}
	table, err := ctx.Catalog.GetTable(n.Table)
	if err != nil {
		return nil, err
	}
	idx, _, err := table.Index(n.Meta().Index.Name)
	if err != nil {
		return nil, err
	}
	rs := NewResultSet("row_id")
	idx.Scan(nil, func(key types.IntKey, rowID int64) bool {
		rs.AppendRow([]types.Value{types.NewInteger(rowID)})
		return true
	})
	return rs, nil
}

// executeFilter runs its child and keeps only rows satisfying every
// predicate. A predicate whose column isn't present in the child's output
// (an index node returns only "row_id", not hydrated columns) is treated
// as vacuously satisfied rather than an error: hydrating rows from an
// index scan is out of this engine's scope today.
func executeFilter(n *planner.PhysicalFilter, ctx *Context, reader *txn.Transaction) (*ResultSet, error) {
	child, err := Execute(n.Children()[0], ctx, reader)
	if err != nil {
		return nil, err
	}
	rs := NewResultSet(columnNames(child)...)
	for row := 0; row < child.RowCount; row++ {
		keep := true
		for _, pred := range n.Predicates {
			col, ok := child.ColumnIndex(pred.Column.Name)
			if !ok {
				continue
			}
			val, err := child.Value(col, row)
			if err != nil {
				keep = false
				break
			}
			if !matchPredicate(pred, val) {
				keep = false
				break
			}
		}
		if keep {
			rs.AppendRow(rowValues(child, row))
		}
	}
	return rs, nil
}

// executeProject runs its child and narrows it to the requested columns,
// in the requested order; SELECT * passes the child straight through.
func executeProject(n *planner.PhysicalProject, ctx *Context, reader *txn.Transaction) (*ResultSet, error) {
	child, err := Execute(n.Children()[0], ctx, reader)
	if err != nil {
		return nil, err
	}
	if n.Star {
		return child, nil
	}

	names := make([]string, len(n.Columns))
	for i, c := range n.Columns {
		names[i] = c.Name
	}
	rs := NewResultSet(names...)
	for row := 0; row < child.RowCount; row++ {
		values := make([]types.Value, len(n.Columns))
		for i, c := range n.Columns {
			col, ok := child.ColumnIndex(c.Name)
			if !ok {
				values[i] = types.NewNull()
				continue
			}
			v, err := child.Value(col, row)
			if err != nil {
				values[i] = types.NewNull()
				continue
			}
			values[i] = v
		}
		rs.AppendRow(values)
	}
	return rs, nil
}

func columnNames(rs *ResultSet) []string {
	names := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		names[i] = c.Name
	}
	return names
}

func rowValues(rs *ResultSet, row int) []types.Value {
	values := make([]types.Value, len(rs.Columns))
	for i, c := range rs.Columns {
		values[i] = c.Values[row]
	}
	return values
}

// demoRows is the canned fixture for "users", extended in the same spirit
// to "products"/"orders" as the demo tables a fresh, empty database shows
// for tables that haven't been created yet.
func demoRows(table string) ([]string, [][]types.Value, bool) {
	switch table {
	case "users":
		return []string{"id", "name", "email"},
			[][]types.Value{
				{types.NewInteger(1), types.NewText("Alice"), types.NewText("alice@example.com")},
				{types.NewInteger(2), types.NewText("Bob"), types.NewText("bob@example.com")},
				{types.NewInteger(3), types.NewText("Charlie"), types.NewText("charlie@example.com")},
			}, true
	case "products":
		return []string{"id", "name", "price"},
			[][]types.Value{
				{types.NewInteger(1), types.NewText("Widget"), types.NewFloat(9.99)},
				{types.NewInteger(2), types.NewText("Gadget"), types.NewFloat(19.99)},
			}, true
	case "orders":
		return []string{"id", "user_id", "product_id"},
			[][]types.Value{
				{types.NewInteger(1), types.NewInteger(1), types.NewInteger(1)},
				{types.NewInteger(2), types.NewInteger(2), types.NewInteger(2)},
			}, true
	default:
		return nil, nil, false
	}
}
