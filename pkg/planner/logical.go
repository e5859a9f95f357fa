package planner

import "github.com/fowlerlee/geeqodb/pkg/sqlparser"

// LogicalNode is one node of a logical plan tree: a relational operator
// independent of how it will actually be executed.
type LogicalNode interface {
	logicalNode()
	Children() []LogicalNode
}

type baseLogical struct {
	children []LogicalNode
}

func (b *baseLogical) Children() []LogicalNode { return b.children }

// LogicalScan reads every row of a table. PushedPredicates is populated by
// the optimizer's predicate-pushdown stage with predicates copied down from
// an ancestor Filter, rewritten to unqualified column names.
type LogicalScan struct {
	baseLogical
	Table            string
	PushedPredicates []sqlparser.Predicate
}

func (*LogicalScan) logicalNode() {}

// LogicalFilter restricts its input to rows satisfying every predicate.
type LogicalFilter struct {
	baseLogical
	Predicates []sqlparser.Predicate
}

func (*LogicalFilter) logicalNode() {}

// LogicalProject narrows rows to a column list. Star is true for SELECT *.
type LogicalProject struct {
	baseLogical
	Columns []sqlparser.Column
	Star    bool
}

func (*LogicalProject) logicalNode() {}

// LogicalJoin combines two inputs. The parser's dialect never produces one
// directly (single-FROM-table only); the node exists so the optimizer and
// executor have a defined behavior if a caller builds a plan by hand.
type LogicalJoin struct {
	baseLogical
	Left, Right LogicalNode
	Predicates  []sqlparser.Predicate
}

func (*LogicalJoin) logicalNode() {}

type LogicalSort struct {
	baseLogical
	Columns []sqlparser.Column
}

func (*LogicalSort) logicalNode() {}

type LogicalLimit struct {
	baseLogical
	Count int64
}

func (*LogicalLimit) logicalNode() {}

type LogicalAggregate struct {
	baseLogical
	GroupBy []sqlparser.Column
}

func (*LogicalAggregate) logicalNode() {}

func newScan(table string) *LogicalScan { return &LogicalScan{Table: table} }

func withChild(children []LogicalNode, child LogicalNode) []LogicalNode {
	return append(children, child)
}

// Build constructs the logical plan for a parsed SELECT statement: Scan,
// optionally wrapped in Filter, then Project.
func Build(stmt *sqlparser.SelectStmt) LogicalNode {
	var node LogicalNode = newScan(stmt.Table)

	if len(stmt.Predicates) > 0 {
		f := &LogicalFilter{Predicates: stmt.Predicates}
		f.children = withChild(f.children, node)
		node = f
	}

	proj := &LogicalProject{Columns: stmt.Columns, Star: stmt.Star}
	proj.children = withChild(proj.children, node)
	return proj
}
