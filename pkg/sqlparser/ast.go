package sqlparser

import "github.com/fowlerlee/geeqodb/pkg/types"

// Statement is any parsed top-level SQL statement.
type Statement interface {
	statementNode()
}

// ComparisonOp is one of the comparison operators recognized in a WHERE
// clause.
type ComparisonOp int

const (
	OpEq ComparisonOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpBetween
	OpIn
	OpLike
)

// Column is a possibly table-qualified column reference (t.col or col).
type Column struct {
	Table string
	Name  string
}

// Predicate is a single WHERE-clause comparison: column OP value(s). Between
// carries two values in Values; In carries one or more; everything else
// carries exactly one.
type Predicate struct {
	Column Column
	Op     ComparisonOp
	Values []types.Value
}

// SelectStmt is SELECT [* | col, col, ...] FROM table [WHERE pred [AND pred]*].
type SelectStmt struct {
	Star       bool
	Columns    []Column
	Table      string
	Predicates []Predicate
}

func (*SelectStmt) statementNode() {}

// InsertStmt is INSERT INTO table VALUES (v1, v2, ...).
type InsertStmt struct {
	Table  string
	Values []types.Value
}

func (*InsertStmt) statementNode() {}

// ColumnDef is one column entry in a CREATE TABLE statement.
type ColumnDef struct {
	Name string
	Type types.Tag
}

// CreateTableStmt is CREATE TABLE table (col type, col type, ...).
type CreateTableStmt struct {
	Table   string
	Columns []ColumnDef
}

func (*CreateTableStmt) statementNode() {}

// CreateIndexStmt is CREATE INDEX name ON table (column).
type CreateIndexStmt struct {
	Name   string
	Table  string
	Column string
}

func (*CreateIndexStmt) statementNode() {}

// UnsupportedStmt is a recognized-but-not-implemented statement kind
// (UPDATE, DELETE, DROP, ALTER): the parser accepts the keyword and consumes
// through the terminating semicolon so a batch of statements doesn't derail,
// but the Database façade rejects it with UnsupportedQueryTypeError.
type UnsupportedStmt struct {
	Kind string
}

func (*UnsupportedStmt) statementNode() {}
