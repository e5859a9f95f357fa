package planner

import (
	"github.com/fowlerlee/geeqodb/pkg/index"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// IndexInfo is what the optimizer's physical-lowering stage needs to know
// about one registered index to decide whether — and how — to use it.
type IndexInfo struct {
	Name   string
	Table  string
	Column string
	Kind   index.Kind
	Unique bool
}

// ColumnStatistics is the per-(table,column) shape tracked for planning:
// distinct-value count, min, max, and null count.
type ColumnStatistics struct {
	Distinct  int64
	Min       types.Value
	Max       types.Value
	NullCount int64
}

// TableStatistics is a table's row count plus its columns' statistics.
type TableStatistics struct {
	RowCount int64
	Columns  map[string]ColumnStatistics
}

// Statistics is the full catalog of per-table statistics the optimizer
// consults for join reordering, index selection, and parallelism.
type Statistics struct {
	Tables map[string]TableStatistics
}

func NewStatistics() *Statistics {
	return &Statistics{Tables: make(map[string]TableStatistics)}
}

func (s *Statistics) RowCount(table string) int64 {
	if t, ok := s.Tables[table]; ok {
		return t.RowCount
	}
	return 0
}

func (s *Statistics) columnStats(table, column string) (ColumnStatistics, bool) {
	t, ok := s.Tables[table]
	if !ok {
		return ColumnStatistics{}, false
	}
	cs, ok := t.Columns[column]
	return cs, ok
}

// Selectivity estimates the fraction of rows a predicate keeps, using a
// fixed heuristics table. Absent statistics default to 0.5.
func Selectivity(stats *Statistics, table, column string, op ComparisonKind) float64 {
	cs, ok := stats.columnStats(table, column)
	switch op {
	case OpEquality:
		if !ok || cs.Distinct <= 0 {
			return 0.5
		}
		return 1.0 / float64(cs.Distinct)
	case OpNotEqual:
		if !ok || cs.Distinct <= 0 {
			return 0.5
		}
		return 1.0 - 1.0/float64(cs.Distinct)
	case OpRange:
		return 0.3
	case OpIn:
		return 0.2
	case OpLike:
		return 0.1
	default:
		return 0.5
	}
}

// ComparisonKind buckets sqlparser.ComparisonOp into the selectivity
// heuristic classes used by Selectivity.
type ComparisonKind int

const (
	OpEquality ComparisonKind = iota
	OpNotEqual
	OpRange
	OpIn
	OpLike
)
