package executor

import (
	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// ColumnData is one column's worth of values, plus a null bitmap, across
// every row of a ResultSet.
type ColumnData struct {
	Name   string
	Values []types.Value
	Nulls  []bool
}

// ResultSet is the column-oriented query output: per-column null bitmaps
// sharing one row count across all columns.
type ResultSet struct {
	Columns  []ColumnData
	RowCount int
}

// NewResultSet creates an empty ResultSet with the given column names.
func NewResultSet(names ...string) *ResultSet {
	cols := make([]ColumnData, len(names))
	for i, n := range names {
		cols[i] = ColumnData{Name: n}
	}
	return &ResultSet{Columns: cols}
}

// NewEmptyResultSet is the zero-column, zero-row ResultSet the executor's
// minimal physical-node implementations return.
func NewEmptyResultSet() *ResultSet {
	return &ResultSet{}
}

// NewInfoResultSet wraps a single informational string in a one-column,
// one-row ResultSet, used for surfacing conditions like "table not found"
// without returning an error.
func NewInfoResultSet(message string) *ResultSet {
	rs := NewResultSet("message")
	rs.AppendRow([]types.Value{types.NewText(message)})
	return rs
}

// AppendRow adds one row across every column; len(values) must equal the
// column count.
func (r *ResultSet) AppendRow(values []types.Value) {
	for i, v := range r.Columns {
		var val types.Value
		var isNull bool
		if i < len(values) {
			val = values[i]
			isNull = val.IsNull()
		} else {
			isNull = true
		}
		_ = v
		r.Columns[i].Values = append(r.Columns[i].Values, val)
		r.Columns[i].Nulls = append(r.Columns[i].Nulls, isNull)
	}
	r.RowCount++
}

// ColumnIndex finds a column by name.
func (r *ResultSet) ColumnIndex(name string) (int, bool) {
	for i, c := range r.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Value reads the value at (col, row), failing with NullValueError if the
// cell is null or IndexOutOfBoundsError if either coordinate is out of
// range.
func (r *ResultSet) Value(col, row int) (types.Value, error) {
	if col < 0 || col >= len(r.Columns) {
		return types.Value{}, &errors.IndexOutOfBoundsError{Index: col, Len: len(r.Columns)}
	}
	c := r.Columns[col]
	if row < 0 || row >= len(c.Values) {
		return types.Value{}, &errors.IndexOutOfBoundsError{Index: row, Len: len(c.Values)}
	}
	if c.Nulls[row] {
		return types.Value{}, &errors.NullValueError{Column: c.Name}
	}
	return c.Values[row], nil
}
