package catalog

import (
	"path/filepath"
	"sync"

	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/index"
	"github.com/fowlerlee/geeqodb/pkg/rowstore"
	"github.com/fowlerlee/geeqodb/pkg/txn"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// registeredIndex pairs a live index with the column it was built over;
// multiple indexes may exist per (table, column).
type registeredIndex struct {
	column string
	idx    index.Index
}

// Table is a fixed-arity column schema plus the durable, append-only
// version-chain store backing its rows. Row identity is positional: the
// Nth appended row is row id N-1, and heads[N-1] is the rowstore offset of
// its current (newest) version.
type Table struct {
	Name    string
	Columns []ColumnSchema

	mu      sync.RWMutex
	rows    *rowstore.Store
	heads   []int64
	indices map[string]*registeredIndex
}

func newTable(name string, columns []ColumnSchema, rowsDir string) (*Table, error) {
	rows, err := rowstore.Open(filepath.Join(rowsDir, name))
	if err != nil {
		return nil, errors.Wrapf(err, "opening row store for table %s", name)
	}
	return &Table{
		Name:    name,
		Columns: columns,
		rows:    rows,
		heads:   make([]int64, 0),
		indices: make(map[string]*registeredIndex),
	}, nil
}

// AppendRow validates column arity and appends a new row version with no
// predecessor, returning its row id.
func (t *Table) AppendRow(values []types.Value, createdByTxn uint64) (int64, error) {
	if len(values) != len(t.Columns) {
		return 0, &errors.ColumnCountMismatchError{Expected: len(t.Columns), Got: len(values)}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	offset, err := t.rows.Append(encodeRow(values), createdByTxn, -1)
	if err != nil {
		return 0, errors.Wrapf(err, "appending row to table %s", t.Name)
	}
	rowID := int64(len(t.heads))
	t.heads = append(t.heads, offset)
	return rowID, nil
}

// UpdateRow appends a new version of rowID, chained onto its previous head,
// and marks the previous head deleted by the same transaction.
func (t *Table) UpdateRow(rowID int64, values []types.Value, txnID uint64) error {
	if len(values) != len(t.Columns) {
		return &errors.ColumnCountMismatchError{Expected: len(t.Columns), Got: len(values)}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if rowID < 0 || int(rowID) >= len(t.heads) {
		return &errors.IndexOutOfBoundsError{Index: int(rowID), Len: len(t.heads)}
	}
	prev := t.heads[rowID]
	if err := t.rows.MarkDeleted(prev, txnID); err != nil {
		return errors.Wrapf(err, "marking previous version of row %d deleted", rowID)
	}
	offset, err := t.rows.Append(encodeRow(values), txnID, prev)
	if err != nil {
		return errors.Wrapf(err, "appending updated version of row %d", rowID)
	}
	t.heads[rowID] = offset
	return nil
}

// DeleteRow marks the current head version of rowID as superseded.
func (t *Table) DeleteRow(rowID int64, deletedByTxn uint64) error {
	t.mu.RLock()
	if rowID < 0 || int(rowID) >= len(t.heads) {
		t.mu.RUnlock()
		return &errors.IndexOutOfBoundsError{Index: int(rowID), Len: len(t.heads)}
	}
	offset := t.heads[rowID]
	t.mu.RUnlock()

	return t.rows.MarkDeleted(offset, deletedByTxn)
}

// ScannedRow is a materialized row together with the row id it lives at,
// as seen by a particular reader.
type ScannedRow struct {
	RowID  int64
	Values []types.Value
}

// Scan walks every row slot's version chain and returns the version
// visible to reader, per pkg/txn's isolation rules — the concrete
// mechanism behind iterating a table's rows.
func (t *Table) Scan(mgr *txn.Manager, reader *txn.Transaction) ([]ScannedRow, error) {
	t.mu.RLock()
	heads := make([]int64, len(t.heads))
	copy(heads, t.heads)
	t.mu.RUnlock()

	out := make([]ScannedRow, 0, len(heads))
	for rowID, offset := range heads {
		row, ok, err := t.visibleVersion(offset, mgr, reader)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, ScannedRow{RowID: int64(rowID), Values: row})
	}
	return out, nil
}

// visibleVersion walks the PrevOffset chain from offset backwards until it
// finds a version visible to reader, or exhausts the chain.
func (t *Table) visibleVersion(offset int64, mgr *txn.Manager, reader *txn.Transaction) ([]types.Value, bool, error) {
	for offset >= 0 {
		raw, header, err := t.rows.Read(offset)
		if err != nil {
			return nil, false, errors.Wrapf(err, "reading row version at offset %d", offset)
		}
		var deletedByTxn uint64
		if !header.Valid {
			deletedByTxn = header.DeletedByTxn
		}
		if mgr.IsVisible(header.CreatedByTxn, deletedByTxn, reader) {
			values, err := decodeRow(raw, len(t.Columns))
			if err != nil {
				return nil, false, err
			}
			return values, true, nil
		}
		offset = header.PrevOffset
	}
	return nil, false, nil
}

// CreateIndex registers a new index over column, backed by the given kind.
func (t *Table) CreateIndex(name, column string, kind index.Kind, unique bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.indices[name]; exists {
		return &errors.TableAlreadyExistsError{Name: name}
	}
	idx, err := index.New(kind, unique)
	if err != nil {
		return err
	}
	t.indices[name] = &registeredIndex{column: column, idx: idx}
	return nil
}

// Index looks up a previously registered index by name.
func (t *Table) Index(name string) (index.Index, string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ri, ok := t.indices[name]
	if !ok {
		return nil, "", &errors.IndexNotFoundError{Name: name}
	}
	return ri.idx, ri.column, nil
}

// Dir returns the row store's on-disk directory, the natural place to keep
// anything else durable for this table (index checkpoints included).
func (t *Table) Dir() string {
	return t.rows.Path()
}

// ReplaceIndex swaps a registered index's live instance for idx, keeping
// its registered column, used to install an index rebuilt from a
// checkpoint in place of the one CreateIndex left empty.
func (t *Table) ReplaceIndex(name string, idx index.Index) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ri, ok := t.indices[name]
	if !ok {
		return &errors.IndexNotFoundError{Name: name}
	}
	ri.idx = idx
	return nil
}

// IndexNames lists every index registered on this table.
func (t *Table) IndexNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.indices))
	for name := range t.indices {
		names = append(names, name)
	}
	return names
}

// RowCount reports the number of row slots ever appended, live or not.
func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.heads)
}
