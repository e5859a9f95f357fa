// Package catalog is the in-memory schema registry: tables with ordered
// columns and a growing, append-only sequence of row versions.
package catalog

import (
	"sync"

	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// ColumnSchema is (name, declared type), order-significant within a table.
type ColumnSchema struct {
	Name string
	Type types.Tag
}

// Catalog maps table name to Table: a registry of columnar tables backed
// by pkg/rowstore.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func New() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// CreateTable registers a new table, storing it with no rows.
func (c *Catalog) CreateTable(name string, columns []ColumnSchema, rowsDir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; exists {
		return &errors.TableAlreadyExistsError{Name: name}
	}

	table, err := newTable(name, columns, rowsDir)
	if err != nil {
		return err
	}
	c.tables[name] = table
	return nil
}

// GetTable looks up a table by name.
func (c *Catalog) GetTable(name string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, ok := c.tables[name]
	if !ok {
		return nil, &errors.TableNotFoundError{Name: name}
	}
	return table, nil
}

// DropTable removes a table and closes its underlying row store.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, ok := c.tables[name]
	if !ok {
		return &errors.TableNotFoundError{Name: name}
	}
	delete(c.tables, name)
	return table.rows.Close()
}

// TableNames lists every registered table, for recovery/statistics sweeps.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	return names
}

// Close tears down every table's row store.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, table := range c.tables {
		if err := table.rows.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
