// Package errors defines the typed error taxonomy shared across the parser,
// planner, executor, catalog, transaction manager, and storage layers.
// Callers match on concrete type (errors.As) rather than string content;
// github.com/cockroachdb/errors wraps these at call sites that cross a
// storage or WAL boundary to attach a stack trace without losing the
// underlying type.
package errors

import (
	"fmt"

	cockroacherrors "github.com/cockroachdb/errors"
)

// Wrap, Is, and As re-export cockroachdb/errors so storage and WAL call
// sites can attach a stack trace to one of the typed errors below without
// importing two error packages.
func Wrap(err error, msg string) error                { return cockroacherrors.Wrap(err, msg) }
func Wrapf(err error, format string, a ...any) error  { return cockroacherrors.Wrapf(err, format, a...) }
func Is(err, target error) bool                       { return cockroacherrors.Is(err, target) }
func As(err error, target any) bool                   { return cockroacherrors.As(err, target) }
func New(msg string) error                            { return cockroacherrors.New(msg) }
func Newf(format string, a ...any) error              { return cockroacherrors.Newf(format, a...) }

// --- input / shape errors -------------------------------------------------

type EmptyQueryError struct{}

func (e *EmptyQueryError) Error() string { return "query text is empty" }

type InvalidSyntaxError struct {
	Reason string
}

func (e *InvalidSyntaxError) Error() string {
	return fmt.Sprintf("invalid syntax: %s", e.Reason)
}

type EmptyKeyError struct{}

func (e *EmptyKeyError) Error() string { return "key is empty" }

type ColumnCountMismatchError struct {
	Expected int
	Got      int
}

func (e *ColumnCountMismatchError) Error() string {
	return fmt.Sprintf("column count mismatch: expected %d, got %d", e.Expected, e.Got)
}

type UnsupportedKeyTypeError struct {
	TypeName string
}

func (e *UnsupportedKeyTypeError) Error() string {
	return fmt.Sprintf("unsupported key type: %s", e.TypeName)
}

type MissingPredicateError struct{}

func (e *MissingPredicateError) Error() string { return "statement requires a predicate" }

type MissingTableNameError struct{}

func (e *MissingTableNameError) Error() string { return "statement is missing a table name" }

type UnsupportedQueryTypeError struct {
	Kind string
}

func (e *UnsupportedQueryTypeError) Error() string {
	return fmt.Sprintf("unsupported query type: %s", e.Kind)
}

type UnsupportedLogicalNodeTypeError struct {
	NodeType string
}

func (e *UnsupportedLogicalNodeTypeError) Error() string {
	return fmt.Sprintf("unsupported logical node type: %s", e.NodeType)
}

type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("invalid plan: %s", e.Reason)
}

// --- catalog / state errors ------------------------------------------------

type TableAlreadyExistsError struct {
	Name string
}

func (e *TableAlreadyExistsError) Error() string {
	return fmt.Sprintf("table already exists: %s", e.Name)
}

type TableNotFoundError struct {
	Name string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table not found: %s", e.Name)
}

type IndexNotFoundError struct {
	Name string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index not found: %s", e.Name)
}

type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key in unique index: %s", e.Key)
}

// --- transaction errors -----------------------------------------------------

type TransactionNotActiveError struct {
	TxnID uint64
}

func (e *TransactionNotActiveError) Error() string {
	return fmt.Sprintf("transaction %d is not active", e.TxnID)
}

type LockConflictError struct {
	TxnID     uint64
	HolderID  uint64
	TableName string
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("transaction %d conflicts with holder %d on table %s", e.TxnID, e.HolderID, e.TableName)
}

// --- storage errors ----------------------------------------------------------

type OpenFailedError struct {
	Path   string
	Reason string
}

func (e *OpenFailedError) Error() string {
	return fmt.Sprintf("failed to open %s: %s", e.Path, e.Reason)
}

type ClosedError struct{}

func (e *ClosedError) Error() string { return "store is closed" }

type NotInitializedError struct{}

func (e *NotInitializedError) Error() string { return "store is not initialized" }

type WriteFailedError struct {
	Reason string
}

func (e *WriteFailedError) Error() string {
	return fmt.Sprintf("write failed: %s", e.Reason)
}

type ReadFailedError struct {
	Reason string
}

func (e *ReadFailedError) Error() string {
	return fmt.Sprintf("read failed: %s", e.Reason)
}

type DiskReadErrorError struct {
	Path   string
	Reason string
}

func (e *DiskReadErrorError) Error() string {
	return fmt.Sprintf("disk read error at %s: %s", e.Path, e.Reason)
}

type DiskWriteErrorError struct {
	Path   string
	Reason string
}

func (e *DiskWriteErrorError) Error() string {
	return fmt.Sprintf("disk write error at %s: %s", e.Path, e.Reason)
}

type BackupEngineFailedError struct {
	Reason string
}

func (e *BackupEngineFailedError) Error() string {
	return fmt.Sprintf("backup engine failed: %s", e.Reason)
}

type BackupFailedError struct {
	Reason string
}

func (e *BackupFailedError) Error() string {
	return fmt.Sprintf("backup failed: %s", e.Reason)
}

type RestoreFailedError struct {
	Reason string
}

func (e *RestoreFailedError) Error() string {
	return fmt.Sprintf("restore failed: %s", e.Reason)
}

type BackupCorruptedError struct {
	Path string
}

func (e *BackupCorruptedError) Error() string {
	return fmt.Sprintf("backup corrupted: %s", e.Path)
}

type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// --- iterator errors ---------------------------------------------------------

type InvalidIteratorError struct{}

func (e *InvalidIteratorError) Error() string { return "iterator is invalid" }

type IteratorKeyFailedError struct {
	Reason string
}

func (e *IteratorKeyFailedError) Error() string {
	return fmt.Sprintf("iterator key failed: %s", e.Reason)
}

type IteratorValueFailedError struct {
	Reason string
}

func (e *IteratorValueFailedError) Error() string {
	return fmt.Sprintf("iterator value failed: %s", e.Reason)
}

type IteratorNotInitializedError struct{}

func (e *IteratorNotInitializedError) Error() string { return "iterator is not initialized" }

// --- result access errors -----------------------------------------------------

type NullValueError struct {
	Column string
}

func (e *NullValueError) Error() string {
	return fmt.Sprintf("column %s is null", e.Column)
}

type IndexOutOfBoundsError struct {
	Index int
	Len   int
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds (len %d)", e.Index, e.Len)
}
