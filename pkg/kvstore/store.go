// Package kvstore wraps a pebble LSM tree as the engine's ordered key-value
// store. The Database façade opens one and builds Backup and Restore on it;
// the row store, catalog, and index checkpoints keep their own files.
package kvstore

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/fowlerlee/geeqodb/pkg/errors"
)

// Store is an ordered byte-key/byte-value store backed by pebble.
type Store struct {
	db     *pebble.DB
	path   string
	closed bool
}

// Open opens (or creates) a store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(&errors.OpenFailedError{Path: dir, Reason: err.Error()}, "kvstore.Open")
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, &errors.OpenFailedError{Path: dir, Reason: err.Error()}
	}

	return &Store{db: db, path: dir}, nil
}

func (s *Store) Put(key, value []byte) error {
	if s.closed {
		return &errors.ClosedError{}
	}
	if len(key) == 0 {
		return &errors.EmptyKeyError{}
	}
	if err := s.db.Set(key, value, pebble.Sync); err != nil {
		return &errors.WriteFailedError{Reason: err.Error()}
	}
	return nil
}

// PutNoSync writes without forcing an fsync; callers that batch many writes
// followed by an explicit Sync use this to avoid one fsync per key.
func (s *Store) PutNoSync(key, value []byte) error {
	if s.closed {
		return &errors.ClosedError{}
	}
	if err := s.db.Set(key, value, pebble.NoSync); err != nil {
		return &errors.WriteFailedError{Reason: err.Error()}
	}
	return nil
}

func (s *Store) Get(key []byte) ([]byte, bool, error) {
	if s.closed {
		return nil, false, &errors.ClosedError{}
	}
	v, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &errors.ReadFailedError{Reason: err.Error()}
	}
	out := append([]byte(nil), v...)
	closer.Close()
	return out, true, nil
}

func (s *Store) Delete(key []byte) error {
	if s.closed {
		return &errors.ClosedError{}
	}
	if len(key) == 0 {
		return &errors.EmptyKeyError{}
	}
	if err := s.db.Delete(key, pebble.Sync); err != nil {
		return &errors.WriteFailedError{Reason: err.Error()}
	}
	return nil
}

// Iterator is a forward-only scan over a key range, [lower, upper).
type Iterator struct {
	it *pebble.Iterator
}

// NewIterator returns an iterator positioned before the first key. Call
// Next before the first Key/Value access.
func (s *Store) NewIterator(lower, upper []byte) (*Iterator, error) {
	if s.closed {
		return nil, &errors.ClosedError{}
	}
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, &errors.InvalidIteratorError{}
	}
	return &Iterator{it: it}, nil
}

func (i *Iterator) Next() bool  { return i.it.Next() }
func (i *Iterator) First() bool { return i.it.First() }
func (i *Iterator) Valid() bool { return i.it.Valid() }

func (i *Iterator) Key() []byte {
	if !i.it.Valid() {
		return nil
	}
	return append([]byte(nil), i.it.Key()...)
}

func (i *Iterator) Value() []byte {
	if !i.it.Valid() {
		return nil
	}
	return append([]byte(nil), i.it.Value()...)
}

func (i *Iterator) Close() error {
	if err := i.it.Close(); err != nil {
		return &errors.IteratorValueFailedError{Reason: err.Error()}
	}
	return nil
}

// WriteBatch accumulates multiple writes for a single atomic apply.
type WriteBatch struct {
	batch *pebble.Batch
	store *Store
}

func (s *Store) NewWriteBatch() *WriteBatch {
	return &WriteBatch{batch: s.db.NewBatch(), store: s}
}

func (b *WriteBatch) Put(key, value []byte) error {
	if err := b.batch.Set(key, value, nil); err != nil {
		return &errors.WriteFailedError{Reason: err.Error()}
	}
	return nil
}

func (b *WriteBatch) Delete(key []byte) error {
	if err := b.batch.Delete(key, nil); err != nil {
		return &errors.WriteFailedError{Reason: err.Error()}
	}
	return nil
}

func (b *WriteBatch) Commit() error {
	if err := b.batch.Commit(pebble.Sync); err != nil {
		return &errors.WriteFailedError{Reason: err.Error()}
	}
	return nil
}

func (b *WriteBatch) Close() error {
	return b.batch.Close()
}

// Backup takes a consistent on-disk checkpoint of the store at dstDir,
// used by Database.Backup.
func (s *Store) Backup(dstDir string) error {
	if s.closed {
		return &errors.ClosedError{}
	}
	if err := os.MkdirAll(filepath.Dir(dstDir), 0755); err != nil {
		return &errors.BackupFailedError{Reason: err.Error()}
	}
	if err := s.db.Checkpoint(dstDir); err != nil {
		return &errors.BackupEngineFailedError{Reason: err.Error()}
	}
	return nil
}

// Restore replaces the store's directory contents with a prior Backup
// checkpoint. The store must be closed and reopened by the caller
// afterward.
func Restore(srcDir, dstDir string) error {
	if _, err := os.Stat(srcDir); err != nil {
		return &errors.BackupCorruptedError{Path: srcDir}
	}
	if err := os.RemoveAll(dstDir); err != nil {
		return &errors.RestoreFailedError{Reason: err.Error()}
	}
	if err := copyDir(srcDir, dstDir); err != nil {
		return &errors.RestoreFailedError{Reason: err.Error()}
	}
	return nil
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}

func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return &errors.WriteFailedError{Reason: err.Error()}
	}
	return nil
}
