package txn

import "github.com/fowlerlee/geeqodb/pkg/errors"

// lockEntry tracks every holder of a given key, Shared holders coexisting
// and at most one Exclusive holder ever present.
type lockEntry struct {
	holders map[uint64]LockMode
}

func newLockEntry() *lockEntry {
	return &lockEntry{holders: make(map[uint64]LockMode)}
}

// anyOtherHolder reports another transaction's id already holding the key,
// used both to refuse a conflicting grant and to report who conflicted.
func (e *lockEntry) anyOtherHolder(except uint64) (uint64, bool) {
	for id := range e.holders {
		if id != except {
			return id, true
		}
	}
	return 0, false
}

// lockTable is a non-blocking pessimistic lock table: acquire either
// succeeds immediately or fails immediately with <LockConflict>. There is
// no wait queue, so no deadlock can form.
type lockTable struct {
	entries map[string]*lockEntry
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[string]*lockEntry)}
}

// acquire grants mode on key to txn, or returns *errors.LockConflictError.
// Caller holds the Manager mutex.
func (t *lockTable) acquire(txnID uint64, tableName, key string, mode LockMode) error {
	entry, ok := t.entries[key]
	if !ok {
		entry = newLockEntry()
		t.entries[key] = entry
	}

	if existing, held := entry.holders[txnID]; held {
		if mode == Shared || existing == Exclusive {
			return nil // already hold at least as much as requested
		}
		// Upgrade Shared -> Exclusive: permitted only if no other holder exists.
		if holder, conflict := entry.anyOtherHolder(txnID); conflict {
			return &errors.LockConflictError{TxnID: txnID, HolderID: holder, TableName: tableName}
		}
		entry.holders[txnID] = Exclusive
		return nil
	}

	if mode == Shared {
		for id, m := range entry.holders {
			if m == Exclusive {
				return &errors.LockConflictError{TxnID: txnID, HolderID: id, TableName: tableName}
			}
		}
		entry.holders[txnID] = Shared
		return nil
	}

	// Exclusive requested by a non-holder: any other holder at all conflicts.
	if holder, conflict := entry.anyOtherHolder(txnID); conflict {
		return &errors.LockConflictError{TxnID: txnID, HolderID: holder, TableName: tableName}
	}
	entry.holders[txnID] = Exclusive
	return nil
}

// release drops txn's hold on key, if any.
func (t *lockTable) release(txnID uint64, key string) {
	entry, ok := t.entries[key]
	if !ok {
		return
	}
	delete(entry.holders, txnID)
	if len(entry.holders) == 0 {
		delete(t.entries, key)
	}
}

// releaseAll drops every lock txn holds, per the recorded key set.
func (t *lockTable) releaseAll(txnID uint64, keys map[string]LockMode) {
	for key := range keys {
		t.release(txnID, key)
	}
}
