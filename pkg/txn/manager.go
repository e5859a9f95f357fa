package txn

import (
	"sync"
	"time"

	"github.com/fowlerlee/geeqodb/pkg/errors"
)

// Manager owns transaction identity, the active-transaction registry, and
// the lock table: a full status/isolation/lock registry generalized from
// tracking only a minimum active LSN for vacuum safety into a
// transaction-status lookup across all four isolation levels.
type Manager struct {
	mu        sync.Mutex
	idgen     *TxnIDGenerator
	txns      map[uint64]*Transaction // every transaction ever begun, by id; status tells its fate
	numActive int
	locks     *lockTable
}

func NewManager() *Manager {
	return &Manager{
		idgen: NewTxnIDGenerator(0),
		txns:  make(map[uint64]*Transaction),
		locks: newLockTable(),
	}
}

// Begin starts a new transaction at the given isolation level. There is no
// default: the zero IsolationLevel is ReadUncommitted.
func (m *Manager) Begin(isolation IsolationLevel) *Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.idgen.Next()
	tx := newTransaction(id, isolation, id-1)
	m.txns[id] = tx
	m.numActive++
	return tx
}

// Commit asserts the transaction is Active, marks it Committed, and
// releases every lock it held.
func (m *Manager) Commit(tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.Status != Active {
		return &errors.TransactionNotActiveError{TxnID: tx.ID}
	}
	tx.Status = Committed
	tx.CommitTime = time.Now()
	m.locks.releaseAll(tx.ID, tx.heldLocks)
	tx.heldLocks = nil
	m.numActive--
	return nil
}

// Abort asserts the transaction is Active, marks it Aborted, and releases
// every lock it held. The caller is responsible for undoing any writes
// (the row-version chain already records which txn created each version,
// so an aborted creator's versions simply stop being visible).
func (m *Manager) Abort(tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.Status != Active {
		return &errors.TransactionNotActiveError{TxnID: tx.ID}
	}
	tx.Status = Aborted
	m.locks.releaseAll(tx.ID, tx.heldLocks)
	tx.heldLocks = nil
	m.numActive--
	return nil
}

// ReadLock acquires whatever lock ReadCommitted/RepeatableRead/Serializable
// require for a read of key in tableName, immediately returning
// *errors.LockConflictError on conflict. ReadUncommitted never locks.
func (m *Manager) ReadLock(tx *Transaction, tableName, key string) error {
	switch tx.Isolation {
	case ReadUncommitted:
		return nil
	case ReadCommitted:
		m.mu.Lock()
		defer m.mu.Unlock()
		if err := m.locks.acquire(tx.ID, tableName, key, Shared); err != nil {
			return err
		}
		// Released immediately: ReadCommitted only needs the lock long
		// enough to rule out a concurrent writer mid-write.
		m.locks.release(tx.ID, key)
		return nil
	default: // RepeatableRead, Serializable
		m.mu.Lock()
		defer m.mu.Unlock()
		if err := m.locks.acquire(tx.ID, tableName, key, Shared); err != nil {
			return err
		}
		tx.heldLocks[key] = Shared
		return nil
	}
}

// WriteLock acquires the Exclusive lock every isolation level above
// ReadUncommitted requires for a write of key, held until commit/abort.
func (m *Manager) WriteLock(tx *Transaction, tableName, key string) error {
	if tx.Isolation == ReadUncommitted {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.locks.acquire(tx.ID, tableName, key, Exclusive); err != nil {
		return err
	}
	tx.heldLocks[key] = Exclusive
	return nil
}

func (m *Manager) statusOf(txnID uint64) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.txns[txnID]; ok {
		return tx.Status
	}
	// Unknown id: only reachable via row versions restored from the WAL
	// whose originating Manager instance no longer exists (a prior process
	// lifetime). The WAL only replays committed transactions, so treat
	// unknown ids as committed.
	return Committed
}

// IsVisible decides whether a row version created by createdByTxn (and, if
// deletedByTxn is non-zero, superseded by deletedByTxn) is visible to
// reader, per reader's isolation level.
func (m *Manager) IsVisible(createdByTxn, deletedByTxn uint64, reader *Transaction) bool {
	if !m.createdVisible(createdByTxn, reader) {
		return false
	}
	if deletedByTxn == 0 {
		return true
	}
	return !m.deletedEffective(deletedByTxn, reader)
}

func (m *Manager) createdVisible(createdByTxn uint64, reader *Transaction) bool {
	if createdByTxn == reader.ID {
		return true
	}
	status := m.statusOf(createdByTxn)
	switch reader.Isolation {
	case ReadUncommitted:
		return status != Aborted
	case ReadCommitted:
		return status == Committed
	default: // RepeatableRead, Serializable
		return status == Committed && createdByTxn <= reader.SnapshotTxnID
	}
}

func (m *Manager) deletedEffective(deletedByTxn uint64, reader *Transaction) bool {
	if deletedByTxn == reader.ID {
		return true
	}
	status := m.statusOf(deletedByTxn)
	switch reader.Isolation {
	case ReadUncommitted:
		return status != Aborted
	case ReadCommitted:
		return status == Committed
	default: // RepeatableRead, Serializable
		return status == Committed && deletedByTxn <= reader.SnapshotTxnID
	}
}

// Get returns the transaction with the given id, if the Manager has ever
// seen it in this process lifetime.
func (m *Manager) Get(id uint64) (*Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txns[id]
	return tx, ok
}

// Release drops tx's hold on key, if it holds one.
func (m *Manager) Release(tx *Transaction, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks.release(tx.ID, key)
	delete(tx.heldLocks, key)
}

// ActiveCount reports the number of in-flight transactions. Nothing copies
// it into the geeqodb_active_transactions gauge.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numActive
}
