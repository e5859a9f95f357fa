// Package txn is the transaction manager: identity, status, the pessimistic
// lock table, and isolation-level-driven visibility.
package txn

import "time"

type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
	RepeatableRead
	Serializable
)

func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "ReadUncommitted"
	case ReadCommitted:
		return "ReadCommitted"
	case RepeatableRead:
		return "RepeatableRead"
	case Serializable:
		return "Serializable"
	default:
		return "Unknown"
	}
}

type Status int

const (
	Active Status = iota
	Committed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Active:
		return "Active"
	case Committed:
		return "Committed"
	case Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

type LockMode int

const (
	Shared LockMode = iota
	Exclusive
)

// Transaction is a live or finished unit of work. SnapshotTxnID is the
// highest transaction id that was already committed or in flight when this
// transaction began; it anchors RepeatableRead/Serializable visibility to
// "committed by the time I started", generalized from LSN ordering to
// transaction-status lookups.
type Transaction struct {
	ID            uint64
	Isolation     IsolationLevel
	Status        Status
	SnapshotTxnID uint64
	StartTime     time.Time
	CommitTime    time.Time

	heldLocks map[string]LockMode
}

func newTransaction(id uint64, isolation IsolationLevel, snapshot uint64) *Transaction {
	return &Transaction{
		ID:            id,
		Isolation:     isolation,
		Status:        Active,
		SnapshotTxnID: snapshot,
		StartTime:     time.Now(),
		heldLocks:     make(map[string]LockMode),
	}
}
