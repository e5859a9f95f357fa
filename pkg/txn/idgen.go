package txn

import "sync/atomic"

// TxnIDGenerator hands out monotonic transaction identifiers.
type TxnIDGenerator struct {
	current uint64
}

func NewTxnIDGenerator(start uint64) *TxnIDGenerator {
	return &TxnIDGenerator{current: start}
}

// Next increments and returns the next transaction id.
func (g *TxnIDGenerator) Next() uint64 {
	return atomic.AddUint64(&g.current, 1)
}

// Current returns the last-issued id without incrementing.
func (g *TxnIDGenerator) Current() uint64 {
	return atomic.LoadUint64(&g.current)
}

// Set overrides the counter, used when recovering from the WAL so new
// transactions never reuse an id seen in the log.
func (g *TxnIDGenerator) Set(val uint64) {
	atomic.StoreUint64(&g.current, val)
}
