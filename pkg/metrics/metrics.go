// Package metrics wires the engine's process statistics (table row counts,
// active transactions, lock conflicts, WAL bytes) to prometheus gauges and
// counters under the geeqodb_ namespace. Exporting a stat does not feed
// the planner's own cost heuristics; it is ambient observability only.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the gauges and counters the Database façade updates as it
// processes queries.
type Registry struct {
	reg *prometheus.Registry

	TableRows          *prometheus.GaugeVec
	ActiveTransactions prometheus.Gauge
	LockConflictsTotal prometheus.Counter
	WALBytesTotal      prometheus.Counter
}

// NewRegistry builds a fresh registry with every metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		TableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "geeqodb_table_rows",
			Help: "Number of row slots ever appended to a table, live or not.",
		}, []string{"table"}),
		ActiveTransactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "geeqodb_active_transactions",
			Help: "Number of transactions currently in the Active state.",
		}),
		LockConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geeqodb_lock_conflicts_total",
			Help: "Number of lock acquisitions refused due to a conflicting holder.",
		}),
		WALBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geeqodb_wal_bytes_total",
			Help: "Total bytes appended to the WAL across all records.",
		}),
	}

	reg.MustRegister(r.TableRows, r.ActiveTransactions, r.LockConflictsTotal, r.WALBytesTotal)
	return r
}

// Gatherer exposes the underlying prometheus.Gatherer for wiring an HTTP
// /metrics endpoint (promhttp.HandlerFor), kept separate from Registry so
// callers that never serve metrics never need to import promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
