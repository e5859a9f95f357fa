// Package database is the Database façade: the single composition root that
// owns the KV store, the WAL, the catalog, the transaction manager, the
// planner's statistics, and the execution context. Its open/recover/close
// shape follows a storage engine's composition root, generalized from a
// document store to this engine's relational pipeline.
package database

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fowlerlee/geeqodb/pkg/catalog"
	ierrors "github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/executor"
	"github.com/fowlerlee/geeqodb/pkg/index"
	"github.com/fowlerlee/geeqodb/pkg/kvstore"
	"github.com/fowlerlee/geeqodb/pkg/metrics"
	"github.com/fowlerlee/geeqodb/pkg/planner"
	"github.com/fowlerlee/geeqodb/pkg/sqlparser"
	"github.com/fowlerlee/geeqodb/pkg/txn"
	"github.com/rs/zerolog"
)

const walFileName = "wal.log"

// Options configures a Database beyond its fixed defaults. DemoMode gates
// the executor's canned table fallback as an explicit flag rather than a
// hard-coded table list. GPUAvailable/GPUForceEnabled/ParallelThreshold/
// MaxParallelDegree feed the planner's optimizer options directly.
type Options struct {
	DemoMode          bool
	ParallelThreshold int64
	MaxParallelDegree int
	GPUAvailable      bool
	GPUForceEnabled   bool
	Logger            *zerolog.Logger
}

// Database is the façade. It exclusively owns every field below; queries
// observe them only through Execute.
type Database struct {
	mu  sync.Mutex
	dir string

	kv     *kvstore.Store
	wal    *walHandle
	catalg *catalog.Catalog
	txns   *txn.Manager
	stats  *planner.Statistics
	logger zerolog.Logger
	metrs  *metrics.Registry

	demoMode          bool
	parallelThreshold int64
	maxParallelDegree int
	gpuAvailable      bool
	gpuForceEnabled   bool
}

// Open creates dir if absent, opens the KV store and the WAL, and wires a
// fresh catalog, transaction manager, and statistics table. It does not
// replay the WAL — use Recover for that.
func Open(dir string, opts Options) (*Database, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &ierrors.OpenFailedError{Path: dir, Reason: err.Error()}
	}

	kv, err := kvstore.Open(filepath.Join(dir, "kv"))
	if err != nil {
		return nil, err
	}

	wh, err := openWAL(filepath.Join(dir, walFileName))
	if err != nil {
		kv.Close()
		return nil, err
	}

	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = zerolog.New(io.Discard)
	}

	db := &Database{
		dir:               dir,
		kv:                kv,
		wal:               wh,
		catalg:            catalog.New(),
		txns:              txn.NewManager(),
		stats:             planner.NewStatistics(),
		logger:            logger,
		metrs:             metrics.NewRegistry(),
		demoMode:          opts.DemoMode,
		parallelThreshold: opts.ParallelThreshold,
		maxParallelDegree: opts.MaxParallelDegree,
		gpuAvailable:      opts.GPUAvailable,
		gpuForceEnabled:   opts.GPUForceEnabled,
	}
	return db, nil
}

// Recover opens dir exactly as Open does, then replays every WAL record in
// the order it was written (which is txn-id order, since the WAL is
// single-writer and append-only), applying each one through the normal
// execute path with replaying=true so the replayed operations are not
// re-appended to the WAL.
func Recover(dir string, opts Options) (*Database, error) {
	db, err := Open(dir, opts)
	if err != nil {
		return nil, err
	}
	if err := db.replay(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (db *Database) replay() error {
	reader, err := newWALReplayReader(filepath.Join(db.dir, walFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &ierrors.ReadFailedError{Reason: err.Error()}
	}
	defer reader.Close()

	for {
		payload, err := reader.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &ierrors.ReadFailedError{Reason: err.Error()}
		}

		query, ok := queryFromPayload(payload)
		if !ok {
			continue
		}
		if _, err := db.execute(query, true); err != nil {
			db.logger.Warn().Err(err).Str("payload", payload).Msg("skipping unreplayable WAL record")
		}
	}
	return nil
}

// queryFromPayload strips the "CREATE_TABLE:<table>:" or "INSERT:<table>:"
// prefix and returns the original query text that follows it.
func queryFromPayload(payload string) (string, bool) {
	for _, prefix := range []string{"CREATE_TABLE:", "INSERT:"} {
		if !strings.HasPrefix(payload, prefix) {
			continue
		}
		rest := payload[len(prefix):]
		idx := strings.Index(rest, ":")
		if idx < 0 {
			return "", false
		}
		return rest[idx+1:], true
	}
	return "", false
}

// Execute parses and runs one query through the façade: CREATE TABLE and
// INSERT INTO follow the direct catalog+WAL path; everything else goes
// through parse -> logical plan -> physical plan -> execute.
func (db *Database) Execute(query string) (*executor.ResultSet, error) {
	return db.execute(query, false)
}

func (db *Database) execute(query string, replaying bool) (*executor.ResultSet, error) {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		return db.executeCreateTable(trimmed, replaying)
	case strings.HasPrefix(upper, "INSERT INTO"):
		return db.executeInsert(trimmed, replaying)
	default:
		return db.executeQuery(trimmed)
	}
}

func (db *Database) executeCreateTable(query string, replaying bool) (*executor.ResultSet, error) {
	stmt, err := sqlparser.Parse(query)
	if err != nil {
		return nil, err
	}
	create, ok := stmt.(*sqlparser.CreateTableStmt)
	if !ok {
		return nil, &ierrors.InvalidSyntaxError{Reason: "expected CREATE TABLE statement"}
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	columns := make([]catalog.ColumnSchema, len(create.Columns))
	for i, c := range create.Columns {
		columns[i] = catalog.ColumnSchema{Name: c.Name, Type: c.Type}
	}

	writer := db.txns.Begin(txn.ReadCommitted)
	if err := db.catalg.CreateTable(create.Table, columns, filepath.Join(db.dir, "rows")); err != nil {
		db.txns.Abort(writer)
		return nil, err
	}

	if !replaying {
		if err := db.appendWAL(writer.ID, "CREATE_TABLE:"+create.Table+":"+query); err != nil {
			db.catalg.DropTable(create.Table)
			db.txns.Abort(writer)
			return nil, err
		}
	}
	db.txns.Commit(writer)
	db.metrs.TableRows.WithLabelValues(create.Table).Set(0)
	return executor.NewInfoResultSet("table " + create.Table + " created"), nil
}

func (db *Database) executeInsert(query string, replaying bool) (*executor.ResultSet, error) {
	stmt, err := sqlparser.Parse(query)
	if err != nil {
		return nil, err
	}
	ins, ok := stmt.(*sqlparser.InsertStmt)
	if !ok {
		return nil, &ierrors.InvalidSyntaxError{Reason: "expected INSERT statement"}
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	table, err := db.catalg.GetTable(ins.Table)
	if err != nil {
		return nil, remapFacadeError(err, ins.Table)
	}

	writer := db.txns.Begin(txn.ReadCommitted)
	if err := db.txns.WriteLock(writer, ins.Table, ins.Table); err != nil {
		db.txns.Abort(writer)
		return nil, err
	}

	rowID, err := table.AppendRow(ins.Values, writer.ID)
	if err != nil {
		db.txns.Abort(writer)
		return nil, err
	}

	if !replaying {
		// A failed WAL append after the row has been appended must revert
		// it: aborting the creating transaction makes the new version
		// invisible to every other reader, the revert mechanism pkg/txn
		// already provides.
		if err := db.appendWAL(writer.ID, "INSERT:"+ins.Table+":"+query); err != nil {
			db.txns.Abort(writer)
			return nil, err
		}
	}
	db.txns.Commit(writer)

	stats := db.stats.Tables[ins.Table]
	stats.RowCount = int64(table.RowCount())
	db.stats.Tables[ins.Table] = stats
	db.metrs.TableRows.WithLabelValues(ins.Table).Set(float64(table.RowCount()))

	return executor.NewInfoResultSet("1 row inserted into " + ins.Table + " at row_id " + strconv.FormatInt(rowID, 10)), nil
}

func (db *Database) executeQuery(query string) (*executor.ResultSet, error) {
	stmt, err := sqlparser.Parse(query)
	if err != nil {
		return nil, err
	}

	switch s := stmt.(type) {
	case *sqlparser.SelectStmt:
		return db.executeSelect(s)
	case *sqlparser.CreateIndexStmt:
		return db.executeCreateIndex(s)
	case *sqlparser.UnsupportedStmt:
		return nil, &ierrors.UnsupportedQueryTypeError{Kind: s.Kind}
	default:
		return nil, &ierrors.UnsupportedQueryTypeError{Kind: "unknown"}
	}
}

func (db *Database) executeSelect(stmt *sqlparser.SelectStmt) (*executor.ResultSet, error) {
	logical := planner.Build(stmt)
	phys := planner.Optimize(logical, planner.Options{
		Statistics:        db.stats,
		Indexes:           db.resolveIndex,
		ParallelThreshold: db.parallelThreshold,
		MaxParallelDegree: db.maxParallelDegree,
		GPUAvailable:      db.gpuAvailable,
		GPUForceEnabled:   db.gpuForceEnabled,
	})

	db.mu.Lock()
	reader := db.txns.Begin(txn.ReadCommitted)
	db.mu.Unlock()

	rs, err := executor.Execute(phys, &executor.Context{
		Catalog:  db.catalg,
		Txns:     db.txns,
		DemoMode: db.demoMode,
	}, reader)

	db.mu.Lock()
	db.txns.Commit(reader)
	db.mu.Unlock()

	if err != nil {
		return nil, remapFacadeError(err, stmt.Table)
	}
	return rs, nil
}

func (db *Database) executeCreateIndex(stmt *sqlparser.CreateIndexStmt) (*executor.ResultSet, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	table, err := db.catalg.GetTable(stmt.Table)
	if err != nil {
		return nil, remapFacadeError(err, stmt.Table)
	}
	if err := table.CreateIndex(stmt.Name, stmt.Column, index.OrderedTree, false); err != nil {
		return nil, err
	}
	return executor.NewInfoResultSet("index " + stmt.Name + " created on " + stmt.Table + "." + stmt.Column), nil
}

// resolveIndex implements planner.IndexLookup against the live catalog: it
// scans the table's registered indexes for one built over column.
func (db *Database) resolveIndex(table, column string) (*planner.IndexInfo, bool) {
	t, err := db.catalg.GetTable(table)
	if err != nil {
		return nil, false
	}
	for _, name := range t.IndexNames() {
		idx, col, err := t.Index(name)
		if err != nil || col != column {
			continue
		}
		return &planner.IndexInfo{Name: name, Table: table, Column: column, Kind: idx.Kind()}, true
	}
	return nil, false
}

// remapFacadeError is a deliberate surface simplification: IndexNotFound
// and MissingTableName both surface to the caller as TableNotFound, so an
// unknown name always yields one error kind regardless of which lookup
// inside the pipeline actually failed.
func remapFacadeError(err error, table string) error {
	var idxErr *ierrors.IndexNotFoundError
	var nameErr *ierrors.MissingTableNameError
	if ierrors.As(err, &idxErr) || ierrors.As(err, &nameErr) {
		return &ierrors.TableNotFoundError{Name: table}
	}
	return err
}

// Table returns the live catalog.Table for name, letting a caller reach
// past SQL for operations the dialect doesn't expose yet — seeding an
// index built over pre-existing rows, for instance, since CREATE INDEX
// only registers an empty index.
func (db *Database) Table(name string) (*catalog.Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.catalg.GetTable(name)
	if err != nil {
		return nil, remapFacadeError(err, name)
	}
	return t, nil
}

// CreateIndexCheckpoint snapshots one table's index to disk, tagged with
// the WAL's current write position as its LSN. Indexes otherwise live only
// in memory: Recover neither rebuilds indexes nor loads checkpoints, and a
// snapshot is read back only through LoadIndexCheckpoint. This is opt-in,
// not a requirement for correctness.
func (db *Database) CreateIndexCheckpoint(table, indexName string) error {
	db.mu.Lock()
	t, err := db.catalg.GetTable(table)
	if err != nil {
		db.mu.Unlock()
		return remapFacadeError(err, table)
	}
	idx, _, err := t.Index(indexName)
	if err != nil {
		db.mu.Unlock()
		return err
	}
	lsn := uint64(db.wal.position)
	db.mu.Unlock()

	dir := filepath.Join(t.Dir(), "checkpoints")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ierrors.OpenFailedError{Path: dir, Reason: err.Error()}
	}
	return index.NewCheckpointManager(dir).CreateCheckpoint(table, indexName, idx, lsn)
}

// LoadIndexCheckpoint reloads the most recent on-disk checkpoint for one
// table's index, replacing whatever entries CreateIndex left it with. It
// is the read side of CreateIndexCheckpoint, used to skip re-populating an
// index from a table scan after Recover.
func (db *Database) LoadIndexCheckpoint(table, indexName string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, err := db.catalg.GetTable(table)
	if err != nil {
		return remapFacadeError(err, table)
	}
	dir := filepath.Join(t.Dir(), "checkpoints")
	loaded, _, err := index.NewCheckpointManager(dir).LoadLatestCheckpoint(table, indexName)
	if err != nil {
		return err
	}
	return t.ReplaceIndex(indexName, loaded)
}

// Backup delegates to the KV store's checkpoint mechanism and writes a
// sibling metadata.json containing the current WAL position.
func (db *Database) Backup(dstDir string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.kv.Backup(dstDir); err != nil {
		return err
	}
	meta := struct {
		WALPosition int64 `json:"wal_position"`
	}{WALPosition: db.wal.position}

	raw, err := json.Marshal(meta)
	if err != nil {
		return &ierrors.BackupFailedError{Reason: err.Error()}
	}
	if err := os.WriteFile(filepath.Join(dstDir, "metadata.json"), raw, 0o644); err != nil {
		return &ierrors.BackupFailedError{Reason: err.Error()}
	}
	return nil
}

// Restore delegates to the KV store's restore mechanism: dstDir is replaced
// by a copy of the Backup directory srcDir (the KV checkpoint plus
// metadata.json). A backup holds no WAL, and Restore opens, closes and
// recovers no Database.
func Restore(srcDir, dstDir string) error {
	return kvstore.Restore(srcDir, dstDir)
}

// Close releases the WAL, the KV store, and every table's row store.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var firstErr error
	if err := db.wal.close(); err != nil {
		firstErr = err
	}
	if err := db.kv.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := db.catalg.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
