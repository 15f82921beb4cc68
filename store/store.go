// Package store records sweep and repeated-run results in a SQLite database.
//
// Rows are buffered in memory and written in a single transaction on Flush.
// Every Store registers its Flush with atexit, so rows buffered when the
// program exits through atexit.Exit are not lost.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/l1sweep/geometry"
	"github.com/sarchlab/l1sweep/report"
	"github.com/sarchlab/l1sweep/simulator"
	"github.com/sarchlab/l1sweep/sweep"
)

// Table names.
const (
	TableSessions      = "sessions"
	TableSweepRecords  = "sweep_records"
	TableSweepFailures = "sweep_failures"
	TableRunResults    = "run_results"
)

type table struct {
	name    string
	columns []string
}

var tables = []table{
	{TableSessions, []string{
		"session_id TEXT", "created_at TEXT", "trace_prefix TEXT",
	}},
	{TableSweepRecords, []string{
		"session_id TEXT", "axis TEXT", "value REAL",
		"set_index_bits INTEGER", "associativity INTEGER", "block_bits INTEGER",
		"cache_size_kb REAL", "max_exec_time INTEGER", "output_path TEXT",
	}},
	{TableSweepFailures, []string{
		"session_id TEXT", "kind TEXT", "axis TEXT", "value REAL",
		"run INTEGER", "stage TEXT", "error TEXT",
	}},
	{TableRunResults, []string{
		"session_id TEXT", "run INTEGER", "core INTEGER",
		"instructions INTEGER", "reads INTEGER", "writes INTEGER",
		"execution_cycles INTEGER", "idle_cycles INTEGER", "misses INTEGER",
		"miss_rate REAL", "evictions INTEGER", "writebacks INTEGER",
		"bus_invalidations INTEGER", "data_traffic INTEGER",
		"bus_transactions INTEGER", "bus_traffic INTEGER",
		"max_exec_time INTEGER", "wall_time_ns INTEGER", "peak_rss INTEGER",
	}},
}

// Store is a SQLite result store. A Store is not safe for concurrent use.
type Store struct {
	*sql.DB

	path      string
	session   string
	batchSize int
	pending   map[string][][]any
	count     int
	closed    bool
}

// Open opens or creates the database at path and starts a new session. An
// empty path creates l1sweep_<xid>.sqlite3 in the current directory.
func Open(path, tracePrefix string) (*Store, error) {
	if path == "" {
		path = "l1sweep_" + xid.New().String() + ".sqlite3"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}

	s := &Store{
		DB:        db,
		path:      path,
		session:   xid.New().String(),
		batchSize: 10000,
		pending:   make(map[string][][]any),
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	s.insert(TableSessions,
		s.session, time.Now().UTC().Format(time.RFC3339), tracePrefix)

	atexit.Register(func() {
		if err := s.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "result store: %v\n", err)
		}
	})

	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Session returns the ID that tags every row written through this Store.
func (s *Store) Session() string {
	return s.session
}

func (s *Store) createTables() error {
	for _, t := range tables {
		query := "CREATE TABLE IF NOT EXISTS " + t.name +
			" (\n\t" + strings.Join(t.columns, ",\n\t") + "\n);"
		if _, err := s.Exec(query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
	}

	return nil
}

// RecordSweep buffers a successful sweep value.
func (s *Store) RecordSweep(r sweep.Record) {
	s.insert(TableSweepRecords,
		s.session, r.Axis.String(), r.Value,
		r.Config.SetIndexBits, r.Config.Associativity, r.Config.BlockBits,
		r.Config.CacheSizeKB, r.MaxExecTime, r.OutputPath)
}

// RecordFailure buffers a failed sweep value.
func (s *Store) RecordFailure(e *sweep.ValueError) {
	s.insert(TableSweepFailures,
		s.session, string(sweep.KindSweep), e.Axis.String(), e.Value,
		nil, string(e.Stage), errorText(e.Err))
}

// RecordRunFailure buffers a failed repeated run.
func (s *Store) RecordRunFailure(e *sweep.RunError) {
	s.insert(TableSweepFailures,
		s.session, string(sweep.KindRepeat), nil, nil,
		e.Run, string(e.Stage), errorText(e.Err))
}

// RecordRun buffers one row per core of a repeated run.
func (s *Store) RecordRun(run int, res report.SimulationResult, info simulator.RunInfo) {
	for core, c := range res.Cores {
		s.insert(TableRunResults,
			s.session, run, core,
			c.Instructions, c.Reads, c.Writes,
			c.ExecutionCycles, c.IdleCycles, c.Misses,
			c.MissRate, c.Evictions, c.Writebacks,
			c.BusInvalidations, c.DataTraffic,
			res.Bus.Transactions, res.Bus.Traffic,
			res.Bus.MaxExecTime, info.WallTime.Nanoseconds(), info.PeakRSS)
	}
}

func (s *Store) insert(table string, values ...any) {
	s.pending[table] = append(s.pending[table], values)

	s.count++
	if s.count >= s.batchSize {
		if err := s.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "result store: %v\n", err)
		}
	}
}

// Flush writes every buffered row in one transaction.
func (s *Store) Flush() error {
	if s.count == 0 || s.closed {
		return nil
	}

	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, t := range tables {
		rows := s.pending[t.name]
		if len(rows) == 0 {
			continue
		}

		if err := insertRows(tx, t, rows); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.pending = make(map[string][][]any)
	s.count = 0

	return nil
}

func insertRows(tx *sql.Tx, t table, rows [][]any) error {
	marks := make([]string, len(t.columns))
	for i := range marks {
		marks[i] = "?"
	}

	stmt, err := tx.Prepare("INSERT INTO " + t.name +
		" VALUES (" + strings.Join(marks, ", ") + ")")
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", t.name, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", t.name, err)
		}
	}

	return nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}

	flushErr := s.Flush()
	s.closed = true

	if err := s.DB.Close(); err != nil {
		return err
	}

	return flushErr
}

// SweepRecords reads back the sweep records of a session, in insertion
// order. Result is left zero.
func (s *Store) SweepRecords(session string) ([]sweep.Record, error) {
	rows, err := s.Query(`SELECT axis, value, set_index_bits, associativity,
		block_bits, cache_size_kb, max_exec_time, output_path
		FROM `+TableSweepRecords+` WHERE session_id = ? ORDER BY rowid`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []sweep.Record
	for rows.Next() {
		var (
			r    sweep.Record
			axis string
			cfg  geometry.CacheConfig
		)

		err := rows.Scan(&axis, &r.Value, &cfg.SetIndexBits, &cfg.Associativity,
			&cfg.BlockBits, &cfg.CacheSizeKB, &r.MaxExecTime, &r.OutputPath)
		if err != nil {
			return nil, err
		}

		r.Axis, err = sweep.ParseAxis(axis)
		if err != nil {
			return nil, err
		}
		r.Config = cfg

		records = append(records, r)
	}

	return records, rows.Err()
}

// Count returns the number of rows of a table that belong to a session.
func (s *Store) Count(table, session string) (int, error) {
	var n int
	err := s.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE session_id = ?",
		session).Scan(&n)
	return n, err
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
