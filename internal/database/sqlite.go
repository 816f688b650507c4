package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/database/migrations"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrRunNotFound is returned when finishing a run the ledger never started.
var ErrRunNotFound = errors.New("run not found")

// SQLiteLedger implements zs.Ledger using SQLite.
type SQLiteLedger struct {
	db    *sql.DB
	path  string
	clock zs.Clock
}

var _ zs.Ledger = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens the ledger at path and migrates it to the latest
// schema. path can be a file path or ":memory:". A nil clock uses wall time.
func NewSQLiteLedger(path string, clock zs.Clock) (*SQLiteLedger, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, err
	}
	l := NewSQLiteLedgerFromDB(db, clock)
	l.path = path
	return l, nil
}

// NewSQLiteLedgerFromDB wraps an existing, already migrated connection.
func NewSQLiteLedgerFromDB(db *sql.DB, clock zs.Clock) *SQLiteLedger {
	if clock == nil {
		clock = zs.RealClock{}
	}
	return &SQLiteLedger{db: db, clock: clock}
}

// OpenConnection opens and configures a SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to :memory: would be a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

func (s *SQLiteLedger) StartRun(runID, dataset, operation string) (*zs.Run, error) {
	run := &zs.Run{
		RunID:     runID,
		Dataset:   dataset,
		Operation: operation,
		StartedAt: s.clock.Now().UTC(),
		Status:    zs.RunRunning,
	}

	res, err := s.db.ExecContext(context.Background(),
		`INSERT INTO sync_runs (run_id, dataset, operation, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Dataset, run.Operation, run.StartedAt, run.Status)
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the finish time and persists the outcome fields of run.
// A run still marked running is recorded as a success.
func (s *SQLiteLedger) FinishRun(run *zs.Run) error {
	finished := s.clock.Now().UTC()
	if run.Status == "" || run.Status == zs.RunRunning {
		run.Status = zs.RunSuccess
	}

	res, err := s.db.ExecContext(context.Background(),
		`UPDATE sync_runs
		 SET finished_at = ?, status = ?, deposition_id = ?, deposition_url = ?,
		     created = ?, updated = ?, deleted = ?, error = ?
		 WHERE id = ?`,
		finished, run.Status, run.DepositionID, run.DepositionURL,
		run.Created, run.Updated, run.Deleted, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.RunID)
	}

	run.FinishedAt = &finished
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteLedger) ListRuns(limit int) ([]*zs.Run, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, run_id, dataset, operation, started_at, finished_at, status,
		        deposition_id, deposition_url, created, updated, deleted, error
		 FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var result []*zs.Run
	for rows.Next() {
		var (
			run      zs.Run
			finished sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.RunID, &run.Dataset, &run.Operation, &run.StartedAt,
			&finished, &run.Status, &run.DepositionID, &run.DepositionURL,
			&run.Created, &run.Updated, &run.Deleted, &run.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		result = append(result, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return result, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteLedger) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteLedger) CheckMigrations() error {
	return migrations.Check(s.db)
}

// Close closes the database connection.
func (s *SQLiteLedger) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
