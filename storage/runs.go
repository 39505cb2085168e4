package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses recorded by the journal.
const (
	RunOK     = "ok"
	RunFailed = "failed"
	RunCached = "cached"
)

// RunRecord is one node execution.
type RunRecord struct {
	RequestID string
	Node      string
	Endpoint  string
	Model     string
	Status    string
	Error     string
	Duration  time.Duration
	StartedAt time.Time
}

// RunJournal records node executions in sqlite.
type RunJournal struct {
	db *sql.DB
}

// NewRunJournal opens (or creates) runs.db in dataDir. Pass ":memory:" as
// dataDir for a throwaway journal.
func NewRunJournal(dataDir string) (*RunJournal, error) {
	dbPath := ":memory:"
	if dataDir != ":memory:" {
		dbPath = filepath.Join(dataDir, "runs.db")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: an in-memory database is per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := &RunJournal{db: db}
	if err := j.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return j, nil
}

func (j *RunJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		node TEXT NOT NULL,
		endpoint TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL,
		started_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_node ON runs(node);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Record appends one execution.
func (j *RunJournal) Record(ctx context.Context, r RunRecord) error {
	query := `
	INSERT INTO runs (request_id, node, endpoint, model, status, error, duration_ms, started_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.db.ExecContext(ctx, query,
		r.RequestID,
		r.Node,
		r.Endpoint,
		r.Model,
		r.Status,
		r.Error,
		r.Duration.Milliseconds(),
		r.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns up to limit executions, newest first. An empty node
// returns every node's runs.
func (j *RunJournal) Recent(ctx context.Context, node string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT request_id, node, endpoint, model, status, error, duration_ms, started_at
	FROM runs
	WHERE (? = '' OR node = ?)
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, node, node, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var ms int64
		if err := rows.Scan(
			&r.RequestID,
			&r.Node,
			&r.Endpoint,
			&r.Model,
			&r.Status,
			&r.Error,
			&ms,
			&r.StartedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}

	return out, rows.Err()
}

// Prune deletes runs that started before cutoff and returns how many went.
func (j *RunJournal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := j.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}

func (j *RunJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
