package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sak85/API-Automation-POC/report"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	summary     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS scenarios (
	run_id      TEXT NOT NULL REFERENCES runs(run_id),
	feature     TEXT NOT NULL,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS scenarios_by_name ON scenarios (feature, name);
`

// SQLite keeps a history of runs and their scenarios in a local database file.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := report.EnsureDirs(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) DSN() string { return "sqlite://" + s.path }

func (s *SQLite) Publish(ctx context.Context, summary report.Summary) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && err == nil {
			err = rbErr
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (run_id, mode, started_at, finished_at, passed, failed, skipped, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, summary.RunID, summary.Mode, summary.StartedAt.Format(time.RFC3339Nano),
		summary.FinishedAt.Format(time.RFC3339Nano), summary.Passed, summary.Failed, summary.Skipped,
		string(summary.JSON()))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM scenarios WHERE run_id = ?`, summary.RunID); err != nil {
		return fmt.Errorf("failed to clear scenarios: %w", err)
	}
	for _, sc := range summary.Scenarios {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scenarios (run_id, feature, name, status, duration_ms)
			VALUES (?, ?, ?, ?, ?)
		`, summary.RunID, sc.Feature, sc.Name, sc.Status, sc.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to insert scenario: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit summaries, most recent first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]report.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT summary FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var ret []report.Summary
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		summary, err := report.ParseSummary([]byte(data))
		if err != nil {
			return nil, err
		}
		ret = append(ret, summary)
	}
	return ret, rows.Err()
}

// FailureCounts returns, for each scenario that has failed at least once, the number of runs in
// which it failed. Keys are "<feature>/<name>".
func (s *SQLite) FailureCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT feature, name, COUNT(*) FROM scenarios WHERE status = ? GROUP BY feature, name
	`, report.StatusFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	ret := make(map[string]int)
	for rows.Next() {
		var feature, name string
		var count int
		if err := rows.Scan(&feature, &name, &count); err != nil {
			return nil, err
		}
		ret[feature+"/"+name] = count
	}
	return ret, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
