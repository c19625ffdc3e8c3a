// Package history keeps a SQLite ledger of every scheduler check so the
// operator can see when runs were attempted, skipped or failed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"casbot/internal/scheduler"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DBFile is the ledger's name inside the scratch directory.
const DBFile = "history.db"

// Store is the run ledger.
type Store struct {
	db     *sql.DB
	dbPath string
	logger *zap.Logger
}

// Open creates or opens the ledger in dir.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dbPath := filepath.Join(dir, DBFile)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: dbPath, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS run_attempts (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		due INTEGER NOT NULL,
		forced INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		failed_stage TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_run_attempts_started ON run_attempts(started_at);
	CREATE INDEX IF NOT EXISTS idx_run_attempts_status ON run_attempts(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record implements scheduler.Ledger.
func (s *Store) Record(ctx context.Context, a scheduler.Attempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO run_attempts
			(id, started_at, finished_at, due, forced, status, failed_stage, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.StartedAt.UnixNano(),
		a.FinishedAt.UnixNano(),
		boolToInt(a.Due),
		boolToInt(a.Forced),
		a.Status,
		nullable(a.FailedStage),
		nullable(a.Error),
	)
	if err != nil {
		return fmt.Errorf("insert run attempt: %w", err)
	}
	s.logger.Debug("recorded run attempt", zap.String("id", a.ID), zap.String("status", a.Status))
	return nil
}

// Recent returns up to limit attempts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]scheduler.Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, due, forced, status,
			COALESCE(failed_stage, ''), COALESCE(error, '')
		FROM run_attempts
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query run attempts: %w", err)
	}
	defer rows.Close()

	var attempts []scheduler.Attempt
	for rows.Next() {
		var (
			a                 scheduler.Attempt
			started, finished int64
			due, forced       int
		)
		if err := rows.Scan(&a.ID, &started, &finished, &due, &forced, &a.Status, &a.FailedStage, &a.Error); err != nil {
			return nil, fmt.Errorf("scan run attempt: %w", err)
		}
		a.StartedAt = time.Unix(0, started)
		a.FinishedAt = time.Unix(0, finished)
		a.Due = due != 0
		a.Forced = forced != 0
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Counts returns the number of attempts per status.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM run_attempts GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count run attempts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
