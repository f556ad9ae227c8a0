// Package history keeps a local SQLite record of past runs so a run can be
// compared against the one before it.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/zinc-sig/sntest/internal/harness"
	"github.com/zinc-sig/sntest/internal/output"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// Store is a run history database.
type Store struct {
	db *sql.DB
}

// Run is one recorded run.
type Run struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	Compiler   string          `json:"compiler"`
	Platform   string          `json:"platform"`
	OK         bool            `json:"ok"`
	Passed     int             `json:"passed"`
	Failed     int             `json:"failed"`
	Skipped    int             `json:"skipped"`
	PassRate   decimal.Decimal `json:"pass_rate"`
	DurationMs int64           `json:"duration_ms"`
}

// Open creates or opens the history database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("history schema version %d is newer than supported version %d", version, schemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Record stores a finished run and all of its cases in one transaction.
func (s *Store) Record(ctx context.Context, report *output.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, started_at, compiler, platform, ok, passed, failed, skipped, pass_rate, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.Compiler,
		report.Platform,
		report.OK,
		report.Passed,
		report.Failed,
		report.Skipped,
		report.PassRate.String(),
		report.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", report.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cases (run_id, suite, name, status, reason, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare case insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, suite := range report.Suites {
		for _, c := range suite.Cases {
			if _, err = stmt.ExecContext(ctx, report.RunID, suite.Kind, c.Name, c.Status, c.Reason, c.DurationMs); err != nil {
				return fmt.Errorf("failed to record case %s: %w", c.ID(suite.Kind), err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", report.RunID, err)
	}
	return nil
}

// Previous returns the case statuses of the most recently recorded run,
// keyed "kind/name". It returns nil when nothing has been recorded.
func (s *Store) Previous(ctx context.Context) (map[string]harness.Status, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `SELECT run_id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query previous run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT suite, name, status FROM cases WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases of run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	statuses := make(map[string]harness.Status)
	for rows.Next() {
		var suite, name, status string
		if err := rows.Scan(&suite, &name, &status); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		statuses[suite+"/"+name] = harness.Status(status)
	}
	return statuses, rows.Err()
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, started_at, compiler, platform, ok, passed, failed, skipped, pass_rate, duration_ms
		FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			startedAt string
			passRate  string
		)
		if err := rows.Scan(&r.RunID, &startedAt, &r.Compiler, &r.Platform, &r.OK,
			&r.Passed, &r.Failed, &r.Skipped, &passRate, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("run %s: bad started_at %q: %w", r.RunID, startedAt, err)
		}
		if r.PassRate, err = decimal.NewFromString(passRate); err != nil {
			return nil, fmt.Errorf("run %s: bad pass_rate %q: %w", r.RunID, passRate, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Regressions lists, in run order, the "kind/name" keys of cases that
// passed in prev and fail in report.
func Regressions(prev map[string]harness.Status, report *output.Report) []string {
	if len(prev) == 0 {
		return nil
	}

	var ids []string
	for _, id := range report.Failures() {
		if prev[id] == harness.StatusPass {
			ids = append(ids, id)
		}
	}
	return ids
}
