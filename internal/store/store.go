// Package store keeps a small SQLite ledger of processing jobs so batch
// runs can resume after interruption and the status command has history
// to show.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	input      TEXT NOT NULL,
	output     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	stage      TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_input ON jobs(input);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

type Job struct {
	ID         string
	InputPath  string
	OutputPath string
	Status     string
	Stage      string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc/sqlite is happiest with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateJob(ctx context.Context, id, inputPath string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, input, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, inputPath, StatusRunning, now, now)
	return err
}

func (s *Store) MarkDone(ctx context.Context, id, outputPath string) error {
	return s.setStatus(ctx, id, StatusDone, outputPath, "", "")
}

// MarkFailed records a failure together with the pipeline stage it happened
// in, when known.
func (s *Store) MarkFailed(ctx context.Context, id, stage, errMsg string) error {
	return s.setStatus(ctx, id, StatusFailed, "", stage, errMsg)
}

func (s *Store) setStatus(ctx context.Context, id, status, outputPath, stage, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, output = ?, stage = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, status, outputPath, stage, errMsg, now, id)
	return err
}

// MarkInterrupted flips jobs left running by a previous process to failed
// and returns how many were swept. Called once on startup.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = 'interrupted by restart', updated_at = ?
		WHERE status = ?
	`, StatusFailed, now, StatusRunning)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// IsDone reports whether some job already processed inputPath successfully.
func (s *Store) IsDone(ctx context.Context, inputPath string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM jobs WHERE input = ? AND status = ? LIMIT 1
	`, inputPath, StatusDone).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) RecentJobs(ctx context.Context, limit int) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input, output, status, stage, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var createdAt, updatedAt string
		if err := rows.Scan(&j.ID, &j.InputPath, &j.OutputPath, &j.Status, &j.Stage, &j.Error, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// CountByStatus returns job totals keyed by status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM jobs GROUP BY status
	`)
	if err != nil {
		return nil, err
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
