// Package store keeps a local history of submitted processing jobs.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed record of jobs submitted from this machine. The
// control plane remains the source of truth for status; the history exists so
// `skyforge ls` works offline.
type Store struct{ db *sql.DB }

//go:embed migrations/*.sql
var migrationFS embed.FS

// JobRecord is one submitted job.
type JobRecord struct {
	JobName     string
	ImageURI    string
	Status      string
	SubmittedAt time.Time
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema, err := migrationFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// RecordJob inserts or replaces the job's history row.
func (s *Store) RecordJob(ctx context.Context, rec JobRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (name, image, status, submitted_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET status = excluded.status`,
		rec.JobName, rec.ImageURI, rec.Status, rec.SubmittedAt.UTC())
	if err != nil {
		return fmt.Errorf("record job %s: %w", rec.JobName, err)
	}
	return nil
}

// UpdateStatus records the last observed status for a job.
func (s *Store) UpdateStatus(ctx context.Context, jobName, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE name = ?`, status, jobName)
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobName, err)
	}
	return nil
}

// ListJobs returns up to limit jobs, most recent first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, image, status, submitted_at FROM jobs ORDER BY submitted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []JobRecord
	for rows.Next() {
		var rec JobRecord
		if err := rows.Scan(&rec.JobName, &rec.ImageURI, &rec.Status, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
