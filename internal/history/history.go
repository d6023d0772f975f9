// Package history records render invocations in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mattjoyce/manimcp/internal/storage"
)

// Status values stored in render_log.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSpawnFail = "spawn_failed"
	StatusTimedOut  = "timed_out"
)

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// maxStderrBytes caps the stderr tail kept per record.
const maxStderrBytes = 64 * 1024

// Record is one render invocation.
type Record struct {
	ID           string        `json:"id"`
	ScriptPath   string        `json:"script_path"`
	ScriptDigest string        `json:"script_digest,omitempty"`
	Quality      string        `json:"quality,omitempty"`
	OutputDir    string        `json:"output_dir,omitempty"`
	Args         []string      `json:"args"`
	Status       string        `json:"status"`
	ExitCode     int           `json:"exit_code"`
	Stderr       string        `json:"stderr,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  time.Time     `json:"completed_at"`
	Duration     time.Duration `json:"duration"`
}

// Store reads and writes render records.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path. storage.MemoryPath keeps records
// for the life of the process only.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := storage.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// New wraps an already bootstrapped database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts r. The stderr tail is truncated to the last 64 KiB.
func (s *Store) Record(ctx context.Context, r Record) error {
	if r.ID == "" {
		return fmt.Errorf("record id is empty")
	}
	args := r.Args
	if args == nil {
		args = []string{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO render_log (id, script_path, script_digest, quality, output_dir, args, status, exit_code, stderr, started_at, completed_at, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID,
		r.ScriptPath,
		nullString(r.ScriptDigest),
		nullString(r.Quality),
		nullString(r.OutputDir),
		string(argsJSON),
		r.Status,
		r.ExitCode,
		nullString(tail(r.Stderr)),
		r.StartedAt.UTC().Format(timeLayout),
		r.CompletedAt.UTC().Format(timeLayout),
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert render record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, script_path, script_digest, quality, output_dir, args, status, exit_code, stderr, started_at, completed_at, duration_ms
FROM render_log
ORDER BY started_at DESC, id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("query render records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                             Record
			digest, quality, outDir, errs sql.NullString
			argsJSON, started, completed  string
			durationMS                    int64
		)
		if err := rows.Scan(&r.ID, &r.ScriptPath, &digest, &quality, &outDir, &argsJSON, &r.Status, &r.ExitCode, &errs, &started, &completed, &durationMS); err != nil {
			return nil, fmt.Errorf("scan render record: %w", err)
		}
		r.ScriptDigest = digest.String
		r.Quality = quality.String
		r.OutputDir = outDir.String
		r.Stderr = errs.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(argsJSON), &r.Args); err != nil {
			return nil, fmt.Errorf("decode args for %s: %w", r.ID, err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at for %s: %w", r.ID, err)
		}
		if r.CompletedAt, err = time.Parse(timeLayout, completed); err != nil {
			return nil, fmt.Errorf("parse completed_at for %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate render records: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// tail keeps the last maxStderrBytes of s; the end of a traceback is the part
// worth keeping.
func tail(s string) string {
	if len(s) > maxStderrBytes {
		return s[len(s)-maxStderrBytes:]
	}
	return s
}
