// Package sqlite provides a task.Store backed by SQLite, for deployments
// where checklist results must survive process restarts. It uses the pure-Go
// modernc.org/sqlite driver, so no cgo is involved.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/tripmesh/checklist"
	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/task"

	_ "modernc.org/sqlite" // register the sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT PRIMARY KEY,
	thread_id  TEXT NOT NULL,
	status     TEXT NOT NULL,
	input      TEXT NOT NULL,
	result     TEXT,
	reason     TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_expires_at ON tasks (expires_at);
`

// Options configures a Store.
type Options struct {
	// Retention is how long a task stays readable after creation.
	Retention time.Duration
}

// Store implements task.Store over a SQLite database file. Writes go through
// single statements, which SQLite serializes, keeping per-id updates
// linearizable.
type Store struct {
	db   *sql.DB
	opts Options
}

// Open opens (and if needed initializes) a store at the given path. Use
// ":memory:" for an ephemeral database.
func Open(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Retention: time.Hour}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The driver is single-writer; a larger pool just queues on the file lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, opts: opts}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Retention returns the configured retention window.
func (s *Store) Retention() time.Duration { return s.opts.Retention }

// Put implements task.Store.
func (s *Store) Put(ctx context.Context, t task.Task) error {
	if t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(s.opts.Retention)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	input, err := json.Marshal(t.Input)
	if err != nil {
		return fmt.Errorf("encode task input: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, thread_id, status, input, result, reason, created_at, expires_at)
		 VALUES (?, ?, ?, ?, NULL, ?, ?, ?)`,
		t.ID, t.ThreadID, string(t.Status), string(input), t.Reason,
		t.CreatedAt.Unix(), t.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	return nil
}

// Get implements task.Store. Expired rows are deleted on read.
func (s *Store) Get(ctx context.Context, id string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, thread_id, status, input, COALESCE(result, ''), reason, created_at, expires_at
		 FROM tasks WHERE id = ?`, id)

	var (
		t                     task.Task
		status, input, result string
		createdAt, expiresAt  int64
	)
	err := row.Scan(&t.ID, &t.ThreadID, &status, &input, &result, &t.Reason, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, core.ErrTaskNotFound
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("query task: %w", err)
	}

	t.Status = task.Status(status)
	t.CreatedAt = time.Unix(createdAt, 0)
	t.ExpiresAt = time.Unix(expiresAt, 0)

	if t.Expired(time.Now()) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return task.Task{}, fmt.Errorf("delete expired task: %w", err)
		}
		return task.Task{}, core.ErrTaskNotFound
	}

	if input != "" {
		if err := json.Unmarshal([]byte(input), &t.Input); err != nil {
			return task.Task{}, fmt.Errorf("decode task input: %w", err)
		}
	}
	if result != "" {
		var c checklist.Checklist
		if err := json.Unmarshal([]byte(result), &c); err != nil {
			return task.Task{}, fmt.Errorf("decode task result: %w", err)
		}
		t.Result = &c
	}

	return t, nil
}

// SetRunning implements task.Store.
func (s *Store) SetRunning(ctx context.Context, id string) error {
	return s.updateStatus(ctx, id, `UPDATE tasks SET status = ? WHERE id = ? AND expires_at > ?`,
		string(task.StatusRunning), id, time.Now().Unix())
}

// SetSuccess implements task.Store.
func (s *Store) SetSuccess(ctx context.Context, id string, result *checklist.Checklist) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode task result: %w", err)
	}
	return s.updateStatus(ctx, id,
		`UPDATE tasks SET status = ?, result = ?, reason = '' WHERE id = ? AND expires_at > ?`,
		string(task.StatusSuccess), string(payload), id, time.Now().Unix())
}

// SetFailure implements task.Store.
func (s *Store) SetFailure(ctx context.Context, id string, reason string) error {
	return s.updateStatus(ctx, id,
		`UPDATE tasks SET status = ?, reason = ? WHERE id = ? AND expires_at > ?`,
		string(task.StatusFailure), reason, id, time.Now().Unix())
}

func (s *Store) updateStatus(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if n == 0 {
		return core.ErrTaskNotFound
	}
	return nil
}

// Sweep deletes all expired rows; call it periodically from a janitor.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sweep expired tasks: %w", err)
	}
	return res.RowsAffected()
}
