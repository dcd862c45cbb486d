package task

import (
	"context"

	"github.com/hupe1980/tripmesh/checklist"
)

// Store persists task state. Writes to the same id are linearizable: the
// in-memory store serializes them behind a mutex, the sqlite store behind
// single-statement transactions. Get on an expired or unknown id returns
// core.ErrTaskNotFound.
type Store interface {
	// Put inserts the initial (PENDING) task record.
	Put(ctx context.Context, t Task) error

	// Get returns the current task state.
	Get(ctx context.Context, id string) (Task, error)

	// SetRunning transitions the task to RUNNING.
	SetRunning(ctx context.Context, id string) error

	// SetSuccess stores the finished checklist and transitions to SUCCESS.
	SetSuccess(ctx context.Context, id string, result *checklist.Checklist) error

	// SetFailure records the failure reason and transitions to FAILURE.
	SetFailure(ctx context.Context, id string, reason string) error
}
