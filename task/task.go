package task

import (
	"time"

	"github.com/hupe1980/tripmesh/checklist"
	"github.com/hupe1980/tripmesh/core"
)

// Status is the lifecycle state of a background task.
type Status string

const (
	// StatusPending means the task is queued but not yet picked up.
	StatusPending Status = "PENDING"
	// StatusRunning means a worker is processing the task.
	StatusRunning Status = "RUNNING"
	// StatusSuccess means the checklist was produced.
	StatusSuccess Status = "SUCCESS"
	// StatusFailure means the task failed; Reason carries the cause.
	StatusFailure Status = "FAILURE"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool { return s == StatusSuccess || s == StatusFailure }

// Task is one background checklist generation unit. Input is the trimmed
// conversation captured at submission time; two submissions with identical
// input are still distinct tasks with distinct ids.
type Task struct {
	ID        string               `json:"id"`
	ThreadID  string               `json:"thread_id"`
	Status    Status               `json:"status"`
	Input     core.Conversation    `json:"input,omitempty"`
	Result    *checklist.Checklist `json:"result,omitempty"`
	Reason    string               `json:"reason,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Expired reports whether the retention window has passed.
func (t Task) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Handle is the submission receipt handed back to the request path.
type Handle struct {
	ID string
}
