package core

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is returned by task stores for unknown or expired task ids.
// Observing it after a prior SUCCESS/FAILURE means the retention window
// elapsed; callers must treat that as informational, not a pipeline failure.
var ErrTaskNotFound = errors.New("task not found")

// UpstreamError reports the failure of an external capability (model,
// web search or vector retrieval). It is fatal to the current turn but never
// to the process: the router converts it into a single terminal error event.
type UpstreamError struct {
	Capability string // "model", "search", "retrieval", "queue"
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Capability, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError wraps err as a capability failure.
func NewUpstreamError(capability string, err error) *UpstreamError {
	return &UpstreamError{Capability: capability, Err: err}
}

// TrimViolationError reports that history trimming could not satisfy its
// boundary postconditions. It indicates an internal defect and fails the
// turn; it is never silently ignored.
type TrimViolationError struct {
	Reason string
}

func (e *TrimViolationError) Error() string {
	return fmt.Sprintf("trimming invariant violated: %s", e.Reason)
}

// RoutingLimitError reports that a turn exceeded the node execution ceiling.
// It is the safety valve against runaway reflect/retry cycles; text already
// streamed to the caller is preserved, not retracted.
type RoutingLimitError struct {
	Steps int
}

func (e *RoutingLimitError) Error() string {
	return fmt.Sprintf("routing limit exceeded after %d node executions", e.Steps)
}

// SchemaError reports a structured-generation payload that failed schema
// validation. In the background pipeline it marks the task FAILURE with the
// offending payload captured for later pollers.
type SchemaError struct {
	Reason  string
	Payload string // offending serialized payload, may be truncated
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation: %s", e.Reason)
}
