package core

import "time"

// EventType identifies one kind of externally visible stream event.
type EventType string

const (
	// EventTextDelta carries one incremental fragment of streamed text.
	EventTextDelta EventType = "text-delta"
	// EventTextComplete carries the full accumulated assistant reply and
	// terminates a successful request stream.
	EventTextComplete EventType = "text-complete"
	// EventNodeComplete signals that a non-streaming routing node finished.
	EventNodeComplete EventType = "node-complete"
	// EventTaskSubmitted reports that a background checklist task was queued.
	EventTaskSubmitted EventType = "task-submitted"
	// EventTaskPending carries a placeholder payload while the background
	// task is still running (or when the stream stops waiting for it).
	EventTaskPending EventType = "task-pending"
	// EventTaskResult carries the finished checklist payload.
	EventTaskResult EventType = "task-result"
	// EventTaskError reports a failed background task.
	EventTaskError EventType = "task-error"
	// EventError terminates a request stream after an unrecoverable failure.
	EventError EventType = "error"
)

// Event is the unit of the outbound streaming protocol. After emission an
// event is immutable: it is never retracted, reordered or coalesced.
//
// Sequence is assigned exclusively by the stream multiplexer and is strictly
// increasing and gapless within one request; there is no ordering guarantee
// across requests. Payload is opaque to the protocol layer (task-result
// events carry a *checklist.Checklist, node-complete events carry
// node-specific data).
type Event struct {
	Type      EventType `json:"type"`
	Sequence  uint64    `json:"sequence"`
	Delta     string    `json:"delta,omitempty"`
	Content   string    `json:"content,omitempty"`
	Node      string    `json:"node,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsTerminal reports whether this event ends the request stream. Exactly one
// terminal event is delivered per request.
func (e Event) IsTerminal() bool {
	return e.Type == EventTextComplete || e.Type == EventError
}

func newEvent(t EventType) Event {
	return Event{Type: t, Timestamp: time.Now().UTC()}
}

// NewTextDeltaEvent builds a streaming text fragment event.
func NewTextDeltaEvent(delta string) Event {
	e := newEvent(EventTextDelta)
	e.Delta = delta
	return e
}

// NewTextCompleteEvent builds the terminal success event carrying the full
// accumulated assistant reply.
func NewTextCompleteEvent(content string) Event {
	e := newEvent(EventTextComplete)
	e.Content = content
	return e
}

// NewNodeCompleteEvent builds a completion marker for a non-streaming node.
func NewNodeCompleteEvent(node string, payload any) Event {
	e := newEvent(EventNodeComplete)
	e.Node = node
	e.Payload = payload
	return e
}

// NewTaskSubmittedEvent reports the queueing of a background task.
func NewTaskSubmittedEvent(taskID string) Event {
	e := newEvent(EventTaskSubmitted)
	e.TaskID = taskID
	return e
}

// NewTaskPendingEvent carries a placeholder payload for an in-flight task.
func NewTaskPendingEvent(taskID string, payload any) Event {
	e := newEvent(EventTaskPending)
	e.TaskID = taskID
	e.Payload = payload
	return e
}

// NewTaskResultEvent carries the finished checklist payload for a task.
func NewTaskResultEvent(taskID string, payload any) Event {
	e := newEvent(EventTaskResult)
	e.TaskID = taskID
	e.Payload = payload
	return e
}

// NewTaskErrorEvent reports a failed background task with its captured reason.
func NewTaskErrorEvent(taskID, reason string) Event {
	e := newEvent(EventTaskError)
	e.TaskID = taskID
	e.Reason = reason
	return e
}

// NewErrorEvent builds the terminal failure event for a request stream.
func NewErrorEvent(reason string) Event {
	e := newEvent(EventError)
	e.Reason = reason
	return e
}
