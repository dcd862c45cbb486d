package core

import (
	"context"

	"github.com/hupe1980/tripmesh/logging"
)

// Invocation carries the execution scope for one agent invocation within a
// turn. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (ThreadID correlates checkpoint state within one routing
//     run; TurnID identifies the request)
//   - The trimmed conversation history (a private copy, never shared)
//   - The event emission sink feeding the stream multiplexer
//   - The per-turn step limiter
//
// Agents treat History as read-only and return new state via their Outcome
// rather than mutating the invocation.
type Invocation struct {
	Context          context.Context
	ThreadID, TurnID string
	History          Conversation
	Emit             func(Event) error
	Limiter          *StepLimiter

	*loggerAdapter
}

// NewInvocation constructs an invocation scope. A nil emit sink is replaced
// with a no-op so non-streaming callers (the background pipeline) can invoke
// agents without a multiplexer.
func NewInvocation(
	ctx context.Context,
	threadID, turnID string,
	history Conversation,
	emit func(Event) error,
	limiter *StepLimiter,
	logger logging.Logger,
) *Invocation {
	if emit == nil {
		emit = func(Event) error { return nil }
	}
	if limiter == nil {
		limiter = NewStepLimiter(0)
	}
	return &Invocation{
		Context:       ctx,
		ThreadID:      threadID,
		TurnID:        turnID,
		History:       history,
		Emit:          emit,
		Limiter:       limiter,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (inv *Invocation) Done() <-chan struct{} { return inv.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (inv *Invocation) Err() error { return inv.Context.Err() }

// WithHistory clones the invocation with a replacement history, sharing the
// emit sink, limiter and identifiers. Used when a downstream node consumes
// an upstream node's output as additional context.
func (inv *Invocation) WithHistory(history Conversation) *Invocation {
	c := *inv
	c.History = history
	return &c
}
