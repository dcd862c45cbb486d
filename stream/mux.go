// Package stream implements the per-request event multiplexer. All events of
// one request funnel through a single Mux, which assigns the strictly
// increasing, gapless sequence numbers the protocol promises and enforces the
// single-terminal-event rule.
package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/tripmesh/core"
)

var (
	// ErrStreamClosed is returned by Emit after Close.
	ErrStreamClosed = errors.New("stream closed")
	// ErrAfterTerminal is returned when an event is emitted after the
	// terminal event has been delivered.
	ErrAfterTerminal = errors.New("emit after terminal event")
	// ErrNotTerminal is returned when EmitTerminal receives a non-terminal
	// event type.
	ErrNotTerminal = errors.New("event type is not terminal")
)

// Options configures a Mux.
type Options struct {
	// BufferSize bounds the outbound channel. A full buffer makes Emit block
	// until the consumer catches up or the context is cancelled; events are
	// never dropped or coalesced.
	BufferSize int
}

// Mux is the single writer for one request's event stream. It is safe for
// concurrent Emit calls, though the router drives it from one goroutine.
type Mux struct {
	ctx      context.Context
	ch       chan core.Event
	mu       sync.Mutex
	seq      uint64
	terminal bool
	closed   bool
}

// NewMux creates a multiplexer bound to the request context.
func NewMux(ctx context.Context, optFns ...func(o *Options)) *Mux {
	opts := Options{BufferSize: 64}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Mux{
		ctx: ctx,
		ch:  make(chan core.Event, opts.BufferSize),
	}
}

// Events returns the outbound channel. It is closed by Close once the
// request is finished.
func (m *Mux) Events() <-chan core.Event { return m.ch }

// Emit assigns the next sequence number and delivers a non-terminal event.
// Terminal events must go through EmitTerminal.
func (m *Mux) Emit(ev core.Event) error {
	if ev.IsTerminal() {
		return m.EmitTerminal(ev)
	}
	return m.deliver(ev, false)
}

// EmitTerminal delivers the single terminal event of the request. Subsequent
// emissions of any kind fail with ErrAfterTerminal.
func (m *Mux) EmitTerminal(ev core.Event) error {
	if !ev.IsTerminal() {
		return ErrNotTerminal
	}
	return m.deliver(ev, true)
}

func (m *Mux) deliver(ev core.Event, terminal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStreamClosed
	}
	if m.terminal {
		return ErrAfterTerminal
	}

	m.seq++
	ev.Sequence = m.seq

	select {
	case m.ch <- ev:
	case <-m.ctx.Done():
		return m.ctx.Err()
	}

	if terminal {
		m.terminal = true
	}

	return nil
}

// Close tears the stream down and closes the outbound channel. Idempotent.
func (m *Mux) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.ch)
}
