package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/tripmesh/checklist"
	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/logging"
	"github.com/hupe1980/tripmesh/model"
	"github.com/hupe1980/tripmesh/router"
	"github.com/hupe1980/tripmesh/stream"
	"github.com/hupe1980/tripmesh/task"
)

// taskAckReply is the assistant text delivered as the terminal event of a
// turn that triggered checklist generation.
const taskAckReply = "I'm preparing your checklist now — it will show up here as soon as it's ready. " +
	"Feel free to keep chatting in the meantime."

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// TrimTokens is the approximate token budget applied to the history
	// before every turn.
	TrimTokens int
	// EventBufferSize sets channel buffering for the event stream.
	EventBufferSize int
	// PollInterval is the result store polling period.
	PollInterval time.Duration
	// PollMaxWait bounds how long a request stream waits for a background
	// task before emitting a pending notification and completing.
	PollMaxWait time.Duration
	// TitleModel optionally backs GenerateTitle. Without it the fallback
	// prefix title is used.
	TitleModel model.Model
	// Logger receives engine logs.
	Logger logging.Logger
}

// Runner coordinates turn execution: trims history, runs the router, streams
// events, and bridges checklist tool calls to the background pipeline.
// Public methods are safe for concurrent use.
type Runner struct {
	router   *router.Router
	pipeline *task.Pipeline
	store    task.Store
	poller   *task.Poller

	trimTokens      int
	eventBufferSize int
	titleModel      model.Model
	logger          logging.Logger
}

// New constructs a Runner with optional overrides.
func New(rt *router.Router, pipeline *task.Pipeline, store task.Store, optFns ...func(o *Options)) *Runner {
	opts := Options{
		TrimTokens:      16000,
		EventBufferSize: 64,
		PollInterval:    time.Second,
		PollMaxWait:     30 * time.Second,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		router:   rt,
		pipeline: pipeline,
		store:    store,
		poller: task.NewPoller(store, func(o *task.PollerOptions) {
			o.Interval = opts.PollInterval
			o.MaxWait = opts.PollMaxWait
		}),
		trimTokens:      opts.TrimTokens,
		eventBufferSize: opts.EventBufferSize,
		titleModel:      opts.TitleModel,
		logger:          opts.Logger,
	}
}

// Run starts an asynchronous turn. Events arrive on the first channel in
// protocol order ending with exactly one terminal event; the error channel
// carries at most one error mirroring a terminal error event. Cancelling ctx
// stops routing and polling but never a submitted background task.
func (r *Runner) Run(
	ctx context.Context,
	threadID string,
	conversation core.Conversation,
) (<-chan core.Event, <-chan error, error) {
	if len(conversation) == 0 {
		return nil, nil, fmt.Errorf("conversation is empty")
	}

	trimmed, err := core.Trim(conversation, r.trimTokens)
	if err != nil {
		return nil, nil, fmt.Errorf("trim conversation: %w", err)
	}

	turnID := core.NewID()
	mux := stream.NewMux(ctx, func(o *stream.Options) { o.BufferSize = r.eventBufferSize })
	errCh := make(chan error, 1)

	go func() {
		defer mux.Close()
		defer close(errCh)

		r.runTurn(ctx, mux, errCh, threadID, turnID, trimmed)
	}()

	return mux.Events(), errCh, nil
}

// runTurn drives one routed turn to its terminal event.
func (r *Runner) runTurn(
	ctx context.Context,
	mux *stream.Mux,
	errCh chan<- error,
	threadID, turnID string,
	trimmed core.Conversation,
) {
	inv := core.NewInvocation(ctx, threadID, turnID, trimmed, mux.Emit, nil, r.logger)

	r.logger.Info("turn started", "thread_id", threadID, "turn_id", turnID, "turns", len(trimmed))

	out, err := r.router.RunTurn(inv)
	if err != nil {
		r.terminate(mux, errCh, err)
		return
	}

	switch o := out.(type) {
	case core.TextOutcome:
		if err := mux.EmitTerminal(core.NewTextCompleteEvent(o.Text)); err != nil {
			errCh <- err
		}

	case core.ToolCallOutcome:
		r.runTask(ctx, mux, errCh, threadID, trimmed)

	default:
		r.terminate(mux, errCh, fmt.Errorf("router returned unexpected outcome %T", out))
	}
}

// runTask submits the checklist task and relays its progress into the event
// stream: task-submitted, a pending placeholder, then task-result or
// task-error (or a second pending notification when the wait times out),
// followed by the terminal acknowledgment.
func (r *Runner) runTask(
	ctx context.Context,
	mux *stream.Mux,
	errCh chan<- error,
	threadID string,
	trimmed core.Conversation,
) {
	handle, err := r.pipeline.Submit(ctx, threadID, trimmed)
	if err != nil {
		r.terminate(mux, errCh, err)
		return
	}

	if err := mux.Emit(core.NewTaskSubmittedEvent(handle.ID)); err != nil {
		errCh <- err
		return
	}

	banner := checklist.PendingBanner(threadID, handle.ID, checklist.StableID(handle.ID), time.Now())
	if err := mux.Emit(core.NewTaskPendingEvent(handle.ID, banner)); err != nil {
		errCh <- err
		return
	}

	t, err := r.poller.Wait(ctx, handle.ID)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Consumer is gone; the task keeps running and stays pollable.
		errCh <- err
		return
	case err != nil:
		r.terminate(mux, errCh, err)
		return
	}

	switch t.Status {
	case task.StatusSuccess:
		err = mux.Emit(core.NewTaskResultEvent(handle.ID, t.Result))
	case task.StatusFailure:
		err = mux.Emit(core.NewTaskErrorEvent(handle.ID, t.Reason))
	default:
		// Still pending after the bounded wait; the caller polls TaskStatus.
		err = mux.Emit(core.NewTaskPendingEvent(handle.ID, banner))
	}
	if err != nil {
		errCh <- err
		return
	}

	if err := mux.EmitTerminal(core.NewTextCompleteEvent(taskAckReply)); err != nil {
		errCh <- err
	}
}

// terminate converts a turn failure into the single terminal error event and
// mirrors it on the error channel. Already-streamed deltas stand.
func (r *Runner) terminate(mux *stream.Mux, errCh chan<- error, cause error) {
	r.logger.Error("turn failed", "error", cause.Error())

	if err := mux.EmitTerminal(core.NewErrorEvent(cause.Error())); err != nil && !errors.Is(err, stream.ErrAfterTerminal) {
		r.logger.Warn("could not deliver terminal error event", "error", err.Error())
	}

	errCh <- cause
}

// TaskStatus returns the current state of a background task. After the
// retention window it fails with core.ErrTaskNotFound.
func (r *Runner) TaskStatus(ctx context.Context, id string) (task.Task, error) {
	return r.store.Get(ctx, id)
}

// RunSync drives a turn to completion and returns the terminal reply text
// along with every event in emission order.
func (r *Runner) RunSync(ctx context.Context, threadID string, conversation core.Conversation) (string, []core.Event, error) {
	eventCh, errCh, err := r.Run(ctx, threadID, conversation)
	if err != nil {
		return "", nil, err
	}

	var (
		events []core.Event
		text   string
	)
	for ev := range eventCh {
		events = append(events, ev)
		if ev.Type == core.EventTextComplete {
			text = ev.Content
		}
	}

	if err := <-errCh; err != nil {
		return "", events, err
	}

	return text, events, nil
}
