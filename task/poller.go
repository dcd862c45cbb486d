package task

import (
	"context"
	"time"
)

// PollerOptions configures a Poller.
type PollerOptions struct {
	// Interval between store lookups.
	Interval time.Duration
	// MaxWait bounds how long Wait blocks. Zero means a single lookup.
	MaxWait time.Duration
}

// Poller waits briefly for a background task to finish. It never cancels the
// task: a timed-out wait simply returns the still-pending state so the
// caller can emit a pending notification and move on.
type Poller struct {
	store Store
	opts  PollerOptions
}

// NewPoller constructs a poller over the given store.
func NewPoller(store Store, optFns ...func(o *PollerOptions)) *Poller {
	opts := PollerOptions{
		Interval: time.Second,
		MaxWait:  30 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Poller{store: store, opts: opts}
}

// Wait polls until the task reaches a terminal status, the max wait elapses
// or ctx is cancelled. The returned task may still be PENDING/RUNNING;
// inspect Status. Unknown or expired ids fail with core.ErrTaskNotFound.
func (p *Poller) Wait(ctx context.Context, id string) (Task, error) {
	t, err := p.store.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if t.Status.Terminal() || p.opts.MaxWait <= 0 {
		return t, nil
	}

	deadline := time.NewTimer(p.opts.MaxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return t, ctx.Err()
		case <-deadline.C:
			return t, nil
		case <-ticker.C:
			t, err = p.store.Get(ctx, id)
			if err != nil {
				return Task{}, err
			}
			if t.Status.Terminal() {
				return t, nil
			}
		}
	}
}
