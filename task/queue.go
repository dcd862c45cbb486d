package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrQueueStarted is returned by Start on a running queue.
	ErrQueueStarted = errors.New("task queue already started")
	// ErrQueueStopped is returned by Enqueue after shutdown began.
	ErrQueueStopped = errors.New("task queue stopped")
)

// Job is one unit of background work. Run receives the queue's detached
// context, not the submitting request's, so caller disconnects never cancel
// in-flight work.
type Job struct {
	ID  string
	Run func(ctx context.Context) error
}

// QueueStats is a point-in-time snapshot of queue counters.
type QueueStats struct {
	Depth     int    `json:"depth"`
	Capacity  int    `json:"capacity"`
	Enqueued  uint64 `json:"enqueued"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}

// Queue is a bounded in-process worker pool with at-least-once execution
// semantics: a job handed to Enqueue either runs or shutdown was already in
// progress and Enqueue reported it.
type Queue struct {
	mu       sync.Mutex
	jobs     chan Job
	started  bool
	stopping bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight atomic.Int64

	enqueued  atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// NewQueue creates a queue with the given buffer capacity.
func NewQueue(buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{jobs: make(chan Job, buffer)}
}

// Start launches the worker pool. Workers run under a context derived from
// parent; pass context.Background() to detach jobs from request lifetimes.
func (q *Queue) Start(parent context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return ErrQueueStarted
	}
	ctx, cancel := context.WithCancel(parent)
	q.cancel = cancel
	q.started = true
	q.stopping = false
	q.mu.Unlock()

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}

	return nil
}

// Enqueue hands a job to the pool, blocking while the buffer is full. It
// fails with ErrQueueStopped once shutdown has begun and with the context
// error if the submitter gives up first.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if job.Run == nil {
		return errors.New("job run callback is required")
	}

	q.mu.Lock()
	stopping := q.stopping || !q.started
	q.mu.Unlock()
	if stopping {
		return ErrQueueStopped
	}

	select {
	case q.jobs <- job:
		q.enqueued.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current queue counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Depth:     len(q.jobs),
		Capacity:  cap(q.jobs),
		Enqueued:  q.enqueued.Load(),
		Completed: q.completed.Load(),
		Failed:    q.failed.Load(),
	}
}

// Stop drains queued and in-flight jobs, waiting at most timeout (zero
// means wait indefinitely), then cancels the workers. Returns an error if
// the drain timed out with work remaining.
func (q *Queue) Stop(timeout time.Duration) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return nil
	}
	cancel := q.cancel
	q.cancel = nil
	q.started = false
	q.stopping = true
	q.mu.Unlock()

	drained := q.drain(timeout)
	cancel()
	q.wg.Wait()

	q.mu.Lock()
	q.stopping = false
	q.mu.Unlock()

	if !drained {
		return errors.New("task queue stop timed out with jobs remaining")
	}

	return nil
}

func (q *Queue) drain(timeout time.Duration) bool {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if len(q.jobs) == 0 && q.inFlight.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-ticker.C:
		}
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.inFlight.Add(1)
			if err := job.Run(ctx); err != nil {
				q.failed.Add(1)
			} else {
				q.completed.Add(1)
			}
			q.inFlight.Add(-1)
		}
	}
}
