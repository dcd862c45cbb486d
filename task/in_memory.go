package task

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/tripmesh/checklist"
	"github.com/hupe1980/tripmesh/core"
)

// InMemoryStoreOptions configures an InMemoryStore.
type InMemoryStoreOptions struct {
	// Retention is how long a task stays readable after creation.
	Retention time.Duration
	// JanitorInterval is the sweep period for expired entries. Zero disables
	// the janitor; lazy expiry on read still applies.
	JanitorInterval time.Duration
}

// InMemoryStore keeps task state in process memory. Expiry is enforced both
// lazily on read and by a periodic janitor sweep, so memory does not grow
// with tasks nobody polls.
type InMemoryStore struct {
	mu      sync.RWMutex
	tasks   map[string]Task
	opts    InMemoryStoreOptions
	stopCh  chan struct{}
	stopped sync.Once
}

// NewInMemoryStore creates an in-memory task store with a 1h retention
// window by default.
func NewInMemoryStore(optFns ...func(o *InMemoryStoreOptions)) *InMemoryStore {
	opts := InMemoryStoreOptions{
		Retention:       time.Hour,
		JanitorInterval: 5 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &InMemoryStore{
		tasks:  make(map[string]Task),
		opts:   opts,
		stopCh: make(chan struct{}),
	}

	if opts.JanitorInterval > 0 {
		go s.janitor()
	}

	return s
}

// Retention returns the configured retention window.
func (s *InMemoryStore) Retention() time.Duration { return s.opts.Retention }

// Put implements Store.
func (s *InMemoryStore) Put(_ context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(s.opts.Retention)
	}
	t.Input = t.Input.Clone()
	s.tasks[t.ID] = t

	return nil
}

// Get implements Store with lazy expiry.
func (s *InMemoryStore) Get(_ context.Context, id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, core.ErrTaskNotFound
	}
	if t.Expired(time.Now()) {
		delete(s.tasks, id)
		return Task{}, core.ErrTaskNotFound
	}

	t.Input = t.Input.Clone()
	return t, nil
}

// SetRunning implements Store.
func (s *InMemoryStore) SetRunning(_ context.Context, id string) error {
	return s.update(id, func(t *Task) {
		t.Status = StatusRunning
	})
}

// SetSuccess implements Store.
func (s *InMemoryStore) SetSuccess(_ context.Context, id string, result *checklist.Checklist) error {
	return s.update(id, func(t *Task) {
		t.Status = StatusSuccess
		t.Result = result
		t.Reason = ""
	})
}

// SetFailure implements Store.
func (s *InMemoryStore) SetFailure(_ context.Context, id string, reason string) error {
	return s.update(id, func(t *Task) {
		t.Status = StatusFailure
		t.Reason = reason
	})
}

func (s *InMemoryStore) update(id string, fn func(t *Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Expired(time.Now()) {
		delete(s.tasks, id)
		return core.ErrTaskNotFound
	}

	fn(&t)
	s.tasks[id] = t

	return nil
}

// Close stops the janitor. Idempotent.
func (s *InMemoryStore) Close() {
	s.stopped.Do(func() { close(s.stopCh) })
}

func (s *InMemoryStore) janitor() {
	ticker := time.NewTicker(s.opts.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *InMemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tasks {
		if t.Expired(now) {
			delete(s.tasks, id)
		}
	}
}
