package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_RunsEnqueuedJobs(t *testing.T) {
	q := NewQueue(8)
	require.NoError(t, q.Start(context.Background(), 2))

	var ran atomic.Int64
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		last := i == 4
		err := q.Enqueue(context.Background(), Job{ID: "j", Run: func(context.Context) error {
			ran.Add(1)
			if last {
				close(done)
			}
			return nil
		}})
		require.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not run")
	}

	require.NoError(t, q.Stop(time.Second))
	assert.Equal(t, int64(5), ran.Load())

	stats := q.Stats()
	assert.Equal(t, uint64(5), stats.Enqueued)
	assert.Equal(t, uint64(5), stats.Completed)
	assert.Equal(t, uint64(0), stats.Failed)
}

func TestQueue_DoubleStart(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Start(context.Background(), 1))
	assert.ErrorIs(t, q.Start(context.Background(), 1), ErrQueueStarted)
	require.NoError(t, q.Stop(time.Second))
}

func TestQueue_EnqueueAfterStop(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Start(context.Background(), 1))
	require.NoError(t, q.Stop(time.Second))

	err := q.Enqueue(context.Background(), Job{Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueStopped)
}

func TestQueue_EnqueueBeforeStart(t *testing.T) {
	q := NewQueue(1)
	err := q.Enqueue(context.Background(), Job{Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueStopped)
}

func TestQueue_RequiresRunCallback(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Start(context.Background(), 1))
	defer q.Stop(time.Second) //nolint:errcheck

	assert.Error(t, q.Enqueue(context.Background(), Job{ID: "no-run"}))
}

func TestQueue_FailedJobsCounted(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Start(context.Background(), 1))

	done := make(chan struct{})
	err := q.Enqueue(context.Background(), Job{Run: func(context.Context) error {
		defer close(done)
		return errors.New("boom")
	}})
	require.NoError(t, err)

	<-done
	require.NoError(t, q.Stop(time.Second))
	assert.Equal(t, uint64(1), q.Stats().Failed)
}

func TestQueue_StopDrainsPendingWork(t *testing.T) {
	q := NewQueue(8)
	require.NoError(t, q.Start(context.Background(), 1))

	var ran atomic.Int64
	for i := 0; i < 4; i++ {
		err := q.Enqueue(context.Background(), Job{Run: func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			ran.Add(1)
			return nil
		}})
		require.NoError(t, err)
	}

	require.NoError(t, q.Stop(2*time.Second))
	assert.Equal(t, int64(4), ran.Load(), "stop waits for queued jobs")
}
