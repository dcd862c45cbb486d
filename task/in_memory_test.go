package task

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/tripmesh/checklist"
	"github.com/hupe1980/tripmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*InMemoryStore)(nil)

func newTestStore(t *testing.T, optFns ...func(o *InMemoryStoreOptions)) *InMemoryStore {
	t.Helper()
	s := NewInMemoryStore(optFns...)
	t.Cleanup(s.Close)
	return s
}

func TestInMemoryStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	input := core.Conversation{core.NewHumanTurn("plan a trip")}
	require.NoError(t, s.Put(ctx, Task{ID: "t1", ThreadID: "th1", Status: StatusPending, Input: input, CreatedAt: time.Now()}))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "th1", got.ThreadID)
	assert.False(t, got.ExpiresAt.IsZero(), "retention is applied on put")

	// Mutating the returned input must not leak into the store.
	got.Input[0].Content = "tampered"
	again, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "plan a trip", again.Input[0].Content)
}

func TestInMemoryStore_GetUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrTaskNotFound)
}

func TestInMemoryStore_StatusTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Task{ID: "t1", Status: StatusPending, CreatedAt: time.Now()}))
	require.NoError(t, s.SetRunning(ctx, "t1"))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)

	result := &checklist.Checklist{ID: "chk", Title: "Trip"}
	require.NoError(t, s.SetSuccess(ctx, "t1", result))

	got, err = s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "chk", got.Result.ID)

	require.NoError(t, s.Put(ctx, Task{ID: "t2", Status: StatusPending, CreatedAt: time.Now()}))
	require.NoError(t, s.SetFailure(ctx, "t2", "schema violation"))

	got, err = s.Get(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, got.Status)
	assert.Equal(t, "schema violation", got.Reason)
}

func TestInMemoryStore_LazyExpiry(t *testing.T) {
	s := newTestStore(t, func(o *InMemoryStoreOptions) {
		o.JanitorInterval = 0 // lazy expiry only
	})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Task{
		ID:        "t1",
		Status:    StatusSuccess,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := s.Get(ctx, "t1")
	assert.ErrorIs(t, err, core.ErrTaskNotFound)

	assert.ErrorIs(t, s.SetRunning(ctx, "t1"), core.ErrTaskNotFound, "updates respect expiry too")
}

func TestInMemoryStore_Sweep(t *testing.T) {
	s := newTestStore(t, func(o *InMemoryStoreOptions) {
		o.JanitorInterval = 0
	})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Task{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, s.Put(ctx, Task{ID: "fresh", ExpiresAt: time.Now().Add(time.Hour)}))

	s.sweep(time.Now())

	_, err := s.Get(ctx, "old")
	assert.ErrorIs(t, err, core.ErrTaskNotFound)
	_, err = s.Get(ctx, "fresh")
	assert.NoError(t, err)
}
