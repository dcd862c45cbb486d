package stream

import (
	"context"
	"testing"

	"github.com/hupe1980/tripmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMux_SequenceIsGapless(t *testing.T) {
	mux := NewMux(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, mux.Emit(core.NewTextDeltaEvent("d")))
	}
	require.NoError(t, mux.EmitTerminal(core.NewTextCompleteEvent("done")))
	mux.Close()

	var last uint64
	for ev := range mux.Events() {
		assert.Equal(t, last+1, ev.Sequence, "sequence must be strictly increasing and gapless")
		last = ev.Sequence
	}
	assert.Equal(t, uint64(6), last)
}

func TestMux_RejectsEmissionAfterTerminal(t *testing.T) {
	mux := NewMux(context.Background())
	defer mux.Close()

	require.NoError(t, mux.EmitTerminal(core.NewErrorEvent("boom")))

	assert.ErrorIs(t, mux.Emit(core.NewTextDeltaEvent("late")), ErrAfterTerminal)
	assert.ErrorIs(t, mux.EmitTerminal(core.NewTextCompleteEvent("late")), ErrAfterTerminal)
}

func TestMux_TerminalTypeEnforced(t *testing.T) {
	mux := NewMux(context.Background())
	defer mux.Close()

	assert.ErrorIs(t, mux.EmitTerminal(core.NewTextDeltaEvent("d")), ErrNotTerminal)

	// Emit routes terminal events through EmitTerminal.
	require.NoError(t, mux.Emit(core.NewTextCompleteEvent("done")))
	assert.ErrorIs(t, mux.Emit(core.NewTextDeltaEvent("late")), ErrAfterTerminal)
}

func TestMux_CloseIsIdempotent(t *testing.T) {
	mux := NewMux(context.Background())
	mux.Close()
	mux.Close()

	assert.ErrorIs(t, mux.Emit(core.NewTextDeltaEvent("d")), ErrStreamClosed)

	_, open := <-mux.Events()
	assert.False(t, open)
}

func TestMux_BlocksOnFullBufferUntilConsumed(t *testing.T) {
	mux := NewMux(context.Background(), func(o *Options) { o.BufferSize = 1 })
	defer mux.Close()

	require.NoError(t, mux.Emit(core.NewTextDeltaEvent("a")))

	delivered := make(chan error, 1)
	go func() {
		delivered <- mux.Emit(core.NewTextDeltaEvent("b"))
	}()

	ev := <-mux.Events()
	assert.Equal(t, "a", ev.Delta)

	require.NoError(t, <-delivered)
	ev = <-mux.Events()
	assert.Equal(t, "b", ev.Delta)
	assert.Equal(t, uint64(2), ev.Sequence, "blocked event must not be dropped")
}

func TestMux_CancelledContextUnblocksEmit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mux := NewMux(ctx, func(o *Options) { o.BufferSize = 1 })
	defer mux.Close()

	require.NoError(t, mux.Emit(core.NewTextDeltaEvent("a")))

	cancel()
	err := mux.Emit(core.NewTextDeltaEvent("b"))
	assert.ErrorIs(t, err, context.Canceled)
}
