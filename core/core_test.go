package core

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/tripmesh/logging"
)

func TestConversation_CloneIsolation(t *testing.T) {
	conv := Conversation{NewHumanTurn("a"), NewAssistantTurn("b")}
	clone := conv.Clone()
	clone[0].Content = "changed"
	if conv[0].Content != "a" {
		t.Fatalf("clone must not alias original, got %q", conv[0].Content)
	}
}

func TestConversation_AppendDoesNotMutateReceiver(t *testing.T) {
	conv := Conversation{NewHumanTurn("a")}
	out := conv.Append(NewAssistantTurn("b"))
	if len(conv) != 1 || len(out) != 2 {
		t.Fatalf("append must return a new conversation: %d / %d", len(conv), len(out))
	}
}

func TestConversation_LastHuman(t *testing.T) {
	conv := Conversation{NewHumanTurn("first"), NewAssistantTurn("x"), NewHumanTurn("second"), NewToolTurn("y")}
	turn, ok := conv.LastHuman()
	if !ok || turn.Content != "second" {
		t.Fatalf("expected latest human turn, got %q ok=%v", turn.Content, ok)
	}

	_, ok = Conversation{NewToolTurn("t")}.LastHuman()
	if ok {
		t.Fatal("expected no human turn")
	}
}

func TestStepLimiter_Ceiling(t *testing.T) {
	sl := NewStepLimiter(2)
	if err := sl.Increment(); err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if err := sl.Increment(); err != nil {
		t.Fatalf("step 2: %v", err)
	}
	err := sl.Increment()
	var rle *RoutingLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RoutingLimitError, got %v", err)
	}
	if rle.Steps != 2 {
		t.Fatalf("expected 2 executed steps, got %d", rle.Steps)
	}
}

func TestStepLimiter_ZeroIsUnlimited(t *testing.T) {
	sl := NewStepLimiter(0)
	for i := 0; i < 100; i++ {
		if err := sl.Increment(); err != nil {
			t.Fatalf("unexpected limit at step %d: %v", i+1, err)
		}
	}
	if sl.Remaining() != -1 {
		t.Fatalf("expected unlimited marker, got %d", sl.Remaining())
	}
}

func TestEvent_IsTerminal(t *testing.T) {
	if !NewTextCompleteEvent("done").IsTerminal() {
		t.Fatal("text-complete must be terminal")
	}
	if !NewErrorEvent("boom").IsTerminal() {
		t.Fatal("error must be terminal")
	}
	for _, ev := range []Event{
		NewTextDeltaEvent("d"),
		NewNodeCompleteEvent("judge", nil),
		NewTaskSubmittedEvent("t1"),
		NewTaskPendingEvent("t1", nil),
		NewTaskResultEvent("t1", nil),
		NewTaskErrorEvent("t1", "r"),
	} {
		if ev.IsTerminal() {
			t.Fatalf("%s must not be terminal", ev.Type)
		}
	}
}

func TestUpstreamError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("websearch", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to unwrap")
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Capability != "websearch" {
		t.Fatalf("unexpected error shape: %v", err)
	}
}

func TestNewInvocation_NilEmitAndLimiter(t *testing.T) {
	inv := NewInvocation(context.Background(), "th", "tu", Conversation{NewHumanTurn("hi")}, nil, nil, logging.NoOpLogger{})
	if err := inv.Emit(NewTextDeltaEvent("x")); err != nil {
		t.Fatalf("nil emit must become a no-op, got %v", err)
	}
	if err := inv.Limiter.Increment(); err != nil {
		t.Fatalf("nil limiter must be unlimited, got %v", err)
	}
}

func TestInvocation_WithHistory(t *testing.T) {
	base := NewInvocation(context.Background(), "th", "tu", Conversation{NewHumanTurn("a")}, nil, nil, logging.NoOpLogger{})
	derived := base.WithHistory(Conversation{NewHumanTurn("a"), NewToolTurn("notes")})
	if len(base.History) != 1 || len(derived.History) != 2 {
		t.Fatalf("histories diverged wrong: %d / %d", len(base.History), len(derived.History))
	}
	if derived.ThreadID != base.ThreadID || derived.TurnID != base.TurnID {
		t.Fatal("identifiers must carry over")
	}
}
