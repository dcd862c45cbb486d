package core

import (
	"errors"
	"strings"
	"testing"
)

func human(text string) Turn     { return NewHumanTurn(text) }
func assistant(text string) Turn { return NewAssistantTurn(text) }

func TestTrim_EmptyHistory(t *testing.T) {
	_, err := Trim(nil, 1000)
	var tve *TrimViolationError
	if !errors.As(err, &tve) {
		t.Fatalf("expected TrimViolationError, got %v", err)
	}
}

func TestTrim_WithinBudgetKeepsEverything(t *testing.T) {
	conv := Conversation{human("hi"), assistant("hello"), human("pack list?")}
	out, err := Trim(conv, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected full history, got %d turns", len(out))
	}
}

func TestTrim_DropsOldestFirst(t *testing.T) {
	long := strings.Repeat("x", 400) // ~104 tokens per turn
	conv := Conversation{
		human(long),
		assistant(long),
		human(long),
		assistant(long),
		human("latest question"),
	}
	out, err := Trim(conv, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[len(out)-1].Content != "latest question" {
		t.Fatalf("most recent turn must survive, got %q", out[len(out)-1].Content)
	}
	if len(out) >= len(conv) {
		t.Fatalf("expected older turns dropped, kept %d of %d", len(out), len(conv))
	}
	if out[0].Role != RoleHuman {
		t.Fatalf("window must start on human, got %s", out[0].Role)
	}
}

func TestTrim_DropsTrailingAssistantTurns(t *testing.T) {
	conv := Conversation{human("question"), assistant("partial draft"), assistant("more")}
	out, err := Trim(conv, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := out[len(out)-1].Role
	if last != RoleHuman && last != RoleTool {
		t.Fatalf("window must end on human or tool, got %s", last)
	}
	if out[len(out)-1].Content != "question" {
		t.Fatalf("expected trailing assistant turns dropped, got %q", out[len(out)-1].Content)
	}
}

func TestTrim_ExtendsWindowStartToHuman(t *testing.T) {
	long := strings.Repeat("y", 400)
	conv := Conversation{
		human("old question"),
		assistant(long),
		human("new question"),
	}
	// Budget fits only the last turn, but the window still extends back to a
	// human start. Here the last turn already is human, so nothing extends.
	out, err := Trim(conv, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Role != RoleHuman {
		t.Fatalf("window must start on human, got %s", out[0].Role)
	}

	// With a tool turn last, extension must pull in the preceding human.
	conv2 := Conversation{
		human("q"),
		assistant(long),
		NewToolTurn(long),
	}
	out2, err := Trim(conv2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out2[0].Role != RoleHuman {
		t.Fatalf("window must extend back to a human start, got %s", out2[0].Role)
	}
	if out2[len(out2)-1].Role != RoleTool {
		t.Fatalf("tool turn must remain the window end, got %s", out2[len(out2)-1].Role)
	}
}

func TestTrim_OnlyAssistantTurnsFails(t *testing.T) {
	conv := Conversation{assistant("a"), assistant("b")}
	_, err := Trim(conv, 1000)
	var tve *TrimViolationError
	if !errors.As(err, &tve) {
		t.Fatalf("expected TrimViolationError, got %v", err)
	}
}

func TestTrim_Deterministic(t *testing.T) {
	conv := Conversation{
		human(strings.Repeat("a", 200)),
		assistant(strings.Repeat("b", 200)),
		human("tail"),
	}
	first, err := Trim(conv, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Trim(conv, 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("non-deterministic trim: %d vs %d turns", len(again), len(first))
		}
	}
}

func TestApproxTurnTokens_CountsToolCallArguments(t *testing.T) {
	plain := ApproxTurnTokens(Turn{Role: RoleAssistant, Content: "call it"})
	withCall := ApproxTurnTokens(Turn{
		Role:      RoleAssistant,
		Content:   "call it",
		ToolCalls: []ToolCall{{Name: "generate_checklist", Arguments: strings.Repeat("z", 80)}},
	})
	if withCall <= plain {
		t.Fatalf("tool call arguments must add cost: %d <= %d", withCall, plain)
	}
}
