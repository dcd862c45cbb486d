package core

// turnTokenOverhead approximates the per-message framing cost charged by
// chat model providers on top of the content itself.
const turnTokenOverhead = 4

// ApproxTurnTokens estimates the token cost of a single turn. Roughly four
// characters per token plus a fixed per-turn overhead; tool call arguments
// count toward the cost.
func ApproxTurnTokens(t Turn) int {
	cost := len(t.Content)/4 + turnTokenOverhead
	for _, tc := range t.ToolCalls {
		cost += len(tc.Arguments)/4 + turnTokenOverhead
	}
	return cost
}

// Trim bounds a conversation to an approximate token budget while preserving
// the structural invariants model providers require. It is deterministic and
// has no side effects.
//
// Turns are accumulated most-recent-first until the budget is exhausted, then
// restored to chronological order. Postconditions: the result is non-empty,
// starts on a human turn and ends on a human or tool turn. When the naive
// budget window would violate a boundary the window is extended minimally
// until both hold; boundary correctness takes priority over exact budget
// adherence. If no valid window exists Trim fails with *TrimViolationError.
//
// Trim runs before every agent invocation that consults history.
func Trim(turns Conversation, maxTokens int) (Conversation, error) {
	if len(turns) == 0 {
		return nil, &TrimViolationError{Reason: "history is empty"}
	}

	// The window may not end on an assistant turn. Walk back over trailing
	// assistant turns; extending forward past the end of history is not
	// possible.
	end := len(turns) - 1
	for end >= 0 && turns[end].Role == RoleAssistant {
		end--
	}
	if end < 0 {
		return nil, &TrimViolationError{Reason: "no human or tool turn to end the window on"}
	}

	// Accumulate backward from the window end. The most recent turn is always
	// included even if it alone exceeds the budget.
	start := end
	budget := maxTokens - ApproxTurnTokens(turns[end])
	for i := end - 1; i >= 0; i-- {
		cost := ApproxTurnTokens(turns[i])
		if budget < cost {
			break
		}
		budget -= cost
		start = i
	}

	// Extend backward until the window starts on a human turn.
	for start > 0 && turns[start].Role != RoleHuman {
		start--
	}

	out := make(Conversation, end-start+1)
	copy(out, turns[start:end+1])

	if err := checkTrimInvariants(out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkTrimInvariants(out Conversation) error {
	if len(out) == 0 {
		return &TrimViolationError{Reason: "trimmed window is empty"}
	}
	if out[0].Role != RoleHuman {
		return &TrimViolationError{Reason: "trimmed window does not start on a human turn"}
	}
	last := out[len(out)-1].Role
	if last != RoleHuman && last != RoleTool {
		return &TrimViolationError{Reason: "trimmed window does not end on a human or tool turn"}
	}
	return nil
}
