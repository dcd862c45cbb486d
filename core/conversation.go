package core

import "github.com/google/uuid"

// Role attributes a conversation turn to its author.
type Role string

const (
	// RoleHuman marks a turn authored by the end user.
	RoleHuman Role = "human"
	// RoleAssistant marks a turn produced by an agent or model.
	RoleAssistant Role = "assistant"
	// RoleTool marks a turn carrying the result of a tool invocation.
	RoleTool Role = "tool"
)

// ToolCall describes a tool invocation request surfaced by a model.
// Unified across providers so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"` // serialized JSON payload
}

// Turn is one message in a conversation. Content is plain text; ToolCalls is
// populated only on assistant turns that requested tool execution.
type Turn struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Conversation is an ordered sequence of turns. It is owned exclusively by
// the request handling the current turn: agents receive copies and return
// new state, they never mutate shared slices in place.
type Conversation []Turn

// Clone returns an independent copy safe for divergence.
func (c Conversation) Clone() Conversation {
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// Append returns a new conversation with the turn added. The receiver is not
// modified beyond the usual slice-growth semantics; callers should use the
// returned value.
func (c Conversation) Append(t Turn) Conversation {
	out := make(Conversation, len(c), len(c)+1)
	copy(out, c)
	return append(out, t)
}

// LastHuman returns the most recent human turn and true, or a zero turn and
// false if the conversation contains none.
func (c Conversation) LastHuman() (Turn, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleHuman {
			return c[i], true
		}
	}
	return Turn{}, false
}

// NewHumanTurn builds a human turn with the given text.
func NewHumanTurn(text string) Turn { return Turn{Role: RoleHuman, Content: text} }

// NewAssistantTurn builds an assistant turn with the given text.
func NewAssistantTurn(text string) Turn { return Turn{Role: RoleAssistant, Content: text} }

// NewToolTurn builds a tool turn carrying a serialized tool result.
func NewToolTurn(text string) Turn { return Turn{Role: RoleTool, Content: text} }

// NewID generates a unique identifier used for turn, task and checklist
// correlation throughout the engine.
func NewID() string { return uuid.NewString() }
