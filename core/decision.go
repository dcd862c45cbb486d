package core

// Target enumerates the routing nodes a turn can be dispatched to.
type Target string

const (
	// TargetChatbot handles general conversation and checklist triggering.
	TargetChatbot Target = "chatbot"
	// TargetRetrieval answers from the vector retrieval capability.
	TargetRetrieval Target = "retrieval"
	// TargetSearch queries the web search capability.
	TargetSearch Target = "search"
	// TargetSummarize condenses prior node outputs.
	TargetSummarize Target = "summarize"
	// TargetReflect performs an optional supervision pass.
	TargetReflect Target = "reflect"
	// TargetDone terminates the turn.
	TargetDone Target = "done"
)

// RoutingDecision is produced by the judge step once per turn and consumed
// immediately by the router; it is never persisted beyond the turn.
type RoutingDecision struct {
	Target     Target  `json:"target"`
	Confidence float64 `json:"confidence"` // in [0,1]
	RetryCount int     `json:"retry_count"`
	Query      string  `json:"query,omitempty"`  // concrete search query for search targets
	Reason     string  `json:"reason,omitempty"` // short explanation for the chosen target
}
