package core

// Outcome is the closed set of results an agent invocation can produce.
// Concrete outcome types implement the unexported isOutcome marker so the
// router can switch on variant rather than open-ended dynamic dispatch.
type Outcome interface{ isOutcome() }

// TextOutcome is the accumulated text reply of a (possibly streaming) agent.
type TextOutcome struct {
	Text string
}

func (TextOutcome) isOutcome() {}

// ToolCallOutcome is a request to execute a named tool. The engine does not
// run tools in-process; the only tool currently surfaced, generate_checklist,
// is routed to the background pipeline.
type ToolCallOutcome struct {
	Name      string
	Arguments string
}

func (ToolCallOutcome) isOutcome() {}

// StructuredOutcome carries typed, non-conversational data such as a routing
// decision, search output or reflect verdict.
type StructuredOutcome struct {
	Data any
}

func (StructuredOutcome) isOutcome() {}
