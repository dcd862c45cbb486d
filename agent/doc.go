// Package agent contains the specialized reasoning agents a turn can be
// routed through: the judge (routing decision), the chatbot (streaming reply
// plus checklist tool), retrieval (grounded answers), search (web snippets
// with confidence gating), summarize (condensation) and reflect (bounded
// quality pass).
//
// Agents receive a *core.Invocation with an already-trimmed history and
// return a core.Outcome. They never mutate the invocation; streaming agents
// push text-delta events through the invocation's emit sink as they go.
package agent
