// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing conversations and collecting stream events.
// These helpers are intentionally minimal and not intended for production
// usage.
package testutil

import (
	"github.com/hupe1980/tripmesh/core"
)

// ConversationBuilder provides a fluent helper for constructing histories in
// tests. Example:
//
//	conv := NewConversationBuilder().Human("hi").Assistant("hello").Human("pack list?").Build()
type ConversationBuilder struct {
	turns core.Conversation
}

// NewConversationBuilder creates an empty builder.
func NewConversationBuilder() *ConversationBuilder { return &ConversationBuilder{} }

// Human appends a human turn (chainable).
func (b *ConversationBuilder) Human(text string) *ConversationBuilder {
	b.turns = append(b.turns, core.NewHumanTurn(text))
	return b
}

// Assistant appends an assistant turn (chainable).
func (b *ConversationBuilder) Assistant(text string) *ConversationBuilder {
	b.turns = append(b.turns, core.NewAssistantTurn(text))
	return b
}

// Tool appends a tool turn (chainable).
func (b *ConversationBuilder) Tool(text string) *ConversationBuilder {
	b.turns = append(b.turns, core.NewToolTurn(text))
	return b
}

// Build returns the accumulated conversation.
func (b *ConversationBuilder) Build() core.Conversation { return b.turns.Clone() }

// EventCollector records events emitted through an invocation sink.
type EventCollector struct {
	Events []core.Event
}

// Sink returns an emit function appending to the collector.
func (c *EventCollector) Sink() func(core.Event) error {
	return func(ev core.Event) error {
		c.Events = append(c.Events, ev)
		return nil
	}
}

// OfType returns the collected events of one type, in order.
func (c *EventCollector) OfType(t core.EventType) []core.Event {
	var out []core.Event
	for _, ev := range c.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// DeltaText concatenates all collected text-delta fragments.
func (c *EventCollector) DeltaText() string {
	s := ""
	for _, ev := range c.OfType(core.EventTextDelta) {
		s += ev.Delta
	}
	return s
}

// Drain collects a closed event channel into a slice.
func Drain(ch <-chan core.Event) []core.Event {
	var out []core.Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}
