package agent

import (
	"encoding/json"
	"strings"

	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/model"
)

// judgeInstructions constrain the optional model-backed routing mode to a
// strict JSON decision payload.
const judgeInstructions = `You are a routing judge for a travel assistant.
Given the latest user message, decide which specialist should handle it:
- "search" for questions needing fresh external information (news, weather, prices, events, opening hours)
- "retrieval" for questions answerable from stored travel documents and guides
- "chatbot" for everything else (general conversation, trip planning, checklist requests)
Respond with a single JSON object: {"target": "...", "confidence": 0.0-1.0, "query": "...", "reason": "..."}`

// searchMarkers flag intents that need fresh external information.
var searchMarkers = []string{
	"search", "look up", "google", "latest", "news", "current",
	"today", "tonight", "this week", "weather", "forecast", "price",
	"prices", "exchange rate", "open now", "opening hours", "events",
}

// retrievalMarkers flag intents answerable from the stored document corpus.
var retrievalMarkers = []string{
	"document", "documents", "docs", "knowledge base", "according to",
	"guide", "guides", "policy", "policies", "manual", "visa requirements",
	"packing list",
}

// JudgeOptions configures a Judge instance.
type JudgeOptions struct {
	// Model enables the model-backed routing mode. When nil the judge is
	// purely deterministic. Model failures and malformed decisions fall back
	// to the deterministic signals, never to an error.
	Model model.Model
}

// Judge inspects the latest human turn and produces a RoutingDecision. The
// deterministic signal pass is always available; a model can refine it.
type Judge struct {
	llm model.Model
}

// NewJudge constructs a judge.
func NewJudge(optFns ...func(o *JudgeOptions)) *Judge {
	opts := JudgeOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Judge{llm: opts.Model}
}

// Name implements Agent.
func (j *Judge) Name() string { return "judge" }

// Invoke implements Agent; the outcome is always
// StructuredOutcome(core.RoutingDecision).
func (j *Judge) Invoke(inv *core.Invocation) (core.Outcome, error) {
	query := lastHumanContent(inv.History)

	if j.llm != nil {
		if d, ok := j.decideWithModel(inv, query); ok {
			inv.LogDebug("judge decided", "mode", "model", "target", string(d.Target), "confidence", d.Confidence)
			return core.StructuredOutcome{Data: d}, nil
		}
	}

	d := decideFromSignals(query)
	inv.LogDebug("judge decided", "mode", "signals", "target", string(d.Target), "confidence", d.Confidence)
	return core.StructuredOutcome{Data: d}, nil
}

// decideWithModel asks the model for a JSON decision. Any failure (model
// error, malformed payload, unknown target) reports !ok so the caller falls
// back to deterministic signals.
func (j *Judge) decideWithModel(inv *core.Invocation, query string) (core.RoutingDecision, bool) {
	req := model.Request{
		Instructions: judgeInstructions,
		History:      core.Conversation{core.NewHumanTurn(query)},
		ForceJSON:    true,
	}

	resp, err := generate(inv, j.llm, req, false)
	if err != nil {
		inv.LogWarn("judge model failed, falling back to signals", "error", err.Error())
		return core.RoutingDecision{}, false
	}

	var d core.RoutingDecision
	if err := json.Unmarshal([]byte(resp.Text), &d); err != nil {
		inv.LogWarn("judge returned malformed decision, falling back to signals", "error", err.Error())
		return core.RoutingDecision{}, false
	}

	switch d.Target {
	case core.TargetChatbot, core.TargetRetrieval, core.TargetSearch:
	default:
		return core.RoutingDecision{}, false
	}

	if d.Confidence < 0 || d.Confidence > 1 {
		d.Confidence = 0.5
	}
	if d.Query == "" {
		d.Query = query
	}

	return d, true
}

// decideFromSignals is the deterministic routing pass over the latest human
// turn. Search intent wins over retrieval when both match.
func decideFromSignals(query string) core.RoutingDecision {
	trimmed := strings.TrimSpace(query)

	switch {
	case containsAny(trimmed, searchMarkers...):
		return core.RoutingDecision{
			Target:     core.TargetSearch,
			Confidence: 0.9,
			Query:      trimmed,
			Reason:     "search intent markers in latest message",
		}
	case containsAny(trimmed, retrievalMarkers...):
		return core.RoutingDecision{
			Target:     core.TargetRetrieval,
			Confidence: 0.9,
			Query:      trimmed,
			Reason:     "document retrieval markers in latest message",
		}
	default:
		return core.RoutingDecision{
			Target:     core.TargetChatbot,
			Confidence: 0.6,
			Query:      trimmed,
			Reason:     "no external capability signals",
		}
	}
}
