package agent

import (
	"encoding/json"

	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/model"
)

const reflectInstructions = `You review draft answers from a travel assistant. Judge whether the
draft actually answers the user's latest question. Respond with a single JSON object:
{"redo": true|false, "reason": "..."}. Request a redo only for answers that are wrong,
empty or off-topic.`

// ReflectVerdict is the structured result of the reflect pass.
type ReflectVerdict struct {
	Redo   bool   `json:"redo"`
	Reason string `json:"reason,omitempty"`
}

// ReflectOptions configures a Reflect agent.
type ReflectOptions struct {
	Instructions string
}

// Reflect performs a bounded quality pass over the draft reply. The router
// enforces the redo ceiling; the agent only renders a verdict.
type Reflect struct {
	llm  model.Model
	opts ReflectOptions
}

// NewReflect constructs a reflect agent.
func NewReflect(llm model.Model, optFns ...func(o *ReflectOptions)) *Reflect {
	opts := ReflectOptions{Instructions: reflectInstructions}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reflect{llm: llm, opts: opts}
}

// Name implements Agent.
func (r *Reflect) Name() string { return "reflect" }

// Invoke implements Agent; the outcome is always
// StructuredOutcome(ReflectVerdict). A malformed verdict accepts the draft
// rather than failing the turn.
func (r *Reflect) Invoke(inv *core.Invocation) (core.Outcome, error) {
	req := model.Request{
		Instructions: r.opts.Instructions,
		History:      inv.History,
		ForceJSON:    true,
	}

	resp, err := generate(inv, r.llm, req, false)
	if err != nil {
		return nil, err
	}

	var v ReflectVerdict
	if err := json.Unmarshal([]byte(resp.Text), &v); err != nil {
		inv.LogWarn("reflect returned malformed verdict, accepting draft", "error", err.Error())
		return core.StructuredOutcome{Data: ReflectVerdict{Redo: false, Reason: "verdict unparseable"}}, nil
	}

	return core.StructuredOutcome{Data: v}, nil
}
