// Package router drives one conversation turn through the agent graph:
// judge → target node → optional summarize/reflect passes → done. The router
// owns the step ceiling and the redo budget; agents own their node behavior.
package router

import (
	"fmt"
	"time"

	"github.com/hupe1980/tripmesh/agent"
	"github.com/hupe1980/tripmesh/core"
)

// Config is the immutable per-engine routing configuration. Construct one
// explicitly and share it read-only; there is no global graph state.
type Config struct {
	// MaxSteps caps node executions per turn.
	MaxSteps int
	// ConfidenceThreshold below which the search agent retries once.
	ConfidenceThreshold float64
	// MaxRedos caps reflect-triggered redos per turn.
	MaxRedos int
	// EnableReflect turns on the quality pass over text replies.
	EnableReflect bool
	// EnableSummarize additionally condenses retrieval output. Search output
	// is always summarized.
	EnableSummarize bool
}

// DefaultConfig returns the standard routing configuration.
func DefaultConfig() Config {
	return Config{
		MaxSteps:            50,
		ConfidenceThreshold: 0.5,
		MaxRedos:            1,
	}
}

// Agents is the node set a router dispatches to. Judge and Chatbot are
// mandatory; the rest are required only when their target or flag is in play.
type Agents struct {
	Judge     agent.Agent
	Chatbot   agent.Agent
	Retrieval agent.Agent
	Search    agent.Agent
	Summarize agent.Agent
	Reflect   agent.Agent
}

// Router executes turns against a fixed agent set.
type Router struct {
	cfg    Config
	agents Agents
}

// New constructs a router.
func New(cfg Config, agents Agents) (*Router, error) {
	if agents.Judge == nil {
		return nil, fmt.Errorf("router requires a judge agent")
	}
	if agents.Chatbot == nil {
		return nil, fmt.Errorf("router requires a chatbot agent")
	}
	return &Router{cfg: cfg, agents: agents}, nil
}

// Config returns the routing configuration.
func (r *Router) Config() Config { return r.cfg }

// RunTurn routes one turn and returns its terminal outcome. Streaming events
// are emitted through the invocation sink along the way; any node error is
// returned as-is for the caller to convert into the terminal error event
// (already-streamed deltas stand).
func (r *Router) RunTurn(inv *core.Invocation) (core.Outcome, error) {
	run := *inv
	run.Limiter = core.NewStepLimiter(r.cfg.MaxSteps)
	cur := &run

	decision, err := r.judge(cur)
	if err != nil {
		return nil, err
	}

	if err := cur.Emit(core.NewNodeCompleteEvent(r.agents.Judge.Name(), decision)); err != nil {
		return nil, err
	}

	var out core.Outcome
	for redo := 0; ; redo++ {
		out, err = r.dispatch(cur, decision)
		if err != nil {
			return nil, err
		}

		// Tool calls bypass reflect: the runner hands them to the
		// background pipeline immediately.
		if _, ok := out.(core.ToolCallOutcome); ok {
			return out, nil
		}

		text, ok := out.(core.TextOutcome)
		if !ok || !r.cfg.EnableReflect || r.agents.Reflect == nil || redo >= r.cfg.MaxRedos {
			return out, nil
		}

		verdict, err := r.reflect(cur, text.Text)
		if err != nil {
			return nil, err
		}
		if !verdict.Redo {
			return out, nil
		}
		cur.LogInfo("reflect requested redo", "reason", verdict.Reason, "redo", redo+1)
	}
}

// judge runs the judge node and unwraps its decision.
func (r *Router) judge(inv *core.Invocation) (core.RoutingDecision, error) {
	out, err := r.invokeNode(inv, r.agents.Judge)
	if err != nil {
		return core.RoutingDecision{}, err
	}
	structured, ok := out.(core.StructuredOutcome)
	if !ok {
		return core.RoutingDecision{}, fmt.Errorf("judge produced %T, want StructuredOutcome", out)
	}
	decision, ok := structured.Data.(core.RoutingDecision)
	if !ok {
		return core.RoutingDecision{}, fmt.Errorf("judge produced %T, want RoutingDecision", structured.Data)
	}
	return decision, nil
}

// dispatch executes the decided target node (plus the summarize hop where it
// applies) and returns the resulting outcome.
func (r *Router) dispatch(inv *core.Invocation, decision core.RoutingDecision) (core.Outcome, error) {
	switch decision.Target {
	case core.TargetChatbot, core.TargetDone:
		return r.invokeNode(inv, r.agents.Chatbot)

	case core.TargetRetrieval:
		if r.agents.Retrieval == nil {
			return r.invokeNode(inv, r.agents.Chatbot)
		}
		out, err := r.invokeNode(inv, r.agents.Retrieval)
		if err != nil {
			return nil, err
		}
		if text, ok := out.(core.TextOutcome); ok && r.cfg.EnableSummarize && r.agents.Summarize != nil {
			return r.summarize(inv, text.Text)
		}
		return out, nil

	case core.TargetSearch:
		if r.agents.Search == nil || r.agents.Summarize == nil {
			return r.invokeNode(inv, r.agents.Chatbot)
		}
		out, err := r.invokeNode(inv, r.agents.Search)
		if err != nil {
			return nil, err
		}
		structured, ok := out.(core.StructuredOutcome)
		if !ok {
			return nil, fmt.Errorf("search produced %T, want StructuredOutcome", out)
		}
		searchOut, ok := structured.Data.(core.SearchOutput)
		if !ok {
			return nil, fmt.Errorf("search produced %T, want SearchOutput", structured.Data)
		}
		return r.summarize(inv, agent.RenderSearchNotes(searchOut))

	default:
		return nil, fmt.Errorf("judge decided unknown target %q", decision.Target)
	}
}

// summarize runs the summarize node over the history extended with the
// upstream notes as a tool turn.
func (r *Router) summarize(inv *core.Invocation, notes string) (core.Outcome, error) {
	extended := inv.WithHistory(inv.History.Append(core.NewToolTurn(notes)))
	return r.invokeNode(extended, r.agents.Summarize)
}

// reflect runs the reflect node over the history extended with the draft
// reply and unwraps its verdict.
func (r *Router) reflect(inv *core.Invocation, draft string) (agent.ReflectVerdict, error) {
	extended := inv.WithHistory(inv.History.Append(core.NewAssistantTurn(draft)))
	out, err := r.invokeNode(extended, r.agents.Reflect)
	if err != nil {
		return agent.ReflectVerdict{}, err
	}
	structured, ok := out.(core.StructuredOutcome)
	if !ok {
		return agent.ReflectVerdict{}, fmt.Errorf("reflect produced %T, want StructuredOutcome", out)
	}
	verdict, ok := structured.Data.(agent.ReflectVerdict)
	if !ok {
		return agent.ReflectVerdict{}, fmt.Errorf("reflect produced %T, want ReflectVerdict", structured.Data)
	}
	return verdict, nil
}

// invokeNode charges the step limiter and runs one agent.
func (r *Router) invokeNode(inv *core.Invocation, a agent.Agent) (core.Outcome, error) {
	if err := inv.Limiter.Increment(); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := a.Invoke(inv)
	if err != nil {
		inv.LogError("node failed", "node", a.Name(), "step", inv.Limiter.Count(), "duration", time.Since(start).String(), "error", err.Error())
		return nil, fmt.Errorf("node %s: %w", a.Name(), err)
	}
	inv.LogDebug("node completed", "node", a.Name(), "step", inv.Limiter.Count(), "duration", time.Since(start).String())

	return out, nil
}
