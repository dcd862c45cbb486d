package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/model"
)

const retrievalInstructions = `You are a travel assistant answering strictly from the provided
reference passages. Cite what the passages say; when they do not cover the question, say so
instead of guessing.`

// RetrievalOptions configures a Retrieval agent.
type RetrievalOptions struct {
	Instructions string
	Limit        int // passages fetched per query
}

// Retrieval answers from the vector retrieval capability: it fetches
// passages for the latest human turn, then streams a grounded model answer.
type Retrieval struct {
	llm       model.Model
	retriever core.Retriever
	opts      RetrievalOptions
}

// NewRetrieval constructs a retrieval agent.
func NewRetrieval(llm model.Model, retriever core.Retriever, optFns ...func(o *RetrievalOptions)) *Retrieval {
	opts := RetrievalOptions{Instructions: retrievalInstructions, Limit: 4}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Retrieval{llm: llm, retriever: retriever, opts: opts}
}

// Name implements Agent.
func (r *Retrieval) Name() string { return "retrieval" }

// Invoke implements Agent.
func (r *Retrieval) Invoke(inv *core.Invocation) (core.Outcome, error) {
	query := lastHumanContent(inv.History)

	passages, err := r.retriever.Retrieve(inv.Context, query, r.opts.Limit)
	if err != nil {
		return nil, core.NewUpstreamError("retrieval", err)
	}
	inv.LogDebug("retrieval fetched passages", "query", query, "count", len(passages))

	req := model.Request{
		Instructions: r.opts.Instructions + "\n\nReference passages:\n" + renderPassages(passages),
		History:      inv.History,
		Stream:       true,
	}

	resp, err := generate(inv, r.llm, req, true)
	if err != nil {
		return nil, err
	}

	if err := inv.Emit(core.NewNodeCompleteEvent(r.Name(), map[string]any{
		"query":    query,
		"passages": len(passages),
	})); err != nil {
		return nil, err
	}

	return core.TextOutcome{Text: resp.Text}, nil
}

func renderPassages(passages []core.Passage) string {
	if len(passages) == 0 {
		return "(no passages matched)"
	}
	var b strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(p.Content))
	}
	return b.String()
}
