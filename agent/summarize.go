package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/model"
)

const summarizeInstructions = `You are a travel assistant. Using the collected research notes
below, write a clear and direct answer to the user's question. Keep it conversational and
skip any mention of the research process itself.`

// SummarizeOptions configures a Summarize agent.
type SummarizeOptions struct {
	Instructions string
}

// Summarize condenses upstream node output (typically web search snippets)
// into the user-facing reply, streaming deltas as it goes.
type Summarize struct {
	llm  model.Model
	opts SummarizeOptions
}

// NewSummarize constructs a summarize agent.
func NewSummarize(llm model.Model, optFns ...func(o *SummarizeOptions)) *Summarize {
	opts := SummarizeOptions{Instructions: summarizeInstructions}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Summarize{llm: llm, opts: opts}
}

// Name implements Agent.
func (s *Summarize) Name() string { return "summarize" }

// Invoke implements Agent. Upstream output is expected as a trailing tool
// turn appended by the router; the agent itself only needs the history.
func (s *Summarize) Invoke(inv *core.Invocation) (core.Outcome, error) {
	req := model.Request{
		Instructions: s.opts.Instructions,
		History:      inv.History,
		Stream:       true,
	}

	resp, err := generate(inv, s.llm, req, true)
	if err != nil {
		return nil, err
	}

	return core.TextOutcome{Text: resp.Text}, nil
}

// RenderSearchNotes serializes search output into the research-notes tool
// turn the router feeds to Summarize.
func RenderSearchNotes(out core.SearchOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for %q (confidence %.2f):\n", out.Query, out.Confidence)
	if len(out.Snippets) == 0 {
		b.WriteString("(no results)\n")
		return b.String()
	}
	for i, sn := range out.Snippets {
		fmt.Fprintf(&b, "[%d] %s\n%s\n", i+1, sn.Title, strings.TrimSpace(sn.Content))
		if sn.URL != "" {
			fmt.Fprintf(&b, "Source: %s\n", sn.URL)
		}
	}
	return b.String()
}
