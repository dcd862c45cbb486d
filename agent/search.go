package agent

import (
	"github.com/hupe1980/tripmesh/core"
)

// SearchOptions configures a Search agent.
type SearchOptions struct {
	// ConfidenceThreshold below which the query is reformulated and retried
	// once. The better-scoring output wins.
	ConfidenceThreshold float64
}

// Search queries the web search capability for the routed query and returns
// the ranked snippets as StructuredOutcome(core.SearchOutput). Low-confidence
// results trigger a single reformulated retry.
type Search struct {
	searcher core.WebSearcher
	opts     SearchOptions
}

// NewSearch constructs a search agent.
func NewSearch(searcher core.WebSearcher, optFns ...func(o *SearchOptions)) *Search {
	opts := SearchOptions{ConfidenceThreshold: 0.5}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Search{searcher: searcher, opts: opts}
}

// Name implements Agent.
func (s *Search) Name() string { return "search" }

// Invoke implements Agent.
func (s *Search) Invoke(inv *core.Invocation) (core.Outcome, error) {
	query := lastHumanContent(inv.History)

	out, err := s.searcher.Search(inv.Context, query)
	if err != nil {
		return nil, core.NewUpstreamError("websearch", err)
	}

	if out.Confidence < s.opts.ConfidenceThreshold {
		retryQuery := ReformulateQuery(query)
		inv.LogInfo("search confidence below threshold, retrying",
			"confidence", out.Confidence, "retry_query", retryQuery)

		retried, err := s.searcher.Search(inv.Context, retryQuery)
		if err != nil {
			return nil, core.NewUpstreamError("websearch", err)
		}
		if retried.Confidence > out.Confidence {
			out = retried
		}
	}

	if err := inv.Emit(core.NewNodeCompleteEvent(s.Name(), map[string]any{
		"query":      out.Query,
		"snippets":   len(out.Snippets),
		"confidence": out.Confidence,
	})); err != nil {
		return nil, err
	}

	return core.StructuredOutcome{Data: out}, nil
}

// ReformulateQuery produces the single retry query used when the first pass
// scored below the confidence threshold. Deterministic so the retry is
// reproducible.
func ReformulateQuery(query string) string {
	return "detailed up-to-date information: " + query
}
