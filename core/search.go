package core

import "context"

// Snippet is one ranked result returned by the web search capability.
type Snippet struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// SearchOutput bundles ranked snippets with the capability's self-reported
// confidence in [0,1]. Low confidence lets the search agent retry once with
// a reformulated query.
type SearchOutput struct {
	Query      string
	Snippets   []Snippet
	Confidence float64
}

// WebSearcher is the boundary to the external web search capability.
// Implementations must respect context cancellation.
type WebSearcher interface {
	Search(ctx context.Context, query string) (SearchOutput, error)
}

// Passage is one retrieved chunk from the vector retrieval capability.
type Passage struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

// Retriever is the boundary to the external vector-store retrieval
// capability used for grounded question answering.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]Passage, error)
}
