package websearch

import (
	"context"
	"strings"
	"sync"

	"github.com/hupe1980/tripmesh/core"
)

// StaticSearcher serves canned results keyed on query substrings. Queries
// with no matching fixture return an empty result set with zero confidence,
// which exercises the caller's low-confidence retry path. Suitable for tests
// and demos.
type StaticSearcher struct {
	mu       sync.RWMutex
	fixtures map[string]core.SearchOutput
}

// NewStaticSearcher creates an empty fixture searcher.
func NewStaticSearcher() *StaticSearcher {
	return &StaticSearcher{fixtures: make(map[string]core.SearchOutput)}
}

// AddFixture registers results served for any query containing match
// (case-insensitive).
func (s *StaticSearcher) AddFixture(match string, confidence float64, snippets ...core.Snippet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures[strings.ToLower(match)] = core.SearchOutput{
		Snippets:   snippets,
		Confidence: confidence,
	}
}

// Search implements core.WebSearcher.
func (s *StaticSearcher) Search(ctx context.Context, query string) (core.SearchOutput, error) {
	if err := ctx.Err(); err != nil {
		return core.SearchOutput{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(query)
	for match, out := range s.fixtures {
		if strings.Contains(lowered, match) {
			out.Query = query
			return out, nil
		}
	}

	return core.SearchOutput{Query: query, Confidence: 0}, nil
}
