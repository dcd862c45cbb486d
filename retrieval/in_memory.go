// Package retrieval provides core.Retriever implementations for grounded
// question answering.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/tripmesh/core"
)

// InMemoryRetriever is a naive process-local document index. It offers
// append-only documents with token-overlap Search, protected by RWMutex.
// Matching is a linear scan scoring by the fraction of query tokens found in
// the passage. Suitable for tests and demos; swap for a vector store for
// production retrieval.
type InMemoryRetriever struct {
	mu   sync.RWMutex
	docs []core.Passage
}

// NewInMemoryRetriever creates an empty retriever.
func NewInMemoryRetriever() *InMemoryRetriever {
	return &InMemoryRetriever{}
}

// Add indexes a document, generating a simple incremental id.
func (r *InMemoryRetriever) Add(content string, metadata map[string]any) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := fmt.Sprintf("doc_%d", len(r.docs))
	r.docs = append(r.docs, core.Passage{ID: id, Content: content, Metadata: metadata})

	return id
}

// Retrieve implements core.Retriever: passages ranked by query token
// overlap, zero-score passages excluded.
func (r *InMemoryRetriever) Retrieve(ctx context.Context, query string, limit int) ([]core.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 4
	}

	tokens := strings.Fields(strings.ToLower(query))

	r.mu.RLock()
	defer r.mu.RUnlock()

	scored := make([]core.Passage, 0, len(r.docs))
	for _, doc := range r.docs {
		if score := overlap(tokens, strings.ToLower(doc.Content)); score > 0 {
			d := doc
			d.Score = score
			scored = append(scored, d)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

func overlap(tokens []string, content string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(content, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
