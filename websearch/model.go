package websearch

import (
	"context"
	"fmt"

	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/model"
)

const searcherInstructions = `You are a web research assistant. Report the most relevant, current
facts you know about the query as short bullet points. Finish with a line
"CONFIDENCE_SCORE: 0.x" rating how confident you are that the facts are accurate and current.`

// ModelSearcher answers search queries through a model with browsing or
// fresh knowledge, parsing the self-reported confidence marker from its
// output. The stripped findings are returned as a single snippet.
type ModelSearcher struct {
	llm model.Model
}

// NewModelSearcher wraps a model as a core.WebSearcher.
func NewModelSearcher(llm model.Model) *ModelSearcher {
	return &ModelSearcher{llm: llm}
}

// Search implements core.WebSearcher.
func (s *ModelSearcher) Search(ctx context.Context, query string) (core.SearchOutput, error) {
	respCh, errCh := s.llm.Generate(ctx, model.Request{
		Instructions: searcherInstructions,
		History:      core.Conversation{core.NewHumanTurn(query)},
	})

	var final *model.Response
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return core.SearchOutput{}, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !resp.Partial {
				r := resp
				final = &r
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return core.SearchOutput{}, err
			}
		}
	}

	if final == nil {
		return core.SearchOutput{}, fmt.Errorf("search model ended without a final response")
	}

	confidence := ParseConfidence(final.Text)
	content := StripConfidence(final.Text)

	out := core.SearchOutput{Query: query, Confidence: confidence}
	if content != "" {
		out.Snippets = []core.Snippet{{
			Title:   "Model research notes",
			Content: content,
			Score:   confidence,
		}}
	}

	return out, nil
}
