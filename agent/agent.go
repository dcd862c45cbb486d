package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/model"
)

// Agent is the contract every routing node implements. Invoke runs one pass
// over the invocation's history and returns an Outcome; streaming agents
// additionally emit text-delta events through the invocation sink.
type Agent interface {
	Name() string
	Invoke(inv *core.Invocation) (core.Outcome, error)
}

// generate drives one model call, forwarding partial chunks as text-delta
// events when streamDeltas is set, and returns the final response. Model
// failures are wrapped as *core.UpstreamError so the router can map them to
// a terminal error event.
func generate(inv *core.Invocation, m model.Model, req model.Request, streamDeltas bool) (*model.Response, error) {
	respCh, errCh := m.Generate(inv.Context, req)

	var final *model.Response
	for respCh != nil || errCh != nil {
		select {
		case <-inv.Done():
			return nil, inv.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if streamDeltas && resp.Text != "" {
					if err := inv.Emit(core.NewTextDeltaEvent(resp.Text)); err != nil {
						return nil, err
					}
				}
				continue
			}
			r := resp
			final = &r
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, core.NewUpstreamError("model", err)
			}
		}
	}

	if final == nil {
		return nil, core.NewUpstreamError("model", fmt.Errorf("stream ended without a final response"))
	}

	return final, nil
}

// lastHumanContent returns the content of the most recent human turn, or the
// last turn's content when no human turn exists.
func lastHumanContent(history core.Conversation) string {
	if t, ok := history.LastHuman(); ok {
		return t.Content
	}
	if len(history) > 0 {
		return history[len(history)-1].Content
	}
	return ""
}

// containsAny reports whether s (lowercased) contains one of the markers.
func containsAny(s string, markers ...string) bool {
	s = strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
