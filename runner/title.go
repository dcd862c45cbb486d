package runner

import (
	"context"
	"strings"
	"unicode"

	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/model"
)

const titleMaxLen = 60

const titleInstructions = `Write a short conversation title (at most six words) for the user's
first message. Plain text only, no quotes, no trailing punctuation.`

// GenerateTitle produces a short thread title from the first user message.
// Without a title model, or when the model fails or returns something
// unusable, it falls back to a clamped prefix of the message itself.
func (r *Runner) GenerateTitle(ctx context.Context, firstMessage string) string {
	fallback := fallbackTitle(firstMessage)

	if r.titleModel == nil {
		return fallback
	}

	respCh, errCh := r.titleModel.Generate(ctx, model.Request{
		Instructions: titleInstructions,
		History:      core.Conversation{core.NewHumanTurn(firstMessage)},
	})

	title := ""
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return fallback
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !resp.Partial {
				title = resp.Text
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				r.logger.Warn("title generation failed, using fallback", "error", err.Error())
				return fallback
			}
		}
	}

	title = clampTitle(title)
	if title == "" {
		return fallback
	}

	return title
}

func fallbackTitle(message string) string {
	t := clampTitle(message)
	if t == "" {
		return "New conversation"
	}
	return t
}

// clampTitle normalizes whitespace, strips wrapping quotes and trailing
// punctuation, and cuts at a word boundary within the length limit.
func clampTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, `"'`)
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) && r != ')' && r != '?'
	})

	if len(s) <= titleMaxLen {
		return s
	}

	cut := s[:titleMaxLen]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}

	return cut + "…"
}
