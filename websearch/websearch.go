// Package websearch provides core.WebSearcher implementations plus the
// confidence parsing shared by model-backed searchers.
package websearch

import (
	"strconv"
	"strings"
)

// ConfidenceMarker prefixes the self-assessment line a model-backed searcher
// asks the model to append to its findings.
const ConfidenceMarker = "CONFIDENCE_SCORE:"

// DefaultConfidence is assumed when the marker is missing or unparseable.
// Optimistic on purpose: absent a self-assessment the result is used as-is.
const DefaultConfidence = 0.7

// ParseConfidence extracts the confidence value from model output containing
// a "CONFIDENCE_SCORE: 0.x" line. Values are clamped to [0,1].
func ParseConfidence(text string) float64 {
	idx := strings.LastIndex(text, ConfidenceMarker)
	if idx < 0 {
		return DefaultConfidence
	}

	rest := text[idx+len(ConfidenceMarker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return DefaultConfidence
	}

	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// StripConfidence removes the confidence line from model output so it never
// leaks into user-facing text.
func StripConfidence(text string) string {
	idx := strings.LastIndex(text, ConfidenceMarker)
	if idx < 0 {
		return text
	}

	rest := text[idx:]
	end := len(text)
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		end = idx + nl + 1
	}

	return strings.TrimSpace(text[:idx] + text[end:])
}
