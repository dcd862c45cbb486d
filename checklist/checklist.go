// Package checklist defines the structured payload produced by the
// background generation pipeline: the generated checklist schema, metadata
// extracted in the second stage, enum normalization and due date
// computation. A checklist is immutable once finalized.
package checklist

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/tripmesh/core"
)

// Status values of a checklist payload as seen by consumers.
const (
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
)

// Stay type values after normalization.
const (
	StayShortTerm  = "shortTerm"
	StayMediumTerm = "mediumTerm"
	StayLongTerm   = "longTerm"
)

// Importance values after normalization.
const (
	ImportanceHigh   = "high"
	ImportanceMedium = "medium"
	ImportanceLow    = "low"
)

// GeneratedItem is one checklist entry as emitted by the generation stage.
// DueDays is relative; the extraction stage converts it to a concrete date.
type GeneratedItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Importance  string `json:"importance,omitempty"`
	DueDays     int    `json:"due_days,omitempty"`
	Category    string `json:"category,omitempty"`
	Order       int    `json:"order"`
}

// Generated is the raw structured output of the generation stage, prior to
// metadata enrichment.
type Generated struct {
	Title       string          `json:"title"`
	Summary     string          `json:"summary,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Duration    string          `json:"duration,omitempty"`
	StayType    string          `json:"stay_type,omitempty"`
	CityCode    string          `json:"city_code,omitempty"`
	Items       []GeneratedItem `json:"items"`
}

// Metadata is the structured output of the extraction stage.
type Metadata struct {
	Destination string `json:"destination,omitempty"`
	Duration    string `json:"duration,omitempty"`
	StayType    string `json:"stay_type,omitempty"`
	CityCode    string `json:"city_code,omitempty"`
}

// Item is a finalized checklist entry with a computed due date.
type Item struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Importance  string `json:"importance"`
	DueDate     string `json:"dueDate"` // ISO date
	Category    string `json:"category"`
	Order       int    `json:"order"`
	IsComplete  bool   `json:"isComplete"`
}

// Checklist is the finalized payload delivered on task-result events and
// returned by the result store. Immutable once built.
type Checklist struct {
	ID             string `json:"checklistId"`
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	Destination    string `json:"destination"`
	Duration       string `json:"duration"`
	StayType       string `json:"stayType"`
	CityCode       string `json:"cityCode"`
	Status         string `json:"status"`
	Items          []Item `json:"items"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// ParseGenerated decodes and validates a generation-stage payload. A payload
// that does not satisfy the schema fails with *core.SchemaError capturing
// the offending input.
func ParseGenerated(raw []byte) (*Generated, error) {
	var g Generated
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, &core.SchemaError{Reason: "checklist payload is not valid JSON: " + err.Error(), Payload: truncate(string(raw), 512)}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate enforces the generation schema: a non-empty title and at least
// one item, each with a title.
func (g *Generated) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return &core.SchemaError{Reason: "checklist title is empty", Payload: g.payload()}
	}
	if len(g.Items) == 0 {
		return &core.SchemaError{Reason: "checklist has no items", Payload: g.payload()}
	}
	for _, item := range g.Items {
		if strings.TrimSpace(item.Title) == "" {
			return &core.SchemaError{Reason: "checklist item has an empty title", Payload: g.payload()}
		}
	}
	return nil
}

func (g *Generated) payload() string {
	b, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	return truncate(string(b), 512)
}

// NormalizeImportance maps free-form importance labels onto the closed
// high/medium/low set; unknown values default to medium.
func NormalizeImportance(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "urgent", "high":
		return ImportanceHigh
	case "medium":
		return ImportanceMedium
	case "low":
		return ImportanceLow
	default:
		return ImportanceMedium
	}
}

// NormalizeStayType maps free-form stay labels onto the closed
// shortTerm/mediumTerm/longTerm set; unknown values default to longTerm.
func NormalizeStayType(v string) string {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(v), "-", "")) {
	case "shortterm":
		return StayShortTerm
	case "mediumterm":
		return StayMediumTerm
	default:
		return StayLongTerm
	}
}

// Build finalizes a checklist from the generation output and extraction
// metadata. Due dates are computed as now + DueDays per item; negative
// DueDays clamp to today. The id should be the stable id announced on the
// pending placeholder so consumers can correlate the final payload.
func Build(id, conversationID string, g *Generated, md *Metadata, now time.Time) *Checklist {
	if id == "" {
		id = core.NewID()
	}
	nowISO := now.UTC().Format(time.RFC3339)

	items := make([]Item, 0, len(g.Items))
	for idx, it := range g.Items {
		days := it.DueDays
		if days < 0 {
			days = 0
		}
		order := it.Order
		if order == 0 {
			order = idx
		}
		category := strings.TrimSpace(it.Category)
		if category == "" {
			category = "General"
		}
		items = append(items, Item{
			Title:       strings.TrimSpace(it.Title),
			Description: strings.TrimSpace(it.Description),
			Importance:  NormalizeImportance(it.Importance),
			DueDate:     now.UTC().AddDate(0, 0, days).Format("2006-01-02"),
			Category:    category,
			Order:       order,
		})
	}

	c := &Checklist{
		ID:             id,
		ConversationID: conversationID,
		Title:          strings.TrimSpace(g.Title),
		Summary:        strings.TrimSpace(g.Summary),
		Destination:    strings.TrimSpace(g.Destination),
		Duration:       strings.TrimSpace(g.Duration),
		StayType:       NormalizeStayType(g.StayType),
		CityCode:       g.CityCode,
		Status:         StatusCompleted,
		Items:          items,
		CreatedAt:      nowISO,
		UpdatedAt:      nowISO,
	}
	if c.CityCode == "" {
		c.CityCode = "unknown"
	}

	// Extraction metadata wins over whatever the generation stage guessed.
	if md != nil {
		if md.Destination != "" {
			c.Destination = md.Destination
		}
		if md.Duration != "" {
			c.Duration = md.Duration
		}
		if md.StayType != "" {
			c.StayType = NormalizeStayType(md.StayType)
		}
		if md.CityCode != "" {
			c.CityCode = md.CityCode
		}
	}

	return c
}

// PendingBanner creates a lightweight placeholder payload for an in-progress
// generation. The stable id is reused by the final checklist so consumers
// can update rather than duplicate it.
func PendingBanner(conversationID, taskID, stableID string, now time.Time) *Checklist {
	if stableID == "" {
		stableID = core.NewID()
	}
	nowISO := now.UTC().Format(time.RFC3339)
	return &Checklist{
		ID:             stableID,
		ConversationID: conversationID,
		Title:          "Generating your checklist",
		Summary:        "Hang tight while we prepare your personalized checklist.",
		Destination:    "TBD",
		Duration:       "TBD",
		StayType:       StayMediumTerm,
		CityCode:       "default",
		Status:         StatusGenerating,
		Items:          []Item{},
		CreatedAt:      nowISO,
		UpdatedAt:      nowISO,
	}
}

// StableID derives a deterministic checklist id from a task id, so the
// pending placeholder and the final payload share the same id and consumers
// update in place instead of duplicating.
func StableID(taskID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("checklist:"+taskID)).String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
