package checklist

import (
	"testing"
	"time"

	"github.com/hupe1980/tripmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenerated_Valid(t *testing.T) {
	raw := []byte(`{
		"title": "Tokyo Trip",
		"summary": "5 days in Tokyo",
		"destination": "Tokyo",
		"duration": "5 days",
		"stay_type": "short-term",
		"items": [
			{"title": "Book flights", "importance": "urgent", "due_days": 3, "order": 0},
			{"title": "Get yen", "importance": "low", "due_days": 1, "category": "Money", "order": 1}
		]
	}`)

	g, err := ParseGenerated(raw)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo Trip", g.Title)
	assert.Len(t, g.Items, 2)
}

func TestParseGenerated_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `checklist: sure, here you go!`},
		{"missing title", `{"items": [{"title": "a"}]}`},
		{"no items", `{"title": "Trip", "items": []}`},
		{"item without title", `{"title": "Trip", "items": [{"description": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGenerated([]byte(tt.raw))
			require.Error(t, err)
			var se *core.SchemaError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestNormalizeImportance(t *testing.T) {
	assert.Equal(t, ImportanceHigh, NormalizeImportance("urgent"))
	assert.Equal(t, ImportanceHigh, NormalizeImportance("High"))
	assert.Equal(t, ImportanceMedium, NormalizeImportance("medium"))
	assert.Equal(t, ImportanceLow, NormalizeImportance(" low "))
	assert.Equal(t, ImportanceMedium, NormalizeImportance("whatever"))
	assert.Equal(t, ImportanceMedium, NormalizeImportance(""))
}

func TestNormalizeStayType(t *testing.T) {
	assert.Equal(t, StayShortTerm, NormalizeStayType("short-term"))
	assert.Equal(t, StayShortTerm, NormalizeStayType("shortTerm"))
	assert.Equal(t, StayMediumTerm, NormalizeStayType("Medium-Term"))
	assert.Equal(t, StayLongTerm, NormalizeStayType("long-term"))
	assert.Equal(t, StayLongTerm, NormalizeStayType("permanent"))
}

func TestBuild_DueDatesAndDefaults(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	g := &Generated{
		Title: "Trip",
		Items: []GeneratedItem{
			{Title: "Soon", DueDays: 2},
			{Title: "Past", DueDays: -5},
			{Title: "Uncategorized"},
		},
	}

	c := Build("chk-1", "conv-1", g, nil, now)
	require.Len(t, c.Items, 3)
	assert.Equal(t, "2026-09-02", c.Items[0].DueDate)
	assert.Equal(t, "2026-08-31", c.Items[1].DueDate, "negative due days clamp to today")
	assert.Equal(t, "General", c.Items[2].Category)
	assert.Equal(t, 2, c.Items[2].Order, "order defaults to position")
	assert.Equal(t, StatusCompleted, c.Status)
	assert.Equal(t, "unknown", c.CityCode)
	assert.Equal(t, StayLongTerm, c.StayType)
}

func TestBuild_MetadataOverrides(t *testing.T) {
	now := time.Now()
	g := &Generated{
		Title:       "Trip",
		Destination: "guessed",
		Items:       []GeneratedItem{{Title: "a"}},
	}
	md := &Metadata{Destination: "Kyoto", Duration: "3 days", StayType: "short-term", CityCode: "KIX"}

	c := Build("", "conv-1", g, md, now)
	assert.Equal(t, "Kyoto", c.Destination)
	assert.Equal(t, "3 days", c.Duration)
	assert.Equal(t, StayShortTerm, c.StayType)
	assert.Equal(t, "KIX", c.CityCode)
	assert.NotEmpty(t, c.ID, "empty id gets generated")
}

func TestPendingBanner_UsesStableID(t *testing.T) {
	stable := StableID("task-1")
	banner := PendingBanner("conv-1", "task-1", stable, time.Now())
	assert.Equal(t, stable, banner.ID)
	assert.Equal(t, StatusGenerating, banner.Status)
	assert.NotNil(t, banner.Items)
	assert.Empty(t, banner.Items)
}

func TestStableID_Deterministic(t *testing.T) {
	assert.Equal(t, StableID("task-1"), StableID("task-1"))
	assert.NotEqual(t, StableID("task-1"), StableID("task-2"))
}
