package agents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
	"github.com/bkyoung/phototriage/internal/usecase/agents"
)

func TestFilteringAgentPassesGoodImage(t *testing.T) {
	a := agents.NewFilteringAgent(agents.DefaultFilterThresholds())

	up := &agent.Upstream{
		Metadata: map[string]domain.Metadata{
			"beach-1": {
				ImageID:         "beach-1",
				CaptureDatetime: "2025-06-14T18:30:00Z",
				GPS:             &domain.GPSInfo{Latitude: 36.4618, Longitude: 25.3753},
			},
		},
		Quality: map[string]domain.QualityAssessment{
			"beach-1": {ImageID: "beach-1", QualityScore: 4},
		},
		Aesthetic: map[string]domain.AestheticAssessment{
			"beach-1": {ImageID: "beach-1", OverallAesthetic: 5},
		},
	}

	out, summary := a.Run(context.Background(), []agent.Item{
		item("beach-1", "/photos/beach_sunset.jpg", nil),
	}, up)

	require.Contains(t, out, "beach-1")
	d := out["beach-1"]
	assert.True(t, d.PassesFilter)
	assert.False(t, d.Flagged)
	assert.Equal(t, "Landscape", d.Category)
	assert.Contains(t, d.Subcategories, "beach")
	assert.Equal(t, "Golden Hour", d.TimeCategory)
	assert.Equal(t, "(36.4618, 25.3753)", d.Location)

	assert.Equal(t, domain.StatusSuccess, summary.Status)
	assert.Equal(t, "filtering", summary.Agent)
	assert.Equal(t, "classification", summary.Stage)
}

func TestFilteringAgentFlagsBelowThresholds(t *testing.T) {
	a := agents.NewFilteringAgent(agents.FilterThresholds{MinTechnicalScore: 3, MinAestheticScore: 3})

	up := &agent.Upstream{
		Quality: map[string]domain.QualityAssessment{
			"blurry": {ImageID: "blurry", QualityScore: 2},
		},
		Aesthetic: map[string]domain.AestheticAssessment{
			"blurry": {ImageID: "blurry", OverallAesthetic: 2},
		},
	}

	out, summary := a.Run(context.Background(), []agent.Item{
		item("blurry", "/photos/mountain_view.jpg", nil),
	}, up)

	d := out["blurry"]
	assert.False(t, d.PassesFilter)
	assert.True(t, d.Flagged)
	assert.Contains(t, d.Flags, "low_quality")
	assert.Contains(t, d.Flags, "low_aesthetic")
	assert.Contains(t, d.Flags, "missing_gps")
	assert.Contains(t, d.Flags, "missing_datetime")

	assert.Equal(t, domain.StatusError, summary.Status, "single image, flagged")
}

func TestFilteringAgentTimeCategories(t *testing.T) {
	tests := []struct {
		name     string
		datetime string
		want     string
	}{
		{"sunrise", "2025-06-14T05:30:00Z", "Sunrise"},
		{"morning", "2025-06-14T08:00:00Z", "Morning"},
		{"daytime", "2025-06-14T13:00:00Z", "Daytime"},
		{"golden hour", "2025-06-14T17:45:00Z", "Golden Hour"},
		{"sunset", "2025-06-14T19:20:00Z", "Sunset"},
		{"late night", "2025-06-14T22:00:00Z", "Night"},
		{"early night", "2025-06-14T03:00:00Z", "Night"},
		{"missing", "", "Unknown"},
		{"unparseable", "yesterday", "Unknown"},
	}

	a := agents.NewFilteringAgent(agents.DefaultFilterThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &agent.Upstream{
				Metadata: map[string]domain.Metadata{
					"p": {ImageID: "p", CaptureDatetime: tt.datetime},
				},
			}
			out, _ := a.Run(context.Background(), []agent.Item{item("p", "/photos/p.jpg", nil)}, up)
			assert.Equal(t, tt.want, out["p"].TimeCategory)
		})
	}
}

func TestFilteringAgentUncategorized(t *testing.T) {
	a := agents.NewFilteringAgent(agents.DefaultFilterThresholds())

	up := &agent.Upstream{
		Quality:   map[string]domain.QualityAssessment{"x": {QualityScore: 4}},
		Aesthetic: map[string]domain.AestheticAssessment{"x": {OverallAesthetic: 4}},
	}

	out, _ := a.Run(context.Background(), []agent.Item{
		item("x", "/photos/IMG_4281.jpg", nil),
	}, up)

	d := out["x"]
	assert.Equal(t, "Uncategorized", d.Category)
	assert.Contains(t, d.Flags, "uncategorized")
	assert.True(t, d.PassesFilter, "thresholds still pass; categorisation is advisory")
}
