package agents_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
	"github.com/bkyoung/phototriage/internal/usecase/agents"
)

func TestAestheticSpecParse(t *testing.T) {
	spec := agents.NewAestheticSpec()

	payload, err := spec.Parse("```json\n" +
		`{"composition": 4, "framing": 5, "lighting": 4, "subject_interest": 4, "notes": "strong golden hour light"}` +
		"\n```")
	require.NoError(t, err)

	a, ok := payload.(domain.AestheticAssessment)
	require.True(t, ok)
	assert.Equal(t, 4, a.Composition)
	assert.Equal(t, 5, a.Framing)
	assert.Equal(t, 4, a.Lighting)
	assert.Equal(t, 4, a.SubjectInterest)
	// 4*0.30 + 5*0.25 + 4*0.25 + 4*0.20 = 4.25, rounds to 4
	assert.Equal(t, 4, a.OverallAesthetic)
	assert.Equal(t, "strong golden hour light", a.Notes)
	assert.False(t, a.Failed)
}

func TestAestheticSpecParseClampsAndDefaults(t *testing.T) {
	spec := agents.NewAestheticSpec()

	payload, err := spec.Parse(`{"composition": 9, "framing": -2, "lighting": 3}`)
	require.NoError(t, err)

	a := payload.(domain.AestheticAssessment)
	assert.Equal(t, 5, a.Composition, "clamped down")
	assert.Equal(t, 1, a.Framing, "clamped up")
	assert.Equal(t, 3, a.Lighting)
	assert.Equal(t, 3, a.SubjectInterest, "missing score defaults to neutral")
}

func TestAestheticSpecParseRejectsProse(t *testing.T) {
	spec := agents.NewAestheticSpec()

	_, err := spec.Parse("This is a lovely photograph with great composition.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing aesthetic scores")
}

func TestAestheticSpecPromptIncludesMetadata(t *testing.T) {
	spec := agents.NewAestheticSpec()

	up := &agent.Upstream{
		Metadata: map[string]domain.Metadata{
			"p1": {
				ImageID:         "p1",
				CaptureDatetime: "2025-06-14T18:30:00Z",
				GPS:             &domain.GPSInfo{Latitude: 36.4618, Longitude: 25.3753},
				CameraSettings: domain.CameraSettings{
					CameraModel: "X100V",
					ISO:         200,
					Aperture:    "f/8.0",
					FocalLength: "23mm",
				},
			},
		},
	}

	prompt := spec.Prompt(item("p1", "/photos/p1.jpg", nil), up)
	assert.Contains(t, prompt, "2025-06-14T18:30:00Z")
	assert.Contains(t, prompt, "X100V")
	assert.Contains(t, prompt, "f/8.0")
	assert.Contains(t, prompt, `"composition": <1-5>`)
}

func TestAestheticSpecPromptWithoutMetadata(t *testing.T) {
	spec := agents.NewAestheticSpec()

	prompt := spec.Prompt(item("p1", "/photos/p1.jpg", nil), nil)
	assert.Contains(t, prompt, "Capture time: unknown")
}

func TestAestheticSpecPlaceholder(t *testing.T) {
	spec := agents.NewAestheticSpec()

	p := spec.Placeholder("model unavailable").(domain.AestheticAssessment)
	assert.True(t, p.Failed)
	assert.Equal(t, 3, p.OverallAesthetic)
	assert.Equal(t, "model unavailable", p.Notes)
}

func TestAestheticSpecDecodeRoundTrip(t *testing.T) {
	spec := agents.NewAestheticSpec()

	original := domain.AestheticAssessment{
		ImageID: "p1", Composition: 4, Framing: 4, Lighting: 5,
		SubjectInterest: 3, OverallAesthetic: 4, Notes: "cached",
	}
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	revived, err := spec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, original, revived)
}
