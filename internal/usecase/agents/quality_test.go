package agents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/phototriage/internal/usecase/agent"
	"github.com/bkyoung/phototriage/internal/usecase/agents"
)

func TestQualityAgentFlatImage(t *testing.T) {
	a := agents.NewQualityAgent(2, agents.DefaultQualityThresholds())
	raw := encodePNG(t, flatImage(100, 80))

	out, summary := a.Run(context.Background(), []agent.Item{
		item("flat", "/photos/flat.png", raw),
	})

	require.Contains(t, out, "flat")
	q := out["flat"]

	// A uniform image has zero edge variance, zero clipping, zero noise.
	assert.Equal(t, 1, q.Sharpness, "no detail means minimum sharpness")
	assert.Equal(t, 5, q.Exposure, "no clipped pixels")
	assert.Equal(t, 5, q.Noise, "no noise")
	assert.Equal(t, 1, q.Resolution, "8000 pixels is far below 2MP")

	// 1*0.35 + 5*0.30 + 5*0.20 + 1*0.15 = 3.0
	assert.Equal(t, 3, q.QualityScore)

	assert.Contains(t, q.Issues, "motion_blur")
	assert.Contains(t, q.Issues, "low_resolution")
	assert.NotContains(t, q.Issues, "high_noise")
	assert.False(t, q.Failed)

	assert.Equal(t, "quality", summary.Agent)
	assert.Equal(t, "scoring", summary.Stage)
}

func TestQualityAgentUndecodableGetsNeutralPlaceholder(t *testing.T) {
	a := agents.NewQualityAgent(2, agents.DefaultQualityThresholds())

	out, summary := a.Run(context.Background(), []agent.Item{
		item("broken", "/photos/broken.jpg", []byte("garbage")),
	})

	require.Contains(t, out, "broken")
	q := out["broken"]
	assert.True(t, q.Failed)
	assert.Equal(t, 3, q.QualityScore)
	assert.Equal(t, []string{"processing_error"}, q.Issues)

	require.Len(t, summary.Issues, 1)
	assert.Contains(t, summary.Issues[0], "broken")
}

func TestQualityAgentSummaryAverages(t *testing.T) {
	a := agents.NewQualityAgent(2, agents.DefaultQualityThresholds())
	raw := encodePNG(t, flatImage(100, 80))

	_, summary := a.Run(context.Background(), []agent.Item{
		item("a", "/photos/a.png", raw),
		item("b", "/photos/b.png", raw),
	})

	assert.Contains(t, summary.Summary, "Assessed 2 images")
	assert.Contains(t, summary.Summary, "3.00/5")
}
