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

func TestDuplicatesAgentGroupsIdenticalImages(t *testing.T) {
	a := agents.NewDuplicatesAgent(2, 10)
	gradient := encodePNG(t, horizontalGradient(64, 64))
	distinct := encodePNG(t, verticalGradient(64, 64))

	groups, summary := a.Run(context.Background(), []agent.Item{
		item("copy-1", "/photos/copy-1.png", gradient),
		item("copy-2", "/photos/copy-2.png", gradient),
		item("other", "/photos/other.png", distinct),
	}, nil)

	require.Len(t, groups, 1)
	g := groups[0]
	assert.ElementsMatch(t, []string{"copy-1", "copy-2"}, g.ImageIDs)
	assert.Equal(t, "duplicate", g.SimilarityType)
	assert.Equal(t, 0.0, g.SimilarityMetric)
	assert.NotContains(t, g.ImageIDs, "other")

	assert.Equal(t, domain.StatusSuccess, summary.Status)
	assert.Equal(t, "duplicates", summary.Agent)
	assert.Equal(t, "grouping", summary.Stage)
}

func TestDuplicatesAgentNoGroupsForDistinctImages(t *testing.T) {
	a := agents.NewDuplicatesAgent(2, 10)

	groups, _ := a.Run(context.Background(), []agent.Item{
		item("a", "/photos/a.png", encodePNG(t, horizontalGradient(64, 64))),
		item("b", "/photos/b.png", encodePNG(t, verticalGradient(64, 64))),
	}, nil)

	assert.Empty(t, groups)
}

func TestDuplicatesAgentBestImageByScores(t *testing.T) {
	a := agents.NewDuplicatesAgent(2, 10)
	gradient := encodePNG(t, horizontalGradient(64, 64))

	up := &agent.Upstream{
		Quality: map[string]domain.QualityAssessment{
			"copy-1": {ImageID: "copy-1", QualityScore: 3},
			"copy-2": {ImageID: "copy-2", QualityScore: 4},
		},
		Aesthetic: map[string]domain.AestheticAssessment{
			"copy-1": {ImageID: "copy-1", OverallAesthetic: 3},
			"copy-2": {ImageID: "copy-2", OverallAesthetic: 5},
		},
	}

	groups, _ := a.Run(context.Background(), []agent.Item{
		item("copy-1", "/photos/copy-1.png", gradient),
		item("copy-2", "/photos/copy-2.png", gradient),
	}, up)

	require.Len(t, groups, 1)
	assert.Equal(t, "copy-2", groups[0].BestImage)
}

func TestDuplicatesAgentResolutionBreaksTies(t *testing.T) {
	a := agents.NewDuplicatesAgent(2, 10)
	gradient := encodePNG(t, horizontalGradient(64, 64))

	up := &agent.Upstream{
		Metadata: map[string]domain.Metadata{
			"small": {ImageID: "small", Width: 640, Height: 480},
			"large": {ImageID: "large", Width: 4000, Height: 3000},
		},
	}

	groups, _ := a.Run(context.Background(), []agent.Item{
		item("small", "/photos/small.png", gradient),
		item("large", "/photos/large.png", gradient),
	}, up)

	require.Len(t, groups, 1)
	assert.Equal(t, "large", groups[0].BestImage)
}

func TestDuplicatesAgentUnhashableImageReported(t *testing.T) {
	a := agents.NewDuplicatesAgent(2, 10)

	groups, summary := a.Run(context.Background(), []agent.Item{
		item("broken", "/photos/broken.jpg", []byte("garbage")),
	}, nil)

	assert.Empty(t, groups)
	require.Len(t, summary.Issues, 1)
	assert.Contains(t, summary.Issues[0], "broken")
}
