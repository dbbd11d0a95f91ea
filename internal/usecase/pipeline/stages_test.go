package pipeline_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/phototriage/internal/adapter/cache"
	"github.com/bkyoung/phototriage/internal/adapter/vlm/static"
	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/accounting"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
	"github.com/bkyoung/phototriage/internal/usecase/agents"
	"github.com/bkyoung/phototriage/internal/usecase/pipeline"
)

func gradientPNG(t *testing.T, horizontal bool) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := x
			if !horizontal {
				v = y
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v * 4)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const aestheticAnswer = `{"composition": 4, "framing": 4, "lighting": 5, "subject_interest": 4, "notes": "strong leading lines"}`

const captionAnswer = `{
	"concise": "Waves rolling onto an empty beach at dawn",
	"standard": "Gentle waves roll onto an empty stretch of beach in the soft light of early morning, with no footprints yet disturbing the wet sand along the waterline.",
	"detailed": "In the first light of morning, gentle waves roll onto an empty stretch of beach. The wet sand reflects the pale sky, and the waterline curves away toward a distant headland. No footprints disturb the scene yet, giving the coastline a sense of stillness that belongs only to the hour just after dawn.",
	"keywords": ["beach", "dawn", "waves", "coastline"]
}`

func buildPipeline(t *testing.T, client agent.ModelClient) (*pipeline.Orchestrator, []agent.Item) {
	t.Helper()

	items := []agent.Item{
		{Photo: domain.Photo{ID: "img-1", Path: "/photos/beach_dawn.png"}, Raw: gradientPNG(t, true)},
		{Photo: domain.Photo{ID: "img-2", Path: "/photos/city_night.png"}, Raw: gradientPNG(t, false)},
	}

	store := cache.New(t.TempDir())
	aestheticLedger := accounting.NewLedger(accounting.DefaultRates)
	captionLedger := accounting.NewLedger(accounting.DefaultRates)

	aestheticRunner := agent.NewRunner(
		agents.NewAestheticSpec(), client, store, aestheticLedger, nil, agent.Options{})
	captionRunner := agent.NewRunner(
		agents.NewCaptionSpec(agents.CaptionOptions{UseConcisePrompt: true, SkipRejected: true}),
		client, store, captionLedger, nil, agent.Options{})

	stages := []pipeline.Stage{
		pipeline.NewMetadataStage(agents.NewMetadataAgent(2)),
		pipeline.NewQualityStage(agents.NewQualityAgent(2, agents.DefaultQualityThresholds())),
		pipeline.NewAestheticStage(aestheticRunner, aestheticLedger),
		pipeline.NewDuplicatesStage(agents.NewDuplicatesAgent(2, 10)),
		pipeline.NewFilteringStage(agents.NewFilteringAgent(agents.FilterThresholds{
			MinTechnicalScore: 1,
			MinAestheticScore: 1,
		})),
		pipeline.NewCaptionsStage(captionRunner, captionLedger),
	}

	return pipeline.New(stages, pipeline.Options{}, nil), items
}

func TestPipelineEndToEnd(t *testing.T) {
	client := static.NewClient("test-model").
		WithResponse("aesthetic assessment", aestheticAnswer).
		WithResponse("travel photo captions", captionAnswer)

	orch, items := buildPipeline(t, client)
	st := pipeline.NewState(items)

	started := time.Now()
	states, err := orch.Run(context.Background(), st)
	require.NoError(t, err)

	for _, name := range []string{
		pipeline.StageMetadata, pipeline.StageQuality, pipeline.StageAesthetic,
		pipeline.StageDuplicates, pipeline.StageFiltering, pipeline.StageCaptions,
	} {
		assert.Equal(t, pipeline.StageSucceeded, states[name], "stage %s", name)
	}

	report := pipeline.BuildReport(pipeline.NewRunID(started), st, states, started, time.Now())

	assert.Equal(t, 2, report.NumImages)
	require.Len(t, report.Results.Metadata, 2)
	assert.Equal(t, 64, report.Results.Metadata["img-1"].Width)

	require.Len(t, report.Results.Quality, 2)
	require.Len(t, report.Results.Aesthetic, 2)
	assert.Equal(t, 4, report.Results.Aesthetic["img-1"].OverallAesthetic)
	assert.Equal(t, "img-1", report.Results.Aesthetic["img-1"].ImageID)

	// Orthogonal gradients hash far apart, so nothing groups.
	assert.Empty(t, report.Results.Duplicates)

	require.Len(t, report.Results.Filters, 2)
	assert.Equal(t, "Landscape", report.Results.Filters["img-1"].Category)
	assert.Equal(t, "Urban", report.Results.Filters["img-2"].Category)
	assert.True(t, report.Results.Filters["img-1"].PassesFilter)

	require.Len(t, report.Results.Captions, 2)
	assert.Equal(t, "Waves rolling onto an empty beach at dawn", report.Results.Captions["img-1"].Concise)
	assert.Equal(t, "img-2", report.Results.Captions["img-2"].ImageID)

	// Two model-backed stages, two images each, fixed usage per call.
	assert.Equal(t, 4, report.Cost.Total.Calls)
	assert.Equal(t, 600, report.Cost.Total.TotalTokens)
	assert.Greater(t, report.Cost.Total.EstimatedCostUSD, 0.0)

	// One validation summary per stage.
	assert.Len(t, report.Validations, 6)
}

func TestPipelineSecondRunHitsCache(t *testing.T) {
	client := static.NewClient("test-model").
		WithResponse("aesthetic assessment", aestheticAnswer).
		WithResponse("travel photo captions", captionAnswer)

	orch, items := buildPipeline(t, client)

	first := pipeline.NewState(items)
	_, err := orch.Run(context.Background(), first)
	require.NoError(t, err)

	second := pipeline.NewState(items)
	_, err = orch.Run(context.Background(), second)
	require.NoError(t, err)

	// Cached results carry no new cost, so the ledgers only grew on the
	// first pass.
	usage := second.Usage()
	total := 0
	for _, s := range usage {
		total += s.Calls
	}
	assert.Equal(t, 4, total, "second run must be served from cache")

	assert.Equal(t, first.Captions()["img-1"].Concise, second.Captions()["img-1"].Concise)
}
