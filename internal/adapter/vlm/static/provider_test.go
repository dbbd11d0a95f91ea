package static_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/phototriage/internal/adapter/vlm/static"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

func TestAnalyzeReturnsRegisteredResponse(t *testing.T) {
	client := static.NewClient("static-v1").
		WithResponse("caption", `{"concise": "hi"}`)

	resp, err := client.Analyze(context.Background(), agent.Request{Prompt: "generate caption text"})
	require.NoError(t, err)
	assert.Equal(t, `{"concise": "hi"}`, resp.Text)
	assert.Equal(t, 150, resp.Usage.TotalTokens)
}

func TestAnalyzeFallsBackWhenNothingMatches(t *testing.T) {
	client := static.NewClient("static-v1").
		WithResponse("caption", `{"concise": "hi"}`).
		WithFallback(`{"fallback": true}`)

	resp, err := client.Analyze(context.Background(), agent.Request{Prompt: "score this image"})
	require.NoError(t, err)
	assert.Equal(t, `{"fallback": true}`, resp.Text)
}

func TestAnalyzeOverlappingMatchesUseRegistrationOrder(t *testing.T) {
	client := static.NewClient("static-v1").
		WithResponse("travel photo", `{"winner": "first"}`).
		WithResponse("photo", `{"winner": "second"}`)

	// Both substrings match; the earlier registration must win every time.
	for i := 0; i < 20; i++ {
		resp, err := client.Analyze(context.Background(), agent.Request{Prompt: "a travel photo of a canal"})
		require.NoError(t, err)
		assert.Equal(t, `{"winner": "first"}`, resp.Text)
	}
}

func TestAnalyzeHonorsCancelledContext(t *testing.T) {
	client := static.NewClient("static-v1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Analyze(ctx, agent.Request{Prompt: "anything"})
	require.Error(t, err)
}
