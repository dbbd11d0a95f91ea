package agent_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	text := "Here's the assessment:\n```json\n{\"composition\": 4}\n```\nLet me know if you need more."

	got := agent.ExtractJSON(text)
	assert.Equal(t, `{"composition": 4}`, got)
}

func TestExtractJSON_BareFence(t *testing.T) {
	text := "```\n{\"keywords\": [\"beach\", \"sunset\"]}\n```"

	got := agent.ExtractJSON(text)
	assert.Equal(t, `{"keywords": ["beach", "sunset"]}`, got)
}

func TestExtractJSON_ProseWrappedObject(t *testing.T) {
	text := `Sure! The requested scores are {"lighting": 3, "framing": 5} as analyzed.`

	got := agent.ExtractJSON(text)
	assert.Equal(t, `{"lighting": 3, "framing": 5}`, got)
}

func TestExtractJSON_PlainObject(t *testing.T) {
	text := `{"concise": "A red boat on calm water."}`

	got := agent.ExtractJSON(text)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal([]byte(got), &parsed))
	assert.Equal(t, "A red boat on calm water.", parsed["concise"])
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	text := "prefix {\"outer\": {\"inner\": 1}} suffix"

	got := agent.ExtractJSON(text)
	assert.Equal(t, `{"outer": {"inner": 1}}`, got)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &parsed))
}

func TestExtractJSON_NoJSON(t *testing.T) {
	text := "  I cannot analyze this image.  "

	got := agent.ExtractJSON(text)
	assert.Equal(t, "I cannot analyze this image.", got)
}

func TestExtractJSON_Empty(t *testing.T) {
	assert.Equal(t, "", agent.ExtractJSON(""))
}
