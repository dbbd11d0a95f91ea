package agents

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// Caption length limits in characters. Over-length captions from the
// model are truncated rather than rejected.
const (
	maxConciseChars  = 100
	maxStandardChars = 250
	maxDetailedChars = 500
	maxKeywords      = 10
)

const captionPromptConcise = `Generate travel photo captions.
Return 3 levels: concise (<100 chars), standard (150-250 chars), detailed (300-500 chars).
Add keywords. Respond with ONLY valid JSON.`

const captionPromptFull = `You are an award-winning travel writer and photo journalist. Generate engaging,
informative captions that bring images to life.

Caption levels:
1. CONCISE (1 line, <100 chars): Twitter-style, punchy description
2. STANDARD (2-3 lines, 150-250 chars): Instagram-style, engaging narrative
3. DETAILED (paragraph, 300-500 chars): Editorial-style, comprehensive story

Incorporate:
- Location from GPS or metadata
- Time of day and lighting conditions
- Technical details (camera settings) in detailed captions
- Cultural or historical context
- Emotional resonance and storytelling
- Keywords for searchability`

// CaptionOptions tunes the caption spec.
type CaptionOptions struct {
	UseConcisePrompt bool // shorter system prompt to cut input tokens
	SkipRejected     bool // skip images the filtering stage rejected
}

// CaptionSpec asks the vision model for three caption lengths plus
// search keywords. It plugs into the agent runner.
type CaptionSpec struct {
	opts CaptionOptions
}

// NewCaptionSpec creates the caption generation spec.
func NewCaptionSpec(opts CaptionOptions) *CaptionSpec {
	return &CaptionSpec{opts: opts}
}

func (s *CaptionSpec) Name() string  { return "captions" }
func (s *CaptionSpec) Stage() string { return "writing" }

// Skip bypasses the model for images rejected by filtering, saving
// their tokens entirely.
func (s *CaptionSpec) Skip(item agent.Item, up *agent.Upstream) (any, string, bool) {
	if !s.opts.SkipRejected || up == nil {
		return nil, "", false
	}
	d, ok := up.Filters[item.Photo.ID]
	if !ok || d.PassesFilter {
		return nil, "", false
	}
	return domain.CaptionSet{ImageID: item.Photo.ID, Skipped: true}, "rejected by filtering", true
}

// Prompt builds the caption request, folding in location and capture
// context when available.
func (s *CaptionSpec) Prompt(item agent.Item, up *agent.Upstream) string {
	system := captionPromptFull
	if s.opts.UseConcisePrompt {
		system = captionPromptConcise
	}

	contextLines := ""
	if up != nil {
		if m, ok := up.Metadata[item.Photo.ID]; ok {
			if m.CaptureDatetime != "" {
				contextLines += fmt.Sprintf("\n- Capture time: %s", m.CaptureDatetime)
			}
			if m.GPS != nil {
				contextLines += fmt.Sprintf("\n- Location: %f, %f", m.GPS.Latitude, m.GPS.Longitude)
			}
			if m.CameraSettings.CameraModel != "" {
				contextLines += fmt.Sprintf("\n- Camera: %s", m.CameraSettings.CameraModel)
			}
		}
		if d, ok := up.Filters[item.Photo.ID]; ok && d.Category != "" {
			contextLines += fmt.Sprintf("\n- Category: %s", d.Category)
		}
	}
	if contextLines != "" {
		contextLines = "\n\nImage context:" + contextLines
	}

	return fmt.Sprintf(`%s%s

RESPONSE FORMAT: Provide your response as a JSON object with this exact structure:
{
    "concise": "<max 100 chars>",
    "standard": "<150-250 chars>",
    "detailed": "<300-500 chars>",
    "keywords": ["<kw1>", "<kw2>"]
}`, system, contextLines)
}

// captionResponse is the wire shape the model is asked to return.
type captionResponse struct {
	Concise  string   `json:"concise"`
	Standard string   `json:"standard"`
	Detailed string   `json:"detailed"`
	Keywords []string `json:"keywords"`
}

// Parse extracts the captions, enforcing the length limits and the
// keyword cap.
func (s *CaptionSpec) Parse(text string) (any, error) {
	var resp captionResponse
	if err := json.Unmarshal([]byte(agent.ExtractJSON(text)), &resp); err != nil {
		return nil, fmt.Errorf("parsing captions: %w", err)
	}
	if resp.Concise == "" && resp.Standard == "" && resp.Detailed == "" {
		return nil, fmt.Errorf("parsing captions: response contained no captions")
	}

	keywords := resp.Keywords
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	return domain.CaptionSet{
		Concise:  truncateCaption(resp.Concise, maxConciseChars),
		Standard: truncateCaption(resp.Standard, maxStandardChars),
		Detailed: truncateCaption(resp.Detailed, maxDetailedChars),
		Keywords: keywords,
	}, nil
}

// Decode revives a cached caption set.
func (s *CaptionSpec) Decode(entry json.RawMessage) (any, error) {
	var c domain.CaptionSet
	if err := json.Unmarshal(entry, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// Placeholder returns the generic captions recorded for failed items.
func (s *CaptionSpec) Placeholder(issue string) any {
	return domain.CaptionSet{
		Concise:  "Travel photograph",
		Standard: "A beautiful travel photograph capturing a memorable moment.",
		Detailed: "This travel photograph documents a moment from a journey, preserving the scene for future reflection.",
		Keywords: []string{"travel", "photography", "journey"},
		Failed:   true,
	}
}

func truncateCaption(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multibyte
	// character.
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

var _ agent.Spec = (*CaptionSpec)(nil)
