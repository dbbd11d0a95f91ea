package agents

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

const aestheticSystemPrompt = `You are a world-renowned photo curator and aesthetic expert with decades of
experience in fine art and travel photography.

Evaluate each image across these aesthetic dimensions:
1. Composition (1-5): Rule of thirds, leading lines, balance, golden ratio
2. Framing (1-5): Subject placement, negative space, cropping effectiveness
3. Lighting Quality (1-5): Direction, color temperature, mood, golden/blue hour
4. Subject Interest (1-5): Uniqueness, emotional impact, storytelling potential

Scoring guidelines:
- 5: Museum/gallery quality, exceptional
- 4: Professional portfolio worthy
- 3: Good amateur/social media worthy
- 2: Acceptable but unremarkable
- 1: Poor aesthetic value

Consider genre-specific criteria for travel photography: sense of place,
cultural context, human interest.`

// AestheticSpec asks the vision model to score artistic quality. It
// plugs into the agent runner, which handles caching, concurrency, and
// usage accounting.
type AestheticSpec struct{}

// NewAestheticSpec creates the aesthetic assessment spec.
func NewAestheticSpec() *AestheticSpec {
	return &AestheticSpec{}
}

func (s *AestheticSpec) Name() string  { return "aesthetic" }
func (s *AestheticSpec) Stage() string { return "rating" }

// Skip never skips; every image gets an aesthetic score.
func (s *AestheticSpec) Skip(item agent.Item, up *agent.Upstream) (any, string, bool) {
	return nil, "", false
}

// Prompt builds the assessment prompt, folding in capture metadata when
// the metadata stage produced any.
func (s *AestheticSpec) Prompt(item agent.Item, up *agent.Upstream) string {
	capture, location, camera, iso, aperture, focal := "unknown", "unknown", "unknown", "unknown", "unknown", "unknown"
	if up != nil {
		if m, ok := up.Metadata[item.Photo.ID]; ok {
			if m.CaptureDatetime != "" {
				capture = m.CaptureDatetime
			}
			if m.GPS != nil {
				location = fmt.Sprintf("%f, %f", m.GPS.Latitude, m.GPS.Longitude)
			}
			if m.CameraSettings.CameraModel != "" {
				camera = m.CameraSettings.CameraModel
			}
			if m.CameraSettings.ISO > 0 {
				iso = fmt.Sprintf("%d", m.CameraSettings.ISO)
			}
			if m.CameraSettings.Aperture != "" {
				aperture = m.CameraSettings.Aperture
			}
			if m.CameraSettings.FocalLength != "" {
				focal = m.CameraSettings.FocalLength
			}
		}
	}

	return fmt.Sprintf(`%s

TASK: Analyze this travel photograph and provide aesthetic assessment scores.

Image metadata:
- Capture time: %s
- Location: %s
- Camera: %s
- ISO: %s
- Aperture: %s
- Focal length: %s

RESPONSE FORMAT: Provide your response as a JSON object with this exact structure:
{
    "composition": <1-5>,
    "framing": <1-5>,
    "lighting": <1-5>,
    "subject_interest": <1-5>,
    "notes": "<brief analysis of aesthetic strengths and weaknesses>"
}`, aestheticSystemPrompt, capture, location, camera, iso, aperture, focal)
}

// aestheticResponse is the wire shape the model is asked to return.
type aestheticResponse struct {
	Composition     int    `json:"composition"`
	Framing         int    `json:"framing"`
	Lighting        int    `json:"lighting"`
	SubjectInterest int    `json:"subject_interest"`
	Notes           string `json:"notes"`
}

// Parse extracts the scores, clamps them to 1-5, and derives the
// weighted overall score.
func (s *AestheticSpec) Parse(text string) (any, error) {
	var resp aestheticResponse
	if err := json.Unmarshal([]byte(agent.ExtractJSON(text)), &resp); err != nil {
		return nil, fmt.Errorf("parsing aesthetic scores: %w", err)
	}

	// A missing score defaults to the neutral 3 rather than clamping to 1.
	a := domain.AestheticAssessment{
		Composition:     scoreOrNeutral(resp.Composition),
		Framing:         scoreOrNeutral(resp.Framing),
		Lighting:        scoreOrNeutral(resp.Lighting),
		SubjectInterest: scoreOrNeutral(resp.SubjectInterest),
		Notes:           resp.Notes,
	}
	a.OverallAesthetic = clampScore(int(math.Round(
		float64(a.Composition)*0.30 +
			float64(a.Framing)*0.25 +
			float64(a.Lighting)*0.25 +
			float64(a.SubjectInterest)*0.20)))
	return a, nil
}

// Decode revives a cached assessment.
func (s *AestheticSpec) Decode(entry json.RawMessage) (any, error) {
	var a domain.AestheticAssessment
	if err := json.Unmarshal(entry, &a); err != nil {
		return nil, err
	}
	return a, nil
}

// Placeholder returns the neutral assessment recorded for failed items.
func (s *AestheticSpec) Placeholder(issue string) any {
	return domain.AestheticAssessment{
		Composition:      3,
		Framing:          3,
		Lighting:         3,
		SubjectInterest:  3,
		OverallAesthetic: 3,
		Notes:            issue,
		Failed:           true,
	}
}

func scoreOrNeutral(v int) int {
	if v == 0 {
		return 3
	}
	return clampScore(v)
}

func clampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

var _ agent.Spec = (*AestheticSpec)(nil)
