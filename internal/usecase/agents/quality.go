package agents

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/imaging"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// QualityThresholds configures the quality agent's issue detection.
type QualityThresholds struct {
	MinResolutionPixels int // below this the image is flagged low_resolution
}

// DefaultQualityThresholds returns the stock thresholds.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{MinResolutionPixels: 2_000_000}
}

// QualityAgent scores technical image quality from pixel measurements.
// All scoring is local; no model calls are made.
type QualityAgent struct {
	workers    int
	thresholds QualityThresholds
}

// NewQualityAgent creates the quality agent.
func NewQualityAgent(workers int, thresholds QualityThresholds) *QualityAgent {
	if workers <= 0 {
		workers = 4
	}
	if thresholds.MinResolutionPixels <= 0 {
		thresholds = DefaultQualityThresholds()
	}
	return &QualityAgent{workers: workers, thresholds: thresholds}
}

// Run assesses all items and returns per-image scores. Undecodable
// images get a neutral placeholder so downstream stages still see every
// image.
func (a *QualityAgent) Run(ctx context.Context, items []agent.Item) (map[string]domain.QualityAssessment, domain.ValidationSummary) {
	results := make([]domain.QualityAssessment, len(items))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range items {
		g.Go(func() error {
			results[i] = a.assess(items[i])
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]domain.QualityAssessment, len(items))
	var issues []string
	total := 0
	for _, q := range results {
		out[q.ImageID] = q
		total += q.QualityScore
		if len(q.Issues) > 0 {
			issues = append(issues, fmt.Sprintf("%s: %s", q.ImageID, strings.Join(q.Issues, ", ")))
		}
	}

	summary := "No images were successfully assessed"
	if len(items) > 0 {
		summary = fmt.Sprintf("Assessed %d images, average quality: %.2f/5",
			len(items), float64(total)/float64(len(items)))
	}
	return out, domain.NewValidationSummary("quality", "scoring", summary, issues, len(items))
}

func (a *QualityAgent) assess(item agent.Item) domain.QualityAssessment {
	img, _, err := imaging.Decode(item.Raw)
	if err != nil {
		return domain.QualityAssessment{
			ImageID:      item.Photo.ID,
			QualityScore: 3,
			Sharpness:    3,
			Exposure:     3,
			Noise:        3,
			Resolution:   3,
			Issues:       []string{"processing_error"},
			Failed:       true,
		}
	}

	m := imaging.Measure(img)
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()

	var issues []string

	sharpness := scoreSharpness(m.BlurVariance)
	exposure := scoreExposure(m.ClippingPercent)
	noise := scoreNoise(m.NoiseSigma)
	resolution := scoreResolution(pixels, a.thresholds.MinResolutionPixels)

	if m.ClippedHighPct > 5 {
		issues = append(issues, "overexposed")
	}
	if m.ClippedLowPct > 10 {
		issues = append(issues, "underexposed")
	}
	if pixels < a.thresholds.MinResolutionPixels {
		issues = append(issues, "low_resolution")
	}
	if sharpness <= 2 {
		issues = append(issues, "motion_blur")
	}
	if noise <= 2 {
		issues = append(issues, "high_noise")
	}

	score := int(math.Round(
		float64(sharpness)*0.35 +
			float64(exposure)*0.30 +
			float64(noise)*0.20 +
			float64(resolution)*0.15))
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}

	return domain.QualityAssessment{
		ImageID:      item.Photo.ID,
		QualityScore: score,
		Sharpness:    sharpness,
		Exposure:     exposure,
		Noise:        noise,
		Resolution:   resolution,
		Issues:       issues,
		Metrics: domain.QualityMetrics{
			BlurVariance:    m.BlurVariance,
			ClippingPercent: m.ClippingPercent,
			NoiseSigma:      m.NoiseSigma,
		},
	}
}

func scoreSharpness(variance float64) int {
	switch {
	case variance > 500:
		return 5
	case variance > 300:
		return 4
	case variance > 150:
		return 3
	case variance > 75:
		return 2
	default:
		return 1
	}
}

func scoreExposure(clipping float64) int {
	switch {
	case clipping < 1:
		return 5
	case clipping < 3:
		return 4
	case clipping < 8:
		return 3
	case clipping < 15:
		return 2
	default:
		return 1
	}
}

func scoreNoise(sigma float64) int {
	switch {
	case sigma < 5:
		return 5
	case sigma < 10:
		return 4
	case sigma < 15:
		return 3
	case sigma < 25:
		return 2
	default:
		return 1
	}
}

func scoreResolution(pixels, minPixels int) int {
	switch {
	case pixels >= 24_000_000:
		return 5
	case pixels >= 12_000_000:
		return 4
	case pixels >= 8_000_000:
		return 3
	case pixels >= minPixels:
		return 2
	default:
		return 1
	}
}
