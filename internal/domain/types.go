// Package domain contains the core types shared across the photo triage
// pipeline: per-agent result records, usage accounting records, and the
// validation summaries each stage reports back to the orchestrator.
package domain

// Photo identifies a single input image. The ID is the filename stem and is
// the join key between every agent's per-item results.
type Photo struct {
	ID   string
	Path string
}

// GPSInfo holds decimal-degree coordinates extracted from EXIF data.
type GPSInfo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
}

// CameraSettings captures the EXIF exposure parameters relevant to triage.
type CameraSettings struct {
	CameraMake   string `json:"camera_make,omitempty"`
	CameraModel  string `json:"camera_model,omitempty"`
	ISO          int    `json:"iso,omitempty"`
	Aperture     string `json:"aperture,omitempty"`
	ShutterSpeed string `json:"shutter_speed,omitempty"`
	FocalLength  string `json:"focal_length,omitempty"`
}

// Metadata is the metadata agent's per-image output.
type Metadata struct {
	ImageID         string         `json:"image_id"`
	FileName        string         `json:"filename"`
	FileSizeBytes   int64          `json:"file_size_bytes"`
	Format          string         `json:"format"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	CaptureDatetime string         `json:"capture_datetime,omitempty"` // RFC 3339
	CameraSettings  CameraSettings `json:"camera_settings"`
	GPS             *GPSInfo       `json:"gps,omitempty"`
	Flags           []string       `json:"flags,omitempty"`
	Failed          bool           `json:"failed,omitempty"`
}

// QualityMetrics records the raw measurements behind the 1-5 quality scores.
type QualityMetrics struct {
	BlurVariance    float64 `json:"blur_variance"`
	ClippingPercent float64 `json:"histogram_clipping_percent"`
	NoiseSigma      float64 `json:"noise_sigma"`
}

// QualityAssessment is the quality agent's per-image output. All scores are
// on a 1-5 scale; QualityScore is the weighted composite.
type QualityAssessment struct {
	ImageID      string         `json:"image_id"`
	QualityScore int            `json:"quality_score"`
	Sharpness    int            `json:"sharpness"`
	Exposure     int            `json:"exposure"`
	Noise        int            `json:"noise"`
	Resolution   int            `json:"resolution"`
	Issues       []string       `json:"issues,omitempty"`
	Metrics      QualityMetrics `json:"metrics"`
	Failed       bool           `json:"failed,omitempty"`
}

// AestheticAssessment is the aesthetic agent's per-image output, produced by
// the vision model. Scores are 1-5; OverallAesthetic is the weighted
// composite.
type AestheticAssessment struct {
	ImageID          string `json:"image_id"`
	Composition      int    `json:"composition"`
	Framing          int    `json:"framing"`
	Lighting         int    `json:"lighting"`
	SubjectInterest  int    `json:"subject_interest"`
	OverallAesthetic int    `json:"overall_aesthetic"`
	Notes            string `json:"notes,omitempty"`
	Failed           bool   `json:"failed,omitempty"`
}

// SimilarityGroup describes a set of near-duplicate images and which member
// of the group should be kept.
type SimilarityGroup struct {
	GroupID          string   `json:"group_id"`
	ImageIDs         []string `json:"image_ids"`
	BestImage        string   `json:"best_image"`
	SimilarityType   string   `json:"similarity_type"`
	SimilarityMetric float64  `json:"similarity_metric"`
}

// FilterDecision is the filtering agent's per-image output: whether the
// image passes the configured score thresholds, plus its categorisation.
type FilterDecision struct {
	ImageID       string   `json:"image_id"`
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories,omitempty"`
	TimeCategory  string   `json:"time_category"`
	Location      string   `json:"location,omitempty"`
	PassesFilter  bool     `json:"passes_filter"`
	Flagged       bool     `json:"flagged"`
	Flags         []string `json:"flags,omitempty"`
	Failed        bool     `json:"failed,omitempty"`
}

// CaptionSet is the caption agent's per-image output: three caption lengths
// plus search keywords. Skipped is set for images the filtering agent
// rejected; those never reach the vision model.
type CaptionSet struct {
	ImageID  string   `json:"image_id"`
	Concise  string   `json:"concise"`
	Standard string   `json:"standard"`
	Detailed string   `json:"detailed"`
	Keywords []string `json:"keywords,omitempty"`
	Skipped  bool     `json:"skipped,omitempty"`
	Failed   bool     `json:"failed,omitempty"`
}

// UsageRecord captures the token usage and derived cost of a single
// completed vision model call. Records are immutable once created; cached
// hits and failed calls never produce one.
type UsageRecord struct {
	ImageID          string  `json:"image_id,omitempty"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// Validation summary statuses.
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// ValidationSummary reports the outcome of one agent's batch: success when
// every item processed cleanly, warning when some items failed, error when
// the agent could not process the batch at all.
type ValidationSummary struct {
	Agent   string   `json:"agent"`
	Stage   string   `json:"stage"`
	Status  string   `json:"status"`
	Summary string   `json:"summary"`
	Issues  []string `json:"issues,omitempty"`
}

// NewValidationSummary derives the batch status from the issue count: no
// issues is success, issues on a strict subset of items is warning, and
// issues on every item (or a batch that produced nothing) is error.
func NewValidationSummary(agent, stage, summary string, issues []string, total int) ValidationSummary {
	status := StatusSuccess
	if len(issues) > 0 {
		status = StatusWarning
		if total > 0 && len(issues) >= total {
			status = StatusError
		}
	}
	return ValidationSummary{
		Agent:   agent,
		Stage:   stage,
		Status:  status,
		Summary: summary,
		Issues:  issues,
	}
}
