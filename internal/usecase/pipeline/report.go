package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/accounting"
)

// RunResults collects every agent's per-image output for the report.
type RunResults struct {
	Metadata   map[string]domain.Metadata            `json:"metadata"`
	Quality    map[string]domain.QualityAssessment   `json:"quality"`
	Aesthetic  map[string]domain.AestheticAssessment `json:"aesthetic"`
	Duplicates []domain.SimilarityGroup              `json:"duplicates"`
	Filters    map[string]domain.FilterDecision      `json:"filters"`
	Captions   map[string]domain.CaptionSet          `json:"captions"`
}

// RunStats aggregates headline numbers across the batch.
type RunStats struct {
	AverageQuality       float64        `json:"average_quality"`
	AverageAesthetic     float64        `json:"average_aesthetic"`
	DuplicateGroups      int            `json:"duplicate_groups"`
	RedundantImages      int            `json:"redundant_images"` // grouped images minus the kept best
	Selected             int            `json:"selected"`
	Flagged              int            `json:"flagged"`
	CategoryDistribution map[string]int `json:"category_distribution,omitempty"`
	QualityDistribution  map[string]int `json:"quality_distribution,omitempty"` // score "1".."5" to count
}

// RunReport is the full record of one pipeline run.
type RunReport struct {
	RunID       string                     `json:"run_id"`
	StartedAt   time.Time                  `json:"started_at"`
	FinishedAt  time.Time                  `json:"finished_at"`
	NumImages   int                        `json:"num_images"`
	Stats       RunStats                   `json:"stats"`
	Cost        accounting.CostReport      `json:"cost"`
	Validations []domain.ValidationSummary `json:"validations"`
	StageStates map[string]StageState      `json:"stage_states"`
	Results     RunResults                 `json:"results"`
}

// NewRunID creates a unique, time-ordered run identifier.
func NewRunID(timestamp time.Time) string {
	ts := timestamp.UTC().Format("20060102T150405Z")
	return fmt.Sprintf("run-%s-%s", ts, uuid.NewString()[:8])
}

// BuildReport assembles the run report from the final pipeline state.
func BuildReport(runID string, st *State, states map[string]StageState, started, finished time.Time) RunReport {
	up := st.Upstream()
	captions := st.Captions()

	results := RunResults{
		Metadata:   up.Metadata,
		Quality:    up.Quality,
		Aesthetic:  up.Aesthetic,
		Duplicates: up.Duplicates,
		Filters:    up.Filters,
		Captions:   captions,
	}

	return RunReport{
		RunID:       runID,
		StartedAt:   started,
		FinishedAt:  finished,
		NumImages:   len(st.Items),
		Stats:       buildStats(results),
		Cost:        accounting.BuildCostReport(st.Usage(), len(st.Items)),
		Validations: st.Validations(),
		StageStates: states,
		Results:     results,
	}
}

func buildStats(r RunResults) RunStats {
	stats := RunStats{}

	if len(r.Quality) > 0 {
		total := 0
		dist := make(map[string]int)
		for _, q := range r.Quality {
			total += q.QualityScore
			dist[fmt.Sprintf("%d", q.QualityScore)]++
		}
		stats.AverageQuality = float64(total) / float64(len(r.Quality))
		stats.QualityDistribution = dist
	}

	if len(r.Aesthetic) > 0 {
		total := 0
		for _, a := range r.Aesthetic {
			total += a.OverallAesthetic
		}
		stats.AverageAesthetic = float64(total) / float64(len(r.Aesthetic))
	}

	stats.DuplicateGroups = len(r.Duplicates)
	for _, g := range r.Duplicates {
		if n := len(g.ImageIDs); n > 1 {
			stats.RedundantImages += n - 1
		}
	}

	if len(r.Filters) > 0 {
		dist := make(map[string]int)
		for _, d := range r.Filters {
			if d.PassesFilter {
				stats.Selected++
			}
			if d.Flagged {
				stats.Flagged++
			}
			dist[d.Category]++
		}
		stats.CategoryDistribution = dist
	}

	return stats
}
