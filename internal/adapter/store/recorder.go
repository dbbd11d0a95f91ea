// Package store adapts pipeline run reports to the persistence layer.
package store

import (
	"context"

	"github.com/bkyoung/phototriage/internal/store"
	"github.com/bkyoung/phototriage/internal/usecase/pipeline"
)

// Recorder persists run reports through a store.Store.
type Recorder struct {
	store store.Store
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(s store.Store) *Recorder {
	return &Recorder{store: s}
}

// RecordReport converts and saves one run report as history.
func (r *Recorder) RecordReport(ctx context.Context, report pipeline.RunReport, sourceDir string) error {
	run := store.Run{
		RunID:           report.RunID,
		Timestamp:       report.StartedAt,
		SourceDir:       sourceDir,
		NumImages:       report.NumImages,
		Selected:        report.Stats.Selected,
		Flagged:         report.Stats.Flagged,
		DuplicateGroups: report.Stats.DuplicateGroups,
		TotalCost:       report.Cost.Total.EstimatedCostUSD,
		DurationSeconds: report.FinishedAt.Sub(report.StartedAt).Seconds(),
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return err
	}

	usages := make([]store.AgentUsage, len(report.Cost.PerAgent))
	for i, u := range report.Cost.PerAgent {
		usages[i] = store.AgentUsage{
			RunID:            report.RunID,
			Agent:            u.Agent,
			Calls:            u.Calls,
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
			CostUSD:          u.EstimatedCostUSD,
		}
	}
	return r.store.SaveAgentUsage(ctx, usages)
}
