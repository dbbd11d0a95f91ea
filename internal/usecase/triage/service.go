// Package triage drives a full photo triage run: loading the batch,
// executing the pipeline, and emitting reports and history.
package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/bkyoung/phototriage/internal/usecase/agent"
	"github.com/bkyoung/phototriage/internal/usecase/pipeline"
)

// ReportWriter persists a run report in one output format.
type ReportWriter interface {
	Write(ctx context.Context, report pipeline.RunReport, outputDir string) (string, error)
}

// HistoryRecorder saves a completed run to the history store.
type HistoryRecorder interface {
	RecordReport(ctx context.Context, report pipeline.RunReport, sourceDir string) error
}

// Deps captures the collaborators for the triage service.
type Deps struct {
	Stages   []pipeline.Stage
	Options  pipeline.Options
	Logger   agent.Logger    // optional
	Writers  []ReportWriter  // one per output format
	Recorder HistoryRecorder // optional
}

// Service runs the triage pipeline end to end.
type Service struct {
	deps Deps
}

// NewService creates a triage service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// RunRequest describes one triage invocation.
type RunRequest struct {
	SourceDir string
	OutputDir string
}

// Result carries the run report and the artifact paths written for it.
type Result struct {
	Report        pipeline.RunReport
	ArtifactPaths []string
}

// Run loads the photos under the source directory, executes the pipeline,
// and writes the configured reports. A stage failure still produces a
// report covering the stages that completed; the error is returned
// alongside it.
func (s *Service) Run(ctx context.Context, req RunRequest) (Result, error) {
	items, err := LoadItems(req.SourceDir)
	if err != nil {
		return Result{}, fmt.Errorf("load photos: %w", err)
	}
	if len(items) == 0 {
		return Result{}, fmt.Errorf("no supported images found in %s", req.SourceDir)
	}

	st := pipeline.NewState(items)
	orch := pipeline.New(s.deps.Stages, s.deps.Options, s.deps.Logger)

	started := time.Now()
	states, runErr := orch.Run(ctx, st)
	finished := time.Now()

	report := pipeline.BuildReport(pipeline.NewRunID(started), st, states, started, finished)

	result := Result{Report: report}
	for _, writer := range s.deps.Writers {
		path, err := writer.Write(ctx, report, req.OutputDir)
		if err != nil {
			return result, fmt.Errorf("write report: %w", err)
		}
		result.ArtifactPaths = append(result.ArtifactPaths, path)
	}

	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.RecordReport(ctx, report, req.SourceDir); err != nil {
			s.warn(ctx, "failed to record run history", map[string]interface{}{"error": err.Error()})
		}
	}

	return result, runErr
}

func (s *Service) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.LogWarning(ctx, msg, fields)
	}
}
