package pipeline

import (
	"context"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/usecase/accounting"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
	"github.com/bkyoung/phototriage/internal/usecase/agents"
)

// Stage names; dependency declarations reference these.
const (
	StageMetadata   = "metadata"
	StageQuality    = "quality"
	StageAesthetic  = "aesthetic"
	StageDuplicates = "duplicates"
	StageFiltering  = "filtering"
	StageCaptions   = "captions"
)

// metadataStage runs EXIF extraction first; everything else depends on it.
type metadataStage struct {
	agent *agents.MetadataAgent
}

// NewMetadataStage wraps the metadata agent as a pipeline stage.
func NewMetadataStage(a *agents.MetadataAgent) Stage {
	return &metadataStage{agent: a}
}

func (s *metadataStage) Name() string        { return StageMetadata }
func (s *metadataStage) DependsOn() []string { return nil }

func (s *metadataStage) Run(ctx context.Context, st *State) error {
	out, validation := s.agent.Run(ctx, st.Items)
	st.SetMetadata(out)
	st.AddValidation(validation)
	return nil
}

// qualityStage scores technical quality; runs alongside aesthetic.
type qualityStage struct {
	agent *agents.QualityAgent
}

// NewQualityStage wraps the quality agent as a pipeline stage.
func NewQualityStage(a *agents.QualityAgent) Stage {
	return &qualityStage{agent: a}
}

func (s *qualityStage) Name() string        { return StageQuality }
func (s *qualityStage) DependsOn() []string { return []string{StageMetadata} }

func (s *qualityStage) Run(ctx context.Context, st *State) error {
	out, validation := s.agent.Run(ctx, st.Items)
	st.SetQuality(out)
	st.AddValidation(validation)
	return nil
}

// aestheticStage calls the vision model through the agent runner.
type aestheticStage struct {
	runner *agent.Runner
	ledger *accounting.Ledger
}

// NewAestheticStage wraps an aesthetic runner and its ledger as a stage.
func NewAestheticStage(runner *agent.Runner, ledger *accounting.Ledger) Stage {
	return &aestheticStage{runner: runner, ledger: ledger}
}

func (s *aestheticStage) Name() string        { return StageAesthetic }
func (s *aestheticStage) DependsOn() []string { return []string{StageMetadata} }

func (s *aestheticStage) Run(ctx context.Context, st *State) error {
	outcomes, validation := s.runner.Run(ctx, st.Items, st.Upstream())

	out := make(map[string]domain.AestheticAssessment, len(outcomes))
	for _, o := range outcomes {
		a, ok := o.Payload.(domain.AestheticAssessment)
		if !ok {
			continue
		}
		a.ImageID = o.ImageID
		out[o.ImageID] = a
	}
	st.SetAesthetic(out)
	st.AddValidation(validation)
	return nil
}

func (s *aestheticStage) UsageSummary() accounting.Summary {
	return s.ledger.Snapshot()
}

// duplicatesStage groups near-duplicates once both score stages are in.
type duplicatesStage struct {
	agent *agents.DuplicatesAgent
}

// NewDuplicatesStage wraps the duplicates agent as a pipeline stage.
func NewDuplicatesStage(a *agents.DuplicatesAgent) Stage {
	return &duplicatesStage{agent: a}
}

func (s *duplicatesStage) Name() string { return StageDuplicates }
func (s *duplicatesStage) DependsOn() []string {
	return []string{StageQuality, StageAesthetic}
}

func (s *duplicatesStage) Run(ctx context.Context, st *State) error {
	groups, validation := s.agent.Run(ctx, st.Items, st.Upstream())
	st.SetDuplicates(groups)
	st.AddValidation(validation)
	return nil
}

// filteringStage applies score thresholds and categorisation.
type filteringStage struct {
	agent *agents.FilteringAgent
}

// NewFilteringStage wraps the filtering agent as a pipeline stage.
func NewFilteringStage(a *agents.FilteringAgent) Stage {
	return &filteringStage{agent: a}
}

func (s *filteringStage) Name() string { return StageFiltering }
func (s *filteringStage) DependsOn() []string {
	return []string{StageDuplicates}
}

func (s *filteringStage) Run(ctx context.Context, st *State) error {
	out, validation := s.agent.Run(ctx, st.Items, st.Upstream())
	st.SetFilters(out)
	st.AddValidation(validation)
	return nil
}

// captionsStage calls the vision model for images that passed filtering.
type captionsStage struct {
	runner *agent.Runner
	ledger *accounting.Ledger
}

// NewCaptionsStage wraps a captions runner and its ledger as a stage.
func NewCaptionsStage(runner *agent.Runner, ledger *accounting.Ledger) Stage {
	return &captionsStage{runner: runner, ledger: ledger}
}

func (s *captionsStage) Name() string        { return StageCaptions }
func (s *captionsStage) DependsOn() []string { return []string{StageFiltering} }

func (s *captionsStage) Run(ctx context.Context, st *State) error {
	outcomes, validation := s.runner.Run(ctx, st.Items, st.Upstream())

	out := make(map[string]domain.CaptionSet, len(outcomes))
	for _, o := range outcomes {
		c, ok := o.Payload.(domain.CaptionSet)
		if !ok {
			continue
		}
		c.ImageID = o.ImageID
		out[o.ImageID] = c
	}
	st.SetCaptions(out)
	st.AddValidation(validation)
	return nil
}

func (s *captionsStage) UsageSummary() accounting.Summary {
	return s.ledger.Snapshot()
}

var (
	_ UsageReporter = (*aestheticStage)(nil)
	_ UsageReporter = (*captionsStage)(nil)
)
