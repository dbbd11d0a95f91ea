package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeOverlayWins(t *testing.T) {
	base := Config{
		Optimization: OptimizationConfig{MaxImageDimension: 1024, JPEGQuality: 85, EnableCache: true},
		Output:       OutputConfig{Directory: "out"},
		Store:        StoreConfig{Enabled: true, Path: "/base/triage.db"},
	}
	overlay := Config{
		Optimization: OptimizationConfig{MaxImageDimension: 512, JPEGQuality: 70},
		Store:        StoreConfig{Enabled: true, Path: "/overlay/triage.db"},
	}

	merged := Merge(base, overlay)

	assert.Equal(t, 512, merged.Optimization.MaxImageDimension)
	assert.Equal(t, "/overlay/triage.db", merged.Store.Path)
	// Overlay left output untouched, so the base value survives.
	assert.Equal(t, "out", merged.Output.Directory)
}

func TestWorkersForPrefersAgentOverride(t *testing.T) {
	agents := AgentsConfig{
		Workers: 4,
		WorkersPerAgent: WorkersPerAgentConfig{
			Metadata:  8,
			Aesthetic: 2,
		},
	}

	assert.Equal(t, 8, agents.WorkersFor("metadata"))
	assert.Equal(t, 2, agents.WorkersFor("aesthetic"))
	// No override configured falls back to the shared default.
	assert.Equal(t, 4, agents.WorkersFor("quality"))
	assert.Equal(t, 4, agents.WorkersFor("duplicates"))
	assert.Equal(t, 4, agents.WorkersFor("captions"))
	// Unknown agent names also get the shared default.
	assert.Equal(t, 4, agents.WorkersFor("website"))
}

func TestMergeKeepsWorkerOverrides(t *testing.T) {
	base := Config{Agents: AgentsConfig{Workers: 4}}
	overlay := Config{Agents: AgentsConfig{
		WorkersPerAgent: WorkersPerAgentConfig{Captions: 2},
	}}

	merged := Merge(base, overlay)

	assert.Equal(t, 2, merged.Agents.WorkersPerAgent.Captions)
}

func TestMergeProvidersCombines(t *testing.T) {
	base := Config{
		Providers: map[string]ProviderConfig{
			"openai": {Enabled: false, Model: "gpt-4o-mini"},
			"static": {Enabled: true, Model: "static-v1"},
		},
	}
	overlay := Config{
		Providers: map[string]ProviderConfig{
			"openai": {Enabled: true, Model: "gpt-4o", APIKey: "sk-test"},
		},
	}

	merged := Merge(base, overlay)

	assert.True(t, merged.Providers["openai"].Enabled)
	assert.Equal(t, "gpt-4o", merged.Providers["openai"].Model)
	assert.Equal(t, "static-v1", merged.Providers["static"].Model)
}

func TestMergePricingModelsAccumulate(t *testing.T) {
	base := Config{
		Pricing: PricingConfig{
			Models:  map[string]ModelRates{"gpt-4o-mini": {InputPer1K: 0.00015, OutputPer1K: 0.0006}},
			Default: ModelRates{InputPer1K: 0.000075, OutputPer1K: 0.0003},
		},
	}
	overlay := Config{
		Pricing: PricingConfig{
			Models: map[string]ModelRates{"gpt-4o": {InputPer1K: 0.0025, OutputPer1K: 0.01}},
		},
	}

	merged := Merge(base, overlay)

	assert.Len(t, merged.Pricing.Models, 2)
	assert.InDelta(t, 0.0025, merged.Pricing.Models["gpt-4o"].InputPer1K, 1e-12)
	assert.InDelta(t, 0.000075, merged.Pricing.Default.InputPer1K, 1e-12)
}

func TestMergeEmptyConfigsYieldZeroValue(t *testing.T) {
	merged := Merge(Config{}, Config{})

	assert.Nil(t, merged.Providers)
	assert.Zero(t, merged.Optimization.MaxImageDimension)
	assert.False(t, merged.Pipeline.ContinueOnError)
}
