package config

// Config represents the full application configuration.
type Config struct {
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Pricing       PricingConfig             `yaml:"pricing"`
	Optimization  OptimizationConfig        `yaml:"optimization"`
	Agents        AgentsConfig              `yaml:"agents"`
	Pipeline      PipelineConfig            `yaml:"pipeline"`
	Output        OutputConfig              `yaml:"output"`
	Store         StoreConfig               `yaml:"store"`
	Observability ObservabilityConfig       `yaml:"observability"`
}

// ProviderConfig configures a single vision model provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`

	// HTTP overrides (optional, use defaults if not set)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// PricingConfig maps model identifiers to billing rates. Rates are USD
// per 1,000 tokens, matching how provider pricing pages quote them.
type PricingConfig struct {
	Models  map[string]ModelRates `yaml:"models"`
	Default ModelRates            `yaml:"default"`
}

// ModelRates holds one model's input and output token rates.
type ModelRates struct {
	InputPer1K  float64 `yaml:"inputPer1K"`
	OutputPer1K float64 `yaml:"outputPer1K"`
}

// OptimizationConfig controls the cost optimizations applied to model
// calls: image downscaling, result caching, and prompt selection.
type OptimizationConfig struct {
	MaxImageDimension int    `yaml:"maxImageDimension"`
	JPEGQuality       int    `yaml:"jpegQuality"`
	EnableCache       bool   `yaml:"enableCache"`
	CacheDir          string `yaml:"cacheDir"`
	UseConcisePrompts bool   `yaml:"useConcisePrompts"`
	SkipRejected      bool   `yaml:"skipRejected"`
}

// AgentsConfig tunes the individual triage agents.
type AgentsConfig struct {
	Workers           int                   `yaml:"workers"` // shared default pool size
	WorkersPerAgent   WorkersPerAgentConfig `yaml:"workersPerAgent"`
	HashThreshold     int                   `yaml:"hashThreshold"`
	MinResolution     int                   `yaml:"minResolution"`
	MinTechnicalScore int                   `yaml:"minTechnicalScore"`
	MinAestheticScore int                   `yaml:"minAestheticScore"`
}

// WorkersPerAgentConfig overrides the pool size for individual agents.
// Local agents tolerate wide pools; the model-backed ones are usually
// held lower to respect API rate limits. Zero keeps the shared default.
type WorkersPerAgentConfig struct {
	Metadata   int `yaml:"metadata"`
	Quality    int `yaml:"quality"`
	Aesthetic  int `yaml:"aesthetic"`
	Duplicates int `yaml:"duplicates"`
	Captions   int `yaml:"captions"`
}

// WorkersFor returns the pool size for the named agent, falling back to
// the shared Workers value when no override is configured.
func (a AgentsConfig) WorkersFor(agent string) int {
	override := 0
	switch agent {
	case "metadata":
		override = a.WorkersPerAgent.Metadata
	case "quality":
		override = a.WorkersPerAgent.Quality
	case "aesthetic":
		override = a.WorkersPerAgent.Aesthetic
	case "duplicates":
		override = a.WorkersPerAgent.Duplicates
	case "captions":
		override = a.WorkersPerAgent.Captions
	}
	if override > 0 {
		return override
	}
	return a.Workers
}

// PipelineConfig controls orchestration behavior.
type PipelineConfig struct {
	// ContinueOnError keeps independent stages running after a failure.
	ContinueOnError bool `yaml:"continueOnError"`
}

type OutputConfig struct {
	Directory string   `yaml:"directory"`
	Formats   []string `yaml:"formats"` // json, markdown
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging and metrics tracking.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`         // debug, info, error
	Format        string `yaml:"format"`        // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"` // Redact API keys in logs
}

// MetricsConfig configures performance and cost metrics tracking.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Pricing = choosePricing(base.Pricing, overlay.Pricing)
	result.Optimization = chooseOptimization(base.Optimization, overlay.Optimization)
	result.Agents = chooseAgents(base.Agents, overlay.Agents)
	result.Pipeline = choosePipeline(base.Pipeline, overlay.Pipeline)
	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)
	result.Providers = mergeProviders(base.Providers, overlay.Providers)

	return result
}

func mergeProviders(base, overlay map[string]ProviderConfig) map[string]ProviderConfig {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]ProviderConfig, len(base)+len(overlay))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range overlay {
		result[key] = value
	}
	return result
}

func choosePricing(base, overlay PricingConfig) PricingConfig {
	result := base
	if len(overlay.Models) > 0 {
		if result.Models == nil {
			result.Models = make(map[string]ModelRates, len(overlay.Models))
		}
		for key, value := range overlay.Models {
			result.Models[key] = value
		}
	}
	if overlay.Default.InputPer1K != 0 || overlay.Default.OutputPer1K != 0 {
		result.Default = overlay.Default
	}
	return result
}

func chooseOptimization(base, overlay OptimizationConfig) OptimizationConfig {
	if overlay.MaxImageDimension != 0 || overlay.JPEGQuality != 0 || overlay.EnableCache ||
		overlay.CacheDir != "" || overlay.UseConcisePrompts || overlay.SkipRejected {
		return overlay
	}
	return base
}

func chooseAgents(base, overlay AgentsConfig) AgentsConfig {
	if overlay.Workers != 0 || overlay.WorkersPerAgent != (WorkersPerAgentConfig{}) ||
		overlay.HashThreshold != 0 || overlay.MinResolution != 0 ||
		overlay.MinTechnicalScore != 0 || overlay.MinAestheticScore != 0 {
		return overlay
	}
	return base
}

func choosePipeline(base, overlay PipelineConfig) PipelineConfig {
	if overlay.ContinueOnError {
		return overlay
	}
	return base
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	if overlay.Directory != "" || len(overlay.Formats) > 0 {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base

	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}

	if overlay.Metrics.Enabled {
		result.Metrics = overlay.Metrics
	}

	return result
}
