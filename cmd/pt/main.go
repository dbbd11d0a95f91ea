package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/phototriage/internal/adapter/cache"
	"github.com/bkyoung/phototriage/internal/adapter/cli"
	jsonwriter "github.com/bkyoung/phototriage/internal/adapter/output/json"
	"github.com/bkyoung/phototriage/internal/adapter/output/markdown"
	storeAdapter "github.com/bkyoung/phototriage/internal/adapter/store"
	"github.com/bkyoung/phototriage/internal/adapter/store/sqlite"
	vlmhttp "github.com/bkyoung/phototriage/internal/adapter/vlm/http"
	"github.com/bkyoung/phototriage/internal/adapter/vlm/openai"
	"github.com/bkyoung/phototriage/internal/adapter/vlm/static"
	"github.com/bkyoung/phototriage/internal/config"
	"github.com/bkyoung/phototriage/internal/usecase/accounting"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
	"github.com/bkyoung/phototriage/internal/usecase/agents"
	"github.com/bkyoung/phototriage/internal/usecase/pipeline"
	"github.com/bkyoung/phototriage/internal/usecase/triage"
	"github.com/bkyoung/phototriage/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(vlmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "pt",
		EnvPrefix:   "PT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	obs := buildObservability(cfg.Observability)

	pricing := buildPricing(cfg.Pricing)

	client, model := buildClient(cfg, obs, pricing)
	if client == nil {
		return fmt.Errorf("no vision provider enabled; enable providers.openai or providers.static in configuration")
	}

	rates := pricing.Rates(model)

	var resultCache agent.ResultCache
	if cfg.Optimization.EnableCache {
		resultCache = cache.New(cfg.Optimization.CacheDir)
	}

	baseOpts := agent.Options{
		MaxDimension: cfg.Optimization.MaxImageDimension,
		JPEGQuality:  cfg.Optimization.JPEGQuality,
	}
	aestheticOpts := baseOpts
	aestheticOpts.Workers = cfg.Agents.WorkersFor("aesthetic")
	captionOpts := baseOpts
	captionOpts.Workers = cfg.Agents.WorkersFor("captions")

	aestheticLedger := accounting.NewLedger(rates)
	captionLedger := accounting.NewLedger(rates)

	aestheticRunner := agent.NewRunner(
		agents.NewAestheticSpec(), client, resultCache, aestheticLedger, obs.logger, aestheticOpts)
	captionRunner := agent.NewRunner(
		agents.NewCaptionSpec(agents.CaptionOptions{
			UseConcisePrompt: cfg.Optimization.UseConcisePrompts,
			SkipRejected:     cfg.Optimization.SkipRejected,
		}),
		client, resultCache, captionLedger, obs.logger, captionOpts)

	stages := []pipeline.Stage{
		pipeline.NewMetadataStage(agents.NewMetadataAgent(cfg.Agents.WorkersFor("metadata"))),
		pipeline.NewQualityStage(agents.NewQualityAgent(cfg.Agents.WorkersFor("quality"), agents.QualityThresholds{
			MinResolutionPixels: cfg.Agents.MinResolution,
		})),
		pipeline.NewAestheticStage(aestheticRunner, aestheticLedger),
		pipeline.NewDuplicatesStage(agents.NewDuplicatesAgent(cfg.Agents.WorkersFor("duplicates"), cfg.Agents.HashThreshold)),
		pipeline.NewFilteringStage(agents.NewFilteringAgent(agents.FilterThresholds{
			MinTechnicalScore: cfg.Agents.MinTechnicalScore,
			MinAestheticScore: cfg.Agents.MinAestheticScore,
		})),
		pipeline.NewCaptionsStage(captionRunner, captionLedger),
	}

	writers := buildWriters(cfg.Output.Formats)

	// Initialize store if enabled
	var recorder triage.HistoryRecorder
	var history cli.HistoryLister
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				recorder = storeAdapter.NewRecorder(sqliteStore)
				history = sqliteStore
				defer sqliteStore.Close()
			}
		}
	}

	service := triage.NewService(triage.Deps{
		Stages:   stages,
		Options:  pipeline.Options{ContinueOnError: cfg.Pipeline.ContinueOnError},
		Logger:   obs.logger,
		Writers:  writers,
		Recorder: recorder,
	})

	root := cli.NewRootCommand(cli.Dependencies{
		Triager:       service,
		History:       history,
		DefaultOutput: cfg.Output.Directory,
		Version:       version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "pt"))
	}
	return paths
}

// observabilityComponents holds shared observability instances
type observabilityComponents struct {
	logger  agent.Logger
	metrics vlmhttp.Metrics
}

// buildObservability creates observability components based on configuration
func buildObservability(cfg config.ObservabilityConfig) observabilityComponents {
	var obs observabilityComponents

	if cfg.Logging.Enabled {
		obs.logger = vlmhttp.NewDefaultLogger(
			vlmhttp.ParseLogLevel(cfg.Logging.Level),
			vlmhttp.ParseLogFormat(cfg.Logging.Format),
			cfg.Logging.RedactAPIKeys,
		)
	}

	if cfg.Metrics.Enabled {
		obs.metrics = vlmhttp.NewDefaultMetrics()
	}

	return obs
}

// buildClient selects the vision model client: a real OpenAI-compatible
// endpoint when configured with an API key, otherwise the static client
// for dry runs. Returns nil when no provider is enabled.
func buildClient(cfg config.Config, obs observabilityComponents, pricing accounting.Pricing) (agent.ModelClient, string) {
	if provider, ok := cfg.Providers["openai"]; ok && provider.Enabled {
		model := provider.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		if provider.APIKey == "" {
			log.Println("OpenAI: No API key provided, using static client")
			return static.NewClient(model), model
		}

		rates := pricing.Rates(model)
		clientCfg := openai.Config{
			APIKey:          provider.APIKey,
			BaseURL:         provider.BaseURL,
			Model:           model,
			Retry:           buildRetryConfig(provider),
			InputCostPer1K:  rates.InputPer1K,
			OutputCostPer1K: rates.OutputPer1K,
		}
		if provider.Timeout != nil {
			if timeout, err := time.ParseDuration(*provider.Timeout); err == nil {
				clientCfg.Timeout = timeout
			} else {
				log.Printf("warning: invalid provider timeout %q, using default", *provider.Timeout)
			}
		}

		var httpLogger vlmhttp.Logger
		if l, ok := obs.logger.(vlmhttp.Logger); ok {
			httpLogger = l
		}
		client, err := openai.NewClient(clientCfg, httpLogger, obs.metrics)
		if err != nil {
			log.Printf("warning: failed to create OpenAI client: %v, using static client", err)
			return static.NewClient(model), model
		}
		return client, model
	}

	if provider, ok := cfg.Providers["static"]; ok && provider.Enabled {
		model := provider.Model
		if model == "" {
			model = "static-v1"
		}
		return static.NewClient(model), model
	}

	return nil, ""
}

func buildRetryConfig(provider config.ProviderConfig) vlmhttp.RetryConfig {
	retry := vlmhttp.DefaultRetryConfig()
	if provider.MaxRetries != nil {
		retry.MaxRetries = *provider.MaxRetries
	}
	if provider.InitialBackoff != nil {
		if backoff, err := time.ParseDuration(*provider.InitialBackoff); err == nil {
			retry.InitialBackoff = backoff
		}
	}
	if provider.MaxBackoff != nil {
		if backoff, err := time.ParseDuration(*provider.MaxBackoff); err == nil {
			retry.MaxBackoff = backoff
		}
	}
	return retry
}

func buildPricing(cfg config.PricingConfig) accounting.Pricing {
	models := make(map[string]accounting.Rates, len(cfg.Models))
	for name, rates := range cfg.Models {
		models[name] = accounting.Rates{InputPer1K: rates.InputPer1K, OutputPer1K: rates.OutputPer1K}
	}
	fallback := accounting.Rates{InputPer1K: cfg.Default.InputPer1K, OutputPer1K: cfg.Default.OutputPer1K}
	return accounting.NewTable(models, fallback)
}

func buildWriters(formats []string) []triage.ReportWriter {
	var writers []triage.ReportWriter
	for _, format := range formats {
		switch format {
		case "json":
			writers = append(writers, jsonwriter.NewWriter())
		case "markdown":
			writers = append(writers, markdown.NewWriter())
		default:
			log.Printf("warning: unknown output format %q, skipping", format)
		}
	}
	return writers
}

// Compile-time interface compliance checks
var _ agent.ModelClient = (*openai.Client)(nil)
var _ agent.ModelClient = (*static.Client)(nil)
var _ agent.ResultCache = (*cache.Cache)(nil)
var _ triage.ReportWriter = (*jsonwriter.Writer)(nil)
var _ triage.ReportWriter = (*markdown.Writer)(nil)
var _ triage.HistoryRecorder = (*storeAdapter.Recorder)(nil)
var _ cli.HistoryLister = (*sqlite.Store)(nil)
var _ cli.Triager = (*triage.Service)(nil)
