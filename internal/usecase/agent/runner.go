// Package agent executes vision agents over photo batches with result
// caching, token accounting, and bounded concurrency.
package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bkyoung/phototriage/internal/domain"
	"github.com/bkyoung/phototriage/internal/imaging"
	"github.com/bkyoung/phototriage/internal/usecase/accounting"
)

// Item is one photo entering an agent, with its original file bytes.
type Item struct {
	Photo domain.Photo
	Raw   []byte
}

// Upstream carries results from earlier pipeline stages, keyed by image ID.
type Upstream struct {
	Metadata   map[string]domain.Metadata
	Quality    map[string]domain.QualityAssessment
	Aesthetic  map[string]domain.AestheticAssessment
	Duplicates []domain.SimilarityGroup
	Filters    map[string]domain.FilterDecision
}

// Spec describes one remote vision agent: how to prompt the model for an
// item and how to interpret what comes back.
type Spec interface {
	// Name identifies the agent and namespaces its cache entries.
	Name() string

	// Stage names the pipeline stage for validation reporting.
	Stage() string

	// Skip reports whether the item should bypass the model, returning
	// the payload to record and a human-readable reason.
	Skip(item Item, up *Upstream) (payload any, reason string, skipped bool)

	// Prompt builds the model prompt for an item.
	Prompt(item Item, up *Upstream) string

	// Parse converts the model's text response into the agent's payload.
	Parse(text string) (any, error)

	// Decode revives a cached payload.
	Decode(entry json.RawMessage) (any, error)

	// Placeholder returns the payload recorded for a failed item.
	Placeholder(issue string) any
}

// Outcome is the per-item result of an agent run. Exactly one Outcome is
// produced for every input item, in input order.
type Outcome struct {
	ImageID string
	Payload any
	Cached  bool
	Skipped bool
	Failed  bool
	Issue   string
	Usage   domain.UsageRecord
}

// Options tunes a Runner.
type Options struct {
	Workers      int // concurrent model calls, default 4
	MaxDimension int // longest edge after preprocessing, default 1024
	JPEGQuality  int // re-encode quality, default 85
}

// Runner executes a Spec over a batch of items.
type Runner struct {
	spec   Spec
	client ModelClient
	cache  ResultCache // nil disables caching
	ledger *accounting.Ledger
	logger Logger // optional
	opts   Options
}

// NewRunner creates a Runner. The cache and logger may be nil.
func NewRunner(spec Spec, client ModelClient, cache ResultCache, ledger *accounting.Ledger, logger Logger, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 1024
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 85
	}
	return &Runner{
		spec:   spec,
		client: client,
		cache:  cache,
		ledger: ledger,
		logger: logger,
		opts:   opts,
	}
}

// ContentHash returns the SHA-256 hex digest of the original file bytes.
// Hashing the original rather than the preprocessed image keeps cache
// entries valid across preprocessing config changes.
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Run processes all items with bounded concurrency and returns one
// outcome per item, in input order, plus a validation summary for the
// stage. Individual item failures produce placeholder outcomes rather
// than aborting the batch.
func (r *Runner) Run(ctx context.Context, items []Item, up *Upstream) ([]Outcome, domain.ValidationSummary) {
	outcomes := make([]Outcome, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i := range items {
		g.Go(func() error {
			outcomes[i] = r.processItem(gctx, items[i], up)
			return nil
		})
	}
	_ = g.Wait()

	var cached, skipped, failed int
	var issues []string
	for _, o := range outcomes {
		switch {
		case o.Failed:
			failed++
			issues = append(issues, fmt.Sprintf("%s: %s", o.ImageID, o.Issue))
		case o.Cached:
			cached++
		case o.Skipped:
			skipped++
		}
	}

	summary := fmt.Sprintf("%d analyzed, %d from cache, %d skipped, %d failed",
		len(items)-cached-skipped-failed, cached, skipped, failed)
	return outcomes, domain.NewValidationSummary(r.spec.Name(), r.spec.Stage(), summary, issues, len(items))
}

func (r *Runner) processItem(ctx context.Context, item Item, up *Upstream) Outcome {
	id := item.Photo.ID

	if payload, reason, skipped := r.spec.Skip(item, up); skipped {
		return Outcome{ImageID: id, Payload: payload, Skipped: true, Issue: reason}
	}

	hash := ContentHash(item.Raw)
	if r.cache != nil {
		if entry, ok := r.cache.Get(r.spec.Name(), hash); ok {
			if payload, err := r.spec.Decode(entry); err == nil {
				return Outcome{ImageID: id, Payload: payload, Cached: true}
			}
			// undecodable entry is treated as a miss and overwritten below
		}
	}

	prepared, _, err := imaging.Preprocess(item.Raw, r.opts.MaxDimension, r.opts.JPEGQuality)
	mime := imaging.MimeType
	if err != nil {
		// Send the original bytes; the model may still accept them.
		r.warn(ctx, "preprocessing failed, sending original", map[string]interface{}{
			"agent":    r.spec.Name(),
			"image_id": id,
			"error":    err.Error(),
		})
		prepared = item.Raw
		mime = imaging.SniffMimeType(item.Raw)
	}

	prompt := r.spec.Prompt(item, up)
	if r.logger != nil {
		r.logger.LogInfo(ctx, "model call", map[string]interface{}{
			"agent":             r.spec.Name(),
			"image_id":          id,
			"est_prompt_tokens": EstimateTokens(prompt),
			"image_bytes":       len(prepared),
		})
	}

	resp, err := r.client.Analyze(ctx, Request{
		Agent:    r.spec.Name(),
		ImageID:  id,
		Prompt:   prompt,
		Image:    prepared,
		MimeType: mime,
	})
	if err != nil {
		issue := err.Error()
		return Outcome{ImageID: id, Payload: r.spec.Placeholder(issue), Failed: true, Issue: issue}
	}

	payload, err := r.spec.Parse(resp.Text)
	if err != nil {
		issue := fmt.Sprintf("malformed response: %v", err)
		return Outcome{ImageID: id, Payload: r.spec.Placeholder(issue), Failed: true, Issue: issue}
	}

	// A response without usage counters costs nothing and is not a
	// billable call; leave the ledger untouched.
	var rec domain.UsageRecord
	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		rec = r.ledger.Record(id, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}

	if r.cache != nil {
		if err := r.cache.Put(r.spec.Name(), hash, payload); err != nil {
			r.warn(ctx, "cache write failed", map[string]interface{}{
				"agent":    r.spec.Name(),
				"image_id": id,
				"error":    err.Error(),
			})
		}
	}

	return Outcome{ImageID: id, Payload: payload, Usage: rec}
}

func (r *Runner) warn(ctx context.Context, message string, fields map[string]interface{}) {
	if r.logger != nil {
		r.logger.LogWarning(ctx, message, fields)
	}
}
