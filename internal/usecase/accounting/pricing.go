// Package accounting implements token-usage bookkeeping for vision model
// calls: the static pricing table, the per-agent usage ledger, and the
// end-of-run cost report.
package accounting

// Rates holds the billing rates for one model, expressed in USD per 1,000
// tokens to match how the upstream pricing pages quote them.
type Rates struct {
	InputPer1K  float64
	OutputPer1K float64
}

// DefaultRates is the fallback used when a model has no configured entry.
// The values are the Gemini 1.5 Flash rates ($0.075 / $0.30 per 1M tokens).
var DefaultRates = Rates{
	InputPer1K:  0.000075,
	OutputPer1K: 0.0003,
}

// Pricing resolves billing rates for a model identifier.
type Pricing interface {
	// Rates returns the rates for the given model, falling back to a
	// configured default when the model is unknown. It never fails.
	Rates(model string) Rates
}

// Table is a static model-to-rates mapping loaded once at startup.
type Table struct {
	models   map[string]Rates
	fallback Rates
}

// NewTable builds a pricing table. A zero-valued fallback is replaced by
// DefaultRates so an empty configuration still produces sane costs.
func NewTable(models map[string]Rates, fallback Rates) *Table {
	if fallback == (Rates{}) {
		fallback = DefaultRates
	}
	copied := make(map[string]Rates, len(models))
	for name, r := range models {
		copied[name] = r
	}
	return &Table{models: copied, fallback: fallback}
}

// Rates returns the configured rates for model, or the fallback.
func (t *Table) Rates(model string) Rates {
	if r, ok := t.models[model]; ok {
		return r
	}
	return t.fallback
}

// Cost computes the USD cost of a single call at these rates.
func (r Rates) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000.0*r.InputPer1K + float64(outputTokens)/1000.0*r.OutputPer1K
}
