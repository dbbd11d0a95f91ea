package accounting

import (
	"sync"

	"github.com/bkyoung/phototriage/internal/domain"
)

// Ledger accumulates token usage and cost for one agent across a run. Each
// agent runner owns exactly one ledger instance; workers within the runner
// share it, so Record serialises updates with a mutex. The critical section
// is a handful of additions, which keeps Snapshot cheap as well.
type Ledger struct {
	mu sync.Mutex

	rates Rates

	calls            int
	promptTokens     int
	completionTokens int
	totalTokens      int
	inputCostUSD     float64
	outputCostUSD    float64
}

// NewLedger creates an empty ledger billing at the given rates.
func NewLedger(rates Rates) *Ledger {
	return &Ledger{rates: rates}
}

// Record adds one completed call's observed usage to the running totals and
// returns the immutable per-call record. Callers must not record cache hits,
// skipped items, or failed calls; those contribute zero cost by never being
// recorded at all.
func (l *Ledger) Record(imageID string, promptTokens, completionTokens, totalTokens int) domain.UsageRecord {
	if totalTokens == 0 {
		totalTokens = promptTokens + completionTokens
	}

	inputCost := float64(promptTokens) / 1000.0 * l.rates.InputPer1K
	outputCost := float64(completionTokens) / 1000.0 * l.rates.OutputPer1K

	l.mu.Lock()
	l.calls++
	l.promptTokens += promptTokens
	l.completionTokens += completionTokens
	l.totalTokens += totalTokens
	l.inputCostUSD += inputCost
	l.outputCostUSD += outputCost
	l.mu.Unlock()

	return domain.UsageRecord{
		ImageID:          imageID,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		EstimatedCostUSD: inputCost + outputCost,
	}
}

// Summary is a point-in-time snapshot of a ledger.
type Summary struct {
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	InputCostUSD     float64 `json:"input_cost_usd"`
	OutputCostUSD    float64 `json:"output_cost_usd"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// Snapshot returns the current totals. Concurrent Record calls observe the
// same mutex, so the snapshot is internally consistent.
func (l *Ledger) Snapshot() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Summary{
		Calls:            l.calls,
		PromptTokens:     l.promptTokens,
		CompletionTokens: l.completionTokens,
		TotalTokens:      l.totalTokens,
		InputCostUSD:     l.inputCostUSD,
		OutputCostUSD:    l.outputCostUSD,
		EstimatedCostUSD: l.inputCostUSD + l.outputCostUSD,
	}
}
