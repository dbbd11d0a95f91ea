package accounting

import "sort"

// AgentUsage is one agent's ledger snapshot in the final cost report.
type AgentUsage struct {
	Agent            string  `json:"agent"`
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// CostTotals aggregates every agent's usage plus the per-item average.
type CostTotals struct {
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	InputCostUSD     float64 `json:"input_cost_usd"`
	OutputCostUSD    float64 `json:"output_cost_usd"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	CostPerItemUSD   float64 `json:"cost_per_item_usd"`
}

// CostReport is the run-level cost breakdown the orchestrator emits.
type CostReport struct {
	PerAgent []AgentUsage `json:"per_agent"`
	Total    CostTotals   `json:"total"`
}

// BuildCostReport sums per-agent ledger snapshots into a single report.
// numItems is the count of input images, used for the cost-per-item figure.
func BuildCostReport(perAgent map[string]Summary, numItems int) CostReport {
	report := CostReport{PerAgent: make([]AgentUsage, 0, len(perAgent))}

	names := make([]string, 0, len(perAgent))
	for name := range perAgent {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := perAgent[name]
		report.PerAgent = append(report.PerAgent, AgentUsage{
			Agent:            name,
			Calls:            s.Calls,
			PromptTokens:     s.PromptTokens,
			CompletionTokens: s.CompletionTokens,
			TotalTokens:      s.TotalTokens,
			EstimatedCostUSD: s.EstimatedCostUSD,
		})

		report.Total.Calls += s.Calls
		report.Total.PromptTokens += s.PromptTokens
		report.Total.CompletionTokens += s.CompletionTokens
		report.Total.TotalTokens += s.TotalTokens
		report.Total.InputCostUSD += s.InputCostUSD
		report.Total.OutputCostUSD += s.OutputCostUSD
		report.Total.EstimatedCostUSD += s.EstimatedCostUSD
	}

	if numItems > 0 {
		report.Total.CostPerItemUSD = report.Total.EstimatedCostUSD / float64(numItems)
	}

	return report
}
