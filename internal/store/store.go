// Package store defines the persistence interface for triage run history.
package store

import (
	"context"
	"time"
)

// Store defines the persistence layer interface for run history and
// per-agent cost records.
type Store interface {
	// Run management
	CreateRun(ctx context.Context, run Run) error
	UpdateRunCost(ctx context.Context, runID string, totalCost float64) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Usage persistence
	SaveAgentUsage(ctx context.Context, usages []AgentUsage) error
	GetAgentUsageByRun(ctx context.Context, runID string) ([]AgentUsage, error)

	// Utility
	Close() error
}

// Run represents a single triage execution over a batch of photos.
type Run struct {
	RunID           string
	Timestamp       time.Time
	SourceDir       string
	NumImages       int
	Selected        int
	Flagged         int
	DuplicateGroups int
	TotalCost       float64
	DurationSeconds float64
}

// AgentUsage stores one agent's token usage and cost within a run.
type AgentUsage struct {
	ID               int
	RunID            string
	Agent            string
	Calls            int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}
