package http

import (
	"sync"
	"time"
)

// Metrics tracks aggregate statistics for vision model calls.
type Metrics interface {
	// RecordRequest records an API request
	RecordRequest(agent, model string)

	// RecordDuration records request duration
	RecordDuration(agent, model string, duration time.Duration)

	// RecordTokens records token usage
	RecordTokens(agent, model string, tokensIn, tokensOut int)

	// RecordCost records API cost
	RecordCost(agent, model string, cost float64)

	// RecordCacheHit records a call that was served from cache
	RecordCacheHit(agent, model string)

	// RecordError records an error
	RecordError(agent, model string, errType ErrorType)

	// GetStats returns current statistics
	GetStats() Stats
}

// Stats contains aggregate statistics.
type Stats struct {
	TotalRequests  int
	TotalTokensIn  int
	TotalTokensOut int
	TotalCost      float64
	TotalDuration  time.Duration
	CacheHits      int
	ErrorCount     int
	ByAgent        map[string]AgentStats
}

// AgentStats contains per-agent statistics.
type AgentStats struct {
	Requests  int
	TokensIn  int
	TokensOut int
	Cost      float64
	Duration  time.Duration
	CacheHits int
	Errors    int
}

// DefaultMetrics provides in-memory metrics tracking.
type DefaultMetrics struct {
	mu    sync.RWMutex
	stats Stats
}

// NewDefaultMetrics creates a metrics tracker.
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{
		stats: Stats{
			ByAgent: make(map[string]AgentStats),
		},
	}
}

// RecordRequest increments request counter.
func (m *DefaultMetrics) RecordRequest(agent, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalRequests++

	as := m.stats.ByAgent[agent]
	as.Requests++
	m.stats.ByAgent[agent] = as
}

// RecordDuration records API call duration.
func (m *DefaultMetrics) RecordDuration(agent, model string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalDuration += duration

	as := m.stats.ByAgent[agent]
	as.Duration += duration
	m.stats.ByAgent[agent] = as
}

// RecordTokens records token usage.
func (m *DefaultMetrics) RecordTokens(agent, model string, tokensIn, tokensOut int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalTokensIn += tokensIn
	m.stats.TotalTokensOut += tokensOut

	as := m.stats.ByAgent[agent]
	as.TokensIn += tokensIn
	as.TokensOut += tokensOut
	m.stats.ByAgent[agent] = as
}

// RecordCost records API cost.
func (m *DefaultMetrics) RecordCost(agent, model string, cost float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalCost += cost

	as := m.stats.ByAgent[agent]
	as.Cost += cost
	m.stats.ByAgent[agent] = as
}

// RecordCacheHit records a call answered from the result cache.
func (m *DefaultMetrics) RecordCacheHit(agent, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.CacheHits++

	as := m.stats.ByAgent[agent]
	as.CacheHits++
	m.stats.ByAgent[agent] = as
}

// RecordError records an error.
func (m *DefaultMetrics) RecordError(agent, model string, errType ErrorType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.ErrorCount++

	as := m.stats.ByAgent[agent]
	as.Errors++
	m.stats.ByAgent[agent] = as
}

// GetStats returns a copy of current statistics.
func (m *DefaultMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Deep copy to avoid race conditions
	statsCopy := Stats{
		TotalRequests:  m.stats.TotalRequests,
		TotalTokensIn:  m.stats.TotalTokensIn,
		TotalTokensOut: m.stats.TotalTokensOut,
		TotalCost:      m.stats.TotalCost,
		TotalDuration:  m.stats.TotalDuration,
		CacheHits:      m.stats.CacheHits,
		ErrorCount:     m.stats.ErrorCount,
		ByAgent:        make(map[string]AgentStats),
	}

	for k, v := range m.stats.ByAgent {
		statsCopy.ByAgent[k] = v
	}

	return statsCopy
}

var _ Metrics = (*DefaultMetrics)(nil)
