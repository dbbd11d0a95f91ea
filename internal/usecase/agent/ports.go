package agent

import (
	"context"
	"encoding/json"
)

// Usage reports token consumption for a single model call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Request is a single vision model call. Agent and ImageID identify the
// caller for logging and metrics.
type Request struct {
	Model    string // empty uses the client default
	Agent    string
	ImageID  string
	Prompt   string
	Image    []byte
	MimeType string
}

// Response is the model's answer plus its reported token usage.
type Response struct {
	Text  string
	Usage Usage
}

// ModelClient is the port implemented by vision model adapters.
type ModelClient interface {
	Analyze(ctx context.Context, req Request) (*Response, error)
}

// ResultCache is the port implemented by the result cache adapter.
// Implementations are fail-open: a read problem is a miss, never an error.
type ResultCache interface {
	Get(agentID, contentHash string) (json.RawMessage, bool)
	Put(agentID, contentHash string, v any) error
}

// Logger provides structured logging for agent runs.
type Logger interface {
	// LogWarning logs a warning message with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}
