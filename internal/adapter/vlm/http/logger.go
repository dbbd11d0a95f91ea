package http

import (
	"context"
	"log"
	"time"
)

// Logger provides structured logging for vision model calls.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted)
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing and token info
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error
	LogError(ctx context.Context, err ErrorLog)

	// LogWarning logs a warning with structured fields
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Agent       string
	Model       string
	ImageID     string
	Timestamp   time.Time
	PromptChars int
	ImageBytes  int
	APIKey      string // redacted to last 4 chars before output
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Agent     string
	Model     string
	ImageID   string
	Timestamp time.Time
	Duration  time.Duration
	TokensIn  int
	TokensOut int
	Cost      float64
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Agent     string
	Model     string
	ImageID   string
	Timestamp time.Time
	Duration  time.Duration
	Error     error
	ErrorType ErrorType
	Retryable bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// ParseLogLevel maps a config string to a LogLevel, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LogLevelDebug
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// ParseLogFormat maps a config string to a LogFormat, defaulting to human.
func ParseLogFormat(s string) LogFormat {
	if s == "json" {
		return LogFormatJSON
	}
	return LogFormatHuman
}

// DefaultLogger writes logs in structured format to the standard logger.
type DefaultLogger struct {
	level      LogLevel
	format     LogFormat
	redactKeys bool
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{level: level, format: format, redactKeys: redactKeys}
}

// RedactAPIKey reduces a key to its last 4 characters when redaction is on.
func (l *DefaultLogger) RedactAPIKey(key string) string {
	if !l.redactKeys || key == "" {
		return key
	}
	if len(key) <= 4 {
		return "****"
	}
	return "..." + key[len(key)-4:]
}

// LogRequest logs an API request at debug level.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}
	redacted := l.RedactAPIKey(req.APIKey)
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","agent":"%s","model":"%s","image_id":"%s","timestamp":"%s","prompt_chars":%d,"image_bytes":%d,"api_key":"%s"}`,
			req.Agent, req.Model, req.ImageID, req.Timestamp.Format(time.RFC3339), req.PromptChars, req.ImageBytes, redacted)
	} else {
		log.Printf("[DEBUG] %s/%s: request for %s (prompt=%d chars, image=%d bytes, key=%s)",
			req.Agent, req.Model, req.ImageID, req.PromptChars, req.ImageBytes, redacted)
	}
}

// LogResponse logs an API response at info level.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","agent":"%s","model":"%s","image_id":"%s","timestamp":"%s","duration_ms":%d,"tokens_in":%d,"tokens_out":%d,"cost_usd":%.6f}`,
			resp.Agent, resp.Model, resp.ImageID, resp.Timestamp.Format(time.RFC3339),
			resp.Duration.Milliseconds(), resp.TokensIn, resp.TokensOut, resp.Cost)
	} else {
		log.Printf("[INFO] %s/%s: %s done in %s (tokens=%d/%d, cost=$%.6f)",
			resp.Agent, resp.Model, resp.ImageID, resp.Duration.Round(time.Millisecond),
			resp.TokensIn, resp.TokensOut, resp.Cost)
	}
}

// LogError logs an API error.
func (l *DefaultLogger) LogError(ctx context.Context, e ErrorLog) {
	msg := ""
	if e.Error != nil {
		msg = RedactURLSecrets(e.Error.Error())
	}
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","agent":"%s","model":"%s","image_id":"%s","error_type":"%s","retryable":%t,"error":%q}`,
			e.Agent, e.Model, e.ImageID, e.ErrorType.String(), e.Retryable, msg)
	} else {
		log.Printf("[ERROR] %s/%s: %s failed after %s: %s (%s, retryable=%t)",
			e.Agent, e.Model, e.ImageID, e.Duration.Round(time.Millisecond), msg, e.ErrorType.String(), e.Retryable)
	}
}

// LogWarning logs a warning with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.logWithFields("WARN", "warning", message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.logWithFields("INFO", "info", message, fields)
}

func (l *DefaultLogger) logWithFields(human, level, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"%s","message":%q,"fields":"%v"}`, level, message, fields)
		return
	}
	if len(fields) == 0 {
		log.Printf("[%s] %s", human, message)
		return
	}
	log.Printf("[%s] %s %v", human, message, fields)
}

// NopLogger discards everything; useful in tests.
type NopLogger struct{}

func (NopLogger) LogRequest(context.Context, RequestLog)                        {}
func (NopLogger) LogResponse(context.Context, ResponseLog)                      {}
func (NopLogger) LogError(context.Context, ErrorLog)                           {}
func (NopLogger) LogWarning(context.Context, string, map[string]interface{})   {}
func (NopLogger) LogInfo(context.Context, string, map[string]interface{})      {}

var _ Logger = (*DefaultLogger)(nil)
var _ Logger = NopLogger{}
