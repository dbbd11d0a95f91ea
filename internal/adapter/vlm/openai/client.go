// Package openai implements a vision model client over any
// OpenAI-compatible chat completions endpoint, including Gemini's
// compatibility layer and local Ollama deployments.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	vlmhttp "github.com/bkyoung/phototriage/internal/adapter/vlm/http"
	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// Config holds client configuration.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int
	Retry     vlmhttp.RetryConfig

	// Per-1K-token rates used to price calls in logs and metrics.
	// Zero rates record zero cost.
	InputCostPer1K  float64
	OutputCostPer1K float64
}

// Client calls an OpenAI-compatible vision endpoint.
type Client struct {
	api      *openai.Client
	apiKey   string
	model    string
	timeout  time.Duration
	max      int
	retry    vlmhttp.RetryConfig
	inPer1K  float64
	outPer1K float64
	logger   vlmhttp.Logger
	metrics  vlmhttp.Metrics
}

// NewClient creates a vision client from config. A nil logger or metrics
// falls back to no-op implementations.
func NewClient(cfg Config, logger vlmhttp.Logger, metrics vlmhttp.Metrics) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("creating vision client: API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("creating vision client: model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.InitialBackoff == 0 {
		retry = vlmhttp.DefaultRetryConfig()
	}
	if logger == nil {
		logger = vlmhttp.NopLogger{}
	}
	if metrics == nil {
		metrics = vlmhttp.NewDefaultMetrics()
	}

	return &Client{
		api:      openai.NewClientWithConfig(clientConfig),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		timeout:  timeout,
		max:      cfg.MaxTokens,
		retry:    retry,
		inPer1K:  cfg.InputCostPer1K,
		outPer1K: cfg.OutputCostPer1K,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Analyze sends the prompt and image to the model and returns the text
// response with token usage. Retryable failures are retried with
// exponential backoff; the per-call timeout applies to each attempt.
func (c *Client) Analyze(ctx context.Context, req agent.Request) (*agent.Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	start := time.Now()
	c.logger.LogRequest(ctx, vlmhttp.RequestLog{
		Agent:       req.Agent,
		Model:       model,
		ImageID:     req.ImageID,
		Timestamp:   start,
		PromptChars: len(req.Prompt),
		ImageBytes:  len(req.Image),
		APIKey:      c.apiKey,
	})
	c.metrics.RecordRequest(req.Agent, model)

	encoded := base64.StdEncoding.EncodeToString(req.Image)
	chatReq := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: c.max,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: req.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    fmt.Sprintf("data:%s;base64,%s", req.MimeType, encoded),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	var resp openai.ChatCompletionResponse
	operation := func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var err error
		resp, err = c.api.CreateChatCompletion(callCtx, chatReq)
		if err != nil {
			return c.classifyError(callCtx, err)
		}
		return nil
	}

	if err := vlmhttp.RetryWithBackoff(ctx, operation, c.retry); err != nil {
		c.recordFailure(ctx, req, model, time.Since(start), err)
		return nil, err
	}

	if len(resp.Choices) == 0 {
		err := vlmhttp.NewInvalidRequestError("openai", "response contained no choices")
		c.recordFailure(ctx, req, model, time.Since(start), err)
		return nil, err
	}

	duration := time.Since(start)
	cost := float64(resp.Usage.PromptTokens)/1000*c.inPer1K +
		float64(resp.Usage.CompletionTokens)/1000*c.outPer1K

	c.logger.LogResponse(ctx, vlmhttp.ResponseLog{
		Agent:     req.Agent,
		Model:     model,
		ImageID:   req.ImageID,
		Timestamp: time.Now(),
		Duration:  duration,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
		Cost:      cost,
	})
	c.metrics.RecordDuration(req.Agent, model, duration)
	c.metrics.RecordTokens(req.Agent, model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	c.metrics.RecordCost(req.Agent, model, cost)

	return &agent.Response{
		Text: resp.Choices[0].Message.Content,
		Usage: agent.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// recordFailure emits the error to the logger and metrics, extracting
// the typed error details when present.
func (c *Client) recordFailure(ctx context.Context, req agent.Request, model string, duration time.Duration, err error) {
	errType := vlmhttp.ErrTypeUnknown
	retryable := false
	var typed *vlmhttp.Error
	if errors.As(err, &typed) {
		errType = typed.Type
		retryable = typed.Retryable
	}

	c.logger.LogError(ctx, vlmhttp.ErrorLog{
		Agent:     req.Agent,
		Model:     model,
		ImageID:   req.ImageID,
		Timestamp: time.Now(),
		Duration:  duration,
		Error:     err,
		ErrorType: errType,
		Retryable: retryable,
	})
	c.metrics.RecordError(req.Agent, model, errType)
}

// classifyError maps transport and API errors onto the typed error
// taxonomy so the retry layer can decide what is worth retrying.
func (c *Client) classifyError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return vlmhttp.NewTimeoutError("openai", "request timed out")
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := vlmhttp.RedactURLSecrets(apiErr.Message)
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return vlmhttp.NewAuthenticationError("openai", msg)
		case http.StatusTooManyRequests:
			return vlmhttp.NewRateLimitError("openai", msg)
		case http.StatusNotFound:
			return vlmhttp.NewModelNotFoundError("openai", msg)
		case http.StatusBadRequest:
			if apiErr.Code == "content_filter" {
				return vlmhttp.NewContentFilteredError("openai", msg)
			}
			return vlmhttp.NewInvalidRequestError("openai", msg)
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return vlmhttp.NewServiceUnavailableError("openai", msg)
		default:
			return &vlmhttp.Error{
				Type:       vlmhttp.ErrTypeUnknown,
				Message:    msg,
				StatusCode: apiErr.HTTPStatusCode,
				Retryable:  false,
				Provider:   "openai",
			}
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := vlmhttp.RedactURLSecrets(reqErr.Error())
		if reqErr.HTTPStatusCode >= 500 {
			return vlmhttp.NewServiceUnavailableError("openai", msg)
		}
		return vlmhttp.NewInvalidRequestError("openai", msg)
	}

	// Network-level failures are worth retrying.
	return vlmhttp.NewServiceUnavailableError("openai", vlmhttp.RedactURLSecrets(err.Error()))
}

var _ agent.ModelClient = (*Client)(nil)
