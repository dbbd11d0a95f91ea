// Package static provides a canned vision model client for tests and
// dry runs. No network calls are made and usage numbers are fixed, so
// cost accounting stays deterministic.
package static

import (
	"context"
	"strings"

	"github.com/bkyoung/phototriage/internal/usecase/agent"
)

// Client implements the ModelClient port with pre-determined responses.
type Client struct {
	model     string
	responses []cannedResponse
	fallback  string
	usage     agent.Usage
}

type cannedResponse struct {
	contains string
	text     string
}

// NewClient constructs a static Client. The default response is an empty
// JSON object; use WithResponse to register per-prompt answers.
func NewClient(model string) *Client {
	return &Client{
		model:    model,
		fallback: "{}",
		usage:    agent.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}
}

// WithResponse registers a response returned when the request prompt
// contains the given substring. Responses are checked in registration
// order and the first match wins.
func (c *Client) WithResponse(promptContains, response string) *Client {
	c.responses = append(c.responses, cannedResponse{contains: promptContains, text: response})
	return c
}

// WithFallback sets the response used when no registered prompt matches.
func (c *Client) WithFallback(response string) *Client {
	c.fallback = response
	return c
}

// WithUsage overrides the fixed usage attached to every response.
func (c *Client) WithUsage(usage agent.Usage) *Client {
	c.usage = usage
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Analyze returns the canned response matching the prompt.
func (c *Client) Analyze(ctx context.Context, req agent.Request) (*agent.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := c.fallback
	for _, canned := range c.responses {
		if strings.Contains(req.Prompt, canned.contains) {
			text = canned.text
			break
		}
	}

	return &agent.Response{Text: text, Usage: c.usage}, nil
}

var _ agent.ModelClient = (*Client)(nil)
