package http_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vlmhttp "github.com/bkyoung/phototriage/internal/adapter/vlm/http"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := vlmhttp.DefaultRetryConfig()

	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 2*time.Second, config.InitialBackoff)
	assert.Equal(t, 30*time.Second, config.MaxBackoff)
	assert.Equal(t, 2.0, config.Multiplier)
}

func TestExponentialBackoff(t *testing.T) {
	config := vlmhttp.RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}

	tests := []struct {
		name    string
		attempt int
		minWait time.Duration
		maxWait time.Duration
	}{
		{"attempt 0", 0, 1500 * time.Millisecond, 2500 * time.Millisecond}, // 2s ± 25%
		{"attempt 1", 1, 3 * time.Second, 5 * time.Second},                 // 4s ± 25%
		{"attempt 2", 2, 6 * time.Second, 10 * time.Second},                // 8s ± 25%
		{"attempt 3", 3, 12 * time.Second, 20 * time.Second},               // 16s ± 25%
		{"attempt 4", 4, 22500 * time.Millisecond, 30 * time.Second},       // 30s (capped)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Run multiple times to verify jitter works
			for i := 0; i < 10; i++ {
				backoff := vlmhttp.ExponentialBackoff(tt.attempt, config)
				assert.GreaterOrEqual(t, backoff, tt.minWait, "backoff too short")
				assert.LessOrEqual(t, backoff, tt.maxWait, "backoff too long")
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit error should retry", vlmhttp.NewRateLimitError("gemini", "too many requests"), true},
		{"service unavailable should retry", vlmhttp.NewServiceUnavailableError("gemini", "overloaded"), true},
		{"timeout should retry", vlmhttp.NewTimeoutError("openai", "timed out"), true},
		{"authentication error should not retry", vlmhttp.NewAuthenticationError("gemini", "invalid key"), false},
		{"invalid request should not retry", vlmhttp.NewInvalidRequestError("gemini", "bad request"), false},
		{"model not found should not retry", vlmhttp.NewModelNotFoundError("openai", "no such model"), false},
		{"content filtered should not retry", vlmhttp.NewContentFilteredError("gemini", "blocked"), false},
		{"non-client error should not retry", errors.New("generic error"), false},
		{"nil error should not retry", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vlmhttp.ShouldRetry(tt.err))
		})
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return nil
	}

	config := vlmhttp.RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}

	err := vlmhttp.RetryWithBackoff(context.Background(), operation, config)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first attempt")
}

func TestRetryWithBackoff_RetryableError(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return vlmhttp.NewRateLimitError("test", "rate limited")
		}
		return nil
	}

	config := vlmhttp.RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}

	start := time.Now()
	err := vlmhttp.RetryWithBackoff(context.Background(), operation, config)
	duration := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should retry twice then succeed")
	assert.GreaterOrEqual(t, duration, 10*time.Millisecond, "should have backoff delays")
}

func TestRetryWithBackoff_NonRetryableError(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return vlmhttp.NewAuthenticationError("test", "invalid API key")
	}

	config := vlmhttp.RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}

	err := vlmhttp.RetryWithBackoff(context.Background(), operation, config)
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "should not retry non-retryable error")
	assert.Contains(t, err.Error(), "invalid API key")
}

func TestRetryWithBackoff_MaxRetriesExceeded(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return vlmhttp.NewServiceUnavailableError("test", "still overloaded")
	}

	config := vlmhttp.RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}

	err := vlmhttp.RetryWithBackoff(context.Background(), operation, config)
	require.Error(t, err)
	assert.Equal(t, 4, attempts, "should try once + 3 retries")
	assert.Contains(t, err.Error(), "still overloaded")
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return vlmhttp.NewRateLimitError("test", "rate limited")
	}

	config := vlmhttp.RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
		Multiplier:     2.0,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()

	err := vlmhttp.RetryWithBackoff(ctx, operation, config)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, attempts, 3, "should respect context cancellation")
}

func TestRetryWithBackoff_GenericError(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return errors.New("generic error")
	}

	config := vlmhttp.RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}

	err := vlmhttp.RetryWithBackoff(context.Background(), operation, config)
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "should not retry generic errors")
	assert.Equal(t, "generic error", err.Error())
}
