package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestExponentialBackoff(t *testing.T) {
	config := RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     8 * time.Second,
		Multiplier:     2.0,
	}

	for attempt := 0; attempt < 10; attempt++ {
		backoff := ExponentialBackoff(attempt, config)
		assert.GreaterOrEqual(t, backoff, time.Duration(0), "backoff must not be negative")
		assert.LessOrEqual(t, backoff, config.MaxBackoff, "backoff must not exceed the cap")
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"retryable error", NewRateLimitError("test", "slow down"), true},
		{"service unavailable", NewServiceUnavailableError("test", "down"), true},
		{"non-retryable error", NewAuthenticationError("test", "bad key"), false},
		{"generic error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(tt.err))
		})
	}
}

func TestRetryWithBackoff_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return NewServiceUnavailableError("test", "not yet")
		}
		return nil
	}

	err := RetryWithBackoff(context.Background(), operation, testRetryConfig())

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return NewAuthenticationError("test", "bad key")
	}

	err := RetryWithBackoff(context.Background(), operation, testRetryConfig())

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return NewRateLimitError("test", "always")
	}

	config := testRetryConfig()
	err := RetryWithBackoff(context.Background(), operation, config)

	require.Error(t, err)
	assert.Equal(t, config.MaxRetries+1, attempts)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	operation := func(ctx context.Context) error {
		return NewRateLimitError("test", "never reached")
	}

	err := RetryWithBackoff(ctx, operation, testRetryConfig())

	require.ErrorIs(t, err, context.Canceled)
}

func TestErrorString(t *testing.T) {
	err := NewRateLimitError("ollama", "too many requests")
	assert.Contains(t, err.Error(), "ollama")
	assert.Contains(t, err.Error(), "rate limit exceeded")
	assert.Contains(t, err.Error(), "too many requests")
}

func TestErrorIs(t *testing.T) {
	err := NewTimeoutError("openai", "request timed out")
	assert.True(t, errors.Is(err, &Error{Type: ErrTypeTimeout}))
	assert.False(t, errors.Is(err, &Error{Type: ErrTypeRateLimit}))
}
