package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrCancelled))
	assert.True(t, IsCancelled(context.Canceled))
	assert.True(t, IsCancelled(fmt.Errorf("wrapped: %w", ErrCancelled)))
	assert.False(t, IsCancelled(context.DeadlineExceeded))
	assert.False(t, IsCancelled(errors.New("something else")))
	assert.False(t, IsCancelled(nil))
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, IsQuotaError(ErrQuotaExhausted))
	assert.True(t, IsQuotaError(fmt.Errorf("call failed: %w", ErrQuotaExhausted)))

	// Raw provider messages with no typed error.
	assert.True(t, IsQuotaError(errors.New("Rate limit reached for gpt-4o-mini")))
	assert.True(t, IsQuotaError(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, IsQuotaError(errors.New("RESOURCE_EXHAUSTED: quota exceeded")))
	assert.True(t, IsQuotaError(errors.New("you are being rate-limited")))

	assert.False(t, IsQuotaError(errors.New("invalid api key")))
	assert.False(t, IsQuotaError(nil))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(ErrQuotaExhausted), "rate limit was reached")
	assert.Contains(t, UserMessage(context.DeadlineExceeded), "took too long")
	assert.Contains(t, UserMessage(ErrEntityNotFound), "no longer exists")
	assert.Contains(t, UserMessage(errors.New("schema mismatch")), "Generation failed: schema mismatch")
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewAppError("CONFIG_ERROR", "bad threshold", ErrInvalidInput)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "CONFIG_ERROR")
	assert.Contains(t, err.Error(), "bad threshold")
}
