package llm

import (
	"errors"
	"fmt"
	"time"

	"github.com/reportmate/comment-engine/internal/common"
)

// ProviderError is a typed provider failure. Quota errors carry the parsed
// retry-after suggestion when the provider embedded one, so callers never
// have to re-parse the raw message.
type ProviderError struct {
	StatusCode int
	Message    string
	Quota      bool
	RetryAfter time.Duration // 0 when the provider suggested nothing
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is classify quota failures through the common sentinel.
func (e *ProviderError) Unwrap() error {
	if e.Quota {
		return common.ErrQuotaExhausted
	}
	return nil
}

// RetryAfterHint extracts the provider-suggested backoff from an error
// chain, if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.RetryAfter > 0 {
		return pe.RetryAfter, true
	}
	return 0, false
}
