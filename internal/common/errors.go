package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Generation error taxonomy. Cancellation is absorbed at the coordinator
// boundary and never shown to the user; quota errors trigger backoff; other
// errors end up in the entity's error field.
var (
	ErrCancelled      = errors.New("generation cancelled")
	ErrQuotaExhausted = errors.New("provider quota exhausted")
	ErrEntityNotFound = errors.New("entity not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCancelled reports whether err represents a cooperative cancellation,
// either through the sentinel or through context plumbing.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsQuotaError classifies provider throttling. The sentinel covers typed
// errors from our own client; the string heuristics cover raw provider
// messages, whose grammar is not a stable contract.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate-limited") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429")
}

// UserMessage translates an internal error into the text written onto the
// entity's error field. Raw provider payloads are not shown verbatim.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsQuotaError(err):
		return "The provider rejected the request because the rate limit was reached. Try again in a moment."
	case errors.Is(err, context.DeadlineExceeded):
		return "The generation took too long and was stopped. Try again."
	case errors.Is(err, ErrEntityNotFound):
		return "This student no longer exists."
	default:
		return "Generation failed: " + err.Error()
	}
}
