package llm

import (
	"context"

	"github.com/reportmate/comment-engine/internal/model"
)

// CommentRequest is the normalized input shape for one comment generation.
// The coordinators build it from the entity's inputs; the provider client
// turns it into a prompt.
type CommentRequest struct {
	StudentName string
	Period      string
	Grade       *float64
	ContextNote string
	StatusTags  []string
	Notes       []string // non-empty observation texts, oldest first
	ActiveTags  []string // journal tags meeting the aggregation threshold

	Language string // comment language hint, optional
	MaxWords int    // soft length target, 0 means provider default
}

// CommentResult is a successful generation outcome.
type CommentResult struct {
	Text       string
	Confidence float32 // model self-reported, 0 when absent
	Model      string
	Usage      model.TokenUsage
}

// Generator is the interface the orchestration layer depends on. The
// coordinators treat the call as opaque: it may block until ctx fires,
// return a ProviderError, or succeed.
type Generator interface {
	GenerateComment(ctx context.Context, req CommentRequest) (CommentResult, error)
}

// GeneratorFunc adapts a plain function to the Generator interface,
// convenient for tests.
type GeneratorFunc func(ctx context.Context, req CommentRequest) (CommentResult, error)

func (f GeneratorFunc) GenerateComment(ctx context.Context, req CommentRequest) (CommentResult, error) {
	return f(ctx, req)
}
