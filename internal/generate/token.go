package generate

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Token represents one in-flight generation attempt for one entity. It is
// owned by the registry entry for that entity while active; superseded
// tokens are cancelled and abandoned, never reused.
type Token struct {
	entityID uuid.UUID
	ctx      context.Context
	cancel   context.CancelFunc
	flagged  atomic.Bool
}

func newToken(parent context.Context, entityID uuid.UUID) *Token {
	ctx, cancel := context.WithCancel(parent)
	return &Token{entityID: entityID, ctx: ctx, cancel: cancel}
}

// Context is the cancellation signal to pass into every awaitable operation
// of this attempt: the generation call and any rate-limit sleeps.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Cancel marks the attempt as superseded. The underlying call keeps running
// until its next suspension point; its result is discarded.
func (t *Token) Cancel() {
	t.flagged.Store(true)
	t.cancel()
}

// Cancelled reports whether this attempt's result must be discarded, either
// because a restart superseded it or because the surrounding context ended.
func (t *Token) Cancelled() bool {
	return t.flagged.Load() || t.ctx.Err() != nil
}

// EntityID identifies the entity this attempt belongs to.
func (t *Token) EntityID() uuid.UUID {
	return t.entityID
}

// release frees the context resources of a finished token.
func (t *Token) release() {
	t.cancel()
}
