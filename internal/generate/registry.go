package generate

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Registry enforces "at most one live generation per entity". Starting a new
// attempt for an entity that already has one cancels the older attempt:
// the newest request always wins.
//
// Invariant: for any entity id the registry holds at most one token, and
// that token belongs to the most recently started attempt for that id.
type Registry struct {
	mu     sync.Mutex
	active map[uuid.UUID]*Token
}

func NewRegistry() *Registry {
	return &Registry{
		active: make(map[uuid.UUID]*Token),
	}
}

// Begin registers a new attempt for entityID, cancelling and replacing any
// older one. The returned token is the caller's handle for the whole
// attempt.
func (r *Registry) Begin(ctx context.Context, entityID uuid.UUID) *Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.active[entityID]; exists {
		old.Cancel()
	}
	tok := newToken(ctx, entityID)
	r.active[entityID] = tok
	return tok
}

// Finish unregisters tok if it is still the current attempt for its entity.
// Identity is compared, not just the entity id: a restart may have installed
// a newer token while the older call was still in flight, and the older
// call's completion must never evict the newer token.
func (r *Registry) Finish(tok *Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.active[tok.entityID]
	if !exists || current != tok {
		return false
	}
	delete(r.active, tok.entityID)
	tok.release()
	return true
}

// Cancel aborts the active attempt for entityID, if any.
func (r *Registry) Cancel(entityID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, exists := r.active[entityID]
	if !exists {
		return false
	}
	tok.Cancel()
	delete(r.active, entityID)
	return true
}

// CancelAll aborts every active attempt, returning how many were cancelled.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, tok := range r.active {
		tok.Cancel()
		delete(r.active, id)
		n++
	}
	return n
}

// IsActive reports whether an attempt is registered for entityID. The
// pending badge derives from this.
func (r *Registry) IsActive(entityID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.active[entityID]
	return exists
}

// ActiveCount returns the number of in-flight attempts.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
