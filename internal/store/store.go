// Package store owns the in-memory collection of student results and its
// SQLite persistence. The orchestration layer always reads and writes
// entities through identity lookups here, never through copies it holds.
package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reportmate/comment-engine/internal/model"
)

// Store is the identity-keyed collection of student results. Single-user
// scale: a map and a mutex, no query layer.
type Store struct {
	mu      sync.RWMutex
	results map[uuid.UUID]*model.StudentResult
	logger  *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		results: make(map[uuid.UUID]*model.StudentResult),
		logger:  logger,
	}
}

// Get returns a copy-safe pointer to the entity, or false when it does not
// exist (e.g. the student was deleted while a generation was in flight).
func (s *Store) Get(id uuid.UUID) (*model.StudentResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	return r, ok
}

// Put inserts or replaces an entity.
func (s *Store) Put(r *model.StudentResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = time.Now()
	s.results[r.ID] = r
}

// Delete removes an entity. In-flight generations for it will no-op at
// apply time.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, id)
}

// List returns all entities ordered by student name, then id for stability.
func (s *Store) List() []*model.StudentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.StudentResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentName != out[j].StudentName {
			return out[i].StudentName < out[j].StudentName
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Len returns the number of stored entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// InputsSnapshot returns a deep copy of the entity's current inputs, safe to
// hold across suspension points.
func (s *Store) InputsSnapshot(id uuid.UUID) (model.GenerationInputs, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return model.GenerationInputs{}, false
	}
	return r.Inputs.Clone(), true
}

// UpdateInputs mutates the entity's inputs through fn under the store lock.
func (s *Store) UpdateInputs(id uuid.UUID, fn func(*model.GenerationInputs)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		return false
	}
	fn(&r.Inputs)
	r.UpdatedAt = time.Now()
	return true
}

// ApplyOutput writes a successful generation result and its snapshot onto
// the entity. Results are applied regardless of what the UI currently
// displays; they are only dropped when the entity no longer exists, in which
// case this is a safe no-op returning false.
func (s *Store) ApplyOutput(id uuid.UUID, out *model.GenerationOutput, snap *model.GenerationSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		s.logger.Warn("store.apply_output.entity_gone", "id", id)
		return false
	}
	r.Output = out
	r.Snapshot = snap
	r.WasGenerated = true
	r.UpdatedAt = time.Now()
	return true
}

// ApplyError writes a failed attempt's user-facing message onto the entity.
// The previous snapshot is cleared so the error state is not mistaken for a
// fresh result. No-op when the entity was deleted mid-flight.
func (s *Store) ApplyError(id uuid.UUID, modelName, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		s.logger.Warn("store.apply_error.entity_gone", "id", id)
		return false
	}
	r.Output = &model.GenerationOutput{
		Model:        modelName,
		ErrorMessage: message,
		GeneratedAt:  time.Now(),
	}
	r.Snapshot = nil
	r.WasGenerated = false
	r.UpdatedAt = time.Now()
	return true
}

// ApplyManualEdit overwrites the comment text with a hand-typed value,
// clearing the machine-generated markers and starting the transient Saved
// badge window.
func (s *Store) ApplyManualEdit(id uuid.UUID, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		return false
	}
	r.Output = &model.GenerationOutput{Text: text, GeneratedAt: time.Now()}
	r.WasGenerated = false
	r.Snapshot = nil
	r.ManualEditAt = time.Now()
	r.UpdatedAt = time.Now()
	return true
}
