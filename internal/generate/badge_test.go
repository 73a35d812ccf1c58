package generate

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportmate/comment-engine/constants"
	"github.com/reportmate/comment-engine/internal/model"
)

func TestBadgeStates(t *testing.T) {
	now := time.Now()
	reg := NewRegistry()

	t.Run("nil entity", func(t *testing.T) {
		assert.Equal(t, constants.BadgeNone, Badge(reg, nil, "2026-S1", 2, now))
	})

	t.Run("empty entity", func(t *testing.T) {
		e := &model.StudentResult{ID: uuid.New()}
		assert.Equal(t, constants.BadgeNone, Badge(reg, e, "2026-S1", 2, now))
	})

	t.Run("pending wins over everything", func(t *testing.T) {
		e := &model.StudentResult{
			ID:           uuid.New(),
			WasGenerated: true,
			Output:       &model.GenerationOutput{Text: "old comment"},
			ManualEditAt: now,
		}
		tok := reg.Begin(context.Background(), e.ID)
		assert.Equal(t, constants.BadgePending, Badge(reg, e, "2026-S1", 2, now))

		reg.Finish(tok)
		assert.NotEqual(t, constants.BadgePending, Badge(reg, e, "2026-S1", 2, now))
	})

	t.Run("saved is transient", func(t *testing.T) {
		e := &model.StudentResult{
			ID:           uuid.New(),
			Output:       &model.GenerationOutput{Text: "typed by hand"},
			ManualEditAt: now.Add(-time.Second),
		}
		assert.Equal(t, constants.BadgeSaved, Badge(reg, e, "2026-S1", 2, now))

		later := now.Add(5 * time.Second)
		assert.Equal(t, constants.BadgeValid, Badge(reg, e, "2026-S1", 2, later))
	})

	t.Run("error", func(t *testing.T) {
		e := &model.StudentResult{
			ID:     uuid.New(),
			Output: &model.GenerationOutput{ErrorMessage: "something broke"},
		}
		assert.Equal(t, constants.BadgeError, Badge(reg, e, "2026-S1", 2, now))
	})

	t.Run("generated and fresh", func(t *testing.T) {
		inputs := model.GenerationInputs{ContextNote: "steady"}
		e := &model.StudentResult{
			ID:           uuid.New(),
			Inputs:       inputs,
			WasGenerated: true,
			Output:       &model.GenerationOutput{Text: "generated comment"},
			Snapshot:     model.NewSnapshot(inputs, "2026-S1", 2),
		}
		assert.Equal(t, constants.BadgeGenerated, Badge(reg, e, "2026-S1", 2, now))
	})

	t.Run("generated then inputs drifted", func(t *testing.T) {
		inputs := model.GenerationInputs{ContextNote: "steady"}
		e := &model.StudentResult{
			ID:           uuid.New(),
			Inputs:       model.GenerationInputs{ContextNote: "changed since"},
			WasGenerated: true,
			Output:       &model.GenerationOutput{Text: "generated comment"},
			Snapshot:     model.NewSnapshot(inputs, "2026-S1", 2),
		}
		assert.Equal(t, constants.BadgeModified, Badge(reg, e, "2026-S1", 2, now))

		// Viewed from another period the drift is invisible.
		assert.Equal(t, constants.BadgeGenerated, Badge(reg, e, "2026-S2", 2, now))
	})

	t.Run("manual text without generation", func(t *testing.T) {
		e := &model.StudentResult{
			ID:     uuid.New(),
			Output: &model.GenerationOutput{Text: "hand-written"},
		}
		assert.Equal(t, constants.BadgeValid, Badge(reg, e, "2026-S1", 2, now))
	})
}

func TestCoordinatorBadgeFor(t *testing.T) {
	f := newCoordFixture(t, staticResult("generated"))
	id := f.addStudent("Alex")

	assert.Equal(t, constants.BadgeNone, f.coord.BadgeFor(id, "2026-S1", time.Now()))

	_, err := f.coord.Generate(context.Background(), id, "2026-S1")
	require.NoError(t, err)
	assert.Equal(t, constants.BadgeGenerated, f.coord.BadgeFor(id, "2026-S1", time.Now()))

	// Editing an input after generation flips the badge to modified.
	f.store.UpdateInputs(id, func(in *model.GenerationInputs) {
		in.ContextNote = "changed after generation"
	})
	assert.Equal(t, constants.BadgeModified, f.coord.BadgeFor(id, "2026-S1", time.Now()))

	assert.Equal(t, constants.BadgeNone, f.coord.BadgeFor(uuid.New(), "2026-S1", time.Now()))
}
