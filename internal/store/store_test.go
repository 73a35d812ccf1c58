package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportmate/comment-engine/internal/model"
)

func newStudent(name string) *model.StudentResult {
	return &model.StudentResult{
		ID:          uuid.New(),
		StudentName: name,
		Period:      "2026-S1",
		Inputs: model.GenerationInputs{
			ContextNote: "context for " + name,
			StatusTags:  []string{"Effort"},
		},
	}
}

func TestPutGetDelete(t *testing.T) {
	st := NewStore(nil)
	s := newStudent("Alex")

	st.Put(s)
	assert.Equal(t, 1, st.Len())
	assert.False(t, s.CreatedAt.IsZero())

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "Alex", got.StudentName)

	st.Delete(s.ID)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
}

func TestListOrderedByName(t *testing.T) {
	st := NewStore(nil)
	st.Put(newStudent("Mira"))
	st.Put(newStudent("Alex"))
	st.Put(newStudent("Jonas"))

	list := st.List()
	require.Len(t, list, 3)
	assert.Equal(t, "Alex", list[0].StudentName)
	assert.Equal(t, "Jonas", list[1].StudentName)
	assert.Equal(t, "Mira", list[2].StudentName)
}

func TestInputsSnapshotIsIsolated(t *testing.T) {
	st := NewStore(nil)
	s := newStudent("Alex")
	st.Put(s)

	snap, ok := st.InputsSnapshot(s.ID)
	require.True(t, ok)

	st.UpdateInputs(s.ID, func(in *model.GenerationInputs) {
		in.ContextNote = "edited later"
		in.StatusTags[0] = "Homework"
	})

	assert.Equal(t, "context for Alex", snap.ContextNote)
	assert.Equal(t, []string{"Effort"}, snap.StatusTags)
}

func TestApplyOutputOnDeletedEntityIsNoOp(t *testing.T) {
	st := NewStore(nil)
	s := newStudent("Alex")
	st.Put(s)
	st.Delete(s.ID)

	out := &model.GenerationOutput{Text: "late result", GeneratedAt: time.Now()}
	applied := st.ApplyOutput(s.ID, out, model.NewSnapshot(s.Inputs, "2026-S1", 2))
	assert.False(t, applied)
	assert.Equal(t, 0, st.Len())
}

func TestApplyErrorClearsSnapshot(t *testing.T) {
	st := NewStore(nil)
	s := newStudent("Alex")
	st.Put(s)

	require.True(t, st.ApplyOutput(s.ID,
		&model.GenerationOutput{Text: "fine", GeneratedAt: time.Now()},
		model.NewSnapshot(s.Inputs, "2026-S1", 2)))

	require.True(t, st.ApplyError(s.ID, "test-model", "it broke"))

	got, _ := st.Get(s.ID)
	assert.False(t, got.WasGenerated)
	assert.Nil(t, got.Snapshot)
	assert.Equal(t, "it broke", got.Output.ErrorMessage)
	assert.Empty(t, got.Output.Text)
}

func TestApplyManualEdit(t *testing.T) {
	st := NewStore(nil)
	s := newStudent("Alex")
	st.Put(s)

	require.True(t, st.ApplyOutput(s.ID,
		&model.GenerationOutput{Text: "machine text", GeneratedAt: time.Now()},
		model.NewSnapshot(s.Inputs, "2026-S1", 2)))

	require.True(t, st.ApplyManualEdit(s.ID, "teacher's own words"))

	got, _ := st.Get(s.ID)
	assert.Equal(t, "teacher's own words", got.Output.Text)
	assert.False(t, got.WasGenerated, "hand-typed text is not machine output")
	assert.Nil(t, got.Snapshot)
	assert.False(t, got.ManualEditAt.IsZero())

	assert.False(t, st.ApplyManualEdit(uuid.New(), "nobody home"))
}
