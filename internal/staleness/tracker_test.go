package staleness

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/reportmate/comment-engine/internal/model"
)

func gradePtr(g float64) *float64 { return &g }

func obs(tag, text string) model.ObservationEntry {
	return model.ObservationEntry{ID: uuid.New(), Tag: tag, Text: text, RecordedAt: time.Now()}
}

func generatedEntity(inputs model.GenerationInputs, period string, threshold int) *model.StudentResult {
	return &model.StudentResult{
		ID:           uuid.New(),
		StudentName:  "Alex",
		Period:       period,
		Inputs:       inputs,
		WasGenerated: true,
		Snapshot:     model.NewSnapshot(inputs, period, threshold),
	}
}

func TestFreshImmediatelyAfterGeneration(t *testing.T) {
	inputs := model.GenerationInputs{
		Grade:       gradePtr(2.0),
		ContextNote: "new to the school",
		StatusTags:  []string{"Homework", "Participation"},
		Observations: []model.ObservationEntry{
			obs("Participation", "asked good questions"),
		},
	}
	e := generatedEntity(inputs, "2026-S1", 2)

	assert.False(t, IsStale(e, inputs, "2026-S1", 2))
}

func TestNeverGeneratedIsNeverStale(t *testing.T) {
	inputs := model.GenerationInputs{ContextNote: "typed by hand"}
	e := &model.StudentResult{ID: uuid.New(), Inputs: inputs}

	assert.False(t, IsStale(e, inputs, "2026-S1", 2))
	assert.False(t, IsStale(nil, inputs, "2026-S1", 2))
}

func TestDifferentPeriodIsNotStale(t *testing.T) {
	inputs := model.GenerationInputs{ContextNote: "steady progress"}
	e := generatedEntity(inputs, "2026-S1", 2)

	changed := inputs.Clone()
	changed.ContextNote = "completely different"

	// Browsing another period must not raise the warning even though the
	// inputs drifted.
	assert.False(t, IsStale(e, changed, "2026-S2", 2))
	assert.True(t, IsStale(e, changed, "2026-S1", 2))
}

func TestContextNoteDrift(t *testing.T) {
	inputs := model.GenerationInputs{ContextNote: "joined the chess club"}
	e := generatedEntity(inputs, "2026-S1", 2)

	changed := inputs.Clone()
	changed.ContextNote = "left the chess club"
	assert.True(t, IsStale(e, changed, "2026-S1", 2))

	// Whitespace-only differences do not count.
	padded := inputs.Clone()
	padded.ContextNote = "  joined the chess club \n"
	assert.False(t, IsStale(e, padded, "2026-S1", 2))
}

func TestTagSetComparisonIgnoresOrderAndDuplicates(t *testing.T) {
	inputs := model.GenerationInputs{StatusTags: []string{"Homework", "Effort"}}
	e := generatedEntity(inputs, "2026-S1", 2)

	reordered := model.GenerationInputs{StatusTags: []string{"Effort", "Homework", "Effort"}}
	assert.False(t, IsStale(e, reordered, "2026-S1", 2))

	extra := model.GenerationInputs{StatusTags: []string{"Effort", "Homework", "Attendance"}}
	assert.True(t, IsStale(e, extra, "2026-S1", 2))
}

func TestGradeComparison(t *testing.T) {
	t.Run("absent and NaN are the same no-grade", func(t *testing.T) {
		inputs := model.GenerationInputs{}
		e := generatedEntity(inputs, "2026-S1", 2)

		nan := model.GenerationInputs{Grade: gradePtr(math.NaN())}
		assert.False(t, IsStale(e, nan, "2026-S1", 2))
	})

	t.Run("numeric change is drift", func(t *testing.T) {
		inputs := model.GenerationInputs{Grade: gradePtr(2.0)}
		e := generatedEntity(inputs, "2026-S1", 2)

		changed := model.GenerationInputs{Grade: gradePtr(2.5)}
		assert.True(t, IsStale(e, changed, "2026-S1", 2))
	})

	t.Run("grade appearing is drift", func(t *testing.T) {
		inputs := model.GenerationInputs{}
		e := generatedEntity(inputs, "2026-S1", 2)

		appeared := model.GenerationInputs{Grade: gradePtr(4.0)}
		assert.True(t, IsStale(e, appeared, "2026-S1", 2))
	})
}

func TestNoteTextsCompareAsUnorderedSet(t *testing.T) {
	inputs := model.GenerationInputs{Observations: []model.ObservationEntry{
		obs("Effort", "finished early"),
		obs("Homework", "forgot workbook"),
	}}
	e := generatedEntity(inputs, "2026-S1", 2)

	reordered := model.GenerationInputs{Observations: []model.ObservationEntry{
		obs("Homework", "forgot workbook"),
		obs("Effort", "finished early"),
	}}
	assert.False(t, IsStale(e, reordered, "2026-S1", 2))

	edited := model.GenerationInputs{Observations: []model.ObservationEntry{
		obs("Homework", "forgot workbook"),
		obs("Effort", "finished late"),
	}}
	assert.True(t, IsStale(e, edited, "2026-S1", 2))
}

func TestAggregatedTagThresholdDrift(t *testing.T) {
	// Two "Homework" notes: active under threshold 2, inactive under 3.
	observations := []model.ObservationEntry{
		obs("Homework", "forgot workbook"),
		obs("Homework", "late again"),
	}
	inputs := model.GenerationInputs{Observations: observations}
	e := generatedEntity(inputs, "2026-S1", 2)

	// Same observations, same threshold: fresh.
	assert.False(t, IsStale(e, inputs, "2026-S1", 2))

	// Threshold raised to 3: Homework drops out of the active set even
	// though not a single note changed.
	assert.True(t, IsStale(e, inputs, "2026-S1", 3))
}

func TestActiveTags(t *testing.T) {
	observations := []model.ObservationEntry{
		obs("Homework", "a"),
		obs("Homework", "b"),
		obs("Participation", "c"),
		obs("", "untagged"),
	}

	assert.Equal(t, []string{"Homework"}, ActiveTags(observations, 2))
	assert.Equal(t, []string{"Homework", "Participation"}, ActiveTags(observations, 1))
	assert.Empty(t, ActiveTags(observations, 3))

	// Threshold below one is clamped, not treated as match-everything.
	assert.Equal(t, []string{"Homework", "Participation"}, ActiveTags(observations, 0))
}
