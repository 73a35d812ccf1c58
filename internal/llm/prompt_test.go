package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserPromptOmitsAbsentFields(t *testing.T) {
	req := CommentRequest{StudentName: "Alex", Period: "2026-S1"}
	p := BuildUserPrompt(req)

	assert.Contains(t, p, "Student: Alex")
	assert.Contains(t, p, "Reporting period: 2026-S1")
	assert.NotContains(t, p, "Overall grade")
	assert.NotContains(t, p, "Status tags")
	assert.NotContains(t, p, "Journal notes")
	assert.NotContains(t, p, "Teacher context")
}

func TestBuildUserPromptFullInputs(t *testing.T) {
	grade := 2.0
	req := CommentRequest{
		StudentName: "Alex",
		Period:      "2026-S1",
		Grade:       &grade,
		ContextNote: "moved here in January",
		StatusTags:  []string{"Homework", "Effort"},
		ActiveTags:  []string{"Homework"},
		Notes:       []string{"forgot workbook", "", "late again"},
	}
	p := BuildUserPrompt(req)

	assert.Contains(t, p, "Overall grade: 2.0")
	assert.Contains(t, p, "Status tags: Homework, Effort")
	assert.Contains(t, p, "Recurring journal themes: Homework")
	assert.Contains(t, p, "Teacher context: moved here in January")
	assert.Contains(t, p, "- forgot workbook")
	assert.Contains(t, p, "- late again")
	assert.Equal(t, 2, strings.Count(p, "\n- "), "empty notes are skipped")
}

func TestBuildSystemPromptDefaults(t *testing.T) {
	p := BuildSystemPrompt(CommentRequest{})
	assert.Contains(t, p, "English")
	assert.Contains(t, p, "120 words")
	assert.Contains(t, p, "ONLY JSON")
}

func TestBuildSystemPromptOverrides(t *testing.T) {
	p := BuildSystemPrompt(CommentRequest{Language: "German", MaxWords: 80})
	assert.Contains(t, p, "German")
	assert.Contains(t, p, "80 words")
	assert.NotContains(t, p, "120 words")
}
