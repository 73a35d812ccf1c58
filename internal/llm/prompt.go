package llm

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt composes the system message: role, tone constraints, and
// strict formatting rules for the structured JSON reply.
func BuildSystemPrompt(req CommentRequest) string {
	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = "English"
	}
	maxWords := req.MaxWords
	if maxWords <= 0 {
		maxWords = 120
	}

	parts := []string{
		"You are an experienced teacher writing report-card comments. Return ONLY JSON that matches the provided JSON Schema.",
		"Write the comment in " + lang + ".",
		fmt.Sprintf("Target length: %d words or fewer. Two to four sentences.", maxWords),
		"Address the student's strengths first, then areas to develop, in a warm, professional register suitable for parents.",
		"Base the comment strictly on the provided grade, status tags, journal notes, and teacher context. Never invent incidents or achievements.",
		"Do not mention the grade as a number; paraphrase the performance level instead.",
		"Never include the student's surname, dates, or names of other students.",

		// Formatting hygiene:
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the entity's generation-relevant inputs. Fields
// that are absent are left out entirely so the model cannot anchor on empty
// placeholders.
func BuildUserPrompt(req CommentRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Student: %s\n", strings.TrimSpace(req.StudentName))
	fmt.Fprintf(&b, "Reporting period: %s\n", req.Period)

	if req.Grade != nil {
		fmt.Fprintf(&b, "Overall grade: %.1f (scale 1 best .. 6 worst)\n", *req.Grade)
	}
	if tags := joinClean(req.StatusTags); tags != "" {
		fmt.Fprintf(&b, "Status tags: %s\n", tags)
	}
	if tags := joinClean(req.ActiveTags); tags != "" {
		fmt.Fprintf(&b, "Recurring journal themes: %s\n", tags)
	}
	if note := strings.TrimSpace(req.ContextNote); note != "" {
		fmt.Fprintf(&b, "Teacher context: %s\n", note)
	}
	if len(req.Notes) > 0 {
		b.WriteString("Journal notes:\n")
		for _, n := range req.Notes {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}

	b.WriteString("\nWrite the report comment for this student.")
	return b.String()
}

func joinClean(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			cleaned = append(cleaned, it)
		}
	}
	return strings.Join(cleaned, ", ")
}
