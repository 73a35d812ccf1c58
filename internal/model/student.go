package model

import (
	"time"

	"github.com/google/uuid"
)

// ObservationEntry is one dated, tagged journal note about a student.
type ObservationEntry struct {
	ID         uuid.UUID `json:"id"`
	Tag        string    `json:"tag"`
	Text       string    `json:"text"`
	RecordedAt time.Time `json:"recorded_at"`
}

// GenerationInputs are the fields the generation prompt is built from and the
// staleness comparison looks at. Anything added here must also be compared by
// the staleness tracker.
type GenerationInputs struct {
	Grade        *float64           `json:"grade,omitempty"`
	ContextNote  string             `json:"context_note,omitempty"`
	StatusTags   []string           `json:"status_tags,omitempty"`
	Observations []ObservationEntry `json:"observations,omitempty"`
}

// Clone returns a deep copy, safe to keep across later edits of the original.
func (in GenerationInputs) Clone() GenerationInputs {
	out := GenerationInputs{
		ContextNote: in.ContextNote,
	}
	if in.Grade != nil {
		g := *in.Grade
		out.Grade = &g
	}
	if len(in.StatusTags) > 0 {
		out.StatusTags = make([]string, len(in.StatusTags))
		copy(out.StatusTags, in.StatusTags)
	}
	if len(in.Observations) > 0 {
		out.Observations = make([]ObservationEntry, len(in.Observations))
		copy(out.Observations, in.Observations)
	}
	return out
}

// TokenUsage carries provider-reported token counts and the estimated cost.
type TokenUsage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd,omitempty"`
}

// GenerationOutput is the result of one generation attempt. Text and
// ErrorMessage are mutually exclusive.
type GenerationOutput struct {
	Text         string     `json:"text,omitempty"`
	Model        string     `json:"model,omitempty"`
	Usage        TokenUsage `json:"usage"`
	ErrorMessage string     `json:"error_message,omitempty"`
	GeneratedAt  time.Time  `json:"generated_at"`
}

// GenerationSnapshot freezes the generation-relevant inputs as they existed
// when a result was produced, together with the period that was targeted and
// the aggregation threshold in effect. It holds exactly the fields the
// staleness tracker compares.
type GenerationSnapshot struct {
	Inputs               GenerationInputs `json:"inputs"`
	Period               string           `json:"period"`
	AggregationThreshold int              `json:"aggregation_threshold"`
	TakenAt              time.Time        `json:"taken_at"`
}

// NewSnapshot deep-copies inputs so later edits never leak into the snapshot.
func NewSnapshot(inputs GenerationInputs, period string, threshold int) *GenerationSnapshot {
	return &GenerationSnapshot{
		Inputs:               inputs.Clone(),
		Period:               period,
		AggregationThreshold: threshold,
		TakenAt:              time.Now(),
	}
}

// StudentResult is one student's comment record for one reporting period.
// Output and Snapshot are written only by the generation coordinators; the
// rest is owned by the importing/editing layers.
type StudentResult struct {
	ID          uuid.UUID
	StudentName string
	Period      string
	Inputs      GenerationInputs

	Output       *GenerationOutput
	WasGenerated bool
	Snapshot     *GenerationSnapshot

	// ManualEditAt is set when the comment text was last typed by hand,
	// driving the transient Saved badge.
	ManualEditAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label is the human-readable identifier used in progress reporting and logs.
func (s *StudentResult) Label() string {
	if s.StudentName != "" {
		return s.StudentName
	}
	return s.ID.String()
}

// HasOutputText reports whether a non-error comment text is present,
// regardless of whether it was generated or typed manually.
func (s *StudentResult) HasOutputText() bool {
	return s.Output != nil && s.Output.Text != ""
}
