package generate

import (
	"time"

	"github.com/google/uuid"

	"github.com/reportmate/comment-engine/constants"
	"github.com/reportmate/comment-engine/internal/model"
	"github.com/reportmate/comment-engine/internal/staleness"
)

// savedBadgeWindow is how long the transient "saved" confirmation outranks
// the steady-state badge after a manual edit.
const savedBadgeWindow = 2 * time.Second

// Badge derives the freshness badge for an entity. An in-flight generation
// always wins; otherwise the badge reflects how the stored comment relates
// to the entity's current inputs.
func Badge(reg *Registry, e *model.StudentResult, currentPeriod string, currentThreshold int, now time.Time) constants.BadgeState {
	if e == nil {
		return constants.BadgeNone
	}
	if reg != nil && reg.IsActive(e.ID) {
		return constants.BadgePending
	}
	if !e.ManualEditAt.IsZero() && now.Sub(e.ManualEditAt) < savedBadgeWindow {
		return constants.BadgeSaved
	}
	if e.Output != nil && e.Output.ErrorMessage != "" {
		return constants.BadgeError
	}
	if e.WasGenerated {
		if staleness.IsStale(e, e.Inputs, currentPeriod, currentThreshold) {
			return constants.BadgeModified
		}
		return constants.BadgeGenerated
	}
	if e.HasOutputText() {
		return constants.BadgeValid
	}
	return constants.BadgeNone
}

// BadgeFor is the coordinator-bound convenience used by callers that only
// hold an ID.
func (c *Coordinator) BadgeFor(entityID uuid.UUID, currentPeriod string, now time.Time) constants.BadgeState {
	e, ok := c.store.Get(entityID)
	if !ok {
		return constants.BadgeNone
	}
	return Badge(c.registry, e, currentPeriod, c.threshold, now)
}
