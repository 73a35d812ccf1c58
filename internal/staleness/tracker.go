// Package staleness decides whether a previously generated comment still
// matches the inputs it was generated from. The comparison runs on every
// render, so it works on small value types and allocates little.
package staleness

import (
	"math"
	"sort"
	"strings"

	"github.com/reportmate/comment-engine/internal/model"
)

// IsStale classifies a cached generation result against the entity's current
// inputs. It returns false for anything that was never machine-generated,
// and false when the snapshot targets a different period than the one being
// viewed: browsing other periods must never raise a stale warning.
func IsStale(e *model.StudentResult, current model.GenerationInputs, currentPeriod string, currentThreshold int) bool {
	if e == nil || !e.WasGenerated || e.Snapshot == nil {
		return false
	}
	snap := e.Snapshot
	if snap.Period != currentPeriod {
		return false
	}

	if !equalTagSets(snap.Inputs.StatusTags, current.StatusTags) {
		return true
	}
	if !equalGrades(snap.Inputs.Grade, current.Grade) {
		return true
	}
	if strings.TrimSpace(snap.Inputs.ContextNote) != strings.TrimSpace(current.ContextNote) {
		return true
	}
	if notesKey(snap.Inputs.Observations) != notesKey(current.Observations) {
		return true
	}

	// A tag crossing the aggregation threshold in either direction counts
	// as drift even if no single observation changed. Both sets are derived
	// from the current observations: once under the threshold recorded at
	// generation time, once under the threshold in effect now.
	then := activeTags(current.Observations, snap.AggregationThreshold)
	now := activeTags(current.Observations, currentThreshold)
	return !equalTagSets(then, now)
}

// ActiveTags reports which observation tags occur at least threshold times.
// The generation prompt and the staleness comparison share this definition.
func ActiveTags(observations []model.ObservationEntry, threshold int) []string {
	return activeTags(observations, threshold)
}

func activeTags(observations []model.ObservationEntry, threshold int) []string {
	if threshold < 1 {
		threshold = 1
	}
	counts := make(map[string]int)
	for _, obs := range observations {
		tag := strings.TrimSpace(obs.Tag)
		if tag == "" {
			continue
		}
		counts[tag]++
	}
	var active []string
	for tag, n := range counts {
		if n >= threshold {
			active = append(active, tag)
		}
	}
	sort.Strings(active)
	return active
}

// equalTagSets compares two tag lists as sorted sets.
func equalTagSets(a, b []string) bool {
	as := normalizeSet(a)
	bs := normalizeSet(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func normalizeSet(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// equalGrades treats absent and NaN as the same "no grade" value; only a
// genuine numeric difference counts.
func equalGrades(a, b *float64) bool {
	an, aok := normalizeGrade(a)
	bn, bok := normalizeGrade(b)
	if aok != bok {
		return false
	}
	if !aok {
		return true
	}
	return an == bn
}

func normalizeGrade(g *float64) (float64, bool) {
	if g == nil || math.IsNaN(*g) {
		return 0, false
	}
	return *g, true
}

// notesKey reduces a set of observations to an order-insensitive comparison
// key over the non-empty note texts.
func notesKey(observations []model.ObservationEntry) string {
	texts := make([]string, 0, len(observations))
	for _, obs := range observations {
		t := strings.TrimSpace(obs.Text)
		if t == "" {
			continue
		}
		texts = append(texts, t)
	}
	sort.Strings(texts)
	return strings.Join(texts, "\x1f")
}
