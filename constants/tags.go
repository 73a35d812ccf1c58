package constants

import (
	"strings"
)

// StatusTag is a canonical per-student status marker teachers attach to a
// report period. The generation prompt and the staleness comparison both treat
// these as an unordered set.
type StatusTag string

const (
	TagParticipation  StatusTag = "Participation"
	TagHomework       StatusTag = "Homework"
	TagAttendance     StatusTag = "Attendance"
	TagTeamwork       StatusTag = "Teamwork"
	TagEffort         StatusTag = "Effort"
	TagOrganization   StatusTag = "Organization"
	TagIndependence   StatusTag = "Independence"
	TagSocialBehavior StatusTag = "SocialBehavior"
	TagSupportNeeded  StatusTag = "SupportNeeded"
	TagOtherTag       StatusTag = "Other"
)

var allTags = []StatusTag{
	TagParticipation,
	TagHomework,
	TagAttendance,
	TagTeamwork,
	TagEffort,
	TagOrganization,
	TagIndependence,
	TagSocialBehavior,
	TagSupportNeeded,
	TagOtherTag,
}

func TagsAsStringSlice() []string {
	result := make([]string, len(allTags))
	for i, tag := range allTags {
		result[i] = string(tag)
	}
	return result
}

// CanonicalizeTag maps free-form tag input (roster imports, journal entries)
// onto the canonical set. Unknown input maps to Other.
func CanonicalizeTag(input string) (StatusTag, bool) {
	if input == "" {
		return TagOtherTag, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]StatusTag{
		"participates":  TagParticipation,
		"contribution":  TagParticipation,
		"hw":            TagHomework,
		"assignments":   TagHomework,
		"absent":        TagAttendance,
		"late":          TagAttendance,
		"group work":    TagTeamwork,
		"collaboration": TagTeamwork,
		"motivation":    TagEffort,
		"tidiness":      TagOrganization,
		"self-reliance": TagIndependence,
		"conduct":       TagSocialBehavior,
		"behavior":      TagSocialBehavior,
		"support":       TagSupportNeeded,
	}

	if tag, ok := synonyms[normalized]; ok {
		return tag, true
	}

	// check if it matches any canonical tag string
	for _, tag := range allTags {
		if normalized == strings.ToLower(string(tag)) {
			return tag, true
		}
	}

	return TagOtherTag, false
}
