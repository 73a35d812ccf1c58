package ratelimit

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Provider error strings are not a stable contract, so parsing is
// best-effort: a few grammars seen in the wild, with no fallback guess.
// Callers keep their own fallback constant.
var (
	// "retry after 2000ms", "Retry-After: 7", "retry_delay: 12s",
	// "please try again in 20s"
	phrasePattern = regexp.MustCompile(`(?i)(?:retry[-_ ]?after|retry[-_ ]?delay|try again in)\s*:?\s*(\d+(?:\.\d+)?)\s*(ms|milliseconds?|s|secs?|seconds?|m|mins?|minutes?)?`)

	// Gemini-style JSON detail: "retryDelay":"8s"
	jsonPattern = regexp.MustCompile(`"retry_?[Dd]elay"\s*:\s*"(\d+(?:\.\d+)?)\s*(ms|s|m)?"`)
)

// ParseRetryAfter extracts a provider-suggested retry-after duration from a
// raw error message. The boolean is false when no duration was found or the
// result is nonsensical.
func ParseRetryAfter(raw string) (time.Duration, bool) {
	if strings.TrimSpace(raw) == "" {
		return 0, false
	}

	for _, re := range []*regexp.Regexp{jsonPattern, phrasePattern} {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil || value <= 0 {
			continue
		}
		d := applyUnit(value, m[2])
		if d <= 0 || d > 30*time.Minute {
			// a bogus or absurd suggestion is worse than none
			continue
		}
		return d, true
	}
	return 0, false
}

func applyUnit(value float64, unit string) time.Duration {
	switch strings.ToLower(unit) {
	case "ms", "millisecond", "milliseconds":
		return time.Duration(value * float64(time.Millisecond))
	case "m", "min", "mins", "minute", "minutes":
		return time.Duration(value * float64(time.Minute))
	default:
		// bare numbers ("Retry-After: 7") are seconds per HTTP convention
		return time.Duration(value * float64(time.Second))
	}
}
