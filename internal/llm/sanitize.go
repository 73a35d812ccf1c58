package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
)

// NormalizeAndSanitizeJSON
// - Strips markdown code fences some models wrap JSON replies in
// - Renames known synonyms (text/report -> comment)
// - Drops null/empty optionals and coerces a numeric confidence
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw = stripCodeFence(raw)

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			// don't overwrite existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) rename synonyms to our schema
	renamed("text", "comment")
	renamed("report_comment", "comment")
	renamed("report", "comment")

	// 2) normalize confidence; models sometimes send it as a string
	if v, ok := m["confidence"]; ok {
		switch t := v.(type) {
		case float64:
			if t < 0 || t > 1 {
				delete(m, "confidence")
				dropped = append(dropped, "confidence(range)")
			}
		case string:
			var f float64
			if _, err := fmt.Sscanf(strings.TrimSpace(t), "%f", &f); err == nil && f >= 0 && f <= 1 {
				m["confidence"] = f
			} else {
				delete(m, "confidence")
				dropped = append(dropped, "confidence(string)")
			}
		case nil:
			delete(m, "confidence")
			dropped = append(dropped, "confidence(null)")
		default:
			delete(m, "confidence")
			dropped = append(dropped, "confidence(type)")
		}
	}

	// 3) trim the comment; an empty comment cannot be rescued here, the
	// schema validator will reject it
	if v, ok := m["comment"].(string); ok {
		m["comment"] = strings.TrimSpace(v)
	}

	// 4) remove unknown keys
	allowed := map[string]struct{}{
		"comment": {}, "confidence": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.comment.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func stripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return raw
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
