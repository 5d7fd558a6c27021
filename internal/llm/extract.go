package llm

import (
	"encoding/json"
	"strings"
)

// extractObject returns the first syntactically balanced JSON object in the
// text, ignoring braces inside string literals. When the text contains
// several balanced objects only the first is returned; the rest of the
// response is discarded. The second return reports whether a '{' was seen
// at all, so callers can distinguish "no JSON" from "broken JSON".
func extractObject(text string) (candidate string, sawBrace bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	// Opening brace without a matching close.
	return "", true
}

// canonicalize parses raw JSON and re-serializes it compactly with sorted
// keys so downstream equality checks and log lines are stable.
func canonicalize(raw []byte) (map[string]any, []byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, err
	}
	compact, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return m, compact, nil
}

// dedupeCitations drops repeated URLs, keeping first occurrence order, and
// applies the per-call bound. Never pads: fewer citations than the bound is
// returned as-is.
func dedupeCitations(in []Citation, max int) []Citation {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]Citation, 0, len(in))
	for _, c := range in {
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
