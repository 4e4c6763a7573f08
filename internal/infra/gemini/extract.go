// internal/infra/gemini/extract.go
package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON parses the first JSON object found in raw model output into
// dst. Models routinely wrap JSON in markdown code fences or surround it
// with prose, so the fences are stripped and the first balanced brace
// block is taken.
func extractJSON(raw string, dst interface{}) error {
	cleaned := stripCodeFences(raw)
	block := firstJSONBlock(cleaned)
	if block == "" {
		return fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(block), dst); err != nil {
		return fmt.Errorf("unmarshal model output: %w", err)
	}
	return nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// firstJSONBlock returns the first balanced { ... } block in s, honoring
// string literals and escape sequences.
func firstJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}

	return ""
}
