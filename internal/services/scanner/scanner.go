// Package scanner extracts issue-tracker keys (e.g. PROJ-123) from
// free-form chat text.
package scanner

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultProjectPattern matches any plausible tracker project prefix.
const DefaultProjectPattern = `[A-Za-z][A-Za-z0-9]+`

// Scanner finds issue keys in arbitrary text. It is a pure function of its
// input and safe for concurrent use.
type Scanner struct {
	pattern *regexp.Regexp
}

// New creates a scanner for keys with the given project-prefix pattern.
// An empty pattern falls back to DefaultProjectPattern.
func New(projectPattern string) (*Scanner, error) {
	if projectPattern == "" {
		projectPattern = DefaultProjectPattern
	}

	// Prefix matching is case-insensitive; \b keeps "ABC-123x" and
	// "xABC-123" from matching while still allowing punctuation-adjacent
	// keys.
	pattern, err := regexp.Compile(`(?i)\b(` + projectPattern + `-\d+)\b`)
	if err != nil {
		return nil, fmt.Errorf("invalid project pattern %q: %w", projectPattern, err)
	}

	return &Scanner{pattern: pattern}, nil
}

// Extract returns the distinct issue keys found in text, upper-cased, in
// order of first occurrence.
func (s *Scanner) Extract(text string) []string {
	matches := s.pattern.FindAllStringSubmatch(text, -1)

	seen := make(map[string]bool, len(matches))
	keys := make([]string, 0, len(matches))
	for _, match := range matches {
		key := strings.ToUpper(match[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}

	return keys
}
