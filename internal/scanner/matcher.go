package scanner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoTargets is returned when a scan is configured without any target symbol.
var ErrNoTargets = errors.New("no target symbols configured")

// Matcher tests symbol listings for literal, case-sensitive target substrings.
type Matcher struct {
	targets []string
}

// NewMatcher deduplicates targets, keeping their first-seen order.
// Empty strings are rejected since they would match every listing.
func NewMatcher(targets []string) (*Matcher, error) {
	seen := make(map[string]bool, len(targets))
	var uniq []string
	for _, t := range targets {
		if t == "" {
			return nil, fmt.Errorf("empty target symbol")
		}
		if !seen[t] {
			seen[t] = true
			uniq = append(uniq, t)
		}
	}
	if len(uniq) == 0 {
		return nil, ErrNoTargets
	}
	return &Matcher{targets: uniq}, nil
}

// Match returns the first target (in configured order) contained in text.
func (m *Matcher) Match(text string) (string, bool) {
	for _, t := range m.targets {
		if strings.Contains(text, t) {
			return t, true
		}
	}
	return "", false
}

// Targets returns a copy of the configured targets.
func (m *Matcher) Targets() []string {
	return append([]string(nil), m.targets...)
}
