package filter

import (
	"strings"

	"github.com/pscheid92/ifthen/internal/domain"
)

// Result is the outcome of a tag filter.
type Result struct {
	Scenarios []domain.Scenario
	// NoResults is set when nothing matched, so callers can show an explicit message.
	NoResults bool
}

// NormalizeTags trims tags, drops blanks and removes case-insensitive
// duplicates, keeping the first spelling.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ByTags keeps the scenarios carrying every selected tag. Tags compare
// case-insensitively. Without selected tags every scenario is returned.
func ByTags(scenarios []domain.Scenario, selected []string) Result {
	tags := NormalizeTags(selected)
	if len(tags) == 0 {
		return Result{Scenarios: scenarios, NoResults: len(scenarios) == 0}
	}

	out := make([]domain.Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		if hasAllTags(s.Tags, tags) {
			out = append(out, s)
		}
	}
	return Result{Scenarios: out, NoResults: len(out) == 0}
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		if !hasTag(have, w) {
			return false
		}
	}
	return true
}

func hasTag(have []string, tag string) bool {
	for _, h := range have {
		if strings.EqualFold(h, tag) {
			return true
		}
	}
	return false
}
