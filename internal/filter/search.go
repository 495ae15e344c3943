package filter

import (
	"strings"

	"github.com/pscheid92/ifthen/internal/domain"
)

// Match is a scenario that matched a search, with highlighted fields.
type Match struct {
	Scenario    domain.Scenario
	Title       Spans
	Description Spans
	// Tags is parallel to Scenario.Tags.
	Tags []Spans
}

// SearchResult is the outcome of a search. An inactive result means the query
// was blank and the search panel stays hidden.
type SearchResult struct {
	Query     string
	Active    bool
	Matches   []Match
	NoMatches bool
}

// NormalizeQuery trims surrounding whitespace.
func NormalizeQuery(query string) string {
	return strings.TrimSpace(query)
}

// Search returns the scenarios whose title, description or any tag contains
// query, case-insensitively. Order is preserved.
func Search(scenarios []domain.Scenario, query string) SearchResult {
	q := NormalizeQuery(query)
	if q == "" {
		return SearchResult{}
	}

	res := SearchResult{Query: q, Active: true}
	for _, s := range scenarios {
		if !matches(s, q) {
			continue
		}
		m := Match{
			Scenario:    s,
			Title:       Highlight(s.Title, q),
			Description: Highlight(s.Description, q),
			Tags:        make([]Spans, len(s.Tags)),
		}
		for i, tag := range s.Tags {
			m.Tags[i] = Highlight(tag, q)
		}
		res.Matches = append(res.Matches, m)
	}
	res.NoMatches = len(res.Matches) == 0
	return res
}

func matches(s domain.Scenario, q string) bool {
	if contains(s.Title, q) || contains(s.Description, q) {
		return true
	}
	for _, tag := range s.Tags {
		if contains(tag, q) {
			return true
		}
	}
	return false
}
