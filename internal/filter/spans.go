package filter

import (
	"html/template"
	"strings"
)

// Span is a piece of text that either matched the search query or did not.
type Span struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Spans is a tokenized text. Concatenating the span texts yields the original.
type Spans []Span

// Highlight splits text into spans, marking every occurrence of query.
// Matched spans keep the casing of text.
func Highlight(text, query string) Spans {
	if text == "" {
		return Spans{}
	}

	var spans Spans
	pos := 0
	for _, r := range occurrences(text, query, 0) {
		if r[0] > pos {
			spans = append(spans, Span{Text: text[pos:r[0]]})
		}
		spans = append(spans, Span{Text: text[r[0]:r[1]], Match: true})
		pos = r[1]
	}
	if pos < len(text) {
		spans = append(spans, Span{Text: text[pos:]})
	}
	return spans
}

// HasMatch reports whether any span matched.
func (s Spans) HasMatch() bool {
	for _, sp := range s {
		if sp.Match {
			return true
		}
	}
	return false
}

// String returns the plain text.
func (s Spans) String() string {
	var b strings.Builder
	for _, sp := range s {
		b.WriteString(sp.Text)
	}
	return b.String()
}

// HTML renders the spans with matches wrapped in <mark>. All text is escaped.
func (s Spans) HTML() template.HTML {
	var b strings.Builder
	for _, sp := range s {
		if sp.Match {
			b.WriteString("<mark>")
			b.WriteString(template.HTMLEscapeString(sp.Text))
			b.WriteString("</mark>")
			continue
		}
		b.WriteString(template.HTMLEscapeString(sp.Text))
	}
	return template.HTML(b.String()) //nolint:gosec // every span is escaped above
}
