package domain

import "context"

// DefaultTagColor is used for tags that have no registered color.
const DefaultTagColor = "#bdc3c7"

type Tag struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TagColors maps tag names to display colors.
type TagColors map[string]string

// NewTagColors builds a TagColors map from a tag list.
func NewTagColors(tags []Tag) TagColors {
	m := make(TagColors, len(tags))
	for _, t := range tags {
		m[t.Name] = t.Color
	}
	return m
}

func (m TagColors) ColorFor(name string) string {
	if c, ok := m[name]; ok && c != "" {
		return c
	}
	return DefaultTagColor
}

type TagRepository interface {
	List(ctx context.Context) ([]Tag, error)
	// EnsureTags inserts tags whose names are not yet known and returns the
	// number inserted. Existing colors are never overwritten.
	EnsureTags(ctx context.Context, tags []Tag) (int, error)
}

// TagSource provides tag colors with caching.
// Implementations should provide read-through caching (e.g., memory → Redis → database).
type TagSource interface {
	TagColors(ctx context.Context) (TagColors, error)
}

// TagCacheInvalidator drops cached tag colors after the tag table changed.
type TagCacheInvalidator interface {
	InvalidateTags(ctx context.Context) error
}
