package filter

import (
	"strings"
	"unicode/utf8"
)

// occurrences returns the byte ranges of every non-overlapping, case-insensitive
// occurrence of query in text, leftmost first. The query is matched literally.
func occurrences(text, query string, limit int) [][2]int {
	n := utf8.RuneCountInString(query)
	if n == 0 || text == "" {
		return nil
	}

	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	var found [][2]int
	for i := 0; i+n < len(offsets); {
		start, end := offsets[i], offsets[i+n]
		if strings.EqualFold(text[start:end], query) {
			found = append(found, [2]int{start, end})
			if limit > 0 && len(found) == limit {
				break
			}
			i += n
			continue
		}
		i++
	}
	return found
}

func contains(text, query string) bool {
	return len(occurrences(text, query, 1)) > 0
}
