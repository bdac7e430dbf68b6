package categorizer

import (
	"strings"
	"unicode"
)

// normalizeDescription lowercases the description, replaces punctuation with
// spaces and collapses runs of whitespace. Keyword matching and tokenization
// both operate on this form so that casing and surrounding punctuation never
// affect the outcome.
func normalizeDescription(description string) string {
	var b strings.Builder
	b.Grow(len(description))

	lastSpace := true
	for _, r := range strings.ToLower(description) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}
