package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeText lowercases, trims and collapses whitespace.
func NormalizeText(text string) string {
	text = strings.ToLower(text)
	text = strings.TrimSpace(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return text
}

// ContainsFold reports whether `text` contains any of the `matchers` ignoring
// case and differences in whitespace.
func ContainsFold(text string, matchers ...string) bool {
	text = NormalizeText(text)
	for _, m := range matchers {
		if strings.Contains(text, NormalizeText(m)) {
			return true
		}
	}
	return false
}
