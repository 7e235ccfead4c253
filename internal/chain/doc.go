package chain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxDocLength bounds cleaned doc comments, ellipsis included.
const MaxDocLength = 100

var (
	docDelimiters = regexp.MustCompile(`(?m)/\*\*|/\*|\*/|^\s*//+|^\s*\*+/?`)
	inlineTags    = regexp.MustCompile(`\{@[a-zA-Z]+\s*([^}]*)\}`)
	docTags       = regexp.MustCompile(`(^|\s)@[a-zA-Z]+[^@]*`)
)

// CleanDoc strips comment delimiters and @tag sections, collapses whitespace and
// truncates the result to MaxDocLength characters. Inline tags such as {@link X} keep their text.
func CleanDoc(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	s := docDelimiters.ReplaceAllString(raw, " ")
	s = inlineTags.ReplaceAllString(s, "$1")
	s = docTags.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > MaxDocLength {
		r := []rune(s)
		s = strings.TrimSpace(string(r[:MaxDocLength-3])) + "..."
	}
	return s
}
