package render

import (
	"regexp"
	"strings"
)

var cleanupRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`[\s\v\p{Zs}]+`), " "},
	{regexp.MustCompile(`[\s\v\p{Zs}]+([.,:])`), "$1"},
	{regexp.MustCompile(`,\s*,`), ","},
	{regexp.MustCompile(`\.\.`), "."},
	{regexp.MustCompile(`\.\s*\.`), "."},
	{regexp.MustCompile(`,\s*\.`), "."},
}

// Cleanup normalizes rendered text: whitespace runs collapse to one space,
// whitespace before '.', ',' and ':' is dropped, doubled commas and periods
// collapse, a comma or period followed by a period becomes a period, and the
// ends are trimmed. The rules repeat until nothing changes, so
// Cleanup(Cleanup(s)) == Cleanup(s).
func Cleanup(s string) string {
	for {
		next := s
		for _, rule := range cleanupRules {
			next = rule.re.ReplaceAllString(next, rule.repl)
		}
		next = strings.TrimSpace(next)
		if next == s {
			return next
		}
		s = next
	}
}
