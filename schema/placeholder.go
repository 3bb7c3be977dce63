package schema

import "regexp"

// placeholderPattern matches {identifier} tokens. Tokens do not nest and
// there is no escape syntax.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Segment is a piece of a parsed template: literal text, or a placeholder
// when Key is set.
type Segment struct {
	Text string
	Key  string
}

// IsToken reports whether the segment is an unresolved placeholder.
func (s Segment) IsToken() bool { return s.Key != "" }

// ParseTemplate splits a template into literal and placeholder segments.
func ParseTemplate(tmpl string) []Segment {
	matches := placeholderPattern.FindAllStringSubmatchIndex(tmpl, -1)
	segments := make([]Segment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			segments = append(segments, Segment{Text: tmpl[last:m[0]]})
		}
		segments = append(segments, Segment{Text: tmpl[m[0]:m[1]], Key: tmpl[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(tmpl) {
		segments = append(segments, Segment{Text: tmpl[last:]})
	}
	return segments
}

// Placeholders returns the distinct placeholder keys of tmpl in order of
// first appearance.
func Placeholders(tmpl string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}

// Token renders key as a placeholder.
func Token(key string) string {
	return "{" + key + "}"
}
