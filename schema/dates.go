package schema

import (
	"strings"
	"time"
)

// DateTimeLayouts are the accepted inputs of datetime fields, the first
// being what a datetime-local widget submits.
var DateTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDateTime parses s with the first matching layout of DateTimeLayouts.
func ParseDateTime(s string) (time.Time, bool) {
	if !strings.Contains(s, "T") {
		return time.Time{}, false
	}
	for _, layout := range DateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
