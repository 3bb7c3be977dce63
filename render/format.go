package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teilomillet/promptbuilder/schema"
)

// DateLayout is the long form used for date-time values in prompts.
const DateLayout = "January 2, 2006 at 3:04 PM"

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// isDateKey reports whether key names a date: its name says so or the
// action declares it a datetime field.
func isDateKey(a *schema.ActionDefinition, key string) bool {
	if strings.Contains(key, "Date") {
		return true
	}
	if f, ok := a.Field(key); ok {
		return f.Kind == schema.KindDateTime
	}
	return false
}

func formatValue(a *schema.ActionDefinition, key string, v any) string {
	switch val := v.(type) {
	case time.Time:
		return FormatDate(val)
	case string:
		if isDateKey(a, key) {
			if t, ok := schema.ParseDateTime(val); ok {
				return FormatDate(t)
			}
		}
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []string:
		return strings.Join(val, ", ")
	}
	if files, ok := schema.ParseFiles(v); ok {
		return schema.FileNames(files)
	}
	return fmt.Sprint(v)
}
