package schema

import (
	"fmt"
	"strings"
)

// FormValues is one snapshot of raw user input keyed by field name. Values
// are strings, booleans, numbers, time.Time or file lists.
type FormValues map[string]any

// DerivedValues is FormValues plus the keys computed by the preprocessor.
type DerivedValues map[string]any

// Clone returns a shallow copy.
func (v FormValues) Clone() FormValues {
	out := make(FormValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Present reports whether v counts as a supplied value: not nil, not the
// empty string and not an empty list.
func Present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []FileDescriptor:
		return len(val) > 0
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	default:
		return true
	}
}

// FileDescriptor describes one attached file.
type FileDescriptor struct {
	Name     string `json:"name" yaml:"name"`
	Size     int64  `json:"size,omitempty" yaml:"size,omitempty"`
	MimeType string `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
}

// ParseFiles interprets v as a non-empty file list. It accepts typed slices
// and lists decoded from JSON or YAML whose items are maps carrying a "name"
// plus optional "size" and "mimeType" (or "type"). Any malformed item makes
// the whole list invalid.
func ParseFiles(v any) ([]FileDescriptor, bool) {
	switch list := v.(type) {
	case []FileDescriptor:
		if len(list) == 0 {
			return nil, false
		}
		for _, f := range list {
			if f.Name == "" {
				return nil, false
			}
		}
		return list, true
	case []any:
		if len(list) == 0 {
			return nil, false
		}
		files := make([]FileDescriptor, 0, len(list))
		for _, item := range list {
			f, ok := parseFileItem(item)
			if !ok {
				return nil, false
			}
			files = append(files, f)
		}
		return files, true
	case []map[string]any:
		items := make([]any, len(list))
		for i := range list {
			items[i] = list[i]
		}
		return ParseFiles(items)
	default:
		return nil, false
	}
}

func parseFileItem(item any) (FileDescriptor, bool) {
	var m map[string]any
	switch v := item.(type) {
	case FileDescriptor:
		return v, v.Name != ""
	case map[string]any:
		m = v
	default:
		return FileDescriptor{}, false
	}

	name, _ := m["name"].(string)
	if name == "" {
		return FileDescriptor{}, false
	}
	f := FileDescriptor{Name: name}

	switch size := m["size"].(type) {
	case nil:
	case int:
		f.Size = int64(size)
	case int64:
		f.Size = size
	case float64:
		f.Size = int64(size)
	default:
		return FileDescriptor{}, false
	}

	if mt, ok := m["mimeType"].(string); ok {
		f.MimeType = mt
	} else if mt, ok := m["type"].(string); ok {
		f.MimeType = mt
	}
	return f, true
}

// FileNames joins the names of files with ", ".
func FileNames(files []FileDescriptor) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

// FormatSize renders a byte count the way the upload widget shows it.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	s := fmt.Sprintf("%.2f", size)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + " " + units[i]
}
