// Package preprocess derives computed values from a raw form snapshot before
// rendering: term labels, recipient and download phrases, grading criteria
// text and joined file lists.
package preprocess

import (
	"fmt"
	"sort"

	"github.com/teilomillet/promptbuilder/schema"
)

// DefaultTerms maps term codes to their labels.
var DefaultTerms = map[string]string{
	"SPRING-2026": "Spring 2026",
	"FALL-2025":   "Fall 2025",
	"SUMMER-2026": "Summer 2026",
	"WINTER-2026": "Winter 2026",
}

// CriteriaPhrases maps grading criteria codes to their phrases.
var CriteriaPhrases = map[string]string{
	"all_students":         "all students",
	"submitted":            "all students who submitted",
	"completed_with_posts": "all students who completed the assignment with original and peer posts",
	"specific_students":    "the following students",
}

// Preprocessor derives computed keys. The zero value uses DefaultTerms.
type Preprocessor struct {
	terms map[string]string
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithTerms replaces the term label table.
func WithTerms(terms map[string]string) Option {
	return func(p *Preprocessor) {
		p.terms = terms
	}
}

// New returns a Preprocessor.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{terms: DefaultTerms}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPreprocessor = New()

// Preprocess derives values with the default term table.
func Preprocess(raw schema.FormValues) schema.DerivedValues {
	return defaultPreprocessor.Preprocess(raw)
}

// Preprocess returns raw plus every derived key. Each rule reads raw values
// only, so the result does not depend on rule order, and a derived key never
// replaces a raw key of the same name. It never fails: unmapped codes pass
// through and malformed file lists are skipped.
func (p *Preprocessor) Preprocess(raw schema.FormValues) schema.DerivedValues {
	derived := make(schema.DerivedValues, len(raw)+4)
	for k, v := range raw {
		derived[k] = v
	}
	set := func(key, value string) {
		if _, exists := raw[key]; !exists {
			derived[key] = value
		}
	}

	if term, ok := text(raw, schema.KeyTerm); ok {
		set(schema.KeyTermFormatted, p.termLabel(term))
	}
	if recipient, ok := text(raw, schema.KeyRecipientType); ok {
		set(schema.KeyRecipientDescription, recipientDescription(raw, recipient))
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if files, ok := schema.ParseFiles(raw[k]); ok {
			set(schema.FileListKey(k), schema.FileNames(files))
		}
	}

	if criteria, ok := text(raw, schema.KeyCriteria); ok {
		set(schema.KeyCriteriaText, lookup(CriteriaPhrases, criteria))
	}
	if scope, ok := text(raw, schema.KeyDownloadScope); ok {
		set(schema.KeyDownloadText, downloadText(raw, scope))
	}
	return derived
}

func (p *Preprocessor) termLabel(code string) string {
	terms := p.terms
	if terms == nil {
		terms = DefaultTerms
	}
	return lookup(terms, code)
}

func recipientDescription(raw schema.FormValues, recipient string) string {
	switch recipient {
	case "all":
		return "all students"
	case "criteria":
		if desc, ok := text(raw, schema.KeyCriteriaDescription); ok {
			return desc
		}
	case "specific":
		if names, ok := text(raw, schema.KeyStudentNames); ok {
			return "these specific students: " + names
		}
	}
	return "students"
}

func downloadText(raw schema.FormValues, scope string) string {
	switch scope {
	case "all":
		return "all files"
	case "folder":
		if folder, ok := text(raw, schema.KeyFolderName); ok {
			return `all files from the "` + folder + `" folder`
		}
	case "type":
		if ext, ok := text(raw, schema.KeyFileType); ok {
			return "all " + ext + " files"
		}
	}
	return "files"
}

func lookup(table map[string]string, code string) string {
	if label, ok := table[code]; ok {
		return label
	}
	return code
}

// text returns raw[key] as a non-empty string. Non-string scalars are
// formatted; lists and absent keys are not text.
func text(raw schema.FormValues, key string) (string, bool) {
	switch v := raw[key].(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool, int, int64, float64:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}
