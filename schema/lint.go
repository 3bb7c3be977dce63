package schema

import (
	"fmt"
	"sort"
)

// Severity grades a lint issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one schema-authoring defect.
type Issue struct {
	Severity Severity `json:"severity"`
	Action   string   `json:"action"`
	Field    string   `json:"field,omitempty"`
	Rule     string   `json:"rule,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	loc := i.Action
	if i.Rule != "" {
		loc += " rule " + i.Rule
	} else if i.Field != "" {
		loc += " field " + i.Field
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, loc, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Lint finds the defects render cannot detect: rule keys with no token in
// the template, tokens that nothing resolves, rule overrides naming unknown
// keys, unknown condition names and fields no template uses.
func Lint(a *ActionDefinition) []Issue {
	var issues []Issue
	add := func(sev Severity, field, rule, format string, args ...any) {
		issues = append(issues, Issue{
			Severity: sev,
			Action:   a.ID,
			Field:    field,
			Rule:     rule,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	seen := make(map[string]bool, len(a.Fields))
	for _, f := range a.Fields {
		if seen[f.Name] {
			add(SeverityError, f.Name, "", "duplicate field name")
		}
		seen[f.Name] = true
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			add(SeverityError, f.Name, "", "min %v exceeds max %v", *f.Min, *f.Max)
		}
		if f.Conditional != nil {
			if _, ok := a.Field(f.Conditional.Field); !ok {
				add(SeverityError, f.Name, "", "conditional trigger %q is not a field", f.Conditional.Field)
			} else if f.Conditional.Field == f.Name {
				add(SeverityError, f.Name, "", "field cannot be conditional on itself")
			}
		}
	}

	known := a.KnownKeys()
	used := make(map[string]bool)

	templateKeys := make(map[string]bool)
	for _, key := range Placeholders(a.PromptTemplate) {
		templateKeys[key] = true
		used[key] = true
		if !known[key] {
			add(SeverityError, "", "", "template token %s is neither a field, a rule nor a derived key", Token(key))
		}
	}

	for _, key := range a.RuleKeys() {
		rule := a.TemplateRules[key]
		used[key] = true
		if !templateKeys[key] {
			add(SeverityError, "", key, "rule key has no %s token in the prompt template", Token(key))
		}
		if rule.Field != "" {
			used[rule.Field] = true
			if !known[rule.Field] {
				add(SeverityError, "", key, "tested field %q is neither a field nor a derived key", rule.Field)
			}
		}
		for _, ref := range Placeholders(rule.Template) {
			used[ref] = true
			if !known[ref] {
				add(SeverityError, "", key, "fragment token %s is neither a field nor a derived key", Token(ref))
			}
		}

		cond := a.ClassifyCondition(rule)
		switch {
		case cond.Unknown():
			add(SeverityWarning, "", key, "unknown condition %q always includes the fragment", cond.Name)
		case cond.Kind == ConditionGate:
			used[cond.Gate] = true
			if f, _ := a.Field(cond.Gate); f.Kind != KindCheckbox {
				add(SeverityWarning, "", key, "gate %q is a %s field and is never boolean true", cond.Gate, f.Kind)
			}
		}
	}

	derivable := a.DerivableKeys()
	for target, source := range derivable {
		if used[target] {
			used[source] = true
		}
	}
	for _, d := range Derivations {
		if used[d.Target] {
			for _, r := range d.Reads {
				used[r] = true
			}
		}
	}
	for _, f := range a.Fields {
		if f.Conditional != nil && used[f.Name] {
			used[f.Conditional.Field] = true
		}
	}
	for _, f := range a.Fields {
		if !used[f.Name] {
			add(SeverityWarning, f.Name, "", "field is not referenced by any template or rule")
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity == SeverityError && issues[j].Severity != SeverityError
	})
	return issues
}
