// Package schema defines the declarative action catalog consumed by the
// prompt engine: field definitions, action definitions, template rules and
// the conditional descriptors that gate them.
package schema

import "sort"

// FieldKind is the input kind a field collects.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindNumber   FieldKind = "number"
	KindDateTime FieldKind = "datetime"
	KindTextarea FieldKind = "textarea"
	KindSelect   FieldKind = "select"
	KindCheckbox FieldKind = "checkbox"
	KindTerm     FieldKind = "term"
	KindCourse   FieldKind = "course"
	KindFiles    FieldKind = "files"
)

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// ConditionDescriptor binds a dependent field or rule to a trigger field value.
type ConditionDescriptor struct {
	Field string `json:"field" yaml:"field" validate:"required"`
	Value any    `json:"value" yaml:"value"`
}

// FieldDefinition describes one form input of an action.
type FieldDefinition struct {
	Name        string               `json:"name" yaml:"name" validate:"required"`
	Kind        FieldKind            `json:"kind" yaml:"kind" validate:"required,oneof=text number datetime textarea select checkbox term course files" jsonschema:"enum=text,enum=number,enum=datetime,enum=textarea,enum=select,enum=checkbox,enum=term,enum=course,enum=files"`
	Label       string               `json:"label,omitempty" yaml:"label,omitempty"`
	Required    bool                 `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any                  `json:"default,omitempty" yaml:"default,omitempty"`
	Placeholder string               `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText    string               `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Advanced    bool                 `json:"advanced,omitempty" yaml:"advanced,omitempty"`
	Conditional *ConditionDescriptor `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Options     []Option             `json:"options,omitempty" yaml:"options,omitempty"`
	Min         *float64             `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64             `json:"max,omitempty" yaml:"max,omitempty"`
	Accept      string               `json:"accept,omitempty" yaml:"accept,omitempty"`
}

// TemplateRule is a conditionally included fragment bound to one placeholder.
//
// Condition names one of the built-in predicates ("notEmpty", "true",
// "false") or a checkbox field of the owning action acting as a gate. Expr
// holds a CEL expression over the derived values and Predicate a Go function;
// either takes precedence over Condition.
type TemplateRule struct {
	Field     string                   `json:"field,omitempty" yaml:"field,omitempty"`
	Condition string                   `json:"condition,omitempty" yaml:"condition,omitempty"`
	Expr      string                   `json:"expr,omitempty" yaml:"expr,omitempty"`
	Template  string                   `json:"template" yaml:"template"`
	Predicate func(DerivedValues) bool `json:"-" yaml:"-"`
}

// ActionDefinition is one selectable action and the template it renders.
type ActionDefinition struct {
	ID             string                  `json:"id" yaml:"id" validate:"required"`
	Title          string                  `json:"title" yaml:"title" validate:"required"`
	Description    string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Category       string                  `json:"category,omitempty" yaml:"category,omitempty"`
	Fields         []FieldDefinition       `json:"fields" yaml:"fields" validate:"dive"`
	PromptTemplate string                  `json:"promptTemplate" yaml:"promptTemplate" validate:"required"`
	TemplateRules  map[string]TemplateRule `json:"templateRules,omitempty" yaml:"templateRules,omitempty"`
}

// Field returns the field with the given name.
func (a *ActionDefinition) Field(name string) (*FieldDefinition, bool) {
	for i := range a.Fields {
		if a.Fields[i].Name == name {
			return &a.Fields[i], true
		}
	}
	return nil, false
}

// FieldNames returns field names in declaration order.
func (a *ActionDefinition) FieldNames() []string {
	names := make([]string, len(a.Fields))
	for i, f := range a.Fields {
		names[i] = f.Name
	}
	return names
}

// RuleKeys returns the template rule keys in a stable order.
func (a *ActionDefinition) RuleKeys() []string {
	keys := make([]string, 0, len(a.TemplateRules))
	for k := range a.TemplateRules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns the declared default of every field that has one.
func (a *ActionDefinition) Defaults() FormValues {
	values := make(FormValues, len(a.Fields))
	for _, f := range a.Fields {
		if f.Default != nil {
			values[f.Name] = f.Default
		}
	}
	return values
}

// Category groups actions in the catalog.
type Category struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Title       string `json:"title" yaml:"title" validate:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Term is a selectable academic term.
type Term struct {
	Code  string `json:"code" yaml:"code" validate:"required"`
	Label string `json:"label" yaml:"label" validate:"required"`
}

// Course is a selectable course offered in a term.
type Course struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name" validate:"required"`
	Term string `json:"term" yaml:"term" validate:"required"`
}

// Catalog is the whole configuration document.
type Catalog struct {
	Categories []Category         `json:"categories,omitempty" yaml:"categories,omitempty" validate:"dive"`
	Terms      []Term             `json:"terms,omitempty" yaml:"terms,omitempty" validate:"dive"`
	Courses    []Course           `json:"courses,omitempty" yaml:"courses,omitempty" validate:"dive"`
	Actions    []ActionDefinition `json:"actions" yaml:"actions" validate:"required,dive"`
}
