// Package visibility decides which conditional fields of an action are active
// for a form snapshot and hands the required constraint off while a field is
// hidden.
package visibility

import (
	"fmt"

	"github.com/teilomillet/promptbuilder/schema"
	"github.com/teilomillet/promptbuilder/utils"
)

// State is the visibility of one field.
type State struct {
	Active bool `json:"active"`
	// Required is the constraint in force: the declared flag while active,
	// false while hidden.
	Required bool `json:"required"`
	// Suspended reports a hidden field whose required constraint is
	// remembered for when it is shown again.
	Suspended bool `json:"suspended"`
}

// fieldState is the per-field machine
// {active, required as declared} <-> {inactive, required suspended}.
type fieldState struct {
	active     bool
	required   bool
	remembered bool
}

func (s *fieldState) hide() bool {
	if !s.active {
		return false
	}
	s.active = false
	if s.required {
		s.remembered = true
		s.required = false
	}
	return true
}

func (s *fieldState) show() bool {
	if s.active {
		return false
	}
	s.active = true
	if s.remembered {
		s.required = true
	}
	return true
}

// Evaluator tracks field visibility for one form. It is not safe for
// concurrent use.
type Evaluator struct {
	fields []schema.FieldDefinition
	states map[string]*fieldState
	values schema.FormValues
	logger utils.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger logs state transitions at debug level.
func WithLogger(logger utils.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// New evaluates fields once against snapshot.
func New(fields []schema.FieldDefinition, snapshot schema.FormValues, opts ...Option) *Evaluator {
	e := &Evaluator{
		fields: fields,
		states: make(map[string]*fieldState, len(fields)),
		values: snapshot.Clone(),
		logger: utils.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, f := range fields {
		e.states[f.Name] = &fieldState{active: true, required: f.Required}
	}
	e.evaluate()
	return e
}

// Update replaces the snapshot and re-evaluates.
func (e *Evaluator) Update(snapshot schema.FormValues) {
	e.values = snapshot.Clone()
	e.evaluate()
}

// Set changes one value and re-evaluates. A nil value clears the key.
func (e *Evaluator) Set(name string, value any) {
	if value == nil {
		delete(e.values, name)
	} else {
		e.values[name] = value
	}
	e.evaluate()
}

func (e *Evaluator) evaluate() {
	for _, f := range e.fields {
		if f.Conditional == nil {
			continue
		}
		s := e.states[f.Name]
		if Matches(*f.Conditional, e.values) {
			if s.show() {
				e.logger.Debug("Field shown", "field", f.Name, "trigger", f.Conditional.Field, "required", s.required)
			}
		} else if s.hide() {
			e.logger.Debug("Field hidden", "field", f.Name, "trigger", f.Conditional.Field, "suspended", s.remembered)
		}
	}
}

// Matches reports whether the trigger of c currently holds its expected
// value. Boolean expectations compare strictly against a boolean trigger,
// an absent trigger counting as false. Other expectations compare string
// forms, and an absent trigger never matches.
func Matches(c schema.ConditionDescriptor, values schema.FormValues) bool {
	actual, present := values[c.Field]
	if expected, ok := c.Value.(bool); ok {
		if !present || actual == nil {
			return !expected
		}
		b, ok := actual.(bool)
		return ok && b == expected
	}
	if !present || actual == nil {
		return false
	}
	return fmt.Sprint(actual) == fmt.Sprint(c.Value)
}

// State returns the state of a declared field.
func (e *Evaluator) State(name string) (State, bool) {
	s, ok := e.states[name]
	if !ok {
		return State{}, false
	}
	return State{Active: s.active, Required: s.required, Suspended: !s.active && s.remembered}, true
}

// Active reports whether a field is shown. Undeclared names are inactive.
func (e *Evaluator) Active(name string) bool {
	s, ok := e.states[name]
	return ok && s.active
}

// Required reports whether a field's required constraint is in force.
func (e *Evaluator) Required(name string) bool {
	s, ok := e.states[name]
	return ok && s.required
}

// Suspended reports whether a hidden field has a remembered required flag.
func (e *Evaluator) Suspended(name string) bool {
	st, _ := e.State(name)
	return st.Suspended
}

// States returns the state of every declared field in declaration order.
func (e *Evaluator) States() []NamedState {
	out := make([]NamedState, 0, len(e.fields))
	for _, f := range e.fields {
		st, _ := e.State(f.Name)
		out = append(out, NamedState{Name: f.Name, State: st})
	}
	return out
}

// NamedState pairs a field name with its state.
type NamedState struct {
	Name string `json:"name"`
	State
}

// ActiveValues copies snapshot without the values of inactive fields.
// Keys that are not declared fields are kept.
func (e *Evaluator) ActiveValues(snapshot schema.FormValues) schema.FormValues {
	out := make(schema.FormValues, len(snapshot))
	for k, v := range snapshot {
		if s, declared := e.states[k]; declared && !s.active {
			continue
		}
		out[k] = v
	}
	return out
}

// Dependents lists the fields whose visibility trigger is name.
func (e *Evaluator) Dependents(name string) []string {
	var deps []string
	for _, f := range e.fields {
		if f.Conditional != nil && f.Conditional.Field == name {
			deps = append(deps, f.Name)
		}
	}
	return deps
}
