package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// validate is the shared validator instance used across the package.
var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("datetime_local", validateDateTime); err != nil {
		panic(fmt.Sprintf("failed to register datetime validator: %v", err))
	}
}

func validateDateTime(fl validator.FieldLevel) bool {
	_, ok := ParseDateTime(fl.Field().String())
	return ok
}

// Validate checks the struct tags of a catalog, action or field.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// JSONSchema reflects the JSON Schema of the catalog document.
func JSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	s := r.Reflect(&Catalog{})
	s.Title = "promptbuilder catalog"
	s.Description = "Actions, fields and template rules rendered into agent prompts."
	return s
}

// JSONSchemaBytes returns JSONSchema indented for output.
func JSONSchemaBytes() ([]byte, error) {
	b, err := json.MarshalIndent(JSONSchema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog schema: %w", err)
	}
	return b, nil
}

// ValueError is one failed presence or type check.
type ValueError struct {
	Field  string
	Reason string
}

func (e ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValueErrors collects every failed check of a submission.
type ValueErrors []ValueError

func (e ValueErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "invalid values: " + strings.Join(msgs, "; ")
}

// CheckValues runs the presence and type checks declared by the action's
// fields. required overrides the declared required flag, which is how
// suspended constraints of hidden fields are honored; nil uses the
// declaration. It returns ValueErrors or nil.
func CheckValues(a *ActionDefinition, values FormValues, required func(name string) bool) error {
	var errs ValueErrors
	for i := range a.Fields {
		f := &a.Fields[i]
		v := values[f.Name]

		req := f.Required
		if required != nil {
			req = required(f.Name)
		}
		if !Present(v) {
			if req && f.Kind != KindCheckbox {
				errs = append(errs, ValueError{Field: f.Name, Reason: "is required"})
			}
			continue
		}

		if reason := checkKind(f, v); reason != "" {
			errs = append(errs, ValueError{Field: f.Name, Reason: reason})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkKind(f *FieldDefinition, v any) string {
	switch f.Kind {
	case KindNumber:
		n, ok := toFloat(v)
		if !ok {
			return "must be a number"
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Sprintf("must be at least %v", *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Sprintf("must be at most %v", *f.Max)
		}
	case KindDateTime:
		switch dt := v.(type) {
		case string:
			if validate.Var(dt, "datetime_local") != nil {
				return "must be a date-time such as 2026-02-24T09:00"
			}
		case time.Time:
		default:
			return "must be a date-time"
		}
	case KindCheckbox:
		switch b := v.(type) {
		case bool:
		case string:
			if validate.Var(b, "boolean") != nil {
				return "must be true or false"
			}
		default:
			return "must be true or false"
		}
	case KindSelect:
		if len(f.Options) == 0 {
			return ""
		}
		s := fmt.Sprint(v)
		for _, o := range f.Options {
			if o.Value == s {
				return ""
			}
		}
		return fmt.Sprintf("must be one of the declared options, got %q", s)
	case KindFiles:
		if _, ok := ParseFiles(v); !ok {
			return "must be a list of files with names"
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if validate.Var(n, "numeric") != nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
