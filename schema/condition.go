package schema

// ConditionKind tags which predicate a template rule is tested with.
type ConditionKind int

const (
	// ConditionAlways includes the fragment unconditionally. Rules with no
	// condition, or a condition name that is neither built in nor a field of
	// the action, fall back to it.
	ConditionAlways ConditionKind = iota
	ConditionNotEmpty
	ConditionTrue
	ConditionFalse
	ConditionGate
	ConditionExpr
	ConditionFunc
)

// Built-in condition names.
const (
	ConditionNameNotEmpty = "notEmpty"
	ConditionNameTrue     = "true"
	ConditionNameFalse    = "false"
)

func (k ConditionKind) String() string {
	switch k {
	case ConditionNotEmpty:
		return "notEmpty"
	case ConditionTrue:
		return "true"
	case ConditionFalse:
		return "false"
	case ConditionGate:
		return "gate"
	case ConditionExpr:
		return "expr"
	case ConditionFunc:
		return "func"
	default:
		return "always"
	}
}

// Condition is a classified rule condition.
type Condition struct {
	Kind ConditionKind
	// Name is the condition string as authored.
	Name string
	// Gate is the flag tested by ConditionGate.
	Gate string
}

// Unknown reports whether an authored condition name fell back to
// ConditionAlways.
func (c Condition) Unknown() bool {
	return c.Kind == ConditionAlways && c.Name != ""
}

// ClassifyCondition resolves the predicate kind of a rule. A Go predicate
// wins over an expression, which wins over the condition name.
func (a *ActionDefinition) ClassifyCondition(rule TemplateRule) Condition {
	c := Condition{Name: rule.Condition}
	switch {
	case rule.Predicate != nil:
		c.Kind = ConditionFunc
	case rule.Expr != "":
		c.Kind = ConditionExpr
	case rule.Condition == ConditionNameNotEmpty:
		c.Kind = ConditionNotEmpty
	case rule.Condition == ConditionNameTrue:
		c.Kind = ConditionTrue
	case rule.Condition == ConditionNameFalse:
		c.Kind = ConditionFalse
	case rule.Condition != "":
		if _, ok := a.Field(rule.Condition); ok {
			c.Kind = ConditionGate
			c.Gate = rule.Condition
		}
	}
	return c
}

// TestedKey is the value key a rule tests: its Field override or its own key.
func (r TemplateRule) TestedKey(key string) string {
	if r.Field != "" {
		return r.Field
	}
	return key
}
