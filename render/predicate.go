package render

import (
	"errors"

	"github.com/teilomillet/promptbuilder/schema"
)

// evaluation is everything a predicate may look at.
type evaluation struct {
	rule   schema.TemplateRule
	cond   schema.Condition
	tested any
	values schema.DerivedValues
	exprs  *exprCache
}

type predicate func(e evaluation) (bool, error)

// predicateFor maps a condition kind to its evaluation function.
// ConditionAlways, and any kind this switch does not name, include the
// fragment: unknown condition names are trusted configuration, not errors.
func predicateFor(kind schema.ConditionKind) predicate {
	switch kind {
	case schema.ConditionNotEmpty:
		return notEmpty
	case schema.ConditionTrue:
		return isTrue
	case schema.ConditionFalse:
		return isFalse
	case schema.ConditionGate:
		return gate
	case schema.ConditionExpr:
		return expression
	case schema.ConditionFunc:
		return callPredicate
	default:
		return always
	}
}

func always(evaluation) (bool, error) { return true, nil }

func notEmpty(e evaluation) (bool, error) {
	return schema.Present(e.tested), nil
}

func isTrue(e evaluation) (bool, error) {
	return e.tested == true || e.tested == "true", nil
}

func isFalse(e evaluation) (bool, error) {
	return e.tested == false || e.tested == "false", nil
}

// gate tests the named flag itself, strictly boolean true.
func gate(e evaluation) (bool, error) {
	flag, ok := e.values[e.cond.Gate].(bool)
	return ok && flag, nil
}

func callPredicate(e evaluation) (bool, error) {
	if e.rule.Predicate == nil {
		return false, errors.New("rule has no predicate")
	}
	return e.rule.Predicate(e.values), nil
}

func expression(e evaluation) (bool, error) {
	return e.exprs.eval(e.rule.Expr, e.values)
}
