package render

import (
	"github.com/teilomillet/promptbuilder/schema"
)

// Check lints the action and compiles its rule expressions.
func (r *Renderer) Check(a *schema.ActionDefinition) []schema.Issue {
	return append(schema.Lint(a), r.CheckExpressions(a)...)
}

// CheckExpressions compiles every rule expression of the action with the
// renderer's CEL environment.
func (r *Renderer) CheckExpressions(a *schema.ActionDefinition) []schema.Issue {
	var issues []schema.Issue
	for _, key := range a.RuleKeys() {
		rule := a.TemplateRules[key]
		if rule.Expr == "" || rule.Predicate != nil {
			continue
		}
		if _, err := r.exprs.compile(rule.Expr); err != nil {
			issues = append(issues, schema.Issue{
				Severity: schema.SeverityError,
				Action:   a.ID,
				Rule:     key,
				Message:  "invalid expression: " + err.Error(),
			})
		}
	}
	return issues
}
