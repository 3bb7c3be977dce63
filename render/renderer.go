// Package render turns an action definition and a form snapshot into prompt
// text.
//
// Rendering runs in a fixed order: preprocess the raw values, substitute
// plain placeholders (pass 1), substitute rule placeholders with their
// conditional fragments (pass 2), blank placeholders of known keys that had
// no value, then normalize whitespace and punctuation. Fragments are filled
// in one flat pass against the derived values and never expand other rules.
// Substituted text is never scanned for placeholders again.
package render

import (
	"strings"

	"github.com/teilomillet/promptbuilder/preprocess"
	"github.com/teilomillet/promptbuilder/schema"
	"github.com/teilomillet/promptbuilder/utils"
)

// Renderer renders actions. It is safe for concurrent use.
type Renderer struct {
	pre    *preprocess.Preprocessor
	logger utils.Logger
	exprs  *exprCache
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for warnings about permissive conditions
// and failing expressions.
func WithLogger(logger utils.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithPreprocessor sets the preprocessor, typically one carrying the term
// table of the loaded catalog.
func WithPreprocessor(p *preprocess.Preprocessor) Option {
	return func(r *Renderer) {
		r.pre = p
	}
}

// New returns a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		pre:    preprocess.New(),
		logger: utils.NewLogger(utils.LogLevelWarn),
		exprs:  newExprCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = New()

// Render renders with a default Renderer.
func Render(a *schema.ActionDefinition, raw schema.FormValues) string {
	return defaultRenderer.Render(a, raw)
}

// Render produces the prompt for one submission. It never fails; a token
// naming nothing the action declares is left in the output verbatim.
func (r *Renderer) Render(a *schema.ActionDefinition, raw schema.FormValues) string {
	derived := r.pre.Preprocess(raw)
	known := a.KnownKeys()
	segments := schema.ParseTemplate(a.PromptTemplate)

	for i, seg := range segments {
		if !seg.IsToken() {
			continue
		}
		if _, isRule := a.TemplateRules[seg.Key]; isRule {
			continue
		}
		if v := derived[seg.Key]; schema.Present(v) {
			segments[i] = schema.Segment{Text: formatValue(a, seg.Key, v)}
		}
	}

	for _, key := range a.RuleKeys() {
		rule := a.TemplateRules[key]
		replacement := ""
		if r.include(a, key, rule, derived) {
			replacement = fill(a, rule.Template, derived, known)
		}
		for i, seg := range segments {
			if seg.Key == key {
				segments[i] = schema.Segment{Text: replacement}
			}
		}
	}

	var b strings.Builder
	for _, seg := range segments {
		if seg.IsToken() && known[seg.Key] {
			continue
		}
		b.WriteString(seg.Text)
	}
	return Cleanup(b.String())
}

// fill substitutes every placeholder of a fragment in a single pass.
func fill(a *schema.ActionDefinition, tmpl string, derived schema.DerivedValues, known map[string]bool) string {
	var b strings.Builder
	for _, seg := range schema.ParseTemplate(tmpl) {
		switch {
		case !seg.IsToken():
			b.WriteString(seg.Text)
		case schema.Present(derived[seg.Key]):
			b.WriteString(formatValue(a, seg.Key, derived[seg.Key]))
		case known[seg.Key]:
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func (r *Renderer) include(a *schema.ActionDefinition, key string, rule schema.TemplateRule, derived schema.DerivedValues) bool {
	cond := a.ClassifyCondition(rule)
	if cond.Unknown() {
		r.logger.Warn("Unknown template rule condition, including fragment",
			"action", a.ID, "rule", key, "condition", cond.Name)
	}
	ok, err := predicateFor(cond.Kind)(evaluation{
		rule:   rule,
		cond:   cond,
		tested: derived[rule.TestedKey(key)],
		values: derived,
		exprs:  r.exprs,
	})
	if err != nil {
		r.logger.Warn("Template rule condition failed, excluding fragment",
			"action", a.ID, "rule", key, "error", err)
		return false
	}
	r.logger.Debug("Evaluated template rule", "action", a.ID, "rule", key, "kind", cond.Kind.String(), "included", ok)
	return ok
}
