// Package promptbuilder turns form input into agent prompts. A Builder ties
// together the action catalog, field visibility, value checks, value
// preprocessing and template rendering.
package promptbuilder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teilomillet/promptbuilder/catalog"
	"github.com/teilomillet/promptbuilder/config"
	"github.com/teilomillet/promptbuilder/preprocess"
	"github.com/teilomillet/promptbuilder/render"
	"github.com/teilomillet/promptbuilder/schema"
	"github.com/teilomillet/promptbuilder/utils"
	"github.com/teilomillet/promptbuilder/visibility"
)

// Result is one generated prompt.
type Result struct {
	ActionID string `json:"actionId"`
	Prompt   string `json:"prompt"`
	Tokens   int    `json:"tokens"`
}

// Form is the visibility state of an action's fields for one snapshot.
type Form struct {
	Action *schema.ActionDefinition
	*visibility.Evaluator
}

// Builder generates prompts from a catalog. It is safe for concurrent use.
type Builder struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	renderer *render.Renderer
	tokens   *TokenCounter
	logger   utils.Logger
}

// New builds a Builder from the environment and opts, loading the catalog
// named by the configuration or the embedded default.
func New(opts ...config.ConfigOption) (*Builder, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, NewError(ErrorTypeConfig, "failed to load configuration", err)
	}
	config.ApplyOptions(cfg, opts...)

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return nil, NewError(ErrorTypeCatalog, "failed to load catalog", err)
	}
	return newBuilder(cfg, cat)
}

// NewWithCatalog builds a Builder over an already loaded catalog. The
// configuration starts from NewConfig rather than the environment.
func NewWithCatalog(cat *catalog.Catalog, opts ...config.ConfigOption) (*Builder, error) {
	cfg := config.NewConfig()
	config.ApplyOptions(cfg, opts...)
	return newBuilder(cfg, cat)
}

func newBuilder(cfg *config.Config, cat *catalog.Catalog) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, NewError(ErrorTypeConfig, "invalid configuration", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = utils.NewLogger(cfg.LogLevel)
	}

	pre := preprocess.New()
	if terms := cat.TermLabels(); len(terms) > 0 {
		pre = preprocess.New(preprocess.WithTerms(terms))
	}
	b := &Builder{
		cfg:      cfg,
		catalog:  cat,
		renderer: render.New(render.WithLogger(logger), render.WithPreprocessor(pre)),
		tokens:   NewTokenCounter(cfg.TokenModel, logger),
		logger:   logger,
	}

	issues := b.Lint()
	if schema.HasErrors(issues) && cfg.StrictCatalog {
		return nil, NewError(ErrorTypeCatalog, "catalog has lint errors", lintError(issues))
	}
	for _, issue := range issues {
		if issue.Severity == schema.SeverityError {
			b.logger.Warn("Catalog lint error", "issue", issue.String())
		} else {
			b.logger.Debug("Catalog lint warning", "issue", issue.String())
		}
	}
	b.logger.Debug("Builder ready", "actions", len(cat.Actions()), "catalog", cfg.CatalogPath)
	return b, nil
}

func lintError(issues []schema.Issue) error {
	var msgs []string
	for _, issue := range issues {
		if issue.Severity == schema.SeverityError {
			msgs = append(msgs, issue.String())
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Catalog returns the loaded catalog.
func (b *Builder) Catalog() *catalog.Catalog {
	return b.catalog
}

// Config returns the effective configuration.
func (b *Builder) Config() *config.Config {
	return b.cfg
}

// Lint reports schema defects of every action, including rule expressions
// that do not compile.
func (b *Builder) Lint() []schema.Issue {
	issues := b.catalog.Lint()
	for _, a := range b.catalog.Actions() {
		issues = append(issues, b.renderer.CheckExpressions(a)...)
	}
	return issues
}

// Action returns an action or an ErrorTypeUnknownAction error carrying
// suggestions.
func (b *Builder) Action(id string) (*schema.ActionDefinition, error) {
	a, ok := b.catalog.Action(id)
	if ok {
		return a, nil
	}
	msg := fmt.Sprintf("unknown action %q", id)
	if suggestions := b.catalog.Suggest(id); len(suggestions) > 0 {
		msg += fmt.Sprintf("; did you mean %s?", strings.Join(suggestions, ", "))
	}
	return nil, NewError(ErrorTypeUnknownAction, msg, nil)
}

// Form evaluates field visibility for a snapshot.
func (b *Builder) Form(id string, snapshot schema.FormValues) (*Form, error) {
	a, err := b.Action(id)
	if err != nil {
		return nil, err
	}
	return &Form{
		Action:    a,
		Evaluator: visibility.New(a.Fields, b.withDefaults(a, snapshot), visibility.WithLogger(b.logger)),
	}, nil
}

// Generate renders the prompt of an action for raw values.
func (b *Builder) Generate(id string, raw schema.FormValues) (*Result, error) {
	a, err := b.Action(id)
	if err != nil {
		return nil, err
	}

	values := b.withDefaults(a, raw)
	form := visibility.New(a.Fields, values, visibility.WithLogger(b.logger))
	if b.cfg.DropInactive {
		values = form.ActiveValues(values)
	}
	if b.cfg.StrictValues {
		if err := schema.CheckValues(a, values, form.Required); err != nil {
			return nil, NewError(ErrorTypeInvalidInput, fmt.Sprintf("values rejected for %s", a.ID), err)
		}
	}

	prompt := b.renderer.Render(a, values)
	result := &Result{
		ActionID: a.ID,
		Prompt:   prompt,
		Tokens:   b.tokens.Count(prompt),
	}
	b.logger.Debug("Generated prompt", "action", a.ID, "tokens", result.Tokens)
	return result, nil
}

// Render is Generate returning only the prompt text.
func (b *Builder) Render(id string, raw schema.FormValues) (string, error) {
	res, err := b.Generate(id, raw)
	if err != nil {
		return "", err
	}
	return res.Prompt, nil
}

func (b *Builder) withDefaults(a *schema.ActionDefinition, raw schema.FormValues) schema.FormValues {
	values := raw.Clone()
	if !b.cfg.ApplyDefaults {
		return values
	}
	for k, v := range a.Defaults() {
		if !schema.Present(values[k]) {
			values[k] = v
		}
	}
	return values
}
