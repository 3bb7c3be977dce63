// Package catalog loads the action catalog: categories, terms, courses and
// the actions rendered into prompts.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/teilomillet/promptbuilder/schema"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

const schemaURL = "https://promptbuilder.schemas.local/catalog.schema.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func documentSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := schema.JSONSchemaBytes()
		if err != nil {
			compileErr = err
			return
		}
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("catalog schema load failed: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("catalog schema compile failed: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Catalog is a validated, indexed catalog document. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	doc     schema.Catalog
	actions map[string]*schema.ActionDefinition
	ids     []string
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// DefaultYAML returns the embedded catalog document.
func DefaultYAML() []byte {
	return bytes.Clone(defaultCatalog)
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML (or JSON) catalog document, checks it against the
// catalog JSON Schema and indexes it.
func Parse(data []byte) (*Catalog, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := validateDocument(generic); err != nil {
		return nil, err
	}

	var doc schema.Catalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(doc)
}

func validateDocument(generic any) error {
	sch, err := documentSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("failed to convert catalog to JSON: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to convert catalog to JSON: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("catalog does not match schema: %w", err)
	}
	return nil
}

// New indexes a catalog built in Go, for example one whose rules carry
// predicate functions.
func New(doc schema.Catalog) (*Catalog, error) {
	if err := schema.Validate(&doc); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	c := &Catalog{
		doc:     doc,
		actions: make(map[string]*schema.ActionDefinition, len(doc.Actions)),
		ids:     make([]string, 0, len(doc.Actions)),
	}
	for i := range c.doc.Actions {
		a := &c.doc.Actions[i]
		if _, dup := c.actions[a.ID]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate action id %q", a.ID)
		}
		c.actions[a.ID] = a
		c.ids = append(c.ids, a.ID)
	}
	return c, nil
}

// Document returns the underlying catalog document.
func (c *Catalog) Document() *schema.Catalog {
	return &c.doc
}

// Action returns the action with the given id.
func (c *Catalog) Action(id string) (*schema.ActionDefinition, bool) {
	a, ok := c.actions[id]
	return a, ok
}

// Actions returns all actions in catalog order.
func (c *Catalog) Actions() []*schema.ActionDefinition {
	out := make([]*schema.ActionDefinition, len(c.ids))
	for i, id := range c.ids {
		out[i] = c.actions[id]
	}
	return out
}

// ActionsByCategory returns the actions of one category in catalog order.
func (c *Catalog) ActionsByCategory(category string) []*schema.ActionDefinition {
	var out []*schema.ActionDefinition
	for _, id := range c.ids {
		if a := c.actions[id]; a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// Categories returns the declared categories.
func (c *Catalog) Categories() []schema.Category {
	return c.doc.Categories
}

// Terms returns the declared terms.
func (c *Catalog) Terms() []schema.Term {
	return c.doc.Terms
}

// Suggest ranks action ids that fuzzily match id, best first, at most three.
func (c *Catalog) Suggest(id string) []string {
	if id == "" {
		return nil
	}
	matches := fuzzy.Find(id, c.ids)
	out := make([]string, 0, 3)
	for _, m := range matches {
		if len(out) == 3 {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// TermLabels maps term codes to labels, for the preprocessor.
func (c *Catalog) TermLabels() map[string]string {
	labels := make(map[string]string, len(c.doc.Terms))
	for _, t := range c.doc.Terms {
		labels[t.Code] = t.Label
	}
	return labels
}

// Lint runs the schema linter over every action and checks that actions
// name declared categories.
func (c *Catalog) Lint() []schema.Issue {
	categories := make(map[string]bool, len(c.doc.Categories))
	for _, cat := range c.doc.Categories {
		categories[cat.ID] = true
	}
	var issues []schema.Issue
	for _, a := range c.Actions() {
		issues = append(issues, schema.Lint(a)...)
		if a.Category != "" && len(categories) > 0 && !categories[a.Category] {
			issues = append(issues, schema.Issue{
				Severity: schema.SeverityWarning,
				Action:   a.ID,
				Message:  fmt.Sprintf("category %q is not declared", a.Category),
			})
		}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity == schema.SeverityError && issues[j].Severity != schema.SeverityError
	})
	return issues
}
