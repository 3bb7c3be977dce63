package render

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/teilomillet/promptbuilder/schema"
)

// exprCache compiles CEL rule expressions once per renderer. Expressions see
// the derived values as the map variable `values`, for example
// `has(values.studentNames) && values.recipientType == "specific"`.
type exprCache struct {
	once    sync.Once
	env     *cel.Env
	envErr  error
	mu      sync.RWMutex
	entries map[string]cel.Program
}

func newExprCache() *exprCache {
	return &exprCache{entries: make(map[string]cel.Program)}
}

func (c *exprCache) environment() (*cel.Env, error) {
	c.once.Do(func() {
		c.env, c.envErr = cel.NewEnv(
			cel.Variable("values", cel.MapType(cel.StringType, cel.DynType)),
		)
		if c.envErr != nil {
			c.envErr = fmt.Errorf("failed to create CEL environment: %w", c.envErr)
		}
	})
	return c.env, c.envErr
}

// compile checks that expr parses, type-checks and yields a bool.
func (c *exprCache) compile(expr string) (cel.Program, error) {
	c.mu.RLock()
	prg, hit := c.entries[expr]
	c.mu.RUnlock()
	if hit {
		return prg, nil
	}

	env, err := c.environment()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression yields %s, not bool", out)
	}
	prg, err = env.Program(ast, cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}

	c.mu.Lock()
	c.entries[expr] = prg
	c.mu.Unlock()
	return prg, nil
}

func (c *exprCache) eval(expr string, values schema.DerivedValues) (bool, error) {
	prg, err := c.compile(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{"values": celValues(values)})
	if err != nil {
		return false, fmt.Errorf("eval: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression result %v is not bool", out.Value())
	}
	return b, nil
}

// celValues converts derived values into types the CEL adapter understands.
func celValues(values schema.DerivedValues) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = celValue(v)
	}
	return out
}

func celValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int64, float64, time.Time:
		return val
	case int:
		return int64(val)
	case []schema.FileDescriptor:
		files := make([]any, len(val))
		for i, f := range val {
			files[i] = map[string]any{"name": f.Name, "size": f.Size, "mimeType": f.MimeType}
		}
		return files
	case []any:
		items := make([]any, len(val))
		for i := range val {
			items[i] = celValue(val[i])
		}
		return items
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = celValue(item)
		}
		return m
	default:
		return fmt.Sprint(val)
	}
}
