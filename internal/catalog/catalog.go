// Package catalog holds the fixed set of building-data operations the
// assistant can dispatch. The catalog is immutable after startup: the
// reasoning model picks operations by name, but every name and argument
// is validated against the declared schema before anything executes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/minhdn/towerdesk/internal/llm"
	"github.com/minhdn/towerdesk/internal/store"
)

// ErrOperationNotFound marks a request for an operation the catalog does
// not declare.
var ErrOperationNotFound = errors.New("operation not found")

// ErrArgumentSchema marks arguments that do not satisfy an operation's
// declared parameter schema.
var ErrArgumentSchema = errors.New("argument schema mismatch")

// Param declares one operation parameter.
type Param struct {
	Name        string
	Type        string // "string" | "number" | "integer" | "boolean"
	Description string
	Enum        []string
	Required    bool
}

// Operation is one catalog entry: metadata advertised to the model plus
// the handler that runs the tenant-scoped queries.
type Operation struct {
	Name        string
	Description string
	Params      []Param

	handler func(ctx context.Context, c *Catalog, args map[string]any) map[string]any
}

// Catalog binds the operation set to the tenant-scoped store.
type Catalog struct {
	ops   map[string]*Operation
	order []string
	store *store.Store
}

// New builds the catalog over the given store.
func New(st *store.Store) *Catalog {
	c := &Catalog{
		ops:   make(map[string]*Operation),
		store: st,
	}
	for _, op := range operations() {
		c.ops[op.Name] = op
		c.order = append(c.order, op.Name)
	}
	return c
}

// Declarations returns the catalog as model-ready function declarations,
// in registration order.
func (c *Catalog) Declarations() []llm.Declaration {
	decls := make([]llm.Declaration, 0, len(c.order))
	for _, name := range c.order {
		op := c.ops[name]
		decls = append(decls, llm.Declaration{
			Name:        op.Name,
			Description: op.Description,
			Parameters:  op.parameterSchema(),
		})
	}
	return decls
}

// parameterSchema renders the params as a JSON Schema object.
func (op *Operation) parameterSchema() map[string]any {
	props := make(map[string]any, len(op.Params))
	var required []string
	for _, p := range op.Params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Validate checks an operation name and argument mapping against the
// catalog. A failure here aborts the turn; nothing is dispatched.
func (c *Catalog) Validate(name string, args map[string]any) error {
	op, ok := c.ops[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrOperationNotFound, name)
	}

	declared := make(map[string]Param, len(op.Params))
	for _, p := range op.Params {
		declared[p.Name] = p
	}

	for argName, value := range args {
		p, ok := declared[argName]
		if !ok {
			return fmt.Errorf("%w: %s does not accept argument %q", ErrArgumentSchema, name, argName)
		}
		if err := checkType(p, value); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrArgumentSchema, name, argName, err)
		}
	}

	for _, p := range op.Params {
		if p.Required {
			if _, ok := args[p.Name]; !ok {
				return fmt.Errorf("%w: %s requires argument %q", ErrArgumentSchema, name, p.Name)
			}
		}
	}
	return nil
}

// Dispatch validates and executes an operation, returning its result
// envelope. Validation failures return an error (the turn aborts);
// execution failures are folded into the envelope so the model can react.
func (c *Catalog) Dispatch(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if err := c.Validate(name, args); err != nil {
		return nil, err
	}
	return c.ops[name].handler(ctx, c, args), nil
}

func checkType(p Param, value any) error {
	switch p.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if len(p.Enum) > 0 {
			for _, e := range p.Enum {
				if s == e {
					return nil
				}
			}
			return fmt.Errorf("value %q not in %v", s, p.Enum)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "number":
		if _, ok := asFloat(value); !ok {
			return fmt.Errorf("expected number, got %T", value)
		}
	case "integer":
		f, ok := asFloat(value)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("expected integer, got %v", value)
		}
	}
	return nil
}

// asFloat accepts the numeric shapes JSON decoding and Go callers produce.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Envelope helpers shared by all handlers.

func listEnvelope(rows []map[string]any) map[string]any {
	if rows == nil {
		rows = []map[string]any{}
	}
	return map[string]any{"success": true, "data": rows, "count": len(rows)}
}

func itemEnvelope(item map[string]any) map[string]any {
	return map[string]any{"success": true, "data": item}
}

func errEnvelope(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg, "data": []map[string]any{}, "count": 0}
}
