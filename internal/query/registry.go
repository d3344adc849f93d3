package query

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/swiftbase/swiftbase/internal/apperr"
)

var (
	ErrQueryNotFound     = errors.New("custom query not found")
	ErrQueryExists       = errors.New("custom query already registered")
	ErrInvalidParamRule  = errors.New("invalid parameter validation expression")
	ErrParamValidation   = errors.New("parameter validation failed")
)

// Callable is the function a custom query runs once its parameters
// pass validation.
type Callable func(ctx context.Context, params map[string]any) (any, error)

// Entry is one registered custom query: its callable plus an optional
// CEL expression validating the incoming params map before the
// callable runs.
type Entry struct {
	Name        string
	Description string
	Fn          Callable
	paramRule   cel.Program
}

// CustomRegistry is the Custom Query Registry: a process-wide mapping
// from opaque name to callable, with optional CEL-based parameter
// validation, held in memory only.
type CustomRegistry struct {
	env     *cel.Env
	entries map[string]*Entry
	mu      sync.RWMutex
}

func NewCustomRegistry() (*CustomRegistry, error) {
	env, err := cel.NewEnv(
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}
	return &CustomRegistry{env: env, entries: make(map[string]*Entry)}, nil
}

// Register adds a named query. paramRule, if non-empty, is a CEL
// expression over `params` that must evaluate to true for the call to
// proceed; a compile failure is returned immediately rather than
// deferred to call time.
func (r *CustomRegistry) Register(name, description string, fn Callable, paramRule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return ErrQueryExists
	}

	entry := &Entry{Name: name, Description: description, Fn: fn}

	if paramRule != "" {
		ast, issues := r.env.Compile(paramRule)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParamRule, issues.Err())
		}
		program, err := r.env.Program(ast)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParamRule, err)
		}
		entry.paramRule = program
	}

	r.entries[name] = entry
	return nil
}

// Unregister removes a query; removing an unknown name is a no-op.
func (r *CustomRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns every registered query's name and description, for the
// admin-only listing endpoint.
func (r *CustomRegistry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, Entry{Name: e.Name, Description: e.Description})
	}
	return out
}

// Call validates params (if a rule is registered) and invokes the
// named query's callable. Execution inherits the caller's
// authentication via ctx but is otherwise unrestricted.
func (r *CustomRegistry) Call(ctx context.Context, name string, params map[string]any) (any, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("custom query " + name + " is not registered")
	}

	if entry.paramRule != nil {
		if params == nil {
			params = map[string]any{}
		}
		result, _, err := entry.paramRule.Eval(map[string]any{"params": params})
		if err != nil {
			return nil, apperr.WithField(apperr.KindInvalidInput, "params", "parameter validation error: "+err.Error())
		}
		valid, ok := result.Value().(bool)
		if !ok || !valid {
			return nil, apperr.WithField(apperr.KindInvalidInput, "params", "parameters failed validation")
		}
	}

	return entry.Fn(ctx, params)
}
