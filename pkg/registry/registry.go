package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/schema"
)

var (
	// ErrDuplicate is returned when a unit or one of its functions is already registered.
	ErrDuplicate = errors.New("already registered")
	// ErrNotFound is returned by Invoke when nothing answers to a name.
	ErrNotFound = errors.New("not found")
)

// Kind discriminates the variants of Unit.
type Kind int

const (
	KindOperation Kind = iota + 1
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindOperation:
		return "operation"
	case KindContainer:
		return "container"
	}
	return "unknown"
}

// Unit is either a standalone operation or a container. Exactly one of the
// pointers is set, as told by Kind.
type Unit struct {
	Kind      Kind
	Operation *dsl.Operation
	Container *dsl.Container
}

// OperationUnit wraps a standalone operation.
func OperationUnit(op *dsl.Operation) Unit {
	return Unit{Kind: KindOperation, Operation: op}
}

// ContainerUnit wraps a container.
func ContainerUnit(c *dsl.Container) Unit {
	return Unit{Kind: KindContainer, Container: c}
}

// Name returns the declared name of the unit.
func (u Unit) Name() string {
	if u.Kind == KindContainer {
		return u.Container.Name()
	}
	return u.Operation.Name()
}

// Functions returns the protocol functions the unit exposes. A standalone
// operation is exposed under its slug.
func (u Unit) Functions() []domain.FunctionDefinition {
	if u.Kind == KindContainer {
		return u.Container.Functions()
	}
	return []domain.FunctionDefinition{{
		Type: domain.FunctionType,
		Function: domain.Function{
			Name:        u.Operation.Slug(),
			Description: u.Operation.Description(),
			Parameters:  schema.ParameterSchema(u.Operation.InputSchema()),
		},
	}}
}

// Registry holds the units served by a process. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	units     []Unit
	bySlug    map[string]int
	functions map[string]int
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySlug:    make(map[string]int),
		functions: make(map[string]int),
	}
}

// Register adds units in order. It fails without registering anything from
// the offending unit when its name or one of its function names is taken.
// Function names are indexed here, so register containers once their
// operations are declared; later additions stay reachable through Invoke
// but go unchecked for collisions.
func (r *Registry) Register(units ...Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range units {
		if u.Kind != KindOperation && u.Kind != KindContainer {
			return fmt.Errorf("register: invalid unit kind %d", u.Kind)
		}
		slug := domain.Slug(u.Name())
		if _, ok := r.bySlug[slug]; ok {
			return fmt.Errorf("%s %q: %w", u.Kind, u.Name(), ErrDuplicate)
		}
		fns := u.Functions()
		seen := make(map[string]bool, len(fns))
		for _, fn := range fns {
			name := fn.Function.Name
			if _, ok := r.functions[name]; ok || seen[name] {
				return fmt.Errorf("function %q: %w", name, ErrDuplicate)
			}
			seen[name] = true
		}

		idx := len(r.units)
		r.units = append(r.units, u)
		r.bySlug[slug] = idx
		for name := range seen {
			r.functions[name] = idx
		}
	}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(units ...Unit) *Registry {
	if err := r.Register(units...); err != nil {
		panic(err)
	}
	return r
}

// Units returns the registered units in registration order.
func (r *Registry) Units() []Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Unit, len(r.units))
	copy(out, r.units)
	return out
}

// Containers returns the registered containers in registration order.
func (r *Registry) Containers() []*dsl.Container {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*dsl.Container
	for _, u := range r.units {
		if u.Kind == KindContainer {
			out = append(out, u.Container)
		}
	}
	return out
}

// Functions lists every exposed function in registration order.
func (r *Registry) Functions() []domain.FunctionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.FunctionDefinition
	for _, u := range r.units {
		out = append(out, u.Functions()...)
	}
	return out
}

// Lookup finds a unit by name, ignoring case and whitespace differences.
func (r *Registry) Lookup(name string) (Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.bySlug[domain.Slug(name)]
	if !ok {
		return Unit{}, false
	}
	return r.units[idx], true
}

// Invoke runs the operation answering to name with input. The name is
// either a function name ("echo-message", or a standalone operation slug)
// or a "container/operation" pair resolved like Container.Run.
func (r *Registry) Invoke(ctx context.Context, name string, input any) (any, error) {
	r.mu.RLock()
	idx, ok := r.functions[name]
	var u Unit
	if ok {
		u = r.units[idx]
	}
	r.mu.RUnlock()

	if ok {
		if u.Kind == KindOperation {
			return u.Operation.Run(nil).Handle(ctx, dsl.Invocation{Input: input})
		}
		res, _, err := u.Container.HandleToolCall(ctx, name, input)
		return res, err
	}

	for _, c := range r.Containers() {
		if res, ok, err := c.HandleToolCall(ctx, name, input); ok {
			return res, err
		}
	}

	if container, op, found := strings.Cut(name, "/"); found {
		if u, ok := r.Lookup(container); ok && u.Kind == KindContainer {
			inv, err := u.Container.Run(op)
			if err != nil {
				return nil, err
			}
			return inv.Handle(ctx, dsl.Invocation{Input: input})
		}
	}
	return nil, fmt.Errorf("%q: %w: %w", name, ErrNotFound, domain.ErrFunctionNotFound)
}
