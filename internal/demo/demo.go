// Package demo declares the sample catalogue served by the relay CLI when no
// process tools are configured.
package demo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/middleware"
	"github.com/aretw0/relay/pkg/schema"
)

// ErrDivisionByZero is returned by the divide operation.
var ErrDivisionByZero = errors.New("division by zero")

// ErrUserExists is returned when registering a taken email.
var ErrUserExists = errors.New("user already exists")

// Install adds the Echo, Math and Users containers to r.
func Install(r *relay.Relay) {
	Echo(r)
	Math(r)
	Users(r, NewUserStore())
}

// Echo is the smallest possible tool container.
func Echo(r *relay.Relay) *dsl.Container {
	c := r.Tool("Echo", "Repeats what it is given")
	c.Capability(dsl.RouteOptions{Name: "Message", Description: "Echoes a message back"}).
		Input(schema.Object(
			schema.Field("message", schema.String()).Describe("Text to repeat"),
			schema.Field("times", schema.Int()).Describe("Repetitions").Optional(),
		)).
		Use(middleware.Sanitize(0)).
		Handler(func(_ context.Context, in any, _ domain.Context) (any, error) {
			args := in.(map[string]any)
			msg := args["message"].(string)
			times, _ := args["times"].(int)
			if times <= 1 {
				return msg, nil
			}
			return strings.TrimSpace(strings.Repeat(msg+" ", times)), nil
		})
	return c
}

// Operands is the input of the arithmetic operations.
type Operands struct {
	A float64 `json:"a" jsonschema:"required,description=Left operand"`
	B float64 `json:"b" jsonschema:"required,description=Right operand"`
}

// Result is the output of the arithmetic operations.
type Result struct {
	Value float64 `json:"value"`
}

// Math exposes arithmetic with reflected schemas.
func Math(r *relay.Relay) *dsl.Container {
	c := r.Tool("Math", "Basic arithmetic")
	binary := func(name, desc string, fn func(a, b float64) (float64, error)) {
		c.Capability(dsl.RouteOptions{Name: name, Description: desc}).
			Input(schema.Reflect[Operands]()).
			Handler(dsl.Typed(func(_ context.Context, in Operands, _ domain.Context) (Result, error) {
				v, err := fn(in.A, in.B)
				if err != nil {
					return Result{}, err
				}
				return Result{Value: v}, nil
			}))
	}
	binary("Add", "Adds two numbers", func(a, b float64) (float64, error) { return a + b, nil })
	binary("Multiply", "Multiplies two numbers", func(a, b float64) (float64, error) { return a * b, nil })
	binary("Divide", "Divides a by b", func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	})
	c.Capability(dsl.RouteOptions{Name: "Square Root", Description: "Square root of a non-negative number"}).
		Input(schema.MustJSON(`{
			"type": "object",
			"properties": {"x": {"type": "number", "minimum": 0, "description": "Radicand"}},
			"required": ["x"]
		}`)).
		Handler(func(_ context.Context, in any, _ domain.Context) (any, error) {
			x := in.(map[string]any)["x"].(float64)
			return Result{Value: math.Sqrt(x)}, nil
		})
	return c
}

// User is a registered account.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// UserStore is an in-memory user table.
type UserStore struct {
	mu    sync.RWMutex
	users []User
}

func NewUserStore() *UserStore {
	return &UserStore{}
}

func (s *UserStore) add(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
	}
	s.users = append(s.users, u)
	return nil
}

func (s *UserStore) list() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, len(s.users))
	copy(out, s.users)
	return out
}

// Users is an app container sharing a tenant through its root context.
func Users(r *relay.Relay, store *UserStore) *dsl.Container {
	c := r.App("Users", "User registration").
		Context(domain.Context{"tenant": "demo"})

	c.Route(dsl.RouteOptions{Name: "Register", Path: "/users/register", Description: "Registers a user"}).
		Input(schema.Object(
			schema.Field("email", schema.Email()),
			schema.Field("name", schema.String()),
			schema.Field("role", schema.Enum("admin", "member")).Optional(),
		)).
		Use(middleware.RequireContext("tenant")).
		Handler(func(_ context.Context, in any, cx domain.Context) (any, error) {
			args := in.(map[string]any)
			u := User{Email: args["email"].(string), Name: args["name"].(string), Role: "member"}
			if role, ok := args["role"].(string); ok {
				u.Role = role
			}
			if err := store.add(u); err != nil {
				return nil, err
			}
			return map[string]any{"tenant": cx["tenant"], "user": u}, nil
		})

	c.Route(dsl.RouteOptions{Name: "List", Path: "/users", Description: "Lists registered users"}).
		Handler(func(_ context.Context, _ any, _ domain.Context) (any, error) {
			return store.list(), nil
		})
	return c
}
