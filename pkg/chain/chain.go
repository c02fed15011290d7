// Package chain drives an ordered list of middleware around a terminal handler.
//
// Each middleware receives the running Request and a Next continuation.
// Calling next(patch) shallow-merges patch into the request context and runs
// the rest of the chain; returning without calling next short-circuits the
// chain with the middleware's own result. Middleware run strictly in order,
// one at a time.
package chain

import (
	"context"
	"errors"

	"github.com/aretw0/relay/pkg/domain"
)

// ErrNextCalledTwice is returned when a middleware invokes its continuation more than once.
var ErrNextCalledTwice = errors.New("chain: next called more than once")

// Request is the mutable state of one pass through a chain.
type Request struct {
	// Operation is the display name of the operation being invoked.
	Operation string
	// Input is the raw input; the terminal replaces it with the validated value.
	Input any
	// Context accumulates patches passed to next.
	Context domain.Context
}

// Next continues the chain, optionally merging patch into the request context.
type Next func(patch domain.Context) (any, error)

// Middleware wraps the rest of the chain.
type Middleware func(ctx context.Context, req *Request, next Next) (any, error)

// Terminal is the final step run once every middleware has called next.
type Terminal func(ctx context.Context, req *Request) (any, error)

// Execute runs middleware in order and then terminal.
// Errors are returned unchanged; catching and formatting them is the caller's job.
func Execute(ctx context.Context, middleware []Middleware, terminal Terminal, req *Request) (any, error) {
	if req.Context == nil {
		req.Context = domain.Context{}
	}

	var dispatch func(i int) (any, error)
	dispatch = func(i int) (any, error) {
		if i == len(middleware) {
			return terminal(ctx, req)
		}

		called := false
		return middleware[i](ctx, req, func(patch domain.Context) (any, error) {
			if called {
				return nil, ErrNextCalledTwice
			}
			called = true
			if len(patch) > 0 {
				req.Context = req.Context.Merge(patch)
			}
			return dispatch(i + 1)
		})
	}

	return dispatch(0)
}

// Compose flattens several middleware into one that runs them in order.
func Compose(middleware ...Middleware) Middleware {
	return func(ctx context.Context, req *Request, next Next) (any, error) {
		if len(middleware) == 0 {
			return next(nil)
		}
		return Execute(ctx, middleware, func(ctx context.Context, req *Request) (any, error) {
			return next(nil)
		}, req)
	}
}
