package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/relay/pkg/chain"
	"github.com/aretw0/relay/pkg/domain"
)

// ErrMissingContext is returned by RequireContext when a key is absent.
var ErrMissingContext = errors.New("missing context value")

// Logging logs the outcome and duration of every invocation.
func Logging(logger *slog.Logger) chain.Middleware {
	return func(ctx context.Context, req *chain.Request, next chain.Next) (any, error) {
		start := time.Now()
		res, err := next(nil)
		attrs := []any{
			"operation", req.Operation,
			"duration", time.Since(start),
			"tool_call", req.Context.FromToolCall(),
		}
		if err != nil {
			logger.ErrorContext(ctx, "operation failed", append(attrs, "error", err)...)
			return res, err
		}
		logger.InfoContext(ctx, "operation completed", attrs...)
		return res, nil
	}
}

// RequireContext rejects invocations whose context lacks any of keys.
func RequireContext(keys ...string) chain.Middleware {
	return func(ctx context.Context, req *chain.Request, next chain.Next) (any, error) {
		for _, k := range keys {
			if v, ok := req.Context[k]; !ok || v == nil {
				return nil, fmt.Errorf("%w: %q", ErrMissingContext, k)
			}
		}
		return next(nil)
	}
}

// With adds patch to the context seen by later middleware and the handler.
func With(patch domain.Context) chain.Middleware {
	return func(ctx context.Context, req *chain.Request, next chain.Next) (any, error) {
		return next(patch)
	}
}

// WithFunc computes a context patch per invocation, typically to resolve the
// caller's identity. An error stops the chain.
func WithFunc(fn func(ctx context.Context, req *chain.Request) (domain.Context, error)) chain.Middleware {
	return func(ctx context.Context, req *chain.Request, next chain.Next) (any, error) {
		patch, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		return next(patch)
	}
}
