package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/relay/pkg/chain"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when RateLimit rejects an invocation.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit rejects invocations once limiter has no token available.
func RateLimit(limiter *rate.Limiter) chain.Middleware {
	return func(ctx context.Context, req *chain.Request, next chain.Next) (any, error) {
		if !limiter.Allow() {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, req.Operation)
		}
		return next(nil)
	}
}

// Throttle waits for a token before continuing. It fails only when ctx is
// done first.
func Throttle(limiter *rate.Limiter) chain.Middleware {
	return func(ctx context.Context, req *chain.Request, next chain.Next) (any, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", req.Operation, err)
		}
		return next(nil)
	}
}
