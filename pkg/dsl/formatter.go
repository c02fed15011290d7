package dsl

import (
	"errors"

	"github.com/aretw0/relay/pkg/domain"
)

// SuccessFormatter shapes a validated handler output into the call result.
type SuccessFormatter func(output, input any, c domain.Context) (any, error)

// ErrorFormatter turns a failure into the call result. Returning a non-nil
// error propagates that error to the caller instead.
type ErrorFormatter func(err error, input any, c domain.Context) (any, error)

// Formatter shapes results for protocol consumers (typically an LLM).
// A nil Success passes the output through; a nil Error lets errors propagate.
type Formatter struct {
	Success SuccessFormatter
	Error   ErrorFormatter
}

// ErrorResult is the value produced by the default error formatter.
type ErrorResult struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type detailer interface {
	Details() any
}

// DefaultFormatter passes outputs through and converts failures into an
// ErrorResult. Input validation failures are not converted: they are the
// caller's fault and propagate unchanged.
func DefaultFormatter() Formatter {
	return Formatter{
		Success: func(output, input any, c domain.Context) (any, error) {
			return output, nil
		},
		Error: func(err error, input any, c domain.Context) (any, error) {
			var verr *ValidationError
			if errors.As(err, &verr) && verr.Stage == StageInput {
				return nil, err
			}
			return NewErrorResult(err), nil
		},
	}
}

// NewErrorResult builds the {error, details} value for err.
func NewErrorResult(err error) ErrorResult {
	res := ErrorResult{Error: err.Error()}
	var d detailer
	if errors.As(err, &d) {
		res.Details = d.Details()
	}
	return res
}
