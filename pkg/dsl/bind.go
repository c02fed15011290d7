package dsl

import (
	"context"
	"fmt"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Bind converts a validated input into T. Values already of type T are
// returned as is; maps are decoded field by field using json tags.
func Bind[T any](input any) (T, error) {
	var out T
	if v, ok := input.(T); ok {
		return v, nil
	}
	if p, ok := input.(*T); ok && p != nil {
		return *p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(input); err != nil {
		return out, fmt.Errorf("bind %T: %w", out, err)
	}
	return out, nil
}

// Typed adapts a strongly typed function into a Handler. The input is
// converted with Bind before fn runs.
func Typed[In, Out any](fn func(ctx context.Context, in In, c domain.Context) (Out, error)) Handler {
	return func(ctx context.Context, input any, c domain.Context) (any, error) {
		in, err := Bind[In](input)
		if err != nil {
			return nil, err
		}
		return fn(ctx, in, c)
	}
}
