package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"
)

// JSONSchema validates values against a raw JSON-Schema document.
// The document itself is exported as the protocol parameter schema.
type JSONSchema struct {
	schema *jsonschema.Schema
	doc    map[string]any
}

// JSON compiles a raw JSON-Schema document.
func JSON(raw string) (*JSONSchema, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(raw), rs); err != nil {
		return nil, fmt.Errorf("schema: invalid JSON schema: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("schema: JSON schema must be an object: %w", err)
	}
	return &JSONSchema{schema: rs, doc: doc}, nil
}

// MustJSON is like JSON but panics on an invalid document.
// It is intended for package-level schema variables.
func MustJSON(raw string) *JSONSchema {
	s, err := JSON(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks value against the document. The value is normalized through
// JSON first, so Go structs and typed maps are accepted; the normalized form is
// returned.
func (s *JSONSchema) Validate(value any) (any, error) {
	normalized, err := normalize(value)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("value is not JSON encodable: %v", err), Value: value}
	}

	state := s.schema.Validate(context.Background(), normalized)
	if state.Errs == nil || len(*state.Errs) == 0 {
		return normalized, nil
	}

	errs := make([]error, 0, len(*state.Errs))
	for _, ke := range *state.Errs {
		errs = append(errs, &ValidationError{
			Key:    pointerToKey(ke.PropertyPath),
			Reason: ke.Message,
			Value:  ke.InvalidValue,
		})
	}
	return nil, &AggregateError{Errors: errs}
}

// ParameterSchema returns a copy of the raw document.
func (s *JSONSchema) ParameterSchema() map[string]any {
	out, err := normalize(s.doc)
	if err != nil {
		return EmptyObject()
	}
	m, _ := out.(map[string]any)
	return m
}

func normalize(value any) (any, error) {
	if value == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// pointerToKey turns a JSON pointer ("/address/city") into a field path ("address.city").
func pointerToKey(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}

var _ Validator = (*JSONSchema)(nil)
