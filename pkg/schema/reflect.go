package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// StructSchema derives both validation and the parameter document from a Go
// struct type. Field names follow `json` tags; `jsonschema:"required"` marks
// required fields and `jsonschema:"description=..."` documents them.
//
//	type CreateUser struct {
//	    Email string `json:"email" jsonschema:"required,format=email,description=Login address"`
//	    Age   int    `json:"age,omitempty"`
//	}
//	s := schema.Reflect[CreateUser]()
//
// The validated value is a T.
type StructSchema[T any] struct {
	doc      map[string]any
	required []string
}

// Reflect builds a StructSchema for T.
func Reflect[T any]() *StructSchema[T] {
	reflector := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
	}
	var v T
	reflected := reflector.Reflect(&v)

	doc := EmptyObject()
	if b, err := json.Marshal(reflected); err == nil {
		var m map[string]any
		if json.Unmarshal(b, &m) == nil {
			doc = m
		}
	}
	delete(doc, "$schema")
	delete(doc, "$id")

	return &StructSchema[T]{
		doc:      doc,
		required: slices.Clone(reflected.Required),
	}
}

// Validate decodes value into a T. Unknown keys, missing required keys and
// type mismatches are reported as validation errors.
func (s *StructSchema[T]) Validate(value any) (any, error) {
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	if ptr, ok := value.(*T); ok && ptr != nil {
		return *ptr, nil
	}

	data, ok := value.(map[string]any)
	if !ok {
		if value != nil {
			return nil, &ValidationError{Reason: "expected object", Value: value}
		}
		data = map[string]any{}
	}

	var errs []error
	for _, key := range s.required {
		if v, exists := data[key]; !exists || v == nil {
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
		}
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}

	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		TagName:     "json",
		ErrorUnused: true,
		DecodeHook:  wholeNumbers,
	})
	if err != nil {
		return nil, fmt.Errorf("schema: decoder setup: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		var merr *mapstructure.Error
		if errors.As(err, &merr) {
			for _, msg := range merr.Errors {
				errs = append(errs, &ValidationError{Reason: msg})
			}
			return nil, &AggregateError{Errors: errs}
		}
		return nil, &ValidationError{Reason: err.Error(), Value: value}
	}
	return out, nil
}

// wholeNumbers rejects fractional numbers bound for integer fields, which
// mapstructure would otherwise truncate.
func wholeNumbers(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Float32 && v.Kind() != reflect.Float64 {
		return data, nil
	}
	if f := v.Float(); f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("expected integer, got %v", f)
	}
	return data, nil
}

// ParameterSchema returns the reflected JSON-Schema document.
func (s *StructSchema[T]) ParameterSchema() map[string]any {
	out, err := normalize(s.doc)
	if err != nil {
		return EmptyObject()
	}
	m, _ := out.(map[string]any)
	return m
}
