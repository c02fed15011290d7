package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_NilValidatorIsIdentity(t *testing.T) {
	in := map[string]any{"anything": 1}
	out, err := Validate(nil, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.Equal(t, EmptyObject(), ParameterSchema(nil))
}

func TestSchemaMap_Success(t *testing.T) {
	s := Schema{
		"api_key": String(),
		"retries": Int(),
		"tags":    Slice(String()),
	}

	out, err := s.Validate(map[string]any{
		"api_key": "secret123",
		"retries": float64(3),
		"tags":    []any{"prod"},
		"extra":   "dropped",
	})
	require.NoError(t, err)

	m := out.(map[string]any)
	assert.Equal(t, 3, m["retries"], "whole floats are normalized to int")
	assert.NotContains(t, m, "extra")
}

func TestSchemaMap_MissingAndMismatch(t *testing.T) {
	s := Schema{
		"api_key": String(),
		"retries": Int(),
	}

	_, err := s.Validate(map[string]any{"retries": "not an int"})
	require.Error(t, err)

	aggr, ok := err.(*AggregateError)
	require.True(t, ok, "error should be *AggregateError, got %T", err)
	assert.Len(t, aggr.Errors, 2)
	assert.Equal(t, []string{"api_key", "retries"}, Fields(err))
	assert.Contains(t, err.Error(), "2 validation errors")
}

func TestObject_ParameterSchema(t *testing.T) {
	s := Object(
		Field("email", Email()).Describe("Login address"),
		Field("age", Int()).Optional(),
	).Describe("A user")

	doc := s.ParameterSchema()
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, "A user", doc["description"])
	assert.Equal(t, []string{"email"}, doc["required"])

	props := doc["properties"].(map[string]any)
	email := props["email"].(map[string]any)
	assert.Equal(t, "email", email["format"])
	assert.Equal(t, "Login address", email["description"])
	assert.NotContains(t, props["age"], "description")
}

func TestObject_EmailViolationNamesField(t *testing.T) {
	s := Object(Field("email", Email()))

	_, err := s.Validate(map[string]any{"email": "not-an-email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.True(t, IsValidationError(err))
}

func TestObject_OptionalAndNil(t *testing.T) {
	s := Object(Field("name", String()).Optional())

	out, err := s.Validate(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = s.Validate("scalar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected object")
}

func TestObject_NestedPaths(t *testing.T) {
	s := Object(
		Field("address", Nested(Object(
			Field("city", String()),
			Field("zip", String()).Optional(),
		))),
	)

	_, err := s.Validate(map[string]any{"address": map[string]any{"zip": "123"}})
	require.Error(t, err)
	assert.Equal(t, []string{"address.city"}, Fields(err))

	doc := s.ParameterSchema()
	address := doc["properties"].(map[string]any)["address"].(map[string]any)
	assert.Equal(t, []string{"city"}, address["required"])
}

func TestObject_Strict(t *testing.T) {
	s := Object(Field("a", String())).Strict()

	_, err := s.Validate(map[string]any{"a": "x", "z": 1, "b": 2})
	require.Error(t, err)
	assert.Equal(t, []string{"b", "z"}, Fields(err))
	assert.Equal(t, false, s.ParameterSchema()["additionalProperties"])
}
