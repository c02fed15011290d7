package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addArgs struct {
	A     float64 `json:"a" jsonschema:"required,description=First addend"`
	B     float64 `json:"b" jsonschema:"required,description=Second addend"`
	Label string  `json:"label,omitempty"`
}

func TestReflect_ParameterSchema(t *testing.T) {
	doc := Reflect[addArgs]().ParameterSchema()

	assert.Equal(t, "object", doc["type"])
	assert.NotContains(t, doc, "$schema")
	assert.ElementsMatch(t, []any{"a", "b"}, doc["required"])

	props := doc["properties"].(map[string]any)
	assert.Equal(t, "First addend", props["a"].(map[string]any)["description"])
	assert.Contains(t, props, "label")
}

func TestReflect_ValidateDecodesIntoStruct(t *testing.T) {
	s := Reflect[addArgs]()

	out, err := s.Validate(map[string]any{"a": 1.5, "b": float64(2), "label": "sum"})
	require.NoError(t, err)
	assert.Equal(t, addArgs{A: 1.5, B: 2, Label: "sum"}, out)

	typed, err := s.Validate(addArgs{A: 1})
	require.NoError(t, err)
	assert.Equal(t, addArgs{A: 1}, typed)
}

func TestReflect_ValidateFailures(t *testing.T) {
	s := Reflect[addArgs]()

	_, err := s.Validate(map[string]any{"a": 1.0})
	require.Error(t, err)
	assert.Equal(t, []string{"b"}, Fields(err))

	_, err = s.Validate(map[string]any{"a": 1.0, "b": 2.0, "unknown": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")

	_, err = s.Validate(map[string]any{"a": "one", "b": 2.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")

	_, err = s.Validate(42)
	require.Error(t, err)
}

type personArgs struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
	Kids *uint8 `json:"kids,omitempty"`
}

func TestReflect_ValidateRejectsFractionalIntegers(t *testing.T) {
	s := Reflect[personArgs]()

	_, err := s.Validate(map[string]any{"name": "Ada", "age": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "age")
	assert.Contains(t, err.Error(), "expected integer")

	_, err = s.Validate(map[string]any{"age": 3.0, "kids": 0.25})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kids")

	out, err := s.Validate(map[string]any{"name": "Ada", "age": 36.0, "kids": float64(2)})
	require.NoError(t, err)
	p := out.(personArgs)
	assert.Equal(t, 36, p.Age)
	require.NotNil(t, p.Kids)
	assert.Equal(t, uint8(2), *p.Kids)
}
