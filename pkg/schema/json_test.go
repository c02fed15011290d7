package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var echoSchema = MustJSON(`{
  "type": "object",
  "properties": {
    "message": { "type": "string", "description": "Text to echo back" }
  },
  "required": ["message"]
}`)

func TestJSONSchema_Validate(t *testing.T) {
	out, err := echoSchema.Validate(map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "hi"}, out)

	_, err = echoSchema.Validate(map[string]any{"message": 42})
	require.Error(t, err)
	assert.Contains(t, Fields(err), "message")

	_, err = echoSchema.Validate(map[string]any{})
	require.Error(t, err)
}

func TestJSONSchema_AcceptsStructs(t *testing.T) {
	type payload struct {
		Message string `json:"message"`
	}
	out, err := echoSchema.Validate(payload{Message: "typed"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "typed"}, out)
}

func TestJSONSchema_ParameterSchema(t *testing.T) {
	doc := echoSchema.ParameterSchema()
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []any{"message"}, doc["required"])

	// Returned documents are copies.
	doc["type"] = "mutated"
	assert.Equal(t, "object", echoSchema.ParameterSchema()["type"])
}

func TestJSON_InvalidDocument(t *testing.T) {
	_, err := JSON(`{not json`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustJSON(`[`) })
}
