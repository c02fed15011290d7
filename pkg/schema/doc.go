// Package schema validates operation inputs and outputs and describes them to
// function-calling protocols.
//
// Every backend implements Validator: Validate returns the validated value or
// a *ValidationError / *AggregateError naming the offending field, and
// ParameterSchema returns a JSON-Schema document. A nil Validator is an
// identity validator whose parameter schema is an empty object.
//
// Three backends are provided:
//
//	// Native field types with descriptions and optional fields.
//	user := schema.Object(
//	    schema.Field("email", schema.Email()).Describe("Login address"),
//	    schema.Field("age", schema.Int()).Optional(),
//	)
//
//	// A raw JSON-Schema document.
//	echo := schema.MustJSON(`{"type":"object","properties":{"message":{"type":"string"}},"required":["message"]}`)
//
//	// A Go struct, reflected into JSON-Schema and decoded into T on validation.
//	add := schema.Reflect[AddArgs]()
//
// The shorthand Schema map ({"message": schema.String()}) declares an object
// whose fields are all required. Field types can also be parsed from their
// names with ParseType / ParseTypeMap ("string", "int", "[string]", ...).
package schema
