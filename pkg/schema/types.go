package schema

import (
	"fmt"
	"net/mail"
	"reflect"
	"slices"
	"strings"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type
// and how the type is described to protocol consumers.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
	// JSONSchema returns the JSON-Schema fragment describing this type.
	JSONSchema() map[string]any
}

// converter is implemented by types that normalize a valid value
// (e.g. whole float64 from JSON into int).
type converter interface {
	convert(value any) any
}

func convert(t Type, value any) any {
	if c, ok := t.(converter); ok {
		return c.convert(value)
	}
	return value
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

func (t *StringType) JSONSchema() map[string]any { return map[string]any{"type": "string"} }

// EmailType validates strings holding a single RFC 5322 address.
type EmailType struct{}

func (t *EmailType) Name() string { return "email" }

func (t *EmailType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

func (t *EmailType) JSONSchema() map[string]any {
	return map[string]any{"type": "string", "format": "email"}
}

// EnumType validates strings against a fixed set of values.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return "enum(" + strings.Join(t.values, "|") + ")" }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if !slices.Contains(t.values, s) {
		return fmt.Errorf("expected one of [%s], got %q", strings.Join(t.values, ", "), s)
	}
	return nil
}

func (t *EnumType) JSONSchema() map[string]any {
	return map[string]any{"type": "string", "enum": slices.Clone(t.values)}
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

func (t *IntType) JSONSchema() map[string]any { return map[string]any{"type": "integer"} }

func (t *IntType) convert(value any) any {
	if f, ok := value.(float64); ok {
		return int(f)
	}
	return value
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

func (t *FloatType) JSONSchema() map[string]any { return map[string]any{"type": "number"} }

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func (t *BoolType) JSONSchema() map[string]any { return map[string]any{"type": "boolean"} }

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}

	// Validate each element
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func (t *SliceType) JSONSchema() map[string]any {
	return map[string]any{"type": "array", "items": t.elemType.JSONSchema()}
}

// MapType validates free-form objects.
type MapType struct{}

func (t *MapType) Name() string { return "map" }

func (t *MapType) Validate(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return fmt.Errorf("expected object, got %T", value)
	}
	return nil
}

func (t *MapType) JSONSchema() map[string]any { return map[string]any{"type": "object"} }

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// JSONSchema of a custom type carries no structural constraint; only its name
// is surfaced as a description.
func (t *CustomType) JSONSchema() map[string]any {
	return map[string]any{"description": t.name}
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Email creates a validator for strings holding an email address.
func Email() Type { return &EmailType{} }

// Enum creates a validator accepting only the given strings.
func Enum(values ...string) Type { return &EnumType{values: values} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Map creates a validator for free-form objects.
func Map() Type { return &MapType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a string type name to a Type.
// Supports basic types: "string", "email", "int", "float", "bool", "map",
// "enum(a|b)", "[string]", "[int]", etc.
func ParseType(typeStr string) (Type, error) {
	// Handle slice types: [string], [int], etc.
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemTypeStr := typeStr[1 : len(typeStr)-1]
		elemType, err := ParseType(elemTypeStr)
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	// Handle enums: enum(a|b|c)
	if strings.HasPrefix(typeStr, "enum(") && strings.HasSuffix(typeStr, ")") {
		body := strings.TrimSuffix(strings.TrimPrefix(typeStr, "enum("), ")")
		if body == "" {
			return nil, fmt.Errorf("enum without values")
		}
		return Enum(strings.Split(body, "|")...), nil
	}

	// Handle built-in types
	switch typeStr {
	case "string":
		return String(), nil
	case "email":
		return Email(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "map":
		return Map(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"api_key": "string", "retries": "int"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
