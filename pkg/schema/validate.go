package schema

import "sort"

// Validator is the pluggable contract every schema backend implements.
//
// Validate returns the validated (and possibly normalized) value, or an error
// describing the offending field. ParameterSchema returns an equivalent
// JSON-Schema document suitable for function-calling protocols; it must not
// execute any user code.
type Validator interface {
	Validate(value any) (any, error)
	ParameterSchema() map[string]any
}

// Validate checks value against v. A nil validator accepts any value unchanged.
func Validate(v Validator, value any) (any, error) {
	if v == nil {
		return value, nil
	}
	return v.Validate(value)
}

// ParameterSchema returns the protocol parameter document for v.
// A nil validator yields an empty object schema.
func ParameterSchema(v Validator) map[string]any {
	if v == nil {
		return EmptyObject()
	}
	if doc := v.ParameterSchema(); doc != nil {
		return doc
	}
	return EmptyObject()
}

// EmptyObject returns the schema of an object without declared properties.
func EmptyObject() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// Schema is a map of field names to their expected types. Every field is required.
// Example: {"api_key": String(), "retries": Int(), "tags": Slice(String())}
//
// For descriptions, optional fields or nesting use Object.
type Schema map[string]Type

// Validate checks if data conforms to the schema and returns the declared fields.
// Returns an error with all validation failures found.
func (s Schema) Validate(value any) (any, error) {
	return s.object().Validate(value)
}

// ParameterSchema describes the schema as a JSON-Schema object.
func (s Schema) ParameterSchema() map[string]any {
	return s.object().ParameterSchema()
}

func (s Schema) object() *ObjectSchema {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]*FieldDef, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field(name, s[name]))
	}
	return Object(fields...)
}

// FieldDef declares one property of an Object schema.
type FieldDef struct {
	name        string
	typ         Type
	description string
	optional    bool
}

// Field declares a required property.
func Field(name string, typ Type) *FieldDef {
	return &FieldDef{name: name, typ: typ}
}

// Describe sets the description exported to protocol consumers.
func (f *FieldDef) Describe(description string) *FieldDef {
	f.description = description
	return f
}

// Optional marks the property as not required.
func (f *FieldDef) Optional() *FieldDef {
	f.optional = true
	return f
}

// ObjectSchema validates map values property by property.
type ObjectSchema struct {
	fields      []*FieldDef
	description string
	strict      bool
}

// Object creates an object schema from ordered field declarations.
func Object(fields ...*FieldDef) *ObjectSchema {
	return &ObjectSchema{fields: fields}
}

// Describe sets the description of the object itself.
func (s *ObjectSchema) Describe(description string) *ObjectSchema {
	s.description = description
	return s
}

// Strict rejects properties that are not declared.
// By default undeclared properties are dropped from the validated value.
func (s *ObjectSchema) Strict() *ObjectSchema {
	s.strict = true
	return s
}

// Validate checks value and returns a new map holding only declared properties.
func (s *ObjectSchema) Validate(value any) (any, error) {
	out, errs := s.check(value, "")
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return out, nil
}

func (s *ObjectSchema) check(value any, prefix string) (map[string]any, []error) {
	var data map[string]any
	switch v := value.(type) {
	case nil:
		data = map[string]any{}
	case map[string]any:
		data = v
	default:
		return nil, []error{&ValidationError{Key: trimKey(prefix), Reason: "expected object", Value: value}}
	}

	var errs []error
	out := make(map[string]any, len(s.fields))
	declared := make(map[string]bool, len(s.fields))

	for _, f := range s.fields {
		declared[f.name] = true
		key := prefix + f.name

		v, exists := data[f.name]
		if !exists || v == nil {
			if !f.optional {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}

		if nested, ok := f.typ.(*ObjectType); ok {
			sub, subErrs := nested.schema.check(v, key+".")
			errs = append(errs, subErrs...)
			out[f.name] = sub
			continue
		}

		if err := f.typ.Validate(v); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: v})
			continue
		}
		out[f.name] = convert(f.typ, v)
	}

	if s.strict {
		extra := make([]string, 0)
		for k := range data {
			if !declared[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			errs = append(errs, &ValidationError{Key: prefix + k, Reason: "unknown field", Value: data[k]})
		}
	}

	return out, errs
}

// ParameterSchema describes the object as a JSON-Schema document.
func (s *ObjectSchema) ParameterSchema() map[string]any {
	props := make(map[string]any, len(s.fields))
	required := make([]string, 0, len(s.fields))

	for _, f := range s.fields {
		prop := f.typ.JSONSchema()
		if f.description != "" {
			prop["description"] = f.description
		}
		props[f.name] = prop
		if !f.optional {
			required = append(required, f.name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	if s.description != "" {
		doc["description"] = s.description
	}
	if s.strict {
		doc["additionalProperties"] = false
	}
	return doc
}

// ObjectType embeds an object schema as a field type.
type ObjectType struct {
	schema *ObjectSchema
}

// Nested turns an object schema into a field type.
func Nested(s *ObjectSchema) Type {
	return &ObjectType{schema: s}
}

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Validate(value any) error {
	_, err := t.schema.Validate(value)
	return err
}

func (t *ObjectType) JSONSchema() map[string]any { return t.schema.ParameterSchema() }

func trimKey(prefix string) string {
	if len(prefix) > 0 && prefix[len(prefix)-1] == '.' {
		return prefix[:len(prefix)-1]
	}
	return prefix
}

var _ Validator = (*ObjectSchema)(nil)
var _ Validator = Schema(nil)
