package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON serializes the schema as a map of field names to type strings.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	raw, err := s.typeNames()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// UnmarshalJSON deserializes the schema from a map of field names to type strings.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return s.fromRaw(raw)
}

// MarshalYAML serializes the schema as a mapping of field names to type strings.
func (s Schema) MarshalYAML() (any, error) {
	if s == nil {
		return nil, nil
	}
	return s.typeNames()
}

// UnmarshalYAML deserializes the schema from a mapping of field names to type strings.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return s.fromRaw(raw)
}

func (s Schema) typeNames() (map[string]string, error) {
	raw := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}
	return raw, nil
}

func (s *Schema) fromRaw(raw map[string]any) error {
	types := make(map[string]string, len(raw))
	for key, value := range raw {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: expected string type, got %T", key, value)
		}
		types[key] = str
	}
	parsed, err := ParseTypeMap(types)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
