package schema

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON writes the schema in its type-string form.
// Descriptions are dropped; use JSONSchema for the full description.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	raw := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}
	return json.Marshal(raw)
}

// UnmarshalJSON reads a schema written by MarshalJSON or in the long form
// accepted by ParseMap.
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
	parsed, err := ParseMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseMap builds a Schema from decoded YAML or JSON. Each field is either a
// type string or a map with "type" and an optional "description":
//
//	query: string
//	limit: {type: "int?", description: "Maximum results"}
func ParseMap(raw map[string]any) (Schema, error) {
	result := make(Schema, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			t, err := ParseType(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			result[key] = t
		case map[string]any:
			typeStr, _ := v["type"].(string)
			t, err := ParseType(typeStr)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			if desc, _ := v["description"].(string); desc != "" {
				t = Describe(t, desc)
			}
			result[key] = t
		default:
			return nil, fmt.Errorf("field %s: expected type string or object, got %T", key, value)
		}
	}
	return result, nil
}
