package schema

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPI returns the schema as a JSON schema object describing the arguments.
func (s Schema) OpenAPI() *openapi3.Schema {
	obj := openapi3.NewObjectSchema()
	var required []string
	for _, name := range s.Fields() {
		t := s[name]
		obj = obj.WithProperty(name, t.OpenAPI())
		if !IsOptional(t) {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		obj = obj.WithRequired(required)
	}
	return obj
}

// JSONSchema returns the marshaled JSON schema of the arguments.
func (s Schema) JSONSchema() (json.RawMessage, error) {
	return json.Marshal(s.OpenAPI())
}
