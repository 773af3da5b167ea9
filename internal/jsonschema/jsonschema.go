package jsonschema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema is a JSON Schema document.
type Schema = jsonschema.Schema

var reflector = &jsonschema.Reflector{
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: false,
}

// GenerateJSONSchema returns the schema of T. Pointer types are dereferenced.
// The "$schema" and "$id" keywords are stripped because function-calling
// endpoints reject or ignore them.
func GenerateJSONSchema[T any]() *Schema {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	schema := reflector.ReflectFromType(t)
	schema.Version = ""
	schema.ID = ""
	return schema
}

// ToMap converts a schema into the generic map form expected by SDK request
// builders. A nil schema yields an empty object schema.
func ToMap(schema *Schema) (map[string]any, error) {
	if schema == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return out, nil
}
