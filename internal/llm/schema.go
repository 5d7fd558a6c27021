package llm

import (
	"errors"
	"reflect"
	"strings"
)

// SchemaOf generates a JSON Schema object from a Go struct using reflection
// and tags. The struct's fields describe the target shape: `json` tags name
// the fields, `description` tags annotate them, and omitempty marks a field
// optional. Use it to declare the argument schema of the structured-output
// tool from the same struct the caller decodes into.
func SchemaOf(v any) (map[string]any, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, errors.New("llm: schema source must not be nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return schemaFromStruct(t)
}

// MustSchemaOf is SchemaOf but panics on error. Use it for package-level
// schema variables derived from fixed struct types.
func MustSchemaOf(v any) map[string]any {
	schema, err := SchemaOf(v)
	if err != nil {
		panic(err)
	}
	return schema
}

func schemaFromStruct(t reflect.Type) (map[string]any, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.New("llm: schema source must be a struct")
	}

	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		fieldName := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
			if !sliceContains(parts, "omitempty") {
				required = append(required, fieldName)
			}
		} else {
			required = append(required, fieldName)
		}

		fieldSchema := typeToSchema(field.Type)
		if desc := field.Tag.Get("description"); desc != "" {
			fieldSchema["description"] = desc
		}
		properties[fieldName] = fieldSchema
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema, nil
}

// typeToSchema maps a Go reflect.Type to a JSON schema primitive.
func typeToSchema(t reflect.Type) map[string]any {
	schema := make(map[string]any)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		schema["type"] = "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema["type"] = "integer"
	case reflect.Float32, reflect.Float64:
		schema["type"] = "number"
	case reflect.Bool:
		schema["type"] = "boolean"
	case reflect.Slice, reflect.Array:
		schema["type"] = "array"
		schema["items"] = typeToSchema(t.Elem())
	case reflect.Struct:
		nested, _ := schemaFromStruct(t)
		return nested
	case reflect.Map:
		schema["type"] = "object"
	default:
		schema["type"] = "string" // fallback
	}

	return schema
}

func sliceContains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
