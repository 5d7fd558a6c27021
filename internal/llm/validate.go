package llm

import (
	"fmt"
	"reflect"
)

// validateAgainstSchema checks decoded tool arguments against the declared
// schema: required fields must be present and typed values must match the
// schema primitives. Extra fields are allowed.
func validateAgainstSchema(schema map[string]any, args map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	required, ok := schema["required"].([]string)
	if !ok {
		// Schemas decoded from JSON carry []any instead.
		if reqAny, ok := schema["required"].([]any); ok {
			required = make([]string, 0, len(reqAny))
			for _, v := range reqAny {
				if s, ok := v.(string); ok {
					required = append(required, s)
				}
			}
		}
	}
	for _, fieldName := range required {
		if _, exists := args[fieldName]; !exists {
			return fmt.Errorf("missing required field: %s", fieldName)
		}
	}

	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	for name, value := range args {
		propSchema, exists := properties[name]
		if !exists {
			continue
		}
		propMap, ok := propSchema.(map[string]any)
		if !ok {
			continue
		}
		expectedType, ok := propMap["type"].(string)
		if !ok {
			continue
		}
		if err := validateType(name, value, expectedType); err != nil {
			return err
		}
	}
	return nil
}

func validateType(name string, value any, expectedType string) error {
	if value == nil {
		return nil // null passes; presence is the required check's job
	}

	actualType := reflect.TypeOf(value).Kind()

	switch expectedType {
	case "string":
		if actualType != reflect.String {
			return fmt.Errorf("field %s: expected string, got %v", name, actualType)
		}
	case "number":
		if actualType != reflect.Float64 && actualType != reflect.Float32 {
			return fmt.Errorf("field %s: expected number, got %v", name, actualType)
		}
	case "integer":
		// JSON numbers decode as float64; accept whole values only.
		if f, ok := value.(float64); ok {
			if f != float64(int(f)) {
				return fmt.Errorf("field %s: expected integer, got float %v", name, f)
			}
		} else {
			return fmt.Errorf("field %s: expected integer, got %v", name, actualType)
		}
	case "boolean":
		if actualType != reflect.Bool {
			return fmt.Errorf("field %s: expected boolean, got %v", name, actualType)
		}
	case "array":
		if actualType != reflect.Slice && actualType != reflect.Array {
			return fmt.Errorf("field %s: expected array, got %v", name, actualType)
		}
	case "object":
		if actualType != reflect.Map {
			return fmt.Errorf("field %s: expected object, got %v", name, actualType)
		}
	}

	return nil
}
