package registry

import "fmt"

// Schema is a small JSON-Schema subset describing tool parameters. It covers
// what the wire protocol can carry: objects with typed properties.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Definition is the structured description of a tool as advertised to the
// model.
type Definition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// ValidationError reports arguments that do not satisfy a tool's parameter
// schema. The handler is never invoked when this is returned.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, e.Reason)
}

// validateArgs checks args against a parameter schema. Unknown keys are
// tolerated (the typed decode in each tool ignores them); missing required
// keys and wrong types are not.
func validateArgs(tool string, schema *Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	for _, req := range schema.Required {
		if _, ok := args[req]; !ok {
			return &ValidationError{Tool: tool, Reason: fmt.Sprintf("missing required argument %q", req)}
		}
	}
	for name, prop := range schema.Properties {
		value, ok := args[name]
		if !ok || value == nil {
			continue
		}
		if err := checkType(name, prop, value); err != nil {
			return &ValidationError{Tool: tool, Reason: err.Error()}
		}
	}
	return nil
}

func checkType(name string, schema *Schema, value any) error {
	switch schema.Type {
	case "", "object":
		if schema.Type == "object" {
			if _, ok := value.(map[string]any); !ok {
				return fmt.Errorf("argument %q must be an object", name)
			}
		}
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
		if len(schema.Enum) > 0 && !contains(schema.Enum, s) {
			return fmt.Errorf("argument %q must be one of %v", name, schema.Enum)
		}
	case "integer":
		switch v := value.(type) {
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("argument %q must be an integer", name)
			}
		case int, int64:
		default:
			return fmt.Errorf("argument %q must be an integer", name)
		}
	case "number":
		switch value.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("argument %q must be a number", name)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	case "array":
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("argument %q must be an array", name)
		}
		if schema.Items != nil {
			for _, item := range items {
				if err := checkType(name+"[]", schema.Items, item); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("argument %q has unsupported schema type %q", name, schema.Type)
	}
	return nil
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
