package models

import (
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// FunctionDeclarations converts tool specs into Gemini function declarations.
func FunctionDeclarations(specs []ToolSpec) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		decl := &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
		}
		if len(spec.InputSchema) > 0 {
			decl.Parameters = SchemaFromMap(spec.InputSchema)
		}
		out = append(out, decl)
	}
	return out
}

// SchemaFromMap converts a JSON schema object into a genai.Schema. Keywords
// Gemini does not understand are ignored.
func SchemaFromMap(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{
		Type:        schemaType(m["type"]),
		Format:      stringValue(m["format"]),
		Description: stringValue(m["description"]),
	}
	if nullable, ok := m["nullable"].(bool); ok {
		s.Nullable = nullable
	}
	s.Enum = stringSlice(m["enum"])
	s.Required = stringSlice(m["required"])

	if props, ok := m["properties"].(map[string]any); ok && len(props) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if child, ok := raw.(map[string]any); ok {
				s.Properties[name] = SchemaFromMap(child)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = SchemaFromMap(items)
	}
	return s
}

func schemaType(v any) genai.Type {
	switch strings.ToLower(stringValue(v)) {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...)
	case []any:
		out := make([]string, 0, len(vals))
		for _, val := range vals {
			if s, ok := val.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
