package models

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFromMap(t *testing.T) {
	schema := SchemaFromMap(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "description": "Card title"},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"name", "value"},
					"properties": map[string]any{
						"name":  map[string]any{"type": "string"},
						"value": map[string]any{"type": "string"},
					},
				},
			},
			"kind": map[string]any{"type": "string", "enum": []string{"Receipt", "Other"}},
		},
		"required": []string{"title"},
	})

	require.NotNil(t, schema)
	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"title"}, schema.Required)
	assert.Equal(t, "Card title", schema.Properties["title"].Description)
	require.NotNil(t, schema.Properties["items"].Items)
	assert.Equal(t, genai.TypeArray, schema.Properties["items"].Type)
	assert.Equal(t, []string{"name", "value"}, schema.Properties["items"].Items.Required)
	assert.Equal(t, []string{"Receipt", "Other"}, schema.Properties["kind"].Enum)
}

func TestFunctionDeclarations(t *testing.T) {
	decls := FunctionDeclarations([]ToolSpec{
		{Name: "ping", Description: "no args"},
		{Name: "echo", InputSchema: map[string]any{"type": "object"}},
	})
	require.Len(t, decls, 2)
	assert.Nil(t, decls[0].Parameters)
	assert.Equal(t, genai.TypeObject, decls[1].Parameters.Type)
}

func TestSchemaFromMapUnknownType(t *testing.T) {
	assert.Nil(t, SchemaFromMap(nil))
	assert.Equal(t, genai.TypeUnspecified, SchemaFromMap(map[string]any{"type": "null"}).Type)
}
