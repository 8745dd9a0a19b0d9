package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/Protocol-Lattice/expense-agent/src/models"
)

func TestStaticToolCatalog(t *testing.T) {
	catalog := NewStaticToolCatalog([]Tool{&recordingTool{name: "Alpha"}, nil, &recordingTool{name: " "}})

	if err := catalog.Register(&recordingTool{name: "beta"}); err != nil {
		t.Fatalf("Register beta: %v", err)
	}
	if err := catalog.Register(&recordingTool{name: "ALPHA"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	specs := catalog.Specs()
	if len(specs) != 2 || specs[0].Name != "Alpha" || specs[1].Name != "beta" {
		t.Fatalf("unexpected specs: %+v", specs)
	}
	if _, spec, ok := catalog.Lookup("  alpha "); !ok || spec.Name != "Alpha" {
		t.Fatalf("expected case-insensitive lookup, got %v %+v", ok, spec)
	}
	if _, _, ok := catalog.Lookup("gamma"); ok {
		t.Fatalf("unexpected lookup hit")
	}
	if got := len(catalog.Tools()); got != 2 {
		t.Fatalf("expected 2 tools, got %d", got)
	}
}

type schemaTool struct {
	schema map[string]any
}

func (t schemaTool) Spec() ToolSpec {
	return ToolSpec{Name: "lookup", Description: "schema fixture", InputSchema: t.schema}
}

func (schemaTool) Invoke(context.Context, ToolRequest) (ToolResponse, error) {
	return ToolResponse{}, nil
}

func TestStaticToolCatalogChecksInputSchema(t *testing.T) {
	obj := func(props map[string]any, required ...any) map[string]any {
		m := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			m["required"] = required
		}
		return m
	}
	cases := []struct {
		name   string
		schema map[string]any
		ok     bool
	}{
		{"no arguments", nil, true},
		{"bare object", map[string]any{"type": "object"}, true},
		{"flat fields", obj(map[string]any{"day": map[string]any{"type": "string"}}, "day"), true},
		{"nested object", obj(map[string]any{
			"receipt": obj(map[string]any{"total": map[string]any{"type": "number"}}),
		}), true},
		{"array of objects", obj(map[string]any{
			"items": map[string]any{"type": "array", "items": obj(map[string]any{"name": map[string]any{"type": "string"}})},
		}), true},
		{"root not an object", map[string]any{"type": "string"}, false},
		{"properties not a map", map[string]any{"type": "object", "properties": []any{"day"}}, false},
		{"unknown field type", obj(map[string]any{"day": map[string]any{"type": "date"}}), false},
		{"field without type", obj(map[string]any{"day": map[string]any{"description": "when"}}), false},
		{"empty nested object", obj(map[string]any{"receipt": map[string]any{"type": "object"}}), false},
		{"array without items", obj(map[string]any{"tags": map[string]any{"type": "array"}}), false},
		{"bad array item", obj(map[string]any{"tags": map[string]any{"type": "array", "items": map[string]any{"type": "tuple"}}}), false},
		{"undeclared required", obj(map[string]any{"day": map[string]any{"type": "string"}}, "total"), false},
		{"nested undeclared required", obj(map[string]any{
			"receipt": obj(map[string]any{"total": map[string]any{"type": "number"}}, "currency"),
		}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewStaticToolCatalog(nil).Register(schemaTool{schema: tc.schema})
			if tc.ok && err != nil {
				t.Fatalf("Register returned %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidToolSchema) {
				t.Fatalf("expected ErrInvalidToolSchema, got %v", err)
			}
		})
	}
}

func TestNewRejectsInvalidToolSchema(t *testing.T) {
	bad := schemaTool{schema: map[string]any{"type": "object", "properties": map[string]any{"day": map[string]any{}}}}
	if _, err := New(Options{Model: models.NewDummyLLM(""), Tools: []Tool{bad}}); !errors.Is(err, ErrInvalidToolSchema) {
		t.Fatalf("expected ErrInvalidToolSchema from New, got %v", err)
	}
}
