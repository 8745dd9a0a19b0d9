package agent

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"

	"github.com/Protocol-Lattice/expense-agent/src/models"
)

// StaticToolCatalog is the default in-memory implementation of ToolCatalog.
type StaticToolCatalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
	specs map[string]ToolSpec
	order []string
}

// NewStaticToolCatalog constructs a catalog seeded with the provided tools.
// Invalid or duplicate entries are skipped.
func NewStaticToolCatalog(tools []Tool) *StaticToolCatalog {
	catalog := &StaticToolCatalog{
		tools: make(map[string]Tool),
		specs: make(map[string]ToolSpec),
	}
	for _, tool := range tools {
		_ = catalog.Register(tool)
	}
	return catalog
}

// Register adds a tool under its lower-cased name. Duplicate names and input
// schemas the model API would refuse return an error.
func (c *StaticToolCatalog) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	spec := tool.Spec()
	key := strings.ToLower(strings.TrimSpace(spec.Name))
	if key == "" {
		return fmt.Errorf("tool name is empty")
	}
	if err := checkInputSchema(spec); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidToolSchema, spec.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[key]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}
	c.tools[key] = tool
	c.specs[key] = spec
	c.order = append(c.order, key)
	return nil
}

// Lookup returns the tool and its spec if present.
func (c *StaticToolCatalog) Lookup(name string) (Tool, ToolSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	tool, ok := c.tools[key]
	if !ok {
		return nil, ToolSpec{}, false
	}
	return tool, c.specs[key], true
}

// Specs returns a snapshot of the tool specs in registration order.
func (c *StaticToolCatalog) Specs() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(c.order))
	for _, key := range c.order {
		specs = append(specs, c.specs[key])
	}
	return specs
}

// Tools returns the registered tools in order.
func (c *StaticToolCatalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tools := make([]Tool, 0, len(c.order))
	for _, key := range c.order {
		tools = append(tools, c.tools[key])
	}
	return tools
}

// checkInputSchema accepts an empty schema (no arguments) or an object schema
// whose properties all declare a known type.
func checkInputSchema(spec ToolSpec) error {
	if len(spec.InputSchema) == 0 {
		return nil
	}
	root := models.SchemaFromMap(spec.InputSchema)
	if root.Type != genai.TypeObject {
		return fmt.Errorf("input schema must be an object")
	}
	if raw, ok := spec.InputSchema["properties"]; ok {
		if _, ok := raw.(map[string]any); !ok {
			return fmt.Errorf("input schema properties must be an object")
		}
	}
	return checkProperties("", root)
}

func checkProperties(path string, s *genai.Schema) error {
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; !ok {
			return fmt.Errorf("required field %q is not declared", path+name)
		}
	}
	for name, prop := range s.Properties {
		if err := checkField(path+name, prop); err != nil {
			return err
		}
	}
	return nil
}

func checkField(path string, s *genai.Schema) error {
	switch s.Type {
	case genai.TypeUnspecified:
		return fmt.Errorf("field %q has no known type", path)
	case genai.TypeObject:
		if len(s.Properties) == 0 {
			return fmt.Errorf("object field %q declares no properties", path)
		}
		return checkProperties(path+".", s)
	case genai.TypeArray:
		if s.Items == nil {
			return fmt.Errorf("array field %q declares no items", path)
		}
		return checkField(path+"[]", s.Items)
	}
	return nil
}
