package agent

import (
	"context"

	"github.com/Protocol-Lattice/expense-agent/src/models"
)

// ToolSpec describes how the agent should present a tool to the model.
type ToolSpec = models.ToolSpec

// LLMRequest is the outbound model call seen by callbacks.
type LLMRequest = models.Request

// ToolRequest captures an invocation request for a tool. UserID is the owner
// of the session the call was made from.
type ToolRequest struct {
	SessionID string
	UserID    string
	Arguments map[string]any
}

// ToolResponse represents the structured response returned by a tool. Data,
// when set, is sent back to the model as is; otherwise Content is wrapped in
// a {"content": ...} object.
type ToolResponse struct {
	Content  string
	Data     map[string]any
	Metadata map[string]string
}

// Tool exposes structured metadata and an invocation handler.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

// ToolCatalog maintains an ordered set of tools and provides lookup by name.
type ToolCatalog interface {
	Register(tool Tool) error
	Lookup(name string) (Tool, ToolSpec, bool)
	Specs() []ToolSpec
	Tools() []Tool
}
