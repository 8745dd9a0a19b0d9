package models

import (
	"context"

	"github.com/google/generative-ai-go/genai"
)

// File is a lightweight in-memory attachment uploaded by the user.
// Name is used for display; MIME should be best-effort (e.g., "image/jpeg").
type File struct {
	Name string
	MIME string
	Data []byte
}

// ToolSpec describes a function the model may call. InputSchema is a JSON
// schema object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request is the outbound model call. Contents is the full transcript, oldest
// first, and its last entry is the turn being answered.
type Request struct {
	Model             string
	SystemInstruction string
	Tools             []ToolSpec
	Contents          []*genai.Content
}

// Agent is a chat model that answers a transcript with one model turn, which
// may contain text, function calls or both.
type Agent interface {
	Generate(ctx context.Context, req *Request) (*genai.Content, error)
}
