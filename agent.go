// Package agent runs the expense assistant: it keeps per-session transcripts,
// calls the model and executes the tools the model asks for.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Protocol-Lattice/expense-agent/src/concurrent"
	"github.com/Protocol-Lattice/expense-agent/src/models"
	"github.com/google/generative-ai-go/genai"
)

const (
	defaultSystemPrompt    = "You are a helpful assistant that manages a user's receipts, products and warranties."
	defaultMaxIterations   = 8
	defaultToolConcurrency = 4

	roleUser  = "user"
	roleModel = "model"
)

var (
	// ErrToolLoop is returned when the model keeps calling tools past the
	// iteration limit.
	ErrToolLoop = errors.New("agent: too many tool iterations")
	// ErrUnknownTool is reported to the model when it calls a tool that is not
	// registered.
	ErrUnknownTool = errors.New("agent: unknown tool")
	// ErrInvalidToolSchema rejects a tool whose input schema cannot be
	// declared to the model.
	ErrInvalidToolSchema = errors.New("agent: invalid tool schema")
)

// Agent orchestrates model calls, callbacks and tools.
type Agent struct {
	model           models.Agent
	modelName       string
	systemPrompt    string
	toolCatalog     ToolCatalog
	callbacks       []BeforeModelCallback
	maxIterations   int
	toolConcurrency int
	sessions        *SessionStore
	logger          *slog.Logger
}

// Options configure a new Agent.
type Options struct {
	Model        models.Agent
	ModelName    string
	SystemPrompt string
	Tools        []Tool
	ToolCatalog  ToolCatalog
	// Callbacks run before every model call in order. Nil installs
	// TrimHistoryAttachments; pass an empty slice to run none.
	Callbacks       []BeforeModelCallback
	MaxIterations   int
	ToolConcurrency int
	Sessions        *SessionStore
	Logger          *slog.Logger
}

// New creates an Agent with the provided options.
func New(opts Options) (*Agent, error) {
	if opts.Model == nil {
		return nil, errors.New("agent requires a language model")
	}

	systemPrompt := opts.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}

	toolCatalog := opts.ToolCatalog
	tolerantTools := false
	if toolCatalog == nil {
		toolCatalog = NewStaticToolCatalog(nil)
		tolerantTools = true
	}
	for _, tool := range opts.Tools {
		if tool == nil {
			continue
		}
		if err := toolCatalog.Register(tool); err != nil {
			if tolerantTools && !errors.Is(err, ErrInvalidToolSchema) {
				continue
			}
			return nil, err
		}
	}

	callbacks := opts.Callbacks
	if callbacks == nil {
		callbacks = []BeforeModelCallback{TrimHistoryAttachments}
	}

	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	toolConcurrency := opts.ToolConcurrency
	if toolConcurrency <= 0 {
		toolConcurrency = defaultToolConcurrency
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = NewSessionStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		model:           opts.Model,
		modelName:       opts.ModelName,
		systemPrompt:    systemPrompt,
		toolCatalog:     toolCatalog,
		callbacks:       append([]BeforeModelCallback(nil), callbacks...),
		maxIterations:   maxIterations,
		toolConcurrency: toolConcurrency,
		sessions:        sessions,
		logger:          logger,
	}, nil
}

// Sessions exposes the agent's session store.
func (a *Agent) Sessions() *SessionStore { return a.sessions }

// Tools returns the specs the model is offered.
func (a *Agent) Tools() []ToolSpec { return a.toolCatalog.Specs() }

// Respond adds a user message with optional attachments to the session and
// runs the model until it answers with text.
func (a *Agent) Respond(ctx context.Context, sessionID, userID, message string, files []models.File) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}
	message = strings.TrimSpace(message)
	if message == "" && len(files) == 0 {
		return "", errors.New("user input is empty")
	}

	session, err := a.sessions.GetOrCreate(sessionID, userID)
	if err != nil {
		return "", err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	parts := make([]genai.Part, 0, len(files)+1)
	if message != "" {
		parts = append(parts, genai.Text(message))
	}
	parts = append(parts, models.FileParts(files)...)
	session.Contents = append(session.Contents, &genai.Content{Role: roleUser, Parts: parts})

	specs := a.toolCatalog.Specs()
	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		req := &LLMRequest{
			Model:             a.modelName,
			SystemInstruction: a.systemPrompt,
			Tools:             specs,
			Contents:          session.Contents,
		}
		cc := &CallbackContext{
			SessionID: session.ID,
			UserID:    session.UserID,
			Iteration: iteration,
			Logger:    a.logger,
		}
		for _, cb := range a.callbacks {
			cb(cc, req)
		}

		reply, err := a.model.Generate(ctx, req)
		if err != nil {
			return "", fmt.Errorf("generate: %w", err)
		}
		if reply == nil {
			return "", errors.New("generate: model returned no content")
		}
		if reply.Role == "" {
			reply.Role = roleModel
		}
		session.Contents = append(session.Contents, reply)

		calls := functionCalls(reply)
		if len(calls) == 0 {
			return replyText(reply), nil
		}

		a.logger.Debug("model requested tools", "session_id", session.ID, "iteration", iteration, "calls", len(calls))
		responses, err := concurrent.ParallelMap(ctx, calls, func(ctx context.Context, call genai.FunctionCall) (genai.Part, error) {
			return a.invokeTool(ctx, session, call), nil
		}, a.toolConcurrency)
		if err != nil {
			return "", fmt.Errorf("invoke tools: %w", err)
		}
		session.Contents = append(session.Contents, &genai.Content{Role: roleUser, Parts: responses})
	}

	a.logger.Warn("tool iteration limit reached", "session_id", session.ID, "limit", a.maxIterations)
	return "", ErrToolLoop
}

func (a *Agent) invokeTool(ctx context.Context, session *Session, call genai.FunctionCall) genai.Part {
	tool, _, ok := a.toolCatalog.Lookup(call.Name)
	if !ok {
		a.logger.Warn("unknown tool requested", "tool", call.Name)
		return errorResponse(call.Name, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name))
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	resp, err := tool.Invoke(ctx, ToolRequest{
		SessionID: session.ID,
		UserID:    session.UserID,
		Arguments: args,
	})
	if err != nil {
		a.logger.Info("tool failed", "tool", call.Name, "error", err)
		return errorResponse(call.Name, err)
	}
	a.logger.Debug("tool finished", "tool", call.Name, "metadata", resp.Metadata)

	payload := resp.Data
	if payload == nil {
		payload = map[string]any{"content": resp.Content}
	}
	return genai.FunctionResponse{Name: call.Name, Response: payload}
}

func errorResponse(name string, err error) genai.Part {
	return genai.FunctionResponse{Name: name, Response: map[string]any{"error": err.Error()}}
}

func functionCalls(c *genai.Content) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, p := range c.Parts {
		switch v := p.(type) {
		case genai.FunctionCall:
			calls = append(calls, v)
		case *genai.FunctionCall:
			if v != nil {
				calls = append(calls, *v)
			}
		}
	}
	return calls
}

func replyText(c *genai.Content) string {
	var b strings.Builder
	for _, p := range c.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
