package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ---------------------------- Google Gemini ----------------------------------

type GeminiLLM struct {
	Client      *genai.Client
	Model       string
	Temperature *float32
}

// NewGeminiLLM connects to the Gemini API. An empty apiKey falls back to
// GOOGLE_API_KEY and then GEMINI_API_KEY.
func NewGeminiLLM(ctx context.Context, model, apiKey string) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiLLM{Client: client, Model: model}, nil
}

// Generate replays Contents[:n-1] as chat history and sends the parts of the
// last turn.
func (g *GeminiLLM) Generate(ctx context.Context, req *Request) (*genai.Content, error) {
	if req == nil || len(req.Contents) == 0 {
		return nil, errors.New("gemini: empty request")
	}
	last := req.Contents[len(req.Contents)-1]
	if last == nil || len(last.Parts) == 0 {
		return nil, errors.New("gemini: last turn has no parts")
	}

	name := req.Model
	if name == "" {
		name = g.Model
	}
	model := g.Client.GenerativeModel(name)
	if prompt := strings.TrimSpace(req.SystemInstruction); prompt != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(prompt))
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: FunctionDeclarations(req.Tools)}}
	}
	if g.Temperature != nil {
		model.SetTemperature(*g.Temperature)
	}

	chat := model.StartChat()
	chat.History = sendableHistory(req.Contents[:len(req.Contents)-1])

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: empty response")
	}
	out := resp.Candidates[0].Content
	if out.Role == "" {
		out.Role = "model"
	}
	return out, nil
}

// Close releases the underlying client.
func (g *GeminiLLM) Close() error {
	if g == nil || g.Client == nil {
		return nil
	}
	return g.Client.Close()
}

// The API rejects turns without parts, which trimming can leave behind.
func sendableHistory(contents []*genai.Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		if c == nil || len(c.Parts) == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

var _ Agent = (*GeminiLLM)(nil)
