package models

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
)

// OpenAILLM answers genai transcripts through the OpenAI chat completions API.
type OpenAILLM struct {
	Client *openai.Client
	Model  string
}

func NewOpenAILLM(model, apiKey string) (*OpenAILLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_KEY") // fallback
	}
	if apiKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	return &OpenAILLM{Client: openai.NewClient(apiKey), Model: model}, nil
}

func (o *OpenAILLM) Generate(ctx context.Context, req *Request) (*genai.Content, error) {
	if req == nil || len(req.Contents) == 0 {
		return nil, errors.New("openai: empty request")
	}
	name := req.Model
	if name == "" {
		name = o.Model
	}

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    name,
		Messages: toOpenAIMessages(req.SystemInstruction, req.Contents),
		Tools:    toOpenAITools(req.Tools),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}
	return fromOpenAIMessage(resp.Choices[0].Message)
}

// getOpenAIMimeType converts normalized MIME types to the image formats
// accepted in image_url parts.
func getOpenAIMimeType(mt string) string {
	switch strings.ToLower(strings.TrimSpace(mt)) {
	case "image/jpeg", "image/jpg":
		return "image/jpeg"
	case "image/png":
		return "image/png"
	case "image/gif":
		return "image/gif"
	case "image/webp":
		return "image/webp"
	default:
		return ""
	}
}

func toOpenAITools(specs []ToolSpec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.InputSchema,
			},
		})
	}
	return out
}

// toOpenAIMessages flattens a genai transcript. Function calls get synthetic
// ids which the following function responses consume by name, in order.
func toOpenAIMessages(system string, contents []*genai.Content) []openai.ChatCompletionMessage {
	var msgs []openai.ChatCompletionMessage
	if s := strings.TrimSpace(system); s != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s})
	}

	pending := map[string][]string{}
	callSeq := 0

	for _, c := range contents {
		if c == nil || len(c.Parts) == 0 {
			continue
		}
		if c.Role == "model" {
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
			var text []string
			for _, p := range c.Parts {
				switch v := p.(type) {
				case genai.Text:
					text = append(text, string(v))
				case genai.FunctionCall:
					msg.ToolCalls = append(msg.ToolCalls, newToolCall(&callSeq, pending, v))
				case *genai.FunctionCall:
					msg.ToolCalls = append(msg.ToolCalls, newToolCall(&callSeq, pending, *v))
				}
			}
			msg.Content = strings.Join(text, "\n")
			msgs = append(msgs, msg)
			continue
		}

		var (
			text  []string
			media []openai.ChatMessagePart
		)
		for _, p := range c.Parts {
			switch v := p.(type) {
			case genai.Text:
				text = append(text, string(v))
			case genai.Blob:
				text, media = appendBlob(text, media, v)
			case *genai.Blob:
				text, media = appendBlob(text, media, *v)
			case genai.FunctionResponse:
				msgs = append(msgs, toolMessage(pending, v))
			case *genai.FunctionResponse:
				msgs = append(msgs, toolMessage(pending, *v))
			}
		}
		if len(text) == 0 && len(media) == 0 {
			continue
		}
		msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
		if len(media) == 0 {
			msg.Content = strings.Join(text, "\n")
		} else {
			parts := make([]openai.ChatMessagePart, 0, len(media)+1)
			if len(text) > 0 {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: strings.Join(text, "\n"),
				})
			}
			msg.MultiContent = append(parts, media...)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func newToolCall(seq *int, pending map[string][]string, fc genai.FunctionCall) openai.ToolCall {
	*seq++
	id := fmt.Sprintf("call_%d", *seq)
	pending[fc.Name] = append(pending[fc.Name], id)
	args, err := json.Marshal(fc.Args)
	if err != nil || fc.Args == nil {
		args = []byte("{}")
	}
	return openai.ToolCall{
		ID:   id,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      fc.Name,
			Arguments: string(args),
		},
	}
}

func toolMessage(pending map[string][]string, fr genai.FunctionResponse) openai.ChatCompletionMessage {
	id := "call_" + fr.Name
	if ids := pending[fr.Name]; len(ids) > 0 {
		id = ids[0]
		pending[fr.Name] = ids[1:]
	}
	body, err := json.Marshal(fr.Response)
	if err != nil {
		body = []byte(`{"error":"unencodable tool response"}`)
	}
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Name:       fr.Name,
		Content:    string(body),
		ToolCallID: id,
	}
}

func appendBlob(text []string, media []openai.ChatMessagePart, b genai.Blob) ([]string, []openai.ChatMessagePart) {
	mt := getOpenAIMimeType(b.MIMEType)
	if mt == "" || len(b.Data) == 0 {
		return append(text, fmt.Sprintf("[Non-text attachment] (%s, %d bytes)", b.MIMEType, len(b.Data))), media
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mt, base64.StdEncoding.EncodeToString(b.Data))
	return text, append(media, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    dataURL,
			Detail: openai.ImageURLDetailAuto,
		},
	})
}

func fromOpenAIMessage(msg openai.ChatCompletionMessage) (*genai.Content, error) {
	out := &genai.Content{Role: "model"}
	if strings.TrimSpace(msg.Content) != "" {
		out.Parts = append(out.Parts, genai.Text(msg.Content))
	}
	for _, call := range msg.ToolCalls {
		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return nil, fmt.Errorf("openai: decode arguments for %s: %w", call.Function.Name, err)
			}
		}
		out.Parts = append(out.Parts, genai.FunctionCall{Name: call.Function.Name, Args: args})
	}
	if len(out.Parts) == 0 {
		return nil, errors.New("openai: empty message")
	}
	return out, nil
}

var _ Agent = (*OpenAILLM)(nil)
