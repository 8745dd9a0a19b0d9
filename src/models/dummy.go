package models

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
)

// DummyLLM is a lightweight model implementation useful for local testing without API calls.
// Scripted turns are returned first, in order; afterwards it echoes the last
// user text.
type DummyLLM struct {
	Prefix string

	mu       sync.Mutex
	script   []*genai.Content
	requests []Request
}

func NewDummyLLM(prefix string, script ...*genai.Content) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix, script: script}
}

func (d *DummyLLM) Generate(_ context.Context, req *Request) (*genai.Content, error) {
	if req == nil {
		req = &Request{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, snapshot(req))
	if len(d.script) > 0 {
		next := d.script[0]
		d.script = d.script[1:]
		return &genai.Content{Role: "model", Parts: append([]genai.Part(nil), next.Parts...)}, nil
	}

	last := "<empty prompt>"
	for i := len(req.Contents) - 1; i >= 0 && last == "<empty prompt>"; i-- {
		c := req.Contents[i]
		if c == nil || c.Role != "user" {
			continue
		}
		for j := len(c.Parts) - 1; j >= 0; j-- {
			if t, ok := c.Parts[j].(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
				last = strings.TrimSpace(string(t))
				break
			}
		}
	}
	return &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(fmt.Sprintf("%s %s", d.Prefix, last))}}, nil
}

// Requests returns copies of the requests seen so far, as they were when the
// model was called.
func (d *DummyLLM) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Request(nil), d.requests...)
}

func snapshot(req *Request) Request {
	out := *req
	out.Contents = make([]*genai.Content, len(req.Contents))
	for i, c := range req.Contents {
		if c == nil {
			continue
		}
		out.Contents[i] = &genai.Content{Role: c.Role, Parts: append([]genai.Part(nil), c.Parts...)}
	}
	out.Tools = append([]ToolSpec(nil), req.Tools...)
	return out
}

var _ Agent = (*DummyLLM)(nil)
