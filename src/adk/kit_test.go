package adk

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	agent "github.com/Protocol-Lattice/expense-agent"
	"github.com/Protocol-Lattice/expense-agent/src/models"
	"github.com/Protocol-Lattice/expense-agent/src/store"
)

type funcModule struct {
	name string
	fn   func(*AgentDevelopmentKit) error
}

func (m funcModule) Name() string { return m.name }
func (m funcModule) Provision(_ context.Context, k *AgentDevelopmentKit) error {
	return m.fn(k)
}

type closingStore struct {
	*store.InMemoryStore
	closed int32
}

func (s *closingStore) Close() error {
	atomic.AddInt32(&s.closed, 1)
	return nil
}

type stubTool struct{ name string }

func (s stubTool) Spec() agent.ToolSpec { return agent.ToolSpec{Name: s.name} }
func (stubTool) Invoke(context.Context, agent.ToolRequest) (agent.ToolResponse, error) {
	return agent.ToolResponse{}, nil
}

func TestBuildAgentRequiresModel(t *testing.T) {
	kit, err := New(context.Background())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := kit.BuildAgent(context.Background()); err == nil {
		t.Fatalf("expected error without a model provider")
	}
}

func TestModuleErrorsNameTheModule(t *testing.T) {
	_, err := New(context.Background(), WithModule(funcModule{name: "broken", fn: func(*AgentDevelopmentKit) error {
		return errors.New("boom")
	}}))
	if err == nil || !strings.Contains(err.Error(), "kit module broken") {
		t.Fatalf("expected module error, got %v", err)
	}
	if err := (&AgentDevelopmentKit{}).RegisterModule(nil); err == nil {
		t.Fatalf("expected nil module to be rejected")
	}
}

func TestBuildAgentAggregatesTools(t *testing.T) {
	llm := models.NewDummyLLM("kit:")
	var provisioned int32
	kit, err := New(context.Background(),
		WithModules(
			funcModule{name: "model", fn: func(k *AgentDevelopmentKit) error {
				atomic.AddInt32(&provisioned, 1)
				k.UseModelProvider(func(context.Context) (models.Agent, error) { return llm, nil })
				return nil
			}},
			funcModule{name: "tools", fn: func(k *AgentDevelopmentKit) error {
				k.UseToolProvider(func(context.Context) (ToolBundle, error) {
					return ToolBundle{Tools: []agent.Tool{stubTool{"one"}, nil, stubTool{"two"}}}, nil
				})
				return nil
			}},
		),
		WithDefaultSystemPrompt("be brief"),
		WithAgentOptions(func(o *agent.Options) { o.MaxIterations = 2 }),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := kit.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if provisioned != 1 {
		t.Fatalf("expected modules to provision once, got %d", provisioned)
	}

	built, err := kit.BuildAgent(context.Background())
	if err != nil {
		t.Fatalf("BuildAgent returned error: %v", err)
	}
	specs := built.Tools()
	if len(specs) != 2 || specs[0].Name != "one" || specs[1].Name != "two" {
		t.Fatalf("unexpected tools: %+v", specs)
	}

	out, err := built.Respond(context.Background(), "s", "u", "hi", nil)
	if err != nil || out != "kit: hi" {
		t.Fatalf("Respond = %q, %v", out, err)
	}
	if got := llm.Requests()[0].SystemInstruction; got != "be brief" {
		t.Fatalf("expected custom prompt, got %q", got)
	}
}

func TestDefaultPromptIsTaskPrompt(t *testing.T) {
	kit := &AgentDevelopmentKit{}
	kit.SetDefaultSystemPrompt("  ")
	if !strings.Contains(kit.DefaultSystemPrompt(), "save_attachment_data") {
		t.Fatalf("expected embedded task prompt")
	}
}

func TestStoreIsOpenedOnceAndClosed(t *testing.T) {
	var opened int32
	s := &closingStore{InMemoryStore: store.NewInMemoryStore()}
	kit := &AgentDevelopmentKit{}
	if _, err := kit.Store(context.Background()); err == nil {
		t.Fatalf("expected error without a store provider")
	}
	kit.UseStoreProvider(func(context.Context) (store.Store, error) {
		atomic.AddInt32(&opened, 1)
		return s, nil
	})

	for i := 0; i < 3; i++ {
		got, err := kit.Store(context.Background())
		if err != nil || got != s {
			t.Fatalf("Store = %v, %v", got, err)
		}
	}
	if opened != 1 {
		t.Fatalf("expected a single open, got %d", opened)
	}

	if err := kit.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := kit.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if s.closed != 1 {
		t.Fatalf("expected store closed once, got %d", s.closed)
	}
	if _, err := kit.Store(context.Background()); err == nil {
		t.Fatalf("expected error after Close")
	}
}

func TestIssuerOptional(t *testing.T) {
	kit := &AgentDevelopmentKit{}
	issuer, err := kit.Issuer(context.Background())
	if issuer != nil || err != nil {
		t.Fatalf("expected nil issuer without provider, got %v %v", issuer, err)
	}
}
