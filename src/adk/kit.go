// Package adk assembles an expense agent from pluggable modules.
package adk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	agent "github.com/Protocol-Lattice/expense-agent"
	"github.com/Protocol-Lattice/expense-agent/src/prompts"
	"github.com/Protocol-Lattice/expense-agent/src/store"
	"github.com/Protocol-Lattice/expense-agent/src/wallet"
)

var errKitClosed = errors.New("kit is closed")

// Module provisions part of the kit, usually by registering providers.
type Module interface {
	Name() string
	Provision(ctx context.Context, kit *AgentDevelopmentKit) error
}

// AgentDevelopmentKit orchestrates modules that provision the model, the
// document store, the wallet issuer and tools. It acts as a lightweight
// dependency injection container and owns the resources its providers open.
type AgentDevelopmentKit struct {
	mu sync.RWMutex

	modules      []Module
	bootstrapped bool

	modelProvider  ModelProvider
	storeProvider  StoreProvider
	issuerProvider IssuerProvider
	toolProviders  []ToolProvider
	agentOptions   []AgentOption

	defaultSystemPrompt string

	storeOnce sync.Once
	store     store.Store
	storeErr  error

	issuerOnce sync.Once
	issuer     wallet.Issuer
	issuerErr  error
}

// New constructs a kit, applies the provided options and bootstraps registered
// modules.
func New(ctx context.Context, opts ...Option) (*AgentDevelopmentKit, error) {
	kit := &AgentDevelopmentKit{
		defaultSystemPrompt: prompts.TaskPrompt(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(kit); err != nil {
			return nil, err
		}
	}

	if err := kit.Bootstrap(ctx); err != nil {
		return nil, err
	}
	return kit, nil
}

// Bootstrap executes all registered modules in registration order. It is
// idempotent.
func (k *AgentDevelopmentKit) Bootstrap(ctx context.Context) error {
	k.mu.Lock()
	if k.bootstrapped {
		k.mu.Unlock()
		return nil
	}
	modules := append([]Module(nil), k.modules...)
	k.mu.Unlock()

	for _, module := range modules {
		if module == nil {
			continue
		}
		if err := module.Provision(ctx, k); err != nil {
			name := "<unnamed module>"
			if module.Name() != "" {
				name = module.Name()
			}
			return fmt.Errorf("kit module %s: %w", name, err)
		}
	}

	k.mu.Lock()
	k.bootstrapped = true
	k.mu.Unlock()
	return nil
}

// RegisterModule appends a module to the bootstrapping sequence.
func (k *AgentDevelopmentKit) RegisterModule(module Module) error {
	if module == nil {
		return fmt.Errorf("kit module cannot be nil")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.modules = append(k.modules, module)
	k.bootstrapped = false
	return nil
}

// Modules returns a copy of the registered modules in registration order.
func (k *AgentDevelopmentKit) Modules() []Module {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]Module, len(k.modules))
	copy(out, k.modules)
	return out
}

func (k *AgentDevelopmentKit) UseModelProvider(provider ModelProvider) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.modelProvider = provider
}

func (k *AgentDevelopmentKit) ModelProvider() ModelProvider {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.modelProvider
}

func (k *AgentDevelopmentKit) UseStoreProvider(provider StoreProvider) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.storeProvider = provider
}

func (k *AgentDevelopmentKit) StoreProvider() StoreProvider {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.storeProvider
}

func (k *AgentDevelopmentKit) UseIssuerProvider(provider IssuerProvider) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.issuerProvider = provider
}

func (k *AgentDevelopmentKit) IssuerProvider() IssuerProvider {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.issuerProvider
}

// UseToolProvider appends a tool provider to the kit.
func (k *AgentDevelopmentKit) UseToolProvider(provider ToolProvider) {
	if provider == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.toolProviders = append(k.toolProviders, provider)
}

// ToolProviders returns the registered tool providers in order.
func (k *AgentDevelopmentKit) ToolProviders() []ToolProvider {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]ToolProvider, len(k.toolProviders))
	copy(out, k.toolProviders)
	return out
}

// UseAgentOption appends a default agent option applied to every agent the
// kit builds.
func (k *AgentDevelopmentKit) UseAgentOption(opt AgentOption) {
	if opt == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.agentOptions = append(k.agentOptions, opt)
}

func (k *AgentDevelopmentKit) AgentOptions() []AgentOption {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]AgentOption, len(k.agentOptions))
	copy(out, k.agentOptions)
	return out
}

// SetDefaultSystemPrompt overrides the system prompt. An empty prompt
// restores the embedded task prompt.
func (k *AgentDevelopmentKit) SetDefaultSystemPrompt(prompt string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if strings.TrimSpace(prompt) == "" {
		k.defaultSystemPrompt = prompts.TaskPrompt()
		return
	}
	k.defaultSystemPrompt = prompt
}

func (k *AgentDevelopmentKit) DefaultSystemPrompt() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.defaultSystemPrompt
}

// Store opens the document store on first use and returns the same instance
// (or error) afterwards.
func (k *AgentDevelopmentKit) Store(ctx context.Context) (store.Store, error) {
	provider := k.StoreProvider()
	if provider == nil {
		return nil, fmt.Errorf("kit requires a store provider")
	}
	k.storeOnce.Do(func() {
		k.store, k.storeErr = provider(ctx)
		if k.storeErr == nil && k.store == nil {
			k.storeErr = errors.New("store provider returned nil")
		}
	})
	return k.store, k.storeErr
}

// Issuer builds the wallet issuer on first use. It returns nil, nil when no
// issuer provider is registered.
func (k *AgentDevelopmentKit) Issuer(ctx context.Context) (wallet.Issuer, error) {
	provider := k.IssuerProvider()
	if provider == nil {
		return nil, nil
	}
	k.issuerOnce.Do(func() {
		k.issuer, k.issuerErr = provider(ctx)
	})
	return k.issuer, k.issuerErr
}

// BuildAgent constructs an agent using the registered providers and optional
// overrides.
func (k *AgentDevelopmentKit) BuildAgent(ctx context.Context, opts ...AgentOption) (*agent.Agent, error) {
	if err := k.Bootstrap(ctx); err != nil {
		return nil, err
	}

	k.mu.RLock()
	modelProvider := k.modelProvider
	toolProviders := append([]ToolProvider(nil), k.toolProviders...)
	defaultPrompt := k.defaultSystemPrompt
	defaultAgentOptions := append([]AgentOption(nil), k.agentOptions...)
	k.mu.RUnlock()

	if modelProvider == nil {
		return nil, fmt.Errorf("kit requires a model provider")
	}

	model, err := modelProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("model provider: %w", err)
	}

	toolBundles := make([]ToolBundle, 0, len(toolProviders))
	for _, provider := range toolProviders {
		bundle, err := provider(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool provider: %w", err)
		}
		toolBundles = append(toolBundles, bundle)
	}

	agentOpts := agent.Options{
		Model:        model,
		SystemPrompt: defaultPrompt,
	}
	for _, opt := range defaultAgentOptions {
		opt(&agentOpts)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&agentOpts)
		}
	}

	if agentOpts.ToolCatalog == nil {
		for _, bundle := range toolBundles {
			if bundle.Catalog != nil {
				agentOpts.ToolCatalog = bundle.Catalog
				break
			}
		}
	}
	if agentOpts.ToolCatalog == nil {
		agentOpts.ToolCatalog = agent.NewStaticToolCatalog(nil)
	}

	for _, bundle := range toolBundles {
		for _, tool := range bundle.Tools {
			if tool == nil {
				continue
			}
			agentOpts.Tools = append(agentOpts.Tools, tool)
		}
	}

	return agent.New(agentOpts)
}

// Close releases the store opened through the kit.
func (k *AgentDevelopmentKit) Close() error {
	k.mu.Lock()
	s := k.store
	k.store = nil
	k.storeOnce.Do(func() {})
	k.storeErr = errKitClosed
	k.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close()
}
