package modules

import (
	"context"
	"fmt"

	agent "github.com/Protocol-Lattice/expense-agent"
	"github.com/Protocol-Lattice/expense-agent/src/adk"
	"github.com/Protocol-Lattice/expense-agent/src/tools"
)

// ToolModule registers a tool provider with the kit.
type ToolModule struct {
	name     string
	provider adk.ToolProvider
	// bind builds the provider from the kit during Provision when set.
	bind func(*adk.AgentDevelopmentKit) adk.ToolProvider
}

// NewToolModule creates a tool module. If name is empty the module is
// registered as "tools".
func NewToolModule(name string, provider adk.ToolProvider) *ToolModule {
	if name == "" {
		name = "tools"
	}
	return &ToolModule{name: name, provider: provider}
}

// ExpenseToolsModule contributes the document tools over the kit's store and,
// when an issuer is configured, the wallet pass tool.
func ExpenseToolsModule() *ToolModule {
	return &ToolModule{
		name: "expense-tools",
		bind: func(k *adk.AgentDevelopmentKit) adk.ToolProvider {
			return func(ctx context.Context) (adk.ToolBundle, error) {
				s, err := k.Store(ctx)
				if err != nil {
					return adk.ToolBundle{}, fmt.Errorf("store: %w", err)
				}
				bundle := adk.ToolBundle{Tools: []agent.Tool{
					tools.NewSaveAttachmentTool(s),
					tools.NewGetReceiptsTool(s),
				}}
				issuer, err := k.Issuer(ctx)
				if err != nil {
					return adk.ToolBundle{}, fmt.Errorf("wallet: %w", err)
				}
				if issuer != nil {
					bundle.Tools = append(bundle.Tools, tools.NewWalletPassTool(issuer))
				}
				return bundle, nil
			}
		},
	}
}

func (m *ToolModule) Name() string { return m.name }

func (m *ToolModule) Provision(_ context.Context, kitInstance *adk.AgentDevelopmentKit) error {
	provider := m.provider
	if m.bind != nil {
		provider = m.bind(kitInstance)
	}
	if provider == nil {
		return fmt.Errorf("tool provider is nil")
	}
	kitInstance.UseToolProvider(provider)
	return nil
}
