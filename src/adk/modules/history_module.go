package modules

import (
	"context"

	agent "github.com/Protocol-Lattice/expense-agent"
	"github.com/Protocol-Lattice/expense-agent/src/adk"
)

// HistoryModule installs the attachment-trimming callback with a custom
// retention window.
type HistoryModule struct {
	keep int
}

func NewHistoryModule(keep int) *HistoryModule {
	return &HistoryModule{keep: keep}
}

func (m *HistoryModule) Name() string { return "history" }

func (m *HistoryModule) Provision(_ context.Context, kitInstance *adk.AgentDevelopmentKit) error {
	keep := m.keep
	kitInstance.UseAgentOption(func(o *agent.Options) {
		o.Callbacks = append(o.Callbacks, agent.TrimHistoryAttachmentsKeep(keep))
	})
	return nil
}
