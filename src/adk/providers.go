package adk

import (
	"context"

	agent "github.com/Protocol-Lattice/expense-agent"
	"github.com/Protocol-Lattice/expense-agent/src/models"
	"github.com/Protocol-Lattice/expense-agent/src/store"
	"github.com/Protocol-Lattice/expense-agent/src/wallet"
)

// ModelProvider constructs the chat model used by the agent.
type ModelProvider func(ctx context.Context) (models.Agent, error)

// StoreProvider opens the document store. The kit calls it at most once and
// owns the returned store until Close.
type StoreProvider func(ctx context.Context) (store.Store, error)

// IssuerProvider builds the wallet pass issuer. A nil issuer with a nil error
// disables wallet passes.
type IssuerProvider func(ctx context.Context) (wallet.Issuer, error)

// ToolBundle describes the tool catalog and the concrete tool instances
// contributed by a module. Catalog may be nil meaning the default catalog
// should be used.
type ToolBundle struct {
	Catalog agent.ToolCatalog
	Tools   []agent.Tool
}

// ToolProvider returns a ToolBundle to be merged into the agent configuration.
type ToolProvider func(ctx context.Context) (ToolBundle, error)

// AgentOption is applied to the agent options prior to constructing the agent.
type AgentOption func(*agent.Options)
