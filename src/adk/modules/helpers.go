package modules

import (
	"context"

	agent "github.com/Protocol-Lattice/expense-agent"
	kit "github.com/Protocol-Lattice/expense-agent/src/adk"
	"github.com/Protocol-Lattice/expense-agent/src/models"
	"github.com/Protocol-Lattice/expense-agent/src/store"
	"github.com/Protocol-Lattice/expense-agent/src/wallet"
)

// Constructors are variables so tests can replace the network-bound ones.
var (
	newLLMProvider   = models.NewLLMProvider
	newMongoStore    = store.NewMongoStore
	newPostgresStore = store.NewPostgresStore
	newGenericPass   = wallet.NewGenericPass
)

// StaticModelProvider returns a provider that always yields the supplied model.
func StaticModelProvider(model models.Agent) kit.ModelProvider {
	return func(context.Context) (models.Agent, error) {
		return model, nil
	}
}

// StaticStoreProvider returns a provider that always yields s.
func StaticStoreProvider(s store.Store) kit.StoreProvider {
	return func(context.Context) (store.Store, error) {
		return s, nil
	}
}

// StaticIssuerProvider returns a provider that always yields issuer.
func StaticIssuerProvider(issuer wallet.Issuer) kit.IssuerProvider {
	return func(context.Context) (wallet.Issuer, error) {
		return issuer, nil
	}
}

// StaticToolProvider wraps a fixed tool slice and optional catalog into a
// provider implementation.
func StaticToolProvider(tools []agent.Tool, catalog agent.ToolCatalog) kit.ToolProvider {
	return func(context.Context) (kit.ToolBundle, error) {
		bundle := kit.ToolBundle{Catalog: catalog}
		for _, tool := range tools {
			if tool == nil {
				continue
			}
			bundle.Tools = append(bundle.Tools, tool)
		}
		return bundle, nil
	}
}
