package modules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Protocol-Lattice/expense-agent/src/adk"
	"github.com/Protocol-Lattice/expense-agent/src/wallet"
)

// WalletModule registers a wallet issuer provider with the kit.
type WalletModule struct {
	name     string
	provider adk.IssuerProvider
}

// NewWalletModule creates a wallet module. If name is empty the module is
// registered as "wallet".
func NewWalletModule(name string, provider adk.IssuerProvider) *WalletModule {
	if name == "" {
		name = "wallet"
	}
	return &WalletModule{name: name, provider: provider}
}

func (m *WalletModule) Name() string { return m.name }

func (m *WalletModule) Provision(_ context.Context, kitInstance *adk.AgentDevelopmentKit) error {
	if m.provider == nil {
		return fmt.Errorf("issuer provider is nil")
	}
	kitInstance.UseIssuerProvider(m.provider)
	return nil
}

// GenericPassOptions configures GenericPassModule.
type GenericPassOptions struct {
	Config          wallet.Config
	CredentialsFile string
	// EnsureClass creates the pass class through the Wallet API on startup.
	EnsureClass bool
	// CacheSize and CacheTTL enable token reuse when both are positive.
	CacheSize int
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

// GenericPassModule issues Google Wallet generic passes signed with a service
// account.
func GenericPassModule(opts GenericPassOptions) *WalletModule {
	return NewWalletModule("google-wallet", func(ctx context.Context) (wallet.Issuer, error) {
		gp, err := newGenericPass(ctx, opts.Config, opts.CredentialsFile, opts.Logger)
		if err != nil {
			return nil, err
		}
		if opts.EnsureClass {
			if err := gp.EnsureClass(ctx); err != nil {
				return nil, err
			}
		}
		if opts.CacheSize > 0 && opts.CacheTTL > 0 {
			return wallet.NewCachedIssuer(gp, opts.CacheSize, opts.CacheTTL), nil
		}
		return gp, nil
	})
}
