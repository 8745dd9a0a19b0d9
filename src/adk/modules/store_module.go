package modules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Protocol-Lattice/expense-agent/src/adk"
	"github.com/Protocol-Lattice/expense-agent/src/store"
)

// StoreModule registers a document store provider with the kit.
type StoreModule struct {
	name     string
	provider adk.StoreProvider
}

// NewStoreModule creates a store module. If name is empty the module is
// registered as "store".
func NewStoreModule(name string, provider adk.StoreProvider) *StoreModule {
	if name == "" {
		name = "store"
	}
	return &StoreModule{name: name, provider: provider}
}

func (m *StoreModule) Name() string { return m.name }

func (m *StoreModule) Provision(_ context.Context, kitInstance *adk.AgentDevelopmentKit) error {
	if m.provider == nil {
		return fmt.Errorf("store provider is nil")
	}
	kitInstance.UseStoreProvider(m.provider)
	return nil
}

// InMemoryStoreModule keeps documents in process memory.
func InMemoryStoreModule() *StoreModule {
	return NewStoreModule("memory", func(context.Context) (store.Store, error) {
		return store.NewInMemoryStore(), nil
	})
}

// MongoStoreModule connects to MongoDB and optionally creates the lookup index.
func MongoStoreModule(uri, database, collection string, createSchema bool, logger *slog.Logger) *StoreModule {
	return NewStoreModule("mongo", func(ctx context.Context) (store.Store, error) {
		s, err := newMongoStore(ctx, uri, database, collection)
		if err != nil {
			return nil, err
		}
		return initSchema(ctx, s, createSchema, logger)
	})
}

// PostgresStoreModule connects to Postgres and optionally creates the table.
func PostgresStoreModule(dsn string, createSchema bool, logger *slog.Logger) *StoreModule {
	return NewStoreModule("postgres", func(ctx context.Context) (store.Store, error) {
		s, err := newPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return initSchema(ctx, s, createSchema, logger)
	})
}

func initSchema(ctx context.Context, s store.Store, createSchema bool, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !createSchema {
		return s, nil
	}
	init, ok := s.(store.SchemaInitializer)
	if !ok {
		return s, nil
	}
	if err := init.CreateSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	logger.Debug("document store schema ready", "store", fmt.Sprintf("%T", s))
	return s, nil
}
