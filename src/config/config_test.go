package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValidWithKey(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "gemini without a key must fail")

	cfg.GoogleAPIKey = "key"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.KeepRecentUserTurns)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expense.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: openai
model: gpt-4o-mini
keep_recent_user_turns: 5
store:
  backend: postgres
  postgres_dsn: postgres://file
wallet:
  issuer_id: "3388"
  credentials_file: /etc/sa.json
  cache_ttl: 90s
  origins: [www.example.com]
`), 0o600))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		"OPENAI_API_KEY":       "sk-test",
		"EXPENSE_POSTGRES_DSN": "postgres://env",
		"WALLET_ORIGINS":       "a.example, b.example",
	})))

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Equal(t, 5, cfg.KeepRecentUserTurns)
	assert.Equal(t, "postgres://env", cfg.Store.PostgresDSN)
	assert.Equal(t, 90*time.Second, cfg.Wallet.CacheTTL)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.Wallet.Origins)
	assert.Equal(t, "generic", cfg.Wallet.ClassSuffix)
	assert.True(t, cfg.Wallet.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unterminated"), 0o600))
	assert.Error(t, cfg.LoadFile(path))
}

func TestApplyEnvKeyFallbacks(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{"GEMINI_API_KEY": "g-key"})))
	assert.Equal(t, "g-key", cfg.APIKey())

	cfg = Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{"GOOGLE_API_KEY": "first", "GEMINI_API_KEY": "second"})))
	assert.Equal(t, "first", cfg.GoogleAPIKey)

	err := cfg.ApplyEnv(envMap(map[string]string{"EXPENSE_KEEP_RECENT_USER_TURNS": "three"}))
	assert.Error(t, err)
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--provider", "dummy", "--keep-recent", "1", "--store=mongo"}))

	cfg := Default()
	cfg.Model = "kept"
	require.NoError(t, cfg.ApplyFlags(fs))
	assert.Equal(t, "dummy", cfg.Provider)
	assert.Equal(t, "kept", cfg.Model)
	assert.Equal(t, 1, cfg.KeepRecentUserTurns)
	assert.Equal(t, BackendMongo, cfg.Store.Backend)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo_uri")
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Provider = "llama"
	cfg.KeepRecentUserTurns = -1
	cfg.Store.Backend = "sqlite"
	cfg.Wallet.IssuerID = "3388"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"invalid provider", "keep_recent_user_turns", "invalid store backend", "credentials_file"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	assert.Equal(t, "DEBUG", cfg.SlogLevel().String())
	cfg.LogLevel = "loud"
	assert.Equal(t, "INFO", cfg.SlogLevel().String())
}
