// Package config loads settings for the expense agent.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables, then command-line flags that were set explicitly.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Config is the top-level configuration.
type Config struct {
	// Provider selects the chat model backend: gemini, openai or dummy.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	GoogleAPIKey string `yaml:"google_api_key"`
	OpenAIAPIKey string `yaml:"openai_api_key"`

	// PromptFile replaces the embedded task prompt when set.
	PromptFile string `yaml:"prompt_file"`

	// KeepRecentUserTurns is how many recent user messages keep their image
	// and video attachments.
	KeepRecentUserTurns int `yaml:"keep_recent_user_turns"`
	MaxToolIterations   int `yaml:"max_tool_iterations"`
	ToolConcurrency     int `yaml:"tool_concurrency"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Store  StoreConfig  `yaml:"store"`
	Wallet WalletConfig `yaml:"wallet"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend       string `yaml:"backend"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	Collection    string `yaml:"collection"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	// CreateSchema creates indexes or tables on startup.
	CreateSchema bool `yaml:"create_schema"`
}

// WalletConfig configures Google Wallet pass issuing. Issuing is disabled
// when IssuerID is empty.
type WalletConfig struct {
	IssuerID        string        `yaml:"issuer_id"`
	ClassSuffix     string        `yaml:"class_suffix"`
	CredentialsFile string        `yaml:"credentials_file"`
	Origins         []string      `yaml:"origins"`
	EnsureClass     bool          `yaml:"ensure_class"`
	CacheSize       int           `yaml:"cache_size"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
}

// Enabled reports whether wallet passes can be issued.
func (w WalletConfig) Enabled() bool {
	return strings.TrimSpace(w.IssuerID) != ""
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider:            "gemini",
		Model:               "gemini-2.5-flash",
		KeepRecentUserTurns: 3,
		MaxToolIterations:   8,
		ToolConcurrency:     4,
		LogLevel:            "info",
		LogFormat:           "text",
		Store: StoreConfig{
			Backend:       BackendMemory,
			MongoDatabase: "expenses",
			Collection:    "personal-expense-assistant",
			CreateSchema:  true,
		},
		Wallet: WalletConfig{
			ClassSuffix: "generic",
			CacheSize:   128,
			CacheTTL:    10 * time.Minute,
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path (if any)
// and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges a YAML file into c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	str(&c.Provider, "EXPENSE_PROVIDER")
	str(&c.Model, "EXPENSE_MODEL")
	str(&c.GoogleAPIKey, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	str(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	str(&c.PromptFile, "EXPENSE_PROMPT_FILE")
	str(&c.LogLevel, "EXPENSE_LOG_LEVEL")
	str(&c.Store.Backend, "EXPENSE_STORE")
	str(&c.Store.MongoURI, "EXPENSE_MONGO_URI")
	str(&c.Store.MongoDatabase, "EXPENSE_MONGO_DATABASE")
	str(&c.Store.Collection, "EXPENSE_DB_COLLECTION")
	str(&c.Store.PostgresDSN, "EXPENSE_POSTGRES_DSN")
	str(&c.Wallet.IssuerID, "WALLET_ISSUER_ID")
	str(&c.Wallet.ClassSuffix, "WALLET_CLASS_SUFFIX")
	str(&c.Wallet.CredentialsFile, "WALLET_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")

	if v, ok := lookup("WALLET_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.Wallet.Origins = splitList(v)
	}
	if v, ok := lookup("EXPENSE_KEEP_RECENT_USER_TURNS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("EXPENSE_KEEP_RECENT_USER_TURNS: %w", err)
		}
		c.KeepRecentUserTurns = n
	}
	return nil
}

// RegisterFlags adds the flags ApplyFlags understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("provider", "", "model provider: gemini, openai or dummy")
	fs.String("model", "", "model name")
	fs.String("prompt-file", "", "task prompt file (default: embedded prompt)")
	fs.Int("keep-recent", 0, "number of recent user messages that keep image/video attachments")
	fs.Int("max-tool-iterations", 0, "maximum model calls per message")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("store", "", "document store: memory, mongo or postgres")
	fs.String("mongo-uri", "", "MongoDB connection string")
	fs.String("postgres-dsn", "", "Postgres connection string")
	fs.String("collection", "", "MongoDB collection name")
	fs.String("wallet-issuer", "", "Google Wallet issuer id")
	fs.String("wallet-credentials", "", "service account JSON used to sign wallet passes")
}

// ApplyFlags copies every flag the user set explicitly onto c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var errs []error
	str := func(name string, dst *string) {
		if !fs.Changed(name) {
			return
		}
		v, err := fs.GetString(name)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}
	num := func(name string, dst *int) {
		if !fs.Changed(name) {
			return
		}
		v, err := fs.GetInt(name)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}
	str("provider", &c.Provider)
	str("model", &c.Model)
	str("prompt-file", &c.PromptFile)
	num("keep-recent", &c.KeepRecentUserTurns)
	num("max-tool-iterations", &c.MaxToolIterations)
	str("log-level", &c.LogLevel)
	str("store", &c.Store.Backend)
	str("mongo-uri", &c.Store.MongoURI)
	str("postgres-dsn", &c.Store.PostgresDSN)
	str("collection", &c.Store.Collection)
	str("wallet-issuer", &c.Wallet.IssuerID)
	str("wallet-credentials", &c.Wallet.CredentialsFile)
	return errors.Join(errs...)
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	switch strings.ToLower(c.Provider) {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini", "google":
		return c.GoogleAPIKey
	default:
		return ""
	}
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Provider) {
	case "gemini", "google", "openai":
		if strings.TrimSpace(c.Model) == "" {
			errs = append(errs, fmt.Errorf("model is required for provider %s", c.Provider))
		}
		if c.APIKey() == "" {
			errs = append(errs, fmt.Errorf("an API key is required for provider %s", c.Provider))
		}
	case "dummy":
	default:
		errs = append(errs, fmt.Errorf("invalid provider: %q", c.Provider))
	}

	if c.KeepRecentUserTurns < 0 {
		errs = append(errs, fmt.Errorf("keep_recent_user_turns must not be negative"))
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, fmt.Errorf("store.mongo_uri is required for the mongo backend"))
		}
		if c.Store.MongoDatabase == "" || c.Store.Collection == "" {
			errs = append(errs, fmt.Errorf("store.mongo_database and store.collection are required for the mongo backend"))
		}
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("store.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid store backend: %q", c.Store.Backend))
	}

	if c.Wallet.Enabled() && strings.TrimSpace(c.Wallet.CredentialsFile) == "" {
		errs = append(errs, fmt.Errorf("wallet.credentials_file is required when wallet.issuer_id is set"))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
