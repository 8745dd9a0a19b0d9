// Command app runs the expense assistant from the terminal.
//
// Examples:
//
//	export GOOGLE_API_KEY=...
//	go run ./cmd/app --user alice --message "Save this receipt" receipt.jpg
//
//	go run ./cmd/app --provider dummy --interactive
//
// In interactive mode every line is one message; words starting with "@" are
// read as attachment paths.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	agent "github.com/Protocol-Lattice/expense-agent"
	"github.com/Protocol-Lattice/expense-agent/src/adk"
	"github.com/Protocol-Lattice/expense-agent/src/adk/modules"
	"github.com/Protocol-Lattice/expense-agent/src/config"
	"github.com/Protocol-Lattice/expense-agent/src/prompts"
	"github.com/Protocol-Lattice/expense-agent/src/wallet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		sessionID   string
		userID      string
		message     string
		useStdin    bool
		interactive bool
		asJSON      bool
		timeout     time.Duration
	)

	flagSet := pflag.NewFlagSet("expense-agent", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", os.Getenv("EXPENSE_CONFIG"), "YAML config file")
	flagSet.StringVar(&sessionID, "session", "default", "session id for conversation continuity")
	flagSet.StringVar(&userID, "user", "local-user", "user id the documents are stored under")
	flagSet.StringVarP(&message, "message", "m", "", "user message (ignored with --stdin)")
	flagSet.BoolVar(&useStdin, "stdin", false, "read the user message from STDIN")
	flagSet.BoolVarP(&interactive, "interactive", "i", false, "read messages line by line until EOF")
	flagSet.BoolVar(&asJSON, "json", false, "print JSON {response, session, user}")
	flagSet.DurationVar(&timeout, "timeout", 2*time.Minute, "timeout per message")
	config.RegisterFlags(flagSet)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyFlags(flagSet); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if cfg.LogFormat == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompt, err := prompts.Load(cfg.PromptFile)
	if err != nil {
		return err
	}

	kit, err := adk.New(ctx,
		adk.WithDefaultSystemPrompt(prompt),
		adk.WithModules(buildModules(cfg, logger)...),
		adk.WithAgentOptions(func(o *agent.Options) {
			o.ModelName = cfg.Model
			o.MaxIterations = cfg.MaxToolIterations
			o.ToolConcurrency = cfg.ToolConcurrency
			o.Logger = logger
		}),
	)
	if err != nil {
		return fmt.Errorf("adk.New: %w", err)
	}
	defer func() {
		if err := kit.Close(); err != nil {
			logger.Warn("closing kit", "error", err)
		}
	}()

	ag, err := kit.BuildAgent(ctx)
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}
	logger.Info("expense agent ready",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"store", cfg.Store.Backend,
		"wallet", cfg.Wallet.Enabled(),
	)

	turn := func(text string, paths []string) error {
		files, err := loadFiles(paths...)
		if err != nil {
			return err
		}
		tctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		out, err := ag.Respond(tctx, sessionID, userID, text, files)
		if err != nil {
			return err
		}
		return printResponse(os.Stdout, asJSON, out, sessionID, userID)
	}

	if interactive {
		return repl(ctx, os.Stdin, turn, logger)
	}

	if useStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		message = strings.TrimRight(string(data), "\n")
	}
	if strings.TrimSpace(message) == "" && len(flagSet.Args()) == 0 {
		return errors.New("no message and no files provided")
	}
	return turn(message, flagSet.Args())
}

func buildModules(cfg *config.Config, logger *slog.Logger) []adk.Module {
	mods := []adk.Module{
		modules.LLMModule(cfg.Provider, cfg.Model, cfg.APIKey()),
		modules.NewHistoryModule(cfg.KeepRecentUserTurns),
	}

	switch cfg.Store.Backend {
	case config.BackendMongo:
		mods = append(mods, modules.MongoStoreModule(cfg.Store.MongoURI, cfg.Store.MongoDatabase, cfg.Store.Collection, cfg.Store.CreateSchema, logger))
	case config.BackendPostgres:
		mods = append(mods, modules.PostgresStoreModule(cfg.Store.PostgresDSN, cfg.Store.CreateSchema, logger))
	default:
		mods = append(mods, modules.InMemoryStoreModule())
	}

	if cfg.Wallet.Enabled() {
		mods = append(mods, modules.GenericPassModule(modules.GenericPassOptions{
			Config: wallet.Config{
				IssuerID:    cfg.Wallet.IssuerID,
				ClassSuffix: cfg.Wallet.ClassSuffix,
				Origins:     cfg.Wallet.Origins,
			},
			CredentialsFile: cfg.Wallet.CredentialsFile,
			EnsureClass:     cfg.Wallet.EnsureClass,
			CacheSize:       cfg.Wallet.CacheSize,
			CacheTTL:        cfg.Wallet.CacheTTL,
			Logger:          logger,
		}))
	}

	return append(mods, modules.ExpenseToolsModule())
}

func repl(ctx context.Context, in io.Reader, turn func(string, []string) error, logger *slog.Logger) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		text, paths := splitAttachments(sc.Text())
		if text == "" && len(paths) == 0 {
			continue
		}
		if err := turn(text, paths); err != nil {
			logger.Error("turn failed", "error", err)
		}
	}
	return sc.Err()
}

// splitAttachments separates "@path" words from the message text.
func splitAttachments(line string) (string, []string) {
	var words, paths []string
	for _, field := range strings.Fields(line) {
		if len(field) > 1 && strings.HasPrefix(field, "@") {
			paths = append(paths, field[1:])
			continue
		}
		words = append(words, field)
	}
	return strings.Join(words, " "), paths
}

func printResponse(w io.Writer, asJSON bool, response, session, user string) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, response)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"response": response,
		"session":  session,
		"user":     user,
	})
}
