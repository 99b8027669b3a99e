// ABOUTME: Entry point for the agentgate tool-calling server
// ABOUTME: Serves the JSON-RPC endpoint and provides key issuance commands

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/quillboard/agentgate/internal/auth"
	"github.com/quillboard/agentgate/internal/config"
	"github.com/quillboard/agentgate/internal/docs"
	"github.com/quillboard/agentgate/internal/feedback"
	"github.com/quillboard/agentgate/internal/metrics"
	"github.com/quillboard/agentgate/internal/ratelimit"
	"github.com/quillboard/agentgate/internal/rpc"
	"github.com/quillboard/agentgate/internal/store"
	"github.com/quillboard/agentgate/internal/tools"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                          _              _
   __ _  __ _  ___ _ __ | |_ __ _  __ _| |_ ___
  / _' |/ _' |/ _ \ '_ \| __/ _' |/ _' | __/ _ \
 | (_| | (_| |  __/ | | | || (_| | (_| | ||  __/
  \__,_|\__, |\___|_| |_|\__\__, |\__,_|\__\___|
        |___/               |___/
`

// getConfigPath returns the path to the agentgate config file.
// Priority: AGENTGATE_CONFIG env var > XDG_CONFIG_HOME/agentgate/agentgate.yaml > ~/.config/agentgate/agentgate.yaml
func getConfigPath() string {
	if envPath := os.Getenv("AGENTGATE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "agentgate.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "agentgate", "agentgate.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: agentgate <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                        Start the tool-calling server")
		fmt.Println("  init                         Create a new config file")
		fmt.Println("  issue-key --tenant ID ...    Issue a new API key for a tenant")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "issue-key":
		err = runIssueKey(ctx, os.Args[2:])
	default:
		err = fmt.Errorf("unknown command: %s", os.Args[1])
	}

	if err != nil {
		red := color.New(color.FgRed)
		red.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration, falling back to defaults when no file exists
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var limiter ratelimit.Limiter
	switch cfg.RateLimit.Backend {
	case "store":
		limiter = ratelimit.NewStoreLimiter(st, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	default:
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}

	authenticator, err := auth.NewAuthenticator(auth.Config{
		Credentials: st,
		Limiter:     limiter,
		Logger:      logger.With("component", "auth"),
		RateLimit:   cfg.RateLimit.MaxRequests,
		RateWindow:  cfg.RateLimit.Window,
	})
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	registry := tools.NewRegistry(logger.With("component", "registry"))
	if err := feedback.Register(registry, st); err != nil {
		return fmt.Errorf("registering feedback tools: %w", err)
	}

	router, err := tools.NewRouter(tools.RouterConfig{
		Registry: registry,
		Logger:   logger.With("component", "router"),
	})
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	server, err := rpc.NewServer(rpc.Config{
		Registry:      registry,
		Router:        router,
		Authenticator: authenticator,
		Logger:        logger.With("component", "rpc"),
		Metrics:       m,
	})
	if err != nil {
		return fmt.Errorf("creating rpc server: %w", err)
	}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	docs.NewHandler(registry, logger.With("component", "docs")).RegisterRoutes(mux)
	if m != nil {
		mux.Handle(cfg.Metrics.Path, m.Handler())
	}

	logger.Info("starting agentgate",
		"http_addr", cfg.Server.HTTPAddr,
		"tools", registry.Count(),
		"rate_limit", cfg.RateLimit.MaxRequests,
		"rate_window", cfg.RateLimit.Window.String(),
		"rate_backend", cfg.RateLimit.Backend,
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// loadConfig loads the config file, or returns defaults when it is absent.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

const exampleConfig = `server:
  http_addr: ":8787"

database:
  path: "agentgate.db"

rate_limit:
  max_requests: 100
  window: "60s"
  backend: "memory"

logging:
  level: "info"
  format: "text"

metrics:
  enabled: false
  path: "/metrics"
`

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ ")
	fmt.Printf("Created %s\n", configPath)
	return nil
}

func runIssueKey(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("issue-key", flag.ExitOnError)
	tenant := fs.String("tenant", "", "tenant ID the key belongs to (required)")
	name := fs.String("name", "default", "human-readable key name")
	scopes := fs.String("scopes", "read", "space-separated scopes (read write)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tenant == "" {
		return errors.New("--tenant is required")
	}
	for _, tok := range strings.Fields(*scopes) {
		if tok != string(auth.ScopeRead) && tok != string(auth.ScopeWrite) {
			return fmt.Errorf("unknown scope %q (valid: read, write)", tok)
		}
	}

	cfg, err := loadConfig(getConfigPath())
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	rawKey, err := auth.GenerateKey()
	if err != nil {
		return err
	}

	cred := &store.Credential{
		ID:        uuid.New().String(),
		TenantID:  *tenant,
		Name:      *name,
		KeyHash:   auth.HashKey(rawKey),
		Scopes:    *scopes,
		CreatedAt: time.Now(),
	}
	if err := st.CreateCredential(ctx, cred); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	green.Printf("✓ ")
	fmt.Printf("Issued key %s for tenant %s (scopes: %s)\n", cred.ID, *tenant, *scopes)
	fmt.Println()
	fmt.Print("  API key (shown once, store it now): ")
	yellow.Println(rawKey)
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
