// ABOUTME: Entry point for the gatekeeper demo server
// ABOUTME: Wires directory, session store, auth manager and gated routes together

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/jmfreitas/gatekeeper/internal/authstate"
	"github.com/jmfreitas/gatekeeper/internal/config"
	"github.com/jmfreitas/gatekeeper/internal/directory"
	"github.com/jmfreitas/gatekeeper/internal/session"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
             _       _
  __ _  __ _| |_ ___| | _____  ___ _ __   ___ _ __
 / _' |/ _' | __/ _ \ |/ / _ \/ _ \ '_ \ / _ \ '__|
| (_| | (_| | ||  __/   <  __/  __/ |_) |  __/ |
 \__, |\__,_|\__\___|_|\_\___|\___| .__/ \___|_|
 |___/                            |_|
`

// getConfigPath returns the path to the gatekeeper config file.
// Priority: GATEKEEPER_CONFIG env var > XDG_CONFIG_HOME/gatekeeper/config.yaml > ~/.config/gatekeeper/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("GATEKEEPER_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "gatekeeper", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: gatekeeper <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the gatekeeper server")
		fmt.Println("  health  Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
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

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.Addr)
	green.Print("    ▶ ")
	if cfg.Directory.DatabasePath != "" {
		fmt.Printf("Directory: sqlite (%s)\n", cfg.Directory.DatabasePath)
	} else {
		fmt.Printf("Directory: mock\n")
	}
	fmt.Println()

	logger.Info("starting gatekeeper",
		"config", configPath,
		"addr", cfg.Server.Addr,
	)

	// Identity directory
	var dir directory.Directory
	if cfg.Directory.DatabasePath != "" {
		sqlDir, err := directory.NewSQLiteDirectory(cfg.Directory.DatabasePath)
		if err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
		defer sqlDir.Close()
		dir = sqlDir
	} else {
		mock := directory.NewMockDirectory(cfg.Directory.MockLatency)
		if cfg.Directory.SeedDefaults {
			mock.SeedDefaults()
		}
		dir = mock
	}

	// Session store over an ephemeral and a persistent tier
	fileTier, err := session.NewFileTier(cfg.Session.FilePath)
	if err != nil {
		return fmt.Errorf("creating session tier: %w", err)
	}
	store := session.NewStore(session.NewMemoryTier(), fileTier)

	// Auth state manager
	issuer := directory.NewJWTIssuer([]byte(cfg.Auth.JWTSecret))
	opts := []authstate.Option{authstate.WithLogger(logger.With("component", "authstate"))}
	if cfg.Session.RememberTTL > 0 {
		opts = append(opts, authstate.WithRememberTTL(cfg.Session.RememberTTL))
	}
	mgr := authstate.NewManager(dir, issuer, store, opts...)
	mgr.RestoreOnStartup()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: newRouter(mgr, dir),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.Addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
