// Command server runs forgeline: the artifact pipeline behind an HTTP API
// and an MCP endpoint.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ganot/forgeline/internal/config"
	"github.com/ganot/forgeline/internal/store"
	"github.com/ganot/forgeline/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "forgeline",
		Short:         "LLM artifact pipeline server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				return os.Setenv("FORGELINE_CONFIG_PATH", configPath)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides FORGELINE_CONFIG_PATH)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the HTTP API and MCP over streamable HTTP",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServer(cmd.Context(), "http")
			},
		},
		&cobra.Command{
			Use:   "stdio",
			Short: "Serve MCP over stdin/stdout",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServer(cmd.Context(), "stdio")
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("forgeline %s\n", Version)
			},
		},
	)
	return cmd
}

func setup(mode string) (config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("config error: %w", err)
	}
	if mode != "" {
		cfg.Transport.Mode = mode
	}

	// stdout carries JSON-RPC in stdio mode.
	var w io.Writer = os.Stdout
	if cfg.Transport.Mode == "stdio" {
		w = os.Stderr
	}
	cleanup := func() {}
	if cfg.Log.Path != "" {
		file, err := openLogFile(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			w = file
			cleanup = func() { _ = file.Close() }
		}
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return cfg, logger, cleanup, nil
}

func openDB(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store.DB, error) {
	if cfg.DB.Driver != "postgres" {
		if err := ensureDir(cfg.DB.Path); err != nil {
			return nil, fmt.Errorf("failed to prepare database path: %w", err)
		}
	}
	db, err := store.Open(ctx, cfg.DB, logger)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context) error {
	cfg, logger, cleanup, err := setup("")
	if err != nil {
		return err
	}
	defer cleanup()

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("migrations applied", "driver", db.Dialect())
	return nil
}

func runServer(ctx context.Context, mode string) error {
	cfg, logger, cleanup, err := setup(mode)
	if err != nil {
		return err
	}
	defer cleanup()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	app, err := buildApp(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, app.mcp)
	}
	return runHTTPMode(logger, app, cfg)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "version", Version)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run returns when stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(logger *slog.Logger, app *app, cfg config.Config) error {
	router := transport.NewServer(transport.Options{
		API:     app.orchestrator,
		Bus:     app.bus,
		MCP:     transport.MCPHandler(app.mcp),
		Metrics: cfg.Metrics.Enabled,
		Logger:  logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "version", Version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(logger, httpServer, errCh)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
