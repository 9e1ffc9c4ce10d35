package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petra-dev/upwatch/internal/checker"
	"github.com/petra-dev/upwatch/internal/config"
	"github.com/petra-dev/upwatch/internal/dashboard"
	"github.com/petra-dev/upwatch/internal/logging"
	"github.com/petra-dev/upwatch/internal/registry"
	"github.com/petra-dev/upwatch/internal/scheduler"
	"github.com/petra-dev/upwatch/internal/server"
	"github.com/petra-dev/upwatch/internal/storage"
	"github.com/petra-dev/upwatch/internal/version"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "upwatch",
		Short:        "Self-hosted uptime monitor for JSON APIs and HTML pages",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "upwatch.yml", "config file path")

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(statusCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("upwatch %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the uptime monitor",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// 1. Load config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// 2. Build logger
	logger, err := logging.New(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.Int("seed_services", len(cfg.Services)))

	// 3. Open the service registry
	var store registry.Store
	if cfg.Storage.Path != "" {
		db, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		store = db
	} else {
		logger.Info("no storage path configured, using in-memory registry")
		store = registry.NewMemory()
	}

	// 4. Register seed services from the config file
	for _, seed := range cfg.Services {
		svc := &registry.Service{
			Name:           seed.Name,
			Mode:           seed.Mode,
			URL:            seed.URL,
			ExtractionPath: seed.ExtractionPath,
			Selector:       seed.Selector,
			ExpectedValue:  seed.ExpectedValue,
		}
		err := store.Add(context.Background(), svc)
		if errors.Is(err, registry.ErrDuplicateURL) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding service %q: %w", seed.Name, err)
		}
		logger.Info("seeded service", zap.String("service", seed.Name), zap.String("url", seed.URL))
	}

	// 5. Build evaluator and refresh loop
	eval := checker.New(cfg.Checks.Timeout.Duration)
	refresher := scheduler.New(store, eval,
		cfg.Checks.RefreshInterval.Duration, cfg.Checks.Timeout.Duration, logger)

	// 6. Build API server and mount routes on a single mux
	apiServer := server.New(store, eval, refresher, cfg.Server.CORSOrigins, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer.Router())
	mux.Handle("/metrics", apiServer.Router())
	mux.Handle("/", dashboard.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	// 7. Signal context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 8. Start the refresh loop
	go refresher.Run(ctx)

	// 9. Start HTTP server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// 10. Wait for signal or server error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server: %w", err)
	}

	// 11. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}
