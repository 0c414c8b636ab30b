// VitalGraph Daemon - local causal health graph service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalgraph/vitalgraph/internal/alerts"
	"github.com/vitalgraph/vitalgraph/internal/api"
	"github.com/vitalgraph/vitalgraph/internal/causal"
	"github.com/vitalgraph/vitalgraph/internal/cloudsync"
	"github.com/vitalgraph/vitalgraph/internal/config"
	"github.com/vitalgraph/vitalgraph/internal/debt"
	"github.com/vitalgraph/vitalgraph/internal/graph"
	"github.com/vitalgraph/vitalgraph/internal/logging"
	"github.com/vitalgraph/vitalgraph/internal/mealsync"
	"github.com/vitalgraph/vitalgraph/internal/storage"
)

var (
	configPath  string
	dataDir     string
	port        int
	mealSyncURL string
	debug       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vitald",
		Short: "VitalGraph Daemon - your personal causal health graph",
		RunE:  runDaemon,
	}

	defaults := config.Default()

	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", defaults.DataDir, "Data directory")
	rootCmd.Flags().IntVar(&port, "port", defaults.Server.Port, "HTTP server port")
	rootCmd.Flags().StringVar(&mealSyncURL, "meal-sync-url", defaults.MealSync.BaseURL, "Meal logger base URL")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags win over file config.
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("meal-sync-url") {
		cfg.MealSync.BaseURL = mealSyncURL
	}
	if debug || cfg.Features.DebugMode {
		logging.SetLevel(logging.DEBUG)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// Open database
	dbPath := filepath.Join(cfg.DataDir, "vitalgraph.db")
	db, err := storage.Open(storage.Config{Path: dbPath})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	store := graph.New(db)
	engine := debt.NewEngine(store)
	gate := causal.NewGate(store)

	var alertService *alerts.Service
	if cfg.Features.EnableAlerts {
		alertService = alerts.NewService(storage.NewAlertStore(db))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pull meal events from the companion logger on startup. Failures are
	// logged, the daemon still comes up with whatever it has locally.
	if cfg.MealSync.Enabled {
		syncService := mealsync.NewService(mealsync.NewClient(cfg.MealSync.BaseURL), store)
		go func() {
			syncCtx, syncCancel := context.WithTimeout(ctx, 2*time.Minute)
			defer syncCancel()
			result, err := syncService.SyncFromStored(syncCtx)
			if err != nil {
				logging.WithField("error", err.Error()).Warn("initial meal sync failed")
				return
			}
			logging.WithField("ingested", result.Ingested).Info("meal sync complete")
		}()
	}

	if cfg.CloudSync.Enabled {
		exporter := cloudsync.NewExporter(cfg.CloudSync.Endpoint, store)
		go func() {
			exportCtx, exportCancel := context.WithTimeout(ctx, time.Minute)
			defer exportCancel()
			count, err := exporter.Export(exportCtx)
			if err != nil {
				logging.WithField("error", err.Error()).Warn("cloud pattern export failed")
				return
			}
			logging.WithField("patterns", count).Info("cloud pattern export complete")
		}()
	}

	server := api.New(api.Config{
		Port:         cfg.Server.Port,
		Store:        store,
		Engine:       engine,
		Gate:         gate,
		AlertService: alertService,
	})

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		logging.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
		cancel()
	}()

	logging.WithField("port", cfg.Server.Port).Info("vitald starting")
	return server.Start()
}
