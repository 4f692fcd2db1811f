package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/yegors/batchscribe/internal/api"
	"github.com/yegors/batchscribe/internal/batch"
	"github.com/yegors/batchscribe/internal/config"
	"github.com/yegors/batchscribe/internal/engine"
	"github.com/yegors/batchscribe/internal/scanner"
	"github.com/yegors/batchscribe/internal/storage/sqlite"
	"github.com/yegors/batchscribe/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	inputDir := flag.String("input", "", "Input directory override")
	outputDir := flag.String("output", "", "Output directory override")
	serve := flag.Bool("serve", false, "Serve the run history API instead of running a batch")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *inputDir != "" {
		cfg.Input.Dir = *inputDir
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting batchscribe", logger.String("version", Version))

	if *serve {
		if err := runServer(cfg, log); err != nil {
			log.Error("Server failed", logger.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := runBatch(cfg, log); err != nil {
		log.Error("Batch aborted", logger.Error(err))
		os.Exit(1)
	}
}

// runBatch executes one batch run. Per-file failures are reported, not
// fatal; only engine construction, discovery, and output setup abort.
func runBatch(cfg *config.Config, log *logger.Logger) error {
	store := openStorage(cfg, log)
	if store != nil {
		defer store.Close()
	}

	eng, err := engine.New(cfg.Engine, log)
	if err != nil {
		return err
	}
	defer eng.Close()

	log.Info("Engine ready",
		logger.String("backend", cfg.Engine.Backend),
		logger.String("model", eng.Model()))

	orchestrator := batch.NewOrchestrator(eng, cfg, store, log)
	report, err := orchestrator.Run(context.Background())
	if err != nil {
		if errors.Is(err, scanner.ErrInputDirUnreadable) {
			return fmt.Errorf("discovery failed: %w", err)
		}
		return err
	}

	fmt.Print(report.Summary())
	return nil
}

// runServer exposes the run history API until interrupted.
func runServer(cfg *config.Config, log *logger.Logger) error {
	if !cfg.Storage.Enabled {
		return fmt.Errorf("serve mode requires storage to be enabled")
	}
	store := openStorage(cfg, log)
	if store == nil {
		return fmt.Errorf("failed to open run history database")
	}
	defer store.Close()

	router := api.NewRouter(store, log)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// openStorage opens the run history database when enabled. Failures are
// logged and treated as "no storage": history never blocks a batch.
func openStorage(cfg *config.Config, log *logger.Logger) *sqlite.RunStorage {
	if !cfg.Storage.Enabled {
		return nil
	}
	if err := os.MkdirAll(cfg.Storage.SQLiteBasePath, 0o755); err != nil {
		log.Error("Failed to create database directory",
			logger.String("path", cfg.Storage.SQLiteBasePath),
			logger.Error(err))
		return nil
	}
	dbPath := filepath.Join(cfg.Storage.SQLiteBasePath, "batchscribe.db")
	store, err := sqlite.NewRunStorage(dbPath, log)
	if err != nil {
		log.Error("Failed to open run history database", logger.Error(err))
		return nil
	}
	return store
}
