package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vertextoedge/image-downloader/internal/adapter/filesystem"
	"github.com/vertextoedge/image-downloader/internal/adapter/httpclient"
	"github.com/vertextoedge/image-downloader/internal/adapter/sqlite"
	"github.com/vertextoedge/image-downloader/internal/config"
	"github.com/vertextoedge/image-downloader/internal/logger"
	"github.com/vertextoedge/image-downloader/internal/metrics"
	"github.com/vertextoedge/image-downloader/internal/service/downloader"
	"github.com/vertextoedge/image-downloader/internal/service/maintenance"
	"github.com/vertextoedge/image-downloader/internal/service/server"
	"github.com/vertextoedge/image-downloader/internal/util/ratelimiter"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	rawURL := flag.String("url", "", "Image URL to download")
	dir := flag.String("dir", "", "Destination directory (defaults to download.dir)")
	serve := flag.Bool("serve", false, "Run the HTTP API instead of a single download")
	flag.Parse()

	if !*serve && *rawURL == "" {
		fmt.Fprintln(os.Stderr, "either -url or -serve is required")
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	zapLogger.Debug("starting image-downloader",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Initialize directory resolver
	fsManager, err := filesystem.NewManagerWithBufferSize(cfg.Download.Dir, cfg.Download.GetBufferSize())
	if err != nil {
		zapLogger.Fatal("failed to create directory resolver", zap.Error(err))
	}

	// Open history database
	dbPath := cfg.GetDatabasePath()
	store, err := sqlite.Open(dbPath)
	if err != nil {
		zapLogger.Fatal("failed to open database", zap.Error(err), zap.String("path", dbPath))
	}
	defer store.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	client := httpclient.New(&httpclient.Config{
		ConnectTimeout: cfg.Download.GetConnectTimeout(),
		ReadTimeout:    cfg.Download.GetReadTimeout(),
	})

	downloaderCfg := &downloader.Config{
		UserAgent:           cfg.Download.UserAgent,
		ProgressLogInterval: cfg.Download.GetProgressLogInterval(),
	}
	svc := downloader.New(downloaderCfg, fsManager, client, store, m, logger.Named("downloader"))

	if *serve {
		runServer(cfg, svc, store, fsManager, zapLogger)
		return
	}

	if ok := runOnce(svc, *rawURL, *dir); !ok {
		// deferred calls do not run after os.Exit
		logger.Sync()
		store.Close()
		os.Exit(1)
	}
}

// runOnce downloads a single URL with a progress bar and reports whether it succeeded
func runOnce(svc *downloader.Service, rawURL, dir string) bool {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := newProgressBar(os.Stderr, rawURL)
	result := <-svc.Dispatch(ctx, rawURL, dir, bar.Update)
	bar.Finish(result.Success())

	if result.Success() {
		fmt.Fprintln(os.Stdout, result.Message())
		return true
	}
	fmt.Fprintln(os.Stderr, result.Message())
	return false
}

func runServer(cfg *config.Config, svc *downloader.Service, store *sqlite.Store, fsManager *filesystem.Manager, zapLogger *zap.Logger) {
	serverCfg := &server.Config{
		BindAddr:       cfg.HTTP.BindAddr,
		ReadTimeout:    cfg.HTTP.GetReadTimeout(),
		WriteTimeout:   cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:    cfg.HTTP.GetIdleTimeout(),
		SubmitInterval: cfg.HTTP.GetSubmitInterval(),
	}
	submitLimiter := ratelimiter.New(serverCfg.SubmitInterval)
	httpServer := server.New(serverCfg, svc, store, fsManager, submitLimiter, prometheus.DefaultGatherer, logger.Named("server"))

	maintenanceCfg := &maintenance.Config{
		PruneInterval:    time.Minute,
		CleanupInterval:  cfg.Database.GetCleanupInterval(),
		HistoryRetention: cfg.Database.GetRetention(),
	}
	maintenanceService := maintenance.New(maintenanceCfg, store, []maintenance.Pruner{submitLimiter}, logger.Named("maintenance"))

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Start maintenance service
	go func() {
		if err := maintenanceService.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("maintenance service stopped with error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	zapLogger.Info("application started successfully",
		zap.String("version", version),
		zap.String("http_addr", cfg.HTTP.BindAddr),
		zap.String("download_dir", fsManager.RootDir()),
	)
	<-sigChan

	zapLogger.Info("shutdown signal received, stopping services...")

	cancel()
	maintenanceService.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		zapLogger.Error("failed to stop HTTP server gracefully", zap.Error(err))
	}

	zapLogger.Info("application stopped successfully")
}
