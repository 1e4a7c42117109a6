package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vertextoedge/image-downloader/internal/port"
	"github.com/vertextoedge/image-downloader/internal/util/ratelimiter"
)

// Config contains HTTP server configuration
type Config struct {
	BindAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	SubmitInterval time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr:       "127.0.0.1:8080",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   5 * time.Minute,
		IdleTimeout:    60 * time.Second,
		SubmitInterval: time.Second,
	}
}

// Server represents the HTTP API server
type Server struct {
	config          *Config
	store           port.Store
	logger          *zap.Logger
	server          *http.Server
	downloadHandler *DownloadHandler
}

// New creates a new HTTP server. limiter throttles POST /downloads per client
// and defaults to one built from cfg.SubmitInterval. gatherer serves /metrics and may be nil.
func New(
	cfg *Config,
	downloader Downloader,
	store port.Store,
	resolver port.DirectoryResolver,
	limiter *ratelimiter.Limiter,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if limiter == nil {
		limiter = ratelimiter.New(cfg.SubmitInterval)
	}

	s := &Server{
		config: cfg,
		store:  store,
		logger: logger,
	}

	s.downloadHandler = NewDownloadHandler(downloader, store, resolver, limiter, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /downloads", s.downloadHandler.HandleSubmit)
	mux.HandleFunc("GET /downloads", s.downloadHandler.HandleList)
	mux.HandleFunc("GET /downloads/{id}", s.downloadHandler.HandleGet)
	mux.HandleFunc("GET /stats", s.downloadHandler.HandleStats)

	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.server = &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      RecoveryMiddleware(logger)(LoggingMiddleware(logger)(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		http.Error(w, "Database connection failed", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy","time":"` + time.Now().Format(time.RFC3339) + `"}`))
}
