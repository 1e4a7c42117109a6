package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/image-downloader/internal/port"
)

// Pruner drops idle per-key state, e.g. a rate limiter
type Pruner interface {
	Prune() int
}

// Config contains maintenance service configuration
type Config struct {
	// PruneInterval is how often idle rate limiter keys are dropped
	PruneInterval time.Duration

	// CleanupInterval is how often old history records are removed
	CleanupInterval time.Duration

	// HistoryRetention is how long history records are kept; zero keeps them forever
	HistoryRetention time.Duration
}

// DefaultConfig returns default maintenance configuration
func DefaultConfig() *Config {
	return &Config{
		PruneInterval:    time.Minute,
		CleanupInterval:  time.Hour,
		HistoryRetention: 30 * 24 * time.Hour,
	}
}

// Service handles periodic maintenance tasks
type Service struct {
	config  *Config
	history port.DownloadRepository
	pruners []Pruner
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new maintenance Service
func New(cfg *Config, history port.DownloadRepository, pruners []Pruner, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.PruneInterval == 0 {
		cfg.PruneInterval = time.Minute
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Hour
	}

	return &Service{
		config:  cfg,
		history: history,
		pruners: pruners,
		logger:  logger,
		now:     time.Now,
	}
}

// Start runs maintenance until ctx is cancelled or Stop is called
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("maintenance service already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("maintenance service started",
		zap.Duration("prune_interval", s.config.PruneInterval),
		zap.Duration("cleanup_interval", s.config.CleanupInterval),
		zap.Duration("history_retention", s.config.HistoryRetention))

	s.wg.Add(1)
	go s.maintenanceLoop(ctx)

	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("maintenance service stopped")
	return nil
}

// Stop stops the maintenance service
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
}

func (s *Service) maintenanceLoop(ctx context.Context) {
	defer s.wg.Done()

	pruneTicker := time.NewTicker(s.config.PruneInterval)
	defer pruneTicker.Stop()

	cleanupTicker := time.NewTicker(s.config.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pruneTicker.C:
			s.prune()
		case <-cleanupTicker.C:
			s.cleanupHistory()
		}
	}
}

func (s *Service) prune() {
	removed := 0
	for _, p := range s.pruners {
		removed += p.Prune()
	}
	if removed > 0 {
		s.logger.Debug("pruned idle rate limiter keys", zap.Int("count", removed))
	}
}

// cleanupHistory removes records older than the retention window
func (s *Service) cleanupHistory() {
	if s.config.HistoryRetention <= 0 || s.history == nil {
		return
	}

	cutoff := s.now().Add(-s.config.HistoryRetention)
	removed, err := s.history.DeleteOlderThan(cutoff)
	if err != nil {
		s.logger.Error("failed to cleanup download history", zap.Error(err))
	} else if removed > 0 {
		s.logger.Info("cleaned up old download history", zap.Int("count", removed))
	}
}
