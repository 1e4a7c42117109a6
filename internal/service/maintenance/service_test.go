package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/image-downloader/internal/domain"
)

// mockHistory implements port.DownloadRepository for testing
type mockHistory struct {
	mu           sync.Mutex
	deleteCount  int
	deleteErr    error
	deleteCalled int
	lastCutoff   time.Time
}

func (m *mockHistory) Record(*domain.DownloadRecord) error { return nil }
func (m *mockHistory) Get(string) (*domain.DownloadRecord, error) {
	return nil, domain.ErrNotFound
}
func (m *mockHistory) ListRecent(int) ([]*domain.DownloadRecord, error) { return nil, nil }
func (m *mockHistory) GetHistoryStats() (*domain.HistoryStats, error) {
	return &domain.HistoryStats{}, nil
}
func (m *mockHistory) DeleteOlderThan(cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalled++
	m.lastCutoff = cutoff
	return m.deleteCount, m.deleteErr
}

func (m *mockHistory) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCalled
}

type mockPruner struct {
	mu     sync.Mutex
	called int
}

func (m *mockPruner) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called++
	return 1
}

func (m *mockPruner) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called
}

func TestService_New(t *testing.T) {
	logger := zap.NewNop()

	// Test with nil config (should use defaults)
	s := New(nil, &mockHistory{}, nil, logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.config.PruneInterval != time.Minute {
		t.Errorf("PruneInterval = %v, want %v", s.config.PruneInterval, time.Minute)
	}

	// Zero intervals fall back to defaults
	s = New(&Config{HistoryRetention: time.Hour}, &mockHistory{}, nil, logger)
	if s.config.CleanupInterval != time.Hour {
		t.Errorf("CleanupInterval = %v, want %v", s.config.CleanupInterval, time.Hour)
	}
	if s.config.HistoryRetention != time.Hour {
		t.Errorf("HistoryRetention = %v, want %v", s.config.HistoryRetention, time.Hour)
	}
}

func TestService_StartStop(t *testing.T) {
	history := &mockHistory{}
	pruner := &mockPruner{}

	cfg := &Config{
		PruneInterval:    10 * time.Millisecond,
		CleanupInterval:  10 * time.Millisecond,
		HistoryRetention: time.Hour,
	}
	s := New(cfg, history, []Pruner{pruner}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	time.Sleep(60 * time.Millisecond)

	cancel()
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after Stop()")
	}

	if pruner.calls() == 0 {
		t.Error("Prune was not called")
	}
	if history.calls() == 0 {
		t.Error("DeleteOlderThan was not called")
	}
}

func TestService_DoubleStart(t *testing.T) {
	s := New(nil, &mockHistory{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Start(ctx)
	for deadline := time.Now().Add(time.Second); time.Now().Before(deadline); time.Sleep(time.Millisecond) {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if running {
			break
		}
	}

	if err := s.Start(ctx); err == nil {
		t.Error("second Start() succeeded, want error")
	}
}

func TestService_CleanupHistoryCutoff(t *testing.T) {
	history := &mockHistory{deleteCount: 3}
	s := New(&Config{HistoryRetention: 24 * time.Hour}, history, nil, zap.NewNop())

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.cleanupHistory()

	if history.calls() != 1 {
		t.Fatalf("DeleteOlderThan called %d times, want 1", history.calls())
	}
	if want := now.Add(-24 * time.Hour); !history.lastCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", history.lastCutoff, want)
	}
}

func TestService_CleanupHistoryDisabled(t *testing.T) {
	history := &mockHistory{}
	s := New(&Config{HistoryRetention: 0}, history, nil, zap.NewNop())

	s.cleanupHistory()

	if history.calls() != 0 {
		t.Errorf("DeleteOlderThan called with retention disabled")
	}
}

func TestService_CleanupHistoryError(t *testing.T) {
	history := &mockHistory{deleteErr: errors.New("database is locked")}
	s := New(&Config{HistoryRetention: time.Hour}, history, nil, zap.NewNop())

	// Logged, not fatal
	s.cleanupHistory()

	if history.calls() != 1 {
		t.Errorf("DeleteOlderThan called %d times, want 1", history.calls())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PruneInterval != time.Minute {
		t.Errorf("PruneInterval = %v, want %v", cfg.PruneInterval, time.Minute)
	}
	if cfg.CleanupInterval != time.Hour {
		t.Errorf("CleanupInterval = %v, want %v", cfg.CleanupInterval, time.Hour)
	}
	if cfg.HistoryRetention != 30*24*time.Hour {
		t.Errorf("HistoryRetention = %v, want %v", cfg.HistoryRetention, 30*24*time.Hour)
	}
}
