// Package downloader fetches a single image over HTTP and stores it on disk.
//
// Every failure is reported through domain.DownloadResult; Download never
// returns an error. One call performs exactly one HTTP attempt.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vertextoedge/image-downloader/internal/domain"
	"github.com/vertextoedge/image-downloader/internal/metrics"
	"github.com/vertextoedge/image-downloader/internal/port"
	"github.com/vertextoedge/image-downloader/internal/util/ratelimiter"
)

// DefaultUserAgent identifies this client to image servers
const DefaultUserAgent = "image-downloader"

// Config contains downloader configuration
type Config struct {
	UserAgent           string
	ProgressLogInterval time.Duration
}

// DefaultConfig returns default downloader configuration
func DefaultConfig() *Config {
	return &Config{
		UserAgent:           DefaultUserAgent,
		ProgressLogInterval: time.Second,
	}
}

// Service downloads images into a destination directory
type Service struct {
	resolver    port.DirectoryResolver
	client      port.HTTPDoer
	history     port.DownloadRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
	userAgent   string
	progressLog *ratelimiter.Limiter
	now         func() time.Time
}

// New creates a new download service. history and m may be nil.
func New(
	cfg *Config,
	resolver port.DirectoryResolver,
	client port.HTTPDoer,
	history port.DownloadRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		resolver:    resolver,
		client:      client,
		history:     history,
		metrics:     m,
		logger:      logger,
		userAgent:   userAgent,
		progressLog: ratelimiter.New(cfg.ProgressLogInterval),
		now:         time.Now,
	}
}

// Download fetches rawURL and saves it under directory, or under the
// resolver's directory when directory is blank.
func (s *Service) Download(ctx context.Context, rawURL, directory string) domain.DownloadResult {
	return s.DownloadWithProgress(ctx, rawURL, directory, nil)
}

// DownloadWithProgress is Download with a callback invoked after every chunk
// written to disk.
func (s *Service) DownloadWithProgress(ctx context.Context, rawURL, directory string, progress port.ProgressFunc) domain.DownloadResult {
	id := uuid.NewString()
	started := s.now()
	log := s.logger.With(zap.String("download_id", id), zap.String("url", rawURL))

	s.metrics.Started()
	log.Debug("starting download", zap.String("directory", directory))

	var result domain.DownloadResult
	if out, err := s.download(ctx, id, rawURL, directory, progress, log); err != nil {
		result = domain.NewFailureResult(domain.KindOf(err), err.Error())
	} else {
		result = domain.NewSuccessResult("image downloaded successfully to: "+out.path, out.path, out.written, out.contentType)
	}

	finished := s.now()
	s.metrics.Observe(result, finished.Sub(started))
	s.progressLog.Forget(id)

	if result.Success() {
		path, _ := result.FilePath()
		log.Info("image downloaded",
			zap.String("path", path),
			zap.Int64("bytes", result.BytesWritten()),
			zap.Duration("elapsed", finished.Sub(started)))
	} else {
		log.Warn("download failed",
			zap.String("kind", result.Kind().String()),
			zap.String("message", result.Message()))
	}

	if s.history != nil {
		record := domain.NewDownloadRecord(id, rawURL, directory, result, started, finished)
		if err := s.history.Record(record); err != nil {
			log.Warn("failed to record download history", zap.Error(err))
		}
	}

	return result
}

// Dispatch runs the download on its own goroutine. The returned channel
// receives exactly one result and is then closed.
func (s *Service) Dispatch(ctx context.Context, rawURL, directory string, progress port.ProgressFunc) <-chan domain.DownloadResult {
	out := make(chan domain.DownloadResult, 1)
	go func() {
		defer close(out)
		out <- s.DownloadWithProgress(ctx, rawURL, directory, progress)
	}()
	return out
}

// saved describes the file written by a successful download
type saved struct {
	path        string
	written     int64
	contentType string
}

// download runs the pipeline. Every error it returns is a *domain.DownloadError.
func (s *Service) download(ctx context.Context, id, rawURL, directory string, progress port.ProgressFunc, log *zap.Logger) (*saved, error) {
	destDir, err := s.resolveDirectory(directory)
	if err != nil {
		return nil, domain.NewDownloadError(domain.KindIO, fmt.Errorf("failed to prepare directory: %w", err))
	}

	target, err := parseURL(rawURL)
	if err != nil {
		return nil, domain.NewDownloadError(domain.KindMalformedURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, domain.NewDownloadError(domain.KindMalformedURL, fmt.Errorf("%w: %v", domain.ErrMalformedURL, err))
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.NewDownloadError(domain.KindNetwork, fmt.Errorf("network error during download: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewDownloadError(domain.KindProtocol,
			fmt.Errorf("%w %d", domain.ErrUnexpectedStatus, resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		shown := contentType
		if shown == "" {
			shown = "null"
		}
		return nil, domain.NewDownloadError(domain.KindContent,
			fmt.Errorf("%w. Content-Type: %s", domain.ErrNotImage, shown))
	}

	filename := domain.DeriveFilename(strings.TrimSpace(rawURL), contentType)
	log.Debug("saving image",
		zap.String("filename", filename),
		zap.String("content_type", contentType),
		zap.Int64("content_length", resp.ContentLength))

	path, written, err := s.resolver.CreateFile(destDir, filename, resp.Body, resp.ContentLength, s.trackProgress(id, progress, log))
	if err != nil {
		var pathErr *domain.PathError
		if errors.As(err, &pathErr) && pathErr.Op == domain.OpReadBody {
			return nil, domain.NewDownloadError(domain.KindNetwork, fmt.Errorf("network error during download: %w", err))
		}
		return nil, domain.NewDownloadError(domain.KindIO, fmt.Errorf("failed to save file to disk: %w", err))
	}

	return &saved{path: path, written: written, contentType: contentType}, nil
}

// resolveDirectory uses the explicit directory when given, otherwise the configured one
func (s *Service) resolveDirectory(directory string) (string, error) {
	if dir := strings.TrimSpace(directory); dir != "" {
		return s.resolver.EnsureDir(dir)
	}
	return s.resolver.Ensure()
}

// trackProgress forwards chunk progress to the caller and logs it at most once per interval
func (s *Service) trackProgress(id string, progress port.ProgressFunc, log *zap.Logger) port.ProgressFunc {
	return func(written, total int64) {
		if progress != nil {
			progress(written, total)
		}
		if allowed, _ := s.progressLog.Allow(id); allowed {
			log.Debug("download progress",
				zap.Int64("written", written),
				zap.Int64("total", total))
		}
	}
}

// parseURL accepts absolute http and https URLs with a host
func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported or missing scheme in %q", domain.ErrMalformedURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", domain.ErrMalformedURL, rawURL)
	}
	return u, nil
}
