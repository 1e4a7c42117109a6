package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/image-downloader/internal/domain"
	"github.com/vertextoedge/image-downloader/internal/port"
	"github.com/vertextoedge/image-downloader/internal/util/ratelimiter"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxRequestBody   = 64 * 1024
)

// Downloader runs one image download
type Downloader interface {
	Download(ctx context.Context, rawURL, directory string) domain.DownloadResult
}

// downloadRequest is the body of POST /downloads
type downloadRequest struct {
	URL       string `json:"url"`
	Directory string `json:"directory"`
}

// recordResponse is the JSON form of a history record
type recordResponse struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Directory    string    `json:"directory,omitempty"`
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	FilePath     *string   `json:"file_path"`
	ErrorKind    string    `json:"error_kind"`
	ContentType  string    `json:"content_type,omitempty"`
	BytesWritten int64     `json:"bytes_written"`
	StartedAt    time.Time `json:"started_at"`
	DurationMs   int64     `json:"duration_ms"`
}

func newRecordResponse(r *domain.DownloadRecord) recordResponse {
	resp := recordResponse{
		ID:           r.ID,
		URL:          r.URL,
		Directory:    r.Directory,
		Success:      r.Success,
		Message:      r.Message,
		ErrorKind:    r.ErrorKind,
		ContentType:  r.ContentType,
		BytesWritten: r.BytesWritten,
		StartedAt:    r.StartedAt,
		DurationMs:   r.Duration().Milliseconds(),
	}
	if r.Success && r.FilePath != "" {
		path := r.FilePath
		resp.FilePath = &path
	}
	return resp
}

// DownloadHandler handles download submission and history requests
type DownloadHandler struct {
	downloader Downloader
	history    port.DownloadRepository
	resolver   port.DirectoryResolver
	limiter    *ratelimiter.Limiter
	logger     *zap.Logger
}

// NewDownloadHandler creates a new DownloadHandler
func NewDownloadHandler(
	downloader Downloader,
	history port.DownloadRepository,
	resolver port.DirectoryResolver,
	limiter *ratelimiter.Limiter,
	logger *zap.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		downloader: downloader,
		history:    history,
		resolver:   resolver,
		limiter:    limiter,
		logger:     logger,
	}
}

// HandleSubmit runs a download synchronously and returns its result
func (h *DownloadHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if allowed, wait := h.limiter.Allow(clientKey(r)); !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	var req downloadRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	result := h.downloader.Download(r.Context(), req.URL, req.Directory)

	writeJSON(w, statusForResult(result), result)
}

// HandleList returns the most recent downloads, newest first
func (h *DownloadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	records, err := h.history.ListRecent(limit)
	if err != nil {
		h.logger.Error("failed to list downloads", zap.Error(err))
		http.Error(w, "Failed to list downloads", http.StatusInternalServerError)
		return
	}

	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, newRecordResponse(rec))
	}

	writeJSON(w, http.StatusOK, out)
}

// HandleGet returns a single download by id
func (h *DownloadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := h.history.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Download not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get download", zap.String("id", id), zap.Error(err))
		http.Error(w, "Failed to get download", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, newRecordResponse(record))
}

// HandleStats returns history counters and disk usage of the default directory
func (h *DownloadHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.history.GetHistoryStats()
	if err != nil {
		h.logger.Error("failed to get history stats", zap.Error(err))
		http.Error(w, "Failed to get history stats", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"history":   stats,
		"directory": h.resolver.RootDir(),
	}

	// Disk figures are best effort
	if usage, err := h.resolver.GetDiskUsage(); err != nil {
		h.logger.Warn("failed to get disk usage", zap.Error(err))
	} else {
		response["disk"] = usage
	}
	if size, err := h.resolver.GetDirSize(); err != nil {
		h.logger.Warn("failed to get directory size", zap.Error(err))
	} else {
		response["directory_bytes"] = size
	}

	writeJSON(w, http.StatusOK, response)
}

// statusForResult maps a failure category to an HTTP status
func statusForResult(result domain.DownloadResult) int {
	if result.Success() {
		return http.StatusOK
	}
	switch result.Kind() {
	case domain.KindMalformedURL:
		return http.StatusBadRequest
	case domain.KindNetwork, domain.KindProtocol:
		return http.StatusBadGateway
	case domain.KindContent:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
