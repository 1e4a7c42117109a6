package repository

import (
	"time"

	"github.com/vertextoedge/image-downloader/internal/domain"
)

// DownloadRepository stores the history of download attempts
type DownloadRepository interface {
	// Record inserts a finished download attempt
	Record(record *domain.DownloadRecord) error

	// Get retrieves a record by ID
	// Returns domain.ErrNotFound if no record exists
	Get(id string) (*domain.DownloadRecord, error)

	// ListRecent returns up to limit records, newest first
	ListRecent(limit int) ([]*domain.DownloadRecord, error)

	// GetHistoryStats returns aggregate counts over all records
	GetHistoryStats() (*domain.HistoryStats, error)

	// DeleteOlderThan removes records that finished before cutoff
	// Returns the number of records removed
	DeleteOlderThan(cutoff time.Time) (int, error)
}
