package domain

import "time"

// DownloadRecord is one persisted download attempt
type DownloadRecord struct {
	ID           string
	URL          string
	Directory    string
	Success      bool
	Message      string
	FilePath     string
	ErrorKind    string
	ContentType  string
	BytesWritten int64
	StartedAt    time.Time
	FinishedAt   time.Time
}

// NewDownloadRecord builds a history record from a finished result
func NewDownloadRecord(id, rawURL, directory string, result DownloadResult, startedAt, finishedAt time.Time) *DownloadRecord {
	path, _ := result.FilePath()
	return &DownloadRecord{
		ID:           id,
		URL:          rawURL,
		Directory:    directory,
		Success:      result.Success(),
		Message:      result.Message(),
		FilePath:     path,
		ErrorKind:    result.Kind().String(),
		ContentType:  result.ContentType(),
		BytesWritten: result.BytesWritten(),
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
	}
}

// Duration returns how long the attempt took
func (r *DownloadRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// HistoryStats summarizes the download history
type HistoryStats struct {
	TotalDownloads int            `json:"total_downloads"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	TotalBytes     int64          `json:"total_bytes"`
	FailuresByKind map[string]int `json:"failures_by_kind"`
}
