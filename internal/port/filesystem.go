package port

import "io"

// DiskUsage represents disk usage statistics
type DiskUsage struct {
	Total   uint64  `json:"total"`    // Total disk space in bytes
	Used    uint64  `json:"used"`     // Used disk space in bytes
	Free    uint64  `json:"free"`     // Free disk space in bytes
	UsedPct float64 `json:"used_pct"` // Used percentage (0-100)
}

// ProgressFunc is called after every chunk written to disk.
// total is -1 when the size is unknown.
type ProgressFunc func(written, total int64)

// DirectoryResolver defines the interface for destination directory handling
type DirectoryResolver interface {
	// RootDir returns the configured default directory
	RootDir() string

	// Ensure creates the configured directory if missing and returns its path
	Ensure() (string, error)

	// EnsureDir creates an arbitrary directory if missing and returns its path
	EnsureDir(dir string) (string, error)

	// CreateFile streams reader into dir/name, truncating any existing file.
	// total is passed through to progress. Returns: file path, bytes written, error
	CreateFile(dir, name string, reader io.Reader, total int64, progress ProgressFunc) (string, int64, error)

	// GetDiskUsage returns disk usage statistics for the configured directory
	GetDiskUsage() (*DiskUsage, error)

	// GetDirSize returns the total size of files under the configured directory
	GetDirSize() (int64, error)
}
