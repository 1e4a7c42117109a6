package filesystem

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vertextoedge/image-downloader/internal/domain"
	"github.com/vertextoedge/image-downloader/internal/port"
)

// DefaultBufferSize is the chunk size used when streaming a download to disk
const DefaultBufferSize = 8 * 1024

var errNotDirectory = errors.New("path exists and is not a directory")

// Manager resolves destination directories and writes downloaded files
type Manager struct {
	rootDir    string
	bufferSize int
}

// Ensure Manager implements port.DirectoryResolver
var _ port.DirectoryResolver = (*Manager)(nil)

// NewManager creates a new filesystem manager for the given default directory
func NewManager(rootDir string) (*Manager, error) {
	return NewManagerWithBufferSize(rootDir, DefaultBufferSize)
}

// NewManagerWithBufferSize creates a new filesystem manager with custom buffer size.
// An empty or whitespace-only directory is a configuration error.
func NewManagerWithBufferSize(rootDir string, bufferSize int) (*Manager, error) {
	rootDir = strings.TrimSpace(rootDir)
	if rootDir == "" {
		return nil, domain.ErrEmptyDirectory
	}

	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	return &Manager{
		rootDir:    rootDir,
		bufferSize: bufferSize,
	}, nil
}

// RootDir returns the configured default directory
func (m *Manager) RootDir() string {
	return m.rootDir
}

// BufferSize returns the streaming chunk size in bytes
func (m *Manager) BufferSize() int {
	return m.bufferSize
}

// Ensure creates the configured directory if it does not exist yet
func (m *Manager) Ensure() (string, error) {
	return m.EnsureDir(m.rootDir)
}

// EnsureDir creates dir and any missing parents. It is a no-op when dir
// already exists and takes no lock, so concurrent callers may race safely.
func (m *Manager) EnsureDir(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return "", &domain.PathError{Op: "create directory", Path: dir, Err: errNotDirectory}
		}
		return dir, nil
	}
	if !os.IsNotExist(err) {
		return "", &domain.PathError{Op: "stat directory", Path: dir, Err: err}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &domain.PathError{Op: "create directory", Path: dir, Err: err}
	}
	return dir, nil
}

// CreateFile streams reader into dir/name through buffered I/O.
// The file is truncated or created. On failure the partially written file
// stays on disk.
func (m *Manager) CreateFile(dir, name string, reader io.Reader, total int64, progress port.ProgressFunc) (string, int64, error) {
	filePath := filepath.Join(dir, name)

	f, err := os.Create(filePath)
	if err != nil {
		return "", 0, &domain.PathError{Op: "create file", Path: filePath, Err: err}
	}
	defer f.Close()

	in := bufio.NewReaderSize(reader, m.bufferSize)
	out := bufio.NewWriterSize(f, m.bufferSize)

	buf := make([]byte, m.bufferSize)
	var written int64
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return "", written, &domain.PathError{Op: "write file", Path: filePath, Err: err}
			}
			written += int64(n)
			if progress != nil {
				progress(written, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// Keep what was already received on disk
			out.Flush()
			return "", written, &domain.PathError{Op: domain.OpReadBody, Path: filePath, Err: readErr}
		}
	}

	if err := out.Flush(); err != nil {
		return "", written, &domain.PathError{Op: "flush file", Path: filePath, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", written, &domain.PathError{Op: "close file", Path: filePath, Err: err}
	}

	return filePath, written, nil
}

// GetDirSize returns the total size of regular files under the configured directory
func (m *Manager) GetDirSize() (int64, error) {
	var size int64
	err := filepath.Walk(m.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", m.rootDir, err)
	}
	return size, nil
}
