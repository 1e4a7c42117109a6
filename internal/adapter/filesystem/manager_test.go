package filesystem

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/vertextoedge/image-downloader/internal/domain"
)

func TestNewManager_EmptyDirectory(t *testing.T) {
	for _, dir := range []string{"", "   ", "\t\n"} {
		if _, err := NewManager(dir); !errors.Is(err, domain.ErrEmptyDirectory) {
			t.Errorf("NewManager(%q) error = %v, want ErrEmptyDirectory", dir, err)
		}
	}
}

func TestNewManager_TrimsDirectory(t *testing.T) {
	m, err := NewManager("  images  ")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.RootDir() != "images" {
		t.Errorf("RootDir() = %q, want %q", m.RootDir(), "images")
	}
	if m.BufferSize() != DefaultBufferSize {
		t.Errorf("BufferSize() = %d, want %d", m.BufferSize(), DefaultBufferSize)
	}
}

func TestManager_EnsureIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "images")

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	first, err := m.Ensure()
	if err != nil {
		t.Fatalf("first Ensure() error = %v", err)
	}
	second, err := m.Ensure()
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}

	if first != second {
		t.Errorf("Ensure() returned %q then %q", first, second)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory %s not created: %v", dir, err)
	}
}

func TestManager_EnsureDirCollidesWithFile(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "taken")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	m, _ := NewManager(base)
	_, err := m.EnsureDir(file)

	var pathErr *domain.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("EnsureDir() error = %v, want *domain.PathError", err)
	}
	if pathErr.Path != file {
		t.Errorf("PathError.Path = %q, want %q", pathErr.Path, file)
	}
}

func TestManager_CreateFile(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir)

	// Several chunks plus a remainder
	payload := bytes.Repeat([]byte{0x89, 'P', 'N', 'G', 0x00, 0xff}, 5000)

	var calls int
	var last int64
	path, written, err := m.CreateFile(dir, "bar.png", bytes.NewReader(payload), int64(len(payload)), func(n, total int64) {
		calls++
		if n < last {
			t.Errorf("progress went backwards: %d after %d", n, last)
		}
		if total != int64(len(payload)) {
			t.Errorf("progress total = %d, want %d", total, len(payload))
		}
		last = n
	})
	if err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	if path != filepath.Join(dir, "bar.png") {
		t.Errorf("path = %q", path)
	}
	if written != int64(len(payload)) {
		t.Errorf("written = %d, want %d", written, len(payload))
	}
	if calls < 2 {
		t.Errorf("progress called %d times, want at least 2", calls)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("file contents differ from payload")
	}
}

func TestManager_CreateFileTruncates(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir)

	if _, _, err := m.CreateFile(dir, "img_.png", bytes.NewReader([]byte("a much longer first body")), -1, nil); err != nil {
		t.Fatal(err)
	}
	path, _, err := m.CreateFile(dir, "img_.png", bytes.NewReader([]byte("short")), -1, nil)
	if err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "short" {
		t.Errorf("contents = %q, want %q", got, "short")
	}
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestManager_CreateFileKeepsPartialOnReadError(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir)

	src := &failingReader{data: []byte("partial"), err: io.ErrUnexpectedEOF}
	_, written, err := m.CreateFile(dir, "cut.jpg", src, 100, nil)

	var pathErr *domain.PathError
	if !errors.As(err, &pathErr) || pathErr.Op != domain.OpReadBody {
		t.Fatalf("CreateFile() error = %v, want read body PathError", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error does not wrap cause: %v", err)
	}
	if written != int64(len("partial")) {
		t.Errorf("written = %d, want %d", written, len("partial"))
	}

	got, statErr := os.ReadFile(filepath.Join(dir, "cut.jpg"))
	if statErr != nil {
		t.Fatalf("partial file missing: %v", statErr)
	}
	if string(got) != "partial" {
		t.Errorf("partial contents = %q", got)
	}
}

func TestManager_CreateFileMissingDirectory(t *testing.T) {
	m, _ := NewManager(t.TempDir())

	_, _, err := m.CreateFile(filepath.Join(t.TempDir(), "missing"), "a.png", bytes.NewReader(nil), 0, nil)
	if err == nil {
		t.Fatal("CreateFile() into missing directory succeeded")
	}
}

func TestManager_GetDirSize(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir)

	m.CreateFile(dir, "a.png", bytes.NewReader(make([]byte, 100)), 100, nil)
	m.CreateFile(dir, "b.png", bytes.NewReader(make([]byte, 50)), 50, nil)

	size, err := m.GetDirSize()
	if err != nil {
		t.Fatal(err)
	}
	if size != 150 {
		t.Errorf("GetDirSize() = %d, want 150", size)
	}
}
