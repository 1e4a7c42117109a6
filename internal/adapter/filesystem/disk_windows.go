//go:build windows
// +build windows

package filesystem

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/vertextoedge/image-downloader/internal/port"
)

var (
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	getDiskFreeSpace = kernel32.NewProc("GetDiskFreeSpaceExW")
)

// GetDiskUsage returns disk usage for the download directory
func (m *Manager) GetDiskUsage() (*port.DiskUsage, error) {
	dir, err := m.Ensure()
	if err != nil {
		return nil, err
	}

	pathPtr, err := syscall.UTF16PtrFromString(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to convert path: %w", err)
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	ret, _, callErr := getDiskFreeSpace.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&freeBytesAvailable)),
		uintptr(unsafe.Pointer(&totalBytes)),
		uintptr(unsafe.Pointer(&totalFreeBytes)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("failed to get disk stats: %w", callErr)
	}

	used := totalBytes - totalFreeBytes
	usage := &port.DiskUsage{
		Total: totalBytes,
		Used:  used,
		Free:  freeBytesAvailable,
	}
	if totalBytes > 0 {
		usage.UsedPct = float64(used) / float64(totalBytes) * 100
	}
	return usage, nil
}
