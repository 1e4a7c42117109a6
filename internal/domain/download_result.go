package domain

import "encoding/json"

// DownloadResult is the outcome of a single image download.
// It is immutable: build it with NewSuccessResult or NewFailureResult.
type DownloadResult struct {
	success      bool
	message      string
	filePath     string
	kind         ErrorKind
	bytesWritten int64
	contentType  string
}

// NewSuccessResult creates a result for a file that was fully written to disk
func NewSuccessResult(message, filePath string, bytesWritten int64, contentType string) DownloadResult {
	return DownloadResult{
		success:      true,
		message:      message,
		filePath:     filePath,
		kind:         KindNone,
		bytesWritten: bytesWritten,
		contentType:  contentType,
	}
}

// NewFailureResult creates a result for a download that failed in the given category.
// A failure never carries a file path.
func NewFailureResult(kind ErrorKind, message string) DownloadResult {
	if kind == KindNone {
		kind = KindIO
	}
	return DownloadResult{
		success: false,
		message: message,
		kind:    kind,
	}
}

// Success reports whether the bytes were written to disk
func (r DownloadResult) Success() bool {
	return r.success
}

// Message returns the human readable status or error text
func (r DownloadResult) Message() string {
	return r.message
}

// FilePath returns the path of the written file. ok is false for failures.
func (r DownloadResult) FilePath() (path string, ok bool) {
	if !r.success {
		return "", false
	}
	return r.filePath, true
}

// Kind returns the failure category, KindNone on success
func (r DownloadResult) Kind() ErrorKind {
	return r.kind
}

// BytesWritten returns the number of body bytes stored on disk
func (r DownloadResult) BytesWritten() int64 {
	return r.bytesWritten
}

// ContentType returns the response content type of a successful download
func (r DownloadResult) ContentType() string {
	return r.contentType
}

type downloadResultJSON struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	FilePath     *string `json:"file_path"`
	Kind         string  `json:"error_kind,omitempty"`
	BytesWritten int64   `json:"bytes_written,omitempty"`
	ContentType  string  `json:"content_type,omitempty"`
}

// MarshalJSON encodes the result with a null file_path on failure
func (r DownloadResult) MarshalJSON() ([]byte, error) {
	out := downloadResultJSON{
		Success:      r.success,
		Message:      r.message,
		BytesWritten: r.bytesWritten,
		ContentType:  r.contentType,
	}
	if path, ok := r.FilePath(); ok {
		out.FilePath = &path
	}
	if r.kind != KindNone {
		out.Kind = r.kind.String()
	}
	return json.Marshal(out)
}
