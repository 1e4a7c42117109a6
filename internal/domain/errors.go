package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a download failed
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindConfig
	KindMalformedURL
	KindNetwork
	KindProtocol
	KindContent
	KindIO
)

// String returns the snake_case name used in logs, metrics and JSON
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfig:
		return "config"
	case KindMalformedURL:
		return "malformed_url"
	case KindNetwork:
		return "network"
	case KindProtocol:
		return "protocol"
	case KindContent:
		return "content"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Common domain errors
var (
	ErrNotFound = errors.New("not found")

	// Configuration errors
	ErrEmptyDirectory = errors.New("directory cannot be empty")

	// Download errors
	ErrMalformedURL     = errors.New("malformed URL")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrNotImage         = errors.New("URL does not point to an image")
)

// DownloadError carries the failure category together with its cause.
type DownloadError struct {
	Kind ErrorKind
	Err  error
}

// Error returns the error message
func (e *DownloadError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

// Unwrap returns the underlying error
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// NewDownloadError creates a new categorized error
func NewDownloadError(kind ErrorKind, err error) *DownloadError {
	return &DownloadError{Kind: kind, Err: err}
}

// KindOf returns the category of err, or KindNone if it carries none
func KindOf(err error) ErrorKind {
	var de *DownloadError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindNone
}

// OpReadBody marks a PathError caused by reading the source stream rather than the filesystem
const OpReadBody = "read body"

// PathError records a filesystem failure together with the path that was attempted.
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error returns the error message
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}
