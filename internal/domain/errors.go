package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Record taxonomy
	ErrInvalidName        = errors.New("invalid name")
	ErrDuplicateName      = errors.New("a file with that name already exists")
	ErrDuplicateFolder    = errors.New("a folder with that name already exists")
	ErrNamespaceConflict  = errors.New("path is already used by a file or folder")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidNameError reports a name that fails the legality rules.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	if e.Name == "" {
		return "invalid name: " + e.Reason
	}
	return "invalid name " + quote(e.Name) + ": " + e.Reason
}

func (e *InvalidNameError) StatusCode() int { return http.StatusBadRequest }

// Is matches both ErrInvalidName and the broader ErrValidation
func (e *InvalidNameError) Is(target error) bool {
	return target == ErrInvalidName || target == ErrValidation
}

// ConflictError represents a uniqueness or namespace violation with details
// about the existing resource. Reason is one of ErrDuplicateName,
// ErrDuplicateFolder or ErrNamespaceConflict.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // "file" or "folder"
	ResourceID   string // ID of the conflicting record, empty for derived folders
	Reason       error
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict and the specific reason
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict || (e.Reason != nil && target == e.Reason)
}

// StorageError wraps a failure to reach the authoritative store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + ErrStorageUnavailable.Error() + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) StatusCode() int { return http.StatusServiceUnavailable }

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

func quote(s string) string {
	return "\"" + s + "\""
}
