package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// BackendError represents an error from a remote operation.
// It carries the HTTP status code (if any), the operation and the affected row
// so the sync engine can decide between "not found" and a real failure.
type BackendError struct {
	Operation  string // e.g., "Select", "Upsert", "Delete"
	StatusCode int    // HTTP status code (0 if not an HTTP error)
	Message    string // Human-readable error message
	Table      Table  // Optional: affected table
	Key        string // Optional: affected primary key
	Body       string // Optional: response body for debugging
	Err        error  // Optional: underlying error
}

// Error implements the error interface
func (e *BackendError) Error() string {
	target := ""
	if e.Table != "" {
		target = fmt.Sprintf(" %s/%s", e.Table, e.Key)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s%s failed with status %d: %s", e.Operation, target, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s%s failed: %s", e.Operation, target, e.Message)
}

// Unwrap returns the underlying error for error wrapping
func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a 404 Not Found
func (e *BackendError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 Unauthorized or 403 Forbidden
func (e *BackendError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsServerError returns true if the error is a 5xx server error
func (e *BackendError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsTransport returns true when the request never got a response
func (e *BackendError) IsTransport() bool {
	return e.StatusCode == 0
}

// NewBackendError creates a new BackendError
func NewBackendError(operation string, statusCode int, message string) *BackendError {
	return &BackendError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewNotFoundError creates the error remotes return for a missing row
func NewNotFoundError(operation string, table Table, key string) *BackendError {
	return NewBackendError(operation, http.StatusNotFound, "row not found").WithRow(table, key)
}

// WithRow adds the affected table and key to the error for context
func (e *BackendError) WithRow(table Table, key string) *BackendError {
	e.Table = table
	e.Key = key
	return e
}

// WithBody adds the response body to the error for debugging
func (e *BackendError) WithBody(body string) *BackendError {
	e.Body = body
	return e
}

// WithError wraps an underlying error
func (e *BackendError) WithError(err error) *BackendError {
	e.Err = err
	return e
}

// IsNotFound reports whether err (or anything it wraps) is a not-found BackendError
func IsNotFound(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.IsNotFound()
}

// IsUnauthorized reports whether err is a BackendError for a rejected
// credential (401 or 403)
func IsUnauthorized(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.IsUnauthorized()
}

// IsTransportError reports whether err is a BackendError raised before any
// response was received (DNS, refused connection, timeout).
func IsTransportError(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.IsTransport()
}
