package utils

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a helpful suggestion for the user
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// Common error constructors with suggestions

// ErrRecordNotFound creates an error when a task, reminder or session id is unknown
func ErrRecordNotFound(kind, id string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no %s found with id '%s'", kind, id),
		Suggestion: fmt.Sprintf("Run 'focusync %s ls' to see known ids", kind),
	}
}

// ErrStorageFull creates an error when the offline store ran out of space
func ErrStorageFull(err error) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: "Offline storage is full. Run 'focusync sync' while online to drain the queue, or raise 'storage.max_bytes'",
	}
}

// ErrStorageUnavailable creates an error when the offline store cannot be used
func ErrStorageUnavailable(err error) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: "Check that 'storage.path' points to a writable location. Changes cannot be kept offline until it is fixed",
	}
}

// ErrSyncNotEnabled creates an error when sync operations are attempted but sync is disabled
func ErrSyncNotEnabled() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("sync is not enabled in configuration"),
		Suggestion: "Enable sync in ~/.config/focusync/config.yaml by setting 'sync.enabled: true'",
	}
}

// ErrRemoteOffline creates an error when the remote cannot be reached
func ErrRemoteOffline(remoteName, reason string) error {
	suggestion := "Check your internet connection and try again"
	if strings.Contains(reason, "DNS") || strings.Contains(reason, "no such host") {
		suggestion = "Check your DNS settings and internet connection"
	} else if strings.Contains(reason, "refused") {
		suggestion = "Check if the server is running and accessible"
	} else if strings.Contains(reason, "timeout") {
		suggestion = "The server may be slow or unreachable. Try again later"
	}

	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("remote '%s' is offline: %s", remoteName, reason),
		Suggestion: suggestion,
	}
}

// ErrNotSignedIn creates an error when a flush has no identity to act as
func ErrNotSignedIn(remoteName string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no signed in user for remote '%s'", remoteName),
		Suggestion: fmt.Sprintf("Store an access token with 'focusync credentials set access_token --prompt --remote %s' or pass --user", remoteName),
	}
}

// ErrInvalidPriority creates an error for invalid priority values
func ErrInvalidPriority(priority int) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid priority %d", priority),
		Suggestion: "Priority must be between 0 (no priority) and 9",
	}
}

// ErrInvalidDate creates an error for invalid date formats
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid date format: %s", dateStr),
		Suggestion: "Use YYYY-MM-DD or 'YYYY-MM-DD HH:MM' (e.g., 2026-01-15 09:30)",
	}
}

// ErrInvalidStatus creates an error for invalid status values
func ErrInvalidStatus(status string, validStatuses []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid status: %s", status),
		Suggestion: fmt.Sprintf("Valid statuses: %s", strings.Join(validStatuses, ", ")),
	}
}

// ErrCredentialsNotFound creates an error when no API key is stored for a remote
func ErrCredentialsNotFound(remote string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("credentials not found for %s", remote),
		Suggestion: fmt.Sprintf("Store credentials with 'focusync credentials set api_key --prompt --remote %s' or set FOCUSYNC_%s_API_KEY", remote, strings.ToUpper(remote)),
	}
}

// ErrAuthenticationFailed creates an error when the remote rejects the credentials
func ErrAuthenticationFailed(remote string, cause error) error {
	err := fmt.Errorf("authentication failed for %s", remote)
	if cause != nil {
		err = fmt.Errorf("authentication failed for %s: %w", remote, cause)
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: fmt.Sprintf("Check your credentials with 'focusync credentials get --remote %s' and update if needed", remote),
	}
}

// ErrConfigFileNotFound creates an error when config file is not found
func ErrConfigFileNotFound(path string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("config file not found at %s", path),
		Suggestion: "Run focusync to create a default configuration file",
	}
}

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(field string, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid configuration for '%s': %s", field, reason),
		Suggestion: fmt.Sprintf("Check ~/.config/focusync/config.yaml and fix the '%s' field", field),
	}
}
