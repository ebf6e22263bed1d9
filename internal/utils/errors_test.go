package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorWithSuggestion_Error(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		suggestion     string
		wantContains   []string
		wantNotContain string
	}{
		{
			name:         "with suggestion",
			err:          errors.New("reminder not found"),
			suggestion:   "Try searching with a different term",
			wantContains: []string{"reminder not found", "Suggestion:", "Try searching"},
		},
		{
			name:           "without suggestion",
			err:            errors.New("simple error"),
			suggestion:     "",
			wantContains:   []string{"simple error"},
			wantNotContain: "Suggestion:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &ErrorWithSuggestion{
				Err:        tt.err,
				Suggestion: tt.suggestion,
			}

			result := e.Error()

			for _, want := range tt.wantContains {
				if !strings.Contains(result, want) {
					t.Errorf("Error() = %q, want to contain %q", result, want)
				}
			}

			if tt.wantNotContain != "" && strings.Contains(result, tt.wantNotContain) {
				t.Errorf("Error() = %q, should not contain %q", result, tt.wantNotContain)
			}
		})
	}
}

func TestErrorWithSuggestion_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrapped := &ErrorWithSuggestion{
		Err:        originalErr,
		Suggestion: "do something",
	}

	unwrapped := wrapped.Unwrap()
	if unwrapped != originalErr {
		t.Errorf("Unwrap() returned %v, want %v", unwrapped, originalErr)
	}

	// Test with errors.Is
	if !errors.Is(wrapped, originalErr) {
		t.Error("errors.Is should work with wrapped error")
	}
}

func TestErrRecordNotFound(t *testing.T) {
	err := ErrRecordNotFound("task", "3f2a")

	errStr := err.Error()
	if !strings.Contains(errStr, "3f2a") {
		t.Errorf("Error should contain id '3f2a', got: %s", errStr)
	}
	if !strings.Contains(errStr, "focusync task ls") {
		t.Errorf("Error should suggest 'focusync task ls', got: %s", errStr)
	}
}

func TestStorageErrors(t *testing.T) {
	cause := errors.New("set: offline storage quota exceeded")

	full := ErrStorageFull(cause)
	if !errors.Is(full, cause) {
		t.Error("ErrStorageFull should wrap its cause")
	}
	if !strings.Contains(full.Error(), "storage.max_bytes") {
		t.Errorf("ErrStorageFull should point at max_bytes, got: %s", full.Error())
	}

	unavailable := ErrStorageUnavailable(cause)
	if !strings.Contains(unavailable.Error(), "storage.path") {
		t.Errorf("ErrStorageUnavailable should point at storage.path, got: %s", unavailable.Error())
	}
	if strings.Contains(unavailable.Error(), "max_bytes") {
		t.Errorf("ErrStorageUnavailable should not talk about quota, got: %s", unavailable.Error())
	}
}

func TestErrSyncNotEnabled(t *testing.T) {
	err := ErrSyncNotEnabled()

	errStr := err.Error()
	if !strings.Contains(errStr, "sync is not enabled") {
		t.Errorf("Error should mention sync not enabled, got: %s", errStr)
	}
	if !strings.Contains(errStr, "config.yaml") {
		t.Errorf("Error should mention config file, got: %s", errStr)
	}
}

func TestErrNotSignedIn(t *testing.T) {
	errStr := ErrNotSignedIn("supabase").Error()
	if !strings.Contains(errStr, "supabase") || !strings.Contains(errStr, "--user") {
		t.Errorf("unexpected message: %s", errStr)
	}
}

func TestErrRemoteOffline(t *testing.T) {
	tests := []struct {
		name           string
		remote         string
		reason         string
		wantSuggestion string
	}{
		{
			name:           "DNS error",
			remote:         "supabase",
			reason:         "DNS resolution failed",
			wantSuggestion: "DNS settings",
		},
		{
			name:           "Unknown host",
			remote:         "supabase",
			reason:         "dial tcp: lookup db.example.com: no such host",
			wantSuggestion: "DNS settings",
		},
		{
			name:           "Connection refused",
			remote:         "supabase",
			reason:         "connection refused",
			wantSuggestion: "server is running",
		},
		{
			name:           "Timeout",
			remote:         "supabase",
			reason:         "connection timeout",
			wantSuggestion: "slow or unreachable",
		},
		{
			name:           "Generic error",
			remote:         "supabase",
			reason:         "unknown error",
			wantSuggestion: "internet connection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ErrRemoteOffline(tt.remote, tt.reason)

			errStr := err.Error()
			if !strings.Contains(errStr, tt.remote) {
				t.Errorf("Error should contain remote name, got: %s", errStr)
			}
			if !strings.Contains(errStr, tt.reason) {
				t.Errorf("Error should contain reason, got: %s", errStr)
			}
			if !strings.Contains(errStr, tt.wantSuggestion) {
				t.Errorf("Error should contain suggestion about '%s', got: %s", tt.wantSuggestion, errStr)
			}
		})
	}
}

func TestErrInvalidPriority(t *testing.T) {
	err := ErrInvalidPriority(15)

	errStr := err.Error()
	if !strings.Contains(errStr, "15") {
		t.Errorf("Error should contain invalid value '15', got: %s", errStr)
	}
	if !strings.Contains(errStr, "0") || !strings.Contains(errStr, "9") {
		t.Errorf("Error should mention valid range 0-9, got: %s", errStr)
	}
}

func TestErrInvalidDate(t *testing.T) {
	err := ErrInvalidDate("01/15/2026")

	errStr := err.Error()
	if !strings.Contains(errStr, "01/15/2026") {
		t.Errorf("Error should contain invalid date, got: %s", errStr)
	}
	if !strings.Contains(errStr, "YYYY-MM-DD") {
		t.Errorf("Error should suggest correct format, got: %s", errStr)
	}
}

func TestErrInvalidStatus(t *testing.T) {
	validStatuses := []string{"todo", "in_progress", "done"}
	err := ErrInvalidStatus("INVALID", validStatuses)

	errStr := err.Error()
	if !strings.Contains(errStr, "INVALID") {
		t.Errorf("Error should contain invalid status, got: %s", errStr)
	}
	for _, status := range validStatuses {
		if !strings.Contains(errStr, status) {
			t.Errorf("Error should list valid status '%s', got: %s", status, errStr)
		}
	}
}

func TestErrCredentialsNotFound(t *testing.T) {
	err := ErrCredentialsNotFound("supabase")

	errStr := err.Error()
	if !strings.Contains(errStr, "supabase") {
		t.Errorf("Error should contain remote name, got: %s", errStr)
	}
	if !strings.Contains(errStr, "credentials set") {
		t.Errorf("Error should suggest storing credentials, got: %s", errStr)
	}
	if !strings.Contains(errStr, "FOCUSYNC_SUPABASE_API_KEY") {
		t.Errorf("Error should mention the environment variable, got: %s", errStr)
	}
}

func TestErrAuthenticationFailed(t *testing.T) {
	cause := errors.New("status 401")
	err := ErrAuthenticationFailed("supabase", cause)

	if !errors.Is(err, cause) {
		t.Errorf("ErrAuthenticationFailed should wrap its cause, got: %v", err)
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "authentication failed") {
		t.Errorf("Error should mention authentication failure, got: %s", errStr)
	}
	if !strings.Contains(errStr, "credentials get") {
		t.Errorf("Error should suggest checking credentials, got: %s", errStr)
	}
}
