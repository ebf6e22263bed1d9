package credentials

import (
	"errors"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestGetServiceName(t *testing.T) {
	tests := []struct {
		remoteName string
		want       string
	}{
		{"supabase", "focusync-supabase"},
		{"my-remote", "focusync-my-remote"},
	}

	for _, tt := range tests {
		t.Run(tt.remoteName, func(t *testing.T) {
			if got := getServiceName(tt.remoteName); got != tt.want {
				t.Errorf("getServiceName(%q) = %q, want %q", tt.remoteName, got, tt.want)
			}
		})
	}
}

func TestGetEntryUser(t *testing.T) {
	if got := getEntryUser("", SecretAPIKey); got != "default:api_key" {
		t.Errorf("getEntryUser(\"\") = %q, want default:api_key", got)
	}
	if got := getEntryUser("alice", SecretAccessToken); got != "alice:access_token" {
		t.Errorf("getEntryUser(alice) = %q, want alice:access_token", got)
	}
}

func TestParseSecret(t *testing.T) {
	if s, err := ParseSecret("api_key"); err != nil || s != SecretAPIKey {
		t.Errorf("ParseSecret(api_key) = %q, %v", s, err)
	}
	if _, err := ParseSecret("password"); err == nil {
		t.Error("ParseSecret(password) expected error")
	}
}

func TestSet_Validation(t *testing.T) {
	keyring.MockInit()

	tests := []struct {
		name        string
		remoteName  string
		secret      Secret
		value       string
		errContains string
	}{
		{"empty remote name", "", SecretAPIKey, "v", "remote name cannot be empty"},
		{"unknown secret", "supabase", Secret("password"), "v", "unknown secret"},
		{"empty value", "supabase", SecretAPIKey, "", "cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Set(tt.remoteName, "", tt.secret, tt.value)
			if err == nil {
				t.Fatal("Set() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Set() error = %q, want containing %q", err, tt.errContains)
			}
		})
	}
}

func TestKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()

	if err := Set("supabase", "alice", SecretAPIKey, "anon-key"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := Get("supabase", "alice", SecretAPIKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "anon-key" {
		t.Errorf("Get() = %q, want %q", got, "anon-key")
	}

	// Other accounts and secrets are separate entries
	if _, err := Get("supabase", "bob", SecretAPIKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(bob) error = %v, want ErrNotFound", err)
	}
	if _, err := Get("supabase", "alice", SecretAccessToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(access_token) error = %v, want ErrNotFound", err)
	}

	if err := Delete("supabase", "alice", SecretAPIKey); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := Get("supabase", "alice", SecretAPIKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
	if err := Delete("supabase", "alice", SecretAPIKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestKeyringErrorsPropagate(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus unavailable"))
	defer keyring.MockInit()

	_, err := Get("supabase", "", SecretAPIKey)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want a non-ErrNotFound failure", err)
	}
	if IsAvailable() {
		t.Error("IsAvailable() = true with a failing keyring")
	}
}

func TestIsAvailable(t *testing.T) {
	keyring.MockInit()
	if !IsAvailable() {
		t.Error("IsAvailable() = false with the mock keyring")
	}
}
