package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringServicePrefix is the prefix for all focusync keyring entries
	KeyringServicePrefix = "focusync"

	// DefaultAccount is used when the config names no remote username
	DefaultAccount = "default"
)

// Secret names one value stored for a remote
type Secret string

const (
	SecretAPIKey      Secret = "api_key"
	SecretAccessToken Secret = "access_token"
)

// Valid reports whether s is a known secret kind
func (s Secret) Valid() bool {
	return s == SecretAPIKey || s == SecretAccessToken
}

// ParseSecret converts a flag value into a Secret
func ParseSecret(name string) (Secret, error) {
	s := Secret(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown secret %q (want %s or %s)", name, SecretAPIKey, SecretAccessToken)
	}
	return s, nil
}

// getServiceName returns the keyring service name for a remote
func getServiceName(remoteName string) string {
	return fmt.Sprintf("%s-%s", KeyringServicePrefix, remoteName)
}

// getEntryUser returns the keyring user for one secret of an account
func getEntryUser(account string, secret Secret) string {
	if account == "" {
		account = DefaultAccount
	}
	return account + ":" + string(secret)
}

func validate(remoteName string, secret Secret) error {
	if remoteName == "" {
		return fmt.Errorf("remote name cannot be empty")
	}
	if !secret.Valid() {
		return fmt.Errorf("unknown secret %q", secret)
	}
	return nil
}

// Set stores a secret in the OS keyring
func Set(remoteName, account string, secret Secret, value string) error {
	if err := validate(remoteName, secret); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s cannot be empty", secret)
	}

	err := keyring.Set(getServiceName(remoteName), getEntryUser(account, secret), value)
	if err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", secret, err)
	}
	return nil
}

// Get retrieves a secret from the OS keyring
func Get(remoteName, account string, secret Secret) (string, error) {
	if err := validate(remoteName, secret); err != nil {
		return "", err
	}

	value, err := keyring.Get(getServiceName(remoteName), getEntryUser(account, secret))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("no %s found in keyring for remote %q: %w", secret, remoteName, ErrNotFound)
		}
		return "", fmt.Errorf("failed to retrieve %s from keyring: %w", secret, err)
	}
	return value, nil
}

// Delete removes a secret from the OS keyring
func Delete(remoteName, account string, secret Secret) error {
	if err := validate(remoteName, secret); err != nil {
		return err
	}

	err := keyring.Delete(getServiceName(remoteName), getEntryUser(account, secret))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring for remote %q: %w", secret, remoteName, ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", secret, err)
	}
	return nil
}

// IsAvailable checks if the keyring is accessible
func IsAvailable() bool {
	// A missing entry still proves the keyring answered
	_, err := keyring.Get("focusync-keyring-test", "test")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
