package credentials

import (
	"errors"

	"focusync/internal/utils"
)

// ErrNotFound is wrapped by keyring lookups that found no entry
var ErrNotFound = errors.New("credentials not found")

// Source indicates where credentials were found
type Source string

const (
	SourceKeyring Source = "keyring"
	SourceEnv     Source = "env"
	SourceNone    Source = "none"
)

// Credentials represents resolved authentication credentials
type Credentials struct {
	APIKey      string
	AccessToken string // optional; "" means no signed in session
	Source      Source
}

// Resolver handles credential resolution from multiple sources with priority order
type Resolver struct {
	// keyringAvailable is swapped in tests
	keyringAvailable func() bool
}

// NewResolver creates a new credential resolver
func NewResolver() *Resolver {
	return &Resolver{keyringAvailable: IsAvailable}
}

// Resolve finds the API key for remoteName, keyring first and then
// environment variables. The access token is taken from the same source
// as the API key, falling back to the other source when absent there.
func (r *Resolver) Resolve(remoteName, account string) (*Credentials, error) {
	if remoteName == "" {
		return nil, errors.New("remote name is required for credential resolution")
	}

	log := utils.Component("credentials")

	if r.keyringAvailable() {
		apiKey, err := Get(remoteName, account, SecretAPIKey)
		if err == nil {
			token, _ := Get(remoteName, account, SecretAccessToken)
			if token == "" {
				token = GetAccessToken(remoteName)
			}
			return &Credentials{APIKey: apiKey, AccessToken: token, Source: SourceKeyring}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Debug("keyring lookup for %s failed: %v", remoteName, err)
		}
	}

	if apiKey := GetAPIKey(remoteName); apiKey != "" {
		token := GetAccessToken(remoteName)
		if token == "" && r.keyringAvailable() {
			token, _ = Get(remoteName, account, SecretAccessToken)
		}
		return &Credentials{APIKey: apiKey, AccessToken: token, Source: SourceEnv}, nil
	}

	return nil, utils.ErrCredentialsNotFound(remoteName)
}
