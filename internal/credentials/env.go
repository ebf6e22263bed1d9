package credentials

import (
	"os"
	"strings"
)

// normalizeRemoteName converts a remote name to the format used in environment variables
// Example: "supabase-work" becomes "SUPABASE_WORK"
func normalizeRemoteName(remoteName string) string {
	normalized := strings.ToUpper(remoteName)
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return normalized
}

// EnvVarName returns the environment variable holding secret for a remote
func EnvVarName(remoteName string, secret Secret) string {
	return "FOCUSYNC_" + normalizeRemoteName(remoteName) + "_" + strings.ToUpper(string(secret))
}

// GetAPIKey retrieves the project API key from environment variables
// Looks for: FOCUSYNC_{REMOTE_NAME}_API_KEY
func GetAPIKey(remoteName string) string {
	if remoteName == "" {
		return ""
	}
	return os.Getenv(EnvVarName(remoteName, SecretAPIKey))
}

// GetAccessToken retrieves the signed in user's token from environment variables
// Looks for: FOCUSYNC_{REMOTE_NAME}_ACCESS_TOKEN
func GetAccessToken(remoteName string) string {
	if remoteName == "" {
		return ""
	}
	return os.Getenv(EnvVarName(remoteName, SecretAccessToken))
}

// HasCredentials checks if an API key exists in environment variables
func HasCredentials(remoteName string) bool {
	return GetAPIKey(remoteName) != ""
}
