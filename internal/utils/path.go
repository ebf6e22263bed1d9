package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the per-user config and data directories
const AppName = "focusync"

// escape placeholders for \$ and \~, from the Unicode private use area
const (
	escapedDollar = "\uE000"
	escapedTilde  = "\uE001"
)

// ExpandPath expands ~ and environment variables in file paths.
// A backslash keeps the next $ or ~ literal.
// Examples:
//   - "~/data/file.txt" -> "/home/user/data/file.txt"
//   - "$HOME/data" -> "/home/user/data"
//   - `\$HOME/data` -> "$HOME/data"
//   - "/abs/path" -> "/abs/path" (unchanged)
func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	path = strings.ReplaceAll(path, `\$`, escapedDollar)
	path = strings.ReplaceAll(path, `\~`, escapedTilde)

	// Expand environment variables first
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		if path == "~" {
			path = homeDir
		} else {
			path = filepath.Join(homeDir, path[2:])
		}
	}

	path = strings.ReplaceAll(path, escapedDollar, "$")
	path = strings.ReplaceAll(path, escapedTilde, "~")
	return path, nil
}

// GetDataDir returns the XDG data directory for focusync
// ($XDG_DATA_HOME/focusync or ~/.local/share/focusync) without creating it.
func GetDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, AppName), nil
}

// DefaultDatabasePath is where the offline store lives unless configured
func DefaultDatabasePath() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "offline.db"), nil
}
