// Package config resolves file locations for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatabasePath is where the record store lives when database.path is
// not configured.
func DefaultDatabasePath() string {
	return ExpandPath(filepath.Join("~", ".local", "share", "sail", "sail.db"))
}

// ExpandPath expands a leading ~ and any environment variables in path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	return os.ExpandEnv(path)
}
