package config

import (
	"os"
	"path/filepath"
)

// Default configuration values
const (
	DefaultCompression = "lz4"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"

	DefaultMaxIndexBuilds = 1
	DefaultDataDirName    = "data"
)

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vectable")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vectable"
	}
	return filepath.Join(home, ".config", "vectable")
}

// DefaultDataDir returns the default directory for local databases.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "vectable")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vectable"
	}
	return filepath.Join(home, ".local", "share", "vectable")
}

// DefaultDatabaseURI returns the database used when none is configured.
func DefaultDatabaseURI() string {
	return filepath.Join(DefaultDataDir(), DefaultDataDirName)
}
