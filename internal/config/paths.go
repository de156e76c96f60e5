package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the Grokway data directory.
// - DATA_DIR when set
// - Windows: %APPDATA%\grokway
// - Other OS: ~/.grokway
func DataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "grokway")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".grokway"
	}
	return filepath.Join(home, ".grokway")
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(DataDir(), "grokway.db")
}

// StateDir returns the directory of the JSON state documents.
func StateDir() string {
	return filepath.Join(DataDir(), "state")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
