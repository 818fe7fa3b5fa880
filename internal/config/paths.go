package config

import (
	"os"
	"path/filepath"
)

const appDirName = ".loom"

// DataDir returns the base data directory for Loom.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// ConfigPath returns the path to the settings file.
func ConfigPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "config.toml"), nil
}

// TokenPath returns the path to the API token file.
func TokenPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "token"), nil
}

// SnapshotDBPath returns the path to the session snapshot cache.
func SnapshotDBPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "snapshots.db"), nil
}

// UILogPath returns the path to the UI log file. The terminal owns stdout
// and stderr while the UI runs, so logs go to a file.
func UILogPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "loom.log"), nil
}

// StreamLogPath returns the path to the SSE debug log.
func StreamLogPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "stream.log"), nil
}
