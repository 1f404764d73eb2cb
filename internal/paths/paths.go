// Package paths resolves where Fast Forward keeps its config, log and helper files.
//
// Layout:
//
//	Config: <user config dir>/FastForward/config.toml      (override: FASTFORWARD_CONFIG_DIR)
//	Helper: <user config dir>/FastForward/fast-forward-monitor
//	Data:   <user data dir>/FastForward/app.log            (override: FASTFORWARD_DATA_DIR)
//
// On macOS both base directories are ~/Library/Application Support.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const appDirName = "FastForward"

var (
	configDirOnce   sync.Once
	configDirCached string

	dataDirOnce   sync.Once
	dataDirCached string
)

// ConfigDir resolves the config directory.
// Priority: FASTFORWARD_CONFIG_DIR env > <user config dir>/FastForward
func ConfigDir() string {
	configDirOnce.Do(func() {
		if env := os.Getenv("FASTFORWARD_CONFIG_DIR"); env != "" {
			configDirCached = env
			return
		}
		base, err := os.UserConfigDir()
		if err != nil {
			configDirCached = "."
			return
		}
		configDirCached = filepath.Join(base, appDirName)
	})
	return configDirCached
}

// DataDir resolves the data directory that holds the log file.
// Priority: FASTFORWARD_DATA_DIR env > <user data dir>/FastForward
func DataDir() string {
	dataDirOnce.Do(func() {
		if env := os.Getenv("FASTFORWARD_DATA_DIR"); env != "" {
			dataDirCached = env
			return
		}
		base, err := userDataDir()
		if err != nil {
			dataDirCached = "."
			return
		}
		dataDirCached = filepath.Join(base, appDirName)
	})
	return dataDirCached
}

func userDataDir() (string, error) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return os.UserConfigDir()
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// ConfigPath returns the full path to config.toml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// HelperPath returns where the monitor helper binary is installed.
func HelperPath() string {
	return filepath.Join(ConfigDir(), "fast-forward-monitor")
}

// LogPath returns the full path to the log file.
func LogPath() string {
	return filepath.Join(DataDir(), "app.log")
}

// EnsureConfigDir creates the config directory if it doesn't exist and returns its path.
func EnsureConfigDir() (string, error) {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", dir, err)
	}
	return dir, nil
}

// EnsureDataDir creates the data directory if it doesn't exist and returns its path.
func EnsureDataDir() (string, error) {
	dir := DataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return dir, nil
}

// ResetForTest clears cached values so tests can re-run resolution logic.
// Only use in tests.
func ResetForTest() {
	configDirOnce = sync.Once{}
	configDirCached = ""
	dataDirOnce = sync.Once{}
	dataDirCached = ""
}
