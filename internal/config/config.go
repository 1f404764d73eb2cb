package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/TanaroSch/fast-forward/internal/apps"
)

// Defaults used when the config file leaves a value unset.
const (
	DefaultAboutURL       = "https://github.com/gaauwe/fast-forward"
	DefaultEditor         = "TextEdit"
	DefaultBackend        = "auto"
	DefaultHotkey         = "ctrl+alt+space"
	DefaultSocket         = "/tmp/swift_monitor.sock"
	DefaultReadyLine      = "Socket bound successfully"
	DefaultReadyTimeout   = 10 * time.Second
	DefaultReconnectDelay = 5 * time.Second
	DefaultPollInterval   = 50 * time.Millisecond
	DefaultMaxLaunchable  = apps.DefaultMaxLaunchable
)

// DefaultApplicationDirs lists the directories whose applications stay in the list
// after they quit.
var DefaultApplicationDirs = apps.DefaultApplicationDirs

var validBackends = []string{"auto", "tap", "hook", "hotkey"}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration written as a string ("5s", "50ms") in the config file.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// GeneralConfig holds settings for the tray and desktop integration.
type GeneralConfig struct {
	ShowTray      bool   `toml:"show_tray"`
	Notifications bool   `toml:"notifications"`
	AboutURL      string `toml:"about_url"`
	Editor        string `toml:"editor"`
}

// TriggerConfig selects how the switcher gesture is captured.
type TriggerConfig struct {
	Backend   string `toml:"backend"`   // auto, tap, hook or hotkey
	Alternate bool   `toml:"alternate"` // also open with left command + tab
	Hotkey    string `toml:"hotkey"`    // combination for the hotkey backend
}

// HelperConfig describes the monitor helper process and its socket.
type HelperConfig struct {
	Path           string   `toml:"path"`    // empty means the default install location
	Payload        string   `toml:"payload"` // binary copied to Path before every launch
	Socket         string   `toml:"socket"`
	ReadyLine      string   `toml:"ready_line"`
	ReadyTimeout   Duration `toml:"ready_timeout"`
	ReconnectDelay Duration `toml:"reconnect_delay"`
}

// BusConfig tunes the command bus.
type BusConfig struct {
	PollInterval Duration `toml:"poll_interval"`
}

// RegistryConfig tunes the application list.
type RegistryConfig struct {
	ApplicationDirs []string `toml:"application_dirs"`
	MaxLaunchable   int      `toml:"max_launchable"`
}

// Config holds the application configuration
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Trigger  TriggerConfig  `toml:"trigger"`
	Helper   HelperConfig   `toml:"helper"`
	Bus      BusConfig      `toml:"bus"`
	Registry RegistryConfig `toml:"registry"`

	// Non-TOML fields (runtime state)
	configPath string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.General.ShowTray = true
	c.Registry.MaxLaunchable = DefaultMaxLaunchable
	c.applyDefaults()
	return c
}

// GetConfigPath returns the path the configuration was loaded from.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Load reads and parses the configuration file, creating the default file first
// when none exists.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
		}
		log.Printf("Config file '%s' not found. Attempting to create default.", configPath)
		if createErr := CreateDefaultConfig(configPath); createErr != nil {
			return nil, fmt.Errorf("config file not found and failed to create default '%s': %w", configPath, createErr)
		}
		data, err = os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s' even after creating default: %w", configPath, err)
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", configPath, err)
	}
	cfg.configPath = configPath
	return cfg, nil
}

// Parse decodes TOML data, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, err
	}
	for _, key := range md.Undecoded() {
		log.Printf("Warning: Unknown config key '%s' ignored", key.String())
	}

	// Zero values that are valid settings cannot stand for "unset".
	if !md.IsDefined("general", "show_tray") {
		cfg.General.ShowTray = true
	}
	if !md.IsDefined("registry", "max_launchable") {
		cfg.Registry.MaxLaunchable = DefaultMaxLaunchable
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.General.AboutURL == "" {
		c.General.AboutURL = DefaultAboutURL
	}
	if c.General.Editor == "" {
		c.General.Editor = DefaultEditor
	}
	if c.Trigger.Backend == "" {
		c.Trigger.Backend = DefaultBackend
	}
	c.Trigger.Backend = strings.ToLower(strings.TrimSpace(c.Trigger.Backend))
	if c.Trigger.Hotkey == "" {
		c.Trigger.Hotkey = DefaultHotkey
	}
	if c.Helper.Socket == "" {
		c.Helper.Socket = DefaultSocket
	}
	if c.Helper.ReadyLine == "" {
		c.Helper.ReadyLine = DefaultReadyLine
	}
	if c.Helper.ReadyTimeout.Duration == 0 {
		c.Helper.ReadyTimeout.Duration = DefaultReadyTimeout
	}
	if c.Helper.ReconnectDelay.Duration == 0 {
		c.Helper.ReconnectDelay.Duration = DefaultReconnectDelay
	}
	if c.Bus.PollInterval.Duration == 0 {
		c.Bus.PollInterval.Duration = DefaultPollInterval
	}
	if c.Registry.ApplicationDirs == nil {
		c.Registry.ApplicationDirs = append([]string(nil), DefaultApplicationDirs...)
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	valid := false
	for _, b := range validBackends {
		if c.Trigger.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: trigger.backend must be one of %s, got '%s'",
			ErrInvalid, strings.Join(validBackends, ", "), c.Trigger.Backend)
	}

	durations := []struct {
		name string
		d    Duration
	}{
		{"helper.ready_timeout", c.Helper.ReadyTimeout},
		{"helper.reconnect_delay", c.Helper.ReconnectDelay},
		{"bus.poll_interval", c.Bus.PollInterval},
	}
	for _, d := range durations {
		if d.d.Duration <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, d.name, d.d.Duration)
		}
	}

	if c.Registry.MaxLaunchable < 0 {
		return fmt.Errorf("%w: registry.max_launchable must not be negative", ErrInvalid)
	}
	if !strings.HasPrefix(c.Helper.Socket, "/") {
		return fmt.Errorf("%w: helper.socket must be an absolute path, got '%s'", ErrInvalid, c.Helper.Socket)
	}
	return nil
}

// CreateDefaultConfig creates a default configuration file if none exists
func CreateDefaultConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return nil // File exists, don't overwrite
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error checking config path '%s': %w", configPath, err)
	}

	log.Printf("Creating default configuration file at: %s", configPath)
	if err := os.WriteFile(configPath, []byte(defaultConfigTOML), 0644); err != nil {
		return fmt.Errorf("failed to write default config file '%s': %w", configPath, err)
	}

	log.Printf("Default configuration file created successfully.")
	return nil
}

const defaultConfigTOML = `# Fast Forward configuration.
# Changes to helper.reconnect_delay apply immediately, everything else after a restart.

[general]
# Show the menu bar icon with Settings, About and Quit.
show_tray = true
# Desktop notification when a tray action fails. Off: failures are only logged.
notifications = false
about_url = "https://github.com/gaauwe/fast-forward"
# Application used by "Settings" to open this file.
editor = "TextEdit"

[trigger]
# auto, tap (macOS event tap), hook (input hook) or hotkey (registered combination).
# auto only picks a backend that can swallow keys; hook and hotkey must be named here.
backend = "auto"
# Also open the switcher with left command + tab, preselecting the second entry.
alternate = false
# Key combination used by the hotkey backend.
hotkey = "ctrl+alt+space"

[helper]
# Leave empty to use fast-forward-monitor next to this file.
path = ""
# Binary copied to path before every launch.
payload = ""
socket = "/tmp/swift_monitor.sock"
ready_line = "Socket bound successfully"
ready_timeout = "10s"
reconnect_delay = "5s"

[bus]
poll_interval = "50ms"

[registry]
application_dirs = ["/Applications/", "/System/Applications/"]
max_launchable = 3
`
