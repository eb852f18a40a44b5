// Package config handles TOML-based configuration loading and validation.
// TOML is parsed as data only; nothing in the file is executed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Provider family names accepted for the api setting.
const (
	APIEightStream = "8stream"
	APIConsumet    = "consumet"
)

// Config holds all application configuration.
type Config struct {
	API             string `toml:"api"`
	EightStreamBase string `toml:"eightstream_base"`
	ConsumetBase    string `toml:"consumet_base"`
	Player          string `toml:"player"`
	SubsLanguage    string `toml:"subs_language"`
	History         bool   `toml:"history"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	Retries         int    `toml:"retries"`
	DebounceMS      int    `toml:"debounce_ms"`
	Listen          string `toml:"listen"`
	LogLevel        string `toml:"log_level"`
	LogEncoding     string `toml:"log_encoding"`
	LogFile         string `toml:"log_file"`
	Debug           bool   `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API:             APIEightStream,
		EightStreamBase: "https://8stream-api.vercel.app",
		ConsumetBase:    "https://consumet-api.vercel.app",
		Player:          "mpv",
		SubsLanguage:    "english",
		History:         true,
		TimeoutSeconds:  30,
		Retries:         1,
		DebounceMS:      250,
		Listen:          "127.0.0.1:8787",
		LogLevel:        "info",
		LogEncoding:     "console",
		Debug:           false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cinestream"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cinestream"), nil
}

// dataDir returns the XDG-compliant data directory.
func dataDir() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "cinestream"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validAPIs := map[string]bool{
		APIEightStream: true, APIConsumet: true,
	}
	if !validAPIs[strings.ToLower(c.API)] {
		return fmt.Errorf("unsupported api %q (valid: 8stream, consumet)", c.API)
	}

	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if c.EightStreamBase == "" || c.ConsumetBase == "" {
		return fmt.Errorf("provider base URLs cannot be empty")
	}
	for _, base := range []string{c.EightStreamBase, c.ConsumetBase} {
		if !strings.HasPrefix(base, "https://") {
			return fmt.Errorf("provider base %q must use https", base)
		}
	}

	if c.TimeoutSeconds < 1 || c.TimeoutSeconds > 300 {
		return fmt.Errorf("timeout_seconds %d out of range (1-300)", c.TimeoutSeconds)
	}
	if c.Retries < 0 || c.Retries > 5 {
		return fmt.Errorf("retries %d out of range (0-5)", c.Retries)
	}
	if c.DebounceMS < 0 || c.DebounceMS > 10000 {
		return fmt.Errorf("debounce_ms %d out of range (0-10000)", c.DebounceMS)
	}

	validEncodings := map[string]bool{"console": true, "json": true}
	if !validEncodings[c.LogEncoding] {
		return fmt.Errorf("unsupported log_encoding %q (valid: console, json)", c.LogEncoding)
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	return nil
}

// Timeout returns the per-request upstream timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Debounce returns the delay used to merge rapid address rewrites.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// HistoryPath returns the path to the history database.
func HistoryPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// DefaultLogPath returns the log file used while the terminal UI owns the screen.
func DefaultLogPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cinestream.log"), nil
}
