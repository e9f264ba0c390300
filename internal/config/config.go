// Package config loads moniesync daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the daemon configuration.
type Config struct {
	// APIBaseURL is the Monie REST API the offline core replays against.
	APIBaseURL string

	// ListenAddr is the local address the daemon serves status and proxy
	// endpoints on.
	ListenAddr string

	// DataDir holds the sqlite-backed offline stores.
	DataDir string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// ProbeInterval is how often connectivity is probed.
	ProbeInterval time.Duration

	// RequestTimeout bounds every upstream HTTP call.
	RequestTimeout time.Duration
}

const (
	defaultConfigPath = "~/.config/moniesync/config.toml"
	defaultListenAddr = "127.0.0.1:8195"
	defaultDataDir    = "~/.local/share/moniesync"
	defaultLogLevel   = "info"

	defaultProbeInterval  = 30 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// rawConfig is the on-disk TOML shape.
type rawConfig struct {
	APIBaseURL            string `toml:"api_base_url"`
	ListenAddr            string `toml:"listen_addr"`
	DataDir               string `toml:"data_dir"`
	LogLevel              string `toml:"log_level"`
	ProbeIntervalSeconds  int    `toml:"probe_interval_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Load locates and parses the config file, falling back to defaults when
// the file is missing. MONIESYNC_DATA_DIR overrides the data directory.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Defaults carry no API base URL, so a missing file still has
			// to pass validation before the daemon may start.
			cfg = applyEnv(cfg)
			if err := cfg.validate(); err != nil {
				return Config{}, err
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBaseURL); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.ListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if raw.ProbeIntervalSeconds > 0 {
		cfg.ProbeInterval = time.Duration(raw.ProbeIntervalSeconds) * time.Second
	}
	if raw.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeoutSeconds) * time.Second
	}

	cfg = applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ListenAddr:     defaultListenAddr,
		DataDir:        mustExpand(defaultDataDir),
		LogLevel:       defaultLogLevel,
		ProbeInterval:  defaultProbeInterval,
		RequestTimeout: defaultRequestTimeout,
	}
}

func applyEnv(cfg Config) Config {
	if dir := strings.TrimSpace(os.Getenv("MONIESYNC_DATA_DIR")); dir != "" {
		cfg.DataDir = dir
	}
	cfg.DataDir = mustExpand(cfg.DataDir)
	return cfg
}

func (c Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api_base_url must be an http(s) URL, got %q", c.APIBaseURL)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
