// Package config handles loading and validating the OpenClaw SDK
// configuration. Config is stored at ~/.openclaw/openclaw.json, with
// openclaw.yaml accepted as an alternative.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the top-level SDK configuration.
type Config struct {
	Gateway GatewayConfig `json:"gateway" yaml:"gateway"`
	Events  EventsConfig  `json:"events" yaml:"events"`
	Logs    LogsConfig    `json:"logs" yaml:"logs"`
	Audit   AuditConfig   `json:"audit" yaml:"audit"`
}

// GatewayConfig configures the connection to the gateway.
type GatewayConfig struct {
	URL         string `json:"url" yaml:"url"`
	Token       string `json:"token" yaml:"token"`
	ClientName  string `json:"clientName" yaml:"clientName"`
	DialTimeout int    `json:"dialTimeoutMs" yaml:"dialTimeoutMs"` // milliseconds
	CallTimeout int    `json:"callTimeoutMs" yaml:"callTimeoutMs"` // milliseconds, 0 = none
}

// DialTimeoutDuration returns the dial timeout, defaulted when unset.
func (g GatewayConfig) DialTimeoutDuration() time.Duration {
	if g.DialTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.DialTimeout) * time.Millisecond
}

// CallTimeoutDuration returns the default per-call timeout; zero means the
// caller's context rules alone.
func (g GatewayConfig) CallTimeoutDuration() time.Duration {
	if g.CallTimeout <= 0 {
		return 0
	}
	return time.Duration(g.CallTimeout) * time.Millisecond
}

// EventsConfig tunes subscription delivery.
type EventsConfig struct {
	// HighWater is the per-subscription buffered event count before the
	// inbound reader blocks on a slow consumer.
	HighWater int `json:"highWater" yaml:"highWater"`
}

// LogsConfig configures the file logger.
type LogsConfig struct {
	Dir        string `json:"dir" yaml:"dir"`
	Level      string `json:"level" yaml:"level"` // "debug", "info", "warn", "error"
	MaxAgeDays int    `json:"maxAgeDays" yaml:"maxAgeDays"`
	Stderr     bool   `json:"stderr" yaml:"stderr"`
}

// AuditConfig configures the local SQLite audit log of gateway traffic.
type AuditConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Dir        string `json:"dir" yaml:"dir"`
	MaxAgeDays int    `json:"maxAgeDays" yaml:"maxAgeDays"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:        "ws://127.0.0.1:18789",
			ClientName: "openclaw-go-sdk",
		},
		Events: EventsConfig{HighWater: 64},
		Logs: LogsConfig{
			Dir:        filepath.Join(Dir(), "logs"),
			Level:      "info",
			MaxAgeDays: 30,
			Stderr:     true,
		},
		Audit: AuditConfig{
			Dir:        filepath.Join(Dir(), "state"),
			MaxAgeDays: 90,
		},
	}
}

// Dir returns the OpenClaw config directory (~/.openclaw).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".openclaw"
	}
	return filepath.Join(home, ".openclaw")
}

// Path returns the path of the active config file. JSON wins when both
// exist.
func Path() string {
	if envPath := os.Getenv("OPENCLAW_CONFIG"); envPath != "" {
		return envPath
	}
	jsonPath := filepath.Join(Dir(), "openclaw.json")
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath
	}
	yamlPath := filepath.Join(Dir(), "openclaw.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	return jsonPath
}

// Load reads and parses the config from disk. A missing file yields
// defaults, not an error.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config from an explicit path. The extension decides
// the format: .yaml/.yml parse as YAML, everything else as JSON.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to its default JSON path.
func Save(cfg *Config) error {
	path := filepath.Join(Dir(), "openclaw.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects configurations the SDK cannot act on.
func (c *Config) Validate() error {
	url := strings.TrimSpace(c.Gateway.URL)
	if url == "" {
		return fmt.Errorf("gateway.url must not be empty")
	}
	if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		return fmt.Errorf("gateway.url must be a ws:// or wss:// URL, got %q", url)
	}
	switch c.Logs.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logs.level must be debug, info, warn or error, got %q", c.Logs.Level)
	}
	return nil
}

// applyEnvOverrides merges environment variables into configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENCLAW_GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("OPENCLAW_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.Token = v
	}
}
