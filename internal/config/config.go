// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"strings"
)

// Default values.
const (
	DefaultTheme     = "classic"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultListen    = "127.0.0.1:8080"
	FileName         = "tada.toml"
)

// Config holds the full configuration for tada.
type Config struct {
	// Output
	Theme string `toml:"theme"`
	Group bool   `toml:"group"`

	// Logging configuration
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`

	// HTTP API
	Listen string `toml:"listen"`
	Token  string `toml:"token"`

	// Seed controls whether the store starts with the sample task.
	Seed bool `toml:"seed"`

	// ConfigFile is the explicit file passed with -config (not persisted).
	ConfigFile string `toml:"-"`
}

func setDefaults(cfg *Config) {
	cfg.Theme = DefaultTheme
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Listen = DefaultListen
	cfg.Seed = true
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("invalid theme %q (want classic, neon or mono)", c.Theme)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("invalid log_format %q (want text, json or logfmt)", c.LogFormat)
	}
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address is empty")
	}
	return nil
}
