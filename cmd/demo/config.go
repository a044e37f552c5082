package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/questline/rewind/internal/core/observability/log"
)

// Config drives the demo: where saves go, how they are encoded, and how
// deep the rollback ledger is.
type Config struct {
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Saves    SavesConfig    `json:"saves" yaml:"saves"`
	Rollback RollbackConfig `json:"rollback" yaml:"rollback"`
}

// LoggingConfig selects the log verbosity.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// SavesConfig selects the persistence backend and wire format.
type SavesConfig struct {
	Backend  string `json:"backend" yaml:"backend"`
	Dir      string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Format   string `json:"format" yaml:"format"`
	Compress bool   `json:"compress" yaml:"compress"`
}

// RollbackConfig bounds the checkpoint ledger.
type RollbackConfig struct {
	Capacity int `json:"capacity" yaml:"capacity"`
}

// DefaultConfig returns a config that runs without any external setup.
func DefaultConfig() *Config {
	return &Config{
		Logging:  LoggingConfig{Level: "info"},
		Saves:    SavesConfig{Backend: "file", Dir: "saves", Format: "json"},
		Rollback: RollbackConfig{Capacity: 32},
	}
}

// LoadConfig reads a YAML config file, falling back to defaults for any
// omitted section.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the full configuration.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	if err := c.Saves.Validate(); err != nil {
		return fmt.Errorf("saves config validation failed: %w", err)
	}
	if err := c.Rollback.Validate(); err != nil {
		return fmt.Errorf("rollback config validation failed: %w", err)
	}
	return nil
}

// Validate validates the logging configuration.
func (lc *LoggingConfig) Validate() error {
	switch lc.Level {
	case "debug", "info", "warn", "error", "silent":
		return nil
	}
	return fmt.Errorf("unknown log level %q", lc.Level)
}

// LoggerLevel maps the configured name to a logger level.
func (lc *LoggingConfig) LoggerLevel() log.Level {
	switch lc.Level {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	case "silent":
		return log.LevelSilent
	default:
		return log.LevelInfo
	}
}

// Validate validates the saves configuration.
func (sc *SavesConfig) Validate() error {
	switch sc.Backend {
	case "memory":
	case "file":
		if sc.Dir == "" {
			return fmt.Errorf("file backend requires a dir")
		}
	case "sqlite":
		if sc.Database == "" {
			return fmt.Errorf("sqlite backend requires a database path")
		}
	default:
		return fmt.Errorf("unknown backend %q", sc.Backend)
	}

	switch sc.Format {
	case "json", "yaml", "gob":
		return nil
	}
	return fmt.Errorf("unknown format %q", sc.Format)
}

// Validate validates the rollback configuration.
func (rc *RollbackConfig) Validate() error {
	if rc.Capacity < 0 {
		return fmt.Errorf("rollback capacity must not be negative")
	}
	return nil
}
