// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for pact components.
//
// Configuration is loaded from a single YAML file specified by:
//   - PACT_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable naming the config file.
const EnvVar = "PACT_CONFIG"

// Config is the master configuration for the pact service.
type Config struct {
	// Database configures the escrow SQLite store.
	Database DatabaseConfig `yaml:"database"`

	// Socket configures the service's Unix socket.
	Socket SocketConfig `yaml:"socket"`

	// Logging configures slog output.
	Logging LoggingConfig `yaml:"logging"`
}

// DatabaseConfig configures the escrow store.
type DatabaseConfig struct {
	// Path is the SQLite database file. Required. The parent
	// directory must exist.
	Path string `yaml:"path"`

	// PoolSize is the connection pool size. Default: 4.
	PoolSize int `yaml:"pool_size"`
}

// SocketConfig configures the service socket.
type SocketConfig struct {
	// Path is the Unix socket the service listens on.
	// Default: /run/pact/service.sock
	Path string `yaml:"path"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info".
	Level string `yaml:"level"`
}

// DefaultSocketPath is where the service listens when the config does
// not say otherwise.
const DefaultSocketPath = "/run/pact/service.sock"

// Load reads and validates the configuration file at path. If path is
// empty, the PACT_CONFIG environment variable names the file; a
// missing value is an error, not a silent default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return nil, fmt.Errorf("config: no path given and %s is unset", EnvVar)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.PoolSize <= 0 {
		c.Database.PoolSize = 4
	}
	if c.Socket.Path == "" {
		c.Socket.Path = DefaultSocketPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel translates the configured level string to a slog.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}
