// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes a config file into a temp directory and returns
// its path.
func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pact.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /var/pact/escrow.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.PoolSize != 4 {
		t.Errorf("PoolSize = %d, want 4", cfg.Database.PoolSize)
	}
	if cfg.Socket.Path != DefaultSocketPath {
		t.Errorf("Socket.Path = %q, want %q", cfg.Socket.Path, DefaultSocketPath)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /var/pact/escrow.db
  pool_size: 8
socket:
  path: /tmp/pact.sock
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.PoolSize != 8 {
		t.Errorf("PoolSize = %d, want 8", cfg.Database.PoolSize)
	}
	if cfg.Socket.Path != "/tmp/pact.sock" {
		t.Errorf("Socket.Path = %q", cfg.Socket.Path)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		t.Fatalf("LogLevel: %v", err)
	}
	if level != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", level)
	}
}

func TestLoadRejectsMissingDatabasePath(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: info
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded without database.path, want error")
	}
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /var/pact/escrow.db
logging:
  level: loud
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded with bad logging.level, want error")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /var/pact/escrow.db
`)
	t.Setenv(EnvVar, path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/var/pact/escrow.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestLoadRequiresAPath(t *testing.T) {
	t.Setenv(EnvVar, "")
	if _, err := Load(""); err == nil {
		t.Fatal("Load succeeded with no path anywhere, want error")
	}
}
