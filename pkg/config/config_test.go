// Package config provides configuration tests for the Rite bridge.
package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Server.SocketPath == "" {
		t.Error("SocketPath should not be empty")
	}
	if cfg.Server.Daemonize {
		t.Error("Daemonize should default to false")
	}

	if cfg.Vault.DBPath == "" {
		t.Error("Vault.DBPath should not be empty")
	}
	if cfg.Vault.BackupDir == "" {
		t.Error("Vault.BackupDir should not be empty")
	}

	if cfg.SSH.DefaultKeepAliveSeconds != 30 {
		t.Errorf("DefaultKeepAliveSeconds should default to 30, got %d", cfg.SSH.DefaultKeepAliveSeconds)
	}
	if cfg.SSH.HandshakeTimeoutSeconds != 15 {
		t.Errorf("HandshakeTimeoutSeconds should default to 15, got %d", cfg.SSH.HandshakeTimeoutSeconds)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level should default to 'info', got %s", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig validation failed: %v", err)
	}

	cfg.Server.SocketPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for empty SocketPath")
	}

	cfg = DefaultConfig()
	cfg.Logging.Level = "invalid"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for invalid log level")
	}

	cfg = DefaultConfig()
	cfg.SSH.HandshakeTimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for zero handshake timeout")
	}

	cfg = DefaultConfig()
	cfg.SSH.DefaultKeepAliveSeconds = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for negative keep-alive")
	}
}

func TestConfigPaths(t *testing.T) {
	paths := ConfigPaths()
	if len(paths) == 0 {
		t.Error("ConfigPaths should return at least one candidate path")
	}
}
