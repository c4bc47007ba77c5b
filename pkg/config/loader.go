// Package config provides configuration loading for the Rite bridge.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Load loads configuration from a file path
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		for _, p := range ConfigPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		log.Printf("Warning: no configuration file found in default locations")
		for _, p := range ConfigPaths() {
			log.Printf("  - %s", p)
		}
		log.Printf("Using default configuration")
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDie loads configuration or exits on error
func LoadOrDie(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RITE_SOCKET"); v != "" {
		cfg.Server.SocketPath = v
	}
	if v := os.Getenv("RITE_PID_FILE"); v != "" {
		cfg.Server.PidFile = v
	}
	if v := os.Getenv("RITE_DAEMONIZE"); v != "" {
		cfg.Server.Daemonize = v == "true" || v == "1"
	}

	if v := os.Getenv("RITE_VAULT_DB"); v != "" {
		cfg.Vault.DBPath = v
	}
	if v := os.Getenv("RITE_VAULT_BACKUP_DIR"); v != "" {
		cfg.Vault.BackupDir = v
	}

	if v := os.Getenv("RITE_SSH_KEEP_ALIVE"); v != "" {
		var seconds int
		if _, err := fmt.Sscanf(v, "%d", &seconds); err == nil {
			cfg.SSH.DefaultKeepAliveSeconds = seconds
		}
	}
	if v := os.Getenv("RITE_SSH_HANDSHAKE_TIMEOUT"); v != "" {
		var seconds int
		if _, err := fmt.Sscanf(v, "%d", &seconds); err == nil {
			cfg.SSH.HandshakeTimeoutSeconds = seconds
		}
	}

	if v := os.Getenv("RITE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RITE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RITE_LOG_OUTPUT"); v != "" {
		cfg.Logging.Output = v
	}
	if v := os.Getenv("RITE_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}

// Save saves the configuration to a file
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgCopy := *cfg
	cfgCopy.Vault.DBPath = filepath.ToSlash(cfg.Vault.DBPath)
	cfgCopy.Server.SocketPath = filepath.ToSlash(cfg.Server.SocketPath)
	if cfgCopy.Server.PidFile != "" {
		cfgCopy.Server.PidFile = filepath.ToSlash(cfgCopy.Server.PidFile)
	}

	data, err := toml.Marshal(&cfgCopy)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateExampleConfig generates an example configuration file
func GenerateExampleConfig(path string) error {
	cfg := DefaultConfig()
	cfg.Logging.Level = "info"
	return Save(cfg, path)
}
