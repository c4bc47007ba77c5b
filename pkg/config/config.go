// Package config provides configuration management for the Rite bridge.
// Supports TOML configuration files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// validateDirectoryWritable checks a directory exists (creating it if not) and is writable.
func validateDirectoryWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}

	testFile := filepath.Join(dir, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("cannot write to directory: %w", err)
	}
	f.Close()
	os.Remove(testFile)

	return nil
}

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingValue  = errors.New("missing required configuration value")
)

// Config holds all rite-bridge configuration
type Config struct {
	// Server configuration
	Server ServerConfig `toml:"server"`

	// Vault configuration
	Vault VaultConfig `toml:"vault"`

	// SSH session engine configuration
	SSH SSHConfig `toml:"ssh"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	// SocketPath is the path to the Unix domain socket the RPC server listens on
	SocketPath string `toml:"socket_path" env:"RITE_SOCKET"`

	// PidFile is loaded from the config file and RITE_PID_FILE; ritebridge
	// does not write a PID file.
	PidFile string `toml:"pid_file" env:"RITE_PID_FILE"`

	// Daemonize is loaded from the config file and RITE_DAEMONIZE;
	// ritebridge always runs in the foreground.
	Daemonize bool `toml:"daemonize" env:"RITE_DAEMONIZE"`
}

// VaultConfig holds vault (encrypted credential store) configuration
type VaultConfig struct {
	// DBPath is the path to the SQLCipher-encrypted vault database
	DBPath string `toml:"db_path" env:"RITE_VAULT_DB"`

	// BackupDir is loaded from the config file and RITE_VAULT_BACKUP_DIR but
	// is not passed to the vault store: pre-migration backups always go to a
	// "backups" directory next to DBPath.
	BackupDir string `toml:"backup_dir" env:"RITE_VAULT_BACKUP_DIR"`
}

// SSHConfig holds SSH session engine defaults
type SSHConfig struct {
	// DefaultKeepAliveSeconds is loaded but not read by the session engine:
	// keep-alive comes from each connection's own settings only, and a
	// connection without them runs with no keep-alive.
	DefaultKeepAliveSeconds int `toml:"default_keep_alive_seconds" env:"RITE_SSH_KEEP_ALIVE"`

	// HandshakeTimeoutSeconds is loaded but not read by the session engine,
	// which bounds TCP connect + SSH handshake with its own fixed timeout.
	HandshakeTimeoutSeconds int `toml:"handshake_timeout_seconds" env:"RITE_SSH_HANDSHAKE_TIMEOUT"`
}

// LoggingConfig holds logging-specific configuration
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `toml:"level" env:"RITE_LOG_LEVEL"`

	// Format is the log format (json, text)
	Format string `toml:"format" env:"RITE_LOG_FORMAT"`

	// Output is the log output (stdout, stderr, or file)
	Output string `toml:"output" env:"RITE_LOG_OUTPUT"`

	// File is the log file path when output is "file"
	File string `toml:"file" env:"RITE_LOG_FILE"`
}

// runtimeDir returns the directory bridge.sock and bridge.pid live under:
// $XDG_RUNTIME_DIR/rite if set, otherwise /tmp/rite-<uid>.
func runtimeDir() string {
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "rite")
	}
	return fmt.Sprintf("/tmp/rite-%d", os.Getuid())
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "rite")
	runDir := runtimeDir()

	return &Config{
		Server: ServerConfig{
			SocketPath: filepath.Join(runDir, "bridge.sock"),
			PidFile:    filepath.Join(runDir, "bridge.pid"),
			Daemonize:  false,
		},
		Vault: VaultConfig{
			DBPath:    filepath.Join(dataDir, "vault.db"),
			BackupDir: filepath.Join(dataDir, "backups"),
		},
		SSH: SSHConfig{
			DefaultKeepAliveSeconds: 30,
			HandshakeTimeoutSeconds: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
			File:   "",
		},
	}
}

// ConfigPaths returns the list of default configuration file paths to check
func ConfigPaths() []string {
	homeDir, _ := os.UserHomeDir()
	return []string{
		filepath.Join(homeDir, ".config", "rite", "bridge.toml"),
		filepath.Join("/etc", "rite", "bridge.toml"),
		"./bridge.toml",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.SocketPath == "" {
		return fmt.Errorf("%w: server.socket_path is required", ErrInvalidConfig)
	}
	socketDir := filepath.Dir(c.Server.SocketPath)
	if err := validateDirectoryWritable(socketDir); err != nil {
		return fmt.Errorf("%w: socket directory %s: %w", ErrInvalidConfig, socketDir, err)
	}

	if c.Vault.DBPath == "" {
		return fmt.Errorf("%w: vault.db_path is required", ErrInvalidConfig)
	}
	vaultDir := filepath.Dir(c.Vault.DBPath)
	if err := validateDirectoryWritable(vaultDir); err != nil {
		return fmt.Errorf("%w: vault directory %s: %w", ErrInvalidConfig, vaultDir, err)
	}

	if c.SSH.DefaultKeepAliveSeconds < 0 {
		return fmt.Errorf("%w: ssh.default_keep_alive_seconds cannot be negative", ErrInvalidConfig)
	}
	if c.SSH.HandshakeTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: ssh.handshake_timeout_seconds must be positive", ErrInvalidConfig)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: logging.level must be one of: debug, info, warn, error", ErrInvalidConfig)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("%w: logging.format must be one of: json, text", ErrInvalidConfig)
	}

	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[c.Logging.Output] {
		return fmt.Errorf("%w: logging.output must be one of: stdout, stderr, file", ErrInvalidConfig)
	}

	if c.Logging.Output == "file" && c.Logging.File == "" {
		return fmt.Errorf("%w: logging.file is required when logging.output is 'file'", ErrInvalidConfig)
	}

	return nil
}
