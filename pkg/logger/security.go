// Package logger provides security-specific logging helpers for Rite bridge
package logger

import (
	"context"
	"log/slog"
)

// SecurityEventType defines types of security events
type SecurityEventType string

const (
	// Vault lifecycle events
	VaultUnlockAttempt SecurityEventType = "vault_unlock_attempt"
	VaultUnlockSuccess SecurityEventType = "vault_unlock_success"
	VaultUnlockFailure SecurityEventType = "vault_unlock_failure"
	VaultRateLimited   SecurityEventType = "vault_rate_limited"
	VaultLocked        SecurityEventType = "vault_locked"
	VaultSetup         SecurityEventType = "vault_setup"
	VaultReset         SecurityEventType = "vault_reset"

	// Connection (credential) events
	ConnectionCreated SecurityEventType = "connection_created"
	ConnectionUpdated SecurityEventType = "connection_updated"
	ConnectionDeleted SecurityEventType = "connection_deleted"
	ConnectionRead    SecurityEventType = "connection_read"

	// Host-key trust events
	HostKeyUnknown SecurityEventType = "host_key_unknown"
	HostKeyAdded   SecurityEventType = "host_key_added"
	HostKeyChanged SecurityEventType = "host_key_changed"
	HostKeyAccepted SecurityEventType = "host_key_accepted"

	// Session lifecycle events
	SessionOpened     SecurityEventType = "session_opened"
	SessionClosed     SecurityEventType = "session_closed"
	SessionAuthFailed SecurityEventType = "session_auth_failed"
)

// SecurityLogger provides security-specific logging methods
type SecurityLogger struct {
	logger *Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(baseLogger *Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: baseLogger.WithComponent("security"),
	}
}

// LogVaultUnlockAttempt logs an unlock attempt before its outcome is known
func (sl *SecurityLogger) LogVaultUnlockAttempt(ctx context.Context, attrs ...slog.Attr) {
	sl.logger.SecurityEvent(ctx, string(VaultUnlockAttempt), attrs...)
}

// LogVaultUnlockSuccess logs a successful unlock. Never pass the password itself.
func (sl *SecurityLogger) LogVaultUnlockSuccess(ctx context.Context, attrs ...slog.Attr) {
	sl.logger.SecurityEvent(ctx, string(VaultUnlockSuccess), attrs...)
}

// LogVaultUnlockFailure logs a failed unlock attempt
func (sl *SecurityLogger) LogVaultUnlockFailure(ctx context.Context, attrs ...slog.Attr) {
	sl.logger.SecurityEvent(ctx, string(VaultUnlockFailure), attrs...)
}

// LogVaultRateLimited logs a rate-limited unlock attempt
func (sl *SecurityLogger) LogVaultRateLimited(ctx context.Context, waitSeconds uint64, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{slog.Uint64("wait_seconds", waitSeconds)}
	sl.logger.SecurityEvent(ctx, string(VaultRateLimited), append(baseAttrs, attrs...)...)
}

// LogVaultLocked logs the vault being locked
func (sl *SecurityLogger) LogVaultLocked(ctx context.Context, attrs ...slog.Attr) {
	sl.logger.SecurityEvent(ctx, string(VaultLocked), attrs...)
}

// LogVaultSetup logs initial master-password setup
func (sl *SecurityLogger) LogVaultSetup(ctx context.Context, strengthScore int, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{slog.Int("strength_score", strengthScore)}
	sl.logger.SecurityEvent(ctx, string(VaultSetup), append(baseAttrs, attrs...)...)
}

// LogVaultReset logs an emergency database reset
func (sl *SecurityLogger) LogVaultReset(ctx context.Context, attrs ...slog.Attr) {
	sl.logger.SecurityEvent(ctx, string(VaultReset), attrs...)
}

// LogConnectionCreated logs creation of a stored connection. Never pass credentials.
func (sl *SecurityLogger) LogConnectionCreated(ctx context.Context, connectionID string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{slog.String("connection_id", connectionID)}
	sl.logger.SecurityEvent(ctx, string(ConnectionCreated), append(baseAttrs, attrs...)...)
}

// LogConnectionUpdated logs mutation of a stored connection
func (sl *SecurityLogger) LogConnectionUpdated(ctx context.Context, connectionID string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{slog.String("connection_id", connectionID)}
	sl.logger.SecurityEvent(ctx, string(ConnectionUpdated), append(baseAttrs, attrs...)...)
}

// LogConnectionDeleted logs deletion of a stored connection
func (sl *SecurityLogger) LogConnectionDeleted(ctx context.Context, connectionID string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{slog.String("connection_id", connectionID)}
	sl.logger.SecurityEvent(ctx, string(ConnectionDeleted), append(baseAttrs, attrs...)...)
}

// LogConnectionRead logs decryption of a stored connection's credentials
func (sl *SecurityLogger) LogConnectionRead(ctx context.Context, connectionID string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{slog.String("connection_id", connectionID)}
	sl.logger.SecurityEvent(ctx, string(ConnectionRead), append(baseAttrs, attrs...)...)
}

// LogHostKeyUnknown logs a strict-mode rejection of an unrecognized host key
func (sl *SecurityLogger) LogHostKeyUnknown(ctx context.Context, host string, port int, fingerprint string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("fingerprint", fingerprint),
	}
	sl.logger.SecurityEvent(ctx, string(HostKeyUnknown), append(baseAttrs, attrs...)...)
}

// LogHostKeyAdded logs a warn/accept-mode TOFU store of a new host key
func (sl *SecurityLogger) LogHostKeyAdded(ctx context.Context, host string, port int, fingerprint string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("fingerprint", fingerprint),
	}
	sl.logger.SecurityEvent(ctx, string(HostKeyAdded), append(baseAttrs, attrs...)...)
}

// LogHostKeyChanged logs a rejected handshake because the presented key differs
// from the one on file -- this is always fatal regardless of verification mode.
func (sl *SecurityLogger) LogHostKeyChanged(ctx context.Context, host string, port int, oldFingerprint, newFingerprint string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("old_fingerprint", oldFingerprint),
		slog.String("new_fingerprint", newFingerprint),
	}
	sl.logger.SecurityEvent(ctx, string(HostKeyChanged), append(baseAttrs, attrs...)...)
}

// LogHostKeyAccepted logs a handshake proceeding against a matching known-hosts row
func (sl *SecurityLogger) LogHostKeyAccepted(ctx context.Context, host string, port int, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("host", host),
		slog.Int("port", port),
	}
	sl.logger.SecurityEvent(ctx, string(HostKeyAccepted), append(baseAttrs, attrs...)...)
}

// LogSessionOpened logs a new SSH or local-PTY session coming up
func (sl *SecurityLogger) LogSessionOpened(ctx context.Context, sessionID, kind string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("session_id", sessionID),
		slog.String("kind", kind),
	}
	sl.logger.SecurityEvent(ctx, string(SessionOpened), append(baseAttrs, attrs...)...)
}

// LogSessionClosed logs a session tearing down
func (sl *SecurityLogger) LogSessionClosed(ctx context.Context, sessionID, reason string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("session_id", sessionID),
		slog.String("reason", reason),
	}
	sl.logger.SecurityEvent(ctx, string(SessionClosed), append(baseAttrs, attrs...)...)
}

// LogSessionAuthFailed logs an SSH authentication failure. Never pass the
// password or private key material that was attempted.
func (sl *SecurityLogger) LogSessionAuthFailed(ctx context.Context, host string, port int, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("host", host),
		slog.Int("port", port),
	}
	sl.logger.SecurityEvent(ctx, string(SessionAuthFailed), append(baseAttrs, attrs...)...)
}

// LogSecurityEvent logs a generic security event with a custom event type,
// for call sites that don't fit the predefined categories above.
func (sl *SecurityLogger) LogSecurityEvent(eventType string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{slog.String("event_type", eventType)}
	sl.logger.SecurityEvent(context.Background(), eventType, append(baseAttrs, attrs...)...)
}
