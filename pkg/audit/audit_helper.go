// Package audit provides audit logging helpers for critical operations
package audit

import (
	"context"
	"sync"
)

// CriticalOperationLogger provides audit logging for critical operations
type CriticalOperationLogger struct {
	auditLog *TamperEvidentLog
	mu       sync.RWMutex
}

// NewCriticalOperationLogger creates a new critical operation logger
func NewCriticalOperationLogger(auditLog *TamperEvidentLog) *CriticalOperationLogger {
	return &CriticalOperationLogger{
		auditLog: auditLog,
	}
}

// SetAuditLog updates the audit log
func (l *CriticalOperationLogger) SetAuditLog(auditLog *TamperEvidentLog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.auditLog = auditLog
}

// LogVaultSetup logs initial master-password setup
func (l *CriticalOperationLogger) LogVaultSetup(ctx context.Context, strengthScore int) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	_, err := auditLog.LogEntry("vault_setup",
		Actor{Type: "user", ID: "local"},
		"setup",
		Resource{Type: "vault", ID: "default"},
		map[string]interface{}{"strength_score": strengthScore},
		ComplianceFlags{Category: "access", Severity: "medium", AuditRequired: true},
	)
	return err
}

// LogVaultUnlock logs an unlock attempt and its outcome. Never pass the password itself.
func (l *CriticalOperationLogger) LogVaultUnlock(ctx context.Context, success bool, rateLimited bool) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	severity := "low"
	eventType := "vault_unlock_success"
	if !success {
		severity = "medium"
		eventType = "vault_unlock_failure"
	}
	if rateLimited {
		severity = "high"
		eventType = "vault_unlock_rate_limited"
	}

	_, err := auditLog.LogEntry(eventType,
		Actor{Type: "user", ID: "local"},
		"unlock",
		Resource{Type: "vault", ID: "default"},
		map[string]interface{}{"success": success, "rate_limited": rateLimited},
		ComplianceFlags{Category: "access", Severity: severity, AuditRequired: true},
	)
	return err
}

// LogVaultLock logs the vault locking, either explicitly or on process exit
func (l *CriticalOperationLogger) LogVaultLock(ctx context.Context) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	_, err := auditLog.LogEntry("vault_locked",
		Actor{Type: "user", ID: "local"},
		"lock",
		Resource{Type: "vault", ID: "default"},
		nil,
		ComplianceFlags{Category: "access", Severity: "low"},
	)
	return err
}

// LogVaultReset logs a destructive reset of the vault database
func (l *CriticalOperationLogger) LogVaultReset(ctx context.Context) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	_, err := auditLog.LogEntry("vault_reset",
		Actor{Type: "user", ID: "local"},
		"reset",
		Resource{Type: "vault", ID: "default"},
		nil,
		ComplianceFlags{Category: "deletion", Severity: "critical", AuditRequired: true},
	)
	return err
}

// LogConnectionCreated logs creation of a stored connection. Never pass credentials.
func (l *CriticalOperationLogger) LogConnectionCreated(ctx context.Context, connectionID string) error {
	return l.logConnectionChange(connectionID, "create", "modification", "low")
}

// LogConnectionUpdated logs mutation of a stored connection
func (l *CriticalOperationLogger) LogConnectionUpdated(ctx context.Context, connectionID string) error {
	return l.logConnectionChange(connectionID, "update", "modification", "low")
}

// LogConnectionDeleted logs deletion of a stored connection
func (l *CriticalOperationLogger) LogConnectionDeleted(ctx context.Context, connectionID string) error {
	return l.logConnectionChange(connectionID, "delete", "deletion", "medium")
}

func (l *CriticalOperationLogger) logConnectionChange(connectionID, action, category, severity string) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	_, err := auditLog.LogEntry("connection_"+action,
		Actor{Type: "user", ID: "local"},
		action,
		Resource{Type: "connection", ID: connectionID},
		nil,
		ComplianceFlags{Category: category, Severity: severity, AuditRequired: true},
	)
	return err
}

// LogHostKeyDecision logs a TOFU host-key acceptance, rejection, or mismatch
func (l *CriticalOperationLogger) LogHostKeyDecision(ctx context.Context, host string, port int, action, fingerprint string) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	severity := "low"
	if action == "changed" {
		severity = "critical"
	}

	_, err := auditLog.LogEntry("host_key_"+action,
		Actor{Type: "user", ID: "local"},
		action,
		Resource{Type: "host_key", ID: host},
		map[string]interface{}{"port": port, "fingerprint": fingerprint},
		ComplianceFlags{Category: "access", Severity: severity, AuditRequired: true},
	)
	return err
}

// LogSessionOpened logs a new SSH or local-PTY session coming up
func (l *CriticalOperationLogger) LogSessionOpened(ctx context.Context, sessionID, connectionID, kind string) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	_, err := auditLog.LogEntry("session_opened",
		Actor{Type: "user", ID: "local", SessionID: sessionID},
		"open",
		Resource{Type: "connection", ID: connectionID},
		map[string]interface{}{"kind": kind},
		ComplianceFlags{Category: "access", Severity: "low"},
	)
	return err
}

// LogSessionClosed logs a session tearing down
func (l *CriticalOperationLogger) LogSessionClosed(ctx context.Context, sessionID, connectionID, reason string) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	_, err := auditLog.LogEntry("session_closed",
		Actor{Type: "user", ID: "local", SessionID: sessionID},
		"close",
		Resource{Type: "connection", ID: connectionID},
		map[string]interface{}{"reason": reason},
		ComplianceFlags{Category: "access", Severity: "low"},
	)
	return err
}

// LogConfigurationChange logs a configuration change
func (l *CriticalOperationLogger) LogConfigurationChange(ctx context.Context, section, key string, oldValue, newValue interface{}) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	_, err := auditLog.LogEntry("config_change",
		Actor{Type: "user", ID: "local"},
		"change",
		Resource{Type: "configuration", ID: section},
		map[string]interface{}{"key": key, "old_value": oldValue, "new_value": newValue},
		ComplianceFlags{Category: "modification", Severity: "medium", AuditRequired: true},
	)
	return err
}

// LogSecurityEvent logs a security-related event that doesn't fit the categories above
func (l *CriticalOperationLogger) LogSecurityEvent(ctx context.Context, eventType, severity string, details map[string]interface{}) error {
	l.mu.RLock()
	auditLog := l.auditLog
	l.mu.RUnlock()
	if auditLog == nil {
		return nil
	}

	_, err := auditLog.LogEntry(eventType,
		Actor{Type: "system", ID: "bridge"},
		"security_event",
		Resource{Type: "security", ID: eventType},
		details,
		ComplianceFlags{Category: "access", Severity: severity, AuditRequired: true},
	)
	return err
}

// Global audit logger instance
var globalAuditLogger *CriticalOperationLogger
var globalAuditMu sync.RWMutex

// SetGlobalAuditLogger sets the global audit logger
func SetGlobalAuditLogger(logger *CriticalOperationLogger) {
	globalAuditMu.Lock()
	defer globalAuditMu.Unlock()
	globalAuditLogger = logger
}

// GetGlobalAuditLogger gets the global audit logger
func GetGlobalAuditLogger() *CriticalOperationLogger {
	globalAuditMu.RLock()
	defer globalAuditMu.RUnlock()
	return globalAuditLogger
}
