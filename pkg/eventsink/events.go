// Package eventsink provides event types broadcast to bridge clients.
// Events are delivered to subscribers as JSON-RPC notifications over the
// same Unix socket connections used for requests; see pkg/rpc.
package eventsink

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Event type constants for all bridge-originated events
const (
	EventTypeSessionOpened = "session.opened"
	EventTypeSessionClosed = "session.closed"
	EventTypeSessionError  = "session.error"
	EventTypeTerminalExit  = "terminal.exit"

	EventTypeHostKeyUnknown = "hostkey.unknown"
	EventTypeHostKeyChanged = "hostkey.changed"
	EventTypeHostKeyAdded   = "hostkey.added"

	EventTypeConnectionCreated = "connection.created"
	EventTypeConnectionUpdated = "connection.updated"
	EventTypeConnectionDeleted = "connection.deleted"

	EventTypeVaultLocked   = "vault.locked"
	EventTypeVaultUnlocked = "vault.unlocked"

	EventTypeTerminalData  = "terminal.data"
	EventTypeConnectionDead = "connection.dead"
)

// SinkEvent is implemented by every event type published through the sink
type SinkEvent interface {
	EventType() string
	Timestamp() time.Time
	ToJSON() ([]byte, error)
}

// BaseEvent provides the fields common to every event
type BaseEvent struct {
	Type string    `json:"type"`
	Ts   time.Time `json:"timestamp"`
}

func (e *BaseEvent) EventType() string    { return e.Type }
func (e *BaseEvent) Timestamp() time.Time { return e.Ts }
func (e *BaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SessionOpenedEvent is emitted when an SSH or local-PTY session comes up
type SessionOpenedEvent struct {
	BaseEvent
	SessionID    string `json:"session_id"`
	ConnectionID string `json:"connection_id,omitempty"`
	Kind         string `json:"kind"` // "ssh" or "local"
}

func NewSessionOpenedEvent(sessionID, connectionID, kind string) *SessionOpenedEvent {
	return &SessionOpenedEvent{
		BaseEvent:    BaseEvent{Type: EventTypeSessionOpened, Ts: time.Now()},
		SessionID:    sessionID,
		ConnectionID: connectionID,
		Kind:         kind,
	}
}

func (e *SessionOpenedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// SessionClosedEvent is emitted when a session tears down without a
// process exit status to report: EOF, a peer disconnect, a keep-alive
// failure, or an explicit close request. A clean process exit is reported
// separately by TerminalExitEvent.
type SessionClosedEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

func NewSessionClosedEvent(sessionID, reason string) *SessionClosedEvent {
	return &SessionClosedEvent{
		BaseEvent: BaseEvent{Type: EventTypeSessionClosed, Ts: time.Now()},
		SessionID: sessionID,
		Reason:    reason,
	}
}

func (e *SessionClosedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// TerminalExitEvent is emitted once when a session's shell or remote
// command exits, carrying its exit status. Distinct from
// SessionClosedEvent, which never carries an exit code.
type TerminalExitEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	ExitCode  *int   `json:"exit_code,omitempty"`
}

func NewTerminalExitEvent(sessionID string, exitCode *int) *TerminalExitEvent {
	return &TerminalExitEvent{
		BaseEvent: BaseEvent{Type: EventTypeTerminalExit, Ts: time.Now()},
		SessionID: sessionID,
		ExitCode:  exitCode,
	}
}

func (e *TerminalExitEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// SessionErrorEvent is emitted when a session hits a fatal I/O or auth error
type SessionErrorEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func NewSessionErrorEvent(sessionID, message string) *SessionErrorEvent {
	return &SessionErrorEvent{
		BaseEvent: BaseEvent{Type: EventTypeSessionError, Ts: time.Now()},
		SessionID: sessionID,
		Message:   message,
	}
}

func (e *SessionErrorEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// HostKeyUnknownEvent is emitted when a handshake stalls on an unrecognized host key
type HostKeyUnknownEvent struct {
	BaseEvent
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Fingerprint string `json:"fingerprint"`
	Algorithm   string `json:"algorithm"`
}

func NewHostKeyUnknownEvent(host string, port int, fingerprint, algorithm string) *HostKeyUnknownEvent {
	return &HostKeyUnknownEvent{
		BaseEvent:   BaseEvent{Type: EventTypeHostKeyUnknown, Ts: time.Now()},
		Host:        host,
		Port:        port,
		Fingerprint: fingerprint,
		Algorithm:   algorithm,
	}
}

func (e *HostKeyUnknownEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// HostKeyChangedEvent is emitted when a presented key differs from the one on file
type HostKeyChangedEvent struct {
	BaseEvent
	Host           string `json:"host"`
	Port           int    `json:"port"`
	OldFingerprint string `json:"old_fingerprint"`
	NewFingerprint string `json:"new_fingerprint"`
}

func NewHostKeyChangedEvent(host string, port int, oldFP, newFP string) *HostKeyChangedEvent {
	return &HostKeyChangedEvent{
		BaseEvent:      BaseEvent{Type: EventTypeHostKeyChanged, Ts: time.Now()},
		Host:           host,
		Port:           port,
		OldFingerprint: oldFP,
		NewFingerprint: newFP,
	}
}

func (e *HostKeyChangedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// ConnectionChangedEvent is emitted on create/update/delete of a stored connection
type ConnectionChangedEvent struct {
	BaseEvent
	ConnectionID string `json:"connection_id"`
}

func NewConnectionChangedEvent(eventType, connectionID string) *ConnectionChangedEvent {
	return &ConnectionChangedEvent{
		BaseEvent:    BaseEvent{Type: eventType, Ts: time.Now()},
		ConnectionID: connectionID,
	}
}

func (e *ConnectionChangedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// VaultStateEvent is emitted when the vault locks or unlocks
type VaultStateEvent struct {
	BaseEvent
}

func NewVaultStateEvent(eventType string) *VaultStateEvent {
	return &VaultStateEvent{BaseEvent: BaseEvent{Type: eventType, Ts: time.Now()}}
}

func (e *VaultStateEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// HostKeyAddedEvent is emitted when a host key is learned without a strict
// UI prompt: warn mode auto-trusts, and accept mode (including
// force-accept) is always silent.
type HostKeyAddedEvent struct {
	BaseEvent
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Fingerprint string `json:"fingerprint"`
	Algorithm   string `json:"algorithm"`
}

func NewHostKeyAddedEvent(host string, port int, fingerprint, algorithm string) *HostKeyAddedEvent {
	return &HostKeyAddedEvent{
		BaseEvent:   BaseEvent{Type: EventTypeHostKeyAdded, Ts: time.Now()},
		Host:        host,
		Port:        port,
		Fingerprint: fingerprint,
		Algorithm:   algorithm,
	}
}

func (e *HostKeyAddedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// TerminalDataEvent carries one chunk of base64-encoded output from a
// session's pty, in the order it was read.
type TerminalDataEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Data      string `json:"data"` // base64
}

func NewTerminalDataEvent(sessionID string, data []byte) *TerminalDataEvent {
	return &TerminalDataEvent{
		BaseEvent: BaseEvent{Type: EventTypeTerminalData, Ts: time.Now()},
		SessionID: sessionID,
		Data:      base64.StdEncoding.EncodeToString(data),
	}
}

func (e *TerminalDataEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// ConnectionDeadEvent is emitted when a session's underlying transport
// drops without a clean shell exit (broken pipe, reset, timeout).
type ConnectionDeadEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

func NewConnectionDeadEvent(sessionID, reason string) *ConnectionDeadEvent {
	return &ConnectionDeadEvent{
		BaseEvent: BaseEvent{Type: EventTypeConnectionDead, Ts: time.Now()},
		SessionID: sessionID,
		Reason:    reason,
	}
}

func (e *ConnectionDeadEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }
