// Package riteerrors defines the closed set of error kinds the bridge can
// return to a client, each mapping to a stable JSON-RPC error code.
package riteerrors

import (
	"fmt"
	"runtime"
)

// Kind is one of a fixed set of error categories a caller can switch on.
type Kind string

const (
	KindFirstRunAlreadyInitialized Kind = "first_run_already_initialized"
	KindWeakPassword               Kind = "weak_password"
	KindLocked                     Kind = "locked"
	KindNotFound                   Kind = "not_found"
	KindInvalidInput               Kind = "invalid_input"
	KindCrypto                     Kind = "crypto"
	KindSchemaTooNew               Kind = "schema_too_new"
	KindMigrationFailed            Kind = "migration_failed"
	KindHostKeyUnknown             Kind = "host_key_unknown"
	KindHostKeyChanged             Kind = "host_key_changed"
	KindAuthFailed                 Kind = "auth_failed"
	KindTransportFailed            Kind = "transport_failed"
	KindPtyFailed                  Kind = "pty_failed"
	KindNoUsableShell              Kind = "no_usable_shell"
	KindRateLimited                Kind = "rate_limited"
)

// rpcCode maps each Kind to a stable code in the JSON-RPC application-reserved
// range (-32000..-32020). Unlisted kinds fall back to -32000 in Code().
var rpcCode = map[Kind]int{
	KindFirstRunAlreadyInitialized: -32001,
	KindWeakPassword:               -32002,
	KindLocked:                     -32003,
	KindNotFound:                   -32004,
	KindInvalidInput:               -32005,
	KindCrypto:                     -32006,
	KindSchemaTooNew:               -32007,
	KindMigrationFailed:            -32008,
	KindHostKeyUnknown:             -32009,
	KindHostKeyChanged:             -32010,
	KindAuthFailed:                 -32011,
	KindTransportFailed:            -32012,
	KindPtyFailed:                  -32013,
	KindNoUsableShell:              -32014,
	KindRateLimited:                -32015,
}

// Error is a riteerrors value: a closed Kind, a human message, optional
// structured fields, the call site it was created at, and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	file    string
	line    int
	cause   error
}

// New builds an Error of kind with message, capturing the caller's location.
func New(kind Kind, message string) *Error {
	e := &Error{Kind: kind, Message: message}
	e.captureLocation()
	return e
}

// Wrap builds an Error of kind that wraps cause.
func Wrap(kind Kind, cause error, message string) *Error {
	e := &Error{Kind: kind, Message: message, cause: cause}
	e.captureLocation()
	return e
}

func (e *Error) captureLocation() {
	if _, file, line, ok := runtime.Caller(2); ok {
		e.file, e.line = file, line
	}
}

// WithField attaches a structured field and returns e for chaining.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the stable JSON-RPC error code for e.Kind.
func (e *Error) Code() int {
	if code, ok := rpcCode[e.Kind]; ok {
		return code
	}
	return -32000
}

// Location renders the file:line this Error was constructed at, useful in
// diagnostic logging (never shown to a client).
func (e *Error) Location() string {
	return fmt.Sprintf("%s:%d", e.file, e.line)
}

// Is supports errors.Is by comparing Kind, so callers can write
// errors.Is(err, riteerrors.New(riteerrors.KindLocked, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
