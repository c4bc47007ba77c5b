// Package sessionregistry tracks active terminal sessions, whichever
// transport backs them, behind one id-keyed map. It owns no transport state
// itself -- pkg/sshsession and pkg/localsession each run their own goroutine
// per session -- and only ever touches the map under its own mutex.
package sessionregistry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/armorclaw/bridge/pkg/connections"
	"github.com/armorclaw/bridge/pkg/localsession"
	"github.com/armorclaw/bridge/pkg/metrics"
	"github.com/armorclaw/bridge/pkg/riteerrors"
	"github.com/armorclaw/bridge/pkg/sshsession"
)

const defaultKeepAliveInterval = 30 * time.Second

// terminalSession is the shape both sshsession.Session and
// localsession.Session satisfy.
type terminalSession interface {
	SendInput(data []byte) error
	Resize(cols, rows int) error
	Close() error
}

type entry struct {
	session      terminalSession
	kind         string // "ssh" or "local"
	connectionID string
	openedAt     time.Time
}

// Registry is the thread-safe session-id -> session map.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]entry
	connections *connections.Manager
	sshEngine   *sshsession.Engine
	localEngine *localsession.Engine
}

// New constructs an empty Registry.
func New(conns *connections.Manager, sshEngine *sshsession.Engine, localEngine *localsession.Engine) *Registry {
	return &Registry{
		sessions:    make(map[string]entry),
		connections: conns,
		sshEngine:   sshEngine,
		localEngine: localEngine,
	}
}

// resolveKeepAlive turns a connection's keep-alive override and interval
// into a duration, 0 meaning disabled. An "enabled" override with no
// interval set defaults to 30 seconds. Per-connection only: there is no
// global fallback when override is nil.
func resolveKeepAlive(override *string, intervalSeconds *int) time.Duration {
	if override == nil || *override != "enabled" {
		return 0
	}
	if intervalSeconds != nil && *intervalSeconds > 0 {
		return time.Duration(*intervalSeconds) * time.Second
	}
	return defaultKeepAliveInterval
}

// CreateSSH opens an SSH session for a stored connection. Requires the
// vault to be Unlocked (connections.Get enforces this). Failing to update
// last_used_at afterward is ignored and does not fail the connection.
func (r *Registry) CreateSSH(ctx context.Context, connectionID string) (string, error) {
	conn, err := r.connections.Get(connectionID)
	if err != nil {
		return "", err
	}

	sess, err := r.sshEngine.Connect(ctx, sshsession.ConnectParams{
		ConnectionID:       conn.ID,
		ConnectionName:     conn.Name,
		Hostname:           conn.Hostname,
		Port:               conn.Port,
		Username:           conn.Username,
		Auth:               conn.Auth,
		KeepAliveInterval:  resolveKeepAlive(conn.KeepAlive, conn.KeepAliveInterval),
		ForceAcceptHostKey: false,
	})
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.sessions[sess.ID] = entry{session: sess, kind: "ssh", connectionID: conn.ID, openedAt: time.Now()}
	r.mu.Unlock()
	metrics.SessionsOpened.WithLabelValues("ssh").Inc()
	metrics.SessionsActive.WithLabelValues("ssh").Inc()

	_ = r.connections.MarkUsed(conn.ID) // best-effort; a stale last_used_at is not fatal

	return sess.ID, nil
}

// CreateLocal spawns a local pty session. requestedShell may be empty.
func (r *Registry) CreateLocal(ctx context.Context, requestedShell string) (string, error) {
	sess, err := r.localEngine.Spawn(ctx, requestedShell)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.sessions[sess.ID] = entry{session: sess, kind: "local", openedAt: time.Now()}
	r.mu.Unlock()
	metrics.SessionsOpened.WithLabelValues("local").Inc()
	metrics.SessionsActive.WithLabelValues("local").Inc()

	return sess.ID, nil
}

// QuickSSHParams describes an ad-hoc SSH connection that bypasses the vault
// entirely: nothing here is persisted, and the host key is force-accepted.
type QuickSSHParams struct {
	Hostname          string
	Port              int
	Username          string
	Auth              connections.AuthMethod
	KeepAliveOverride *string
	KeepAliveInterval *int
}

// CreateQuickSSH opens an SSH session without touching the vault or
// known-hosts UI flow: the host key is force-accepted (TOFU), matching
// `ssh -o StrictHostKeyChecking=accept-new` semantics.
func (r *Registry) CreateQuickSSH(ctx context.Context, p QuickSSHParams) (string, error) {
	sess, err := r.sshEngine.Connect(ctx, sshsession.ConnectParams{
		Hostname:           p.Hostname,
		Port:               p.Port,
		Username:           p.Username,
		Auth:               p.Auth,
		KeepAliveInterval:  resolveKeepAlive(p.KeepAliveOverride, p.KeepAliveInterval),
		ForceAcceptHostKey: true,
	})
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.sessions[sess.ID] = entry{session: sess, kind: "ssh", openedAt: time.Now()}
	r.mu.Unlock()
	metrics.SessionsOpened.WithLabelValues("ssh").Inc()
	metrics.SessionsActive.WithLabelValues("ssh").Inc()

	return sess.ID, nil
}

func (r *Registry) get(sessionID string) (entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return entry{}, riteerrors.New(riteerrors.KindNotFound, fmt.Sprintf("session %q not found", sessionID))
	}
	return e, nil
}

// SendInput queues data to sessionID's transport.
func (r *Registry) SendInput(sessionID string, data []byte) error {
	e, err := r.get(sessionID)
	if err != nil {
		return err
	}
	return e.session.SendInput(data)
}

// Resize queues a window-change for sessionID.
func (r *Registry) Resize(sessionID string, cols, rows int) error {
	e, err := r.get(sessionID)
	if err != nil {
		return err
	}
	return e.session.Resize(cols, rows)
}

// Close removes sessionID from the registry and queues its shutdown.
func (r *Registry) Close(sessionID string) error {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return riteerrors.New(riteerrors.KindNotFound, fmt.Sprintf("session %q not found", sessionID))
	}
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	metrics.SessionsActive.WithLabelValues(e.kind).Dec()
	if !e.openedAt.IsZero() {
		metrics.SessionDuration.WithLabelValues(e.kind).Observe(time.Since(e.openedAt).Seconds())
	}

	return e.session.Close()
}

// SessionInfo is a listing row returned by List.
type SessionInfo struct {
	ID           string
	Kind         string
	ConnectionID string
}

// List returns every active session.
func (r *Registry) List() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for id, e := range r.sessions {
		out = append(out, SessionInfo{ID: id, Kind: e.kind, ConnectionID: e.connectionID})
	}
	return out
}

// CloseAll requests shutdown of every active session, best-effort: one
// session's Close error does not stop the rest from being attempted.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		_ = r.Close(id)
	}
}
