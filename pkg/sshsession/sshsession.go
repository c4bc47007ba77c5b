// Package sshsession implements the SSH terminal session engine: one
// owning goroutine per remote shell, host-key verification wired through
// pkg/knownhosts and pkg/pendinghostkeys, and a bounded command inbox for
// input/resize/close requests arriving from the RPC layer.
package sshsession

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/armorclaw/bridge/pkg/audit"
	"github.com/armorclaw/bridge/pkg/connections"
	"github.com/armorclaw/bridge/pkg/eventsink"
	"github.com/armorclaw/bridge/pkg/knownhosts"
	"github.com/armorclaw/bridge/pkg/logger"
	"github.com/armorclaw/bridge/pkg/metrics"
	"github.com/armorclaw/bridge/pkg/pendinghostkeys"
	"github.com/armorclaw/bridge/pkg/riteerrors"
	"github.com/armorclaw/bridge/pkg/securerandom"
)

const (
	ptyTerm = "xterm-256color"
	ptyCols = 80
	ptyRows = 24

	// loginShellCmd replaces the handler's non-interactive shell with a login
	// shell. OpenSSH's "want-reply" shell request has no login-shell flag, so
	// this is sent as ordinary channel data once the shell starts.
	loginShellCmd = "exec $SHELL -l\n"

	// loginShellDelay gives a freshly-attached client time to register its
	// output listener before the MOTD arrives.
	loginShellDelay = 200 * time.Millisecond

	// motdByteThreshold is the heuristic for "the login shell has started":
	// a single read over this size, or one containing a distro banner
	// substring, is assumed to be the MOTD rather than the first prompt.
	motdByteThreshold = 200

	commandInboxCapacity = 100
	dialTimeout          = 10 * time.Second
	readBufferSize       = 32 * 1024
)

var motdMarkers = []string{"Linux ", "Debian ", "Ubuntu "}

// ConnectParams groups everything Connect needs to open one session.
type ConnectParams struct {
	ConnectionID       string
	ConnectionName     string
	Hostname           string
	Port               int
	Username           string
	Auth               connections.AuthMethod
	KeepAliveInterval  time.Duration // 0 disables the heartbeat
	ForceAcceptHostKey bool          // quick-connect: bypass the UI host-key prompt
}

// Engine opens SSH sessions, verifying host keys against a shared store
// and routing proposals through a pending-acceptance window for UI prompts.
type Engine struct {
	hosts       *knownhosts.Store
	pending     *pendinghostkeys.Manager
	sink        *eventsink.EventSink
	securityLog *logger.SecurityLogger
	auditLog    *audit.CriticalOperationLogger
}

// New constructs an Engine. auditLog may be nil.
func New(hosts *knownhosts.Store, pending *pendinghostkeys.Manager, sink *eventsink.EventSink, securityLog *logger.SecurityLogger, auditLog *audit.CriticalOperationLogger) *Engine {
	return &Engine{hosts: hosts, pending: pending, sink: sink, securityLog: securityLog, auditLog: auditLog}
}

type commandKind int

const (
	cmdSendInput commandKind = iota
	cmdResize
	cmdClose
)

type sessionCommand struct {
	kind       commandKind
	data       []byte
	cols, rows int
}

// Session is one live SSH-backed terminal. All transport access happens on
// the single goroutine started by Connect; callers only ever write to the
// command channel.
type Session struct {
	ID           string
	ConnectionID string
	commands     chan sessionCommand
}

// SendInput queues raw bytes to be written to the remote pty.
func (s *Session) SendInput(data []byte) error {
	return s.send(sessionCommand{kind: cmdSendInput, data: data})
}

// Resize queues a window-change request.
func (s *Session) Resize(cols, rows int) error {
	return s.send(sessionCommand{kind: cmdResize, cols: cols, rows: rows})
}

// Close queues a graceful shutdown of the session.
func (s *Session) Close() error {
	return s.send(sessionCommand{kind: cmdClose})
}

func (s *Session) send(cmd sessionCommand) error {
	select {
	case s.commands <- cmd:
		return nil
	default:
		return riteerrors.New(riteerrors.KindTransportFailed, "session command inbox full")
	}
}

func loadSigner(keyPath, passphrase string) (ssh.Signer, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
	}
	return ssh.ParsePrivateKey(keyData)
}

func authMethod(auth connections.AuthMethod) (ssh.AuthMethod, error) {
	switch auth.Kind {
	case "password":
		return ssh.Password(auth.Password), nil
	case "public_key":
		signer, err := loadSigner(auth.KeyPath, auth.Passphrase)
		if err != nil {
			return nil, err
		}
		return ssh.PublicKeys(signer), nil
	default:
		return nil, riteerrors.New(riteerrors.KindInvalidInput, "unknown auth method kind: "+auth.Kind)
	}
}

// Connect dials, authenticates, and allocates a pty, then starts the owning
// goroutine. It returns once the pty has been allocated; the shell request
// itself, MOTD suppression, and login-shell promotion happen asynchronously,
// with a shell-request failure surfaced as a terminal-error event rather
// than a Connect error.
func (e *Engine) Connect(ctx context.Context, p ConnectParams) (*Session, error) {
	auth, err := authMethod(p.Auth)
	if err != nil {
		return nil, riteerrors.Wrap(riteerrors.KindAuthFailed, err, "prepare authentication")
	}

	id := securerandom.MustID(16)
	clientConfig := &ssh.ClientConfig{
		User:            p.Username,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: e.hostKeyCallback(p.Hostname, p.Port, p.ForceAcceptHostKey),
		Timeout:         dialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", p.Hostname, p.Port)
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, classifyDialError(err)
	}

	sshSession, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, riteerrors.Wrap(riteerrors.KindTransportFailed, err, "open channel")
	}

	if err := sshSession.RequestPty(ptyTerm, ptyRows, ptyCols, ssh.TerminalModes{}); err != nil {
		sshSession.Close()
		client.Close()
		return nil, riteerrors.Wrap(riteerrors.KindPtyFailed, err, "request pty")
	}

	stdin, err := sshSession.StdinPipe()
	if err != nil {
		sshSession.Close()
		client.Close()
		return nil, riteerrors.Wrap(riteerrors.KindPtyFailed, err, "open stdin")
	}
	stdout, err := sshSession.StdoutPipe()
	if err != nil {
		sshSession.Close()
		client.Close()
		return nil, riteerrors.Wrap(riteerrors.KindPtyFailed, err, "open stdout")
	}

	sess := &Session{ID: id, ConnectionID: p.ConnectionID, commands: make(chan sessionCommand, commandInboxCapacity)}

	go e.start(sess, client, sshSession, stdin, stdout, p.KeepAliveInterval)

	e.sink.Publish(eventsink.NewSessionOpenedEvent(id, p.ConnectionID, "ssh"))
	if e.auditLog != nil {
		_ = e.auditLog.LogSessionOpened(ctx, id, p.ConnectionID, "ssh")
	}

	return sess, nil
}

func classifyDialError(err error) error {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return riteerrors.Wrap(riteerrors.KindAuthFailed, err, "authenticate")
	}
	return riteerrors.Wrap(riteerrors.KindTransportFailed, err, "connect")
}

// hostKeyCallback implements the strict/warn/accept verification-mode table
// against the shared known-hosts store, bridging strict-mode UI prompts
// through the pending-acceptance manager. A changed key is always rejected,
// including when force-accepting for quick-connect.
func (e *Engine) hostKeyCallback(host string, port int, forceAccept bool) ssh.HostKeyCallback {
	return func(_ string, _ net.Addr, key ssh.PublicKey) error {
		ctx := context.Background()
		keyBytes := key.Marshal()
		keyType := key.Type()
		fp := knownhosts.Fingerprint(keyBytes)

		outcome, err := e.hosts.Verify(host, port, keyBytes)
		if err != nil {
			return riteerrors.Wrap(riteerrors.KindTransportFailed, err, "verify host key")
		}

		if outcome == knownhosts.Changed {
			oldFP, _ := e.hosts.CurrentFingerprint(host, port)
			e.securityLog.LogHostKeyChanged(ctx, host, port, oldFP, fp)
			if e.auditLog != nil {
				_ = e.auditLog.LogHostKeyDecision(ctx, host, port, "changed", fp)
			}
			e.sink.Publish(eventsink.NewHostKeyChangedEvent(host, port, oldFP, fp))
			metrics.HostKeyEvents.WithLabelValues("changed").Inc()
			return riteerrors.New(riteerrors.KindHostKeyChanged, "host key changed for "+host)
		}

		if outcome == knownhosts.Accepted {
			return nil
		}

		if forceAccept {
			if err := e.hosts.AddHostKey(host, port, keyType, keyBytes); err != nil {
				return riteerrors.Wrap(riteerrors.KindCrypto, err, "store host key")
			}
			if e.auditLog != nil {
				_ = e.auditLog.LogHostKeyDecision(ctx, host, port, "added", fp)
			}
			metrics.HostKeyEvents.WithLabelValues("added").Inc()
			return nil
		}

		switch e.hosts.VerificationMode() {
		case "strict":
			if e.pending.IsAccepted(host, port) {
				if err := e.hosts.AddHostKey(host, port, keyType, keyBytes); err != nil {
					return riteerrors.Wrap(riteerrors.KindCrypto, err, "store host key")
				}
				if e.auditLog != nil {
					_ = e.auditLog.LogHostKeyDecision(ctx, host, port, "added", fp)
				}
				metrics.HostKeyEvents.WithLabelValues("added").Inc()
				return nil
			}
			e.pending.AddPending(pendinghostkeys.Info{Host: host, Port: port, KeyType: keyType, Fingerprint: fp, PublicKey: keyBytes})
			e.securityLog.LogHostKeyUnknown(ctx, host, port, fp)
			if e.auditLog != nil {
				_ = e.auditLog.LogHostKeyDecision(ctx, host, port, "rejected", fp)
			}
			e.sink.Publish(eventsink.NewHostKeyUnknownEvent(host, port, fp, keyType))
			metrics.HostKeyEvents.WithLabelValues("rejected").Inc()
			return riteerrors.New(riteerrors.KindHostKeyUnknown, "host key unknown for "+host)
		case "warn":
			if err := e.hosts.AddHostKey(host, port, keyType, keyBytes); err != nil {
				return riteerrors.Wrap(riteerrors.KindCrypto, err, "store host key")
			}
			e.securityLog.LogHostKeyAdded(ctx, host, port, fp)
			if e.auditLog != nil {
				_ = e.auditLog.LogHostKeyDecision(ctx, host, port, "added", fp)
			}
			e.sink.Publish(eventsink.NewHostKeyAddedEvent(host, port, fp, keyType))
			metrics.HostKeyEvents.WithLabelValues("added").Inc()
			return nil
		default: // "accept"
			if err := e.hosts.AddHostKey(host, port, keyType, keyBytes); err != nil {
				return riteerrors.Wrap(riteerrors.KindCrypto, err, "store host key")
			}
			if e.auditLog != nil {
				_ = e.auditLog.LogHostKeyDecision(ctx, host, port, "added", fp)
			}
			metrics.HostKeyEvents.WithLabelValues("added").Inc()
			return nil
		}
	}
}
