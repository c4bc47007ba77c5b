// Package localsession implements the local pty session engine: spawning an
// interactive login shell on the machine the bridge runs on and speaking the
// same data/resize/close protocol as pkg/sshsession, so the session registry
// can treat both transports identically.
package localsession

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/creack/pty"

	"github.com/armorclaw/bridge/pkg/audit"
	"github.com/armorclaw/bridge/pkg/eventsink"
	"github.com/armorclaw/bridge/pkg/logger"
	"github.com/armorclaw/bridge/pkg/riteerrors"
	"github.com/armorclaw/bridge/pkg/securerandom"
)

const (
	ptyCols              = 80
	ptyRows              = 24
	commandInboxCapacity = 100
	readBufferSize       = 8192
)

// shellFallbacks is tried in order when neither the caller's requested shell
// nor $SHELL exists on disk.
var shellFallbacks = []string{
	"/usr/bin/bash",
	"/usr/bin/fish",
	"/usr/bin/sh",
	"/bin/bash",
	"/bin/sh",
}

func pathExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

// resolveShell picks requested if it exists, else $SHELL, else the first
// existing entry in shellFallbacks.
func resolveShell(requested string) (string, error) {
	if pathExists(requested) {
		return requested, nil
	}
	if env := os.Getenv("SHELL"); pathExists(env) {
		return env, nil
	}
	for _, candidate := range shellFallbacks {
		if pathExists(candidate) {
			return candidate, nil
		}
	}
	return "", riteerrors.New(riteerrors.KindNoUsableShell, "no usable shell found on system")
}

// InstalledShells reports which candidate shells actually exist on disk:
// $SHELL first if set and present, then shellFallbacks, deduplicated.
func InstalledShells() []string {
	var out []string
	seen := make(map[string]bool)

	add := func(p string) {
		if p != "" && !seen[p] && pathExists(p) {
			seen[p] = true
			out = append(out, p)
		}
	}

	add(os.Getenv("SHELL"))
	for _, candidate := range shellFallbacks {
		add(candidate)
	}
	return out
}

// fishEnv returns the extra environment variables that suppress fish's
// terminal-capability queries (device-attribute probes that would otherwise
// leak into the pty's output stream before the prompt is ready).
func fishEnv() []string {
	return []string{
		"fish_features=no-query-term",
		"fish_term24bit=1",
		"fish_wcwidth_version=3",
		"fish_ambiguous_width=1",
		"TERM_PROGRAM=vscode",
		"TERM_PROGRAM_VERSION=1.0.0",
	}
}

// Engine spawns local pty-backed shell sessions.
type Engine struct {
	sink        *eventsink.EventSink
	securityLog *logger.SecurityLogger
	auditLog    *audit.CriticalOperationLogger
}

// New constructs an Engine. auditLog may be nil.
func New(sink *eventsink.EventSink, securityLog *logger.SecurityLogger, auditLog *audit.CriticalOperationLogger) *Engine {
	return &Engine{sink: sink, securityLog: securityLog, auditLog: auditLog}
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

// Session is one live local-shell terminal.
type Session struct {
	ID       string
	commands chan sessionCommand
}

func (s *Session) SendInput(data []byte) error {
	return s.send(sessionCommand{kind: cmdSendInput, data: data})
}

func (s *Session) Resize(cols, rows int) error {
	return s.send(sessionCommand{kind: cmdResize, cols: cols, rows: rows})
}

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

// Spawn resolves a shell, starts it attached to a pty, and starts the
// owning goroutine. requestedShell may be empty to use the fallback chain.
func (e *Engine) Spawn(ctx context.Context, requestedShell string) (*Session, error) {
	shellPath, err := resolveShell(requestedShell)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(shellPath, "-l")
	cmd.Env = append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")
	if filepath.Base(shellPath) == "fish" {
		cmd.Env = append(cmd.Env, fishEnv()...)
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: ptyRows, Cols: ptyCols})
	if err != nil {
		return nil, riteerrors.Wrap(riteerrors.KindPtyFailed, err, fmt.Sprintf("spawn shell %s", shellPath))
	}

	id := securerandom.MustID(16)
	sess := &Session{ID: id, commands: make(chan sessionCommand, commandInboxCapacity)}

	go e.run(sess, cmd, ptmx)

	e.sink.Publish(eventsink.NewSessionOpenedEvent(id, "", "local"))
	if e.auditLog != nil {
		_ = e.auditLog.LogSessionOpened(ctx, id, "", "local")
	}

	return sess, nil
}
