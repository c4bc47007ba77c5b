package sshsession

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/armorclaw/bridge/pkg/eventsink"
)

// start requests the shell on sshSession and, on success, hands off to run.
// Spawned as its own goroutine so a shell-request failure surfaces as an
// async terminal-error event instead of a synchronous Connect error.
func (e *Engine) start(sess *Session, client *ssh.Client, sshSession *ssh.Session, stdin io.WriteCloser, stdout io.Reader, keepAlive time.Duration) {
	if err := sshSession.Shell(); err != nil {
		e.sink.Publish(eventsink.NewSessionErrorEvent(sess.ID, "start shell: "+err.Error()))
		sshSession.Close()
		client.Close()
		return
	}
	e.run(sess, client, sshSession, stdin, stdout, keepAlive)
}

// run owns client/sshSession/stdin/stdout for the lifetime of sess. It sends
// the login-shell promotion command, suppresses the shell's first prompt
// until the MOTD heuristic fires, then multiplexes terminal output against
// the command inbox and an optional keep-alive heartbeat until the shell
// exits, the peer disconnects, or Close is requested.
func (e *Engine) run(sess *Session, client *ssh.Client, sshSession *ssh.Session, stdin io.WriteCloser, stdout io.Reader, keepAlive time.Duration) {
	defer client.Close()
	defer sshSession.Close()

	if _, err := stdin.Write([]byte(loginShellCmd)); err != nil {
		e.sink.Publish(eventsink.NewSessionErrorEvent(sess.ID, "failed to start login shell: "+err.Error()))
	}
	time.Sleep(loginShellDelay)

	dataCh := make(chan []byte, 64)
	readErrCh := make(chan error, 1)
	go pumpOutput(stdout, dataCh, readErrCh)

	waitCh := make(chan error, 1)
	go func() { waitCh <- sshSession.Wait() }()

	var keepAliveTick <-chan time.Time
	if keepAlive > 0 {
		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		keepAliveTick = ticker.C
	}

	loginShellStarted := false

	for {
		select {
		case cmd, ok := <-sess.commands:
			if !ok {
				return
			}
			switch cmd.kind {
			case cmdSendInput:
				if _, err := stdin.Write(cmd.data); err != nil {
					e.closeSession(sess, "error")
					return
				}
			case cmdResize:
				_ = sshSession.WindowChange(cmd.rows, cmd.cols)
			case cmdClose:
				e.closeSession(sess, "closed")
				return
			}

		case chunk, ok := <-dataCh:
			if !ok {
				continue
			}
			if !loginShellStarted {
				if len(chunk) > motdByteThreshold || containsAny(chunk, motdMarkers) {
					loginShellStarted = true
				} else {
					continue
				}
			}
			if bytes.Contains(chunk, []byte("exec $SHELL")) {
				continue
			}
			e.sink.Publish(eventsink.NewTerminalDataEvent(sess.ID, chunk))

		case err := <-readErrCh:
			if err != nil && err != io.EOF {
				e.sink.Publish(eventsink.NewConnectionDeadEvent(sess.ID, err.Error()))
			}
			e.closeSession(sess, "eof")
			return

		case err := <-waitCh:
			exitCode := exitCodeFromWait(err)
			e.sink.Publish(eventsink.NewTerminalExitEvent(sess.ID, exitCode))
			e.logSessionClosed(sess, "exit")
			return

		case <-keepAliveTick:
			if err := sshSession.WindowChange(ptyRows, ptyCols); err != nil {
				e.sink.Publish(eventsink.NewConnectionDeadEvent(sess.ID, "keep-alive failed: "+err.Error()))
				e.closeSession(sess, "dead")
				return
			}
		}
	}
}

func (e *Engine) closeSession(sess *Session, reason string) {
	e.sink.Publish(eventsink.NewSessionClosedEvent(sess.ID, reason))
	e.logSessionClosed(sess, reason)
}

func (e *Engine) logSessionClosed(sess *Session, reason string) {
	if e.auditLog != nil {
		_ = e.auditLog.LogSessionClosed(context.Background(), sess.ID, sess.ConnectionID, reason)
	}
}

func exitCodeFromWait(err error) *int {
	if err == nil {
		zero := 0
		return &zero
	}
	if exitErr, ok := err.(*ssh.ExitError); ok {
		code := exitErr.ExitStatus()
		return &code
	}
	return nil
}

func pumpOutput(r io.Reader, dataCh chan<- []byte, errCh chan<- error) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			dataCh <- chunk
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func containsAny(data []byte, markers []string) bool {
	s := string(data)
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
