package localsession

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"

	"github.com/armorclaw/bridge/pkg/eventsink"
)

// run owns cmd/ptmx for the lifetime of sess: it pumps pty output to the
// sink, applies inbox commands, and waits for the shell to exit.
func (e *Engine) run(sess *Session, cmd *exec.Cmd, ptmx *os.File) {
	defer ptmx.Close()

	dataCh := make(chan []byte, 64)
	readErrCh := make(chan error, 1)
	go pumpOutput(ptmx, dataCh, readErrCh)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	for {
		select {
		case cmd, ok := <-sess.commands:
			if !ok {
				return
			}
			switch cmd.kind {
			case cmdSendInput:
				if _, err := ptmx.Write(cmd.data); err != nil {
					e.closeSession(sess, "error")
					return
				}
			case cmdResize:
				_ = pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(cmd.rows), Cols: uint16(cmd.cols)})
			case cmdClose:
				_ = ptmx.Close()
				e.closeSession(sess, "closed")
				return
			}

		case chunk, ok := <-dataCh:
			if !ok {
				continue
			}
			e.sink.Publish(eventsink.NewTerminalDataEvent(sess.ID, chunk))

		case err := <-readErrCh:
			if err != nil && err != io.EOF {
				e.sink.Publish(eventsink.NewConnectionDeadEvent(sess.ID, err.Error()))
			}

		case err := <-waitCh:
			exitCode := exitCodeFromWait(err)
			e.sink.Publish(eventsink.NewTerminalExitEvent(sess.ID, exitCode))
			e.logSessionClosed(sess, "exit")
			return
		}
	}
}

func (e *Engine) closeSession(sess *Session, reason string) {
	e.sink.Publish(eventsink.NewSessionClosedEvent(sess.ID, reason))
	e.logSessionClosed(sess, reason)
}

func (e *Engine) logSessionClosed(sess *Session, reason string) {
	if e.auditLog != nil {
		_ = e.auditLog.LogSessionClosed(context.Background(), sess.ID, "", reason)
	}
}

func exitCodeFromWait(err error) *int {
	if err == nil {
		zero := 0
		return &zero
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
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
