// Package pty is the dual-shell supervisor: up to two interactive shell
// processes, one per side ("left"/"right"), each with a dedicated reader
// goroutine pumping output chunks to a caller-supplied sink. Each side has
// a disposable lifecycle — spawn, write/resize, exit or kill, slot empty.
package pty

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"splitcmd/internal/apperr"
	"splitcmd/internal/model"
)

// OutputSink receives one chunk of shell output at a time, in the order
// produced by the shell, and is notified once when the shell exits.
type OutputSink interface {
	OnOutput(side model.Side, data []byte)
	OnExit(side model.Side)
}

type session struct {
	mu   sync.Mutex
	ptmx *os.File
	cmd  *exec.Cmd
}

func (s *session) alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// Supervisor owns both PTY slots. killGrace bounds how long Kill waits
// after SIGHUP before escalating to SIGKILL.
type Supervisor struct {
	shellOverride string
	killGrace     time.Duration

	left  session
	right session
}

func New(shellOverride string, killGrace time.Duration) *Supervisor {
	if killGrace <= 0 {
		killGrace = 2 * time.Second
	}
	return &Supervisor{shellOverride: shellOverride, killGrace: killGrace}
}

func (s *Supervisor) slot(side model.Side) *session {
	if side == model.SideLeft {
		return &s.left
	}
	return &s.right
}

// Spawn starts a shell in cwd with the given window size on side. A
// no-op if a shell is already alive on that side.
func (s *Supervisor) Spawn(side model.Side, cwd string, rows, cols uint16, sink OutputSink) error {
	slot := s.slot(side)
	if slot.alive() {
		return nil
	}

	shell := s.shellOverride
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.Command(shell)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return apperr.Wrap(apperr.LaunchFailed, "cannot spawn shell on "+cwd, err)
	}

	slot.mu.Lock()
	slot.ptmx = ptmx
	slot.cmd = cmd
	slot.mu.Unlock()

	go s.pump(side, slot, sink)

	return nil
}

// pump is the dedicated reader task: it polls the PTY master in a loop,
// emitting chunks to sink until the shell exits or the master closes.
// Output delivery is lossy only in the sense that a slow sink may see
// large reads batched together; there is no back-pressure applied to the
// shell itself.
func (s *Supervisor) pump(side model.Side, slot *session, sink OutputSink) {
	buf := make([]byte, 4096)
	for {
		slot.mu.Lock()
		ptmx := slot.ptmx
		slot.mu.Unlock()
		if ptmx == nil {
			return
		}

		n, err := ptmx.Read(buf)
		if n > 0 && sink != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			sink.OnOutput(side, chunk)
		}
		if err != nil {
			break
		}
	}

	slot.mu.Lock()
	cmd := slot.cmd
	slot.ptmx = nil
	slot.cmd = nil
	slot.mu.Unlock()

	if cmd != nil {
		_ = cmd.Wait()
	}

	if sink != nil {
		sink.OnExit(side)
	}
}

// Write forwards data to the shell's stdin. Silent no-op if the shell is
// not alive on that side.
func (s *Supervisor) Write(side model.Side, data []byte) error {
	slot := s.slot(side)
	slot.mu.Lock()
	ptmx := slot.ptmx
	slot.mu.Unlock()

	if ptmx == nil {
		return nil
	}

	if _, err := ptmx.Write(data); err != nil {
		return apperr.Wrap(apperr.IoFailed, "write to pty failed", err)
	}
	return nil
}

// Resize adjusts the PTY window size.
func (s *Supervisor) Resize(side model.Side, rows, cols uint16) error {
	slot := s.slot(side)
	slot.mu.Lock()
	ptmx := slot.ptmx
	slot.mu.Unlock()

	if ptmx == nil {
		return nil
	}

	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: rows, Cols: cols}); err != nil {
		return apperr.Wrap(apperr.IoFailed, "resize pty failed", err)
	}
	return nil
}

// Kill sends SIGHUP, waits up to killGrace, then escalates to SIGKILL.
func (s *Supervisor) Kill(side model.Side) error {
	slot := s.slot(side)
	slot.mu.Lock()
	cmd := slot.cmd
	ptmx := slot.ptmx
	slot.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	_ = cmd.Process.Signal(syscall.SIGHUP)

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.killGrace):
		_ = cmd.Process.Kill()
		<-done
	}

	if ptmx != nil {
		_ = ptmx.Close()
	}

	return nil
}

// KillAll tears down both sides, used on process shutdown.
func (s *Supervisor) KillAll() {
	_ = s.Kill(model.SideLeft)
	_ = s.Kill(model.SideRight)
}
