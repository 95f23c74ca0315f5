// Package ptysession owns a single child process on a pseudo-terminal: PTY
// allocation, the output pump that feeds a terminal emulator, resize,
// signal delivery, and reaping. It is the session daemon's Session
// Supervisor and PTY I/O Pump rolled into one type, since both share the
// same lock and condition variable.
package ptysession

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/mstsirkin/interminai/internal/signalset"
	"github.com/mstsirkin/interminai/internal/termemu"
)

// State is the child's lifecycle state as observed by clients.
type State int

const (
	StateRunning State = iota
	StateExited
)

// ErrPtyGone is returned by Write/Resize when the PTY master has already
// been closed (child exited or session is shutting down).
var ErrPtyGone = errors.New("pty gone")

// ErrProcessGone is returned by Kill when the child has already been
// reaped.
var ErrProcessGone = signalset.ErrProcessGone

// SpawnConfig describes the child to start.
type SpawnConfig struct {
	Argv      []string
	Env       []string
	Dir       string
	Rows      int
	Cols      int
	UnhandledCap int
	RawDumpPath  string
}

// Session is the root entity: one child, one PTY, one emulator, one socket
// (owned by the daemon package, not here).
type Session struct {
	mu   sync.Mutex
	cond *sync.Cond

	master *os.File
	slave  *os.File
	cmd    *exec.Cmd

	rows, cols int

	emulator *termemu.Screen

	activity bool
	state    State
	exitCode int

	startedAt time.Time

	rawDump *os.File

	logger *slog.Logger
}

// Spawn allocates a PTY, starts the child with it as controlling terminal,
// and launches the I/O pump and reaper goroutines.
func Spawn(cfg SpawnConfig, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Argv) == 0 {
		return nil, fmt.Errorf("spawn: empty argv")
	}

	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("spawn: open pty: %w", err)
	}

	if err := pty.Setsize(master, &pty.Winsize{Rows: uint16(cfg.Rows), Cols: uint16(cfg.Cols)}); err != nil {
		master.Close()
		slave.Close()
		return nil, fmt.Errorf("spawn: set size: %w", err)
	}

	cmd := exec.Command(cfg.Argv[0], cfg.Argv[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.Env
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		master.Close()
		slave.Close()
		return nil, fmt.Errorf("spawn: start child: %w", err)
	}

	var rawDump *os.File
	if cfg.RawDumpPath != "" {
		rawDump, err = os.OpenFile(cfg.RawDumpPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			logger.Warn("failed to open raw dump sink", "path", cfg.RawDumpPath, "error", err)
			rawDump = nil
		}
	}

	s := &Session{
		master:    master,
		slave:     slave,
		cmd:       cmd,
		rows:      cfg.Rows,
		cols:      cfg.Cols,
		emulator:  termemu.New(cfg.Rows, cfg.Cols, cfg.UnhandledCap),
		state:     StateRunning,
		startedAt: time.Now(),
		rawDump:   rawDump,
		logger:    logger,
	}
	s.cond = sync.NewCond(&s.mu)

	go s.pumpLoop()
	go s.reapLoop()

	logger.Info("session spawned", "argv", cfg.Argv, "pid", cmd.Process.Pid, "rows", cfg.Rows, "cols", cfg.Cols)

	return s, nil
}

// Pid returns the child's process ID.
func (s *Session) Pid() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// pumpLoop is the PTY I/O Pump: blocks reading the master, feeds the
// emulator, sets activity, and wakes parked waiters. Reading EOF ends the
// loop; the reap goroutine (a separate os/exec.Cmd.Wait) is what actually
// observes the child's exit status, since the teacher's read-loop "done
// channel" select can't interrupt a syscall-blocked Read.
func (s *Session) pumpLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.master.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			s.mu.Lock()
			if s.rawDump != nil {
				s.rawDump.Write(chunk)
			}
			s.emulator.Process(chunk)
			s.activity = true
			s.cond.Broadcast()
			s.mu.Unlock()
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Debug("pty read error", "error", err)
			}
			return
		}
	}
}

// reapLoop waits for the child to exit and records its terminal state.
func (s *Session) reapLoop() {
	err := s.cmd.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.exitCode = exitCodeFromWaitErr(err, s.cmd)
	s.state = StateExited
	s.master.Close()
	s.cond.Broadcast()

	if s.rawDump != nil {
		s.rawDump.Close()
	}

	s.logger.Info("session child exited", "pid", s.Pid(), "exit_code", s.exitCode)
}

func exitCodeFromWaitErr(err error, cmd *exec.Cmd) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}
	return -1
}

// Write implements INPUT: writes bytes to the PTY master, looping until all
// bytes are sent or a hard error occurs.
func (s *Session) Write(data []byte) error {
	s.mu.Lock()
	running := s.state == StateRunning
	master := s.master
	s.mu.Unlock()

	if !running || master == nil {
		return ErrPtyGone
	}

	for len(data) > 0 {
		n, err := master.Write(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPtyGone, err)
		}
		data = data[n:]
	}
	return nil
}

// Resize implements RESIZE: updates the PTY window size and the emulator's
// grid dimensions under the session lock so OUTPUT never observes a grid
// that doesn't match the PTY's actual size.
func (s *Session) Resize(rows, cols int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return ErrPtyGone
	}

	if err := pty.Setsize(s.master, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		return fmt.Errorf("resize: %w", err)
	}

	s.rows, s.cols = rows, cols
	s.emulator.SetSize(rows, cols)
	return nil
}

// Kill implements KILL: resolves a signal name or number and delivers it to
// the child.
func (s *Session) Kill(spec string) (sentName string, err error) {
	s.mu.Lock()
	state := s.state
	pid := s.Pid()
	s.mu.Unlock()

	name, sig, err := signalset.Resolve(spec)
	if err != nil {
		return "", err
	}

	if state != StateRunning {
		return "", ErrProcessGone
	}

	if err := signalset.Deliver(pid, sig); err != nil {
		return "", err
	}

	return name, nil
}

// Stop sends SIGTERM, waits a grace period, then SIGKILL if the child is
// still alive, and releases the PTY. Used by STOP.
func (s *Session) Stop(grace time.Duration) {
	s.mu.Lock()
	running := s.state == StateRunning
	pid := s.Pid()
	s.mu.Unlock()

	if running && pid > 0 {
		signalset.Deliver(pid, syscall.SIGTERM)

		deadline := time.Now().Add(grace)
		for time.Now().Before(deadline) {
			s.mu.Lock()
			done := s.state == StateExited
			s.mu.Unlock()
			if done {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}

		s.mu.Lock()
		stillRunning := s.state == StateRunning
		s.mu.Unlock()
		if stillRunning {
			signalset.Deliver(pid, syscall.SIGKILL)
		}
	}

	s.mu.Lock()
	if s.master != nil {
		s.master.Close()
	}
	if s.slave != nil {
		s.slave.Close()
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Snapshot describes the session's externally-observable status.
type Snapshot struct {
	Running  bool
	ExitCode int
	Activity bool
}

// Status implements STATUS. If clearActivity is true, the activity flag is
// read and cleared atomically.
func (s *Session) Status(clearActivity bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Running:  s.state == StateRunning,
		ExitCode: s.exitCode,
		Activity: s.activity,
	}

	if clearActivity {
		s.activity = false
	}

	return snap
}

// Output implements OUTPUT's screen portion.
type Output struct {
	Screen string
	Row    int
	Col    int
	Rows   int
	Cols   int
}

// Render returns the current screen snapshot in the requested format
// ("ascii" or "ansi").
func (s *Session) Render(format string) Output {
	s.mu.Lock()
	defer s.mu.Unlock()

	var screen string
	if format == "ansi" {
		screen = s.emulator.RenderANSI()
	} else {
		screen = s.emulator.RenderPlain()
	}

	row, col := s.emulator.CursorPosition()
	rows, cols := s.emulator.Size()

	return Output{Screen: screen, Row: row, Col: col, Rows: rows, Cols: cols}
}

// Debug implements DEBUG: a snapshot of unhandled sequences, the dropped
// count, and a termios snapshot of the PTY slave.
func (s *Session) Debug(clear bool) ([]termemu.UnhandledEntry, int, Termios) {
	s.mu.Lock()
	unhandled, dropped := s.emulator.Unhandled(clear)
	slaveFd := -1
	if s.slave != nil {
		slaveFd = int(s.slave.Fd())
	}
	s.mu.Unlock()

	var snap Termios
	if slaveFd >= 0 {
		snap, _ = snapshotTermios(slaveFd)
	}

	return unhandled, dropped, snap
}
