package ptysession

import (
	"strings"
	"testing"
	"time"
)

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestSpawnEcho(t *testing.T) {
	s, err := Spawn(SpawnConfig{
		Argv: []string{"/bin/echo", "hello", "world"},
		Rows: 24, Cols: 80,
		UnhandledCap: 10,
	}, nil)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	result := s.WaitExit()
	if !result.Exited || result.ExitCode != 0 {
		t.Fatalf("WaitExit() = %+v, want exited with code 0", result)
	}

	out := s.Render("ascii")
	if !strings.Contains(out.Screen, "hello world") {
		t.Errorf("screen = %q, want to contain %q", out.Screen, "hello world")
	}
}

func TestExitCodeFromShell(t *testing.T) {
	s, err := Spawn(SpawnConfig{
		Argv: []string{"/bin/sh", "-c", "exit 7"},
		Rows: 24, Cols: 80,
		UnhandledCap: 10,
	}, nil)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	result := s.WaitExit()
	if result.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", result.ExitCode)
	}

	status := s.Status(false)
	if status.Running || status.ExitCode != 7 {
		t.Errorf("Status() = %+v, want running=false exit_code=7", status)
	}
}

func TestKillWithSignal(t *testing.T) {
	s, err := Spawn(SpawnConfig{
		Argv: []string{"/bin/sleep", "30"},
		Rows: 24, Cols: 80,
		UnhandledCap: 10,
	}, nil)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	name, err := s.Kill("SIGTERM")
	if err != nil {
		t.Fatalf("Kill() failed: %v", err)
	}
	if name != "SIGTERM" {
		t.Errorf("signal_sent = %q, want SIGTERM", name)
	}

	result := s.WaitExit()
	if result.ExitCode != 128+15 {
		t.Errorf("ExitCode = %d, want %d", result.ExitCode, 128+15)
	}
}

func TestKillAfterExitReturnsProcessGone(t *testing.T) {
	s, err := Spawn(SpawnConfig{
		Argv: []string{"/bin/true"},
		Rows: 24, Cols: 80,
		UnhandledCap: 10,
	}, nil)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	s.WaitExit()

	if _, err := s.Kill("SIGTERM"); err != ErrProcessGone {
		t.Errorf("Kill() error = %v, want ErrProcessGone", err)
	}
}

func TestWriteAfterExitReturnsPtyGone(t *testing.T) {
	s, err := Spawn(SpawnConfig{
		Argv: []string{"/bin/true"},
		Rows: 24, Cols: 80,
		UnhandledCap: 10,
	}, nil)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	s.WaitExit()

	if err := s.Write([]byte("x")); err != ErrPtyGone {
		t.Errorf("Write() after exit error = %v, want ErrPtyGone", err)
	}
}

func TestWaitActivityOrExitReturnsImmediatelyWhenPending(t *testing.T) {
	s, err := Spawn(SpawnConfig{
		Argv: []string{"/bin/cat"},
		Rows: 24, Cols: 80,
		UnhandledCap: 10,
	}, nil)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer s.Stop(100 * time.Millisecond)

	if err := s.Write([]byte("hi\n")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	waitForCondition(t, time.Second, func() bool {
		return s.Status(false).Activity
	})

	result := s.WaitActivityOrExit()
	if !result.Activity {
		t.Errorf("WaitActivityOrExit() = %+v, want Activity=true", result)
	}
}

func TestResizeUpdatesEmulatorDimensions(t *testing.T) {
	s, err := Spawn(SpawnConfig{
		Argv: []string{"/bin/cat"},
		Rows: 24, Cols: 80,
		UnhandledCap: 10,
	}, nil)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer s.Stop(100 * time.Millisecond)

	if err := s.Resize(40, 120); err != nil {
		t.Fatalf("Resize() failed: %v", err)
	}

	out := s.Render("ascii")
	if out.Rows != 40 || out.Cols != 120 {
		t.Errorf("Render() size = (%d,%d), want (40,120)", out.Rows, out.Cols)
	}
}

func TestDebugReturnsTermiosSnapshot(t *testing.T) {
	s, err := Spawn(SpawnConfig{
		Argv: []string{"/bin/cat"},
		Rows: 24, Cols: 80,
		UnhandledCap: 10,
	}, nil)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer s.Stop(100 * time.Millisecond)

	_, _, snap := s.Debug(false)
	if snap.Mode == "" {
		t.Error("termios snapshot Mode is empty")
	}
}
