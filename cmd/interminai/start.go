package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mstsirkin/interminai/internal/config"
	"github.com/mstsirkin/interminai/internal/daemon"
	"github.com/mstsirkin/interminai/internal/ptysession"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start -- <command> [args...]",
		Short: "Start the session daemon, spawning the given command under a PTY",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runStart,
	}
	cmd.Flags().Bool("no-daemon", false, "run in the foreground instead of self-backgrounding")
	cmd.Flags().String("socket", "", "Unix socket path (auto-generated under the config socket dir if omitted)")
	cmd.Flags().String("record", "", "append all raw PTY output bytes to this file")
	cmd.Flags().Int("cols", 0, "initial PTY width (defaults to config)")
	cmd.Flags().Int("rows", 0, "initial PTY height (defaults to config)")
	cmd.Flags().Int("unhandled-cap", 0, "unhandled-sequence buffer capacity (defaults to config)")
	cmd.Flags().String("log-file", "", "path the daemon appends its logs to (defaults to config)")
	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	noDaemon, _ := cmd.Flags().GetBool("no-daemon")
	socketPath, _ := cmd.Flags().GetString("socket")
	record, _ := cmd.Flags().GetString("record")
	cols, _ := cmd.Flags().GetInt("cols")
	rows, _ := cmd.Flags().GetInt("rows")
	unhandledCap, _ := cmd.Flags().GetInt("unhandled-cap")
	logFile, _ := cmd.Flags().GetString("log-file")

	if cols <= 0 {
		cols = cfg.Cols
	}
	if rows <= 0 {
		rows = cfg.Rows
	}
	if unhandledCap <= 0 {
		unhandledCap = cfg.UnhandledBufferCap
	}
	if logFile == "" {
		logFile = cfg.LogFile
	}

	autoSocket := socketPath == ""
	if autoSocket {
		socketPath, err = autoSocketPath(cfg.SocketDir)
		if err != nil {
			return fmt.Errorf("allocate socket path: %w", err)
		}
	}

	if !noDaemon {
		return startDaemonized(args, socketPath, autoSocket, record, logFile, cols, rows, unhandledCap)
	}

	return runDaemonForeground(args, socketPath, autoSocket, record, cols, rows, unhandledCap, cfg.LogLevel, logFile)
}

// autoSocketPath allocates a fresh per-session directory under base and
// returns the socket path inside it, matching spec.md §6's "auto-generated
// sockets live under a per-session temporary directory" rule.
func autoSocketPath(base string) (string, error) {
	dir := filepath.Join(base, "interminai-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "interminai.sock"), nil
}

// startDaemonized re-execs the current binary with --no-daemon and a
// detached session, then prints the socket path, daemon PID, and whether
// the socket was auto-generated to the invoker's stdout before returning —
// spec.md §4.6 requires this happen "before detaching". Grounded on
// hook.go's detachedSysProcAttr() self-spawn pattern (Setsid, nil stdio,
// cmd.Process.Release()).
func startDaemonized(args []string, socketPath string, autoSocket bool, record, logFile string, cols, rows, unhandledCap int) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	childArgs := []string{"start", "--no-daemon", "--socket", socketPath,
		"--cols", itoa(cols), "--rows", itoa(rows), "--unhandled-cap", itoa(unhandledCap),
		"--log-file", logFile}
	if record != "" {
		childArgs = append(childArgs, "--record", record)
	}
	childArgs = append(childArgs, "--")
	childArgs = append(childArgs, args...)

	child := exec.Command(exePath, childArgs...)
	child.Stdin = nil
	child.Stdout = nil
	child.Stderr = nil
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := child.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Fprintf(os.Stdout, "socket=%s pid=%d auto_socket=%t\n", socketPath, child.Process.Pid, autoSocket)

	return child.Process.Release()
}

// runDaemonForeground spawns the session and serves the socket without
// detaching, used both for --no-daemon and as the re-exec'd daemon body.
// Logging goes to logFile, not stderr: startDaemonized detaches the
// re-exec'd child with nil stdio, so stderr has nowhere to go once the
// daemon is actually backgrounded. Grounded on botster-hub's main.go,
// which opens "/tmp/botster-hub.log" for the same reason before the TUI
// takes over the terminal.
func runDaemonForeground(args []string, socketPath string, autoSocket bool, record string, cols, rows, unhandledCap int, logLevel, logFile string) error {
	logWriter, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", logFile, err)
	}
	defer logWriter.Close()

	level := slog.LevelInfo
	if logLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: level}))

	session, err := ptysession.Spawn(ptysession.SpawnConfig{
		Argv:         args,
		Env:          os.Environ(),
		Rows:         rows,
		Cols:         cols,
		UnhandledCap: unhandledCap,
		RawDumpPath:  record,
	}, logger)
	if err != nil {
		return fmt.Errorf("spawn session: %w", err)
	}

	listener, err := daemon.Listen(socketPath, autoSocket)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}

	fmt.Fprintf(os.Stdout, "socket=%s pid=%d auto_socket=%t\n", socketPath, os.Getpid(), autoSocket)

	srv := daemon.NewServer(listener, socketPath, autoSocket, session, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		session.Stop(3 * time.Second)
		srv.Shutdown()
	}()

	return srv.Serve(context.Background())
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
