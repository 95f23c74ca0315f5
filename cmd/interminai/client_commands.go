package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mstsirkin/interminai/internal/wireclient"
)

func socketFlag(cmd *cobra.Command) {
	cmd.Flags().String("socket", "", "daemon Unix socket path (required)")
	cmd.MarkFlagRequired("socket")
}

func dialClient(cmd *cobra.Command) (*wireclient.Client, error) {
	socketPath, _ := cmd.Flags().GetString("socket")
	if socketPath == "" {
		return nil, fmt.Errorf("--socket is required")
	}
	return wireclient.New(socketPath), nil
}

func printErrorAndFail(resp *wireclient.Response) error {
	return fmt.Errorf("daemon error: %s", resp.Error)
}

func newInputCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "input [text]",
		Short: "Send keystrokes to the session",
		RunE:  runInput,
	}
	socketFlag(cmd)
	cmd.Flags().Bool("password", false, "read a password from this terminal with echo disabled, append \\r, and send it")
	return cmd
}

func runInput(cmd *cobra.Command, args []string) error {
	c, err := dialClient(cmd)
	if err != nil {
		return err
	}

	password, _ := cmd.Flags().GetBool("password")

	var data string
	if password {
		fmt.Fprint(os.Stderr, "Password: ")
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		data = string(bytes) + "\r"
	} else if len(args) > 0 {
		data = args[0]
	} else {
		return fmt.Errorf("no input text given (pass text or --password)")
	}

	resp, err := c.Call(map[string]interface{}{"type": "INPUT", "data": data})
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return printErrorAndFail(resp)
	}
	return nil
}

func newOutputCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "output",
		Short: "Print the current screen",
		RunE:  runOutput,
	}
	socketFlag(cmd)
	cmd.Flags().String("format", "ascii", "ascii or ansi")
	cmd.Flags().String("cursor", "none", "none|print|inverse|both: how to augment the screen with cursor position")
	return cmd
}

func runOutput(cmd *cobra.Command, args []string) error {
	c, err := dialClient(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	cursorMode, _ := cmd.Flags().GetString("cursor")

	resp, err := c.Call(map[string]interface{}{"type": "OUTPUT", "format": format})
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return printErrorAndFail(resp)
	}

	screen, _ := resp.String("screen")
	row, col := cursorRowCol(resp)

	fmt.Print(renderWithCursor(screen, cursorMode, row, col))
	return nil
}

func cursorRowCol(resp *wireclient.Response) (int, int) {
	cursor, _ := resp.Data["cursor"].(map[string]interface{})
	row, _ := cursor["row"].(float64)
	col, _ := cursor["col"].(float64)
	return int(row), int(col)
}

// renderWithCursor augments plain screen text with the cursor position per
// spec.md §6's "output --cursor" modes: "print" appends a coordinate line,
// "inverse" wraps the cursor's character in SGR reverse-video, "both" does
// both, "none" is a passthrough.
func renderWithCursor(screen, mode string, row, col int) string {
	switch mode {
	case "print":
		return screen + fmt.Sprintf("\ncursor: row=%d col=%d\n", row, col)
	case "inverse":
		return inverseCursor(screen, row, col) + "\n"
	case "both":
		return inverseCursor(screen, row, col) + fmt.Sprintf("\ncursor: row=%d col=%d\n", row, col)
	default:
		return screen + "\n"
	}
}

func inverseCursor(screen string, row, col int) string {
	lines := splitLines(screen)
	if row < 1 || row > len(lines) {
		return screen
	}
	line := []rune(lines[row-1])
	if col < 1 || col > len(line)+1 {
		return screen
	}
	if col == len(line)+1 {
		line = append(line, ' ')
	}
	idx := col - 1
	marked := string(line[:idx]) + "\x1b[7m" + string(line[idx]) + "\x1b[0m" + string(line[idx+1:])
	lines[row-1] = marked
	return joinLines(lines)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the session's child is running",
		RunE:  runStatus,
	}
	socketFlag(cmd)
	cmd.Flags().Bool("activity", false, "also report and clear the activity flag")
	cmd.Flags().Bool("quiet", false, "print only the exit code (0 while running); exit 0 if running, 1 otherwise")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := dialClient(cmd)
	if err != nil {
		return err
	}

	activity, _ := cmd.Flags().GetBool("activity")
	quiet, _ := cmd.Flags().GetBool("quiet")

	resp, err := c.Call(map[string]interface{}{"type": "STATUS", "activity": activity})
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return printErrorAndFail(resp)
	}

	running, _ := resp.Bool("running")
	exitCode, hasExit := resp.Float("exit_code")

	if quiet {
		if running {
			fmt.Println(0)
			os.Exit(0)
		}
		fmt.Println(int(exitCode))
		os.Exit(1)
	}

	if running {
		fmt.Println("running")
	} else if hasExit {
		fmt.Printf("exited: %d\n", int(exitCode))
	} else {
		fmt.Println("exited")
	}
	return nil
}

func newWaitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until activity, exit, or a line condition is met",
		RunE:  runWait,
	}
	socketFlag(cmd)
	cmd.Flags().Bool("activity", false, "return on the next activity or exit, instead of exit-only")
	cmd.Flags().Int("line", 0, "1-based row to watch for line-changed or line-predicate mode")
	cmd.Flags().String("contains", "", "wait until the watched line contains this substring")
	cmd.Flags().String("not-contains", "", "wait until the watched line no longer contains this substring")
	cmd.Flags().Bool("quiet", false, "print only the exit code and use it as the process exit code")
	return cmd
}

func runWait(cmd *cobra.Command, args []string) error {
	socketPath, _ := cmd.Flags().GetString("socket")
	if socketPath == "" {
		return fmt.Errorf("--socket is required")
	}
	c := wireclient.New(socketPath)
	c.Timeout = 0 // WAIT may block indefinitely server-side

	activity, _ := cmd.Flags().GetBool("activity")
	line, _ := cmd.Flags().GetInt("line")
	contains, _ := cmd.Flags().GetString("contains")
	notContains, _ := cmd.Flags().GetString("not-contains")
	quiet, _ := cmd.Flags().GetBool("quiet")

	req := map[string]interface{}{"type": "WAIT"}
	if activity {
		req["activity"] = true
	}
	if line > 0 {
		req["line"] = line
		if contains != "" {
			req["contains"] = contains
		}
		if notContains != "" {
			req["not_contains"] = notContains
		}
	}

	resp, err := c.Call(req)
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return printErrorAndFail(resp)
	}

	exited, _ := resp.Bool("exited")
	exitCode, _ := resp.Float("exit_code")

	if quiet {
		if exited {
			fmt.Println(int(exitCode))
			os.Exit(int(exitCode))
		}
		fmt.Println(0)
		os.Exit(0)
	}

	if exited {
		fmt.Printf("exited: %d\n", int(exitCode))
	} else {
		fmt.Println("activity")
	}
	return nil
}

func newKillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill <signal>",
		Short: "Send a signal to the session's child (name or number)",
		Args:  cobra.ExactArgs(1),
		RunE:  runKill,
	}
	socketFlag(cmd)
	return cmd
}

func runKill(cmd *cobra.Command, args []string) error {
	c, err := dialClient(cmd)
	if err != nil {
		return err
	}

	resp, err := c.Call(map[string]interface{}{"type": "KILL", "signal": args[0]})
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return printErrorAndFail(resp)
	}

	sent, _ := resp.String("signal_sent")
	fmt.Println(sent)
	return nil
}

func newResizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resize <cols> <rows>",
		Short: "Resize the PTY and emulator grid",
		Args:  cobra.ExactArgs(2),
		RunE:  runResize,
	}
	socketFlag(cmd)
	return cmd
}

func runResize(cmd *cobra.Command, args []string) error {
	c, err := dialClient(cmd)
	if err != nil {
		return err
	}

	var cols, rows int
	if _, err := fmt.Sscanf(args[0], "%d", &cols); err != nil {
		return fmt.Errorf("invalid cols %q", args[0])
	}
	if _, err := fmt.Sscanf(args[1], "%d", &rows); err != nil {
		return fmt.Errorf("invalid rows %q", args[1])
	}

	resp, err := c.Call(map[string]interface{}{"type": "RESIZE", "cols": cols, "rows": rows})
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return printErrorAndFail(resp)
	}
	return nil
}

func newStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the session's child and shut down the daemon",
		RunE:  runStop,
	}
	socketFlag(cmd)
	return cmd
}

func runStop(cmd *cobra.Command, args []string) error {
	c, err := dialClient(cmd)
	if err != nil {
		return err
	}

	resp, err := c.Call(map[string]interface{}{"type": "STOP"})
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return printErrorAndFail(resp)
	}

	msg, _ := resp.String("message")
	fmt.Println(msg)
	return nil
}

func newDebugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Show unhandled escape sequences and the PTY's termios state",
		RunE:  runDebug,
	}
	socketFlag(cmd)
	cmd.Flags().Bool("clear", false, "atomically snapshot and empty the unhandled-sequence buffer")
	return cmd
}

func runDebug(cmd *cobra.Command, args []string) error {
	c, err := dialClient(cmd)
	if err != nil {
		return err
	}

	clear, _ := cmd.Flags().GetBool("clear")

	resp, err := c.Call(map[string]interface{}{
		"type": "DEBUG",
		"data": map[string]interface{}{"clear": clear},
	})
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		return printErrorAndFail(resp)
	}

	dropped, _ := resp.Float("dropped")
	fmt.Printf("dropped: %d\n", int(dropped))

	unhandled, _ := resp.Data["unhandled"].([]interface{})
	for _, u := range unhandled {
		entry, _ := u.(map[string]interface{})
		seq, _ := entry["sequence"].(string)
		raw, _ := entry["raw_hex"].(string)
		fmt.Printf("  %s (%s)\n", seq, raw)
	}

	termios, _ := resp.Data["termios"].(map[string]interface{})
	if termios != nil {
		fmt.Printf("termios: mode=%v iflag=%v oflag=%v lflag=%v cflag=%v\n",
			termios["mode"], termios["iflag"], termios["oflag"], termios["lflag"], termios["cflag"])
	}
	return nil
}
