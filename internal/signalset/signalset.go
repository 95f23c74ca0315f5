// Package signalset resolves the signal names and numbers the wire protocol
// accepts for KILL, and delivers them to a child process.
package signalset

import (
	"fmt"
	"os"
	"strconv"
	"syscall"
)

// byName maps the accepted signal names (spec §6) to their numeric value.
// Only this fixed set is accepted; anything else is an error.
var byName = map[string]syscall.Signal{
	"SIGHUP":  1,
	"SIGINT":  2,
	"SIGQUIT": 3,
	"SIGKILL": 9,
	"SIGTERM": 15,
	"SIGUSR1": 10,
	"SIGUSR2": 12,
}

var byNumber = map[int]string{
	1:  "SIGHUP",
	2:  "SIGINT",
	3:  "SIGQUIT",
	9:  "SIGKILL",
	15: "SIGTERM",
	10: "SIGUSR1",
	12: "SIGUSR2",
}

// Resolve accepts either a signal name ("SIGTERM", matched exactly and
// case-sensitively) or a decimal number as a string, and returns the canonical name and
// the syscall.Signal to deliver. It returns an error for anything outside
// the fixed accepted set.
func Resolve(spec string) (name string, sig syscall.Signal, err error) {
	if s, ok := byName[spec]; ok {
		return spec, s, nil
	}

	if n, convErr := strconv.Atoi(spec); convErr == nil {
		if nm, ok := byNumber[n]; ok {
			return nm, byName[nm], nil
		}
		return "", 0, fmt.Errorf("unknown signal number: %d", n)
	}

	return "", 0, fmt.Errorf("unknown signal name: %q", spec)
}

// Deliver sends sig to the process with the given pid. It translates the
// kernel-level "no such process" error into ErrProcessGone so callers can
// distinguish it from other delivery failures.
func Deliver(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return ErrProcessGone
	}

	if err := proc.Signal(sig); err != nil {
		if err == os.ErrProcessDone || err == syscall.ESRCH {
			return ErrProcessGone
		}
		return fmt.Errorf("signal delivery failed: %w", err)
	}

	return nil
}

// ErrProcessGone is returned by Deliver when the target process has already
// been reaped.
var ErrProcessGone = fmt.Errorf("process gone")
