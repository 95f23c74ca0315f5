package ptysession

import "strings"

// WaitResult is the data returned by any of WAIT's four observable modes.
type WaitResult struct {
	Activity bool
	Exited   bool
	ExitCode int
}

// WaitExit parks until the child is reaped (WAIT exit-only mode).
func (s *Session) WaitExit() WaitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.state != StateExited {
		s.cond.Wait()
	}
	return WaitResult{Exited: true, ExitCode: s.exitCode}
}

// WaitActivityOrExit returns immediately if activity is already pending or
// the child has already exited; otherwise parks until either happens.
// Parking releases the session lock (via sync.Cond.Wait), so other
// dispatcher commands proceed while this handler is parked.
func (s *Session) WaitActivityOrExit() WaitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.activity {
			s.activity = false
			return WaitResult{Activity: true}
		}
		if s.state == StateExited {
			return WaitResult{Exited: true, ExitCode: s.exitCode}
		}
		s.cond.Wait()
	}
}

// WaitLineChanged parks until the given 1-based row's rendered text differs
// from its value at the moment this call began, or the child exits.
func (s *Session) WaitLineChanged(row int) WaitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	baseline := s.emulator.Line(row)
	for {
		if s.emulator.Line(row) != baseline {
			return WaitResult{}
		}
		if s.state == StateExited {
			return WaitResult{Exited: true, ExitCode: s.exitCode}
		}
		s.cond.Wait()
	}
}

// WaitLinePredicate parks until the given row's rendered text contains
// contains, or, when contains is empty, does not contain notContains, or the
// child exits. When both are set, only contains is checked.
func (s *Session) WaitLinePredicate(row int, contains, notContains string) WaitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	satisfied := func() bool {
		line := s.emulator.Line(row)
		if contains != "" {
			return strings.Contains(line, contains)
		}
		if notContains != "" {
			return !strings.Contains(line, notContains)
		}
		return true
	}

	for {
		if satisfied() {
			return WaitResult{}
		}
		if s.state == StateExited {
			return WaitResult{Exited: true, ExitCode: s.exitCode}
		}
		s.cond.Wait()
	}
}
