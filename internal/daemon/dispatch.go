package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mstsirkin/interminai/internal/ptysession"
	"github.com/mstsirkin/interminai/internal/signalset"
)

// Dispatcher serializes command execution against one Session. It holds no
// lock of its own: Session already guards its mutable state, so Dispatcher
// is a thin translation layer between wire requests and Session methods.
// This mirrors hub/dispatch.go's single Dispatch(ctx, action) switch, one
// case per command instead of one per UI action.
type Dispatcher struct {
	session *ptysession.Session
	onStop  func()
}

// NewDispatcher builds a Dispatcher over session. onStop is invoked once
// STOP has killed the child and released the PTY, so the caller (the
// daemon's accept loop) can unlink the socket and exit the process.
func NewDispatcher(session *ptysession.Session, onStop func()) *Dispatcher {
	return &Dispatcher{session: session, onStop: onStop}
}

// Dispatch parses one line of JSON and returns the Response to write back.
// It never panics or returns a Go error to the caller: every failure is
// translated into a Response{Status:"error"}.
func (d *Dispatcher) Dispatch(line []byte) Response {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return respond(protocolErr("malformed request: %v", err))
	}

	switch env.Type {
	case "INPUT":
		return d.handleInput(line)
	case "OUTPUT":
		return d.handleOutput(line)
	case "STATUS":
		return d.handleStatus(line)
	case "WAIT":
		return d.handleWait(line)
	case "KILL":
		return d.handleKill(line)
	case "RESIZE":
		return d.handleResize(line)
	case "DEBUG":
		return d.handleDebug(line)
	case "STOP":
		return d.handleStop()
	case "":
		return respond(protocolErr("missing \"type\" field"))
	default:
		return respond(protocolErr("unknown command type %q", env.Type))
	}
}

func (d *Dispatcher) handleInput(line []byte) Response {
	var req inputRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return respond(protocolErr("malformed INPUT request: %v", err))
	}
	if err := d.session.Write([]byte(req.Data)); err != nil {
		if errors.Is(err, ptysession.ErrPtyGone) {
			return respond(stateErr(err.Error()))
		}
		return respond(resourceErr(err.Error()))
	}
	return ok(nil)
}

func (d *Dispatcher) handleOutput(line []byte) Response {
	var req outputRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return respond(protocolErr("malformed OUTPUT request: %v", err))
	}
	format := req.Format
	if format == "" {
		format = "ascii"
	}
	if format != "ascii" && format != "ansi" {
		return respond(protocolErr("invalid format %q", req.Format))
	}

	out := d.session.Render(format)
	return ok(OutputData{
		Screen: out.Screen,
		Cursor: CursorData{Row: out.Row, Col: out.Col},
		Size:   SizeData{Rows: out.Rows, Cols: out.Cols},
	})
}

func (d *Dispatcher) handleStatus(line []byte) Response {
	var req statusRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return respond(protocolErr("malformed STATUS request: %v", err))
	}

	snap := d.session.Status(req.Activity)
	data := StatusData{Running: snap.Running}
	if !snap.Running {
		code := snap.ExitCode
		data.ExitCode = &code
	}
	if req.Activity {
		activity := snap.Activity
		data.Activity = &activity
	}
	return ok(data)
}

func (d *Dispatcher) handleWait(line []byte) Response {
	var req waitRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return respond(protocolErr("malformed WAIT request: %v", err))
	}

	var result ptysession.WaitResult
	switch {
	case req.Activity:
		result = d.session.WaitActivityOrExit()
	case req.Line > 0 && (req.Contains != "" || req.NotContains != ""):
		result = d.session.WaitLinePredicate(req.Line, req.Contains, req.NotContains)
	case req.Line > 0:
		result = d.session.WaitLineChanged(req.Line)
	default:
		result = d.session.WaitExit()
	}

	data := WaitData{}
	if result.Activity {
		activity := true
		data.Activity = &activity
	}
	if result.Exited {
		exited := true
		data.Exited = &exited
		code := result.ExitCode
		data.ExitCode = &code
	}
	return ok(data)
}

func (d *Dispatcher) handleKill(line []byte) Response {
	var req killRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return respond(protocolErr("malformed KILL request: %v", err))
	}
	if len(req.Signal) == 0 {
		return respond(protocolErr("missing \"signal\" field"))
	}

	spec, err := killSignalSpec(req.Signal)
	if err != nil {
		return respond(protocolErr("%v", err))
	}

	name, err := d.session.Kill(spec)
	if err != nil {
		if err == ptysession.ErrProcessGone {
			return respond(stateErr(err.Error()))
		}
		if _, _, resolveErr := signalset.Resolve(spec); resolveErr != nil {
			return respond(protocolErr("%v", err))
		}
		return respond(resourceErr(err.Error()))
	}
	return ok(KillData{SignalSent: name})
}

// killSignalSpec normalizes KILL's "signal" field, which may arrive as a
// JSON string or a JSON number, into the string form signalset.Resolve
// expects.
func killSignalSpec(raw json.RawMessage) (string, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}

	var asNumber int
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return strconv.Itoa(asNumber), nil
	}

	return "", fmt.Errorf("invalid \"signal\" field: must be a string or number")
}

func (d *Dispatcher) handleResize(line []byte) Response {
	var req resizeRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return respond(protocolErr("malformed RESIZE request: %v", err))
	}
	if req.Rows <= 0 || req.Cols <= 0 {
		return respond(protocolErr("rows and cols must be positive"))
	}
	if err := d.session.Resize(req.Rows, req.Cols); err != nil {
		if err == ptysession.ErrPtyGone {
			return respond(stateErr(err.Error()))
		}
		return respond(resourceErr(err.Error()))
	}
	return ok(nil)
}

func (d *Dispatcher) handleDebug(line []byte) Response {
	var req debugRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return respond(protocolErr("malformed DEBUG request: %v", err))
	}

	unhandled, dropped, termios := d.session.Debug(req.Data.Clear)

	entries := make([]UnhandledData, 0, len(unhandled))
	for _, u := range unhandled {
		entries = append(entries, UnhandledData{Sequence: u.Sequence, RawHex: u.RawHex})
	}

	return ok(DebugData{
		Unhandled: entries,
		Dropped:   dropped,
		Termios: TermiosData{
			Mode:  termios.Mode,
			Iflag: termios.Iflag,
			Oflag: termios.Oflag,
			Lflag: termios.Lflag,
			Cflag: termios.Cflag,
			Cc:    termios.Cc,
		},
	})
}

func (d *Dispatcher) handleStop() Response {
	d.session.Stop(3 * time.Second)
	if d.onStop != nil {
		d.onStop()
	}
	return ok(StopData{Message: "Shutting down"})
}
