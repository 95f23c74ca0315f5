package daemon

import (
	"errors"
	"fmt"
)

// Kind classifies a dispatch failure per spec.md §7's error taxonomy. It is
// not sent on the wire (the protocol only has a flat error string); respond
// writes only the message.
type Kind int

const (
	// KindProtocol covers malformed/oversize frames, missing or invalid
	// fields, and unknown commands.
	KindProtocol Kind = iota
	// KindState covers operations invalid for the session's current
	// state, e.g. KILL after the child has been reaped.
	KindState
	// KindResource covers PTY write failures and signal delivery
	// failures.
	KindResource
	// KindFatal covers unrecoverable pump failures.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindState:
		return "state"
	case KindResource:
		return "resource"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps a dispatch failure with its taxonomy Kind.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func protocolErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindProtocol, Msg: fmt.Sprintf(format, args...)}
}
func stateErr(msg string) *Error    { return &Error{Kind: KindState, Msg: msg} }
func resourceErr(msg string) *Error { return &Error{Kind: KindResource, Msg: msg} }
func fatalErr(msg string) *Error    { return &Error{Kind: KindFatal, Msg: msg} }

// respond converts any error into the wire Response. A *Error contributes
// its Msg; any other error contributes its Error() text unchanged.
func respond(err error) Response {
	var de *Error
	if errors.As(err, &de) {
		return errResponse(de.Msg)
	}
	return errResponse(err.Error())
}
