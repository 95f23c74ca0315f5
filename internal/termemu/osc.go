package termemu

import (
	"bytes"
	"fmt"
)

func (s *Screen) processOSCByte(b byte) {
	switch b {
	case 0x07: // BEL terminator
		s.finishOSC()
		s.state = stateNormal
	case 0x1b:
		s.sawEscInString = true
	case '\\':
		if s.sawEscInString {
			s.finishOSC()
			s.state = stateNormal
			s.sawEscInString = false
			return
		}
		s.oscBuf = append(s.oscBuf, b)
	default:
		if s.sawEscInString {
			// Not a valid ST; keep the stray ESC and this byte in the buffer.
			s.oscBuf = append(s.oscBuf, 0x1b)
			s.sawEscInString = false
		}
		s.oscBuf = append(s.oscBuf, b)
	}
}

// finishOSC inspects a complete OSC payload. Title-setting (0, 1, 2) and the
// notification conventions (9, 777) used by automation clients are
// recognized and consumed silently; anything else is recorded unhandled.
func (s *Screen) finishOSC() {
	content := s.oscBuf
	if handled := isHandledOSC(content); handled {
		return
	}

	printable := "OSC " + string(content)
	raw := append([]byte{0x1b, ']'}, content...)
	raw = append(raw, 0x07)
	s.recordUnhandled(printable, raw)
}

func isHandledOSC(content []byte) bool {
	for _, prefix := range [][]byte{[]byte("0;"), []byte("1;"), []byte("2;")} {
		if bytes.HasPrefix(content, prefix) {
			return true
		}
	}
	if bytes.HasPrefix(content, []byte("9;")) {
		return true
	}
	if bytes.HasPrefix(content, []byte("777;")) {
		return true
	}
	return false
}

func (s *Screen) processStringSkipByte(b byte) {
	switch b {
	case 0x07:
		s.finishStringSkip()
		s.state = stateNormal
	case 0x1b:
		s.sawEscInString = true
	case '\\':
		if s.sawEscInString {
			s.finishStringSkip()
			s.state = stateNormal
			s.sawEscInString = false
			return
		}
		s.oscBuf = append(s.oscBuf, b)
	default:
		if s.sawEscInString {
			s.oscBuf = append(s.oscBuf, 0x1b)
			s.sawEscInString = false
		}
		s.oscBuf = append(s.oscBuf, b)
	}
}

// finishStringSkip always records unhandled: DCS/PM/APC strings have no
// recognized meaning in this emulator.
func (s *Screen) finishStringSkip() {
	kind := s.oscBuf[0]
	body := s.oscBuf[1:]
	printable := fmt.Sprintf("%c%s", kind, body)
	raw := append([]byte{0x1b}, s.oscBuf...)
	raw = append(raw, 0x1b, '\\')
	s.recordUnhandled(printable, raw)
}
