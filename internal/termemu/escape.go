package termemu

import "fmt"

func (s *Screen) processEscapeByte(b byte) {
	switch b {
	case '[':
		s.state = stateCSI
		s.csiPrefix = 0
		s.csiParams = s.csiParams[:0]
		s.curParam = 0
		s.curParamSet = false
		s.csiIntermed = 0
		return
	case ']':
		s.state = stateOSC
		s.oscBuf = s.oscBuf[:0]
		return
	case 'P', '^', '_': // DCS, PM, APC: not interpreted, recorded as unhandled
		s.state = stateStringSkip
		s.oscBuf = append(s.oscBuf[:0], b)
		return
	case '7':
		s.savedRow, s.savedCol = s.cursorRow, s.cursorCol
		s.savedAttrs = s.attrs
	case '8':
		s.cursorRow, s.cursorCol = s.savedRow, s.savedCol
		s.attrs = s.savedAttrs
		s.pendingWrap = false
	case 'M':
		s.reverseIndex()
	case 'D':
		s.indexDown()
	case 'E':
		s.cursorCol = 0
		s.indexDown()
	case 'c':
		s.reset()
	case '=', '>': // keypad application/numeric mode: benign, not recorded
	default:
		s.recordUnhandled(fmt.Sprintf("ESC %c", b), append([]byte{0x1b}, b))
	}
	s.state = stateNormal
}

// reset reinitializes the grid and cursor to their startup state (RIS).
func (s *Screen) reset() {
	s.attrs = defaultAttrs()
	s.grid = newGrid(s.rows, s.cols, s.attrs)
	s.altGrid = newGrid(s.rows, s.cols, s.attrs)
	s.usingAlt = false
	s.cursorRow, s.cursorCol = 0, 0
	s.scrollTop, s.scrollBottom = 0, s.rows-1
	s.autowrap = true
	s.pendingWrap = false
}
