// Package termemu is a hand-rolled ANSI/VT terminal emulator: it consumes a
// raw PTY byte stream and maintains a grid-and-cursor model that can be
// queried for a screen snapshot, cursor position, and unrecognized escape
// sequences.
//
// The public surface (New, Process, RenderPlain, RenderANSI, CursorPosition,
// SetSize, Size) mirrors the shape of a wrapped-library parser, but the state machine
// is owned directly so unhandled sequences, scroll-region state, and the
// per-attribute SGR cell model can be introspected exactly as the wire
// protocol requires.
package termemu

import (
	"unicode/utf8"
)

type parserState int

const (
	stateNormal parserState = iota
	stateEscape
	stateCSI
	stateOSC
	stateStringSkip // DCS / PM / APC: consumed and always recorded unhandled
)

// Screen is the terminal emulator's grid, cursor, and parser state.
type Screen struct {
	rows, cols int

	grid    [][]Cell
	altGrid [][]Cell
	usingAlt bool

	cursorRow, cursorCol int
	savedRow, savedCol   int
	savedAttrs           Attrs

	attrs Attrs

	scrollTop, scrollBottom int
	autowrap                bool
	pendingWrap             bool

	state       parserState
	csiPrefix   byte
	csiParams   []int
	curParam    int
	curParamSet bool
	csiIntermed byte
	oscBuf      []byte
	sawEscInString bool // ESC seen while skipping an OSC/DCS/PM/APC string, awaiting '\' (ST)

	utf8Buf []byte

	unhandled    []UnhandledEntry
	unhandledCap int
	dropped      int
	unhandledSeq uint64
}

// New creates a terminal emulator with the given dimensions and unhandled-
// sequence buffer capacity.
func New(rows, cols, unhandledCap int) *Screen {
	if rows <= 0 {
		rows = 24
	}
	if cols <= 0 {
		cols = 80
	}
	if unhandledCap <= 0 {
		unhandledCap = 10
	}

	s := &Screen{
		rows:         rows,
		cols:         cols,
		attrs:        defaultAttrs(),
		autowrap:     true,
		unhandledCap: unhandledCap,
	}
	s.grid = newGrid(rows, cols, s.attrs)
	s.altGrid = newGrid(rows, cols, s.attrs)
	s.scrollTop, s.scrollBottom = 0, rows-1
	return s
}

// Size returns the current grid dimensions.
func (s *Screen) Size() (rows, cols int) {
	return s.rows, s.cols
}

// SetSize resizes the grid. Existing content is preserved where it still
// fits; newly exposed cells are blank. No reflow is performed, matching
// spec.md §4.1's "no reflow of prior content beyond what the child redraws".
func (s *Screen) SetSize(rows, cols int) {
	if rows <= 0 || cols <= 0 || (rows == s.rows && cols == s.cols) {
		return
	}

	s.grid = resizeGrid(s.grid, rows, cols, s.attrs)
	s.altGrid = resizeGrid(s.altGrid, rows, cols, s.attrs)
	s.rows, s.cols = rows, cols

	if s.scrollBottom >= rows {
		s.scrollBottom = rows - 1
	}
	if s.scrollTop >= rows {
		s.scrollTop = 0
	}
	if s.cursorRow >= rows {
		s.cursorRow = rows - 1
	}
	if s.cursorCol >= cols {
		s.cursorCol = cols - 1
	}
	s.pendingWrap = false
}

func resizeGrid(old [][]Cell, rows, cols int, attrs Attrs) [][]Cell {
	grid := newGrid(rows, cols, attrs)
	for r := 0; r < len(old) && r < rows; r++ {
		for c := 0; c < len(old[r]) && c < cols; c++ {
			grid[r][c] = old[r][c]
		}
	}
	return grid
}

// CursorPosition returns the 1-based (row, col) of the cursor.
func (s *Screen) CursorPosition() (row, col int) {
	return s.cursorRow + 1, s.cursorCol + 1
}

func (s *Screen) activeGrid() [][]Cell {
	if s.usingAlt {
		return s.altGrid
	}
	return s.grid
}

// Process feeds a chunk of raw PTY output through the state machine,
// mutating the grid, cursor, and SGR state and recording any unrecognized
// escape sequences.
func (s *Screen) Process(data []byte) {
	for _, b := range data {
		s.processByte(b)
	}
}

func (s *Screen) processByte(b byte) {
	switch s.state {
	case stateNormal:
		s.processNormalByte(b)
	case stateEscape:
		s.processEscapeByte(b)
	case stateCSI:
		s.processCSIByte(b)
	case stateOSC:
		s.processOSCByte(b)
	case stateStringSkip:
		s.processStringSkipByte(b)
	}
}

func (s *Screen) processNormalByte(b byte) {
	switch {
	case b == 0x1b:
		s.state = stateEscape
		s.utf8Buf = s.utf8Buf[:0]
	case b < 0x20 || b == 0x7f:
		s.handleControl(b)
	case b < 0x80:
		s.putChar(rune(b))
	default:
		s.feedUTF8(b)
	}
}

func (s *Screen) feedUTF8(b byte) {
	s.utf8Buf = append(s.utf8Buf, b)

	if !utf8.FullRune(s.utf8Buf) {
		if len(s.utf8Buf) >= utf8.UTFMax {
			s.putChar(utf8.RuneError)
			s.utf8Buf = s.utf8Buf[:0]
		}
		return
	}

	r, size := utf8.DecodeRune(s.utf8Buf)
	s.utf8Buf = s.utf8Buf[size:]
	s.putChar(r)
}

func (s *Screen) handleControl(b byte) {
	switch b {
	case '\r':
		s.cursorCol = 0
		s.pendingWrap = false
	case '\n':
		s.indexDown()
	case '\b':
		if s.cursorCol > 0 {
			s.cursorCol--
		}
		s.pendingWrap = false
	case '\t':
		next := ((s.cursorCol / 8) + 1) * 8
		if next >= s.cols {
			next = s.cols - 1
		}
		s.cursorCol = next
	case 0x07: // BEL: recorded as activity only, never rendered.
	default:
		// Other C0 controls are silently ignored rather than recorded as
		// unhandled: the spec reserves "unhandled" for escape sequences.
	}
}

// putChar writes a decoded rune at the cursor, handling deferred autowrap,
// combining marks, and wide runes.
func (s *Screen) putChar(r rune) {
	if isCombining(r) {
		s.attachCombining(r)
		return
	}

	if s.pendingWrap {
		s.cursorCol = 0
		s.indexDown()
		s.pendingWrap = false
	}

	grid := s.activeGrid()
	wide := isWide(r)

	grid[s.cursorRow][s.cursorCol] = Cell{Rune: r, Attrs: s.attrs, Wide: wide}

	if wide && s.cursorCol+1 < s.cols {
		grid[s.cursorRow][s.cursorCol+1] = Cell{Continuation: true, Attrs: s.attrs}
	}

	advance := 1
	if wide {
		advance = 2
	}

	if s.cursorCol+advance >= s.cols {
		s.cursorCol = s.cols - 1
		if s.autowrap {
			s.pendingWrap = true
		}
	} else {
		s.cursorCol += advance
	}
}

func (s *Screen) attachCombining(r rune) {
	grid := s.activeGrid()
	col := s.cursorCol
	if col > 0 {
		col--
	}
	if s.cursorRow < 0 || s.cursorRow >= len(grid) || col < 0 || col >= len(grid[s.cursorRow]) {
		return
	}
	cell := &grid[s.cursorRow][col]
	cell.Combining = append(cell.Combining, r)
}

// indexDown performs LF/IND: move down a line, scrolling the region if at
// its bottom.
func (s *Screen) indexDown() {
	if s.cursorRow == s.scrollBottom {
		s.scrollUp(1)
	} else if s.cursorRow < s.rows-1 {
		s.cursorRow++
	}
}

// reverseIndex performs RI: move up a line, scrolling the region if at its
// top.
func (s *Screen) reverseIndex() {
	if s.cursorRow == s.scrollTop {
		s.scrollDown(1)
	} else if s.cursorRow > 0 {
		s.cursorRow--
	}
}

// scrollUp discards n rows from the top of the scroll region, appending
// blank rows at the bottom. No scrollback is retained.
func (s *Screen) scrollUp(n int) {
	grid := s.activeGrid()
	for i := 0; i < n; i++ {
		copy(grid[s.scrollTop:s.scrollBottom], grid[s.scrollTop+1:s.scrollBottom+1])
		grid[s.scrollBottom] = newBlankRow(s.cols, s.attrs)
	}
}

func (s *Screen) scrollDown(n int) {
	grid := s.activeGrid()
	for i := 0; i < n; i++ {
		copy(grid[s.scrollTop+1:s.scrollBottom+1], grid[s.scrollTop:s.scrollBottom])
		grid[s.scrollTop] = newBlankRow(s.cols, s.attrs)
	}
}

func newBlankRow(cols int, attrs Attrs) []Cell {
	row := make([]Cell, cols)
	for i := range row {
		row[i] = blankCell(attrs)
	}
	return row
}
