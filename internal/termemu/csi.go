package termemu

import "fmt"

func (s *Screen) processCSIByte(b byte) {
	switch {
	case b >= '0' && b <= '9':
		s.curParam = s.curParam*10 + int(b-'0')
		s.curParamSet = true
	case b == ';':
		s.csiParams = append(s.csiParams, s.paramOrDefault(-1))
		s.curParam = 0
		s.curParamSet = false
	case b == '?' || b == '<' || b == '=' || b == '>':
		if len(s.csiParams) == 0 && !s.curParamSet {
			s.csiPrefix = b
		}
	case b >= 0x20 && b <= 0x2f:
		s.csiIntermed = b
	case b >= 0x40 && b <= 0x7e:
		s.csiParams = append(s.csiParams, s.paramOrDefault(-1))
		s.dispatchCSI(b)
		s.state = stateNormal
	default:
		// Stray control byte inside a CSI sequence: abandon it.
		s.state = stateNormal
	}
}

func (s *Screen) paramOrDefault(def int) int {
	if s.curParamSet {
		return s.curParam
	}
	return def
}

// param returns the i'th CSI parameter, or def if absent/unset (an elided
// parameter or one explicitly given as empty).
func (s *Screen) param(i, def int) int {
	if i < 0 || i >= len(s.csiParams) || s.csiParams[i] < 0 {
		return def
	}
	return s.csiParams[i]
}

func (s *Screen) dispatchCSI(final byte) {
	if s.csiPrefix == '?' {
		s.dispatchPrivateMode(final)
		return
	}
	if s.csiPrefix != 0 {
		s.recordUnhandledCSI(final)
		return
	}

	switch final {
	case 'H', 'f':
		row := clamp(s.param(0, 1)-1, 0, s.rows-1)
		col := clamp(s.param(1, 1)-1, 0, s.cols-1)
		s.cursorRow, s.cursorCol = row, col
		s.pendingWrap = false
	case 'A':
		s.cursorRow = clamp(s.cursorRow-s.param(0, 1), 0, s.rows-1)
		s.pendingWrap = false
	case 'B':
		s.cursorRow = clamp(s.cursorRow+s.param(0, 1), 0, s.rows-1)
		s.pendingWrap = false
	case 'C':
		s.cursorCol = clamp(s.cursorCol+s.param(0, 1), 0, s.cols-1)
		s.pendingWrap = false
	case 'D':
		s.cursorCol = clamp(s.cursorCol-s.param(0, 1), 0, s.cols-1)
		s.pendingWrap = false
	case 'G', '`':
		s.cursorCol = clamp(s.param(0, 1)-1, 0, s.cols-1)
		s.pendingWrap = false
	case 'd':
		s.cursorRow = clamp(s.param(0, 1)-1, 0, s.rows-1)
		s.pendingWrap = false
	case 'J':
		s.eraseDisplay(s.param(0, 0))
	case 'K':
		s.eraseLine(s.param(0, 0))
	case 'L':
		s.insertLines(s.param(0, 1))
	case 'M':
		s.deleteLines(s.param(0, 1))
	case 'P':
		s.deleteChars(s.param(0, 1))
	case '@':
		s.insertChars(s.param(0, 1))
	case 'X':
		s.eraseChars(s.param(0, 1))
	case 'm':
		s.applySGR()
	case 'r':
		top := clamp(s.param(0, 1)-1, 0, s.rows-1)
		bottom := clamp(s.param(1, s.rows)-1, 0, s.rows-1)
		if top < bottom {
			s.scrollTop, s.scrollBottom = top, bottom
		} else {
			s.scrollTop, s.scrollBottom = 0, s.rows-1
		}
		s.cursorRow, s.cursorCol = s.scrollTop, 0
	case 's':
		s.savedRow, s.savedCol = s.cursorRow, s.cursorCol
	case 'u':
		s.cursorRow, s.cursorCol = s.savedRow, s.savedCol
		s.pendingWrap = false
	default:
		s.recordUnhandledCSI(final)
	}
}

func (s *Screen) dispatchPrivateMode(final byte) {
	set := final == 'h'
	if final != 'h' && final != 'l' {
		s.recordUnhandledCSI(final)
		return
	}

	for i := range s.csiParams {
		switch s.param(i, -1) {
		case 7:
			s.autowrap = set
		case 1049, 1047, 47:
			s.setAltScreen(set)
		case 25, 1, 12, 2004, 2026:
			// cursor visibility, app cursor keys, blink, bracketed paste,
			// synchronized-update: tracked by real terminals but not part
			// of this emulator's externally observable contract. Benign.
		default:
			s.recordUnhandledCSI(final)
		}
	}
}

func (s *Screen) setAltScreen(enable bool) {
	if enable == s.usingAlt {
		return
	}
	if enable {
		s.altGrid = newGrid(s.rows, s.cols, s.attrs)
		s.usingAlt = true
	} else {
		s.usingAlt = false
	}
	s.cursorRow, s.cursorCol = 0, 0
	s.pendingWrap = false
}

func (s *Screen) eraseDisplay(mode int) {
	grid := s.activeGrid()
	switch mode {
	case 0:
		s.eraseLineFrom(s.cursorRow, s.cursorCol, s.cols)
		for r := s.cursorRow + 1; r < s.rows; r++ {
			grid[r] = newBlankRow(s.cols, s.attrs)
		}
	case 1:
		for r := 0; r < s.cursorRow; r++ {
			grid[r] = newBlankRow(s.cols, s.attrs)
		}
		s.eraseLineFrom(s.cursorRow, 0, s.cursorCol+1)
	case 2, 3:
		for r := 0; r < s.rows; r++ {
			grid[r] = newBlankRow(s.cols, s.attrs)
		}
	}
}

func (s *Screen) eraseLine(mode int) {
	switch mode {
	case 0:
		s.eraseLineFrom(s.cursorRow, s.cursorCol, s.cols)
	case 1:
		s.eraseLineFrom(s.cursorRow, 0, s.cursorCol+1)
	case 2:
		s.eraseLineFrom(s.cursorRow, 0, s.cols)
	}
}

func (s *Screen) eraseLineFrom(row, from, to int) {
	grid := s.activeGrid()
	if row < 0 || row >= len(grid) {
		return
	}
	for c := from; c < to && c < s.cols; c++ {
		grid[row][c] = blankCell(s.attrs)
	}
}

func (s *Screen) eraseChars(n int) {
	s.eraseLineFrom(s.cursorRow, s.cursorCol, s.cursorCol+n)
}

func (s *Screen) insertChars(n int) {
	grid := s.activeGrid()
	row := grid[s.cursorRow]
	for c := s.cols - 1; c >= s.cursorCol+n; c-- {
		row[c] = row[c-n]
	}
	for c := s.cursorCol; c < s.cursorCol+n && c < s.cols; c++ {
		row[c] = blankCell(s.attrs)
	}
}

func (s *Screen) deleteChars(n int) {
	grid := s.activeGrid()
	row := grid[s.cursorRow]
	for c := s.cursorCol; c < s.cols-n; c++ {
		row[c] = row[c+n]
	}
	for c := max(s.cols-n, s.cursorCol); c < s.cols; c++ {
		row[c] = blankCell(s.attrs)
	}
}

func (s *Screen) insertLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	grid := s.activeGrid()
	for i := 0; i < n; i++ {
		copy(grid[s.cursorRow+1:s.scrollBottom+1], grid[s.cursorRow:s.scrollBottom])
		grid[s.cursorRow] = newBlankRow(s.cols, s.attrs)
	}
}

func (s *Screen) deleteLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	grid := s.activeGrid()
	for i := 0; i < n; i++ {
		copy(grid[s.cursorRow:s.scrollBottom], grid[s.cursorRow+1:s.scrollBottom+1])
		grid[s.scrollBottom] = newBlankRow(s.cols, s.attrs)
	}
}

func (s *Screen) applySGR() {
	if len(s.csiParams) == 0 {
		s.attrs = defaultAttrs()
		return
	}

	for i := 0; i < len(s.csiParams); i++ {
		code := s.param(i, 0)
		switch {
		case code == 0:
			s.attrs = defaultAttrs()
		case code == 1:
			s.attrs.Bold = true
		case code == 2:
			s.attrs.Dim = true
		case code == 3:
			s.attrs.Italic = true
		case code == 4:
			s.attrs.Underline = true
		case code == 7:
			s.attrs.Inverse = true
		case code == 9:
			s.attrs.Strike = true
		case code == 22:
			s.attrs.Bold, s.attrs.Dim = false, false
		case code == 23:
			s.attrs.Italic = false
		case code == 24:
			s.attrs.Underline = false
		case code == 27:
			s.attrs.Inverse = false
		case code == 29:
			s.attrs.Strike = false
		case code == 39:
			s.attrs.FG = defaultColor
		case code == 49:
			s.attrs.BG = defaultColor
		case code >= 30 && code <= 37:
			s.attrs.FG = Color{Kind: ColorNamed, Named: uint8(code - 30)}
		case code >= 40 && code <= 47:
			s.attrs.BG = Color{Kind: ColorNamed, Named: uint8(code - 40)}
		case code >= 90 && code <= 97:
			s.attrs.FG = Color{Kind: ColorNamed, Named: uint8(code-90) + 8}
		case code >= 100 && code <= 107:
			s.attrs.BG = Color{Kind: ColorNamed, Named: uint8(code-100) + 8}
		case code == 38 || code == 48:
			consumed := s.applyExtendedColor(code, i)
			i += consumed
		}
	}
}

// applyExtendedColor parses the 38;5;n / 38;2;r;g;b (and 48-prefixed
// background equivalents) sub-sequences starting at params[i+1]. Returns the
// number of additional params consumed.
func (s *Screen) applyExtendedColor(code, i int) int {
	mode := s.param(i+1, -1)
	switch mode {
	case 5:
		idx := uint8(s.param(i+2, 0))
		c := Color{Kind: ColorIndexed, Indexed: idx}
		if code == 38 {
			s.attrs.FG = c
		} else {
			s.attrs.BG = c
		}
		return 2
	case 2:
		r := uint8(s.param(i+2, 0))
		g := uint8(s.param(i+3, 0))
		b := uint8(s.param(i+4, 0))
		c := Color{Kind: ColorRGB, R: r, G: g, B: b}
		if code == 38 {
			s.attrs.FG = c
		} else {
			s.attrs.BG = c
		}
		return 4
	default:
		return 0
	}
}

func (s *Screen) recordUnhandledCSI(final byte) {
	raw := []byte{0x1b, '['}
	if s.csiPrefix != 0 {
		raw = append(raw, s.csiPrefix)
	}
	printable := "CSI"
	if s.csiPrefix != 0 {
		printable += string(s.csiPrefix)
	}
	for i, p := range s.csiParams {
		if i > 0 {
			raw = append(raw, ';')
			printable += ";"
		}
		if p >= 0 {
			digits := fmt.Sprintf("%d", p)
			raw = append(raw, digits...)
			printable += digits
		}
	}
	raw = append(raw, final)
	printable += string(final)

	s.recordUnhandled(printable, raw)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
