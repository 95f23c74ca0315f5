package termemu

import "strings"

// RenderPlain renders the active screen buffer as plain text, one row per
// line joined by "\n". Trailing spaces on each row are trimmed; this is a
// deterministic choice (documented here, not configurable) rather than
// padding every row out to the full column width.
func (s *Screen) RenderPlain() string {
	grid := s.activeGrid()
	lines := make([]string, s.rows)
	for r := 0; r < s.rows; r++ {
		lines[r] = rowText(grid[r])
	}
	return strings.Join(lines, "\n")
}

// Line returns the rendered text of a single 1-based row, used by WAIT's
// line-changed and line-predicate modes.
func (s *Screen) Line(row int) string {
	grid := s.activeGrid()
	idx := row - 1
	if idx < 0 || idx >= len(grid) {
		return ""
	}
	return rowText(grid[idx])
}

func rowText(row []Cell) string {
	var b strings.Builder
	for _, cell := range row {
		if cell.Continuation {
			continue
		}
		b.WriteRune(cell.Rune)
		for _, m := range cell.Combining {
			b.WriteRune(m)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// RenderANSI renders the active screen buffer as text with embedded SGR
// sequences so colors and attributes survive the round trip. Trailing
// spaces are trimmed per row, matching RenderPlain's geometry.
func (s *Screen) RenderANSI() string {
	grid := s.activeGrid()
	lines := make([]string, s.rows)
	for r := 0; r < s.rows; r++ {
		lines[r] = rowANSI(grid[r])
	}
	return strings.Join(lines, "\n")
}

func rowANSI(row []Cell) string {
	var b strings.Builder
	current := defaultAttrs()
	wroteAny := false

	trimAt := len(row)
	for trimAt > 0 && row[trimAt-1].Rune == ' ' && len(row[trimAt-1].Combining) == 0 && !row[trimAt-1].Continuation {
		trimAt--
	}

	for i := 0; i < trimAt; i++ {
		cell := row[i]
		if cell.Continuation {
			continue
		}
		if cell.Attrs != current {
			b.WriteString(cell.Attrs.sgrSequence())
			current = cell.Attrs
		}
		b.WriteRune(cell.Rune)
		for _, m := range cell.Combining {
			b.WriteRune(m)
		}
		wroteAny = true
	}

	if wroteAny && current != defaultAttrs() {
		b.WriteString("\x1b[0m")
	}

	return b.String()
}
