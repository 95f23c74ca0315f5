package termemu

import (
	"fmt"
	"strings"
)

// Attrs is the SGR attribute state attached to a cell (or the emulator's
// current graphic-rendition state, before it's stamped onto a cell).
type Attrs struct {
	Bold      bool
	Dim       bool
	Italic    bool
	Underline bool
	Inverse   bool
	Strike    bool
	FG        Color
	BG        Color
}

func defaultAttrs() Attrs {
	return Attrs{FG: defaultColor, BG: defaultColor}
}

// sgrSequence renders the escape sequence that reproduces a from a "reset"
// baseline. Used by RenderANSI to re-establish style when it changes between
// cells.
func (a Attrs) sgrSequence() string {
	if a == defaultAttrs() {
		return "\x1b[0m"
	}

	var codes []string
	codes = append(codes, "0")
	if a.Bold {
		codes = append(codes, "1")
	}
	if a.Dim {
		codes = append(codes, "2")
	}
	if a.Italic {
		codes = append(codes, "3")
	}
	if a.Underline {
		codes = append(codes, "4")
	}
	if a.Inverse {
		codes = append(codes, "7")
	}
	if a.Strike {
		codes = append(codes, "9")
	}

	switch a.FG.Kind {
	case ColorNamed:
		codes = append(codes, fmt.Sprintf("%d", namedCode(a.FG.Named, false)))
	case ColorIndexed:
		codes = append(codes, fmt.Sprintf("38;5;%d", a.FG.Indexed))
	case ColorRGB:
		codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", a.FG.R, a.FG.G, a.FG.B))
	}

	switch a.BG.Kind {
	case ColorNamed:
		codes = append(codes, fmt.Sprintf("%d", namedCode(a.BG.Named, true)))
	case ColorIndexed:
		codes = append(codes, fmt.Sprintf("48;5;%d", a.BG.Indexed))
	case ColorRGB:
		codes = append(codes, fmt.Sprintf("48;2;%d;%d;%d", a.BG.R, a.BG.G, a.BG.B))
	}

	return "\x1b[" + strings.Join(codes, ";") + "m"
}
