package termemu

// isWide reports whether r occupies two terminal columns. This is a local,
// known-incomplete approximation of East Asian Width (common CJK, Hangul,
// and fullwidth-form ranges only) rather than a dependency on
// golang.org/x/text/width, which nothing in the example pack imports
// directly for this purpose.
func isWide(r rune) bool {
	switch {
	case r >= 0x1100 && r <= 0x115F: // Hangul Jamo
		return true
	case r >= 0x2E80 && r <= 0xA4CF && r != 0x303F: // CJK Radicals .. Yi
		return true
	case r >= 0xAC00 && r <= 0xD7A3: // Hangul syllables
		return true
	case r >= 0xF900 && r <= 0xFAFF: // CJK compatibility ideographs
		return true
	case r >= 0xFF00 && r <= 0xFF60: // fullwidth forms
		return true
	case r >= 0xFFE0 && r <= 0xFFE6: // fullwidth signs
		return true
	case r >= 0x20000 && r <= 0x3FFFD: // CJK extensions, supplementary
		return true
	default:
		return false
	}
}

// isCombining reports whether r is a combining mark that should attach to
// the previously written cell rather than occupy a column of its own.
func isCombining(r rune) bool {
	switch {
	case r >= 0x0300 && r <= 0x036F: // combining diacritical marks
		return true
	case r >= 0x1AB0 && r <= 0x1AFF:
		return true
	case r >= 0x1DC0 && r <= 0x1DFF:
		return true
	case r >= 0x20D0 && r <= 0x20FF:
		return true
	case r >= 0xFE20 && r <= 0xFE2F:
		return true
	default:
		return false
	}
}
