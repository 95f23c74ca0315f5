package termemu

// ColorKind distinguishes how a Color's value should be interpreted.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorNamed             // 0-15, the standard 16-color palette
	ColorIndexed           // 0-255, xterm 256-color palette
	ColorRGB               // 24-bit true color
)

// Color is a cell's foreground or background color.
type Color struct {
	Kind    ColorKind
	Named   uint8 // valid when Kind == ColorNamed, 0-15
	Indexed uint8 // valid when Kind == ColorIndexed
	R, G, B uint8 // valid when Kind == ColorRGB
}

var defaultColor = Color{Kind: ColorDefault}

// namedCode returns the SGR code for a named color: 30-37/90-97 for a
// foreground, 40-47/100-107 for a background.
func namedCode(n uint8, background bool) int {
	base := 30
	if background {
		base = 40
	}
	if n >= 8 {
		base += 60 // bright range: 90-97 / 100-107
		return base + int(n) - 8
	}
	return base + int(n)
}
