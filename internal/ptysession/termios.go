package ptysession

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Termios is the daemon's view of the PTY slave's line discipline, as
// returned by DEBUG.
type Termios struct {
	Mode  string // "cooked" or "raw", based on ICANON
	Iflag string // hex
	Oflag string // hex
	Lflag string // hex
	Cflag string // hex
	Cc    map[string]string // control character map in ^X notation
}

// ccNames maps termios control-character array indices to their canonical
// name, in the order golang.org/x/sys/unix defines the VINTR..VDISCARD
// constants.
var ccNames = map[int]string{
	unix.VINTR:    "VINTR",
	unix.VQUIT:    "VQUIT",
	unix.VERASE:   "VERASE",
	unix.VKILL:    "VKILL",
	unix.VEOF:     "VEOF",
	unix.VTIME:    "VTIME",
	unix.VMIN:     "VMIN",
	unix.VSTART:   "VSTART",
	unix.VSTOP:    "VSTOP",
	unix.VSUSP:    "VSUSP",
	unix.VEOL:     "VEOL",
	unix.VREPRINT: "VREPRINT",
	unix.VDISCARD: "VDISCARD",
	unix.VWERASE:  "VWERASE",
	unix.VLNEXT:   "VLNEXT",
	unix.VEOL2:    "VEOL2",
}

// snapshotTermios reads the termios state of fd via TCGETS.
func snapshotTermios(fd int) (Termios, error) {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return Termios{}, fmt.Errorf("termios snapshot: %w", err)
	}

	mode := "cooked"
	if t.Lflag&unix.ICANON == 0 {
		mode = "raw"
	}

	cc := make(map[string]string, len(ccNames))
	for idx, name := range ccNames {
		if idx < 0 || idx >= len(t.Cc) {
			continue
		}
		cc[name] = ctrlNotation(t.Cc[idx])
	}

	return Termios{
		Mode:  mode,
		Iflag: fmt.Sprintf("%#x", t.Iflag),
		Oflag: fmt.Sprintf("%#x", t.Oflag),
		Lflag: fmt.Sprintf("%#x", t.Lflag),
		Cflag: fmt.Sprintf("%#x", t.Cflag),
		Cc:    cc,
	}, nil
}

// ctrlNotation renders a control character byte in "^X" notation, matching
// what stty prints (e.g. 0x03 -> "^C", 0xff -> "<undef>").
func ctrlNotation(b byte) string {
	if b == 0xff {
		return "<undef>"
	}
	if b < 0x20 {
		return fmt.Sprintf("^%c", b+'@')
	}
	if b == 0x7f {
		return "^?"
	}
	return fmt.Sprintf("%q", rune(b))
}
