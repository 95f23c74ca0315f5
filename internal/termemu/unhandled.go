package termemu

import "fmt"

// UnhandledEntry is one recorded escape sequence the emulator did not
// recognize.
type UnhandledEntry struct {
	Sequence string // human-readable printable form, e.g. "CSI?1000h"
	RawHex   string // hex dump of the raw bytes, e.g. "1b5b3f3130303068"
	Seq      uint64 // monotonic order, stable across DEBUG(clear) snapshots
}

func (s *Screen) recordUnhandled(printable string, raw []byte) {
	s.unhandledSeq++
	entry := UnhandledEntry{
		Sequence: printable,
		RawHex:   fmt.Sprintf("%x", raw),
		Seq:      s.unhandledSeq,
	}

	if len(s.unhandled) >= s.unhandledCap {
		s.unhandled = append(s.unhandled[1:], entry)
		s.dropped++
		return
	}

	s.unhandled = append(s.unhandled, entry)
}

// Unhandled returns a snapshot of the recorded unhandled sequences and the
// dropped count. If clear is true, the buffer and counter are atomically
// reset after the snapshot is taken.
func (s *Screen) Unhandled(clear bool) ([]UnhandledEntry, int) {
	snapshot := make([]UnhandledEntry, len(s.unhandled))
	copy(snapshot, s.unhandled)
	dropped := s.dropped

	if clear {
		s.unhandled = s.unhandled[:0]
		s.dropped = 0
	}

	return snapshot, dropped
}
