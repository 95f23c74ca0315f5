package termemu

import (
	"strings"
	"testing"
)

func TestBasicTextAndCursorAdvance(t *testing.T) {
	s := New(24, 80, 10)
	s.Process([]byte("hello"))

	if got := s.Line(1); got != "hello" {
		t.Errorf("Line(1) = %q, want %q", got, "hello")
	}

	row, col := s.CursorPosition()
	if row != 1 || col != 6 {
		t.Errorf("CursorPosition() = (%d,%d), want (1,6)", row, col)
	}
}

func TestCRLF(t *testing.T) {
	s := New(24, 80, 10)
	s.Process([]byte("hello\r\nworld"))

	if got := s.Line(1); got != "hello" {
		t.Errorf("Line(1) = %q, want %q", got, "hello")
	}
	if got := s.Line(2); got != "world" {
		t.Errorf("Line(2) = %q, want %q", got, "world")
	}
}

func TestCursorWithinGridBounds(t *testing.T) {
	s := New(5, 10, 10)
	// Move cursor far beyond bounds in every direction; it must clamp.
	s.Process([]byte("\x1b[999;999H"))
	row, col := s.CursorPosition()
	if row != 5 || col != 10 {
		t.Errorf("CursorPosition() = (%d,%d), want (5,10)", row, col)
	}

	s.Process([]byte("\x1b[999A\x1b[999D"))
	row, col = s.CursorPosition()
	if row != 1 || col != 1 {
		t.Errorf("CursorPosition() = (%d,%d), want (1,1)", row, col)
	}
}

func TestAutowrap(t *testing.T) {
	s := New(3, 5, 10)
	s.Process([]byte("abcdefg"))
	if got := s.Line(1); got != "abcde" {
		t.Errorf("Line(1) = %q, want %q", got, "abcde")
	}
	if got := s.Line(2); got != "fg" {
		t.Errorf("Line(2) = %q, want %q", got, "fg")
	}
}

func TestScrollAtBottomOfRegion(t *testing.T) {
	s := New(3, 10, 10)
	s.Process([]byte("one\r\ntwo\r\nthree\r\nfour"))

	if got := s.Line(1); got != "two" {
		t.Errorf("Line(1) = %q, want %q", got, "two")
	}
	if got := s.Line(3); got != "four" {
		t.Errorf("Line(3) = %q, want %q", got, "four")
	}
}

func TestSGRBoldAndColorRoundTrip(t *testing.T) {
	s := New(24, 80, 10)
	s.Process([]byte("\x1b[1;31mred-bold\x1b[0m"))

	ansi := s.RenderANSI()
	if !strings.Contains(ansi, "31") {
		t.Errorf("RenderANSI() = %q, expected SGR 31 present", ansi)
	}
	if got := s.Line(1); got != "red-bold" {
		t.Errorf("Line(1) = %q, want %q", got, "red-bold")
	}
}

func TestUnhandledSequenceRecorded(t *testing.T) {
	s := New(24, 80, 2)
	s.Process([]byte("\x1b[5n")) // DSR, not implemented -> unhandled

	entries, dropped := s.Unhandled(false)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if entries[0].Sequence == "" || entries[0].RawHex == "" {
		t.Errorf("entry has empty fields: %+v", entries[0])
	}
}

func TestUnhandledBufferOverflowDrops(t *testing.T) {
	s := New(24, 80, 2)
	for i := 0; i < 5; i++ {
		s.Process([]byte("\x1b[5n"))
	}

	entries, dropped := s.Unhandled(false)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
}

func TestUnhandledClear(t *testing.T) {
	s := New(24, 80, 10)
	s.Process([]byte("\x1b[5n"))

	entries, _ := s.Unhandled(true)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}

	entries, dropped := s.Unhandled(false)
	if len(entries) != 0 || dropped != 0 {
		t.Errorf("buffer not cleared: entries=%v dropped=%d", entries, dropped)
	}
}

func TestSGRNotRecordedAsUnhandled(t *testing.T) {
	s := New(24, 80, 10)
	s.Process([]byte("\x1b[1;32;44mtext\x1b[0m"))

	entries, _ := s.Unhandled(false)
	if len(entries) != 0 {
		t.Errorf("SGR sequences should not be recorded unhandled, got %v", entries)
	}
}

func TestAlternateScreenPreservesPrimary(t *testing.T) {
	s := New(5, 10, 10)
	s.Process([]byte("primary"))
	s.Process([]byte("\x1b[?1049h"))
	s.Process([]byte("alt"))

	if got := s.Line(1); got != "alt" {
		t.Errorf("alt screen Line(1) = %q, want %q", got, "alt")
	}

	s.Process([]byte("\x1b[?1049l"))
	if got := s.Line(1); got != "primary" {
		t.Errorf("restored primary Line(1) = %q, want %q", got, "primary")
	}
}

func TestResizeDimensions(t *testing.T) {
	s := New(24, 80, 10)
	s.SetSize(40, 120)
	rows, cols := s.Size()
	if rows != 40 || cols != 120 {
		t.Errorf("Size() = (%d,%d), want (40,120)", rows, cols)
	}
}

func TestPlainOutputHasNoControlBytes(t *testing.T) {
	s := New(3, 10, 10)
	s.Process([]byte("hi\r\nthere"))

	out := s.RenderPlain()
	for _, r := range out {
		if r == '\n' {
			continue
		}
		if r < 0x20 {
			t.Fatalf("RenderPlain() contains control byte %q", r)
		}
	}
}

func TestOutputRowCountMatchesSize(t *testing.T) {
	s := New(4, 10, 10)
	out := s.RenderPlain()
	if got := len(strings.Split(out, "\n")); got != 4 {
		t.Errorf("row count = %d, want 4", got)
	}
}

func TestWideRuneOccupiesTwoCells(t *testing.T) {
	s := New(5, 10, 10)
	s.Process([]byte("\xe4\xbd\xa0\xe5\xa5\xbd")) // 你好, two wide runes

	row, col := s.CursorPosition()
	if row != 1 || col != 5 {
		t.Errorf("CursorPosition() = (%d,%d), want (1,5) after two wide runes", row, col)
	}
}
