package asm

import "testing"

func TestFormatObject_MinimalProgram(t *testing.T) {
	got := FormatObject([]byte{0x00})
	want := "00\nzz"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatObject_WrapsAt16BytesPerLine(t *testing.T) {
	bytes := make([]byte, 17)
	for i := range bytes {
		bytes[i] = byte(i)
	}
	got := FormatObject(bytes)
	lines := splitLines(got)
	if len(lines) != 3 { // 16 bytes, 1 byte, "zz"
		t.Fatalf("got %d lines, want 3: %q", len(lines), got)
	}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func TestParseObject_RoundTrip(t *testing.T) {
	bytes := []byte{0x00, 0xFF, 0x41, 0xFC, 0x16}
	text := FormatObject(bytes)
	got, err := ParseObject(text)
	if err != nil {
		t.Fatalf("ParseObject: %v", err)
	}
	if len(got) != len(bytes) {
		t.Fatalf("got %d bytes, want %d", len(got), len(bytes))
	}
	for i := range bytes {
		if got[i] != bytes[i] {
			t.Errorf("byte %d = 0x%02X, want 0x%02X", i, got[i], bytes[i])
		}
	}
}

func TestParseObject_StopsAtSentinel(t *testing.T) {
	got, err := ParseObject("00 01 zz 99")
	if err != nil {
		t.Fatalf("ParseObject: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d bytes, want 2 (stop at zz)", len(got))
	}
}
