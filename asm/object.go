package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatObject renders bytes as the .pepo object-file format:
// whitespace-delimited uppercase hex pairs, 16 per line, terminated
// by a "zz" sentinel line.
func FormatObject(bytes []byte) string {
	var b strings.Builder
	for i, by := range bytes {
		if i > 0 && i%16 == 0 {
			b.WriteByte('\n')
		} else if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", by)
	}
	if len(bytes) > 0 {
		b.WriteByte('\n')
	}
	b.WriteString("zz")
	return b.String()
}

// ParseObject parses the .pepo format back into bytes, stopping at the
// "zz" sentinel. Case-insensitive on both the hex digits and the
// sentinel, matching the reference format reader.
func ParseObject(text string) ([]byte, error) {
	var out []byte
	for _, field := range strings.Fields(text) {
		if strings.EqualFold(field, "zz") {
			return out, nil
		}
		v, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("malformed object byte %q: %w", field, err)
		}
		out = append(out, byte(v))
	}
	return nil, fmt.Errorf("object stream missing zz terminator")
}

// FormatListing renders a .pepl listing: one line per CodeEntry with
// its address, object bytes (if any), and the original source text,
// columns aligned the way a fixed-width assembler listing is.
func FormatListing(entries []*CodeEntry, source []string) string {
	var b strings.Builder
	for _, e := range entries {
		addrField := "     "
		if e.EmitObjectCode || e.Kind == KindDotAlign {
			addrField = fmt.Sprintf("%04X ", uint16(e.MemoryAddress))
		}
		objField := listingObjectField(e)
		srcLine := ""
		if idx := int(e.SourceLine) - 1; idx >= 0 && idx < len(source) {
			srcLine = source[idx]
		}
		fmt.Fprintf(&b, "%s%-12s%s\n", addrField, objField, srcLine)
	}
	return b.String()
}

func listingObjectField(e *CodeEntry) string {
	bytes, err := entryBytes(e)
	if err != nil || len(bytes) == 0 {
		return ""
	}
	var b strings.Builder
	for i, by := range bytes {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", by)
	}
	return b.String()
}
