package asm

import (
	"testing"

	"github.com/pep9vm/pep9core/isa"
)

func TestParser_UnaryInstruction(t *testing.T) {
	p := NewParser("")
	entries, _, errs := p.Parse("STOP\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	if len(entries) != 1 || entries[0].Kind != KindUnaryInstr || entries[0].Mnemonic != isa.STOP {
		t.Fatalf("got %+v", entries)
	}
	if entries[0].ByteLen() != 1 {
		t.Errorf("ByteLen() = %d, want 1", entries[0].ByteLen())
	}
}

func TestParser_NonUnaryWithAddrMode(t *testing.T) {
	p := NewParser("")
	entries, _, errs := p.Parse("LDWA 0x0041,i\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	e := entries[0]
	if e.Kind != KindNonUnaryInstr || e.Mnemonic != isa.LDWA || e.AddrMode != isa.ModeI {
		t.Fatalf("got %+v", e)
	}
	v, _ := e.Argument.Value()
	if v != 0x0041 {
		t.Errorf("operand = 0x%04X, want 0x0041", v)
	}
}

func TestParser_BranchDefaultsToImmediate(t *testing.T) {
	p := NewParser("")
	entries, _, errs := p.Parse("end: BR end\n.END\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	if entries[0].AddrMode != isa.ModeI {
		t.Fatalf("AddrMode = %s, want i (default)", entries[0].AddrMode)
	}
}

func TestParser_IllegalAddrModeIsSemanticError(t *testing.T) {
	p := NewParser("")
	_, _, errs := p.Parse("STWA 0x0000,i\n")
	if !errs.HasFatal() {
		t.Fatal("expected a semantic error: STWA excludes immediate addressing")
	}
}

func TestParser_EquateDefinesNumericSymbol(t *testing.T) {
	p := NewParser("")
	_, symbols, errs := p.Parse("five: .EQUATE 5\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	sym, ok := symbols.Get("five")
	if !ok || !sym.Defined() {
		t.Fatal("expected symbol five to be defined")
	}
}

func TestParser_AddressAccounting(t *testing.T) {
	p := NewParser("")
	entries, _, errs := p.Parse("STOP\nLDWA 0x0000,i\n.BLOCK 4\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	wantAddrs := []int32{0, 1, 4}
	for i, want := range wantAddrs {
		if entries[i].MemoryAddress != want {
			t.Errorf("entry %d address = %d, want %d", i, entries[i].MemoryAddress, want)
		}
	}
}

func TestParser_MultiplyDefinedSymbolIsSemanticError(t *testing.T) {
	p := NewParser("")
	_, _, errs := p.Parse("x: .EQUATE 1\nx: .EQUATE 2\n")
	if !errs.HasFatal() {
		t.Fatal("expected a semantic error for a multiply-defined symbol")
	}
}

func TestParser_AlignPadsToBoundary(t *testing.T) {
	p := NewParser("")
	entries, _, errs := p.Parse("STOP\n.ALIGN 4\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	align := entries[1]
	if align.Kind != KindDotAlign || align.GeneratedBytes != 3 {
		t.Fatalf("got %+v, want 3 padding bytes to reach a 4-byte boundary from address 1", align)
	}
}

func TestParser_ByteAcceptsNegativeLiteral(t *testing.T) {
	p := NewParser("")
	_, _, errs := p.Parse(".BYTE -1\n")
	if errs.HasFatal() {
		t.Fatalf(".BYTE -1 is in range -128..255, got fatal errors: %s", errs)
	}

	p = NewParser("")
	_, _, errs = p.Parse(".BYTE -128\n")
	if errs.HasFatal() {
		t.Fatalf(".BYTE -128 is in range -128..255, got fatal errors: %s", errs)
	}
}

func TestParser_ByteRejectsOutOfRangeLiteral(t *testing.T) {
	p := NewParser("")
	_, _, errs := p.Parse(".BYTE -129\n")
	if !errs.HasFatal() {
		t.Fatalf(".BYTE -129 is below -128, expected a fatal error")
	}

	p = NewParser("")
	_, _, errs = p.Parse(".BYTE 256\n")
	if !errs.HasFatal() {
		t.Fatalf(".BYTE 256 is above 255, expected a fatal error")
	}
}

func TestParser_WordRejectsOutOfRangeLiteral(t *testing.T) {
	p := NewParser("")
	_, _, errs := p.Parse(".WORD 99999\n")
	if !errs.HasFatal() {
		t.Fatalf(".WORD 99999 is above 65535, expected a fatal error")
	}
}

func TestParser_WordAcceptsFullRange(t *testing.T) {
	p := NewParser("")
	_, _, errs := p.Parse(".WORD -32768\n")
	if errs.HasFatal() {
		t.Fatalf(".WORD -32768 is in range -32768..65535, got fatal errors: %s", errs)
	}

	p = NewParser("")
	_, _, errs = p.Parse(".WORD 65535\n")
	if errs.HasFatal() {
		t.Fatalf(".WORD 65535 is in range -32768..65535, got fatal errors: %s", errs)
	}
}
