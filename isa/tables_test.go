package isa_test

import (
	"testing"

	"github.com/pep9vm/pep9core/isa"
)

func TestDecodeTable_IsBijectionForLegalModes(t *testing.T) {
	cases := []struct {
		mnemonic isa.Mnemonic
		mode     isa.AddrMode
	}{
		{isa.ADDA, isa.ModeI},
		{isa.ADDA, isa.ModeSFX},
		{isa.CPWA, isa.ModeD},
		{isa.LDWA, isa.ModeX},
		{isa.STWA, isa.ModeD}, // store: i is illegal, d is legal
		{isa.BR, isa.ModeI},
		{isa.BR, isa.ModeX},
		{isa.CALL, isa.ModeX},
		{isa.DECI, isa.ModeD},
	}

	for _, c := range cases {
		opcode, ok := isa.Encode(c.mnemonic, c.mode)
		if !ok {
			t.Fatalf("Encode(%v, %v) unexpectedly illegal", c.mnemonic, c.mode)
		}
		gotM, gotMode, valid := isa.Decode(opcode)
		if !valid {
			t.Fatalf("Decode(%d) reported invalid", opcode)
		}
		if gotM != c.mnemonic || gotMode != c.mode {
			t.Errorf("round trip mismatch: encoded (%v,%v) -> opcode %d -> decoded (%v,%v)",
				c.mnemonic, c.mode, opcode, gotM, gotMode)
		}
	}
}

func TestEncode_StoreRejectsImmediate(t *testing.T) {
	if _, ok := isa.Encode(isa.STWA, isa.ModeI); ok {
		t.Errorf("STWA,i should be illegal (stores can't target an immediate)")
	}
}

func TestEncode_BranchRejectsNonIXModes(t *testing.T) {
	if _, ok := isa.Encode(isa.BR, isa.ModeD); ok {
		t.Errorf("BR,d should be illegal: branches only accept i or x")
	}
}

func TestBaseOpcodes_MatchSpecExamples(t *testing.T) {
	cases := map[isa.Mnemonic]int{
		isa.ADDA: 96,
		isa.CPWA: 160,
		isa.LDWA: 192,
		isa.STWA: 224,
		isa.CALL: 36,
		isa.BR:   18,
		isa.STOP: 0,
	}
	for m, want := range cases {
		if got := m.BaseOpcode(); got != want {
			t.Errorf("%v.BaseOpcode() = %d, want %d", m, got, want)
		}
	}
}

func TestDecodeTable_FullCoverageNoOverlap(t *testing.T) {
	seen := make(map[int]bool)
	for opcode := 0; opcode < 256; opcode++ {
		_, _, valid := isa.Decode(byte(opcode))
		if !valid {
			continue
		}
		seen[opcode] = true
	}
	// Every opcode in 0-255 must be assigned.
	for opcode := 0; opcode < 256; opcode++ {
		if !seen[opcode] {
			t.Errorf("opcode %d has no decode entry", opcode)
		}
	}
}

func TestLookup_KnownMnemonics(t *testing.T) {
	for _, name := range []string{"LDWA", "STWA", "BR", "CALL", "STOP", "DECI"} {
		if _, ok := isa.Lookup(name); !ok {
			t.Errorf("Lookup(%q) failed, expected a known mnemonic", name)
		}
	}
	if _, ok := isa.Lookup("NOTAREALOP"); ok {
		t.Errorf("Lookup of an unknown mnemonic should fail")
	}
}

func TestDecodeTable_NonUnaryTrapsCycleAddressingModes(t *testing.T) {
	cases := []struct {
		mnemonic isa.Mnemonic
		mode     isa.AddrMode
	}{
		{isa.DECO, isa.ModeI},
		{isa.DECO, isa.ModeX},
		{isa.HEXO, isa.ModeD},
		{isa.STRO, isa.ModeS},
	}
	for _, c := range cases {
		opcode, ok := isa.Encode(c.mnemonic, c.mode)
		if !ok {
			t.Fatalf("Encode(%v, %v) unexpectedly illegal", c.mnemonic, c.mode)
		}
		gotM, gotMode, valid := isa.Decode(opcode)
		if !valid || gotM != c.mnemonic || gotMode != c.mode {
			t.Errorf("Decode(%d) = (%v,%v,%v), want (%v,%v,true)", opcode, gotM, gotMode, valid, c.mnemonic, c.mode)
		}
	}
}

func TestIsStoreMnemonic_IncludesDECI(t *testing.T) {
	if !isa.DECI.IsStore() {
		t.Errorf("DECI should count as a store mnemonic (it writes the decoded value to memory)")
	}
	if isa.LDWA.IsStore() {
		t.Errorf("LDWA should not be a store mnemonic")
	}
}
