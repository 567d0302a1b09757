package asm

import (
	"testing"

	"github.com/pep9vm/pep9core/trace"
)

func TestPostprocessTraceTags_PrimitiveOnBlock(t *testing.T) {
	p := NewParser("")
	entries, symbols, errs := p.Parse("n: .BLOCK 2 ; #2d\n.END\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	info := postprocessTraceTags(entries, symbols, errs)
	if !info.HadTraceTags {
		t.Fatal("expected HadTraceTags to be true")
	}
	ty, ok := info.StaticAllocSymbols["n"]
	if !ok || ty.Format != trace.Fmt2D {
		t.Fatalf("got %+v, want a 2d primitive for symbol n", ty)
	}
}

func TestPostprocessTraceTags_SubspTagListSumsToOperand(t *testing.T) {
	p := NewParser("")
	entries, symbols, errs := p.Parse("CALL foo\nSUBSP 4,i ; #2d #2d\nADDSP 4,i\nfoo: RET\n.END\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	info := postprocessTraceTags(entries, symbols, errs)
	subsp := entries[1]
	slots := info.InstrToSymList[uint16(subsp.MemoryAddress)]
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}
	total := 0
	for _, s := range slots {
		total += s.Type.Size()
	}
	if total != 4 {
		t.Fatalf("tag sizes sum to %d, want 4 (the SUBSP operand)", total)
	}
}

func TestPostprocessTraceTags_HeapActivatesOnlyWithBothSymbols(t *testing.T) {
	p := NewParser("")
	entries, symbols, errs := p.Parse("malloc: RET\nheap: .BLOCK 2\n.END\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	info := postprocessTraceTags(entries, symbols, errs)
	if !info.HasHeapMalloc {
		t.Fatal("expected heap support to activate: both malloc and heap are defined location symbols")
	}
}

func TestPostprocessTraceTags_NoHeapSymbolsMeansNoHeap(t *testing.T) {
	p := NewParser("")
	entries, symbols, errs := p.Parse("STOP\n.END\n")
	if errs.HasFatal() {
		t.Fatalf("unexpected errors: %s", errs)
	}
	info := postprocessTraceTags(entries, symbols, errs)
	if info.HasHeapMalloc {
		t.Fatal("expected no heap support without malloc/heap symbols")
	}
}
