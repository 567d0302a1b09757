package trace

import (
	"github.com/pep9vm/pep9core/cpu"
	"github.com/pep9vm/pep9core/isa"
)

// TraceInfo is the static, per-program output of the assembler's
// trace-tag post-processing pass: which symbols are stack/heap/global
// allocations and what Type they carry, which addresses are ADDSP/
// SUBSP sites with a declared tag list, and whether the program wires
// up a heap (both `malloc` and `heap` symbols present).
type TraceInfo struct {
	HadTraceTags      bool
	StaticTraceError  bool
	StaticAllocSymbols  map[string]Type
	DynamicAllocSymbols map[string]Type
	InstrToSymList      map[uint16][]TypedSlot

	HasHeapMalloc bool
	HeapPtr       uint16
	MallocAddr    uint16 // resolved address of the `malloc` symbol
}

// NewTraceInfo returns an empty TraceInfo with its maps initialized.
func NewTraceInfo() *TraceInfo {
	return &TraceInfo{
		StaticAllocSymbols:  make(map[string]Type),
		DynamicAllocSymbols: make(map[string]Type),
		InstrToSymList:      make(map[uint16][]TypedSlot),
	}
}

// Tracer implements cpu.TraceHooks: it is the live adapter between the
// CPU's fetch-decode-execute loop and a MemoryTrace's call-stack
// reconstruction.
type Tracer struct {
	Info  *TraceInfo
	Trace *MemoryTrace
}

// NewTracer builds a Tracer over a fresh MemoryTrace seeded from info.
// info may be nil for a CPU run with no trace tags; the Tracer then
// still tracks call/return structure, just without heap or named-slot
// detail.
func NewTracer(info *TraceInfo) *Tracer {
	heapBase := uint16(0)
	if info != nil {
		heapBase = info.HeapPtr
	}
	return &Tracer{Info: info, Trace: NewMemoryTrace(heapBase)}
}

// CalculateStart switches the active stack to the OS stack on trap
// entry, and back to the user stack on RETTR, mirroring the hardware
// context switch the CPU itself performs to the register file.
func (tr *Tracer) CalculateStart(m isa.Mnemonic) {
	switch {
	case m == isa.RETTR:
		tr.Trace.ActiveStack = tr.Trace.UserStack
	case m.IsTrap():
		tr.Trace.ActiveStack = tr.Trace.OSStack
	}
}

// CalculateEnd updates the active stack's call/frame model per the
// mnemonic just executed. operand is the raw (addressing-mode
// specifier) operand value, sp/pc/a are start-of-instruction register
// values (sp and a in particular must precede the instruction's own
// effect to match the CPU's call semantics: a CALL's heap allocation
// size is the caller's A at the moment of the call).
func (tr *Tracer) CalculateEnd(m isa.Mnemonic, operand uint16, sp, pc, a uint16) {
	active := tr.Trace.ActiveStack

	switch m {
	case isa.CALL:
		active.Call(sp)
		tr.maybeTraceMalloc(operand, pc, a)
	case isa.RET:
		active.Ret()
	case isa.SUBSP:
		active.Subsp(sp, tr.symList(pc))
	case isa.ADDSP:
		active.Addsp(int(operand))
	default:
		if m.IsBranchFamily() {
			active.Branch()
		}
	}
}

func (tr *Tracer) symList(addr uint16) []TypedSlot {
	if tr.Info == nil {
		return nil
	}
	return tr.Info.InstrToSymList[addr]
}

// maybeTraceMalloc registers a heap allocation when callAddr is a
// tagged call to malloc: the call site's tag list supplies the
// allocation's declared Type, and requestedSize (A at the moment of
// the call) is how far the bump allocator advances.
func (tr *Tracer) maybeTraceMalloc(callTarget, callSite uint16, requestedSize uint16) {
	if tr.Info == nil || !tr.Info.HasHeapMalloc || callTarget != tr.Info.MallocAddr {
		return
	}
	items := tr.Info.InstrToSymList[callSite]
	if len(items) == 0 {
		return
	}
	tr.Trace.Heap.Alloc(items[0], requestedSize)
}

var _ cpu.TraceHooks = (*Tracer)(nil)
