package cpu_test

import (
	"testing"

	"github.com/pep9vm/pep9core/cpu"
	"github.com/pep9vm/pep9core/isa"
	"github.com/pep9vm/pep9core/mem"
)

func TestStepOver_RunsCallToCompletion(t *testing.T) {
	m := mem.New()
	m.Construct([]mem.Spec{{Kind: mem.RAM, Base: 0, Span: 0xFFFF}})
	c := cpu.New(m)
	c.Regs.Current.SP = 0x8000

	encodeNonUnary(m, 0, isa.CALL, isa.ModeI, 100)
	encodeNonUnary(m, 3, isa.LDWA, isa.ModeI, 99) // instruction after the call

	encodeNonUnary(m, 100, isa.LDWA, isa.ModeI, 1)
	encodeUnary(m, 103, isa.RET)

	result, err := c.StepOver()
	if result != cpu.StepOK || err != nil {
		t.Fatalf("StepOver: result=%v err=%v", result, err)
	}
	if c.Regs.Current.PC != 3 {
		t.Fatalf("PC = %d, want 3 (back at the instruction after CALL)", c.Regs.Current.PC)
	}
	if c.Regs.Current.SP != 0x8000 {
		t.Fatalf("SP = 0x%04X, want 0x8000 (call frame fully unwound)", c.Regs.Current.SP)
	}

	if _, err := c.StepOver(); err != nil {
		t.Fatalf("second StepOver: %v", err)
	}
	if c.Regs.Current.A != 99 {
		t.Fatalf("A = %d, want 99", c.Regs.Current.A)
	}
}

func TestStepOver_NonCallBehavesLikeStep(t *testing.T) {
	m := mem.New()
	m.Construct([]mem.Spec{{Kind: mem.RAM, Base: 0, Span: 0xFFFF}})
	c := cpu.New(m)
	encodeNonUnary(m, 0, isa.LDWA, isa.ModeI, 7)

	if _, err := c.StepOver(); err != nil {
		t.Fatalf("StepOver: %v", err)
	}
	if c.Regs.Current.A != 7 {
		t.Fatalf("A = %d, want 7", c.Regs.Current.A)
	}
}

func TestStepOut_ReturnsToCaller(t *testing.T) {
	m := mem.New()
	m.Construct([]mem.Spec{{Kind: mem.RAM, Base: 0, Span: 0xFFFF}})
	c := cpu.New(m)
	c.Regs.Current.SP = 0x8000

	encodeNonUnary(m, 0, isa.CALL, isa.ModeI, 100)
	encodeUnary(m, 100, isa.NOTA)
	encodeUnary(m, 101, isa.RET)

	if _, err := c.Step(); err != nil { // execute CALL, enter the callee
		t.Fatalf("CALL: %v", err)
	}
	if c.Regs.Current.PC != 100 {
		t.Fatalf("PC = %d, want 100", c.Regs.Current.PC)
	}

	result, err := c.StepOut()
	if result != cpu.StepOK || err != nil {
		t.Fatalf("StepOut: result=%v err=%v", result, err)
	}
	if c.Regs.Current.PC != 3 {
		t.Fatalf("PC = %d, want 3 (returned to caller)", c.Regs.Current.PC)
	}
}
