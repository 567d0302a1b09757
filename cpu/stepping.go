package cpu

import (
	"github.com/pep9vm/pep9core/isa"
	"github.com/pep9vm/pep9core/mem"
)

// StepInto executes exactly one instruction, descending into a CALL
// rather than running it to completion. It is Step under another name,
// kept distinct so callers reading debugger code can tell which
// stepping mode they asked for.
func (c *CPU) StepInto() (StepResult, error) {
	return c.Step()
}

// StepOver executes one instruction, but if it's a CALL, runs until
// the call returns to this level rather than stopping inside it. The
// call's own SP (before CALL pushes the return address) is the
// watermark: once SP climbs back to or past it, the subroutine has
// returned.
func (c *CPU) StepOver() (StepResult, error) {
	pc := c.Regs.Current.PC
	opcodeByte, err := c.Memory.ReadByte(pc)
	if err != nil && err != mem.ErrUnmapped {
		return c.Step() // let Step itself surface the fetch error
	}
	mnemonic, _, valid := isa.Decode(opcodeByte)
	if !valid || mnemonic != isa.CALL {
		return c.Step()
	}

	watermark := c.Regs.Current.SP
	for {
		result, err := c.Step()
		if result != StepOK {
			return result, err
		}
		if c.Regs.Current.SP >= watermark {
			return StepOK, nil
		}
	}
}

// StepOut runs until the current subroutine returns to its caller: SP
// must climb strictly past its value when StepOut was called, which
// only happens once the RET unwinding this frame executes.
func (c *CPU) StepOut() (StepResult, error) {
	watermark := c.Regs.Current.SP
	for {
		result, err := c.Step()
		if result != StepOK {
			return result, err
		}
		if c.Regs.Current.SP > watermark {
			return StepOK, nil
		}
	}
}
