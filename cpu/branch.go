package cpu

import (
	"fmt"

	"github.com/pep9vm/pep9core/isa"
)

// branchTarget resolves a branch/call operand to the address execution
// should transfer to: i means the operand is the address outright, x
// means it's offset by the index register. These are the only two
// modes BR/BRxx/CALL accept.
func branchTarget(mode isa.AddrMode, operand, x uint16) (uint16, error) {
	switch mode {
	case isa.ModeI:
		return operand, nil
	case isa.ModeX:
		return operand + x, nil
	default:
		return 0, fmt.Errorf("addressing mode %v illegal for branch/call", mode)
	}
}

// doBranch evaluates m's condition against the current status bits and,
// if taken, transfers control to the resolved target.
func (c *CPU) doBranch(m isa.Mnemonic, mode isa.AddrMode, operand uint16) (StepResult, error) {
	r := &c.Regs.Current
	target, err := branchTarget(mode, operand, r.X)
	if err != nil {
		return StepError, err
	}

	var taken bool
	switch m {
	case isa.BR:
		taken = true
	case isa.BRLE:
		taken = r.N || r.Z
	case isa.BRLT:
		taken = r.N
	case isa.BREQ:
		taken = r.Z
	case isa.BRNE:
		taken = !r.Z
	case isa.BRGE:
		taken = !r.N
	case isa.BRGT:
		taken = !r.N && !r.Z
	case isa.BRV:
		taken = r.V
	case isa.BRC:
		taken = r.C
	default:
		return StepError, fmt.Errorf("mnemonic %v is not a branch", m)
	}

	if taken {
		r.PC = target
	}
	return StepOK, nil
}

// doCall resolves the call target, pushes the return address (the
// address of the instruction following CALL, already in PC), and
// transfers control.
func (c *CPU) doCall(mode isa.AddrMode, operand uint16) (StepResult, error) {
	r := &c.Regs.Current
	target, err := branchTarget(mode, operand, r.X)
	if err != nil {
		return StepError, err
	}
	r.SP -= 2
	if err := c.Memory.WriteWord(r.SP, r.PC); err != nil {
		return StepError, err
	}
	r.PC = target
	return StepOK, nil
}

// doRet pops a return address pushed by CALL and transfers control to
// it.
func (c *CPU) doRet() (StepResult, error) {
	r := &c.Regs.Current
	target, err := c.Memory.ReadWord(r.SP)
	if err != nil {
		return StepError, err
	}
	r.SP += 2
	r.PC = target
	return StepOK, nil
}
