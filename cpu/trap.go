package cpu

import (
	"github.com/pep9vm/pep9core/isa"
)

// Trap-frame layout, as byte offsets from TrapConfig.TrapFrameBase. A
// trap always saves the full register file here before transferring
// control to the OS handler at the trap vector; RETTR is the OS
// handler's matching return. The handler itself re-reads the trapped
// instruction's opcode and operand specifier from memory just below
// the saved PC to learn the addressing mode and operand it was
// invoked with, exactly as the trapped instruction would have.
const (
	trapOffsetPSW = 0
	trapOffsetIS  = 1
	trapOffsetA   = 2
	trapOffsetX   = 4
	trapOffsetSP  = 6
	trapOffsetPC  = 8
	trapFrameSize = 10
)

// pushTrapFrame saves the live register file to the fixed trap-frame
// area so a later RETTR can restore it.
func (c *CPU) pushTrapFrame() error {
	r := &c.Regs.Current
	base := c.Trap.TrapFrameBase
	if err := c.Memory.WriteByte(base+trapOffsetPSW, r.PSW()); err != nil {
		return err
	}
	if err := c.Memory.WriteByte(base+trapOffsetIS, r.IS); err != nil {
		return err
	}
	if err := c.Memory.WriteWord(base+trapOffsetA, r.A); err != nil {
		return err
	}
	if err := c.Memory.WriteWord(base+trapOffsetX, r.X); err != nil {
		return err
	}
	if err := c.Memory.WriteWord(base+trapOffsetSP, r.SP); err != nil {
		return err
	}
	return c.Memory.WriteWord(base+trapOffsetPC, r.PC)
}

// popTrapFrame restores the register file RETTR returns to, the
// inverse of pushTrapFrame.
func (c *CPU) popTrapFrame() error {
	r := &c.Regs.Current
	base := c.Trap.TrapFrameBase

	psw, err := c.Memory.ReadByte(base + trapOffsetPSW)
	if err != nil {
		return err
	}
	is, err := c.Memory.ReadByte(base + trapOffsetIS)
	if err != nil {
		return err
	}
	a, err := c.Memory.ReadWord(base + trapOffsetA)
	if err != nil {
		return err
	}
	x, err := c.Memory.ReadWord(base + trapOffsetX)
	if err != nil {
		return err
	}
	sp, err := c.Memory.ReadWord(base + trapOffsetSP)
	if err != nil {
		return err
	}
	pc, err := c.Memory.ReadWord(base + trapOffsetPC)
	if err != nil {
		return err
	}

	r.SetPSW(psw)
	r.IS = is
	r.A = a
	r.X = x
	r.SP = sp
	r.PC = pc
	return nil
}

// executeTrap implements the trap family (NOP, NOP0, NOP1, DECI, DECO,
// HEXO, STRO): save the full register file to the trap frame and
// transfer to the OS's shared trap handler entry point. The handler
// itself, running as ordinary instructions after this, is what
// actually performs the decimal/hex conversion or string output — the
// CPU's job here is only the hardware-level context switch.
func (c *CPU) executeTrap(m isa.Mnemonic, mode isa.AddrMode, operand uint16) (StepResult, error) {
	_ = mode
	_ = operand
	if err := c.pushTrapFrame(); err != nil {
		return StepError, err
	}
	vector, err := c.Memory.ReadWord(c.Trap.VectorAddr)
	if err != nil {
		return StepError, err
	}
	c.Regs.Current.PC = vector
	return StepOK, nil
}

// doRettr restores the register file saved by the most recent trap,
// resuming user-level execution where the trap interrupted it.
func (c *CPU) doRettr() (StepResult, error) {
	if err := c.popTrapFrame(); err != nil {
		return StepError, err
	}
	return StepOK, nil
}
