package cpu

import (
	"fmt"

	"github.com/pep9vm/pep9core/isa"
	"github.com/pep9vm/pep9core/mem"
)

// execute performs the operand-fetch and mutate-state steps of
// fetch-decode-execute. The caller has already advanced
// c.Regs.Current.PC past the instruction and fetched its operand.
func (c *CPU) execute(m isa.Mnemonic, mode isa.AddrMode, operand uint16) (StepResult, error) {
	r := &c.Regs.Current

	switch m {
	case isa.STOP:
		c.stopped = true
		return StepOK, nil

	case isa.RET:
		return c.doRet()
	case isa.RETTR:
		return c.doRettr()
	case isa.CALL:
		return c.doCall(mode, operand)

	case isa.BR, isa.BRC, isa.BREQ, isa.BRGE, isa.BRGT, isa.BRLE, isa.BRLT, isa.BRNE, isa.BRV:
		return c.doBranch(m, mode, operand)

	case isa.MOVSPA:
		r.SP = r.A
		return StepOK, nil
	case isa.MOVFLGA:
		r.A = uint16(r.PSW())
		return StepOK, nil
	case isa.MOVAFLG:
		r.SetPSW(byte(r.A))
		return StepOK, nil

	case isa.NOTA:
		r.A = ^r.A
		applyLogical(r, r.A)
		return StepOK, nil
	case isa.NOTX:
		r.X = ^r.X
		applyLogical(r, r.X)
		return StepOK, nil
	case isa.NEGA:
		res, carry, overflow := subWithFlags(0, r.A)
		r.A = res
		applyArith(r, res, carry, overflow)
		return StepOK, nil
	case isa.NEGX:
		res, carry, overflow := subWithFlags(0, r.X)
		r.X = res
		applyArith(r, res, carry, overflow)
		return StepOK, nil

	case isa.ASLA:
		res := asl(r.A)
		r.A = res.Value
		applyShift(r, res)
		return StepOK, nil
	case isa.ASLX:
		res := asl(r.X)
		r.X = res.Value
		applyShift(r, res)
		return StepOK, nil
	case isa.ASRA:
		res := asr(r.A)
		r.A = res.Value
		applyShift(r, res)
		return StepOK, nil
	case isa.ASRX:
		res := asr(r.X)
		r.X = res.Value
		applyShift(r, res)
		return StepOK, nil
	case isa.ROLA:
		res := rol(r.A, r.C)
		r.A = res.Value
		applyShift(r, res)
		return StepOK, nil
	case isa.ROLX:
		res := rol(r.X, r.C)
		r.X = res.Value
		applyShift(r, res)
		return StepOK, nil
	case isa.RORA:
		res := ror(r.A, r.C)
		r.A = res.Value
		applyShift(r, res)
		return StepOK, nil
	case isa.RORX:
		res := ror(r.X, r.C)
		r.X = res.Value
		applyShift(r, res)
		return StepOK, nil

	case isa.ADDA, isa.ADDX, isa.SUBA, isa.SUBX, isa.ANDA, isa.ANDX, isa.ORA, isa.ORX,
		isa.CPWA, isa.CPWX, isa.CPBA, isa.CPBX,
		isa.LDWA, isa.LDWX, isa.LDBA, isa.LDBX, isa.STWA, isa.STWX, isa.STBA, isa.STBX:
		return c.executeAAA(m, mode, operand)

	case isa.ADDSP:
		return c.adjustSP(operand, mode, true)
	case isa.SUBSP:
		return c.adjustSP(operand, mode, false)

	case isa.NOP, isa.NOP0, isa.NOP1, isa.DECI, isa.DECO, isa.HEXO, isa.STRO:
		return c.executeTrap(m, mode, operand)

	default:
		return StepError, fmt.Errorf("mnemonic %v has no execute handler", m)
	}
}

// executeAAA handles the 20 AAA-encoded (80-255) arithmetic, compare,
// load, and store mnemonics, which share operand resolution logic that
// differs only in what's done with the fetched value.
func (c *CPU) executeAAA(m isa.Mnemonic, mode isa.AddrMode, operand uint16) (StepResult, error) {
	r := &c.Regs.Current

	if m.IsByteOp() {
		return c.executeByteAAA(m, mode, operand)
	}

	if m == isa.STWA || m == isa.STWX {
		addr, err := resolveStoreAddress(mode, operand, r.SP, r.X, c.Memory)
		if err != nil {
			return StepError, err
		}
		src := r.A
		if m == isa.STWX {
			src = r.X
		}
		if err := c.Memory.WriteWord(addr, src); err != nil {
			return StepError, err
		}
		return StepOK, nil
	}

	value, _, _, err := readOperandWord(mode, operand, r.SP, r.X, c.Memory)
	if err != nil {
		return StepError, err
	}

	switch m {
	case isa.ADDA:
		res, carry, overflow := addWithFlags(r.A, value)
		r.A = res
		applyArith(r, res, carry, overflow)
	case isa.ADDX:
		res, carry, overflow := addWithFlags(r.X, value)
		r.X = res
		applyArith(r, res, carry, overflow)
	case isa.SUBA:
		res, carry, overflow := subWithFlags(r.A, value)
		r.A = res
		applyArith(r, res, carry, overflow)
	case isa.SUBX:
		res, carry, overflow := subWithFlags(r.X, value)
		r.X = res
		applyArith(r, res, carry, overflow)
	case isa.ANDA:
		r.A &= value
		applyLogical(r, r.A)
	case isa.ANDX:
		r.X &= value
		applyLogical(r, r.X)
	case isa.ORA:
		r.A |= value
		applyLogical(r, r.A)
	case isa.ORX:
		r.X |= value
		applyLogical(r, r.X)
	case isa.CPWA:
		applyCompare(r, r.A, value)
	case isa.CPWX:
		applyCompare(r, r.X, value)
	case isa.LDWA:
		r.A = value
		updateNZ(r, r.A)
	case isa.LDWX:
		r.X = value
		updateNZ(r, r.X)
	default:
		return StepError, fmt.Errorf("mnemonic %v not handled in executeAAA", m)
	}
	return StepOK, nil
}

func (c *CPU) executeByteAAA(m isa.Mnemonic, mode isa.AddrMode, operand uint16) (StepResult, error) {
	r := &c.Regs.Current

	if m == isa.STBA || m == isa.STBX {
		addr, err := resolveStoreAddress(mode, operand, r.SP, r.X, c.Memory)
		if err != nil {
			return StepError, err
		}
		src := byte(r.A)
		if m == isa.STBX {
			src = byte(r.X)
		}
		if err := c.Memory.WriteByte(addr, src); err != nil {
			return StepError, err
		}
		return StepOK, nil
	}

	value, addr, _, err := readOperandByte(mode, operand, r.SP, r.X, c.Memory)
	if err == mem.ErrInputEmpty {
		c.PendingInputAddr = addr
		return StepAwaitingInput, err
	}
	if err != nil && err != mem.ErrUnmapped {
		return StepError, err
	}

	switch m {
	case isa.LDBA:
		r.A = (r.A & 0xFF00) | uint16(value)
		updateNZ(r, uint16(value))
	case isa.LDBX:
		r.X = (r.X & 0xFF00) | uint16(value)
		updateNZ(r, uint16(value))
	case isa.CPBA:
		applyCompare(r, r.A&0xFF, uint16(value))
	case isa.CPBX:
		applyCompare(r, r.X&0xFF, uint16(value))
	default:
		return StepError, fmt.Errorf("mnemonic %v not handled in executeByteAAA", m)
	}
	return StepOK, nil
}

// adjustSP implements ADDSP/SUBSP: n must be resolved through the
// addressing mode like any other AAA operand (normally i, an
// immediate constant), then added to or subtracted from SP.
func (c *CPU) adjustSP(operand uint16, mode isa.AddrMode, add bool) (StepResult, error) {
	r := &c.Regs.Current
	n, _, _, err := readOperandWord(mode, operand, r.SP, r.X, c.Memory)
	if err != nil {
		return StepError, err
	}
	var res uint16
	var carry, overflow bool
	if add {
		res, carry, overflow = addWithFlags(r.SP, n)
	} else {
		res, carry, overflow = subWithFlags(r.SP, n)
	}
	r.SP = res
	applyArith(r, res, carry, overflow)
	return StepOK, nil
}
