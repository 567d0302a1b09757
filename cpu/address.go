package cpu

import (
	"fmt"

	"github.com/pep9vm/pep9core/isa"
	"github.com/pep9vm/pep9core/mem"
)

// effectiveAddress computes the memory address an addressing mode
// resolves to, given the raw operand specifier and the register values
// in effect. Immediate mode has no address; callers must check mode
// before calling this for instructions that accept i.
func effectiveAddress(mode isa.AddrMode, operand, sp, x uint16, m mem.Interface) (uint16, error) {
	switch mode {
	case isa.ModeD:
		return operand, nil
	case isa.ModeN:
		ptr, err := m.ReadWord(operand)
		if err != nil && err != mem.ErrUnmapped {
			return 0, err
		}
		return ptr, nil
	case isa.ModeS:
		return sp + operand, nil
	case isa.ModeSF:
		ptr, err := m.ReadWord(sp + operand)
		if err != nil && err != mem.ErrUnmapped {
			return 0, err
		}
		return ptr, nil
	case isa.ModeX:
		return operand + x, nil
	case isa.ModeSX:
		return sp + operand + x, nil
	case isa.ModeSFX:
		ptr, err := m.ReadWord(sp + operand)
		if err != nil && err != mem.ErrUnmapped {
			return 0, err
		}
		return ptr + x, nil
	default:
		return 0, fmt.Errorf("addressing mode %v has no effective address", mode)
	}
}

// resolveStoreAddress computes the effective address for a store
// instruction without reading through it: unlike the load/arithmetic
// path, a store has no existing value to fetch, so this must not risk
// tripping ErrInputEmpty by reading a port it's only about to
// overwrite. Immediate mode is illegal for stores; callers rely on
// isa.LegalModes to have already excluded it.
func resolveStoreAddress(mode isa.AddrMode, operand, sp, x uint16, m mem.Interface) (uint16, error) {
	return effectiveAddress(mode, operand, sp, x, m)
}

// readOperandWord resolves mode/operand to a 16-bit value, reading
// through memory for every mode but immediate.
func readOperandWord(mode isa.AddrMode, operand, sp, x uint16, m mem.Interface) (value uint16, addr uint16, hasAddr bool, err error) {
	if mode == isa.ModeI {
		return operand, 0, false, nil
	}
	addr, err = effectiveAddress(mode, operand, sp, x, m)
	if err != nil {
		return 0, 0, false, err
	}
	value, err = m.ReadWord(addr)
	if err != nil && err != mem.ErrUnmapped {
		return 0, addr, true, err
	}
	return value, addr, true, nil
}

// readOperandByte is readOperandWord's single-byte counterpart for the
// LDBr/CPBr family: the address is still formed in full 16 bits, but
// only the low byte is fetched.
func readOperandByte(mode isa.AddrMode, operand, sp, x uint16, m mem.Interface) (value byte, addr uint16, hasAddr bool, err error) {
	if mode == isa.ModeI {
		return byte(operand), 0, false, nil
	}
	addr, err = effectiveAddress(mode, operand, sp, x, m)
	if err != nil {
		return 0, 0, false, err
	}
	value, err = m.ReadByte(addr)
	if err != nil && err != mem.ErrUnmapped && err != mem.ErrInputEmpty {
		return 0, addr, true, err
	}
	return value, addr, true, err
}
