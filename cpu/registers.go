package cpu

// Registers is one snapshot of the Pep/9 register file: the two
// 16-bit general registers (A, X), the stack pointer and program
// counter, the one-byte instruction specifier of the instruction
// currently executing, and the NZVC status bits.
type Registers struct {
	A  uint16
	X  uint16
	SP uint16
	PC uint16
	IS byte

	N bool
	Z bool
	V bool
	C bool
}

// PSW packs the NZVC status bits into the single byte the trap
// mechanism saves and RETTR restores, low nibble N Z V C matching the
// bit order the original hardware uses.
func (r Registers) PSW() byte {
	var b byte
	if r.N {
		b |= 1 << 3
	}
	if r.Z {
		b |= 1 << 2
	}
	if r.V {
		b |= 1 << 1
	}
	if r.C {
		b |= 1 << 0
	}
	return b
}

// SetPSW unpacks a saved status byte back into N Z V C.
func (r *Registers) SetPSW(b byte) {
	r.N = b&(1<<3) != 0
	r.Z = b&(1<<2) != 0
	r.V = b&(1<<1) != 0
	r.C = b&(1<<0) != 0
}

// RegisterFile maintains the two views the trace engine and display
// layer both need: the values at the start of the instruction
// currently executing, and the live values as execution proceeds
// through that instruction. Trace decisions that must read a
// pre-step value (e.g. SP before a CALL adjusts it) read
// StartOfInstruction; everything else reads Current.
type RegisterFile struct {
	Current            Registers
	StartOfInstruction Registers
}

// BeginInstruction snapshots Current into StartOfInstruction. The CPU
// calls this once per step, before fetch.
func (f *RegisterFile) BeginInstruction() {
	f.StartOfInstruction = f.Current
}

// Reset clears both views to zero.
func (f *RegisterFile) Reset() {
	f.Current = Registers{}
	f.StartOfInstruction = Registers{}
}
