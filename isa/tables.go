package isa

// mnemonicInfo carries the per-mnemonic facts needed to assemble and
// decode Pep/9 object code. Ported verbatim (base opcodes, unary/trap
// flags, legal addressing modes) from the reference ISA definition
// table this assembler's opcode layout derives from.
type mnemonicInfo struct {
	BaseOpcode   int
	Unary        bool
	AddrModeReq  bool
	IsTrap       bool
	LegalModes   AddrMode
}

var info = [mnemonicCount]mnemonicInfo{
	ADDA: {96, false, true, false, ModeAll},
	ADDX: {104, false, true, false, ModeAll},
	ADDSP: {80, false, true, false, ModeAll},
	ANDA: {128, false, true, false, ModeAll},
	ANDX: {136, false, true, false, ModeAll},
	ASLA: {10, true, false, false, None},
	ASLX: {11, true, false, false, None},
	ASRA: {12, true, false, false, None},
	ASRX: {13, true, false, false, None},

	BR:   {18, false, false, false, ModeI | ModeX},
	BRC:  {34, false, false, false, ModeI | ModeX},
	BREQ: {24, false, false, false, ModeI | ModeX},
	BRGE: {28, false, false, false, ModeI | ModeX},
	BRGT: {30, false, false, false, ModeI | ModeX},
	BRLE: {20, false, false, false, ModeI | ModeX},
	BRLT: {22, false, false, false, ModeI | ModeX},
	BRNE: {26, false, false, false, ModeI | ModeX},
	BRV:  {32, false, false, false, ModeI | ModeX},

	CALL: {36, false, false, false, ModeI | ModeX},
	CPBA: {176, false, true, false, ModeAll},
	CPBX: {184, false, true, false, ModeAll},
	CPWA: {160, false, true, false, ModeAll},
	CPWX: {168, false, true, false, ModeAll},

	// Trap family: opcodes 38-79. NOP0 and NOP1 are unary traps in this
	// encoding; NOP/DECI/DECO/HEXO/STRO are non-unary traps whose
	// addressing mode selects how the trapped-on operand is formed
	// before the trap handler runs.
	DECI: {48, false, true, true, ModeAll &^ ModeI},
	DECO: {56, false, true, true, ModeAll},
	HEXO: {64, false, true, true, ModeAll},

	LDBA: {208, false, true, false, ModeAll},
	LDBX: {216, false, true, false, ModeAll},
	LDWA: {192, false, true, false, ModeAll},
	LDWX: {200, false, true, false, ModeAll},

	MOVAFLG: {5, true, false, false, None},
	MOVFLGA: {4, true, false, false, None},
	MOVSPA:  {3, true, false, false, None},

	NEGA: {8, true, false, false, None},
	NEGX: {9, true, false, false, None},
	NOP:  {40, false, true, true, ModeI},
	NOP0: {38, true, false, true, None},
	NOP1: {39, true, false, true, None},
	NOTA: {6, true, false, false, None},
	NOTX: {7, true, false, false, None},

	ORA: {144, false, true, false, ModeAll},
	ORX: {152, false, true, false, ModeAll},

	RET:   {1, true, false, false, None},
	RETTR: {2, true, false, false, None},
	ROLA:  {14, true, false, false, None},
	ROLX:  {15, true, false, false, None},
	RORA:  {16, true, false, false, None},
	RORX:  {17, true, false, false, None},

	STBA:  {240, false, true, false, ModeAll &^ ModeI},
	STBX:  {248, false, true, false, ModeAll &^ ModeI},
	STWA:  {224, false, true, false, ModeAll &^ ModeI},
	STWX:  {232, false, true, false, ModeAll &^ ModeI},
	STOP:  {0, true, false, false, None},
	STRO:  {72, false, true, true, ModeD | ModeN | ModeS | ModeSF | ModeX},
	SUBA:  {112, false, true, false, ModeAll},
	SUBX:  {120, false, true, false, ModeAll},
	SUBSP: {88, false, true, false, ModeAll},
}

// BaseOpcode returns the first opcode of m's block, the slot for mode i
// whether or not i is legal for m (or its sole opcode, for unary
// mnemonics and the unary traps NOP0/NOP1).
func (m Mnemonic) BaseOpcode() int { return info[m].BaseOpcode }

// IsUnary reports whether m takes no operand specifier at the assembly
// level (it may still be a trap at the machine level).
func (m Mnemonic) IsUnary() bool { return info[m].Unary }

// RequiresAddrMode reports whether an addressing-mode suffix is
// mandatory for m (omitting it is a syntax error, except for the
// branch family which defaults to i).
func (m Mnemonic) RequiresAddrMode() bool { return info[m].AddrModeReq }

// IsTrap reports whether m decodes to a trap instruction (opcodes
// 38-79): NOP, NOP0, NOP1, DECI, DECO, HEXO, STRO.
func (m Mnemonic) IsTrap() bool { return info[m].IsTrap }

// LegalModes returns the bitmask of addressing modes m may be suffixed
// with.
func (m Mnemonic) LegalModes() AddrMode { return info[m].LegalModes }

// IsBranchFamily reports whether m is one of BR/BRxx/CALL, which
// default to i addressing when the mode suffix is omitted.
func (m Mnemonic) IsBranchFamily() bool {
	switch m {
	case BR, BRC, BREQ, BRGE, BRGT, BRLE, BRLT, BRNE, BRV, CALL:
		return true
	}
	return false
}

// IsStore reports whether m writes to memory rather than reading from
// it. DECI counts as a store: it writes its decoded value to the
// operand's effective address.
func (m Mnemonic) IsStore() bool {
	switch m {
	case STBA, STBX, STWA, STWX, DECI:
		return true
	}
	return false
}

// IsByteOp reports whether m operates on a single byte rather than a
// 16-bit word.
func (m Mnemonic) IsByteOp() bool {
	switch m {
	case LDBA, LDBX, STBA, STBX, CPBA, CPBX:
		return true
	}
	return false
}

// decodeEntry is one slot of the 256-entry opcode decode table.
type decodeEntry struct {
	Mnemonic Mnemonic
	Mode     AddrMode
	Valid    bool
}

var decodeTable [256]decodeEntry

func setUnary(opcode int, m Mnemonic) {
	decodeTable[opcode] = decodeEntry{Mnemonic: m, Mode: None, Valid: true}
}

func setAField(base int, m Mnemonic) {
	decodeTable[base] = decodeEntry{Mnemonic: m, Mode: ModeI, Valid: true}
	decodeTable[base+1] = decodeEntry{Mnemonic: m, Mode: ModeX, Valid: true}
}

func setAAAField(base int, m Mnemonic) {
	modes := [8]AddrMode{ModeI, ModeD, ModeN, ModeS, ModeSF, ModeX, ModeSX, ModeSFX}
	for i, mode := range modes {
		decodeTable[base+i] = decodeEntry{Mnemonic: m, Mode: mode, Valid: true}
	}
}

// setTrapRange installs a unary trap (NOP0/NOP1): a single opcode slot
// with no addressing-mode suffix.
func setTrapRange(opcode int, m Mnemonic) {
	decodeTable[opcode] = decodeEntry{Mnemonic: m, Mode: None, Valid: true}
}

func init() {
	// Unary, opcodes 0-17.
	setUnary(0, STOP)
	setUnary(1, RET)
	setUnary(2, RETTR)
	setUnary(3, MOVSPA)
	setUnary(4, MOVFLGA)
	setUnary(5, MOVAFLG)
	setUnary(6, NOTA)
	setUnary(7, NOTX)
	setUnary(8, NEGA)
	setUnary(9, NEGX)
	setUnary(10, ASLA)
	setUnary(11, ASLX)
	setUnary(12, ASRA)
	setUnary(13, ASRX)
	setUnary(14, ROLA)
	setUnary(15, ROLX)
	setUnary(16, RORA)
	setUnary(17, RORX)

	// A-encoded branch/call family, opcodes 18-37.
	setAField(18, BR)
	setAField(20, BRLE)
	setAField(22, BRLT)
	setAField(24, BREQ)
	setAField(26, BRNE)
	setAField(28, BRGE)
	setAField(30, BRGT)
	setAField(32, BRV)
	setAField(34, BRC)
	setAField(36, CALL)

	// Trap family, opcodes 38-79. NOP0/NOP1 are unary traps, a single
	// opcode each; NOP/DECI/DECO/HEXO/STRO are AAA-shaped like the
	// 80-255 block even though they trap, so their addressing mode
	// still cycles i,d,n,s,sf,x,sx,sfx across their 8-opcode span.
	setTrapRange(38, NOP0)
	setTrapRange(39, NOP1)
	setAAAField(40, NOP)
	setAAAField(48, DECI)
	setAAAField(56, DECO)
	setAAAField(64, HEXO)
	setAAAField(72, STRO)

	// AAA-encoded family, opcodes 80-255.
	setAAAField(80, ADDSP)
	setAAAField(88, SUBSP)
	setAAAField(96, ADDA)
	setAAAField(104, ADDX)
	setAAAField(112, SUBA)
	setAAAField(120, SUBX)
	setAAAField(128, ANDA)
	setAAAField(136, ANDX)
	setAAAField(144, ORA)
	setAAAField(152, ORX)
	setAAAField(160, CPWA)
	setAAAField(168, CPWX)
	setAAAField(176, CPBA)
	setAAAField(184, CPBX)
	setAAAField(192, LDWA)
	setAAAField(200, LDWX)
	setAAAField(208, LDBA)
	setAAAField(216, LDBX)
	setAAAField(224, STWA)
	setAAAField(232, STWX)
	setAAAField(240, STBA)
	setAAAField(248, STBX)
}

// Decode returns the (mnemonic, addressing mode) a raw opcode byte
// decodes to, and whether the opcode is assigned at all.
func Decode(opcode byte) (Mnemonic, AddrMode, bool) {
	e := decodeTable[opcode]
	return e.Mnemonic, e.Mode, e.Valid
}

// Encode returns the opcode byte for (m, mode), and whether that
// combination is legal. Unary mnemonics, including the unary traps
// NOP0/NOP1, ignore mode.
func Encode(m Mnemonic, mode AddrMode) (byte, bool) {
	base := m.BaseOpcode()
	switch {
	case m.IsUnary() && !m.IsTrap():
		return byte(base), true
	case m.IsTrap() && m != NOP && m != DECI && m != DECO && m != HEXO && m != STRO:
		// NOP0/NOP1: unary traps, single opcode slot.
		return byte(base), true
	case m.IsBranchFamily():
		f := AField(mode)
		if f < 0 {
			return 0, false
		}
		return byte(base + f), true
	case m.IsTrap():
		// NOP/DECI/DECO/HEXO/STRO: AAA-shaped 8-wide block even though
		// they trap, so the assembler can still form any legal mode.
		f := AAAField(mode)
		if f < 0 || !m.LegalModes().Has(mode) {
			return 0, false
		}
		return byte(base + f), true
	default:
		f := AAAField(mode)
		if f < 0 || !m.LegalModes().Has(mode) {
			return 0, false
		}
		return byte(base + f), true
	}
}
