package asm

import (
	"fmt"

	"github.com/pep9vm/pep9core/isa"
	"github.com/pep9vm/pep9core/symtab"
	"github.com/pep9vm/pep9core/trace"
)

// ArgumentKind tags which literal form an Argument was written in.
type ArgumentKind int

const (
	ArgHex ArgumentKind = iota
	ArgDec
	ArgUnsignedDec
	ArgChar
	ArgString
	ArgSymbolRef
)

// Argument is the tagged operand an instruction or directive carries:
// exactly one literal form, each able to produce a 16-bit value and
// echo its own source text for listings.
type Argument struct {
	Kind ArgumentKind

	Hex         uint16
	Dec         int16
	UnsignedDec uint16
	Char        string // decoded text of a char constant, 1 byte wide
	String      string // decoded text of a string constant, 1-2 bytes wide
	Symbol      *symtab.Symbol

	source string // exact text as written, for listings
}

func HexArg(v uint16, src string) Argument {
	return Argument{Kind: ArgHex, Hex: v, source: src}
}

func DecArg(v int16, src string) Argument {
	return Argument{Kind: ArgDec, Dec: v, source: src}
}

func UnsignedDecArg(v uint16, src string) Argument {
	return Argument{Kind: ArgUnsignedDec, UnsignedDec: v, source: src}
}

func CharArg(decoded, src string) Argument {
	return Argument{Kind: ArgChar, Char: decoded, source: src}
}

func StringArg(decoded, src string) Argument {
	return Argument{Kind: ArgString, String: decoded, source: src}
}

func SymbolRefArg(sym *symtab.Symbol, src string) Argument {
	return Argument{Kind: ArgSymbolRef, Symbol: sym, source: src}
}

// Source returns the argument's text exactly as written in the source
// line, for listing output.
func (a Argument) Source() string { return a.source }

// Value resolves the argument to its 16-bit operand value. SymbolRef
// values require the referenced symbol to already be defined; callers
// resolve symbols only after a full pass, per the two-pass model.
func (a Argument) Value() (uint16, error) {
	switch a.Kind {
	case ArgHex:
		return a.Hex, nil
	case ArgDec:
		return uint16(a.Dec), nil
	case ArgUnsignedDec:
		return a.UnsignedDec, nil
	case ArgChar:
		return uint16(byteValue(a.Char)), nil
	case ArgString:
		return stringValue(a.String), nil
	case ArgSymbolRef:
		if a.Symbol == nil || a.Symbol.State == symtab.Undefined {
			return 0, fmt.Errorf("undefined symbol in operand")
		}
		switch a.Symbol.Value.Kind {
		case symtab.Numeric:
			return uint16(a.Symbol.Value.Numeric), nil
		case symtab.Location:
			return a.Symbol.Value.Loc, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("unresolved argument")
	}
}

// SignedValue resolves the argument the same way Value does, but
// without first wrapping a negative decimal (or a negative symbol
// constant) into its two's-complement uint16 bit pattern. Directives
// that validate against a signed range (.BYTE, .WORD) must check this
// instead of Value: Value's uint16 has already lost the sign, so
// widening it back to a signed type can never produce a negative
// number.
func (a Argument) SignedValue() (int32, error) {
	switch a.Kind {
	case ArgHex:
		return int32(a.Hex), nil
	case ArgDec:
		return int32(a.Dec), nil
	case ArgUnsignedDec:
		return int32(a.UnsignedDec), nil
	case ArgChar:
		return int32(byteValue(a.Char)), nil
	case ArgString:
		return int32(stringValue(a.String)), nil
	case ArgSymbolRef:
		if a.Symbol == nil || a.Symbol.State == symtab.Undefined {
			return 0, fmt.Errorf("undefined symbol in operand")
		}
		switch a.Symbol.Value.Kind {
		case symtab.Numeric:
			return a.Symbol.Value.Numeric, nil
		case symtab.Location:
			return int32(a.Symbol.Value.Loc), nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("unresolved argument")
	}
}

func byteValue(decoded string) byte {
	if len(decoded) == 0 {
		return 0
	}
	return decoded[0]
}

// stringValue packs a 1-2 byte decoded string constant into a u16,
// big-endian (first byte in the high order), matching .WORD's
// treatment of a two-character string literal.
func stringValue(decoded string) uint16 {
	switch len(decoded) {
	case 0:
		return 0
	case 1:
		return uint16(decoded[0])
	default:
		return uint16(decoded[0])<<8 | uint16(decoded[1])
	}
}

// EntryKind tags which CodeEntry variant a line assembled to.
type EntryKind int

const (
	KindUnaryInstr EntryKind = iota
	KindNonUnaryInstr
	KindDotAddrss
	KindDotAlign
	KindDotAscii
	KindDotBlock
	KindDotBurn
	KindDotByte
	KindDotWord
	KindDotEnd
	KindDotEquate
	KindCommentOnly
	KindBlankLine
)

// CodeEntry is one assembled source line: a tagged variant with a
// shared header (object-code emission flag, comment, line numbers,
// address, optional owning symbol) plus variant-specific fields.
type CodeEntry struct {
	Kind EntryKind

	EmitObjectCode bool
	Comment        string
	SourceLine     uint32
	ListingLine    uint32
	MemoryAddress  int32
	Symbol         *symtab.Symbol

	// UnaryInstr / NonUnaryInstr
	Mnemonic   isa.Mnemonic
	AddrMode   isa.AddrMode
	Breakpoint bool

	// NonUnaryInstr / DotAddrss / DotBlock / DotByte / DotWord / DotEquate /
	// DotBurn
	Argument Argument

	// DotAlign
	Alignment      int
	GeneratedBytes int

	// DotAscii
	Text string

	// TraceTags carries the parsed #-annotations found in Comment, filled
	// in by the trace-tag post-processing pass.
	TraceTags []string
}

// ByteLen returns how many object-code bytes this entry contributes,
// per the address-accounting rules.
func (e *CodeEntry) ByteLen() int {
	switch e.Kind {
	case KindUnaryInstr:
		return 1
	case KindNonUnaryInstr:
		return 3
	case KindDotAddrss:
		return 2
	case KindDotAlign:
		return e.GeneratedBytes
	case KindDotAscii:
		return len(e.Text)
	case KindDotBlock:
		v, _ := e.Argument.Value()
		return int(v)
	case KindDotByte:
		return 1
	case KindDotWord:
		return 2
	default:
		return 0
	}
}

// Program is the ordered list of CodeEntry values an assembly produces,
// plus the symbol table it populated along the way.
type Program struct {
	Entries []*CodeEntry
	Symbols *symtab.Table
	Trace   *trace.TraceInfo
}

// ObjectCode renders the program's object bytes in address order,
// skipping entries with EmitObjectCode false. This is what a
// `.pepo` file holds and what the loader installs for a user program.
func (p *Program) ObjectCode() ([]byte, error) {
	var out []byte
	for _, e := range p.Entries {
		if !e.EmitObjectCode {
			continue
		}
		bytes, err := entryBytes(e)
		if err != nil {
			return nil, err
		}
		out = append(out, bytes...)
	}
	return out, nil
}

// ImageBytes renders every entry's bytes at its final (post-relocation)
// address, regardless of EmitObjectCode. An operating system's own code
// is "burned" into ROM rather than installed through the object loader
// — the host writes ImageBytes directly into the chips spanning the
// burned address range once, at startup, instead of treating the OS
// like a loadable .pepo payload.
func (p *Program) ImageBytes() (map[uint16]byte, error) {
	out := make(map[uint16]byte)
	for _, e := range p.Entries {
		bytes, err := entryBytes(e)
		if err != nil {
			return nil, err
		}
		addr := uint16(e.MemoryAddress)
		for i, b := range bytes {
			out[addr+uint16(i)] = b
		}
	}
	return out, nil
}

func entryBytes(e *CodeEntry) ([]byte, error) {
	switch e.Kind {
	case KindUnaryInstr:
		op, ok := isa.Encode(e.Mnemonic, isa.None)
		if !ok {
			return nil, fmt.Errorf("line %d: cannot encode %s", e.SourceLine, e.Mnemonic)
		}
		return []byte{op}, nil
	case KindNonUnaryInstr:
		op, ok := isa.Encode(e.Mnemonic, e.AddrMode)
		if !ok {
			return nil, fmt.Errorf("line %d: illegal addressing mode %s for %s", e.SourceLine, e.AddrMode, e.Mnemonic)
		}
		v, err := e.Argument.Value()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", e.SourceLine, err)
		}
		return []byte{op, byte(v >> 8), byte(v)}, nil
	case KindDotAddrss:
		v, err := e.Argument.Value()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", e.SourceLine, err)
		}
		return []byte{byte(v >> 8), byte(v)}, nil
	case KindDotAlign:
		return make([]byte, e.GeneratedBytes), nil
	case KindDotAscii:
		return []byte(e.Text), nil
	case KindDotBlock:
		v, err := e.Argument.Value()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", e.SourceLine, err)
		}
		return make([]byte, v), nil
	case KindDotByte:
		v, err := e.Argument.Value()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", e.SourceLine, err)
		}
		return []byte{byte(v)}, nil
	case KindDotWord:
		v, err := e.Argument.Value()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", e.SourceLine, err)
		}
		return []byte{byte(v >> 8), byte(v)}, nil
	default:
		return nil, nil
	}
}
