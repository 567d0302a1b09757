package asm

import (
	"strconv"
	"strings"

	"github.com/pep9vm/pep9core/isa"
	"github.com/pep9vm/pep9core/symtab"
)

var addrModeByName = map[string]isa.AddrMode{
	"i": isa.ModeI, "d": isa.ModeD, "n": isa.ModeN, "s": isa.ModeS,
	"sf": isa.ModeSF, "x": isa.ModeX, "sx": isa.ModeSX, "sfx": isa.ModeSFX,
}

// dotCommands enumerates every recognized dot-command name.
var dotCommands = map[string]bool{
	"ADDRSS": true, "ALIGN": true, "ASCII": true, "BLOCK": true,
	"BURN": true, "BYTE": true, "WORD": true, "END": true, "EQUATE": true,
}

// Parser drives the line-oriented DFA described for the Pep/9
// assembly grammar: START → {SYMBOL_DEF | INSTRUCTION | DOT_*} →
// {ADDRESSING_MODE?} → {COMMENT?} → FINISH.
type Parser struct {
	filename string
	symbols  *symtab.Table
	errs     *ErrorList
	addr     int32
	burnSeen bool
	burnLine int
}

// NewParser returns a Parser over a fresh symbol table.
func NewParser(filename string) *Parser {
	return &Parser{filename: filename, symbols: symtab.New(), errs: &ErrorList{}}
}

// Parse tokenizes and parses every line of source, returning the
// assembled entries (address-accounted but not yet .BURN-relocated or
// trace-tag-processed) plus the symbol table and any errors.
func (p *Parser) Parse(source string) ([]*CodeEntry, *symtab.Table, *ErrorList) {
	lines := strings.Split(source, "\n")
	var entries []*CodeEntry
	for i, lineText := range lines {
		lineNo := i + 1
		if lineText == "" && i == len(lines)-1 {
			continue // trailing newline produces no phantom final line
		}
		entry := p.parseLine(lineText, lineNo)
		entries = append(entries, entry)
	}
	return entries, p.symbols, p.errs
}

type lineTokens struct {
	toks    []Token
	comment string
	hasText bool
}

func (p *Parser) tokenizeLine(lineText string, lineNo int) lineTokens {
	lx := NewLexer(lineText, p.filename)
	// NewLexer already consumed char 0; fix up line number bookkeeping
	// since each line gets its own Lexer instance.
	var out lineTokens
	addrModeCtx := false
	for {
		tok := lx.NextToken(addrModeCtx, p.errs)
		tok.Pos.Line = lineNo
		if tok.Type == TokenEOF || tok.Type == TokenEOL {
			break
		}
		if tok.Type == TokenComment {
			out.comment = tok.Literal
			continue
		}
		out.hasText = true
		out.toks = append(out.toks, tok)
		switch tok.Type {
		case TokenIdentifier, TokenDecimal, TokenHex, TokenChar, TokenString:
			addrModeCtx = true
		default:
			addrModeCtx = false
		}
	}
	return out
}

func (p *Parser) parseLine(lineText string, lineNo int) *CodeEntry {
	lt := p.tokenizeLine(lineText, lineNo)
	e := &CodeEntry{SourceLine: uint32(lineNo), ListingLine: uint32(lineNo), MemoryAddress: p.addr, Comment: lt.comment}

	if !lt.hasText {
		if lt.comment != "" {
			e.Kind = KindCommentOnly
		} else {
			e.Kind = KindBlankLine
		}
		return e
	}

	toks := lt.toks
	pos := Position{Filename: p.filename, Line: lineNo}

	if toks[0].Type == TokenSymbolDef {
		sym, err := p.symbols.SetValue(toks[0].Literal, symtab.LocationValue(uint16(p.addr)))
		if err != nil {
			p.errs.add(pos, ErrorSemantic, "%s", err)
		} else if sym.State == symtab.Multiple {
			p.errs.add(pos, ErrorSemantic, "symbol %q multiply defined", toks[0].Literal)
		}
		e.Symbol = sym
		toks = toks[1:]
	}

	if len(toks) == 0 {
		e.Kind = KindBlankLine
		return e
	}

	head := toks[0]
	switch head.Type {
	case TokenDotCommand:
		e.EmitObjectCode = true
		p.parseDot(e, head, toks[1:], pos)
	case TokenIdentifier:
		e.EmitObjectCode = true
		p.parseInstruction(e, head, toks[1:], pos)
	default:
		p.errs.add(pos, ErrorSyntactic, "expected a mnemonic or dot-command, got %s", head.Type)
		e.Kind = KindBlankLine
		return e
	}

	p.addr += int32(e.ByteLen())
	return e
}

func (p *Parser) parseInstruction(e *CodeEntry, head Token, rest []Token, pos Position) {
	m, ok := isa.Lookup(strings.ToUpper(head.Literal))
	if !ok {
		p.errs.add(pos, ErrorSyntactic, "unknown mnemonic %q", head.Literal)
		e.Kind = KindBlankLine
		e.EmitObjectCode = false
		return
	}

	if m.IsUnary() {
		e.Kind = KindUnaryInstr
		e.Mnemonic = m
		if len(rest) != 0 {
			p.errs.add(pos, ErrorSyntactic, "%s is unary and takes no operand", m)
		}
		return
	}

	e.Kind = KindNonUnaryInstr
	e.Mnemonic = m

	if len(rest) == 0 {
		p.errs.add(pos, ErrorSyntactic, "%s requires an operand", m)
		return
	}

	arg, next := p.parseArgument(rest, pos)
	e.Argument = arg

	mode := isa.None
	if len(next) > 0 && next[0].Type == TokenAddrMode {
		if am, ok := addrModeByName[next[0].Literal]; ok {
			mode = am
		}
		next = next[1:]
	} else if m.IsBranchFamily() {
		mode = isa.ModeI
	} else if m.RequiresAddrMode() {
		p.errs.add(pos, ErrorSyntactic, "%s requires an addressing-mode suffix", m)
	}

	if !m.LegalModes().Has(mode) && mode != isa.None {
		p.errs.add(pos, ErrorSemantic, "illegal addressing mode %s for %s", mode, m)
	}
	e.AddrMode = mode

	if len(next) != 0 {
		p.errs.add(pos, ErrorSyntactic, "unexpected trailing tokens after operand")
	}
}

// parseArgument consumes one operand token (hex/dec/char/string/identifier)
// and returns the remaining tokens.
func (p *Parser) parseArgument(toks []Token, pos Position) (Argument, []Token) {
	if len(toks) == 0 {
		return Argument{}, nil
	}
	t := toks[0]
	switch t.Type {
	case TokenHex:
		v, err := strconv.ParseUint(t.Literal, 16, 16)
		if err != nil {
			p.errs.add(pos, ErrorLexical, "malformed hex literal %q", t.Literal)
		}
		return HexArg(uint16(v), "0x"+t.Literal), toks[1:]
	case TokenDecimal:
		v, err := strconv.ParseInt(t.Literal, 10, 32)
		if err != nil {
			p.errs.add(pos, ErrorLexical, "malformed decimal literal %q", t.Literal)
		}
		if v < 0 {
			if v < -32768 {
				p.errs.add(pos, ErrorLexical, "decimal literal %q exceeds 16 bits", t.Literal)
			}
			return DecArg(int16(v), t.Literal), toks[1:]
		}
		if v > 65535 {
			p.errs.add(pos, ErrorLexical, "decimal literal %q exceeds 16 bits", t.Literal)
		}
		return UnsignedDecArg(uint16(v), t.Literal), toks[1:]
	case TokenChar:
		return CharArg(t.Literal, "'"+t.Literal+"'"), toks[1:]
	case TokenString:
		return StringArg(t.Literal, "\""+t.Literal+"\""), toks[1:]
	case TokenIdentifier:
		sym := p.symbols.Reference(t.Literal)
		return SymbolRefArg(sym, t.Literal), toks[1:]
	default:
		p.errs.add(pos, ErrorSyntactic, "expected an operand, got %s", t.Type)
		return Argument{}, toks[1:]
	}
}

func (p *Parser) parseDot(e *CodeEntry, head Token, rest []Token, pos Position) {
	name := head.Literal
	if !dotCommands[name] {
		p.errs.add(pos, ErrorSyntactic, "unknown dot-command %q", name)
		e.Kind = KindBlankLine
		e.EmitObjectCode = false
		return
	}

	switch name {
	case "END":
		e.Kind = KindDotEnd
	case "EQUATE":
		e.Kind = KindDotEquate
		arg, _ := p.parseArgument(rest, pos)
		e.Argument = arg
		if e.Symbol == nil {
			p.errs.add(pos, ErrorSemantic, ".EQUATE requires a symbol definition on the same line")
			return
		}
		v, err := arg.Value()
		if err != nil {
			p.errs.add(pos, ErrorSemantic, "%s", err)
			return
		}
		e.Symbol.Value = symtab.NumericValue(int32(v))
		e.Symbol.State = symtab.Single
	case "ADDRSS":
		e.Kind = KindDotAddrss
		arg, _ := p.parseArgument(rest, pos)
		if arg.Kind != ArgSymbolRef {
			p.errs.add(pos, ErrorSemantic, ".ADDRSS requires a symbol operand")
		}
		e.Argument = arg
	case "ASCII":
		e.Kind = KindDotAscii
		if len(rest) == 0 || rest[0].Type != TokenString {
			p.errs.add(pos, ErrorSemantic, ".ASCII requires a string operand")
			return
		}
		e.Text = rest[0].Literal
	case "BLOCK":
		e.Kind = KindDotBlock
		arg, _ := p.parseArgument(rest, pos)
		e.Argument = arg
	case "BURN":
		e.Kind = KindDotBurn
		arg, _ := p.parseArgument(rest, pos)
		e.Argument = arg
		e.EmitObjectCode = false
		if p.burnSeen {
			p.errs.add(pos, ErrorWholeProgram, "multiple .BURN directives")
		}
		p.burnSeen = true
		p.burnLine = int(e.SourceLine)
	case "BYTE":
		e.Kind = KindDotByte
		arg, _ := p.parseArgument(rest, pos)
		v, err := arg.SignedValue()
		if err == nil && (v < -128 || v > 255) {
			p.errs.add(pos, ErrorSemantic, ".BYTE operand out of range -128..255")
		}
		e.Argument = arg
	case "WORD":
		e.Kind = KindDotWord
		arg, _ := p.parseArgument(rest, pos)
		v, err := arg.SignedValue()
		if err == nil && (v < -32768 || v > 65535) {
			p.errs.add(pos, ErrorSemantic, ".WORD operand out of range -32768..65535")
		}
		e.Argument = arg
	case "ALIGN":
		e.Kind = KindDotAlign
		if len(rest) == 0 {
			p.errs.add(pos, ErrorSyntactic, ".ALIGN requires an alignment operand")
			return
		}
		arg, _ := p.parseArgument(rest, pos)
		v, _ := arg.Value()
		k := int(v)
		if k != 2 && k != 4 && k != 8 {
			p.errs.add(pos, ErrorSemantic, ".ALIGN alignment must be 2, 4, or 8")
			k = 2
		}
		e.Alignment = k
		e.GeneratedBytes = ((k - int(p.addr)%k) % k)
	}
}
