package asm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pep9vm/pep9core/symtab"
)

// xrefEntry collects where one symbol was defined and every line that
// referenced it, for the cross-reference report.
type xrefEntry struct {
	name       string
	definedAt  uint32
	isDefined  bool
	references []uint32
}

// SymbolXref renders a cross-reference report: every symbol's defining
// line and the lines that reference it, in the original interactive
// tool's symbol table dialog style.
func (p *Program) SymbolXref() string {
	entries := make(map[string]*xrefEntry)

	get := func(name string) *xrefEntry {
		e, ok := entries[name]
		if !ok {
			e = &xrefEntry{name: name}
			entries[name] = e
		}
		return e
	}

	for _, ce := range p.Entries {
		if ce.Symbol != nil {
			e := get(ce.Symbol.Name)
			e.definedAt = ce.SourceLine
			e.isDefined = true
		}
		if ce.Argument.Kind == ArgSymbolRef && ce.Argument.Symbol != nil {
			e := get(ce.Argument.Symbol.Name)
			e.references = append(e.references, ce.SourceLine)
		}
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Symbol Cross-Reference\n")
	b.WriteString("=======================\n\n")

	for _, name := range names {
		e := entries[name]
		fmt.Fprintf(&b, "%-10s", e.name)
		if sym, ok := p.Symbols.Get(name); ok && sym.Value.Kind == symtab.Numeric {
			fmt.Fprintf(&b, " [constant=%d]", sym.Value.Numeric)
		}
		b.WriteString("\n")

		if e.isDefined {
			fmt.Fprintf(&b, "  defined:    line %d\n", e.definedAt)
		} else {
			b.WriteString("  defined:    (undefined)\n")
		}
		if len(e.references) == 0 {
			b.WriteString("  referenced: (never)\n")
		} else {
			lines := make([]string, len(e.references))
			for i, l := range e.references {
				lines[i] = fmt.Sprintf("%d", l)
			}
			fmt.Fprintf(&b, "  referenced: line(s) %s\n", strings.Join(lines, ", "))
		}
		b.WriteString("\n")
	}

	return b.String()
}
