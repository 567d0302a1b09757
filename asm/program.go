package asm

const maxObjectSize = 65536

// AssembleUserProgram lexes, parses, and trace-tags source
// as a user program: no .BURN is permitted, .END is mandatory, and
// every symbol must resolve by end of assembly.
func AssembleUserProgram(source string) (*Program, []*Error) {
	p := NewParser("")
	entries, symbols, errs := p.Parse(source)

	if p.burnSeen {
		errs.add(Position{}, ErrorWholeProgram, ".BURN is only valid in an operating system image")
	}
	checkCommon(entries, symbols, errs)

	if errs.HasFatal() {
		return nil, errs.Errors()
	}

	total := totalBytes(entries)
	if total > maxObjectSize {
		errs.add(Position{}, ErrorWholeProgram, "object code size %d exceeds %d", total, maxObjectSize)
		return nil, errs.Errors()
	}

	info := postprocessTraceTags(entries, symbols, errs)
	return &Program{Entries: entries, Symbols: symbols, Trace: info}, errs.Errors()
}

// AssembleOperatingSystem assembles source as an OS image: exactly one
// .BURN is required, and when forceBurn0xFFFF is set the burn value
// must equal 0xFFFF.
func AssembleOperatingSystem(source string, forceBurn0xFFFF bool) (*Program, []*Error) {
	p := NewParser("")
	entries, symbols, errs := p.Parse(source)
	checkCommon(entries, symbols, errs)

	burnIdx := -1
	for i, e := range entries {
		if e.Kind == KindDotBurn {
			burnIdx = i
		}
	}
	if burnIdx < 0 {
		errs.add(Position{}, ErrorWholeProgram, "operating system image requires exactly one .BURN")
	} else if forceBurn0xFFFF {
		if v, _ := entries[burnIdx].Argument.Value(); v != 0xFFFF {
			errs.add(Position{}, ErrorWholeProgram, "forced .BURN value must be 0xFFFF, got 0x%04X", v)
		}
	}

	if errs.HasFatal() {
		return nil, errs.Errors()
	}

	total := totalBytes(entries)
	if total > maxObjectSize {
		errs.add(Position{}, ErrorWholeProgram, "object code size %d exceeds %d", total, maxObjectSize)
		return nil, errs.Errors()
	}

	applyBurn(entries, symbols, burnIdx, total)

	info := postprocessTraceTags(entries, symbols, errs)
	return &Program{Entries: entries, Symbols: symbols, Trace: info}, errs.Errors()
}

func checkCommon(entries []*CodeEntry, symbols interface{ NumUndefined() int }, errs *ErrorList) {
	sawEnd := false
	for _, e := range entries {
		if e.Kind == KindDotEnd {
			sawEnd = true
		}
	}
	if !sawEnd {
		errs.add(Position{}, ErrorWholeProgram, "missing .END")
	}
	if n := symbols.NumUndefined(); n > 0 {
		errs.add(Position{}, ErrorSemantic, "%d symbol(s) remain undefined at end of assembly", n)
	}
}

func totalBytes(entries []*CodeEntry) int32 {
	var total int32
	for _, e := range entries {
		total += int32(e.ByteLen())
	}
	return total
}
