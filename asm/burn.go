package asm

import "github.com/pep9vm/pep9core/symtab"

// applyBurn performs .BURN relocation: the directive at entries[burnIdx]
// declares that the program's last emitted byte resides at address v.
// Every entry's address and every location-typed symbol shifts by
// delta = v - N + 1 (N = total emitted bytes); entries before the burn
// point lose their object-code emission since they describe the OS
// image's own addresses, not fresh code to load. A second upward pass
// then flips .ALIGN padding direction so alignment holes grow upward
// from the burn point instead of downward from program start.
func applyBurn(entries []*CodeEntry, symbols *symtab.Table, burnIdx int, totalBytes int32) int32 {
	v, _ := entries[burnIdx].Argument.Value()
	delta := int32(v) - totalBytes + 1

	for i, e := range entries {
		e.MemoryAddress += delta
		if i < burnIdx {
			e.EmitObjectCode = false
		}
	}
	symbols.ApplyOffset(delta)

	// Second pass: walk upward from the burn point, flipping .ALIGN
	// entries so their padding lands just below the next instruction
	// rather than just above the previous one. Addresses above each
	// flipped .ALIGN shift by the resulting change in its byte count.
	for i := burnIdx - 1; i >= 0; i-- {
		e := entries[i]
		if e.Kind != KindDotAlign {
			continue
		}
		k := e.Alignment
		if k == 0 {
			continue
		}
		nextAddr := nextEntryAddress(entries, i)
		newBytes := ((k - int(nextAddr)%k) % k)
		shift := int32(newBytes - e.GeneratedBytes)
		e.GeneratedBytes = newBytes
		if shift == 0 {
			continue
		}
		for j := 0; j < i; j++ {
			entries[j].MemoryAddress += shift
		}
		relocateSymbolsBelow(symbols, entries, i, shift)
	}

	return delta
}

func nextEntryAddress(entries []*CodeEntry, i int) int32 {
	if i+1 < len(entries) {
		return entries[i+1].MemoryAddress
	}
	return entries[i].MemoryAddress
}

// relocateSymbolsBelow nudges location-typed symbols whose owning
// entry sits above the flipped .ALIGN by shift. Symbols carry no back
// pointer to their defining entry's index, so this walks entries
// looking for symbol ownership rather than indexing by address, which
// would be ambiguous before relocation settles.
func relocateSymbolsBelow(symbols *symtab.Table, entries []*CodeEntry, alignIdx int, shift int32) {
	for j := 0; j < alignIdx; j++ {
		sym := entries[j].Symbol
		if sym != nil && sym.Value.Kind == symtab.Location {
			sym.Value.Loc = uint16(int32(sym.Value.Loc) + shift)
		}
	}
}
