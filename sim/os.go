package sim

import (
	"fmt"

	"github.com/pep9vm/pep9core/asm"
	"github.com/pep9vm/pep9core/symtab"
)

// defaultOSSource is the batch operating system image burned into ROM
// at every session's startup: a writable trap-frame save area, the
// memory-mapped charIn/charOut ports, a pass-through trap handler, and
// the fixed SP-init/PC-init/trap-vector pointers the loader reads.
//
// Dispatching DECI/DECO/HEXO/STRO to real decimal/hex/string conversion
// routines would mean hand-writing a second, unrelated assembly program
// on top of the assembler this package exists to drive; the trap
// mechanism itself — context switch, trap frame, vector, RETTR — is
// fully simulated, but every trapped instruction currently resolves to
// a bare RETTR. Programs that exercise memory-mapped charIn/charOut
// directly (the documented worked examples) are unaffected.
const defaultOSSource = `trapFrame: .BLOCK 10
charIn:    .BLOCK 1
charOut:   .BLOCK 1
trapHandler: RETTR
           .ALIGN 2
spInit:    .WORD stackTop
           .BLOCK 4
pcInit:    .WORD userEntry
trapVec:   .WORD trapHandler
stackTop:  .EQUATE 0xFB00
userEntry: .EQUATE 0x0000
.BURN 0xFFFF
.END
`

// OSImage is an assembled default operating system plus the addresses
// a Session needs to wire it into the memory map and the CPU's trap
// config.
type OSImage struct {
	Program *asm.Program

	TrapFrameBase uint16
	TrapVectorAddr uint16
	CharInAddr    uint16
	CharOutAddr   uint16

	// StackInit is the word stored at spInit — the OS-defined initial
	// stack pointer, read from the assembled image rather than
	// hardcoded so it tracks defaultOSSource's own stackTop constant.
	StackInit uint16

	bytes map[uint16]byte
}

// BuildDefaultOS assembles defaultOSSource and resolves the fixed
// addresses a Session needs.
func BuildDefaultOS() (*OSImage, error) {
	prog, errs := asm.AssembleOperatingSystem(defaultOSSource, true)
	if prog == nil {
		return nil, fmt.Errorf("assembling default OS: %s", joinErrors(errs))
	}

	img := &OSImage{Program: prog}

	locate := func(name string) (uint16, error) {
		sym, ok := prog.Symbols.Get(name)
		if !ok || !sym.Defined() || sym.Value.Kind != symtab.Location {
			return 0, fmt.Errorf("default OS: symbol %q is not a defined location", name)
		}
		return sym.Value.Loc, nil
	}

	var err error
	if img.TrapFrameBase, err = locate("trapFrame"); err != nil {
		return nil, err
	}
	if img.TrapVectorAddr, err = locate("trapVec"); err != nil {
		return nil, err
	}
	if img.CharInAddr, err = locate("charIn"); err != nil {
		return nil, err
	}
	if img.CharOutAddr, err = locate("charOut"); err != nil {
		return nil, err
	}

	imgBytes, err := prog.ImageBytes()
	if err != nil {
		return nil, fmt.Errorf("rendering default OS image: %w", err)
	}
	img.bytes = imgBytes

	spInitAddr, err := locate("spInit")
	if err != nil {
		return nil, err
	}
	hi, hiOK := imgBytes[spInitAddr]
	lo, loOK := imgBytes[spInitAddr+1]
	if !hiOK || !loOK {
		return nil, fmt.Errorf("default OS: spInit word at 0x%04X is incomplete", spInitAddr)
	}
	img.StackInit = uint16(hi)<<8 | uint16(lo)

	return img, nil
}

func joinErrors(errs []*asm.Error) string {
	s := ""
	for i, e := range errs {
		if i > 0 {
			s += "; "
		}
		s += e.Error()
	}
	return s
}
