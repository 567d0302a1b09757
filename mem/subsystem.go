package mem

import "fmt"

// Interface is the capability set the CPU is parameterized over: plain
// memory and the optional cache both satisfy it, so the CPU can't tell
// the difference and the cache can be disabled without recompiling
// anything that depends on this interface.
type Interface interface {
	ReadByte(addr uint16) (byte, error)
	ReadWord(addr uint16) (uint16, error)
	WriteByte(addr uint16, v byte) error
	WriteWord(addr uint16, v uint16) error
	Clear()
	LoadValues(base uint16, data []byte) error
}

// Subsystem is the flat 64 KiB Pep/9 address space: a set of typed
// chips plus the hooks the memory-mapped I/O ports need to
// signal the outside world.
type Subsystem struct {
	chips []*Chip

	// StrictROM, when true, makes writes to ROM chips return an error
	// instead of being silently ignored. Resolves the open question on
	// ROM-write policy as a configuration flag.
	StrictROM bool

	// OnOutputWritten is invoked synchronously, before WriteByte
	// returns, whenever a byte is written to an OutputPort chip.
	OnOutputWritten func(addr uint16, b byte)

	// OnInputRequested is invoked when ReadByte finds an InputPort's
	// buffer empty, just before ErrInputEmpty is returned. Hosts use
	// this to drive the input-requested event in the concurrency
	// model; it never blocks.
	OnInputRequested func(addr uint16)

	unmappedRead bool // sticky flag set by a read of an unmapped address
}

// New returns an empty Subsystem with no chips installed.
func New() *Subsystem {
	return &Subsystem{}
}

// Construct replaces the chip set wholesale with chips built from
// specs. Spans may overlap: an address belongs to the first chip in
// specs that covers it. The number of InputPort chips is not checked.
func (m *Subsystem) Construct(specs []Spec) {
	m.chips = make([]*Chip, 0, len(specs))
	for _, s := range specs {
		m.chips = append(m.chips, newChip(s.Kind, s.Base, s.Span))
	}
}

// AddChip installs a single chip, for incremental construction (e.g.
// an OS image loaded before the user program's chip is known).
func (m *Subsystem) AddChip(kind Kind, base, span uint16) *Chip {
	c := newChip(kind, base, span)
	m.chips = append(m.chips, c)
	return c
}

func (m *Subsystem) findChip(addr uint16) *Chip {
	for _, c := range m.chips {
		if c.contains(addr) {
			return c
		}
	}
	return nil
}

// ChipAt exposes the chip covering addr, if any (the first installed
// one, where spans overlap).
func (m *Subsystem) ChipAt(addr uint16) (*Chip, bool) {
	c := m.findChip(addr)
	return c, c != nil
}

// UnmappedReadOccurred reports whether any read of an unmapped address
// has happened since the last Clear, per the "sets a flag (non-fatal)"
// failure semantics.
func (m *Subsystem) UnmappedReadOccurred() bool { return m.unmappedRead }

// ReadByte reads one byte. Reads of unmapped addresses return 0 and
// set a sticky flag rather than failing. Reads of an InputPort whose
// buffer is empty return ErrInputEmpty so the caller can suspend.
func (m *Subsystem) ReadByte(addr uint16) (byte, error) {
	c := m.findChip(addr)
	if c == nil {
		m.unmappedRead = true
		return 0, ErrUnmapped
	}
	switch c.Kind {
	case RAM, ROM:
		return c.data[addr-c.Base], nil
	case InputPort:
		if len(c.inputQueue) == 0 {
			if m.OnInputRequested != nil {
				m.OnInputRequested(addr)
			}
			return 0, ErrInputEmpty
		}
		b := c.inputQueue[0]
		c.inputQueue = c.inputQueue[1:]
		return b, nil
	case OutputPort:
		return c.lastWritten, nil
	default:
		return 0, fmt.Errorf("unknown chip kind %v", c.Kind)
	}
}

// ReadWord reads a big-endian 16-bit word across addr and addr+1.
func (m *Subsystem) ReadWord(addr uint16) (uint16, error) {
	hi, err := m.ReadByte(addr)
	if err != nil {
		return 0, err
	}
	lo, err := m.ReadByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// WriteByte writes one byte. Writes to ROM are ignored unless
// StrictROM is set, in which case they return an error. Writes to an
// OutputPort fire OnOutputWritten synchronously before returning.
func (m *Subsystem) WriteByte(addr uint16, v byte) error {
	c := m.findChip(addr)
	if c == nil {
		return nil // unmapped writes are silently dropped, like ROM
	}
	switch c.Kind {
	case RAM:
		c.data[addr-c.Base] = v
		return nil
	case ROM:
		if m.StrictROM {
			return fmt.Errorf("write to ROM at 0x%04X rejected (strict ROM mode)", addr)
		}
		return nil
	case InputPort:
		return nil // writes to an input port have no effect
	case OutputPort:
		c.lastWritten = v
		if m.OnOutputWritten != nil {
			m.OnOutputWritten(addr, v)
		}
		return nil
	default:
		return fmt.Errorf("unknown chip kind %v", c.Kind)
	}
}

// WriteWord writes a big-endian 16-bit word across addr and addr+1.
func (m *Subsystem) WriteWord(addr uint16, v uint16) error {
	if err := m.WriteByte(addr, byte(v>>8)); err != nil {
		return err
	}
	return m.WriteByte(addr+1, byte(v))
}

// LoadValues copies data into chips starting at base, byte by byte,
// so it naturally respects chip boundaries and ROM policy.
func (m *Subsystem) LoadValues(base uint16, data []byte) error {
	for i, b := range data {
		if err := m.WriteByte(base+uint16(i), b); err != nil {
			return fmt.Errorf("loading byte %d at 0x%04X: %w", i, base+uint16(i), err)
		}
	}
	return nil
}

// Clear zeroes all RAM/ROM chip contents, drains input queues, and
// resets output state and the unmapped-read flag. Chip layout itself
// is untouched.
func (m *Subsystem) Clear() {
	m.unmappedRead = false
	for _, c := range m.chips {
		switch c.Kind {
		case RAM, ROM:
			for i := range c.data {
				c.data[i] = 0
			}
		case InputPort:
			c.inputQueue = nil
			c.aborted = false
		case OutputPort:
			c.lastWritten = 0
		}
	}
}

// FulfillInput appends a byte to the InputPort covering addr, used by
// a host resuming a CPU suspended on AwaitingInput.
func (m *Subsystem) FulfillInput(addr uint16, b byte) error {
	c := m.findChip(addr)
	if c == nil || c.Kind != InputPort {
		return fmt.Errorf("0x%04X is not an input port", addr)
	}
	c.Queue(b)
	return nil
}

// AbortInput marks the InputPort covering addr as exhausted, per the
// batch-mode "abort sentinel" suspension-cancellation policy.
func (m *Subsystem) AbortInput(addr uint16) error {
	c := m.findChip(addr)
	if c == nil || c.Kind != InputPort {
		return fmt.Errorf("0x%04X is not an input port", addr)
	}
	c.Abort()
	return nil
}

var _ Interface = (*Subsystem)(nil)
