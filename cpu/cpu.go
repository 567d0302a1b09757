package cpu

import (
	"errors"
	"fmt"

	"github.com/pep9vm/pep9core/isa"
	"github.com/pep9vm/pep9core/mem"
)

// StepResult is the status step() returns, mirroring the four
// outcomes the fetch-decode-execute contract names.
type StepResult int

const (
	StepOK StepResult = iota
	StepBreakpointHit
	StepAwaitingInput
	StepError
)

func (r StepResult) String() string {
	switch r {
	case StepOK:
		return "ok"
	case StepBreakpointHit:
		return "breakpoint"
	case StepAwaitingInput:
		return "awaiting-input"
	case StepError:
		return "error"
	default:
		return "unknown"
	}
}

// DefaultMaxSteps bounds run() so a non-terminating program cannot
// hang a batch harness.
const DefaultMaxSteps = 1 << 24

// TraceHooks is the interface the Stack Trace Engine implements; the
// CPU depends only on this, not on the trace package, so stepping
// works with trace disabled (a nil TraceHooks).
type TraceHooks interface {
	// CalculateStart runs before an instruction executes: it switches
	// the active stack to the OS stack on trap entry, and back to the
	// user stack on RETTR.
	CalculateStart(m isa.Mnemonic)
	// CalculateEnd runs after an instruction executes, with the
	// register values as they stood at the start of the instruction.
	CalculateEnd(m isa.Mnemonic, operand uint16, sp, pc, a uint16)
}

// TrapConfig locates the fixed memory cells the trap mechanism reads
// and writes: the trap vector (a word holding the handler's entry PC)
// and the base of the fixed trap-frame save area. Both are computed
// from the OS image's symbol table at load time.
type TrapConfig struct {
	VectorAddr    uint16
	TrapFrameBase uint16 // see trap.go for the frame layout
}

// CPU is the Pep/9 ISA-level simulator: register file, breakpoint set,
// and the fetch-decode-execute loop. It holds a Memory (the capability
// set in package mem, satisfied by either plain memory or a Cache) and
// drives a TraceHooks as a side effect of executing stack-related
// instructions.
type CPU struct {
	Regs    RegisterFile
	Memory  mem.Interface
	Trace   TraceHooks
	Trap    TrapConfig
	MaxSteps uint64

	breakpoints map[uint16]bool
	forceBreak  bool

	stepCount uint64

	// LastError holds the message from the most recent StepError
	// outcome, for the host to display.
	LastError error

	// PendingInputAddr is set when Step returns StepAwaitingInput, so
	// the host knows which port to fulfill or abort.
	PendingInputAddr uint16

	// stopped is latched by the STOP instruction's handler; Run exits
	// its loop once set.
	stopped bool
}

// New returns a CPU that reads and writes m, with the default step
// bound and no breakpoints armed.
func New(m mem.Interface) *CPU {
	return &CPU{
		Memory:      m,
		MaxSteps:    DefaultMaxSteps,
		breakpoints: make(map[uint16]bool),
	}
}

// Reset clears registers, PC, status bits, and step count. Stack-trace
// state is the trace engine's own responsibility to reset.
func (c *CPU) Reset() {
	c.Regs.Reset()
	c.stepCount = 0
	c.LastError = nil
	c.forceBreak = false
	c.stopped = false
}

// Init performs pre-run bookkeeping: nothing is required beyond what
// Reset already does unless a trace engine is attached, in which case
// the caller is expected to have already snapshotted the program's
// static trace info into it.
func (c *CPU) Init() {}

// SetBreakpoint arms a breakpoint at addr.
func (c *CPU) SetBreakpoint(addr uint16) {
	c.breakpoints[addr] = true
}

// ClearBreakpoint disarms the breakpoint at addr, if any.
func (c *CPU) ClearBreakpoint(addr uint16) {
	delete(c.breakpoints, addr)
}

// ClearAllBreakpoints disarms every breakpoint.
func (c *CPU) ClearAllBreakpoints() {
	c.breakpoints = make(map[uint16]bool)
}

// HasBreakpoint reports whether addr carries an armed breakpoint.
func (c *CPU) HasBreakpoint(addr uint16) bool {
	return c.breakpoints[addr]
}

// ForceBreakpoint arms a one-shot break on the very next step,
// regardless of PC, for external interruption (e.g. a GUI stop
// button).
func (c *CPU) ForceBreakpoint() {
	c.forceBreak = true
}

// errIllegalOpcode is returned by Step when the decode table has no
// entry for the fetched opcode byte.
var errIllegalOpcode = errors.New("illegal opcode")

// Step executes exactly one ISA instruction. See TraceHooks, trap.go,
// and flags.go for the pieces this stitches together.
func (c *CPU) Step() (StepResult, error) {
	pc := c.Regs.Current.PC

	if c.forceBreak || c.breakpoints[pc] {
		c.forceBreak = false
		return StepBreakpointHit, nil
	}

	if c.stepCount >= c.MaxSteps {
		err := fmt.Errorf("exceeded max steps (%d)", c.MaxSteps)
		c.LastError = err
		return StepError, err
	}
	c.stepCount++

	c.Regs.BeginInstruction()

	opcodeByte, err := c.Memory.ReadByte(pc)
	if err != nil && err != mem.ErrUnmapped {
		c.LastError = fmt.Errorf("fetch at 0x%04X: %w", pc, err)
		return StepError, c.LastError
	}

	mnemonic, mode, valid := isa.Decode(opcodeByte)
	if !valid {
		c.LastError = fmt.Errorf("%w: 0x%02X at 0x%04X", errIllegalOpcode, opcodeByte, pc)
		return StepError, c.LastError
	}

	c.Regs.Current.IS = opcodeByte
	width := uint16(1)
	var operand uint16
	if !mnemonic.IsUnary() {
		width = 3
		operand, err = c.Memory.ReadWord(pc + 1)
		if err != nil && err != mem.ErrUnmapped {
			c.LastError = fmt.Errorf("operand fetch at 0x%04X: %w", pc+1, err)
			return StepError, c.LastError
		}
	}
	c.Regs.Current.PC = pc + width

	if c.Trace != nil {
		c.Trace.CalculateStart(mnemonic)
	}

	result, err := c.execute(mnemonic, mode, operand)
	if err != nil {
		if result == StepAwaitingInput {
			// Roll PC back so a re-driven Step re-fetches this
			// instruction once input is supplied.
			c.Regs.Current.PC = pc
			c.stepCount--
			return StepAwaitingInput, nil
		}
		c.LastError = err
		return StepError, err
	}

	if c.Trace != nil {
		sp := c.Regs.StartOfInstruction.SP
		a := c.Regs.StartOfInstruction.A
		c.Trace.CalculateEnd(mnemonic, operand, sp, pc, a)
	}

	return StepOK, nil
}

// Run calls Step in a loop until STOP, a breakpoint, an input
// suspension, an error, or the step bound.
func (c *CPU) Run() (StepResult, error) {
	for {
		if c.stopped {
			return StepOK, nil
		}
		result, err := c.Step()
		switch result {
		case StepOK:
			continue
		default:
			return result, err
		}
	}
}

