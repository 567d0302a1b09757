package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pep9vm/pep9core/cpu"
	"github.com/pep9vm/pep9core/sim"
)

// StepMode tracks which of run/continue's "stop soon" conditions the
// debugger is honoring for the current Step call.
type StepMode int

const (
	StepNone StepMode = iota
	StepSingle
	StepOverMode
	StepOutMode
)

// Debugger drives a sim.Session one command at a time: breakpoints,
// step/next/finish, symbol-aware address resolution, and a text output
// buffer the CLI or TUI front end drains after each command.
type Debugger struct {
	Session *sim.Session

	Breakpoints *BreakpointManager
	History     *CommandHistory

	Running  bool
	StepMode StepMode

	// Symbols maps assembled symbol names to their addresses, loaded
	// from the user program's symbol table for `break <name>` and
	// `print <name>` resolution.
	Symbols map[string]uint16

	LastCommand string

	Output strings.Builder
}

// NewDebugger wraps session for interactive control.
func NewDebugger(session *sim.Session) *Debugger {
	return &Debugger{
		Session:     session,
		Breakpoints: NewBreakpointManager(),
		History:     NewCommandHistory(),
		Symbols:     make(map[string]uint16),
	}
}

// LoadSymbols replaces the symbol table used by ResolveAddress.
func (d *Debugger) LoadSymbols(symbols map[string]uint16) {
	d.Symbols = symbols
}

// ResolveAddress resolves a symbol name, or parses a literal hex
// (0x-prefixed) or decimal address.
func (d *Debugger) ResolveAddress(addrStr string) (uint16, error) {
	if addr, exists := d.Symbols[addrStr]; exists {
		return addr, nil
	}

	if strings.HasPrefix(addrStr, "0x") || strings.HasPrefix(addrStr, "0X") {
		v, err := strconv.ParseUint(addrStr[2:], 16, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid address: %s", addrStr)
		}
		return uint16(v), nil
	}

	v, err := strconv.ParseUint(addrStr, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", addrStr)
	}
	return uint16(v), nil
}

// ExecuteCommand parses and dispatches one command line. An empty line
// repeats the last command, matching a gdb-style REPL.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)
	case "finish", "fin":
		return d.cmdFinish(args)
	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)
	case "print", "p":
		return d.cmdPrint(args)
	case "x":
		return d.cmdExamine(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "backtrace", "bt", "where":
		return d.cmdBacktrace(args)
	case "help", "h", "?":
		return d.cmdHelp(args)
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// ShouldBreak reports whether execution should pause at the CPU's
// current PC, syncing a hit's bookkeeping (hit count, temporary
// removal) into the BreakpointManager.
func (d *Debugger) ShouldBreak() (bool, string) {
	pc := d.Session.CPU.Regs.Current.PC

	switch d.StepMode {
	case StepSingle:
		d.StepMode = StepNone
		return true, "single step"
	}

	if bp := d.Breakpoints.GetBreakpoint(pc); bp != nil && bp.Enabled {
		hit := d.Breakpoints.ProcessHit(pc)
		if !hit.Temporary {
			// keep the CPU's own armed set in sync; ProcessHit already
			// removed a temporary one from the manager
		} else {
			d.Session.CPU.ClearBreakpoint(pc)
		}
		return true, fmt.Sprintf("breakpoint %d", hit.ID)
	}

	return false, ""
}

// GetOutput returns and clears the accumulated output buffer.
func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

// Printf writes formatted text to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

// Println writes a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	fmt.Fprintln(&d.Output, args...)
}

// syncBreakpoints arms every enabled breakpoint on the CPU's
// lightweight set, called before any run/continue/step that might
// encounter one.
func (d *Debugger) syncBreakpoints() {
	d.Session.CPU.ClearAllBreakpoints()
	for _, addr := range d.Breakpoints.Armed() {
		d.Session.CPU.SetBreakpoint(addr)
	}
}

// runToStop runs the CPU via stepFn until it reports something other
// than StepOK, surfacing the result as debugger output.
func (d *Debugger) runToStop(stepFn func() (cpu.StepResult, error)) error {
	d.syncBreakpoints()
	d.Running = true
	for d.Running {
		result, err := stepFn()
		switch result {
		case cpu.StepOK:
			continue
		case cpu.StepBreakpointHit:
			d.Running = false
			d.Printf("Breakpoint hit at PC=0x%04X\n", d.Session.CPU.Regs.Current.PC)
		case cpu.StepAwaitingInput:
			d.Running = false
			d.Printf("Awaiting input at 0x%04X\n", d.Session.CPU.PendingInputAddr)
		case cpu.StepError:
			d.Running = false
			d.Printf("Runtime error: %v\n", err)
			return err
		}
		if result != cpu.StepOK {
			break
		}
	}
	return nil
}
