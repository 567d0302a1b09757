package debugger

import (
	"fmt"
	"strconv"
	"strings"
)

// cmdRun resets the CPU and runs to the first stop condition.
func (d *Debugger) cmdRun(args []string) error {
	d.Session.ResetRegisters()
	d.StepMode = StepNone
	d.Println("Starting program execution...")
	return d.runToStop(d.Session.CPU.Step)
}

// cmdContinue resumes execution from the current PC.
func (d *Debugger) cmdContinue(args []string) error {
	d.StepMode = StepNone
	d.Println("Continuing...")
	return d.runToStop(d.Session.CPU.Step)
}

// cmdStep executes exactly one instruction, descending into CALL.
func (d *Debugger) cmdStep(args []string) error {
	d.StepMode = StepSingle
	return d.runToStop(d.Session.CPU.StepInto)
}

// cmdNext executes one instruction, but runs a CALL to completion
// rather than stepping into it.
func (d *Debugger) cmdNext(args []string) error {
	d.StepMode = StepSingle
	return d.runToStop(d.Session.CPU.StepOver)
}

// cmdFinish runs until the current subroutine returns to its caller.
func (d *Debugger) cmdFinish(args []string) error {
	d.StepMode = StepNone
	return d.runToStop(d.Session.CPU.StepOut)
}

// cmdBreak sets a breakpoint at an address or symbol.
func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <address|label>")
	}
	address, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.AddBreakpoint(address, false)
	d.Session.CPU.SetBreakpoint(address)
	d.Printf("Breakpoint %d at 0x%04X\n", bp.ID, address)
	return nil
}

// cmdTBreak sets a temporary breakpoint, removed after its first hit.
func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <address|label>")
	}
	address, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.AddBreakpoint(address, true)
	d.Session.CPU.SetBreakpoint(address)
	d.Printf("Temporary breakpoint %d at 0x%04X\n", bp.ID, address)
	return nil
}

// cmdDelete removes one breakpoint by ID, or all of them with no args.
func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		d.Breakpoints.Clear()
		d.Session.CPU.ClearAllBreakpoints()
		d.Println("All breakpoints deleted")
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	bp := d.Breakpoints.GetBreakpointByID(id)
	if bp == nil {
		return fmt.Errorf("no breakpoint %d", id)
	}
	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}
	d.Session.CPU.ClearBreakpoint(bp.Address)
	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

// cmdEnable re-arms a disabled breakpoint.
func (d *Debugger) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}
	if bp := d.Breakpoints.GetBreakpointByID(id); bp != nil {
		d.Session.CPU.SetBreakpoint(bp.Address)
	}
	d.Printf("Breakpoint %d enabled\n", id)
	return nil
}

// cmdDisable disarms a breakpoint without deleting it.
func (d *Debugger) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}
	if bp := d.Breakpoints.GetBreakpointByID(id); bp != nil {
		d.Session.CPU.ClearBreakpoint(bp.Address)
	}
	d.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// cmdPrint shows a register's value: a, x, sp, pc, or nzvc.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <a|x|sp|pc|nzvc|symbol>")
	}
	regs := d.Session.CPU.Regs.Current
	switch strings.ToLower(args[0]) {
	case "a":
		d.Printf("A = 0x%04X (%d)\n", regs.A, int16(regs.A))
	case "x":
		d.Printf("X = 0x%04X (%d)\n", regs.X, int16(regs.X))
	case "sp":
		d.Printf("SP = 0x%04X\n", regs.SP)
	case "pc":
		d.Printf("PC = 0x%04X\n", regs.PC)
	case "nzvc":
		d.Printf("N=%v Z=%v V=%v C=%v\n", regs.N, regs.Z, regs.V, regs.C)
	default:
		addr, ok := d.Symbols[args[0]]
		if !ok {
			return fmt.Errorf("unknown register or symbol: %s", args[0])
		}
		v, err := d.Session.Memory.ReadWord(addr)
		if err != nil {
			return err
		}
		d.Printf("%s (0x%04X) = 0x%04X\n", args[0], addr, v)
	}
	return nil
}

// cmdExamine dumps memory starting at an address: x <address> [count].
func (d *Debugger) cmdExamine(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: x <address> [count]")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	count := 16
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid count: %s", args[1])
		}
		count = n
	}

	for i := 0; i < count; i += 16 {
		d.Printf("0x%04X: ", addr+uint16(i))
		for j := 0; j < 16 && i+j < count; j++ {
			b, err := d.Session.Memory.ReadByte(addr + uint16(i+j))
			if err != nil {
				b = 0
			}
			d.Printf("%02X ", b)
		}
		d.Println()
	}
	return nil
}

// cmdInfo reports registers or breakpoints: info registers|breakpoints.
func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <registers|breakpoints>")
	}
	switch strings.ToLower(args[0]) {
	case "registers", "reg", "r":
		regs := d.Session.CPU.Regs.Current
		d.Printf("A=0x%04X X=0x%04X SP=0x%04X PC=0x%04X NZVC=%v%v%v%v\n",
			regs.A, regs.X, regs.SP, regs.PC, b2i(regs.N), b2i(regs.Z), b2i(regs.V), b2i(regs.C))
	case "breakpoints", "break", "b":
		all := d.Breakpoints.GetAllBreakpoints()
		if len(all) == 0 {
			d.Println("No breakpoints set")
			return nil
		}
		for _, bp := range all {
			state := "enabled"
			if !bp.Enabled {
				state = "disabled"
			}
			d.Printf("%d: 0x%04X (%s, hits=%d)\n", bp.ID, bp.Address, state, bp.HitCount)
		}
	default:
		return fmt.Errorf("unknown info target: %s", args[0])
	}
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// cmdBacktrace prints the reconstructed call stack, if a trace engine
// is attached to the session.
func (d *Debugger) cmdBacktrace(args []string) error {
	if d.Session.Tracer == nil {
		return fmt.Errorf("no trace engine attached to this session")
	}
	d.Println(d.Session.Tracer.Trace.String())
	return nil
}

// cmdHelp lists available commands.
func (d *Debugger) cmdHelp(args []string) error {
	d.Println("Commands:")
	d.Println("  run, r                 reset and run to the first stop")
	d.Println("  continue, c            resume execution")
	d.Println("  step, s, si            execute one instruction (into calls)")
	d.Println("  next, n                execute one instruction (over calls)")
	d.Println("  finish, fin            run until the current subroutine returns")
	d.Println("  break, b <addr>        set a breakpoint")
	d.Println("  tbreak, tb <addr>      set a one-shot breakpoint")
	d.Println("  delete, d [id]         delete one or all breakpoints")
	d.Println("  enable/disable <id>    arm or disarm a breakpoint")
	d.Println("  print, p <reg|sym>     show a register or memory symbol")
	d.Println("  x <addr> [count]       dump memory bytes")
	d.Println("  info registers         show the register file")
	d.Println("  info breakpoints       list breakpoints")
	d.Println("  backtrace, bt, where   show the reconstructed call stack")
	d.Println("  help, h, ?             this message")
	return nil
}
