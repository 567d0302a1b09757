// Package sim wires the assembler, memory subsystem, ISA CPU, and
// Stack Trace Engine together into one runnable session: it owns the
// default operating system, the chip layout, and the batch-mode input
// pre-buffering / output capture the CLI and any future host drive.
package sim

import (
	"fmt"

	"github.com/pep9vm/pep9core/cpu"
	"github.com/pep9vm/pep9core/events"
	"github.com/pep9vm/pep9core/mem"
	"github.com/pep9vm/pep9core/pepconfig"
	"github.com/pep9vm/pep9core/trace"
)

// fullAddressSpace is the size of the 64 KiB address space. The OS
// chip spans from the OS image's lowest address (computed in
// NewSession rather than hardcoded, so it tracks defaultOSSource) up to
// the end of it; user RAM spans everything below.
const fullAddressSpace = 0x10000

// Session bundles one runnable machine: memory (optionally cached),
// CPU, trace engine, and the event broadcaster a host subscribes to
// for simulation-started/update/finished, input-requested,
// output-written, and hit-breakpoint notifications.
type Session struct {
	Config *pepconfig.Config
	Memory *mem.Subsystem
	Cache  *mem.Cache // nil unless Config.Cache.Enabled
	CPU    *cpu.CPU
	Tracer *trace.Tracer
	Events *events.Broadcaster

	os     *OSImage
	output []byte
}

// NewSession builds a Session from cfg: assembles and burns the
// default operating system, lays out the chip map, and wires up event
// publication for input/output. The CPU's Memory is cfg.Cache.Enabled's
// wrapping Cache when set, otherwise the raw Subsystem.
func NewSession(cfg *pepconfig.Config) (*Session, error) {
	if cfg == nil {
		cfg = pepconfig.DefaultConfig()
	}

	img, err := BuildDefaultOS()
	if err != nil {
		return nil, err
	}

	osBase := lowestAddress(img.bytes)

	sub := mem.New()
	sub.Construct([]mem.Spec{
		{Kind: mem.RAM, Base: img.TrapFrameBase, Span: 10},
		{Kind: mem.InputPort, Base: img.CharInAddr, Span: 1},
		{Kind: mem.OutputPort, Base: img.CharOutAddr, Span: 1},
		{Kind: mem.ROM, Base: osBase, Span: uint16(fullAddressSpace - int(osBase))},
		{Kind: mem.RAM, Base: 0, Span: osBase},
	})
	// Burn the OS image in before StrictROM takes effect: the ROM
	// chip's own bytes are installed through WriteByte like everything
	// else, and a strict policy would otherwise reject writing to it.
	for addr, b := range img.bytes {
		if err := sub.WriteByte(addr, b); err != nil {
			return nil, fmt.Errorf("burning default OS image: %w", err)
		}
	}
	sub.StrictROM = cfg.Execution.StrictROM

	s := &Session{
		Config: cfg,
		Memory: sub,
		os:     img,
		Events: events.NewBroadcaster(),
	}

	sub.OnOutputWritten = func(addr uint16, b byte) {
		s.output = append(s.output, b)
		s.Events.Publish(events.OutputWritten(addr, b))
	}
	sub.OnInputRequested = func(addr uint16) {
		s.Events.Publish(events.InputRequested(addr))
	}

	var memIface mem.Interface = sub
	if cfg.Cache.Enabled {
		cacheCfg, err := cfg.Cache.ToMemConfig()
		if err != nil {
			return nil, fmt.Errorf("cache configuration: %w", err)
		}
		s.Cache = mem.NewCache(sub, cacheCfg)
		memIface = s.Cache
	}

	s.CPU = cpu.New(memIface)
	s.CPU.MaxSteps = cfg.Execution.EffectiveMaxSteps(cpu.DefaultMaxSteps)
	s.CPU.Trap = cpu.TrapConfig{VectorAddr: img.TrapVectorAddr, TrapFrameBase: img.TrapFrameBase}

	return s, nil
}

func lowestAddress(bytes map[uint16]byte) uint16 {
	lowest := uint16(0xFFFF)
	for addr := range bytes {
		if addr < lowest {
			lowest = addr
		}
	}
	return lowest
}

// CharInAddr returns the address of the memory-mapped input port, for
// a host that wants to pre-buffer or fulfill input directly.
func (s *Session) CharInAddr() uint16 { return s.os.CharInAddr }

// CharOutAddr returns the address of the memory-mapped output port.
func (s *Session) CharOutAddr() uint16 { return s.os.CharOutAddr }

// LoadUserProgram installs object at address 0 and bootstraps the CPU
// to run it, matching the "loads the OS, loads the object at address
// 0" batch contract.
func (s *Session) LoadUserProgram(object []byte) error {
	if err := s.Memory.LoadValues(0, object); err != nil {
		return fmt.Errorf("loading user program: %w", err)
	}
	s.ResetRegisters()
	return nil
}

// ResetRegisters re-bootstraps the register file without touching
// memory: PC to 0 (batch mode bypasses the OS's own pcInit boot
// routine) and SP from the OS-defined stack init word. A debugger's
// `run` command calls this to restart the already-loaded program.
func (s *Session) ResetRegisters() {
	s.CPU.Reset()
	s.CPU.Regs.Current.PC = 0
	s.CPU.Regs.Current.SP = s.os.StackInit
	if s.Tracer != nil {
		s.CPU.Trace = s.Tracer
	}
}

// AttachTrace wires a Tracer built from info (possibly nil) as the
// CPU's TraceHooks, so stack-trace reconstruction runs alongside
// execution.
func (s *Session) AttachTrace(info *trace.TraceInfo) {
	s.Tracer = trace.NewTracer(info)
	s.CPU.Trace = s.Tracer
}

// PreBufferInput queues every byte of data onto the input port ahead
// of a run, the batch-mode policy for (a) in the suspension-points
// list: with the whole stream pre-buffered, reading an empty InputPort
// cannot occur other than by genuine end-of-input, which AbortInput
// then marks explicitly.
func (s *Session) PreBufferInput(data []byte) error {
	for _, b := range data {
		if err := s.Memory.FulfillInput(s.os.CharInAddr, b); err != nil {
			return err
		}
	}
	return s.Memory.AbortInput(s.os.CharInAddr)
}

// Output returns every byte written to charOut so far.
func (s *Session) Output() []byte { return s.output }

// Run executes until STOP, a breakpoint, an input suspension, an
// error, or the step bound, publishing simulation-started/finished
// around the run.
func (s *Session) Run() (cpu.StepResult, error) {
	s.Events.Publish(events.Started())
	result, err := s.CPU.Run()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.Events.Publish(events.Finished(msg))
	return result, err
}

// Close shuts down the session's event broadcaster.
func (s *Session) Close() { s.Events.Close() }
