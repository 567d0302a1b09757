// Command pep9term is the batch front end over pep9core: assemble a
// source file to object code, or load an assembled object and run it
// against pre-buffered input, plus an interactive debugger subcommand
// (CLI or TUI) over the same assemble/load path.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pep9vm/pep9core/asm"
	"github.com/pep9vm/pep9core/debugger"
	"github.com/pep9vm/pep9core/pepconfig"
	"github.com/pep9vm/pep9core/sim"
	"github.com/pep9vm/pep9core/symtab"
)

var termLog *log.Logger

func init() {
	if os.Getenv("PEP9_DEBUG") != "" {
		logPath := filepath.Join(os.TempDir(), "pep9core-term-debug.log")
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600) // #nosec G304 -- fixed filename in temp dir
		if err != nil {
			termLog = log.New(os.Stderr, "PEP9TERM: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		} else {
			termLog = log.New(f, "PEP9TERM: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		}
	} else {
		termLog = log.New(io.Discard, "", 0)
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "asm":
		err = runAsm(os.Args[2:])
	case "run":
		err = runRun(os.Args[2:])
	case "debug":
		err = runDebug(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  pep9term asm -s <source.pep> -o <object.pepo> [-l <listing.pepl>] [-dump-symbols] [-symbols-file <file>] [-xref-file <file>]")
	fmt.Fprintln(os.Stderr, "  pep9term run -s <object.pepo> -i <charIn.txt> -o <charOut.txt> [-m <max_steps>]")
	fmt.Fprintln(os.Stderr, "  pep9term debug -s <object.pepo> [-tui]")
}

// runAsm implements `pep9term asm`: assembles source into object code,
// optionally emitting a listing and a symbol dump alongside it.
func runAsm(args []string) error {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	sourcePath := fs.String("s", "", "source .pep file (required)")
	objectPath := fs.String("o", "", "output .pepo object file (required)")
	listingPath := fs.String("l", "", "output .pepl listing file (optional)")
	dumpSymbols := fs.Bool("dump-symbols", false, "print the symbol table after assembling")
	symbolsFile := fs.String("symbols-file", "", "write the symbol dump here instead of stdout")
	xrefFile := fs.String("xref-file", "", "write a symbol cross-reference report here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sourcePath == "" || *objectPath == "" {
		fs.Usage()
		return fmt.Errorf("-s and -o are required")
	}

	src, err := os.ReadFile(*sourcePath) // #nosec G304 -- user-specified source path
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	termLog.Printf("assembling %s", *sourcePath)
	prog, errs := asm.AssembleUserProgram(string(src))
	if prog == nil {
		logPath := *objectPath + ".errors.log"
		if writeErr := os.WriteFile(logPath, []byte(formatErrors(errs)), 0600); writeErr != nil {
			termLog.Printf("failed to write error log %s: %v", logPath, writeErr)
		}
		return fmt.Errorf("assembly failed, see %s", logPath)
	}
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e.Error())
	}

	object, err := prog.ObjectCode()
	if err != nil {
		return fmt.Errorf("rendering object code: %w", err)
	}
	if err := os.WriteFile(*objectPath, []byte(asm.FormatObject(object)), 0600); err != nil {
		return fmt.Errorf("writing object file: %w", err)
	}

	if *listingPath != "" {
		lines := strings.Split(string(src), "\n")
		listing := asm.FormatListing(prog.Entries, lines)
		if err := os.WriteFile(*listingPath, []byte(listing), 0600); err != nil {
			return fmt.Errorf("writing listing file: %w", err)
		}
	}

	if *dumpSymbols {
		dump := formatSymbolDump(prog.Symbols)
		if *symbolsFile == "" {
			fmt.Print(dump)
		} else if err := os.WriteFile(*symbolsFile, []byte(dump), 0600); err != nil {
			return fmt.Errorf("writing symbol dump: %w", err)
		}
	}

	if *xrefFile != "" {
		if err := os.WriteFile(*xrefFile, []byte(prog.SymbolXref()), 0600); err != nil {
			return fmt.Errorf("writing cross-reference report: %w", err)
		}
	}

	return nil
}

// runRun implements `pep9term run`: loads the default OS, loads the
// object at address 0, pre-buffers input, and runs to termination.
func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	objectPath := fs.String("s", "", "assembled .pepo object file (required)")
	inputPath := fs.String("i", "", "input file pre-buffered into charIn (optional)")
	outputPath := fs.String("o", "", "output file receiving charOut bytes (required)")
	maxSteps := fs.Uint64("m", 0, "maximum steps before the run is aborted (0 = default bound)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *objectPath == "" || *outputPath == "" {
		fs.Usage()
		return fmt.Errorf("-s and -o are required")
	}

	objectText, err := os.ReadFile(*objectPath) // #nosec G304 -- user-specified object path
	if err != nil {
		return fmt.Errorf("reading object file: %w", err)
	}

	var input []byte
	if *inputPath != "" {
		input, err = os.ReadFile(*inputPath) // #nosec G304 -- user-specified input path
		if err != nil {
			return fmt.Errorf("reading input file: %w", err)
		}
	}

	cfg := pepconfig.DefaultConfig()
	if *maxSteps > 0 {
		cfg.Execution.MaxSteps = *maxSteps
	}

	termLog.Printf("running %s (max_steps=%d)", *objectPath, cfg.Execution.MaxSteps)
	result, err := sim.RunBatch(cfg, string(objectText), input)
	if err != nil {
		return err
	}

	if writeErr := os.WriteFile(*outputPath, result.Output, 0600); writeErr != nil {
		return fmt.Errorf("writing output file: %w", writeErr)
	}

	if result.Err != nil {
		return result.Err
	}
	return nil
}

// runDebug implements `pep9term debug`: loads an assembled object,
// wires a Session and Debugger over it, and hands off to the CLI or TUI
// front end per spec.md's interactive-stepping surface.
func runDebug(args []string) error {
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	objectPath := fs.String("s", "", "assembled .pepo object file (required)")
	useTUI := fs.Bool("tui", false, "use the tcell/tview text user interface")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *objectPath == "" {
		fs.Usage()
		return fmt.Errorf("-s is required")
	}

	objectText, err := os.ReadFile(*objectPath) // #nosec G304 -- user-specified object path
	if err != nil {
		return fmt.Errorf("reading object file: %w", err)
	}
	object, err := asm.ParseObject(string(objectText))
	if err != nil {
		return fmt.Errorf("parsing object code: %w", err)
	}

	cfg, err := pepconfig.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	sess, err := sim.NewSession(cfg)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer sess.Close()

	if err := sess.LoadUserProgram(object); err != nil {
		return err
	}

	dbg := debugger.NewDebugger(sess)
	for _, bp := range cfg.Debugger.InitialBreaks {
		addr, err := dbg.ResolveAddress(bp)
		if err != nil {
			return fmt.Errorf("initial_breakpoints: %w", err)
		}
		dbg.Breakpoints.AddBreakpoint(addr, false)
		sess.CPU.SetBreakpoint(addr)
	}

	if *useTUI || cfg.Debugger.LaunchTUI {
		return debugger.RunTUI(dbg)
	}
	return debugger.RunCLI(dbg)
}

func formatErrors(errs []*asm.Error) string {
	var b strings.Builder
	for _, e := range errs {
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// formatSymbolDump renders every defined symbol in insertion order,
// matching the original interactive tool's symbol table dialog.
func formatSymbolDump(symbols *symtab.Table) string {
	var b strings.Builder
	for _, sym := range symbols.All() {
		switch sym.Value.Kind {
		case symtab.Location:
			fmt.Fprintf(&b, "%-8s 0x%04X  (%s)\n", sym.Name, sym.Value.Loc, sym.State)
		case symtab.Numeric:
			fmt.Fprintf(&b, "%-8s %-8d  (%s)\n", sym.Name, sym.Value.Numeric, sym.State)
		default:
			fmt.Fprintf(&b, "%-8s %-8s  (%s)\n", sym.Name, "--", sym.State)
		}
	}
	for _, sym := range symbols.GetUnusedSymbols() {
		fmt.Fprintf(&b, "warning: symbol %q is never referenced\n", sym.Name)
	}
	return b.String()
}
