package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pep9vm/pep9core/isa"
)

// TUI is the tcell/tview text interface over a Debugger: register,
// memory, stack, and disassembly panes that refresh after every
// command, plus a breakpoint list and a scrolling output/command pair.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	RegisterView    *tview.TextView
	MemoryView      *tview.TextView
	StackView       *tview.TextView
	DisassemblyView *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress uint16
}

// NewTUI builds the layout and key bindings over debugger.
func NewTUI(debugger *Debugger) *TUI {
	t := &TUI{Debugger: debugger}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

// NewTUIWithScreen builds a TUI bound to an already-constructed tcell
// screen, for tests that drive the application against a simulation
// screen instead of a real terminal.
func NewTUIWithScreen(debugger *Debugger, screen tcell.Screen) *TUI {
	t := NewTUI(debugger)
	t.App.SetScreen(screen)
	return t
}

func (t *TUI) initializeViews() {
	t.App = tview.NewApplication()

	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.StackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.DisassemblyView, 0, 3, false).
		AddItem(t.StackView, 0, 2, false)

	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 7, 0, false).
		AddItem(t.MemoryView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF9:
			t.executeCommand("break")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		if cmd := t.CommandInput.GetText(); cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()
	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}
	t.RefreshAll()
}

// WriteOutput appends text to the scrolling output pane.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every pane from current CPU/memory state.
func (t *TUI) RefreshAll() {
	t.UpdateRegisterView()
	t.UpdateMemoryView()
	t.UpdateStackView()
	t.UpdateDisassemblyView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

func (t *TUI) UpdateRegisterView() {
	regs := t.Debugger.Session.CPU.Regs.Current
	lines := []string{
		fmt.Sprintf("A:  0x%04X (%d)", regs.A, int16(regs.A)),
		fmt.Sprintf("X:  0x%04X (%d)", regs.X, int16(regs.X)),
		fmt.Sprintf("SP: 0x%04X", regs.SP),
		fmt.Sprintf("PC: 0x%04X", regs.PC),
		fmt.Sprintf("N=%s Z=%s V=%s C=%s", flagChar(regs.N, "N"), flagChar(regs.Z, "Z"), flagChar(regs.V, "V"), flagChar(regs.C, "C")),
	}
	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func flagChar(set bool, name string) string {
	if set {
		return "[green]" + name + "[white]"
	}
	return strings.ToLower(name)
}

func (t *TUI) UpdateMemoryView() {
	addr := t.MemoryAddress
	if addr == 0 {
		addr = t.Debugger.Session.CPU.Regs.Current.PC
	}

	lines := []string{fmt.Sprintf("[yellow]Address: 0x%04X[white]", addr)}
	for row := 0; row < 16; row++ {
		rowAddr := addr + uint16(row*16)
		line := fmt.Sprintf("0x%04X: ", rowAddr)

		var hexBytes []string
		var asciiBytes []byte
		for col := 0; col < 16; col++ {
			b, err := t.Debugger.Session.Memory.ReadByte(rowAddr + uint16(col))
			if err != nil {
				hexBytes = append(hexBytes, "??")
				asciiBytes = append(asciiBytes, '.')
				continue
			}
			hexBytes = append(hexBytes, fmt.Sprintf("%02X", b))
			if b >= 32 && b < 127 {
				asciiBytes = append(asciiBytes, b)
			} else {
				asciiBytes = append(asciiBytes, '.')
			}
		}
		line += strings.Join(hexBytes, " ") + "  " + string(asciiBytes)
		lines = append(lines, line)
	}
	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) UpdateStackView() {
	sp := t.Debugger.Session.CPU.Regs.Current.SP

	lines := []string{fmt.Sprintf("[yellow]SP: 0x%04X[white]", sp)}
	for i := 0; i < 16; i++ {
		addr := sp + uint16(i*2)
		word, err := t.Debugger.Session.Memory.ReadWord(addr)
		if err != nil {
			lines = append(lines, fmt.Sprintf("0x%04X: ????", addr))
			continue
		}
		marker := "  "
		if addr == sp {
			marker = "->"
		}
		line := fmt.Sprintf("%s 0x%04X: 0x%04X", marker, addr, word)
		if sym := t.findSymbolForAddress(word); sym != "" {
			line += fmt.Sprintf(" <%s>", sym)
		}
		lines = append(lines, line)
	}
	t.StackView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) UpdateDisassemblyView() {
	pc := t.Debugger.Session.CPU.Regs.Current.PC

	startAddr := pc
	if pc > 16 {
		startAddr = pc - 16
	} else {
		startAddr = 0
	}

	var lines []string
	addr := startAddr
	for i := 0; i < 16 && addr < 0xFFFF; i++ {
		opcode, err := t.Debugger.Session.Memory.ReadByte(addr)
		if err != nil {
			break
		}
		mnemonic, mode, valid := isa.Decode(opcode)

		marker := "  "
		color := "white"
		if addr == pc {
			marker = "->"
			color = "yellow"
		}
		if t.Debugger.Breakpoints.GetBreakpoint(addr) != nil {
			marker = "* "
		}

		width := uint16(1)
		text := fmt.Sprintf("%02X", opcode)
		if valid {
			if mnemonic.IsUnary() {
				text = mnemonic.String()
			} else {
				width = 3
				operand, _ := t.Debugger.Session.Memory.ReadWord(addr + 1)
				text = fmt.Sprintf("%s 0x%04X,%s", mnemonic, operand, mode)
			}
		}

		line := fmt.Sprintf("[%s]%s 0x%04X: %s[white]", color, marker, addr, text)
		if sym := t.findSymbolForAddress(addr); sym != "" {
			line = fmt.Sprintf("[%s]%s 0x%04X: %s  <%s>[white]", color, marker, addr, text, sym)
		}
		lines = append(lines, line)
		addr += width
	}
	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) UpdateBreakpointsView() {
	var lines []string

	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) == 0 {
		lines = append(lines, "[yellow]No breakpoints set[white]")
	}
	for _, bp := range bps {
		status, color := "enabled", "green"
		if !bp.Enabled {
			status, color = "disabled", "red"
		}
		line := fmt.Sprintf("  %d: [%s]%s[white] 0x%04X", bp.ID, color, status, bp.Address)
		if sym := t.findSymbolForAddress(bp.Address); sym != "" {
			line += fmt.Sprintf(" <%s>", sym)
		}
		line += fmt.Sprintf(" (hits: %d)", bp.HitCount)
		lines = append(lines, line)
	}
	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) findSymbolForAddress(addr uint16) string {
	for sym, symAddr := range t.Debugger.Symbols {
		if symAddr == addr {
			return sym
		}
	}
	return ""
}

// Run shows the welcome banner and starts the tview event loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	t.WriteOutput("[green]Pep/9 Debugger[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F10 to step over, F11 to step\n")
	t.WriteOutput("Type 'help' for command list\n\n")
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop shuts down the tview application.
func (t *TUI) Stop() {
	t.App.Stop()
}
