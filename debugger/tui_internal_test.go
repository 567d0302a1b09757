package debugger

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pep9vm/pep9core/sim"
)

func newTestDebugger(t *testing.T) *Debugger {
	t.Helper()
	sess, err := sim.NewSession(nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := sess.LoadUserProgram([]byte{0}); err != nil { // STOP
		t.Fatalf("LoadUserProgram: %v", err)
	}
	return NewDebugger(sess)
}

// TestExecuteCommandAsync exercises that executeCommand completes
// promptly when driven from a goroutine, the way the real event loop
// drives it.
func TestExecuteCommandAsync(t *testing.T) {
	dbg := newTestDebugger(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewTUIWithScreen(dbg, screen)

	done := make(chan bool, 1)
	go func() {
		tui.executeCommand("help")
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 2):
		t.Fatal("executeCommand blocked for more than 2 seconds")
	}
}

// TestHandleCommandAsync runs handleCommand, which executes the command
// synchronously, on its own goroutine and checks that a quick command
// such as help completes within 100ms.
func TestHandleCommandAsync(t *testing.T) {
	dbg := newTestDebugger(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewTUIWithScreen(dbg, screen)
	tui.CommandInput.SetText("help")

	done := make(chan bool, 1)
	go func() {
		tui.handleCommand(tcell.KeyEnter)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(time.Millisecond * 100):
		t.Fatal("handleCommand blocked for more than 100ms")
	}
}
