// Package events fans out simulation lifecycle events to any number of
// consumers via plain Go channels: no session IDs, no wire framing, a
// host embeds this directly rather than going through a transport.
package events

// Kind identifies one of the event categories the CPU/Stack Trace
// Engine publishes while running.
type Kind string

const (
	KindSimulationStarted  Kind = "simulation-started"
	KindSimulationUpdate   Kind = "simulation-update"
	KindSimulationFinished Kind = "simulation-finished"
	KindInputRequested     Kind = "input-requested"
	KindOutputWritten      Kind = "output-written"
	KindHitBreakpoint      Kind = "hit-breakpoint"
)

// Event is one published occurrence. Address and Byte are meaningful
// only for the input/output event kinds; Message carries free-form
// detail for simulation-finished/hit-breakpoint.
type Event struct {
	Kind    Kind
	Address uint16
	Byte    byte
	Message string
}

func Started() Event                     { return Event{Kind: KindSimulationStarted} }
func Update() Event                      { return Event{Kind: KindSimulationUpdate} }
func Finished(message string) Event      { return Event{Kind: KindSimulationFinished, Message: message} }
func InputRequested(addr uint16) Event   { return Event{Kind: KindInputRequested, Address: addr} }
func OutputWritten(addr uint16, b byte) Event {
	return Event{Kind: KindOutputWritten, Address: addr, Byte: b}
}
func HitBreakpoint(addr uint16) Event { return Event{Kind: KindHitBreakpoint, Address: addr} }
