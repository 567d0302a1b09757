package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MemoryTrace is the engine's full live state: the user and OS call
// stacks (only one of which is active at a time, switched by trap
// entry/RETTR), the heap model, and accumulated warnings that degrade
// the trace to "unreliable" without ever touching CPU execution.
type MemoryTrace struct {
	UserStack   *CallStack
	OSStack     *CallStack
	ActiveStack *CallStack
	Heap        *HeapTrace
	GlobalTrace map[string]TypedSlot

	Warnings []string
}

// NewMemoryTrace starts both stacks intact and empty, the heap
// allocator at heapBase, and the user stack active.
func NewMemoryTrace(heapBase uint16) *MemoryTrace {
	t := &MemoryTrace{
		UserStack:   NewCallStack(),
		OSStack:     NewCallStack(),
		Heap:        NewHeapTrace(heapBase),
		GlobalTrace: make(map[string]TypedSlot),
	}
	t.ActiveStack = t.UserStack
	return t
}

// Warn records a non-fatal trace inconsistency.
func (t *MemoryTrace) Warn(format string, args ...any) {
	t.Warnings = append(t.Warnings, fmt.Sprintf(format, args...))
}

// Intact reports whether both stacks remain reconcilable and no
// warnings were ever recorded.
func (t *MemoryTrace) Intact() bool {
	return t.UserStack.Intact && t.OSStack.Intact && len(t.Warnings) == 0
}

// String renders a human-readable frame dump, in the teacher's
// Flush-style layout: a header followed by one line per stack frame.
func (t *MemoryTrace) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stack Trace Report\n==================\n\n")
	fmt.Fprintf(&b, "User stack frames: %d  (intact: %v)\n", len(t.UserStack.Frames()), t.UserStack.Intact)
	for _, f := range t.UserStack.Frames() {
		fmt.Fprintf(&b, "  base=0x%04X size=%d orphaned=%v\n", f.BaseSP, f.Size(), f.Orphaned)
		for _, it := range f.Items {
			fmt.Fprintf(&b, "    %s: %s\n", it.Name, it.Type)
		}
	}
	fmt.Fprintf(&b, "OS stack frames: %d  (intact: %v)\n", len(t.OSStack.Frames()), t.OSStack.Intact)
	fmt.Fprintf(&b, "Heap pointer: 0x%04X, blocks: %d\n", t.Heap.Ptr, len(t.Heap.Blocks))
	if len(t.Warnings) > 0 {
		fmt.Fprintf(&b, "\nWarnings:\n")
		for _, w := range t.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}
	return b.String()
}

// Flush writes String's report to w.
func (t *MemoryTrace) Flush(w io.Writer) error {
	_, err := w.Write([]byte(t.String()))
	return err
}

// ExportJSON exports a summary of the trace state, for a debugger UI
// or test harness to consume.
func (t *MemoryTrace) ExportJSON(w io.Writer) error {
	data := map[string]any{
		"user_stack_frames": len(t.UserStack.Frames()),
		"user_intact":       t.UserStack.Intact,
		"os_stack_frames":   len(t.OSStack.Frames()),
		"os_intact":         t.OSStack.Intact,
		"heap_ptr":          t.Heap.Ptr,
		"heap_blocks":       len(t.Heap.Blocks),
		"warnings":          t.Warnings,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
