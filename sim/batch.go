package sim

import (
	"fmt"

	"github.com/pep9vm/pep9core/asm"
	"github.com/pep9vm/pep9core/cpu"
	"github.com/pep9vm/pep9core/pepconfig"
)

// BatchResult is what RunBatch reports back to a CLI host: the bytes
// to write to charOut.txt, the step outcome, and (on StepError) the
// message to surface as a non-zero exit.
type BatchResult struct {
	Output []byte
	Result cpu.StepResult
	Err    error
}

// RunBatch parses object code from .pepo text, pre-buffers input (an
// empty slice is treated as a single newline, per the "empty file"
// rule), and runs to completion under cfg (nil for defaults). This is
// the direct implementation of the `pep9term run` contract.
func RunBatch(cfg *pepconfig.Config, objectText string, input []byte) (*BatchResult, error) {
	object, err := asm.ParseObject(objectText)
	if err != nil {
		return nil, fmt.Errorf("parsing object code: %w", err)
	}

	sess, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := sess.LoadUserProgram(object); err != nil {
		return nil, err
	}

	if len(input) == 0 {
		input = []byte("\n")
	}
	if err := sess.PreBufferInput(input); err != nil {
		return nil, fmt.Errorf("pre-buffering input: %w", err)
	}

	result, runErr := sess.Run()
	return &BatchResult{Output: sess.Output(), Result: result, Err: runErr}, nil
}

// ExitCode maps a BatchResult to the process exit status the CLI
// contract names: 0 on success, non-zero on any runtime failure
// (including the step bound being reached).
func (r *BatchResult) ExitCode() int {
	if r.Result == cpu.StepError {
		return 1
	}
	return 0
}
