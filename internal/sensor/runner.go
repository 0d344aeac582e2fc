package sensor

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Runner executes an external command and returns its captured output.
// It exists so tests can replace the real subprocess with a scripted result.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// pipeWaitDelay bounds how long Wait may keep collecting output after the
// deadline kill. The client may spawn a helper process that inherits the
// output pipes and outlives it; without the delay Wait blocks until the
// last pipe writer exits, not until the deadline.
const pipeWaitDelay = 2 * time.Second

// execRunner runs commands through os/exec, honoring context cancellation.
type execRunner struct{}

// Run executes the command and captures both output streams.
// A context deadline kills the process; the ctx error is surfaced so the
// caller can tell a timeout from a client failure.
func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = pipeWaitDelay

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}

	return stdout.String(), stderr.String(), err
}
