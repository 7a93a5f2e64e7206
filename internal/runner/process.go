package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ErrTimeout is returned when a process outlives its deadline and is killed.
var ErrTimeout = errors.New("process deadline exceeded")

// Command is a single external process invocation
type Command struct {
	Path    string
	Args    []string
	Env     []string // appended to the inherited environment
	Timeout time.Duration
}

// Result is what a finished process left behind. A non-zero ExitCode is not
// an error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// ProcessRunner runs a command to completion or until its deadline
type ProcessRunner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the process
	// is killed; forked children can otherwise hold them open.
	WaitDelay time.Duration
}

// NewExecRunner creates a runner with a one second wait delay
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: time.Second}
}

// Run executes the command, capturing stdout and stderr
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	execCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, c.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(execCtx, c.Path, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.WaitDelay = r.WaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	res := Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		return res, ErrTimeout
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("failed to run %s: %w", c.Path, err)
	}

	return res, nil
}
