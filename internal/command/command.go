// Package command runs external diagnostic tools and captures their
// output. It is the only place gpumon starts child processes; everything
// above it talks to the Runner interface so tests can substitute canned
// output.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Output is what a finished command produced. Stdout is returned even
// when the command exits non-zero, since some tools print partial data on
// their failure paths.
type Output struct {
	Stdout    string
	Succeeded bool
}

// Runner executes one external command and waits for it to finish.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecutionError reports that a command could not be run to completion:
// the executable was missing or not permitted, or the invocation timed
// out and was killed.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("run %s: %v", e.Name, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

const waitDelay = 500 * time.Millisecond

// ExecRunner runs commands as child processes with a per-invocation
// timeout. A zero Timeout means no limit.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner returns an ExecRunner that kills any command running
// longer than timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run starts name with args, waits for it, and returns its stdout.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	// Grandchildren can hold the stdout pipe open after the kill.
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Output{Stdout: stdout.String()}, &ExecutionError{Name: name, Err: ctxErr}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Output{Stdout: stdout.String(), Succeeded: false}, nil
		}
		return Output{}, &ExecutionError{Name: name, Err: err}
	}
	return Output{Stdout: stdout.String(), Succeeded: true}, nil
}

// Line is a command name plus its arguments, as stored in configuration.
type Line []string

// Name returns the executable, or "" for an empty line.
func (l Line) Name() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// Args returns everything after the executable.
func (l Line) Args() []string {
	if len(l) < 2 {
		return nil
	}
	return l[1:]
}

func (l Line) String() string {
	return strings.Join(l, " ")
}

// RunLine runs a configured command line through r. An empty line is an
// ExecutionError rather than a panic.
func RunLine(ctx context.Context, r Runner, l Line) (Output, error) {
	if l.Name() == "" {
		return Output{}, &ExecutionError{Name: "<empty>", Err: errors.New("no command configured")}
	}
	return r.Run(ctx, l.Name(), l.Args()...)
}
