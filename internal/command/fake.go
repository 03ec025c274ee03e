package command

import (
	"context"
	"errors"
	"os/exec"
	"sync"
)

// Response is a canned result for one command name in a Fake.
type Response struct {
	Output Output
	Err    error
}

// Fake is a Runner that returns canned responses keyed by command name
// and records how often each command was invoked. Commands without a
// response fail with an ExecutionError wrapping exec.ErrNotFound, the
// same as a missing binary.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     map[string]int
	args      map[string][][]string
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		responses: make(map[string]Response),
		calls:     make(map[string]int),
		args:      make(map[string][][]string),
	}
}

// Succeed registers stdout for name with a zero exit status.
func (f *Fake) Succeed(name, stdout string) *Fake {
	return f.Respond(name, Response{Output: Output{Stdout: stdout, Succeeded: true}})
}

// Exit registers stdout for name with a non-zero exit status.
func (f *Fake) Exit(name, stdout string) *Fake {
	return f.Respond(name, Response{Output: Output{Stdout: stdout}})
}

// Fail registers a launch failure for name.
func (f *Fake) Fail(name string, err error) *Fake {
	return f.Respond(name, Response{Err: &ExecutionError{Name: name, Err: err}})
}

// Respond registers an arbitrary response for name.
func (f *Fake) Respond(name string, r Response) *Fake {
	f.mu.Lock()
	f.responses[name] = r
	f.mu.Unlock()
	return f
}

// Run implements Runner.
func (f *Fake) Run(ctx context.Context, name string, args ...string) (Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[name]++
	f.args[name] = append(f.args[name], append([]string(nil), args...))

	r, ok := f.responses[name]
	if !ok {
		return Output{}, &ExecutionError{Name: name, Err: exec.ErrNotFound}
	}
	if err := ctx.Err(); err != nil {
		return Output{}, &ExecutionError{Name: name, Err: err}
	}
	return r.Output, r.Err
}

// Calls returns how many times name was run.
func (f *Fake) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// TotalCalls returns the number of invocations across all commands.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// LastArgs returns the arguments of the most recent call to name.
func (f *Fake) LastArgs(name string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	history := f.args[name]
	if len(history) == 0 {
		return nil, errors.New("no calls recorded for " + name)
	}
	return history[len(history)-1], nil
}
