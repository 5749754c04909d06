package exec

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation passed to the mock executor.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call as a shell-like command line.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// MockCommandExecutor is a mock implementation of CommandExecutor for
// testing. It records all commands that would be executed without actually
// running them. Safe for concurrent use, since independent runs may invoke
// tools from parallel workers.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Calls records all commands that were executed.
	Calls []Call

	// LookPathFunc allows custom behavior for LookPath in tests.
	LookPathFunc func(file string) (string, error)

	// RunFunc allows custom behavior for Run in tests.
	RunFunc func(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// LookPath implements the CommandExecutor interface for testing.
func (m *MockCommandExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	// By default, assume commands exist.
	return "/path/to/" + file, nil
}

// Run implements the CommandExecutor interface for testing. It records the
// command that would be executed.
func (m *MockCommandExecutor) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, Call{Dir: dir, Name: name, Args: args})
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, dir, name, args...)
	}
	return Result{ExitCode: 0}, nil
}

// CallCount returns the number of recorded invocations.
func (m *MockCommandExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
