// Package exec abstracts external tool invocation so the pipeline can be
// exercised in tests without spawning simulator binaries.
package exec

import "context"

// Result captures the outcome of one external tool invocation.
type Result struct {
	// ExitCode is the tool's exit status, or -1 when the process could not
	// be started or was terminated before exiting normally.
	ExitCode int
	// Output holds the combined stdout and stderr of the process.
	Output string
}

// CommandExecutor defines an interface for running external commands.
// This abstraction allows for easier testing by providing a mockable interface.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the directories
	// named by the PATH environment variable.
	LookPath(file string) (string, error)

	// Run executes the named tool with the given arguments, using dir as
	// the working directory. It blocks until the process exits or ctx is
	// done. A non-zero exit status is reported through Result, not err;
	// err is reserved for failures to launch or terminate the process.
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}
