package exec

import (
	"context"
	"errors"
	"os/exec"
)

// RealCommandExecutor implements CommandExecutor using the actual os/exec
// package. This is the production implementation that executes real system
// commands.
type RealCommandExecutor struct{}

// LookPath searches for an executable named file in the directories
// named by the PATH environment variable.
func (e *RealCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes the command in dir and captures its combined output. The
// process is killed if ctx is cancelled or times out.
func (e *RealCommandExecutor) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	res := Result{ExitCode: 0, Output: string(output)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Tool ran and failed; the exit code is the diagnostic.
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}
