package pipeline

import (
	"fmt"
	"strings"
)

// ExternalToolFailure reports a non-zero exit or unexpected termination of
// an external tool. It halts the remaining steps of the affected run only.
type ExternalToolFailure struct {
	Step     Step
	Exe      string
	ExitCode int
	Output   string
}

func (e *ExternalToolFailure) Error() string {
	msg := fmt.Sprintf("%s: %s exited with code %d", e.Step, e.Exe, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + tail(out, 400)
	}
	return msg
}

// MissingUpstreamArtifactError reports that a step's required input was
// never produced because its upstream step was disabled or skipped. This is
// a structural consequence of the configuration, so the step is skipped
// rather than failed.
type MissingUpstreamArtifactError struct {
	Step     Step
	Upstream Step
	Artifact string
}

func (e *MissingUpstreamArtifactError) Error() string {
	return fmt.Sprintf("%s requires %s from upstream step %s, which did not run", e.Step, e.Artifact, e.Upstream)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
