// Package pipeline builds fully-resolved run plans from the parameter-space
// expansion and sequences external tool invocations per run: fixed
// dependency order, conditional skipping, dry-run, and failure isolation at
// run granularity.
package pipeline

import "github.com/radioforge/oskarflow/pkg/config"

// Step is one stage of the pipeline, corresponding to one external tool.
type Step string

const (
	StepBeamSim    Step = "beam_sim"
	StepInterfSim  Step = "interf_sim"
	StepHyperdrive Step = "hyperdrive"
	StepWSClean    Step = "wsclean"
)

// Order is the fixed execution order. The two OSKAR simulations are
// independent of each other; hyperdrive calibrates the interferometer
// output and wsclean images the calibrated output.
var Order = []Step{StepBeamSim, StepInterfSim, StepHyperdrive, StepWSClean}

// upstream maps a step to the step whose output it consumes.
var upstream = map[Step]Step{
	StepHyperdrive: StepInterfSim,
	StepWSClean:    StepHyperdrive,
}

// StepStatus is the terminal (or transient) state of a step for one run.
// Transitions are linear: pending -> skipped | dry-run | running, and
// running -> succeeded | failed.
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusSkipped   StepStatus = "skipped"
	StatusDryRun    StepStatus = "dry-run"
	StatusRunning   StepStatus = "running"
	StatusSucceeded StepStatus = "succeeded"
	StatusFailed    StepStatus = "failed"
)

// StepResult is the outcome of one pipeline step for one run plan.
type StepResult struct {
	Step       Step
	Status     StepStatus
	ExitCode   int
	Diagnostic string
}

// EnabledSteps translates the run_settings switches into the per-step
// enable set consumed by the orchestrator.
func EnabledSteps(rs config.RunSettings) map[Step]bool {
	return map[Step]bool{
		StepBeamSim:    rs.RunBeamSim,
		StepInterfSim:  rs.RunInterfSim,
		StepHyperdrive: rs.RunHyperdrive,
		StepWSClean:    rs.RunWSClean,
	}
}
