package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/radioforge/oskarflow/pkg/config"
	"github.com/radioforge/oskarflow/pkg/exec"
)

// Orchestrator sequences the steps of one run plan. All run-wide flags are
// explicit fields, never ambient state, so two orchestrators with different
// settings can coexist in one process.
type Orchestrator struct {
	Executor    exec.CommandExecutor
	Log         *logrus.Logger
	Enabled     map[Step]bool
	DryRun      bool
	StepTimeout time.Duration
}

// NewOrchestrator wires an orchestrator from the run_settings section.
func NewOrchestrator(executor exec.CommandExecutor, log *logrus.Logger, rs config.RunSettings) *Orchestrator {
	return &Orchestrator{
		Executor:    executor,
		Log:         log,
		Enabled:     EnabledSteps(rs),
		DryRun:      rs.DryRun,
		StepTimeout: rs.StepTimeout.Std(),
	}
}

// Run executes the plan's steps in the fixed dependency order and returns
// one StepResult per step. A failed step halts the remaining steps of this
// plan; nothing already written is rolled back.
func (o *Orchestrator) Run(ctx context.Context, plan *RunPlan) []StepResult {
	runID := "run-" + uuid.New().String()[:8]
	log := o.Log.WithFields(logrus.Fields{
		"run_id": runID,
		"run":    plan.Identity.String(),
	})

	results := make([]StepResult, 0, len(Order))
	completed := make(map[Step]bool, len(Order))
	halted := false

	for _, step := range Order {
		res := o.runStep(ctx, log, plan, step, completed, halted)
		switch res.Status {
		case StatusFailed:
			halted = true
		case StatusSucceeded, StatusDryRun:
			completed[step] = true
		}
		results = append(results, res)
	}
	return results
}

func (o *Orchestrator) runStep(ctx context.Context, log *logrus.Entry, plan *RunPlan, step Step, completed map[Step]bool, halted bool) StepResult {
	res := StepResult{Step: step, Status: StatusSkipped}
	log = log.WithField("step", step)

	if !o.Enabled[step] {
		res.Diagnostic = "step disabled"
		log.Debug("step disabled, skipping")
		return res
	}
	if halted {
		res.Diagnostic = "halted by earlier step failure"
		log.Warn("skipping step after earlier failure")
		return res
	}
	if ctx.Err() != nil {
		res.Diagnostic = "pipeline aborted"
		log.Warn("skipping step, pipeline aborted")
		return res
	}
	if up, ok := upstream[step]; ok && !completed[up] {
		missing := &MissingUpstreamArtifactError{
			Step:     step,
			Upstream: up,
			Artifact: plan.Commands[step].Input,
		}
		res.Diagnostic = missing.Error()
		log.WithField("upstream", up).Warn("skipping step, upstream artifact missing")
		return res
	}

	cmd := plan.Commands[step]

	// The config file is written in dry runs too, so a dry run validates
	// the whole configuration construction path.
	if doc := plan.Configs[step]; doc != nil {
		if err := doc.WriteFile(cmd.ConfigPath); err != nil {
			res.Status = StatusFailed
			res.ExitCode = -1
			res.Diagnostic = err.Error()
			log.WithError(err).Error("writing tool config failed")
			return res
		}
		log.WithField("config", cmd.ConfigPath).Debug("wrote tool config")
	}

	if o.DryRun {
		res.Status = StatusDryRun
		res.Diagnostic = cmd.Line()
		log.WithField("command", cmd.Line()).Info("[dry run] command not executed")
		o.appendRunLog(log, plan, step, cmd, nil)
		return res
	}

	if _, err := o.Executor.LookPath(cmd.Exe); err != nil {
		res.Status = StatusFailed
		res.ExitCode = -1
		res.Diagnostic = fmt.Sprintf("executable %q not found: %v", cmd.Exe, err)
		log.WithError(err).Error("executable not found")
		return res
	}

	log.WithField("command", cmd.Line()).Info("executing step")
	res.Status = StatusRunning

	runCtx := ctx
	if o.StepTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.StepTimeout)
		defer cancel()
	}

	started := time.Now()
	result, err := o.Executor.Run(runCtx, plan.Paths.OutputDir, cmd.Exe, cmd.Args...)
	o.appendRunLog(log, plan, step, cmd, &result)

	res.ExitCode = result.ExitCode
	duration := time.Since(started)

	// A killed process surfaces as a plain non-zero exit, so the deadline
	// has to be checked independently of err.
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.Status = StatusFailed
		res.Diagnostic = fmt.Sprintf("%s terminated after step timeout %s", cmd.Exe, o.StepTimeout)
		log.WithField("duration", duration).Error("step killed by timeout")
		return res
	}

	if err != nil {
		res.Status = StatusFailed
		res.Diagnostic = err.Error()
		log.WithError(err).WithField("duration", duration).Error("step terminated abnormally")
		return res
	}

	if result.ExitCode != 0 {
		failure := &ExternalToolFailure{Step: step, Exe: cmd.Exe, ExitCode: result.ExitCode, Output: result.Output}
		res.Status = StatusFailed
		res.Diagnostic = failure.Error()
		log.WithFields(logrus.Fields{
			"exit_code": result.ExitCode,
			"duration":  duration,
		}).Error("step failed")
		return res
	}

	res.Status = StatusSucceeded
	log.WithField("duration", duration).Info("step succeeded")
	return res
}

func (o *Orchestrator) appendRunLog(log *logrus.Entry, plan *RunPlan, step Step, cmd Command, result *exec.Result) {
	entry := runLogEntry(step, plan.Paths.OutputDir, cmd, result, o.DryRun)
	if err := appendRunLog(plan.Paths.RunLog, entry); err != nil {
		log.WithError(err).Warn("could not append to run.log")
	}
}
