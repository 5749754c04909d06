package pipeline

import (
	"context"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/radioforge/oskarflow/pkg/params"
)

// RunResult aggregates the outcome of one run plan.
type RunResult struct {
	Identity  params.RunIdentity
	OutputDir string
	Steps     []StepResult
	// Err is set when the run aborted before any step could execute, e.g.
	// a merge conflict or an unresolved path template placeholder.
	Err error
}

// Failed reports whether the run aborted or any of its steps failed.
func (r RunResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Summary collects the results of a whole batch, in expansion order.
type Summary struct {
	Runs []RunResult
}

// HasFailures reports whether any run in the batch failed or aborted.
func (s *Summary) HasFailures() bool {
	for _, r := range s.Runs {
		if r.Failed() {
			return true
		}
	}
	return false
}

// BatchRunner processes the expanded parameter space with a bounded worker
// pool. Run plans are independent: they share only the read-only defaults
// tree and write into disjoint per-run directories, so failures are
// isolated per run.
type BatchRunner struct {
	Planner      *Planner
	Orchestrator *Orchestrator
	MaxParallel  int
	Log          *logrus.Logger
}

// Run expands the space and executes every run. An empty axis is fatal
// before any run starts; per-run errors are recorded in the summary and do
// not stop sibling runs. On context cancellation, in-flight subprocesses
// are terminated and remaining steps are reported as skipped.
func (b *BatchRunner) Run(ctx context.Context, space *params.Space) (*Summary, error) {
	seq, err := space.Expand()
	if err != nil {
		return nil, err
	}
	ids := slices.Collect(seq)

	b.Log.WithFields(logrus.Fields{
		"runs":     len(ids),
		"parallel": b.workers(),
		"dry_run":  b.Orchestrator.DryRun,
	}).Info("starting pipeline batch")

	results := make([]RunResult, len(ids))
	sem := make(chan struct{}, b.workers())
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id params.RunIdentity) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = b.runOne(ctx, id)
		}(i, id)
	}
	wg.Wait()

	return &Summary{Runs: results}, nil
}

func (b *BatchRunner) workers() int {
	if b.MaxParallel < 1 {
		return 1
	}
	return b.MaxParallel
}

func (b *BatchRunner) runOne(ctx context.Context, id params.RunIdentity) RunResult {
	log := b.Log.WithField("run", id.String())

	plan, err := b.Planner.Plan(id)
	if err != nil {
		log.WithError(err).Error("run aborted: building run plan failed")
		return RunResult{Identity: id, Err: err}
	}

	// Skip directory creation once the batch has been aborted; the
	// orchestrator will report every step as skipped.
	if ctx.Err() == nil {
		if err := plan.Paths.Ensure(); err != nil {
			log.WithError(err).Error("run aborted: output directory not writable")
			return RunResult{Identity: id, OutputDir: plan.Paths.OutputDir, Err: err}
		}
	}

	steps := b.Orchestrator.Run(ctx, plan)
	return RunResult{Identity: id, OutputDir: plan.Paths.OutputDir, Steps: steps}
}
