package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioforge/oskarflow/pkg/config"
	"github.com/radioforge/oskarflow/pkg/exec"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testPlan(t *testing.T, cfg *config.Config, root string) *RunPlan {
	t.Helper()
	plan, err := NewPlannerAt(cfg, root).Plan(firstIdentity(t, cfg))
	require.NoError(t, err)
	require.NoError(t, plan.Paths.Ensure())
	return plan
}

func statuses(results []StepResult) map[Step]StepStatus {
	out := make(map[Step]StepStatus, len(results))
	for _, r := range results {
		out[r.Step] = r.Status
	}
	return out
}

func TestOrchestratorRun_AllStepsSucceed(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "out"))
	plan := testPlan(t, cfg, root)

	mock := &exec.MockCommandExecutor{}
	orch := NewOrchestrator(mock, quietLogger(), cfg.RunSettings)

	results := orch.Run(context.Background(), plan)
	require.Len(t, results, 4)

	for _, r := range results {
		assert.Equal(t, StatusSucceeded, r.Status, "step %s", r.Step)
		assert.Equal(t, 0, r.ExitCode, "step %s", r.Step)
	}

	// Fixed order, one invocation per step, all in the run directory.
	require.Equal(t, 4, mock.CallCount())
	assert.Equal(t, "oskar_sim_beam_pattern", mock.Calls[0].Name)
	assert.Equal(t, "oskar_sim_interferometer", mock.Calls[1].Name)
	assert.Equal(t, "hyperdrive", mock.Calls[2].Name)
	assert.Equal(t, "wsclean", mock.Calls[3].Name)
	for _, call := range mock.Calls {
		assert.Equal(t, plan.Paths.OutputDir, call.Dir)
	}

	// Config files were written for both OSKAR steps.
	assert.FileExists(t, plan.Paths.BeamINI)
	assert.FileExists(t, plan.Paths.InterfINI)
	assert.FileExists(t, plan.Paths.RunLog)
}

func TestOrchestratorRun_DryRun(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "out"))
	cfg.RunSettings.DryRun = true
	plan := testPlan(t, cfg, root)

	mock := &exec.MockCommandExecutor{}
	orch := NewOrchestrator(mock, quietLogger(), cfg.RunSettings)

	results := orch.Run(context.Background(), plan)
	for _, r := range results {
		assert.Equal(t, StatusDryRun, r.Status, "step %s", r.Step)
	}

	// No external process is ever launched, but the configs exist so the
	// dry run validated their construction.
	assert.Equal(t, 0, mock.CallCount())
	assert.FileExists(t, plan.Paths.BeamINI)
	assert.FileExists(t, plan.Paths.InterfINI)

	firstBeam, err := os.ReadFile(plan.Paths.BeamINI)
	require.NoError(t, err)

	// A second dry run regenerates identical files.
	orch.Run(context.Background(), plan)
	secondBeam, err := os.ReadFile(plan.Paths.BeamINI)
	require.NoError(t, err)
	assert.Equal(t, firstBeam, secondBeam)
	assert.Equal(t, 0, mock.CallCount())
}

func TestOrchestratorRun_DisabledStep(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "out"))
	cfg.RunSettings.RunBeamSim = false
	plan := testPlan(t, cfg, root)

	mock := &exec.MockCommandExecutor{}
	orch := NewOrchestrator(mock, quietLogger(), cfg.RunSettings)

	got := statuses(orch.Run(context.Background(), plan))
	assert.Equal(t, StatusSkipped, got[StepBeamSim])
	assert.Equal(t, StatusSucceeded, got[StepInterfSim])
	assert.Equal(t, StatusSucceeded, got[StepHyperdrive])
	assert.Equal(t, StatusSucceeded, got[StepWSClean])
	assert.Equal(t, 3, mock.CallCount())
}

func TestOrchestratorRun_UpstreamSkipPropagates(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "out"))
	cfg.RunSettings.RunInterfSim = false
	plan := testPlan(t, cfg, root)

	mock := &exec.MockCommandExecutor{}
	orch := NewOrchestrator(mock, quietLogger(), cfg.RunSettings)

	results := orch.Run(context.Background(), plan)
	got := statuses(results)

	// hyperdrive is enabled but its input was never produced, so it is
	// skipped, not failed; wsclean follows suit.
	assert.Equal(t, StatusSucceeded, got[StepBeamSim])
	assert.Equal(t, StatusSkipped, got[StepInterfSim])
	assert.Equal(t, StatusSkipped, got[StepHyperdrive])
	assert.Equal(t, StatusSkipped, got[StepWSClean])

	for _, r := range results {
		if r.Step == StepHyperdrive {
			assert.Contains(t, r.Diagnostic, "vis.ms")
			assert.Contains(t, r.Diagnostic, string(StepInterfSim))
		}
	}
	assert.Equal(t, 1, mock.CallCount())
}

func TestOrchestratorRun_FailureHaltsRemainingSteps(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "out"))
	plan := testPlan(t, cfg, root)

	mock := &exec.MockCommandExecutor{
		RunFunc: func(ctx context.Context, dir, name string, args ...string) (exec.Result, error) {
			if name == "oskar_sim_interferometer" {
				return exec.Result{ExitCode: 2, Output: "CUDA out of memory"}, nil
			}
			return exec.Result{ExitCode: 0}, nil
		},
	}
	orch := NewOrchestrator(mock, quietLogger(), cfg.RunSettings)

	results := orch.Run(context.Background(), plan)
	got := statuses(results)

	assert.Equal(t, StatusSucceeded, got[StepBeamSim])
	assert.Equal(t, StatusFailed, got[StepInterfSim])
	assert.Equal(t, StatusSkipped, got[StepHyperdrive])
	assert.Equal(t, StatusSkipped, got[StepWSClean])

	for _, r := range results {
		switch r.Step {
		case StepInterfSim:
			assert.Equal(t, 2, r.ExitCode)
			assert.Contains(t, r.Diagnostic, "CUDA out of memory")
		case StepHyperdrive, StepWSClean:
			assert.Contains(t, r.Diagnostic, "halted")
		}
	}

	// Only beam and interf were launched.
	assert.Equal(t, 2, mock.CallCount())
}

func TestOrchestratorRun_StepTimeout(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "out"))
	cfg.RunSettings.StepTimeout = config.Duration(20 * time.Millisecond)
	plan := testPlan(t, cfg, root)

	mock := &exec.MockCommandExecutor{
		RunFunc: func(ctx context.Context, dir, name string, args ...string) (exec.Result, error) {
			if name == "oskar_sim_interferometer" {
				// A killed process reports a bare non-zero exit, not an error.
				<-ctx.Done()
				return exec.Result{ExitCode: -1}, nil
			}
			return exec.Result{ExitCode: 0}, nil
		},
	}
	orch := NewOrchestrator(mock, quietLogger(), cfg.RunSettings)

	results := orch.Run(context.Background(), plan)
	got := statuses(results)

	assert.Equal(t, StatusSucceeded, got[StepBeamSim])
	assert.Equal(t, StatusFailed, got[StepInterfSim])
	assert.Equal(t, StatusSkipped, got[StepHyperdrive])
	assert.Equal(t, StatusSkipped, got[StepWSClean])

	for _, r := range results {
		if r.Step == StepInterfSim {
			assert.Contains(t, r.Diagnostic, "step timeout")
			assert.Contains(t, r.Diagnostic, "20ms")
		}
	}
}

func TestOrchestratorRun_ExecutableNotFound(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "out"))
	cfg.RunSettings.RunInterfSim = false
	cfg.RunSettings.RunHyperdrive = false
	cfg.RunSettings.RunWSClean = false
	plan := testPlan(t, cfg, root)

	mock := &exec.MockCommandExecutor{
		LookPathFunc: func(file string) (string, error) {
			return "", os.ErrNotExist
		},
	}
	orch := NewOrchestrator(mock, quietLogger(), cfg.RunSettings)

	got := orch.Run(context.Background(), plan)
	require.Len(t, got, 4)
	beam := got[0]
	assert.Equal(t, StatusFailed, beam.Status)
	assert.Equal(t, -1, beam.ExitCode)
	assert.Contains(t, beam.Diagnostic, "not found")
	assert.Equal(t, 0, mock.CallCount())
}

func TestOrchestratorRun_AbortedContext(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "out"))
	plan := testPlan(t, cfg, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &exec.MockCommandExecutor{}
	orch := NewOrchestrator(mock, quietLogger(), cfg.RunSettings)

	for _, r := range orch.Run(ctx, plan) {
		assert.Equal(t, StatusSkipped, r.Status, "step %s", r.Step)
		assert.Equal(t, "pipeline aborted", r.Diagnostic)
	}
	assert.Equal(t, 0, mock.CallCount())
}
