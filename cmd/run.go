package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/radioforge/oskarflow/pkg/config"
	"github.com/radioforge/oskarflow/pkg/exec"
	"github.com/radioforge/oskarflow/pkg/pipeline"
)

var (
	runDryRun   bool
	runParallel int
)

func NewRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute every run in the parameter grid",
		Long: `Execute the full pipeline for every combination in the master document's
iteration parameters. Each run gets its own output directory; a failing
run never stops its siblings. With --dry-run the settings files are still
written and the command lines logged, but no external tool is launched.`,
		Args: cobra.NoArgs,
		RunE: runPipeline,
	}
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Write settings files and log commands without executing them")
	runCmd.Flags().IntVarP(&runParallel, "parallel", "p", 0, "Max concurrent runs (overrides run_settings.max_parallel_runs)")
	return runCmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	// Flags beat the document only when given explicitly, so that
	// dry_run: true in the document survives a plain `oskarflow run`.
	if cmd.Flags().Changed("dry-run") {
		cfg.RunSettings.DryRun = runDryRun
	}
	if cmd.Flags().Changed("parallel") {
		cfg.RunSettings.MaxParallelRuns = runParallel
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	planner, err := pipeline.NewPlanner(cfg)
	if err != nil {
		return err
	}
	runner := &pipeline.BatchRunner{
		Planner:      planner,
		Orchestrator: pipeline.NewOrchestrator(&exec.RealCommandExecutor{}, log, cfg.RunSettings),
		MaxParallel:  cfg.RunSettings.MaxParallelRuns,
		Log:          log,
	}

	summary, err := runner.Run(ctx, cfg.Space())
	if err != nil {
		return err
	}

	writeSummary(cmd.OutOrStdout(), summary)

	if n := failedRuns(summary); n > 0 {
		return fmt.Errorf("%d of %d runs failed", n, len(summary.Runs))
	}
	return nil
}

func failedRuns(summary *pipeline.Summary) int {
	n := 0
	for _, run := range summary.Runs {
		if run.Failed() {
			n++
		}
	}
	return n
}
