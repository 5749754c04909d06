package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/radioforge/oskarflow/pkg/config"
	"github.com/radioforge/oskarflow/pkg/pipeline"
)

func NewPlanCmd() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the expanded run grid without executing anything",
		Long: `Expand the master document's iteration parameters, resolve every run's
output directory and command lines, and print the grid. Nothing is
written to disk; a merge conflict or unresolved template placeholder is
reported here before any real run is attempted.`,
		Args: cobra.NoArgs,
		RunE: runPlanPreview,
	}
	return planCmd
}

func runPlanPreview(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	planner, err := pipeline.NewPlanner(cfg)
	if err != nil {
		return err
	}

	seq, err := cfg.Space().Expand()
	if err != nil {
		return err
	}

	enabled := pipeline.EnabledSteps(cfg.RunSettings)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tDIRECTORY\tCOMMANDS")

	count := 0
	for id := range seq {
		plan, err := planner.Plan(id)
		if err != nil {
			return err
		}
		count++
		first := true
		for _, step := range pipeline.Order {
			if !enabled[step] {
				continue
			}
			if first {
				fmt.Fprintf(w, "%s\t%s\t%s\n", id, plan.Paths.OutputDir, plan.Commands[step].Line())
				first = false
				continue
			}
			fmt.Fprintf(w, "\t\t%s\n", plan.Commands[step].Line())
		}
		if first {
			fmt.Fprintf(w, "%s\t%s\t(all steps disabled)\n", id, plan.Paths.OutputDir)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d runs\n", count)
	return nil
}
