package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/radioforge/oskarflow/pkg/pipeline"
)

func init() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// writeSummary renders the per-run outcome table printed after a batch.
func writeSummary(w io.Writer, summary *pipeline.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tDIRECTORY\tSTEPS\tRESULT")
	for _, run := range summary.Runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			run.Identity, run.OutputDir, stepCounts(run), runOutcome(run))
	}
	tw.Flush()
}

func stepCounts(run pipeline.RunResult) string {
	if run.Err != nil {
		return "-"
	}
	counts := make(map[pipeline.StepStatus]int)
	for _, s := range run.Steps {
		counts[s.Status]++
	}
	var parts []string
	for _, status := range []pipeline.StepStatus{
		pipeline.StatusSucceeded,
		pipeline.StatusDryRun,
		pipeline.StatusFailed,
		pipeline.StatusSkipped,
	} {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	return strings.Join(parts, ", ")
}

func runOutcome(run pipeline.RunResult) string {
	switch {
	case run.Err != nil:
		return color.RedString("ABORTED: %v", run.Err)
	case run.Failed():
		return color.RedString("FAILED")
	default:
		return color.GreenString("ok")
	}
}
