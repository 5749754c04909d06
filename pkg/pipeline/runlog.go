package pipeline

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/radioforge/oskarflow/pkg/exec"
)

// runLogEntry renders one timestamped section of a run's run.log, mirroring
// the log the tools' operators are used to reading: the command line, the
// exit code and the captured output.
func runLogEntry(step Step, dir string, cmd Command, result *exec.Result, dryRun bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s attempt at %s ---\n", step, time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Run Directory (CWD): %s\n", dir)
	fmt.Fprintf(&b, "Command: %s\n", cmd.Line())

	if dryRun {
		b.WriteString("[DRY RUN] Command not executed.\n\n")
		return b.String()
	}

	if result != nil {
		fmt.Fprintf(&b, "Exit Code: %d\n", result.ExitCode)
		b.WriteString("--- Output ---\n")
		if out := strings.TrimSpace(result.Output); out != "" {
			b.WriteString(out)
			b.WriteString("\n")
		} else {
			b.WriteString("<no output>\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// appendRunLog appends an entry to the run's log file, creating it on first
// use. Entries from consecutive steps accumulate in one file per run.
func appendRunLog(path, entry string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(entry); err != nil {
		return err
	}
	return nil
}
