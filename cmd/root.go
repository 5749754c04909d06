package cmd

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	flagConfig  string
	flagVerbose bool
	flagLogFile string

	log = logrus.New()
)

// NewRootCommand builds the oskarflow CLI. Subcommands share the master
// document path and the logger configured by the persistent flags.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oskarflow",
		Short: "Drive OSKAR simulation pipelines over a parameter grid",
		Long: `oskarflow expands a master YAML document into a grid of simulation runs
(telescope x sky model x phase centre), writes the per-run OSKAR settings
files, and executes the pipeline steps (beam pattern, interferometer,
hyperdrive calibration, wsclean imaging) in each run's own directory.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "config.yaml", "Path to the master YAML document")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Also write logs to this file, with rotation")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewPlanCmd())
	rootCmd.AddCommand(NewVersionCmd())
	return rootCmd
}

func configureLogging() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if flagLogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   flagLogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		log.SetOutput(io.MultiWriter(os.Stderr, rotated))
	}
}
