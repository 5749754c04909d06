// Package config models the master YAML document that drives a simulation
// campaign: run switches, tool executables, output layout, iteration axes,
// and the per-tool default settings trees.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/radioforge/oskarflow/pkg/params"
	"github.com/radioforge/oskarflow/pkg/settings"
)

// Duration wraps time.Duration so the document can use strings like "30m".
type Duration time.Duration

// UnmarshalYAML parses a duration string; an empty value means no limit.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RunSettings holds the run-wide switches. These are passed explicitly into
// the planner and orchestrator so two pipelines with different flags can
// coexist in one process.
type RunSettings struct {
	RunBeamSim             bool     `yaml:"run_beam_sim"`
	RunInterfSim           bool     `yaml:"run_interf_sim"`
	RunHyperdrive          bool     `yaml:"run_hyperdrive"`
	RunWSClean             bool     `yaml:"run_wsclean"`
	DryRun                 bool     `yaml:"dry_run"`
	IncludeTelescopeErrors bool     `yaml:"include_telescope_errors"`
	MaxParallelRuns        int      `yaml:"max_parallel_runs"`
	StepTimeout            Duration `yaml:"step_timeout"`
}

// OutputConfig describes where runs land on disk and how files are named.
type OutputConfig struct {
	BaseOutputDirectory  string `yaml:"base_output_directory"`
	ImagesFolderPattern  string `yaml:"images_folder_pattern"`
	BeamINIFilename      string `yaml:"beam_ini_filename"`
	InterfINIFilename    string `yaml:"interf_ini_filename"`
	BeamRootPathBase     string `yaml:"beam_root_path_base"`
	InterfMSBaseFilename string `yaml:"interf_ms_base_filename"`
}

// IterationParameters holds the three axis definitions.
type IterationParameters struct {
	TelescopeConfigs   []params.Telescope   `yaml:"telescope_configs"`
	SkyModelConfigs    []params.SkyModel    `yaml:"sky_model_configs"`
	PhaseCentreConfigs []params.PhaseCentre `yaml:"phase_centre_configs"`
	SkyModelsBaseDir   string               `yaml:"sky_models_base_dir"`
}

// HyperdriveSettings are fixed arguments passed verbatim to the calibrator.
type HyperdriveSettings struct {
	Srclist       string  `yaml:"srclist"`
	SolOutput     string  `yaml:"sol_output"`
	VetoThreshold float64 `yaml:"veto_threshold"`
}

// WSCleanSettings are fixed arguments passed verbatim to the imager.
type WSCleanSettings struct {
	Size  int    `yaml:"size"`
	Scale string `yaml:"scale"`
	Niter int    `yaml:"niter"`
	Name  string `yaml:"name"`
}

// Config is the full master document.
type Config struct {
	RunSettings         RunSettings         `yaml:"run_settings"`
	Executables         map[string]string   `yaml:"executables"`
	OutputConfig        OutputConfig        `yaml:"output_config"`
	IterationParameters IterationParameters `yaml:"iteration_parameters"`
	OskarDefaults       settings.Tree       `yaml:"oskar_ini_defaults"`
	HyperdriveSettings  HyperdriveSettings  `yaml:"hyperdrive_settings"`
	WSCleanSettings     WSCleanSettings     `yaml:"wsclean_settings"`
}

// Logical tool names used as keys in the executables section.
const (
	ExeBeamSim    = "oskar_sim_beam_pattern"
	ExeInterfSim  = "oskar_sim_interferometer"
	ExeHyperdrive = "hyperdrive"
	ExeWSClean    = "wsclean"
)

// Executable returns the configured command for a logical tool name,
// falling back to the tool name itself so PATH lookup still applies.
func (c *Config) Executable(name string) string {
	if exe, ok := c.Executables[name]; ok && exe != "" {
		return exe
	}
	return name
}

// Space builds the parameter space from the iteration section.
func (c *Config) Space() *params.Space {
	ip := c.IterationParameters
	return &params.Space{
		Telescopes:       ip.TelescopeConfigs,
		SkyModels:        ip.SkyModelConfigs,
		PhaseCentres:     ip.PhaseCentreConfigs,
		SkyModelsBaseDir: ip.SkyModelsBaseDir,
	}
}

func (c *Config) applyDefaults() {
	out := &c.OutputConfig
	if out.BaseOutputDirectory == "" {
		out.BaseOutputDirectory = "simulation_outputs"
	}
	if out.ImagesFolderPattern == "" {
		out.ImagesFolderPattern = "images_{sky_name_no_ext}_{tel_name}{error_suffix}_{pc_id}"
	}
	if out.BeamINIFilename == "" {
		out.BeamINIFilename = "beam.ini"
	}
	if out.InterfINIFilename == "" {
		out.InterfINIFilename = "interf.ini"
	}
	if out.BeamRootPathBase == "" {
		out.BeamRootPathBase = "beam_output"
	}
	if out.InterfMSBaseFilename == "" {
		out.InterfMSBaseFilename = "vis.ms"
	}
	if c.IterationParameters.SkyModelsBaseDir == "" {
		c.IterationParameters.SkyModelsBaseDir = "sky_models"
	}
	if c.HyperdriveSettings.SolOutput == "" {
		c.HyperdriveSettings.SolOutput = "hyperdrive_solutions.fits"
	}
	if c.RunSettings.MaxParallelRuns <= 0 {
		c.RunSettings.MaxParallelRuns = 1
	}
	if c.OskarDefaults == nil {
		c.OskarDefaults = settings.Tree{}
	}
}
