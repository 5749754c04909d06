package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/radioforge/oskarflow/pkg/config"
	"github.com/radioforge/oskarflow/pkg/inifile"
	"github.com/radioforge/oskarflow/pkg/params"
	"github.com/radioforge/oskarflow/pkg/paths"
	"github.com/radioforge/oskarflow/pkg/settings"
)

// Sections shared by both OSKAR apps; everything else comes from the
// selected per-tool module tree.
var commonSections = []string{"General", "simulator", "observation", "telescope"}

var sectionOrder = map[Step][]string{
	StepBeamSim:   {"General", "simulator", "observation", "telescope", "beam_pattern"},
	StepInterfSim: {"General", "simulator", "observation", "telescope", "interferometer", "sky"},
}

var appNames = map[Step]string{
	StepBeamSim:   "oskar_sim_beam_pattern",
	StepInterfSim: "oskar_sim_interferometer",
}

// Command is one resolved external tool invocation. Args are relative to
// the run output directory, which is also the working directory.
type Command struct {
	Exe  string
	Args []string
	// ConfigPath is the INI file written before invocation; empty for
	// tools configured purely through arguments.
	ConfigPath string
	// Input names the upstream artifact this command consumes, if any.
	Input string
}

// Line renders the command for logs and dry-run output.
func (c Command) Line() string {
	if len(c.Args) == 0 {
		return c.Exe
	}
	return c.Exe + " " + strings.Join(c.Args, " ")
}

// RunPlan is the fully resolved, self-contained description of one run:
// identity, merged per-tool configs, resolved paths and command lines.
// Read-only after construction.
type RunPlan struct {
	Identity params.RunIdentity
	Paths    *paths.RunPaths
	Configs  map[Step]*inifile.Document
	Commands map[Step]Command
}

// Planner builds run plans from the master document. The loaded defaults
// tree is shared read-only state; every plan merges from fresh clones.
type Planner struct {
	cfg         *config.Config
	resolver    *paths.Resolver
	projectRoot string
}

// NewPlanner creates a planner rooted at the current working directory,
// which relative input paths in the document are resolved against.
func NewPlanner(cfg *config.Config) (*Planner, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining project root: %w", err)
	}
	return NewPlannerAt(cfg, root), nil
}

// NewPlannerAt creates a planner with an explicit project root.
func NewPlannerAt(cfg *config.Config, projectRoot string) *Planner {
	out := cfg.OutputConfig
	return &Planner{
		cfg:         cfg,
		projectRoot: projectRoot,
		resolver: &paths.Resolver{
			BaseDir:       out.BaseOutputDirectory,
			Template:      out.ImagesFolderPattern,
			BeamININame:   out.BeamINIFilename,
			InterfININame: out.InterfINIFilename,
			MSName:        out.InterfMSBaseFilename,
			SolutionsName: cfg.HyperdriveSettings.SolOutput,
		},
	}
}

// Plan resolves paths and merges per-tool configs for one run identity.
// It performs no file I/O: an UnresolvedPlaceholderError or
// ConflictTypeError surfaces before anything touches disk.
func (p *Planner) Plan(id params.RunIdentity) (*RunPlan, error) {
	errorsOn := p.cfg.RunSettings.IncludeTelescopeErrors

	runPaths, err := p.resolver.Resolve(id, errorsOn)
	if err != nil {
		return nil, err
	}

	plan := &RunPlan{
		Identity: id,
		Paths:    runPaths,
		Configs:  make(map[Step]*inifile.Document, 2),
		Commands: make(map[Step]Command, len(Order)),
	}

	for _, step := range []Step{StepBeamSim, StepInterfSim} {
		doc, err := p.buildOskarConfig(step, id, runPaths, errorsOn)
		if err != nil {
			return nil, fmt.Errorf("building %s config for run %s: %w", step, id, err)
		}
		plan.Configs[step] = doc
	}

	plan.Commands[StepBeamSim] = Command{
		Exe:        p.cfg.Executable(config.ExeBeamSim),
		Args:       []string{p.cfg.OutputConfig.BeamINIFilename},
		ConfigPath: runPaths.BeamINI,
	}
	plan.Commands[StepInterfSim] = Command{
		Exe:        p.cfg.Executable(config.ExeInterfSim),
		Args:       []string{p.cfg.OutputConfig.InterfINIFilename},
		ConfigPath: runPaths.InterfINI,
	}
	plan.Commands[StepHyperdrive] = p.hyperdriveCommand()
	plan.Commands[StepWSClean] = p.wscleanCommand()

	return plan, nil
}

// buildOskarConfig layers the OSKAR defaults into one effective document
// for the given app. The per-tool module tree is selected explicitly here
// and fed to the generic merge; axis overrides apply in telescope, sky,
// phase-centre order so phase-centre values win on collision.
func (p *Planner) buildOskarConfig(step Step, id params.RunIdentity, runPaths *paths.RunPaths, errorsOn bool) (*inifile.Document, error) {
	defaults := settings.Tree{}
	for _, name := range commonSections {
		if sub, ok := p.cfg.OskarDefaults[name].(map[string]any); ok {
			defaults[name] = sub
		}
	}

	var module settings.Tree
	switch step {
	case StepBeamSim:
		module = settings.SubTree(p.cfg.OskarDefaults, "beam_pattern_module")
	case StepInterfSim:
		module = settings.SubTree(p.cfg.OskarDefaults, "interferometer_module")
	default:
		return nil, fmt.Errorf("step %s has no ini config", step)
	}

	telOverride, err := p.telescopeOverride(id, runPaths)
	if err != nil {
		return nil, err
	}
	overrides := []settings.Tree{telOverride}
	if step == StepInterfSim {
		skyOverride, err := p.skyOverride(id, runPaths)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, skyOverride)
	}
	overrides = append(overrides, phaseCentreOverride(id.PhaseCentre, errorsOn))

	merged, err := settings.Merge(defaults, module, overrides, p.globalFlags(step))
	if err != nil {
		return nil, err
	}
	return inifile.FromTree(merged, sectionOrder[step]), nil
}

// telescopeOverride points the app at the telescope model, relative to the
// run directory because OSKAR resolves INI paths against its CWD.
func (p *Planner) telescopeOverride(id params.RunIdentity, runPaths *paths.RunPaths) (settings.Tree, error) {
	telAbs := filepath.Join(p.projectRoot, id.Telescope.OskarInputDirectory)
	rel, err := filepath.Rel(runPaths.OutputDir, telAbs)
	if err != nil {
		return nil, fmt.Errorf("relativizing telescope model path: %w", err)
	}
	return settings.Tree{
		"telescope": settings.Tree{"input_directory": rel},
	}, nil
}

func (p *Planner) skyOverride(id params.RunIdentity, runPaths *paths.RunPaths) (settings.Tree, error) {
	skyAbs := filepath.Join(p.projectRoot, p.cfg.IterationParameters.SkyModelsBaseDir, id.Sky.Filename)
	rel, err := filepath.Rel(runPaths.OutputDir, skyAbs)
	if err != nil {
		return nil, fmt.Errorf("relativizing sky model path: %w", err)
	}
	return settings.Tree{
		"sky": settings.Tree{
			"oskar_sky_model": settings.Tree{"file": rel},
		},
	}, nil
}

// phaseCentreOverride carries the pointing and, only when the master error
// flag is on, the per-phase-centre gain/phase error stds. With the flag off
// those keys are omitted entirely rather than merged as zeros.
func phaseCentreOverride(pc params.PhaseCentre, errorsOn bool) settings.Tree {
	override := settings.Tree{
		"observation": settings.Tree{
			"phase_centre_ra_deg":  pc.RADeg,
			"phase_centre_dec_deg": pc.DecDeg,
			"start_time_utc":       pc.StartTimeUTC,
		},
	}
	if errorsOn {
		override["telescope"] = settings.Tree{
			"aperture_array": settings.Tree{
				"array_pattern": settings.Tree{
					"element": settings.Tree{
						"x_gain_error_time":      pc.GainErrorStd,
						"y_gain_error_time":      pc.GainErrorStd,
						"x_phase_error_time_deg": pc.PhaseErrorStd,
						"y_phase_error_time_deg": pc.PhaseErrorStd,
					},
				},
			},
		}
	}
	return override
}

func (p *Planner) globalFlags(step Step) settings.Tree {
	general := settings.Tree{"app": appNames[step]}
	if settings.SubTree(p.cfg.OskarDefaults, "General")["version"] == nil {
		general["version"] = "unknown"
	}

	flags := settings.Tree{"General": general}
	switch step {
	case StepBeamSim:
		flags["beam_pattern"] = settings.Tree{"root_path": p.cfg.OutputConfig.BeamRootPathBase}
	case StepInterfSim:
		flags["interferometer"] = settings.Tree{"ms_filename": p.cfg.OutputConfig.InterfMSBaseFilename}
	}
	return flags
}

func (p *Planner) hyperdriveCommand() Command {
	hd := p.cfg.HyperdriveSettings
	args := []string{
		"-d", p.cfg.OutputConfig.InterfMSBaseFilename,
		"--source-list", hd.Srclist,
		"-o", hd.SolOutput,
	}
	if hd.VetoThreshold > 0 {
		args = append(args, "--veto-threshold", strconv.FormatFloat(hd.VetoThreshold, 'f', -1, 64))
	}
	return Command{
		Exe:   p.cfg.Executable(config.ExeHyperdrive),
		Args:  args,
		Input: p.cfg.OutputConfig.InterfMSBaseFilename,
	}
}

func (p *Planner) wscleanCommand() Command {
	ws := p.cfg.WSCleanSettings
	name := ws.Name
	if name == "" {
		name = "wsclean"
	}
	var args []string
	if ws.Size > 0 {
		size := strconv.Itoa(ws.Size)
		args = append(args, "-size", size, size)
	}
	if ws.Scale != "" {
		args = append(args, "-scale", ws.Scale)
	}
	if ws.Niter > 0 {
		args = append(args, "-niter", strconv.Itoa(ws.Niter))
	}
	args = append(args, "-name", name, p.cfg.OutputConfig.InterfMSBaseFilename)
	return Command{
		Exe:   p.cfg.Executable(config.ExeWSClean),
		Args:  args,
		Input: p.cfg.HyperdriveSettings.SolOutput,
	}
}
