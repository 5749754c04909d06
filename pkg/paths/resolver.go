// Package paths derives all per-run output locations from a run identity
// and the user-supplied directory-name template.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/radioforge/oskarflow/pkg/params"
)

// ErrorSuffix values substituted for the {error_suffix} placeholder.
const (
	ErrorSuffixOn  = "_errors_on"
	ErrorSuffixOff = "_errors_off"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// UnresolvedPlaceholderError reports a template placeholder outside the
// fixed recognized set.
type UnresolvedPlaceholderError struct {
	Placeholder string
	Template    string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("template %q references unknown placeholder {%s}", e.Template, e.Placeholder)
}

// Resolver derives run output paths. All fields come from the output_config
// section of the master document.
type Resolver struct {
	// BaseDir is the base output directory all run directories live under.
	BaseDir string
	// Template names the per-run directory. Recognized placeholders:
	// {sky_name_no_ext}, {tel_name}, {error_suffix}, {pc_id}.
	Template string

	BeamININame   string
	InterfININame string
	MSName        string
	SolutionsName string
}

// RunPaths holds every resolved location for one run. All paths are
// absolute except the basenames the external tools receive relative to the
// run directory.
type RunPaths struct {
	OutputDir      string
	BeamINI        string
	InterfINI      string
	MeasurementSet string
	Solutions      string
	RunLog         string
}

// Ensure creates the run output directory. Creating an already-existing
// directory is not an error.
func (p *RunPaths) Ensure() error {
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating run output directory %s: %w", p.OutputDir, err)
	}
	return nil
}

// Resolve derives the full path set for one run. Identical inputs resolve
// to byte-identical paths; no file I/O happens here.
func (r *Resolver) Resolve(id params.RunIdentity, errorsOn bool) (*RunPaths, error) {
	suffix := ErrorSuffixOff
	if errorsOn {
		suffix = ErrorSuffixOn
	}

	dirName, err := expandTemplate(r.Template, map[string]string{
		"sky_name_no_ext": id.Sky.NameNoExt(),
		"tel_name":        id.Telescope.Name,
		"error_suffix":    suffix,
		"pc_id":           id.PhaseCentre.ID,
	})
	if err != nil {
		return nil, err
	}

	outputDir, err := filepath.Abs(filepath.Join(r.BaseDir, dirName))
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	return &RunPaths{
		OutputDir:      outputDir,
		BeamINI:        filepath.Join(outputDir, r.BeamININame),
		InterfINI:      filepath.Join(outputDir, r.InterfININame),
		MeasurementSet: filepath.Join(outputDir, r.MSName),
		Solutions:      filepath.Join(outputDir, r.SolutionsName),
		RunLog:         filepath.Join(outputDir, "run.log"),
	}, nil
}

func expandTemplate(template string, values map[string]string) (string, error) {
	var unknown string
	out := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := values[name]
		if !ok {
			if unknown == "" {
				unknown = name
			}
			return match
		}
		return v
	})
	if unknown != "" {
		return "", &UnresolvedPlaceholderError{Placeholder: unknown, Template: template}
	}
	return out, nil
}
