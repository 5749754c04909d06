// Package params holds the iteration axes of a simulation campaign and
// expands them into the full set of per-run parameter combinations.
package params

import (
	"fmt"
	"iter"
	"strings"
)

// Telescope is one entry of the telescope axis. Extra keys from the
// configuration document are collected in Params and passed through to the
// merge layers untouched.
type Telescope struct {
	Name                string         `yaml:"name"`
	OskarInputDirectory string         `yaml:"oskar_input_directory"`
	Params              map[string]any `yaml:",inline"`
}

// SkyModel is one entry of the sky-model axis.
type SkyModel struct {
	Filename string         `yaml:"filename"`
	Params   map[string]any `yaml:",inline"`
}

// NameNoExt returns the sky model filename without its extension, used as
// the {sky_name_no_ext} placeholder value. A leading dot is part of the
// name, not an extension separator, so a dotfile never yields an empty
// placeholder value.
func (s SkyModel) NameNoExt() string {
	if i := strings.LastIndex(s.Filename, "."); i > 0 {
		return s.Filename[:i]
	}
	return s.Filename
}

// PhaseCentre is one entry of the phase-centre axis.
type PhaseCentre struct {
	ID            string  `yaml:"id"`
	RADeg         float64 `yaml:"ra_deg"`
	DecDeg        float64 `yaml:"dec_deg"`
	StartTimeUTC  string  `yaml:"start_time_utc"`
	GainErrorStd  float64 `yaml:"gain_error_std"`
	PhaseErrorStd float64 `yaml:"phase_error_std"`
}

// RunIdentity is the unique combination of one value from each axis.
type RunIdentity struct {
	Telescope   Telescope
	Sky         SkyModel
	PhaseCentre PhaseCentre
}

// Equal reports whether two identities name the same run. Only the axis
// identifiers participate; parameter payloads do not.
func (id RunIdentity) Equal(other RunIdentity) bool {
	return id.Telescope.Name == other.Telescope.Name &&
		id.Sky.Filename == other.Sky.Filename &&
		id.PhaseCentre.ID == other.PhaseCentre.ID
}

// String renders a short human-readable label for logs and summaries.
func (id RunIdentity) String() string {
	return fmt.Sprintf("%s/%s/%s", id.Telescope.Name, id.Sky.NameNoExt(), id.PhaseCentre.ID)
}

// EmptyAxisError reports an axis with no entries. Expanding an empty axis
// would silently yield zero runs, which is almost always a misconfigured
// document rather than an intentional no-op.
type EmptyAxisError struct {
	Axis string
}

func (e *EmptyAxisError) Error() string {
	return fmt.Sprintf("iteration axis %q has no entries", e.Axis)
}

// Space holds the three iteration axes plus axis-level shared settings.
type Space struct {
	Telescopes       []Telescope
	SkyModels        []SkyModel
	PhaseCentres     []PhaseCentre
	SkyModelsBaseDir string
}

// Size returns the number of runs the space expands to.
func (s *Space) Size() int {
	return len(s.Telescopes) * len(s.SkyModels) * len(s.PhaseCentres)
}

// Expand returns a lazy, restartable sequence over the Cartesian product of
// the three axes. The nesting order is fixed: telescope outermost, then sky
// model, then phase centre. It returns an EmptyAxisError if any axis has no
// entries; expansion itself has no side effects.
func (s *Space) Expand() (iter.Seq[RunIdentity], error) {
	switch {
	case len(s.Telescopes) == 0:
		return nil, &EmptyAxisError{Axis: "telescope_configs"}
	case len(s.SkyModels) == 0:
		return nil, &EmptyAxisError{Axis: "sky_model_configs"}
	case len(s.PhaseCentres) == 0:
		return nil, &EmptyAxisError{Axis: "phase_centre_configs"}
	}

	return func(yield func(RunIdentity) bool) {
		for _, tel := range s.Telescopes {
			for _, sky := range s.SkyModels {
				for _, pc := range s.PhaseCentres {
					if !yield(RunIdentity{Telescope: tel, Sky: sky, PhaseCentre: pc}) {
						return
					}
				}
			}
		}
	}, nil
}
