package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestDocument(t *testing.T, dir string) string {
	t.Helper()
	doc := `run_settings:
  run_beam_sim: true
  run_interf_sim: true
  run_hyperdrive: true
  run_wsclean: true
  max_parallel_runs: 2
output_config:
  base_output_directory: ` + filepath.Join(dir, "outputs") + `
iteration_parameters:
  sky_models_base_dir: sky_models
  telescope_configs:
    - name: aa2
      oskar_input_directory: telescope_models/aa2
  sky_model_configs:
    - filename: gleam.osm
  phase_centre_configs:
    - id: eor0
      ra_deg: 0.0
      dec_deg: -27.0
      start_time_utc: "2000-01-01 12:00:00"
oskar_ini_defaults:
  General:
    version: "2.8.3"
  observation:
    num_channels: 16
hyperdrive_settings:
  srclist: srclist.yaml
wsclean_settings:
  size: 1024
  scale: 30asec
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunCommand_DryRun(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestDocument(t, dir)

	out, err := execute(t, "run", "--dry-run", "--config", cfgPath)
	require.NoError(t, err)

	runDir := filepath.Join(dir, "outputs", "images_gleam_aa2_errors_off_eor0")
	assert.DirExists(t, runDir)
	assert.FileExists(t, filepath.Join(runDir, "beam.ini"))
	assert.FileExists(t, filepath.Join(runDir, "interf.ini"))
	assert.FileExists(t, filepath.Join(runDir, "run.log"))

	assert.Contains(t, out, "aa2/gleam/eor0")
	assert.Contains(t, out, "4 dry-run")
	assert.Contains(t, out, "ok")
}

func TestPlanCommand_PrintsGrid(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestDocument(t, dir)

	out, err := execute(t, "plan", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "aa2/gleam/eor0")
	assert.Contains(t, out, "images_gleam_aa2_errors_off_eor0")
	assert.Contains(t, out, "oskar_sim_beam_pattern beam.ini")
	assert.Contains(t, out, "hyperdrive -d vis.ms --source-list srclist.yaml -o hyperdrive_solutions.fits")
	assert.Contains(t, out, "wsclean -size 1024 1024 -scale 30asec -name wsclean vis.ms")
	assert.Contains(t, out, "1 runs")

	// Planning never touches the output tree.
	assert.NoDirExists(t, filepath.Join(dir, "outputs"))
}

func TestRunCommand_MissingDocument(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
