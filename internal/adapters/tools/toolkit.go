package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Default binary names, overridable through Options for non-standard
// installations.
const (
	DefaultMPIExec   = "mpiexec"
	DefaultPitRemove = "pitremove"
	DefaultD8FlowDir = "d8flowdir"
	DefaultGDALDEM   = "gdaldem"
)

// Options configures how the external terrain tools are invoked
type Options struct {
	// MPIExec launches the parallel-capable TauDEM tools
	MPIExec string

	// PitRemove is the TauDEM pit removal binary
	PitRemove string

	// D8FlowDir is the TauDEM D8 flow direction binary
	D8FlowDir string

	// GDALDEM is the GDAL terrain-derivative binary (slope/aspect modes)
	GDALDEM string

	// MPIProcesses is the process count passed to mpiexec
	MPIProcesses int

	// StageTimeout bounds each tool invocation. Zero means no deadline.
	StageTimeout time.Duration
}

// Toolkit implements the TerrainToolkit port by shelling out to TauDEM and
// GDAL. Every call blocks until the subprocess exits; a non-zero exit or a
// binary missing from PATH is surfaced as an error carrying the tool's
// combined output.
type Toolkit struct {
	opts Options
}

// NewToolkit creates a toolkit, filling unset options with defaults
func NewToolkit(opts Options) *Toolkit {
	if opts.MPIExec == "" {
		opts.MPIExec = DefaultMPIExec
	}
	if opts.PitRemove == "" {
		opts.PitRemove = DefaultPitRemove
	}
	if opts.D8FlowDir == "" {
		opts.D8FlowDir = DefaultD8FlowDir
	}
	if opts.GDALDEM == "" {
		opts.GDALDEM = DefaultGDALDEM
	}
	if opts.MPIProcesses <= 0 {
		opts.MPIProcesses = 2
	}
	return &Toolkit{opts: opts}
}

// HydroCorrect removes pits from the DEM via TauDEM pitremove
func (t *Toolkit) HydroCorrect(ctx context.Context, demPath, outPath string) error {
	args := t.mpiArgs(t.opts.PitRemove, "-z", demPath, "-fel", outPath)
	return t.run(ctx, t.opts.MPIExec, args...)
}

// FlowDirection writes the D8 flow direction map via TauDEM d8flowdir.
// d8flowdir always also emits a slope-in-flow-direction grid; it is written
// to a scratch file and deleted afterwards.
func (t *Toolkit) FlowDirection(ctx context.Context, demPath, outPath string) error {
	sd8, err := scratchFile(filepath.Dir(outPath), "sd8-*.tif")
	if err != nil {
		return err
	}
	defer os.Remove(sd8)

	args := t.mpiArgs(t.opts.D8FlowDir, "-fel", demPath, "-sd8", sd8, "-p", outPath)
	return t.run(ctx, t.opts.MPIExec, args...)
}

// Slope writes percent-incline slope via gdaldem
func (t *Toolkit) Slope(ctx context.Context, demPath, outPath string) error {
	return t.run(ctx, t.opts.GDALDEM, "slope", "-p", demPath, outPath)
}

// Aspect writes continuous trigonometric aspect via gdaldem: degrees with
// 0=E, 90=N, 180=W, 270=S, and flat cells coded 0 rather than nodata.
func (t *Toolkit) Aspect(ctx context.Context, demPath, outPath string) error {
	return t.run(ctx, t.opts.GDALDEM, "aspect", demPath, outPath, "-trigonometric", "-zero_for_flat")
}

// mpiArgs prepends the mpiexec process-count arguments to a TauDEM command
func (t *Toolkit) mpiArgs(tool string, toolArgs ...string) []string {
	args := []string{"-n", strconv.Itoa(t.opts.MPIProcesses), tool}
	return append(args, toolArgs...)
}

func (t *Toolkit) run(ctx context.Context, name string, args ...string) error {
	if t.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.StageTimeout)
		defer cancel()
	}

	bin, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\nOutput: %s", name, err, string(output))
	}
	return nil
}

// scratchFile reserves a unique filename in dir so concurrent runs sharing
// a directory cannot clobber each other's byproducts.
func scratchFile(dir, pattern string) (string, error) {
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file in %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// Dependency describes one required external binary for diagnostics
type Dependency struct {
	Binary  string
	Purpose string
}

// Dependencies lists the external binaries the pipeline needs
func (t *Toolkit) Dependencies() []Dependency {
	return []Dependency{
		{Binary: t.opts.MPIExec, Purpose: "launches the parallel TauDEM tools"},
		{Binary: t.opts.PitRemove, Purpose: "hydrologic correction (TauDEM)"},
		{Binary: t.opts.D8FlowDir, Purpose: "D8 flow direction (TauDEM)"},
		{Binary: t.opts.GDALDEM, Purpose: "slope and aspect (GDAL)"},
	}
}

// IsAvailable reports whether a binary can be found in PATH
func IsAvailable(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
