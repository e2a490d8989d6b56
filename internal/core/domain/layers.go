package domain

import "path/filepath"

// Layer identifies one of the five terrain layers the pipeline produces.
type Layer int

const (
	LayerHydroCorrect Layer = iota
	LayerFlowDirection
	LayerSlope
	LayerContinuousAspect
	LayerBinaryAspect
)

// LayerSpec describes a pipeline layer: a stable name for display and a
// default output filename. The set of layers is fixed at compile time and
// always iterated in pipeline order.
type LayerSpec struct {
	Layer       Layer
	Name        string
	DefaultFile string
	// Trimmed marks layers whose output gets the edge trim applied. The
	// corrected DEM keeps full pixel coverage (it is the working input for
	// everything downstream) and the binary aspect inherits the trim
	// already applied to its continuous-aspect input.
	Trimmed bool
}

// Layers lists every pipeline layer in execution order.
var Layers = []LayerSpec{
	{Layer: LayerHydroCorrect, Name: "hydrologically corrected DEM", DefaultFile: "hydrocorrect_dem.tif", Trimmed: false},
	{Layer: LayerFlowDirection, Name: "flow direction", DefaultFile: "flowdir.tif", Trimmed: true},
	{Layer: LayerSlope, Name: "slope", DefaultFile: "slope.tif", Trimmed: true},
	{Layer: LayerContinuousAspect, Name: "continuous aspect", DefaultFile: "continuous_aspect.tif", Trimmed: true},
	{Layer: LayerBinaryAspect, Name: "binary aspect", DefaultFile: "binary_aspect.tif", Trimmed: false},
}

// Spec returns the descriptor for a layer.
func (l Layer) Spec() LayerSpec {
	return Layers[int(l)]
}

// String returns the layer's display name.
func (l Layer) String() string {
	return Layers[int(l)].Name
}

// OutputPath resolves the output path for a layer: the default filename,
// optionally prepended with "prefix_", placed in dir. An empty dir resolves
// relative to the working directory.
func (l Layer) OutputPath(dir, prefix string) string {
	name := Layers[int(l)].DefaultFile
	if prefix != "" {
		name = prefix + "_" + name
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
