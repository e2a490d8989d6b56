package ports

import (
	"context"

	"demproc/internal/core/domain"
)

// RasterStore defines the port for raster file I/O
type RasterStore interface {
	// Read loads the first band of a raster file into memory
	Read(ctx context.Context, path string) (*domain.Grid, error)

	// Describe returns a raster's dimensions without loading its cells.
	// A missing or unreadable file is an error, so it doubles as a cheap
	// readability probe.
	Describe(ctx context.Context, path string) (rows, cols int, err error)

	// Write creates or overwrites a single-band raster file carrying the
	// grid's own geotransform and projection
	Write(ctx context.Context, path string, grid *domain.Grid) error
}

// TerrainToolkit defines the port for the external terrain tools. Each call
// blocks until the tool exits and the output file is fully written; a
// non-zero exit or missing binary is an error.
type TerrainToolkit interface {
	// HydroCorrect removes pits so every cell drains to the raster boundary
	HydroCorrect(ctx context.Context, demPath, outPath string) error

	// FlowDirection writes the D8 flow direction map
	// (1=E, 2=NE, 3=N, ..., 8=SE)
	FlowDirection(ctx context.Context, demPath, outPath string) error

	// Slope writes percent-incline slope
	Slope(ctx context.Context, demPath, outPath string) error

	// Aspect writes continuous trigonometric aspect in degrees
	// (0=E, 90=N, 180=W, 270=S; flat cells coded 0)
	Aspect(ctx context.Context, demPath, outPath string) error
}

// Trimmer defines the port for the edge-trim transform
type Trimmer interface {
	// Trim writes a copy of src with margin cells removed from each edge.
	// dst may equal src; the source file is never mutated while read.
	Trim(ctx context.Context, src, dst string, margin int) error
}
