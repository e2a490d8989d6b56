package domain

import (
	"errors"
	"fmt"
)

// ErrMarginTooLarge is returned when an edge trim would leave a raster with
// zero or negative size in either dimension.
var ErrMarginTooLarge = errors.New("trim margin too large for raster")

// ErrEmptyGrid is returned when a raster contains no cells.
var ErrEmptyGrid = errors.New("raster grid is empty")

// GeoTransform is the six-coefficient affine transform mapping pixel space
// to georeferenced coordinates, in GDAL order:
//
//	[origin X, pixel width, row rotation, origin Y, column rotation, pixel height]
//
// Pixel height is negative for north-up rasters.
type GeoTransform [6]float64

// Shift returns the transform with the origin moved by the given number of
// columns and rows, keeping cell size and rotation unchanged.
func (t GeoTransform) Shift(cols, rows int) GeoTransform {
	shifted := t
	shifted[0] = t[0] + float64(cols)*t[1] + float64(rows)*t[2]
	shifted[3] = t[3] + float64(cols)*t[4] + float64(rows)*t[5]
	return shifted
}

// Grid is a single-band raster held in memory: row-major cell values plus
// the georeferencing needed to write it back out.
type Grid struct {
	Values     [][]float64
	Transform  GeoTransform
	Projection string // WKT
}

// NewGrid builds a grid from row-major values. All rows must have the same
// length and the grid must contain at least one cell.
func NewGrid(values [][]float64, transform GeoTransform, projection string) (*Grid, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	width := len(values[0])
	for i, row := range values {
		if len(row) != width {
			return nil, fmt.Errorf("ragged grid: row %d has %d cells, want %d", i, len(row), width)
		}
	}
	return &Grid{Values: values, Transform: transform, Projection: projection}, nil
}

// Rows returns the number of rows (raster height).
func (g *Grid) Rows() int {
	return len(g.Values)
}

// Cols returns the number of columns (raster width).
func (g *Grid) Cols() int {
	if len(g.Values) == 0 {
		return 0
	}
	return len(g.Values[0])
}

// Trim returns a new grid with margin cells removed from all four edges.
// The origin of the result is shifted inward by margin cells so the
// remaining cells keep their georeferenced positions. A margin of zero
// returns a copy of the grid unchanged. If trimming would leave either
// dimension at zero or below, ErrMarginTooLarge is returned and no grid
// is produced.
func (g *Grid) Trim(margin int) (*Grid, error) {
	if margin < 0 {
		return nil, fmt.Errorf("negative trim margin %d", margin)
	}

	rows := g.Rows() - 2*margin
	cols := g.Cols() - 2*margin
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: margin %d on %dx%d raster", ErrMarginTooLarge, margin, g.Rows(), g.Cols())
	}

	values := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		values[i] = make([]float64, cols)
		copy(values[i], g.Values[i+margin][margin:margin+cols])
	}

	return &Grid{
		Values:     values,
		Transform:  g.Transform.Shift(margin, margin),
		Projection: g.Projection,
	}, nil
}

// BinarizeAspect reclassifies a continuous aspect grid (degrees, 0=E, 90=N,
// 180=W, 270=S) into a binary one: 0 for the northerly-facing half
// (values below 180) and 1 for the southerly-facing half. Dimensions and
// georeferencing are preserved.
func (g *Grid) BinarizeAspect() *Grid {
	values := make([][]float64, g.Rows())
	for i, row := range g.Values {
		values[i] = make([]float64, len(row))
		for j, v := range row {
			if v < 180 {
				values[i][j] = 0
			} else {
				values[i][j] = 1
			}
		}
	}
	return &Grid{Values: values, Transform: g.Transform, Projection: g.Projection}
}
