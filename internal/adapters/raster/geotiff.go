package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/airbusgeo/godal"

	"demproc/internal/core/domain"
)

var registerOnce sync.Once

// GeoTIFFStore implements the RasterStore port on top of the GDAL bindings.
// It reads and writes single-band GeoTIFF files; the same GDAL installation
// that provides gdaldem provides the driver.
type GeoTIFFStore struct{}

// NewGeoTIFFStore creates a GeoTIFF-backed raster store
func NewGeoTIFFStore() *GeoTIFFStore {
	registerOnce.Do(godal.RegisterAll)
	return &GeoTIFFStore{}
}

// Describe opens the raster at path and returns its dimensions from the
// dataset header, without reading any band data.
func (s *GeoTIFFStore) Describe(ctx context.Context, path string) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	ds, err := godal.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer ds.Close()

	structure := ds.Structure()
	if structure.SizeX <= 0 || structure.SizeY <= 0 {
		return 0, 0, fmt.Errorf("raster %s: %w", path, domain.ErrEmptyGrid)
	}
	return structure.SizeY, structure.SizeX, nil
}

// Read loads the first band of the raster at path into memory
func (s *GeoTIFFStore) Read(ctx context.Context, path string) (*domain.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer ds.Close()

	structure := ds.Structure()
	width, height := structure.SizeX, structure.SizeY
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster %s: %w", path, domain.ErrEmptyGrid)
	}

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster %s has no bands", path)
	}

	buf := make([]float64, width*height)
	if err := bands[0].Read(0, 0, buf, width, height); err != nil {
		return nil, fmt.Errorf("failed to read band 1 of %s: %w", path, err)
	}

	values := make([][]float64, height)
	for i := 0; i < height; i++ {
		values[i] = buf[i*width : (i+1)*width : (i+1)*width]
	}

	transform := domain.GeoTransform{0, 1, 0, 0, 0, 1}
	if gt, err := ds.GeoTransform(); err == nil {
		transform = domain.GeoTransform(gt)
	}

	return &domain.Grid{
		Values:     values,
		Transform:  transform,
		Projection: ds.Projection(),
	}, nil
}

// Write creates or replaces the GeoTIFF at path with the grid's values and
// georeferencing. The file is written to a temporary name in the target
// directory and renamed into place, so an existing raster at path is either
// fully replaced or left untouched; it is never observable half-written.
func (s *GeoTIFFStore) Write(ctx context.Context, path string, grid *domain.Grid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if grid.Rows() == 0 || grid.Cols() == 0 {
		return domain.ErrEmptyGrid
	}

	tmp, err := tempName(path)
	if err != nil {
		return err
	}

	if err := s.writeTo(tmp, grid); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func (s *GeoTIFFStore) writeTo(path string, grid *domain.Grid) error {
	width, height := grid.Cols(), grid.Rows()

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64, width, height)
	if err != nil {
		return fmt.Errorf("failed to create raster %s: %w", path, err)
	}

	if err := ds.SetGeoTransform([6]float64(grid.Transform)); err != nil {
		ds.Close()
		return fmt.Errorf("failed to set geotransform on %s: %w", path, err)
	}
	if grid.Projection != "" {
		if err := ds.SetProjection(grid.Projection); err != nil {
			ds.Close()
			return fmt.Errorf("failed to set projection on %s: %w", path, err)
		}
	}

	buf := make([]float64, width*height)
	for i, row := range grid.Values {
		copy(buf[i*width:(i+1)*width], row)
	}
	if err := ds.Bands()[0].Write(0, 0, buf, width, height); err != nil {
		ds.Close()
		return fmt.Errorf("failed to write band 1 of %s: %w", path, err)
	}

	if err := ds.Close(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

// tempName reserves a unique scratch filename next to path so the final
// rename stays on one filesystem.
func tempName(path string) (string, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	// GDAL creates the dataset itself; it only needs the reserved name.
	os.Remove(name)
	return name, nil
}
