package services

import (
	"context"
	"fmt"

	"demproc/internal/core/ports"
)

// TrimService removes a fixed-width border of cells from a raster, the
// usual cleanup after neighbourhood-based algorithms leave edge artifacts.
type TrimService struct {
	store ports.RasterStore
}

// NewTrimService creates a new trim service
func NewTrimService(store ports.RasterStore) *TrimService {
	return &TrimService{store: store}
}

// Trim reads src, removes margin cells from each edge and writes the result
// to dst with the origin shifted inward accordingly. dst may equal src: the
// source grid is fully in memory before anything is written, and the store
// replaces files atomically, so a failure part-way through never corrupts
// the source. A margin of zero rewrites the raster unchanged.
func (s *TrimService) Trim(ctx context.Context, src, dst string, margin int) error {
	grid, err := s.store.Read(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	trimmed, err := grid.Trim(margin)
	if err != nil {
		return fmt.Errorf("failed to trim %s: %w", src, err)
	}

	if err := s.store.Write(ctx, dst, trimmed); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}

	return nil
}
