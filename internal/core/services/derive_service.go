package services

import (
	"context"
	"fmt"

	"demproc/internal/core/domain"
	"demproc/internal/core/ports"
)

// DeriveService orchestrates the terrain pipeline: hydro-correction, flow
// direction, slope, continuous aspect and binary aspect, in that order,
// with edge trimming applied to the intermediate derivations. All actual
// terrain math is delegated to the external toolkit; this service only
// sequences stages and resolves output names.
type DeriveService struct {
	store   ports.RasterStore
	tools   ports.TerrainToolkit
	trimmer ports.Trimmer
}

// NewDeriveService creates a new pipeline orchestrator
func NewDeriveService(store ports.RasterStore, tools ports.TerrainToolkit, trimmer ports.Trimmer) *DeriveService {
	return &DeriveService{
		store:   store,
		tools:   tools,
		trimmer: trimmer,
	}
}

// DeriveRequest configures one pipeline run. The zero value is not usable:
// build it with NewDeriveRequest to pick up the defaults (pits removed,
// margin of one cell), then override fields as needed.
type DeriveRequest struct {
	// DEMPath is the source elevation raster. Horizontal and vertical units
	// must match or slope and flow results are meaningless.
	DEMPath string

	// Prefix, when set, is prepended (with an underscore) to every default
	// output filename.
	Prefix string

	// OutputDir is the directory for generated layers. Empty means the
	// working directory.
	OutputDir string

	// RemovePits controls whether the DEM is hydrologically corrected
	// before anything is derived from it.
	RemovePits bool

	// TrimMargin is the number of edge cells removed from the flow
	// direction, slope and continuous aspect outputs. Zero disables
	// trimming.
	TrimMargin int
}

// NewDeriveRequest returns a request for demPath with default settings
func NewDeriveRequest(demPath string) DeriveRequest {
	return DeriveRequest{
		DEMPath:    demPath,
		RemovePits: true,
		TrimMargin: 1,
	}
}

// LayerResult names one produced layer and where it was written
type LayerResult struct {
	Layer domain.Layer
	Path  string
}

// DeriveResponse reports a completed pipeline run
type DeriveResponse struct {
	// WorkingDEM is the raster the derivations read from: the corrected
	// DEM when pits were removed, otherwise the original input.
	WorkingDEM string

	// Layers lists every file written, in pipeline order.
	Layers []LayerResult
}

// Derive runs the full pipeline. Stages run strictly in sequence, each one
// reading files the previous stages finished writing; the first failure
// aborts the rest. Files written by stages that already completed are left
// in place.
func (s *DeriveService) Derive(ctx context.Context, req DeriveRequest) (*DeriveResponse, error) {
	if req.TrimMargin < 0 {
		return nil, fmt.Errorf("trim margin must not be negative, got %d", req.TrimMargin)
	}

	// Fail before any stage runs if the input is missing or unreadable,
	// or if the requested trim would consume the whole raster. Only the
	// header is inspected; the DEM's cells never enter this process.
	rows, cols, err := s.store.Describe(ctx, req.DEMPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read DEM: %w", err)
	}
	if req.TrimMargin > 0 {
		if rows <= 2*req.TrimMargin || cols <= 2*req.TrimMargin {
			return nil, fmt.Errorf("%w: margin %d on %dx%d raster",
				domain.ErrMarginTooLarge, req.TrimMargin, rows, cols)
		}
	}

	resp := &DeriveResponse{}

	// Stage 1: hydrologic correction. The corrected DEM is never trimmed:
	// it becomes the working DEM and must keep the original pixel coverage
	// so the downstream trim arithmetic stays well-defined.
	workingDEM := req.DEMPath
	if req.RemovePits {
		out := domain.LayerHydroCorrect.OutputPath(req.OutputDir, req.Prefix)
		if err := s.tools.HydroCorrect(ctx, req.DEMPath, out); err != nil {
			return nil, fmt.Errorf("hydrologic correction failed: %w", err)
		}
		workingDEM = out
		resp.Layers = append(resp.Layers, LayerResult{Layer: domain.LayerHydroCorrect, Path: out})
	}
	resp.WorkingDEM = workingDEM

	// Stages 2-4: independent derivations, each reading the same working
	// DEM (not chained to each other's outputs), trimmed in place.
	derivations := []struct {
		layer domain.Layer
		run   func(ctx context.Context, in, out string) error
	}{
		{domain.LayerFlowDirection, s.tools.FlowDirection},
		{domain.LayerSlope, s.tools.Slope},
		{domain.LayerContinuousAspect, s.tools.Aspect},
	}

	for _, d := range derivations {
		out := d.layer.OutputPath(req.OutputDir, req.Prefix)
		if err := d.run(ctx, workingDEM, out); err != nil {
			return nil, fmt.Errorf("%s failed: %w", d.layer, err)
		}
		if req.TrimMargin > 0 {
			if err := s.trimmer.Trim(ctx, out, out, req.TrimMargin); err != nil {
				return nil, fmt.Errorf("failed to trim %s: %w", d.layer, err)
			}
		}
		resp.Layers = append(resp.Layers, LayerResult{Layer: d.layer, Path: out})
	}

	// Stage 5: binary aspect, the one transform done in-process. Its input
	// is already trimmed, so it is not trimmed again.
	aspectPath := domain.LayerContinuousAspect.OutputPath(req.OutputDir, req.Prefix)
	binaryPath := domain.LayerBinaryAspect.OutputPath(req.OutputDir, req.Prefix)
	if err := s.BinaryAspect(ctx, aspectPath, binaryPath); err != nil {
		return nil, err
	}
	resp.Layers = append(resp.Layers, LayerResult{Layer: domain.LayerBinaryAspect, Path: binaryPath})

	return resp, nil
}

// BinaryAspect reclassifies a continuous aspect raster into the
// northerly/southerly binary map: 0 below 180 degrees, 1 otherwise.
func (s *DeriveService) BinaryAspect(ctx context.Context, aspectPath, outPath string) error {
	grid, err := s.store.Read(ctx, aspectPath)
	if err != nil {
		return fmt.Errorf("failed to read continuous aspect: %w", err)
	}

	if err := s.store.Write(ctx, outPath, grid.BinarizeAspect()); err != nil {
		return fmt.Errorf("failed to write binary aspect: %w", err)
	}

	return nil
}
