package services

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"demproc/internal/core/domain"
	"demproc/internal/core/ports"
)

// ReportService renders a standalone HTML page with the cell-value
// distribution of a raster layer. Useful as a quick sanity check that a
// derived slope or aspect map looks plausible without opening a GIS.
type ReportService struct {
	store ports.RasterStore
	theme string
	bins  int
}

// NewReportService creates a report service. bins is the histogram bucket
// count; theme is an echarts theme name ("dark", "white", ...).
func NewReportService(store ports.RasterStore, theme string, bins int) *ReportService {
	if bins <= 0 {
		bins = 32
	}
	return &ReportService{store: store, theme: theme, bins: bins}
}

// HistogramBin is one bucket of a value distribution
type HistogramBin struct {
	Label string
	Count int
}

// Histogram buckets the grid's cell values into equal-width bins between
// the observed minimum and maximum. Non-finite cells (NaN, ±Inf nodata)
// are skipped; an infinite bound would make every bin width infinite.
func (s *ReportService) Histogram(grid *domain.Grid) []HistogramBin {
	min := math.Inf(1)
	max := math.Inf(-1)
	total := 0
	for _, row := range grid.Values {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			total++
		}
	}
	if total == 0 {
		return nil
	}

	if min == max {
		return []HistogramBin{{Label: fmt.Sprintf("%.2f", min), Count: total}}
	}

	width := (max - min) / float64(s.bins)
	counts := make([]int, s.bins)
	for _, row := range grid.Values {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			idx := int((v - min) / width)
			if idx >= s.bins {
				idx = s.bins - 1 // max value lands in the last bin
			}
			counts[idx]++
		}
	}

	bins := make([]HistogramBin, s.bins)
	for i := range bins {
		bins[i] = HistogramBin{
			Label: fmt.Sprintf("%.2f", min+(float64(i)+0.5)*width),
			Count: counts[i],
		}
	}
	return bins
}

// Render reads the raster at rasterPath and writes its value-distribution
// chart as standalone HTML to outPath.
func (s *ReportService) Render(ctx context.Context, rasterPath, outPath string) error {
	grid, err := s.store.Read(ctx, rasterPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rasterPath, err)
	}

	bins := s.Histogram(grid)
	if bins == nil {
		return fmt.Errorf("raster %s has no finite cell values", rasterPath)
	}

	labels := make([]string, len(bins))
	data := make([]opts.BarData, len(bins))
	for i, bin := range bins {
		labels[i] = bin.Label
		data[i] = opts.BarData{Value: bin.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "demproc report",
			Theme:     s.theme,
			Width:     "1000px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    filepath.Base(rasterPath),
			Subtitle: fmt.Sprintf("%dx%d cells", grid.Rows(), grid.Cols()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "cell value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cells"}),
	)
	bar.SetXAxis(labels).AddSeries("cells", data)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", outPath, err)
	}
	defer f.Close()

	if err := bar.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
