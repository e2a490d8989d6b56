package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"demproc/internal/core/domain"
)

// findSourceRasters lists TIFF files in dir that look like source DEMs:
// outputs of a previous pipeline run are excluded so they are never offered
// as inputs.
func findSourceRasters(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var rasters []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if isSourceRaster(name) {
			rasters = append(rasters, name)
		}
	}

	sort.Strings(rasters)
	return rasters, nil
}

// isSourceRaster reports whether a filename looks like a source DEM rather
// than a pipeline output or scratch file.
func isSourceRaster(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}

	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".tif") && !strings.HasSuffix(lower, ".tiff") {
		return false
	}

	for _, spec := range domain.Layers {
		if name == spec.DefaultFile || strings.HasSuffix(name, "_"+spec.DefaultFile) {
			return false
		}
	}

	return true
}
