package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.MPIProcesses != 2 {
		t.Errorf("expected default MPIProcesses=2, got %d", cfg.MPIProcesses)
	}

	if cfg.TrimMargin != 1 {
		t.Errorf("expected default TrimMargin=1, got %d", cfg.TrimMargin)
	}

	if !cfg.RemovePits {
		t.Error("expected default RemovePits=true")
	}

	if cfg.GDALDEMBin != "gdaldem" {
		t.Errorf("expected default GDALDEMBin='gdaldem', got %q", cfg.GDALDEMBin)
	}

	if cfg.StageTimeoutSeconds != 0 {
		t.Errorf("expected default StageTimeoutSeconds=0, got %d", cfg.StageTimeoutSeconds)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	// Loading a non-existent file should return default config
	cfg, err := Load("/nonexistent/path/config.yaml")

	if err != nil {
		t.Fatalf("unexpected error loading non-existent file: %v", err)
	}

	if cfg.MPIProcesses != 2 || cfg.TrimMargin != 1 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestSave_And_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.MPIProcesses = 8
	cfg.TrimMargin = 3
	cfg.RemovePits = false
	cfg.GDALDEMBin = "/opt/gdal/bin/gdaldem"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.MPIProcesses != 8 {
		t.Errorf("MPIProcesses = %d, want 8", loaded.MPIProcesses)
	}
	if loaded.TrimMargin != 3 {
		t.Errorf("TrimMargin = %d, want 3", loaded.TrimMargin)
	}
	if loaded.RemovePits {
		t.Error("RemovePits = true, want false")
	}
	if loaded.GDALDEMBin != "/opt/gdal/bin/gdaldem" {
		t.Errorf("GDALDEMBin = %q", loaded.GDALDEMBin)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte("mpi_processes: -1\ntrim_margin: -5\nwatch_debounce_ms: 0\nhistogram_bins: -2\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MPIProcesses != 2 {
		t.Errorf("MPIProcesses = %d, want fallback 2", cfg.MPIProcesses)
	}
	if cfg.TrimMargin != 1 {
		t.Errorf("TrimMargin = %d, want fallback 1", cfg.TrimMargin)
	}
	if cfg.WatchDebounceMS != 500 {
		t.Errorf("WatchDebounceMS = %d, want fallback 500", cfg.WatchDebounceMS)
	}
	if cfg.HistogramBins != 32 {
		t.Errorf("HistogramBins = %d, want fallback 32", cfg.HistogramBins)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("mpi_processes: [not a number"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
