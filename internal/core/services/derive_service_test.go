package services

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"demproc/internal/core/domain"
	"demproc/internal/core/ports/mocks"
)

// newTestPipeline wires a derive service backed by an in-memory store, a
// toolkit double and the real trim service.
func newTestPipeline(t *testing.T) (*DeriveService, *mocks.MockRasterStore, *mocks.MockToolkit) {
	t.Helper()

	store := mocks.NewMockRasterStore()
	tools := mocks.NewMockToolkit(store)
	svc := NewDeriveService(store, tools, NewTrimService(store))
	return svc, store, tools
}

func stages(calls []mocks.ToolCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Stage
	}
	return out
}

func TestDerive_FullPipeline(t *testing.T) {
	svc, store, tools := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	resp, err := svc.Derive(context.Background(), NewDeriveRequest("dem.tif"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	// Tools run in the fixed pipeline order.
	want := []string{"hydro", "flowdir", "slope", "aspect"}
	if got := stages(tools.Calls()); !reflect.DeepEqual(got, want) {
		t.Errorf("stage order = %v, want %v", got, want)
	}

	// All five layers written.
	if len(resp.Layers) != 5 {
		t.Fatalf("expected 5 layers, got %d", len(resp.Layers))
	}
	for _, layer := range resp.Layers {
		if _, ok := store.Get(layer.Path); !ok {
			t.Errorf("layer %s missing at %s", layer.Layer, layer.Path)
		}
	}

	// The corrected DEM keeps full coverage; the derivations are trimmed
	// by the default margin of one cell.
	corrected, _ := store.Get("hydrocorrect_dem.tif")
	if corrected.Rows() != 5 || corrected.Cols() != 5 {
		t.Errorf("corrected DEM is %dx%d, want 5x5", corrected.Rows(), corrected.Cols())
	}
	for _, name := range []string{"flowdir.tif", "slope.tif", "continuous_aspect.tif", "binary_aspect.tif"} {
		g, ok := store.Get(name)
		if !ok {
			t.Fatalf("%s missing", name)
		}
		if g.Rows() != 3 || g.Cols() != 3 {
			t.Errorf("%s is %dx%d, want 3x3", name, g.Rows(), g.Cols())
		}
	}
}

func TestDerive_WorkingDEMIsCorrectedDEM(t *testing.T) {
	svc, store, tools := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	resp, err := svc.Derive(context.Background(), NewDeriveRequest("dem.tif"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	if resp.WorkingDEM != "hydrocorrect_dem.tif" {
		t.Errorf("WorkingDEM = %q, want hydrocorrect_dem.tif", resp.WorkingDEM)
	}

	// Flow direction, slope and aspect must all read the SAME working DEM,
	// not each other's outputs.
	for _, call := range tools.Calls() {
		if call.Stage == "hydro" {
			continue
		}
		if call.In != "hydrocorrect_dem.tif" {
			t.Errorf("%s read %q, want hydrocorrect_dem.tif", call.Stage, call.In)
		}
	}
}

func TestDerive_KeepPits(t *testing.T) {
	svc, store, tools := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	req := NewDeriveRequest("dem.tif")
	req.RemovePits = false

	resp, err := svc.Derive(context.Background(), req)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	want := []string{"flowdir", "slope", "aspect"}
	if got := stages(tools.Calls()); !reflect.DeepEqual(got, want) {
		t.Errorf("stage order = %v, want %v (no hydro stage)", got, want)
	}

	// Every derivation reads the original input directly.
	for _, call := range tools.Calls() {
		if call.In != "dem.tif" {
			t.Errorf("%s read %q, want dem.tif", call.Stage, call.In)
		}
	}

	if resp.WorkingDEM != "dem.tif" {
		t.Errorf("WorkingDEM = %q, want dem.tif", resp.WorkingDEM)
	}
	if len(resp.Layers) != 4 {
		t.Errorf("expected 4 layers without hydro correction, got %d", len(resp.Layers))
	}
	if _, ok := store.Get("hydrocorrect_dem.tif"); ok {
		t.Error("corrected DEM written despite RemovePits=false")
	}
}

func TestDerive_ZeroMarginSkipsTrim(t *testing.T) {
	svc, store, _ := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	req := NewDeriveRequest("dem.tif")
	req.TrimMargin = 0

	if _, err := svc.Derive(context.Background(), req); err != nil {
		t.Fatalf("Derive: %v", err)
	}

	for _, name := range []string{"flowdir.tif", "slope.tif", "continuous_aspect.tif", "binary_aspect.tif"} {
		g, _ := store.Get(name)
		if g.Rows() != 5 || g.Cols() != 5 {
			t.Errorf("%s is %dx%d, want untrimmed 5x5", name, g.Rows(), g.Cols())
		}
	}
}

func TestDerive_PrefixAndOutputDir(t *testing.T) {
	svc, store, _ := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	req := NewDeriveRequest("dem.tif")
	req.Prefix = "London"
	req.OutputDir = "out"

	resp, err := svc.Derive(context.Background(), req)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	wantPaths := []string{
		filepath.Join("out", "London_hydrocorrect_dem.tif"),
		filepath.Join("out", "London_flowdir.tif"),
		filepath.Join("out", "London_slope.tif"),
		filepath.Join("out", "London_continuous_aspect.tif"),
		filepath.Join("out", "London_binary_aspect.tif"),
	}
	if len(resp.Layers) != len(wantPaths) {
		t.Fatalf("expected %d layers, got %d", len(wantPaths), len(resp.Layers))
	}
	for i, layer := range resp.Layers {
		if layer.Path != wantPaths[i] {
			t.Errorf("layer %d path = %q, want %q", i, layer.Path, wantPaths[i])
		}
	}
}

func TestDerive_BinaryAspectValues(t *testing.T) {
	svc, store, _ := newTestPipeline(t)

	// Make the aspect stage produce a raster with known degree values so
	// the in-process reclassification is observable end to end. The outer
	// ring is discarded by the default trim.
	store.Put("dem.tif", testGrid(t, [][]float64{
		{0, 0, 0, 0, 0},
		{0, 10, 179, 200, 0},
		{0, 180, 0, 271, 0},
		{0, 359, 90, 180, 0},
		{0, 0, 0, 0, 0},
	}))

	if _, err := svc.Derive(context.Background(), NewDeriveRequest("dem.tif")); err != nil {
		t.Fatalf("Derive: %v", err)
	}

	binary, ok := store.Get("binary_aspect.tif")
	if !ok {
		t.Fatal("binary aspect missing")
	}

	expected := [][]float64{
		{0, 0, 1},
		{1, 0, 1},
		{1, 0, 1},
	}
	if !reflect.DeepEqual(binary.Values, expected) {
		t.Errorf("binary aspect = %v, want %v", binary.Values, expected)
	}
}

func TestDerive_PreflightDoesNotLoadCells(t *testing.T) {
	svc, store, _ := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	if _, err := svc.Derive(context.Background(), NewDeriveRequest("dem.tif")); err != nil {
		t.Fatalf("Derive: %v", err)
	}

	// The orchestrator's input check only inspects the header; the single
	// full read of the source DEM belongs to the hydro stage.
	demReads := 0
	for _, path := range store.Reads() {
		if path == "dem.tif" {
			demReads++
		}
	}
	if demReads != 1 {
		t.Errorf("source DEM read %d times, want 1 (hydro stage only)", demReads)
	}
}

func TestDerive_MissingDEM(t *testing.T) {
	svc, _, tools := newTestPipeline(t)

	_, err := svc.Derive(context.Background(), NewDeriveRequest("absent.tif"))
	if err == nil {
		t.Fatal("expected error for missing DEM")
	}

	// The pipeline must abort before any stage runs.
	if len(tools.Calls()) != 0 {
		t.Errorf("expected no tool calls, got %v", tools.Calls())
	}
}

func TestDerive_StageFailureAborts(t *testing.T) {
	svc, store, tools := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	toolErr := errors.New("d8flowdir: exit status 1")
	tools.FailStage("flowdir", toolErr)

	_, err := svc.Derive(context.Background(), NewDeriveRequest("dem.tif"))
	if !errors.Is(err, toolErr) {
		t.Fatalf("expected wrapped tool error, got %v", err)
	}

	// Fail fast: no stage after the failing one runs.
	want := []string{"hydro", "flowdir"}
	if got := stages(tools.Calls()); !reflect.DeepEqual(got, want) {
		t.Errorf("stage calls = %v, want %v", got, want)
	}

	// The completed hydro stage's output stays on disk.
	if _, ok := store.Get("hydrocorrect_dem.tif"); !ok {
		t.Error("completed stage output should be left in place")
	}
}

func TestDerive_NegativeMargin(t *testing.T) {
	svc, store, tools := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	req := NewDeriveRequest("dem.tif")
	req.TrimMargin = -1

	if _, err := svc.Derive(context.Background(), req); err == nil {
		t.Fatal("expected error for negative margin")
	}
	if len(tools.Calls()) != 0 {
		t.Error("no stage should run with an invalid margin")
	}
}

func TestDerive_MarginTooLargeForDEM(t *testing.T) {
	svc, store, tools := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	req := NewDeriveRequest("dem.tif")
	req.TrimMargin = 3 // 2*3 > 5

	_, err := svc.Derive(context.Background(), req)
	if !errors.Is(err, domain.ErrMarginTooLarge) {
		t.Fatalf("expected ErrMarginTooLarge, got %v", err)
	}

	// The margin is checked against the DEM's dimensions up front, so no
	// external tool runs and no partial output is written.
	if len(tools.Calls()) != 0 {
		t.Errorf("expected no tool calls, got %v", tools.Calls())
	}
	if _, ok := store.Get("hydrocorrect_dem.tif"); ok {
		t.Error("no output should be written for an oversized margin")
	}
}

func TestDerive_MarginExactlyConsumesDEM(t *testing.T) {
	svc, store, tools := newTestPipeline(t)
	store.Put("dem.tif", pitDEM(t))

	req := NewDeriveRequest("dem.tif")
	req.TrimMargin = 2 // 5 - 2*2 = 1, the smallest raster that survives

	if _, err := svc.Derive(context.Background(), req); err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if got := len(tools.Calls()); got != 4 {
		t.Errorf("expected 4 tool calls, got %d", got)
	}

	g, ok := store.Get("slope.tif")
	if !ok {
		t.Fatal("slope.tif missing")
	}
	if g.Rows() != 1 || g.Cols() != 1 {
		t.Errorf("slope is %dx%d, want 1x1", g.Rows(), g.Cols())
	}
}
