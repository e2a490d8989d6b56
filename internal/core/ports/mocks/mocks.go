package mocks

import (
	"context"
	"fmt"
	"sync"

	"demproc/internal/core/domain"
)

// MockRasterStore is an in-memory implementation of the RasterStore port
// for testing. Grids are keyed by path.
type MockRasterStore struct {
	mu       sync.RWMutex
	grids    map[string]*domain.Grid
	reads    []string
	writes   []string
	readErr  error
	writeErr error
}

// NewMockRasterStore creates an empty in-memory raster store
func NewMockRasterStore() *MockRasterStore {
	return &MockRasterStore{
		grids: make(map[string]*domain.Grid),
	}
}

// Put seeds a grid at the given path without recording a write
func (m *MockRasterStore) Put(path string, grid *domain.Grid) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grids[path] = grid
}

// Read returns the grid stored at path
func (m *MockRasterStore) Read(ctx context.Context, path string) (*domain.Grid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads = append(m.reads, path)
	if m.readErr != nil {
		return nil, m.readErr
	}

	grid, ok := m.grids[path]
	if !ok {
		return nil, fmt.Errorf("raster not found: %s", path)
	}
	return grid, nil
}

// Describe returns the dimensions of the grid stored at path
func (m *MockRasterStore) Describe(ctx context.Context, path string) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.readErr != nil {
		return 0, 0, m.readErr
	}

	grid, ok := m.grids[path]
	if !ok {
		return 0, 0, fmt.Errorf("raster not found: %s", path)
	}
	return grid.Rows(), grid.Cols(), nil
}

// Write stores a grid at path
func (m *MockRasterStore) Write(ctx context.Context, path string, grid *domain.Grid) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes = append(m.writes, path)
	if m.writeErr != nil {
		return m.writeErr
	}

	m.grids[path] = grid
	return nil
}

// Get returns the grid currently stored at path, if any
func (m *MockRasterStore) Get(path string) (*domain.Grid, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	grid, ok := m.grids[path]
	return grid, ok
}

// Reads returns the paths passed to Read, in call order
func (m *MockRasterStore) Reads() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.reads...)
}

// Writes returns the paths passed to Write, in call order
func (m *MockRasterStore) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.writes...)
}

// SetReadError makes every subsequent Read fail with err
func (m *MockRasterStore) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes every subsequent Write fail with err
func (m *MockRasterStore) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// --- MockToolkit ---

// ToolCall records one invocation of a mock terrain tool
type ToolCall struct {
	Stage string // "hydro", "flowdir", "slope", "aspect"
	In    string
	Out   string
}

// MockToolkit is a TerrainToolkit double. Instead of running external
// binaries it copies the input grid from the backing store to the output
// path, so downstream stages see a file with the input's dimensions and
// georeferencing, exactly what the real tools guarantee.
type MockToolkit struct {
	mu    sync.Mutex
	store *MockRasterStore
	calls []ToolCall
	fail  map[string]error
}

// NewMockToolkit creates a toolkit double backed by the given store
func NewMockToolkit(store *MockRasterStore) *MockToolkit {
	return &MockToolkit{
		store: store,
		fail:  make(map[string]error),
	}
}

// FailStage makes the named stage return err on every call
func (m *MockToolkit) FailStage(stage string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[stage] = err
}

// Calls returns all recorded tool invocations in order
func (m *MockToolkit) Calls() []ToolCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ToolCall(nil), m.calls...)
}

func (m *MockToolkit) run(ctx context.Context, stage, in, out string) error {
	m.mu.Lock()
	m.calls = append(m.calls, ToolCall{Stage: stage, In: in, Out: out})
	err := m.fail[stage]
	m.mu.Unlock()

	if err != nil {
		return err
	}

	grid, err := m.store.Read(ctx, in)
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return m.store.Write(ctx, out, grid)
}

// HydroCorrect records the call and copies the input grid to out
func (m *MockToolkit) HydroCorrect(ctx context.Context, demPath, outPath string) error {
	return m.run(ctx, "hydro", demPath, outPath)
}

// FlowDirection records the call and copies the input grid to out
func (m *MockToolkit) FlowDirection(ctx context.Context, demPath, outPath string) error {
	return m.run(ctx, "flowdir", demPath, outPath)
}

// Slope records the call and copies the input grid to out
func (m *MockToolkit) Slope(ctx context.Context, demPath, outPath string) error {
	return m.run(ctx, "slope", demPath, outPath)
}

// Aspect records the call and copies the input grid to out
func (m *MockToolkit) Aspect(ctx context.Context, demPath, outPath string) error {
	return m.run(ctx, "aspect", demPath, outPath)
}
