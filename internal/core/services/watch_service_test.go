package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestShouldProcess(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"survey.tif", true},
		{"dir/survey.tiff", true},
		{"SURVEY.TIF", true},
		{"notes.txt", false},
		{".hidden.tif", false},
		{"upload.tif.tmp", false},
		{"sd8-123456.tif", false},
		// Pipeline outputs must never retrigger the watcher.
		{"hydrocorrect_dem.tif", false},
		{"flowdir.tif", false},
		{"slope.tif", false},
		{"continuous_aspect.tif", false},
		{"binary_aspect.tif", false},
		{"London_slope.tif", false},
		{"London_binary_aspect.tif", false},
		// But names merely containing a layer word are fine.
		{"steep_slopes.tif", true},
	}

	for _, tt := range tests {
		if got := shouldProcess(tt.path); got != tt.expected {
			t.Errorf("shouldProcess(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}

func TestWatchService_HandlesNewRaster(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var handled []string
	svc := NewWatchService(dir, 50*time.Millisecond, func(ctx context.Context, path string) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, path)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan WatchEvent, 8)
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx, events)
	}()

	// Give the watcher a moment to attach before writing.
	time.Sleep(100 * time.Millisecond)

	demPath := filepath.Join(dir, "survey.tif")
	if err := os.WriteFile(demPath, []byte("not a real tif"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// An output raster in the same directory must be ignored.
	if err := os.WriteFile(filepath.Join(dir, "slope.tif"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Path != demPath {
			t.Errorf("event path = %q, want %q", ev.Path, demPath)
		}
		if ev.Err != nil {
			t.Errorf("event err = %v", ev.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != demPath {
		t.Errorf("handled = %v, want [%s]", handled, demPath)
	}
}

func TestWatchService_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	count := 0
	svc := NewWatchService(dir, 200*time.Millisecond, func(ctx context.Context, path string) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan WatchEvent, 8)
	go svc.Run(ctx, events)

	time.Sleep(100 * time.Millisecond)

	// Simulate a file being copied in: several writes in quick succession.
	demPath := filepath.Join(dir, "survey.tif")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(demPath, []byte("chunk"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}

	// Allow any stray timers to fire before checking.
	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("handler ran %d times for one settling file, want 1", count)
	}
}

func TestWatchService_MissingDirectory(t *testing.T) {
	svc := NewWatchService("/nonexistent/demproc-watch", 50*time.Millisecond, func(ctx context.Context, path string) error {
		return nil
	})

	events := make(chan WatchEvent, 1)
	if err := svc.Run(context.Background(), events); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
