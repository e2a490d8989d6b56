package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"demproc/internal/core/domain"
)

// WatchEvent reports one attempted derivation in watch mode
type WatchEvent struct {
	Path string
	Time time.Time
	Err  error
}

// WatchService watches a directory and runs a derivation for every raster
// dropped or rewritten in it. Writes are debounced so a file being copied
// in triggers a single run once it settles. Derivations run one at a time;
// the pipeline is strictly sequential anyway.
type WatchService struct {
	dir      string
	debounce time.Duration
	handle   func(ctx context.Context, path string) error
}

// NewWatchService creates a watcher over dir. handle is invoked with each
// settled raster path.
func NewWatchService(dir string, debounce time.Duration, handle func(ctx context.Context, path string) error) *WatchService {
	return &WatchService{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
	}
}

// Run blocks watching the directory until ctx is cancelled. Every handled
// file produces a WatchEvent on events (which is closed on return).
func (s *WatchService) Run(ctx context.Context, events chan<- WatchEvent) error {
	defer close(events)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	ready := make(chan string)
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !shouldProcess(ev.Name) {
				continue
			}
			// Reset the per-file timer on every burst of writes.
			mu.Lock()
			if timer, exists := timers[ev.Name]; exists {
				timer.Stop()
			}
			path := ev.Name
			timers[path] = time.AfterFunc(s.debounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			select {
			case events <- WatchEvent{Time: time.Now(), Err: err}:
			case <-ctx.Done():
				return nil
			}

		case path := <-ready:
			mu.Lock()
			delete(timers, path)
			mu.Unlock()

			handleErr := s.handle(ctx, path)
			select {
			case events <- WatchEvent{Path: path, Time: time.Now(), Err: handleErr}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// shouldProcess filters watch events down to source rasters: TIFF files
// that are neither scratch files nor outputs of a previous pipeline run.
// Without the output filter every derivation would retrigger the watcher.
func shouldProcess(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") {
		return false
	}

	lower := strings.ToLower(base)
	if !strings.HasSuffix(lower, ".tif") && !strings.HasSuffix(lower, ".tiff") {
		return false
	}

	for _, spec := range domain.Layers {
		if base == spec.DefaultFile || strings.HasSuffix(base, "_"+spec.DefaultFile) {
			return false
		}
	}

	if strings.HasPrefix(base, "sd8-") {
		return false
	}

	return true
}
