package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"demproc/internal/core/services"
	"demproc/pkg/ui"
)

var watchPlain bool

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Derive terrain layers for every raster dropped into a directory",
	Long: `Watch a directory and run the full pipeline on every TIFF that is
created or rewritten in it. Each source raster's outputs are prefixed with
its own basename, so survey.tif produces survey_slope.tif and friends next
to it. Pipeline outputs themselves are ignored by the watcher.

Writes are debounced, so a large raster being copied in triggers a single
run once the copy settles.

Press q or Ctrl+C to stop.

Examples:
  demproc watch
  demproc watch /data/incoming --plain`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "Log events line by line instead of the live view")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	ctx, cancel := context.WithCancel(getContext())
	defer cancel()

	handler := func(ctx context.Context, path string) error {
		prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		req := services.DeriveRequest{
			DEMPath:    path,
			Prefix:     prefix,
			OutputDir:  filepath.Dir(path),
			RemovePits: appConfig.RemovePits,
			TrimMargin: appConfig.TrimMargin,
		}
		_, err := deriveService.Derive(ctx, req)
		return err
	}

	debounce := time.Duration(appConfig.WatchDebounceMS) * time.Millisecond
	svc := services.NewWatchService(dir, debounce, handler)

	events := make(chan services.WatchEvent, 16)
	runErr := make(chan error, 1)
	go func() {
		runErr <- svc.Run(ctx, events)
	}()

	if watchPlain {
		if err := watchPlainLoop(ctx, cancel, dir, events); err != nil {
			return err
		}
	} else {
		if err := watchLiveView(dir, events); err != nil {
			return err
		}
	}

	cancel()
	return <-runErr
}

// watchPlainLoop prints one line per derivation until interrupted
func watchPlainLoop(ctx context.Context, cancel context.CancelFunc, dir string, events <-chan services.WatchEvent) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Println(ui.FormatRocket("Watching " + dir + " for rasters"))
	fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
	fmt.Println()

	for {
		select {
		case <-ctx.Done():
			cancel()
			// Drain so the watcher can close the channel and exit.
			for range events {
			}
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			fmt.Println(formatWatchEvent(ev))
		}
	}
}

// formatWatchEvent renders one derivation result as a log line
func formatWatchEvent(ev services.WatchEvent) string {
	stamp := ev.Time.Format("15:04:05")
	if ev.Err != nil {
		if ev.Path == "" {
			return ui.FormatWarning(stamp + " watcher: " + ev.Err.Error())
		}
		return ui.FormatError(stamp + " " + ev.Path + ": " + ev.Err.Error())
	}
	return ui.FormatSuccess(stamp + " derived layers for " + ev.Path)
}
