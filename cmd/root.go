package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"demproc/internal/adapters/raster"
	"demproc/internal/adapters/tools"
	"demproc/internal/core/services"
	"demproc/pkg/config"
)

var (
	// Resolved configuration
	appConfig     *config.Config
	appConfigPath string

	// Adapters
	rasterStore *raster.GeoTIFFStore
	toolkit     *tools.Toolkit

	// Services
	trimService   *services.TrimService
	deriveService *services.DeriveService
	reportService *services.ReportService
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "demproc",
	Short: "Derive terrain layers from a digital elevation model",
	Long: `demproc derives terrain-analysis layers from a single elevation raster:

  1. Hydrologically corrected DEM (pits removed)
  2. D8 flow direction map (1=E, 2=NE, 3=N, ..., 8=SE)
  3. Slope (percent incline)
  4. Continuous aspect (degrees; 0=E, 90=N, 180=W, 270=S)
  5. Binary aspect (0=northerly, 1=southerly)

Pit removal and flow direction are delegated to TauDEM, slope and aspect
to gdaldem; run 'demproc doctor' to check those tools are installed.

The DEM's horizontal and vertical units must match, or slope and flow
results will be meaningless.`,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(hydroCmd)
	rootCmd.AddCommand(flowdirCmd)
	rootCmd.AddCommand(slopeCmd)
	rootCmd.AddCommand(aspectCmd)
	rootCmd.AddCommand(trimCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the application components
func initializeApp(cmd *cobra.Command, args []string) error {
	path, err := config.DefaultPath()
	if err != nil {
		return fmt.Errorf("failed to locate config: %w", err)
	}
	appConfigPath = path

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	appConfig = cfg

	rasterStore = raster.NewGeoTIFFStore()
	toolkit = tools.NewToolkit(tools.Options{
		MPIExec:      cfg.MPIExecBin,
		PitRemove:    cfg.PitRemoveBin,
		D8FlowDir:    cfg.D8FlowDirBin,
		GDALDEM:      cfg.GDALDEMBin,
		MPIProcesses: cfg.MPIProcesses,
		StageTimeout: time.Duration(cfg.StageTimeoutSeconds) * time.Second,
	})

	trimService = services.NewTrimService(rasterStore)
	deriveService = services.NewDeriveService(rasterStore, toolkit, trimService)
	reportService = services.NewReportService(rasterStore, cfg.ChartTheme, cfg.HistogramBins)

	return nil
}

// getContext returns a context for operations
func getContext() context.Context {
	return context.Background()
}
