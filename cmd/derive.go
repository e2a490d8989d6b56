package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/atotto/clipboard"
	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"demproc/internal/core/services"
	"demproc/pkg/ui"
)

var (
	derivePrefix   string
	deriveMargin   int
	deriveKeepPits bool
	deriveOut      string
	deriveCopy     bool
)

// deriveCmd represents the derive command
var deriveCmd = &cobra.Command{
	Use:     "derive [dem.tif]",
	Short:   "Derive all terrain layers from a DEM",
	Aliases: []string{"d"},
	Long: `Run the full terrain pipeline on an elevation raster.

Produces five layers: the hydrologically corrected DEM, D8 flow direction,
percent slope, continuous aspect and binary aspect. Flow direction, slope
and continuous aspect all derive from the corrected DEM and get one cell
(by default) trimmed from each edge to discard neighbourhood artifacts.
The binary aspect is reclassified from the trimmed continuous aspect.

If no raster is given, shows an interactive list of TIFFs in the current
directory to select from.

Examples:
  demproc derive
  demproc derive survey.tif
  demproc derive survey.tif --prefix London --margin 2
  demproc derive survey.tif --keep-pits --out layers/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDerive,
}

func init() {
	deriveCmd.Flags().StringVarP(&derivePrefix, "prefix", "p", "", "Prefix for all output filenames")
	deriveCmd.Flags().IntVarP(&deriveMargin, "margin", "m", -1, "Edge cells to trim from derived layers (default from config)")
	deriveCmd.Flags().BoolVar(&deriveKeepPits, "keep-pits", false, "Skip hydrologic correction and derive from the raw DEM")
	deriveCmd.Flags().StringVarP(&deriveOut, "out", "o", "", "Output directory (default from config)")
	deriveCmd.Flags().BoolVar(&deriveCopy, "copy", false, "Copy the output directory path to the clipboard")
}

func runDerive(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	var demPath string
	if len(args) == 1 {
		demPath = args[0]
	} else {
		// No raster given: offer the TIFFs in the working directory.
		rasters, err := findSourceRasters(".")
		if err != nil {
			return err
		}
		if len(rasters) == 0 {
			fmt.Println(ui.FormatWarning("No TIFF rasters found in the current directory"))
			return nil
		}

		idx, err := fuzzyfinder.Find(
			rasters,
			func(i int) string { return rasters[i] },
			fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
				if i == -1 {
					return ""
				}
				return "Source DEM\n\n" + rasters[i]
			}),
		)
		if err != nil {
			// User cancelled (Ctrl+C or ESC)
			fmt.Println(ui.FormatInfo("Operation cancelled."))
			return nil
		}
		demPath = rasters[idx]
	}

	req := services.DeriveRequest{
		DEMPath:    demPath,
		Prefix:     derivePrefix,
		OutputDir:  deriveOut,
		RemovePits: appConfig.RemovePits && !deriveKeepPits,
		TrimMargin: deriveMargin,
	}
	if req.OutputDir == "" {
		req.OutputDir = appConfig.OutputDir
	}
	if req.TrimMargin < 0 {
		req.TrimMargin = appConfig.TrimMargin
	}

	fmt.Println(ui.FormatRocket("Deriving terrain layers from " + demPath))
	fmt.Println()

	resp, err := deriveService.Derive(ctx, req)
	if err != nil {
		fmt.Println(ui.FormatError("Pipeline failed"))
		return err
	}

	for _, layer := range resp.Layers {
		fmt.Println(ui.RenderKeyValue(layer.Layer.String(), layer.Path))
	}
	fmt.Println()
	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Derived %d layers", len(resp.Layers))))

	if deriveCopy {
		dir := req.OutputDir
		if dir == "" {
			dir = "."
		}
		abs, err := filepath.Abs(dir)
		if err == nil {
			err = clipboard.WriteAll(abs)
		}
		if err != nil {
			fmt.Println(ui.FormatWarning("Failed to copy output path: " + err.Error()))
		} else {
			fmt.Println(ui.FormatInfo("Output path copied to clipboard"))
		}
	}

	return nil
}
