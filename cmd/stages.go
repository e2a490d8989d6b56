package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"demproc/internal/core/domain"
	"demproc/pkg/ui"
)

// Single-stage commands for when only one layer is needed. Unlike the full
// pipeline these never trim: the caller decides with 'demproc trim'.

var hydroCmd = &cobra.Command{
	Use:   "hydro <dem.tif> [out.tif]",
	Short: "Remove pits to make a DEM hydrologically correct",
	Long: `Remove topographic pits from a DEM via TauDEM pitremove, so every
cell has a monotonic downslope path to the raster boundary.

The default output name is ` + domain.LayerHydroCorrect.Spec().DefaultFile + `.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(getContext(), domain.LayerHydroCorrect, args, toolkitHydro)
	},
}

var flowdirCmd = &cobra.Command{
	Use:   "flowdir <dem.tif> [out.tif]",
	Short: "Derive the D8 flow direction map",
	Long: `Derive D8 flow directions via TauDEM d8flowdir. Cells are coded
1=E, 2=NE, 3=N, 4=NW, 5=W, 6=SW, 7=S, 8=SE.

Run this on a hydrologically corrected DEM ('demproc hydro') or flow paths
will terminate in pits. The default output name is ` + domain.LayerFlowDirection.Spec().DefaultFile + `.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(getContext(), domain.LayerFlowDirection, args, toolkitFlowDir)
	},
}

var slopeCmd = &cobra.Command{
	Use:   "slope <dem.tif> [out.tif]",
	Short: "Derive percent-incline slope",
	Long: `Derive slope via gdaldem; cell values are percent incline.

The default output name is ` + domain.LayerSlope.Spec().DefaultFile + `.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(getContext(), domain.LayerSlope, args, toolkitSlope)
	},
}

var aspectBinary bool

var aspectCmd = &cobra.Command{
	Use:   "aspect <dem.tif> [out.tif]",
	Short: "Derive continuous (and optionally binary) aspect",
	Long: `Derive continuous aspect via gdaldem: degrees with 0=E, 90=N,
180=W, 270=S, and flat cells coded 0.

With --binary the continuous map is additionally reclassified into
` + domain.LayerBinaryAspect.Spec().DefaultFile + `: 0 for the northerly-facing
half (below 180 degrees), 1 for the southerly-facing half.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAspect,
}

func init() {
	aspectCmd.Flags().BoolVarP(&aspectBinary, "binary", "b", false, "Also derive the binary aspect map")
}

func toolkitHydro(ctx context.Context, in, out string) error {
	return toolkit.HydroCorrect(ctx, in, out)
}

func toolkitFlowDir(ctx context.Context, in, out string) error {
	return toolkit.FlowDirection(ctx, in, out)
}

func toolkitSlope(ctx context.Context, in, out string) error {
	return toolkit.Slope(ctx, in, out)
}

// runStage resolves the output path for a single-stage command and runs it
func runStage(ctx context.Context, layer domain.Layer, args []string, run func(ctx context.Context, in, out string) error) error {
	in := args[0]
	out := layer.OutputPath(appConfig.OutputDir, "")
	if len(args) == 2 {
		out = args[1]
	}

	fmt.Println(ui.FormatInfo(fmt.Sprintf("Calculating %s...", layer)))
	if err := run(ctx, in, out); err != nil {
		fmt.Println(ui.FormatError(fmt.Sprintf("%s failed", layer)))
		return err
	}

	fmt.Println(ui.RenderKeyValue(layer.String(), out))
	return nil
}

func runAspect(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	if err := runStage(ctx, domain.LayerContinuousAspect, args, func(ctx context.Context, in, out string) error {
		return toolkit.Aspect(ctx, in, out)
	}); err != nil {
		return err
	}

	if !aspectBinary {
		return nil
	}

	aspectPath := domain.LayerContinuousAspect.OutputPath(appConfig.OutputDir, "")
	if len(args) == 2 {
		aspectPath = args[1]
	}
	binaryPath := domain.LayerBinaryAspect.OutputPath(appConfig.OutputDir, "")

	fmt.Println(ui.FormatInfo("Calculating binary aspect..."))
	if err := deriveService.BinaryAspect(ctx, aspectPath, binaryPath); err != nil {
		fmt.Println(ui.FormatError("binary aspect failed"))
		return err
	}

	fmt.Println(ui.RenderKeyValue(domain.LayerBinaryAspect.String(), binaryPath))
	return nil
}
