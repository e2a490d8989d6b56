package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"demproc/pkg/ui"
)

var trimMargin int

// trimCmd represents the trim command
var trimCmd = &cobra.Command{
	Use:   "trim <src.tif> [dst.tif]",
	Short: "Trim edge cells from a raster",
	Long: `Remove a fixed-width border of cells from each edge of a raster,
shifting the origin inward so the remaining cells keep their positions.

Neighbourhood-based algorithms (flow direction, slope, aspect) produce
unreliable values along the raster edge; trimming discards them. Without a
destination the raster is trimmed in place, safely: the result is staged in
a temporary file and renamed over the source only once fully written.

Examples:
  demproc trim slope.tif
  demproc trim slope.tif slope_inner.tif --margin 2`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTrim,
}

func init() {
	trimCmd.Flags().IntVarP(&trimMargin, "margin", "m", -1, "Edge cells to remove from each side (default from config)")
}

func runTrim(cmd *cobra.Command, args []string) error {
	src := args[0]
	dst := src
	if len(args) == 2 {
		dst = args[1]
	}

	margin := trimMargin
	if margin < 0 {
		margin = appConfig.TrimMargin
	}

	if err := trimService.Trim(getContext(), src, dst, margin); err != nil {
		fmt.Println(ui.FormatError("Trim failed"))
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Trimmed %d cell(s) from each edge", margin)))
	fmt.Println(ui.RenderKeyValue("Output", dst))
	return nil
}
