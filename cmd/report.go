package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"demproc/pkg/ui"
)

var reportOut string

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <raster.tif>",
	Short: "Render a value-distribution report for a raster layer",
	Long: `Render a standalone HTML page with a histogram of a raster's cell
values. A quick sanity check for derived layers: a slope map hugging zero
or an aspect map with values outside [0, 360) is immediately visible.

Examples:
  demproc report slope.tif
  demproc report continuous_aspect.tif --out aspect.html`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Report file (default <raster>_report.html)")
}

func runReport(cmd *cobra.Command, args []string) error {
	rasterPath := args[0]

	outPath := reportOut
	if outPath == "" {
		outPath = strings.TrimSuffix(rasterPath, ".tif")
		outPath = strings.TrimSuffix(outPath, ".tiff")
		outPath += "_report.html"
	}

	if err := reportService.Render(getContext(), rasterPath, outPath); err != nil {
		fmt.Println(ui.FormatError("Report failed"))
		return err
	}

	fmt.Println(ui.FormatSuccess("Report written"))
	fmt.Println(ui.RenderKeyValue("Output", outPath))
	return nil
}
