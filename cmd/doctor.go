package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"demproc/internal/adapters/tools"
	"demproc/pkg/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of your demproc installation",
	Long: `Diagnose issues with your demproc setup.

Checks for:
  - Required external tools (mpiexec, pitremove, d8flowdir, gdaldem)
  - Configuration file existence
  - Output directory writability`,
	Run: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) {
	fmt.Println(ui.FormatTitle("🏥 demproc Doctor"))
	fmt.Println()

	// 1. Check external tools
	for _, dep := range toolkit.Dependencies() {
		dep := dep
		checkStep(fmt.Sprintf("%s (%s)", dep.Binary, dep.Purpose), func() error {
			if !tools.IsAvailable(dep.Binary) {
				return fmt.Errorf("not found in PATH")
			}
			return nil
		})
	}

	// 2. Check config
	checkStep("Configuration File", func() error {
		if _, err := os.Stat(appConfigPath); os.IsNotExist(err) {
			return fmt.Errorf("missing at %s (defaults in effect, run 'demproc config --init')", appConfigPath)
		}
		return nil
	})

	// 3. Check output directory
	checkStep("Output Directory", func() error {
		dir := appConfig.OutputDir
		if dir == "" {
			return nil
		}
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			return fmt.Errorf("missing at %s", dir)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	})
}

// checkStep runs a check function and prints the result nicely
func checkStep(name string, check func() error) {
	err := check()
	if err == nil {
		fmt.Println(ui.FormatSuccess(name))
	} else {
		fmt.Println(ui.FormatError(name))
		fmt.Printf("    %s\n", ui.StyleMuted.Render(err.Error()))
	}
}
