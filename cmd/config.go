package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"demproc/pkg/ui"
)

var (
	configInit bool
	configEdit bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the demproc configuration",
	Long: `Show the resolved configuration, including defaults for any values
not present in the config file.

Use --init to write a config file with the current defaults, or --edit
to open the file in $EDITOR.`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write a config file with default values")
	configCmd.Flags().BoolVarP(&configEdit, "edit", "e", false, "Open the config file in $EDITOR")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configInit {
		if _, err := os.Stat(appConfigPath); err == nil {
			return fmt.Errorf("config file already exists at %s", appConfigPath)
		}
		if err := appConfig.Save(appConfigPath); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Println(ui.FormatSuccess("Config written"))
		fmt.Println(ui.RenderKeyValue("Path", appConfigPath))
		return nil
	}

	if configEdit {
		if _, err := os.Stat(appConfigPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found at %s (run 'demproc config --init' first)", appConfigPath)
		}

		fmt.Println(ui.FormatInfo("Opening config: " + appConfigPath))

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		c := exec.Command(editor, appConfigPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	}

	out, err := yaml.Marshal(appConfig)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	fmt.Println(ui.RenderKeyValue("Config", appConfigPath))
	if _, err := os.Stat(appConfigPath); os.IsNotExist(err) {
		fmt.Println(ui.FormatMuted("(file does not exist, showing defaults)"))
	}
	fmt.Println()
	fmt.Print(string(out))
	return nil
}
