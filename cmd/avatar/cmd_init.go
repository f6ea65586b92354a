package main

import (
	"fmt"
	"os"

	"github.com/brianholle/custom-claude-avatar/cmd/avatar/ui"

	"github.com/spf13/cobra"
)

// defaultConfigFile is written when neither an argument nor --config names
// a file.
const defaultConfigFile = "avatar.yaml"

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write the effective configuration to a YAML file",
	Long: `Writes the configuration in effect (defaults, the loaded file,
AVATAR_* variables and flags) to a YAML file that can be passed back with
--config. The file is taken from the argument, then --config, then
avatar.yaml. An existing file is kept unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		path = defaultConfigFile
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists; pass --force to overwrite", path)
	}
	if err := currentConfig().Save(path); err != nil {
		return err
	}

	styles := ui.DefaultStyles()
	fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", styles.Success.Render("✓"), path)
	return nil
}
