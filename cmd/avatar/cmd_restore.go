package main

import (
	"fmt"

	"github.com/brianholle/custom-claude-avatar/cmd/avatar/ui"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the bundle from its backup",
	Args:  cobra.NoArgs,
	RunE:  runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	path, err := currentConfig().RequireBundle()
	if err != nil {
		return err
	}
	store, closeStore := newStore()
	defer closeStore()
	res, err := store.Restore(path)
	if err != nil {
		return err
	}
	styles := ui.DefaultStyles()
	fmt.Fprintf(cmd.OutOrStdout(), "%s restored %s from %s\n", styles.Success.Render("✓"), path, res.BackupPath)
	return nil
}
