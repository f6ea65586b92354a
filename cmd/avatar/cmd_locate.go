package main

import (
	"fmt"
	"strings"

	"github.com/brianholle/custom-claude-avatar/cmd/avatar/ui"
	"github.com/brianholle/custom-claude-avatar/internal/locator"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"

	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Report what the patcher finds in the bundle",
	Long: `Resolves the bundle's symbols and anchor and counts how often the
fingerprint and the full search pattern occur. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runLocate,
}

func runLocate(cmd *cobra.Command, args []string) error {
	path, err := requireBundle()
	if err != nil {
		return err
	}
	store, closeStore := newStore()
	defer closeStore()
	doc, err := store.Read(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()

	fmt.Fprintf(out, "Bundle:      %s (%d bytes)\n", path, len(doc))
	fmt.Fprintf(out, "Backup:      %s\n", presence(store.HasBackup(path)))

	syms, err := symbols.Resolve(doc)
	if err != nil {
		fmt.Fprintf(out, "Fingerprint: %s\n", styles.Error.Render("not found"))
		return err
	}
	fmt.Fprintf(out, "Fingerprint: %d match(es)\n", symbols.CountMatches(doc))
	fmt.Fprintf(out, "Variables:   %s\n", syms)

	anchor := currentConfig().AnchorPrefix
	source := "configured"
	if anchor == "" {
		source = "resolved"
		if anchor, err = symbols.ResolveAnchor(doc); err != nil {
			fmt.Fprintf(out, "Anchor:      %s\n", styles.Error.Render("not found"))
			return err
		}
	}
	fmt.Fprintf(out, "Anchor:      %s (%s)\n", anchor, source)

	pattern, err := locator.SearchPattern(anchor, syms)
	if err != nil {
		return err
	}
	n := strings.Count(doc, pattern)
	status := styles.Success.Render("ok")
	if n != 1 {
		status = styles.Warning.Render("check")
	}
	fmt.Fprintf(out, "Pattern:     %d occurrence(s) %s\n", n, status)
	return nil
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}
