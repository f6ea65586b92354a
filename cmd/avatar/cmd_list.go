package main

import (
	"fmt"

	"github.com/brianholle/custom-claude-avatar/cmd/avatar/ui"
	"github.com/brianholle/custom-claude-avatar/internal/compiler"
	"github.com/brianholle/custom-claude-avatar/internal/symbols"

	"github.com/spf13/cobra"
)

var listPreviews bool

const dividerWidth = 40

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available avatars",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <avatar>",
	Short: "Show one avatar's preview and validate it",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	listCmd.Flags().BoolVarP(&listPreviews, "previews", "p", false, "Render each avatar's preview")
}

func runList(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()

	fmt.Fprintln(out, styles.Title.Render(fmt.Sprintf("%d avatars", cat.Len())))
	for i, key := range cat.Keys() {
		a, err := cat.Lookup(key)
		if err != nil {
			return err
		}
		if listPreviews && i > 0 {
			fmt.Fprintln(out, styles.RenderDivider(dividerWidth))
		}
		fmt.Fprintf(out, "  %-20s %s\n", styles.Key.Render(key), styles.Body.Render(a.MenuLabel))
		if listPreviews {
			fmt.Fprintln(out, styles.RenderPreview(a.Preview))
		}
	}
	return nil
}

// sampleSymbols stand in for a real bundle's identifiers when an avatar is
// compiled without one.
var sampleSymbols = symbols.Set{
	Invoke:          "R.createElement",
	Container:       "B",
	TextNode:        "T",
	FacePlaceholder: "q",
}

func runShow(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	a, err := cat.Lookup(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()

	fmt.Fprintf(out, "%s %s\n", styles.Title.Render(a.Name), styles.Subtitle.Render("("+args[0]+")"))
	fmt.Fprintf(out, "Menu label: %s\n", a.MenuLabel)
	fmt.Fprintf(out, "Layout:     %s\n", a.Layout)
	fmt.Fprintln(out, styles.RenderPreview(a.Preview))

	compiled, err := compiler.CompileAvatar(a, sampleSymbols)
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", styles.Error.Render("✗ invalid:"), err)
		return err
	}
	fmt.Fprintf(out, "%s compiles to %d bytes\n", styles.Success.Render("✓ valid:"), len(compiled))
	if verbose {
		fmt.Fprintln(out, styles.CodeBlock.Render(compiled))
	}
	return nil
}
