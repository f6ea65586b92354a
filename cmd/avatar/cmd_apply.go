package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/brianholle/custom-claude-avatar/cmd/avatar/ui"
	"github.com/brianholle/custom-claude-avatar/internal/apply"
	"github.com/brianholle/custom-claude-avatar/internal/diff"
	"github.com/brianholle/custom-claude-avatar/internal/patch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	applyDryRun   bool
	applyDiff     bool
	applyStrict   bool
	applyNoBackup bool
)

var applyCmd = &cobra.Command{
	Use:   "apply <avatar>",
	Short: "Patch the bundle with an avatar",
	Long: `Resolves the bundle's symbols, compiles the avatar and replaces the
default face with it. With --dry-run nothing is written: the avatar name,
the detected variables and the compiled expression are printed instead.
Add --diff to also preview the change.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVarP(&applyDryRun, "dry-run", "n", false, "Print what would be applied; do not write")
	applyCmd.Flags().BoolVar(&applyDiff, "diff", false, "Show the change to the bundle")
	applyCmd.Flags().BoolVar(&applyStrict, "strict", false, "Fail instead of patching the first of several matches")
	applyCmd.Flags().BoolVar(&applyNoBackup, "no-backup", false, "Do not back up the bundle before writing")
}

func runApply(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()

	path, err := requireBundle()
	if err != nil {
		return err
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	strict := applyStrict || c.Strict
	store, closeStore := newStore()
	defer closeStore()
	svc := apply.NewService(cat, newEngine(strict), store, apply.Options{
		Strict:       strict,
		AnchorPrefix: c.AnchorPrefix,
	}, currentLogger())

	// A diff needs the patched document even in a dry run.
	report, err := svc.Run(commandContext(cmd), apply.Request{
		Key:    args[0],
		Path:   path,
		DryRun: applyDryRun && !applyDiff,
	})
	if err != nil {
		printSearchFailure(cmd.ErrOrStderr(), styles, err)
		return err
	}

	if applyDryRun {
		printDryRun(out, styles, report)
	}
	if applyDiff {
		fmt.Fprint(out, styles.RenderDiff(diff.Compute(report.Original, report.Document)))
	}
	if applyDryRun {
		fmt.Fprintln(out, styles.Muted.Render("dry-run: OK (bundle not written)"))
		return nil
	}

	if !report.Changed {
		fmt.Fprintln(out, styles.Muted.Render("Bundle already carries this avatar; nothing written"))
		return nil
	}

	if c.Backup && !applyNoBackup {
		res, err := store.Backup(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Backup:  %s\n", res.BackupPath)
	}
	if _, err := store.Write(path, report.Document); err != nil {
		return err
	}

	currentLogger().Info("avatar applied", zap.String("avatar", report.AvatarKey), zap.String("bundle", path))
	fmt.Fprintf(out, "%s %s applied to %s\n", styles.Success.Render("✓"), styles.Bold.Render(report.AvatarName), path)
	if report.BannerPatched {
		fmt.Fprintln(out, styles.Muted.Render("Welcome banner removed"))
	}
	return nil
}

func printDryRun(out io.Writer, styles ui.Styles, report *apply.Report) {
	fmt.Fprintf(out, "%s %s\n", styles.Title.Render("Avatar:"), report.AvatarName)
	fmt.Fprintf(out, "%s %s\n", styles.Title.Render("Detected variables:"), report.Symbols)
	fmt.Fprintf(out, "%s %s\n", styles.Title.Render("Anchor:"), report.Anchor)
	fmt.Fprintln(out, styles.Title.Render("Compiled expression:"))
	fmt.Fprintln(out, styles.CodeBlock.Render(report.Compiled))
}

// printSearchFailure shows what was looked for when the face fragment could
// not be located.
func printSearchFailure(out io.Writer, styles ui.Styles, err error) {
	var searchErr *patch.SearchError
	if !errors.As(err, &searchErr) {
		return
	}
	fmt.Fprintf(out, "%s %s\n", styles.Warning.Render("Detected variables:"), searchErr.Symbols)
	fmt.Fprintf(out, "%s %s\n", styles.Warning.Render("Expected pattern:"), searchErr.Expected)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
