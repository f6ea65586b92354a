package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brianholle/custom-claude-avatar/cmd/avatar/ui"
	"github.com/brianholle/custom-claude-avatar/internal/apply"
	"github.com/brianholle/custom-claude-avatar/internal/watch"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <avatar>",
	Short: "Re-apply an avatar whenever the bundle is replaced",
	Long: `Applies the avatar now if the bundle is pristine, then keeps watching
the bundle's directory. When an install or auto-update drops a fresh
cli.js in place, the avatar is applied again. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	path, err := c.RequireBundle()
	if err != nil {
		return err
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	// Fail on an unknown key before starting the loop.
	if _, err := cat.Lookup(args[0]); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()
	store, closeStore := newStore()
	defer closeStore()
	svc := apply.NewService(cat, newEngine(c.Strict), store, apply.Options{
		Strict:       c.Strict,
		AnchorPrefix: c.AnchorPrefix,
	}, currentLogger())

	w, err := watch.New(svc, store, watch.Options{
		Path:     path,
		Key:      args[0],
		Debounce: c.GetDebounce(),
		Backup:   c.Backup,
		OnApplied: func(r *apply.Report) {
			fmt.Fprintf(out, "%s %s applied to %s\n", styles.Success.Render("✓"), r.AvatarName, path)
		},
	}, currentLogger())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", path)
	<-ctx.Done()
	w.Stop()

	stats := w.Stats()
	fmt.Fprintf(out, "Applied %d time(s), %d event(s), %d error(s)\n", stats.Applied, stats.Events, stats.Errors)
	return nil
}
