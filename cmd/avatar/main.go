package main

import (
	"fmt"
	"os"

	"github.com/brianholle/custom-claude-avatar/internal/bundle"
	"github.com/brianholle/custom-claude-avatar/internal/catalog"
	"github.com/brianholle/custom-claude-avatar/internal/config"
	"github.com/brianholle/custom-claude-avatar/internal/logging"
	"github.com/brianholle/custom-claude-avatar/internal/patch"
	"github.com/brianholle/custom-claude-avatar/internal/transparency"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	bundlePath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Swap the welcome avatar in a Claude Code install",
	Long: `avatar compiles an avatar from its catalog into the UI framework's
createElement calls and patches it over the default face in the host's
minified bundle (cli.js). The bundle is backed up before the first write
and can be restored with 'avatar restore'.

The bundle path comes from --bundle, AVATAR_BUNDLE (also read from a
local .env file) or bundle_path in the config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if bundlePath != "" {
			loaded.BundlePath = bundlePath
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: verbose,
		})
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&bundlePath, "bundle", "b", "", "Path to the host cli.js bundle")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, transparency.ClassifyError(err).Format())
		os.Exit(1)
	}
}

// currentConfig returns the loaded config, or defaults when commands run
// without the root pre-run (as in tests).
func currentConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

func currentLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// loadCatalog returns the built-in catalog merged with the configured
// catalog file, whose entries win on key collisions.
func loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	path := currentConfig().CatalogPath
	if path == "" {
		return cat, nil
	}
	extra, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	logging.For(currentLogger(), logging.CategoryCatalog).Info("catalog merged",
		zap.String("path", path), zap.Int("avatars", extra.Len()))
	return cat.Merge(extra), nil
}

func newEngine(strict bool) *patch.Engine {
	c := currentConfig()
	return patch.New(patch.Options{
		Strict: strict,
		Banner: patch.BannerOptions{
			Enabled:    c.Banner.Enabled,
			FromHeight: c.Banner.FromHeight,
			ToHeight:   c.Banner.ToHeight,
		},
	})
}

// newStore builds the bundle store. The returned func closes the audit log,
// if one is configured.
func newStore() (*bundle.Store, func()) {
	c := currentConfig()
	store := bundle.NewStore(currentLogger())
	store.SetBackupDir(c.BackupDir)

	audit := logging.For(currentLogger(), logging.CategoryBundle)
	var auditLog *bundle.AuditLog
	if c.AuditLog != "" {
		var err error
		if auditLog, err = bundle.OpenAuditLog(c.AuditLog); err != nil {
			audit.Warn("audit log disabled", zap.Error(err))
		} else {
			audit.Debug("audit log opened", zap.String("path", auditLog.Path()))
		}
	}
	store.SetAuditCallback(func(e bundle.AuditEvent) {
		audit.Debug("audit",
			zap.String("op", string(e.Type)),
			zap.String("path", e.Path),
			zap.String("session", e.SessionID),
			zap.Bool("success", e.Success),
		)
		if auditLog != nil {
			auditLog.Record(e)
		}
	})
	return store, func() {
		if auditLog != nil {
			_ = auditLog.Close()
		}
	}
}

func requireBundle() (string, error) {
	path, err := currentConfig().RequireBundle()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("bundle: %w", err)
	}
	return path, nil
}
