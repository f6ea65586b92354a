package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all avatar tool configuration.
type Config struct {
	// BundlePath is the host CLI's minified bundle (cli.js).
	BundlePath string `yaml:"bundle_path"`

	// CatalogPath optionally points at a YAML or HCL catalog merged over
	// the built-in avatars.
	CatalogPath string `yaml:"catalog_path,omitempty"`

	// BackupDir holds bundle backups; empty means next to the bundle.
	BackupDir string `yaml:"backup_dir,omitempty"`

	// AuditLog, when set, receives every bundle operation as a JSON line.
	AuditLog string `yaml:"audit_log,omitempty"`

	// Backup takes a copy of the pristine bundle before the first write.
	Backup bool `yaml:"backup"`

	// Strict fails when the fingerprint or search pattern is ambiguous
	// instead of patching the first occurrence.
	Strict bool `yaml:"strict"`

	// AnchorPrefix replaces the resolved memo-cache anchor with a constant.
	AnchorPrefix string `yaml:"anchor_prefix,omitempty"`

	Banner  BannerConfig  `yaml:"banner"`
	Logging LoggingConfig `yaml:"logging"`
	Watch   WatchConfig   `yaml:"watch"`
}

// BannerConfig configures the welcome banner removal.
type BannerConfig struct {
	Enabled    bool `yaml:"enabled"`
	FromHeight int  `yaml:"from_height"`
	ToHeight   int  `yaml:"to_height"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backup: true,
		Banner: BannerConfig{
			Enabled:    true,
			FromHeight: 5,
			ToHeight:   7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if path := os.Getenv("AVATAR_BUNDLE"); path != "" {
		c.BundlePath = path
	}
	if path := os.Getenv("AVATAR_CATALOG"); path != "" {
		c.CatalogPath = path
	}
	if dir := os.Getenv("AVATAR_BACKUP_DIR"); dir != "" {
		c.BackupDir = dir
	}
	if path := os.Getenv("AVATAR_AUDIT_LOG"); path != "" {
		c.AuditLog = path
	}
	if level := os.Getenv("AVATAR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if v := os.Getenv("AVATAR_STRICT"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: AVATAR_STRICT=%q is not a boolean", ErrInvalidConfig, v)
		}
		c.Strict = strict
	}
	return nil
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted logging formats.
var ValidLogFormats = []string{"console", "json"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("%w: invalid log level %q (valid: %v)", ErrInvalidConfig, c.Logging.Level, ValidLogLevels)
	}
	if !contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("%w: invalid log format %q (valid: %v)", ErrInvalidConfig, c.Logging.Format, ValidLogFormats)
	}
	if c.Banner.Enabled && (c.Banner.FromHeight <= 0 || c.Banner.ToHeight <= 0) {
		return fmt.Errorf("%w: banner heights must be positive (from %d, to %d)", ErrInvalidConfig, c.Banner.FromHeight, c.Banner.ToHeight)
	}
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("%w: watch.debounce %q: %v", ErrInvalidConfig, c.Watch.Debounce, err)
		}
	}
	return nil
}

// RequireBundle returns an error when no bundle path is configured.
func (c *Config) RequireBundle() (string, error) {
	if c.BundlePath == "" {
		return "", fmt.Errorf("%w: bundle_path not set (use --bundle or AVATAR_BUNDLE)", ErrInvalidConfig)
	}
	return c.BundlePath, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
