package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"` // megabytes
	MaxAge     int  `mapstructure:"max_age"`  // days
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ReportConfig configures saved scan reports.
type ReportConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Dir           string `mapstructure:"dir"`
	Compress      bool   `mapstructure:"compress"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// HistoryConfig configures the scan history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config represents the application configuration.
type Config struct {
	LargeThreshold   string        `mapstructure:"large_threshold"`
	TopK             int           `mapstructure:"top_k"`
	Exclude          []string      `mapstructure:"exclude"`
	OneFilesystem    bool          `mapstructure:"one_filesystem"`
	ProgressInterval string        `mapstructure:"progress_interval"`
	Workers          int           `mapstructure:"workers"`
	Output           string        `mapstructure:"output"`
	Report           ReportConfig  `mapstructure:"report"`
	History          HistoryConfig `mapstructure:"history"`
	Logging          LoggingConfig `mapstructure:"logging"`
}

// Threshold parses LargeThreshold.
func (c *Config) Threshold() (uint64, error) {
	n, err := types.ParseSize(c.LargeThreshold)
	if err != nil {
		return 0, fmt.Errorf("large_threshold: %w", err)
	}
	return n, nil
}

// ProgressEvery parses ProgressInterval.
func (c *Config) ProgressEvery() (time.Duration, error) {
	d, err := time.ParseDuration(c.ProgressInterval)
	if err != nil {
		return 0, fmt.Errorf("progress_interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("progress_interval: %s is negative", c.ProgressInterval)
	}
	return d, nil
}

// Validate checks values that cannot be caught by unmarshaling.
func (c *Config) Validate() error {
	if _, err := c.Threshold(); err != nil {
		return err
	}
	if _, err := c.ProgressEvery(); err != nil {
		return err
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	if c.Logging.Path != "" {
		lc.Path = c.Logging.Path
	}
	lc.Rotation = logging.RotationConfig{
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxAge:     c.Logging.Rotation.MaxAge,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		Compress:   c.Logging.Rotation.Compress,
	}
	lc.Components = c.Logging.Components
	return lc
}

// NewViper returns a viper instance with defaults, environment binding and
// the config file read. cfgFile overrides the search path when set. A
// missing config file is not an error.
//
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/spacescan/config.yaml
//   - $HOME/.config/spacescan/config.yaml
//
// Environment variables are prefixed with SPACESCAN_ (e.g. SPACESCAN_TOP_K).
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("large_threshold", DefaultLargeThreshold)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("exclude", []string{})
	v.SetDefault("one_filesystem", true)
	v.SetDefault("progress_interval", DefaultProgressInterval)
	v.SetDefault("workers", 0)
	v.SetDefault("output", DefaultOutput)

	v.SetDefault("report.enabled", true)
	v.SetDefault("report.dir", "") // Empty means ReportDir()
	v.SetDefault("report.compress", true)
	v.SetDefault("report.retention_days", DefaultRetentionDays)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "") // Empty means HistoryPath()

	rot := logging.DefaultRotationConfig()
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means logging.DefaultLogPath()
	v.SetDefault("logging.rotation.max_size", rot.MaxSize)
	v.SetDefault("logging.rotation.max_age", rot.MaxAge)
	v.SetDefault("logging.rotation.max_backups", rot.MaxBackups)
	v.SetDefault("logging.rotation.compress", rot.Compress)
	v.SetDefault("logging.components", map[string]string{})
}

// FromViper unmarshals and normalises a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.Report.Dir == "" {
		cfg.Report.Dir = ReportDir()
	} else if cfg.Report.Dir, err = ExpandPath(cfg.Report.Dir); err != nil {
		return nil, err
	}
	if cfg.History.Path == "" {
		cfg.History.Path = HistoryPath()
	} else if cfg.History.Path, err = ExpandPath(cfg.History.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path != "" {
		if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Load loads configuration from the default file locations and environment.
func Load() (*Config, error) {
	v, err := NewViper("")
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "spacescan"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "spacescan"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	rot := logging.DefaultRotationConfig()
	defaultConfig := fmt.Sprintf(`# spacescan configuration

# Immediate-file size at which a directory is reported as large
large_threshold: %s

# Number of large directories kept in results
top_k: %d

# Extra glob patterns pruned in addition to the built-in system folders
exclude: []

# Do not descend into other filesystems mounted below a volume
one_filesystem: true

# Minimum gap between progress updates
progress_interval: %s

# Workers for "spacescan du" (0 = automatic)
workers: 0

# Result format: pretty, plain, json, yaml
output: %s

# Saved reports (large_dirs_log_YYYYMMDD_HHMMSS.json)
report:
  enabled: true
  # Empty means $XDG_DATA_HOME/spacescan/reports
  dir: ""
  # Pack each report into a zip archive
  compress: true
  retention_days: %d

# Scan history
history:
  enabled: true
  # Empty means $XDG_DATA_HOME/spacescan/history
  path: ""

logging:
  # Log level: debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/spacescan/spacescan.log
  path: ""
  rotation:
    max_size: %d      # megabytes
    max_age: %d       # days
    max_backups: %d
    compress: false
  components:
%s`, DefaultLargeThreshold, DefaultTopK, DefaultProgressInterval, DefaultOutput,
		DefaultRetentionDays, rot.MaxSize, rot.MaxAge, rot.MaxBackups, componentLines())

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return configPath, nil
}

func componentLines() string {
	names := make([]string, 0, len(DefaultComponents))
	for name := range DefaultComponents {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "    %s: %s\n", name, DefaultComponents[name])
	}
	return sb.String()
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/spacescan/ for reports and history.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "spacescan")
}

// ReportDir returns the default directory for saved reports.
func ReportDir() string {
	return filepath.Join(DataDir(), "reports")
}

// HistoryPath returns the default history store directory.
func HistoryPath() string {
	return filepath.Join(DataDir(), "history")
}
