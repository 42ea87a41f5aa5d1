package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jamesainslie/spacescan/pkg/spacescan/config"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
)

var (
	cfgFile string

	// cfg and vip are set by setup before any command runs.
	cfg *config.Config
	vip *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "spacescan [mountpoint...]",
	Short: "Find the directories holding the most data on your volumes",
	Long: `spacescan walks whole volumes and reports the directories whose own files
take the most space, along with a count of files per extension.

With no arguments every usable volume is scanned. Press Ctrl+C to stop a scan
early; the partial result is still reported and saved.

Examples:
  spacescan                     # Scan all usable volumes
  spacescan / /home             # Scan two mountpoints
  spacescan -t 1GiB -o json /   # Only report directories over 1 GiB, as JSON
  spacescan volumes             # List volumes and their capacity
  spacescan du ~/Downloads      # Recursive size of a directory
  spacescan history             # Past scans`,
	Args:               cobra.ArbitraryArgs,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	RunE:               runScan,
}

// flagKeys maps command line flags to configuration keys. Flags only
// override the configuration when set.
var flagKeys = map[string]string{
	"output":    "output",
	"threshold": "large_threshold",
	"top":       "top_k",
	"interval":  "progress_interval",
	"workers":   "workers",
	"log-level": "logging.level",
	"quiet":     "quiet",
	"verbose":   "verbose",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/spacescan/config.yaml)")
	pf.StringP("output", "o", "", "output format (pretty, plain, json, yaml)")
	pf.StringSliceP("exclude", "e", nil, "extra glob pattern to prune (repeatable)")
	pf.String("log-level", "", "log file level (debug, info, warn, error)")
	pf.BoolP("quiet", "q", false, "minimal output")
	pf.BoolP("verbose", "v", false, "print every directory as it is scanned")

	addScanFlags(rootCmd.Flags())
}

// addScanFlags registers the flags shared by the root and scan commands.
func addScanFlags(fs *pflag.FlagSet) {
	fs.StringP("threshold", "t", "", "size at which a directory counts as large (e.g. 100MiB, 2GB)")
	fs.IntP("top", "k", 0, "number of large directories to keep")
	fs.String("interval", "", "minimum gap between progress updates (e.g. 250ms)")
	fs.Bool("all-filesystems", false, "descend into other filesystems mounted below a volume")
	fs.Bool("no-report", false, "do not save a report file")
	fs.Bool("no-history", false, "do not record the scan in history")
}

// setup loads the configuration, applies flag overrides and starts logging.
func setup(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	bindFlags(v, cmd.Flags())

	c, err := config.FromViper(v)
	if err != nil {
		return err
	}
	applyFlagOverrides(c, cmd.Flags())

	cfg, vip = c, v

	if err := logging.Init(c.LoggingConfig()); err != nil {
		// Logging is best effort; the scan itself does not depend on it.
		printVerbose("logging disabled: %v", err)
	}
	logging.Get("cli").Debug("command started", "command", cmd.CommandPath(), "config", v.ConfigFileUsed())
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	return logging.Close()
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// applyFlagOverrides handles flags that do not map one to one onto a key.
func applyFlagOverrides(c *config.Config, fs *pflag.FlagSet) {
	if extra, err := fs.GetStringSlice("exclude"); err == nil && len(extra) > 0 {
		c.Exclude = append(append([]string{}, c.Exclude...), extra...)
	}
	if on, err := fs.GetBool("all-filesystems"); err == nil && on {
		c.OneFilesystem = false
	}
	if on, err := fs.GetBool("no-report"); err == nil && on {
		c.Report.Enabled = false
	}
	if on, err := fs.GetBool("no-history"); err == nil && on {
		c.History.Enabled = false
	}
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return err
	}
	return nil
}

func getVerbose() bool {
	return vip != nil && vip.GetBool("verbose")
}

func getQuiet() bool {
	return vip != nil && vip.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
