package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/spacescan/pkg/spacescan/config"
	"github.com/jamesainslie/spacescan/pkg/spacescan/exclude"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage spacescan configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/spacescan/config.yaml (if set)
  2. ~/.config/spacescan/config.yaml

Environment variables can override config file settings using the SPACESCAN_ prefix:
  SPACESCAN_LARGE_THRESHOLD=1GiB
  SPACESCAN_TOP_K=50
  SPACESCAN_REPORT_COMPRESS=true`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, file, environment and flags.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd, configEditCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	if f := vip.ConfigFileUsed(); f != "" {
		fmt.Printf("Config file: %s\n\n", f)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	settings := vip.AllSettings()
	// Paths resolved by the loader are more useful than the empty defaults.
	if report, ok := settings["report"].(map[string]interface{}); ok {
		report["dir"] = cfg.Report.Dir
	}
	if hist, ok := settings["history"].(map[string]interface{}); ok {
		hist["path"] = cfg.History.Path
	}
	delete(settings, "quiet")
	delete(settings, "verbose")

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	fmt.Println("\nEnvironment Overrides:")
	overrides := envOverrides(os.Environ())
	if len(overrides) == 0 {
		fmt.Println("(none)")
	}
	for _, kv := range overrides {
		fmt.Println(kv)
	}

	if matcher, err := exclude.New(cfg.Exclude); err == nil {
		fmt.Println()
		writeExclusions(os.Stdout, matcher)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println()
		printError("configuration is invalid: %v", err)
	}
	return nil
}

// writeExclusions lists the effective exclusion rules, built-in rules first.
func writeExclusions(w io.Writer, m *exclude.Matcher) {
	fmt.Fprintf(w, "Exclusion Rules (case-insensitive: %t):\n", m.CaseInsensitive())
	for _, p := range m.Patterns() {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

// envOverrides returns the SPACESCAN_ variables in env, sorted.
func envOverrides(env []string) []string {
	var out []string
	for _, kv := range env {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	path, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("opening %s with %s", path, editor)
	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	existing, err := config.ConfigPath()
	if err != nil {
		return err
	}
	_, statErr := os.Stat(existing)

	path, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if statErr == nil {
		printInfo("Config file already exists: %s", path)
		return nil
	}
	printInfo("Created config file: %s", path)
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
