package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/spacescan/pkg/spacescan/history"
	"github.com/jamesainslie/spacescan/pkg/spacescan/output"
	"github.com/jamesainslie/spacescan/pkg/spacescan/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past scans",
	Long: `History lists the scans recorded in the history store, newest first.

Examples:
  spacescan history                 # Last 20 scans
  spacescan history show 0b7e1c52   # Details of one scan
  spacescan history show 0b7e --report
  spacescan history clean --older-than 7
  spacescan history reports         # Saved report files`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one past scan",
	Long:  `Show prints a recorded scan. ID may be any unique prefix of the scan id.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old history entries and reports",
	RunE:  runHistoryClean,
}

var historyReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List saved report files",
	RunE:  runHistoryReports,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of entries (0 for all)")
	historyShowCmd.Flags().Bool("report", false, "print the saved report document instead of the summary")
	historyCleanCmd.Flags().Int("older-than", 0, "remove entries older than this many days (default: report.retention_days)")
	historyReportsCmd.Flags().IntP("limit", "n", 20, "maximum number of reports (0 for all)")

	historyCmd.AddCommand(historyShowCmd, historyCleanCmd, historyReportsCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	printVerbose("history store: %s", cfg.History.Path)
	return history.Open(cfg.History.Path)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 && cfg.Output != "json" && cfg.Output != "yaml" {
		printInfo("No scans recorded yet.")
		return nil
	}
	return output.WriteHistory(os.Stdout, entries, cfg.Output)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	showReport, _ := cmd.Flags().GetBool("report")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := store.Find(args[0])
	if err != nil {
		return err
	}
	if !showReport {
		return output.WriteHistoryEntry(os.Stdout, e, cfg.Output)
	}
	return printArchivedReport(e)
}

// printArchivedReport prints the report document saved with e.
func printArchivedReport(e *history.Entry) error {
	if e.ArchivePath == "" {
		return fmt.Errorf("scan %s has no saved report", e.ID)
	}
	archive, err := report.NewArchive(filepath.Dir(e.ArchivePath), false)
	if err != nil {
		return err
	}
	doc, err := archive.Load(e.ArchivePath)
	if err != nil {
		return err
	}
	return output.WriteDocument(os.Stdout, doc, cfg.Output)
}

func runHistoryClean(cmd *cobra.Command, _ []string) error {
	days, _ := cmd.Flags().GetInt("older-than")
	if days <= 0 {
		days = cfg.Report.RetentionDays
	}
	if days <= 0 {
		return fmt.Errorf("nothing to clean: retention is disabled, pass --older-than")
	}
	now := time.Now()

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Clean(now.AddDate(0, 0, -days))
	if err != nil {
		return err
	}

	archive, err := report.NewArchive(cfg.Report.Dir, cfg.Report.Compress)
	if err != nil {
		return err
	}
	reports, err := archive.Cleanup(days, now)
	if err != nil {
		return err
	}

	printInfo("Removed %d history entries and %d reports older than %d days.", entries, reports, days)
	return nil
}

func runHistoryReports(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	archive, err := report.NewArchive(cfg.Report.Dir, cfg.Report.Compress)
	if err != nil {
		return err
	}
	entries, err := archive.List(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 && cfg.Output != "json" && cfg.Output != "yaml" {
		printInfo("No reports in %s.", archive.Dir())
		return nil
	}
	return output.WriteReports(os.Stdout, entries, cfg.Output)
}
