package main

import (
	"fmt"
	"time"

	"github.com/jamesainslie/spacescan/pkg/spacescan/config"
	"github.com/jamesainslie/spacescan/pkg/spacescan/history"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/report"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// persist saves the report document and the history entry for res. Neither
// step fails the command; problems come back as warnings. It returns the
// report path, empty when no report was written.
func persist(c *config.Config, res types.Result, now time.Time) (string, []string) {
	log := logging.Get("report")
	var warnings []string

	var reportPath string
	if c.Report.Enabled {
		path, err := saveReport(c.Report, res, now)
		if err != nil {
			log.Error("failed to save report", "error", err)
			warnings = append(warnings, fmt.Sprintf("report not saved: %v", err))
		} else {
			reportPath = path
		}
	}

	if c.History.Enabled {
		if err := recordHistory(c.History.Path, res, reportPath); err != nil {
			log.Error("failed to record history", "error", err)
			warnings = append(warnings, fmt.Sprintf("history not recorded: %v", err))
		}
	}
	return reportPath, warnings
}

func saveReport(rc config.ReportConfig, res types.Result, now time.Time) (string, error) {
	archive, err := report.NewArchive(rc.Dir, rc.Compress)
	if err != nil {
		return "", err
	}
	path, err := archive.Save(report.Build(res, now), now)
	if err != nil {
		return "", err
	}
	if removed, err := archive.Cleanup(rc.RetentionDays, now); err != nil {
		logging.Get("report").Warn("report cleanup failed", "error", err)
	} else if removed > 0 {
		logging.Get("report").Info("old reports removed", "count", removed)
	}
	return path, nil
}

func recordHistory(path string, res types.Result, reportPath string) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Put(history.FromResult(res, reportPath))
}
