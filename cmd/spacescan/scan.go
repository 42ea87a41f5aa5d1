package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/spacescan/pkg/spacescan/engine"
	"github.com/jamesainslie/spacescan/pkg/spacescan/exclude"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/output"
	"github.com/jamesainslie/spacescan/pkg/spacescan/reporter"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
	"github.com/jamesainslie/spacescan/pkg/spacescan/volume"
)

// maxWarnings bounds the unreadable-directory lines printed after a scan.
const maxWarnings = 5

var scanCmd = &cobra.Command{
	Use:   "scan [mountpoint...]",
	Short: "Scan volumes for large directories",
	Long: `Scan walks the given mountpoints, or every usable volume when none are
given, and reports directories whose own files exceed the large threshold.

Unknown mountpoints are ignored. Ctrl+C stops the scan and reports what was
found so far.`,
	RunE: runScan,
}

func init() {
	addScanFlags(scanCmd.Flags())
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	threshold, _ := cfg.Threshold()
	interval, _ := cfg.ProgressEvery()

	matcher, err := exclude.New(cfg.Exclude)
	if err != nil {
		return fmt.Errorf("invalid exclude pattern: %w", err)
	}

	formatter, err := output.Get(cfg.Output)
	if err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}

	catalog := volume.New()
	selection := args
	if len(selection) == 0 {
		if selection, err = usableMountpoints(catalog); err != nil {
			return err
		}
	}
	printVerbose("selected volumes: %v", selection)

	log := logging.Get("cli")
	orch := engine.New(engine.Options{
		Catalog:          catalog,
		Matcher:          matcher,
		Threshold:        threshold,
		TopK:             cfg.TopK,
		OneFilesystem:    cfg.OneFilesystem,
		ProgressInterval: interval,
	})

	con := newConsole(os.Stderr, isTerminal(os.Stderr), getQuiet(), getVerbose())
	con.logPath = cfg.LoggingConfig().Path

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := drive(ctx, orch, selection, reporter.Multi{con, reporter.NewLog()}, con)
	if err != nil {
		if errors.Is(err, engine.ErrNoVolumes) {
			return fmt.Errorf("%w: none of %v is a known volume (see 'spacescan volumes')", err, selection)
		}
		return err
	}
	log.Info("scan finished", "id", res.ID, "outcome", res.Outcome, "dirs", res.DirsScanned, "errors", res.ErrorCount)
	if n := con.Dropped(); n > 0 {
		printVerbose("%d older trace lines not kept in memory (full trace in %s)", n, con.logPath)
	}

	now := time.Now()
	reportPath, warnings := persist(cfg, res, now)
	for _, w := range warnings {
		printInfo("%s", output.WarningStyle.Render("Warning: "+w))
	}

	out := &output.Result{
		Scan:       res,
		Timestamp:  now,
		ReportPath: reportPath,
		Warnings:   con.Warnings(maxWarnings),
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, out); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = os.Stdout.Write(buf.Bytes())
	return err
}

// drive starts a session and replays its events on rep from the calling
// goroutine, so the worker never waits on terminal or log output. When ctx
// is done the session is stopped and its partial result still returned.
func drive(ctx context.Context, orch *engine.Orchestrator, selection []string, rep engine.Reporter, con *console) (types.Result, error) {
	ch := reporter.NewChannel()
	if _, err := orch.Start(selection, ch); err != nil {
		ch.Close()
		for e := range ch.Events() {
			e.Deliver(rep)
		}
		return types.Result{}, err
	}

	var res types.Result
	done := ctx.Done()
	for {
		select {
		case e, ok := <-ch.Events():
			if !ok {
				return res, nil
			}
			if e.Type == reporter.EventComplete {
				res = e.Result
			}
			e.Deliver(rep)
		case <-done:
			done = nil
			if orch.Stop() && con != nil {
				con.Notice("Interrupted, stopping scan...")
			}
		}
	}
}

// usableMountpoints returns every volume whose capacity could be read.
func usableMountpoints(catalog *volume.Catalog) ([]string, error) {
	vols, err := catalog.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}
	var mps []string
	for _, v := range vols {
		if v.Usable {
			mps = append(mps, v.Mountpoint)
		}
	}
	if len(mps) == 0 {
		return nil, engine.ErrNoVolumes
	}
	return mps, nil
}
