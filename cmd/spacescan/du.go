package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/spacescan/pkg/spacescan/exclude"
	"github.com/jamesainslie/spacescan/pkg/spacescan/output"
	"github.com/jamesainslie/spacescan/pkg/spacescan/subtree"
)

var duCmd = &cobra.Command{
	Use:   "du PATH...",
	Short: "Measure the total size of directory trees",
	Long: `Du walks each path in parallel and prints its recursive size, file count
and directory count. Exclusion rules apply as in a scan; symbolic links are
counted but not followed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDu,
}

func init() {
	duCmd.Flags().IntP("workers", "w", 0, "parallel walkers (default: number of CPUs)")
	rootCmd.AddCommand(duCmd)
}

func runDu(cmd *cobra.Command, args []string) error {
	matcher, err := exclude.New(cfg.Exclude)
	if err != nil {
		return fmt.Errorf("invalid exclude pattern: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	totals, err := subtree.MeasureAll(ctx, args, matcher, workers)
	if errors.Is(err, context.Canceled) {
		printInfo("%s", output.WarningStyle.Render("Interrupted, totals are partial"))
	} else if err != nil {
		return err
	}
	for _, t := range totals {
		if t.Errors > 0 {
			printVerbose("%s: %d entries could not be read", t.Root, t.Errors)
		}
	}
	return output.WriteTotals(os.Stdout, totals, cfg.Output)
}
