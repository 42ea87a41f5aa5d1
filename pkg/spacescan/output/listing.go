package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/spacescan/pkg/spacescan/history"
	"github.com/jamesainslie/spacescan/pkg/spacescan/report"
	"github.com/jamesainslie/spacescan/pkg/spacescan/subtree"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// writeStructured encodes v for the json and yaml formats. It reports false
// for table formats.
func writeStructured(w io.Writer, v any, format string) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case "pretty", "plain", "":
		return false, nil
	default:
		return true, fmt.Errorf("unknown formatter: %s", format)
	}
}

func header(cols ...string) string {
	return strings.Join(cols, "\t")
}

// WriteVolumes lists volumes with their capacity.
func WriteVolumes(w io.Writer, vols []types.Volume, format string) error {
	if done, err := writeStructured(w, vols, format); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header("MOUNTPOINT", "FS", "SIZE", "USED", "FREE", "DEVICE"))
	for _, v := range vols {
		size, used, free := "?", "?", "?"
		if v.Usable {
			size = types.HumanBytes(v.TotalBytes)
			used = types.HumanBytes(v.UsedBytes())
			free = types.HumanBytes(v.FreeBytes)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", v.Mountpoint, v.FSType, size, used, free, v.Device)
	}
	return tw.Flush()
}

// WriteTotals lists subtree measurements.
func WriteTotals(w io.Writer, totals []subtree.Totals, format string) error {
	if done, err := writeStructured(w, totals, format); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header("SIZE", "FILES", "DIRS", "PATH"))
	for _, t := range totals {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", types.HumanBytes(t.Bytes), t.Files, t.Dirs, t.Root)
	}
	return tw.Flush()
}

// WriteHistory lists stored scan sessions.
func WriteHistory(w io.Writer, entries []*history.Entry, format string) error {
	if done, err := writeStructured(w, entries, format); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header("ID", "STARTED", "DURATION", "OUTCOME", "SCANNED", "LARGE", "VOLUMES"))
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(e.ID),
			e.StartedAt.Local().Format(time.DateTime),
			formatDuration(e.Duration()),
			e.Outcome,
			types.HumanBytes(e.ScannedBytes),
			e.LargeDirs,
			strings.Join(e.Volumes, ","))
	}
	return tw.Flush()
}

// WriteHistoryEntry shows one session in detail.
func WriteHistoryEntry(w io.Writer, e *history.Entry, format string) error {
	if done, err := writeStructured(w, e, format); done {
		return err
	}

	label := func(s string) string {
		if format == "pretty" {
			return LabelStyle.Render(s)
		}
		return s
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", label("ID:"), e.ID)
	fmt.Fprintf(tw, "%s\t%s\n", label("Started:"), e.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "%s\t%s\n", label("Duration:"), formatDuration(e.Duration()))
	fmt.Fprintf(tw, "%s\t%s\n", label("Outcome:"), e.Outcome)
	fmt.Fprintf(tw, "%s\t%s\n", label("Volumes:"), strings.Join(e.Volumes, ", "))
	fmt.Fprintf(tw, "%s\t%d dirs, %d files, %s\n", label("Scanned:"),
		e.DirsScanned, e.FilesScanned, types.HumanBytes(e.ScannedBytes))
	fmt.Fprintf(tw, "%s\t%d\n", label("Errors:"), e.ErrorCount)
	fmt.Fprintf(tw, "%s\t%d large directories, %d file types\n", label("Found:"), e.LargeDirs, e.FileTypes)
	if e.ArchivePath != "" {
		fmt.Fprintf(tw, "%s\t%s\n", label("Report:"), e.ArchivePath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(e.Top) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header("SIZE", "PATH"))
	for _, d := range e.Top {
		fmt.Fprintf(tw, "%s\t%s\n", types.FormatSize(d.Size), d.Path)
	}
	return tw.Flush()
}

// WriteReports lists saved report files.
func WriteReports(w io.Writer, entries []report.Entry, format string) error {
	if done, err := writeStructured(w, entries, format); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header("SAVED", "SIZE", "NAME"))
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			e.Time.Local().Format(time.DateTime),
			types.HumanBytes(uint64(e.Size)),
			e.Name)
	}
	return tw.Flush()
}

// WriteDocument prints a saved report document.
func WriteDocument(w io.Writer, doc report.Document, format string) error {
	if done, err := writeStructured(w, doc, format); done {
		return err
	}

	fmt.Fprintf(w, "Report from %s\n\n", doc.Timestamp)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header("SIZE", "PATH"))
	for _, d := range doc.LargeDirectories {
		fmt.Fprintf(tw, "%s\t%s\n", d.Size, d.Path)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, header("EXT", "COUNT"))
	for _, tc := range SortedTypes(doc.FileTypes, -1) {
		fmt.Fprintf(tw, "%s\t%d\n", ExtLabel(tc.Ext), tc.Count)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
