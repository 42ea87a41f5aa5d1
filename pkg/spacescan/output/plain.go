package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// PlainFormatter writes unstyled tab-aligned tables for scripts and pipes:
// the large directories, a blank line, then the extension counts.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := fmt.Fprint(tw, "SIZE\tPATH\n"); err != nil {
		return err
	}
	for _, d := range r.Scan.LargeDirectories {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", types.FormatSize(d.Size), d.Path); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	w.WriteString("\n")
	tw = tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if _, err := fmt.Fprint(tw, "EXT\tCOUNT\n"); err != nil {
		return err
	}
	for _, row := range SortedTypes(r.Scan.FileTypes, r.typeLimit()) {
		if _, err := fmt.Fprintf(tw, "%s\t%d\n", ExtLabel(row.Ext), row.Count); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
