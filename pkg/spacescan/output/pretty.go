package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// PrettyFormatter renders results with lipgloss styling for a terminal.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatDirectories(r))
	w.WriteString("\n")
	w.WriteString(f.formatTypes(r))
	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
		w.WriteString("\n")
		for _, warning := range r.Warnings {
			w.WriteString(WarningStyle.Render("  " + warning))
			w.WriteString("\n")
		}
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	s := r.Scan
	var lines []string

	lines = append(lines, fmt.Sprintf("%s %s",
		LabelStyle.Render("Volumes:"),
		ValueStyle.Render(strings.Join(s.Volumes, ", "))))

	lines = append(lines, fmt.Sprintf("%s %s  %s %s",
		LabelStyle.Render("Scanned:"),
		ValueStyle.Render(fmt.Sprintf("%d dirs, %d files in %s",
			s.DirsScanned, s.FilesScanned, formatDuration(s.Elapsed))),
		LabelStyle.Render("Size:"),
		SizeStyle.Render(types.HumanBytes(s.ScannedBytes))))

	if s.ErrorCount > 0 {
		lines = append(lines, ErrorStyle.Render(fmt.Sprintf("%d directories could not be read", s.ErrorCount)))
	}
	if s.Cancelled() {
		lines = append(lines, WarningStyle.Bold(true).Render("Scan cancelled, results are partial"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatDirectories(r *Result) string {
	dirs := r.Scan.LargeDirectories
	if len(dirs) == 0 {
		return MutedStyle.Render("  No large directories found") + "\n"
	}

	sizes := make([]string, len(dirs))
	width := 10
	for i, d := range dirs {
		sizes[i] = types.FormatSize(d.Size)
		if len(sizes[i]) > width {
			width = len(sizes[i])
		}
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Largest directories"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %s  %s\n",
		TableHeaderStyle.Render(padLeft("SIZE", width)),
		TableHeaderStyle.Render("PATH")))
	for i, d := range dirs {
		sb.WriteString(fmt.Sprintf("  %s  %s\n",
			SizeStyle.Render(padLeft(sizes[i], width)),
			PathStyle.Render(d.Path)))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatTypes(r *Result) string {
	rows := SortedTypes(r.Scan.FileTypes, r.typeLimit())
	if len(rows) == 0 {
		return ""
	}

	width := 4
	for _, row := range rows {
		if l := len(ExtLabel(row.Ext)); l > width {
			width = l
		}
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("File types"))
	sb.WriteString("\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  %s  %s\n",
			ValueStyle.Render(padRight(ExtLabel(row.Ext), width)),
			MutedStyle.Render(fmt.Sprintf("%d", row.Count))))
	}
	if n := len(r.Scan.FileTypes) - len(rows); n > 0 {
		sb.WriteString(MutedStyle.Render(fmt.Sprintf("  ... and %d more", n)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Large dirs:"),
		ValueStyle.Render(fmt.Sprintf("%d", len(r.Scan.LargeDirectories)))))

	status := SuccessStyle.Render(r.Scan.Outcome.String())
	if r.Scan.Cancelled() {
		status = WarningStyle.Render(r.Scan.Outcome.String())
	}
	parts = append(parts, status)

	if r.ReportPath != "" {
		parts = append(parts, fmt.Sprintf("%s %s",
			LabelStyle.Render("Report:"),
			MutedStyle.Render(r.ReportPath)))
	} else {
		parts = append(parts, MutedStyle.Render("Use -o plain for unformatted output"))
	}

	return FooterBox.Render(strings.Join(parts, "  "))
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
