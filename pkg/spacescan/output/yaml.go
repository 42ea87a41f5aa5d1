package output

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/spacescan/pkg/spacescan/report"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// yamlOutput is the report document plus scan statistics.
type yamlOutput struct {
	report.Document `yaml:",inline"`
	Stats           yamlStats `yaml:"stats"`
}

type yamlStats struct {
	ID           string   `yaml:"id,omitempty"`
	Outcome      string   `yaml:"outcome"`
	Volumes      []string `yaml:"volumes"`
	DirsScanned  int64    `yaml:"dirs_scanned"`
	FilesScanned int64    `yaml:"files_scanned"`
	ErrorCount   int64    `yaml:"error_count"`
	ScannedBytes uint64   `yaml:"scanned_bytes"`
	ScannedHuman string   `yaml:"scanned_human"`
	Duration     string   `yaml:"duration"`
	ReportPath   string   `yaml:"report_path,omitempty"`
	Warnings     []string `yaml:"warnings,omitempty"`
}

// YAMLFormatter writes the report document with scan statistics as YAML.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	s := r.Scan
	out := yamlOutput{
		Document: report.Build(s, r.stamp()),
		Stats: yamlStats{
			ID:           s.ID,
			Outcome:      s.Outcome.String(),
			Volumes:      s.Volumes,
			DirsScanned:  s.DirsScanned,
			FilesScanned: s.FilesScanned,
			ErrorCount:   s.ErrorCount,
			ScannedBytes: s.ScannedBytes,
			ScannedHuman: types.HumanBytes(s.ScannedBytes),
			Duration:     s.Elapsed.String(),
			ReportPath:   r.ReportPath,
			Warnings:     r.Warnings,
		},
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

var _ Formatter = (*YAMLFormatter)(nil)
