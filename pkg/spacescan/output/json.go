package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/spacescan/pkg/spacescan/report"
)

// JSONFormatter writes the persisted report document, so its output can be
// read back by the same tools as the saved report files.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report.Build(r.Scan, r.stamp()))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
