// Package report persists scan results as JSON documents, optionally
// compressed into zip archives, and manages the saved reports.
package report

import (
	"time"

	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// TimestampFormat is the ISO-8601 layout of Document.Timestamp.
const TimestampFormat = time.RFC3339

// Record is one large directory with its size rendered for people.
type Record struct {
	Size string `json:"size" yaml:"size"`
	Path string `json:"path" yaml:"path"`
}

// Document is the persisted form of a scan result.
type Document struct {
	Timestamp        string           `json:"timestamp" yaml:"timestamp"`
	LargeDirectories []Record         `json:"large_directories" yaml:"large_directories"`
	FileTypes        map[string]int64 `json:"file_types" yaml:"file_types"`
}

// Build converts a result into a Document stamped with now. Directories keep
// the result's order, largest first.
func Build(res types.Result, now time.Time) Document {
	doc := Document{
		Timestamp:        now.Format(TimestampFormat),
		LargeDirectories: make([]Record, 0, len(res.LargeDirectories)),
		FileTypes:        make(map[string]int64, len(res.FileTypes)),
	}
	for _, d := range res.LargeDirectories {
		doc.LargeDirectories = append(doc.LargeDirectories, Record{
			Size: types.FormatSize(d.Size),
			Path: d.Path,
		})
	}
	for ext, n := range res.FileTypes {
		doc.FileTypes[ext] = n
	}
	return doc
}

// Time parses the document timestamp.
func (d Document) Time() (time.Time, error) {
	return time.Parse(TimestampFormat, d.Timestamp)
}
