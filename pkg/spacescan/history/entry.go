package history

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// keyPrefix namespaces session entries inside the store.
const keyPrefix = "scan\x00"

// summaryTop is how many of the largest directories an entry keeps.
const summaryTop = 10

// Entry summarises one scan session.
type Entry struct {
	ID           string                  `json:"id" yaml:"id"`
	StartedAt    time.Time               `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time               `json:"finished_at" yaml:"finished_at"`
	Volumes      []string                `json:"volumes" yaml:"volumes"`
	Outcome      string                  `json:"outcome" yaml:"outcome"`
	ScannedBytes uint64                  `json:"scanned_bytes" yaml:"scanned_bytes"`
	TotalBytes   uint64                  `json:"total_bytes" yaml:"total_bytes"`
	DirsScanned  int64                   `json:"dirs_scanned" yaml:"dirs_scanned"`
	FilesScanned int64                   `json:"files_scanned" yaml:"files_scanned"`
	ErrorCount   int64                   `json:"error_count" yaml:"error_count"`
	LargeDirs    int                     `json:"large_dirs" yaml:"large_dirs"`
	FileTypes    int                     `json:"file_types" yaml:"file_types"`
	Top          []types.DirectoryRecord `json:"top" yaml:"top"`
	ArchivePath  string                  `json:"archive_path,omitempty" yaml:"archive_path,omitempty"`
}

// FromResult summarises a result. archivePath is the saved report, if any.
func FromResult(res types.Result, archivePath string) *Entry {
	top := res.LargeDirectories
	if len(top) > summaryTop {
		top = top[:summaryTop]
	}
	return &Entry{
		ID:           res.ID,
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
		Volumes:      append([]string(nil), res.Volumes...),
		Outcome:      res.Outcome.String(),
		ScannedBytes: res.ScannedBytes,
		TotalBytes:   res.TotalBytes,
		DirsScanned:  res.DirsScanned,
		FilesScanned: res.FilesScanned,
		ErrorCount:   res.ErrorCount,
		LargeDirs:    len(res.LargeDirectories),
		FileTypes:    len(res.FileTypes),
		Top:          append([]types.DirectoryRecord(nil), top...),
		ArchivePath:  archivePath,
	}
}

// Duration is how long the session ran.
func (e *Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Encode serializes the entry using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

func makeKey(id string) []byte {
	return []byte(keyPrefix + id)
}
